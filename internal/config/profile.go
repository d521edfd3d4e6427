package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is the CLI configuration stored in ~/.scholar/config.yaml.
type Profile struct {
	ServerURL    string        `yaml:"server_url"`
	IdentityFile string        `yaml:"identity_file"`
	Stream       bool          `yaml:"stream"`
	Timeout      time.Duration `yaml:"timeout"`
	Style        string        `yaml:"style"`
}

// DefaultProfile returns the profile used when no file exists.
func DefaultProfile(home string) Profile {
	return Profile{
		ServerURL:    "http://localhost:8080",
		IdentityFile: filepath.Join(home, ".scholar", "conversation_id"),
		Stream:       true,
		Timeout:      5 * time.Minute,
		Style:        "auto",
	}
}

// DefaultProfilePath returns ~/.scholar/config.yaml.
func DefaultProfilePath(home string) string {
	return filepath.Join(home, ".scholar", "config.yaml")
}

// LoadProfile reads path over the defaults. A missing file yields the defaults.
func LoadProfile(path, home string) (Profile, error) {
	p := DefaultProfile(home)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if p.Timeout < 0 {
		return p, fmt.Errorf("parse profile %s: negative timeout", path)
	}
	return p, nil
}
