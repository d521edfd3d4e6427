// Command scholar is the terminal client of the research assistant.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/xiaot623/scholar/internal/client"
	"github.com/xiaot623/scholar/internal/config"
	"github.com/xiaot623/scholar/internal/terminal"
)

var (
	profilePath  string
	serverURL    string
	identityFile string
	noStream     bool
	verbose      bool
)

// errReported marks failures the view has already shown.
var errReported = errors.New("reported")

var rootCmd = &cobra.Command{
	Use:   "scholar",
	Short: "Terminal client for the research assistant",
	Long: `Scholar sends research questions to the assistant server, shows step
progress while the answer is produced and renders the answer as markdown.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&profilePath, "config", "", "Profile path (default: ~/.scholar/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL (overrides the profile)")
	rootCmd.PersistentFlags().StringVar(&identityFile, "identity", "", "Conversation identity file (overrides the profile)")
	rootCmd.PersistentFlags().BoolVar(&noStream, "no-stream", false, "Use the non-streaming endpoint")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// app is what every command needs, resolved from the profile and flags.
type app struct {
	profile  config.Profile
	client   *client.Client
	identity *client.IdentityStore
	view     *terminal.View
	logger   *slog.Logger
}

func newApp() (*app, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home: %w", err)
	}
	path := profilePath
	if path == "" {
		path = config.DefaultProfilePath(home)
	}
	profile, err := config.LoadProfile(path, home)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		profile.ServerURL = serverURL
	}
	if identityFile != "" {
		profile.IdentityFile = identityFile
	}
	if noStream {
		profile.Stream = false
	}

	logger := newLogger()
	view, err := terminal.New(os.Stdout, viewOptions(profile.Style))
	if err != nil {
		return nil, err
	}
	return &app{
		profile:  profile,
		client:   client.New(profile.ServerURL, client.WithLogger(logger)),
		identity: client.NewIdentityStore(profile.IdentityFile),
		view:     view,
		logger:   logger,
	}, nil
}

// viewOptions sizes the view to the terminal. Output that is not a
// terminal gets one progress line per update.
func viewOptions(style string) terminal.Options {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return terminal.Options{Style: style, Plain: true}
	}
	width := 80
	if w, _, err := term.GetSize(fd); err == nil && w > 0 {
		width = min(w, 120)
	}
	return terminal.Options{Width: width, Style: style}
}

// newLogger creates a structured logger with the configured verbosity.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
