package arxiv

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

const pdfExt = ".pdf"

// New-style ids look like 2301.01234v2, old-style ones like hep-th/9901001.
var idPattern = regexp.MustCompile(`^([a-z][a-zA-Z.\-]*/)?[0-9]{4,7}(\.[0-9]{4,5})?(v[0-9]+)?$`)

// ValidID reports whether id has the shape of an arXiv identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Library is a directory of downloaded PDFs. A Library with an empty dir
// stores nothing.
type Library struct {
	dir string
}

// NewLibrary returns a library rooted at dir. The directory is created on
// first save.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Enabled reports whether the library has somewhere to store files.
func (l *Library) Enabled() bool {
	return l != nil && l.dir != ""
}

func fileName(id string) string {
	return strings.ReplaceAll(id, "/", "_") + pdfExt
}

func (l *Library) path(id string) string {
	return filepath.Join(l.dir, fileName(id))
}

// Lookup returns the path of the stored PDF for id, if there is one.
func (l *Library) Lookup(id string) (string, bool) {
	if !l.Enabled() || !ValidID(id) {
		return "", false
	}
	p := l.path(id)
	if info, err := os.Stat(p); err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}

// Save writes the PDF for id from r. The file appears atomically.
func (l *Library) Save(id string, r io.Reader) (*Download, error) {
	if !l.Enabled() {
		return nil, ErrDownloadsDisabled
	}
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create library: %w", err)
	}

	tmp, err := os.CreateTemp(l.dir, ".download-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}

	dst := l.path(id)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("failed to store pdf: %w", err)
	}
	return &Download{PaperID: id, Filename: filepath.Base(dst), Path: dst}, nil
}

// List returns the stored PDFs ordered by paper id.
func (l *Library) List() ([]Download, error) {
	if !l.Enabled() {
		return nil, nil
	}
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var downloads []Download
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, pdfExt) {
			continue
		}
		id := strings.ReplaceAll(strings.TrimSuffix(name, pdfExt), "_", "/")
		downloads = append(downloads, Download{
			PaperID:  id,
			Filename: name,
			Path:     filepath.Join(l.dir, name),
		})
	}
	sort.Slice(downloads, func(i, j int) bool { return downloads[i].PaperID < downloads[j].PaperID })
	return downloads, nil
}
