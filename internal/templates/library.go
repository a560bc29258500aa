package templates

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"

	"github.com/ironsheep/card-scanner/internal/failure"
	"github.com/ironsheep/card-scanner/internal/imaging"
)

// supportedExts is the allow-list of template file extensions.
var supportedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Template is a single set-icon reference image.
type Template struct {
	// ID is the set identifier, taken from the filename without extension.
	ID string

	// Image is the grayscale template.
	Image *image.Gray
}

// Library is an ordered, read-only collection of templates.
type Library struct {
	dir   string
	order []string
	byID  map[string]*Template
}

// Empty returns a library with no templates.
func Empty() *Library {
	return &Library{byID: map[string]*Template{}}
}

// FromTemplates builds a library from in-memory templates, applying the same
// collision rule as Load.
func FromTemplates(ts ...*Template) *Library {
	lib := Empty()
	for _, t := range ts {
		lib.add(t)
	}
	return lib
}

// Load reads every supported image in dir into a new Library.
//
// The logger receives one WARN record per skipped file; nil means
// slog.Default().
func Load(dir string, logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, failure.New(failure.TemplateLoad, "failed to read template directory", err).
			With("dir", dir)
	}

	lib := &Library{
		dir:  dir,
		byID: make(map[string]*Template, len(entries)),
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsSupported(entry.Name()) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		tmpl, err := loadTemplate(path)
		if err != nil {
			logger.Warn("skipping template", "path", path, "err", err)
			continue
		}
		lib.add(tmpl)
	}

	logger.Debug("templates loaded", "dir", dir, "count", lib.Len())
	return lib, nil
}

// IsSupported reports whether name has a template file extension.
func IsSupported(name string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(name))]
}

// IDFromFilename returns the identifier a template file would load as.
func IDFromFilename(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func loadTemplate(path string) (*Template, error) {
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode template: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("template %s has no pixels", filepath.Base(path))
	}

	return &Template{
		ID:    IDFromFilename(path),
		Image: imaging.Grayscale(img),
	}, nil
}

func (l *Library) add(t *Template) {
	if _, seen := l.byID[t.ID]; !seen {
		l.order = append(l.order, t.ID)
	}
	l.byID[t.ID] = t
}

// Dir returns the directory the library was loaded from.
func (l *Library) Dir() string { return l.dir }

// Len returns the number of templates.
func (l *Library) Len() int { return len(l.order) }

// Get returns the template with the given identifier.
func (l *Library) Get(id string) (*Template, bool) {
	t, ok := l.byID[id]
	return t, ok
}

// IDs returns the identifiers in load order.
func (l *Library) IDs() []string {
	out := make([]string, len(l.order))
	copy(out, l.order)
	return out
}

// Templates returns the templates in load order.
func (l *Library) Templates() []*Template {
	out := make([]*Template, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}
