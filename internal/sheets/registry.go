package sheets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/schollz/closestmatch"
)

// ErrUnsupportedFormat is returned for files without a registered reader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Reader opens one file format.
type Reader interface {
	Open(path string, opts Options) (*File, error)
	Format() string
	Extensions() []string
}

// Registry maps file extensions to readers.
type Registry struct {
	readers map[string]Reader
}

// Source describes one input file.
type Source struct {
	Name   string
	Path   string
	Format string
	Size   int64
}

// NewRegistry creates an empty reader registry.
func NewRegistry() *Registry {
	return &Registry{readers: make(map[string]Reader)}
}

// Register adds a reader for each of its extensions. Panics on duplicate extension.
func (r *Registry) Register(rd Reader) {
	for _, ext := range rd.Extensions() {
		key := strings.ToLower(ext)
		if _, ok := r.readers[key]; ok {
			panic("duplicate reader extension: " + key)
		}
		r.readers[key] = rd
	}
}

// Get returns the reader for ext, or nil.
func (r *Registry) Get(ext string) Reader {
	return r.readers[strings.ToLower(ext)]
}

// DefaultRegistry returns a registry with CSV, XLSX and XLS readers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CSVReader{})
	r.Register(ExcelReader{})
	r.Register(XLSReader{})
	return r
}

// Open reads src with the reader registered for its extension.
func (r *Registry) Open(src Source, opts Options) (*File, error) {
	rd := r.Get(filepath.Ext(src.Path))
	if rd == nil {
		return nil, fmt.Errorf("%s: %w", src.Path, ErrUnsupportedFormat)
	}
	return rd.Open(src.Path, opts)
}

// Scan expands paths into sources. Directories contribute their supported
// files in name order; explicit files must have a supported extension.
func (r *Registry) Scan(paths []string) ([]Source, error) {
	var sources []Source
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			rd := r.Get(filepath.Ext(p))
			if rd == nil {
				return nil, fmt.Errorf("%s: %w", p, ErrUnsupportedFormat)
			}
			sources = append(sources, Source{Name: info.Name(), Path: p, Format: rd.Format(), Size: info.Size()})
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("reading dir %s: %w", p, err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
				continue
			}
			rd := r.Get(filepath.Ext(e.Name()))
			if rd == nil {
				continue
			}
			fi, err := e.Info()
			if err != nil {
				return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
			}
			sources = append(sources, Source{
				Name:   e.Name(),
				Path:   filepath.Join(p, e.Name()),
				Format: rd.Format(),
				Size:   fi.Size(),
			})
		}
	}
	return sources, nil
}

// SuggestColumn returns the header cell closest to want, or "".
func SuggestColumn(header []string, want string) string {
	var candidates []string
	for _, h := range header {
		if h != "" && !slices.Contains(candidates, h) {
			candidates = append(candidates, h)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	cm := closestmatch.New(candidates, []int{2, 3})
	return cm.Closest(want)
}
