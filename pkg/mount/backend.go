package mount

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/net/webdav"
)

// Backend kinds accepted by NewBackend.
const (
	KindMemory   = "memory"
	KindLocal    = "local"
	KindReadOnly = "readonly"
)

// DefaultNames are the virtual roots served when none are configured.
var DefaultNames = []string{"courses", "my", "teams", "shared"}

// Spec describes one backend to build.
type Spec struct {
	Name string
	Kind string
	Path string
}

// NewBackend builds the webdav.FileSystem described by spec.
func NewBackend(spec Spec) (webdav.FileSystem, error) {
	switch strings.ToLower(spec.Kind) {
	case KindMemory, "":
		return NewAferoFS(afero.NewMemMapFs()), nil
	case KindLocal:
		base, err := localBase(spec)
		if err != nil {
			return nil, err
		}
		return NewAferoFS(base), nil
	case KindReadOnly:
		base, err := localBase(spec)
		if err != nil {
			return nil, err
		}
		return NewAferoFS(afero.NewReadOnlyFs(base)), nil
	default:
		return nil, fmt.Errorf("mount %q: unknown backend type %q", spec.Name, spec.Kind)
	}
}

// Build registers a backend for every spec, in order. An empty list mounts
// DefaultNames in memory.
func Build(specs []Spec) (*Table, error) {
	if len(specs) == 0 {
		for _, name := range DefaultNames {
			specs = append(specs, Spec{Name: name, Kind: KindMemory})
		}
	}

	t := NewTable()
	for _, spec := range specs {
		fsys, err := NewBackend(spec)
		if err != nil {
			return nil, err
		}
		kind := strings.ToLower(spec.Kind)
		if kind == "" {
			kind = KindMemory
		}
		if err := t.Register(spec.Name, kind, fsys); err != nil {
			return nil, fmt.Errorf("mount %q: %w", spec.Name, err)
		}
	}
	return t, nil
}

func localBase(spec Spec) (afero.Fs, error) {
	if spec.Path == "" {
		return nil, fmt.Errorf("mount %q: %s backend requires a path", spec.Name, spec.Kind)
	}
	fi, err := os.Stat(spec.Path)
	if err != nil {
		return nil, fmt.Errorf("mount %q: %w", spec.Name, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("mount %q: %s is not a directory", spec.Name, spec.Path)
	}
	return afero.NewBasePathFs(afero.NewOsFs(), spec.Path), nil
}

// AferoFS adapts an afero.Fs to webdav.FileSystem.
type AferoFS struct {
	fs afero.Fs
}

var _ webdav.FileSystem = (*AferoFS)(nil)

// NewAferoFS wraps fs.
func NewAferoFS(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// Fs returns the wrapped filesystem.
func (a *AferoFS) Fs() afero.Fs {
	return a.fs
}

func (a *AferoFS) Mkdir(_ context.Context, name string, perm os.FileMode) error {
	return a.fs.Mkdir(name, perm)
}

func (a *AferoFS) OpenFile(_ context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	return a.fs.OpenFile(name, flag, perm)
}

func (a *AferoFS) RemoveAll(_ context.Context, name string) error {
	return a.fs.RemoveAll(name)
}

func (a *AferoFS) Rename(_ context.Context, oldName, newName string) error {
	return a.fs.Rename(oldName, newName)
}

func (a *AferoFS) Stat(_ context.Context, name string) (os.FileInfo, error) {
	return a.fs.Stat(name)
}
