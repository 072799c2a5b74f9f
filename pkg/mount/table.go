// Package mount composes independent storage backends into one WebDAV
// namespace. Each backend is registered under a single-segment name and
// appears as a directory of that name under the namespace root.
package mount

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/webdav"
)

var (
	// ErrMountExists is returned when a name is registered twice.
	ErrMountExists = errors.New("mount already registered")

	// ErrInvalidName is returned for names that are not a single path segment.
	ErrInvalidName = errors.New("invalid mount name")

	// ErrCrossMount is returned when a rename spans two mounts.
	ErrCrossMount = errors.New("rename across mounts")
)

// Mount is a registered backend.
type Mount struct {
	Name string
	Kind string
	FS   webdav.FileSystem
}

// Table is a webdav.FileSystem dispatching on the first path segment.
//
// "/" is a synthetic read-only directory listing the mount names in
// registration order. Mutating it fails with os.ErrPermission.
type Table struct {
	mu     sync.RWMutex
	mounts map[string]*Mount
	order  []string
	boot   time.Time
}

var _ webdav.FileSystem = (*Table)(nil)

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		mounts: make(map[string]*Mount),
		boot:   time.Now(),
	}
}

// Register adds a backend under name.
func (t *Table) Register(name, kind string, fsys webdav.FileSystem) error {
	if !validName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if fsys == nil {
		return fmt.Errorf("mount %q: nil filesystem", name)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.mounts[name]; ok {
		return fmt.Errorf("%w: %q", ErrMountExists, name)
	}
	t.mounts[name] = &Mount{Name: name, Kind: kind, FS: fsys}
	t.order = append(t.order, name)
	return nil
}

// Names returns mount names in registration order.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.order...)
}

// Mounts returns the registered mounts in registration order.
func (t *Table) Mounts() []Mount {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Mount, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.mounts[name])
	}
	return out
}

// Len returns the number of mounts.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.order)
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\`)
}

// split returns the mount for name and the path inside it. isRoot is true
// for "/" itself.
func (t *Table) split(name string) (m *Mount, inner string, isRoot bool, err error) {
	name = strings.Trim(name, "/")
	if name == "" {
		return nil, "", true, nil
	}

	first, rest, _ := strings.Cut(name, "/")

	t.mu.RLock()
	m, ok := t.mounts[first]
	t.mu.RUnlock()
	if !ok {
		return nil, "", false, os.ErrNotExist
	}
	return m, "/" + rest, false, nil
}

// Mkdir implements webdav.FileSystem.
func (t *Table) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	m, inner, isRoot, err := t.split(name)
	if isRoot {
		return os.ErrPermission
	}
	if err != nil {
		return err
	}
	if inner == "/" {
		return os.ErrExist
	}
	return m.FS.Mkdir(ctx, inner, perm)
}

// OpenFile implements webdav.FileSystem.
func (t *Table) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	m, inner, isRoot, err := t.split(name)
	if isRoot {
		if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
			return nil, os.ErrPermission
		}
		return &rootDir{table: t, entries: t.rootEntries(ctx)}, nil
	}
	if err != nil {
		return nil, err
	}

	f, err := m.FS.OpenFile(ctx, inner, flag, perm)
	if err != nil {
		return nil, err
	}
	if inner == "/" {
		return &renamedFile{File: f, name: m.Name}, nil
	}
	return f, nil
}

// RemoveAll implements webdav.FileSystem. Mount points cannot be removed.
func (t *Table) RemoveAll(ctx context.Context, name string) error {
	m, inner, isRoot, err := t.split(name)
	if isRoot {
		return os.ErrPermission
	}
	if err != nil {
		return err
	}
	if inner == "/" {
		return os.ErrPermission
	}
	return m.FS.RemoveAll(ctx, inner)
}

// Rename implements webdav.FileSystem. Both names must be inside the same
// mount and neither may be a mount point.
func (t *Table) Rename(ctx context.Context, oldName, newName string) error {
	src, srcInner, srcRoot, err := t.split(oldName)
	if srcRoot {
		return os.ErrPermission
	}
	if err != nil {
		return err
	}
	dst, dstInner, dstRoot, err := t.split(newName)
	if dstRoot {
		return os.ErrPermission
	}
	if err != nil {
		return err
	}
	if src != dst {
		return ErrCrossMount
	}
	if srcInner == "/" || dstInner == "/" {
		return os.ErrPermission
	}
	return src.FS.Rename(ctx, srcInner, dstInner)
}

// Stat implements webdav.FileSystem.
func (t *Table) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	m, inner, isRoot, err := t.split(name)
	if isRoot {
		return dirInfo{name: "/", modTime: t.boot}, nil
	}
	if err != nil {
		return nil, err
	}

	fi, err := m.FS.Stat(ctx, inner)
	if err != nil {
		return nil, err
	}
	if inner == "/" {
		return renamedInfo{FileInfo: fi, name: m.Name}, nil
	}
	return fi, nil
}

// rootEntries lists one directory entry per mount. Mounts whose root
// cannot be stat'ed are shown as empty directories.
func (t *Table) rootEntries(ctx context.Context) []os.FileInfo {
	mounts := t.Mounts()
	out := make([]os.FileInfo, 0, len(mounts))
	for _, m := range mounts {
		fi, err := m.FS.Stat(ctx, "/")
		if err != nil {
			out = append(out, dirInfo{name: m.Name, modTime: t.boot})
			continue
		}
		out = append(out, renamedInfo{FileInfo: fi, name: m.Name})
	}
	return out
}

// dirInfo describes a synthetic directory.
type dirInfo struct {
	name    string
	modTime time.Time
}

func (d dirInfo) Name() string       { return d.name }
func (d dirInfo) Size() int64        { return 0 }
func (d dirInfo) Mode() os.FileMode  { return fs.ModeDir | 0o555 }
func (d dirInfo) ModTime() time.Time { return d.modTime }
func (d dirInfo) IsDir() bool        { return true }
func (d dirInfo) Sys() any           { return nil }

// renamedInfo reports a backend root under its mount name.
type renamedInfo struct {
	os.FileInfo
	name string
}

func (r renamedInfo) Name() string { return r.name }

// renamedFile is a backend root opened through the table.
type renamedFile struct {
	webdav.File
	name string
}

func (f *renamedFile) Stat() (os.FileInfo, error) {
	fi, err := f.File.Stat()
	if err != nil {
		return nil, err
	}
	return renamedInfo{FileInfo: fi, name: f.name}, nil
}

// rootDir is the synthetic "/" directory.
type rootDir struct {
	table   *Table
	entries []os.FileInfo
	pos     int
}

func (d *rootDir) Close() error { return nil }

func (d *rootDir) Read([]byte) (int, error) { return 0, os.ErrInvalid }

func (d *rootDir) Write([]byte) (int, error) { return 0, os.ErrPermission }

func (d *rootDir) Seek(offset int64, whence int) (int64, error) {
	if offset == 0 && whence == io.SeekStart {
		d.pos = 0
		return 0, nil
	}
	return 0, os.ErrInvalid
}

func (d *rootDir) Stat() (os.FileInfo, error) {
	return dirInfo{name: "/", modTime: d.table.boot}, nil
}

// Readdir follows the os.File contract.
func (d *rootDir) Readdir(count int) ([]os.FileInfo, error) {
	remaining := d.entries[d.pos:]
	if count <= 0 {
		d.pos = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if count > len(remaining) {
		count = len(remaining)
	}
	d.pos += count
	return remaining[:count], nil
}
