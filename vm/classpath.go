package vm

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhamidi/jedy/classfile"
	"github.com/dhamidi/jedy/fault"
)

// ClassPath searches directories, jar/zip archives and jmod files in order.
type ClassPath struct {
	entries []classPathEntry
}

type classPathEntry interface {
	read(name string) ([]byte, bool, error)
	io.Closer
	String() string
}

// NewClassPath opens every element. Archives are indexed up front so
// lookups do not rescan the central directory.
func NewClassPath(elements ...string) (*ClassPath, error) {
	cp := &ClassPath{}
	for _, element := range elements {
		if element == "" {
			continue
		}
		entry, err := openClassPathEntry(element)
		if err != nil {
			cp.Close()
			return nil, err
		}
		cp.entries = append(cp.entries, entry)
	}
	return cp, nil
}

// SplitClassPath splits a list joined with the OS path-list separator.
func SplitClassPath(list string) []string {
	if list == "" {
		return nil
	}
	return filepath.SplitList(list)
}

func openClassPathEntry(path string) (classPathEntry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("class path %s: %w", path, err)
	}
	if info.IsDir() {
		return dirEntry(path), nil
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jar", ".zip":
		rc, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("class path %s: %w", path, err)
		}
		return newArchiveEntry(path, &rc.Reader, rc, ""), nil
	case ".jmod":
		return openJmod(path)
	default:
		return nil, fmt.Errorf("class path %s: not a directory, jar, zip or jmod", path)
	}
}

func (cp *ClassPath) LoadClass(name string) (*classfile.ClassFile, error) {
	for _, entry := range cp.entries {
		data, ok, err := entry.read(name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		cf, err := classfile.ParseBytes(data)
		if err != nil {
			return nil, fmt.Errorf("%s in %s: %w", name, entry, err)
		}
		log.Debugf("found %s in %s", name, entry)
		return cf, nil
	}
	return nil, fault.New(fault.Resolution, fault.ErrClassNotFound, "%s", name)
}

func (cp *ClassPath) Close() error {
	var errs []error
	for _, entry := range cp.entries {
		if err := entry.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	cp.entries = nil
	return errors.Join(errs...)
}

func (cp *ClassPath) String() string {
	parts := make([]string, len(cp.entries))
	for i, entry := range cp.entries {
		parts[i] = entry.String()
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

type dirEntry string

func (d dirEntry) read(name string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(string(d), filepath.FromSlash(name)+".class"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (d dirEntry) Close() error   { return nil }
func (d dirEntry) String() string { return string(d) }

type archiveEntry struct {
	path   string
	files  map[string]*zip.File
	closer io.Closer
}

func newArchiveEntry(path string, zr *zip.Reader, closer io.Closer, prefix string) *archiveEntry {
	a := &archiveEntry{path: path, files: make(map[string]*zip.File), closer: closer}
	for _, f := range zr.File {
		name, ok := strings.CutPrefix(f.Name, prefix)
		if !ok {
			continue
		}
		if className, ok := strings.CutSuffix(name, ".class"); ok {
			a.files[className] = f
		}
	}
	return a
}

func (a *archiveEntry) read(name string) ([]byte, bool, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, false, nil
	}
	rc, err := f.Open()
	if err != nil {
		return nil, false, fmt.Errorf("%s!%s: %w", a.path, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, false, fmt.Errorf("%s!%s: %w", a.path, f.Name, err)
	}
	return data, true, nil
}

func (a *archiveEntry) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *archiveEntry) String() string { return a.path }

// jmodHeader precedes the zip payload of a jmod file.
var jmodHeader = []byte{'J', 'M', 0x01, 0x00}

func openJmod(path string) (classPathEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jmod %s: %w", path, err)
	}
	if !bytes.HasPrefix(data, jmodHeader) {
		return nil, fmt.Errorf("jmod %s: missing JM header", path)
	}
	payload := data[len(jmodHeader):]
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("jmod %s: %w", path, err)
	}
	return newArchiveEntry(path, zr, nil, "classes/"), nil
}
