package vm

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dhamidi/jedy/fault"
)

func classBytes(t *testing.T, name string) []byte {
	t.Helper()
	data, err := publicClass(name, "java/lang/Object").Bytes()
	if err != nil {
		t.Fatalf("encoding %s: %v", name, err)
	}
	return data
}

func zipBytes(t *testing.T, files map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestClassPath(t *testing.T) {
	dir := t.TempDir()

	classes := filepath.Join(dir, "classes")
	writeFile(t, filepath.Join(classes, "app", "Main.class"), classBytes(t, "app/Main"))

	jar := filepath.Join(dir, "lib.jar")
	writeFile(t, jar, zipBytes(t, map[string][]byte{
		"lib/Util.class":       classBytes(t, "lib/Util"),
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	}))

	jmod := filepath.Join(dir, "base.jmod")
	payload := zipBytes(t, map[string][]byte{
		"classes/java/lang/Thing.class": classBytes(t, "java/lang/Thing"),
		"lib/libfoo.so":                 []byte("not a class"),
	})
	writeFile(t, jmod, append([]byte{'J', 'M', 1, 0}, payload...))

	cp, err := NewClassPath(classes, jar, jmod)
	if err != nil {
		t.Fatalf("NewClassPath: %v", err)
	}
	defer cp.Close()

	tests := []struct {
		name  string
		class string
	}{
		{"directory", "app/Main"},
		{"jar", "lib/Util"},
		{"jmod", "java/lang/Thing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf, err := cp.LoadClass(tt.class)
			if err != nil {
				t.Fatalf("LoadClass: %v", err)
			}
			if cf.ClassName() != tt.class {
				t.Errorf("loaded %s, want %s", cf.ClassName(), tt.class)
			}
		})
	}

	if _, err := cp.LoadClass("lib/Missing"); !errors.Is(err, fault.ErrClassNotFound) {
		t.Errorf("missing class: err = %v", err)
	}

	rt := New(cp)
	if _, err := rt.Classes.EnsureLoaded("app/Main"); err != nil {
		t.Errorf("EnsureLoaded through the class path: %v", err)
	}
}

func TestClassPathRejectsBadElements(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	writeFile(t, notes, []byte("hello"))
	badJmod := filepath.Join(dir, "bad.jmod")
	writeFile(t, badJmod, []byte("PK not a jmod"))

	tests := []struct {
		name    string
		element string
	}{
		{"missing path", filepath.Join(dir, "absent")},
		{"unknown extension", notes},
		{"jmod without header", badJmod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClassPath(tt.element); err == nil {
				t.Error("NewClassPath succeeded")
			}
		})
	}
}

func TestSplitClassPath(t *testing.T) {
	list := "a" + string(os.PathListSeparator) + "b.jar"
	got := SplitClassPath(list)
	if len(got) != 2 || got[0] != "a" || got[1] != "b.jar" {
		t.Errorf("SplitClassPath(%q) = %v", list, got)
	}
	if SplitClassPath("") != nil {
		t.Error("empty list should split to nil")
	}
}
