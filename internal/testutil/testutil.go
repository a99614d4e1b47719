package testutil

import (
	"archive/tar"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
)

// ArchiveEntry is one member of a test archive. Names ending in "/" are directories.
type ArchiveEntry struct {
	Name     string
	Content  string
	Mode     fs.FileMode
	// Typeflag marks a special tar entry. Only tar.TypeXGlobalHeader is
	// supported; Content becomes its comment record. Ignored by ZipArchive.
	Typeflag byte
}

// WriteFiles writes files under root, creating parent directories.
// t is the active test; root is the base directory; files maps slash paths to content.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

// ReadTree returns every regular file under root keyed by slash-separated relative path.
// t is the active test; root is the directory to read.
func ReadTree(t *testing.T, root string) map[string]string {
	t.Helper()
	tree := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		tree[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("read tree %s: %v", root, err)
	}
	return tree
}

// TreePaths returns the sorted keys of tree.
func TreePaths(tree map[string]string) []string {
	paths := make([]string, 0, len(tree))
	for path := range tree {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// ZipArchive builds a zip archive from entries in order.
// t is the active test; entries are written as given, including unsafe names.
func ZipArchive(t *testing.T, entries []ArchiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate}
		header.SetMode(entryMode(entry))
		w, err := zw.CreateHeader(header)
		if err != nil {
			t.Fatalf("zip header %s: %v", entry.Name, err)
		}
		if entry.Content != "" {
			if _, err := w.Write([]byte(entry.Content)); err != nil {
				t.Fatalf("zip write %s: %v", entry.Name, err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// TarGzArchive builds a gzip-compressed tar archive from entries in order.
// t is the active test; entries are written as given.
func TarGzArchive(t *testing.T, entries []ArchiveEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, entry := range entries {
		if entry.Typeflag == tar.TypeXGlobalHeader {
			header := &tar.Header{
				Typeflag:   tar.TypeXGlobalHeader,
				Name:       entry.Name,
				PAXRecords: map[string]string{"comment": entry.Content},
			}
			if err := tw.WriteHeader(header); err != nil {
				t.Fatalf("tar global header %s: %v", entry.Name, err)
			}
			continue
		}
		mode := entryMode(entry)
		header := &tar.Header{Name: entry.Name, Mode: int64(mode.Perm()), Size: int64(len(entry.Content))}
		if mode.IsDir() {
			header.Typeflag = tar.TypeDir
			header.Size = 0
		} else {
			header.Typeflag = tar.TypeReg
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("tar header %s: %v", entry.Name, err)
		}
		if !mode.IsDir() {
			if _, err := tw.Write([]byte(entry.Content)); err != nil {
				t.Fatalf("tar write %s: %v", entry.Name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func entryMode(entry ArchiveEntry) fs.FileMode {
	isDir := len(entry.Name) > 0 && entry.Name[len(entry.Name)-1] == '/'
	perm := entry.Mode.Perm()
	if isDir {
		if perm == 0 {
			perm = 0o755
		}
		return fs.ModeDir | perm
	}
	if perm == 0 {
		perm = 0o644
	}
	return perm
}

// WithWorkingDir runs fn with dir as the current working directory and restores the previous directory.
// t is the active test; dir is the temporary working directory for fn.
func WithWorkingDir(t *testing.T, dir string, fn func()) {
	t.Helper()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(cwd); err != nil {
			t.Fatalf("restore chdir: %v", err)
		}
	}()
	fn()
}
