package merge

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/scaffold/internal/fsutil"
	"github.com/conn-castle/scaffold/internal/testutil"
)

// faultSystem fails operations on paths whose base name matches.
type faultSystem struct {
	RealSystem
	openFail   string
	createFail string
	writeFail  string
	createErr  error
	mkdirErr   error
	removed    []string
}

func (s *faultSystem) MkdirAll(path string, perm os.FileMode) error {
	if s.mkdirErr != nil {
		return s.mkdirErr
	}
	return s.RealSystem.MkdirAll(path, perm)
}

func (s *faultSystem) Open(name string) (io.ReadCloser, error) {
	if s.openFail != "" && filepath.Base(name) == s.openFail {
		return nil, os.ErrPermission
	}
	return s.RealSystem.Open(name)
}

func (s *faultSystem) CreateExclusive(name string, perm os.FileMode) (io.WriteCloser, error) {
	if s.createFail != "" && filepath.Base(name) == s.createFail {
		return nil, s.createErr
	}
	w, err := s.RealSystem.CreateExclusive(name, perm)
	if err != nil {
		return nil, err
	}
	if s.writeFail != "" && filepath.Base(name) == s.writeFail {
		return &failingWriter{WriteCloser: w}, nil
	}
	return w, nil
}

func (s *faultSystem) Remove(name string) error {
	s.removed = append(s.removed, name)
	return s.RealSystem.Remove(name)
}

type failingWriter struct {
	io.WriteCloser
}

func (w *failingWriter) Write(p []byte) (int, error) {
	n, _ := w.WriteCloser.Write(p[:len(p)/2])
	return n, errors.New("disk full")
}

func paths(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Kind.String() + " " + r.Path
	}
	return out
}

func TestMergeCopiesIntoEmptyDestination(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{
		"package.json":     "{}",
		"index.js":         "console.log('hi')",
		"src/lib/util.js":  "export {}",
		"public/index.htm": "<html></html>",
	})
	dst := filepath.Join(t.TempDir(), "new-app")

	results, err := New(Options{}).Merge(src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"copied index.js",
		"copied package.json",
		"copied public/index.htm",
		"copied src/lib/util.js",
	}, paths(results))
	assert.Equal(t, testutil.ReadTree(t, src), testutil.ReadTree(t, dst))
	assert.Equal(t, Summary{Copied: 4}, Summarize(results))
}

func TestMergeNeverOverwritesExistingFiles(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{
		"index.js":     "template index",
		"package.json": "{}",
		"src/app.js":   "template app",
	})
	dst := t.TempDir()
	testutil.WriteFiles(t, dst, map[string]string{
		"index.js":   "my index",
		"src/app.js": "my app",
		"notes.txt":  "keep me",
	})

	results, err := New(Options{}).Merge(src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"skipped index.js", "copied package.json", "skipped src/app.js"}, paths(results))
	assert.Equal(t, "already exists", results[0].Reason)
	assert.Equal(t, map[string]string{
		"index.js":     "my index",
		"package.json": "{}",
		"src/app.js":   "my app",
		"notes.txt":    "keep me",
	}, testutil.ReadTree(t, dst))
}

func TestMergeIsIdempotent(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"a.txt": "a", "dir/b.txt": "b"})
	dst := t.TempDir()
	copier := New(Options{})

	_, err := copier.Merge(src, dst)
	require.NoError(t, err)
	before := testutil.ReadTree(t, dst)

	results, err := copier.Merge(src, dst)
	require.NoError(t, err)
	assert.Equal(t, Summary{Skipped: 2}, Summarize(results))
	assert.Equal(t, before, testutil.ReadTree(t, dst))
}

func TestMergePreservesPermissionBits(t *testing.T) {
	src := t.TempDir()
	script := filepath.Join(src, "bin", "run")
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0o755))
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"), 0o755))
	dst := t.TempDir()

	_, err := New(Options{}).Merge(src, dst)
	require.NoError(t, err)
	info, err := os.Stat(filepath.Join(dst, "bin", "run"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestMergeSkipsSymlinks(t *testing.T) {
	src := t.TempDir()
	outside := t.TempDir()
	testutil.WriteFiles(t, outside, map[string]string{"secret": "s"})
	testutil.WriteFiles(t, src, map[string]string{"real.txt": "r"})
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret"), filepath.Join(src, "link")))
	dst := t.TempDir()

	results, err := New(Options{}).Merge(src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"skipped link", "copied real.txt"}, paths(results))
	assert.Equal(t, "not a regular file", results[0].Reason)
	_, err = os.Lstat(filepath.Join(dst, "link"))
	assert.True(t, os.IsNotExist(err))
}

func TestMergeSkipsWhenParentIsAFile(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"src/app.js": "app", "z.txt": "z"})
	dst := t.TempDir()
	testutil.WriteFiles(t, dst, map[string]string{"src": "a file, not a dir"})

	results, err := New(Options{}).Merge(src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"skipped src/app.js", "copied z.txt"}, paths(results))
	assert.Equal(t, map[string]string{"src": "a file, not a dir", "z.txt": "z"}, testutil.ReadTree(t, dst))
}

func TestMergeSkipsTargetCreatedAfterCheck(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"race.txt": "template"})
	dst := t.TempDir()
	sys := &faultSystem{createFail: "race.txt", createErr: &os.PathError{Op: "open", Path: "race.txt", Err: os.ErrExist}}

	results, err := New(Options{System: sys}).Merge(src, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"skipped race.txt"}, paths(results))
}

func TestMergeStopsOnFirstFailure(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})
	dst := t.TempDir()
	sys := &faultSystem{openFail: "b.txt"}

	results, err := New(Options{System: sys}).Merge(src, dst)
	var copyErr *CopyError
	require.ErrorAs(t, err, &copyErr)
	assert.Equal(t, "b.txt", copyErr.Path)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Equal(t, []string{"copied a.txt", "failed b.txt"}, paths(results))
	assert.NotEmpty(t, results[1].Reason)

	_, statErr := os.Stat(filepath.Join(dst, "c.txt"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMergeRemovesPartialFileOnWriteFailure(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"big.bin": strings.Repeat("x", 4096)})
	dst := t.TempDir()
	sys := &faultSystem{writeFail: "big.bin"}

	results, err := New(Options{System: sys}).Merge(src, dst)
	var copyErr *CopyError
	require.ErrorAs(t, err, &copyErr)
	assert.Contains(t, err.Error(), "failed to copy big.bin: disk full")
	assert.Equal(t, []string{"failed big.bin"}, paths(results))
	assert.Equal(t, []string{filepath.Join(dst, "big.bin")}, sys.removed)
	_, statErr := os.Stat(filepath.Join(dst, "big.bin"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestMergeReportsCreateFailure(t *testing.T) {
	src := t.TempDir()
	testutil.WriteFiles(t, src, map[string]string{"a.txt": "a"})
	sys := &faultSystem{createFail: "a.txt", createErr: os.ErrPermission}

	_, err := New(Options{System: sys}).Merge(src, t.TempDir())
	var copyErr *CopyError
	require.ErrorAs(t, err, &copyErr)
	assert.Equal(t, "a.txt", copyErr.Path)
}

func TestMergeReportsDestinationCreateFailure(t *testing.T) {
	src := t.TempDir()
	sys := &faultSystem{mkdirErr: os.ErrPermission}

	results, err := New(Options{System: sys}).Merge(src, filepath.Join(t.TempDir(), "dest"))
	var dirErr *fsutil.DirOpError
	require.ErrorAs(t, err, &dirErr)
	assert.Equal(t, fsutil.OpCreate, dirErr.Op)
	assert.Nil(t, results)
}

func TestMergeReportsMissingSource(t *testing.T) {
	_, err := New(Options{}).Merge(filepath.Join(t.TempDir(), "missing"), t.TempDir())
	var dirErr *fsutil.DirOpError
	require.ErrorAs(t, err, &dirErr)
	assert.Equal(t, fsutil.OpRead, dirErr.Op)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "copied", Copied.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestSummarize(t *testing.T) {
	results := []Result{{Kind: Copied}, {Kind: Skipped}, {Kind: Copied}, {Kind: Failed}}
	assert.Equal(t, Summary{Copied: 2, Skipped: 1, Failed: 1}, Summarize(results))
	assert.Equal(t, Summary{}, Summarize(nil))
}
