package stage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/scaffold/internal/catalog"
	"github.com/conn-castle/scaffold/internal/fsutil"
	"github.com/conn-castle/scaffold/internal/testutil"
)

type fetchFunc func(ctx context.Context, tmpl catalog.Template, dest string) error

func (f fetchFunc) FetchAndExtract(ctx context.Context, tmpl catalog.Template, dest string) error {
	return f(ctx, tmpl, dest)
}

func writeTemplate(files map[string]string) fetchFunc {
	return func(_ context.Context, _ catalog.Template, dest string) error {
		for name, content := range files {
			path := filepath.Join(dest, filepath.FromSlash(name))
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
}

// tempSystem roots staging under a test directory and injects faults.
type tempSystem struct {
	RealSystem
	dir       string
	mkdirErr  error
	removeErr error
	removes   []string
}

func (s *tempSystem) TempDir() string { return s.dir }

func (s *tempSystem) MkdirAll(path string, perm os.FileMode) error {
	if s.mkdirErr != nil {
		return s.mkdirErr
	}
	return s.RealSystem.MkdirAll(path, perm)
}

func (s *tempSystem) RemoveAll(path string) error {
	s.removes = append(s.removes, path)
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.RealSystem.RemoveAll(path)
}

func fixedName(name string) func() (string, error) {
	return func() (string, error) { return name, nil }
}

var minimal = catalog.Template{Name: "minimal", Ref: "main", URL: "https://example.com/minimal.zip"}

func TestStagePopulatesUniqueDirectory(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir()}
	stager := New(writeTemplate(map[string]string{"index.js": "js", "package.json": "{}"}), Options{System: sys})

	staging, err := stager.Stage(context.Background(), minimal)
	require.NoError(t, err)
	require.NotNil(t, staging)
	assert.Equal(t, sys.dir, filepath.Dir(staging.Path()))
	assert.Contains(t, filepath.Base(staging.Path()), namePrefix)
	assert.Equal(t, map[string]string{"index.js": "js", "package.json": "{}"}, testutil.ReadTree(t, staging.Path()))

	info, err := os.Stat(staging.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	require.NoError(t, staging.Cleanup())
	_, err = os.Stat(staging.Path())
	assert.True(t, os.IsNotExist(err))
}

func TestStageNamesDifferPerRun(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir()}
	stager := New(writeTemplate(nil), Options{System: sys})

	first, err := stager.Stage(context.Background(), minimal)
	require.NoError(t, err)
	second, err := stager.Stage(context.Background(), minimal)
	require.NoError(t, err)
	assert.NotEqual(t, first.Path(), second.Path())
	require.NoError(t, first.Cleanup())
	require.NoError(t, second.Cleanup())
}

func TestStageClearsLeftoverContent(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir()}
	testutil.WriteFiles(t, filepath.Join(sys.dir, "scaffold-fixed"), map[string]string{"stale.txt": "old"})
	stager := New(writeTemplate(map[string]string{"fresh.txt": "new"}), Options{System: sys, NewName: fixedName("scaffold-fixed")})

	staging, err := stager.Stage(context.Background(), minimal)
	require.NoError(t, err)
	t.Cleanup(func() { _ = staging.Cleanup() })
	assert.Equal(t, map[string]string{"fresh.txt": "new"}, testutil.ReadTree(t, staging.Path()))
}

func TestStageWrapsFetchFailure(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir()}
	fetchErr := errors.New("network down")
	stager := New(fetchFunc(func(context.Context, catalog.Template, string) error { return fetchErr }), Options{System: sys})

	staging, err := stager.Stage(context.Background(), minimal)
	require.Error(t, err)
	require.NotNil(t, staging)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "minimal", stageErr.Template)
	assert.ErrorIs(t, err, fetchErr)
	assert.Equal(t, "failed to fetch template minimal: network down", err.Error())

	require.NoError(t, staging.Cleanup())
	entries, err := os.ReadDir(sys.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStageReportsCreateFailure(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir(), mkdirErr: os.ErrPermission}
	called := false
	stager := New(fetchFunc(func(context.Context, catalog.Template, string) error {
		called = true
		return nil
	}), Options{System: sys})

	_, err := stager.Stage(context.Background(), minimal)
	var dirErr *fsutil.DirOpError
	require.ErrorAs(t, err, &dirErr)
	assert.Equal(t, fsutil.OpCreate, dirErr.Op)
	assert.False(t, called)
}

func TestStageRequiresFetcher(t *testing.T) {
	staging, err := New(nil, Options{}).Stage(context.Background(), minimal)
	require.Error(t, err)
	assert.Nil(t, staging)
}

func TestStageReportsNameFailure(t *testing.T) {
	stager := New(writeTemplate(nil), Options{NewName: func() (string, error) { return "", errors.New("no entropy") }})
	staging, err := stager.Stage(context.Background(), minimal)
	require.Error(t, err)
	assert.Nil(t, staging)
	assert.Contains(t, err.Error(), "no entropy")
}

func TestCleanupIsIdempotent(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir()}
	staging, err := New(writeTemplate(nil), Options{System: sys}).Stage(context.Background(), minimal)
	require.NoError(t, err)

	require.NoError(t, staging.Cleanup())
	removesAfterFirst := len(sys.removes)
	require.NoError(t, staging.Cleanup())
	assert.Len(t, sys.removes, removesAfterFirst)

	var nilStaging *Staging
	assert.NoError(t, nilStaging.Cleanup())
}

func TestCleanupReportsRemoveFailure(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir()}
	staging, err := New(writeTemplate(nil), Options{System: sys}).Stage(context.Background(), minimal)
	require.NoError(t, err)

	sys.removeErr = os.ErrPermission
	var dirErr *fsutil.DirOpError
	require.ErrorAs(t, staging.Cleanup(), &dirErr)
	assert.Equal(t, fsutil.OpRemove, dirErr.Op)

	sys.removeErr = nil
	require.NoError(t, staging.Cleanup())
}

func TestWithAlwaysCleansUp(t *testing.T) {
	cases := []struct {
		name    string
		fetch   fetchFunc
		fnErr   error
		wantErr bool
	}{
		{name: "success", fetch: writeTemplate(map[string]string{"a": "a"})},
		{name: "fetch failure", fetch: func(context.Context, catalog.Template, string) error { return errors.New("boom") }, wantErr: true},
		{name: "callback failure", fetch: writeTemplate(nil), fnErr: errors.New("copy failed"), wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sys := &tempSystem{dir: t.TempDir()}
			stager := New(tc.fetch, Options{System: sys})

			var seen string
			err := stager.With(context.Background(), minimal, func(path string) error {
				seen = path
				return tc.fnErr
			})
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			if tc.fnErr != nil {
				assert.ErrorIs(t, err, tc.fnErr)
				assert.NotEmpty(t, seen)
			}
			entries, readErr := os.ReadDir(sys.dir)
			require.NoError(t, readErr)
			assert.Empty(t, entries)
		})
	}
}

func TestWithSkipsCallbackWhenStagingFails(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir()}
	stager := New(fetchFunc(func(context.Context, catalog.Template, string) error { return errors.New("boom") }), Options{System: sys})

	err := stager.With(context.Background(), minimal, func(string) error {
		t.Fatal("callback must not run")
		return nil
	})
	var stageErr *StageError
	assert.ErrorAs(t, err, &stageErr)
}

func TestWithJoinsCleanupFailure(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir()}
	stager := New(writeTemplate(nil), Options{System: sys})
	copyErr := errors.New("copy failed")

	err := stager.With(context.Background(), minimal, func(string) error {
		sys.removeErr = os.ErrPermission
		return copyErr
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, copyErr)
	assert.Contains(t, err.Error(), "staging cleanup also failed")
}

func TestWithReturnsCleanupFailure(t *testing.T) {
	sys := &tempSystem{dir: t.TempDir()}
	stager := New(writeTemplate(nil), Options{System: sys})

	err := stager.With(context.Background(), minimal, func(string) error {
		sys.removeErr = os.ErrPermission
		return nil
	})
	var dirErr *fsutil.DirOpError
	require.ErrorAs(t, err, &dirErr)
	assert.Equal(t, fsutil.OpRemove, dirErr.Op)
}
