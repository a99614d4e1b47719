package guard

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/scaffold/internal/testutil"
)

type fakeSystem struct {
	cwd      string
	getwdErr error
	empty    bool
	emptyErr error
	checked  []string
}

func (s *fakeSystem) Getwd() (string, error) {
	return s.cwd, s.getwdErr
}

func (s *fakeSystem) IsEmptyDir(path string) (bool, error) {
	s.checked = append(s.checked, path)
	return s.empty, s.emptyErr
}

// recordingPrompter answers with answer and counts questions.
type recordingPrompter struct {
	answer bool
	err    error
	asked  []string
}

func (p *recordingPrompter) Confirm(_ context.Context, question string) (bool, error) {
	p.asked = append(p.asked, question)
	return p.answer, p.err
}

func TestConfirmOtherDirectoryProceedsWithoutPrompt(t *testing.T) {
	cwd := t.TempDir()
	sys := &fakeSystem{cwd: cwd}
	prompter := &recordingPrompter{}

	decision, err := New(prompter, Options{System: sys}).Confirm(context.Background(), filepath.Join(cwd, "new-app"))
	require.NoError(t, err)
	assert.Equal(t, Proceed, decision)
	assert.Empty(t, prompter.asked)
	assert.Empty(t, sys.checked)
}

func TestConfirmEmptyWorkingDirectoryProceeds(t *testing.T) {
	cwd := t.TempDir()
	sys := &fakeSystem{cwd: cwd, empty: true}
	prompter := &recordingPrompter{}

	decision, err := New(prompter, Options{System: sys}).Confirm(context.Background(), cwd)
	require.NoError(t, err)
	assert.Equal(t, Proceed, decision)
	assert.Empty(t, prompter.asked)
	assert.Equal(t, []string{cwd}, sys.checked)
}

func TestConfirmNonEmptyWorkingDirectoryAsks(t *testing.T) {
	for _, answer := range []bool{true, false} {
		cwd := t.TempDir()
		prompter := &recordingPrompter{answer: answer}

		decision, err := New(prompter, Options{System: &fakeSystem{cwd: cwd}}).Confirm(context.Background(), cwd)
		require.NoError(t, err)
		assert.Equal(t, Decision(answer), decision)
		assert.Equal(t, []string{"Current directory not empty, continue anyway? (y/n) "}, prompter.asked)
	}
}

func TestConfirmRelativeDotMatchesWorkingDirectory(t *testing.T) {
	cwd, err := filepath.Abs(".")
	require.NoError(t, err)
	prompter := &recordingPrompter{answer: false}

	decision, err := New(prompter, Options{System: &fakeSystem{cwd: cwd}}).Confirm(context.Background(), ".")
	require.NoError(t, err)
	assert.Equal(t, Declined, decision)
	assert.Len(t, prompter.asked, 1)
}

func TestConfirmAssumeYesSkipsPrompt(t *testing.T) {
	cwd := t.TempDir()
	prompter := &recordingPrompter{}

	decision, err := New(prompter, Options{System: &fakeSystem{cwd: cwd}, AssumeYes: true}).Confirm(context.Background(), cwd)
	require.NoError(t, err)
	assert.Equal(t, Proceed, decision)
	assert.Empty(t, prompter.asked)
}

func TestConfirmWithoutPrompterFails(t *testing.T) {
	cwd := t.TempDir()
	decision, err := New(nil, Options{System: &fakeSystem{cwd: cwd}}).Confirm(context.Background(), cwd)
	assert.ErrorIs(t, err, ErrNoAnswer)
	assert.Equal(t, Declined, decision)
}

func TestConfirmPropagatesErrors(t *testing.T) {
	cwd := t.TempDir()
	boom := errors.New("boom")

	_, err := New(&recordingPrompter{}, Options{System: &fakeSystem{getwdErr: boom}}).Confirm(context.Background(), cwd)
	assert.ErrorIs(t, err, boom)

	_, err = New(&recordingPrompter{}, Options{System: &fakeSystem{cwd: cwd, emptyErr: boom}}).Confirm(context.Background(), cwd)
	assert.ErrorIs(t, err, boom)

	_, err = New(&recordingPrompter{err: boom}, Options{System: &fakeSystem{cwd: cwd}}).Confirm(context.Background(), cwd)
	assert.ErrorIs(t, err, boom)
}

func TestConfirmCanceledContextDoesNotPrompt(t *testing.T) {
	cwd := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	prompter := &recordingPrompter{answer: true}

	decision, err := New(prompter, Options{System: &fakeSystem{cwd: cwd}}).Confirm(ctx, cwd)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Declined, decision)
	assert.Empty(t, prompter.asked)
}

func TestConfirmUsesRealSystemByDefault(t *testing.T) {
	decision, err := New(nil, Options{}).Confirm(context.Background(), filepath.Join(t.TempDir(), "elsewhere"))
	require.NoError(t, err)
	assert.Equal(t, Proceed, decision)
}

func TestConfirmRealSystemNonEmptyWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"notes.txt": "mine"})
	prompter := &recordingPrompter{answer: false}

	testutil.WithWorkingDir(t, dir, func() {
		decision, err := New(prompter, Options{}).Confirm(context.Background(), ".")
		require.NoError(t, err)
		assert.Equal(t, Declined, decision)
	})
	assert.Len(t, prompter.asked, 1)
}

func TestSameDirResolvesSymlinks(t *testing.T) {
	dir := t.TempDir()
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.True(t, sameDir(dir, resolved))
	assert.True(t, sameDir(dir+string(filepath.Separator), dir))
	assert.False(t, sameDir(dir, filepath.Join(dir, "child")))
}
