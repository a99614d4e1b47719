package guard

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/conn-castle/scaffold/internal/messages"
)

var affirmative = regexp.MustCompile(`(?i)^y`)

// Prompter asks a yes/no question.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(ctx context.Context, question string) (bool, error)

// Confirm calls f.
func (f PromptFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// LinePrompter reads a single answer line from In.
type LinePrompter struct {
	In  io.Reader
	Out io.Writer
}

// Confirm writes question and reads one line. Anything other than an answer
// starting with y or Y is a no, including end of input. A canceled ctx stops
// waiting for the answer.
func (p LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	if p.Out != nil {
		if _, err := fmt.Fprint(p.Out, question); err != nil {
			return false, err
		}
	}
	if p.In == nil {
		return false, nil
	}

	type answer struct {
		line string
		err  error
	}
	answers := make(chan answer, 1)
	go func() {
		line, err := bufio.NewReader(p.In).ReadString('\n')
		answers <- answer{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-answers:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return false, fmt.Errorf(messages.GuardReadAnswerFmt, a.err)
		}
		return affirmative.MatchString(a.line), nil
	}
}
