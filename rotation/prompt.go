package rotation

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Answer is an operator's response to a yes/no question.
type Answer int

const (
	AnswerUnrecognized Answer = iota
	AnswerYes
	AnswerNo
)

func (a Answer) String() string {
	switch a {
	case AnswerYes:
		return "yes"
	case AnswerNo:
		return "no"
	default:
		return "unrecognized"
	}
}

// Prompter asks the operator a yes/no question.
type Prompter interface {
	Confirm(question string) (Answer, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(question string) (Answer, error)

func (f PrompterFunc) Confirm(question string) (Answer, error) { return f(question) }

// Fixed always answers a without asking.
func Fixed(a Answer) Prompter {
	return PrompterFunc(func(string) (Answer, error) { return a, nil })
}

// RetryHint is printed when a response is neither "y" nor "n".
const RetryHint = "Please restart and enter either y or n"

// LinePrompter writes the question to out and reads a single line from in.
// Only "y" and "n" are recognized; anything else prints RetryHint and yields
// AnswerUnrecognized. It does not ask again. Closed input counts as an empty
// response.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Confirm(question string) (Answer, error) {
	if _, err := fmt.Fprintln(p.out, question); err != nil {
		return AnswerUnrecognized, err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return AnswerUnrecognized, fmt.Errorf("rotation: read response: %w", err)
	}
	switch strings.TrimSpace(line) {
	case "y":
		return AnswerYes, nil
	case "n":
		return AnswerNo, nil
	default:
		_, _ = fmt.Fprintln(p.out, RetryHint)
		return AnswerUnrecognized, nil
	}
}
