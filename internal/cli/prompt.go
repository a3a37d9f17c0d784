package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Prompter reads answers line by line. Every method returns io.EOF once input is exhausted.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints label and returns the trimmed answer.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// AskValidated repeats the question until check accepts the answer.
func (p *Prompter) AskValidated(label string, check func(string) error) (string, error) {
	for {
		answer, err := p.Ask(label)
		if err != nil {
			return "", err
		}
		if err := check(answer); err != nil {
			fmt.Fprintf(p.out, "❌ %v\n", err)
			continue
		}
		return answer, nil
	}
}

// Confirm is true only for an explicit "yes".
func (p *Prompter) Confirm(label string) (bool, error) {
	answer, err := p.Ask(label + " (yes/no): ")
	if err != nil {
		return false, err
	}
	return strings.ToLower(answer) == "yes", nil
}

// AskInt falls back to def on a blank answer and, with a warning, on one that check rejects.
func (p *Prompter) AskInt(label string, def int, check func(string) (int, error)) (int, error) {
	answer, err := p.Ask(fmt.Sprintf("%s (default: %d): ", label, def))
	if err != nil {
		return 0, err
	}
	if answer == "" {
		return def, nil
	}
	n, err := check(answer)
	if err != nil {
		fmt.Fprintf(p.out, "⚠️  %v, using default of %d\n", err, def)
		return def, nil
	}
	return n, nil
}
