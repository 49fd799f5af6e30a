package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter asks line-based questions on a console.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Ask prints question and returns the trimmed answer. ok is false once the
// input is exhausted.
func (p *Prompter) Ask(question string) (answer string, ok bool) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

func (p *Prompter) Confirm(question string) bool {
	answer, ok := p.Ask(question)
	if !ok {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// Choose lists options with 1-based indexes and returns the selected
// 0-based index. Malformed or out-of-range input yields ok == false.
func (p *Prompter) Choose(question string, options []string) (int, bool) {
	for i, o := range options {
		fmt.Fprintf(p.out, "  [%d] %s\n", i+1, o)
	}
	answer, ok := p.Ask(question)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(options) {
		return 0, false
	}
	return n - 1, true
}
