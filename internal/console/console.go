package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console writes tagged, user-facing lines. Info and summary lines go to out,
// warnings and errors to errOut.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer

	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	red    func(a ...interface{}) string
	cyan   func(a ...interface{}) string
}

func New(out, errOut io.Writer) *Console {
	colored := isTerminal(out) && isTerminal(errOut)
	return &Console{
		out:    out,
		errOut: errOut,
		green:  sprint(colored, color.FgGreen),
		yellow: sprint(colored, color.FgYellow),
		red:    sprint(colored, color.FgRed),
		cyan:   sprint(colored, color.FgCyan),
	}
}

func Stdio() *Console {
	return New(os.Stdout, os.Stderr)
}

// Quiet returns a console that drops info lines and keeps warnings and errors.
func (c *Console) Quiet() *Console {
	q := New(io.Discard, c.errOut)
	q.yellow, q.red = c.yellow, c.red
	return q
}

func (c *Console) Out() io.Writer {
	return c.out
}

func (c *Console) Info(format string, args ...interface{}) {
	c.logf(c.out, c.green("[Info]"), format, args...)
}

func (c *Console) Warn(format string, args ...interface{}) {
	c.logf(c.errOut, c.yellow("[Warning]"), format, args...)
}

func (c *Console) Error(format string, args ...interface{}) {
	c.logf(c.errOut, c.red("[Error]"), format, args...)
}

func (c *Console) Summary(format string, args ...interface{}) {
	c.logf(c.out, "\n"+c.cyan("[Summary]"), format, args...)
}

func (c *Console) logf(w io.Writer, tag, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(w, tag+" "+format+"\n", args...)
}

func sprint(colored bool, attr color.Attribute) func(a ...interface{}) string {
	c := color.New(attr)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.SprintFunc()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
