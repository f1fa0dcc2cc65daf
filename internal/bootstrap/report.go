package bootstrap

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Reporter writes coloured, human readable status lines.
type Reporter struct {
	out     io.Writer
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	heading *color.Color
}

// NewReporter creates a Reporter writing to w. Colour is used only when w
// is a terminal and NO_COLOR is unset.
func NewReporter(w io.Writer) *Reporter {
	r := &Reporter{
		out:     w,
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed, color.Bold),
		heading: color.New(color.FgBlue, color.Bold),
	}

	enabled := colorEnabled(w)
	for _, c := range []*color.Color{r.success, r.warn, r.fail, r.heading} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return r
}

func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 - file descriptors fit in int
}

func (r *Reporter) Heading(format string, args ...any) {
	r.heading.Fprintf(r.out, "\n==> %s\n", fmt.Sprintf(format, args...))
}

func (r *Reporter) Success(format string, args ...any) {
	r.success.Fprintf(r.out, "✔ %s\n", fmt.Sprintf(format, args...))
}

func (r *Reporter) Warn(format string, args ...any) {
	r.warn.Fprintf(r.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func (r *Reporter) Error(format string, args ...any) {
	r.fail.Fprintf(r.out, "✖ %s\n", fmt.Sprintf(format, args...))
}

// Info writes an uncoloured line.
func (r *Reporter) Info(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}
