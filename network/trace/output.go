package trace

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Formatter renders trace events for human-readable display, the same
// auto-detect-color-then-print shape as the teacher's
// datalog/annotations.OutputFormatter.
type Formatter struct {
	useColor bool
	writer   io.Writer
}

// NewFormatter creates a formatter with color support detection.
func NewFormatter(w io.Writer) *Formatter {
	if w == nil {
		w = os.Stdout
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	return &Formatter{useColor: useColor, writer: w}
}

// Handle implements Handler: print every event as it occurs.
func (f *Formatter) Handle(e Event) {
	fmt.Fprintln(f.writer, f.Format(e))
}

// Format renders one event as "[latency] mark nodeID description (tag)".
func (f *Formatter) Format(e Event) string {
	mark := f.colorize("✗", color.FgRed)
	if e.Accepted {
		mark = f.colorize("✓", color.FgGreen)
	}
	return fmt.Sprintf("[%v] %s %s %s (%s)", e.Latency, mark, e.NodeID, e.Description, e.Tag)
}

func (f *Formatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

func isTerminal(fd uintptr) bool {
	return fd == uintptr(1) || fd == uintptr(2)
}
