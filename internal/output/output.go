// Package output provides consistent console reporting for check outcomes.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/Aman-CERP/buildwatch/internal/check"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Writer prints classified outcome lines. When Enabled is false every method
// is a no-op, so callers never need to guard their reporting.
type Writer struct {
	out      io.Writer
	enabled  bool
	useColor bool
}

// New creates a Writer. Color is used only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer, enabled bool) *Writer {
	return &Writer{
		out:      out,
		enabled:  enabled,
		useColor: isTTY(out) && !noColor(),
	}
}

// Outcome prints a single check outcome with its status label.
func (w *Writer) Outcome(o check.Outcome) {
	if !w.enabled {
		return
	}
	_, _ = fmt.Fprintf(w.out, "[%s] %s\n", w.label(o.Status), o.Message)
}

// Infof prints an informational line.
func (w *Writer) Infof(format string, args ...any) {
	if !w.enabled {
		return
	}
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Warnf prints a warning line.
func (w *Writer) Warnf(format string, args ...any) {
	if !w.enabled {
		return
	}
	label := "WARN"
	if w.useColor {
		label = warnStyle.Render(label)
	}
	_, _ = fmt.Fprintf(w.out, "[%s] %s\n", label, fmt.Sprintf(format, args...))
}

func (w *Writer) label(s check.Status) string {
	text := s.String()
	if !w.useColor {
		return text
	}

	switch s {
	case check.StatusOK:
		return okStyle.Render(text)
	case check.StatusWarn:
		return warnStyle.Render(text)
	case check.StatusFail:
		return failStyle.Render(text)
	default:
		return text
	}
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func noColor() bool {
	_, exists := os.LookupEnv("NO_COLOR")
	return exists
}
