package ui

import (
	"fmt"
	"io"
	"math"

	"github.com/fatih/color"

	"github.com/joshharrison/timeloom/internal/cpm"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
)

// PrintLogo renders the colored timeloom logo.
func PrintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	bars := color.New(color.FgYellow)
	sep := color.New(color.FgCyan)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	bars.Fprintln(w, "   |  ====                    |")
	bars.Fprintln(w, "   |      ========            |")
	sep.Fprintln(w, "   |==========================|")
	brand.Fprintln(w, "   |  T  I  M  E  L  O  O  M  |")
	sep.Fprintln(w, "   |==========================|")
	bars.Fprintln(w, "   |              ========    |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintf(w, "   %s Critical path scheduling\n", Dim("⏱"))
	fmt.Fprintln(w)
}

// taskColors is a palette of distinct bold colors for differentiating tasks.
var taskColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// taskColorIndex hashes a task ID to a palette index.
func taskColorIndex(taskID string) int {
	var h uint32
	for _, c := range taskID {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(taskColors)))
}

// TaskPrefix returns a colored [task-id] prefix string.
// Each task ID gets a distinct color from the palette.
func TaskPrefix(taskID string) string {
	c := taskColors[taskColorIndex(taskID)]
	return Dim("[") + c(taskID) + Dim("]")
}

// CriticalMark returns the lightning marker for critical tasks, or a blank
// of the same width.
func CriticalMark(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// SlackLabel formats total slack in days. Critical slack is red, negative
// slack (a late start constraint) bold red, and comfortable slack green.
func SlackLabel(slack float64) string {
	text := formatDays(slack)
	switch {
	case slack <= -cpm.CriticalTolerance:
		return BoldRed(text)
	case math.Abs(slack) < cpm.CriticalTolerance:
		return Red(text)
	case slack < 5:
		return Yellow(text)
	default:
		return Green(text)
	}
}

// ProgressIcon returns a colored completion icon for a 0-100 progress value.
func ProgressIcon(progress int) string {
	switch {
	case progress >= 100:
		return Green("✓")
	case progress > 0:
		return Cyan("●")
	default:
		return Dim("◌")
	}
}

// WaveLabel returns a colored tag for a start-date wave.
func WaveLabel(critical bool) string {
	if critical {
		return BoldYellow("critical")
	}
	return Dim("slack")
}

func formatDays(d float64) string {
	if d == math.Trunc(d) {
		return fmt.Sprintf("%.0fd", d)
	}
	return fmt.Sprintf("%.1fd", d)
}
