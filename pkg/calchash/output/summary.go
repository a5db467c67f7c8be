package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Summary writes a styled run summary for the terminal: what was hashed,
// what it cost and where the artifact went.
func Summary(w io.Writer, r *Result, artifact string) error {
	th := summaryTheme
	m := r.Metrics

	row := func(pairs ...string) string {
		parts := make([]string, 0, len(pairs)/2)
		for i := 0; i+1 < len(pairs); i += 2 {
			parts = append(parts, th.label.Render(pairs[i])+" "+pairs[i+1])
		}
		return strings.Join(parts, "  ")
	}

	cpu := th.muted.Render("n/a")
	if m.CPUMeasured {
		cpu = th.value.Render(formatDuration(m.CPUTime))
	}

	failures := th.good.Render("0")
	if n := r.Failures(); n > 0 {
		failures = th.bad.Render(strconv.Itoa(n))
	}

	box := strings.Join([]string{
		row("Root:", th.value.Render(r.Root)),
		row(
			"Files:", th.value.Render(strconv.Itoa(len(r.Files))),
			"Size:", th.figure.Render(humanize.IBytes(uint64(max(r.TotalSize(), 0)))),
			"Workers:", th.value.Render(strconv.Itoa(m.Workers)),
		),
		row(
			"Wall:", th.value.Render(formatDuration(m.WallTime)),
			"CPU:", cpu,
			"Rate:", th.figure.Render(m.RateString()+" MB/s"),
		),
		row("Failures:", failures),
	}, "\n")

	var sb strings.Builder
	sb.WriteString(th.box.Render(box))
	sb.WriteString("\n")

	if len(r.Warnings) > 0 {
		sb.WriteString(th.caution.Bold(true).Render("Warnings:"))
		sb.WriteString("\n")
		for _, warning := range r.Warnings {
			sb.WriteString(th.caution.Render("  " + warning))
			sb.WriteString("\n")
		}
	}

	if artifact != "" {
		sb.WriteString(row("Written to", th.value.Render(artifact)))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// formatDuration renders d at a precision that suits its magnitude.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Round(time.Millisecond).Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		s := int(d / time.Second)
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	default:
		m := int(d / time.Minute)
		return fmt.Sprintf("%dh %dm", m/60, m%60)
	}
}
