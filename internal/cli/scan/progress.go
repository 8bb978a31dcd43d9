package scan

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

var statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

// progressBar draws scan progress on a single terminal line.
type progressBar struct {
	w   io.Writer
	bar progress.Model
}

func newProgressBar(w io.Writer) *progressBar {
	return &progressBar{
		w:   w,
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(32)),
	}
}

func (p *progressBar) update(percent int, status, _ string) {
	_, _ = fmt.Fprintf(p.w, "\r\033[K%s %s", p.bar.ViewAs(float64(percent)/100), statusStyle.Render(status))
	if percent >= 100 {
		_, _ = fmt.Fprintln(p.w)
	}
}

// logProgress reports progress through the logger when no terminal is
// attached.
func logProgress(logger zerolog.Logger) func(int, string, string) {
	return func(percent int, status, detail string) {
		logger.Debug().Int("percent", percent).Str("detail", detail).Msg(status)
	}
}
