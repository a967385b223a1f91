package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Terminal は通知を色付きで1行ずつ書き出す。
type Terminal struct {
	mu  sync.Mutex
	w   io.Writer
	err lipgloss.Style
	inf lipgloss.Style
	tag lipgloss.Style
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		w:   w,
		err: lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94")).Bold(true),
		inf: lipgloss.NewStyle().Foreground(lipgloss.Color("#7DD3FC")),
		tag: lipgloss.NewStyle().Foreground(lipgloss.Color("#A1A1AA")),
	}
}

func (t *Terminal) Notify(n Notification) {
	label := t.inf.Render("info")
	if n.Level == LevelError {
		label = t.err.Render("error")
	}
	line := fmt.Sprintf("%s %s", label, n.Message)
	if n.Relogin {
		line += " " + t.tag.Render("(run `storefront login`)")
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, line)
}
