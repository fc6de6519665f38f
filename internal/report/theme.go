package report

import "github.com/charmbracelet/lipgloss"

var (
	colorText    = lipgloss.Color("#cdd6f4")
	colorMuted   = lipgloss.Color("#a6adc8")
	colorBorder  = lipgloss.Color("#45475a")
	colorAccent  = lipgloss.Color("#74c7ec")
	colorGood    = lipgloss.Color("#a6e3a1")
	colorWarning = lipgloss.Color("#f9e2af")
	colorDanger  = lipgloss.Color("#f38ba8")
)

/**
 * styles 一个渲染器下的全部样式
 *
 * 样式绑定到渲染器，输出不是终端时自动退化为无颜色
 */
type styles struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	pane    lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	good    lipgloss.Style
	warning lipgloss.Style
	danger  lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Foreground(colorAccent).Bold(true),
		label:   r.NewStyle().Foreground(colorMuted),
		value:   r.NewStyle().Foreground(colorText).Bold(true),
		muted:   r.NewStyle().Foreground(colorMuted),
		pane:    r.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1),
		header:  r.NewStyle().Foreground(colorAccent).Bold(true).Padding(0, 1),
		cell:    r.NewStyle().Padding(0, 1),
		good:    r.NewStyle().Foreground(colorGood),
		warning: r.NewStyle().Foreground(colorWarning).Bold(true),
		danger:  r.NewStyle().Foreground(colorDanger).Bold(true),
	}
}
