package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer wraps a glamour renderer that is rebuilt when the wrap
// width changes.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	style    string
}

// NewMarkdownRenderer picks a style from the terminal background.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	return NewMarkdownRendererWithStyle(width, "")
}

// NewMarkdownRendererWithStyle uses one of glamour's standard styles
// ("dark", "light", "notty", ...). An empty style means auto.
func NewMarkdownRendererWithStyle(width int, style string) *MarkdownRenderer {
	mr := &MarkdownRenderer{width: width, style: style}
	mr.build()
	return mr
}

func (mr *MarkdownRenderer) build() {
	styleOpt := glamour.WithAutoStyle()
	if mr.style != "" {
		styleOpt = glamour.WithStandardStyle(mr.style)
	}
	r, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(mr.width))
	if err != nil {
		mr.renderer = nil
		return
	}
	mr.renderer = r
}

// Render returns the styled markdown, or the raw text when no renderer could
// be built.
func (mr *MarkdownRenderer) Render(md string) (string, error) {
	if mr.renderer == nil {
		return md, nil
	}
	out, err := mr.renderer.Render(md)
	if err != nil {
		return md, err
	}
	return strings.TrimRight(out, "\n"), nil
}

// SetWidth rebuilds the renderer for a new wrap width. Non-positive widths
// are ignored.
func (mr *MarkdownRenderer) SetWidth(width int) {
	if width <= 0 || width == mr.width {
		return
	}
	mr.width = width
	mr.build()
}

// Width returns the current wrap width.
func (mr *MarkdownRenderer) Width() int { return mr.width }
