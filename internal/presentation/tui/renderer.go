package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return nil, err
	}

	return func(markdown string) (string, error) {
		out, err := r.Render(markdown)
		return strings.TrimSpace(out), err
	}, nil
}

// RenderLabels renders every label text as markdown. A label failing to
// render is kept as written.
func RenderLabels(labels map[string]string, render func(string) (string, error)) map[string]string {
	out := make(map[string]string, len(labels))
	for id, text := range labels {
		rendered, err := render(text)
		if err != nil {
			rendered = text
		}
		out[id] = rendered
	}
	return out
}
