package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the tick banner, with the story being served.
func PrintBanner(w io.Writer, storyID string) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Indigo/Violet)
	lines := []struct{ text, color string }{
		{"  _   _      _    ", "#818cf8"},
		{" | |_(_) ___| | __", "#a78bfa"},
		{" | __| |/ __| |/ /", "#c084fc"},
		{" | |_| | (__|   < ", "#e879f9"},
		{"  \\__|_|\\___|_|\\_\\", "#f472b6"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	if storyID != "" {
		fmt.Fprintln(w, termenv.String("  story: "+storyID).Faint())
	}
	fmt.Fprintln(w)
}

// Bot styles a bot message for the chat prompt.
func Bot(text string) termenv.Style {
	p := termenv.ColorProfile()
	return termenv.String(text).Foreground(p.Color("#a78bfa"))
}

// Notice styles an engine notice (finished, redirect, error).
func Notice(text string) termenv.Style {
	return termenv.String(text).Faint().Italic()
}
