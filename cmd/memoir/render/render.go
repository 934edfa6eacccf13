// Package render prints model answers, as terminal markdown by default.
package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
)

const wordWrap = 100

// Markdown writes text to w rendered for the terminal. With plain set, or
// when the renderer cannot be constructed, the raw text is written instead.
func Markdown(w io.Writer, text string, plain bool) error {
	if plain {
		_, err := fmt.Fprintln(w, text)
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		_, werr := fmt.Fprintln(w, text)
		return werr
	}

	out, err := renderer.Render(text)
	if err != nil {
		_, werr := fmt.Fprintln(w, text)
		return werr
	}

	_, err = fmt.Fprint(w, out)
	return err
}
