package program

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

//nolint:gochecknoglobals // goldmark.Markdown is safe for concurrent use.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify, extension.Table),
	// Raw HTML from the model is omitted.
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderMarkdown converts model written notes or instructions to HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}

// RenderedProgram carries HTML versions of the free text fields of a stored program.
type RenderedProgram struct {
	NotesHTML string `json:"notesHtml"`
	// InstructionsHTML maps exercise IDs to rendered instructions. Empty for diet programs.
	InstructionsHTML map[string]string `json:"instructionsHtml,omitempty"`
}

// Render converts the notes and, for exercise programs, every exercise's instructions.
func (sp StoredProgram) Render() (RenderedProgram, error) {
	var (
		rendered RenderedProgram
		err      error
	)
	switch {
	case sp.Exercise != nil:
		if rendered.NotesHTML, err = RenderMarkdown(sp.Exercise.Notes); err != nil {
			return RenderedProgram{}, err
		}
		rendered.InstructionsHTML = map[string]string{}
		for _, w := range sp.Exercise.Workouts {
			for _, e := range w.Exercises {
				if rendered.InstructionsHTML[e.ID], err = RenderMarkdown(e.Instructions); err != nil {
					return RenderedProgram{}, err
				}
			}
		}
	case sp.Diet != nil:
		if rendered.NotesHTML, err = RenderMarkdown(sp.Diet.Notes); err != nil {
			return RenderedProgram{}, err
		}
	}
	return rendered, nil
}
