// Package markup converts the narrative dialect used in footprint reports into an HTML fragment.
//
// The dialect is a small markdown subset: links, h2 to h4 headings, strong and em
// emphasis, numbered and bullet lists, blank-line separated paragraphs and soft line
// breaks. Conversion is a fixed sequence of regex stages; each stage is exported so it
// can be exercised on its own. Raw HTML in the input is passed through untouched and
// formatting already-formatted output may wrap it twice.
package markup

import (
	"errors"
	"strings"
)

// ErrEmptyInput is returned when there is no narrative text to format.
var ErrEmptyInput = errors.New("markup: empty narrative text")

// Stage is one pure text transform in the pipeline.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Stages returns the conversion pipeline in execution order. Later stages rely on
// earlier ones having run: emphasis must not see link brackets, list wrapping must
// see markers, and line breaks must see the final tag layout.
func Stages() []Stage {
	return []Stage{
		{Name: "links", Apply: ReplaceLinks},
		{Name: "headings", Apply: ReplaceHeadings},
		{Name: "emphasis", Apply: ReplaceEmphasis},
		{Name: "list_items", Apply: MarkListItems},
		{Name: "blocks", Apply: WrapBlocks},
		{Name: "empty_containers", Apply: RemoveEmptyContainers},
		{Name: "line_breaks", Apply: InsertLineBreaks},
	}
}

// Formatter runs a stage pipeline over narrative text.
type Formatter struct {
	stages []Stage
}

// NewFormatter returns a formatter using the standard pipeline.
func NewFormatter() *Formatter {
	return &Formatter{stages: Stages()}
}

// Format converts text into an HTML fragment.
// Text that is empty after trimming whitespace yields ErrEmptyInput.
// CRLF line endings are read as LF.
func (f *Formatter) Format(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, stage := range f.stages {
		text = stage.Apply(text)
	}
	return text, nil
}

// Format converts text with the standard pipeline.
func Format(text string) (string, error) {
	return NewFormatter().Format(text)
}
