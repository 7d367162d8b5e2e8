package ingest

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/cognicore/posttags/pkg/posttags/pipeline"
)

// skipElements never contribute text
var skipElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Pre:      true,
	atom.Code:     true,
	atom.Noscript: true,
	atom.Template: true,
}

// HTMLText replaces embedded HTML with its visible text. Markdown around the
// markup passes through untouched; entities are decoded.
type HTMLText struct{}

// NewHTMLText creates the stage
func NewHTMLText() *HTMLText {
	return &HTMLText{}
}

// Extract returns text with markup removed and the contents of script,
// style, pre and code elements dropped. Block boundaries become newlines.
func (h *HTMLText) Extract(text string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(text))
	depth := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			// io.EOF; a strings.Reader produces no other error
			return b.String()

		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
			}

		case html.StartTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipElements[a] {
				depth++
			} else if isBlock(a) {
				b.WriteByte('\n')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if skipElements[a] {
				if depth > 0 {
					depth--
				}
			} else if isBlock(a) {
				b.WriteByte('\n')
			}

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Br {
				b.WriteByte('\n')
			}
		}
	}
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Li, atom.Ul, atom.Ol, atom.Table, atom.Tr,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Blockquote, atom.Section, atom.Article:
		return true
	}
	return false
}

// Fit is a no-op
func (h *HTMLText) Fit(any) (pipeline.Stage, error) {
	return h, nil
}

// Apply extracts text from a string input
func (h *HTMLText) Apply(input any) (any, error) {
	text, ok := input.(string)
	if !ok {
		return nil, unexpected(input, "string")
	}
	return h.Extract(text), nil
}
