// Package render turns a relationship template and its ordered participant
// entities into a display value.
//
// Templates are literal text with {N} placeholders, N being the zero-based
// index of a participant, e.g. "{0} wrote {1}". "{{" and "}}" produce literal
// braces. Rendering is pure: the same entities and template always produce
// the same output.
package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/bibliograph/model"
)

// Template errors
var (
	ErrTemplateSyntax = errors.New("template syntax error")
	ErrTemplateArity  = errors.New("template references a missing participant")
)

// Context adjusts how entity references are rendered. A nil Context renders
// every participant as a link relative to "/".
type Context struct {
	// LinkPrefix is prepended to entity paths (default "/")
	LinkPrefix string
	// Subject is the entity being displayed; it is rendered without a link
	Subject uuid.UUID
}

// Func is the renderer signature consumed by the resolution engine
type Func func(entities []*model.Entity, template string, rctx *Context) (*model.Rendered, error)

// Render renders template with entities in the given order
func Render(entities []*model.Entity, template string, rctx *Context) (*model.Rendered, error) {
	tokens, err := parse(template)
	if err != nil {
		return nil, err
	}

	rendered := &model.Rendered{Segments: make([]model.RenderedSegment, 0, len(tokens))}
	var text strings.Builder

	for _, tok := range tokens {
		if tok.index < 0 {
			rendered.Segments = append(rendered.Segments, model.RenderedSegment{Text: tok.text})
			text.WriteString(tok.text)
			continue
		}

		if tok.index >= len(entities) || entities[tok.index] == nil {
			return nil, fmt.Errorf("%w: {%d} with %d participants", ErrTemplateArity, tok.index, len(entities))
		}

		e := entities[tok.index]
		name := e.Name()
		segment := model.RenderedSegment{
			Text:   name,
			Entity: e.Ref(),
		}
		if rctx == nil || rctx.Subject != e.BBID {
			segment.Link = link(e, rctx)
		}
		rendered.Segments = append(rendered.Segments, segment)
		text.WriteString(name)
	}

	rendered.Text = text.String()
	return rendered, nil
}

func link(e *model.Entity, rctx *Context) string {
	prefix := "/"
	if rctx != nil && len(rctx.LinkPrefix) > 0 {
		prefix = rctx.LinkPrefix
	}
	return strings.TrimSuffix(prefix, "/") + e.Path()
}

// token is literal text (index -1) or a participant placeholder
type token struct {
	text  string
	index int
}

func parse(template string) ([]token, error) {
	var tokens []token
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{text: lit.String(), index: -1})
			lit.Reset()
		}
	}

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				lit.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated placeholder at offset %d", ErrTemplateSyntax, i)
			}
			raw := template[i+1 : i+1+end]
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 || strings.TrimSpace(raw) != raw || strings.HasPrefix(raw, "+") {
				return nil, fmt.Errorf("%w: invalid placeholder {%s}", ErrTemplateSyntax, raw)
			}
			flush()
			tokens = append(tokens, token{index: n})
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				lit.WriteByte('}')
				i++
				continue
			}
			return nil, fmt.Errorf("%w: unmatched } at offset %d", ErrTemplateSyntax, i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()

	return tokens, nil
}
