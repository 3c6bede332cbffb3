package form

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/siherrmann/bibliograph/helper"
	"github.com/siherrmann/bibliograph/model"
)

// LoginPath is where a submission without returned entity redirects to
const LoginPath = "/login"

// EditionFields are the raw values of the edition form
type EditionFields struct {
	Aliases        []model.AliasInput
	Publication    string
	Publisher      string
	ReleaseDate    string
	Language       string
	EditionFormat  string
	EditionStatus  string
	Disambiguation string
	Annotation     string
	Identifiers    []model.IdentifierInput
	Pages          string
	Weight         string
	Width          string
	Height         string
	Depth          string
	Note           string
}

// PublicationFields are the raw values of the publication form
type PublicationFields struct {
	Aliases         []model.AliasInput
	PublicationType string
	Disambiguation  string
	Annotation      string
	Identifiers     []model.IdentifierInput
	Note            string
}

// BuildEditionSubmission converts the raw edition form values into a submission
func BuildEditionSubmission(f EditionFields) *model.EditionSubmission {
	return &model.EditionSubmission{
		Aliases:         f.Aliases,
		Publication:     f.Publication,
		Publisher:       f.Publisher,
		ReleaseDate:     f.ReleaseDate,
		LanguageID:      ParseInt(f.Language),
		EditionFormatID: ParseInt(f.EditionFormat),
		EditionStatusID: ParseInt(f.EditionStatus),
		Disambiguation:  f.Disambiguation,
		Annotation:      f.Annotation,
		Identifiers:     f.Identifiers,
		Pages:           ParseInt(f.Pages),
		Weight:          ParseInt(f.Weight),
		Width:           ParseInt(f.Width),
		Height:          ParseInt(f.Height),
		Depth:           ParseInt(f.Depth),
		Note:            f.Note,
	}
}

// BuildPublicationSubmission converts the raw publication form values into a submission
func BuildPublicationSubmission(f PublicationFields) *model.PublicationSubmission {
	return &model.PublicationSubmission{
		Aliases:           f.Aliases,
		PublicationTypeID: ParseInt(f.PublicationType),
		Disambiguation:    f.Disambiguation,
		Annotation:        f.Annotation,
		Identifiers:       f.Identifiers,
		Note:              f.Note,
	}
}

// ParseInt reads the leading integer of a form value.
// Leading whitespace and a sign are accepted, trailing garbage is ignored
// and a "0x" prefix reads hex. Values without digits return nil.
func ParseInt(s string) *int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")

	sign := ""
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	base := 10
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 {
		return nil
	}

	v, err := strconv.ParseInt(sign+s[:end], base, strconv.IntSize)
	if err != nil {
		return nil
	}
	i := int(v)
	return &i
}

func isDigit(c byte, base int) bool {
	if c >= '0' && c <= '9' {
		return true
	}
	if base == 16 {
		return (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	}
	return false
}

// Redirect returns the page to open after a submission of kind
func Redirect(kind model.Kind, revision *model.Revision) string {
	if revision == nil || revision.Entity == nil {
		return LoginPath
	}
	return "/" + kind.Segment() + "/" + revision.Entity.BBID.String()
}

// Submit posts payload as JSON to url and returns the page to open next
func Submit(ctx context.Context, client *http.Client, url string, kind model.Kind, payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", helper.NewError("marshal submission", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", helper.NewError("create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", helper.NewError("post submission", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", helper.NewError("read revision", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", helper.NewError("post submission", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))))
	}

	var revision *model.Revision
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &revision); err != nil {
			return "", helper.NewError("decode revision", err)
		}
	}

	return Redirect(kind, revision), nil
}
