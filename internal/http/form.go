package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"caixinha/internal/core"
)

// The dashboard posts url-encoded forms. The same fields are accepted as a
// flat JSON object so the write endpoints can be scripted.

const maxFormBytes = 16 << 10

var (
	errMalformedBody = errors.New("malformed request body")
	errBodyTooLarge  = errors.New("request body too large")
)

// rosterForm holds the fields posted to the member, loan and chat routes.
type rosterForm struct {
	fields map[string]string
}

func readForm(r *http.Request) (rosterForm, error) {
	f := rosterForm{fields: map[string]string{}}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxFormBytes+1))
	if err != nil {
		return f, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxFormBytes {
		return f, errBodyTooLarge
	}

	body = bytes.TrimSpace(body)
	switch {
	case len(body) == 0:
	case body[0] == '{':
		var raw map[string]any
		if err := json.Unmarshal(body, &raw); err != nil {
			return f, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		for k, v := range raw {
			f.fields[k] = scalar(v)
		}
	default:
		q, err := url.ParseQuery(string(body))
		if err != nil {
			return f, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		for k := range q {
			f.fields[k] = q.Get(k)
		}
	}
	return f, nil
}

// text returns the field with control characters stripped and surrounding
// whitespace trimmed.
func (f rosterForm) text(key string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\t' && r != '\n' {
			return -1
		}
		return r
	}, f.fields[key]))
}

func (f rosterForm) name() string     { return f.text("name") }
func (f rosterForm) question() string { return f.text("question") }

// amount reads "amount" as "500", "500.00" or "500,00". Anything else is
// the zero amount, which the roster rejects.
func (f rosterForm) amount() core.Money {
	cents, err := core.ParseDecimalToCents(f.text("amount"))
	if err != nil {
		return core.Money{}
	}
	return core.Money{Cents: cents}
}

// dueDate reads "due_date" (YYYY-MM-DD). An unparsable date is the empty
// date, which the roster rejects.
func (f rosterForm) dueDate() core.Date {
	d, err := core.ParseDate(f.text("due_date"))
	if err != nil {
		return core.Date{}
	}
	return d
}

// scalar renders JSON strings and numbers; nested values are ignored.
func scalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}
