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

	"github.com/go-chi/chi/v5"

	"wallet/internal/core"
)

const maxBodyBytes = 64 << 10

// errBadRequest marks request shape problems, reported as 400.
var errBadRequest = errors.New("bad request")

// RequestBodyParser reads a JSON object or a form encoded body once and
// exposes its fields as trimmed strings.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads at most maxBodyBytes of the request body.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if p.err == nil && len(p.body) > maxBodyBytes {
			p.err = fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxBodyBytes)
		}
	}
	return p
}

// Parse decodes the body. JSON is detected by content type or by a leading
// brace; anything else is parsed as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: malformed JSON: %v", errBadRequest, err)
			return p.err
		}
		if p.jsonData == nil {
			p.err = fmt.Errorf("%w: expected a JSON object", errBadRequest)
		}
		return p.err
	}

	form, err := url.ParseQuery(string(trimmed))
	if err != nil {
		p.err = fmt.Errorf("%w: malformed form: %v", errBadRequest, err)
		return p.err
	}
	p.formData = form
	return nil
}

// Get returns the named field, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON reports whether the body was decoded as JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding space.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// parseExpenseDraft reads title, amount, category and date from the body.
func parseExpenseDraft(r *http.Request) (core.ExpenseDraft, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.ExpenseDraft{}, err
	}
	return core.ParseExpenseDraft(p.Get("title"), p.Get("amount"), p.Get("category"), p.Get("date"))
}

func parseIncome(r *http.Request) (core.Money, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.Money{}, err
	}
	return core.ParseIncome(p.Get("amount"))
}

// transactionID reads the {id} URL parameter.
func transactionID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid transaction id %q", errBadRequest, raw)
	}
	return id, nil
}
