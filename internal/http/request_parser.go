// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"flux/internal/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errors.New("request body too large")
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if strings.HasPrefix(p.contentType, "application/json") || body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(body), &p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(body)
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
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

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// Amounts are whole rupiah; a fractional number must not reach
		// ParseAmount as "12.5" where the dot reads as a separator.
		if val != math.Trunc(val) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpenseDraft reads amount, category, description and date. Amount
// accepts plain or formatted rupiah ("Rp 25.000"); date is YYYY-MM-DD and
// optional.
func ParseExpenseDraft(p *RequestBodyParser) (core.ExpenseDraft, error) {
	var d core.ExpenseDraft

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return d, &core.ValidationError{Field: "amount", Message: "amount must be a whole number of rupiah", Err: err}
	}
	d.Amount = amount
	d.Category = core.CategoryID(p.Get("category"))
	d.Description = p.Get("description")

	if v := p.Get("date"); v != "" {
		date, err := core.ParseDate(v)
		if err != nil {
			return d, &core.ValidationError{Field: "expense_date", Message: "date must be YYYY-MM-DD", Err: err}
		}
		d.Date = date
	}
	return d, nil
}

// ParseFilter reads filter, start and end from the query. ok is false when no
// filter parameter was given, meaning the caller's current filter applies.
// A custom filter without both bounds resolves to today.
func ParseFilter(q url.Values) (f core.Filter, ok bool, err error) {
	raw := strings.TrimSpace(q.Get("filter"))
	if raw == "" {
		return core.Filter{}, false, nil
	}
	mode, err := core.ParseFilterMode(raw)
	if err != nil {
		return core.Filter{}, true, &core.ValidationError{Field: "filter", Message: "filter must be one of daily, weekly, monthly, custom", Err: err}
	}
	f.Mode = mode
	if mode != core.FilterCustom {
		return f, true, nil
	}

	start, end := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if start == "" || end == "" {
		return f, true, nil
	}
	s, err := core.ParseDate(start)
	if err != nil {
		return core.Filter{}, true, &core.ValidationError{Field: "start", Message: "start must be YYYY-MM-DD", Err: err}
	}
	e, err := core.ParseDate(end)
	if err != nil {
		return core.Filter{}, true, &core.ValidationError{Field: "end", Message: "end must be YYYY-MM-DD", Err: err}
	}
	f.Custom = &core.CustomRange{Start: s, End: e}
	return f, true, nil
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return ErrorResponse(http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed").
		Header("Allow", strings.Join(methods, ", "))
}
