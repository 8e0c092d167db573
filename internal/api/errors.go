package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Error is returned when the API responds with a non-2xx status
type Error struct {
	Status int
	Detail string
	Method string
	Path   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ems api %d: %s", e.Status, e.Detail)
}

// Client reports a 4xx rejection, whose Detail is meant for the user
func (e *Error) Client() bool {
	return e.Status >= 400 && e.Status < 500
}

// errorBody is FastAPI's error envelope. detail is a string for
// HTTPException and a list of field errors for validation failures.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type fieldError struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func newError(method, path string, resp *http.Response) *Error {
	e := &Error{Status: resp.StatusCode, Method: method, Path: path}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Detail) > 0 {
		e.Detail = parseDetail(body.Detail)
	}
	if e.Detail == "" {
		e.Detail = plainDetail(raw)
	}
	if e.Detail == "" {
		e.Detail = http.StatusText(resp.StatusCode)
	}
	return e
}

// maxPlainDetail bounds a non-JSON body used as the error message
const maxPlainDetail = 200

// plainDetail keeps a raw body only when it reads as a short message.
// Multi-line text and markup yield "".
func plainDetail(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" || len(text) > maxPlainDetail || strings.ContainsAny(text, "\r\n<") {
		return ""
	}
	return text
}

func parseDetail(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var fields []fieldError
	if err := json.Unmarshal(raw, &fields); err == nil {
		msgs := make([]string, 0, len(fields))
		for _, f := range fields {
			if len(f.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", f.Loc[len(f.Loc)-1], f.Msg))
			} else {
				msgs = append(msgs, f.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(raw)
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports a 404 from the API
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports a 401 from the API
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}
