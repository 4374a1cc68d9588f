package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// maxBodyBytes caps request bodies; orders and resets are a few fields.
const maxBodyBytes = 1 << 16

// WriteJSON writes data as JSON with the given status code. The status is
// already sent when encoding runs, so an encode failure can only be logged.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("response encode failed",
			slog.Int("status", status),
			slog.String("type", fmt.Sprintf("%T", data)),
			slog.String("error", err.Error()),
		)
	}
}

// errorResponse is the body of every non-2xx response. Field names the
// offending request field when one can be identified.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// WriteError writes an error response with the given status code, error
// code, and human-readable message.
func WriteError(w http.ResponseWriter, status int, errorCode, message string) {
	WriteJSON(w, status, errorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// RequestError is a request body that could not be decoded.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// WriteRequestError writes err as a 400 invalid_request response, carrying
// the field name when err is a *RequestError.
func WriteRequestError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: "invalid_request", Message: err.Error()}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		resp.Field = reqErr.Field
	}
	WriteJSON(w, http.StatusBadRequest, resp)
}

// ParseJSON decodes the request body as JSON into v. Unknown fields are
// rejected. Every failure is a *RequestError saying what was wrong and,
// where possible, with which field.
func ParseJSON(r *http.Request, v any) error {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(ct, "application/json") {
		return &RequestError{Message: "Content-Type must be application/json"}
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return decodeError(err)
	}
	return nil
}

func decodeError(err error) *RequestError {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, io.EOF):
		return &RequestError{Message: "Request body is empty"}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &RequestError{Message: "Request body is truncated JSON"}
	case errors.As(err, &syntaxErr):
		return &RequestError{Message: fmt.Sprintf("Malformed JSON at byte %d", syntaxErr.Offset)}
	case errors.As(err, &typeErr):
		return &RequestError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be %s, got %s", typeErr.Field, describeType(typeErr.Type), typeErr.Value),
		}
	}

	// encoding/json has no typed error for unknown fields.
	if rest, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		field, uerr := strconv.Unquote(rest)
		if uerr != nil {
			field = rest
		}
		return &RequestError{Field: field, Message: fmt.Sprintf("Unknown field %s", field)}
	}
	return &RequestError{Message: "Request body must be valid JSON"}
}

func describeType(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	}
	return "of type " + t.String()
}
