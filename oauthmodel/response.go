package oauthmodel

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the raw outcome of an AuthServer call, returned to the caller for assertions.
// Authentication failures are ordinary Responses; only transport faults are errors.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Result     AuthResult
}

// NewResponse decodes the AuthResult for a status and body.
func NewResponse(status int, header http.Header, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Header:     header,
		Body:       body,
		Result:     DecodeAuthResult(status, body),
	}
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("Response.Decode: %w", err)
	}
	return nil
}

// TokenResponse decodes the body as a TokenResponse regardless of the result kind.
func (r *Response) TokenResponse() TokenResponse {
	var tr TokenResponse
	_ = json.Unmarshal(r.Body, &tr)
	return tr
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= http.StatusInternalServerError
}
