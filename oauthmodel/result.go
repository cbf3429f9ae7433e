package oauthmodel

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/toolshop-apitest/internal/utils"
)

// ResultKind tags an AuthResult.
type ResultKind int

const (
	// ResultMalformed is anything that is neither a usable token nor a recognisable rejection,
	// including a 200 without an access_token.
	ResultMalformed ResultKind = iota

	// ResultSuccess is HTTP 200 carrying a non-empty access_token.
	ResultSuccess

	// ResultRejected is a body with an "error" or "message" field and no access_token.
	ResultRejected
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultRejected:
		return "rejected"
	default:
		return "malformed"
	}
}

// AuthResult is the decoded outcome of a login or refresh call.
type AuthResult struct {
	Kind   ResultKind
	Token  *TokenResponse // Set for ResultSuccess
	Reason string         // Set for ResultRejected and ResultMalformed
}

func (r AuthResult) IsSuccess() bool {
	return r.Kind == ResultSuccess
}

// DecodeAuthResult classifies a login/refresh response once, at the HTTP boundary.
func DecodeAuthResult(status int, body []byte) AuthResult {
	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return AuthResult{Kind: ResultMalformed, Reason: reasonForStatus(status, "undecodable body")}
	}

	hasToken := utils.NonEmpty(tr.AccessToken)
	switch {
	case status == http.StatusOK && hasToken:
		return AuthResult{Kind: ResultSuccess, Token: &tr}
	case !hasToken && utils.NonEmpty(tr.Message):
		return AuthResult{Kind: ResultRejected, Reason: *tr.Message}
	case !hasToken && utils.NonEmpty(tr.Error):
		return AuthResult{Kind: ResultRejected, Reason: *tr.Error}
	case status == http.StatusOK:
		return AuthResult{Kind: ResultMalformed, Reason: "missing access_token"}
	default:
		return AuthResult{Kind: ResultMalformed, Reason: reasonForStatus(status, "unexpected body")}
	}
}

func reasonForStatus(status int, fallback string) string {
	if text := http.StatusText(status); text != "" && status != http.StatusOK {
		return text
	}
	return fallback
}
