package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated indicates there is no usable token and no refresh
	// token to mint one from.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshFailed indicates the refresh endpoint rejected the refresh
	// token or the refresh call failed. The session has been cleared by the
	// time this error is observed.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrAuthorizationFailed indicates the server rejected the request with
	// 401/403 even after the single refresh-and-retry cycle.
	ErrAuthorizationFailed = errors.New("authorization failed")
)

// RemoteError is any non-success HTTP response that is not an authorization
// failure handled by the retry cycle. Message carries the server's own error
// text when the body was structured.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("server returned status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

// errorBody covers the field-name variance across the server's error
// payloads. Normalized here, once, instead of probed at call sites.
type errorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Msg      string `json:"msg"`
	ErrField string `json:"error"`
}

func (b errorBody) text() string {
	switch {
	case b.Message != "":
		return b.Message
	case b.Msg != "":
		return b.Msg
	default:
		return b.ErrField
	}
}

// newRemoteError builds a RemoteError from a non-success response body,
// falling back to a generic status-coded message when the body is not a
// structured error payload.
func newRemoteError(status int, body []byte) *RemoteError {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg := parsed.text(); msg != "" {
			return &RemoteError{Status: status, Code: parsed.Code, Message: msg}
		}
	}
	return &RemoteError{Status: status, Message: fmt.Sprintf("HTTP error, status %d", status)}
}
