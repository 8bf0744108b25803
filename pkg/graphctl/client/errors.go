package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrRemoteAPI matches every failure of the remote service: non-2xx responses (*HTTPError)
// and transport errors.
var ErrRemoteAPI = errors.New("remote API error")

type HTTPError struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

func (e *HTTPError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("request failed (%d): %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

func (e *HTTPError) Is(target error) bool {
	return target == ErrRemoteAPI
}

// decodeError builds an HTTPError from a Graph style body ({"error":{"code","message"}}),
// falling back to a flat {"error":"..."} body, the raw body and finally the status text.
func decodeError(statusCode int, status string, body []byte, requestID string) *HTTPError {
	var graphErr struct {
		Error json.RawMessage `json:"error"`
	}
	var code, msg string
	if len(body) > 0 && json.Unmarshal(body, &graphErr) == nil && len(graphErr.Error) > 0 {
		var detail struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(graphErr.Error, &detail) == nil {
			code, msg = detail.Code, detail.Message
		} else {
			_ = json.Unmarshal(graphErr.Error, &msg)
		}
	}
	msg = strings.TrimSpace(msg)
	if msg == "" && code == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = status
	}
	return &HTTPError{StatusCode: statusCode, Code: code, Message: msg, RequestID: requestID}
}
