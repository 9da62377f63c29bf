package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"gitlab.com/yelinaung/finadm/internal/apierr"
)

// errorBody is the backend's structured error envelope. Some endpoints
// send a bare message instead.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Code    string          `json:"code"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details any               `json:"details"`
	Fields  map[string]string `json:"fields"`
}

// responseError normalizes an HTTP error status into *apierr.Error.
func responseError(resp *Response) error {
	status := resp.Status
	out := &apierr.Error{Status: status}

	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		out.Code = body.Code
		out.Message = body.Message

		var detail errorDetail
		var msg string
		switch {
		case len(body.Error) == 0 || string(body.Error) == "null":
		case json.Unmarshal(body.Error, &detail) == nil:
			if detail.Code != "" {
				out.Code = detail.Code
			}
			if detail.Message != "" {
				out.Message = detail.Message
			}
			out.Details = detail.Details
			out.Fields = detail.Fields
		case json.Unmarshal(body.Error, &msg) == nil && msg != "":
			out.Message = msg
		}
	}

	if out.Code == "" {
		out.Code = apierr.CodeForStatus(status)
	}
	if out.Message == "" {
		out.Message = strings.ToLower(http.StatusText(status))
		if out.Message == "" {
			out.Message = "unknown error"
		}
	}
	return out
}

// transportError normalizes a failure to get any response.
func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apierr.Wrap(err, 0, apierr.CodeTimeout, "request timed out, check your connection")
	}
	if errors.Is(err, context.Canceled) {
		return apierr.Wrap(err, 0, apierr.CodeNetwork, "request canceled")
	}
	return apierr.Wrap(err, 0, apierr.CodeNetwork, "network error, check your connection")
}
