package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// KindRemote is a failure reported by the server in its own error body.
	KindRemote ErrorKind = iota
	// KindValidation is a request rejected locally before any network call.
	KindValidation
	// KindTransport covers network, protocol and decoding failures.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

const (
	ResultException     = "Exception"
	ResultEmptyUsername = "Empty Username"
)

// ErrorResult is the BaasBox error body. Local failures are converted into
// the same shape so callers only ever inspect one type.
type ErrorResult struct {
	Result        string        `json:"result" yaml:"result"`
	Message       string        `json:"message" yaml:"message"`
	Resource      string        `json:"resource" yaml:"resource"`
	Method        string        `json:"method" yaml:"method"`
	RequestHeader RequestHeader `json:"request_header" yaml:"requestHeader"`
	APIVersion    string        `json:"API_version" yaml:"apiVersion"`
	HTTPCode      int           `json:"http_code" yaml:"httpCode"`
	BBCode        string        `json:"bb_code" yaml:"bbCode"`

	Kind ErrorKind `json:"-" yaml:"kind"`
}

func (e *ErrorResult) Error() string {
	if e.HTTPCode != 0 {
		return fmt.Sprintf("%s: %s (http %d)", e.Result, e.Message, e.HTTPCode)
	}
	return fmt.Sprintf("%s: %s", e.Result, e.Message)
}

// UnmarshalJSON accepts bb_code as either a string or a number.
func (e *ErrorResult) UnmarshalJSON(b []byte) error {
	type plain ErrorResult
	var aux struct {
		plain
		BBCode json.RawMessage `json:"bb_code"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*e = ErrorResult(aux.plain)
	code, err := decodeCode(aux.BBCode)
	if err != nil {
		return fmt.Errorf("bb_code: %w", err)
	}
	e.BBCode = code
	return nil
}

func decodeCode(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// FromError maps a Go error onto the error body shape. diagnostic fills the
// resource field and should name where the failure happened.
func FromError(err error, diagnostic string) *ErrorResult {
	var existing *ErrorResult
	if errors.As(err, &existing) {
		return existing
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &ErrorResult{
		Result:   ResultException,
		Message:  msg,
		Method:   ResultException,
		Resource: diagnostic,
		Kind:     KindTransport,
	}
}

func EmptyUsername() *ErrorResult {
	return &ErrorResult{
		Result:  ResultEmptyUsername,
		Message: "Empty Username not allowed",
		Method:  "SignUp",
		Kind:    KindValidation,
	}
}
