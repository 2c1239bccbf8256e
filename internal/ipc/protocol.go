package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Request is one framed message from a client.
type Request struct {
	Tool string         `json:"tool"`
	Args map[string]any `json:"args,omitempty"`
}

// Fixed protocol error messages.
const (
	MsgNoTool       = "No tool specified"
	MsgEmptyCommand = "Empty command received"
	MsgTimeout      = "Timeout waiting for result"
)

// Envelope is the response to one Request: a result or an error, never both.
// Build one with Result or Error.
type Envelope struct {
	Result  any
	Error   string
	isError bool
}

// Result wraps a successful value. A nil value still encodes as
// {"result": null}.
func Result(v any) Envelope {
	return Envelope{Result: v}
}

// Error wraps a client-visible error message.
func Error(msg string) Envelope {
	return Envelope{Error: msg, isError: true}
}

// Errorf formats an error envelope.
func Errorf(format string, args ...any) Envelope {
	return Error(fmt.Sprintf(format, args...))
}

// InvalidJSON reports an unparseable request body.
func InvalidJSON(err error) Envelope {
	return Error("Invalid JSON: " + err.Error())
}

// IsError reports whether e carries an error.
func (e Envelope) IsError() bool {
	return e.isError
}

// Validate rejects an envelope that carries both a result and an error.
func (e Envelope) Validate() error {
	if e.isError && e.Result != nil {
		return errors.New("envelope carries both result and error")
	}
	if !e.isError && e.Error != "" {
		return errors.New("envelope error set without Error constructor")
	}
	return nil
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.isError {
		return json.Marshal(struct {
			Error string `json:"error"`
		}{e.Error})
	}
	return json.Marshal(struct {
		Result any `json:"result"`
	}{e.Result})
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	resRaw, hasResult := raw["result"]
	errRaw, hasError := raw["error"]

	switch {
	case hasResult && hasError:
		return errors.New("envelope carries both result and error")
	case hasError:
		var msg string
		if err := json.Unmarshal(errRaw, &msg); err != nil {
			return fmt.Errorf("envelope error: %w", err)
		}
		*e = Error(msg)
	case hasResult:
		var v any
		if err := json.Unmarshal(resRaw, &v); err != nil {
			return fmt.Errorf("envelope result: %w", err)
		}
		*e = Result(v)
	default:
		return errors.New("envelope has neither result nor error")
	}
	return nil
}
