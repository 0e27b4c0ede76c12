package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Response is the outcome of executing one Command. The set of
// implementations is closed; each one marshals to the JSON shape of the
// structured form.
type Response interface {
	json.Marshaler
	isResponse()
}

// TextValue is a plain string result, e.g. PONG.
type TextValue struct{ Value string }

// OptionalText is a string that may be absent (Found == false).
type OptionalText struct {
	Value string
	Found bool
}

// Flag is a boolean result.
type Flag struct{ Value bool }

// Count is a non-negative number.
type Count struct{ Value uint64 }

// TextList is an ordered list of strings.
type TextList struct{ Values []string }

// Acknowledged reports success without a value.
type Acknowledged struct{}

// Failure carries an error message.
type Failure struct{ Message string }

// FailureFrom converts err into a Failure response.
func FailureFrom(err error) Failure {
	return Failure{Message: err.Error()}
}

func (TextValue) isResponse()    {}
func (OptionalText) isResponse() {}
func (Flag) isResponse()         {}
func (Count) isResponse()        {}
func (TextList) isResponse()     {}
func (Acknowledged) isResponse() {}
func (Failure) isResponse()      {}

func (r TextValue) MarshalJSON() ([]byte, error) { return json.Marshal(r.Value) }

func (r OptionalText) MarshalJSON() ([]byte, error) {
	if !r.Found {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

func (r Flag) MarshalJSON() ([]byte, error) { return json.Marshal(r.Value) }

func (r Count) MarshalJSON() ([]byte, error) { return json.Marshal(r.Value) }

func (r TextList) MarshalJSON() ([]byte, error) {
	if r.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(r.Values)
}

func (Acknowledged) MarshalJSON() ([]byte, error) { return []byte(`"OK"`), nil }

func (r Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error string `json:"error"`
	}{r.Message})
}

// EncodeResponse renders r in the structured form.
func EncodeResponse(r Response) ([]byte, error) {
	if r == nil {
		return nil, errors.New("encode response: nil response")
	}
	return r.MarshalJSON()
}

// DecodeResponse parses the structured form of the response to cmd. The JSON
// shape alone is ambiguous ("OK" may be Acknowledged or TextValue), so the
// command that produced it selects the expected variant. An object with an
// "error" field always decodes to Failure.
func DecodeResponse(cmd Command, data []byte) (Response, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var f struct {
			Error *string `json:"error"`
		}
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("decode failure response: %w", err)
		}
		if f.Error == nil {
			return nil, errors.New("decode failure response: missing \"error\" field")
		}
		return Failure{Message: *f.Error}, nil
	}

	switch cmd.(type) {
	case Get:
		var v *string
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode GET response: %w", err)
		}
		if v == nil {
			return OptionalText{}, nil
		}
		return OptionalText{Value: *v, Found: true}, nil
	case Set, Flush:
		var v string
		if err := json.Unmarshal(data, &v); err != nil || v != "OK" {
			return nil, fmt.Errorf("decode %s response: want \"OK\", got %s", cmd.Name(), data)
		}
		return Acknowledged{}, nil
	case Del, Exists:
		var v bool
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", cmd.Name(), err)
		}
		return Flag{Value: v}, nil
	case Keys:
		var v []string
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode KEYS response: %w", err)
		}
		if v == nil {
			v = []string{}
		}
		return TextList{Values: v}, nil
	case Size:
		var v uint64
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode SIZE response: %w", err)
		}
		return Count{Value: v}, nil
	case Ping:
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("decode PING response: %w", err)
		}
		return TextValue{Value: v}, nil
	default:
		return nil, fmt.Errorf("decode response: unsupported command %T", cmd)
	}
}

// Render formats r for a human, the way the interactive shell prints it.
func Render(r Response) string {
	switch r := r.(type) {
	case TextValue:
		return r.Value
	case OptionalText:
		if !r.Found {
			return "(nil)"
		}
		return `"` + r.Value + `"`
	case Flag:
		if r.Value {
			return "1"
		}
		return "0"
	case Count:
		return strconv.FormatUint(r.Value, 10)
	case TextList:
		if len(r.Values) == 0 {
			return "(empty array)"
		}
		var b strings.Builder
		for i, v := range r.Values {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "%d) \"%s\"", i+1, v)
		}
		return b.String()
	case Acknowledged:
		return "OK"
	case Failure:
		return "Error: " + r.Message
	default:
		return fmt.Sprintf("Error: unsupported response %T", r)
	}
}
