package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type envelope struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args,omitempty"`
}

type keyArgs struct {
	Key string `json:"key"`
}

type setArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// EncodeCommand renders cmd in the structured form. Commands without
// parameters carry no "args" field.
func EncodeCommand(cmd Command) ([]byte, error) {
	var args any
	switch c := cmd.(type) {
	case Get:
		args = keyArgs{Key: c.Key}
	case Set:
		args = setArgs{Key: c.Key, Value: c.Value}
	case Del:
		args = keyArgs{Key: c.Key}
	case Exists:
		args = keyArgs{Key: c.Key}
	case Keys, Flush, Size, Ping:
	default:
		return nil, fmt.Errorf("encode command: unsupported type %T", cmd)
	}

	env := envelope{Command: cmd.Name()}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode %s args: %w", cmd.Name(), err)
		}
		env.Args = raw
	}
	return json.Marshal(env)
}

// DecodeCommand parses the structured form. The command name is matched
// case-insensitively. Any mismatch yields a *MalformedCommandError and no
// Command.
func DecodeCommand(data []byte) (Command, error) {
	var env struct {
		Command *string         `json:"command"`
		Args    json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, malformed("invalid JSON command: %s", describeJSONError(err))
	}
	if env.Command == nil {
		return nil, malformed("missing \"command\" field")
	}

	name := strings.ToUpper(*env.Command)
	args := env.Args
	if bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		args = nil
	}

	switch name {
	case "GET":
		key, err := decodeKey(name, args)
		if err != nil {
			return nil, err
		}
		return Get{Key: key}, nil
	case "SET":
		var a struct {
			Key   *string `json:"key"`
			Value *string `json:"value"`
		}
		if err := decodeArgs(name, args, &a); err != nil {
			return nil, err
		}
		if a.Key == nil {
			return nil, malformed("SET: missing args.key")
		}
		if a.Value == nil {
			return nil, malformed("SET: missing args.value")
		}
		return Set{Key: *a.Key, Value: *a.Value}, nil
	case "DEL":
		key, err := decodeKey(name, args)
		if err != nil {
			return nil, err
		}
		return Del{Key: key}, nil
	case "EXISTS":
		key, err := decodeKey(name, args)
		if err != nil {
			return nil, err
		}
		return Exists{Key: key}, nil
	case "KEYS":
		return decodeNoArgs(Keys{}, args)
	case "FLUSH":
		return decodeNoArgs(Flush{}, args)
	case "SIZE":
		return decodeNoArgs(Size{}, args)
	case "PING":
		return decodeNoArgs(Ping{}, args)
	default:
		return nil, malformed("unknown command %q", *env.Command)
	}
}

func decodeKey(name string, args json.RawMessage) (string, error) {
	var a struct {
		Key *string `json:"key"`
	}
	if err := decodeArgs(name, args, &a); err != nil {
		return "", err
	}
	if a.Key == nil {
		return "", malformed("%s: missing args.key", name)
	}
	return *a.Key, nil
}

func decodeArgs(name string, args json.RawMessage, v any) error {
	if len(args) == 0 {
		return malformed("%s: missing \"args\" object", name)
	}
	if err := json.Unmarshal(args, v); err != nil {
		return malformed("%s: invalid args: %s", name, describeJSONError(err))
	}
	return nil
}

func decodeNoArgs(cmd Command, args json.RawMessage) (Command, error) {
	if len(args) == 0 {
		return cmd, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(args, &obj); err != nil {
		return nil, malformed("%s: \"args\" must be an object", cmd.Name())
	}
	return cmd, nil
}

func describeJSONError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field != "" {
			return fmt.Sprintf("field %q must be %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
		}
		return fmt.Sprintf("expected an object, got %s", typeErr.Value)
	}
	return err.Error()
}
