package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"GET nome", Get{Key: "nome"}},
		{"get nome", Get{Key: "nome"}},
		{"  SET   nome   Lucas ", Set{Key: "nome", Value: "Lucas"}},
		{"DEL k", Del{Key: "k"}},
		{"delete k", Del{Key: "k"}},
		{"EXISTS k", Exists{Key: "k"}},
		{"KEYS", Keys{}},
		{"FLUSH", Flush{}},
		{"flushall", Flush{}},
		{"SIZE", Size{}},
		{"DBSIZE", Size{}},
		{"Ping", Ping{}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if err != nil {
				t.Fatalf("ParseLine(%q): %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseLine(%q) = %#v, want %#v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		line string
		msg  string
	}{
		{"", "empty command"},
		{"   ", "empty command"},
		{"SET a", "SET requires exactly two arguments: SET <key> <value>"},
		{"SET a b c", "SET requires exactly two arguments: SET <key> <value>"},
		{"GET", "GET requires exactly one argument: GET <key>"},
		{"DELETE", "DEL requires exactly one argument: DEL <key>"},
		{"EXISTS a b", "EXISTS requires exactly one argument: EXISTS <key>"},
		{"KEYS *", "KEYS takes no arguments"},
		{"FLUSHALL now", "FLUSH takes no arguments"},
		{"HGET a b", "unknown command 'HGET'"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := ParseLine(tt.line)
			if cmd != nil {
				t.Fatalf("ParseLine(%q) returned command %#v", tt.line, cmd)
			}
			var merr *MalformedCommandError
			if !errors.As(err, &merr) {
				t.Fatalf("ParseLine(%q) err = %v, want *MalformedCommandError", tt.line, err)
			}
			if merr.Error() != tt.msg {
				t.Fatalf("ParseLine(%q) err = %q, want %q", tt.line, merr.Error(), tt.msg)
			}
		})
	}
}

func TestParseArgsKeepsWhitespaceInTokens(t *testing.T) {
	got, err := ParseArgs([]string{"set", "greeting", "hello world"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if want := (Set{Key: "greeting", Value: "hello world"}); got != want {
		t.Fatalf("ParseArgs = %#v, want %#v", got, want)
	}
}
