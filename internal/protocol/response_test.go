package protocol

import (
	"reflect"
	"testing"
)

func TestEncodeResponse(t *testing.T) {
	tests := []struct {
		name string
		r    Response
		want string
	}{
		{"text", TextValue{Value: "PONG"}, `"PONG"`},
		{"optional present", OptionalText{Value: "Lucas", Found: true}, `"Lucas"`},
		{"optional absent", OptionalText{}, `null`},
		{"flag", Flag{Value: true}, `true`},
		{"count", Count{Value: 3}, `3`},
		{"list", TextList{Values: []string{"a", "b"}}, `["a","b"]`},
		{"empty list", TextList{}, `[]`},
		{"ack", Acknowledged{}, `"OK"`},
		{"failure", Failure{Message: "boom"}, `{"error":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeResponse(tt.r)
			if err != nil {
				t.Fatalf("EncodeResponse: %v", err)
			}
			if string(got) != tt.want {
				t.Fatalf("EncodeResponse = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	tests := []struct {
		cmd Command
		r   Response
	}{
		{Ping{}, TextValue{Value: "PONG"}},
		{Get{Key: "k"}, OptionalText{Value: "v", Found: true}},
		{Get{Key: "k"}, OptionalText{}},
		{Get{Key: "k"}, OptionalText{Value: "", Found: true}},
		{Exists{Key: "k"}, Flag{Value: false}},
		{Del{Key: "k"}, Flag{Value: true}},
		{Size{}, Count{Value: 42}},
		{Keys{}, TextList{Values: []string{"x", "y"}}},
		{Keys{}, TextList{Values: []string{}}},
		{Set{Key: "k", Value: "v"}, Acknowledged{}},
		{Flush{}, Acknowledged{}},
		{Get{Key: "k"}, Failure{Message: "get: failed"}},
	}

	for _, tt := range tests {
		data, err := EncodeResponse(tt.r)
		if err != nil {
			t.Fatalf("EncodeResponse(%#v): %v", tt.r, err)
		}
		got, err := DecodeResponse(tt.cmd, data)
		if err != nil {
			t.Fatalf("DecodeResponse(%s, %s): %v", tt.cmd.Name(), data, err)
		}
		if !reflect.DeepEqual(got, tt.r) {
			t.Errorf("round trip of %#v = %#v", tt.r, got)
		}
	}
}

func TestDecodeResponseRejectsWrongShape(t *testing.T) {
	tests := []struct {
		cmd  Command
		data string
	}{
		{Set{Key: "k", Value: "v"}, `"PONG"`},
		{Size{}, `-1`},
		{Exists{Key: "k"}, `"yes"`},
		{Keys{}, `{"keys":[]}`},
	}

	for _, tt := range tests {
		if r, err := DecodeResponse(tt.cmd, []byte(tt.data)); err == nil {
			t.Errorf("DecodeResponse(%s, %s) = %#v, want error", tt.cmd.Name(), tt.data, r)
		}
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		r    Response
		want string
	}{
		{TextValue{Value: "PONG"}, "PONG"},
		{OptionalText{Value: "Lucas", Found: true}, `"Lucas"`},
		{OptionalText{Value: `say "hi"`, Found: true}, `"say "hi""`},
		{OptionalText{}, "(nil)"},
		{Flag{Value: true}, "1"},
		{Flag{Value: false}, "0"},
		{Count{Value: 7}, "7"},
		{TextList{Values: []string{"a", "b"}}, "1) \"a\"\n2) \"b\""},
		{TextList{Values: []string{`{"x":1}`}}, `1) "{"x":1}"`},
		{TextList{}, "(empty array)"},
		{Acknowledged{}, "OK"},
		{Failure{Message: "boom"}, "Error: boom"},
	}

	for _, tt := range tests {
		if got := Render(tt.r); got != tt.want {
			t.Errorf("Render(%#v) = %q, want %q", tt.r, got, tt.want)
		}
	}
}
