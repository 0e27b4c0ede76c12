// Package repl implements the interactive minidis shell.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/heysubinoy/minidis/internal/protocol"
)

const (
	// Prompt is printed before reading each line.
	Prompt = "minidis> "

	maxLineSize = 1 << 20
)

// Run reads commands from in, one per line, until end of input or an explicit
// quit/exit, and writes rendered responses to out.
func Run(exec protocol.Executor, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Welcome to minidis. Type 'help' for available commands or 'quit' to exit.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	for {
		fmt.Fprint(out, Prompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
			continue
		case strings.EqualFold(input, "quit"), strings.EqualFold(input, "exit"):
			fmt.Fprintln(out, "Goodbye!")
			return nil
		case strings.EqualFold(input, "help"):
			PrintHelp(out)
			continue
		}

		fmt.Fprintln(out, protocol.Render(Eval(exec, input)))
	}

	fmt.Fprintln(out)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// Eval parses one line of input and executes it. Lines starting with '{' are
// decoded as structured commands, anything else as the line form. Parse errors
// are returned as Failure.
func Eval(exec protocol.Executor, input string) protocol.Response {
	var (
		cmd protocol.Command
		err error
	)
	if strings.HasPrefix(input, "{") {
		cmd, err = protocol.DecodeCommand([]byte(input))
	} else {
		cmd, err = protocol.ParseLine(input)
	}
	if err != nil {
		return protocol.FailureFrom(err)
	}
	return exec.Execute(cmd)
}

// PrintHelp writes the list of supported commands.
func PrintHelp(out io.Writer) {
	fmt.Fprint(out, `Available commands:
  GET <key>           - Get value by key
  SET <key> <value>   - Set key-value pair (value cannot contain spaces)
  DEL <key>           - Delete key
  EXISTS <key>        - Check if key exists
  KEYS                - List all keys
  FLUSH               - Clear all data
  SIZE                - Get number of keys
  PING                - Test connection
  help                - Show this help
  quit/exit           - Exit the shell

JSON commands are accepted too:
  {"command": "SET", "args": {"key": "greeting", "value": "hello world"}}
`)
}
