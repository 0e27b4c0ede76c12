package protocol

import "strings"

// ParseLine parses the whitespace separated line form, e.g. "SET key value".
func ParseLine(line string) (Command, error) {
	return ParseArgs(strings.Fields(line))
}

// ParseArgs parses an already tokenized command. The first token selects the
// command case-insensitively, the rest are positional arguments.
func ParseArgs(parts []string) (Command, error) {
	if len(parts) == 0 {
		return nil, malformed("empty command")
	}

	args := parts[1:]
	switch strings.ToUpper(parts[0]) {
	case "GET":
		if len(args) != 1 {
			return nil, malformed("GET requires exactly one argument: GET <key>")
		}
		return Get{Key: args[0]}, nil
	case "SET":
		if len(args) != 2 {
			return nil, malformed("SET requires exactly two arguments: SET <key> <value>")
		}
		return Set{Key: args[0], Value: args[1]}, nil
	case "DEL", "DELETE":
		if len(args) != 1 {
			return nil, malformed("DEL requires exactly one argument: DEL <key>")
		}
		return Del{Key: args[0]}, nil
	case "EXISTS":
		if len(args) != 1 {
			return nil, malformed("EXISTS requires exactly one argument: EXISTS <key>")
		}
		return Exists{Key: args[0]}, nil
	case "KEYS":
		return noArgs(Keys{}, args)
	case "FLUSH", "FLUSHALL":
		return noArgs(Flush{}, args)
	case "SIZE", "DBSIZE":
		return noArgs(Size{}, args)
	case "PING":
		return noArgs(Ping{}, args)
	default:
		return nil, malformed("unknown command '%s'", parts[0])
	}
}

func noArgs(cmd Command, args []string) (Command, error) {
	if len(args) != 0 {
		return nil, malformed("%s takes no arguments", cmd.Name())
	}
	return cmd, nil
}
