// Package protocol defines the command/response model of minidis, its two
// textual encodings and the Dispatcher that executes commands against a
// kv.Store.
//
// The structured form is JSON:
//
//	{"command": "SET", "args": {"key": "k", "value": "v"}}
//
// and responses are bare JSON values ("OK", "v", null, true, 3, ["k"],
// {"error": "..."}). The line form is whitespace separated:
//
//	SET k v
//
// Values in the line form cannot contain whitespace; use the structured form
// for those.
package protocol
