package protocol

// Command is a parsed, validated request to perform one store operation.
// The set of implementations is closed.
type Command interface {
	// Name returns the canonical upper-case command name.
	Name() string
	isCommand()
}

// Get fetches the value of Key.
type Get struct{ Key string }

// Set stores Value under Key.
type Set struct {
	Key   string
	Value string
}

// Del removes Key.
type Del struct{ Key string }

// Exists reports whether Key is present.
type Exists struct{ Key string }

// Keys lists every key.
type Keys struct{}

// Flush removes every key.
type Flush struct{}

// Size counts the keys.
type Size struct{}

// Ping checks liveness.
type Ping struct{}

func (Get) Name() string    { return "GET" }
func (Set) Name() string    { return "SET" }
func (Del) Name() string    { return "DEL" }
func (Exists) Name() string { return "EXISTS" }
func (Keys) Name() string   { return "KEYS" }
func (Flush) Name() string  { return "FLUSH" }
func (Size) Name() string   { return "SIZE" }
func (Ping) Name() string   { return "PING" }

func (Get) isCommand()    {}
func (Set) isCommand()    {}
func (Del) isCommand()    {}
func (Exists) isCommand() {}
func (Keys) isCommand()   {}
func (Flush) isCommand()  {}
func (Size) isCommand()   {}
func (Ping) isCommand()   {}
