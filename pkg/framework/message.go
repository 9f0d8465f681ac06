package framework

import "github.com/chazu/boruna/pkg/bytecode"

// Message is delivered to update(): a tagged union of (tag, payload),
// encoded on the wire as a Record{tag_string, payload}.
type Message struct {
	Tag     string
	Payload bytecode.Value
}

// NewMessage constructs a Message.
func NewMessage(tag string, payload bytecode.Value) Message {
	return Message{Tag: tag, Payload: payload}
}

// ToValue converts m into the Record shape update() expects as its
// second argument.
func (m Message) ToValue() bytecode.Value {
	return bytecode.Record(0, []bytecode.Value{bytecode.Str(m.Tag), m.Payload})
}

// CycleRecord is one logged init/update/view cycle, kept for replay and
// the state-machine's rewind/diff inspection.
type CycleRecord struct {
	Cycle       uint64
	Message     Message
	StateBefore bytecode.Value
	StateAfter  bytecode.Value
	Effects     []Effect
	UITree      bytecode.Value
	HasUITree   bool
}
