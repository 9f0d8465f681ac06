package bytecode

// Capability is a named permission to perform a side effect. Both the
// small stable integer id and the dotted name are part of the wire
// format; the built-in set is fixed (spec §6) and a policy may only
// allow or deny members of it, never add new ones.
//
// Ported verbatim from original_source's llmbc/src/capability.rs.
type Capability uint32

const (
	CapNetFetch Capability = iota
	CapDbQuery
	CapFsRead
	CapFsWrite
	CapTimeNow
	CapRandom
	CapUiRender
	CapLlmCall
	CapActorSpawn
	CapActorSend
)

var capabilityNames = map[Capability]string{
	CapNetFetch:   "net.fetch",
	CapFsRead:     "fs.read",
	CapFsWrite:    "fs.write",
	CapDbQuery:    "db.query",
	CapUiRender:   "ui.render",
	CapTimeNow:    "time.now",
	CapRandom:     "random",
	CapLlmCall:    "llm.call",
	CapActorSpawn: "actor.spawn",
	CapActorSend:  "actor.send",
}

var capabilityByName map[string]Capability

func init() {
	capabilityByName = make(map[string]Capability, len(capabilityNames))
	for id, name := range capabilityNames {
		capabilityByName[name] = id
	}
	// Aliases accepted on the way in (from_name in the Rust original).
	capabilityByName["net"] = CapNetFetch
	capabilityByName["db"] = CapDbQuery
	capabilityByName["ui"] = CapUiRender
	capabilityByName["time"] = CapTimeNow
	capabilityByName["llm"] = CapLlmCall
	capabilityByName["actor_spawn"] = CapActorSpawn
	capabilityByName["actor_send"] = CapActorSend
}

// Name returns the capability's stable dotted name.
func (c Capability) Name() string {
	if n, ok := capabilityNames[c]; ok {
		return n
	}
	return "unknown"
}

func (c Capability) String() string { return c.Name() }

// CapabilityFromID looks up a capability by its stable integer id.
func CapabilityFromID(id uint32) (Capability, bool) {
	c := Capability(id)
	_, ok := capabilityNames[c]
	return c, ok
}

// CapabilityFromName looks up a capability by its dotted name (or a
// known alias).
func CapabilityFromName(name string) (Capability, bool) {
	c, ok := capabilityByName[name]
	return c, ok
}

// AllCapabilities returns every built-in capability, id-ascending.
func AllCapabilities() []Capability {
	return []Capability{
		CapNetFetch, CapDbQuery, CapFsRead, CapFsWrite, CapTimeNow,
		CapRandom, CapUiRender, CapLlmCall, CapActorSpawn, CapActorSend,
	}
}
