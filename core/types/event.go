package types

// Event represents a typed event emitted during state transitions. Attributes
// carry the post-change values needed for off-chain reconstruction of round,
// order, and parameter history.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Attribute returns the named attribute or the empty string when unset.
func (e *Event) Attribute(key string) string {
	if e == nil || e.Attributes == nil {
		return ""
	}
	return e.Attributes[key]
}
