package event

// Event is the canonical form of one inbound user message after extraction
// from a provider payload.
type Event struct {
	Text     string
	SenderID string
	GroupID  string // empty outside group conversations
	EventID  string
	// SyntheticID marks an event id synthesized from sender and timestamp
	// because the provider omitted one. Synthesized ids are weaker: clock
	// coarseness can collide them, so they carry no dedup guarantee.
	SyntheticID bool
}

// Ignore reasons, consumed by logs and metrics only.
const (
	ReasonStatusUpdate = "status_update"
	ReasonSelfEcho     = "self_echo"
	ReasonOwnIdentity  = "own_identity"
	ReasonNoSender     = "no_sender"
)

// IgnoredError reports a payload that is deliberately not processed, such as
// a delivery receipt or the bot's own outgoing echo.
type IgnoredError struct {
	Reason string
}

func (e *IgnoredError) Error() string {
	return "event ignored: " + e.Reason
}
