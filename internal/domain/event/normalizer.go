package event

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field-priority lists for the heterogeneous payload shapes the inbound
// providers deliver. Extraction is declarative: for each concern the first
// non-empty field in its list wins.
var (
	textFields   = []string{"message", "body", "text", "caption"}
	senderFields = []string{"from", "sender", "author", "participant"}
	groupFields  = []string{"group_id", "chat_id", "conversation_id"}
	idFields     = []string{"id", "message_id", "msg_id"}
)

var statusEventTypes = map[string]bool{
	"status":   true,
	"receipt":  true,
	"read":     true,
	"delivery": true,
	"ack":      true,
}

// Normalizer extracts canonical events from raw inbound payloads and filters
// out non-user events.
type Normalizer struct {
	botID string
	now   func() time.Time
}

func NewNormalizer(botID string) *Normalizer {
	return &Normalizer{botID: botID, now: time.Now}
}

// Normalize classifies the payload and extracts text, sender, optional group
// and a stable event id. Non-user events come back as *IgnoredError.
func (n *Normalizer) Normalize(payload map[string]any) (*Event, error) {
	if t := firstString(payload, "type", "event", "event_type"); t != "" && statusEventTypes[strings.ToLower(t)] {
		return nil, &IgnoredError{Reason: ReasonStatusUpdate}
	}
	if firstBool(payload, "from_me", "fromMe", "is_echo") {
		return nil, &IgnoredError{Reason: ReasonSelfEcho}
	}
	// Some providers wrap routing metadata in a nested "key" envelope.
	key, _ := payload["key"].(map[string]any)
	if key != nil && firstBool(key, "fromMe", "from_me") {
		return nil, &IgnoredError{Reason: ReasonSelfEcho}
	}

	text := firstString(payload, textFields...)
	if text == "" {
		if msg, ok := payload["message"].(map[string]any); ok {
			text = firstString(msg, "text", "body", "conversation")
		}
	}
	text = strings.ToLower(strings.TrimSpace(text))

	sender := firstString(payload, senderFields...)
	if sender == "" {
		for _, f := range senderFields {
			if obj, ok := payload[f].(map[string]any); ok {
				sender = firstString(obj, "id", "user_id", "phone")
				if sender != "" {
					break
				}
			}
		}
	}
	if sender == "" && key != nil {
		sender = firstString(key, "remoteJid", "remote_jid")
	}
	if sender == "" {
		return nil, &IgnoredError{Reason: ReasonNoSender}
	}
	if n.botID != "" && sender == n.botID {
		return nil, &IgnoredError{Reason: ReasonOwnIdentity}
	}

	groupID := firstString(payload, groupFields...)

	eventID := firstString(payload, idFields...)
	if eventID == "" && key != nil {
		eventID = firstString(key, "id")
	}
	synthetic := false
	if eventID == "" {
		ts := firstString(payload, "timestamp", "t")
		if ts == "" {
			ts = strconv.FormatInt(n.now().Unix(), 10)
		}
		eventID = sender + "|" + ts
		synthetic = true
	}

	return &Event{
		Text:        text,
		SenderID:    sender,
		GroupID:     groupID,
		EventID:     eventID,
		SyntheticID: synthetic,
	}, nil
}

// firstString returns the first non-empty value among the named fields,
// stringifying scalar JSON values.
func firstString(m map[string]any, fields ...string) string {
	for _, f := range fields {
		if s := stringValue(m[f]); s != "" {
			return s
		}
	}
	return ""
}

func firstBool(m map[string]any, fields ...string) bool {
	for _, f := range fields {
		switch v := m[f].(type) {
		case bool:
			if v {
				return true
			}
		case string:
			if strings.EqualFold(v, "true") {
				return true
			}
		}
	}
	return false
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// JSON numbers decode as float64; ids and timestamps are integral.
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	default:
		return ""
	}
}
