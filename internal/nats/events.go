package nats

import "time"

// FetchTimeout is the default timeout for batch fetching messages from consumers.
const FetchTimeout = 2 * time.Second

// Stream names.
const (
	StreamMessages = "BAZA_MESSAGES"
	StreamEvents   = "BAZA_EVENTS"
)

// Subject constants.
const (
	SubjectInboundMessage  = "baza.messages.inbound"
	SubjectOutboundMessage = "baza.messages.outbound"
	SubjectUsageEvent      = "baza.events.usage"
)

// InboundMessage is published when an XMPP message arrives at the component.
type InboundMessage struct {
	ID         string    `json:"id"`
	FromJID    string    `json:"from_jid"`
	ToJID      string    `json:"to_jid"`
	Body       string    `json:"body"`
	VoiceURL   string    `json:"voice_url,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// OutboundMessage is one reply chunk queued for XMPP delivery. Markup
// signals that Body carries display markup; the relay falls back to
// stripped plain text if the markup send fails.
type OutboundMessage struct {
	ID        string `json:"id"`
	ToJID     string `json:"to_jid"`
	FromJID   string `json:"from_jid"`
	Body      string `json:"body"`
	Markup    bool   `json:"markup"`
	InReplyTo string `json:"in_reply_to,omitempty"`
}

// UsageEvent records one rate-limit decision for operational inspection.
type UsageEvent struct {
	UserJID    string    `json:"user_jid"`
	Date       string    `json:"date"`
	Count      int       `json:"count"`
	Limit      int       `json:"limit"`
	Admitted   bool      `json:"admitted"`
	Subscribed bool      `json:"subscribed"`
	Timestamp  time.Time `json:"timestamp"`
}
