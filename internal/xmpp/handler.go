package xmpp

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gosrc.io/xmpp"
	"gosrc.io/xmpp/stanza"

	"github.com/webdev-it/baza-ai/internal/metrics"
	inats "github.com/webdev-it/baza-ai/internal/nats"
	"github.com/webdev-it/baza-ai/internal/subscribers"
)

// Handler bridges incoming XMPP stanzas to NATS and keeps the subscriber
// registry in sync with presence subscriptions.
type Handler struct {
	publisher *inats.Publisher
	subs      *subscribers.Repository
}

// NewHandler creates a new XMPP stanza handler.
func NewHandler(publisher *inats.Publisher, subs *subscribers.Repository) *Handler {
	return &Handler{publisher: publisher, subs: subs}
}

// HandleMessage publishes incoming <message> stanzas to NATS. Voice notes
// arrive as XEP-0066 out-of-band URLs and are forwarded alongside the body.
func (h *Handler) HandleMessage(s xmpp.Sender, p stanza.Packet) {
	msg, ok := p.(stanza.Message)
	if !ok {
		return
	}

	var oob stanza.OOB
	voiceURL := ""
	if msg.Get(&oob) && oob.URL != "" {
		voiceURL = oob.URL
	}

	if msg.Body == "" && voiceURL == "" {
		return
	}

	slog.Debug("XMPP message received",
		"from", msg.From,
		"to", msg.To,
		"voice", voiceURL != "",
	)

	inbound := inats.InboundMessage{
		ID:         uuid.New().String(),
		FromJID:    BareJID(msg.From),
		ToJID:      msg.To,
		Body:       msg.Body,
		VoiceURL:   voiceURL,
		ReceivedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := h.publisher.PublishInboundMessage(ctx, inbound); err != nil {
		slog.Error("publishing inbound message", "error", err, "from", msg.From)
		h.sendError(s, msg.From, msg.To, "Internal error processing your message")
		return
	}

	if voiceURL != "" {
		metrics.MessagesReceived.WithLabelValues("voice").Inc()
	} else {
		metrics.MessagesReceived.WithLabelValues("text").Inc()
	}
}

// HandlePresence auto-approves subscribe requests and mirrors the
// subscription state into the subscriber registry the rate limiter reads.
func (h *Handler) HandlePresence(s xmpp.Sender, p stanza.Packet) {
	pres, ok := p.(stanza.Presence)
	if !ok {
		return
	}

	slog.Debug("XMPP presence received",
		"from", pres.From,
		"to", pres.To,
		"type", string(pres.Type),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch string(pres.Type) {
	case "subscribe":
		reply := stanza.Presence{
			Attrs: stanza.Attrs{
				From: pres.To,
				To:   pres.From,
				Type: "subscribed",
			},
		}
		if err := s.Send(reply); err != nil {
			slog.Error("sending presence subscribed reply", "error", err)
		}
		if err := h.subs.Add(ctx, BareJID(pres.From)); err != nil {
			slog.Error("recording subscriber", "error", err, "jid", pres.From)
		}
	case "unsubscribe", "unsubscribed":
		if err := h.subs.Remove(ctx, BareJID(pres.From)); err != nil {
			slog.Error("removing subscriber", "error", err, "jid", pres.From)
		}
	}
}

// HandleIQ processes incoming <iq> stanzas.
func (h *Handler) HandleIQ(_ xmpp.Sender, p stanza.Packet) {
	iq, ok := p.(*stanza.IQ)
	if !ok {
		return
	}
	slog.Debug("XMPP IQ received", "from", iq.From, "to", iq.To, "type", string(iq.Type))
}

func (h *Handler) sendError(s xmpp.Sender, to, from, body string) {
	msg := stanza.Message{
		Attrs: stanza.Attrs{
			From: from,
			To:   to,
			Type: "chat",
		},
		Body: body,
	}
	if err := s.Send(msg); err != nil {
		slog.Error("sending error message", "error", err)
	}
}

// BareJID strips the resource part from a JID.
func BareJID(jid string) string {
	if idx := strings.Index(jid, "/"); idx >= 0 {
		return jid[:idx]
	}
	return jid
}
