package xmpp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"
	"gosrc.io/xmpp"
	"gosrc.io/xmpp/stanza"

	"github.com/webdev-it/baza-ai/internal/metrics"
	inats "github.com/webdev-it/baza-ai/internal/nats"
	"github.com/webdev-it/baza-ai/internal/render"
)

// OutboundRelay consumes reply chunks from NATS and delivers them via XMPP.
type OutboundRelay struct {
	sender      xmpp.Sender
	consumerMgr *inats.ConsumerManager
}

// NewOutboundRelay creates a new OutboundRelay.
func NewOutboundRelay(sender xmpp.Sender, consumerMgr *inats.ConsumerManager) *OutboundRelay {
	return &OutboundRelay{
		sender:      sender,
		consumerMgr: consumerMgr,
	}
}

// Start begins consuming outbound chunks and sending them via XMPP.
func (r *OutboundRelay) Start(ctx context.Context) error {
	consumer, err := r.consumerMgr.EnsureConsumer(ctx, inats.StreamMessages, "outbound-relay", inats.SubjectOutboundMessage)
	if err != nil {
		return err
	}

	slog.Info("outbound relay started", "consumer", "outbound-relay")

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("fetching outbound messages", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			var outbound inats.OutboundMessage
			if err := json.Unmarshal(msg.Data(), &outbound); err != nil {
				slog.Error("unmarshaling outbound message", "error", err)
				_ = msg.Nak()
				continue
			}

			if err := r.Deliver(outbound); err != nil {
				slog.Error("delivering outbound XMPP message", "error", err, "to", outbound.ToJID)
				_ = msg.Nak()
				continue
			}

			slog.Debug("delivered outbound XMPP message", "to", outbound.ToJID)
			_ = msg.Ack()
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

// Deliver sends one chunk. A chunk with markup goes out with an XHTML-IM
// payload next to the stripped plain body; if that send fails, the chunk is
// retried once as plain text so the reply is never silently dropped. Only a
// failed plain retry surfaces as an error.
func (r *OutboundRelay) Deliver(outbound inats.OutboundMessage) error {
	if !outbound.Markup {
		return r.send(outbound, outbound.Body, false)
	}

	if err := r.send(outbound, outbound.Body, true); err != nil {
		slog.Warn("markup delivery failed, retrying as plain text", "error", err, "to", outbound.ToJID)
		metrics.DeliveryFallbacks.Inc()
		return r.send(outbound, outbound.Body, false)
	}
	return nil
}

func (r *OutboundRelay) send(outbound inats.OutboundMessage, body string, markup bool) error {
	msg := stanza.Message{
		Attrs: stanza.Attrs{
			From: outbound.FromJID,
			To:   outbound.ToJID,
			Type: "chat",
			Id:   outbound.ID,
		},
		Body: render.StripTags(body),
	}

	if markup {
		msg.Extensions = append(msg.Extensions, stanza.HTML{
			Body: stanza.HTMLBody{
				InnerXML: body,
			},
		})
	}

	if err := r.sender.Send(msg); err != nil {
		return err
	}
	metrics.ChunksDelivered.WithLabelValues(deliveryLabel(markup)).Inc()
	return nil
}

func deliveryLabel(markup bool) string {
	if markup {
		return "markup"
	}
	return "plain"
}
