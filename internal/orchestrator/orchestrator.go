package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/webdev-it/baza-ai/internal/gemini"
	"github.com/webdev-it/baza-ai/internal/history"
	"github.com/webdev-it/baza-ai/internal/metrics"
	inats "github.com/webdev-it/baza-ai/internal/nats"
	"github.com/webdev-it/baza-ai/internal/quota"
	"github.com/webdev-it/baza-ai/internal/render"
	"github.com/webdev-it/baza-ai/internal/speech"
)

// Backend produces a model reply for a conversation plus the new prompt.
type Backend interface {
	Generate(ctx context.Context, turns []history.Turn) (string, error)
}

// Transcriber turns a voice note URL into text.
type Transcriber interface {
	FetchAndTranscribe(ctx context.Context, url string) (string, error)
}

// Publisher is the subset of the NATS publisher the orchestrator uses.
type Publisher interface {
	PublishOutboundMessage(ctx context.Context, msg inats.OutboundMessage) error
	PublishUsageEvent(ctx context.Context, event inats.UsageEvent) error
}

// DailyLimiter admits or rejects a request against the per-day quota.
type DailyLimiter interface {
	CheckAndConsume(ctx context.Context, userJID string, now time.Time) (quota.Decision, error)
}

// BurstLimiter guards against per-minute floods ahead of the daily quota.
type BurstLimiter interface {
	CheckAndIncrement(ctx context.Context, userJID string, maxPerMinute int) (bool, error)
}

// Config carries the orchestrator tunables.
type Config struct {
	BotJID            string
	ChannelJID        string
	ChunkSize         int
	BurstPerMinute    int
	MaxConcurrent     int
	DailyUnsubscribed int
	DailySubscribed   int
}

// Orchestrator consumes inbound messages, enforces quotas, calls the
// generation backend with the conversation history, and publishes the
// rendered reply chunks.
type Orchestrator struct {
	publisher   Publisher
	consumerMgr *inats.ConsumerManager
	daily       DailyLimiter
	burst       BurstLimiter
	hist        *history.Store
	backend     Backend
	transcriber Transcriber
	cfg         Config

	wg sync.WaitGroup
	// slots bounds the number of messages processed concurrently.
	slots chan struct{}
}

// New creates a new Orchestrator.
func New(
	publisher Publisher,
	consumerMgr *inats.ConsumerManager,
	daily DailyLimiter,
	burst BurstLimiter,
	hist *history.Store,
	backend Backend,
	transcriber Transcriber,
	cfg Config,
) *Orchestrator {
	return &Orchestrator{
		publisher:   publisher,
		consumerMgr: consumerMgr,
		daily:       daily,
		burst:       burst,
		hist:        hist,
		backend:     backend,
		transcriber: transcriber,
		cfg:         cfg,
		slots:       make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Start begins the orchestrator event loop. It returns after ctx is
// cancelled and all in-flight messages have finished.
func (o *Orchestrator) Start(ctx context.Context) error {
	consumer, err := o.consumerMgr.EnsureConsumer(ctx, inats.StreamMessages, "orchestrator", inats.SubjectInboundMessage)
	if err != nil {
		return err
	}

	slog.Info("orchestrator started", "consumer", "orchestrator", "max_concurrent", o.cfg.MaxConcurrent)

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Debug("fetching inbound messages", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			o.slots <- struct{}{}
			o.wg.Add(1)
			go func(msg jetstream.Msg) {
				defer o.wg.Done()
				defer func() { <-o.slots }()
				o.processMessage(ctx, msg)
			}(msg)
		}

		if ctx.Err() != nil {
			break
		}
	}

	o.wg.Wait()
	return nil
}

func (o *Orchestrator) processMessage(ctx context.Context, msg jetstream.Msg) {
	var inbound inats.InboundMessage
	if err := json.Unmarshal(msg.Data(), &inbound); err != nil {
		slog.Error("unmarshaling inbound message", "error", err)
		_ = msg.Nak()
		return
	}

	o.Handle(ctx, inbound)
	_ = msg.Ack()
}

// Handle runs one inbound message through the full pipeline. All failure
// modes end with a notice to the user rather than silence.
func (o *Orchestrator) Handle(ctx context.Context, inbound inats.InboundMessage) {
	user := inbound.FromJID

	slog.Debug("processing message", "id", inbound.ID, "from", user, "voice", inbound.VoiceURL != "")

	ok, err := o.burst.CheckAndIncrement(ctx, user, o.cfg.BurstPerMinute)
	if err != nil {
		// The burst limiter is advisory. When Redis is down requests
		// pass through to the authoritative daily quota.
		slog.Warn("burst limiter unavailable", "error", err, "user", user)
	} else if !ok {
		metrics.BurstRejections.Inc()
		o.reply(ctx, inbound, noticeTooFast, false)
		return
	}

	if cmd, ok := parseCommand(inbound.Body); ok && !cmd.gated() {
		o.reply(ctx, inbound, o.commandNotice(cmd), false)
		return
	}

	decision, err := o.daily.CheckAndConsume(ctx, user, time.Now().UTC())
	if err != nil {
		slog.Error("consuming daily quota", "error", err, "user", user)
		o.reply(ctx, inbound, noticeInternalError, false)
		return
	}

	o.publishUsage(ctx, user, decision)

	if !decision.Admitted {
		metrics.QuotaDecisions.WithLabelValues(tierLabel(decision.Subscribed), "rejected").Inc()
		o.reply(ctx, inbound, o.quotaNotice(decision), false)
		return
	}
	metrics.QuotaDecisions.WithLabelValues(tierLabel(decision.Subscribed), "admitted").Inc()

	if cmd, ok := parseCommand(inbound.Body); ok {
		o.runCommand(ctx, inbound, cmd)
		return
	}
	if isUnknownCommand(inbound.Body) {
		o.reply(ctx, inbound, noticeUnknownCommand, false)
		return
	}

	prompt := inbound.Body
	if inbound.VoiceURL != "" {
		prompt, err = o.transcribe(ctx, inbound)
		if err != nil {
			return
		}
	}

	o.generate(ctx, inbound, prompt)
}

// transcribe resolves a voice note to a text prompt. On failure it notifies
// the user and returns a non-nil error so the caller stops the pipeline.
func (o *Orchestrator) transcribe(ctx context.Context, inbound inats.InboundMessage) (string, error) {
	text, err := o.transcriber.FetchAndTranscribe(ctx, inbound.VoiceURL)
	if err != nil {
		if errors.Is(err, speech.ErrUnrecognized) {
			metrics.Transcriptions.WithLabelValues("unrecognized").Inc()
			o.reply(ctx, inbound, noticeSpeechUnrecognized, false)
		} else {
			slog.Error("transcribing voice note", "error", err, "user", inbound.FromJID)
			metrics.Transcriptions.WithLabelValues("error").Inc()
			o.reply(ctx, inbound, noticeInternalError, false)
		}
		return "", err
	}
	metrics.Transcriptions.WithLabelValues("ok").Inc()
	return text, nil
}

func (o *Orchestrator) generate(ctx context.Context, inbound inats.InboundMessage, prompt string) {
	turns := append(o.hist.History(inbound.FromJID), history.Turn{Role: history.RoleUser, Content: prompt})

	start := time.Now()
	answer, err := o.backend.Generate(ctx, turns)
	metrics.BackendLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.BackendRequests.WithLabelValues(backendStatus(err)).Inc()
		slog.Error("generation backend call failed", "error", err, "user", inbound.FromJID)
		if errors.Is(err, gemini.ErrQuotaExceeded) {
			o.reply(ctx, inbound, noticeUpstreamBusy, false)
		} else {
			o.reply(ctx, inbound, noticeInternalError, false)
		}
		return
	}
	metrics.BackendRequests.WithLabelValues("ok").Inc()

	// The exchange is recorded only after the backend succeeded, so a
	// failed request never leaves a dangling user turn in the history.
	o.hist.AppendExchange(inbound.FromJID, prompt, answer)

	o.reply(ctx, inbound, render.MarkdownToXHTML(answer), true)
}

// reply renders body into chunks and publishes them in order.
func (o *Orchestrator) reply(ctx context.Context, inbound inats.InboundMessage, body string, markup bool) {
	for _, chunk := range render.Split(body, o.cfg.ChunkSize) {
		outbound := inats.OutboundMessage{
			ID:        uuid.New().String(),
			ToJID:     inbound.FromJID,
			FromJID:   o.cfg.BotJID,
			Body:      chunk,
			Markup:    markup,
			InReplyTo: inbound.ID,
		}
		if err := o.publisher.PublishOutboundMessage(ctx, outbound); err != nil {
			slog.Error("publishing outbound message", "error", err, "user", inbound.FromJID)
			return
		}
	}
}

func (o *Orchestrator) publishUsage(ctx context.Context, user string, decision quota.Decision) {
	event := inats.UsageEvent{
		UserJID:    user,
		Date:       quota.DateKey(time.Now().UTC()),
		Count:      decision.Count,
		Limit:      decision.Limit,
		Admitted:   decision.Admitted,
		Subscribed: decision.Subscribed,
		Timestamp:  time.Now().UTC(),
	}
	if err := o.publisher.PublishUsageEvent(ctx, event); err != nil {
		slog.Debug("publishing usage event", "error", err, "user", user)
	}
}

func tierLabel(subscribed bool) string {
	if subscribed {
		return "subscribed"
	}
	return "unsubscribed"
}

func backendStatus(err error) string {
	if errors.Is(err, gemini.ErrQuotaExceeded) {
		return "quota_exceeded"
	}
	return "error"
}
