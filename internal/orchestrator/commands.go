package orchestrator

import (
	"context"
	"fmt"
	"strings"

	inats "github.com/webdev-it/baza-ai/internal/nats"
	"github.com/webdev-it/baza-ai/internal/quota"
)

const (
	noticeTooFast = "You are sending messages too fast. Please wait a minute and try again."

	noticeInternalError = "Something went wrong while processing your message. Please try again later."

	noticeSpeechUnrecognized = "I could not recognize any speech in that voice note. Please try again or send a text message."

	noticeUpstreamBusy = "The AI service is overloaded right now. Please try again in a few minutes."

	noticeHistoryCleared = "Conversation history cleared. Let's start fresh!"

	noticeUnknownCommand = "I don't know that command. Try /help."
)

type command int

const (
	cmdStart command = iota
	cmdHelp
	cmdReset
)

// parseCommand recognizes known slash commands.
func parseCommand(body string) (command, bool) {
	switch strings.TrimSpace(body) {
	case "/start":
		return cmdStart, true
	case "/help":
		return cmdHelp, true
	case "/reset":
		return cmdReset, true
	}
	return 0, false
}

// isUnknownCommand reports whether body looks like a slash command that
// parseCommand did not recognize.
func isUnknownCommand(body string) bool {
	return strings.HasPrefix(strings.TrimSpace(body), "/")
}

// gated reports whether the command counts against the daily quota.
func (c command) gated() bool {
	return c == cmdReset
}

func (o *Orchestrator) commandNotice(c command) string {
	switch c {
	case cmdStart:
		return fmt.Sprintf(
			"Hi! I am Baza, an AI assistant. Send me a text or voice message and I will answer.\n\n"+
				"You have %d messages per day; subscribers of %s get %d.\n\n"+
				"Commands:\n/help show usage\n/reset forget our conversation",
			o.cfg.DailyUnsubscribed, o.cfg.ChannelJID, o.cfg.DailySubscribed)
	case cmdHelp:
		return fmt.Sprintf(
			"Send me any question as text or a voice note.\n\n"+
				"/reset clears the conversation history.\n"+
				"Subscribe to %s to raise your daily limit from %d to %d messages.",
			o.cfg.ChannelJID, o.cfg.DailyUnsubscribed, o.cfg.DailySubscribed)
	default:
		return ""
	}
}

func (o *Orchestrator) runCommand(ctx context.Context, inbound inats.InboundMessage, cmd command) {
	switch cmd {
	case cmdReset:
		o.hist.Reset(inbound.FromJID)
		o.reply(ctx, inbound, noticeHistoryCleared, false)
	default:
		o.reply(ctx, inbound, o.commandNotice(cmd), false)
	}
}

// quotaNotice explains a daily quota rejection. Unsubscribed users are
// pointed at the channel subscription that raises their limit.
func (o *Orchestrator) quotaNotice(d quota.Decision) string {
	msg := fmt.Sprintf("You have reached your daily limit of %d messages. The limit resets at midnight UTC.", d.Limit)
	if !d.Subscribed {
		msg += fmt.Sprintf(" Subscribe to %s to get a higher daily limit.", o.cfg.ChannelJID)
	}
	return msg
}
