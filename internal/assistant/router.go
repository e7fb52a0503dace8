package assistant

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/secondbrain/internal/logging"
	"github.com/fyrsmithlabs/secondbrain/internal/notion"
	"github.com/fyrsmithlabs/secondbrain/internal/slack"
)

// HandleEvent routes one verified platform event. It returns immediately;
// all real work runs as a detached continuation so the platform gets its
// acknowledgement without waiting on store or classifier calls.
//
// Precedence: reaction, ignored (bot or non-share subtype), threaded
// reply, voice note, fresh inbox message.
func (a *Assistant) HandleEvent(ctx context.Context, env *slack.Envelope) {
	ev := env.Event
	if ev == nil {
		return
	}

	if ev.Type == "reaction_added" {
		if a.dedupe.Seen(env.DedupeID()) {
			return
		}
		a.dispatchReaction(ctx, ev)
		return
	}

	// Bot echoes and message edits are not captures. file_share stays:
	// that is how voice notes arrive.
	if ev.BotID != "" {
		return
	}
	if ev.Subtype != "" && ev.Subtype != "file_share" {
		return
	}
	if a.dedupe.Seen(env.DedupeID()) {
		a.logger.Debug(ctx, "duplicate event suppressed", zap.String("dedupe_id", env.DedupeID()))
		return
	}

	switch {
	case ev.ThreadTS != "":
		a.dispatchThreadReply(ctx, ev)
	case a.isVoiceCapture(ev):
		a.dispatchVoice(ctx, ev)
	case ev.Type == "message" && ev.Channel == a.inboxChannel:
		text, channel, ts := ev.Text, ev.Channel, ev.TS
		a.run(ctx, "capture", channel, ts, func(ctx context.Context) error {
			return a.handleCapture(ctx, text, ts, channel)
		})
	default:
		a.logger.Debug(ctx, "event ignored",
			zap.String("type", ev.Type), zap.String("channel", ev.Channel))
	}
}

func (a *Assistant) isVoiceCapture(ev *slack.Event) bool {
	if ev.Type != "message" {
		return false
	}
	_, ok := ev.VoiceFile()
	return ok
}

// dispatchThreadReply routes a reply inside an existing conversation
// thread: backfill conversations first, then fix commands, then update
// confirmations.
func (a *Assistant) dispatchThreadReply(ctx context.Context, ev *slack.Event) {
	text, channel, threadKey := ev.Text, ev.Channel, ev.ThreadTS
	a.run(ctx, "thread_reply", channel, threadKey, func(ctx context.Context) error {
		entry, err := a.log.FindByThreadKey(ctx, threadKey)
		if err != nil && !errors.Is(err, notion.ErrNotFound) {
			return err
		}
		if entry != nil && entry.Status.Backfill() {
			return a.handleBackfillReply(ctx, entry, text, channel)
		}
		if fixRe.MatchString(text) {
			return a.handleFix(ctx, entry, text, threadKey, channel)
		}
		return a.handleUpdateReply(ctx, entry, text, threadKey, channel)
	})
}

// dispatchVoice downloads the audio attachment, transcribes it, and runs
// the transcript through the normal capture flow anchored at the voice
// message's ts.
func (a *Assistant) dispatchVoice(ctx context.Context, ev *slack.Event) {
	file, _ := ev.VoiceFile()
	channel, ts := ev.Channel, ev.TS
	a.run(ctx, "voice_capture", channel, ts, func(ctx context.Context) error {
		audio, err := a.messenger.DownloadFile(ctx, file.URLPrivate)
		if err != nil {
			return err
		}
		defer audio.Close()

		transcript, err := a.classifier.Transcribe(ctx, audio, file.Name)
		if err != nil {
			return err
		}
		if strings.TrimSpace(transcript) == "" {
			return a.messenger.PostReply(ctx, channel, ts, "I couldn't hear anything in that voice note.")
		}
		return a.handleCapture(ctx, transcript, ts, channel)
	})
}

// dispatchReaction resolves an emoji reaction to a yes/no reply against
// whatever conversation is pending on the reacted message.
func (a *Assistant) dispatchReaction(ctx context.Context, ev *slack.Event) {
	if ev.Item == nil {
		return
	}
	sentiment, ok := reactionSentiment(ev.Reaction)
	if !ok {
		return
	}
	channel, threadKey := ev.Item.Channel, ev.Item.TS
	a.run(ctx, "reaction", channel, threadKey, func(ctx context.Context) error {
		entry, err := a.log.FindByThreadKey(ctx, threadKey)
		if errors.Is(err, notion.ErrNotFound) {
			return nil // reaction on an untracked message
		}
		if err != nil {
			return err
		}
		switch {
		case entry.Status.Backfill():
			return a.handleBackfillReply(ctx, entry, sentiment, channel)
		case entry.Status == notion.StatusPendingUpdate:
			return a.handleUpdateReply(ctx, entry, sentiment, threadKey, channel)
		default:
			a.logger.Debug(ctx, "reaction on settled conversation",
				zap.String("status", string(entry.Status)))
			return nil
		}
	})
}

// reactionSentiment maps an emoji name to a yes/no reply.
func reactionSentiment(name string) (string, bool) {
	switch name {
	case "white_check_mark", "heavy_check_mark", "ballot_box_with_check", "+1", "thumbsup":
		return "yes", true
	case "x", "no_entry", "no_entry_sign", "-1", "thumbsdown":
		return "no", true
	}
	return "", false
}

// run submits a continuation with logging context and a best-effort
// apologetic reply on failure.
func (a *Assistant) run(ctx context.Context, name, channel, threadKey string, fn func(ctx context.Context) error) {
	requestID := logging.RequestIDFromContext(ctx)
	wrapped := func(bg context.Context) error {
		bg = logging.WithRequestID(bg, requestID)
		bg = logging.WithThreadKey(bg, threadKey)
		bg = logging.WithChannel(bg, channel)
		return fn(bg)
	}
	notify := func(bg context.Context, err error) {
		if channel == "" || threadKey == "" {
			return
		}
		if replyErr := a.messenger.PostReply(bg, channel, threadKey, replyApology); replyErr != nil {
			a.logger.Warn(bg, "failed to deliver error reply", zap.Error(replyErr))
		}
	}
	a.runner.Go(name, wrapped, notify)
}
