// Package slack is the chat-platform adapter: request signature
// verification, outbound messages, file downloads, and the inbound event
// envelope types the router dispatches on.
package slack

import "strings"

// Envelope is the outer payload Slack delivers to the events endpoint.
type Envelope struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge,omitempty"`
	EventID   string `json:"event_id,omitempty"`
	Event     *Event `json:"event,omitempty"`
}

const (
	// TypeURLVerification is the one-time endpoint handshake.
	TypeURLVerification = "url_verification"
	// TypeEventCallback wraps a workspace event.
	TypeEventCallback = "event_callback"
)

// Event is an inbound workspace event. Fields are a union across the
// event types the assistant handles (message, reaction_added).
type Event struct {
	Type        string        `json:"type"`
	Subtype     string        `json:"subtype,omitempty"`
	BotID       string        `json:"bot_id,omitempty"`
	User        string        `json:"user,omitempty"`
	Text        string        `json:"text,omitempty"`
	TS          string        `json:"ts,omitempty"`
	ThreadTS    string        `json:"thread_ts,omitempty"`
	ClientMsgID string        `json:"client_msg_id,omitempty"`
	Channel     string        `json:"channel,omitempty"`
	Files       []File        `json:"files,omitempty"`
	Reaction    string        `json:"reaction,omitempty"`
	Item        *ReactionItem `json:"item,omitempty"`
}

// File is an attachment on a message event.
type File struct {
	Name       string `json:"name"`
	Mimetype   string `json:"mimetype"`
	URLPrivate string `json:"url_private"`
}

// ReactionItem points at the message a reaction was added to.
type ReactionItem struct {
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

// VoiceFile returns the first audio attachment, if any.
func (e *Event) VoiceFile() (File, bool) {
	for _, f := range e.Files {
		if strings.HasPrefix(f.Mimetype, "audio/") {
			return f, true
		}
	}
	return File{}, false
}

// DedupeID returns the identifier used for duplicate suppression, falling
// back from the envelope's event id to the message's client id to its ts.
func (env *Envelope) DedupeID() string {
	if env.EventID != "" {
		return env.EventID
	}
	if env.Event != nil {
		if env.Event.ClientMsgID != "" {
			return env.Event.ClientMsgID
		}
		return env.Event.TS
	}
	return ""
}
