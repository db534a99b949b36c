package models

import "strings"

/************************************************
/**** MARK: MESSAGE KINDS ****/
/************************************************/
const MESSAGE_KIND_TEXT = "text"
const MESSAGE_KIND_MEDIA = "media"
const MESSAGE_KIND_REPLY = "reply"

// Media container types the gateway can deliver; all normalize to the media
// kind, the mime type decides later whether the job accepts them.
var mediaTypes = map[string]bool{
	"voice":    true,
	"audio":    true,
	"video":    true,
	"document": true,
}

// Message is the normalized inbound event. It is a closed tagged variant:
// Kind selects which fields are meaningful. Built once per webhook delivery,
// never persisted.
type Message struct {
	ID        string
	Kind      string
	Timestamp int64
	Text      string

	// media fields
	FileID   string
	Link     string
	FileName string
	MimeType string
	Caption  string

	// button reply
	ButtonID string
}

// Command returns the trimmed, lowercased text for command matching.
func (m Message) Command() string {
	return strings.ToLower(strings.TrimSpace(m.Text))
}

// WebhookPayload is the gateway delivery shape: a list of message objects,
// of which only the first is processed per call.
type WebhookPayload struct {
	Messages []WebhookMessage `json:"messages"`
}

// WebhookMessage mirrors the WHAPI message object. Media payloads arrive
// under a key named after the message type (audio/voice/video/document).
type WebhookMessage struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	From      string `json:"from"`
	FromMe    bool   `json:"from_me"`
	FromName  string `json:"from_name"`
	ChatID    string `json:"chat_id"`
	Timestamp int64  `json:"timestamp"`

	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`

	Voice    *WebhookMedia `json:"voice,omitempty"`
	Audio    *WebhookMedia `json:"audio,omitempty"`
	Video    *WebhookMedia `json:"video,omitempty"`
	Document *WebhookMedia `json:"document,omitempty"`

	Reply *struct {
		ButtonsReply struct {
			ID string `json:"id"`
		} `json:"buttons_reply"`
	} `json:"reply,omitempty"`
}

type WebhookMedia struct {
	ID       string `json:"id"`
	Link     string `json:"link"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
}

// Normalize maps a raw webhook message onto the tagged variant. Unsupported
// shapes return ok=false and are dropped by the dispatcher.
func Normalize(m WebhookMessage) (Message, bool) {
	msgType := strings.ToLower(strings.TrimSpace(m.Type))
	switch {
	case msgType == "text":
		if m.Text == nil {
			return Message{}, false
		}
		return Message{
			ID:        m.ID,
			Kind:      MESSAGE_KIND_TEXT,
			Timestamp: m.Timestamp,
			Text:      m.Text.Body,
		}, true

	case mediaTypes[msgType]:
		media := m.media(msgType)
		if media == nil {
			return Message{}, false
		}
		return Message{
			ID:        m.ID,
			Kind:      MESSAGE_KIND_MEDIA,
			Timestamp: m.Timestamp,
			Text:      media.Caption,
			FileID:    media.ID,
			Link:      media.Link,
			FileName:  media.FileName,
			MimeType:  media.MimeType,
			Caption:   media.Caption,
		}, true

	case msgType == "reply":
		if m.Reply == nil {
			return Message{}, false
		}
		return Message{
			ID:        m.ID,
			Kind:      MESSAGE_KIND_REPLY,
			Timestamp: m.Timestamp,
			ButtonID:  stripButtonPrefix(m.Reply.ButtonsReply.ID),
		}, true
	}

	return Message{}, false
}

func (m WebhookMessage) media(msgType string) *WebhookMedia {
	switch msgType {
	case "voice":
		return m.Voice
	case "audio":
		return m.Audio
	case "video":
		return m.Video
	case "document":
		return m.Document
	}
	return nil
}

// Button reply ids arrive as "<message id>:<button id>"; only the suffix is
// the button identity.
func stripButtonPrefix(id string) string {
	if idx := strings.IndexByte(id, ':'); idx >= 0 {
		return id[idx+1:]
	}
	return id
}
