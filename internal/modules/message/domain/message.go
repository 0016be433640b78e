package domain

import "time"

// Message is one group message as seen at intake. The archive is what batch
// jobs replay, so it keeps everything the pipeline needs to re-run
// eligibility and repost the content.
type Message struct {
	ChatID       int64     `json:"chat_id"`
	MessageID    int       `json:"message_id"`
	AuthorID     int64     `json:"author_id"`
	Text         string    `json:"text"`
	Media        *Media    `json:"media,omitempty"`
	Forward      *Forward  `json:"forward,omitempty"`
	MediaGroupID string    `json:"media_group_id,omitempty"`
	Date         time.Time `json:"date"`
}

// Media identifies an attachment by its stable remote ids, never by filename.
type Media struct {
	Type     MediaType `json:"type"`
	FileID   string    `json:"file_id"`
	UniqueID string    `json:"unique_id"`
}

// Forward describes the origin of a forwarded message.
type Forward struct {
	FromID   int64  `json:"from_id"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
}

// Forwarded reports whether the message was forwarded from a known origin.
func (m *Message) Forwarded() bool {
	return m.Forward != nil && m.Forward.FromID != 0
}

// MediaRef returns the stable media reference used in the content
// fingerprint, or the empty string for text-only messages.
func (m *Message) MediaRef() string {
	if m.Media == nil {
		return ""
	}
	if m.Media.UniqueID != "" {
		return m.Media.UniqueID
	}
	return m.Media.FileID
}

// Empty reports whether the message carries nothing worth reposting
// (service messages, join notifications and the like).
func (m *Message) Empty() bool {
	return m.Text == "" && m.Media == nil
}
