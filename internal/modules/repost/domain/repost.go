package domain

import (
	"time"

	messageDomain "github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
)

// Post is the anonymous replacement message handed to the transport.
type Post struct {
	Text    string
	Media   *messageDomain.Media
	Buttons []Button
}

// Album is the anonymous replacement for a media group. Telegram media
// groups cannot carry inline keyboards, so there are no buttons here; the
// caption rides on the first item.
type Album struct {
	Caption string
	Items   []messageDomain.Media
}

// Button is one inline button on a repost.
type Button struct {
	Label string
	URL   string
}

// Result is what the pipeline reports for one processed message.
type Result struct {
	Outcome      Outcome
	NewMessageID int
}

// Incident records the critical failure mode: the original was deleted but
// the replacement could not be sent. The content is preserved for manual
// recovery.
type Incident struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	MessageID int       `json:"message_id"`
	AuthorID  int64     `json:"author_id"`
	Content   string    `json:"content"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
}
