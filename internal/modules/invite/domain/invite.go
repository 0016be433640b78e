package domain

import (
	"strings"
	"time"
)

// DueAfter is how long after a repost the follow-up invite becomes due.
const DueAfter = 7 * 24 * time.Hour

// DefaultInviteText is the invite template applied when a group has no
// custom one configured.
const DefaultInviteText = "Привет, {author_name}! Твой пост опубликован в «{group_name}»: {post_link}. Заходи к нам, будем рады. Правила группы: {rules_link}"

// PendingInvite is one queued follow-up invite to the original author of a
// forwarded post. At most one live invite exists per (group, author).
type PendingInvite struct {
	ChatID         int64      `json:"chat_id"`
	AuthorID       int64      `json:"author_id"`
	AuthorName     string     `json:"author_name,omitempty"`
	AuthorUsername string     `json:"author_username,omitempty"`
	PostMessageID  int        `json:"post_message_id"`
	DueAt          time.Time  `json:"due_at"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// Sent reports whether the invite was already delivered.
func (i *PendingInvite) Sent() bool {
	return i.SentAt != nil
}

// TemplateVars is the substitution context for invite templates.
type TemplateVars struct {
	AuthorName     string
	AuthorUsername string
	GroupName      string
	PostLink       string
	RulesLink      string
}

// Render substitutes the template placeholders ({author_name},
// {author_username}, {group_name}, {post_link}, {rules_link}).
func Render(template string, vars TemplateVars) string {
	r := strings.NewReplacer(
		"{author_name}", vars.AuthorName,
		"{author_username}", vars.AuthorUsername,
		"{group_name}", vars.GroupName,
		"{post_link}", vars.PostLink,
		"{rules_link}", vars.RulesLink,
	)
	return r.Replace(template)
}
