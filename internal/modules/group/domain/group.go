package domain

import "time"

// Group is the configuration snapshot for one monitored supergroup. The core
// never mutates operational fields; it reads a fresh snapshot at decision
// time and tolerates the configuration changing between scheduling and fire.
type Group struct {
	ChatID   int64     `json:"chat_id"`
	Title    string    `json:"title"`
	IsActive bool      `json:"is_active"`
	Type     GroupType `json:"type"`

	// Organizational metadata, surfaced read-only through the admin API.
	Order            int    `json:"order"`
	Country          string `json:"country"`
	Category         string `json:"category"`
	Owner            string `json:"owner"`
	Tags             string `json:"tags"`
	SubscribersCount int    `json:"subscribers_count"`

	// Repost timing. The fire delay is uniform in [DelayMinSeconds, DelayMaxSeconds].
	DelayMinSeconds int `json:"delay_min_seconds"`
	DelayMaxSeconds int `json:"delay_max_seconds"`

	// Eligibility.
	LimitPostsDay    int          `json:"limit_posts_day"`  // 0 = unlimited
	LimitPostsWeek   int          `json:"limit_posts_week"` // 0 = unlimited
	DedupWindowHours int          `json:"dedup_window_hours"`
	RejectPolicy     RejectPolicy `json:"reject_policy"`

	// Repost content.
	SuffixText string       `json:"suffix_text"`
	Buttons    []ButtonSlot `json:"buttons"` // 0-2 slots

	// Invites.
	InviteEnabled bool   `json:"invite_enabled"`
	InviteText    string `json:"invite_text"`
	RulesLink     string `json:"rules_link"`

	// Operator-facing failure state. A paused group is skipped by the
	// pipeline until an operator clears the pause.
	PausedAt    *time.Time `json:"paused_at,omitempty"`
	PauseReason string     `json:"pause_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ButtonSlot holds the label variants one inline button rotates through.
// Rotation is round-robin per group and slot, advancing once per repost.
type ButtonSlot struct {
	Variants []string `json:"variants"`
	URL      string   `json:"url,omitempty"` // empty = link to the original author
}

// DefaultButtonVariants is the rotation cycle applied when a slot has no
// variants configured.
var DefaultButtonVariants = []string{
	"Обратная связь",
	"Автор поста",
	"Связаться с автором",
	"Контакты автора",
}

// DelayRange returns the configured delay bounds in seconds, falling back to
// the 180-300 default when unset or inverted.
func (g *Group) DelayRange() (min, max int) {
	min, max = g.DelayMinSeconds, g.DelayMaxSeconds
	if min <= 0 && max <= 0 {
		return 180, 300
	}
	if max < min {
		max = min
	}
	return min, max
}

// DedupWindow returns the duplicate-detection window, defaulting to 3 days.
func (g *Group) DedupWindow() time.Duration {
	if g.DedupWindowHours <= 0 {
		return 72 * time.Hour
	}
	return time.Duration(g.DedupWindowHours) * time.Hour
}

// Paused reports whether the group is paused for operator attention.
func (g *Group) Paused() bool {
	return g.PausedAt != nil
}

// SlotVariants returns the label cycle for a button slot, applying the
// default cycle when the slot has none configured.
func (g *Group) SlotVariants(slot int) []string {
	if slot < len(g.Buttons) && len(g.Buttons[slot].Variants) > 0 {
		return g.Buttons[slot].Variants
	}
	return DefaultButtonVariants
}
