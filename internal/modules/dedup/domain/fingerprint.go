package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Fingerprint computes the deterministic content hash used for duplicate
// detection: SHA-256 over the normalized text and the stable media reference.
// Media is identified by its remote id, never by filename, so re-uploads of
// the same Telegram file hash identically.
func Fingerprint(text, mediaRef string) string {
	sum := sha256.Sum256([]byte(Normalize(text) + "|" + mediaRef))
	return hex.EncodeToString(sum[:])
}

// Normalize collapses whitespace runs and trims the text so trivial re-edits
// of unchanged content still fingerprint identically.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Record is one fingerprint observation inside a group's dedup window.
type Record struct {
	ChatID int64     `json:"chat_id"`
	Hash   string    `json:"hash"`
	SeenAt time.Time `json:"seen_at"`
}
