//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// Outcome is the terminal result of pushing one message through the
// eligibility-and-repost pipeline. Duplicate and rate_limited are normal
// outcomes, not errors.
// ENUM(reposted,duplicate,rate_limited,cancelled,skipped,failed)
type Outcome string
