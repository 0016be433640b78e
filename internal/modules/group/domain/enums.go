//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

// GroupType distinguishes groups we own from groups we only service
// ENUM(own,other)
type GroupType string

// RejectPolicy controls what happens to an original message when its repost
// is rejected by the duplicate or rate check
// ENUM(keep,drop)
type RejectPolicy string
