//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package domain

// JobStatus is the lifecycle state of a batch job. partial is a valid
// terminal outcome: the job stopped mid-range but its cursor is preserved
// for a resumed run.
// ENUM(queued,running,completed,partial,failed)
type JobStatus string
