package core

// Metadata represents the flexible key-value pairs parsed from a post's front matter.
type Metadata map[string]any

// Post is the central entity of the domain.
// It represents a single article identified by its vault-relative path
// (without extension), e.g. "tech/2019-06-03-cosmos-session".
// It is agnostic to storage format (Markdown, YAML, JSON).
type Post struct {
	ID   string
	Body string
	Meta Metadata
}

// EventType represents the type of change in the vault.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change in the vault.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

type contextKey string

// ChangeReasonKey is the context key for passing specific change reasons
// (commit messages) during Save/Delete operations.
const ChangeReasonKey contextKey = "change_reason"
