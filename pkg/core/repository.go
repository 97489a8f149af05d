package core

import "context"

// Repository defines the contract for storing and retrieving posts.
// Adhering to this interface allows the core to be independent of the
// underlying storage mechanism (Filesystem, Git, SQL, S3, etc).
type Repository interface {
	// Save persists a post. It creates if not exists, or updates if it does.
	Save(ctx context.Context, p Post) error

	// Get retrieves a post by its ID.
	Get(ctx context.Context, id string) (Post, error)

	// List returns all available posts.
	List(ctx context.Context) ([]Post, error)

	// Delete removes a post by its ID.
	Delete(ctx context.Context, id string) error

	// Initialize ensures the underlying storage is ready (e.g., create
	// directories, git init, vault identity).
	Initialize(ctx context.Context) error
}

// Syncable defines an interface for repositories that support synchronization with a remote.
type Syncable interface {
	// Sync synchronizes the local state with a remote source (e.g. git pull/push).
	Sync(ctx context.Context) error
}

// Watchable defines an interface for repositories that can emit change events.
type Watchable interface {
	// Watch starts observing the repository for changes matching the glob pattern.
	// The channel closes when ctx is cancelled.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// Sequenced is implemented by repositories that maintain a vault identity
// and a monotonically non-decreasing logical sequence number. Session
// tokens are minted from these two values.
type Sequenced interface {
	// VaultID returns the stable identity of the vault.
	VaultID() string

	// LSN returns the current logical sequence number of the vault.
	// It never decreases across Save/Delete operations.
	LSN(ctx context.Context) (int64, error)
}

// Transaction defines the contract for a unit of work.
// Changes made within a transaction are atomic and isolated (depending on implementation).
type Transaction interface {
	// Save stages a post for persistence.
	Save(ctx context.Context, p Post) error

	// Get retrieves a post, preferring the staged version if it exists in the transaction.
	Get(ctx context.Context, id string) (Post, error)

	// Delete stages a post for removal.
	Delete(ctx context.Context, id string) error

	// Commit applies all staged changes atomically.
	Commit(ctx context.Context, changeReason string) error

	// Rollback discards all staged changes.
	Rollback(ctx context.Context) error
}

// Transactional extends Repository to support transactions.
type Transactional interface {
	Repository

	// Begin starts a new transaction.
	Begin(ctx context.Context) (Transaction, error)
}
