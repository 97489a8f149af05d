package fs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// vaultIdentity is persisted at {systemDir}/vault.json.
// The ID is minted once on Initialize and never changes; session token
// scopes are derived from it.
type vaultIdentity struct {
	ID string `json:"id"`
}

func (r *Repository) identityPath() string {
	return filepath.Join(r.Path, r.config.SystemDir, "vault.json")
}

func (r *Repository) lsnPath() string {
	return filepath.Join(r.Path, r.config.SystemDir, "lsn")
}

// loadOrCreateIdentity reads the vault identity, minting one if absent.
// In read-only mode a missing identity is not created; the empty string
// is returned and token minting is unavailable.
func (r *Repository) loadOrCreateIdentity() (string, error) {
	path := r.identityPath()

	data, err := os.ReadFile(path)
	if err == nil {
		var id vaultIdentity
		if err := json.Unmarshal(data, &id); err == nil && id.ID != "" {
			return id.ID, nil
		}
		// Corrupted identity file: re-mint below rather than failing open.
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read vault identity: %w", err)
	}

	if r.config.ReadOnly {
		return "", nil
	}

	id := vaultIdentity{ID: uuid.NewString()}
	data, err = json.MarshalIndent(id, "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := writeFileAtomic(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write vault identity: %w", err)
	}

	return id.ID, nil
}

// readCounter returns the persisted gitless LSN counter (zero if absent).
func (r *Repository) readCounter() (int64, error) {
	data, err := os.ReadFile(r.lsnPath())
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	n, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		// Corrupted counter resets to zero; tokens minted before the
		// reset will fail closed on reads, never serve stale data.
		return 0, nil
	}
	return n, nil
}

// bumpCounter increments the gitless LSN counter. Callers must hold r.mu.
func (r *Repository) bumpCounter() error {
	n, err := r.readCounter()
	if err != nil {
		return err
	}
	n++

	if err := os.MkdirAll(filepath.Dir(r.lsnPath()), 0755); err != nil {
		return err
	}
	return writeFileAtomic(r.lsnPath(), []byte(strconv.FormatInt(n, 10)), 0644)
}
