package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/postbed/postbed/pkg/core"
	"github.com/postbed/postbed/pkg/git"
)

// Repository implements core.Repository using the filesystem and Git.
type Repository struct {
	Path        string
	git         *git.Client
	cache       *cache
	config      Config
	serializers map[string]Serializer

	mu            sync.RWMutex
	vaultID       string
	watcherActive bool
	lastReconcile *time.Time
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path         string
	AutoInit     bool
	Gitless      bool
	MustExist    bool
	ReadOnly     bool
	SystemDir    string // e.g. ".postbed"
	Format       string // front matter dialect written for markdown (yaml or toml)
	EventBuffer  int
	Logger       *slog.Logger
	ErrorHandler func(error)
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) *Repository {
	if config.SystemDir == "" {
		config.SystemDir = ".postbed"
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 100
	}
	return &Repository{
		Path:        config.Path,
		git:         git.NewClient(config.Path, config.SystemDir+".lock", config.Logger),
		config:      config,
		cache:       newCache(config.Path, config.SystemDir),
		serializers: DefaultSerializers(config.Format),
	}
}

// RegisterSerializer installs a custom serializer for an extension.
func (r *Repository) RegisterSerializer(ext string, s Serializer) {
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.serializers[ext] = s
}

// Begin starts a new transaction.
func (r *Repository) Begin(ctx context.Context) (core.Transaction, error) {
	if r.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	return NewTransaction(r), nil
}

// Initialize performs the necessary setup for the repository
// (mkdir, git init, vault identity).
func (r *Repository) Initialize(ctx context.Context) error {
	// 1. Directory Initialization
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("vault path does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("vault path is not a directory: %s", r.Path)
		}
	} else {
		if err := os.MkdirAll(r.Path, 0755); err != nil {
			return fmt.Errorf("failed to create vault directory: %w", err)
		}
	}

	// 2. Git Initialization
	if !r.config.Gitless && !r.config.ReadOnly {
		if !git.IsInstalled() {
			return fmt.Errorf("git is not installed")
		}

		wasNewRepo := false
		if !r.git.IsRepo() {
			if r.config.AutoInit {
				if err := r.git.Init(); err != nil {
					return fmt.Errorf("failed to git init: %w", err)
				}
				wasNewRepo = true
			} else {
				return fmt.Errorf("path is not a git repository: %s", r.Path)
			}
		}

		// Ensure .gitignore has the system directory
		mod, err := r.ensureIgnore()
		if err != nil {
			return fmt.Errorf("failed to ensure .gitignore: %w", err)
		}

		if mod && wasNewRepo {
			// If we just created the repo, commit the .gitignore to start clean
			if err := r.git.Add(".gitignore"); err != nil {
				return fmt.Errorf("failed to add .gitignore: %w", err)
			}
			if err := r.git.Commit(fmt.Sprintf("chore: configure %s ignore", r.config.SystemDir)); err != nil {
				return fmt.Errorf("failed to commit .gitignore: %w", err)
			}
		}
	}

	// 3. Vault Identity
	id, err := r.loadOrCreateIdentity()
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.vaultID = id
	r.mu.Unlock()

	return nil
}

func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	entries := []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, e := range entries {
		if !present[e] {
			missing = append(missing, e)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}

	for _, e := range missing {
		if _, err := f.WriteString(e + "\n"); err != nil {
			return false, err
		}
	}

	return true, nil
}

// VaultID returns the stable identity minted on Initialize.
func (r *Repository) VaultID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vaultID
}

// LSN implements core.Sequenced. With git, the LSN is the commit count
// reachable from HEAD; gitless vaults persist an explicit counter.
func (r *Repository) LSN(ctx context.Context) (int64, error) {
	if r.config.Gitless {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return r.readCounter()
	}
	return r.git.CommitCount()
}

// Sync synchronizes the repository with its remote.
func (r *Repository) Sync(ctx context.Context) error {
	if r.config.Gitless {
		return fmt.Errorf("cannot sync in gitless mode")
	}
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	if !r.git.IsRepo() {
		return fmt.Errorf("path is not a git repository: %s", r.Path)
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	return r.git.Sync()
}

// filenameFor maps a post ID to its on-disk relative path.
// IDs without an extension default to markdown.
func (r *Repository) filenameFor(id string) (filename, ext string) {
	ext = filepath.Ext(id)
	filename = id
	if ext == "" {
		ext = ".md"
		filename = id + ext
	}
	return filename, ext
}

func (r *Repository) serializerFor(ext string) (Serializer, error) {
	s, ok := r.serializers[ext]
	if !ok {
		return nil, fmt.Errorf("no serializer registered for %s", ext)
	}
	return s, nil
}

// Save persists a post to the filesystem and commits it to Git.
//
// Workflow:
//  1. Resolve filename and serializer from the ID's extension.
//  2. Create parent directories.
//  3. Serialize (front matter + body) and write atomically to disk.
//  4. (If Git enabled) 'git add' and 'git commit' with the change
//     reason from context; gitless vaults bump the LSN counter instead.
func (r *Repository) Save(ctx context.Context, p core.Post) error {
	if p.ID == "" {
		return fmt.Errorf("post has no ID")
	}
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	filename, ext := r.filenameFor(p.ID)
	serializer, err := r.serializerFor(ext)
	if err != nil {
		return err
	}

	fullPath := filepath.Join(r.Path, filename)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	data, err := serializer.Serialize(p)
	if err != nil {
		return fmt.Errorf("failed to serialize post: %w", err)
	}

	if err := writeFileAtomic(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	r.updateIndex(filename, p)

	if r.config.Gitless {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.bumpCounter()
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := r.git.Add(filename); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}

	msg := "update " + p.ID
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}

	if err := r.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}

	return nil
}

func (r *Repository) updateIndex(filename string, p core.Post) {
	mtime := time.Now()
	if info, err := os.Stat(filepath.Join(r.Path, filename)); err == nil {
		mtime = info.ModTime()
	}
	r.cache.Set(filepath.ToSlash(filename), &indexEntry{
		ID:           p.ID,
		Metadata:     p.Meta,
		LastModified: mtime,
	})
	if !r.config.ReadOnly {
		if err := r.cache.Save(); err != nil && r.config.Logger != nil {
			r.config.Logger.Warn("failed to save index", "error", err)
		}
	}
}

// Get retrieves a post from the filesystem.
func (r *Repository) Get(ctx context.Context, id string) (core.Post, error) {
	filename, ext := r.filenameFor(id)

	serializer, err := r.serializerFor(ext)
	if err != nil {
		return core.Post{}, err
	}

	f, err := os.Open(filepath.Join(r.Path, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return core.Post{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return core.Post{}, err
	}
	defer f.Close()

	post, err := serializer.Parse(f)
	if err != nil {
		return core.Post{}, fmt.Errorf("failed to parse post %s: %w", id, err)
	}
	post.ID = id

	return *post, nil
}

// List scans the vault for all posts.
//
// Strategy:
//  1. Load the metadata index from disk.
//  2. Walk the directory tree (skipping .git and the system dir).
//  3. For each supported file: cache hit by mtime serves metadata
//     without opening the file; miss does a full parse and updates
//     the index.
//  4. Prune removed files and persist the index.
func (r *Repository) List(ctx context.Context) ([]core.Post, error) {
	var posts []core.Post

	if err := r.cache.Load(); err != nil && r.config.Logger != nil {
		r.config.Logger.Warn("failed to load index", "error", err)
	}
	seen := make(map[string]bool)

	err := filepath.WalkDir(r.Path, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" || d.Name() == r.config.SystemDir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(d.Name())
		if _, ok := r.serializers[ext]; !ok {
			return nil
		}
		if strings.HasPrefix(d.Name(), TempFilePrefix) {
			return nil
		}

		relPath, err := filepath.Rel(r.Path, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		// IDs strip the markdown extension so List output feeds Get.
		id := relPath
		if ext == ".md" || ext == ".markdown" {
			id = strings.TrimSuffix(relPath, ext)
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		mtime := info.ModTime()

		seen[relPath] = true

		if entry, hit := r.cache.Get(relPath, mtime); hit {
			posts = append(posts, core.Post{
				ID:   entry.ID,
				Meta: entry.Metadata,
				// Body deliberately omitted on cache hits: List is for
				// metadata discovery, Get returns the full post.
			})
			return nil
		}

		post, err := r.Get(ctx, id)
		if err != nil {
			if r.config.Logger != nil {
				r.config.Logger.Warn("failed to parse post during list", "id", id, "error", err)
			}
			return nil // Skip unparseable
		}

		r.cache.Set(relPath, &indexEntry{
			ID:           id,
			Metadata:     post.Meta,
			LastModified: mtime,
		})

		posts = append(posts, post)
		return nil
	})

	if err != nil {
		return nil, err
	}

	r.cache.Prune(seen)
	if !r.config.ReadOnly {
		if err := r.cache.Save(); err != nil && r.config.Logger != nil {
			r.config.Logger.Warn("failed to save index", "error", err)
		}
	}

	return posts, nil
}

// Delete removes a post.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}

	filename, _ := r.filenameFor(id)
	fullPath := filepath.Join(r.Path, filename)

	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	r.cache.Delete(filepath.ToSlash(filename))

	if r.config.Gitless {
		if err := os.Remove(fullPath); err != nil {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.bumpCounter()
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := r.git.Rm(filename); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}

	msg := "delete " + id
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		msg = val
	}

	if err := r.git.Commit(msg); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}

	return nil
}

// IsGitInstalled checks if git is available in the system path.
func IsGitInstalled() bool {
	return git.IsInstalled()
}
