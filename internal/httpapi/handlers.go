package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/postbed/postbed/pkg/core"
	"github.com/postbed/postbed/pkg/session"
)

// postPayload is the wire form of a post for save requests and
// read responses.
type postPayload struct {
	ID   string        `json:"id"`
	Body string        `json:"body"`
	Meta core.Metadata `json:"meta"`
}

// listItem is the metadata-only wire form used by the list endpoint.
// Bodies come from the single-post read; the list never carries them.
type listItem struct {
	ID   string        `json:"id"`
	Meta core.Metadata `json:"meta"`
}

func (s *Server) handleHealth(c *gin.Context) {
	vaultID, lsn, err := s.svc.Sequence(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "vault": vaultID, "lsn": lsn})
}

func (s *Server) handleList(c *gin.Context) {
	if !s.ensureFresh(c) {
		return
	}

	posts, err := s.svc.ListPosts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list posts"})
		return
	}

	if category := c.Query("category"); category != "" {
		posts = filterByCategory(posts, category)
	}

	out := make([]listItem, 0, len(posts))
	for _, p := range posts {
		out = append(out, listItem{ID: p.ID, Meta: p.Meta})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGet(c *gin.Context) {
	if !s.ensureFresh(c) {
		return
	}

	id := postID(c)
	post, err := s.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("post %s not found", id)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read post"})
		return
	}

	c.JSON(http.StatusOK, postPayload{ID: post.ID, Body: post.Body, Meta: post.Meta})
}

func (s *Server) handleSave(c *gin.Context) {
	var payload postPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id := postID(c)
	ctx := c.Request.Context()

	if err := s.svc.SavePost(ctx, id, payload.Body, payload.Meta); err != nil {
		if errors.Is(err, core.ErrReadOnly) {
			c.JSON(http.StatusForbidden, gin.H{"error": "vault is read-only"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	s.captureToken(c)
	c.JSON(http.StatusOK, gin.H{"status": "saved", "id": id})
}

func (s *Server) handleDelete(c *gin.Context) {
	id := postID(c)
	ctx := c.Request.Context()

	if err := s.svc.DeletePost(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("post %s not found", id)})
			return
		}
		if errors.Is(err, core.ErrReadOnly) {
			c.JSON(http.StatusForbidden, gin.H{"error": "vault is read-only"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete post"})
		return
	}

	s.captureToken(c)
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "id": id})
}

func (s *Server) handleSync(c *gin.Context) {
	if err := s.svc.Sync(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.captureToken(c)
	c.JSON(http.StatusOK, gin.H{"status": "synced"})
}

// ensureFresh enforces read-your-writes: if the client's session token
// records a write this vault has not yet seen, one sync attempt is made
// to catch up. If the vault is still behind, the read is refused with
// 503 rather than serving stale data.
func (s *Server) ensureFresh(c *gin.Context) bool {
	state, ok := session.FromContext(c)
	if !ok {
		return true
	}

	ctx := c.Request.Context()
	vaultID, lsn, err := s.svc.Sequence(ctx)
	if err != nil {
		return true // No sequence support, consistency not applicable.
	}

	token, ok := state.Token(vaultID)
	if !ok || token.LSN <= lsn {
		return true
	}

	// Behind the client. One catch-up attempt.
	if err := s.svc.Sync(ctx); err == nil {
		if _, lsn, err = s.svc.Sequence(ctx); err == nil && token.LSN <= lsn {
			return true
		}
	}

	if s.logger != nil {
		s.logger.Warn("refusing stale read", "vault", vaultID, "have", lsn, "want", token.LSN)
	}
	c.Header("Retry-After", "1")
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error": core.ErrStaleRead.Error(),
	})
	c.Abort()
	return false
}

// captureToken records the vault's post-write position in the session
// so later reads from this client cannot go back in time.
func (s *Server) captureToken(c *gin.Context) {
	state, ok := session.FromContext(c)
	if !ok {
		return
	}
	vaultID, lsn, err := s.svc.Sequence(c.Request.Context())
	if err != nil {
		return
	}
	state.Capture(session.Token{Scope: vaultID, Version: 1, LSN: lsn})
}

func postID(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("id"), "/")
}

func filterByCategory(posts []core.Post, category string) []core.Post {
	var out []core.Post
	for _, p := range posts {
		for _, got := range categoriesOf(p.Meta) {
			if got == category {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// categoriesOf tolerates the shapes front matter parsing produces for
// the categories key: a list, or a single string.
func categoriesOf(meta core.Metadata) []string {
	raw, ok := meta["categories"]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{v}
	default:
		return nil
	}
}
