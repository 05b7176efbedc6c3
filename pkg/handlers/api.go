package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"solinntec-site/pkg/content"
	"solinntec-site/pkg/models"
	"solinntec-site/pkg/services"
	"solinntec-site/pkg/site"

	"github.com/gin-gonic/gin"
)

// Handler serves the site and its editing API on top of an Editor.
type Handler struct {
	editor *services.Editor
}

func New(editor *services.Editor) *Handler {
	return &Handler{editor: editor}
}

// HandleSave commits a whole content tree posted by the client.
func (h *Handler) HandleSave(c *gin.Context) {
	var req models.SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing content"})
		return
	}

	result, err := h.editor.Publish(c.Request.Context(), req.Content)
	if err != nil {
		if errors.Is(err, services.ErrNotConfigured) {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Missing GitHub configuration"})
			return
		}
		slog.Error("save failed", "error", err)
		body := gin.H{"message": "Internal Server Error", "error": err.Error()}
		if errors.Is(err, services.ErrConflict) {
			body["code"] = "conflict"
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Content updated successfully", "sha": result.SHA})
}

func (h *Handler) GetContent(c *gin.Context) {
	h.respondState(c, sessionID(c))
}

func (h *Handler) GetValue(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing path"})
		return
	}

	store, err := h.editor.Open(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	value, err := content.Read(store.Tree(), path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ValueResponse{Path: path, Value: value})
}

func (h *Handler) EditContent(c *gin.Context) {
	var req models.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	sid := sessionID(c)
	if _, err := h.editor.Edit(c.Request.Context(), sid, req.Path, req.Value); err != nil {
		writeError(c, err)
		return
	}
	h.respondState(c, sid)
}

func (h *Handler) ListChanges(c *gin.Context) {
	changes, err := h.editor.Changes(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	if changes == nil {
		changes = []content.Change{}
	}
	c.JSON(http.StatusOK, changes)
}

func (h *Handler) ToggleEditMode(c *gin.Context) {
	sid := sessionID(c)
	if _, err := h.editor.ToggleEditMode(c.Request.Context(), sid); err != nil {
		writeError(c, err)
		return
	}
	h.respondState(c, sid)
}

// SaveSession commits the caller's session tree. On success the session is
// dropped and the client reloads the page from the new snapshot.
func (h *Handler) SaveSession(c *gin.Context) {
	result, err := h.editor.Save(c.Request.Context(), sessionID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Content updated successfully",
		"sha":     result.SHA,
		"reload":  true,
	})
}

func (h *Handler) DiscardSession(c *gin.Context) {
	if err := h.editor.Discard(c.Request.Context(), sessionID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "discarded"})
}

func (h *Handler) Index(c *gin.Context) {
	store, err := h.editor.Open(c.Request.Context(), sessionID(c))
	if err != nil {
		slog.Error("failed to open session", "error", err)
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}
	c.HTML(http.StatusOK, "index.html", site.NewPage(store.Tree(), store.Editing(), store.Dirty()))
}

// Healthz reports 503 when the session registry cannot be reached.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.editor.Ping(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.editor.Snapshot().Version(),
	})
}

func (h *Handler) respondState(c *gin.Context, sid string) {
	ctx := c.Request.Context()
	store, err := h.editor.Open(ctx, sid)
	if err != nil {
		writeError(c, err)
		return
	}
	saving, err := h.editor.Saving(ctx, sid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.SessionState{
		Content: store.Tree(),
		Dirty:   store.Dirty(),
		Editing: store.Editing(),
		Saving:  saving,
		Version: h.editor.Snapshot().Version(),
	})
}

// writeError maps editing and persistence errors onto HTTP responses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, content.ErrPathInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": "path_invalid"})
	case errors.Is(err, content.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "not_found"})
	case errors.Is(err, services.ErrNothingToSave):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to save", "code": "clean"})
	case errors.Is(err, services.ErrSaveInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "A save is already in progress", "code": "saving"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": "conflict"})
	case errors.Is(err, services.ErrNotConfigured):
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Missing GitHub configuration"})
	default:
		slog.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal Server Error", "error": err.Error()})
	}
}
