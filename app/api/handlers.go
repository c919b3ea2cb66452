package api

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"blogreplay/app/cfg"
	"blogreplay/app/database"
	"blogreplay/app/feed"
)

type Handler struct {
	feedRepo  database.FeedRepository
	entryRepo database.EntryRepository
}

func NewHandler(feedRepo database.FeedRepository, entryRepo database.EntryRepository) *Handler {
	return &Handler{feedRepo: feedRepo, entryRepo: entryRepo}
}

// GetFeed serves a rendered Atom file by feed key.
func (h *Handler) GetFeed(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	stored, err := h.feedRepo.GetFeed(key)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed", key, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if stored == nil {
		c.Status(http.StatusNotFound)
		return
	}

	path := feed.Path(cfg.Get().FeedDir, key)
	if _, err := os.Stat(path); err != nil {
		slog.Error("Rendered feed file missing", "feed", key, "path", path, "error", err)
		c.Status(http.StatusNotFound)
		return
	}

	feedRequests.WithLabelValues(key).Inc()

	c.Header("Content-Type", "application/atom+xml; charset=utf-8")
	c.File(path)
}

func (h *Handler) GetHealth(c *gin.Context) {
	timestamp := time.Now().UTC().Format(time.RFC3339)

	feeds, err := h.feedRepo.ListFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "health", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "degraded",
			"timestamp": timestamp,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": timestamp,
		"feeds":     len(feeds),
	})
}

// APIListFeeds returns every known feed with its pending-queue depth.
func (h *Handler) APIListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.ListFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	list := make([]gin.H, 0, len(feeds))
	for _, f := range feeds {
		info := gin.H{
			"key":   f.Key,
			"id":    f.ID,
			"title": f.Title,
			"url":   f.URL,
		}
		if pending, err := h.entryRepo.CountPending(f.Key); err == nil {
			info["pending"] = pending
		}
		list = append(list, info)
	}

	c.JSON(http.StatusOK, list)
}
