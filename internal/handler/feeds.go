package handler

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"asymmetricbridge/internal/feed"
	"asymmetricbridge/internal/scheduler"
	"asymmetricbridge/internal/threshold"
)

type FeedHandler struct {
	Store     feed.Store
	Engine    *threshold.Engine
	Scheduler *scheduler.Scheduler
	MaxAge    time.Duration
	Now       func() time.Time
}

type feedView struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	Fresh     bool      `json:"fresh"`
	Series    int       `json:"series"`
	Quotes    int       `json:"quotes"`
}

func (h *FeedHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/feeds", h.listFeeds)
	r.POST("/api/v1/feeds/:source", h.putFeed)
	r.GET("/api/v1/evaluations", h.preview)
	r.POST("/api/v1/evaluations/run", h.run)
}

func (h *FeedHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *FeedHandler) maxAge() time.Duration {
	if h.MaxAge > 0 {
		return h.MaxAge
	}
	return scheduler.DefaultMaxFeedAge
}

// @Summary Store a normalized feed snapshot
// @Tags feeds
// @Param source path string true "source name"
// @Param body body feed.Snapshot true "snapshot"
// @Success 200 {object} map[string]any
// @Router /api/v1/feeds/{source} [post]
func (h *FeedHandler) putFeed(c *gin.Context) {
	if h.Store == nil {
		unavailable(c, "feed store")
		return
	}
	source := strings.ToLower(strings.TrimSpace(c.Param("source")))
	if source == "" {
		Error(c, http.StatusBadRequest, "invalid source", nil)
		return
	}
	var snap feed.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		Error(c, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if len(snap.Series) == 0 && len(snap.Quotes) == 0 {
		Error(c, http.StatusBadRequest, "snapshot has no series or quotes", nil)
		return
	}
	snap.Source = source
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = h.now()
	}
	snap = snap.Normalize()
	if err := h.Store.Put(c.Request.Context(), snap); err != nil {
		upstream(c, err)
		return
	}
	Ok(c, feedView{
		Source:    snap.Source,
		FetchedAt: snap.FetchedAt,
		Fresh:     snap.Fresh(h.now(), h.maxAge()),
		Series:    len(snap.Series),
		Quotes:    len(snap.Quotes),
	}, nil)
}

// @Summary List stored snapshots and their freshness
// @Tags feeds
// @Success 200 {object} map[string]any
// @Router /api/v1/feeds [get]
func (h *FeedHandler) listFeeds(c *gin.Context) {
	if h.Store == nil {
		unavailable(c, "feed store")
		return
	}
	all, err := h.Store.All(c.Request.Context())
	if err != nil {
		upstream(c, err)
		return
	}
	now := h.now()
	items := make([]feedView, 0, len(all))
	for _, snap := range all {
		items = append(items, feedView{
			Source:    snap.Source,
			FetchedAt: snap.FetchedAt,
			Fresh:     snap.Fresh(now, h.maxAge()),
			Series:    len(snap.Series),
			Quotes:    len(snap.Quotes),
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Source < items[j].Source })
	Ok(c, items, nil)
}

// @Summary Evaluate current snapshots without writing
// @Tags evaluations
// @Param evaluated query bool false "only evaluated results"
// @Success 200 {object} map[string]any
// @Router /api/v1/evaluations [get]
func (h *FeedHandler) preview(c *gin.Context) {
	if h.Store == nil || h.Engine == nil {
		unavailable(c, "evaluation")
		return
	}
	all, err := h.Store.All(c.Request.Context())
	if err != nil {
		upstream(c, err)
		return
	}
	// Same freshness gate as a scheduled pass.
	now, maxAge := h.now(), h.maxAge()
	fresh := make(map[string]feed.Snapshot, len(all))
	stale := []string{}
	for name, snap := range all {
		if snap.Fresh(now, maxAge) {
			fresh[name] = snap
		} else {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	results := h.Engine.Evaluate(fresh)
	onlyEvaluated := boolQueryPtr(c, "evaluated")
	items := make([]threshold.Result, 0, len(results))
	evaluated := 0
	for _, r := range results {
		if r.Evaluated {
			evaluated++
		}
		if onlyEvaluated != nil && r.Evaluated != *onlyEvaluated {
			continue
		}
		items = append(items, r)
	}
	Ok(c, items, map[string]any{"total": len(results), "evaluated": evaluated, "stale_sources": stale})
}

// @Summary Run one evaluation and reconciliation pass
// @Tags evaluations
// @Success 200 {object} map[string]any
// @Router /api/v1/evaluations/run [post]
func (h *FeedHandler) run(c *gin.Context) {
	if h.Scheduler == nil {
		unavailable(c, "scheduler")
		return
	}
	rep, err := h.Scheduler.Tick(c.Request.Context())
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, rep, nil)
}
