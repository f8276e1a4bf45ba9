package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asymmetricbridge/internal/digest"
	"asymmetricbridge/internal/domino"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/reconcile"
	"asymmetricbridge/internal/repository"
)

type DominoHandler struct {
	Repo    repository.StatusRepository
	Catalog domino.Catalog
	Manual  *reconcile.Manual
	Logger  *zap.Logger
	Now     func() time.Time
}

type signalView struct {
	domino.Signal
	Status     domino.Status `json:"status"`
	IsOverride bool          `json:"is_override"`
	UpdatedBy  string        `json:"updated_by,omitempty"`
	UpdatedAt  *time.Time    `json:"updated_at,omitempty"`
}

type dominoView struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Counts      digest.Counts `json:"counts"`
	Signals     []signalView  `json:"signals"`
}

type boardView struct {
	ThreatLevel string        `json:"threat_level"`
	Counts      digest.Counts `json:"counts"`
	Dominos     []dominoView  `json:"dominos"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

func (h *DominoHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/dominos")
	g.GET("", h.board)
	g.POST("/seed", h.seed)
	g.GET("/:id", h.get)
	g.PUT("/:id/signals/:signal/status", h.setStatus)
	g.DELETE("/:id/signals/:signal/override", h.releaseOverride)
}

func (h *DominoHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *DominoHandler) loadBoard(c *gin.Context, user string) (boardView, bool) {
	if h.Repo == nil {
		unavailable(c, "repo")
		return boardView{}, false
	}
	rows, err := h.Repo.ListSignalStatuses(c.Request.Context(), user)
	if err != nil {
		upstream(c, err)
		return boardView{}, false
	}
	return buildBoard(h.Catalog, reconcile.IndexStatuses(rows)), true
}

// buildBoard joins the catalog with persisted rows. Signals without a row
// show their catalog default.
func buildBoard(cat domino.Catalog, rows map[domino.Key]models.SignalStatus) boardView {
	out := boardView{Dominos: make([]dominoView, 0, len(cat.Dominos))}
	for _, d := range cat.Dominos {
		dv := dominoView{ID: d.ID, Name: d.Name, Description: d.Description, Signals: make([]signalView, 0, len(d.Signals))}
		for _, s := range d.Signals {
			sv := signalView{Signal: s, Status: s.InitialStatus()}
			if row, ok := rows[domino.Key{DominoID: d.ID, Signal: s.Name}]; ok {
				if st, ok := domino.ParseStatus(row.Status); ok {
					sv.Status = st
				}
				at := row.UpdatedAt
				sv.IsOverride, sv.UpdatedBy, sv.UpdatedAt = row.IsOverride, row.UpdatedBy, &at
			}
			switch sv.Status {
			case domino.StatusRed:
				dv.Counts.Red++
			case domino.StatusAmber:
				dv.Counts.Amber++
			default:
				dv.Counts.Green++
			}
			dv.Signals = append(dv.Signals, sv)
		}
		out.Counts.Green += dv.Counts.Green
		out.Counts.Amber += dv.Counts.Amber
		out.Counts.Red += dv.Counts.Red
		out.Dominos = append(out.Dominos, dv)
	}
	out.ThreatLevel = digest.ThreatLevel(out.Counts)
	return out
}

// @Summary Domino board with current statuses
// @Tags dominos
// @Param X-User-ID header string false "user id"
// @Success 200 {object} map[string]any
// @Router /api/v1/dominos [get]
func (h *DominoHandler) board(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	board, ok := h.loadBoard(c, user)
	if !ok {
		return
	}
	Ok(c, board, nil)
}

// @Summary One domino with current statuses
// @Tags dominos
// @Param id path int true "domino id"
// @Success 200 {object} map[string]any
// @Router /api/v1/dominos/{id} [get]
func (h *DominoHandler) get(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		Error(c, http.StatusBadRequest, "invalid domino id", nil)
		return
	}
	board, ok := h.loadBoard(c, user)
	if !ok {
		return
	}
	for _, d := range board.Dominos {
		if d.ID == id {
			Ok(c, d, nil)
			return
		}
	}
	Error(c, http.StatusNotFound, "domino not found", nil)
}

// @Summary Seed missing statuses from catalog defaults
// @Tags dominos
// @Success 200 {object} map[string]any
// @Router /api/v1/dominos/seed [post]
func (h *DominoHandler) seed(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Repo == nil {
		unavailable(c, "repo")
		return
	}
	n, err := reconcile.Seed(c.Request.Context(), h.Repo, h.Catalog, user, h.now())
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, gin.H{"created": n}, nil)
}

func signalKey(c *gin.Context) (domino.Key, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		Error(c, http.StatusBadRequest, "invalid domino id", nil)
		return domino.Key{}, false
	}
	name := strings.TrimSpace(c.Param("signal"))
	if name == "" {
		Error(c, http.StatusBadRequest, "invalid signal", nil)
		return domino.Key{}, false
	}
	return domino.Key{DominoID: id, Signal: name}, true
}

// @Summary Set a manual status override
// @Tags dominos
// @Param id path int true "domino id"
// @Param signal path string true "signal name"
// @Param body body statusRequest true "status and reason"
// @Success 200 {object} map[string]any
// @Router /api/v1/dominos/{id}/signals/{signal}/status [put]
func (h *DominoHandler) setStatus(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Manual == nil {
		unavailable(c, "manual status")
		return
	}
	key, ok := signalKey(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid json", nil)
		return
	}
	res, err := h.Manual.Set(c.Request.Context(), user, key, req.Status, req.Reason)
	if err != nil {
		h.manualError(c, err)
		return
	}
	Ok(c, res, nil)
}

// @Summary Release a manual override
// @Tags dominos
// @Param id path int true "domino id"
// @Param signal path string true "signal name"
// @Success 200 {object} map[string]any
// @Router /api/v1/dominos/{id}/signals/{signal}/override [delete]
func (h *DominoHandler) releaseOverride(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Manual == nil {
		unavailable(c, "manual status")
		return
	}
	key, ok := signalKey(c)
	if !ok {
		return
	}
	released, err := h.Manual.Release(c.Request.Context(), user, key)
	if err != nil {
		h.manualError(c, err)
		return
	}
	Ok(c, gin.H{"released": released}, nil)
}

func (h *DominoHandler) manualError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, reconcile.ErrUnknownSignal):
		Error(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, reconcile.ErrInvalidStatus):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, repository.ErrStatusConflict):
		Error(c, http.StatusConflict, "signal status changed concurrently, retry", nil)
	default:
		if h.Logger != nil {
			h.Logger.Warn("manual status write failed", zap.Error(err))
		}
		upstream(c, err)
	}
}
