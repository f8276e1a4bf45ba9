package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asymmetricbridge/internal/digest"
	"asymmetricbridge/internal/models"
	"asymmetricbridge/internal/repository"
)

type DigestHandler struct {
	Service *digest.Service
	Repo    repository.DigestRepository
	Logger  *zap.Logger
}

type generateDigestRequest struct {
	Days int `json:"days"`
}

func (h *DigestHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1/digests")
	g.GET("", h.list)
	g.POST("", h.generate)
	g.GET("/preview", h.preview)
	g.GET("/:id", h.get)
	g.GET("/:id/html", h.html)
}

func (h *DigestHandler) serviceError(c *gin.Context, err error) {
	if errors.Is(err, digest.ErrInvalidRange) {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if h.Logger != nil {
		h.Logger.Warn("digest request failed", zap.Error(err))
	}
	upstream(c, err)
}

// @Summary Generate and store a digest
// @Tags digests
// @Param body body generateDigestRequest false "range in days"
// @Success 200 {object} map[string]any
// @Router /api/v1/digests [post]
func (h *DigestHandler) generate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Service == nil {
		unavailable(c, "digest service")
		return
	}
	var req generateDigestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, "invalid json", nil)
			return
		}
	}
	if req.Days == 0 {
		req.Days = intQuery(c, "days", 0)
	}
	res, err := h.Service.Generate(c.Request.Context(), user, digest.Options{Days: req.Days})
	if err != nil {
		h.serviceError(c, err)
		return
	}
	Ok(c, res, nil)
}

// @Summary Render a digest without storing it
// @Tags digests
// @Param days query int false "range in days"
// @Success 200 {object} map[string]any
// @Router /api/v1/digests/preview [get]
func (h *DigestHandler) preview(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Service == nil {
		unavailable(c, "digest service")
		return
	}
	data, err := h.Service.Build(c.Request.Context(), user, digest.Options{Days: intQuery(c, "days", 0)})
	if err != nil {
		h.serviceError(c, err)
		return
	}
	Ok(c, gin.H{"content": digest.Render(data), "data": data}, nil)
}

// @Summary List stored digests
// @Tags digests
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Success 200 {object} map[string]any
// @Router /api/v1/digests [get]
func (h *DigestHandler) list(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if h.Repo == nil {
		unavailable(c, "repo")
		return
	}
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)
	params := repository.ListDigestsParams{
		Limit:   limit,
		Offset:  offset,
		UserID:  user,
		OrderBy: "generated_at",
		Asc:     boolQueryPtr(c, "asc"),
	}
	items, err := h.Repo.ListDigests(c.Request.Context(), params)
	if err != nil {
		upstream(c, err)
		return
	}
	total, err := h.Repo.CountDigests(c.Request.Context(), params)
	if err != nil {
		upstream(c, err)
		return
	}
	Ok(c, items, paginationMeta(limit, offset, total))
}

func (h *DigestHandler) load(c *gin.Context) (*models.Digest, bool) {
	user, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	if h.Repo == nil {
		unavailable(c, "repo")
		return nil, false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return nil, false
	}
	item, err := h.Repo.GetDigestByID(c.Request.Context(), user, id)
	if err != nil {
		upstream(c, err)
		return nil, false
	}
	if item == nil {
		Error(c, http.StatusNotFound, "digest not found", nil)
		return nil, false
	}
	return item, true
}

// @Summary Get a stored digest
// @Tags digests
// @Param id path int true "digest id"
// @Success 200 {object} map[string]any
// @Router /api/v1/digests/{id} [get]
func (h *DigestHandler) get(c *gin.Context) {
	item, ok := h.load(c)
	if !ok {
		return
	}
	Ok(c, item, nil)
}

// @Summary Get a stored digest as HTML
// @Tags digests
// @Produce html
// @Param id path int true "digest id"
// @Success 200 {string} string
// @Router /api/v1/digests/{id}/html [get]
func (h *DigestHandler) html(c *gin.Context) {
	item, ok := h.load(c)
	if !ok {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(digest.ToHTML(item.Content)))
}
