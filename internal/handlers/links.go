package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"linksnap/internal/models"
	"linksnap/internal/services"

	"github.com/gin-gonic/gin"
)

type CreateLinkRequest struct {
	TargetURL string     `json:"target_url" binding:"required"`
	Title     string     `json:"title,omitempty"`
	Slug      string     `json:"slug,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type UpdateLinkRequest struct {
	TargetURL   *string    `json:"target_url,omitempty"`
	Title       *string    `json:"title,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	ClearExpiry bool       `json:"clear_expiry,omitempty"`
}

func (h *Handler) linkPayload(link *models.Link) gin.H {
	return gin.H{
		"link":      link,
		"short_url": link.ShortURL(h.cfg.AppURL),
		"qr_url":    fmt.Sprintf("%s/api/v1/links/%d/qr", h.cfg.AppURL, link.ID),
	}
}

func (h *Handler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusUnprocessableEntity, nil, err.Error())
		return
	}

	link, err := h.links.Create(c.Request.Context(), services.CreateLinkInput{
		UserID:    currentUserID(c),
		TargetURL: req.TargetURL,
		Title:     req.Title,
		Slug:      req.Slug,
		ExpiresAt: req.ExpiresAt,
		IPAddress: c.ClientIP(),
	})
	if err != nil {
		h.fail(c, err, "create link")
		return
	}

	respond(c, http.StatusCreated, h.linkPayload(link), "link created")
}

func (h *Handler) ListLinks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	links, total, err := h.links.List(c.Request.Context(), services.ListLinksInput{
		UserID:  currentUserID(c),
		Page:    page,
		PerPage: perPage,
		Status:  c.Query("status"),
		Keyword: c.Query("q"),
		SortBy:  c.Query("sort"),
		SortDir: c.Query("dir"),
	})
	if err != nil {
		h.fail(c, err, "list links")
		return
	}

	items := make([]gin.H, 0, len(links))
	for i := range links {
		items = append(items, h.linkPayload(&links[i]))
	}

	respond(c, http.StatusOK, gin.H{
		"items":    items,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	}, "")
}

func (h *Handler) GetLink(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respond(c, http.StatusNotFound, nil, "not found")
		return
	}

	link, err := h.links.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		h.fail(c, err, "get link")
		return
	}
	respond(c, http.StatusOK, h.linkPayload(link), "")
}

func (h *Handler) UpdateLink(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respond(c, http.StatusNotFound, nil, "not found")
		return
	}

	var req UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusUnprocessableEntity, nil, err.Error())
		return
	}

	link, err := h.links.Update(c.Request.Context(), currentUserID(c), id, services.UpdateLinkInput{
		TargetURL:   req.TargetURL,
		Title:       req.Title,
		ExpiresAt:   req.ExpiresAt,
		ClearExpiry: req.ClearExpiry,
	})
	if err != nil {
		h.fail(c, err, "update link")
		return
	}
	respond(c, http.StatusOK, h.linkPayload(link), "link updated")
}

func (h *Handler) DeleteLink(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respond(c, http.StatusNotFound, nil, "not found")
		return
	}

	if err := h.links.Delete(c.Request.Context(), currentUserID(c), id, c.ClientIP()); err != nil {
		h.fail(c, err, "delete link")
		return
	}
	respond(c, http.StatusOK, nil, "link deleted")
}

type BulkDeleteRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

func (h *Handler) BulkDeleteLinks(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusUnprocessableEntity, nil, err.Error())
		return
	}

	deleted, err := h.links.BulkDelete(c.Request.Context(), currentUserID(c), req.IDs, c.ClientIP())
	if err != nil {
		h.fail(c, err, "bulk delete links")
		return
	}
	respond(c, http.StatusOK, gin.H{"deleted": deleted}, "")
}

func (h *Handler) ExportLinks(c *gin.Context) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="links.csv"`)
	if err := h.links.ExportCSV(c.Request.Context(), currentUserID(c), h.cfg.AppURL, c.Writer); err != nil {
		h.logger.Error("Link export failed", "user_id", currentUserID(c), "error", err)
	}
}

func (h *Handler) LinkQRCode(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		respond(c, http.StatusNotFound, nil, "not found")
		return
	}

	link, err := h.links.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		h.fail(c, err, "link qr")
		return
	}

	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	png, err := h.qr.GeneratePNG(link.ShortURL(h.cfg.AppURL), size)
	if err != nil {
		h.fail(c, err, "link qr")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func paramID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
