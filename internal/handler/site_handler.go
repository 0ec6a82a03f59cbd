package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mdocs/mdocs/internal/pkg/errcode"
	"github.com/mdocs/mdocs/internal/pkg/response"
	"github.com/mdocs/mdocs/internal/service"
)

type SiteHandler struct {
	docs *service.DocsService
}

func NewSiteHandler(docs *service.DocsService) *SiteHandler {
	return &SiteHandler{docs: docs}
}

func (h *SiteHandler) Sitemap(c *gin.Context) {
	sitemap, err := h.docs.Sitemap(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, sitemap)
}

func (h *SiteHandler) Diagnostics(c *gin.Context) {
	response.Success(c, h.docs.Diagnostics(c.Request.Context()))
}

func (h *SiteHandler) Status(c *gin.Context) {
	response.Success(c, h.docs.Status(c.Request.Context()))
}

func (h *SiteHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		response.Error(c, errcode.ErrInvalid, "q required")
		return
	}
	limit := uint(20)
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil || n == 0 || n > 100 {
			response.Error(c, errcode.ErrInvalid, "invalid limit")
			return
		}
		limit = uint(n)
	}
	results, err := h.docs.Search(c.Request.Context(), query, limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, results)
}
