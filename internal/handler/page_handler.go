package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mdocs/mdocs/internal/pkg/errcode"
	"github.com/mdocs/mdocs/internal/pkg/response"
	"github.com/mdocs/mdocs/internal/service"
)

type PageHandler struct {
	docs *service.DocsService
}

func NewPageHandler(docs *service.DocsService) *PageHandler {
	return &PageHandler{docs: docs}
}

func (h *PageHandler) List(c *gin.Context) {
	pages, err := h.docs.ListPages(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, pages)
}

func (h *PageHandler) Get(c *gin.Context) {
	name := pageName(c)
	if name == "" {
		response.Error(c, errcode.ErrInvalid, "page name required")
		return
	}
	page, err := h.docs.GetPage(c.Request.Context(), name)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, page)
}

type updatePageRequest struct {
	Content string `json:"content"`
}

func (h *PageHandler) Update(c *gin.Context) {
	name := pageName(c)
	if name == "" {
		response.Error(c, errcode.ErrInvalid, "page name required")
		return
	}
	var req updatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.Content == "" {
		response.Error(c, errcode.ErrInvalid, "content required")
		return
	}
	if err := h.docs.UpdatePage(c.Request.Context(), name, req.Content); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}
