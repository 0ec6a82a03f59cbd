package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/mdocs/mdocs/internal/pkg/response"
	"github.com/mdocs/mdocs/internal/service"
	"github.com/mdocs/mdocs/internal/site"
)

type BuildHandler struct {
	docs *service.DocsService
	// Notify runs after a successful build, the server hooks the
	// livereload broadcast in here.
	notify func(res *site.BuildResult)
}

func NewBuildHandler(docs *service.DocsService, notify func(res *site.BuildResult)) *BuildHandler {
	return &BuildHandler{docs: docs, notify: notify}
}

func (h *BuildHandler) Build(c *gin.Context) {
	res, err := h.docs.Build(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	if h.notify != nil {
		h.notify(res)
	}
	response.Success(c, gin.H{
		"build_id": res.BuildID,
		"pages":    len(res.Pages),
		"duration": res.Duration.String(),
	})
}
