package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/mdocs/mdocs/internal/config"
	"github.com/mdocs/mdocs/internal/filestore"
	"github.com/mdocs/mdocs/internal/handler"
	"github.com/mdocs/mdocs/internal/middleware"
	"github.com/mdocs/mdocs/internal/pkg/password"
	"github.com/mdocs/mdocs/internal/service"
	"github.com/mdocs/mdocs/internal/site"
	"github.com/mdocs/mdocs/test/testutil"
)

const adminPassword = "secret"

func setupRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testutil.WriteCorpus(t)
	hash, err := password.Hash(adminPassword)
	require.NoError(t, err)
	cfg.Server = config.ServerConfig{
		JWTSecret:         "test-secret",
		JWTTTLHours:       1,
		AdminPasswordHash: hash,
	}

	store, err := filestore.New(cfg.Site.Store)
	require.NoError(t, err)
	search, err := site.OpenSearchRepo(cfg.Search.DBPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = search.Close() })

	builder := site.NewBuilder(cfg, store, site.WithSearchRepo(search))
	docs := service.NewDocsService(cfg,
		service.WithBuilder(builder),
		service.WithSearchRepo(search),
	)
	_, err = docs.Build(context.Background())
	require.NoError(t, err)

	deps := handler.RouterDeps{
		Pages:          handler.NewPageHandler(docs),
		Site:           handler.NewSiteHandler(docs),
		Auth:           handler.NewAuthHandler(cfg.Server),
		Build:          handler.NewBuildHandler(docs, nil),
		JWTSecret:      []byte(cfg.Server.JWTSecret),
		EditingEnabled: cfg.Server.EditingEnabled(),
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return engine, cfg
}
