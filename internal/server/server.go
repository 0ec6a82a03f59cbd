package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/mdocs/mdocs/internal/config"
	"github.com/mdocs/mdocs/internal/filestore"
	"github.com/mdocs/mdocs/internal/handler"
	"github.com/mdocs/mdocs/internal/job"
	"github.com/mdocs/mdocs/internal/middleware"
	"github.com/mdocs/mdocs/internal/schedule"
	"github.com/mdocs/mdocs/internal/service"
	"github.com/mdocs/mdocs/internal/site"
)

type httpEngine interface {
	http.Handler
	Run() error
}

type Server struct {
	cfg     *config.Config
	docs    *service.DocsService
	hub     *LivereloadHub
	watcher *Watcher
	engine  httpEngine
	search  *site.SearchRepo
}

// staticDir returns the local store output directory, empty when the
// store is not local and the built site cannot be served from disk.
func staticDir(cfg *config.Config) string {
	if !strings.EqualFold(cfg.Site.Store.Type, "local") {
		return ""
	}
	data, ok := cfg.Site.Store.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	dir, _ := data["dir"].(string)
	return dir
}

// staticSite serves the built site for anything outside the API prefix.
func staticSite(dir string) gin.HandlerFunc {
	fs := http.FileServer(http.Dir(dir))
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet || strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.Next()
			return
		}
		path := strings.TrimPrefix(c.Request.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(path))); err != nil {
			c.Next()
			return
		}
		c.Request.URL.Path = "/" + path
		fs.ServeHTTP(c.Writer, c.Request)
		c.Abort()
	}
}

func New(cfg *config.Config) (*Server, error) {
	store, err := filestore.New(cfg.Site.Store)
	if err != nil {
		return nil, fmt.Errorf("init file store: %w", err)
	}
	search, err := site.OpenSearchRepo(cfg.Search.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}

	builderOpts := []site.BuilderOption{site.WithSearchRepo(search)}
	docsOpts := []service.DocsOption{service.WithSearchRepo(search)}
	if cfg.Refman.LinkDefs != "" {
		if tags, err := site.LoadLinkDefs(cfg.Refman.LinkDefs); err == nil {
			builderOpts = append(builderOpts, site.WithTagSubstituter(tags))
			docsOpts = append(docsOpts, service.WithTagSubstituter(tags))
		}
	}
	builder := site.NewBuilder(cfg, store, builderOpts...)
	docsOpts = append(docsOpts, service.WithBuilder(builder))
	docs := service.NewDocsService(cfg, docsOpts...)

	s := &Server{
		cfg:    cfg,
		docs:   docs,
		hub:    NewLivereloadHub(),
		search: search,
	}

	interval := time.Duration(cfg.Server.WatchIntervalSec) * time.Second
	s.watcher = NewWatcher(cfg.Corpus.Dir, cfg.Corpus.Sitemap, interval, s.onCorpusChange)

	authHandler := handler.NewAuthHandler(cfg.Server)
	deps := handler.RouterDeps{
		Pages:          handler.NewPageHandler(docs),
		Site:           handler.NewSiteHandler(docs),
		Auth:           authHandler,
		Build:          handler.NewBuildHandler(docs, s.hub.NotifyBuild),
		Livereload:     s.hub.Handler,
		JWTSecret:      []byte(cfg.Server.JWTSecret),
		EditingEnabled: cfg.Server.EditingEnabled(),
	}

	extra := []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.CORS(cfg.Server.CORSOrigins),
		gzip.Gzip(gzip.DefaultCompression),
	}
	if dir := staticDir(cfg); dir != "" {
		extra = append(extra, staticSite(dir))
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Server.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(extra...),
	)
	if err != nil {
		return nil, fmt.Errorf("init web engine: %w", err)
	}
	s.engine = engine
	return s, nil
}

// onCorpusChange reacts to watcher events: cache invalidation, state
// reload and a livereload broadcast.
func (s *Server) onCorpusChange(names []string) {
	ctx := context.Background()
	s.docs.Invalidate(names)
	if err := s.docs.Reload(ctx); err != nil {
		logutil.GetLogger(ctx).Error("reload after change failed", zap.Error(err))
		return
	}
	s.hub.NotifyPages(names)
}

// Run builds the site once, then serves until the context is done.
func (s *Server) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	if _, err := s.docs.Build(ctx); err != nil {
		return fmt.Errorf("initial build: %w", err)
	}
	s.watcher.Start(ctx)
	defer s.watcher.Stop()

	if spec := s.cfg.Server.LinkCheckCron; spec != "" {
		sched := schedule.NewCronScheduler()
		if err := sched.AddJob(job.NewLinkCheckJob(s.cfg), spec); err != nil {
			return fmt.Errorf("schedule link check: %w", err)
		}
		sched.Start(ctx)
		defer sched.Stop()
	}

	logger.Info("http server listening",
		zap.Int("port", s.cfg.Server.Port),
		zap.Bool("editing", s.cfg.Server.EditingEnabled()))
	go func() {
		if err := s.engine.Run(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	return s.search.Close()
}
