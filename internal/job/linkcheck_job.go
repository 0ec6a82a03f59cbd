package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mdocs/mdocs/internal/config"
	"github.com/mdocs/mdocs/internal/corpus"
	"github.com/mdocs/mdocs/internal/linkcheck"
)

// LinkCheckJob sweeps every external link in the corpus on a schedule
// so dead links surface without waiting for a manual run.
type LinkCheckJob struct {
	cfg *config.Config
}

func NewLinkCheckJob(cfg *config.Config) *LinkCheckJob {
	return &LinkCheckJob{cfg: cfg}
}

func (j *LinkCheckJob) Name() string {
	return "linkcheck"
}

func (j *LinkCheckJob) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	c, err := corpus.Load(ctx, corpus.LoadConfig{
		Dir:    j.cfg.Corpus.Dir,
		Ignore: j.cfg.Corpus.Ignore,
	})
	if err != nil {
		return err
	}
	links := linkcheck.CollectLinks(c, nil)
	if len(links) == 0 {
		return nil
	}

	opts := []linkcheck.Option{
		linkcheck.WithWorkers(j.cfg.LinkCheck.Workers),
		linkcheck.WithTimeout(time.Duration(j.cfg.LinkCheck.TimeoutSec) * time.Second),
		linkcheck.WithExcludes(j.cfg.LinkCheck.Exclude),
	}
	if j.cfg.LinkCheck.CachePath != "" {
		cache, err := linkcheck.OpenCache(j.cfg.LinkCheck.CachePath, time.Duration(j.cfg.LinkCheck.CacheTTLHours)*time.Hour)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts = append(opts, linkcheck.WithCache(cache))
	}

	failures := linkcheck.NewChecker(opts...).Check(ctx, links)
	for _, f := range failures {
		logger.Warn("dead link", zap.String("failure", f.String()))
	}
	logger.Info("link sweep done",
		zap.Int("links", len(links)),
		zap.Int("failures", len(failures)))
	return nil
}
