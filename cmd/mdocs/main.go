package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/mdocs/mdocs/internal/config"
	"github.com/mdocs/mdocs/internal/corpus"
	"github.com/mdocs/mdocs/internal/filestore"
	"github.com/mdocs/mdocs/internal/lint"
	"github.com/mdocs/mdocs/internal/linkcheck"
	"github.com/mdocs/mdocs/internal/model"
	"github.com/mdocs/mdocs/internal/pkg/password"
	"github.com/mdocs/mdocs/internal/refman"
	"github.com/mdocs/mdocs/internal/relnotes"
	"github.com/mdocs/mdocs/internal/server"
	"github.com/mdocs/mdocs/internal/site"
)

var configPath string

// loadConfig reads the config file named by --config or MDOCS_CONFIG
// and initializes logging from it.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("MDOCS_CONFIG")
	}
	if path == "" {
		path = "mdocs.json"
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	return cfg, nil
}

func loadCorpus(ctx context.Context, cfg *config.Config) (*corpus.Corpus, *model.Sitemap, error) {
	c, err := corpus.Load(ctx, corpus.LoadConfig{Dir: cfg.Corpus.Dir, Ignore: cfg.Corpus.Ignore})
	if err != nil {
		return nil, nil, err
	}
	raw, err := os.ReadFile(cfg.Corpus.Sitemap)
	if err != nil {
		return nil, nil, fmt.Errorf("read sitemap: %w", err)
	}
	sitemap, err := corpus.ParseSitemap(raw)
	if err != nil {
		return nil, nil, err
	}
	return c, sitemap, nil
}

func lintOptions(cfg *config.Config) lint.Options {
	opts := lint.Options{Ignore: cfg.Corpus.Ignore}
	if cfg.Refman.LinkDefs != "" {
		if tags, err := site.LoadLinkDefs(cfg.Refman.LinkDefs); err == nil {
			opts.LinkDefs = tags.Defs()
		}
	}
	return opts
}

func printDiagnostics(diags []model.Diagnostic) {
	for _, d := range diags {
		fmt.Printf("%s:%d: [%s] %s\n", d.Page, d.Line, d.Rule, d.Message)
	}
}

func buildCmd() *cobra.Command {
	var outDir string
	var strict bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "build the documentation site",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if outDir != "" {
				cfg.Site.Store = config.FileStoreConfig{
					Type: "local",
					Data: map[string]interface{}{"dir": outDir},
				}
			}
			store, err := filestore.New(cfg.Site.Store)
			if err != nil {
				return fmt.Errorf("init file store: %w", err)
			}
			opts := []site.BuilderOption{}
			if cfg.Refman.LinkDefs != "" {
				if tags, err := site.LoadLinkDefs(cfg.Refman.LinkDefs); err == nil {
					opts = append(opts, site.WithTagSubstituter(tags))
				}
			}
			search, err := site.OpenSearchRepo(cfg.Search.DBPath)
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			defer search.Close()
			opts = append(opts, site.WithSearchRepo(search))

			res, err := site.NewBuilder(cfg, store, opts...).Build(cmd.Context())
			if err != nil {
				return err
			}
			printDiagnostics(res.Diagnostics)
			fmt.Printf("built %d pages in %s (build %s)\n", len(res.Pages), res.Duration.Round(time.Millisecond), res.BuildID)
			if strict && model.HasErrors(res.Diagnostics) {
				return fmt.Errorf("lint errors present")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "write the site to this directory instead of the configured store")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail the build on lint errors")
	return cmd
}

func lintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "validate the corpus and sitemap",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c, sitemap, err := loadCorpus(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			diags := lint.Run(cmd.Context(), c, sitemap, lintOptions(cfg))
			printDiagnostics(diags)
			if model.HasErrors(diags) {
				return fmt.Errorf("%d problems found", len(diags))
			}
			return nil
		},
	}
}

func checkLinksCmd() *cobra.Command {
	var noCache bool
	var workers int
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "checklinks [files...]",
		Short: "validate external links",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c, _, err := loadCorpus(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			links := linkcheck.CollectLinks(c, args)
			if len(links) == 0 {
				return nil
			}
			if workers <= 0 {
				workers = cfg.LinkCheck.Workers
			}
			if timeout <= 0 {
				timeout = time.Duration(cfg.LinkCheck.TimeoutSec) * time.Second
			}
			opts := []linkcheck.Option{
				linkcheck.WithWorkers(workers),
				linkcheck.WithTimeout(timeout),
				linkcheck.WithExcludes(cfg.LinkCheck.Exclude),
			}
			if !noCache && cfg.LinkCheck.CachePath != "" {
				cache, err := linkcheck.OpenCache(cfg.LinkCheck.CachePath, time.Duration(cfg.LinkCheck.CacheTTLHours)*time.Hour)
				if err != nil {
					return err
				}
				defer cache.Close()
				opts = append(opts, linkcheck.WithCache(cache))
			}
			failures := linkcheck.NewChecker(opts...).Check(cmd.Context(), links)
			for _, f := range failures {
				fmt.Println(f.String())
			}
			fmt.Printf("checked %d links, %d failed\n", len(links), len(failures))
			if len(failures) > 0 {
				return fmt.Errorf("%d dead links", len(failures))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "skip the result cache")
	cmd.Flags().IntVar(&workers, "workers", 0, "number of concurrent fetches")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall check timeout")
	return cmd
}

func refmanCmd() *cobra.Command {
	var generatorName string
	var yamlDir string
	var sitemapIn string
	var sitemapOut string
	var out string
	var linkDefs string
	var depfile string
	var noModules bool
	var loaderName string
	var manualVersion string
	cmd := &cobra.Command{
		Use:   "refman",
		Short: "generate the reference manual from yaml sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yamlDir == "" {
				cfg, err := loadConfig()
				if err != nil {
					return fmt.Errorf("-i or a config with refman.yaml_dir is required: %w", err)
				}
				yamlDir = cfg.Refman.YamlDir
				if linkDefs == "" {
					linkDefs = cfg.Refman.LinkDefs
				}
				noModules = noModules || !cfg.Refman.EnableModules
			} else {
				logger.Init("", "info", 0, 0, 0, true)
			}
			if yamlDir == "" {
				return fmt.Errorf("no yaml source directory")
			}
			switch loaderName {
			case "yaml", "fastyaml":
			default:
				return fmt.Errorf("unknown loader: %s", loaderName)
			}

			loader := refman.NewLoader(yamlDir, loaderName == "yaml")
			manual, err := loader.Load(cmd.Context())
			if err != nil {
				return err
			}
			if err := refman.Resolve(manual); err != nil {
				return err
			}

			if sitemapOut == "" {
				sitemapOut = sitemapIn
			}
			var target string
			switch generatorName {
			case "md":
				opts := []refman.MDOption{refman.WithModules(!noModules)}
				if linkDefs != "" {
					opts = append(opts, refman.WithLinkDefs(linkDefs))
				}
				gen := refman.NewGeneratorMD(manual, out, sitemapIn, sitemapOut, opts...)
				if err := gen.Generate(cmd.Context()); err != nil {
					return err
				}
				target = sitemapOut
			case "json":
				if err := refman.NewGeneratorJSON(manual, out, manualVersion).Generate(); err != nil {
					return err
				}
				target = out
			case "types":
				if err := refman.NewGeneratorTypes(manual, out, !noModules).Generate(); err != nil {
					return err
				}
				target = out
			case "print":
				return refman.NewGeneratorPrint(manual).Generate(cmd.Context())
			default:
				return fmt.Errorf("unknown generator: %s", generatorName)
			}

			if depfile != "" {
				if err := refman.WriteDepfile(depfile, target, loader.InputFiles()); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&generatorName, "generator", "g", "md", "generator to use (md, json, types, print)")
	cmd.Flags().StringVarP(&yamlDir, "input", "i", "", "yaml source directory")
	cmd.Flags().StringVarP(&sitemapIn, "sitemap", "s", "", "input sitemap with the placeholder line")
	cmd.Flags().StringVar(&sitemapOut, "sitemap-out", "", "output sitemap (defaults to the input)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (md) or file (json, types)")
	cmd.Flags().StringVar(&linkDefs, "link-defs", "", "write the tag link definitions json here")
	cmd.Flags().StringVar(&depfile, "depfile", "", "write a make-style depfile here")
	cmd.Flags().BoolVar(&noModules, "no-modules", false, "skip module documentation")
	cmd.Flags().StringVar(&loaderName, "loader", "yaml", "yaml loader (yaml, fastyaml)")
	cmd.Flags().StringVar(&manualVersion, "manual-version", "", "version stamped into the json output")
	return cmd
}

func relnotesCmd() *cobra.Command {
	var stage bool
	cmd := &cobra.Command{
		Use:   "relnotes [from to]",
		Short: "assemble release notes from snippets",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			in := relnotes.GenerateInput{
				SnippetsDir: cfg.Corpus.SnippetsDir,
				MarkdownDir: cfg.Corpus.Dir,
				SitemapPath: cfg.Corpus.Sitemap,
				Stage:       stage,
			}
			if len(args) == 2 {
				in.FromVersion = args[0]
				in.ToVersion = args[1]
			} else if len(args) == 1 {
				return fmt.Errorf("either no versions or both from and to")
			}
			res, err := relnotes.Generate(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Printf("wrote %s (%s -> %s, %d snippets)\n", res.NotesFile, res.FromVersion, res.ToVersion, len(res.Snippets))
			return nil
		},
	}
	cmd.Flags().BoolVar(&stage, "stage", false, "stage the changes with git")
	return cmd
}

func searchCmd() *cobra.Command {
	var limit uint
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "query the site search index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, err := site.OpenSearchRepo(cfg.Search.DBPath)
			if err != nil {
				return fmt.Errorf("open search index: %w", err)
			}
			defer repo.Close()
			results, err := repo.Search(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%s\t%s\t%s\n", r.Name, r.Title, r.Snippet)
			}
			return nil
		},
	}
	cmd.Flags().UintVar(&limit, "limit", 20, "maximum number of results")
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "serve the site with preview, editing and livereload",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logutil.GetLogger(context.Background()).Info("starting server",
				zap.Int("port", cfg.Server.Port),
				zap.String("corpus", cfg.Corpus.Dir),
				zap.String("store", cfg.Site.Store.Type))

			srv, err := server.New(cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}

func hashpwCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hashpw <password>",
		Short: "hash an admin password for the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := password.Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}
}

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "mdocs",
		Short:         "toolchain for markdown documentation corpora",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to mdocs.json")
	rootCmd.AddCommand(
		buildCmd(),
		lintCmd(),
		checkLinksCmd(),
		refmanCmd(),
		relnotesCmd(),
		searchCmd(),
		serveCmd(),
		hashpwCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}
