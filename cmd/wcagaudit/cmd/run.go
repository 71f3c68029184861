package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hmarchand/wcagaudit/internal/audit"
	"github.com/hmarchand/wcagaudit/internal/config"
	"github.com/hmarchand/wcagaudit/internal/control"
	"github.com/hmarchand/wcagaudit/internal/events"
	"github.com/hmarchand/wcagaudit/internal/plan"
	"github.com/hmarchand/wcagaudit/internal/reporters"
	"github.com/hmarchand/wcagaudit/internal/web"
)

var runCmd = &cobra.Command{
	Use:   "run [url...]",
	Short: "Audit pages against the criteria grid",
	Long: `Run an audit session over the given pages. Pages come from arguments,
the --plan file, or the configuration. Reports are written after every
page and finalized when the session completes.`,
	RunE: runAudit,
}

var (
	runPlanFile string
	runResume   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runPlanFile, "plan", "f", "", "audit plan file (pages and criteria)")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "resume from the last checkpoint")
	runCmd.Flags().StringP("out", "o", "", "report output path (without extension)")
	runCmd.Flags().Bool("fail-fast", false, "abort the session on the first page failure")
	runCmd.Flags().Int("batch-size", 0, "criteria per review batch")
	runCmd.Flags().Bool("web", false, "serve the status/control API while auditing")
	runCmd.Flags().String("web-addr", "", "status/control API listen address")

	_ = flagViper.BindPFlag("report.path", runCmd.Flags().Lookup("out"))
	_ = flagViper.BindPFlag("audit.fail_fast", runCmd.Flags().Lookup("fail-fast"))
	_ = flagViper.BindPFlag("audit.batch_size", runCmd.Flags().Lookup("batch-size"))
	_ = flagViper.BindPFlag("web.enabled", runCmd.Flags().Lookup("web"))
	_ = flagViper.BindPFlag("web.addr", runCmd.Flags().Lookup("web-addr"))
}

func runAudit(cmd *cobra.Command, args []string) error {
	p, err := resolvePlan(appConfig, args)
	if err != nil {
		return err
	}
	return executeSession(cmd.Context(), appConfig, p, runResume)
}

// resolvePlan picks the page list: explicit arguments win, then the plan
// file, then configured pages.
func resolvePlan(cfg *config.Config, args []string) (*plan.Plan, error) {
	if len(args) > 0 {
		return plan.New(args)
	}
	planFile := runPlanFile
	if planFile == "" {
		planFile = cfg.Audit.PlanFile
	}
	if planFile != "" {
		return plan.Load(planFile)
	}
	if len(cfg.Audit.Pages) > 0 {
		return plan.New(cfg.Audit.Pages)
	}
	return nil, fmt.Errorf("no pages to audit: pass URLs, use --plan, or set audit.pages")
}

func executeSession(parent context.Context, cfg *config.Config, p *plan.Plan, resume bool) error {
	logger := appLogger

	// Plan-level report settings take precedence over the configuration.
	if p.Lang != "" {
		cfg.Report.Lang = p.Lang
	}
	if p.Output != "" {
		cfg.Report.Path = p.Output
	}

	deps, cleanup, err := buildDeps(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	plane := control.New()
	bus := events.New(256)
	defer bus.Close()
	deps.Plane = plane
	deps.Bus = bus
	deps.Logger = logger

	session := audit.NewSession(audit.Config{
		BatchSize:  cfg.Audit.BatchSize,
		CacheSize:  cfg.Audit.CacheSize,
		FailFast:   cfg.Audit.FailFast,
		Enrichment: cfg.Audit.Enrichment,
		Resume:     resume,
		ReportLang: cfg.Report.Lang,
		OutPath:    cfg.Report.Path,
	}, p.Pages, p.Criteria, deps)
	session.AddObserver(reporters.NewConsole(verbose))

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("interrupt received, stopping after the current step")
			plane.Cancel()
			plane.Resume()
		case <-ctx.Done():
			return
		}
		select {
		case <-sigCh:
			logger.Warn("second interrupt, aborting")
			cancel()
		case <-ctx.Done():
		}
	}()

	if cfg.Control.PauseFile != "" {
		watcher, err := control.NewPauseFileWatcher(cfg.Control.PauseFile, plane, logger.Logger)
		if err != nil {
			return fmt.Errorf("watching pause file: %w", err)
		}
		defer watcher.Close()
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Web.Enabled {
		webCfg := web.DefaultConfig()
		if cfg.Web.Addr != "" {
			webCfg.Addr = cfg.Web.Addr
		}
		srv := web.New(webCfg, session, plane, bus, logger)
		g.Go(func() error { return srv.Start(gctx) })
	}

	g.Go(func() error {
		// Releases the web server once the session is over.
		defer cancel()
		return session.Run(gctx)
	})

	return g.Wait()
}
