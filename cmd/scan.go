package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/brogergvhs/genrescrape/internal/config"
	"github.com/brogergvhs/genrescrape/internal/genrecache"
	"github.com/brogergvhs/genrescrape/internal/report"
	"github.com/brogergvhs/genrescrape/internal/scan"
	"github.com/brogergvhs/genrescrape/internal/session"
	"github.com/brogergvhs/genrescrape/internal/ui"
	"github.com/brogergvhs/genrescrape/internal/util"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	// account
	flagEmail    string
	flagPassword string
	flagProfile  string
	flagBaseURL  string

	// cache
	flagFresh     bool
	flagCachePath string
	flagBackend   string

	// runtime
	flagRate        float64
	flagTimeout     time.Duration
	flagProgress    bool
	flagMetricsAddr string

	// headers
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
)

func init() {
	scanCmd := &cobra.Command{
		Use:   "scan MIN MAX",
		Short: "Scan genre numbers MIN up to (not including) MAX and print a Markdown report",
		Args:  cobra.ExactArgs(2),
		RunE:  runScan,
	}

	// account
	scanCmd.Flags().StringVarP(&flagEmail, "email", "e", "", "account email (prompted when missing)")
	scanCmd.Flags().StringVarP(&flagPassword, "password", "p", "", "account password (prompted when missing)")
	scanCmd.Flags().StringVarP(&flagProfile, "profile", "P", "", "profile to pick in the profile chooser (default: first)")
	scanCmd.Flags().StringVar(&flagBaseURL, "base-url", "", "site origin")

	// cache
	scanCmd.Flags().BoolVar(&flagFresh, "fresh", false, "clear the genre cache before scanning")
	addCacheFlags(scanCmd)

	// runtime
	scanCmd.Flags().Float64Var(&flagRate, "rate", 0, "max requests per second (0 = unlimited)")
	scanCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per request timeout (0 = none)")
	scanCmd.Flags().BoolVar(&flagProgress, "progress", false, "draw a progress bar on stderr")
	scanCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")

	// headers
	scanCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	scanCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	scanCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")

	rootCmd.AddCommand(scanCmd)
}

func addCacheFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagCachePath, "cache", "", "genre cache location")
	cmd.Flags().StringVar(&flagBackend, "backend", "", "genre cache backend (badger or sqlite)")
}

func parseRange(args []string) (int, int, error) {
	lo, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid MIN %q: %w", args[0], err)
	}
	hi, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid MAX %q: %w", args[1], err)
	}
	return lo, hi, nil
}

func openCacheFunc(cfg *config.Config) func() (genrecache.Store, error) {
	return func() (genrecache.Store, error) {
		backend, err := genrecache.ParseBackend(cfg.CacheBackend)
		if err != nil {
			return nil, err
		}
		return genrecache.Open(backend, cfg.CachePath)
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	lo, hi, err := parseRange(args)
	if err != nil {
		return err
	}

	cfg, usedPath, err := loadConfig(config.Config{
		Email:        flagEmail,
		Password:     flagPassword,
		Profile:      flagProfile,
		BaseURL:      flagBaseURL,
		CachePath:    flagCachePath,
		CacheBackend: flagBackend,
		UserAgent:    flagUserAgent,
		Cookie:       flagCookie,
		CookieFile:   flagCookieFile,
		Timeout:      flagTimeout,
		RateLimit:    flagRate,
		Progress:     flagProgress,
		MetricsAddr:  flagMetricsAddr,
	})
	if err != nil {
		return err
	}

	log := newLogger(cmd, cfg)
	log.Debugf("Config file: %s", usedPath)

	if cfg.Email == "" {
		if cfg.Email, err = ui.PromptEmail(); err != nil {
			return err
		}
	}
	if cfg.Password == "" {
		if cfg.Password, err = ui.PromptPassword(); err != nil {
			return err
		}
	}

	client, err := util.NewSessionClient(util.SessionClientOptions{
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		UserAgent:  cfg.UserAgent,
		Cookie:     cfg.Cookie,
		CookieFile: cfg.CookieFile,
		Logger:     log,
	})
	if err != nil {
		return err
	}

	nav, err := session.New(session.Options{
		BaseURL:     cfg.BaseURL,
		LoginPath:   cfg.LoginPath,
		Credentials: session.Credentials{Email: cfg.Email, Password: cfg.Password},
		Profile:     cfg.Profile,
		HTTPClient:  client,
		RateLimit:   cfg.RateLimit,
		Logger:      log,
	})
	if err != nil {
		return err
	}

	ctx, stop := util.WithInterrupt(cmd.Context())
	defer stop()

	metrics := scan.NewMetrics()
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, metrics, log)
		defer shutdown()
	}

	// fail on bad credentials or profile before printing anything
	if _, err := nav.Login(ctx); err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var progress *ui.ScanProgress
	if cfg.Progress && hi > lo {
		progress = ui.NewScanProgress(cmd.ErrOrStderr(), hi-lo)
	}

	scanner := scan.New(scan.Config{
		Fetcher:   nav,
		OpenCache: openCacheFunc(cfg),
		Logger:    log,
		Metrics:   metrics,
		Progress:  progressOrNil(progress),
	})

	started := time.Now()
	out := report.NewWriter(cmd.OutOrStdout())
	out.Header(lo, hi)

	var scanErr error
	for res, err := range scanner.Scan(ctx, scan.Options{Min: lo, Max: hi, Fresh: flagFresh}) {
		if err != nil {
			scanErr = err
			break
		}
		out.Entry(res)
	}

	if progress != nil {
		progress.Close()
	}
	if errors.Is(scanErr, context.Canceled) {
		log.Warnf("Scan interrupted.")
		scanErr = nil
	}

	out.Footer(started)

	stats := scanner.Stats()
	log.Infof("Scan summary: found=%d cached=%d absent=%d skipped=%d failed=%d",
		stats.Found.Load(), stats.Cached.Load(), stats.Absent.Load(), stats.Skipped.Load(), stats.Failed.Load())

	return errors.Join(scanErr, out.Err())
}

// progressOrNil keeps a nil *ScanProgress from becoming a non-nil interface.
func progressOrNil(p *ui.ScanProgress) scan.Progress {
	if p == nil {
		return nil
	}
	return p
}

func serveMetrics(addr string, metrics *scan.Metrics, log *ui.Logger) func() {
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Slog().Error("metrics server failed", slog.Any("error", err))
		}
	}()
	log.Slog().Info("metrics server enabled", slog.String("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Slog().Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}
