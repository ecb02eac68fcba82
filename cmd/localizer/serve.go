package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/layout-localizer/backend/internal/api"
	"github.com/layout-localizer/backend/internal/archive"
	"github.com/layout-localizer/backend/internal/config"
	"github.com/layout-localizer/backend/internal/session"
	"github.com/layout-localizer/backend/internal/storage"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the conversion HTTP server",
	Long: `Run the HTTP API: upload a sheet to /api/convert and fetch the
document as JSON, MessagePack or a downloadable file. Converted elements are
archived in DuckDB when the archive is enabled.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, cfgPath, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	converter, err := newConverter(cfg)
	if err != nil {
		return err
	}

	// Interfaces stay nil when the archive is off or fails to open.
	var (
		sessionArchive session.Archive
		elementArchive api.ElementArchive
	)
	if cfg.Storage.EnableArchive {
		store, err := archive.Open(cfg.GetArchivePath(), archive.Options{
			MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
			Threads:     cfg.Advanced.DuckDBThreads,
		})
		if err != nil {
			fmt.Printf("Warning: archive disabled: %v\n", err)
		} else {
			defer store.Close()
			sessionArchive = store
			elementArchive = store
		}
	}

	sessionMgr := session.NewManager(newRegistry(cfg), converter, sessionArchive)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go runCleanup(ctx, sessionMgr, cfg)

	e := echo.New()
	e.HideBanner = true
	api.SetupMiddleware(e, api.MiddlewareOptions{
		RequestLogging:    cfg.Advanced.EnableRequestLogging,
		RequestTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		EnableCompression: cfg.Processing.EnableCompression,
		CompressionLevel:  cfg.Processing.CompressionLevel,
		BodyLimit:         cfg.Server.BodyLimit,
		EnableCORS:        cfg.Server.EnableCORS,
		AllowOrigins:      cfg.Server.AllowOrigins,
	})

	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:          fileStore,
		Conversions:    sessionMgr,
		Archive:        elementArchive,
		SheetExts:      []string{".xlsx", ".xlsm", ".csv"},
		OutputSuffix:   cfg.Conversion.OutputSuffix,
		OutputExt:      cfg.Conversion.OutputExtension,
		AllowDeletions: cfg.Security.AllowFileDeletion,
		Version:        Version,
	}))

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, cfgPath, elementArchive != nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(s)
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// runCleanup drops idle sessions until ctx is cancelled.
func runCleanup(ctx context.Context, mgr *session.Manager, cfg *config.AppConfig) {
	interval := time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute
	if interval <= 0 {
		return
	}
	maxAge := time.Duration(cfg.Processing.SessionTimeoutMinutes) * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mgr.CleanupOldSessions(maxAge)
		case <-ctx.Done():
			return
		}
	}
}

func printBanner(cfg *config.AppConfig, cfgPath string, archived bool) {
	archiveState := "disabled"
	if archived {
		archiveState = cfg.GetArchivePath()
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Layout Localizer Server                         ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %s║\n", runewidth.FillRight(cfgPath, 46))
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %s║\n", runewidth.FillRight(cfg.GetDataDir(), 46))
	fmt.Printf("║  Archive:   %s║\n", runewidth.FillRight(archiveState, 46))
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")
}
