package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/process-extractor/internal/acquire"
	"github.com/a3tai/process-extractor/internal/config"
	"github.com/a3tai/process-extractor/internal/extract"
	"github.com/a3tai/process-extractor/internal/logging"
	"github.com/a3tai/process-extractor/internal/mcp"
	"github.com/a3tai/process-extractor/internal/model"
	"github.com/a3tai/process-extractor/internal/ocr"
	"github.com/a3tai/process-extractor/internal/pdf"
	"github.com/a3tai/process-extractor/internal/report"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// documentExtractor is what batch mode needs from *extract.Extractor.
type documentExtractor interface {
	Extract(ctx context.Context, path string) *model.Result
}

// setupLogging builds the logger. Logs always go to stderr so stdout stays
// free for results and for the MCP stdio protocol.
func setupLogging(cfg *config.Config) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
		Console: os.Stderr,
		Dev:     cfg.IsDebug() || cfg.IsBatchMode(),
	})
}

func newEngine(cfg *config.Config, log *zap.Logger) ocr.Engine {
	if !cfg.OCR {
		return ocr.Noop{Reason: "disabled by configuration"}
	}
	return ocr.Probe(cfg.Calibration.OCRLanguage, log)
}

// newExtractor returns a factory of extractors sharing one OCR engine. Each
// extractor owns its page renderer.
func newExtractor(cfg *config.Config, engine ocr.Engine, validator *pdf.Validator, log *zap.Logger) func() *extract.Extractor {
	return func() *extract.Extractor {
		reader := acquire.New(cfg.Calibration, acquire.WithEngine(engine), acquire.WithLogger(log))
		return extract.New(cfg.Calibration,
			extract.WithReader(reader),
			extract.WithValidator(validator),
			extract.WithLogger(log))
	}
}

// runBatch extracts every input with at most cfg.Workers documents in
// flight. With an output directory each result goes to its own file and a
// summary is printed to summaryOut; otherwise results are written to out
// in input order.
func runBatch(ctx context.Context, cfg *config.Config, factory func() documentExtractor, out, summaryOut io.Writer, log *zap.Logger) error {
	results := make([]*model.Result, len(cfg.Inputs))
	var failed atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, path := range cfg.Inputs {
		g.Go(func() error {
			res := factory().Extract(gctx, path)
			if res.Metadata.Error != nil {
				failed.Add(1)
			}
			results[i] = res
			if cfg.OutputDir == "" {
				return nil
			}
			return writeResult(cfg, path, res, log)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, res := range results {
		if cfg.OutputDir != "" {
			if summaryOut != nil {
				report.Summary(summaryOut, res)
			}
			continue
		}
		if err := report.Write(out, res, cfg.Format); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
	}

	if n := failed.Load(); n > 0 {
		return fmt.Errorf("%d of %d documents could not be read", n, len(cfg.Inputs))
	}
	return nil
}

func writeResult(cfg *config.Config, input string, res *model.Result, log *zap.Logger) error {
	path := report.OutputPath(cfg.OutputDir, input, cfg.Format)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := report.Write(f, res, cfg.Format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	log.Info("result written", zap.String("input", input), zap.String("output", path))
	return nil
}

// runServer handles the MCP modes. In server mode a signal triggers a
// graceful shutdown; in stdio mode the parent process controls our
// lifecycle through stdin.
func runServer(ctx context.Context, server *mcp.Server, log *zap.Logger) error {
	if err := server.Run(ctx); err != nil {
		log.Error("server error", zap.Error(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 2
	}
	if version != "dev" {
		cfg.Version = version
	}

	log, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 2
	}
	defer func() { _ = log.Sync() }()
	log.Debug("starting", zap.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	validator := pdf.NewValidator(cfg.MaxFileSize)
	factory := newExtractor(cfg, newEngine(cfg, log), validator, log)

	if cfg.IsBatchMode() {
		if cfg.Inputs, err = validator.ExpandInputs(cfg.Inputs); err != nil {
			log.Error("cannot list inputs", zap.Error(err))
			return 2
		}
		err := runBatch(ctx, cfg, func() documentExtractor { return factory() }, os.Stdout, os.Stderr, log)
		if err != nil {
			log.Error("batch finished with errors", zap.Error(err))
			return 1
		}
		return 0
	}

	server, err := mcp.NewServer(cfg, factory(), log)
	if err != nil {
		log.Error("failed to create MCP server", zap.Error(err))
		return 1
	}
	if err := runServer(ctx, server, log); err != nil {
		return 1
	}
	return 0
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Process Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
