package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/a3tai/process-extractor/internal/acquire"
	"github.com/a3tai/process-extractor/internal/classify"
	"github.com/a3tai/process-extractor/internal/config"
	"github.com/a3tai/process-extractor/internal/descriptions"
	"github.com/a3tai/process-extractor/internal/logging"
	"github.com/a3tai/process-extractor/internal/model"
	"github.com/a3tai/process-extractor/internal/pdf/security"
	"github.com/a3tai/process-extractor/internal/report"
)

const shutdownTimeout = 5 * time.Second

// Extractor is the part of *extract.Extractor the tools use.
type Extractor interface {
	Extract(ctx context.Context, path string) *model.Result
	Classify(ctx context.Context, path string) (classify.Classification, acquire.Stats, error)
	OCRAvailable() bool
	Calibration() config.Calibration
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	extractor Extractor
	mcpServer *server.MCPServer
	paths     *security.PathValidator // nil when tool paths are unrestricted
	log       *zap.Logger

	stdin  io.Reader
	stdout io.Writer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, extractor Extractor, log *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if extractor == nil {
		return nil, errors.New("extractor cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	var paths *security.PathValidator
	if cfg.Root != "" {
		v, err := security.NewPathValidator(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("invalid root: %w", err)
		}
		paths = v
	}

	s := &Server{
		config:    cfg,
		extractor: extractor,
		mcpServer: mcpServer,
		paths:     paths,
		log:       logging.OrNop(log),
		stdin:     os.Stdin,
		stdout:    os.Stdout,
	}
	s.registerTools()
	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		"extract_process",
		mcp.WithDescription(descriptions.GetToolDescription("extract_process")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the process PDF"),
		),
		mcp.WithString("format",
			mcp.Description("Result encoding: json or yaml (server default when empty)"),
			mcp.Enum(config.FormatJSON, config.FormatYAML),
		),
		mcp.WithBoolean("summary",
			mcp.Description("Return a short human-readable digest instead of the full result"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleExtractProcess)

	classifyTool := mcp.NewTool(
		"classify_pages",
		mcp.WithDescription(descriptions.GetToolDescription("classify_pages")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the process PDF"),
		),
	)
	s.mcpServer.AddTool(classifyTool, s.handleClassifyPages)

	infoTool := mcp.NewTool(
		"extractor_info",
		mcp.WithDescription(descriptions.GetToolDescription("extractor_info")),
	)
	s.mcpServer.AddTool(infoTool, s.handleExtractorInfo)
}

func (s *Server) handleExtractProcess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.toolPath(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := request.GetString("format", s.config.Format)

	res := s.extractor.Extract(ctx, path)
	if res.Metadata.Error != nil {
		return mcp.NewToolResultError(fmt.Sprintf("could not read %s: %s", path, *res.Metadata.Error)), nil
	}

	var buf bytes.Buffer
	if request.GetBool("summary", false) {
		report.Summary(&buf, res)
		return mcp.NewToolResultText(buf.String()), nil
	}
	if err := report.Write(&buf, res, format); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleClassifyPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := s.toolPath(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cls, stats, err := s.extractor.Classify(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatClassification(cls, stats)), nil
}

// toolPath reads the required path argument, confined to the configured
// root when there is one.
func (s *Server) toolPath(request mcp.CallToolRequest) (string, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return "", err
	}
	if s.paths == nil {
		return path, nil
	}
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		s.log.Warn("tool path rejected", zap.String("path", path), zap.Error(err))
		return "", err
	}
	return resolved, nil
}

func formatClassification(cls classify.Classification, stats acquire.Stats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pages: %d (%d with text, %d read by OCR)\n", stats.Total, stats.WithText, stats.OCR)
	numbers := cls.Numbers()
	for _, cat := range model.Categories {
		pages := numbers[cat]
		if len(pages) == 0 {
			continue
		}
		strs := make([]string, len(pages))
		for i, n := range pages {
			strs[i] = fmt.Sprint(n)
		}
		fmt.Fprintf(&b, "%s: %s\n", cat, strings.Join(strs, ", "))
	}
	return b.String()
}

func (s *Server) handleExtractorInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cal := s.extractor.Calibration()

	var b strings.Builder
	fmt.Fprintf(&b, "%s v%s\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "OCR available: %t\n", s.extractor.OCRAvailable())
	fmt.Fprintf(&b, "OCR language: %s, %.0f dpi\n", cal.OCRLanguage, cal.OCRDPI)
	fmt.Fprintf(&b, "Page needs OCR at or below %d characters\n", cal.MinTextChars)
	fmt.Fprintf(&b, "Embedded images read from %dx%d px, upscaled %dx below %d px wide\n",
		cal.MinImageWidth, cal.MinImageHeight, cal.UpscaleFactor, cal.UpscaleBelowWidth)
	fmt.Fprintf(&b, "Credit-note window: %d before, %d after\n", cal.NoteWindowBefore, cal.NoteWindowAfter)
	fmt.Fprintf(&b, "Max file size: %d bytes\n", s.config.MaxFileSize)
	if s.paths != nil {
		fmt.Fprintf(&b, "Paths restricted to: %s\n", s.paths.Root())
	}
	b.WriteString("\nTools:\n")
	for _, name := range descriptions.GetAllToolNames() {
		fmt.Fprintf(&b, "• %s\n", name)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves MCP over stdin/stdout until the input closes or ctx
// is canceled.
func (s *Server) runStdioMode(ctx context.Context) error {
	s.log.Debug("starting MCP server", zap.String("transport", "stdio"))

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(s.log))
	if err := stdio.Listen(ctx, s.stdin, s.stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over HTTP with server-sent events until ctx is
// canceled.
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))
	s.log.Info("starting MCP server", zap.String("transport", "sse"), zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve sse: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := sse.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	s.log.Info("MCP server stopped")
	return nil
}
