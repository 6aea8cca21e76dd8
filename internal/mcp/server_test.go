package mcp

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/process-extractor/internal/acquire"
	"github.com/a3tai/process-extractor/internal/classify"
	"github.com/a3tai/process-extractor/internal/config"
	"github.com/a3tai/process-extractor/internal/model"
)

type fakeExtractor struct {
	result *model.Result
	cls    classify.Classification
	stats  acquire.Stats
	err    error
	paths  []string
}

func (f *fakeExtractor) Extract(_ context.Context, path string) *model.Result {
	f.paths = append(f.paths, path)
	return f.result
}

func (f *fakeExtractor) Classify(_ context.Context, path string) (classify.Classification, acquire.Stats, error) {
	f.paths = append(f.paths, path)
	return f.cls, f.stats, f.err
}

func (f *fakeExtractor) OCRAvailable() bool { return false }

func (f *fakeExtractor) Calibration() config.Calibration { return config.DefaultCalibration() }

func testConfig(mode string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Mode = mode
	cfg.ServerName = "test-server"
	cfg.Version = "1.0.0"
	return cfg
}

func sampleResult() *model.Result {
	res := model.NewResult()
	res.Metadata.SourceFile = "processo.pdf"
	res.Identification.NUP = model.Str("64123.000123/2025-11")
	return res
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func newTestServer(t *testing.T, ex Extractor) *Server {
	t.Helper()
	s, err := NewServer(testConfig(config.ModeStdio), ex, nil)
	require.NoError(t, err)
	return s
}

func TestNewServer(t *testing.T) {
	ex := &fakeExtractor{}
	tests := []struct {
		name    string
		cfg     *config.Config
		ex      Extractor
		wantErr string
	}{
		{"stdio mode", testConfig(config.ModeStdio), ex, ""},
		{"server mode", testConfig(config.ModeServer), ex, ""},
		{"nil config", nil, ex, "config cannot be nil"},
		{"nil extractor", testConfig(config.ModeStdio), nil, "extractor cannot be nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewServer(tt.cfg, tt.ex, nil)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s.mcpServer)
			assert.Same(t, tt.cfg, s.config)
		})
	}
}

func TestHandleExtractProcess(t *testing.T) {
	ex := &fakeExtractor{result: sampleResult()}
	s := newTestServer(t, ex)

	res, err := s.handleExtractProcess(context.Background(), callRequest(map[string]any{"path": "/data/processo.pdf"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	text := extractTextFromResult(res)
	assert.Contains(t, text, `"nup": "64123.000123/2025-11"`)
	assert.Equal(t, []string{"/data/processo.pdf"}, ex.paths)

	res, err = s.handleExtractProcess(context.Background(), callRequest(map[string]any{"path": "p.pdf", "format": "yaml"}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(res), "nup: 64123.000123/2025-11")

	res, err = s.handleExtractProcess(context.Background(), callRequest(map[string]any{"path": "p.pdf", "summary": true}))
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(res), "NUP")
}

func TestHandleExtractProcessErrors(t *testing.T) {
	failed := model.NewResult()
	failed.Metadata.Error = model.Str("open: open: not a PDF")
	s := newTestServer(t, &fakeExtractor{result: failed})

	res, err := s.handleExtractProcess(context.Background(), callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError, "missing path")

	res, err = s.handleExtractProcess(context.Background(), callRequest(map[string]any{"path": "x.pdf"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, extractTextFromResult(res), "not a PDF")
}

func TestHandleClassifyPages(t *testing.T) {
	ex := &fakeExtractor{
		cls: classify.Classification{
			model.CategoryCover:       {{Number: 1}},
			model.CategoryCreditNote:  {{Number: 3}, {Number: 4}},
			model.CategoryRequisition: {{Number: 2}},
		},
		stats: acquire.Stats{Total: 4, WithText: 4},
	}
	s := newTestServer(t, ex)

	res, err := s.handleClassifyPages(context.Background(), callRequest(map[string]any{"path": "p.pdf"}))
	require.NoError(t, err)
	assert.Equal(t,
		"Pages: 4 (4 with text, 0 read by OCR)\ncover: 1\nrequisition: 2\ncredit_note: 3, 4\n",
		extractTextFromResult(res))

	ex.err = errors.New("open: open: broken")
	res, err = s.handleClassifyPages(context.Background(), callRequest(map[string]any{"path": "p.pdf"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleExtractorInfo(t *testing.T) {
	s := newTestServer(t, &fakeExtractor{})
	res, err := s.handleExtractorInfo(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	text := extractTextFromResult(res)
	assert.Contains(t, text, "test-server v1.0.0")
	assert.Contains(t, text, "OCR available: false")
	assert.Contains(t, text, "OCR language: por, 300 dpi")
	assert.Contains(t, text, "• extract_process")
}

func TestToolPathConfinedToRoot(t *testing.T) {
	root := t.TempDir()
	cfg := testConfig(config.ModeStdio)
	cfg.Root = root
	ex := &fakeExtractor{result: sampleResult()}
	s, err := NewServer(cfg, ex, nil)
	require.NoError(t, err)
	base := s.paths.Root()

	res, err := s.handleExtractProcess(context.Background(), callRequest(map[string]any{"path": "2025/processo.pdf"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = s.handleClassifyPages(context.Background(), callRequest(map[string]any{"path": "../outside.pdf"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, extractTextFromResult(res), "outside configured directory")

	assert.Equal(t, []string{filepath.Join(base, "2025", "processo.pdf")}, ex.paths)

	info, err := s.handleExtractorInfo(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.Contains(t, extractTextFromResult(info), "Paths restricted to: "+base)
}

func TestNewServerInvalidRoot(t *testing.T) {
	cfg := testConfig(config.ModeStdio)
	cfg.Root = filepath.Join(t.TempDir(), "missing")
	_, err := NewServer(cfg, &fakeExtractor{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid root")
}

func TestRunStopsOnCancel(t *testing.T) {
	for _, mode := range []string{config.ModeStdio, config.ModeServer} {
		t.Run(mode, func(t *testing.T) {
			cfg := testConfig(mode)
			cfg.Port = 0
			s, err := NewServer(cfg, &fakeExtractor{}, nil)
			require.NoError(t, err)

			pr, pw := io.Pipe()
			defer pw.Close()
			s.stdin, s.stdout = pr, io.Discard

			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() { errCh <- s.Run(ctx) }()

			time.Sleep(20 * time.Millisecond)
			cancel()

			select {
			case err := <-errCh:
				assert.NoError(t, err)
			case <-time.After(2 * time.Second):
				t.Fatal("Run did not return after cancellation")
			}
		})
	}
}

func extractTextFromResult(result *mcp.CallToolResult) string {
	if result == nil || len(result.Content) == 0 {
		return ""
	}
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			return textContent.Text
		}
		if textContentPtr, ok := content.(*mcp.TextContent); ok {
			return textContentPtr.Text
		}
	}
	return ""
}
