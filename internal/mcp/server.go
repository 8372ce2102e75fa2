// Package mcp exposes the extraction pipeline as MCP tools over stdio or
// streamable HTTP.
package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/fieldsnap/fieldsnap/internal/config"
	"github.com/fieldsnap/fieldsnap/internal/extract"
	"github.com/fieldsnap/fieldsnap/internal/pipeline"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	pipeline  *pipeline.Service
	logger    *log.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *pipeline.Service, logger *log.Logger) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("pipeline service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		pipeline:  svc,
		logger:    logger,
		mcpServer: mcpServer,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractFieldsTool := mcp.NewTool(
		"pdf_extract_fields",
		mcp.WithDescription("Run the full field extraction pipeline on a PDF and return snapped fields as JSON"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file (absolute, or relative to the configured directory)"),
		),
		mcp.WithString("image_dir",
			mcp.Description("Directory with rendered page rasters named page-<n>.png or page-<n>.jpg; "+
				"pages without a raster degrade to an empty field list"),
		),
	)
	s.mcpServer.AddTool(extractFieldsTool, s.handleExtractFields)

	snapGeometryTool := mcp.NewTool(
		"pdf_snap_geometry",
		mcp.WithDescription("Extract the raw geometric evidence of one page: AcroForm widgets, "+
			"vector lines and rectangles, and word boxes, all in percentage coordinates"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file (absolute, or relative to the configured directory)"),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number (defaults to 1)"),
		),
	)
	s.mcpServer.AddTool(snapGeometryTool, s.handleSnapGeometry)

	serverInfoTool := mcp.NewTool(
		"server_info",
		mcp.WithDescription("Get server information, available tools, and the configured PDF directory contents"),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// resolvePath makes a request path absolute, treating relative paths as
// relative to the configured PDF directory.
func (s *Server) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.config.PDFDirectory, path)
}

func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path = s.resolvePath(path)

	args := request.GetArguments()
	imageDir := ""
	if d, ok := args["image_dir"].(string); ok {
		imageDir = d
	}

	pdfData, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read PDF: %v", err)), nil
	}

	pageCount, err := extract.PageCount(pdfData)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to open PDF: %v", err)), nil
	}

	inputs := make([]pipeline.PageInput, pageCount)
	for i := range inputs {
		inputs[i] = pipeline.PageInput{PageNumber: i + 1}
		if imageDir != "" {
			s.loadPageImage(imageDir, &inputs[i])
		}
	}

	result, err := s.pipeline.ExtractDocument(ctx, pdfData, inputs)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
	}

	return mcp.NewToolResultText(s.formatDocumentResult(path, result)), nil
}

// loadPageImage attaches the rendered raster for a page when one exists
// under dir. Missing or undecodable rasters are skipped so the page can
// still run through geometry-only processing.
func (s *Server) loadPageImage(dir string, in *pipeline.PageInput) {
	for _, ext := range []string{"png", "jpg", "jpeg"} {
		p := filepath.Join(dir, fmt.Sprintf("page-%d.%s", in.PageNumber, ext))
		data, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			s.logger.Warn("failed to decode page raster", "path", p, "error", err)
			return
		}
		in.Image = img
		in.ImageData = data
		if ext == "png" {
			in.ImageMIME = "image/png"
		} else {
			in.ImageMIME = "image/jpeg"
		}
		return
	}
}

func (s *Server) handleSnapGeometry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	path = s.resolvePath(path)

	page := 1
	args := request.GetArguments()
	if p, ok := args["page"].(float64); ok && p >= 1 {
		page = int(p)
	}

	pdfData, err := os.ReadFile(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read PDF: %v", err)), nil
	}

	pageW, pageH, err := extract.PageSize(pdfData, page)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read page size: %v", err)), nil
	}

	widgets, err := extract.AcroFormWidgets(pdfData, page)
	if err != nil {
		s.logger.Warn("widget extraction failed", "page", page, "error", err)
	}
	lines, rects, err := extract.VectorGeometry(pdfData, page)
	if err != nil {
		s.logger.Warn("vector extraction failed", "page", page, "error", err)
	}
	words, err := extract.WordBoxes(pdfData, page, pageW, pageH)
	if err != nil {
		s.logger.Warn("word extraction failed", "page", page, "error", err)
	}

	payload := map[string]any{
		"page":        page,
		"page_width":  pageW,
		"page_height": pageH,
		"widgets":     widgets,
		"vectorLines": lines,
		"vectorRects": rects,
		"words":       words,
	}
	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode geometry: %v", err)), nil
	}

	responseText := fmt.Sprintf("Geometry evidence for %s page %d\n", path, page)
	responseText += fmt.Sprintf("Widgets: %d, vector lines: %d, vector rects: %d, words: %d\n\n",
		len(widgets), len(lines), len(rects), len(words))
	responseText += string(encoded)

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("PDF Directory: %s\n", s.config.PDFDirectory)
	text += fmt.Sprintf("Estimator model: %s\n\n", s.config.GeminiModel)

	pdfs := s.listPDFs()
	if len(pdfs) > 0 {
		text += fmt.Sprintf("Directory Contents (%d PDF files):\n", len(pdfs))
		for i, name := range pdfs {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(pdfs)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s\n", i+1, name)
		}
	} else {
		text += "Directory Contents: no PDF files found\n"
	}

	text += "\nAvailable Tools:\n"
	text += "\n• pdf_extract_fields\n"
	text += "  Runs the full pipeline: field estimation, geometry extraction, scale\n"
	text += "  normalization, type expansion, coordinate snapping, prefill filtering,\n"
	text += "  and deduplication. Returns fields and per-page snap statistics as JSON.\n"
	text += "\n• pdf_snap_geometry\n"
	text += "  Returns the raw geometric evidence of one page for debugging:\n"
	text += "  AcroForm widgets, vector lines/rects, and word boxes.\n"
	text += "\n• server_info\n"
	text += "  This information.\n"

	return mcp.NewToolResultText(text), nil
}

func (s *Server) listPDFs() []string {
	entries, err := os.ReadDir(s.config.PDFDirectory)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			names = append(names, e.Name())
		}
	}
	return names
}

func (s *Server) formatDocumentResult(path string, result *pipeline.DocumentResult) string {
	text := fmt.Sprintf("Extracted %d field(s) from %s across %d page(s)\n",
		result.TotalFields, path, len(result.Pages))
	for _, page := range result.Pages {
		text += fmt.Sprintf("Page %d: %d field(s)", page.Page, len(page.Fields))
		if page.Degraded {
			text += " (degraded)"
		}
		if page.ScaleCorrected {
			text += " (scale corrected)"
		}
		text += fmt.Sprintf(" [widget=%d word=%d vector=%d cv=%d rect=%d unsnapped=%d prefilled=%d deduped=%d]\n",
			page.Stats.Widget, page.Stats.Word, page.Stats.VectorLine, page.Stats.CVLine,
			page.Stats.Rect, page.Stats.Unsnapped, page.Stats.Prefilled, page.Stats.Deduped)
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return text + fmt.Sprintf("\nfailed to encode result: %v", err)
	}
	return text + "\n" + string(encoded)
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server over standard input/output
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode", "dir", s.config.PDFDirectory)

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server over streamable HTTP
func (s *Server) runServerMode(_ context.Context) error {
	addr := s.config.Address()
	s.logger.Info("starting MCP server in HTTP mode", "addr", addr)

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	if err := httpServer.Start(addr); err != nil {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}
	return nil
}
