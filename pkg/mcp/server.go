// Package mcp adapts the resin-prophet daemon to the Model Context
// Protocol, so assistant agents can query and record resin usage.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/openclaw/resinprophet/pkg/client"
)

// Server adapts resin-prophet-d to the Model Context Protocol.
type Server struct {
	mcpServer *server.MCPServer
	apiClient *client.Client
	tenantID  string
}

// NewServer creates a new MCP server instance. tenantID scopes every
// call; an MCP session always acts on behalf of exactly one tenant.
func NewServer(apiURL, tenantID string) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"resin-prophet",
			"1.0.0",
		),
		apiClient: client.NewClient(apiURL),
		tenantID:  tenantID,
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	// resinprophet://predictions
	s.mcpServer.AddResource(mcp.NewResource(
		"resinprophet://predictions",
		"Resin Depletion Forecasts",
		mcp.WithResourceDescription("Per-cartridge depletion predictions, most urgent first"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadPredictions)

	// resinprophet://status
	s.mcpServer.AddResource(mcp.NewResource(
		"resinprophet://status",
		"Resin Fleet Status",
		mcp.WithResourceDescription("Rendered fleet status message for all registered cartridges"),
		mcp.WithMIMEType("text/plain"),
	), s.handleReadStatus)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"resin_status",
		mcp.WithDescription("Get the current resin levels and depletion forecasts for all cartridges."),
	), s.handleResinStatus)

	s.mcpServer.AddTool(mcp.NewTool(
		"resin_alerts",
		mcp.WithDescription("Get active low-resin alerts (warning and critical only)."),
	), s.handleResinAlerts)

	s.mcpServer.AddTool(mcp.NewTool(
		"resin_add",
		mcp.WithDescription("Register a new resin cartridge."),
		mcp.WithString("material_code", mcp.Required(), mcp.Description("Material code (e.g., 'FLGPGR05')")),
		mcp.WithString("material_name", mcp.Description("Human-readable material name")),
		mcp.WithString("printer_id", mcp.Description("Printer the cartridge is installed in")),
		mcp.WithNumber("volume_ml", mcp.Description("Cartridge capacity in ml (default 1000)")),
	), s.handleResinAdd)

	s.mcpServer.AddTool(mcp.NewTool(
		"resin_consume",
		mcp.WithDescription("Record resin consumption against a cartridge after a print."),
		mcp.WithString("cartridge_id", mcp.Required(), mcp.Description("The cartridge that was used")),
		mcp.WithNumber("volume_ml", mcp.Required(), mcp.Description("Volume of resin consumed in ml")),
	), s.handleResinConsume)

	s.mcpServer.AddTool(mcp.NewTool(
		"resin_usage_report",
		mcp.WithDescription("Export the consumption ledger for a material as CSV."),
		mcp.WithString("material_code", mcp.Required(), mcp.Description("Material code to report on")),
		mcp.WithNumber("window_days", mcp.Description("History window in days (default 30)")),
	), s.handleUsageReport)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"resin-aware",
		mcp.WithPromptDescription("Provides context about resin tracking concepts (cartridges, predictions, alerts)"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadPredictions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	predictions, err := s.apiClient.Predictions(ctx, s.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch predictions: %w", err)
	}

	data, err := json.MarshalIndent(predictions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predictions: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleReadStatus(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := s.apiClient.StatusText(ctx, s.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		},
	}, nil
}

func (s *Server) handleResinStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := s.apiClient.StatusText(ctx, s.tenantID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleResinAlerts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := s.apiClient.AlertsText(ctx, s.tenantID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleResinAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	materialCode := mcp.ParseString(request, "material_code", "")
	materialName := mcp.ParseString(request, "material_name", "")
	printerID := mcp.ParseString(request, "printer_id", "")
	volumeML := mcp.ParseFloat64(request, "volume_ml", 0)

	if materialCode == "" {
		return mcp.NewToolResultError("material_code is required"), nil
	}

	_, text, err := s.apiClient.RegisterCartridge(ctx, client.RegisterCartridgeRequest{
		MaterialCode:    materialCode,
		MaterialName:    materialName,
		PrinterID:       printerID,
		TenantID:        s.tenantID,
		InitialVolumeML: volumeML,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleResinConsume(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cartridgeID := mcp.ParseString(request, "cartridge_id", "")
	volumeML := mcp.ParseFloat64(request, "volume_ml", 0)

	if cartridgeID == "" {
		return mcp.NewToolResultError("cartridge_id is required"), nil
	}

	if err := s.apiClient.Consume(ctx, cartridgeID, volumeML, s.tenantID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}

	pred, err := s.apiClient.Predict(ctx, cartridgeID, s.tenantID)
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("Recorded %.1fml consumption.", volumeML)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Recorded %.1fml consumption.\n%s", volumeML, pred.AlertMessage)), nil
}

func (s *Server) handleUsageReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	materialCode := mcp.ParseString(request, "material_code", "")
	windowDays := int(mcp.ParseFloat64(request, "window_days", 30))

	if materialCode == "" {
		return mcp.NewToolResultError("material_code is required"), nil
	}

	csvData, err := s.apiClient.UsageCSV(ctx, s.tenantID, materialCode, windowDays)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API error: %v", err)), nil
	}
	return mcp.NewToolResultText(csvData), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "resin-aware" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are interacting with Resin Prophet, a resin inventory tracker for SLA 3D printers.

Concepts:
- Cartridge: One tracked container of resin with an initial and current volume.
- Material code: The manufacturer SKU (e.g., 'FLGPGR05' for Grey V5).
- Prediction: A depletion forecast with percent remaining, prints remaining, and estimated days until empty.
- Alert: Cartridges below 20% trigger warnings, below 10% critical alerts.

After a print completes, use the 'resin_consume' tool to record the volume used.
Use 'resin_status' to check levels before queuing large jobs, and 'resin_alerts'
to see what needs reordering.
`

	return mcp.NewGetPromptResult(
		"resin-aware",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
