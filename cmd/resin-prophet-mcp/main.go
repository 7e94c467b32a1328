// resin-prophet-mcp bridges a running resin-prophet daemon to MCP
// clients over stdio.
package main

import (
	"log"
	"os"

	"github.com/openclaw/resinprophet/pkg/mcp"
)

func main() {
	// MCP speaks JSON-RPC on stdout; keep logs on stderr.
	log.SetOutput(os.Stderr)

	apiURL := os.Getenv("RESINPROPHET_URL")
	tenantID := os.Getenv("RESINPROPHET_TENANT")
	if tenantID == "" {
		tenantID = "default"
	}

	s := mcp.NewServer(apiURL, tenantID)
	if err := s.Serve(); err != nil {
		log.Fatalf("MCP server failed: %v", err)
	}
}
