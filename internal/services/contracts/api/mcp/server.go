// Package mcpapi exposes the contract service as Model Context Protocol tools
// and resources so agents can draft blueprints and move contracts through
// their lifecycle.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/louisbranch/contractdesk/internal/services/contracts/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// serverName identifies this MCP server to clients.
const serverName = "contractdesk MCP"

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP.
	TransportHTTP TransportKind = "http"
)

// NewServer builds an MCP server whose tools and resources operate on svc.
func NewServer(svc *app.Service, version string) *mcp.Server {
	if strings.TrimSpace(version) == "" {
		version = "dev"
	}
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, &mcp.ServerOptions{
		SubscribeHandler:   resourceSubscribeHandler,
		UnsubscribeHandler: resourceUnsubscribeHandler,
	})
	notify := func(ctx context.Context, uri string) {
		if strings.TrimSpace(uri) == "" {
			return
		}
		if err := server.ResourceUpdated(ctx, &mcp.ResourceUpdatedNotificationParams{URI: uri}); err != nil {
			log.Printf("mcp resource updated notify failed: uri=%s err=%v", uri, err)
		}
	}

	mcp.AddTool(server, BlueprintListTool(), BlueprintListHandler(svc))
	mcp.AddTool(server, BlueprintCreateTool(), BlueprintCreateHandler(svc))
	mcp.AddTool(server, BlueprintFieldAddTool(), BlueprintFieldAddHandler(svc))
	mcp.AddTool(server, ContractCreateTool(), ContractCreateHandler(svc, notify))
	mcp.AddTool(server, ContractTransitionTool(), ContractTransitionHandler(svc, notify))
	mcp.AddTool(server, ContractRevokeTool(), ContractRevokeHandler(svc, notify))
	mcp.AddTool(server, ContractListTool(), ContractListHandler(svc))
	server.AddResource(ContractListResource(), ContractListResourceHandler(svc))
	return server
}

// Run serves server over transport until ctx is canceled or the client
// disconnects.
func Run(ctx context.Context, server *mcp.Server, transport mcp.Transport) error {
	if server == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	err := server.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// HTTPHandler serves server over the streamable HTTP transport.
func HTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func resourceSubscribeHandler(_ context.Context, req *mcp.SubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}

func resourceUnsubscribeHandler(_ context.Context, req *mcp.UnsubscribeRequest) error {
	if req == nil || req.Params == nil || strings.TrimSpace(req.Params.URI) == "" {
		return fmt.Errorf("resource uri is required")
	}
	return nil
}
