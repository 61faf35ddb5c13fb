package mcpapi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/contractdesk/internal/services/contracts/app"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const contractListURI = "contracts://list"

// ContractListResource defines the MCP resource for the contract collection.
func ContractListResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "contract_list",
		Title:       "Contracts",
		Description: "Readonly JSON listing of every contract with its status history",
		MIMEType:    "application/json",
		URI:         contractListURI,
	}
}

// ContractListResourceHandler returns the contract collection as JSON.
func ContractListResourceHandler(svc *app.Service) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if req != nil && req.Params != nil && req.Params.URI != "" && req.Params.URI != contractListURI {
			return nil, fmt.Errorf("unknown resource %q", req.Params.URI)
		}
		list, err := svc.ListContracts(app.ContractQuery{})
		if err != nil {
			return nil, fmt.Errorf("list contracts: %w", err)
		}
		payload := ContractListResult{Contracts: contractResultsFrom(list.Contracts), Version: list.Version}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal contracts: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      contractListURI,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	}
}
