package mcpapi

import (
	"context"
	"fmt"
	"log"
	"strings"

	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	"github.com/louisbranch/contractdesk/internal/services/contracts/app"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResourceUpdateNotifier announces that a resource changed.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// BlueprintListTool defines the blueprint listing tool.
func BlueprintListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "blueprint_list",
		Description: "Lists contract blueprints with their fields",
	}
}

// BlueprintCreateTool defines the blueprint creation tool.
func BlueprintCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "blueprint_create",
		Description: "Creates an empty contract blueprint",
	}
}

// BlueprintFieldAddTool defines the field creation tool.
func BlueprintFieldAddTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "blueprint_field_add",
		Description: "Adds a text, date, checkbox, or signature field to a blueprint",
	}
}

// ContractCreateTool defines the contract creation tool.
func ContractCreateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "contract_create",
		Description: "Creates a contract from a blueprint; every required field must have a value",
	}
}

// ContractTransitionTool defines the status transition tool.
func ContractTransitionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "contract_transition",
		Description: "Moves a contract along its lifecycle (CREATED, APPROVED, SENT, SIGNED, LOCKED; REVOKED from CREATED or SENT)",
	}
}

// ContractRevokeTool defines the revocation tool.
func ContractRevokeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "contract_revoke",
		Description: "Revokes a contract that is CREATED or SENT",
	}
}

// ContractListTool defines the contract listing tool.
func ContractListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "contract_list",
		Description: "Lists contracts, optionally filtered by status, blueprint, bucket, or an AIP-160 expression",
	}
}

// BlueprintListHandler lists blueprints.
func BlueprintListHandler(svc *app.Service) mcp.ToolHandlerFor[BlueprintListInput, BlueprintListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ BlueprintListInput) (*mcp.CallToolResult, BlueprintListResult, error) {
		blueprints := svc.Blueprints()
		result := BlueprintListResult{Blueprints: make([]BlueprintResult, 0, len(blueprints))}
		for _, bp := range blueprints {
			result.Blueprints = append(result.Blueprints, blueprintResultFrom(bp))
		}
		return nil, result, nil
	}
}

// BlueprintCreateHandler creates a blueprint.
func BlueprintCreateHandler(svc *app.Service) mcp.ToolHandlerFor[BlueprintCreateInput, BlueprintResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BlueprintCreateInput) (*mcp.CallToolResult, BlueprintResult, error) {
		bp, err := svc.CreateBlueprint(ctx, blueprint.CreateInput{Name: input.Name, Description: input.Description})
		if err != nil {
			return nil, BlueprintResult{}, toolError("blueprint create", err)
		}
		return nil, blueprintResultFrom(bp), nil
	}
}

// BlueprintFieldAddHandler adds a field, defaulting label and position the
// way the editor does.
func BlueprintFieldAddHandler(svc *app.Service) mcp.ToolHandlerFor[BlueprintFieldAddInput, FieldResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BlueprintFieldAddInput) (*mcp.CallToolResult, FieldResult, error) {
		draft := app.FieldDraft{Type: input.Type, Label: input.Label, Required: input.Required}
		if input.X != nil || input.Y != nil {
			next := blueprint.NewFieldDraft(blueprint.FieldText, fieldCount(svc, input.BlueprintID))
			pos := next.Position
			if input.X != nil {
				pos.X = *input.X
			}
			if input.Y != nil {
				pos.Y = *input.Y
			}
			draft.Position = &pos
		}
		field, err := svc.AddFieldDraft(ctx, input.BlueprintID, draft)
		if err != nil {
			return nil, FieldResult{}, toolError("blueprint field add", err)
		}
		return nil, fieldResultFrom(field), nil
	}
}

// ContractCreateHandler creates a contract.
func ContractCreateHandler(svc *app.Service, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[ContractCreateInput, ContractResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ContractCreateInput) (*mcp.CallToolResult, ContractResult, error) {
		c, err := svc.CreateContract(ctx, app.ContractInput{
			Name:        input.Name,
			BlueprintID: input.BlueprintID,
			Values:      valuesFromInput(input.Values),
		})
		if err != nil {
			return nil, ContractResult{}, toolError("contract create", err)
		}
		notifyContracts(ctx, notify)
		return nil, contractResultFrom(c), nil
	}
}

// ContractTransitionHandler applies a status transition.
func ContractTransitionHandler(svc *app.Service, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[ContractTransitionInput, ContractResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ContractTransitionInput) (*mcp.CallToolResult, ContractResult, error) {
		target, ok := contract.ParseStatus(input.To)
		if !ok {
			return nil, ContractResult{}, fmt.Errorf("contract transition failed: unknown status %q", input.To)
		}
		expected, err := parseExpected(input.ExpectedStatus)
		if err != nil {
			return nil, ContractResult{}, err
		}
		c, err := svc.Transition(ctx, input.ContractID, app.TransitionRequest{
			Target:         target,
			Note:           input.Note,
			ExpectedStatus: expected,
		})
		if err != nil {
			return nil, ContractResult{}, toolError("contract transition", err)
		}
		notifyContracts(ctx, notify)
		return nil, contractResultFrom(c), nil
	}
}

// ContractRevokeHandler revokes a contract.
func ContractRevokeHandler(svc *app.Service, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[ContractRevokeInput, ContractResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ContractRevokeInput) (*mcp.CallToolResult, ContractResult, error) {
		expected, err := parseExpected(input.ExpectedStatus)
		if err != nil {
			return nil, ContractResult{}, err
		}
		c, err := svc.Revoke(ctx, input.ContractID, app.StepRequest{Note: input.Note, ExpectedStatus: expected})
		if err != nil {
			return nil, ContractResult{}, toolError("contract revoke", err)
		}
		notifyContracts(ctx, notify)
		return nil, contractResultFrom(c), nil
	}
}

// ContractListHandler lists contracts.
func ContractListHandler(svc *app.Service) mcp.ToolHandlerFor[ContractListInput, ContractListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ContractListInput) (*mcp.CallToolResult, ContractListResult, error) {
		list, err := svc.ListContracts(app.ContractQuery{
			Status:      input.Status,
			BlueprintID: input.BlueprintID,
			Bucket:      input.Bucket,
			Filter:      input.Filter,
			Recent:      input.Recent,
			Limit:       input.Limit,
		})
		if err != nil {
			return nil, ContractListResult{}, toolError("contract list", err)
		}
		return nil, ContractListResult{Contracts: contractResultsFrom(list.Contracts), Version: list.Version}, nil
	}
}

// toolError prefixes the error code and the user-facing message so agents
// can branch on the code.
func toolError(action string, err error) error {
	code := apperrors.GetCode(err)
	if code == apperrors.CodeUnknown {
		log.Printf("%s: %v", action, err)
	}
	return fmt.Errorf("%s failed: %s: %s", action, code, apperrors.LocalizedMessage(err, apperrors.DefaultLocale))
}

func parseExpected(value string) (contract.Status, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	status, ok := contract.ParseStatus(value)
	if !ok {
		return "", fmt.Errorf("unknown expected status %q", value)
	}
	return status, nil
}

func notifyContracts(ctx context.Context, notify ResourceUpdateNotifier) {
	if notify != nil {
		notify(ctx, ContractListResource().URI)
	}
}

func fieldCount(svc *app.Service, blueprintID string) int {
	bp, _ := svc.Blueprint(blueprintID)
	return len(bp.Fields)
}

func fmtAny(v any) string {
	return fmt.Sprint(v)
}
