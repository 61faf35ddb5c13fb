package app

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	"github.com/louisbranch/contractdesk/internal/services/contracts/core/filter"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	"github.com/louisbranch/contractdesk/internal/services/contracts/projection"
)

// DashboardRecent is how many contracts the dashboard lists.
const DashboardRecent = 5

// ContractQuery narrows a contract listing. Empty fields match everything.
type ContractQuery struct {
	Status      string
	BlueprintID string
	Bucket      string
	// Filter is an AIP-160 expression over contract identifiers.
	Filter string
	// Recent orders newest first instead of collection order.
	Recent bool
	Limit  int
}

// ContractList is a query result with the version of the collection it was
// read from.
type ContractList struct {
	Contracts []contract.Contract
	Version   string
}

// Dashboard is the landing view.
type Dashboard struct {
	Summary    projection.Summary
	Recent     []contract.Contract
	Blueprints int
}

// ListContracts applies q to a snapshot of the contract collection.
func (s *Service) ListContracts(q ContractQuery) (ContractList, error) {
	snapshot := s.Snapshot()
	contracts := snapshot.Contracts

	if value := strings.TrimSpace(q.Status); value != "" {
		status, ok := contract.ParseStatus(value)
		if !ok {
			return ContractList{}, invalidQuery("status", value)
		}
		contracts = projection.FilterByStatus(contracts, status)
	}
	if id := strings.TrimSpace(q.BlueprintID); id != "" {
		contracts = projection.FilterByBlueprint(contracts, id)
	}
	if value := strings.TrimSpace(q.Bucket); value != "" {
		bucket, ok := projection.ParseBucket(value)
		if !ok {
			return ContractList{}, invalidQuery("bucket", value)
		}
		contracts = projection.FilterByBucket(contracts, bucket)
	}
	if strings.TrimSpace(q.Filter) != "" {
		f, err := filter.ParseContractFilter(q.Filter)
		if err != nil {
			return ContractList{}, err
		}
		if contracts, err = f.Apply(contracts); err != nil {
			return ContractList{}, err
		}
	}
	if q.Recent {
		contracts = projection.SortRecent(contracts)
	}
	if q.Limit > 0 && len(contracts) > q.Limit {
		contracts = contracts[:q.Limit]
	}
	if contracts == nil {
		contracts = []contract.Contract{}
	}
	return ContractList{Contracts: contracts, Version: snapshot.ContractsVersion}, nil
}

// Dashboard summarizes the contract collection.
func (s *Service) Dashboard() Dashboard {
	snapshot := s.Snapshot()
	return Dashboard{
		Summary:    projection.Summarize(snapshot.Contracts),
		Recent:     projection.Recent(snapshot.Contracts, DashboardRecent),
		Blueprints: len(snapshot.Blueprints),
	}
}

// Layout returns a blueprint's fields in render order.
func (s *Service) Layout(blueprintID string) ([]blueprint.Field, bool) {
	bp, ok := s.Blueprint(blueprintID)
	if !ok {
		return nil, false
	}
	return blueprint.RenderOrder(bp.Fields), true
}

func invalidQuery(param, value string) error {
	expr := fmt.Sprintf("%s=%s", param, value)
	return apperrors.WithMetadata(
		apperrors.CodeFilterInvalid,
		"invalid query parameter "+expr,
		map[string]string{"Filter": expr},
	)
}
