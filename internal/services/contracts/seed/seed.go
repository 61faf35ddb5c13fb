// Package seed loads sample blueprints and contracts from YAML.
package seed

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/codec"
	"gopkg.in/yaml.v3"
)

//go:embed sample.yaml
var sampleYAML []byte

// Dataset is a full workspace: every blueprint and contract.
type Dataset struct {
	Blueprints []blueprint.Blueprint
	Contracts  []contract.Contract
}

type document struct {
	Blueprints []any `yaml:"blueprints"`
	Contracts  []any `yaml:"contracts"`
}

// Sample returns the built-in sample workspace.
func Sample() (Dataset, error) {
	return Parse(sampleYAML)
}

// Parse decodes a YAML workspace. Documents go through the same validation
// as persisted collections, and every contract must name a blueprint in the
// document.
func Parse(data []byte) (Dataset, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Dataset{}, fmt.Errorf("parse seed yaml: %w", err)
	}

	blueprintsJSON, err := toJSONArray(doc.Blueprints)
	if err != nil {
		return Dataset{}, fmt.Errorf("seed blueprints: %w", err)
	}
	blueprints, err := codec.DecodeBlueprints(blueprintsJSON)
	if err != nil {
		return Dataset{}, fmt.Errorf("seed blueprints: %w", err)
	}

	contractsJSON, err := toJSONArray(doc.Contracts)
	if err != nil {
		return Dataset{}, fmt.Errorf("seed contracts: %w", err)
	}
	contracts, err := codec.DecodeContracts(contractsJSON)
	if err != nil {
		return Dataset{}, fmt.Errorf("seed contracts: %w", err)
	}

	known := make(map[string]blueprint.Blueprint, len(blueprints))
	for _, bp := range blueprints {
		known[bp.ID] = bp
	}
	for i, c := range contracts {
		bp, ok := known[c.BlueprintID]
		if !ok {
			return Dataset{}, fmt.Errorf("seed contract %s: unknown blueprint %s", c.ID, c.BlueprintID)
		}
		contracts[i].Values = contract.ApplyFieldTypes(bp, c.Values)
	}
	return Dataset{Blueprints: blueprints, Contracts: contracts}, nil
}

func toJSONArray(items []any) ([]byte, error) {
	if items == nil {
		items = []any{}
	}
	return json.Marshal(items)
}
