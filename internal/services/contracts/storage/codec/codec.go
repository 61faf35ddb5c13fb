// Package codec converts contract desk collections to and from their
// persisted JSON form.
//
// Decoding validates payloads against embedded JSON schemas and then against
// the domain invariants, so a corrupted or hand-edited record is rejected
// before it reaches the service. Version hashes use the RFC 8785 canonical
// form so that semantically equal payloads share a version.
package codec

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gowebpki/jcs"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	blueprintsSchemaURL = "https://contractdesk.local/schemas/blueprints.schema.json"
	contractsSchemaURL  = "https://contractdesk.local/schemas/contracts.schema.json"
)

var (
	schemasOnce      sync.Once
	blueprintsSchema *jsonschema.Schema
	contractsSchema  *jsonschema.Schema
	schemasErr       error
)

// EncodeBlueprints encodes blueprints as a JSON array.
func EncodeBlueprints(blueprints []blueprint.Blueprint) ([]byte, error) {
	records := make([]BlueprintRecord, 0, len(blueprints))
	for _, bp := range blueprints {
		records = append(records, FromBlueprint(bp))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode blueprints: %w", err)
	}
	return data, nil
}

// DecodeBlueprints validates and decodes a blueprint collection.
func DecodeBlueprints(data []byte) ([]blueprint.Blueprint, error) {
	if err := validate(data, func() *jsonschema.Schema { return blueprintsSchema }); err != nil {
		return nil, fmt.Errorf("decode blueprints: %w", err)
	}
	var records []BlueprintRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode blueprints: %w", err)
	}
	out := make([]blueprint.Blueprint, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		bp := record.ToBlueprint()
		for i := range bp.Fields {
			bp.Fields[i].Position = blueprint.ClampPosition(bp.Fields[i].Position)
		}
		if err := blueprint.Validate(bp); err != nil {
			return nil, fmt.Errorf("decode blueprint %s: %w", bp.ID, err)
		}
		if _, dup := seen[bp.ID]; dup {
			return nil, fmt.Errorf("decode blueprints: duplicate id %s", bp.ID)
		}
		seen[bp.ID] = struct{}{}
		out = append(out, bp)
	}
	return out, nil
}

// EncodeContracts encodes contracts as a JSON array.
func EncodeContracts(contracts []contract.Contract) ([]byte, error) {
	records := make([]ContractRecord, 0, len(contracts))
	for _, c := range contracts {
		records = append(records, FromContract(c))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode contracts: %w", err)
	}
	return data, nil
}

// DecodeContracts validates and decodes a contract collection. Every
// contract's history must replay to its status.
func DecodeContracts(data []byte) ([]contract.Contract, error) {
	if err := validate(data, func() *jsonschema.Schema { return contractsSchema }); err != nil {
		return nil, fmt.Errorf("decode contracts: %w", err)
	}
	var records []ContractRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode contracts: %w", err)
	}
	out := make([]contract.Contract, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		c := record.ToContract()
		if err := contract.Verify(c); err != nil {
			return nil, err
		}
		if _, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("decode contracts: duplicate id %s", c.ID)
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// Version returns the hex SHA-256 of data's canonical JSON form.
func Version(data []byte) (string, error) {
	canonical, err := jcs.Transform(data)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func validate(data []byte, schema func() *jsonschema.Schema) error {
	schemasOnce.Do(compileSchemas)
	if schemasErr != nil {
		return schemasErr
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var doc any
	if err := decoder.Decode(&doc); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	if err := schema().Validate(doc); err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	return nil
}

func compileSchemas() {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	resources := map[string]string{
		blueprintsSchemaURL: "schemas/blueprints.schema.json",
		contractsSchemaURL:  "schemas/contracts.schema.json",
	}
	for url, path := range resources {
		raw, err := schemaFS.ReadFile(path)
		if err != nil {
			schemasErr = fmt.Errorf("read schema %s: %w", path, err)
			return
		}
		if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
			schemasErr = fmt.Errorf("load schema %s: %w", path, err)
			return
		}
	}
	if blueprintsSchema, schemasErr = compiler.Compile(blueprintsSchemaURL); schemasErr != nil {
		return
	}
	contractsSchema, schemasErr = compiler.Compile(contractsSchemaURL)
}
