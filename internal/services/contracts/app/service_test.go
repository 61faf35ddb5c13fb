package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	"github.com/louisbranch/contractdesk/internal/services/contracts/seed"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/memory"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func sequentialIDs() func() (string, error) {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n), nil
	}
}

func newTestService(t *testing.T, store storage.RecordStore) *Service {
	t.Helper()
	clock := &fixedClock{now: time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC)}
	opts := []Option{WithClock(clock.Now), WithIDGenerator(sequentialIDs())}
	if store != nil {
		opts = append(opts, WithStore(store))
	}
	svc, err := Open(context.Background(), opts...)
	if err != nil {
		t.Fatalf("open service: %v", err)
	}
	return svc
}

func ndaBlueprint(t *testing.T, svc *Service) blueprint.Blueprint {
	t.Helper()
	ctx := context.Background()
	bp, err := svc.CreateBlueprint(ctx, blueprint.CreateInput{Name: "NDA"})
	if err != nil {
		t.Fatalf("create blueprint: %v", err)
	}
	if _, err := svc.AddField(ctx, bp.ID, blueprint.FieldInput{Type: blueprint.FieldText, Label: "Party A", Required: true}); err != nil {
		t.Fatalf("add field: %v", err)
	}
	if _, err := svc.AddField(ctx, bp.ID, blueprint.FieldInput{Type: blueprint.FieldCheckbox, Label: "Accept", Required: true}); err != nil {
		t.Fatalf("add field: %v", err)
	}
	bp, _ = svc.Blueprint(bp.ID)
	return bp
}

func TestServicePersistsAndReloads(t *testing.T) {
	store := memory.New()
	svc := newTestService(t, store)
	ctx := context.Background()

	bp := ndaBlueprint(t, svc)
	c, err := svc.CreateContract(ctx, ContractInput{
		Name:        "Acme NDA",
		BlueprintID: bp.ID,
		Values:      contract.Values{"Party A": contract.TextValue("Acme"), "Accept": contract.BoolValue(false)},
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	if c.Status != contract.StatusCreated || c.BlueprintName != "NDA" {
		t.Fatalf("contract = %+v", c)
	}

	reopened := newTestService(t, store)
	got, ok := reopened.Contract(c.ID)
	if !ok {
		t.Fatal("expected contract after reload")
	}
	if accept, ok := got.Values["Accept"].Bool(); !ok || accept {
		t.Fatal("expected Accept=false to persist")
	}
	if len(reopened.Blueprints()) != 1 {
		t.Fatalf("blueprints = %d, want 1", len(reopened.Blueprints()))
	}
	snapshot := reopened.Snapshot()
	if snapshot.BlueprintsVersion == "" || snapshot.ContractsVersion == "" {
		t.Fatalf("expected versions, got %+v", snapshot)
	}
}

func TestReloadTypesValuesByField(t *testing.T) {
	store := memory.New()
	svc := newTestService(t, store)
	ctx := context.Background()

	bp := ndaBlueprint(t, svc)
	if _, err := svc.AddField(ctx, bp.ID, blueprint.FieldInput{Type: blueprint.FieldDate, Label: "Start"}); err != nil {
		t.Fatalf("add field: %v", err)
	}
	if _, err := svc.AddField(ctx, bp.ID, blueprint.FieldInput{Type: blueprint.FieldText, Label: "Salary"}); err != nil {
		t.Fatalf("add field: %v", err)
	}
	c, err := svc.CreateContract(ctx, ContractInput{
		Name:        "Offer",
		BlueprintID: bp.ID,
		Values: contract.Values{
			"Party A": contract.TextValue("Acme"),
			"Accept":  contract.BoolValue(true),
			"Start":   contract.TextValue("2026-03-01"),
			"Salary":  contract.TextValue("2026-01-01"),
		},
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}

	got, _ := newTestService(t, store).Contract(c.ID)
	if kind := got.Values["Start"].Kind(); kind != contract.KindDate {
		t.Fatalf("Start kind after reload = %v, want date", kind)
	}
	if kind := got.Values["Salary"].Kind(); kind != contract.KindText {
		t.Fatalf("Salary kind after reload = %v, want text", kind)
	}
}

func TestUpdateValuesRejectsMistypedCheckbox(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	bp := ndaBlueprint(t, svc)
	c, err := svc.CreateContract(ctx, ContractInput{
		Name:        "Acme NDA",
		BlueprintID: bp.ID,
		Values:      contract.Values{"Party A": contract.TextValue("Acme"), "Accept": contract.BoolValue(true)},
	})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	_, err = svc.UpdateValues(ctx, c.ID, contract.Values{"Accept": contract.TextValue("banana")})
	if !apperrors.IsCode(err, apperrors.CodeContractValueInvalid) {
		t.Fatalf("err = %v, want CONTRACT_VALUE_INVALID", err)
	}
	got, _ := svc.Contract(c.ID)
	if accept, ok := got.Values["Accept"].Bool(); !ok || !accept {
		t.Fatalf("Accept = %v, want unchanged true", got.Values["Accept"])
	}
}

func TestUpdateIsAllOrNothing(t *testing.T) {
	store := memory.New()
	svc := newTestService(t, store)
	ctx := context.Background()
	bp := ndaBlueprint(t, svc)
	puts := store.Puts()

	boom := errors.New("boom")
	err := svc.Update(ctx, func(tx *Tx) error {
		if _, err := tx.CreateBlueprint(blueprint.CreateInput{Name: "Second"}); err != nil {
			return err
		}
		if err := tx.DeleteBlueprint(bp.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if store.Puts() != puts {
		t.Fatalf("puts = %d, want %d", store.Puts(), puts)
	}
	blueprints := svc.Blueprints()
	if len(blueprints) != 1 || blueprints[0].ID != bp.ID {
		t.Fatalf("blueprints = %+v", blueprints)
	}
}

func TestUpdateWithoutChangesSkipsWrite(t *testing.T) {
	store := memory.New()
	svc := newTestService(t, store)
	if err := svc.Update(context.Background(), func(tx *Tx) error {
		_ = tx.Blueprints()
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if store.Puts() != 0 {
		t.Fatalf("puts = %d, want 0", store.Puts())
	}
}

func TestCreateContractRequiresFields(t *testing.T) {
	svc := newTestService(t, nil)
	bp := ndaBlueprint(t, svc)

	_, err := svc.CreateContract(context.Background(), ContractInput{Name: "x", BlueprintID: bp.ID, Values: contract.Values{}})
	var missing *contract.MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingFieldsError", err)
	}
	if strings.Join(missing.Labels, ",") != "Party A,Accept" {
		t.Fatalf("labels = %v", missing.Labels)
	}
	if len(svc.Contracts()) != 0 {
		t.Fatal("expected no contract to be stored")
	}
}

func TestMutationsOnUnknownIDsReturnNotFound(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	checks := map[string]error{}
	_, checks["update blueprint"] = svc.UpdateBlueprint(ctx, "missing", blueprint.UpdateInput{})
	checks["delete blueprint"] = svc.DeleteBlueprint(ctx, "missing")
	_, checks["add field"] = svc.AddField(ctx, "missing", blueprint.FieldInput{Type: blueprint.FieldText})
	_, checks["create contract"] = svc.CreateContract(ctx, ContractInput{Name: "x", BlueprintID: "missing"})
	_, checks["transition"] = svc.Transition(ctx, "missing", TransitionRequest{Target: contract.StatusApproved})
	_, checks["revoke"] = svc.Revoke(ctx, "missing", StepRequest{})
	_, checks["values"] = svc.UpdateValues(ctx, "missing", contract.Values{})

	for name, err := range checks {
		if !apperrors.IsCode(err, apperrors.CodeNotFound) {
			t.Fatalf("%s: err = %v, want NOT_FOUND", name, err)
		}
	}
}

func TestContractLifecycleThroughService(t *testing.T) {
	svc := newTestService(t, memory.New())
	ctx := context.Background()
	bp := ndaBlueprint(t, svc)
	c, err := svc.CreateContract(ctx, ContractInput{
		Name:        "Acme NDA",
		BlueprintID: bp.ID,
		Values:      contract.Values{"Party A": contract.TextValue("Acme"), "Accept": contract.BoolValue(true)},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Transition(ctx, c.ID, TransitionRequest{Target: contract.StatusSigned}); !apperrors.IsCode(err, apperrors.CodeContractInvalidStatusTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
	for _, want := range []contract.Status{contract.StatusApproved, contract.StatusSent, contract.StatusSigned, contract.StatusLocked} {
		c, err = svc.Advance(ctx, c.ID, StepRequest{})
		if err != nil {
			t.Fatalf("advance to %s: %v", want, err)
		}
		if c.Status != want {
			t.Fatalf("status = %s, want %s", c.Status, want)
		}
	}
	if len(c.Transitions) != 4 {
		t.Fatalf("transitions = %d, want 4", len(c.Transitions))
	}
	if _, err := svc.Revoke(ctx, c.ID, StepRequest{}); !apperrors.IsCode(err, apperrors.CodeContractInvalidStatusTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
	if _, err := svc.UpdateValues(ctx, c.ID, contract.Values{"Party A": contract.TextValue("B")}); !apperrors.IsCode(err, apperrors.CodeContractStatusTerminal) {
		t.Fatalf("err = %v, want terminal", err)
	}
}

func TestTransitionExpectedStatusConflict(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	bp, err := svc.CreateBlueprint(ctx, blueprint.CreateInput{Name: "Empty"})
	if err != nil {
		t.Fatalf("create blueprint: %v", err)
	}
	c, err := svc.CreateContract(ctx, ContractInput{Name: "x", BlueprintID: bp.ID})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	if _, err := svc.Transition(ctx, c.ID, TransitionRequest{Target: contract.StatusApproved, ExpectedStatus: contract.StatusCreated}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// A second client still believes the contract is CREATED.
	_, err = svc.Revoke(ctx, c.ID, StepRequest{Note: "stale", ExpectedStatus: contract.StatusCreated})
	if !apperrors.IsCode(err, apperrors.CodeContractStatusConflict) {
		t.Fatalf("err = %v, want status conflict", err)
	}
	meta := apperrors.GetMetadata(err)
	if meta["ActualStatus"] != "APPROVED" || meta["ExpectedStatus"] != "CREATED" {
		t.Fatalf("metadata = %v", meta)
	}
	got, _ := svc.Contract(c.ID)
	if got.Status != contract.StatusApproved {
		t.Fatalf("status = %s, want APPROVED", got.Status)
	}
}

func TestConcurrentWritersDetectStorageConflict(t *testing.T) {
	store := memory.New()
	first := newTestService(t, store)
	second := newTestService(t, store)
	ctx := context.Background()

	if _, err := first.CreateBlueprint(ctx, blueprint.CreateInput{Name: "From first"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := second.CreateBlueprint(ctx, blueprint.CreateInput{Name: "From second"})
	if !apperrors.IsCode(err, apperrors.CodeStorageConflict) {
		t.Fatalf("err = %v, want storage conflict", err)
	}
	if !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("err = %v, want wrapped ErrVersionConflict", err)
	}

	// The losing service reloaded, so a retry succeeds on top of the winner.
	if _, err := second.CreateBlueprint(ctx, blueprint.CreateInput{Name: "From second"}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if got := len(second.Blueprints()); got != 2 {
		t.Fatalf("blueprints = %d, want 2", got)
	}
}

func TestConcurrentUpdatesAreSerialized(t *testing.T) {
	svc := newTestService(t, memory.New())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateBlueprint(ctx, blueprint.CreateInput{Name: fmt.Sprintf("bp %d", i)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if got := len(svc.Blueprints()); got != 20 {
		t.Fatalf("blueprints = %d, want 20", got)
	}
}

func TestDeleteBlueprintKeepsContracts(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	bp, err := svc.CreateBlueprint(ctx, blueprint.CreateInput{Name: "Temp"})
	if err != nil {
		t.Fatalf("create blueprint: %v", err)
	}
	c, err := svc.CreateContract(ctx, ContractInput{Name: "x", BlueprintID: bp.ID})
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	if err := svc.DeleteBlueprint(ctx, bp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, ok := svc.Contract(c.ID)
	if !ok || got.BlueprintName != "Temp" {
		t.Fatalf("contract = %+v, ok = %v", got, ok)
	}
}

func TestSeedOnlyWhenEmptyUnlessForced(t *testing.T) {
	svc := newTestService(t, memory.New())
	ctx := context.Background()
	data, err := seed.Sample()
	if err != nil {
		t.Fatalf("sample: %v", err)
	}

	seeded, err := svc.Seed(ctx, data.Blueprints, data.Contracts, false)
	if err != nil || !seeded {
		t.Fatalf("seed = %v, %v", seeded, err)
	}
	if _, err := svc.CreateBlueprint(ctx, blueprint.CreateInput{Name: "Extra"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	seeded, err = svc.Seed(ctx, data.Blueprints, data.Contracts, false)
	if err != nil || seeded {
		t.Fatalf("second seed = %v, %v", seeded, err)
	}
	if got := len(svc.Blueprints()); got != 4 {
		t.Fatalf("blueprints = %d, want 4", got)
	}

	seeded, err = svc.Seed(ctx, data.Blueprints, data.Contracts, true)
	if err != nil || !seeded {
		t.Fatalf("forced seed = %v, %v", seeded, err)
	}
	if got := len(svc.Blueprints()); got != 3 {
		t.Fatalf("blueprints = %d, want 3", got)
	}
}

func TestOpenFailsOnCorruptRecord(t *testing.T) {
	store := memory.New()
	err := store.PutRecords(context.Background(), storage.Write{Record: storage.Record{
		Collection: storage.CollectionContracts,
		Data:       []byte(`[{"id":"c-1","name":"x","blueprintId":"b","blueprintName":"b","status":"LOCKED","createdAt":"2026-01-01T00:00:00Z","values":{},"transitions":[]}]`),
		Version:    "v1",
	}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := Open(context.Background(), WithStore(store)); !errors.Is(err, contract.ErrHistoryInvalid) {
		t.Fatalf("err = %v, want history invalid", err)
	}
}

func TestUpdateHonorsCanceledContext(t *testing.T) {
	svc := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := svc.Update(ctx, func(*Tx) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) || called {
		t.Fatalf("err = %v, called = %v", err, called)
	}
}

func TestAddFieldDraftStacksPaletteFields(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	bp, err := svc.CreateBlueprint(ctx, blueprint.CreateInput{Name: "Lease"})
	if err != nil {
		t.Fatalf("create blueprint: %v", err)
	}

	first, err := svc.AddFieldDraft(ctx, bp.ID, FieldDraft{Type: " Text "})
	if err != nil {
		t.Fatalf("add first: %v", err)
	}
	if first.Label != "New Text Field" || first.Position != (blueprint.Position{X: 50, Y: 80}) || first.Width != 180 {
		t.Fatalf("first = %+v", first)
	}

	second, err := svc.AddFieldDraft(ctx, bp.ID, FieldDraft{Type: "signature", Label: "Tenant", Required: true})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if second.Label != "Tenant" || !second.Required || second.Position.Y != 140 || second.Height != 60 {
		t.Fatalf("second = %+v", second)
	}

	placed, err := svc.AddFieldDraft(ctx, bp.ID, FieldDraft{Type: "date", Position: &blueprint.Position{X: 600, Y: -5}})
	if err != nil {
		t.Fatalf("add placed: %v", err)
	}
	if placed.Position != (blueprint.Position{X: 495, Y: 0}) {
		t.Fatalf("placed position = %+v", placed.Position)
	}

	if _, err := svc.AddFieldDraft(ctx, "missing", FieldDraft{Type: "text"}); !apperrors.IsCode(err, apperrors.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
	if _, err := svc.AddFieldDraft(ctx, bp.ID, FieldDraft{Type: "radio"}); !apperrors.IsCode(err, apperrors.CodeBlueprintFieldInvalidType) {
		t.Fatalf("err = %v, want invalid type", err)
	}
}
