package contract

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
)

var fixedTime = time.Date(2026, 1, 23, 10, 0, 0, 0, time.UTC)

func clockFrom(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func staticID(value string) func() (string, error) {
	return func() (string, error) { return value, nil }
}

func serviceAgreement() blueprint.Blueprint {
	return blueprint.Blueprint{
		ID:   "bp-1",
		Name: "Service Agreement",
		Fields: []blueprint.Field{
			{ID: "f1", Type: blueprint.FieldText, Label: "Client Name", Required: true},
		},
	}
}

func contractAt(status Status) Contract {
	c := Contract{ID: "c-1", Name: "Test", Status: StatusCreated, Values: Values{}, Transitions: []Transition{}}
	now := clockFrom(fixedTime)
	for c.Status != status {
		next, ok := NextStatus(c.Status)
		if status == StatusRevoked && CanTransition(c.Status, StatusRevoked) {
			next, ok = StatusRevoked, true
		}
		if !ok {
			panic("unreachable status " + string(status))
		}
		var err error
		c, err = ApplyTransition(c, next, "", now)
		if err != nil {
			panic(err)
		}
	}
	return c
}

func TestCreateRequiresFields(t *testing.T) {
	bp := serviceAgreement()

	_, err := Create(CreateInput{Name: "Acme Services", Blueprint: bp, Values: Values{}}, clockFrom(fixedTime), staticID("c-1"))
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingFieldsError", err)
	}
	if len(missing.Labels) != 1 || missing.Labels[0] != "Client Name" {
		t.Fatalf("missing labels = %v, want [Client Name]", missing.Labels)
	}
	if !errors.Is(err, ErrMissingRequiredFields) {
		t.Fatal("expected errors.Is to match ErrMissingRequiredFields")
	}
	if got := apperrors.GetMetadata(err)["Fields"]; got != "Client Name" {
		t.Fatalf("Fields metadata = %q", got)
	}

	created, err := Create(CreateInput{Name: "Acme Services", Blueprint: bp, Values: Values{"Client Name": TextValue("Acme")}}, clockFrom(fixedTime), staticID("c-1"))
	if err != nil {
		t.Fatalf("create contract: %v", err)
	}
	if created.Status != StatusCreated {
		t.Fatalf("status = %s, want CREATED", created.Status)
	}
	if created.BlueprintID != "bp-1" || created.BlueprintName != "Service Agreement" {
		t.Fatalf("blueprint snapshot = %q/%q", created.BlueprintID, created.BlueprintName)
	}
	if len(created.Transitions) != 0 || created.Transitions == nil {
		t.Fatalf("expected empty non-nil transitions, got %#v", created.Transitions)
	}
	if !created.UpdatedAt.IsZero() {
		t.Fatal("expected zero updated at on creation")
	}
}

func TestCreateRequiredCheckbox(t *testing.T) {
	bp := blueprint.Blueprint{ID: "bp-2", Name: "NDA", Fields: []blueprint.Field{
		{ID: "f1", Type: blueprint.FieldCheckbox, Label: "Agree", Required: true},
	}}
	tests := []struct {
		name   string
		values Values
		ok     bool
	}{
		{name: "explicit false", values: Values{"Agree": BoolValue(false)}, ok: true},
		{name: "true", values: Values{"Agree": BoolValue(true)}, ok: true},
		{name: "absent", values: Values{}, ok: false},
		{name: "nil map", values: nil, ok: false},
		{name: "unset value", values: Values{"Agree": {}}, ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Create(CreateInput{Name: "x", Blueprint: bp, Values: tc.values}, nil, staticID("c-1"))
			if (err == nil) != tc.ok {
				t.Fatalf("err = %v, want ok=%v", err, tc.ok)
			}
		})
	}
}

func TestCreateEmptyTextCountsAsMissing(t *testing.T) {
	bp := serviceAgreement()
	bp.Fields = append(bp.Fields, blueprint.Field{ID: "f2", Type: blueprint.FieldDate, Label: "Start Date", Required: true})
	_, err := Create(CreateInput{Name: "x", Blueprint: bp, Values: Values{"Client Name": TextValue(""), "Start Date": DateValue("")}}, nil, staticID("c-1"))
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingFieldsError", err)
	}
	if len(missing.Labels) != 2 || missing.Labels[0] != "Client Name" || missing.Labels[1] != "Start Date" {
		t.Fatalf("labels = %v", missing.Labels)
	}
}

func TestCreateWhitespaceTextIsPresent(t *testing.T) {
	c, err := Create(CreateInput{Name: "x", Blueprint: serviceAgreement(), Values: Values{"Client Name": TextValue("  ")}}, nil, staticID("c-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := c.Values["Client Name"].String(); got != "  " {
		t.Fatalf("Client Name = %q", got)
	}
}

func TestCreateRejectsMistypedValues(t *testing.T) {
	bp := blueprint.Blueprint{ID: "bp-2", Name: "NDA", Fields: []blueprint.Field{
		{ID: "f1", Type: blueprint.FieldCheckbox, Label: "Agree", Required: true},
		{ID: "f2", Type: blueprint.FieldDate, Label: "Start Date"},
		{ID: "f3", Type: blueprint.FieldText, Label: "Salary"},
	}}
	tests := []struct {
		name   string
		values Values
		field  string
	}{
		{name: "text for checkbox", values: Values{"Agree": TextValue("banana")}, field: "Agree"},
		{name: "malformed date", values: Values{"Agree": BoolValue(true), "Start Date": TextValue("soon")}, field: "Start Date"},
		{name: "bool for text", values: Values{"Agree": BoolValue(true), "Salary": BoolValue(true)}, field: "Salary"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Create(CreateInput{Name: "x", Blueprint: bp, Values: tc.values}, nil, staticID("c-1"))
			if !apperrors.IsCode(err, apperrors.CodeContractValueInvalid) {
				t.Fatalf("err = %v, want CONTRACT_VALUE_INVALID", err)
			}
			if got := apperrors.GetMetadata(err)["Field"]; got != tc.field {
				t.Fatalf("Field metadata = %q, want %q", got, tc.field)
			}
		})
	}
}

func TestCreateTypesValuesByField(t *testing.T) {
	bp := blueprint.Blueprint{ID: "bp-2", Name: "Offer", Fields: []blueprint.Field{
		{ID: "f1", Type: blueprint.FieldCheckbox, Label: "Agree", Required: true},
		{ID: "f2", Type: blueprint.FieldDate, Label: "Start Date"},
		{ID: "f3", Type: blueprint.FieldText, Label: "Salary"},
	}}
	c, err := Create(CreateInput{Name: "x", Blueprint: bp, Values: Values{
		"Agree":      TextValue("true"),
		"Start Date": TextValue("2026-03-01"),
		"Salary":     TextValue("2026-01-01"),
	}}, nil, staticID("c-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if agree, ok := c.Values["Agree"].Bool(); !ok || !agree {
		t.Fatalf("Agree = %v", c.Values["Agree"])
	}
	if c.Values["Start Date"].Kind() != KindDate {
		t.Fatalf("Start Date kind = %v, want date", c.Values["Start Date"].Kind())
	}
	if c.Values["Salary"].Kind() != KindText {
		t.Fatalf("Salary kind = %v, want text", c.Values["Salary"].Kind())
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	_, err := Create(CreateInput{Name: "  ", Blueprint: serviceAgreement(), Values: Values{}}, nil, staticID("c-1"))
	if !errors.Is(err, ErrEmptyName) {
		t.Fatalf("err = %v, want ErrEmptyName", err)
	}
}

func TestCreateCopiesValues(t *testing.T) {
	values := Values{"Client Name": TextValue("Acme")}
	created, err := Create(CreateInput{Name: "x", Blueprint: serviceAgreement(), Values: values}, nil, staticID("c-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	values["Client Name"] = TextValue("Changed")
	if got, _ := created.Values["Client Name"].Text(); got != "Acme" {
		t.Fatalf("value = %q, want Acme", got)
	}
}

func TestApplyTransitionValid(t *testing.T) {
	c := contractAt(StatusCreated)
	stamp := fixedTime.Add(time.Hour)
	updated, err := ApplyTransition(c, StatusApproved, "  looks good ", func() time.Time { return stamp })
	if err != nil {
		t.Fatalf("apply transition: %v", err)
	}
	if updated.Status != StatusApproved {
		t.Fatalf("status = %s, want APPROVED", updated.Status)
	}
	if len(updated.Transitions) != 1 {
		t.Fatalf("transitions = %d, want 1", len(updated.Transitions))
	}
	got := updated.Transitions[0]
	if got.From != StatusCreated || got.To != StatusApproved || got.Note != "looks good" || !got.Timestamp.Equal(stamp) {
		t.Fatalf("transition = %+v", got)
	}
	if !updated.UpdatedAt.Equal(stamp) {
		t.Fatalf("updated at = %v, want %v", updated.UpdatedAt, stamp)
	}
	if c.Status != StatusCreated || len(c.Transitions) != 0 {
		t.Fatal("expected input contract unchanged")
	}
}

func TestApplyTransitionInvalidLeavesContractUnchanged(t *testing.T) {
	c := contractAt(StatusSent)
	before := len(c.Transitions)

	updated, err := ApplyTransition(c, StatusLocked, "", nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if updated.Status != StatusSent || len(updated.Transitions) != before {
		t.Fatalf("contract changed on failure: %s, %d transitions", updated.Status, len(updated.Transitions))
	}
	meta := apperrors.GetMetadata(err)
	if meta["FromStatus"] != "SENT" || meta["ToStatus"] != "LOCKED" {
		t.Fatalf("metadata = %v", meta)
	}
}

func TestApplyTransitionDoesNotAliasHistory(t *testing.T) {
	base := contractAt(StatusApproved)
	base.Transitions = append(make([]Transition, 0, 8), base.Transitions...)

	a, err := ApplyTransition(base, StatusSent, "a", nil)
	if err != nil {
		t.Fatalf("apply a: %v", err)
	}
	b, err := Revoke(contractAt(StatusCreated), "b", nil)
	if err != nil {
		t.Fatalf("apply b: %v", err)
	}
	if len(base.Transitions) != 2 {
		t.Fatalf("base transitions = %d, want 2", len(base.Transitions))
	}
	if a.Transitions[2].Note != "a" || b.Transitions[0].Note != "b" {
		t.Fatal("unexpected notes")
	}
	c, err := ApplyTransition(base, StatusSent, "c", nil)
	if err != nil {
		t.Fatalf("apply c: %v", err)
	}
	if a.Transitions[2].Note != "a" || c.Transitions[2].Note != "c" {
		t.Fatal("expected independent histories for branches off the same contract")
	}
}

func TestRevoke(t *testing.T) {
	signed := contractAt(StatusSigned)
	if _, err := Revoke(signed, "too late", nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("revoke signed err = %v, want ErrInvalidTransition", err)
	}
	locked := contractAt(StatusLocked)
	if _, err := Revoke(locked, "", nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("revoke locked err = %v, want ErrInvalidTransition", err)
	}

	sent := contractAt(StatusSent)
	revoked, err := Revoke(sent, "Partnership cancelled", nil)
	if err != nil {
		t.Fatalf("revoke sent: %v", err)
	}
	if revoked.Status != StatusRevoked {
		t.Fatalf("status = %s, want REVOKED", revoked.Status)
	}
	if len(revoked.Transitions) != len(sent.Transitions)+1 {
		t.Fatal("expected one appended transition")
	}
	last := revoked.Transitions[len(revoked.Transitions)-1]
	if last.To != StatusRevoked || last.From != StatusSent || last.Note != "Partnership cancelled" {
		t.Fatalf("last transition = %+v", last)
	}
}

func TestHappyPathLifecycle(t *testing.T) {
	c, err := Create(CreateInput{Name: "Acme", Blueprint: serviceAgreement(), Values: Values{"Client Name": TextValue("Acme")}}, clockFrom(fixedTime), staticID("c-1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	now := clockFrom(fixedTime)
	path := []Status{StatusApproved, StatusSent, StatusSigned, StatusLocked}
	for _, target := range path {
		c, err = ApplyTransition(c, target, "", now)
		if err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
	}
	if len(c.Transitions) != 4 {
		t.Fatalf("transitions = %d, want 4", len(c.Transitions))
	}
	from := StatusCreated
	for i, step := range c.Transitions {
		if step.From != from || step.To != path[i] {
			t.Fatalf("step %d = %s -> %s, want %s -> %s", i, step.From, step.To, from, path[i])
		}
		if i > 0 && !step.Timestamp.After(c.Transitions[i-1].Timestamp) {
			t.Fatal("expected increasing timestamps")
		}
		from = step.To
	}
	if err := Verify(c); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestAdvance(t *testing.T) {
	c := contractAt(StatusCreated)
	for _, want := range []Status{StatusApproved, StatusSent, StatusSigned, StatusLocked} {
		var err error
		c, err = Advance(c, "", nil)
		if err != nil {
			t.Fatalf("advance to %s: %v", want, err)
		}
		if c.Status != want {
			t.Fatalf("status = %s, want %s", c.Status, want)
		}
	}
	if _, err := Advance(c, "", nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("advance locked err = %v, want ErrInvalidTransition", err)
	}
}

func TestUpdateValues(t *testing.T) {
	c := contractAt(StatusApproved)
	c.Values = Values{"Client Name": TextValue("Acme"), "Agree": BoolValue(false)}
	stamp := fixedTime.Add(48 * time.Hour)

	updated, err := UpdateValues(c, blueprint.Blueprint{}, Values{"Agree": BoolValue(true), "Notes": TextValue("n")}, func() time.Time { return stamp })
	if err != nil {
		t.Fatalf("update values: %v", err)
	}
	if len(updated.Values) != 3 {
		t.Fatalf("values = %v", updated.Values)
	}
	if agree, _ := updated.Values["Agree"].Bool(); !agree {
		t.Fatal("expected merged value")
	}
	if agree, _ := c.Values["Agree"].Bool(); agree {
		t.Fatal("expected input values unchanged")
	}
	if !updated.UpdatedAt.Equal(stamp) || updated.Status != StatusApproved {
		t.Fatalf("updated = %+v", updated)
	}

	for _, status := range []Status{StatusLocked, StatusRevoked} {
		_, err := UpdateValues(contractAt(status), blueprint.Blueprint{}, Values{"x": TextValue("y")}, nil)
		if !errors.Is(err, ErrStatusTerminal) {
			t.Fatalf("%s: err = %v, want ErrStatusTerminal", status, err)
		}
	}
}

func TestUpdateValuesTypesByBlueprint(t *testing.T) {
	bp := blueprint.Blueprint{ID: "bp-1", Fields: []blueprint.Field{
		{ID: "f1", Type: blueprint.FieldCheckbox, Label: "Agree"},
		{ID: "f2", Type: blueprint.FieldDate, Label: "Start Date"},
	}}
	c := contractAt(StatusCreated)
	updated, err := UpdateValues(c, bp, Values{"Start Date": TextValue("2026-04-01")}, nil)
	if err != nil {
		t.Fatalf("update values: %v", err)
	}
	if updated.Values["Start Date"].Kind() != KindDate {
		t.Fatalf("Start Date kind = %v, want date", updated.Values["Start Date"].Kind())
	}
	before := updated.UpdatedAt
	rejected, err := UpdateValues(updated, bp, Values{"Agree": TextValue("banana")}, nil)
	if !apperrors.IsCode(err, apperrors.CodeContractValueInvalid) {
		t.Fatalf("err = %v, want CONTRACT_VALUE_INVALID", err)
	}
	if _, ok := rejected.Values["Agree"]; ok || !rejected.UpdatedAt.Equal(before) {
		t.Fatalf("rejected update changed contract: %+v", rejected)
	}
}

func TestReplayAndVerify(t *testing.T) {
	valid := contractAt(StatusRevoked)
	if status, err := Replay(valid.Transitions); err != nil || status != StatusRevoked {
		t.Fatalf("Replay = %s, %v; want REVOKED", status, err)
	}
	if status, err := Replay(nil); err != nil || status != StatusCreated {
		t.Fatalf("Replay(nil) = %s, %v; want CREATED", status, err)
	}

	tests := []struct {
		name string
		c    Contract
	}{
		{
			name: "status mismatch",
			c:    Contract{ID: "c-9", Status: StatusSent, Transitions: []Transition{{From: StatusCreated, To: StatusApproved}}},
		},
		{
			name: "invalid edge",
			c:    Contract{ID: "c-9", Status: StatusSigned, Transitions: []Transition{{From: StatusCreated, To: StatusSigned}}},
		},
		{
			name: "gap in chain",
			c: Contract{ID: "c-9", Status: StatusSigned, Transitions: []Transition{
				{From: StatusCreated, To: StatusApproved},
				{From: StatusSent, To: StatusSigned},
			}},
		},
	}
	for _, tc := range tests {
		err := Verify(tc.c)
		if !errors.Is(err, ErrHistoryInvalid) {
			t.Fatalf("%s: err = %v, want ErrHistoryInvalid", tc.name, err)
		}
		if got := apperrors.GetMetadata(err)["ContractID"]; got != "c-9" {
			t.Fatalf("%s: ContractID metadata = %q", tc.name, got)
		}
	}
}
