// Package httpapi exposes the contract desk over a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	"github.com/louisbranch/contractdesk/internal/services/contracts/api/http/templates"
	"github.com/louisbranch/contractdesk/internal/services/contracts/app"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/blueprint"
	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
	"github.com/louisbranch/contractdesk/internal/services/contracts/storage/codec"
)

// Options tunes the handler.
type Options struct {
	// RateLimitRPS is the sustained requests per second allowed per client
	// IP. Zero disables rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

type handler struct {
	service *app.Service
}

// NewHandler routes the API onto service.
func NewHandler(service *app.Service, opts Options) http.Handler {
	h := &handler{service: service}
	r := chi.NewRouter()
	if opts.RateLimitRPS > 0 {
		r.Use(newRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst).middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(api chi.Router) {
		api.Get("/dashboard", h.dashboard)

		api.Route("/blueprints", func(bp chi.Router) {
			bp.Get("/", h.listBlueprints)
			bp.Post("/", h.createBlueprint)
			bp.Route("/{blueprintID}", func(one chi.Router) {
				one.Get("/", h.getBlueprint)
				one.Patch("/", h.updateBlueprint)
				one.Delete("/", h.deleteBlueprint)
				one.Get("/layout", h.layout)
				one.Post("/fields", h.addField)
				one.Patch("/fields/{fieldID}", h.updateField)
				one.Delete("/fields/{fieldID}", h.removeField)
			})
		})

		api.Route("/contracts", func(c chi.Router) {
			c.Get("/", h.listContracts)
			c.Post("/", h.createContract)
			c.Route("/{contractID}", func(one chi.Router) {
				one.Get("/", h.getContract)
				one.Patch("/values", h.updateValues)
				one.Post("/transitions", h.transition)
				one.Post("/advance", h.advance)
				one.Post("/revoke", h.revoke)
				one.Get("/document", h.document)
			})
		})
	})
	return r
}

func (h *handler) dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newDashboardView(h.service.Dashboard()))
}

func (h *handler) listBlueprints(w http.ResponseWriter, r *http.Request) {
	snapshot := h.service.Snapshot()
	if notModified(w, r, snapshot.BlueprintsVersion) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blueprints": newBlueprintViews(snapshot.Blueprints)})
}

type createBlueprintRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *handler) createBlueprint(w http.ResponseWriter, r *http.Request) {
	var req createBlueprintRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	bp, err := h.service.CreateBlueprint(r.Context(), blueprint.CreateInput{Name: req.Name, Description: req.Description})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBlueprintView(bp))
}

func (h *handler) getBlueprint(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "blueprintID")
	bp, ok := h.service.Blueprint(id)
	if !ok {
		writeError(w, r, notFound("Blueprint", id))
		return
	}
	writeJSON(w, http.StatusOK, newBlueprintView(bp))
}

type updateBlueprintRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Fields      *[]codec.FieldRecord `json:"fields"`
}

func (h *handler) updateBlueprint(w http.ResponseWriter, r *http.Request) {
	var req updateBlueprintRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	input := blueprint.UpdateInput{Name: req.Name, Description: req.Description}
	if req.Fields != nil {
		fields := make([]blueprint.Field, 0, len(*req.Fields))
		for _, f := range *req.Fields {
			fields = append(fields, f.ToField())
		}
		input.Fields = &fields
	}
	bp, err := h.service.UpdateBlueprint(r.Context(), chi.URLParam(r, "blueprintID"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBlueprintView(bp))
}

func (h *handler) deleteBlueprint(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteBlueprint(r.Context(), chi.URLParam(r, "blueprintID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) layout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "blueprintID")
	fields, ok := h.service.Layout(id)
	if !ok {
		writeError(w, r, notFound("Blueprint", id))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": newFieldViews(fields)})
}

type fieldRequest struct {
	Type     string                `json:"type"`
	Label    string                `json:"label"`
	Position *codec.PositionRecord `json:"position"`
	Required bool                  `json:"required"`
	Width    float64               `json:"width"`
	Height   float64               `json:"height"`
}

func (h *handler) addField(w http.ResponseWriter, r *http.Request) {
	var req fieldRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	draft := app.FieldDraft{
		Type:     req.Type,
		Label:    req.Label,
		Required: req.Required,
		Width:    req.Width,
		Height:   req.Height,
	}
	if req.Position != nil {
		draft.Position = &blueprint.Position{X: req.Position.X, Y: req.Position.Y}
	}
	field, err := h.service.AddFieldDraft(r.Context(), chi.URLParam(r, "blueprintID"), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, codec.FromField(field))
}

type fieldPatchRequest struct {
	Type     *string               `json:"type"`
	Label    *string               `json:"label"`
	Position *codec.PositionRecord `json:"position"`
	Required *bool                 `json:"required"`
	Width    *float64              `json:"width"`
	Height   *float64              `json:"height"`
}

func (h *handler) updateField(w http.ResponseWriter, r *http.Request) {
	var req fieldPatchRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	patch := blueprint.FieldPatch{Label: req.Label, Required: req.Required, Width: req.Width, Height: req.Height}
	if req.Type != nil {
		t := blueprint.FieldType(strings.ToLower(strings.TrimSpace(*req.Type)))
		patch.Type = &t
	}
	if req.Position != nil {
		patch.Position = &blueprint.Position{X: req.Position.X, Y: req.Position.Y}
	}
	bp, err := h.service.UpdateField(r.Context(), chi.URLParam(r, "blueprintID"), chi.URLParam(r, "fieldID"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBlueprintView(bp))
}

func (h *handler) removeField(w http.ResponseWriter, r *http.Request) {
	bp, err := h.service.RemoveField(r.Context(), chi.URLParam(r, "blueprintID"), chi.URLParam(r, "fieldID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBlueprintView(bp))
}

func (h *handler) listContracts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := app.ContractQuery{
		Status:      query.Get("status"),
		BlueprintID: query.Get("blueprint_id"),
		Bucket:      query.Get("bucket"),
		Filter:      query.Get("filter"),
	}
	switch order := strings.TrimSpace(query.Get("order")); order {
	case "", "created":
	case "recent":
		q.Recent = true
	default:
		writeError(w, r, invalidRequest("order must be recent or created"))
		return
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, invalidRequest("limit must be a non-negative integer"))
			return
		}
		q.Limit = limit
	}

	list, err := h.service.ListContracts(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if notModified(w, r, list.Version) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"contracts": newContractViews(list.Contracts)})
}

type createContractRequest struct {
	Name        string          `json:"name"`
	BlueprintID string          `json:"blueprintId"`
	Values      contract.Values `json:"values"`
}

func (h *handler) createContract(w http.ResponseWriter, r *http.Request) {
	var req createContractRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.service.CreateContract(r.Context(), app.ContractInput{
		Name:        req.Name,
		BlueprintID: req.BlueprintID,
		Values:      req.Values,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newContractView(c))
}

func (h *handler) getContract(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contractID")
	c, ok := h.service.Contract(id)
	if !ok {
		writeError(w, r, notFound("Contract", id))
		return
	}
	writeJSON(w, http.StatusOK, newContractView(c))
}

type valuesRequest struct {
	Values contract.Values `json:"values"`
}

func (h *handler) updateValues(w http.ResponseWriter, r *http.Request) {
	var req valuesRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.service.UpdateValues(r.Context(), chi.URLParam(r, "contractID"), req.Values)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newContractView(c))
}

type transitionRequest struct {
	To             string `json:"to"`
	Note           string `json:"note"`
	ExpectedStatus string `json:"expectedStatus"`
}

func (h *handler) transition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, ok := contract.ParseStatus(req.To)
	if !ok {
		writeError(w, r, invalidRequest("unknown status "+strconv.Quote(req.To)))
		return
	}
	expected, err := parseExpected(req.ExpectedStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := h.service.Transition(r.Context(), chi.URLParam(r, "contractID"), app.TransitionRequest{
		Target:         target,
		Note:           req.Note,
		ExpectedStatus: expected,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newContractView(c))
}

type stepRequest struct {
	Note           string `json:"note"`
	ExpectedStatus string `json:"expectedStatus"`
}

func (h *handler) advance(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.service.Advance)
}

func (h *handler) revoke(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, h.service.Revoke)
}

type stepFunc func(ctx context.Context, id string, req app.StepRequest) (contract.Contract, error)

func (h *handler) step(w http.ResponseWriter, r *http.Request, apply stepFunc) {
	var req stepRequest
	if err := readOptionalJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	expected, err := parseExpected(req.ExpectedStatus)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := apply(r.Context(), chi.URLParam(r, "contractID"), app.StepRequest{Note: req.Note, ExpectedStatus: expected})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newContractView(c))
}

func (h *handler) document(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "contractID")
	c, ok := h.service.Contract(id)
	if !ok {
		writeError(w, r, notFound("Contract", id))
		return
	}
	var fields []blueprint.Field
	if bp, ok := h.service.Blueprint(c.BlueprintID); ok {
		fields = blueprint.RenderOrder(bp.Fields)
	}
	templ.Handler(templates.ContractDocument(newDocumentView(c, fields))).ServeHTTP(w, r)
}

func parseExpected(value string) (contract.Status, error) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	status, ok := contract.ParseStatus(value)
	if !ok {
		return "", invalidRequest("unknown expected status " + strconv.Quote(value))
	}
	return status, nil
}

func notFound(resource, id string) error {
	return apperrors.WithMetadata(
		apperrors.CodeNotFound,
		resource+" "+id+" not found",
		map[string]string{"Resource": resource, "ID": id},
	)
}

// notModified sets a strong ETag for version and answers 304 when the
// client already holds it.
func notModified(w http.ResponseWriter, r *http.Request, version string) bool {
	if version == "" {
		return false
	}
	etag := `"` + version + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}
