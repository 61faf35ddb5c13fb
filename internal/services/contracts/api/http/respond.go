package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	apperrors "github.com/louisbranch/contractdesk/internal/platform/errors"
	"github.com/louisbranch/contractdesk/internal/platform/errors/i18n"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	RequestID string      `json:"requestId"`
	Error     errorDetail `json:"error"`
}

type errorDetail struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalidRequest(fmt.Sprintf("malformed JSON body: %v", err))
	}
	return nil
}

// readOptionalJSON is readJSON for endpoints whose body may be omitted. An
// empty body leaves dst untouched, whatever ContentLength says.
func readOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalidRequest(fmt.Sprintf("malformed JSON body: %v", err))
	}
	return nil
}

// writeError renders err with a status derived from its code and a message
// localized from Accept-Language.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	status := code.HTTPStatus()
	locale := i18n.ResolveLocale(r.Header.Get("Accept-Language"))
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}

	var metadata map[string]string
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		metadata = appErr.Metadata
	}
	w.Header().Set("Content-Language", locale)
	writeJSON(w, status, errorBody{
		RequestID: "req_" + uuid.NewString(),
		Error: errorDetail{
			Code:     string(code),
			Message:  apperrors.LocalizedMessage(err, locale),
			Metadata: metadata,
		},
	})
}

func invalidRequest(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidRequest, reason, map[string]string{"Reason": reason})
}
