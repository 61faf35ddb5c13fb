package httpapi

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/louisbranch/contractdesk/internal/services/contracts/domain/contract"
)

func urlEscape(s string) string {
	return url.QueryEscape(s)
}

func mustValues(t *testing.T, raw string) contract.Values {
	t.Helper()
	var values contract.Values
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		t.Fatalf("values: %v", err)
	}
	return values
}
