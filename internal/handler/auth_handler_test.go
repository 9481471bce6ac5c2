package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"relaychat/internal/pkg/errs"
)

// Email is a required, unique account field. Registration must reject a
// missing or malformed email before touching the database, or the empty
// string would end up in the unique email column.
func TestRegisterRequiresValidEmail(t *testing.T) {
	router := Router(testDeps())

	cases := []struct {
		name     string
		email    string
		wantCode int
	}{
		{"missing email", "", errs.ErrInvalidParams},
		{"malformed email", "not-an-address", errs.ErrInvalidEmail},
	}

	for _, c := range cases {
		body := fmt.Sprintf(
			`{"phone":"+15550100","email":%q,"password":"secret1","first_name":"Ann","last_name":"Lee","code":"123456"}`,
			c.email)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", c.name, rec.Code)
		}

		var got struct {
			Code int `json:"code"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("%s: invalid response body: %v", c.name, err)
		}
		if got.Code != c.wantCode {
			t.Fatalf("%s: expected error code %d, got %d", c.name, c.wantCode, got.Code)
		}
	}
}
