package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseopener/internal/cases"
	"caseopener/internal/model"
	"caseopener/internal/service"
)

type stubOpener struct {
	receipt *service.Receipt
	err     error
}

func (s *stubOpener) OpenCase(_ context.Context, userID, caseID int64) (*service.Receipt, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := *s.receipt
	r.UserID = userID
	r.CaseID = caseID
	return &r, nil
}

type stubAccounts struct {
	summary   *service.AccountSummary
	inventory []model.InventoryItem
	history   []model.AcquisitionEvent
	err       error
}

func (s *stubAccounts) Summary(context.Context, int64) (*service.AccountSummary, error) {
	return s.summary, s.err
}

func (s *stubAccounts) Inventory(context.Context, int64) ([]model.InventoryItem, error) {
	return s.inventory, s.err
}

func (s *stubAccounts) History(context.Context, int64) ([]model.AcquisitionEvent, error) {
	return s.history, s.err
}

func (s *stubAccounts) Register(_ context.Context, username string) (*model.UserAccount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.UserAccount{ID: 7, Username: username, Balance: 0}, nil
}

type stubPinger struct{ err error }

func (s *stubPinger) HealthCheck(context.Context) error { return s.err }

func testRegistry(t *testing.T) *cases.Registry {
	t.Helper()
	pool, err := cases.NewPool([]cases.Entry{
		{ItemID: 1, Weight: 1200, Rarity: model.RarityCommon},
		{ItemID: 2, Weight: 200, Rarity: model.RarityRare},
	})
	require.NoError(t, err)

	registry := cases.NewRegistry()
	require.NoError(t, registry.Publish(&cases.Case{ID: 1, Name: "Alpha Case 1", Price: 25, Pool: pool}))
	return registry
}

func newTestRouter(t *testing.T, opener CaseOpener, accounts AccountReader, health Pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(testRegistry(t), opener, accounts, health).RegisterRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{}, &stubPinger{})

	rec := doRequest(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestHealthz_Degraded(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{}, &stubPinger{err: errors.New("down")})

	rec := doRequest(router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decodeBody(t, rec)["status"])
}

func TestListCases(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{}, nil)

	rec := doRequest(router, http.MethodGet, "/api/cases", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	list, ok := body["cases"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)

	first := list[0].(map[string]any)
	assert.Equal(t, "Alpha Case 1", first["name"])
	assert.Equal(t, float64(25), first["price"])
	assert.Equal(t, float64(1), first["version"])
	assert.Equal(t, float64(2), first["drops"])
}

func TestOpenCase_Success(t *testing.T) {
	opener := &stubOpener{receipt: &service.Receipt{
		CaseName:    "Alpha Case 1",
		CaseVersion: 1,
		Price:       25,
		NewBalance:  75,
		TotalSpent:  25,
		Item:        model.Item{ID: 2, Name: "Shiny Rifle", Rarity: model.RarityRare, Value: 60},
		Quantity:    1,
		Draw:        &model.DrawRecord{ID: 7, Sampled: 1337, TotalWeight: 1400},
	}}
	router := newTestRouter(t, opener, &stubAccounts{}, nil)

	rec := doRequest(router, http.MethodPost, "/api/cases/1/open", "42")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	win := body["win"].(map[string]any)
	assert.Equal(t, "Shiny Rifle", win["name"])
	assert.Equal(t, model.RarityRare, win["rarity"])
	assert.Equal(t, float64(75), body["balance"])
	assert.Equal(t, float64(1), body["quantity"])

	drawInfo := body["draw"].(map[string]any)
	assert.Equal(t, float64(1337), drawInfo["sampled"])
	assert.Equal(t, float64(1400), drawInfo["totalWeight"])
}

func TestOpenCase_Unauthenticated(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{}, nil)

	for _, header := range []string{"", "abc", "-1", "0"} {
		rec := doRequest(router, http.MethodPost, "/api/cases/1/open", header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestOpenCase_InvalidCaseID(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{}, nil)

	rec := doRequest(router, http.MethodPost, "/api/cases/nope/open", "42")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_case_id", decodeBody(t, rec)["error"])
}

func TestOpenCase_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"unknown case", cases.ErrUnknownCase, http.StatusNotFound, "case_not_found"},
		{"unknown user", service.ErrUnknownUser, http.StatusNotFound, "user_not_found"},
		{"insufficient funds", service.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
		{"storage failure", service.ErrStorage, http.StatusServiceUnavailable, "storage_failure"},
		{"unexpected", errors.New("boom"), http.StatusServiceUnavailable, "storage_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubOpener{err: tt.err}, &stubAccounts{}, nil)

			rec := doRequest(router, http.MethodPost, "/api/cases/1/open", "42")
			assert.Equal(t, tt.wantStatus, rec.Code)

			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, true, body["retryable"])
			}
		})
	}
}

func TestGetSummary(t *testing.T) {
	accounts := &stubAccounts{summary: &service.AccountSummary{
		Account: &model.UserAccount{
			ID: 42, Username: "johndoe", Balance: 75, TotalSpent: 25,
		},
		InventoryValue: 60,
		ItemCount:      1,
		ROI:            35,
	}}
	router := newTestRouter(t, &stubOpener{}, accounts, nil)

	rec := doRequest(router, http.MethodGet, "/api/me", "42")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "johndoe", body["username"])
	assert.Equal(t, float64(75), body["balance"])
	assert.Equal(t, float64(60), body["inventoryValue"])
	assert.Equal(t, float64(35), body["roi"])
}

func TestGetSummary_UnknownUser(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{err: service.ErrUnknownUser}, nil)

	rec := doRequest(router, http.MethodGet, "/api/me", "42")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user_not_found", decodeBody(t, rec)["error"])
}

func TestGetInventory(t *testing.T) {
	accounts := &stubAccounts{inventory: []model.InventoryItem{
		{ItemID: 2, Name: "Shiny Rifle", Rarity: model.RarityRare, Value: 60, Quantity: 3},
		{ItemID: 1, Name: "Rusty Pistol", Rarity: model.RarityCommon, Value: 5, Quantity: 1},
	}}
	router := newTestRouter(t, &stubOpener{}, accounts, nil)

	rec := doRequest(router, http.MethodGet, "/api/inventory", "42")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody(t, rec)["inventory"].([]any)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, "Shiny Rifle", first["name"])
	assert.Equal(t, float64(3), first["quantity"])
}

func TestGetHistory(t *testing.T) {
	accounts := &stubAccounts{history: []model.AcquisitionEvent{
		{CaseID: 1, CaseName: "Alpha Case 1", ItemID: 2, ItemName: "Shiny Rifle", Rarity: model.RarityRare, Value: 60},
	}}
	router := newTestRouter(t, &stubOpener{}, accounts, nil)

	rec := doRequest(router, http.MethodGet, "/api/history", "42")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody(t, rec)["history"].([]any)
	require.Len(t, list, 1)
	event := list[0].(map[string]any)
	assert.Equal(t, "Alpha Case 1", event["caseName"])
	assert.Equal(t, "Shiny Rifle", event["itemName"])
}

func TestRegister(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"username":"newuser"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "newuser", body["username"])
	assert.Equal(t, float64(0), body["balance"])
}

func TestRegister_MissingUsername(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_username", decodeBody(t, rec)["error"])
}

func TestRegister_UsernameTaken(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{err: service.ErrUsernameTaken}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(`{"username":"johndoe"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "username_taken", decodeBody(t, rec)["error"])
}

func TestReads_Unauthenticated(t *testing.T) {
	router := newTestRouter(t, &stubOpener{}, &stubAccounts{}, nil)

	for _, path := range []string{"/api/me", "/api/inventory", "/api/history"} {
		rec := doRequest(router, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "path %s", path)
	}
}
