package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/ramonehamilton/PTCG-Companion/internal/api/response"
	"github.com/ramonehamilton/PTCG-Companion/internal/backend"
	"github.com/ramonehamilton/PTCG-Companion/internal/collection"
	"github.com/ramonehamilton/PTCG-Companion/internal/companion"
	"github.com/ramonehamilton/PTCG-Companion/internal/pokemontcg"
	"github.com/ramonehamilton/PTCG-Companion/internal/session"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	envelope := struct {
		Data interface{} `json:"data"`
	}{Data: v}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) response.ErrorResponse {
	t.Helper()
	var body response.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", &companion.AppError{Message: "bad", Err: companion.ErrValidation}, http.StatusBadRequest},
		{"registration", errors.Join(companion.ErrValidation, &backend.RegistrationError{StatusCode: 422}), http.StatusBadRequest},
		{"no session", session.ErrNotAuthenticated, http.StatusUnauthorized},
		{"expired", &companion.AppError{Message: "expired", Err: backend.ErrUnauthorized}, http.StatusUnauthorized},
		{"bad credentials", &companion.AppError{Message: "invalid", Err: backend.ErrInvalidCredentials}, http.StatusUnauthorized},
		{"duplicate", &companion.AppError{Message: "dup", Err: collection.ErrDuplicateCard}, http.StatusConflict},
		{"not found", fmt.Errorf("%w: card", companion.ErrNotFound), http.StatusNotFound},
		{"missing image", fmt.Errorf("%w: base1-4", pokemontcg.ErrMissingImage), http.StatusUnprocessableEntity},
		{"upstream", fmt.Errorf("%w: 500", companion.ErrUpstream), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, got)
			}
		})
	}
}

func TestSessionHandler_GetSession(t *testing.T) {
	facade := &mockSessionFacade{state: session.State{
		Authenticated: true,
		User:          &backend.User{ID: 1, Name: "Ash"},
		Avatar:        2,
	}}
	handler := NewSessionHandler(facade)

	rec := httptest.NewRecorder()
	handler.GetSession(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var state session.State
	decodeData(t, rec, &state)
	if !state.Authenticated || state.User == nil || state.User.Name != "Ash" || state.Avatar != 2 {
		t.Errorf("Unexpected state: %+v", state)
	}
}

func TestSessionHandler_Login(t *testing.T) {
	facade := &mockSessionFacade{}
	handler := NewSessionHandler(facade)

	rec := httptest.NewRecorder()
	handler.Login(rec, jsonRequest(http.MethodPost, "/api/v1/session/login", `{"email":"ash@example.com","password":"pikachu"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if facade.lastEmail != "ash@example.com" {
		t.Errorf("Expected email to be passed through, got %q", facade.lastEmail)
	}
}

func TestSessionHandler_LoginErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"empty body", "", nil, http.StatusBadRequest},
		{"malformed body", "{", nil, http.StatusBadRequest},
		{"invalid credentials", `{"email":"a","password":"b"}`,
			&companion.AppError{Message: "Invalid email or password.", Err: backend.ErrInvalidCredentials}, http.StatusUnauthorized},
		{"backend down", `{"email":"a","password":"b"}`,
			&companion.AppError{Message: "Failed to log in. Please try again.", Err: companion.ErrUpstream}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSessionHandler(&mockSessionFacade{err: tt.err})

			rec := httptest.NewRecorder()
			handler.Login(rec, jsonRequest(http.MethodPost, "/api/v1/session/login", tt.body))

			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestSessionHandler_LoginErrorMessage(t *testing.T) {
	handler := NewSessionHandler(&mockSessionFacade{
		err: &companion.AppError{Message: "Invalid email or password.", Err: backend.ErrInvalidCredentials},
	})

	rec := httptest.NewRecorder()
	handler.Login(rec, jsonRequest(http.MethodPost, "/api/v1/session/login", `{"email":"a","password":"b"}`))

	if body := decodeError(t, rec); body.Message != "Invalid email or password." {
		t.Errorf("Expected user-facing message, got %q", body.Message)
	}
}

func TestSessionHandler_Logout(t *testing.T) {
	facade := &mockSessionFacade{state: session.State{Authenticated: true, Avatar: 4}}
	handler := NewSessionHandler(facade)

	rec := httptest.NewRecorder()
	handler.Logout(rec, httptest.NewRequest(http.MethodPost, "/api/v1/session/logout", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !facade.loggedOut {
		t.Error("Expected facade Logout to be called")
	}
	var state session.State
	decodeData(t, rec, &state)
	if state.Authenticated || state.Avatar != 4 {
		t.Errorf("Unexpected state after logout: %+v", state)
	}
}

func TestSessionHandler_Register(t *testing.T) {
	facade := &mockSessionFacade{message: "Registration successful."}
	handler := NewSessionHandler(facade)

	body := `{"name":"Ash","email":"ash@example.com","password":"p","confirmPassword":"p"}`
	rec := httptest.NewRecorder()
	handler.Register(rec, jsonRequest(http.MethodPost, "/api/v1/session/register", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}
	if facade.lastInput.ConfirmPassword != "p" || facade.lastInput.Name != "Ash" {
		t.Errorf("Unexpected input: %+v", facade.lastInput)
	}
	var data map[string]string
	decodeData(t, rec, &data)
	if data["message"] != "Registration successful." {
		t.Errorf("Unexpected message: %v", data)
	}
}

func TestSessionHandler_RegisterRejected(t *testing.T) {
	regErr := &backend.RegistrationError{
		StatusCode: 422,
		Fields:     map[string][]string{"email": {"The email has already been taken."}},
	}
	handler := NewSessionHandler(&mockSessionFacade{
		err: &companion.AppError{Message: regErr.Error(), Err: errors.Join(companion.ErrValidation, regErr)},
	})

	rec := httptest.NewRecorder()
	handler.Register(rec, jsonRequest(http.MethodPost, "/api/v1/session/register", `{"name":"a"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if body := decodeError(t, rec); !strings.Contains(body.Message, "already been taken") {
		t.Errorf("Expected field errors in message, got %q", body.Message)
	}
}

func TestSessionHandler_Avatar(t *testing.T) {
	facade := &mockSessionFacade{state: session.State{Avatar: 1}, lastAvatar: -1}
	handler := NewSessionHandler(facade)

	rec := httptest.NewRecorder()
	handler.SetAvatar(rec, jsonRequest(http.MethodPut, "/api/v1/session/avatar", `{"index":0}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if facade.lastAvatar != 0 {
		t.Errorf("Expected avatar 0 to be set, got %d", facade.lastAvatar)
	}

	rec = httptest.NewRecorder()
	handler.GetAvatar(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session/avatar", nil))
	var data map[string]int
	decodeData(t, rec, &data)
	if data["index"] != 0 {
		t.Errorf("Expected index 0, got %v", data)
	}
}

func TestSessionHandler_AvatarMissingIndex(t *testing.T) {
	handler := NewSessionHandler(&mockSessionFacade{})

	rec := httptest.NewRecorder()
	handler.SetAvatar(rec, jsonRequest(http.MethodPut, "/api/v1/session/avatar", `{}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestSessionHandler_RequireSession(t *testing.T) {
	facade := &mockSessionFacade{}
	handler := NewSessionHandler(facade)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	guarded := handler.RequireSession(next)

	rec := httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without session, got %d", rec.Code)
	}

	facade.state.Authenticated = true
	rec = httptest.NewRecorder()
	guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected request to pass through, got %d", rec.Code)
	}
}

func TestCatalogHandler_ListSets(t *testing.T) {
	handler := NewCatalogHandler(&mockCatalogFacade{sets: []pokemontcg.Set{{ID: "base1", Name: "Base", Series: "Base"}}})

	rec := httptest.NewRecorder()
	handler.ListSets(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/sets", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var sets []pokemontcg.Set
	decodeData(t, rec, &sets)
	if len(sets) != 1 || sets[0].ID != "base1" {
		t.Errorf("Unexpected sets: %+v", sets)
	}
}

func TestCatalogHandler_GetSetCards(t *testing.T) {
	facade := &mockCatalogFacade{cards: []pokemontcg.Card{{ID: "base1-4", Name: "Charizard"}}}
	handler := NewCatalogHandler(facade)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/sets/base1/cards?q=char", nil), "setID", "base1")
	rec := httptest.NewRecorder()
	handler.GetSetCards(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if facade.lastSet != "base1" || facade.lastFilter != "char" {
		t.Errorf("Unexpected arguments: set=%q filter=%q", facade.lastSet, facade.lastFilter)
	}
}

func TestCatalogHandler_SearchCards(t *testing.T) {
	facade := &mockCatalogFacade{cards: []pokemontcg.Card{{ID: "base1-58", Name: "Pikachu"}}}
	handler := NewCatalogHandler(facade)

	rec := httptest.NewRecorder()
	handler.SearchCards(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/cards?name=pikachu", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if facade.lastName != "pikachu" {
		t.Errorf("Expected name pikachu, got %q", facade.lastName)
	}

	rec = httptest.NewRecorder()
	handler.SearchCards(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/cards?name=%20", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for blank name, got %d", rec.Code)
	}
}

func TestCatalogHandler_GetCard(t *testing.T) {
	price := 4.5
	handler := NewCatalogHandler(&mockCatalogFacade{detail: &companion.CardDetail{
		Card:        &pokemontcg.Card{ID: "base1-4", Name: "Charizard"},
		MarketPrice: &price,
	}})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/cards/base1-4", nil), "cardID", "base1-4")
	rec := httptest.NewRecorder()
	handler.GetCard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var detail companion.CardDetail
	decodeData(t, rec, &detail)
	if detail.MarketPrice == nil || *detail.MarketPrice != 4.5 {
		t.Errorf("Unexpected market price: %v", detail.MarketPrice)
	}
}

func TestCatalogHandler_GetCardErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", &companion.AppError{Message: "nf", Err: companion.ErrNotFound}, http.StatusNotFound},
		{"missing image", &companion.AppError{Message: "img", Err: pokemontcg.ErrMissingImage}, http.StatusUnprocessableEntity},
		{"upstream", &companion.AppError{Message: "up", Err: companion.ErrUpstream}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCatalogHandler(&mockCatalogFacade{err: tt.err})
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/catalog/cards/x", nil), "cardID", "x")
			rec := httptest.NewRecorder()
			handler.GetCard(rec, req)

			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestCollectionHandler_GetCollection(t *testing.T) {
	handler := NewCollectionHandler(&mockCollectionFacade{snapshot: &companion.Snapshot{
		Entries: []collection.EnrichedEntry{{Entry: collection.Entry{ID: 1, CardID: "base1-4"}}},
	}})

	rec := httptest.NewRecorder()
	handler.GetCollection(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var snap companion.Snapshot
	decodeData(t, rec, &snap)
	if len(snap.Entries) != 1 || snap.Entries[0].CardID != "base1-4" {
		t.Errorf("Unexpected snapshot: %+v", snap)
	}
}

func TestCollectionHandler_Refresh(t *testing.T) {
	facade := &mockCollectionFacade{snapshot: &companion.Snapshot{}}
	handler := NewCollectionHandler(facade)

	rec := httptest.NewRecorder()
	handler.RefreshCollection(rec, httptest.NewRequest(http.MethodPost, "/api/v1/collection/refresh", nil))

	if rec.Code != http.StatusOK || !facade.refreshed {
		t.Errorf("Expected refresh, got status %d refreshed=%v", rec.Code, facade.refreshed)
	}
}

func TestCollectionHandler_AddCard(t *testing.T) {
	facade := &mockCollectionFacade{entry: &collection.EnrichedEntry{Entry: collection.Entry{ID: 7, CardID: "base1-4"}}}
	handler := NewCollectionHandler(facade)

	rec := httptest.NewRecorder()
	handler.AddCard(rec, jsonRequest(http.MethodPost, "/api/v1/collection", `{"cardId":" base1-4 "}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d", rec.Code)
	}
	if facade.added != "base1-4" {
		t.Errorf("Expected trimmed card ID, got %q", facade.added)
	}
}

func TestCollectionHandler_AddCardErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"missing card", `{}`, nil, http.StatusBadRequest},
		{"duplicate", `{"cardId":"base1-4"}`,
			&companion.AppError{Message: "already", Err: collection.ErrDuplicateCard}, http.StatusConflict},
		{"no session", `{"cardId":"base1-4"}`,
			&companion.AppError{Message: "Please log in first.", Err: session.ErrNotAuthenticated}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewCollectionHandler(&mockCollectionFacade{err: tt.err})
			rec := httptest.NewRecorder()
			handler.AddCard(rec, jsonRequest(http.MethodPost, "/api/v1/collection", tt.body))

			if rec.Code != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestCollectionHandler_RemoveEntry(t *testing.T) {
	facade := &mockCollectionFacade{}
	handler := NewCollectionHandler(facade)

	req := withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/collection/42", nil), "entryID", "42")
	rec := httptest.NewRecorder()
	handler.RemoveEntry(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("Expected status 204, got %d", rec.Code)
	}
	if facade.removed != 42 {
		t.Errorf("Expected entry 42 removed, got %d", facade.removed)
	}

	req = withURLParam(httptest.NewRequest(http.MethodDelete, "/api/v1/collection/abc", nil), "entryID", "abc")
	rec = httptest.NewRecorder()
	handler.RemoveEntry(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for bad ID, got %d", rec.Code)
	}
}

func TestCollectionHandler_ValueSeriesSpend(t *testing.T) {
	facade := &mockCollectionFacade{
		value:  &companion.ValueSummary{Total: 16.5, Display: "16.50", Count: 3},
		series: []companion.SeriesSummary{{Series: "Base", Count: 2, Color: "#FFCB05"}},
		spend:  []collection.DayAmount{{Date: "2024-01-05", Amount: 3}},
	}
	handler := NewCollectionHandler(facade)

	rec := httptest.NewRecorder()
	handler.GetValue(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection/value", nil))
	var value companion.ValueSummary
	decodeData(t, rec, &value)
	if value.Display != "16.50" {
		t.Errorf("Expected display 16.50, got %q", value.Display)
	}

	rec = httptest.NewRecorder()
	handler.GetSeries(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection/series", nil))
	var series []companion.SeriesSummary
	decodeData(t, rec, &series)
	if len(series) != 1 || series[0].Count != 2 {
		t.Errorf("Unexpected series: %+v", series)
	}

	rec = httptest.NewRecorder()
	handler.GetSpend(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection/spend?mode=cumulative", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if facade.lastMode != "cumulative" {
		t.Errorf("Expected mode cumulative, got %q", facade.lastMode)
	}
}

func TestCollectionHandler_Charts(t *testing.T) {
	facade := &mockCollectionFacade{chart: "<html>chart</html>"}
	handler := NewCollectionHandler(facade)

	rec := httptest.NewRecorder()
	handler.GetSeriesChart(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection/charts/series", nil))
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("Expected HTML page, got %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Body.String() != "<html>chart</html>" {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.GetSpendChart(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection/charts/spend?mode=daily", nil))
	if rec.Code != http.StatusOK || facade.lastMode != "daily" {
		t.Errorf("Expected daily spend chart, got %d mode=%q", rec.Code, facade.lastMode)
	}
}

func TestCollectionHandler_ChartErrorIsJSON(t *testing.T) {
	handler := NewCollectionHandler(&mockCollectionFacade{
		err: &companion.AppError{Message: "Unknown spend mode.", Err: companion.ErrValidation},
	})

	rec := httptest.NewRecorder()
	handler.GetSpendChart(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection/charts/spend?mode=weekly", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Expected JSON error, got %s", rec.Header().Get("Content-Type"))
	}
}

func TestCollectionHandler_Export(t *testing.T) {
	handler := NewCollectionHandler(&mockCollectionFacade{chart: "entry_id,card_id\n"})

	rec := httptest.NewRecorder()
	handler.ExportCollection(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collection/export?format=json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Unexpected content type: %s", rec.Header().Get("Content-Type"))
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="collection.json"` {
		t.Errorf("Unexpected disposition: %s", got)
	}
}

func TestCollectionHandler_GetProfile(t *testing.T) {
	handler := NewCollectionHandler(&mockCollectionFacade{profile: &companion.Profile{
		User:        backend.User{ID: 1, Name: "Ash"},
		MemberSince: "January 2024",
		Avatar:      3,
	}})

	rec := httptest.NewRecorder()
	handler.GetProfile(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	var profile companion.Profile
	decodeData(t, rec, &profile)
	if profile.User.Name != "Ash" || profile.Avatar != 3 {
		t.Errorf("Unexpected profile: %+v", profile)
	}
}
