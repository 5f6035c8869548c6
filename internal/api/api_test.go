package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/MJE43/deathroll-go/internal/engine"
	"github.com/MJE43/deathroll-go/internal/games"
	"github.com/MJE43/deathroll-go/internal/session"
	"github.com/MJE43/deathroll-go/internal/store"
)

func newTestServer(t *testing.T, values ...int) (*Server, *store.SQLiteDB) {
	t.Helper()

	db, err := store.NewSQLiteDB(store.MemoryDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	opts := []session.Option{session.WithRecorder(db)}
	if len(values) > 0 {
		opts = append(opts, session.WithSources(func(uint64) engine.Source {
			return engine.NewSequenceSource(values...)
		}))
	}
	return NewServer(session.New(opts...), db, nil, 0), db
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Routes()

	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var resp HealthCheckResponse
	decode(t, w, &resp)
	if resp.Status != HealthStatusHealthy {
		t.Errorf("Expected healthy, got %s", resp.Status)
	}
	if _, ok := resp.Checks["database"]; !ok {
		t.Error("Expected database check")
	}

	for _, path := range []string{"/health/live", "/health/ready"} {
		if w := do(t, h, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, w.Code)
		}
	}
}

func TestHealthWithoutStore(t *testing.T) {
	server := NewServer(session.New(), nil, nil, 0)
	w := do(t, server.Routes(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	var resp HealthCheckResponse
	decode(t, w, &resp)
	if resp.Status != HealthStatusDegraded {
		t.Errorf("Expected degraded, got %s", resp.Status)
	}
}

func TestGamesEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	w := do(t, server.Routes(), http.MethodGet, "/api/v1/games", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp GamesResponse
	decode(t, w, &resp)
	if len(resp.Games) != 1 || resp.Games[0].ID != "deathroll" {
		t.Errorf("unexpected games %+v", resp.Games)
	}
	if len(resp.Rules) == 0 {
		t.Error("Expected rules in response")
	}
	if resp.EngineVersion == "" {
		t.Error("Expected engine version in response")
	}
}

func TestGameBeforeStart(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Routes()

	w := do(t, h, http.MethodGet, "/api/v1/game", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if got := w.Header().Get("X-Error-Type"); got != ErrTypeGameNotFound {
		t.Errorf("X-Error-Type = %q", got)
	}

	w = do(t, h, http.MethodPost, "/api/v1/game/roll", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for roll before start, got %d", w.Code)
	}
}

func TestPlayScenario(t *testing.T) {
	server, db := newTestServer(t, 3, 1)
	h := server.Routes()

	w := do(t, h, http.MethodPost, "/api/v1/game", `{"wager": 5}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var started GameResponse
	decode(t, w, &started)
	if started.Game.Status != games.StatusInProgress || started.Game.Bound != 5 {
		t.Errorf("unexpected start %+v", started.Game)
	}

	w = do(t, h, http.MethodPost, "/api/v1/game/roll", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var first RollResponse
	decode(t, w, &first)
	if first.Entry.Value != 3 || first.Message != "Player 1 rolled: 3" {
		t.Errorf("unexpected first roll %+v", first)
	}
	if first.Game.Bound != 3 || first.Game.Active != games.PlayerTwo {
		t.Errorf("unexpected game after first roll %+v", first.Game)
	}

	w = do(t, h, http.MethodPost, "/api/v1/game/roll", "")
	var second RollResponse
	decode(t, w, &second)
	if second.Game.Loser == nil || *second.Game.Loser != games.PlayerTwo {
		t.Errorf("Expected Player 2 to lose, got %v", second.Game.Loser)
	}
	if second.Game.Outcome != "Player 1 wins!" {
		t.Errorf("outcome = %q", second.Game.Outcome)
	}

	w = do(t, h, http.MethodPost, "/api/v1/game/roll", "")
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 after finish, got %d", w.Code)
	}
	var engineErr EngineError
	decode(t, w, &engineErr)
	if engineErr.Type != ErrTypeInvalidOperation {
		t.Errorf("error type = %q", engineErr.Type)
	}
	if engineErr.RequestID == "" {
		t.Error("Expected request id on error")
	}

	w = do(t, h, http.MethodGet, "/api/v1/game", "")
	var current GameResponse
	decode(t, w, &current)
	if len(current.Game.Log) != 3 {
		t.Errorf("Expected 3 log entries, got %d", len(current.Game.Log))
	}

	sum, err := db.Summary(context.Background(), 5)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Games != 1 || sum.PlayerTwoLosses != 1 {
		t.Errorf("unexpected history %+v", sum)
	}
}

func TestStartGameClampsAndAcceptsEmptyBody(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Routes()

	w := do(t, h, http.MethodPost, "/api/v1/game", `{"wager": 1}`)
	var resp GameResponse
	decode(t, w, &resp)
	if resp.Game.Wager != games.MinPlayableWager {
		t.Errorf("wager = %d, want %d", resp.Game.Wager, games.MinPlayableWager)
	}

	w = do(t, h, http.MethodPost, "/api/v1/game", "")
	if w.Code != http.StatusCreated {
		t.Errorf("Expected 201 for empty body, got %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/v1/game", `{"wager":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad JSON, got %d", w.Code)
	}
}

func TestOddsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Routes()

	tests := []struct {
		query   string
		status  int
		wager   int
		percent string
	}{
		{"?wager=10", http.StatusOK, 10, "90.00%"},
		{"?wager=2", http.StatusOK, 2, "50.00%"},
		{"?wager=1", http.StatusOK, 2, "50.00%"},
		{"", http.StatusOK, 2, "50.00%"},
		{"?wager=ten", http.StatusBadRequest, 0, ""},
	}

	for _, tt := range tests {
		w := do(t, h, http.MethodGet, "/api/v1/odds"+tt.query, "")
		if w.Code != tt.status {
			t.Errorf("%s: expected %d, got %d", tt.query, tt.status, w.Code)
			continue
		}
		if tt.status != http.StatusOK {
			continue
		}
		var resp OddsResponse
		decode(t, w, &resp)
		if resp.Wager != tt.wager || resp.LosePercent != tt.percent {
			t.Errorf("%s: got wager=%d percent=%s", tt.query, resp.Wager, resp.LosePercent)
		}
	}
}

func TestOddsTableEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	w := do(t, server.Routes(), http.MethodGet, "/api/v1/odds/table", "")
	var resp OddsTableResponse
	decode(t, w, &resp)
	if len(resp.Rows) != 5 {
		t.Fatalf("Expected 5 rows, got %d", len(resp.Rows))
	}
	if resp.Rows[0].Wager != 2 || resp.Rows[4].Wager != 100 {
		t.Errorf("unexpected rows %+v", resp.Rows)
	}
}

func TestStatsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, 1)
	h := server.Routes()

	do(t, h, http.MethodPost, "/api/v1/game", `{"wager": 10}`)
	do(t, h, http.MethodPost, "/api/v1/game/roll", "")

	w := do(t, h, http.MethodGet, "/api/v1/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var resp StatsResponse
	decode(t, w, &resp)
	if resp.Overall.Games != 1 || resp.Overall.PlayerOneLosses != 1 {
		t.Errorf("unexpected overall %+v", resp.Overall)
	}
	if len(resp.ByWager) != 1 {
		t.Fatalf("Expected 1 wager bucket, got %d", len(resp.ByWager))
	}
	bucket := resp.ByWager[0]
	if bucket.Wager != 10 || bucket.ObservedLossRate != 1 || bucket.PredictedPercent != "90.00%" {
		t.Errorf("unexpected bucket %+v", bucket)
	}
}

func TestSeedHashEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	h := server.Routes()

	w := do(t, h, http.MethodPost, "/api/v1/seed/hash", `{"server_seed":"abc"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var resp SeedHashResponse
	decode(t, w, &resp)
	if !strings.HasPrefix(resp.Hash, "ba7816bf") {
		t.Errorf("unexpected hash %s", resp.Hash)
	}
	if resp.Echo.ServerSeed != "abc" {
		t.Error("Expected echo to match request")
	}

	w = do(t, h, http.MethodPost, "/api/v1/seed/hash", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing seed, got %d", w.Code)
	}
}

func TestRecoveryHandler(t *testing.T) {
	eh := NewErrorHandler(zap.NewNop())
	h := eh.RecoveryHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
	var engineErr EngineError
	decode(t, w, &engineErr)
	if engineErr.Type != ErrTypeInternal {
		t.Errorf("error type = %q", engineErr.Type)
	}
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[string]ErrorCategory{
		ErrTypeInvalidWager:     CategoryValidation,
		ErrTypeValidation:       CategoryValidation,
		ErrTypeGameNotFound:     CategoryGame,
		ErrTypeInvalidOperation: CategoryGame,
		ErrTypeTimeout:          CategoryTimeout,
		ErrTypeInternal:         CategorySystem,
	}
	for errType, want := range tests {
		if got := GetErrorCategory(errType); got != want {
			t.Errorf("GetErrorCategory(%q) = %s, want %s", errType, got, want)
		}
	}
}

func TestHistoryEndpoints(t *testing.T) {
	server, _ := newTestServer(t, 1)
	h := server.Routes()

	for _, wager := range []int{5, 10, 10} {
		do(t, h, http.MethodPost, "/api/v1/game", fmt.Sprintf(`{"wager": %d}`, wager))
		do(t, h, http.MethodPost, "/api/v1/game/roll", "")
	}

	w := do(t, h, http.MethodGet, "/api/v1/history?per_page=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var page HistoryResponse
	decode(t, w, &page)
	if page.TotalCount != 3 || page.TotalPages != 2 || len(page.Games) != 2 {
		t.Errorf("unexpected page %+v", page.GamesList)
	}

	w = do(t, h, http.MethodGet, "/api/v1/history?wager=10", "")
	var filtered HistoryResponse
	decode(t, w, &filtered)
	if filtered.TotalCount != 2 {
		t.Errorf("Expected 2 games at wager 10, got %d", filtered.TotalCount)
	}

	id := page.Games[0].ID
	w = do(t, h, http.MethodGet, "/api/v1/history/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for %s, got %d", id, w.Code)
	}
	var one HistoryGameResponse
	decode(t, w, &one)
	if one.Game.ID != id || one.Game.Loser != "player_one" || one.Game.Rolls != 1 {
		t.Errorf("unexpected game %+v", one.Game)
	}

	w = do(t, h, http.MethodGet, "/api/v1/history/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
	if got := w.Header().Get("X-Error-Type"); got != ErrTypeGameNotFound {
		t.Errorf("X-Error-Type = %q", got)
	}

	for _, query := range []string{"?page=x", "?per_page=-1", "?wager=ten"} {
		if w := do(t, h, http.MethodGet, "/api/v1/history"+query, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", query, w.Code)
		}
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	h := NewServer(session.New(), nil, nil, 0).Routes()

	w := do(t, h, http.MethodGet, "/api/v1/history", "")
	var page HistoryResponse
	decode(t, w, &page)
	if w.Code != http.StatusOK || len(page.Games) != 0 {
		t.Errorf("unexpected response %d %+v", w.Code, page.GamesList)
	}

	if w := do(t, h, http.MethodGet, "/api/v1/history/abc", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestVersionEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	w := do(t, server.Routes(), http.MethodGet, "/api/v1/version", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var info VersionInfo
	decode(t, w, &info)
	if info != GetVersionInfo() {
		t.Errorf("version = %+v, want %+v", info, GetVersionInfo())
	}
}

func TestTimeoutHandler(t *testing.T) {
	eh := NewErrorHandler(zap.NewNop())

	slow := eh.TimeoutHandler(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	w := httptest.NewRecorder()
	slow.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/slow", nil))
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("Expected 504, got %d", w.Code)
	}
	var engineErr EngineError
	decode(t, w, &engineErr)
	if engineErr.Type != ErrTypeTimeout {
		t.Errorf("error type = %q", engineErr.Type)
	}
	if got := w.Header().Get("X-Error-Category"); got != string(CategoryTimeout) {
		t.Errorf("X-Error-Category = %q", got)
	}

	fast := eh.TimeoutHandler(time.Second)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	w = httptest.NewRecorder()
	fast.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fast", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", w.Code)
	}
}

func TestHandleErrorDeadline(t *testing.T) {
	eh := NewErrorHandler(zap.NewNop())
	w := httptest.NewRecorder()
	err := fmt.Errorf("failed to list games: %w", context.DeadlineExceeded)

	eh.HandleError(w, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil), err, http.StatusInternalServerError)
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("Expected 504, got %d", w.Code)
	}
	var engineErr EngineError
	decode(t, w, &engineErr)
	if engineErr.Type != ErrTypeTimeout {
		t.Errorf("error type = %q", engineErr.Type)
	}
}
