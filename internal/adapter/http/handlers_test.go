package adapthttp_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	adapthttp "baclog/internal/adapter/http"
	"baclog/internal/adapter/memory"
	"baclog/internal/app"
	"baclog/internal/config"
	"baclog/internal/domain"
)

// ---------------------------------------------------------------------------
// Test-server helper
// ---------------------------------------------------------------------------

// newTestServer wires real services over the in-memory adapter with auth
// disabled, so every request runs as user 1.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db := memory.New()
	cfg := config.Default()
	clock := domain.SystemClock{}
	log := zerolog.Nop()

	engine := app.NewEngine(app.EngineConfig{
		MetabolismRatePerHour: cfg.BAC.MetabolismRatePerHour,
		Thresholds: domain.Thresholds{
			Caution: cfg.BAC.CautionLevel,
			Legal:   cfg.BAC.LegalLevel,
			High:    cfg.BAC.HighLevel,
		},
	})
	coords := app.NewRegistry(db, db, engine, clock, app.NewLogNotifier(log),
		app.CoordinatorConfig{Lookback: cfg.BAC.Lookback()}, cfg.BAC.RefreshInterval(), log)
	drinks := app.NewDrinkService(db, coords, clock, app.DrinkConfig{
		EthanolDensityGramsPerMl: cfg.BAC.EthanolDensityGramsPerMl,
		GramsPerStandardDrink:    cfg.BAC.GramsPerStandardDrink,
	})
	profile := app.NewProfileService(db, coords)
	auth := app.NewAuthService(db, db.NewSessionRepo())

	srv := adapthttp.New(drinks, profile, coords, auth, nil, log).WithoutAuth()
	return httptest.NewServer(srv.Handler())
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return m
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func putJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

// saveProfile stores a 160 lb male profile for the test user.
func saveProfile(t *testing.T, baseURL string) {
	t.Helper()
	resp := putJSON(t, baseURL+"/api/profile", map[string]any{
		"weight": 160.0, "unit": "lb", "gender": "male",
	})
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile setup failed with status %d", resp.StatusCode)
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := decodeBody(t, resp)
	if body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body["ok"])
	}
}

func TestProfilePutAndGet(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := putJSON(t, ts.URL+"/api/profile", map[string]any{
		"weight": 160.0, "unit": "lb", "gender": "male",
	})
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	p, ok := body["profile"].(map[string]any)
	if !ok {
		t.Fatalf("response missing profile object: %v", body)
	}
	kg, _ := p["weightKg"].(float64)
	if kg < 72.5 || kg > 72.7 {
		t.Fatalf("expected 160 lb stored as ~72.57 kg, got %v", kg)
	}

	getResp, err := http.Get(ts.URL + "/api/profile")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer getResp.Body.Close() //nolint:errcheck
	got := decodeBody(t, getResp)
	gp, ok := got["profile"].(map[string]any)
	if !ok {
		t.Fatalf("GET response missing profile object: %v", got)
	}
	if gp["gender"] != "male" {
		t.Fatalf("expected gender male, got %v", gp["gender"])
	}
}

func TestProfileGetBeforeSave(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/profile")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["profile"] != nil {
		t.Fatalf("expected null profile, got %v", body["profile"])
	}
}

func TestProfilePutValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"weight zero", map[string]any{"weight": 0, "unit": "kg", "gender": "male"}},
		{"weight negative", map[string]any{"weight": -70.0, "unit": "kg", "gender": "male"}},
		{"invalid unit", map[string]any{"weight": 70.0, "unit": "stone", "gender": "male"}},
		{"invalid gender", map[string]any{"weight": 70.0, "unit": "kg", "gender": "robot"}},
	}

	ts := newTestServer(t)
	defer ts.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := putJSON(t, ts.URL+"/api/profile", tt.payload)
			defer resp.Body.Close() //nolint:errcheck
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestDrinkPostWithGrams(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	saveProfile(t, ts.URL)

	resp := postJSON(t, ts.URL+"/api/drinks", map[string]any{
		"name": "whisky", "alcoholGrams": 14.0,
	})
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)

	drink, ok := body["drink"].(map[string]any)
	if !ok {
		t.Fatalf("response missing drink object: %v", body)
	}
	id, _ := drink["id"].(string)
	if len(id) != 26 {
		t.Fatalf("expected a 26-char ULID, got %q", id)
	}
	if sd, _ := body["standardDrinks"].(float64); sd != 1 {
		t.Fatalf("expected 1 standard drink, got %v", sd)
	}

	est, ok := body["estimate"].(map[string]any)
	if !ok {
		t.Fatalf("expected an estimate after logging a drink, got %v", body)
	}
	if bac, _ := est["bac"].(float64); bac <= 0 {
		t.Fatalf("expected a positive bac, got %v", bac)
	}
}

func TestDrinkPostDerivesGramsFromVolume(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	saveProfile(t, ts.URL)

	// 355 ml at 5% ABV is 14.00475 g of ethanol.
	resp := postJSON(t, ts.URL+"/api/drinks", map[string]any{
		"name": "beer", "volumeMl": 355.0, "abvPercent": 5.0,
	})
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	drink, ok := body["drink"].(map[string]any)
	if !ok {
		t.Fatalf("response missing drink object: %v", body)
	}
	grams, _ := drink["alcoholGrams"].(float64)
	if grams < 14.0 || grams > 14.01 {
		t.Fatalf("expected ~14.005 g derived, got %v", grams)
	}
}

func TestDrinkPostValidation(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
	}{
		{"no alcohol", map[string]any{"name": "water"}},
		{"negative grams", map[string]any{"name": "x", "alcoholGrams": -1.0}},
		{"abv over 100", map[string]any{"name": "x", "volumeMl": 100.0, "abvPercent": 150.0}},
		{"future consumedAt", map[string]any{"name": "x", "alcoholGrams": 14.0, "consumedAt": "2099-01-01T00:00:00Z"}},
		{"unknown field", map[string]any{"name": "x", "alcoholGrams": 14.0, "bogus": true}},
	}

	ts := newTestServer(t)
	defer ts.Close()
	saveProfile(t, ts.URL)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/api/drinks", tt.payload)
			defer resp.Body.Close() //nolint:errcheck
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestDrinkPostWithoutProfileIsUnavailable(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/drinks", map[string]any{
		"name": "whisky", "alcoholGrams": 14.0,
	})
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a profile, got %d", resp.StatusCode)
	}
}

func TestDrinksRecentAndRemove(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	saveProfile(t, ts.URL)

	resp := postJSON(t, ts.URL+"/api/drinks", map[string]any{
		"name": "beer", "alcoholGrams": 14.0,
	})
	created := decodeBody(t, resp)
	resp.Body.Close() //nolint:errcheck
	id := created["drink"].(map[string]any)["id"].(string)

	listResp, err := http.Get(ts.URL + "/api/drinks/recent")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	list := decodeBody(t, listResp)
	listResp.Body.Close() //nolint:errcheck
	items, ok := list["items"].([]any)
	if !ok || len(items) != 1 {
		t.Fatalf("expected 1 recent drink, got %v", list["items"])
	}

	rmResp := postJSON(t, ts.URL+"/api/drinks/remove", map[string]any{"id": id})
	rm := decodeBody(t, rmResp)
	rmResp.Body.Close() //nolint:errcheck
	if rm["removed"] != true {
		t.Fatalf("expected removed=true, got %v", rm["removed"])
	}

	// Removing again reports false without an error status.
	againResp := postJSON(t, ts.URL+"/api/drinks/remove", map[string]any{"id": id})
	again := decodeBody(t, againResp)
	againResp.Body.Close() //nolint:errcheck
	if again["removed"] != false {
		t.Fatalf("expected removed=false on second remove, got %v", again["removed"])
	}
}

func TestDrinksUndoLast(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	saveProfile(t, ts.URL)

	resp := postJSON(t, ts.URL+"/api/drinks", map[string]any{
		"name": "wine", "alcoholGrams": 20.0,
	})
	created := decodeBody(t, resp)
	resp.Body.Close() //nolint:errcheck
	id := created["drink"].(map[string]any)["id"].(string)

	undoResp := postJSON(t, ts.URL+"/api/drinks/undo-last", nil)
	undo := decodeBody(t, undoResp)
	undoResp.Body.Close() //nolint:errcheck
	if undo["removed"] != true || undo["id"] != id {
		t.Fatalf("expected the logged drink undone, got %v", undo)
	}

	emptyResp := postJSON(t, ts.URL+"/api/drinks/undo-last", nil)
	empty := decodeBody(t, emptyResp)
	emptyResp.Body.Close() //nolint:errcheck
	if empty["removed"] != false {
		t.Fatalf("expected removed=false on empty log, got %v", empty)
	}
}

func TestBACCurrentBeforeAnyCompute(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/bac/current")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["estimate"] != nil {
		t.Fatalf("expected null estimate before any recompute, got %v", body["estimate"])
	}
}

func TestBACRecomputeAndCurrent(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	saveProfile(t, ts.URL)

	resp := postJSON(t, ts.URL+"/api/drinks", map[string]any{
		"name": "whisky", "alcoholGrams": 14.0,
	})
	resp.Body.Close() //nolint:errcheck

	recResp := postJSON(t, ts.URL+"/api/bac/recompute", nil)
	defer recResp.Body.Close() //nolint:errcheck
	if recResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", recResp.StatusCode)
	}
	rec := decodeBody(t, recResp)
	est, ok := rec["estimate"].(map[string]any)
	if !ok {
		t.Fatalf("recompute response missing estimate: %v", rec)
	}
	if bac, _ := est["bac"].(float64); bac <= 0 {
		t.Fatalf("expected positive bac, got %v", bac)
	}
	if rec["level"] == nil || rec["possibleEffects"] == nil {
		t.Fatalf("expected level and possibleEffects alongside the estimate, got %v", rec)
	}

	curResp, err := http.Get(ts.URL + "/api/bac/current")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer curResp.Body.Close() //nolint:errcheck
	cur := decodeBody(t, curResp)
	if _, ok := cur["estimate"].(map[string]any); !ok {
		t.Fatalf("expected a published estimate, got %v", cur)
	}
}

func TestBACRecomputeWithoutProfile(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/api/bac/recompute", nil)
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a profile, got %d", resp.StatusCode)
	}
}

func TestBACPredict(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	saveProfile(t, ts.URL)

	resp := postJSON(t, ts.URL+"/api/bac/predict", map[string]any{
		"name": "one more", "alcoholGrams": 14.0,
	})
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	est, ok := body["estimate"].(map[string]any)
	if !ok {
		t.Fatalf("predict response missing estimate: %v", body)
	}
	if bac, _ := est["bac"].(float64); bac <= 0 {
		t.Fatalf("expected positive predicted bac, got %v", bac)
	}

	// Prediction is hypothetical: nothing is published.
	curResp, err := http.Get(ts.URL + "/api/bac/current")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer curResp.Body.Close() //nolint:errcheck
	cur := decodeBody(t, curResp)
	if cur["estimate"] != nil {
		t.Fatalf("predict must not publish an estimate, got %v", cur["estimate"])
	}
}

func TestBACPredictRejectsEmptyDrink(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()
	saveProfile(t, ts.URL)

	resp := postJSON(t, ts.URL+"/api/bac/predict", map[string]any{"name": "nothing"})
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBACEffects(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/bac/effects?bac=0.09")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	effects, ok := body["effects"].([]any)
	if !ok || len(effects) == 0 {
		t.Fatalf("expected a non-empty effects list, got %v", body["effects"])
	}
}

func TestBACEffectsRejectsBadQuery(t *testing.T) {
	for _, q := range []string{"", "?bac=-0.01", "?bac=abc"} {
		resp, err := http.Get(newTestServerURL(t) + "/api/bac/effects" + q)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("query %q: expected 400, got %d", q, resp.StatusCode)
		}
		resp.Body.Close() //nolint:errcheck
	}
}

// newTestServerURL spins up a fresh server and registers its shutdown.
func newTestServerURL(t *testing.T) string {
	t.Helper()
	ts := newTestServer(t)
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	db := memory.New()
	cfg := config.Default()
	clock := domain.SystemClock{}
	log := zerolog.Nop()

	engine := app.NewEngine(app.EngineConfig{
		MetabolismRatePerHour: cfg.BAC.MetabolismRatePerHour,
		Thresholds: domain.Thresholds{
			Caution: cfg.BAC.CautionLevel,
			Legal:   cfg.BAC.LegalLevel,
			High:    cfg.BAC.HighLevel,
		},
	})
	coords := app.NewRegistry(db, db, engine, clock, app.NewLogNotifier(log),
		app.CoordinatorConfig{Lookback: cfg.BAC.Lookback()}, cfg.BAC.RefreshInterval(), log)
	drinks := app.NewDrinkService(db, coords, clock, app.DrinkConfig{
		EthanolDensityGramsPerMl: cfg.BAC.EthanolDensityGramsPerMl,
		GramsPerStandardDrink:    cfg.BAC.GramsPerStandardDrink,
	})
	profile := app.NewProfileService(db, coords)
	auth := app.NewAuthService(db, db.NewSessionRepo())

	// Auth stays enabled here.
	srv := adapthttp.New(drinks, profile, coords, auth, nil, log)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/profile")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a session, got %d", resp.StatusCode)
	}

	// Public routes still answer.
	health, err := http.Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer health.Body.Close() //nolint:errcheck
	if health.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on health, got %d", health.StatusCode)
	}
}

func TestSignupLoginFlow(t *testing.T) {
	ts := newTestServer(t)
	defer ts.Close()

	signup := postJSON(t, ts.URL+"/api/auth/signup", map[string]any{
		"username": "alice", "password": "correct horse",
	})
	defer signup.Body.Close() //nolint:errcheck
	if signup.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", signup.StatusCode)
	}

	dup := postJSON(t, ts.URL+"/api/auth/signup", map[string]any{
		"username": "alice", "password": "another pass",
	})
	defer dup.Body.Close() //nolint:errcheck
	if dup.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate username, got %d", dup.StatusCode)
	}

	login := postJSON(t, ts.URL+"/api/auth/login", map[string]any{
		"username": "alice", "password": "correct horse",
	})
	defer login.Body.Close() //nolint:errcheck
	if login.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", login.StatusCode)
	}
	var sessionCookie *http.Cookie
	for _, c := range login.Cookies() {
		if c.Name == "session" {
			sessionCookie = c
		}
	}
	if sessionCookie == nil {
		t.Fatal("expected a session cookie on login")
	}

	bad := postJSON(t, ts.URL+"/api/auth/login", map[string]any{
		"username": "alice", "password": "wrong",
	})
	defer bad.Body.Close() //nolint:errcheck
	if bad.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on bad password, got %d", bad.StatusCode)
	}
}
