package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fleetledger/internal/auth"
	"fleetledger/internal/store/memory"
)

const testSecret = "test-secret-0123456789abcdef"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st := memory.New()
	svc := auth.NewService(st, st, testSecret, time.Hour)
	s := NewServer(Options{
		Addr:  ":0",
		Store: st,
		Auth:  svc,
	})
	t.Cleanup(func() { s.limiter.Stop(); s.janitor.Stop() })
	return s
}

func doJSON(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func signUp(t *testing.T, s *Server, email string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Test Owner",
		"email":    email,
		"password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp sessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("signup returned empty token")
	}
	return resp.Token
}

func createVehicle(t *testing.T, s *Server, token, name, plate string) string {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/vehicles", token, map[string]string{
		"name":        name,
		"plateNumber": plate,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create vehicle status = %d, body %s", rec.Code, rec.Body.String())
	}
	var v vehicleDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode vehicle: %v", err)
	}
	return v.ID
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rec := doJSON(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/vehicles", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/vehicles", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", rec.Code)
	}
}

func TestSignInWrongPassword(t *testing.T) {
	s := newTestServer(t)
	signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "owner@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name":     "Other",
		"email":    "OWNER@example.com",
		"password": "secret123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestVehicleLifecycle(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")

	id := createVehicle(t, s, token, "Alpha", "AB-123")

	rec := doJSON(t, s, http.MethodGet, "/api/vehicles", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var vehicles []vehicleDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &vehicles); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(vehicles) != 1 || vehicles[0].DisplayName != "Alpha (AB-123)" {
		t.Fatalf("vehicles = %+v, want one Alpha (AB-123)", vehicles)
	}
	if vehicles[0].Status != "Active" {
		t.Errorf("default status = %q, want Active", vehicles[0].Status)
	}

	rec = doJSON(t, s, http.MethodPatch, "/api/vehicles/"+id, token, map[string]string{
		"status": "Maintenance",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/vehicles/"+id, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodDelete, "/api/vehicles/"+id, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateVehicleValidation(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/vehicles", token, map[string]string{
		"name": "Alpha",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing plate status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/vehicles", token, map[string]string{
		"name":        "Alpha",
		"plateNumber": "AB-123",
		"status":      "Flying",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status = %d, want 400", rec.Code)
	}
}

func TestTransactionCreateAndFilter(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")
	vehicleID := createVehicle(t, s, token, "Alpha", "AB-123")

	create := func(typ, category, amount, date, notes string) {
		t.Helper()
		rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]string{
			"vehicleId": vehicleID,
			"type":      typ,
			"category":  category,
			"amount":    amount,
			"date":      date,
			"notes":     notes,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create tx status = %d, body %s", rec.Code, rec.Body.String())
		}
	}

	create("income", "Daily Submission", "500.00", "2024-01-02", "")
	create("expense", "Charging Fee", "120.00", "2024-01-03", "overnight charge")
	create("income", "Daily Submission", "300.00", "2024-02-05", "")

	rec := doJSON(t, s, http.MethodGet, "/api/transactions", token, nil)
	var txs []transactionDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode transactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("transactions = %d, want 3", len(txs))
	}
	if txs[0].Date != "2024-02-05" {
		t.Errorf("first tx date = %s, want newest first", txs[0].Date)
	}

	// Date range clause.
	rec = doJSON(t, s, http.MethodGet, "/api/transactions?startDate=2024-01-01&endDate=2024-01-31", token, nil)
	txs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("january transactions = %d, want 2", len(txs))
	}

	// Category and amount clauses combine.
	rec = doJSON(t, s, http.MethodGet, "/api/transactions?category=Daily+Submission&minAmount=400", token, nil)
	txs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if len(txs) != 1 || txs[0].AmountCents != 50000 {
		t.Fatalf("filtered = %+v, want the single 500.00 income", txs)
	}

	// Search matches notes.
	rec = doJSON(t, s, http.MethodGet, "/api/transactions?search=overnight", token, nil)
	txs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode filtered: %v", err)
	}
	if len(txs) != 1 || txs[0].Category != "Charging Fee" {
		t.Fatalf("search result = %+v, want the charging fee", txs)
	}

	// Limit caps after filtering.
	rec = doJSON(t, s, http.MethodGet, "/api/transactions?limit=1", token, nil)
	txs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &txs); err != nil {
		t.Fatalf("decode limited: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("limited = %d, want 1", len(txs))
	}
}

func TestTransactionUnknownVehicle(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]string{
		"vehicleId": "missing",
		"type":      "income",
		"category":  "Daily Submission",
		"amount":    "100.00",
		"date":      "2024-01-02",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestOwnersAreIsolated(t *testing.T) {
	s := newTestServer(t)
	tokenA := signUp(t, s, "a@example.com")
	tokenB := signUp(t, s, "b@example.com")
	createVehicle(t, s, tokenA, "Alpha", "AB-123")

	rec := doJSON(t, s, http.MethodGet, "/api/vehicles", tokenB, nil)
	var vehicles []vehicleDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &vehicles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(vehicles) != 0 {
		t.Fatalf("owner B sees %d vehicles, want 0", len(vehicles))
	}
}

func TestCategories(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodGet, "/api/categories?type=expense", token, nil)
	var resp struct {
		Categories []string `json:"categories"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 3 {
		t.Fatalf("builtin expense categories = %v, want 3", resp.Categories)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/categories", token, map[string]string{
		"type":  "expense",
		"label": "Parking",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add category status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/categories?type=expense", token, nil)
	resp.Categories = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Categories) != 4 || resp.Categories[3] != "Parking" {
		t.Fatalf("categories = %v, want builtins then Parking", resp.Categories)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/categories?type=expense&label=Parking", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove category status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/categories?type=bogus", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad type status = %d, want 400", rec.Code)
	}
}

func TestProfileUpdate(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodGet, "/api/profile", token, nil)
	var profile profileDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Email != "owner@example.com" || !profile.EmailVerified {
		t.Fatalf("profile = %+v, want verified owner@example.com", profile)
	}

	rec = doJSON(t, s, http.MethodPatch, "/api/profile", token, map[string]string{
		"name":  "Renamed",
		"phone": "555-0100",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d, body %s", rec.Code, rec.Body.String())
	}
	profile = profileDTO{}
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode patched: %v", err)
	}
	if profile.Name != "Renamed" || profile.Phone != "555-0100" {
		t.Fatalf("patched profile = %+v", profile)
	}
}

func TestEmailChangeRequiresReverification(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/auth/email", token, map[string]string{
		"password": "secret123",
		"newEmail": "next@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("change email status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodGet, "/api/profile", token, nil)
	var profile profileDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if profile.Email != "next@example.com" || profile.EmailVerified {
		t.Fatalf("profile = %+v, want unverified next@example.com", profile)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/profile/verify-email", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify status = %d", rec.Code)
	}
	rec = doJSON(t, s, http.MethodGet, "/api/profile", token, nil)
	profile = profileDTO{}
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !profile.EmailVerified {
		t.Fatal("profile should be verified again")
	}
}

func TestChangePasswordFlow(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodPost, "/api/auth/password", token, map[string]string{
		"currentPassword": "wrong",
		"newPassword":     "nextsecret",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong current password status = %d, want 401", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/password", token, map[string]string{
		"currentPassword": "secret123",
		"newPassword":     "nextsecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("change password status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, http.MethodPost, "/api/auth/signin", "", map[string]string{
		"email":    "owner@example.com",
		"password": "nextsecret",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("signin with new password status = %d", rec.Code)
	}
}

func TestWeeklyReportCSVDownload(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")
	vehicleID := createVehicle(t, s, token, "Alpha", "AB-123")

	today := time.Now().UTC().Format("2006-01-02")
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]string{
		"vehicleId": vehicleID,
		"type":      "income",
		"category":  "Daily Submission",
		"amount":    "500.00",
		"date":      today,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tx status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/reports/weekly.csv", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="weekly_report.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	body := rec.Body.String()
	if !bytes.Contains([]byte(body), []byte(`"Alpha (AB-123)","500.00"`)) {
		t.Errorf("csv body missing vehicle row: %s", body)
	}
	if !bytes.Contains([]byte(body), []byte(`"Total"`)) {
		t.Errorf("csv body missing totals row: %s", body)
	}
}

func TestWeeklyReportJSON(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")
	vehicleID := createVehicle(t, s, token, "Alpha", "AB-123")

	today := time.Now().UTC().Format("2006-01-02")
	for _, body := range []map[string]string{
		{"vehicleId": vehicleID, "type": "income", "category": "Daily Submission", "amount": "500.00", "date": today},
		{"vehicleId": vehicleID, "type": "expense", "category": "Charging Fee", "amount": "120.00", "date": today},
	} {
		if rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, body); rec.Code != http.StatusCreated {
			t.Fatalf("create tx status = %d", rec.Code)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/api/reports/weekly", token, nil)
	var resp reportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(resp.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(resp.Rows))
	}
	if resp.Rows[0].Profit.Cents != 38000 {
		t.Errorf("profit = %d, want 38000", resp.Rows[0].Profit.Cents)
	}
	if resp.Totals.Income.Cents != 50000 {
		t.Errorf("total income = %d, want 50000", resp.Totals.Income.Cents)
	}
}

func TestVehicleReportRangeValidation(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodGet, "/api/reports/vehicle?startDate=2024-02-01&endDate=2024-01-01", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted range status = %d, want 400", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/reports/vehicle?startDate=bogus", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", rec.Code)
	}
}

func TestMonthlyReport(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")
	vehicleID := createVehicle(t, s, token, "Alpha", "AB-123")

	for _, body := range []map[string]string{
		{"vehicleId": vehicleID, "type": "income", "category": "Daily Submission", "amount": "500.00", "date": "2024-01-02"},
		{"vehicleId": vehicleID, "type": "expense", "category": "Charging Fee", "amount": "120.00", "date": "2024-01-05"},
		{"vehicleId": vehicleID, "type": "income", "category": "Daily Submission", "amount": "300.00", "date": "2024-02-01"},
	} {
		if rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, body); rec.Code != http.StatusCreated {
			t.Fatalf("create tx status = %d", rec.Code)
		}
	}

	rec := doJSON(t, s, http.MethodGet, "/api/reports/monthly", token, nil)
	var months []monthTotalsDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &months); err != nil {
		t.Fatalf("decode monthly: %v", err)
	}
	if len(months) != 2 {
		t.Fatalf("months = %d, want 2", len(months))
	}
	if months[0].Month != "2024-01" || months[0].Profit.Cents != 38000 {
		t.Errorf("january = %+v, want profit 38000", months[0])
	}
	if months[1].Month != "2024-02" || months[1].Income.Cents != 30000 {
		t.Errorf("february = %+v, want income 30000", months[1])
	}
}

func TestDashboardStatsInvalidation(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")
	vehicleID := createVehicle(t, s, token, "Alpha", "AB-123")

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard/stats", token, nil)
	var stats dashboardStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.VehicleCount != 1 || stats.TotalIncome.Cents != 0 {
		t.Fatalf("stats = %+v", stats)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]string{
		"vehicleId": vehicleID,
		"type":      "income",
		"category":  "Daily Submission",
		"amount":    "250.00",
		"date":      "2024-01-02",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tx status = %d", rec.Code)
	}

	// Mutation must evict the cached payload.
	rec = doJSON(t, s, http.MethodGet, "/api/dashboard/stats", token, nil)
	stats = dashboardStats{}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalIncome.Cents != 25000 {
		t.Fatalf("income after create = %d, want 25000", stats.TotalIncome.Cents)
	}
}

func TestDashboardChartShape(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")
	vehicleID := createVehicle(t, s, token, "Alpha", "AB-123")

	today := time.Now().UTC().Format("2006-01-02")
	rec := doJSON(t, s, http.MethodPost, "/api/transactions", token, map[string]string{
		"vehicleId": vehicleID,
		"type":      "expense",
		"category":  "Charging Fee",
		"amount":    "80.00",
		"date":      today,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tx status = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard/chart", token, nil)
	var chart dashboardChart
	if err := json.Unmarshal(rec.Body.Bytes(), &chart); err != nil {
		t.Fatalf("decode chart: %v", err)
	}
	if len(chart.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(chart.Months))
	}
	last := chart.Months[len(chart.Months)-1]
	if last.Expenses.Cents != 8000 {
		t.Errorf("current month expenses = %d, want 8000", last.Expenses.Cents)
	}
	if len(chart.ExpenseByCategory) != 1 || chart.ExpenseByCategory[0].Category != "Charging Fee" {
		t.Errorf("expense breakdown = %+v", chart.ExpenseByCategory)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/healthz", "", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	s := newTestServer(t)
	token := signUp(t, s, "owner@example.com")

	rec := doJSON(t, s, http.MethodGet, "/api/nope", token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}
