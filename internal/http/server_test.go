package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
	"fintrack/internal/stream"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository() error: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	provider := auth.NewStaticProvider(map[string]auth.Identity{
		"tok-alice": {UID: "alice", DisplayName: "Alice", Email: "alice@example.com"},
		"tok-bob":   {UID: "bob", DisplayName: "Bob"},
	})

	reportCache := cache.NewLRUCache[core.Report](64, time.Minute)
	bc := stream.NewBroadcaster[core.Transaction]()

	s := NewServer(":0", provider, Services{
		Categories:   services.NewCategoryService(repo, reportCache),
		Transactions: services.NewTransactionService(repo, nil, bc, reportCache),
		Goals:        services.NewGoalService(repo, nil, reportCache),
		Vouchers:     services.NewVoucherService(repo),
		Contacts:     services.NewContactService(repo),
		Reports:      services.NewReportService(repo, reportCache),
	})
	t.Cleanup(func() { s.rateLimiter.stop() })
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createCategory(t *testing.T, s *Server, token, name string) categoryDTO {
	t.Helper()
	rec := doJSON(t, s, "POST", "/api/categories", token,
		map[string]string{"name": name})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[categoryDTO](t, rec)
}

func createTransaction(t *testing.T, s *Server, token, categoryID, amount, txType string) transactionDTO {
	t.Helper()
	rec := doJSON(t, s, "POST", "/api/transactions", token, map[string]any{
		"amount":      amount,
		"categoryId":  categoryID,
		"description": "test entry",
		"type":        txType,
		"date":        "2025-08-30",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[transactionDTO](t, rec)
}

func TestServer_AuthRequired(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"unknown token", "tok-mallory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, "GET", "/api/transactions", tt.token, nil)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
		})
	}
}

func TestServer_HealthEndpointsOpen(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, "GET", path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rec.Code)
		}
	}
}

func TestServer_TransactionLifecycle(t *testing.T) {
	s := newTestServer(t)

	cat := createCategory(t, s, "tok-alice", "Food")
	tx := createTransaction(t, s, "tok-alice", cat.ID, "12.50", "expense")

	if tx.Code == "" || !strings.HasPrefix(tx.Code, "20250830-alice-") {
		t.Errorf("Code = %q, want 20250830-alice-NNNN", tx.Code)
	}
	if tx.Amount != "12.5" {
		t.Errorf("Amount = %q, want 12.5", tx.Amount)
	}

	rec := doJSON(t, s, "GET", "/api/transactions", "tok-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list := decodeBody[[]transactionDTO](t, rec)
	if len(list) != 1 || list[0].ID != tx.ID {
		t.Fatalf("list = %+v", list)
	}

	desc := "updated description"
	rec = doJSON(t, s, "PATCH", "/api/transactions/"+tx.ID, "tok-alice",
		map[string]string{"description": desc})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[transactionDTO](t, rec)
	if updated.Description != desc {
		t.Errorf("Description = %q, want %q", updated.Description, desc)
	}
	if updated.Code != tx.Code {
		t.Errorf("Code changed on update: %q -> %q", tx.Code, updated.Code)
	}

	rec = doJSON(t, s, "DELETE", "/api/transactions/"+tx.ID, "tok-alice", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doJSON(t, s, "GET", "/api/transactions/"+tx.ID, "tok-alice", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestServer_OwnershipIsolation(t *testing.T) {
	s := newTestServer(t)

	cat := createCategory(t, s, "tok-alice", "Food")
	tx := createTransaction(t, s, "tok-alice", cat.ID, "12.50", "expense")

	// Bob cannot see or touch Alice's records.
	if rec := doJSON(t, s, "GET", "/api/transactions/"+tx.ID, "tok-bob", nil); rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner get status = %d, want 404", rec.Code)
	}
	if rec := doJSON(t, s, "DELETE", "/api/transactions/"+tx.ID, "tok-bob", nil); rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner delete status = %d, want 404", rec.Code)
	}
	rec := doJSON(t, s, "GET", "/api/transactions", "tok-bob", nil)
	if list := decodeBody[[]transactionDTO](t, rec); len(list) != 0 {
		t.Errorf("bob sees %d of alice's transactions", len(list))
	}
}

func TestServer_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	cat := createCategory(t, s, "tok-alice", "Food")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"zero amount", map[string]any{
			"amount": "0", "categoryId": cat.ID, "description": "x",
			"type": "expense", "date": "2025-08-30"}},
		{"negative amount", map[string]any{
			"amount": "-5", "categoryId": cat.ID, "description": "x",
			"type": "expense", "date": "2025-08-30"}},
		{"bad type", map[string]any{
			"amount": "5", "categoryId": cat.ID, "description": "x",
			"type": "transfer", "date": "2025-08-30"}},
		{"empty description", map[string]any{
			"amount": "5", "categoryId": cat.ID, "description": " ",
			"type": "expense", "date": "2025-08-30"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, "POST", "/api/transactions", "tok-alice", tt.body)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Errorf("status = %d, want 422: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestServer_CategoryDeleteConflict(t *testing.T) {
	s := newTestServer(t)

	parent := createCategory(t, s, "tok-alice", "Food")
	rec := doJSON(t, s, "POST", "/api/categories", "tok-alice",
		map[string]any{"name": "Groceries", "parentId": parent.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create child status = %d: %s", rec.Code, rec.Body.String())
	}

	if rec := doJSON(t, s, "DELETE", "/api/categories/"+parent.ID, "tok-alice", nil); rec.Code != http.StatusConflict {
		t.Errorf("delete parent with children status = %d, want 409", rec.Code)
	}
}

func TestServer_CategorySeedAndChildren(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/categories/defaults", "tok-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed status = %d: %s", rec.Code, rec.Body.String())
	}
	seeded := decodeBody[[]categoryDTO](t, rec)
	if len(seeded) != 8 {
		t.Fatalf("seeded %d categories, want 8", len(seeded))
	}

	rec = doJSON(t, s, "GET", "/api/categories?parent=root", "tok-alice", nil)
	roots := decodeBody[[]categoryDTO](t, rec)
	if len(roots) != 8 {
		t.Errorf("roots = %d, want 8", len(roots))
	}
}

func TestServer_ReportResolvesNames(t *testing.T) {
	s := newTestServer(t)

	cat := createCategory(t, s, "tok-alice", "Food")
	createTransaction(t, s, "tok-alice", cat.ID, "10.00", "expense")
	createTransaction(t, s, "tok-alice", cat.ID, "15.50", "expense")

	rec := doJSON(t, s, "GET", "/api/reports", "tok-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d: %s", rec.Code, rec.Body.String())
	}

	var rep struct {
		TotalExpenses      string `json:"totalExpenses"`
		ExpensesByCategory []struct {
			Category string `json:"category"`
			Count    int    `json:"count"`
		} `json:"expensesByCategory"`
		MonthlyTrends []struct {
			Month string `json:"month"`
		} `json:"monthlyTrends"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if rep.TotalExpenses != "25.5" {
		t.Errorf("TotalExpenses = %q, want 25.5", rep.TotalExpenses)
	}
	if len(rep.ExpensesByCategory) != 1 || rep.ExpensesByCategory[0].Category != "Food" {
		t.Errorf("ExpensesByCategory = %+v, want one Food group", rep.ExpensesByCategory)
	}
	if len(rep.MonthlyTrends) != 12 {
		t.Errorf("MonthlyTrends = %d buckets, want 12", len(rep.MonthlyTrends))
	}
}

func TestServer_ReportExportCSV(t *testing.T) {
	s := newTestServer(t)

	cat := createCategory(t, s, "tok-alice", "Food")
	createTransaction(t, s, "tok-alice", cat.ID, "10.00", "expense")

	rec := doJSON(t, s, "GET", "/api/reports/export?format=csv", "tok-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Financial Report") {
		t.Error("CSV body missing report header")
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "financial-report-") {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestServer_ReportExportUnknownFormat(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "GET", "/api/reports/export?format=xml", "tok-alice", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestServer_GoalContributionFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/goals", "tok-alice", map[string]string{
		"title":        "Trip",
		"targetAmount": "500",
		"category":     "travel",
		"priority":     "medium",
		"targetDate":   "2026-06-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d: %s", rec.Code, rec.Body.String())
	}
	g := decodeBody[goalDTO](t, rec)

	rec = doJSON(t, s, "POST", "/api/goals/"+g.ID+"/contributions", "tok-alice",
		map[string]string{"amount": "500"})
	if rec.Code != http.StatusOK {
		t.Fatalf("contribution status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[goalDTO](t, rec)
	if updated.Status != "completed" {
		t.Errorf("Status = %q, want completed", updated.Status)
	}
}

func TestServer_GoalBalanceResetToZero(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/goals", "tok-alice", map[string]string{
		"title":        "Trip",
		"targetAmount": "500",
		"category":     "travel",
		"priority":     "medium",
		"targetDate":   "2026-06-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create goal status = %d: %s", rec.Code, rec.Body.String())
	}
	g := decodeBody[goalDTO](t, rec)

	rec = doJSON(t, s, "POST", "/api/goals/"+g.ID+"/contributions", "tok-alice",
		map[string]string{"amount": "100"})
	if rec.Code != http.StatusOK {
		t.Fatalf("contribution status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, s, "PATCH", "/api/goals/"+g.ID, "tok-alice",
		map[string]string{"currentAmount": "0"})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset status = %d: %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[goalDTO](t, rec)
	if updated.CurrentAmount != "0" {
		t.Errorf("CurrentAmount = %q, want 0", updated.CurrentAmount)
	}

	rec = doJSON(t, s, "PATCH", "/api/goals/"+g.ID, "tok-alice",
		map[string]string{"currentAmount": "-1"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative balance status = %d, want 422", rec.Code)
	}
}

func TestServer_VoucherStandaloneCreate(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, "POST", "/api/vouchers", "tok-alice", map[string]any{
		"type":        "loan",
		"title":       "Loan to Bob",
		"description": "lunch money",
		"amount":      "20",
		"category":    "personal",
		"date":        "2025-08-15",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create voucher status = %d: %s", rec.Code, rec.Body.String())
	}
	v := decodeBody[voucherDTO](t, rec)
	if v.Type != "loan" || v.Status != "active" {
		t.Errorf("Type = %q, Status = %q", v.Type, v.Status)
	}
	if !strings.HasPrefix(v.VoucherNumber, "VCH-") {
		t.Errorf("VoucherNumber = %q, want VCH- prefix", v.VoucherNumber)
	}

	rec = doJSON(t, s, "POST", "/api/vouchers", "tok-alice", map[string]any{
		"type": "loan", "title": "", "amount": "20",
		"category": "personal", "date": "2025-08-15",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty title status = %d, want 422", rec.Code)
	}
}

func TestServer_VoucherPDFDownload(t *testing.T) {
	s := newTestServer(t)

	cat := createCategory(t, s, "tok-alice", "Food")
	tx := createTransaction(t, s, "tok-alice", cat.ID, "42.00", "expense")

	// Issue the voucher through the service the worker uses.
	v, err := s.vouchers.IssueForTransaction(context.Background(),
		auth.Identity{UID: "alice"}, tx.ID)
	if err != nil {
		t.Fatalf("IssueForTransaction() error: %v", err)
	}

	rec := doJSON(t, s, "GET", "/api/vouchers/"+v.ID+"/pdf", "tok-alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Error("body is not a PDF")
	}
}

func TestServer_RateLimitsWrites(t *testing.T) {
	s := newTestServer(t)

	var limited bool
	for i := 0; i < rateLimitRequests+5; i++ {
		rec := doJSON(t, s, "POST", "/api/categories", "tok-alice",
			map[string]string{"name": fmt.Sprintf("cat-%d", i)})
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			if rec.Header().Get("Retry-After") != "60" {
				t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
			}
			break
		}
	}
	if !limited {
		t.Error("write requests were never rate limited")
	}

	// Reads stay unthrottled.
	rec := doJSON(t, s, "GET", "/api/categories", "tok-alice", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("read during limit status = %d, want 200", rec.Code)
	}
}

func TestServer_TransactionStream(t *testing.T) {
	s := newTestServer(t)
	cat := createCategory(t, s, "tok-alice", "Food")
	createTransaction(t, s, "tok-alice", cat.ID, "10.00", "expense")

	ts := httptest.NewServer(s.Server.Handler)
	defer ts.Close()

	req, err := http.NewRequest("GET", ts.URL+"/api/transactions/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer tok-alice")

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("stream request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	deadline := time.AfterFunc(5*time.Second, func() { resp.Body.Close() })
	defer deadline.Stop()

	var sawSnapshot bool
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			var snapshot []transactionDTO
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snapshot); err != nil {
				t.Fatalf("decode snapshot: %v", err)
			}
			if len(snapshot) != 1 {
				t.Errorf("snapshot len = %d, want 1", len(snapshot))
			}
			sawSnapshot = true
			break
		}
	}
	if !sawSnapshot {
		t.Fatal("no snapshot event received")
	}
}
