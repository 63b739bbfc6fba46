package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/floodwatch/internal/auth"
	"github.com/hitoshi/floodwatch/internal/metrics"
	"github.com/hitoshi/floodwatch/internal/model"
	"github.com/hitoshi/floodwatch/internal/notify"
	"github.com/hitoshi/floodwatch/internal/report"
	"github.com/hitoshi/floodwatch/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
)

type captureNotifier struct {
	sent []notify.Message
}

func (n *captureNotifier) Send(_ context.Context, msg notify.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

type stubResolver struct{}

func (stubResolver) Resolve(_ context.Context, token string) (*auth.Profile, error) {
	if token != "good-token" {
		return nil, io.ErrUnexpectedEOF
	}
	return &auth.Profile{Email: "g@example.com", Name: "Google User"}, nil
}

// newTestServer はメモリストアと実サービスでルーター全体を構成する。
func newTestServer(t *testing.T) (*httptest.Server, *captureNotifier) {
	t.Helper()

	store := repository.NewMemoryStore()
	notifier := &captureNotifier{}
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	authSvc := auth.NewService(store.Users, stubResolver{}, auth.PlaintextVerifier{}, notifier, collector,
		auth.ServiceConfig{FrontendBaseURL: "http://localhost:5173"})
	reportSvc := report.NewService(store.Reports, collector)

	srv := httptest.NewServer(NewRouter(&RouterDeps{
		CORSAllowedOrigin: "http://localhost:5173",
		AuthService:       authSvc,
		ReportService:     reportSvc,
		Health:            store.Health,
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(reg),
	}))
	t.Cleanup(srv.Close)
	return srv, notifier
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestRouter_AuthFlow(t *testing.T) {
	srv, notifier := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"pw","role":"admin"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d: %s", resp.StatusCode, body)
	}
	var registered model.User
	if err := json.Unmarshal(body, &registered); err != nil {
		t.Fatal(err)
	}
	if registered.Role != model.RoleUser || registered.ID == "" {
		t.Errorf("registered = %+v", registered)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", `{"email":"alice@example.com","password":"pw"}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login status = %d, want 200", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", `{"email":"alice@example.com","password":"PW"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/google", `{"token":"good-token"}`)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("google status = %d, want 200", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/auth/google", `{"token":"bad"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad google token status = %d, want 401", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/auth/forgot-password", `{"email":"nobody@example.com"}`)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), `"message":"Email not found"`) {
		t.Errorf("forgot unknown = %d %s", resp.StatusCode, body)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("notifier called for unknown email")
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/auth/forgot-password", `{"email":"alice@example.com"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("forgot status = %d: %s", resp.StatusCode, body)
	}
	var msg messageResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Message != "Reset link sent successfully to alice@example.com" {
		t.Errorf("message = %q", msg.Message)
	}
	if len(notifier.sent) != 1 {
		t.Errorf("notifier sent %d messages, want 1", len(notifier.sent))
	}
}

func TestRouter_ReportFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/reports", "")
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("empty list = %d %s", resp.StatusCode, body)
	}

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/api/reports",
		`{"district":"Colombo","type":"Flood","criticality":"High","latitude":6.9271,"longitude":79.8612}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create status = %d: %s", resp.StatusCode, body)
	}
	var created map[string]interface{}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatal(err)
	}
	if created["status"] != "active" {
		t.Errorf("status = %v, want active", created["status"])
	}
	ts, _ := created["timestamp"].(string)
	if _, err := time.ParseInLocation(model.LocalDateTimeLayout, ts, time.Local); err != nil {
		t.Errorf("timestamp %q not in local date-time layout: %v", ts, err)
	}
	id, _ := created["id"].(string)

	for i := 0; i < 2; i++ {
		resp, body = doJSON(t, http.MethodPut, srv.URL+"/api/reports/"+id+"/resolve", "")
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"status":"resolved"`) {
			t.Errorf("resolve #%d = %d %s", i+1, resp.StatusCode, body)
		}
	}

	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/api/reports/does-not-exist/resolve", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("resolve missing status = %d, want 404", resp.StatusCode)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/reports", `{"status":"closed"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid status = %d, want 400", resp.StatusCode)
	}

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/api/reports", "")
	var list []map[string]interface{}
	if err := json.Unmarshal(body, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("list length = %d, want 1", len(list))
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/reports/abc/resolve", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Access-Control-Allow-Credentials = %q", got)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/health", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Errorf("health = %d %s", resp.StatusCode, body)
	}

	doJSON(t, http.MethodPost, srv.URL+"/api/reports", `{"district":"Colombo"}`)

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		"floodwatch_reports_created_total 1",
		`route="/health"`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/api/reports", "")
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestRouter_ErrorBodyCarriesRequestID(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/reports/missing/resolve", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("X-Request-Id", "trace-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body struct {
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Code != model.ErrCodeReportNotFound {
		t.Errorf("code = %q", body.Code)
	}
	if body.RequestID != "trace-123" {
		t.Errorf("request_id = %q, want trace-123", body.RequestID)
	}
}

func TestRouter_PanicIsLoggedAndCounted(t *testing.T) {
	var logBuf bytes.Buffer
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	router := NewRouter(&RouterDeps{
		CORSAllowedOrigin: "http://localhost:5173",
		Logger:            slog.New(slog.NewJSONHandler(&logBuf, nil)),
		AuthService:       &mockAuthService{},
		ReportService: &mockReportService{listFn: func(context.Context) ([]*model.Report, error) {
			panic("list exploded")
		}},
		Metrics:        collector,
		MetricsHandler: metrics.Handler(reg),
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/reports", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var requestLogged bool
	for _, line := range strings.Split(strings.TrimSpace(logBuf.String()), "\n") {
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		if entry["msg"] == "http_request" && entry["status"] == float64(500) {
			requestLogged = true
		}
	}
	if !requestLogged {
		t.Errorf("no http_request log with status 500:\n%s", logBuf.String())
	}

	mw := httptest.NewRecorder()
	router.ServeHTTP(mw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	out := mw.Body.String()
	if !strings.Contains(out, "floodwatch_http_requests_total{") || !strings.Contains(out, `status_code="500"`) {
		t.Errorf("metrics output missing 500 request counter:\n%s", out)
	}
}
