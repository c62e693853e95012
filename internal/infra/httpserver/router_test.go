package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/neura/fraudshield/internal/application/intercept"
	appscans "github.com/neura/fraudshield/internal/application/scans"
	"github.com/neura/fraudshield/internal/domain/alerts"
	domain "github.com/neura/fraudshield/internal/domain/scans"
	"github.com/neura/fraudshield/internal/infra/httpserver"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type stubClassifier struct {
	result domain.Result
	err    error
}

func (c stubClassifier) Classify(ctx context.Context, req domain.Request) (domain.Result, error) {
	return c.result, c.err
}

type memRepo struct {
	mu    sync.Mutex
	items []*domain.HistoryItem
	saved chan *domain.HistoryItem
}

func newMemRepo() *memRepo { return &memRepo{saved: make(chan *domain.HistoryItem, 16)} }

func (r *memRepo) Save(ctx context.Context, item *domain.HistoryItem) error {
	r.mu.Lock()
	r.items = append(r.items, item)
	r.mu.Unlock()
	r.saved <- item
	return nil
}

func (r *memRepo) Latest(ctx context.Context, limit int) ([]*domain.HistoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]*domain.HistoryItem(nil), r.items...)
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *memRepo) Delete(ctx context.Context, id domain.HistoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.items[:0]
	for _, item := range r.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	r.items = kept
	return nil
}

func (r *memRepo) Summary(ctx context.Context, sinceDays int) (domain.Summary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := domain.Summary{Total: len(r.items)}
	for _, item := range r.items {
		if item.IsFraud {
			s.Fraud++
		}
	}
	return s, nil
}

type memEmitter struct {
	alerts chan *alerts.Alert
}

func (e *memEmitter) Emit(ctx context.Context, a *alerts.Alert) { e.alerts <- a }

type fixture struct {
	handler http.Handler
	repo    *memRepo
	emitter *memEmitter
}

func newFixture(classifier domain.Classifier, opts httpserver.Options) *fixture {
	repo := newMemRepo()
	emitter := &memEmitter{alerts: make(chan *alerts.Alert, 16)}
	clock := fixedClock{t: time.UnixMilli(1700000000000)}

	svc := &appscans.Service{
		Classifier: classifier,
		Repo:       repo,
		Clock:      clock,
	}
	interceptor := &intercept.Service{
		Scans:  svc,
		Alerts: emitter,
		Clock:  clock,
	}
	return &fixture{
		handler: httpserver.NewRouter(svc, interceptor, opts),
		repo:    repo,
		emitter: emitter,
	}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) waitSave(t *testing.T) *domain.HistoryItem {
	t.Helper()
	select {
	case item := <-f.repo.saved:
		return item
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for history write")
		return nil
	}
}

func TestScanEndpointReturnsClassifierVerdict(t *testing.T) {
	want := domain.Result{IsFraud: true, Confidence: 0.93, RiskLevel: domain.RiskHigh, Message: "smishing"}
	f := newFixture(stubClassifier{result: want}, httpserver.Options{})

	rec := f.do(t, http.MethodPost, "/v1/scan/sms", `{"text":"win big now","phone_number":"+15551234"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var got domain.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("verdict differs (-want +got):\n%s", diff)
	}

	item := f.waitSave(t)
	if item.Kind != domain.KindSMS || !item.IsFraud {
		t.Errorf("history item = %+v", item)
	}
}

func TestScanEndpointValidationError(t *testing.T) {
	f := newFixture(stubClassifier{}, httpserver.Options{})

	rec := f.do(t, http.MethodPost, "/v1/scan/email", `{"subject":"hello"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body["scan_kind"] != "EMAIL" {
		t.Errorf("scan_kind = %q, want EMAIL", body["scan_kind"])
	}
	if body["missing_field"] != "body" {
		t.Errorf("missing_field = %q, want body", body["missing_field"])
	}
}

func TestScanEndpointUnknownKind(t *testing.T) {
	f := newFixture(stubClassifier{}, httpserver.Options{})

	rec := f.do(t, http.MethodPost, "/v1/scan/fax", `{"text":"hi"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestScanEndpointDegradesWhenClassifierDown(t *testing.T) {
	f := newFixture(stubClassifier{err: domain.ErrClassifierUnavailable}, httpserver.Options{})

	rec := f.do(t, http.MethodPost, "/v1/scan/url", `{"url":"http://phish.example"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when classifier is down", rec.Code)
	}

	var got domain.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !got.Degraded() {
		t.Errorf("result not marked degraded: %+v", got)
	}
	if got.IsFraud {
		t.Error("degraded verdict must not be fraud-biased")
	}
}

func TestHistoryEndpointListsRecordedScans(t *testing.T) {
	f := newFixture(stubClassifier{result: domain.Result{Message: "ok", RiskLevel: domain.RiskLow}}, httpserver.Options{})

	f.do(t, http.MethodPost, "/v1/scan/sms", `{"text":"first"}`)
	f.waitSave(t)

	rec := f.do(t, http.MethodGet, "/v1/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var items []*domain.HistoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1", len(items))
	}
	if items[0].SourceMessage != "first" {
		t.Errorf("source message = %q", items[0].SourceMessage)
	}
}

func TestHistoryEndpointEmptyIsJSONArray(t *testing.T) {
	f := newFixture(stubClassifier{}, httpserver.Options{})

	rec := f.do(t, http.MethodGet, "/v1/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty history body = %q, want []", got)
	}
}

func TestDeleteEndpointReturnsNoContent(t *testing.T) {
	f := newFixture(stubClassifier{result: domain.Result{Message: "ok"}}, httpserver.Options{})

	f.do(t, http.MethodPost, "/v1/scan/sms", `{"text":"to be removed"}`)
	saved := f.waitSave(t)

	rec := f.do(t, http.MethodDelete, "/v1/history/"+string(saved.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	// Deleting an id that no longer exists is still a 204.
	rec = f.do(t, http.MethodDelete, "/v1/history/"+string(saved.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("repeat delete status = %d, want 204", rec.Code)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	f := newFixture(stubClassifier{result: domain.Result{IsFraud: true, RiskLevel: domain.RiskHigh, Message: "bad"}}, httpserver.Options{})

	f.do(t, http.MethodPost, "/v1/scan/sms", `{"text":"scam"}`)
	f.waitSave(t)

	rec := f.do(t, http.MethodGet, "/v1/history/summary?days=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var summary domain.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Total != 1 || summary.Fraud != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestInboundSMSAcceptedAndProcessedAsync(t *testing.T) {
	fraud := domain.Result{IsFraud: true, Confidence: 0.9, RiskLevel: domain.RiskHigh, Message: "scam"}
	f := newFixture(stubClassifier{result: fraud}, httpserver.Options{})

	rec := f.do(t, http.MethodPost, "/v1/inbound/sms", `{"sender":"+15551234","messages":["you won a prize"]}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "accepted" || body["messages"] != float64(1) {
		t.Errorf("response = %v", body)
	}

	f.waitSave(t)

	select {
	case a := <-f.emitter.alerts:
		if a.OriginatingIdentifier != "+15551234" {
			t.Errorf("alert sender = %q", a.OriginatingIdentifier)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for alert")
	}
}

func TestInboundSMSRequiresMessages(t *testing.T) {
	f := newFixture(stubClassifier{}, httpserver.Options{})

	rec := f.do(t, http.MethodPost, "/v1/inbound/sms", `{"sender":"+15551234"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAPIKeyAuthGuardsScanRoutes(t *testing.T) {
	f := newFixture(stubClassifier{result: domain.Result{Message: "ok"}}, httpserver.Options{
		APIKeys: []string{"letmein"},
	})

	rec := f.do(t, http.MethodPost, "/v1/scan/sms", `{"text":"hi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/scan/sms", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer letmein")
	out := httptest.NewRecorder()
	f.handler.ServeHTTP(out, req)
	if out.Code != http.StatusOK {
		t.Fatalf("status with key = %d, body = %s", out.Code, out.Body.String())
	}

	// Probes stay open so the load balancer does not need credentials.
	rec = f.do(t, http.MethodGet, "/health", "")
	if rec.Code == http.StatusUnauthorized {
		t.Error("health endpoint must not require an api key")
	}
}

func TestLivenessEndpoint(t *testing.T) {
	f := newFixture(stubClassifier{}, httpserver.Options{})

	rec := f.do(t, http.MethodGet, "/live", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
