package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"netcheck/internal/probe"
)

type fakeDispatcher struct {
	calls int
	last  json.RawMessage
	out   probe.Result
}

func (f *fakeDispatcher) Dispatch(_ context.Context, raw json.RawMessage) probe.Result {
	f.calls++
	f.last = append(json.RawMessage(nil), raw...)
	return f.out
}

func setupServer(t *testing.T, out probe.Result) (*httptest.Server, *fakeDispatcher) {
	t.Helper()
	fd := &fakeDispatcher{out: out}
	srv := NewServer(zap.NewNop(), fd)
	ts := httptest.NewServer(srv.Router(0, 0))
	t.Cleanup(ts.Close)
	return ts, fd
}

func TestCheck_FailureStillAnswers200(t *testing.T) {
	ts, _ := setupServer(t, probe.Failure{Status: probe.StatusFail, Type: "HTTP", Error: "boom"})

	resp, err := http.Post(ts.URL+"/check", "application/json", strings.NewReader(`{"address":"x","port":80}`))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("want application/json, got %q", ct)
	}
	var body struct {
		Status string `json:"status"`
		Type   string `json:"type"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "fail" || body.Error != "boom" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestCheck_HandsRawBodyToDispatcher(t *testing.T) {
	ts, fd := setupServer(t, probe.HTTPResult{Status: probe.StatusSuccess, Type: "HTTP", Code: 200})

	payload := `{"type":"HTTP","address":"example.org","port":80,"extra":"kept"}`
	resp, err := http.Post(ts.URL+"/check", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	resp.Body.Close()

	if fd.calls != 1 {
		t.Fatalf("want 1 dispatch, got %d", fd.calls)
	}
	if string(fd.last) != payload {
		t.Fatalf("dispatcher got %q, want %q", fd.last, payload)
	}
}

func TestCheck_SuccessEnvelopePassthrough(t *testing.T) {
	ts, _ := setupServer(t, probe.SMTPResult{
		Status: probe.StatusSuccess, Type: "SMTP", Protocol: "smtp",
		GreetingCode: 220, GreetingMessage: "ready", Mode: "PLAIN", ValidateCerts: false,
	})

	resp, err := http.Post(ts.URL+"/check", "application/json", strings.NewReader(`{"type":"SMTP","host":"m","port":25}`))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m["status"] != "success" || m["mode"] != "PLAIN" {
		t.Fatalf("unexpected envelope: %s", raw)
	}
	// validate_certs must survive even when false
	if v, present := m["validate_certs"]; !present || v != false {
		t.Fatalf("validate_certs missing or wrong in %s", raw)
	}
}

func TestCheck_SetsRequestID(t *testing.T) {
	ts, _ := setupServer(t, probe.HTTPResult{Status: probe.StatusSuccess})

	resp, err := http.Post(ts.URL+"/check", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("want X-Request-Id header")
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	ts, _ := setupServer(t, probe.HTTPResult{Status: probe.StatusSuccess})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/check", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight error: %v", err)
	}
	resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("want wildcard origin, got %q", got)
	}
}

func TestHealthz(t *testing.T) {
	ts, _ := setupServer(t, probe.HTTPResult{Status: probe.StatusSuccess})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || string(raw) != "ok" {
		t.Fatalf("want 200 ok, got %d %q", resp.StatusCode, raw)
	}
}

func TestCheck_LogsTypeAndDuration(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	fd := &fakeDispatcher{out: probe.Failure{Status: probe.StatusFail, Type: "SMTP", Error: "greeting refused"}}
	srv := NewServer(zap.New(core), fd)
	ts := httptest.NewServer(srv.Router(0, 0))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/check", "application/json", strings.NewReader(`{"type":"SMTP","host":"m","port":25}`))
	if err != nil {
		t.Fatalf("POST error: %v", err)
	}
	resp.Body.Close()

	entries := logs.FilterMessage("check_done").All()
	if len(entries) != 1 {
		t.Fatalf("want one check_done line, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["type"] != "SMTP" {
		t.Fatalf("type field wrong: %v", fields["type"])
	}
	if fields["ok"] != false {
		t.Fatalf("ok field wrong: %v", fields["ok"])
	}
	if id, _ := fields["request_id"].(string); id == "" {
		t.Fatalf("request_id missing")
	}
	if _, present := fields["elapsed"]; !present {
		t.Fatalf("elapsed field missing: %v", fields)
	}
}

func TestMetricsExposed(t *testing.T) {
	ts, _ := setupServer(t, probe.HTTPResult{Status: probe.StatusSuccess})

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET error: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(raw), "netcheck_rate_limited_total") {
		t.Fatalf("metrics page missing netcheck collectors")
	}
}
