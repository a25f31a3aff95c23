package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/MrWong99/phonoshift/internal/dataset"
	"github.com/MrWong99/phonoshift/internal/observe"
	"github.com/MrWong99/phonoshift/internal/speaker"
	"github.com/MrWong99/phonoshift/pkg/rules"
)

const frontingJSON = `{"pairs":[
	{"target":"P-AA-T","actual":"P-AA-T"},
	{"target":"K-AE-T","actual":"T-AE-T"},
	{"target":"D-EY","actual":"D-EY"}
]}`

// TestMain installs a recording tracer provider so the middleware produces
// real trace IDs.
func TestMain(m *testing.M) {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	code := m.Run()
	_ = tp.Shutdown(context.Background())
	os.Exit(code)
}

func testMetrics(t *testing.T) *observe.Metrics {
	t.Helper()
	m, err := observe.NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// newServer returns a wrapped API with one untrained speaker and alex trained
// through the pairs endpoint.
func newServer(t *testing.T, origins ...string) http.Handler {
	t.Helper()
	m := testMetrics(t)
	reg := speaker.New([]speaker.Spec{{Name: "untrained"}}, speaker.WithMetrics(m))

	mux := http.NewServeMux()
	New(reg, nil).Register(mux)
	srv := Wrap(mux, m, origins)

	rec := do(t, srv, "PUT", "/v1/speakers/alex/pairs", "application/json", frontingJSON)
	if rec.Code != http.StatusOK {
		t.Fatalf("seed alex: %d %s", rec.Code, rec.Body)
	}
	return srv
}

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestListSpeakers(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	rec := do(t, srv, "GET", "/v1/speakers", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := decode[speakersResponse](t, rec)
	if len(body.Speakers) != 2 {
		t.Fatalf("speakers = %+v", body.Speakers)
	}
	if body.Speakers[0].Name != "alex" || !body.Speakers[0].Trained {
		t.Errorf("alex = %+v", body.Speakers[0])
	}
	if cid := rec.Header().Get("X-Correlation-ID"); len(cid) != 32 {
		t.Errorf("X-Correlation-ID: got %q, want a 32 digit trace ID", cid)
	}
}

func TestGuess(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantGuess  string
		wantErr    string
	}{
		{"generalized", "/v1/speakers/alex/guess", `{"target":"G-EY-M"}`, http.StatusOK, "D-EY-M", ""},
		{"specific", "/v1/speakers/alex/guess", `{"target":"K-UH-M"}`, http.StatusOK, "T-UH-M", ""},
		{"lower case", "/v1/speakers/alex/guess", `{"target":"k-uh-m"}`, http.StatusBadRequest, "", "invalid phoneme"},
		{"invalid phoneme", "/v1/speakers/alex/guess", `{"target":"K-XX-M"}`, http.StatusBadRequest, "", "invalid phoneme"},
		{"missing target", "/v1/speakers/alex/guess", `{}`, http.StatusBadRequest, "", "target"},
		{"bad json", "/v1/speakers/alex/guess", `{`, http.StatusBadRequest, "", "JSON"},
		{"unknown speaker", "/v1/speakers/nobody/guess", `{"target":"K"}`, http.StatusNotFound, "", "unknown speaker"},
		{"untrained speaker", "/v1/speakers/untrained/guess", `{"target":"K"}`, http.StatusConflict, "", "not trained"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, srv, "POST", tt.path, "application/json", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantErr != "" {
				if got := decode[errorResponse](t, rec).Error; !strings.Contains(got, tt.wantErr) {
					t.Errorf("error = %q, want it to mention %q", got, tt.wantErr)
				}
				return
			}
			if got := decode[guessResponse](t, rec).Guess; got != tt.wantGuess {
				t.Errorf("guess = %q, want %q", got, tt.wantGuess)
			}
		})
	}
}

func TestGuess_Explain(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	rec := do(t, srv, "POST", "/v1/speakers/alex/guess", "application/json", `{"target":"G-EY-M","explain":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body)
	}
	var body struct {
		Guess     string `json:"guess"`
		Decisions []struct {
			Target string `json:"target"`
			Output string `json:"output"`
			Source string `json:"source"`
		} `json:"decisions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Guess != "D-EY-M" || len(body.Decisions) != 3 {
		t.Fatalf("body = %+v", body)
	}
	if d := body.Decisions[0]; d.Target != "G" || d.Output != "D" || d.Source != rules.SourceGeneralized.String() {
		t.Errorf("first decision = %+v", d)
	}
}

func TestRules(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	rec := do(t, srv, "GET", "/v1/speakers/alex/rules", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body)
	}
	var body struct {
		Specific    []json.RawMessage `json:"specific"`
		Generalized []json.RawMessage `json:"generalized"`
		Stats       rules.Stats       `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Specific) != 4 || len(body.Generalized) != 1 || body.Stats.Pairs != 3 {
		t.Errorf("rules body = %d specific, %d generalized, stats %+v",
			len(body.Specific), len(body.Generalized), body.Stats)
	}

	if rec := do(t, srv, "GET", "/v1/speakers/nobody/rules", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown speaker status = %d, want 404", rec.Code)
	}
}

func TestPutPairs(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	tests := []struct {
		name        string
		contentType string
		body        string
		wantStatus  int
	}{
		{"json", "application/json", frontingJSON, http.StatusOK},
		{"lines", "text/plain; charset=utf-8", "K-AE-T\nT-AE-T\n", http.StatusOK},
		{"yaml", "application/yaml", "pairs:\n  - {target: K-AE-T, actual: T-AE-T}\n", http.StatusOK},
		{"unpaired line", "text/plain", "K-AE-T\n", http.StatusBadRequest},
		{"count mismatch", "application/json", `{"pairs":[{"target":"K-AE-T","actual":"T-AE"}]}`, http.StatusBadRequest},
		{"empty", "application/json", `{"pairs":[]}`, http.StatusBadRequest},
		{"unsupported type", "application/xml", "<pairs/>", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, srv, "PUT", "/v1/speakers/"+strings.ReplaceAll(tt.name, " ", "-")+"/pairs", tt.contentType, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
		})
	}
}

func TestPutPairs_Retrains(t *testing.T) {
	t.Parallel()
	srv := newServer(t)

	rec := do(t, srv, "PUT", "/v1/speakers/alex/pairs", "text/plain", "K-AE-T\nK-AE-T\n")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body)
	}
	if got := decode[pairsResponse](t, rec).Stats.Pairs; got != 1 {
		t.Errorf("stats.pairs = %d, want 1", got)
	}

	rec = do(t, srv, "POST", "/v1/speakers/alex/guess", "application/json", `{"target":"K-UH-M"}`)
	if got := decode[guessResponse](t, rec).Guess; got != "K-UH-M" {
		t.Errorf("guess after retrain = %q, want K-UH-M", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	if rec := do(t, srv, "DELETE", "/v1/speakers", "", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()
	srv := newServer(t, "https://clinic.example")

	req := httptest.NewRequest("OPTIONS", "/v1/speakers/alex/guess", nil)
	req.Header.Set("Origin", "https://clinic.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://clinic.example" {
		t.Errorf("allowed origin = %q", got)
	}

	req = httptest.NewRequest("GET", "/v1/speakers", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

// brokenStore fails every write.
type brokenStore struct {
	*dataset.MemStore
}

func (brokenStore) Replace(context.Context, string, []rules.Pair) error {
	return errors.New("store unavailable")
}

func TestServerError_LogsTraceContext(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	m := testMetrics(t)
	reg := speaker.New(nil, speaker.WithMetrics(m), speaker.WithStore(brokenStore{dataset.NewMemStore()}))

	mux := http.NewServeMux()
	New(reg, slog.New(slog.NewTextHandler(&buf, nil))).Register(mux)
	srv := Wrap(mux, m, nil)

	rec := do(t, srv, "PUT", "/v1/speakers/alex/pairs", "application/json", frontingJSON)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want 500 (%s)", rec.Code, rec.Body)
	}
	logged := buf.String()
	cid := rec.Header().Get("X-Correlation-ID")
	for _, want := range []string{"request failed", "trace_id=" + cid, "span_id=", "store unavailable"} {
		if !strings.Contains(logged, want) {
			t.Errorf("log output missing %q, got: %s", want, logged)
		}
	}
}
