package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"testing/synctest"
	"time"

	"github.com/myrjola/dietplan/internal/contexthelpers"
	"github.com/myrjola/dietplan/internal/flightrecorder"
	"github.com/myrjola/dietplan/internal/i18n"
	"github.com/myrjola/dietplan/internal/testhelpers"
)

func newTestApplication(t *testing.T) *application {
	t.Helper()
	return &application{ //nolint:exhaustruct // generator and store are set by the tests that need them.
		logger:         testhelpers.NewLogger(testhelpers.NewWriter(t)),
		requests:       newRequestTracker(),
		requestTimeout: time.Minute,
	}
}

func Test_application_timeout(t *testing.T) {
	tests := []struct {
		name     string
		sleep    time.Duration
		language string
		timesOut bool
		wantBody string
	}{
		{
			name:     "completes within timeout",
			sleep:    500 * time.Millisecond,
			timesOut: false,
		},
		{
			name:     "times out",
			sleep:    3 * time.Second,
			timesOut: true,
			wantBody: i18n.Translate(i18n.Turkish, "request.error.timeout"),
		},
		{
			name:     "times out in english",
			sleep:    3 * time.Second,
			language: "en",
			timesOut: true,
			wantBody: i18n.Translate(i18n.English, "request.error.timeout"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				app := newTestApplication(t)
				slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					select {
					case <-time.After(tt.sleep):
						w.WriteHeader(http.StatusOK)
					case <-r.Context().Done():
					}
				})
				handler := negotiateLanguage(app.timeout(slow, defaultTimeout))

				req := httptest.NewRequest(http.MethodGet, "/slow", nil)
				req.Header.Set("Accept-Language", tt.language)
				rr := httptest.NewRecorder()
				handler.ServeHTTP(rr, req)

				if !tt.timesOut {
					if rr.Code != http.StatusOK {
						t.Errorf("status = %d, want 200", rr.Code)
					}
					return
				}
				if rr.Code != http.StatusServiceUnavailable {
					t.Fatalf("status = %d, want 503", rr.Code)
				}
				var got errorResponse
				if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
					t.Fatalf("timeout body is not JSON: %v: %s", err, rr.Body.String())
				}
				if got.Kind != "timeout" || got.Error != tt.wantBody {
					t.Errorf("body = %+v, want kind timeout and %q", got, tt.wantBody)
				}
			})
		})
	}
}

func Test_application_recoverPanic(t *testing.T) {
	app := newTestApplication(t)
	handler := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if got := rr.Header().Get("Connection"); got != "close" {
		t.Errorf("Connection = %q, want close", got)
	}
	var body errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil || body.Kind != "internal" {
		t.Errorf("body = %s, err = %v", rr.Body.String(), err)
	}
}

func Test_application_routes_headers(t *testing.T) {
	app := newTestApplication(t)

	rr := httptest.NewRecorder()
	app.routes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/healthy", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	for header, want := range map[string]string{
		"Cache-Control":          "no-store",
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "deny",
		"Content-Language":       "tr",
		"Content-Type":           "application/json",
	} {
		if got := rr.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rr.Header().Get("X-Trace-Id") == "" {
		t.Error("X-Trace-Id header is missing")
	}
}

func Test_negotiateLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   i18n.Language
	}{
		{header: "", want: i18n.Turkish},
		{header: "en-GB,en;q=0.8", want: i18n.English},
		{header: "de-DE,tr;q=0.5", want: i18n.Turkish},
		{header: "fr", want: i18n.Turkish},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			var got i18n.Language
			handler := negotiateLanguage(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				got = contexthelpers.Language(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Language", tt.header)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if got != tt.want {
				t.Errorf("language = %q, want %q", got, tt.want)
			}
			if rr.Header().Get("Content-Language") != string(tt.want) {
				t.Errorf("Content-Language = %q", rr.Header().Get("Content-Language"))
			}
		})
	}
}

func Test_application_crossOriginProtection(t *testing.T) {
	app := newTestApplication(t)
	handler := app.crossOriginProtection(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/patients/p-1/diet-programs/generate", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("cross-site status = %d, want 403", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/patients/p-1/diet-programs/generate", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("non-browser status = %d, want 204", rr.Code)
	}
}

func Test_application_logAndTraceRequest_capturesTimeouts(t *testing.T) {
	app := newTestApplication(t)
	dir := t.TempDir()
	recorder, err := flightrecorder.New(flightrecorder.Config{Dir: dir, MinAge: 0, MaxBytes: 0, Cooldown: 0}, app.logger)
	if err != nil {
		t.Fatalf("flightrecorder.New: %v", err)
	}
	if err = recorder.Start(t.Context()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer recorder.Stop(t.Context())
	app.flightRecorder = recorder

	status := http.StatusOK
	handler := app.logAndTraceRequest(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	countTraces := func() int {
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			t.Fatalf("ReadDir: %v", readErr)
		}
		return len(entries)
	}

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if n := countTraces(); n != 0 {
		t.Errorf("successful request captured %d traces", n)
	}

	status = http.StatusGatewayTimeout
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if n := countTraces(); n != 1 {
		t.Errorf("timed out request captured %d traces, want 1", n)
	}
}
