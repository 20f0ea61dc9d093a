package geo

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newProvider(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Estimate
	}{
		{
			name:   "full answer",
			status: http.StatusOK,
			body:   `{"ip":"203.0.113.7","city":"Springfield","loc":"37.7510,-97.8220"}`,
			want:   Estimate{Latitude: "37.751", Longitude: "-97.822", PlaceName: "Springfield"},
		},
		{
			name:   "no city",
			status: http.StatusOK,
			body:   `{"loc":"10.5,20.25"}`,
			want:   Estimate{Latitude: "10.5", Longitude: "20.25", PlaceName: "Unknown place"},
		},
		{
			name:   "blank city",
			status: http.StatusOK,
			body:   `{"loc":"1,2","city":"  "}`,
			want:   Estimate{Latitude: "1", Longitude: "2", PlaceName: "Unknown place"},
		},
		{
			name:   "no loc",
			status: http.StatusOK,
			body:   `{"city":"Springfield"}`,
			want:   Unknown(),
		},
		{
			name:   "malformed loc",
			status: http.StatusOK,
			body:   `{"loc":"north,south","city":"Springfield"}`,
			want:   Unknown(),
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"loc":"1,2","city":"Springfield"}`,
			want:   Unknown(),
		},
		{
			name:   "bad json",
			status: http.StatusOK,
			body:   `{"loc":`,
			want:   Unknown(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newProvider(t, tt.status, tt.body)
			r := NewResolver(quietLogger(), WithEndpoint(srv.URL), WithTimeout(2*time.Second))

			got := r.Resolve(context.Background())
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResolver_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	r := NewResolver(quietLogger(), WithEndpoint(endpoint), WithTimeout(time.Second))
	if got := r.Resolve(context.Background()); got != Unknown() {
		t.Errorf("got %+v, want Unknown()", got)
	}
}

func TestResolver_SendsToken(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("token")
		_, _ = io.WriteString(w, `{"loc":"1,2","city":"X"}`)
	}))
	defer srv.Close()

	r := NewResolver(quietLogger(), WithEndpoint(srv.URL), WithToken("secret"))
	if got := r.Resolve(context.Background()); !got.Known() {
		t.Fatalf("expected a known estimate, got %+v", got)
	}
	if gotToken != "secret" {
		t.Errorf("token: got %q, want %q", gotToken, "secret")
	}
}

func TestResolver_ExpiredContext(t *testing.T) {
	srv := newProvider(t, http.StatusOK, `{"loc":"1,2","city":"X"}`)
	r := NewResolver(quietLogger(), WithEndpoint(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := r.Resolve(ctx); got != Unknown() {
		t.Errorf("got %+v, want Unknown()", got)
	}
}

func TestUnknown(t *testing.T) {
	u := Unknown()
	if u.Latitude != "Unknown" || u.Longitude != "Unknown" || u.PlaceName != "Unknown place" {
		t.Errorf("unexpected sentinel: %+v", u)
	}
	if u.Known() {
		t.Error("Unknown() should not be Known")
	}
}

func TestParseLoc(t *testing.T) {
	tests := []struct {
		loc      string
		lat, lon string
		ok       bool
	}{
		{"37.7510,-97.8220", "37.751", "-97.822", true},
		{" 1 , 2 ", "1", "2", true},
		{"", "", "", false},
		{"1", "", "", false},
		{"1,2,3", "", "", false},
		{"a,2", "", "", false},
	}

	for _, tt := range tests {
		lat, lon, err := parseLoc(tt.loc)
		if (err == nil) != tt.ok {
			t.Errorf("parseLoc(%q): err = %v, want ok=%v", tt.loc, err, tt.ok)
			continue
		}
		if lat != tt.lat || lon != tt.lon {
			t.Errorf("parseLoc(%q): got (%q, %q), want (%q, %q)", tt.loc, lat, lon, tt.lat, tt.lon)
		}
	}
}
