package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/automoto/dynamicai/shared/messages"
)

func TestBrowserServers(t *testing.T) {
	want := []messages.ServerInfo{
		{ID: "a", Name: "woods", Address: "10.0.0.1:7373", Status: messages.DirectoryStatus{Tracked: 40}},
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/servers" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	got, err := NewBrowser(srv.URL).Servers(context.Background(), "")
	if err != nil {
		t.Fatalf("Servers error: %v", err)
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Fatalf("Servers = %+v, want %+v", got, want)
	}
}

func TestBrowserStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := NewBrowser(srv.URL).Servers(context.Background(), ""); err == nil {
		t.Fatal("Servers returned no error for a 503")
	}
}

func TestBrowserSendsZone(t *testing.T) {
	var gotZone string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotZone = r.URL.Query().Get("zone")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	if _, err := NewBrowser(srv.URL).Servers(context.Background(), "Ground Zero"); err != nil {
		t.Fatalf("Servers error: %v", err)
	}
	if gotZone != "Ground Zero" {
		t.Fatalf("zone query = %q, want %q", gotZone, "Ground Zero")
	}
}
