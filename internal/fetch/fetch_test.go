package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/icon.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/huge":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(make([]byte, 2048))
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, 1024)

	t.Run("success", func(t *testing.T) {
		att, err := f.Fetch(context.Background(), srv.URL+"/icon.png")
		if err != nil {
			t.Fatalf("Fetch() unexpected error: %v", err)
		}
		if string(att.Data) != "png-bytes" {
			t.Errorf("Fetch() data = %q, want %q", att.Data, "png-bytes")
		}
		if att.ContentType != "image/png" {
			t.Errorf("Fetch() content type = %q, want %q", att.ContentType, "image/png")
		}
	})

	t.Run("non-2xx status", func(t *testing.T) {
		if _, err := f.Fetch(context.Background(), srv.URL+"/missing"); err == nil {
			t.Error("Fetch() expected error for 404 response")
		}
	})

	t.Run("size cap enforced", func(t *testing.T) {
		if _, err := f.Fetch(context.Background(), srv.URL+"/huge"); err == nil {
			t.Error("Fetch() expected error for oversized response")
		}
	})

	t.Run("unreachable host", func(t *testing.T) {
		if _, err := f.Fetch(context.Background(), "http://127.0.0.1:1/none"); err == nil {
			t.Error("Fetch() expected error for unreachable host")
		}
	})
}
