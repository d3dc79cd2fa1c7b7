package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDownloadImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "reddih-test/1.0" {
			t.Errorf("unexpected user agent: %q", got)
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("pngbytes"))
	}))
	defer srv.Close()

	data, mimeType, err := DownloadImage(context.Background(), srv.URL, "reddih-test/1.0")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if string(data) != "pngbytes" || mimeType != "image/png" {
		t.Fatalf("unexpected result: %q %q", data, mimeType)
	}
}

func TestDownloadImageDefaultsContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	_, mimeType, err := DownloadImage(context.Background(), srv.URL, "ua")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if mimeType != "image/jpeg" {
		t.Fatalf("expected jpeg default, got %q", mimeType)
	}
}

func TestDownloadImageErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if _, _, err := DownloadImage(context.Background(), srv.URL, "ua"); err == nil {
		t.Fatal("expected error on 404")
	}
}
