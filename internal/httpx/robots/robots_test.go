package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowed_DisallowedPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := New(srv.Client(), "BESS-Forensic-Crawler/1.0")
	if checker.Allowed(context.Background(), srv.URL+"/private/secret.html") {
		t.Fatalf("expected disallowed path to be blocked")
	}
	if !checker.Allowed(context.Background(), srv.URL+"/public/page.html") {
		t.Fatalf("expected path outside Disallow to be allowed")
	}
}

func TestAllowed_CachesFetch(t *testing.T) {
	var fetches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			fetches++
			w.Write([]byte("User-agent: *\nDisallow: /blocked\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker := New(srv.Client(), "BESS-Forensic-Crawler/1.0")
	checker.Allowed(context.Background(), srv.URL+"/a")
	checker.Allowed(context.Background(), srv.URL+"/b")
	if fetches != 1 {
		t.Fatalf("expected robots.txt to be fetched once, got %d fetches", fetches)
	}
}

func TestAllowed_FetchFailureAllows(t *testing.T) {
	checker := New(http.DefaultClient, "BESS-Forensic-Crawler/1.0")
	if !checker.Allowed(context.Background(), "http://127.0.0.1:1/nope") {
		t.Fatalf("expected unreachable robots.txt to fail open")
	}
}

func TestCrawlDelay(t *testing.T) {
	checker := New(http.DefaultClient, "BESS-Forensic-Crawler/1.0")
	if got := checker.CrawlDelay("https://geobasis-bb.de/page"); got != 10*time.Second {
		t.Fatalf("got %v, want 10s", got)
	}
	if got := checker.CrawlDelay("https://www.geobasis-bb.de/page"); got != 10*time.Second {
		t.Fatalf("got %v, want 10s", got)
	}
	if got := checker.CrawlDelay("https://other.example.de/page"); got != defaultDelay {
		t.Fatalf("got %v, want default", got)
	}
}

func TestSetCrawlDelay(t *testing.T) {
	checker := New(http.DefaultClient, "BESS-Forensic-Crawler/1.0")
	checker.SetCrawlDelay("ratsinfo.example.de", 5*time.Second)
	if got := checker.CrawlDelay("https://ratsinfo.example.de/page"); got != 5*time.Second {
		t.Fatalf("got %v, want 5s", got)
	}
}
