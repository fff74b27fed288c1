package ris

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/witto13/bess-crawler/internal/httpx/client"
	"github.com/witto13/bess-crawler/internal/httpx/ratelimit"
	"github.com/witto13/bess-crawler/internal/httpx/robots"
	"github.com/witto13/bess-crawler/internal/httpx/sslpolicy"
)

func newTestClient() *client.Client {
	return client.New(sslpolicy.New(nil, false), robots.New(http.DefaultClient, client.UserAgent), ratelimit.New(10, 10, 0, time.Millisecond), time.Second, 1)
}

func TestDiscoverCommittees(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/si0100.asp":
			w.Write([]byte(`<a href="/gremium/1">Bauausschuss</a><a href="/gremium/2">Sportverein</a>`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	committees := DiscoverCommittees(context.Background(), newTestClient(), srv.URL)
	if len(committees) != 1 {
		t.Fatalf("got %d committees, want 1: %+v", len(committees), committees)
	}
	if committees[0].Name != "Bauausschuss" {
		t.Errorf("got %q", committees[0].Name)
	}
}

func TestCrawlCommitteeSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<a href="/sitzung/1">Sitzung vom 15.03.2024</a>
			<a href="/sitzung/2">Sitzung ohne Datum</a>
			<a href="/impressum">Impressum</a>
		`))
	}))
	defer srv.Close()

	sessions := CrawlCommitteeSessions(context.Background(), newTestClient(), srv.URL)
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2: %+v", len(sessions), sessions)
	}
	if sessions[0].Date == nil || sessions[0].Date.Year() != 2024 || sessions[0].Date.Month() != time.March || sessions[0].Date.Day() != 15 {
		t.Errorf("got date %v", sessions[0].Date)
	}
	if sessions[1].Date != nil {
		t.Errorf("expected undated session, got %v", sessions[1].Date)
	}
}

func TestExtractSessionItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<a href="/item/1">TOP 3: Bebauungsplan Nr. 12</a>
			<a href="/item/2">TOP 4: Haushaltsrede</a>
			<a href="/item/3">Batteriespeicher Genehmigung</a>
		`))
	}))
	defer srv.Close()

	items := ExtractSessionItems(context.Background(), newTestClient(), srv.URL)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(items), items)
	}
}

func TestSessionWalker(t *testing.T) {
	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	walker := NewSessionWalker(cutoff)

	recent := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	old := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	if !walker.Accept(Session{Date: &recent}) {
		t.Fatalf("expected recent session to continue")
	}
	if !walker.Accept(Session{Date: &old}) {
		t.Fatalf("expected first old session to continue (count=1)")
	}
	if !walker.Accept(Session{Date: &old}) {
		t.Fatalf("expected second old session to continue (count=2)")
	}
	if walker.Accept(Session{Date: &old}) {
		t.Fatalf("expected third consecutive old session to stop")
	}
}

func TestSessionWalker_UndatedResetsCounter(t *testing.T) {
	cutoff := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	walker := NewSessionWalker(cutoff)
	old := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

	walker.Accept(Session{Date: &old})
	walker.Accept(Session{Date: &old})
	if !walker.Accept(Session{Date: nil}) {
		t.Fatalf("expected undated session to continue")
	}
	if !walker.Accept(Session{Date: &old}) {
		t.Fatalf("expected counter to have reset, count=1")
	}
}
