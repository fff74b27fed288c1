package gazette

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

func TestListIssues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<a href="/ausgabe/1">Ausgabe 01/2024</a>
			<a href="/ausgabe/2">Ausgabe 02/2024</a>
			<a href="/kontakt">Kontakt</a>
		`))
	}))
	defer srv.Close()

	issues := ListIssues(context.Background(), newTestClient(), srv.URL)
	if len(issues) != 2 {
		t.Fatalf("got %d issues, want 2: %+v", len(issues), issues)
	}
}

func TestExtractIssueCandidates_WithPDFs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
			<html><body>
			<p>Bekanntmachung: Aufstellungsbeschluss zum Bebauungsplan Nr. 7</p>
			<a href="/docs/beschluss.pdf">Beschluss</a>
			<a href="/docs/karte.pdf"></a>
			<a href="/impressum">Impressum</a>
			</body></html>
		`))
	}))
	defer srv.Close()

	candidates := ExtractIssueCandidates(context.Background(), newTestClient(), srv.URL)
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2: %+v", len(candidates), candidates)
	}
	for _, c := range candidates {
		if c.Type != CandidateDocument {
			t.Errorf("got type %v", c.Type)
		}
	}
	if candidates[1].Title != "Amtsblatt PDF" {
		t.Errorf("expected default title for unlabeled pdf link, got %q", candidates[1].Title)
	}
}

func TestExtractIssueCandidates_NoPDFsFallsBackToIssuePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Amtsblatt Nr. 5</title></head><body>
			<p>Satzungsbeschluss für den Bebauungsplan.</p>
			<a href="/impressum">Impressum</a>
		</body></html>`))
	}))
	defer srv.Close()

	candidates := ExtractIssueCandidates(context.Background(), newTestClient(), srv.URL)
	if len(candidates) != 1 || candidates[0].Type != CandidateIssue {
		t.Fatalf("got %+v", candidates)
	}
	if candidates[0].Title != "Amtsblatt Nr. 5" {
		t.Errorf("got title %q", candidates[0].Title)
	}
}

func TestExtractIssueCandidates_NoRelevantContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Vereinsnachrichten und Sportergebnisse.</p></body></html>`))
	}))
	defer srv.Close()

	candidates := ExtractIssueCandidates(context.Background(), newTestClient(), srv.URL)
	if candidates != nil {
		t.Fatalf("expected no candidates, got %+v", candidates)
	}
}
