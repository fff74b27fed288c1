package municipality

import (
	"strings"
	"testing"
)

func TestSanitizeForURL(t *testing.T) {
	cases := map[string]string{
		"Größe-Stadt (Landkreis X)": "groesse-stadt",
		"Müncheberg":                "muencheberg",
		"Teltow":                    "teltow",
		"":                          "",
	}
	for in, want := range cases {
		if got := SanitizeForURL(in); got != want {
			t.Errorf("SanitizeForURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMunicipalSectionURLs(t *testing.T) {
	urls := MunicipalSectionURLs("https://example.de/")
	if len(urls) != len(DiscoveryPaths) {
		t.Fatalf("got %d urls, want %d", len(urls), len(DiscoveryPaths))
	}
	if urls[0] != "https://example.de/bekanntmachungen" {
		t.Errorf("got %q", urls[0])
	}
}

func TestRISCandidateURLs(t *testing.T) {
	urls := RISCandidateURLs("Müncheberg", "https://muencheberg.de")
	joined := strings.Join(urls, " ")
	for _, want := range []string{
		"https://muencheberg.sessionnet.de",
		"https://ris.muencheberg.de",
		"https://muencheberg.allris.de",
		"https://muencheberg.de/si0100.asp",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected %q among %v", want, urls)
		}
	}
}

func TestRISCandidateURLs_NoBaseURL(t *testing.T) {
	urls := RISCandidateURLs("Teltow", "")
	if len(urls) != 4 {
		t.Fatalf("got %d urls, want 4 (name-only patterns)", len(urls))
	}
}

func TestAmtsblattCandidateURLs(t *testing.T) {
	urls := AmtsblattCandidateURLs("Bad Belzig", "https://bad-belzig.de")
	joined := strings.Join(urls, " ")
	if !strings.Contains(joined, "https://bad-belzig.de/amtsblatt") {
		t.Errorf("missing base-url amtsblatt path: %v", urls)
	}
	if !strings.Contains(joined, "https://www.bad-belzig.de/amtsblatt") {
		t.Errorf("missing dashed name guess: %v", urls)
	}
}
