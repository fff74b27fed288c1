package container

import (
	"testing"

	"github.com/witto13/bess-crawler/internal/domain"
)

func TestIsContainer(t *testing.T) {
	cases := []struct {
		name      string
		titleNorm string
		url       string
		want      bool
	}{
		{"amtsblatt issue with no procedure term", "amtsblatt ausgabe 12/2024", "https://example.de/amtsblatt-12.pdf", true},
		{"amtsblatt issue carrying a procedure term", "amtsblatt mit aufstellungsbeschluss bebauungsplan nord", "https://example.de/x.pdf", false},
		{"plain procedure title", "aufstellungsbeschluss bebauungsplan batteriespeicher", "https://example.de/proc", false},
		{"numbered bulletin without procedure term", "bekanntmachung nr. 7", "https://example.de/nr7", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsContainer(tc.titleNorm, tc.url); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHasRequiredProcedureSignal(t *testing.T) {
	cases := []struct {
		name   string
		result *domain.ClassifierResult
		want   bool
	}{
		{"nil result", nil, false},
		{"unknown procedure type", &domain.ClassifierResult{ProcedureType: domain.ProcedureUnknown}, false},
		{"typed procedure, no snippets", &domain.ClassifierResult{ProcedureType: domain.ProcedureBaugenehmigung}, true},
		{
			"typed procedure with matching snippet",
			&domain.ClassifierResult{
				ProcedureType:    domain.ProcedureBPlanAufstellung,
				EvidenceSnippets: []domain.EvidenceSnippet{{Rule: "procedure_term", Text: "Aufstellungsbeschluss Bebauungsplan"}},
			},
			true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := HasRequiredProcedureSignal(tc.result); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsValidProcedure(t *testing.T) {
	t.Run("container with no procedure signal is skipped", func(t *testing.T) {
		valid, reason := IsValidProcedure("amtsblatt ausgabe 12/2024", "https://example.de/amtsblatt.pdf", "", domain.DiscoveryAmtsblatt, nil)
		if valid {
			t.Fatalf("expected invalid")
		}
		if reason != SkipContainer {
			t.Fatalf("got reason %v, want %v", reason, SkipContainer)
		}
	})

	t.Run("candidate with explicit BESS signal passes", func(t *testing.T) {
		result := &domain.ClassifierResult{IsCandidate: true}
		valid, reason := IsValidProcedure("bauvorbescheid batteriespeicher nord", "https://example.de/x", "", domain.DiscoveryWebsite, result)
		if !valid || reason != SkipNone {
			t.Fatalf("got valid=%v reason=%v", valid, reason)
		}
	})

	t.Run("RIS item with privileged term passes even without classification", func(t *testing.T) {
		valid, reason := IsValidProcedure("stellungnahme zum vorhaben", "https://ris.example.de/x", "", domain.DiscoveryRIS, nil)
		if !valid || reason != SkipNone {
			t.Fatalf("got valid=%v reason=%v", valid, reason)
		}
	})

	t.Run("no signal anywhere is skipped", func(t *testing.T) {
		valid, reason := IsValidProcedure("allgemeine mitteilung", "https://example.de/x", "", domain.DiscoveryWebsite, nil)
		if valid {
			t.Fatalf("expected invalid")
		}
		if reason != SkipNoProcedureSignal {
			t.Fatalf("got reason %v, want %v", reason, SkipNoProcedureSignal)
		}
	})
}
