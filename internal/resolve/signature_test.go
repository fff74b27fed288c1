package resolve

import "testing"

func TestExtractPlanToken(t *testing.T) {
	cases := []struct {
		name  string
		title string
		text  string
		want  string
	}{
		{"bebauungsplan with number", "Bebauungsplan Nr. 12 Batteriespeicher", "", "12"},
		{"b-plan abbreviation", "B-Plan 7a Speicherpark Nord", "", "7a"},
		{"quoted plan name", `Satzungsbeschluss zum "Sondergebiet Speicherpark Ost"`, "", "sondergebiet speicherpark ost"},
		{"no plan reference", "Allgemeine Mitteilung ohne Planbezug", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractPlanToken(tc.title, tc.text); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractParcelToken(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"gemarkung flur flurstueck", "Gemarkung Musterdorf, Flur 3, Flurstück 12a", "gemarkung=musterdorf;flur=3;flurstueck=12a"},
		{"empty", "", ""},
		{"no match", "keine Angaben", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractParcelToken(tc.raw); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeCompanyName(t *testing.T) {
	cases := []struct {
		name    string
		company string
		want    string
	}{
		{"strips GmbH suffix", "Energiespeicher Nord GmbH", "energiespeicher nord"},
		{"strips AG suffix", "Muster Batterie AG", "muster batterie"},
		{"no suffix", "Musterwerk", "musterwerk"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeCompanyName(tc.company); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractTitleSignature(t *testing.T) {
	got := ExtractTitleSignature("Öffentliche Auslegung zur Aufstellung des Bebauungsplans Batteriespeicher Nord")
	want := "des bebauungsplans batteriespeicher nord"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestJaccardSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b map[string]bool
		want float64
	}{
		{"both empty", map[string]bool{}, map[string]bool{}, 1.0},
		{"one empty", map[string]bool{"x": true}, map[string]bool{}, 0.0},
		{"identical", map[string]bool{"a": true, "b": true}, map[string]bool{"a": true, "b": true}, 1.0},
		{"half overlap", map[string]bool{"a": true, "b": true}, map[string]bool{"b": true, "c": true}, 1.0 / 3.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := JaccardSimilarity(tc.a, tc.b); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}
