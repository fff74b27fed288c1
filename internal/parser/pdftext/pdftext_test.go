package pdftext

import "testing"

func TestExtract_InvalidBytesReturnsError(t *testing.T) {
	_, err := Extract([]byte("not a pdf"), 0)
	if err == nil {
		t.Fatal("expected an error for non-PDF input")
	}
}

func TestHasTrigger(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Aufstellungsbeschluss zum Bebauungsplan Nr. 7", true},
		{"Batteriespeicher Anlage Genehmigung", true},
		{"Jahresbericht des Vereins", false},
		{"", false},
	}
	for _, c := range cases {
		if got := hasTrigger(c.text); got != c.want {
			t.Errorf("hasTrigger(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestExtractProgressive_InvalidBytesReturnsError(t *testing.T) {
	_, hasTriggers, err := ExtractProgressive([]byte("not a pdf"), 3)
	if err == nil {
		t.Fatal("expected an error for non-PDF input")
	}
	if hasTriggers {
		t.Fatal("expected hasTriggers=false on error")
	}
}
