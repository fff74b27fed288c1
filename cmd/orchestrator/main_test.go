package main

import "testing"

func TestGuessWebsiteURL(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Teltow", "https://www.teltow.de"},
		{"Frankfurt (Oder)", "https://www.frankfurt.de"},
		{"Königs Wusterhausen", "https://www.koenigs-wusterhausen.de"},
		{"", ""},
		{"(((", ""},
	}
	for _, c := range cases {
		if got := guessWebsiteURL(c.name); got != c.want {
			t.Errorf("guessWebsiteURL(%q) = %q, want %q", c.name, got, c.want)
		}
	}
}
