package sslpolicy

import "testing"

func TestShouldDisableVerify(t *testing.T) {
	policy := New([]string{"extra.example.de"}, false)

	cases := []struct {
		name string
		url  string
		want bool
	}{
		{"default allowlisted host", "https://ssl.ratsinfo-online.net/path", true},
		{"configured extra host", "https://extra.example.de:443/path", true},
		{"unknown host", "https://unknown.example.de/path", false},
		{"invalid url", "http://%zz", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := policy.ShouldDisableVerify(tc.url); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAllowHTTPFallback(t *testing.T) {
	if New(nil, false).AllowHTTPFallback() {
		t.Fatalf("expected false")
	}
	if !New(nil, true).AllowHTTPFallback() {
		t.Fatalf("expected true")
	}
}
