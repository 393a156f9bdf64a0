package frontier

import "testing"

func TestHostAllowlist(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		al := newHostAllowlist([]string{"ru.wikipedia.org"})
		if al == nil {
			t.Fatalf("expected allowlist to be created")
		}
		if !al.Allows("RU.wikipedia.org") {
			t.Fatalf("expected ru.wikipedia.org to be allowed")
		}
		if al.Allows("en.wikipedia.org") {
			t.Fatalf("did not expect sibling hosts to match exact entry")
		}
	})

	t.Run("wildcard suffix", func(t *testing.T) {
		al := newHostAllowlist([]string{"*.wikipedia.org", ".wikipedia.org"})
		cases := []struct {
			host    string
			allowed bool
		}{
			{"ru.wikipedia.org", true},
			{"ru.m.wikipedia.org", true},
			{"wikipedia.org", true},
			{"wikimedia.org", false},
			{"", false},
		}
		for _, tc := range cases {
			if got := al.Allows(tc.host); got != tc.allowed {
				t.Fatalf("host %q allowed=%v, want %v", tc.host, got, tc.allowed)
			}
		}
		if len(al.suffixes) != 1 {
			t.Fatalf("expected duplicate suffixes to collapse, got %v", al.suffixes)
		}
	})

	t.Run("empty config admits everything", func(t *testing.T) {
		al := newHostAllowlist([]string{" ", ""})
		if al != nil {
			t.Fatalf("expected nil allowlist for blank patterns")
		}
		if !al.Allows("anything.example") {
			t.Fatalf("nil allowlist should admit every host")
		}
	})
}
