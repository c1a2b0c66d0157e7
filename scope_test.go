package prospect

import "testing"

func TestScopeMatchesString(t *testing.T) {
	scope := NewScope(true)
	if err := scope.AddRule(`wikipedia\.org`, "host", true); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if err := scope.AddRule(`^news\.`, "host", true); err != nil {
		t.Fatalf("AddRule: %v", err)
	}

	cases := []struct {
		input     string
		matchType string
		want      bool
	}{
		{"wikipedia.org", "host", false},
		{"en.wikipedia.org", "host", false},
		{"news.ycombinator.com", "host", false},
		{"nvidia.com", "host", true},
		{"NVIDIA.COM", "host", true},
		{"wikipedia.org", "bogus", true},
	}
	for _, tc := range cases {
		if got := scope.MatchesString(tc.input, tc.matchType); got != tc.want {
			t.Errorf("MatchesString(%q, %q) = %v, want %v", tc.input, tc.matchType, got, tc.want)
		}
	}
}

func TestScopeIncludeRulesNarrow(t *testing.T) {
	scope := NewScope(true)
	if err := scope.AddRule(`nvidia\.com`, "host", false); err != nil {
		t.Fatalf("AddRule: %v", err)
	}

	if !scope.MatchesString("nvidia.com", "host") {
		t.Error("included host should match")
	}
	if scope.MatchesString("amd.com", "host") {
		t.Error("adding an include rule should make non-matching hosts out of scope")
	}
}

func TestScopeMatchesResult(t *testing.T) {
	scope := NewScope(true)
	// Path-bearing patterns only bite as url rules, host-anchored ones as
	// host rules. Both kinds get registered both ways.
	for _, matchType := range []string{"host", "url"} {
		if err := scope.AddRule(`linkedin\.com/posts`, matchType, true); err != nil {
			t.Fatalf("AddRule: %v", err)
		}
	}

	if scope.MatchesResult("linkedin.com", "https://linkedin.com/posts/update-1") {
		t.Error("excluded url path should be out of scope")
	}
	if !scope.MatchesResult("linkedin.com", "https://linkedin.com/company/nvidia") {
		t.Error("non-matching url on the same host should stay in scope")
	}
}

func TestScopeAddRule(t *testing.T) {
	scope := NewScope(true)

	if err := scope.AddRule(`[invalid`, "host", true); err == nil {
		t.Error("expected an error for an invalid pattern")
	}

	if err := scope.AddRule(`nvidia\.com`, "host", true); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if err := scope.AddRule(`nvidia\.com`, "host", true); err == nil {
		t.Error("expected an error for a duplicate rule")
	}

	// The leading dash marker is stripped before compiling.
	if err := scope.AddRule(`-amd\.com`, "host", true); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if scope.MatchesString("amd.com", "host") {
		t.Error("dash-prefixed pattern should match without the dash")
	}
}

func TestScopeClearRules(t *testing.T) {
	scope := NewScope(true)
	if err := scope.AddRule(`wikipedia\.org`, "host", true); err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	scope.ClearRules()
	if !scope.MatchesString("wikipedia.org", "host") {
		t.Error("cleared scope should fall back to the default")
	}
}
