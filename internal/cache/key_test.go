package cache

import "testing"

// TestKey tests deterministic colon-joined key generation
func TestKey(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		subject   string
		context   []string
		expected  string
	}{
		{"no context", "a", "b", nil, "a:b"},
		{"with context", "a", "b", []string{"c"}, "a:b:c"},
		{"empty context omitted", "a", "b", []string{""}, "a:b"},
		{"multiple context segments", "vendors", "lookup", []string{"region", "emea"}, "vendors:lookup:region:emea"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key(tt.namespace, tt.subject, tt.context...)
			if got != tt.expected {
				t.Errorf("Key(%q, %q, %v) = %q, expected %q",
					tt.namespace, tt.subject, tt.context, got, tt.expected)
			}
		})
	}
}

// TestKey_Deterministic tests that repeated calls produce identical keys
func TestKey_Deterministic(t *testing.T) {
	first := Key("rates", "usd", "2026-03")
	second := Key("rates", "usd", "2026-03")
	if first != second {
		t.Errorf("Expected deterministic keys, got %q and %q", first, second)
	}
}
