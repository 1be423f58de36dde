package dialogue

import "testing"

func TestFallbackResponse(t *testing.T) {
	contains := func(pool []string, s string) bool {
		for _, p := range pool {
			if p == s {
				return true
			}
		}
		return false
	}

	tests := []struct {
		name   string
		locale string
		pool   []string
	}{
		{name: "korean", locale: "ko", pool: fallbackPools["ko"]},
		{name: "english", locale: "en", pool: fallbackPools["en"]},
		{name: "unknown locale uses korean", locale: "fr", pool: fallbackPools["ko"]},
		{name: "empty locale uses korean", locale: "", pool: fallbackPools["ko"]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Draw repeatedly: every pick must come from the fixed pool.
			for i := 0; i < 50; i++ {
				got := FallbackResponse(tt.locale)
				if !contains(tt.pool, got) {
					t.Fatalf("FallbackResponse(%q) = %q, not in pool", tt.locale, got)
				}
			}
		})
	}
}

func TestFallbackPoolSizes(t *testing.T) {
	for locale, pool := range fallbackPools {
		if len(pool) != 5 {
			t.Errorf("pool %q has %d entries, want 5", locale, len(pool))
		}
	}
}
