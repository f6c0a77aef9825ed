package services

import "testing"

func sptr(s string) *string { return &s }

func TestWithinWindow(t *testing.T) {
	tests := []struct {
		name   string
		c      candidate
		onDate string
		want   bool
	}{
		{"open ended", candidate{}, "2025-06-15", true},
		{"inside window", candidate{validFrom: sptr("2025-01-01"), validTo: sptr("2025-12-31")}, "2025-06-15", true},
		{"before window", candidate{validFrom: sptr("2025-07-01")}, "2025-06-15", false},
		{"after window", candidate{validTo: sptr("2025-05-31")}, "2025-06-15", false},
		{"open start", candidate{validTo: sptr("2025-12-31")}, "2025-06-15", true},
		{"no date always matches", candidate{validFrom: sptr("2099-01-01")}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := withinWindow(tt.c, tt.onDate); got != tt.want {
				t.Errorf("withinWindow = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTermMatches(t *testing.T) {
	if !termMatches(candidate{}, "") {
		t.Error("empty term should match any candidate")
	}
	if termMatches(candidate{}, "FOB") {
		t.Error("candidate without term should not match FOB")
	}
	if !termMatches(candidate{priceTerm: sptr("FOB")}, "FOB") {
		t.Error("matching term should pass")
	}
	if termMatches(candidate{priceTerm: sptr("CIF")}, "FOB") {
		t.Error("mismatched term should fail")
	}
}

func TestResolutionTierCascade(t *testing.T) {
	onDate := "2025-06-15"
	defaultActive := candidate{bookDefault: true, bookActive: true}
	activeOnly := candidate{bookActive: true}
	activeExpired := candidate{bookActive: true, validTo: sptr("2024-12-31")}
	inactive := candidate{bookDefault: true}

	// Tier 1: only the default active book within window.
	if !resolutionTiers[0](defaultActive, onDate, "") {
		t.Error("tier 1 should accept default active book")
	}
	if resolutionTiers[0](activeOnly, onDate, "") {
		t.Error("tier 1 should reject non-default book")
	}
	if resolutionTiers[0](inactive, onDate, "") {
		t.Error("tier 1 should reject inactive book")
	}

	// Tier 2: any active book within window.
	if !resolutionTiers[1](activeOnly, onDate, "") {
		t.Error("tier 2 should accept active book")
	}
	if resolutionTiers[1](activeExpired, onDate, "") {
		t.Error("tier 2 should reject expired entry")
	}

	// Tier 3: active book, window ignored.
	if !resolutionTiers[2](activeExpired, onDate, "") {
		t.Error("tier 3 should accept expired entry from active book")
	}
	if resolutionTiers[2](inactive, onDate, "") {
		t.Error("tier 3 should still reject inactive book")
	}
}
