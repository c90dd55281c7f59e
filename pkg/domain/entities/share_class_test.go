package entities

import "testing"

func TestShareClass_Apply(t *testing.T) {
	common := ShareClass{
		ID:                          "sc-common",
		Name:                        "Common",
		LiquidationPreferenceFactor: 1,
		VotesPerShare:               1,
	}

	votes := 10.0
	updated := common.Apply(ShareClassPatch{VotesPerShare: &votes})

	if updated.VotesPerShare != 10 {
		t.Errorf("Expected 10 votes per share, got %v", updated.VotesPerShare)
	}
	if updated.Name != "Common" {
		t.Errorf("Expected untouched name Common, got %s", updated.Name)
	}
	if common.VotesPerShare != 1 {
		t.Errorf("Expected original class to stay unchanged, got %v votes", common.VotesPerShare)
	}

	ratchet := FullRatchet
	rank := 2
	updated = updated.Apply(ShareClassPatch{
		AntiDilutionProtection:    &ratchet,
		LiquidationPreferenceRank: &rank,
		ProtectiveProvisions:      []string{"SALE_OF_COMPANY"},
	})
	if updated.AntiDilutionProtection != FullRatchet || updated.LiquidationPreferenceRank != 2 {
		t.Errorf("Expected full ratchet at rank 2, got %s at rank %d",
			updated.AntiDilutionProtection, updated.LiquidationPreferenceRank)
	}
	if len(updated.ProtectiveProvisions) != 1 {
		t.Errorf("Expected 1 protective provision, got %d", len(updated.ProtectiveProvisions))
	}
	if !(ShareClassPatch{}).IsEmpty() {
		t.Error("Expected zero patch to be empty")
	}
}

func TestShareClass_Participates(t *testing.T) {
	testCases := []struct {
		name     string
		class    ShareClass
		expected bool
	}{
		{"common", ShareClass{ID: "c"}, true},
		{"non participating preferred", ShareClass{ID: "p", LiquidationPreferenceRank: 1}, false},
		{"full participating preferred", ShareClass{ID: "p", LiquidationPreferenceRank: 1, LiquidationPreferenceType: FullParticipating}, true},
		{"capped participating preferred", ShareClass{ID: "p", LiquidationPreferenceRank: 1, LiquidationPreferenceType: CappedParticipating}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.class.Participates(); got != tc.expected {
				t.Errorf("Expected Participates()=%v, got %v", tc.expected, got)
			}
		})
	}
}

func TestShareClass_Validation(t *testing.T) {
	testCases := []struct {
		name        string
		class       ShareClass
		expectError string
	}{
		{"empty id", ShareClass{}, "share class id cannot be empty"},
		{"negative rank", ShareClass{ID: "x", LiquidationPreferenceRank: -1}, "share class x: liquidation preference rank cannot be negative, got -1"},
		{"negative factor", ShareClass{ID: "x", LiquidationPreferenceFactor: -2}, "share class x: liquidation preference factor cannot be negative, got -2"},
		{"negative votes", ShareClass{ID: "x", VotesPerShare: -1}, "share class x: votes per share cannot be negative, got -1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.class.Validate()
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestParseEnums(t *testing.T) {
	if got, err := ParseLiquidationPreferenceType("capped_participating"); err != nil || got != CappedParticipating {
		t.Errorf("Expected CappedParticipating, got %s (%v)", got, err)
	}
	if got, err := ParseAntiDilutionProtection("NARROW_BASED"); err != nil || got != NarrowBased {
		t.Errorf("Expected NarrowBased, got %s (%v)", got, err)
	}
	if got, err := ParseAntiDilutionProtection(""); err != nil || got != NoAntiDilution {
		t.Errorf("Expected empty anti-dilution to mean NONE, got %s (%v)", got, err)
	}
	if got, err := ParseSeniority("senior-unsecured"); err != nil || got != SeniorUnsecured {
		t.Errorf("Expected SeniorUnsecured, got %s (%v)", got, err)
	}
	if got, err := ParseConversionMechanism("FIXED_RATIO"); err != nil || got != FixedRatio {
		t.Errorf("Expected FixedRatio, got %s (%v)", got, err)
	}
	if _, err := ParseSeniority("JUNIOR"); err == nil {
		t.Error("Expected error for unknown seniority")
	}
	if SeniorSecured.RepaymentOrder() >= Subordinated.RepaymentOrder() {
		t.Error("Expected senior secured debt to be repaid before subordinated debt")
	}
}
