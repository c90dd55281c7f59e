package entities

import "fmt"

// LiquidationPreferenceType describes how a preferred class takes part in an exit
type LiquidationPreferenceType int

const (
	NonParticipating LiquidationPreferenceType = iota
	FullParticipating
	CappedParticipating
)

var liquidationPreferenceTypeNames = []string{
	"NON_PARTICIPATING",
	"FULL_PARTICIPATING",
	"CAPPED_PARTICIPATING",
}

// String method for LiquidationPreferenceType enum
func (l LiquidationPreferenceType) String() string {
	if int(l) < 0 || int(l) >= len(liquidationPreferenceTypeNames) {
		return "UNKNOWN"
	}
	return liquidationPreferenceTypeNames[l]
}

// ParseLiquidationPreferenceType parses NON_PARTICIPATING, FULL_PARTICIPATING
// or CAPPED_PARTICIPATING
func ParseLiquidationPreferenceType(s string) (LiquidationPreferenceType, error) {
	idx := lookupEnum(liquidationPreferenceTypeNames, s)
	if idx < 0 {
		return NonParticipating, fmt.Errorf("invalid liquidation preference type: %s", s)
	}
	return LiquidationPreferenceType(idx), nil
}

func (l LiquidationPreferenceType) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *LiquidationPreferenceType) UnmarshalText(text []byte) error {
	parsed, err := ParseLiquidationPreferenceType(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// AntiDilutionProtection is the down-round protection granted to a class
type AntiDilutionProtection int

const (
	NoAntiDilution AntiDilutionProtection = iota
	BroadBased
	NarrowBased
	FullRatchet
)

var antiDilutionNames = []string{"NONE", "BROAD_BASED", "NARROW_BASED", "FULL_RATCHET"}

// String method for AntiDilutionProtection enum
func (a AntiDilutionProtection) String() string {
	if int(a) < 0 || int(a) >= len(antiDilutionNames) {
		return "UNKNOWN"
	}
	return antiDilutionNames[a]
}

// ParseAntiDilutionProtection parses NONE, BROAD_BASED, NARROW_BASED or FULL_RATCHET
func ParseAntiDilutionProtection(s string) (AntiDilutionProtection, error) {
	if s == "" {
		return NoAntiDilution, nil
	}
	idx := lookupEnum(antiDilutionNames, s)
	if idx < 0 {
		return NoAntiDilution, fmt.Errorf("invalid anti-dilution protection: %s", s)
	}
	return AntiDilutionProtection(idx), nil
}

func (a AntiDilutionProtection) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *AntiDilutionProtection) UnmarshalText(text []byte) error {
	parsed, err := ParseAntiDilutionProtection(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ShareClass is the present-state definition of a class of shares.
// Rank 0 is common stock; higher ranks are paid earlier in a liquidation.
type ShareClass struct {
	ID                          string                    `json:"id"`
	Name                        string                    `json:"name"`
	LiquidationPreferenceRank   int                       `json:"liquidation_preference_rank"`
	LiquidationPreferenceFactor float64                   `json:"liquidation_preference_factor"`
	LiquidationPreferenceType   LiquidationPreferenceType `json:"liquidation_preference_type"`
	ParticipationCapFactor      float64                   `json:"participation_cap_factor,omitempty"`
	AntiDilutionProtection      AntiDilutionProtection    `json:"anti_dilution_protection"`
	VotesPerShare               float64                   `json:"votes_per_share"`
	ProtectiveProvisions        []string                  `json:"protective_provisions,omitempty"`
}

// Validate checks the structural constraints of a share class
func (sc ShareClass) Validate() error {
	if sc.ID == "" {
		return fmt.Errorf("share class id cannot be empty")
	}
	if sc.LiquidationPreferenceRank < 0 {
		return fmt.Errorf("share class %s: liquidation preference rank cannot be negative, got %d",
			sc.ID, sc.LiquidationPreferenceRank)
	}
	if sc.LiquidationPreferenceFactor < 0 {
		return fmt.Errorf("share class %s: liquidation preference factor cannot be negative, got %v",
			sc.ID, sc.LiquidationPreferenceFactor)
	}
	if sc.ParticipationCapFactor < 0 {
		return fmt.Errorf("share class %s: participation cap factor cannot be negative, got %v",
			sc.ID, sc.ParticipationCapFactor)
	}
	if sc.VotesPerShare < 0 {
		return fmt.Errorf("share class %s: votes per share cannot be negative, got %v", sc.ID, sc.VotesPerShare)
	}
	return nil
}

// IsCommon reports whether the class carries no liquidation preference
func (sc ShareClass) IsCommon() bool {
	return sc.LiquidationPreferenceRank == 0
}

// Participates reports whether holders share in the residual after preferences
func (sc ShareClass) Participates() bool {
	return sc.IsCommon() || sc.LiquidationPreferenceType != NonParticipating
}

// ShareClassPatch is a partial update; nil fields are left untouched
type ShareClassPatch struct {
	Name                        *string                    `json:"name,omitempty"`
	LiquidationPreferenceRank   *int                       `json:"liquidation_preference_rank,omitempty"`
	LiquidationPreferenceFactor *float64                   `json:"liquidation_preference_factor,omitempty"`
	LiquidationPreferenceType   *LiquidationPreferenceType `json:"liquidation_preference_type,omitempty"`
	ParticipationCapFactor      *float64                   `json:"participation_cap_factor,omitempty"`
	AntiDilutionProtection      *AntiDilutionProtection    `json:"anti_dilution_protection,omitempty"`
	VotesPerShare               *float64                   `json:"votes_per_share,omitempty"`
	ProtectiveProvisions        []string                   `json:"protective_provisions,omitempty"`
}

// IsEmpty reports whether the patch changes nothing
func (p ShareClassPatch) IsEmpty() bool {
	return p.Name == nil &&
		p.LiquidationPreferenceRank == nil &&
		p.LiquidationPreferenceFactor == nil &&
		p.LiquidationPreferenceType == nil &&
		p.ParticipationCapFactor == nil &&
		p.AntiDilutionProtection == nil &&
		p.VotesPerShare == nil &&
		p.ProtectiveProvisions == nil
}

// Apply returns a copy of sc with the patch merged over it
func (sc ShareClass) Apply(p ShareClassPatch) ShareClass {
	out := sc
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.LiquidationPreferenceRank != nil {
		out.LiquidationPreferenceRank = *p.LiquidationPreferenceRank
	}
	if p.LiquidationPreferenceFactor != nil {
		out.LiquidationPreferenceFactor = *p.LiquidationPreferenceFactor
	}
	if p.LiquidationPreferenceType != nil {
		out.LiquidationPreferenceType = *p.LiquidationPreferenceType
	}
	if p.ParticipationCapFactor != nil {
		out.ParticipationCapFactor = *p.ParticipationCapFactor
	}
	if p.AntiDilutionProtection != nil {
		out.AntiDilutionProtection = *p.AntiDilutionProtection
	}
	if p.VotesPerShare != nil {
		out.VotesPerShare = *p.VotesPerShare
	}
	if p.ProtectiveProvisions != nil {
		out.ProtectiveProvisions = append([]string(nil), p.ProtectiveProvisions...)
	}
	return out
}
