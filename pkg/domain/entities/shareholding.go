package entities

import (
	"fmt"
	"time"
)

// Shares is a whole number of shares
type Shares int64

// Shareholding is one tranche of shares held by a stakeholder
type Shareholding struct {
	ID                    string  `json:"id"`
	StakeholderID         string  `json:"stakeholder_id"`
	StakeholderName       string  `json:"stakeholder_name"`
	ShareClassID          string  `json:"share_class_id"`
	Shares                Shares  `json:"shares"`
	Investment            float64 `json:"investment,omitempty"`
	OriginalPricePerShare float64 `json:"original_price_per_share,omitempty"`
	VestingScheduleID     string  `json:"vesting_schedule_id,omitempty"`
}

// Validate checks the structural constraints of a shareholding
func (sh Shareholding) Validate() error {
	if sh.StakeholderID == "" {
		return fmt.Errorf("shareholding %s: stakeholder id cannot be empty", sh.ID)
	}
	if sh.Shares < 0 {
		return fmt.Errorf("shareholding %s: shares cannot be negative, got %d", sh.ID, sh.Shares)
	}
	if sh.Investment < 0 {
		return fmt.Errorf("shareholding %s: investment cannot be negative, got %v", sh.ID, sh.Investment)
	}
	return nil
}

// Acceleration is the vesting acceleration trigger of a schedule
type Acceleration int

const (
	NoAcceleration Acceleration = iota
	SingleTrigger
	DoubleTrigger
)

var accelerationNames = []string{"NONE", "SINGLE_TRIGGER", "DOUBLE_TRIGGER"}

// String method for Acceleration enum
func (a Acceleration) String() string {
	if int(a) < 0 || int(a) >= len(accelerationNames) {
		return "UNKNOWN"
	}
	return accelerationNames[a]
}

// ParseAcceleration parses NONE, SINGLE_TRIGGER or DOUBLE_TRIGGER; empty means NONE
func ParseAcceleration(s string) (Acceleration, error) {
	if s == "" {
		return NoAcceleration, nil
	}
	idx := lookupEnum(accelerationNames, s)
	if idx < 0 {
		return NoAcceleration, fmt.Errorf("invalid acceleration: %s", s)
	}
	return Acceleration(idx), nil
}

func (a Acceleration) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Acceleration) UnmarshalText(text []byte) error {
	parsed, err := ParseAcceleration(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// VestingSchedule is a time-based earning schedule with a cliff
type VestingSchedule struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name,omitempty"`
	GrantDate           time.Time    `json:"grant_date"`
	VestingPeriodMonths int          `json:"vesting_period_months"`
	CliffMonths         int          `json:"cliff_months"`
	Acceleration        Acceleration `json:"acceleration,omitempty"`
}

// Validate checks the structural constraints of a vesting schedule
func (vs VestingSchedule) Validate() error {
	if vs.ID == "" {
		return fmt.Errorf("vesting schedule id cannot be empty")
	}
	if vs.VestingPeriodMonths < 0 {
		return fmt.Errorf("vesting schedule %s: period cannot be negative, got %d", vs.ID, vs.VestingPeriodMonths)
	}
	if vs.CliffMonths < 0 {
		return fmt.Errorf("vesting schedule %s: cliff cannot be negative, got %d", vs.ID, vs.CliffMonths)
	}
	return nil
}

// Stakeholder is a person or entity appearing in a project's transactions
type Stakeholder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Project bundles a transaction log with its directory of stakeholders
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Currency     string        `json:"currency"`
	Stakeholders []Stakeholder `json:"stakeholders"`
	Transactions []Transaction `json:"transactions"`
}
