package dto

import "time"

// VoteDistributionEntry is one stakeholder's voting power
type VoteDistributionEntry struct {
	StakeholderID   string  `json:"stakeholder_id"`
	StakeholderName string  `json:"stakeholder_name"`
	ShareClassNames string  `json:"share_class_names"`
	Votes           float64 `json:"votes"`
	Percentage      float64 `json:"percentage"`
}

// ClassVoteEntry is the voting weight of one share class and the provisions
// its holders can block
type ClassVoteEntry struct {
	ShareClassID         string   `json:"share_class_id"`
	ShareClassName       string   `json:"share_class_name"`
	Votes                float64  `json:"votes"`
	Percentage           float64  `json:"percentage"`
	Holders              int      `json:"holders"`
	ProtectiveProvisions []string `json:"protective_provisions,omitempty"`
}

// VotingResult is the vote distribution as of a date
type VotingResult struct {
	AsOfDate         time.Time               `json:"as_of_date"`
	TotalVotes       float64                 `json:"total_votes"`
	VoteDistribution []VoteDistributionEntry `json:"vote_distribution"`
	ByShareClass     []ClassVoteEntry        `json:"by_share_class"`
}
