package voting

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/vsinha/captable/pkg/application/dto"
	"github.com/vsinha/captable/pkg/domain/entities"
	"github.com/vsinha/captable/pkg/domain/services"
	"github.com/vsinha/captable/pkg/infrastructure/logger"
)

// VotingService computes voting power from vested shares
type VotingService struct {
	logger *slog.Logger
}

// Option configures a VotingService
type Option func(*VotingService)

// WithLogger sets the logger used for diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(s *VotingService) {
		s.logger = logger.OrDiscard(l)
	}
}

// NewVotingService creates a new voting service
func NewVotingService(opts ...Option) *VotingService {
	s := &VotingService{logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type stakeholderVotes struct {
	entry dto.VoteDistributionEntry
	names []string
}

// SimulateVote returns each stakeholder's votes, vested shares times the
// votes per share of their class, using the classes in force on the cap
// table's date. Entries of an unknown class carry no votes.
func (s *VotingService) SimulateVote(capTable *dto.CapTable, transactions []entities.Transaction) *dto.VotingResult {
	classes := services.BuildShareClassRegistry(transactions, capTable.AsOfDate)

	order := make([]string, 0)
	byStakeholder := make(map[string]*stakeholderVotes)
	byClass := make(map[string]*dto.ClassVoteEntry)
	classHolders := make(map[string]map[string]bool)

	var total float64
	for _, e := range capTable.Entries {
		sc, ok := classes.Get(e.ShareClassID)
		if !ok {
			s.logger.Debug("entry of unknown share class carries no votes",
				"stakeholder", e.StakeholderID, "class", e.ShareClassID)
			continue
		}
		votes := float64(e.VestedShares) * sc.VotesPerShare
		total += votes

		sv, ok := byStakeholder[e.StakeholderID]
		if !ok {
			sv = &stakeholderVotes{entry: dto.VoteDistributionEntry{
				StakeholderID:   e.StakeholderID,
				StakeholderName: e.StakeholderName,
			}}
			byStakeholder[e.StakeholderID] = sv
			order = append(order, e.StakeholderID)
		}
		sv.entry.Votes += votes
		if !contains(sv.names, sc.Name) {
			sv.names = append(sv.names, sc.Name)
		}

		ce, ok := byClass[sc.ID]
		if !ok {
			ce = &dto.ClassVoteEntry{
				ShareClassID:         sc.ID,
				ShareClassName:       sc.Name,
				ProtectiveProvisions: sc.ProtectiveProvisions,
			}
			byClass[sc.ID] = ce
			classHolders[sc.ID] = make(map[string]bool)
		}
		ce.Votes += votes
		if e.Shares > 0 {
			classHolders[sc.ID][e.StakeholderID] = true
		}
	}

	result := &dto.VotingResult{
		AsOfDate:         capTable.AsOfDate,
		TotalVotes:       total,
		VoteDistribution: make([]dto.VoteDistributionEntry, 0, len(order)),
		ByShareClass:     make([]dto.ClassVoteEntry, 0, len(byClass)),
	}
	for _, id := range order {
		sv := byStakeholder[id]
		sv.entry.ShareClassNames = strings.Join(sv.names, ", ")
		sv.entry.Percentage = services.SafeDiv(sv.entry.Votes, total) * 100
		result.VoteDistribution = append(result.VoteDistribution, sv.entry)
	}
	sort.SliceStable(result.VoteDistribution, func(i, j int) bool {
		return result.VoteDistribution[i].Votes > result.VoteDistribution[j].Votes
	})

	for _, sc := range classes.Ordered() {
		ce, ok := byClass[sc.ID]
		if !ok {
			continue
		}
		ce.Holders = len(classHolders[sc.ID])
		ce.Percentage = services.SafeDiv(ce.Votes, total) * 100
		result.ByShareClass = append(result.ByShareClass, *ce)
	}

	return result
}

// Blockers returns the names of the classes holding a protective provision
// over the given matter, such as "new share issuance"
func Blockers(result *dto.VotingResult, matter string) []string {
	blocking := make([]string, 0)
	for _, ce := range result.ByShareClass {
		for _, p := range ce.ProtectiveProvisions {
			if strings.EqualFold(p, matter) {
				blocking = append(blocking, ce.ShareClassName)
				break
			}
		}
	}
	return blocking
}

func contains(list []string, s string) bool {
	for _, existing := range list {
		if existing == s {
			return true
		}
	}
	return false
}
