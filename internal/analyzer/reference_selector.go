package analyzer

import (
	"sort"

	apperrors "github.com/anime-shed/channel-engine/internal/errors"
	"github.com/anime-shed/channel-engine/pkg/models"
)

// referenceSelector implements ReferenceSelector
type referenceSelector struct{}

// NewReferenceSelector creates a reference selector
func NewReferenceSelector() ReferenceSelector {
	return &referenceSelector{}
}

// NewChannelRecord derives the ranking record of a channel from its statistics
func NewChannelRecord(id string, s models.RobustStatistics) models.ChannelRecord {
	return models.ChannelRecord{
		ID:     id,
		Mean:   s.Mean,
		Median: s.Median,
		Delta:  s.Mean - s.Median,
	}
}

// SelectReferenceChannel picks the reference channel for a policy
func SelectReferenceChannel(records []models.ChannelRecord, policy models.ReferencePolicy) (models.ChannelRecord, error) {
	return NewReferenceSelector().Select(records, policy)
}

// Rank orders the records with a finite delta ascending by delta. Equal
// deltas keep their input order.
func (rs *referenceSelector) Rank(records []models.ChannelRecord) (models.ReferenceRanking, error) {
	eligible := make([]models.ChannelRecord, 0, len(records))
	for _, r := range records {
		if isFinite(r.Delta) {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) == 0 {
		return models.ReferenceRanking{}, apperrors.NewNoEligibleChannelError(
			"no channel has a finite mean-median delta", ErrNoEligibleChannel)
	}

	highestMean := eligible[0]
	for _, r := range eligible[1:] {
		if isFinite(r.Mean) && (!isFinite(highestMean.Mean) || r.Mean > highestMean.Mean) {
			highestMean = r
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Delta < eligible[j].Delta
	})

	n := len(eligible)
	return models.ReferenceRanking{
		Ranked:      eligible,
		Lowest:      eligible[0],
		Medium:      eligible[(n-1)/2],
		Highest:     eligible[n-1],
		HighestMean: highestMean,
	}, nil
}

// Select ranks the records and returns the one at the policy's index.
// Unknown policies select the lowest.
func (rs *referenceSelector) Select(records []models.ChannelRecord, policy models.ReferencePolicy) (models.ChannelRecord, error) {
	ranking, err := rs.Rank(records)
	if err != nil {
		return models.ChannelRecord{}, err
	}
	return ranking.ForPolicy(policy), nil
}
