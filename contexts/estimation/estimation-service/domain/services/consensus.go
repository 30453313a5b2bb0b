package services

import (
	"sort"

	"pointdeck/contexts/estimation/estimation-service/domain/entities"
	domainerrors "pointdeck/contexts/estimation/estimation-service/domain/errors"
)

type DecisionType string

const (
	DecisionConsensus     DecisionType = "consensus"
	DecisionNearConsensus DecisionType = "near_consensus"
	DecisionDivergence    DecisionType = "divergence"
)

// Decision is the resolver output attached to reveal events. Alternative is
// only set for divergence, and only when a meaningful second suggestion
// exists.
type Decision struct {
	Type        DecisionType
	Primary     int
	Alternative *int
}

// ResolveConsensus turns a round's vote multiset into a decision.
//
// The function is pure and deterministic: identical multisets always yield
// identical decisions, which keeps racing re-reveals idempotent.
//
// Rules, in order:
//  1. all values equal (a single vote included) -> consensus on that value.
//  2. exactly one participant deviates and that value sits one scale step
//     from the majority value -> near-consensus on the majority value.
//  3. anything else -> divergence; primary is the highest value, alternative
//     is the repeated majority value when it differs from primary, else the
//     second-highest distinct value, else nil.
func ResolveConsensus(values []int) (Decision, error) {
	if len(values) == 0 {
		return Decision{}, domainerrors.ErrNoVotesCast
	}

	counts := make(map[int]int, len(values))
	for _, value := range values {
		counts[value]++
	}
	if len(counts) == 1 {
		return Decision{Type: DecisionConsensus, Primary: values[0]}, nil
	}

	majority := majorityValue(counts)
	if len(values)-counts[majority] == 1 {
		outlier, ok := singleOutlier(counts, majority)
		if ok && entities.AdjacentOnScale(outlier, majority) {
			return Decision{Type: DecisionNearConsensus, Primary: majority}, nil
		}
	}

	primary := maxValue(values)
	return Decision{
		Type:        DecisionDivergence,
		Primary:     primary,
		Alternative: alternativeValue(values, counts, primary),
	}, nil
}

// majorityValue picks the most frequent value; ties break toward the larger
// value so the result never depends on input order.
func majorityValue(counts map[int]int) int {
	best := 0
	bestCount := -1
	for value, count := range counts {
		if count > bestCount || (count == bestCount && value > best) {
			best = value
			bestCount = count
		}
	}
	return best
}

func singleOutlier(counts map[int]int, majority int) (int, bool) {
	for value, count := range counts {
		if value == majority {
			continue
		}
		if count != 1 {
			return 0, false
		}
		return value, true
	}
	return 0, false
}

func alternativeValue(values []int, counts map[int]int, primary int) *int {
	majority := majorityValue(counts)
	if majority != primary && counts[majority] > 1 {
		return &majority
	}

	distinct := make([]int, 0, len(counts))
	for value := range counts {
		distinct = append(distinct, value)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(distinct)))
	if len(distinct) >= 2 {
		second := distinct[1]
		return &second
	}
	return nil
}

func maxValue(values []int) int {
	max := values[0]
	for _, value := range values[1:] {
		if value > max {
			max = value
		}
	}
	return max
}
