package domain

// Tier is the sales-priority classification of a quiz lead.
type Tier string

const (
	TierHot  Tier = "hot"
	TierWarm Tier = "warm"
	TierCold Tier = "cold"
)

// Priority is the operational triage level derived from a tier.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

const (
	Timeline0To6Months  = "0-6mo"
	Timeline6To12Months = "6-12mo"
	Timeline1To3Years   = "1-3y"
	TimelineExploring   = "exploring"
	TimelineSomeday     = "someday"
)

const (
	hotSavingsThreshold  int64 = 20000
	warmSavingsThreshold int64 = 10000

	hotUrgencyThreshold = 2
	// A 1-3 year horizon alone does not make a lead warm.
	warmUrgencyThreshold = 2
)

var timelineScores = map[string]int{
	Timeline0To6Months:  3,
	Timeline6To12Months: 2,
	Timeline1To3Years:   1,
	TimelineExploring:   0,
	TimelineSomeday:     0,
}

// TimelineScore returns the urgency score of a timeline answer. Unknown
// values score 0.
func TimelineScore(timeline string) int {
	return timelineScores[timeline]
}

// ClassifyTier maps urgency and annual savings to a tier. First match wins.
func ClassifyTier(timeline string, annualSavings int64) Tier {
	score := TimelineScore(timeline)

	switch {
	case score >= hotUrgencyThreshold && annualSavings >= hotSavingsThreshold:
		return TierHot
	case score >= warmUrgencyThreshold || (annualSavings >= warmSavingsThreshold && annualSavings < hotSavingsThreshold):
		return TierWarm
	default:
		return TierCold
	}
}

// PriorityFor returns the triage priority for a tier.
func PriorityFor(tier Tier) Priority {
	switch tier {
	case TierHot:
		return PriorityHigh
	case TierWarm:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
