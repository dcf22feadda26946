package model

import (
	"errors"
	"fmt"
)

// Segment is a named marketing segment derived from the RF code.
type Segment string

// Segments in the order of the segmentation rules.
const (
	SegmentHibernating       Segment = "Hibernating"
	SegmentAtRisk            Segment = "At Risk"
	SegmentCantLose          Segment = "Can't Lose"
	SegmentAboutToSleep      Segment = "About to Sleep"
	SegmentNeedAttention     Segment = "Need Attention"
	SegmentLoyalCustomer     Segment = "Loyal Customer"
	SegmentPromising         Segment = "Promising"
	SegmentNewCustomer       Segment = "New Customer"
	SegmentPotentialLoyalist Segment = "Potential Loyalist"
	SegmentChampion          Segment = "Champion"
)

// MinScore and MaxScore bound every quintile score.
const (
	MinScore = 1
	MaxScore = 5
)

// ErrInvalidScore is returned for a recency or frequency score outside 1..5.
var ErrInvalidScore = errors.New("invalid score")

// segmentTable is indexed [recency-1][frequency-1].
var segmentTable = [MaxScore][MaxScore]Segment{
	// recency 1
	{SegmentHibernating, SegmentHibernating, SegmentAtRisk, SegmentAtRisk, SegmentCantLose},
	// recency 2
	{SegmentHibernating, SegmentHibernating, SegmentAtRisk, SegmentAtRisk, SegmentCantLose},
	// recency 3
	{SegmentAboutToSleep, SegmentAboutToSleep, SegmentNeedAttention, SegmentLoyalCustomer, SegmentLoyalCustomer},
	// recency 4
	{SegmentPromising, SegmentPotentialLoyalist, SegmentPotentialLoyalist, SegmentLoyalCustomer, SegmentLoyalCustomer},
	// recency 5
	{SegmentNewCustomer, SegmentPotentialLoyalist, SegmentPotentialLoyalist, SegmentChampion, SegmentChampion},
}

// AllSegments returns every segment in rule order.
func AllSegments() []Segment {
	return []Segment{
		SegmentHibernating,
		SegmentAtRisk,
		SegmentCantLose,
		SegmentAboutToSleep,
		SegmentNeedAttention,
		SegmentLoyalCustomer,
		SegmentPromising,
		SegmentNewCustomer,
		SegmentPotentialLoyalist,
		SegmentChampion,
	}
}

// SegmentFor maps a recency and frequency score pair to its segment.
func SegmentFor(recency, frequency int) (Segment, error) {
	if !validScore(recency) || !validScore(frequency) {
		return "", fmt.Errorf("%w: recency=%d frequency=%d", ErrInvalidScore, recency, frequency)
	}
	return segmentTable[recency-1][frequency-1], nil
}

// RFCode concatenates the recency and frequency digits, e.g. 5,1 -> "51".
func RFCode(recency, frequency int) string {
	return fmt.Sprintf("%d%d", recency, frequency)
}

// Rank returns the position of the segment in rule order, or -1 if unknown.
func (s Segment) Rank() int {
	for i, seg := range AllSegments() {
		if seg == s {
			return i
		}
	}
	return -1
}

func validScore(score int) bool {
	return score >= MinScore && score <= MaxScore
}
