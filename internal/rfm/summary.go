package rfm

import "github.com/Veraticus/rfm-segmenter/internal/model"

// Summarize aggregates scored customers per segment. Only segments with at
// least one customer are returned, in model.AllSegments order.
func Summarize(customers []model.ScoredCustomer) []model.SegmentSummary {
	bySegment := make(map[model.Segment]*model.SegmentSummary)
	for _, c := range customers {
		s, ok := bySegment[c.Segment]
		if !ok {
			s = &model.SegmentSummary{Segment: c.Segment}
			bySegment[c.Segment] = s
		}
		s.Customers++
		s.MeanRecency += float64(c.Recency)
		s.MeanFrequency += float64(c.Frequency)
		s.TotalMonetary += c.Monetary
	}

	total := float64(len(customers))
	summaries := make([]model.SegmentSummary, 0, len(bySegment))
	for _, seg := range model.AllSegments() {
		s, ok := bySegment[seg]
		if !ok {
			continue
		}
		n := float64(s.Customers)
		s.Share = n / total
		s.MeanRecency /= n
		s.MeanFrequency /= n
		s.MeanMonetary = s.TotalMonetary / n
		summaries = append(summaries, *s)
	}

	return summaries
}
