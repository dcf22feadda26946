package rfm

import (
	"fmt"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/Veraticus/rfm-segmenter/internal/config"
	"github.com/Veraticus/rfm-segmenter/internal/model"
	"github.com/Veraticus/rfm-segmenter/internal/stats"
)

const scoreStage = "score"

// Score assigns quintile scores and a segment to every record. Records keep
// their order.
//
// Recency is binned directly with the labels reversed so the most recent
// customers score highest. Frequency is ranked first, ties broken by record
// order, because purchase counts repeat heavily. Monetary is binned on the raw
// totals.
func Score(records []model.CustomerRecord, cfg config.Pipeline) ([]model.ScoredCustomer, error) {
	if len(records) == 0 {
		return nil, common.ErrNoTransactions
	}

	recency := make([]float64, len(records))
	frequency := make([]float64, len(records))
	monetary := make([]float64, len(records))
	for i, r := range records {
		recency[i] = float64(r.Recency)
		frequency[i] = float64(r.Frequency)
		monetary[i] = r.Monetary
	}

	recencyBins, _, err := stats.QCut(recency, cfg.Bins)
	if err != nil {
		return nil, common.NewDataQualityError(scoreStage, "Recency", err)
	}
	frequencyBins, _, err := stats.QCut(stats.RankFirst(frequency), cfg.Bins)
	if err != nil {
		return nil, common.NewDataQualityError(scoreStage, "Frequency", err)
	}
	monetaryBins, _, err := stats.QCut(monetary, cfg.Bins)
	if err != nil {
		return nil, common.NewDataQualityError(scoreStage, "Monetary", err)
	}

	scored := make([]model.ScoredCustomer, len(records))
	for i, r := range records {
		rs := cfg.Bins - recencyBins[i]
		fs := frequencyBins[i] + 1

		segment, err := model.SegmentFor(rs, fs)
		if err != nil {
			return nil, fmt.Errorf("customer %d: %w", r.CustomerID, err)
		}

		scored[i] = model.ScoredCustomer{
			CustomerRecord: r,
			RecencyScore:   rs,
			FrequencyScore: fs,
			MonetaryScore:  monetaryBins[i] + 1,
			RFScore:        model.RFCode(rs, fs),
			Segment:        segment,
		}
	}

	return scored, nil
}
