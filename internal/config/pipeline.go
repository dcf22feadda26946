// Package config loads and validates the pipeline and export settings.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/rfm-segmenter/internal/common"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DateLayout is the layout used for dates in flags and config files.
const DateLayout = "2006-01-02"

// Pipeline defaults. The reference date is one day after the last invoice
// of the Online Retail dataset.
const (
	DefaultReferenceDate      = "2011-12-11"
	DefaultBins               = 5
	DefaultFenceMultiplier    = 1.5
	DefaultLowerQuantile      = 0.25
	DefaultUpperQuantile      = 0.75
	DefaultCancellationMarker = "C"
)

// Pipeline holds every tunable of a segmentation run.
type Pipeline struct {
	ReferenceDate      time.Time `validate:"required"`
	CancellationMarker string    `validate:"required"`
	Bins               int       `validate:"eq=5"`
	FenceMultiplier    float64   `validate:"gt=0"`
	LowerQuantile      float64   `validate:"gte=0,lt=1"`
	UpperQuantile      float64   `validate:"gt=0,lte=1,gtfield=LowerQuantile"`
}

// DefaultPipeline returns the configuration of the reference analysis.
func DefaultPipeline() Pipeline {
	ref, _ := time.Parse(DateLayout, DefaultReferenceDate)
	return Pipeline{
		ReferenceDate:      ref,
		Bins:               DefaultBins,
		FenceMultiplier:    DefaultFenceMultiplier,
		LowerQuantile:      DefaultLowerQuantile,
		UpperQuantile:      DefaultUpperQuantile,
		CancellationMarker: DefaultCancellationMarker,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration against its constraints.
func (p Pipeline) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	return nil
}

// SetPipelineDefaults registers the pipeline defaults on v.
func SetPipelineDefaults(v *viper.Viper) {
	v.SetDefault("pipeline.reference_date", DefaultReferenceDate)
	v.SetDefault("pipeline.bins", DefaultBins)
	v.SetDefault("pipeline.fence_multiplier", DefaultFenceMultiplier)
	v.SetDefault("pipeline.lower_quantile", DefaultLowerQuantile)
	v.SetDefault("pipeline.upper_quantile", DefaultUpperQuantile)
	v.SetDefault("pipeline.cancellation_marker", DefaultCancellationMarker)
}

// LoadPipeline reads the pipeline section from v and validates it.
func LoadPipeline(v *viper.Viper) (Pipeline, error) {
	SetPipelineDefaults(v)

	ref, err := ParseDate(v.GetString("pipeline.reference_date"))
	if err != nil {
		return Pipeline{}, fmt.Errorf("%w: pipeline.reference_date: %v", common.ErrInvalidConfig, err)
	}

	cfg := Pipeline{
		ReferenceDate:      ref,
		Bins:               v.GetInt("pipeline.bins"),
		FenceMultiplier:    v.GetFloat64("pipeline.fence_multiplier"),
		LowerQuantile:      v.GetFloat64("pipeline.lower_quantile"),
		UpperQuantile:      v.GetFloat64("pipeline.upper_quantile"),
		CancellationMarker: v.GetString("pipeline.cancellation_marker"),
	}

	if err := cfg.Validate(); err != nil {
		return Pipeline{}, err
	}
	return cfg, nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", common.ErrMissingConfig)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}
