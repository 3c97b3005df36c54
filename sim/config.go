package sim

import (
	"errors"
	"fmt"
)

const (
	DefaultFeeRate           = 0.001
	DefaultMaintenanceMargin = 0.05
	DefaultStopLossMargin    = 0.0625
	DefaultInitialCollateral = 1.0
	DefaultFundingFrequency  = 1.0
)

var (
	ErrInvalidConfig = errors.New("sim: invalid config")
	ErrLegMismatch   = errors.New("sim: long and short bar sequences differ")
)

// SingleConfig parameterizes RunSingleLeg.
type SingleConfig struct {
	Leverage               float64 `json:"leverage" yaml:"leverage"`
	FeeRate                float64 `json:"fee_rate" yaml:"fee_rate"`
	MaintenanceMarginRatio float64 `json:"maintenance_margin_ratio" yaml:"maintenance_margin_ratio"`
	StopLossMarginRatio    float64 `json:"stop_loss_margin_ratio" yaml:"stop_loss_margin_ratio"`
}

// DefaultSingleConfig returns the documented defaults at the given leverage.
func DefaultSingleConfig(leverage float64) SingleConfig {
	return SingleConfig{
		Leverage:               leverage,
		FeeRate:                DefaultFeeRate,
		MaintenanceMarginRatio: DefaultMaintenanceMargin,
		StopLossMarginRatio:    DefaultStopLossMargin,
	}
}

func (c SingleConfig) Validate() error {
	switch {
	case c.Leverage < 0:
		return fmt.Errorf("%w: leverage must be non-negative", ErrInvalidConfig)
	case c.FeeRate < 0:
		return fmt.Errorf("%w: fee_rate must be non-negative", ErrInvalidConfig)
	case c.MaintenanceMarginRatio < 0:
		return fmt.Errorf("%w: maintenance_margin_ratio must be non-negative", ErrInvalidConfig)
	case c.StopLossMarginRatio < 0:
		return fmt.Errorf("%w: stop_loss_margin_ratio must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// DualConfig parameterizes RunDualLeg. The funding frequencies are not
// applied by the engine; callers rescale the short leg's rates by
// LongFundingFreq/ShortFundingFreq first (market.PairLegs does this).
type DualConfig struct {
	Leverage            float64 `json:"leverage" yaml:"leverage"`
	FeeRate             float64 `json:"fee_rate" yaml:"fee_rate"`
	StopLossMarginRatio float64 `json:"stop_loss_margin_ratio" yaml:"stop_loss_margin_ratio"`
	InitialCollateral   float64 `json:"initial_collateral" yaml:"initial_collateral"`
	LongFundingFreq     float64 `json:"long_funding_freq" yaml:"long_funding_freq"`
	ShortFundingFreq    float64 `json:"short_funding_freq" yaml:"short_funding_freq"`
}

// DefaultDualConfig returns the documented defaults at the given leverage.
func DefaultDualConfig(leverage float64) DualConfig {
	return DualConfig{
		Leverage:            leverage,
		FeeRate:             DefaultFeeRate,
		StopLossMarginRatio: DefaultStopLossMargin,
		InitialCollateral:   DefaultInitialCollateral,
		LongFundingFreq:     DefaultFundingFrequency,
		ShortFundingFreq:    DefaultFundingFrequency,
	}
}

func (c DualConfig) Validate() error {
	switch {
	case c.Leverage < 0:
		return fmt.Errorf("%w: leverage must be non-negative", ErrInvalidConfig)
	case c.FeeRate < 0:
		return fmt.Errorf("%w: fee_rate must be non-negative", ErrInvalidConfig)
	case c.StopLossMarginRatio < 0:
		return fmt.Errorf("%w: stop_loss_margin_ratio must be non-negative", ErrInvalidConfig)
	case c.InitialCollateral < 0:
		return fmt.Errorf("%w: initial_collateral must be non-negative", ErrInvalidConfig)
	case c.LongFundingFreq <= 0 || c.ShortFundingFreq <= 0:
		return fmt.Errorf("%w: funding frequencies must be positive", ErrInvalidConfig)
	}
	return nil
}
