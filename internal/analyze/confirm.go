package analyze

import (
	"errors"
	"fmt"

	"github.com/Alias1177/ProfitForge/models"
)

// Confirm reconciles an entry signal with two higher-resolution trend signals.
// A directional entry signal passes through when both higher signals agree with its direction,
// is wrapped as WEAK_ when they do not, and anything else becomes HOLD.
func Confirm(entry, mid, high models.Signal) models.Signal {
	higherBullish := mid.IsBullish() && high.IsBullish()
	higherBearish := mid.IsBearish() && high.IsBearish()

	switch {
	case higherBullish && entry.IsBullish():
		return entry
	case higherBearish && entry.IsBearish():
		return entry
	case entry.IsDirectional():
		return entry.Weak()
	default:
		return models.SignalHold
	}
}

// ConfirmMultiTimeframe runs the signal generator on each resolution and reconciles the results.
// Score and levels come from the entry series. The entry series must satisfy the warm-up;
// a higher series without enough data has no opinion and counts as HOLD.
func ConfirmMultiTimeframe(entrySeries, midSeries, highSeries models.Series, params models.Params) (models.Confirmation, error) {
	entry, err := GenerateSignal(entrySeries, params)
	if err != nil {
		return models.Confirmation{}, fmt.Errorf("entry resolution: %w", err)
	}

	mid, err := higherSignal(midSeries, params)
	if err != nil {
		return models.Confirmation{}, fmt.Errorf("mid resolution: %w", err)
	}
	high, err := higherSignal(highSeries, params)
	if err != nil {
		return models.Confirmation{}, fmt.Errorf("high resolution: %w", err)
	}

	return models.Confirmation{
		Final:  Confirm(entry.Signal, mid, high),
		Score:  entry.Score,
		Levels: entry.Levels,
		Entry:  entry.Signal,
		Mid:    mid,
		High:   high,
	}, nil
}

func higherSignal(series models.Series, params models.Params) (models.Signal, error) {
	res, err := GenerateSignal(series, params)
	if errors.Is(err, models.ErrInsufficientData) {
		return models.SignalHold, nil
	}
	if err != nil {
		return "", err
	}
	return res.Signal, nil
}
