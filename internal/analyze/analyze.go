package analyze

import (
	"fmt"

	"github.com/Alias1177/ProfitForge/internal/calculate"
	"github.com/Alias1177/ProfitForge/internal/trading/risk"
	"github.com/Alias1177/ProfitForge/models"
)

// Analysis is a signal together with the indicator readings that produced it
type Analysis struct {
	models.SignalResult
	Snapshot calculate.Snapshot `json:"indicators"`
	Factors  []string           `json:"factors"`
}

// Analyze scores the last bar of a series and derives its levels
func Analyze(series models.Series, params models.Params) (*Analysis, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if need := params.WarmupBars(); len(series) < need {
		return nil, fmt.Errorf("%w: have %d bars, need %d", models.ErrInsufficientData, len(series), need)
	}

	last, _ := series.Last()
	if !last.Finite() {
		return nil, fmt.Errorf("%w: last bar at %s", models.ErrNonFinitePrice, last.Timestamp.Format("2006-01-02 15:04"))
	}

	frame := calculate.CalculateAllIndicators(series, params)
	snap := frame.Latest()

	score, factors := ScoreSnapshot(last.Close, snap)
	signal := ClassifyScore(score)

	return &Analysis{
		SignalResult: models.SignalResult{
			Signal: signal,
			Score:  score,
			Levels: risk.DetermineLevels(last.Close, snap.ATR, signal),
		},
		Snapshot: snap,
		Factors:  factors,
	}, nil
}

// GenerateSignal returns the signal, score and levels for the last bar of a series.
// It fails with ErrInsufficientData when the series is shorter than the parameter warm-up
// and with ErrNonFinitePrice when the last bar carries NaN or Inf.
func GenerateSignal(series models.Series, params models.Params) (models.SignalResult, error) {
	a, err := Analyze(series, params)
	if err != nil {
		return models.SignalResult{}, err
	}
	return a.SignalResult, nil
}
