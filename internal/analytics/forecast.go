package analytics

import (
	"errors"
	"math"
)

// MinForecastSamples is the fewest points a forecast will fit. Below this,
// the regression is dominated by sensor noise and the band is meaningless.
const MinForecastSamples = 10

// ErrInsufficientHistory is returned when a series is too short to forecast.
var ErrInsufficientHistory = errors.New("analytics: not enough data to forecast")

// Forecast is a linear extrapolation of one metric.
type Forecast struct {
	Prediction float64    `json:"prediction"`           // value at the horizon
	Lower      float64    `json:"lower"`                // 95% band lower edge
	Upper      float64    `json:"upper"`                // 95% band upper edge
	SlopePerS  float64    `json:"slope_per_s"`          // fitted trend
	Threshold  *Crossing  `json:"threshold,omitempty"`  // when the trend crosses a level
}

// Crossing describes when the fitted trend reaches a threshold value.
type Crossing struct {
	Threshold float64 `json:"threshold"`
	Minutes   float64 `json:"minutes"` // from the last sample
}

// ForecastLinear fits an ordinary least-squares line to (seconds, value)
// points and extrapolates horizonMinutes past the last sample. The 95% band
// grows with the residual spread of the fit; a noisy series honestly reports
// a wide band rather than a precise-looking guess.
//
// threshold, when non-NaN, asks for the time at which the trend line crosses
// that value. No crossing is reported for a flat or receding trend.
func ForecastLinear(points [][2]float64, horizonMinutes float64, threshold float64) (*Forecast, error) {
	n := len(points)
	if n < MinForecastSamples {
		return nil, ErrInsufficientHistory
	}

	var sumT, sumV float64
	for _, p := range points {
		sumT += p[0]
		sumV += p[1]
	}
	meanT := sumT / float64(n)
	meanV := sumV / float64(n)

	var covTV, varT float64
	for _, p := range points {
		dt := p[0] - meanT
		covTV += dt * (p[1] - meanV)
		varT += dt * dt
	}
	if varT == 0 {
		return nil, errors.New("analytics: all samples share one timestamp")
	}

	slope := covTV / varT
	intercept := meanV - slope*meanT

	// Residual standard error of the fit
	var ssRes float64
	for _, p := range points {
		r := p[1] - (intercept + slope*p[0])
		ssRes += r * r
	}
	stderr := math.Sqrt(ssRes / float64(n-2))

	lastT := points[n-1][0]
	targetT := lastT + horizonMinutes*60
	prediction := intercept + slope*targetT

	f := &Forecast{
		Prediction: prediction,
		Lower:      prediction - 1.96*stderr,
		Upper:      prediction + 1.96*stderr,
		SlopePerS:  slope,
	}

	if !math.IsNaN(threshold) {
		lastV := intercept + slope*lastT
		// Only a trend moving toward the threshold can cross it
		if (threshold > lastV && slope > 0) || (threshold < lastV && slope < 0) {
			seconds := (threshold - lastV) / slope
			f.Threshold = &Crossing{
				Threshold: threshold,
				Minutes:   seconds / 60,
			}
		}
	}

	return f, nil
}
