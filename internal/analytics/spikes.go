package analytics

import "math"

// Spike detection uses the modified z-score over the median absolute
// deviation (MAD). Unlike a mean/stddev z-score, a single extreme sample
// cannot inflate the deviation estimate and mask itself.
const (
	// madScale converts MAD to a consistent estimator of the standard
	// deviation for normally distributed data (1/1.4826).
	madScale = 0.6745

	// SpikeThreshold is the modified z-score above which a sample counts
	// as a spike.
	SpikeThreshold = 3.5
)

// Spike is one detected outlier in a series.
type Spike struct {
	Index  int     `json:"index"`
	Value  float64 `json:"value"`
	ZScore float64 `json:"z_score"` // modified z-score, signed
}

// MAD returns the median absolute deviation of values around their median.
func MAD(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}

	med := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - med)
	}
	return Median(deviations)
}

// DetectSpikes returns the samples whose modified z-score exceeds the
// threshold. Needs at least 4 samples; with fewer, the MAD says nothing
// useful and everything looks normal.
//
// When MAD is zero (more than half the samples identical), any sample that
// differs from the median at all is reported. A flatline series punctuated by
// one different value is exactly the shape a door slam or light switch leaves
// in the data.
func DetectSpikes(values []float64) []Spike {
	if len(values) < 4 {
		return nil
	}

	med := Median(values)
	mad := MAD(values)

	var spikes []Spike
	for i, v := range values {
		if mad == 0 {
			if v != med {
				spikes = append(spikes, Spike{Index: i, Value: v, ZScore: math.Inf(sign(v - med))})
			}
			continue
		}

		z := madScale * (v - med) / mad
		if math.Abs(z) > SpikeThreshold {
			spikes = append(spikes, Spike{Index: i, Value: v, ZScore: z})
		}
	}

	return spikes
}

// IsSpike reports whether a new sample is an outlier against recent history.
// The live ingest path calls this per reading; DetectSpikes is the batch
// variant for stored series.
func IsSpike(value float64, history []float64) bool {
	if len(history) == 0 {
		return false
	}

	med := Median(history)
	mad := MAD(history)
	if mad == 0 {
		return value != med
	}

	return math.Abs(madScale*(value-med)/mad) > SpikeThreshold
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}
