// Package depth selects one depth value per sample from the auxiliary
// altitude sensor or the dead-reckoning frame.
package depth

import "github.com/banshee-data/transects/internal/survey"

// DefaultThreshold is the auxiliary altitude (negative-down, metres) below
// which the auxiliary reading is trusted as depth.
const DefaultThreshold = -0.5

// Select picks the depth for one sample. aux is negative-down; localZ is
// positive-down and is negated on fallback. A null localZ yields a null depth
// still attributed to the local source.
func Select(aux, localZ survey.Float, threshold float64) (survey.Float, survey.DepthSource) {
	if aux.IsFinite() && aux.V < threshold {
		return aux, survey.DepthAux
	}
	if !localZ.IsFinite() {
		return survey.Float{}, survey.DepthLocal
	}
	return localZ.Neg(), survey.DepthLocal
}

// Fuse sets Depth and DepthSource on every sample in place and returns the
// number of samples that used the auxiliary source.
func Fuse(samples []survey.Sample, threshold float64) int {
	aux := 0
	for i := range samples {
		s := &samples[i]
		s.Depth, s.DepthSource = Select(s.AuxAlt, s.LocalZ, threshold)
		if s.DepthSource == survey.DepthAux {
			aux++
		}
	}
	survey.Diagf("depth: %d/%d samples from auxiliary altitude", aux, len(samples))
	return aux
}
