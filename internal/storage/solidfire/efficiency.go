// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

const (
	blockSize            = 4096.0
	compressionOverhead  = 0.93
	neutralEfficiencyVal = 1.0
)

// Efficiency holds the derived capacity ratios.
type Efficiency struct {
	Thin        float64
	Dedupe      float64
	Compression float64
	Efficiency  float64
}

// ComputeEfficiency derives the thin provisioning, deduplication and
// compression factors. A zero denominator yields 1.0 for that factor.
func ComputeEfficiency(nonZeroBlocks, zeroBlocks, uniqueBlocks, uniqueBlocksUsedSpace float64) Efficiency {
	e := Efficiency{
		Thin:        neutralEfficiencyVal,
		Dedupe:      neutralEfficiencyVal,
		Compression: neutralEfficiencyVal,
	}
	if nonZeroBlocks != 0 {
		e.Thin = (nonZeroBlocks + zeroBlocks) / nonZeroBlocks
	}
	if uniqueBlocks != 0 {
		e.Dedupe = nonZeroBlocks / uniqueBlocks
	}
	if uniqueBlocksUsedSpace != 0 {
		e.Compression = (uniqueBlocks * blockSize) / (uniqueBlocksUsedSpace * compressionOverhead)
	}
	e.Efficiency = e.Thin * e.Dedupe * e.Compression
	return e
}
