package embedding

import "github.com/hyperjump/embedbench/pkg/utils"

// Pool reduces a [batch, seqLen, dim] hidden-state tensor (flattened row-major) to one
// L2-normalized vector per row.
func Pool(hidden []float32, attentionMask []int64, batch, seqLen, dim int, pooling Pooling) [][]float32 {
	out := make([][]float32, batch)
	for b := 0; b < batch; b++ {
		vec := make([]float32, dim)
		base := b * seqLen * dim
		switch pooling {
		case PoolingMean:
			var count float32
			for s := 0; s < seqLen; s++ {
				if attentionMask[b*seqLen+s] == 0 {
					continue
				}
				row := hidden[base+s*dim : base+(s+1)*dim]
				for d, v := range row {
					vec[d] += v
				}
				count++
			}
			if count > 0 {
				for d := range vec {
					vec[d] /= count
				}
			}
		default:
			copy(vec, hidden[base:base+dim])
		}
		utils.NormalizeL2(vec)
		out[b] = vec
	}
	return out
}
