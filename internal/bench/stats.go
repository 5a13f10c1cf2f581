package bench

// Average returns sum(samples) / len(samples), or 0 for no samples.
func Average(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// Min returns the smallest sample, or 0 for no samples.
func Min(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	m := samples[0]
	for _, s := range samples[1:] {
		if s < m {
			m = s
		}
	}
	return m
}

// Rate returns count / elapsedSeconds in documents per second. A non-positive elapsed
// time yields 0 rather than an infinite rate.
func Rate(count int, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return float64(count) / elapsedSeconds
}
