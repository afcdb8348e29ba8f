package waveform

// BuildPeaks 将解码后的 PCM 样本降采样为 buckets 个振幅值，
// 每个桶取区间内的最大绝对值，结果范围 [0, 1]，仅用于可视化。
func BuildPeaks(samples []float32, buckets int) []float32 {
	if buckets <= 0 || len(samples) == 0 {
		return nil
	}

	peaks := make([]float32, buckets)
	per := float64(len(samples)) / float64(buckets)

	for i := 0; i < buckets; i++ {
		start := int(float64(i) * per)
		end := int(float64(i+1) * per)
		if end > len(samples) {
			end = len(samples)
		}
		if start >= end {
			continue
		}

		var peak float32
		for _, s := range samples[start:end] {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		// 钳位到 [0, 1]，异常样本不放大画面
		if peak > 1 {
			peak = 1
		}
		peaks[i] = peak
	}
	return peaks
}
