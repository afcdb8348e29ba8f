// Package timeline 提供播放时间与波形表面像素坐标之间的纯函数换算。
//
// 两个方向的换算都是全函数：越界输入一律钳位而不是报错，
// duration 为 0 的退化输入固定返回 0，保证调用方永远不用处理除零。
package timeline

// TimeToPixel 将播放时间（秒）换算为表面上的横坐标（逻辑像素）。
// time 先被钳位到 [0, duration]；duration 为 0 时返回 0。
func TimeToPixel(time, duration, width float64) float64 {
	if duration <= 0 || width <= 0 {
		return 0
	}
	return clamp(time, 0, duration) / duration * width
}

// PixelToTime 将表面上的横坐标（逻辑像素）换算为播放时间（秒）。
// x 先被钳位到 [0, width]；duration 为 0 时返回 0。
func PixelToTime(x, duration, width float64) float64 {
	if duration <= 0 || width <= 0 {
		return 0
	}
	return clamp(x, 0, width) / width * duration
}

// clamp 将 v 钳位到 [lo, hi]。
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
