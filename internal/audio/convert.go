package audio

import (
	"encoding/binary"
	"math"
)

// 合成与播放链路统一使用两种样本表示：
// 设备与解码器的出入口是小端 signed 16-bit PCM，内部处理用 [-1, 1] 的 float32。

// Int16ToFloat32 将 PCM int16 样本归一化为 [-1.0, 1.0] 的 float32。
func Int16ToFloat32(in []int16) []float32 {
	out := make([]float32, len(in))
	for i, s := range in {
		out[i] = float32(s) / math.MaxInt16
	}
	return out
}

// Float32ToInt16 将 float32 样本量化为 PCM int16。
// 超出 [-1.0, 1.0] 的样本先钳位再量化，不会溢出回绕。
func Float32ToInt16(in []float32) []int16 {
	out := make([]int16, len(in))
	for i, s := range in {
		out[i] = int16(clampSample(s) * math.MaxInt16)
	}
	return out
}

// clampSample 将样本钳位到 [-1.0, 1.0]。
func clampSample(s float32) float32 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}

// BytesToInt16 将小端 PCM 字节解析为 int16 样本。
func BytesToInt16(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
	}
	return out
}

// Int16ToBytes 将 int16 样本编码为小端 PCM 字节。
func Int16ToBytes(in []int16) []byte {
	out := make([]byte, len(in)*2)
	for i, s := range in {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

// BytesToFloat32 便捷函数：原始 PCM 字节直接到 float32。
func BytesToFloat32(b []byte) []float32 {
	return Int16ToFloat32(BytesToInt16(b))
}

// Float32ToBytes 便捷函数：float32 样本直接到原始 PCM 字节。
func Float32ToBytes(in []float32) []byte {
	return Int16ToBytes(Float32ToInt16(in))
}
