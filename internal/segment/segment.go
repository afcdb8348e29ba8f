package segment

import (
	"github.com/google/uuid"
)

// AudioAsset 一段已生成的音频资源。创建后不可变，归属于生成它的文本段。
type AudioAsset struct {
	ID  string
	URL string
	// Waveform 用于可视化的振幅序列，取值范围 [-1, 1]，
	// 与实际可解码的音频字节是两回事。
	Waveform []float32
	// Duration 音频时长（秒），> 0。
	Duration float64
	Format   string
}

// VoiceRef 引用一个音色。
type VoiceRef struct {
	ID       string
	Name     string
	Language string
}

// Settings 合成参数。
type Settings struct {
	Pitch  float64
	Speed  float64
	Volume float64
	// PauseMs 句间停顿（毫秒）。
	PauseMs int
}

// TextSegment 一段待配音的文本，带自己的音色和可选的已生成音频。
type TextSegment struct {
	ID      string
	Content string
	Voice   VoiceRef
	// Order 显示顺序键，在同一个 Store 内静止时恒为 0..n-1 的排列。
	Order int
	// Asset 已生成的音频，未生成时为 nil。
	Asset *AudioAsset

	// playing 由 Store 统一管理，同一时刻最多一段为 true。
	playing bool
	// generatedContent 上次生成音频时的文本快照，用于推导过期标记。
	generatedContent string
}

// NewTextSegment 创建一个未生成音频的文本段。
func NewTextSegment(content string, voice VoiceRef) *TextSegment {
	return &TextSegment{
		ID:      uuid.NewString(),
		Content: content,
		Voice:   voice,
	}
}

// IsPlaying 返回该段当前是否在播放。
func (s *TextSegment) IsPlaying() bool {
	return s.playing
}

// Stale 返回该段文本在上次生成之后是否被修改过。
// 修改文本不会清除已生成的音频（与线上行为一致），
// 过期与否通过此派生标记暴露给上层，是否重新生成由调用方决定。
func (s *TextSegment) Stale() bool {
	return s.Asset != nil && s.Content != s.generatedContent
}

// clone 返回段的浅拷贝（Asset 不可变，共享指针即可）。
func (s *TextSegment) clone() *TextSegment {
	c := *s
	return &c
}
