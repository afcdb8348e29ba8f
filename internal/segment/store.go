package segment

import (
	"fmt"
	"sort"
	"sync"

	"github.com/voxkit/voxstudio/internal/logger"
)

// Store 有序的文本段集合。
// 每次结构性修改后都会把 Order 重新归一化为 0..n-1，
// 读取方因此永远看到一个连续且唯一的顺序键排列。
type Store struct {
	mu       sync.RWMutex
	segments []*TextSegment
}

// NewStore 创建一个空的段集合。
func NewStore() *Store {
	return &Store{segments: make([]*TextSegment, 0)}
}

// Append 追加一个段到末尾，Order 取当前数量。
func (st *Store) Append(seg *TextSegment) {
	st.mu.Lock()
	defer st.mu.Unlock()

	seg.Order = len(st.segments)
	st.segments = append(st.segments, seg)
	logger.Debugf("[segment] 追加段 %s，共 %d 段", seg.ID, len(st.segments))
}

// Remove 删除指定段并重新归一化剩余段的 Order。
// 集合必须至少保留一段：删除最后一段是 no-op，返回 false。
func (st *Store) Remove(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.segments) <= 1 {
		logger.Debugf("[segment] 拒绝删除最后一段 %s", id)
		return false
	}

	idx := st.indexOf(id)
	if idx < 0 {
		return false
	}

	st.segments = append(st.segments[:idx], st.segments[idx+1:]...)
	st.renormalize()
	logger.Debugf("[segment] 删除段 %s，剩余 %d 段", id, len(st.segments))
	return true
}

// MoveUp 将段与其前一段交换顺序。已在首位时是 no-op。
func (st *Store) MoveUp(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := st.indexOf(id)
	if idx <= 0 {
		return false
	}
	st.segments[idx-1], st.segments[idx] = st.segments[idx], st.segments[idx-1]
	st.renormalize()
	return true
}

// MoveDown 将段与其后一段交换顺序。已在末位时是 no-op。
func (st *Store) MoveDown(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := st.indexOf(id)
	if idx < 0 || idx >= len(st.segments)-1 {
		return false
	}
	st.segments[idx], st.segments[idx+1] = st.segments[idx+1], st.segments[idx]
	st.renormalize()
	return true
}

// Update 描述对段可编辑字段的部分更新，nil 字段保持不变。
type Update struct {
	Content *string
	Voice   *VoiceRef
}

// Update 应用部分更新。段不存在时返回错误。
// 修改 Content 不会清除已生成的音频，音频只是变为过期（见 TextSegment.Stale），
// 是否重新生成由调用方决定。
func (st *Store) Update(id string, upd Update) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := st.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("段 %s 不存在", id)
	}

	seg := st.segments[idx]
	if upd.Content != nil {
		seg.Content = *upd.Content
	}
	if upd.Voice != nil {
		seg.Voice = *upd.Voice
	}
	return nil
}

// AttachAudio 将生成的音频挂到段上，并记录当时的文本快照。
// 仅由生成编排器调用。
func (st *Store) AttachAudio(id string, asset *AudioAsset) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := st.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("段 %s 不存在", id)
	}

	seg := st.segments[idx]
	seg.Asset = asset
	seg.generatedContent = seg.Content
	logger.Debugf("[segment] 段 %s 挂载音频 %s (%.2fs)", id, asset.ID, asset.Duration)
	return nil
}

// SetPlaying 将指定段标记为播放中，同时静默清除其他段的播放标记。
// id 为空字符串时清除所有播放标记。
func (st *Store) SetPlaying(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for _, seg := range st.segments {
		seg.playing = seg.ID == id && id != ""
	}
}

// Get 按 ID 返回段的拷贝，不存在时返回 nil。
func (st *Store) Get(id string) *TextSegment {
	st.mu.RLock()
	defer st.mu.RUnlock()

	idx := st.indexOf(id)
	if idx < 0 {
		return nil
	}
	return st.segments[idx].clone()
}

// List 按显示顺序返回所有段的拷贝。
func (st *Store) List() []*TextSegment {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]*TextSegment, len(st.segments))
	for i, seg := range st.segments {
		out[i] = seg.clone()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Len 返回段数量。
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.segments)
}

// indexOf 返回段在切片中的下标，调用方需持有锁。
func (st *Store) indexOf(id string) int {
	for i, seg := range st.segments {
		if seg.ID == id {
			return i
		}
	}
	return -1
}

// renormalize 把 Order 重写为 0..n-1，保持切片内相对顺序。调用方需持有锁。
func (st *Store) renormalize() {
	for i, seg := range st.segments {
		seg.Order = i
	}
}
