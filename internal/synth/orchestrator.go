package synth

import (
	"context"
	"fmt"

	"github.com/voxkit/voxstudio/internal/logger"
	"github.com/voxkit/voxstudio/internal/segment"
)

// BatchError 批量生成中途失败时的错误，指明失败的段和已完成的数量。
// 失败之前已生成的音频保持挂载，不会被回滚。
type BatchError struct {
	// SegmentID 失败段的 ID。
	SegmentID string
	// Index 失败段在批次中的位置（从 0 开始）。
	Index int
	// Completed 失败前成功生成的段数。
	Completed int
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("第 %d 段 (%s) 生成失败: %v", e.Index+1, e.SegmentID, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// Orchestrator 驱动段音频的生成：单段重生成和全量批处理。
// 批处理严格按显示顺序串行执行，不做并发合成。
type Orchestrator struct {
	provider Provider
	settings segment.Settings
}

// NewOrchestrator 创建生成编排器。settings 为全局合成参数。
func NewOrchestrator(provider Provider, settings segment.Settings) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		settings: settings,
	}
}

// GenerateSegment 为单个段生成（或重新生成）音频并挂载到 store。
// 旧音频被整体替换，段的过期标记随之清除。
func (o *Orchestrator) GenerateSegment(ctx context.Context, store *segment.Store, id string) error {
	seg := store.Get(id)
	if seg == nil {
		return fmt.Errorf("段不存在: %s", id)
	}

	asset, err := o.provider.Generate(ctx, seg.Content, seg.Voice, o.settings)
	if err != nil {
		return fmt.Errorf("段 %s 生成失败: %w", id, err)
	}

	return store.AttachAudio(id, asset)
}

// GenerateAll 按显示顺序串行生成所有段的音频。
// progress 在每段开始前以 (completed, total) 回调，全部完成后
// 再回调一次 (total, total)；传 nil 表示不关心进度。
//
// 任何一段失败立即终止批次并返回 *BatchError，之前已生成的
// 音频保持挂载。ctx 取消同样立即终止，返回 ctx.Err()。
func (o *Orchestrator) GenerateAll(ctx context.Context, store *segment.Store, progress func(completed, total int)) error {
	segs := store.List()
	total := len(segs)

	logger.Infof("[synth] 开始批量生成，共 %d 段", total)

	for i, seg := range segs {
		if progress != nil {
			progress(i, total)
		}

		select {
		case <-ctx.Done():
			logger.Infof("[synth] 批量生成被取消，已完成 %d/%d", i, total)
			return ctx.Err()
		default:
		}

		asset, err := o.provider.Generate(ctx, seg.Content, seg.Voice, o.settings)
		if err != nil {
			logger.Errorf("[synth] 第 %d/%d 段生成失败: %v", i+1, total, err)
			return &BatchError{
				SegmentID: seg.ID,
				Index:     i,
				Completed: i,
				Err:       err,
			}
		}

		if err := store.AttachAudio(seg.ID, asset); err != nil {
			return &BatchError{
				SegmentID: seg.ID,
				Index:     i,
				Completed: i,
				Err:       err,
			}
		}

		logger.Debugf("[synth] 第 %d/%d 段完成，时长 %.2fs", i+1, total, asset.Duration)
	}

	if progress != nil {
		progress(total, total)
	}

	logger.Infof("[synth] 批量生成完成，共 %d 段", total)
	return nil
}
