package synth

import (
	"testing"

	"github.com/voxkit/voxstudio/internal/segment"
)

func TestAssetKey(t *testing.T) {
	base := segment.Settings{Pitch: 0, Speed: 1, Volume: 1, PauseMs: 500}

	k1 := assetKey("edge", "zh-CN-XiaoxiaoNeural", "你好", base)
	k2 := assetKey("edge", "zh-CN-XiaoxiaoNeural", "你好", base)
	if k1 != k2 {
		t.Errorf("same input should yield the same key: %s vs %s", k1, k2)
	}
	if len(k1) != 32 {
		t.Errorf("key length = %d, want 32", len(k1))
	}

	variants := []string{
		assetKey("tencent", "zh-CN-XiaoxiaoNeural", "你好", base),
		assetKey("edge", "zh-CN-YunxiNeural", "你好", base),
		assetKey("edge", "zh-CN-XiaoxiaoNeural", "你好吗", base),
		assetKey("edge", "zh-CN-XiaoxiaoNeural", "你好", segment.Settings{Pitch: 0, Speed: 1.5, Volume: 1, PauseMs: 500}),
	}
	seen := map[string]bool{k1: true}
	for i, v := range variants {
		if seen[v] {
			t.Errorf("variant %d collides with an earlier key: %s", i, v)
		}
		seen[v] = true
	}
}
