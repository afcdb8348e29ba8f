package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/voxkit/voxstudio/internal/segment"
)

// fakeProvider 按文本内容决定成功或失败的测试后端。
type fakeProvider struct {
	calls  []string
	failOn string
}

func (f *fakeProvider) Generate(ctx context.Context, text string, voice segment.VoiceRef, settings segment.Settings) (*segment.AudioAsset, error) {
	f.calls = append(f.calls, text)
	if text == f.failOn {
		return nil, errors.New("synthesis blew up")
	}
	return &segment.AudioAsset{
		ID:       "asset-" + text,
		URL:      "/tmp/cache/" + text + ".mp3",
		Duration: 1,
		Format:   "mp3",
	}, nil
}

func newBatchStore(contents ...string) *segment.Store {
	st := segment.NewStore()
	for _, c := range contents {
		st.Append(segment.NewTextSegment(c, segment.VoiceRef{ID: "voice-1"}))
	}
	return st
}

func TestOrchestrator_GenerateSegment(t *testing.T) {
	st := newBatchStore("Hello")
	prov := &fakeProvider{}
	o := NewOrchestrator(prov, segment.Settings{Speed: 1, Volume: 1})

	id := st.List()[0].ID
	if err := o.GenerateSegment(context.Background(), st, id); err != nil {
		t.Fatalf("GenerateSegment failed: %v", err)
	}

	seg := st.Get(id)
	if seg.Asset == nil || seg.Asset.ID != "asset-Hello" {
		t.Errorf("asset not attached: %+v", seg.Asset)
	}
	if seg.Stale() {
		t.Error("fresh generation should not be stale")
	}
}

func TestOrchestrator_GenerateSegment_Unknown(t *testing.T) {
	o := NewOrchestrator(&fakeProvider{}, segment.Settings{})
	if err := o.GenerateSegment(context.Background(), segment.NewStore(), "nope"); err == nil {
		t.Fatal("expected error for unknown segment")
	}
}

func TestOrchestrator_GenerateAll_InOrder(t *testing.T) {
	st := newBatchStore("A", "B", "C")
	prov := &fakeProvider{}
	o := NewOrchestrator(prov, segment.Settings{})

	var progress [][2]int
	err := o.GenerateAll(context.Background(), st, func(completed, total int) {
		progress = append(progress, [2]int{completed, total})
	})
	if err != nil {
		t.Fatalf("GenerateAll failed: %v", err)
	}

	// 严格按显示顺序串行调用
	want := []string{"A", "B", "C"}
	if len(prov.calls) != len(want) {
		t.Fatalf("calls = %v", prov.calls)
	}
	for i, w := range want {
		if prov.calls[i] != w {
			t.Errorf("call %d = %q, want %q", i, prov.calls[i], w)
		}
	}

	for _, seg := range st.List() {
		if seg.Asset == nil {
			t.Errorf("segment %q has no asset", seg.Content)
		}
	}

	// 每段开始前回调一次，最后补一次 (total, total)
	wantProgress := [][2]int{{0, 3}, {1, 3}, {2, 3}, {3, 3}}
	if len(progress) != len(wantProgress) {
		t.Fatalf("progress = %v", progress)
	}
	for i, w := range wantProgress {
		if progress[i] != w {
			t.Errorf("progress[%d] = %v, want %v", i, progress[i], w)
		}
	}
}

func TestOrchestrator_GenerateAll_AbortsOnFailure(t *testing.T) {
	st := newBatchStore("A", "B", "C")
	prov := &fakeProvider{failOn: "B"}
	o := NewOrchestrator(prov, segment.Settings{})

	err := o.GenerateAll(context.Background(), st, nil)
	if err == nil {
		t.Fatal("expected batch error")
	}

	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("error type = %T", err)
	}
	segs := st.List()
	if be.SegmentID != segs[1].ID || be.Index != 1 || be.Completed != 1 {
		t.Errorf("batch error = %+v", be)
	}

	// 失败段之后的段不再调用
	if len(prov.calls) != 2 {
		t.Errorf("calls = %v, C should never be invoked", prov.calls)
	}

	// 失败前的结果保留，失败段和后续段没有音频
	if segs[0].Asset == nil {
		t.Error("segment A should keep its asset")
	}
	if segs[1].Asset != nil || segs[2].Asset != nil {
		t.Error("segments B and C should have no asset")
	}
}

func TestOrchestrator_GenerateAll_Cancellation(t *testing.T) {
	st := newBatchStore("A", "B", "C")
	prov := &fakeProvider{}
	o := NewOrchestrator(prov, segment.Settings{})

	ctx, cancel := context.WithCancel(context.Background())
	err := o.GenerateAll(ctx, st, func(completed, total int) {
		if completed == 1 {
			cancel()
		}
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	// 取消前完成的段保留
	if st.List()[0].Asset == nil {
		t.Error("segment A should keep its asset after cancellation")
	}
	if len(prov.calls) != 1 {
		t.Errorf("calls = %v, only A should have run", prov.calls)
	}
}

func TestOrchestrator_GenerateAll_Empty(t *testing.T) {
	o := NewOrchestrator(&fakeProvider{}, segment.Settings{})

	var progress [][2]int
	err := o.GenerateAll(context.Background(), segment.NewStore(), func(completed, total int) {
		progress = append(progress, [2]int{completed, total})
	})
	if err != nil {
		t.Fatalf("empty batch should succeed: %v", err)
	}
	if len(progress) != 1 || progress[0] != [2]int{0, 0} {
		t.Errorf("progress = %v, want single (0, 0)", progress)
	}
}

func TestOrchestrator_RegenerateClearsStale(t *testing.T) {
	st := newBatchStore("Hello")
	prov := &fakeProvider{}
	o := NewOrchestrator(prov, segment.Settings{})
	id := st.List()[0].ID

	if err := o.GenerateSegment(context.Background(), st, id); err != nil {
		t.Fatal(err)
	}

	// 修改文本：音频保留但过期
	content := "Hello again"
	if err := st.Update(id, segment.Update{Content: &content}); err != nil {
		t.Fatal(err)
	}
	if !st.Get(id).Stale() {
		t.Fatal("edited segment should be stale")
	}

	// 重新生成后不再过期
	if err := o.GenerateSegment(context.Background(), st, id); err != nil {
		t.Fatal(err)
	}
	if st.Get(id).Stale() {
		t.Error("regenerated segment should not be stale")
	}
}

func TestMockProvider_Deterministic(t *testing.T) {
	p := NewMockProvider(16)

	asset, err := p.Generate(context.Background(), "你好世界", segment.VoiceRef{ID: "v"}, segment.Settings{})
	if err != nil {
		t.Fatalf("mock Generate failed: %v", err)
	}
	if asset.Duration <= 0 {
		t.Errorf("duration = %v", asset.Duration)
	}
	if len(asset.Waveform) != 16 {
		t.Errorf("waveform buckets = %d, want 16", len(asset.Waveform))
	}

	// 取消的 ctx 直接失败
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Generate(ctx, "x", segment.VoiceRef{}, segment.Settings{}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
