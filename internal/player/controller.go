package player

import (
	"sync"

	"github.com/voxkit/voxstudio/internal/logger"
	"github.com/voxkit/voxstudio/internal/segment"
)

// LoadState 播放会话的加载状态，同一时刻恰好处于其中之一。
type LoadState int

const (
	// StateIdle 尚未绑定任何音频。
	StateIdle LoadState = iota
	// StateLoading 正在等待元数据解析。
	StateLoading
	// StateReady 可以播放。
	StateReady
	// StateError 加载失败，该音频禁止播放。
	StateError
)

var stateNames = [...]string{
	"Idle",
	"Loading",
	"Ready",
	"Error",
}

func (s LoadState) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "Unknown"
}

// Session 播放会话的一份快照，暴露给 UI 层做传输控制。
type Session struct {
	// CurrentTime 当前播放位置（秒），恒在 [0, Duration] 内。
	CurrentTime float64
	// Duration 音频时长（秒），元数据解析后有效。
	Duration float64
	// Volume 音量，[0, 1]。
	Volume float64
	Muted  bool
	// Rate 播放速率，> 0。
	Rate    float64
	Playing bool
	State   LoadState
	// Err 进入 Error 状态的原因。
	Err error
}

// Controller 管理一个播放会话。
// 同一时刻最多绑定一个 AudioAsset；绑定新音频会隐式停止并解绑上一个，
// 这是共享播放原语的唯一持有入口。
type Controller struct {
	mu    sync.Mutex
	prim  Primitive
	asset *segment.AudioAsset
	sess  Session

	// onChange 会话快照变化时的通知回调，在不持锁的情况下调用。
	onChange func(Session)
}

// NewController 创建控制器并订阅原语事件。
func NewController(prim Primitive) *Controller {
	c := &Controller{
		prim: prim,
		sess: Session{Volume: 1, Rate: 1, State: StateIdle},
	}
	prim.Subscribe(Events{
		OnMetadata:   c.handleMetadata,
		OnTimeUpdate: c.handleTimeUpdate,
		OnEnded:      c.handleEnded,
		OnError:      c.handleError,
	})
	return c
}

// SetOnChange 注册会话变化回调。
func (c *Controller) SetOnChange(fn func(Session)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Bind 绑定一个新的音频资源并开始加载元数据。
// 上一个资源（如果有）被隐式停止解绑；CurrentTime 重置为 0。
func (c *Controller) Bind(asset *segment.AudioAsset) {
	c.mu.Lock()
	if c.sess.Playing {
		c.prim.Pause()
	}
	c.asset = asset
	c.sess.Playing = false
	c.sess.CurrentTime = 0
	c.sess.Duration = 0
	c.sess.Err = nil
	c.sess.State = StateLoading
	snapshot := c.sess
	c.mu.Unlock()

	logger.Debugf("[player] 绑定音频 %s (%s)", asset.ID, asset.URL)
	c.notify(snapshot)
	c.prim.Load(asset.URL)
}

// Asset 返回当前绑定的音频，未绑定时为 nil。
func (c *Controller) Asset() *segment.AudioAsset {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.asset
}

// Play 开始播放。仅在 Ready 状态下生效，其余状态是 no-op。
func (c *Controller) Play() {
	c.mu.Lock()
	if c.sess.State != StateReady || c.sess.Playing {
		logger.Debugf("[player] Play 被忽略 (state=%s, playing=%v)", c.sess.State, c.sess.Playing)
		c.mu.Unlock()
		return
	}
	c.sess.Playing = true
	snapshot := c.sess
	c.mu.Unlock()

	c.notify(snapshot)
	c.prim.Play()
}

// Pause 暂停播放，位置保留。
func (c *Controller) Pause() {
	c.mu.Lock()
	if !c.sess.Playing {
		c.mu.Unlock()
		return
	}
	c.sess.Playing = false
	snapshot := c.sess
	c.mu.Unlock()

	c.notify(snapshot)
	c.prim.Pause()
}

// Stop 停止播放并把位置归零。
func (c *Controller) Stop() {
	c.mu.Lock()
	wasPlaying := c.sess.Playing
	c.sess.Playing = false
	c.sess.CurrentTime = 0
	snapshot := c.sess
	c.mu.Unlock()

	c.notify(snapshot)
	if wasPlaying {
		c.prim.Pause()
	}
	c.prim.Seek(0)
}

// Seek 跳转到指定时间。任何输入都被钳位到 [0, Duration]，
// 本地位置立即乐观更新，不等待原语确认。
func (c *Controller) Seek(t float64) {
	c.mu.Lock()
	t = clampTime(t, c.sess.Duration)
	c.sess.CurrentTime = t
	snapshot := c.sess
	c.mu.Unlock()

	c.notify(snapshot)
	c.prim.Seek(t)
}

// SkipForward 前进 delta 秒（钳位）。
func (c *Controller) SkipForward(delta float64) {
	c.mu.Lock()
	t := clampTime(c.sess.CurrentTime+delta, c.sess.Duration)
	c.mu.Unlock()
	c.Seek(t)
}

// SkipBackward 后退 delta 秒（钳位）。
func (c *Controller) SkipBackward(delta float64) {
	c.SkipForward(-delta)
}

// SetVolume 设置音量，钳位到 [0, 1]。
func (c *Controller) SetVolume(v float64) {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}

	c.mu.Lock()
	c.sess.Volume = v
	effective := v
	if c.sess.Muted {
		effective = 0
	}
	snapshot := c.sess
	c.mu.Unlock()

	c.notify(snapshot)
	c.prim.SetVolume(effective)
}

// SetMuted 设置静音，不改变记忆的音量值。
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	c.sess.Muted = muted
	effective := c.sess.Volume
	if muted {
		effective = 0
	}
	snapshot := c.sess
	c.mu.Unlock()

	c.notify(snapshot)
	c.prim.SetVolume(effective)
}

// SetRate 设置播放速率。r <= 0 是 no-op，保留之前的值。
func (c *Controller) SetRate(r float64) {
	if r <= 0 {
		logger.Debugf("[player] 拒绝非法速率 %v", r)
		return
	}

	c.mu.Lock()
	c.sess.Rate = r
	snapshot := c.sess
	c.mu.Unlock()

	c.notify(snapshot)
	c.prim.SetRate(r)
}

// Snapshot 返回当前会话快照。
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

// Close 释放底层原语。
func (c *Controller) Close() {
	c.prim.Close()
}

// handleMetadata 元数据解析完成：进入 Ready，位置归零。
func (c *Controller) handleMetadata(duration float64) {
	c.mu.Lock()
	c.sess.State = StateReady
	c.sess.Duration = duration
	c.sess.CurrentTime = 0
	snapshot := c.sess
	c.mu.Unlock()

	logger.Debugf("[player] 元数据就绪，时长 %.2fs", duration)
	c.notify(snapshot)
}

// handleTimeUpdate 原语上报播放位置，钳位后更新。
func (c *Controller) handleTimeUpdate(t float64) {
	c.mu.Lock()
	c.sess.CurrentTime = clampTime(t, c.sess.Duration)
	snapshot := c.sess
	c.mu.Unlock()

	c.notify(snapshot)
}

// handleEnded 自然播放到末尾：停止并归零（"ended" 语义）。
func (c *Controller) handleEnded() {
	c.mu.Lock()
	c.sess.Playing = false
	c.sess.CurrentTime = 0
	snapshot := c.sess
	c.mu.Unlock()

	logger.Debug("[player] 播放结束")
	c.notify(snapshot)
}

// handleError 加载/播放失败：进入 Error，禁止播放。
// 错误只影响本控制器，不触碰段集合的内容。
func (c *Controller) handleError(err error) {
	c.mu.Lock()
	c.sess.State = StateError
	c.sess.Playing = false
	c.sess.Err = err
	snapshot := c.sess
	c.mu.Unlock()

	logger.Errorf("[player] 播放原语错误: %v", err)
	c.notify(snapshot)
}

// notify 在不持锁的情况下调用变化回调。
func (c *Controller) notify(snapshot Session) {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// clampTime 将 t 钳位到 [0, duration]。
func clampTime(t, duration float64) float64 {
	if t < 0 {
		return 0
	}
	if t > duration {
		return duration
	}
	return t
}
