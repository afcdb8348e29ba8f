package player

// Events 底层播放原语的回调集合。
// 回调可能在原语自己的 goroutine 中触发，订阅方负责自己的并发安全。
// 播放中的 OnTimeUpdate 按非递减顺序到达；Seek 造成的跳变是正常现象。
type Events struct {
	// OnMetadata 元数据解析完成，携带音频时长（秒）。
	OnMetadata func(duration float64)
	// OnTimeUpdate 播放位置更新，粒度由原语决定。
	OnTimeUpdate func(t float64)
	// OnEnded 自然播放到末尾。
	OnEnded func()
	// OnError 加载或播放失败。
	OnError func(err error)
}

// Primitive 底层播放原语：给定 URL，异步加载并通过 Events 上报状态，
// 同时提供命令式的播放控制。本包的 Controller 是它唯一的消费者。
type Primitive interface {
	// Subscribe 注册事件回调，必须在 Load 之前调用。
	Subscribe(ev Events)
	// Load 异步加载 URL；完成时触发 OnMetadata 或 OnError。
	Load(url string)
	Play()
	Pause()
	// Seek 跳转到指定时间（秒）。
	Seek(t float64)
	// SetVolume 设置音量，范围 [0, 1]。
	SetVolume(v float64)
	// SetRate 设置播放速率，> 0。
	SetRate(r float64)
	Close()
}
