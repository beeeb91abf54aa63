// source.go 传输引擎依赖的外部协作者接口：本地文件解析和封面图渲染。
// 真实实现在 internal/romfile，测试里用 func 字段 mock。
package transfer

// ROMFile 一个待传输的 ROM 文件。Size 是登记时记录的大小
// （文件可能在压缩包里，不做本地 stat），跳过判断以它为准。
type ROMFile struct {
	Game   string // 游戏名，启用 game folder 时作为子目录
	System string // 系统标识（gba、snes、...）
	Name   string // 展示文件名
	Size   int64
}

// LocalFile 一个已解析到本地文件系统的 ROM。
// 用完必须调用 Release（压缩包解出的临时文件靠它清理），出错路径也不例外。
type LocalFile interface {
	Path() string
	Name() string
	Release()
}

// FileSource 把 ROMFile 解析为本地可读文件（必要时从压缩包透明解出）
type FileSource interface {
	Acquire(rom ROMFile) (LocalFile, error)
}

// ImageRenderer 渲染某个 ROM 的封面图。
// 返回 (数据, true, nil)；没有可用图时返回 (nil, false, nil)；渲染出错返回 err。
type ImageRenderer interface {
	Render(rom ROMFile, kind string, maxWidth int) ([]byte, bool, error)
}

// ProgressSink 进度回调，在每次有意义的状态变化后收到会话快照。
// 不保证调用次数和间隔；回调内不要持有快照引用之外的共享状态。
type ProgressSink func(s *Session)
