// orchestrator.go 传输编排：连接校验 → 写入测试 → 保活护航的逐文件上传循环 → 关闭。
// 逐文件重试 + 断线重连吸收嵌入式设备常见的 WiFi 抖动，按大小跳过让大批量重跑
// 幂等且便宜，开头的写入测试让注定全败的批次（凭证错、只读挂载）快速失败。
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cubicalbatch/romhoard-sub002/internal/device"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryPause = 1 * time.Second
)

var (
	ErrConnectFailed   = errors.New("failed to connect to device")
	ErrWriteTestFailed = errors.New("write test failed on transfer root")
)

// ClientFactory 按设备构造传输客户端（测试注入 mock 用）
type ClientFactory func(d *device.Device) (Client, error)

// Orchestrator 一次批量传输的编排器，通过依赖注入支持测试。
// 一次 Run = 一条连接；Run 返回前连接必定关闭，成功失败异常都一样。
type Orchestrator struct {
	Device   *device.Device
	Factory  ClientFactory // 为空时使用 NewClient
	Source   FileSource
	Images   ImageRenderer // 为空时不传封面图
	Progress ProgressSink
	Output   io.Writer

	MaxRetries        int           // 单文件上传尝试次数，默认 3
	RetryPause        time.Duration // 两次尝试之间的固定停顿，默认 1s
	KeepaliveInterval time.Duration // 后台保活间隔，默认 30s
}

func (o *Orchestrator) printf(format string, args ...interface{}) {
	if o.Output != nil {
		fmt.Fprintf(o.Output, format, args...)
	}
}

func (o *Orchestrator) maxRetries() int {
	if o.MaxRetries > 0 {
		return o.MaxRetries
	}
	return DefaultMaxRetries
}

func (o *Orchestrator) retryPause() time.Duration {
	if o.RetryPause > 0 {
		return o.RetryPause
	}
	return DefaultRetryPause
}

// Run 执行一次批量传输。roms 按输入顺序逐个处理。
// 只有连接失败和写入测试失败（以及 ctx 取消）作为顶层错误返回；
// 逐文件失败一律记入 Result.Failed，不中断批次。
func (o *Orchestrator) Run(ctx context.Context, roms []ROMFile) (*Result, error) {
	session := &Session{TotalFiles: len(roms)}
	for _, rom := range roms {
		session.TotalBytes += rom.Size
	}

	factory := o.Factory
	if factory == nil {
		factory = NewClient
	}
	client, err := factory(o.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	// 连接串行锁：前台上传和后台保活共用，保证同一连接上不会并发下协议命令
	var mu sync.Mutex

	defer func() {
		mu.Lock()
		_ = client.Close()
		mu.Unlock()
	}()

	o.printf("连接 %s (%s)...\n", o.Device.Name, o.Device.Addr())
	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectFailed, err)
	}

	root := o.Device.TransferRoot("")
	if err := client.TestWrite(root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWriteTestFailed, err)
	}
	o.printf("  ✓ 写入测试通过 (%s)\n", root)

	result := &Result{}
	emit := func() {
		if o.Progress != nil {
			o.Progress(session)
		}
	}

	guard := StartKeepalive(client, o.KeepaliveInterval, &mu)
	defer guard.Stop()

	for _, rom := range roms {
		// 取消只在文件边界检查：剩余文件不再尝试，连接照常关闭
		if err := ctx.Err(); err != nil {
			return result, err
		}

		session.CurrentFile = rom.Name
		outcome := o.transferFile(client, &mu, rom, session, emit)
		result.add(session, outcome)

		if outcome.Status != StatusFailed {
			if img, ok := o.uploadImage(client, &mu, rom, outcome.Name); ok {
				result.addImage(session, img)
			}
		}

		emit()
	}

	session.CurrentFile = ""
	emit()
	return result, nil
}

// transferFile 处理单个 ROM：本地解析 → 远程大小比对 → 带重试的上传
func (o *Orchestrator) transferFile(client Client, mu *sync.Mutex, rom ROMFile, session *Session, emit func()) FileOutcome {
	local, err := o.Source.Acquire(rom)
	if err != nil {
		// 本地源打不开不消耗重试次数，远程路径留空
		o.printf("  ✗ %s: %v\n", rom.Name, err)
		return FileOutcome{Name: rom.Name, Status: StatusFailed, Error: err.Error()}
	}
	defer local.Release()

	name := local.Name()
	remotePath := o.Device.ROMPath(rom.System, rom.Game, name)

	mu.Lock()
	remoteSize := client.RemoteSize(remotePath)
	mu.Unlock()

	if remoteSize == rom.Size {
		o.printf("  - %s: 远程已存在，跳过\n", name)
		session.BytesSent += rom.Size
		return FileOutcome{Name: name, RemotePath: remotePath, Status: StatusSkipped, Reason: ReasonUnchanged, Bytes: rom.Size}
	}

	mu.Lock()
	// 目录创建问题由客户端层吞掉，真问题会在上传时暴露
	_ = client.EnsureDirectory(parentDir(remotePath))
	mu.Unlock()

	base := session.BytesSent
	progress := func(sent, total int64) {
		session.BytesSent = base + sent
		emit()
	}

	var lastErr error
	for attempt := 1; attempt <= o.maxRetries(); attempt++ {
		if attempt > 1 {
			time.Sleep(o.retryPause())

			mu.Lock()
			connected := client.IsConnected()
			mu.Unlock()
			if !connected {
				mu.Lock()
				rerr := client.Reconnect()
				mu.Unlock()
				if rerr != nil {
					lastErr = fmt.Errorf("重连失败: %w", rerr)
					break
				}
			}
		}

		session.BytesSent = base
		mu.Lock()
		err = client.UploadFile(local.Path(), remotePath, progress)
		mu.Unlock()
		if err == nil {
			o.printf("  ✓ %s\n", name)
			session.BytesSent = base + rom.Size
			return FileOutcome{Name: name, RemotePath: remotePath, Status: StatusUploaded, Bytes: rom.Size}
		}
		lastErr = err
	}

	o.printf("  ✗ %s: %v\n", name, lastErr)
	session.BytesSent = base
	return FileOutcome{Name: name, RemotePath: remotePath, Status: StatusFailed, Error: lastErr.Error()}
}

// uploadImage 上传 ROM 的封面图。单次尝试不重试，失败只记入封面结果，
// 永远不影响 ROM 本身的结果。返回 false 表示封面路径不可计算，不产生结果。
func (o *Orchestrator) uploadImage(client Client, mu *sync.Mutex, rom ROMFile, name string) (ImageOutcome, bool) {
	if o.Images == nil {
		return ImageOutcome{}, false
	}

	remotePath, ok := o.Device.EffectiveImagePath(rom.System, name)
	if !ok {
		return ImageOutcome{}, false
	}

	data, available, err := o.Images.Render(rom, o.Device.Images.Kind, o.Device.Images.MaxWidth)
	if err != nil {
		return ImageOutcome{Name: name, RemotePath: remotePath, Status: StatusFailed, Error: err.Error()}, true
	}
	if !available {
		return ImageOutcome{Name: name, RemotePath: remotePath, Status: StatusSkipped, Reason: ReasonNoImage}, true
	}

	mu.Lock()
	defer mu.Unlock()

	if client.RemoteSize(remotePath) == int64(len(data)) {
		return ImageOutcome{Name: name, RemotePath: remotePath, Status: StatusSkipped, Reason: ReasonUnchanged, Bytes: int64(len(data))}, true
	}

	_ = client.EnsureDirectory(parentDir(remotePath))
	if err := client.UploadData(data, remotePath); err != nil {
		return ImageOutcome{Name: name, RemotePath: remotePath, Status: StatusFailed, Error: err.Error()}, true
	}
	return ImageOutcome{Name: name, RemotePath: remotePath, Status: StatusUploaded, Bytes: int64(len(data))}, true
}
