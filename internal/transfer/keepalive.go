// keepalive.go 后台保活：长传输期间定期 ping 连接，防止设备空闲超时断连。
package transfer

import (
	"sync"
	"time"
)

// DefaultKeepaliveInterval 保活探测间隔
const DefaultKeepaliveInterval = 30 * time.Second

// KeepaliveGuard 作用域绑定的后台保活任务。
// Stop 关闭停止信号并等待 goroutine 退出，之后才允许 Close 连接——
// 保证不会有保活探测和 Close 赛跑。
type KeepaliveGuard struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartKeepalive 启动保活循环。mu 与前台上传共用一把锁，
// 保证同一连接上不会同时跑两个协议操作。
// 探测返回 false 时循环自行退出，不重试不上报——
// 前台下一次操作会通过 IsConnected/上传失败发现死连接并触发重连。
func StartKeepalive(c Client, interval time.Duration, mu *sync.Mutex) *KeepaliveGuard {
	if interval <= 0 {
		interval = DefaultKeepaliveInterval
	}

	g := &KeepaliveGuard{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(g.done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-g.stop:
				return
			case <-ticker.C:
				mu.Lock()
				alive := c.SendKeepalive()
				mu.Unlock()
				if !alive {
					return
				}
			}
		}
	}()

	return g
}

// Stop 通知后台任务退出并等待其结束，可重复调用
func (g *KeepaliveGuard) Stop() {
	g.once.Do(func() {
		close(g.stop)
	})
	<-g.done
}
