package transfer

import (
	"sync"
	"testing"
	"time"
)

// keepalivePinger 只实现保活相关方法的最小 mock
type keepalivePinger struct {
	mockClient

	mu     sync.Mutex
	pings  int
	closed bool
	alive  bool

	t *testing.T
}

func newKeepalivePinger(t *testing.T) *keepalivePinger {
	return &keepalivePinger{alive: true, t: t}
}

func (p *keepalivePinger) SendKeepalive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.t.Error("keepalive ping after Close")
	}
	p.pings++
	return p.alive
}

func (p *keepalivePinger) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *keepalivePinger) pingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pings
}

func TestKeepaliveGuard_RunsAndStopsBeforeClose(t *testing.T) {
	pinger := newKeepalivePinger(t)
	var mu sync.Mutex

	guard := StartKeepalive(pinger, 2*time.Millisecond, &mu)

	deadline := time.Now().Add(time.Second)
	for pinger.pingCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if pinger.pingCount() < 3 {
		t.Fatal("keepalive never fired repeatedly")
	}

	// Stop 返回后才允许 Close——之后再有探测就是竞态
	guard.Stop()
	pinger.Close()
	time.Sleep(10 * time.Millisecond)
}

func TestKeepaliveGuard_StopsItselfOnFailure(t *testing.T) {
	pinger := newKeepalivePinger(t)
	pinger.alive = false
	var mu sync.Mutex

	guard := StartKeepalive(pinger, time.Millisecond, &mu)

	deadline := time.Now().Add(time.Second)
	for pinger.pingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	// 失败后循环自行退出，不再探测
	time.Sleep(10 * time.Millisecond)
	count := pinger.pingCount()
	if count != 1 {
		t.Errorf("expected exactly one failed ping, got %d", count)
	}

	guard.Stop()
	guard.Stop() // 可重复调用
}
