package pending

import (
	"sync"
	"sync/atomic"
	"time"
)

// NoTimeout 传给 LockAndWait 表示无限等待
const NoTimeout time.Duration = -1

// Signal 是 ping 标志与广播原语的组合，由 Collection 持有并交给 Queue
//
// 广播通过关闭当前通道实现：每次 notifyAll 关闭旧通道并换上新通道，
// 所有在旧通道上等待的 goroutine 同时被唤醒。
type Signal struct {
	pinged atomic.Bool

	mu sync.Mutex
	ch chan struct{}
}

// NewSignal 创建一个未被 ping 的 Signal
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Ping 设置 ping 标志并唤醒所有等待者，不需要持有 Collection 的锁
func (s *Signal) Ping() {
	s.pinged.Store(true)
	s.notifyAll()
}

func (s *Signal) notifyAll() {
	s.mu.Lock()
	close(s.ch)
	s.ch = make(chan struct{})
	s.mu.Unlock()
}

// waitChan 返回下一次 notifyAll 时会被关闭的通道
func (s *Signal) waitChan() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Collection 是加锁的待处理队列
//
// 同一时刻只有一个 goroutine 能操作内部的 Queue；Ping 可以在不持锁的
// 情况下调用。
type Collection struct {
	mu    sync.Mutex
	sig   *Signal
	queue *Queue
}

// Locked 是持锁状态下的 Collection 视图，用完必须调用 Unlock
type Locked struct {
	*Queue
	c *Collection
}

// Unlock 释放 Collection 的锁
func (l *Locked) Unlock() {
	l.c.mu.Unlock()
}

// NewCollection 创建一个空的 Collection
func NewCollection(opts ...Option) *Collection {
	sig := NewSignal()
	return &Collection{
		sig:   sig,
		queue: NewQueue(sig, opts...),
	}
}

// Lock 获取锁并返回队列视图
func (c *Collection) Lock() *Locked {
	c.mu.Lock()
	return &Locked{Queue: c.queue, c: c}
}

// Ping 唤醒等待中的消费者
func (c *Collection) Ping() {
	c.sig.Ping()
}

// LockAndWait 获取锁并等待新的变更或 ping
//
// 已有待处理条目或 ping 标志已设置时立即返回 true。否则释放锁等待，
// 直到被 ping 或超时(timeout 为 NoTimeout 时不超时)，重新取得锁后
// 再检查一次。无论结果如何，返回时都持有锁，调用方可以在同一临界区内
// 检查并取走条目。
func (c *Collection) LockAndWait(timeout time.Duration) (*Locked, bool) {
	// 先取通道再检查标志：检查之后发生的 Ping 一定会关闭这个通道
	wake := c.sig.waitChan()

	l := c.Lock()
	if l.checkAndResetPinged() {
		return l, true
	}

	c.mu.Unlock()
	if timeout == NoTimeout {
		<-wake
	} else {
		timer := time.NewTimer(timeout)
		select {
		case <-wake:
		case <-timer.C:
		}
		timer.Stop()
	}
	c.mu.Lock()

	return l, l.checkAndResetPinged()
}
