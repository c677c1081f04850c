package pending

import (
	"time"

	"github.com/golang/glog"

	"github.com/shuakami/watcher/v2/cookie"
)

// Queue 是未加锁的待处理变更队列
//
// 前缀索引与双向链表始终同步：条目能从表头到达当且仅当它的路径在索引中。
// 调用方负责加锁，一般通过 Collection 使用。
type Queue struct {
	index    *prefixIndex
	items    arena
	head     handle
	sig      *Signal
	isMarker func(path string) bool
}

// Option 配置 Queue / Collection
type Option func(*Queue)

// WithMarkerFunc 替换同步标记(cookie)路径的识别函数
//
// 被识别为标记的路径永远不会被淘汰或剪除
func WithMarkerFunc(fn func(path string) bool) Option {
	return func(q *Queue) {
		q.isMarker = fn
	}
}

// NewQueue 创建一个空队列
//
// sig 为 nil 时队列使用自己的 Signal(独立使用、不需要唤醒消费者的场景)
func NewQueue(sig *Signal, opts ...Option) *Queue {
	if sig == nil {
		sig = NewSignal()
	}
	q := &Queue{
		index:    newPrefixIndex(),
		head:     nilHandle,
		sig:      sig,
		isMarker: cookie.IsPossiblyCookie,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// unlink 把条目从链表中摘下，并不从索引中删除
func (q *Queue) unlink(h handle) {
	s := q.items.get(h)
	if q.head == h {
		q.head = s.next
	}
	if s.prev != nilHandle {
		q.items.get(s.prev).next = s.next
	}
	if s.next != nilHandle {
		q.items.get(s.next).prev = s.prev
	}
	s.next = nilHandle
	s.prev = nilHandle
}

// linkHead 把条目挂到表头(最新加入的在最前)
func (q *Queue) linkHead(h handle) {
	s := q.items.get(h)
	s.prev = nilHandle
	s.next = q.head
	if s.next != nilHandle {
		q.items.get(s.next).prev = h
	}
	q.head = h
}

// Drain 丢弃全部条目，但保留队列本身
func (q *Queue) Drain() {
	q.head = nilHandle
	q.items.reset()
	q.index.clear()
}

// Ping 通知等待中的消费者有新的动静
func (q *Queue) Ping() {
	q.sig.Ping()
}

// pruneObsoletedChildren 删除被递归条目 path 覆盖的后代条目
//
// 只有 Recursive 且非 CrawlOnly 的条目才会剪除后代；CrawlOnly 条目和
// 同步标记路径永远保留。每删除一个条目索引就被修改了，所以停止本轮扫描
// 重新开始，直到完整扫描一遍没有删除任何条目为止。
func (q *Queue) pruneObsoletedChildren(path string, flags Flags) {
	if flags&(Recursive|CrawlOnly) != Recursive {
		return
	}

	pruned := 0
	prune := func(key string, h handle) bool {
		s := q.items.get(h)
		if s.Flags&CrawlOnly != 0 || len(key) <= len(path) ||
			!isPathPrefix(key, path, len(path)) || q.isMarker(s.Path) {
			return false
		}

		if glog.V(2) {
			glog.Infof("pruneObsoletedChildren: removing (%d) %s from pending because it is obsoleted by (%d) %s",
				len(s.Path), s.Path, len(path), path)
		}

		q.unlink(h)
		q.index.erase(key)
		q.items.release(h)
		return true
	}

	for q.index.iterPrefix(path, prune) {
		pruned++
	}

	if pruned > 0 {
		glog.V(2).Infof("pruneObsoletedChildren: pruned %d nodes under (%d) %s", pruned, len(path), path)
	}
}

// consolidate 把新通知的标志位合并进已有条目
//
// CrawlOnly 也会被升级：它表示刚刚 stat 过，避免无限地 stat-and-crawl。
// ViaNotify 只是来源标记，不参与合并。
func (q *Queue) consolidate(h handle, flags Flags) {
	s := q.items.get(h)
	s.Flags |= flags & consolidateMask

	q.pruneObsoletedChildren(s.Path, s.Flags)
}

// isObsoletedByContainingDir 判断 path 是否已被更上层的递归条目覆盖
func (q *Queue) isObsoletedByContainingDir(path string) bool {
	key, h, ok := q.index.longestMatch(path)
	if !ok {
		return false
	}
	s := q.items.get(h)

	if s.Flags&Recursive != 0 && isPathPrefix(path, key, len(key)) {
		if q.isMarker(path) {
			return false
		}

		glog.V(2).Infof("isObsoletedByContainingDir: skip %s, covered by %s", path, s.Path)
		return true
	}
	return false
}

// admit 对一条变更执行 合并 -> 淘汰检查 -> 分配 -> 剪除后代 -> 插入 的流程
func (q *Queue) admit(c Change) {
	if h, ok := q.index.search(c.Path); ok {
		q.consolidate(h, c.Flags)
		return
	}

	if q.isObsoletedByContainingDir(c.Path) {
		return
	}

	h := q.items.alloc(c)

	q.pruneObsoletedChildren(c.Path, c.Flags)

	glog.V(2).Infof("add: %s %s", c.Path, c.Flags)

	q.index.insert(c.Path, h)
	q.linkHead(h)
}

// Add 加入一条变更
//
// 已存在相同路径时只合并标志位，不会新建条目也不会更新时间；
// 已被上层递归条目覆盖时直接丢弃。
func (q *Queue) Add(path string, now time.Time, flags Flags) {
	q.admit(Change{Path: path, Now: now, Flags: flags})
}

// AddChild 加入 dir 下名为 name 的子项
func (q *Queue) AddChild(dir Dir, name string, now time.Time, flags Flags) {
	q.Add(dir.FullPathToChild(name), now, flags)
}

// Append 把 src 的全部条目按原有顺序并入 q，src 在此过程中被清空
//
// 调用方必须同时持有 src 和 q 的锁。
func (q *Queue) Append(src *Queue) {
	for _, c := range src.StealItems() {
		q.admit(c)
	}
}

// StealItems 清空索引并取走整个链表，按从新到旧的顺序返回
func (q *Queue) StealItems() []Change {
	out := make([]Change, 0, q.index.size())
	for h := q.head; h != nilHandle; h = q.items.get(h).next {
		out = append(out, q.items.get(h).Change)
	}
	q.Drain()
	return out
}

// Range 按从新到旧的顺序遍历条目，fn 返回 false 时停止
//
// fn 内不能修改队列
func (q *Queue) Range(fn func(Change) bool) {
	for h := q.head; h != nilHandle; h = q.items.get(h).next {
		if !fn(q.items.get(h).Change) {
			return
		}
	}
}

// Size 返回不重复的待处理路径数量
func (q *Queue) Size() int {
	return q.index.size()
}

// checkAndResetPinged 队列非空或被 ping 过时返回 true，并清除 ping 标志
func (q *Queue) checkAndResetPinged() bool {
	pinged := q.sig.pinged.Swap(false)
	return q.head != nilHandle || pinged
}
