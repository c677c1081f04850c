package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shuakami/watcher/v2/pending"
)

// Handler 处理一条从待处理队列取出的变更
//
// 会在 worker 池中并发调用
type Handler func(c pending.Change)

// Watcher 负责监控文件系统变化，并把变更汇入待处理队列
//
// mu：保护 metrics 与 started 字段
// fsWatcher：底层使用github.com/fsnotify/fsnotify进行文件系统事件捕捉
// stopChan：用于停止通知读取与事件合并goroutine
// pending：共享的待处理队列，消费者从这里取走变更
// aggChan, aggQueue, aggMu, aggTicker：用于事件合并（Debounce）
// workerPool：并发处理变更的令牌池
type Watcher struct {
	mu        sync.Mutex
	cfg       ConfigWatcher
	fsWatcher *fsnotify.Watcher
	handler   Handler
	metrics   *Metrics
	started   bool

	stopChan     chan struct{}
	stopOnce     sync.Once
	producers    sync.WaitGroup
	consumerStop chan struct{}
	consumerDone chan struct{}

	pending *pending.Collection

	// 事件合并(防抖)
	aggChan   chan pending.Change
	aggQueue  *pending.Queue
	aggMu     sync.Mutex
	aggTicker *time.Ticker

	// 事件处理并发控制
	workerPool chan struct{}
	inflight   sync.WaitGroup
}

// NewWatcher 根据给定配置创建一个新的 Watcher
//
// 若 cfg.Debounce <= 0，则默认使用 10ms
// 若 cfg.WorkerCount <= 0，则默认使用 32
// 若 cfg.SettleTimeout <= 0，则默认使用 1s
func NewWatcher(cfg ConfigWatcher, handler Handler) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("watcher: handler must not be nil")
	}
	cfg = cfg.withDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		cfg:       cfg,
		fsWatcher: fsw,
		handler:   handler,

		stopChan:     make(chan struct{}),
		consumerStop: make(chan struct{}),
		consumerDone: make(chan struct{}),

		pending: pending.NewCollection(),

		aggChan:   make(chan pending.Change, 100000),
		aggQueue:  pending.NewQueue(nil),
		aggTicker: time.NewTicker(cfg.Debounce),

		workerPool: make(chan struct{}, cfg.WorkerCount),
	}, nil
}

// RegisterMetrics 创建指标并注册到 reg，需在 Start 之前调用
func (w *Watcher) RegisterMetrics(reg prometheus.Registerer) error {
	m, err := NewMetrics(reg, w.pending)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.metrics = m
	w.mu.Unlock()
	return nil
}

// Pending 返回共享的待处理队列
func (w *Watcher) Pending() *pending.Collection {
	return w.pending
}

// Start 启动文件监控
//
// 会递归扫描 cfg.WatchPaths 中的所有目录，并将它们加到 fsnotify.Watcher 中，
// 每个监控根目录以 Recursive 条目进入队列(初次全量扫描)。
// 然后启动3个后台goroutine：
//  1. runAggregator()：负责事件合并
//  2. runFsNotify()：读取 fsnotify 事件并投递到合并队列
//  3. runConsumer()：等待待处理队列并分发变更
func (w *Watcher) Start() error {
	// 1) 递归添加监控目录
	for _, path := range w.cfg.WatchPaths {
		if err := w.addTree(path); err != nil {
			return fmt.Errorf("failed to walk watch path %s: %w", path, err)
		}
	}

	// 2) 启动后台goroutine
	w.mu.Lock()
	select {
	case <-w.stopChan:
		w.mu.Unlock()
		return errors.New("watcher: already stopped")
	default:
	}
	if w.started {
		w.mu.Unlock()
		return errors.New("watcher: already started")
	}
	w.started = true
	w.producers.Add(2)
	go w.runAggregator()
	go w.runFsNotify()
	go w.runConsumer()
	w.mu.Unlock()

	// 3) 根目录进入队列，触发一次全量扫描
	now := time.Now()
	l := w.pending.Lock()
	for _, path := range w.cfg.WatchPaths {
		l.Add(path, now, pending.Recursive)
	}
	l.Unlock()
	w.pending.Ping()

	return nil
}

// Stop 停止监控
//
// 关闭 stopChan 与底层 fsnotify.Watcher，停止ticker；
// 在退出前flush一次合并队列，让消费者取走剩余变更，并等待所有handler返回
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		close(w.stopChan)
		started := w.started
		w.mu.Unlock()

		_ = w.fsWatcher.Close()
		w.aggTicker.Stop()
		if !started {
			return
		}
		w.producers.Wait()

		// 退出前 flush 一次
		w.flushAgg()

		close(w.consumerStop)
		w.pending.Ping()
		<-w.consumerDone
		w.inflight.Wait()
	})
}

// addTree 把 root 及其下所有未被忽略的目录加入 fsnotify
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && w.isIgnored(p) {
			return filepath.SkipDir
		}
		if e := w.fsWatcher.Add(p); e != nil {
			glog.Warningf("cannot watch dir %s: %v", p, e)
		}
		return nil
	})
}

// runFsNotify 不断读取 fsnotify 的事件并投递到合并队列
func (w *Watcher) runFsNotify() {
	defer w.producers.Done()

	for {
		select {
		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.isIgnored(ev.Name) {
				continue
			}
			flags := pending.ViaNotify
			// 如果是新建目录，需要额外Add，并递归扫描其内容
			if ev.Has(fsnotify.Create) {
				if fi, e2 := os.Stat(ev.Name); e2 == nil && fi.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						glog.Warningf("cannot watch new dir %s: %v", ev.Name, err)
					}
					flags |= pending.Recursive
				}
			}
			w.metricsOrNil().notified()
			w.queueAgg(pending.Change{Path: ev.Name, Now: time.Now(), Flags: flags})

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			// 事件可能丢失(如队列溢出)，对所有根目录重新做递归扫描
			glog.Warningf("fsnotify error, rescanning watch roots: %v", err)
			now := time.Now()
			for _, root := range w.cfg.WatchPaths {
				w.queueAgg(pending.Change{Path: root, Now: now, Flags: pending.Recursive | pending.IsDesynced})
			}

		case <-w.stopChan:
			return
		}
	}
}

// runAggregator 负责对短时间内的事件进行合并
func (w *Watcher) runAggregator() {
	defer w.producers.Done()

	for {
		select {
		case c := <-w.aggChan:
			w.aggMu.Lock()
			w.aggQueue.Add(c.Path, c.Now, c.Flags)
			w.aggMu.Unlock()

		case <-w.aggTicker.C:
			w.flushAgg()

		case <-w.stopChan:
			return
		}
	}
}

// flushAgg 将合并队列(aggQueue)中的变更整体并入共享队列，并唤醒消费者
func (w *Watcher) flushAgg() {
	w.aggMu.Lock()
	defer w.aggMu.Unlock()

	// 通道中还没被合并的事件一并带走
	for drained := false; !drained; {
		select {
		case c := <-w.aggChan:
			w.aggQueue.Add(c.Path, c.Now, c.Flags)
		default:
			drained = true
		}
	}

	if w.aggQueue.Size() == 0 {
		return
	}

	l := w.pending.Lock()
	l.Append(w.aggQueue)
	l.Unlock()
	w.pending.Ping()
}

// queueAgg 将事件放入合并通道，若满则阻塞
func (w *Watcher) queueAgg(c pending.Change) {
	select {
	case w.aggChan <- c:
	case <-w.stopChan:
	}
}

// runConsumer 等待待处理队列，取走全部变更后交给 worker 池
func (w *Watcher) runConsumer() {
	defer close(w.consumerDone)

	for {
		l, signaled := w.pending.LockAndWait(w.cfg.SettleTimeout)
		var items []pending.Change
		if signaled {
			items = l.StealItems()
		}
		l.Unlock()

		if len(items) > 0 {
			w.dispatch(items)
		}

		select {
		case <-w.consumerStop:
			l := w.pending.Lock()
			items := l.StealItems()
			l.Unlock()
			w.dispatch(items)
			return
		default:
		}
	}
}

// dispatch 将一批变更交给 handler，worker池已满时阻塞等待
func (w *Watcher) dispatch(items []pending.Change) {
	if len(items) == 0 {
		return
	}
	w.metricsOrNil().stole(len(items))

	for _, c := range items {
		w.workerPool <- struct{}{}
		w.inflight.Add(1)
		go func(c pending.Change) {
			defer func() {
				<-w.workerPool
				w.inflight.Done()
			}()
			w.handler(c)
		}(c)
	}
}

func (w *Watcher) metricsOrNil() *Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}

// isIgnored 判断路径是否匹配 cfg.IgnorePatterns
//
// 只看路径在其监控根目录之下的部分(相对路径)，根目录自身的路径不参与匹配。
// 不含路径分隔符的模式逐个匹配相对路径中的每一段(因此 ".git" 会忽略其下所有文件)，
// 含分隔符的模式匹配整个相对路径
func (w *Watcher) isIgnored(path string) bool {
	rel := w.relToRoot(path)
	if rel == "." {
		return false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	for _, pat := range w.cfg.IgnorePatterns {
		if strings.ContainsRune(pat, '/') || strings.ContainsRune(pat, os.PathSeparator) {
			if matched, _ := filepath.Match(filepath.FromSlash(pat), rel); matched {
				return true
			}
			continue
		}
		for _, part := range parts {
			if matched, _ := filepath.Match(pat, part); matched {
				return true
			}
		}
	}
	return false
}

// relToRoot 返回 path 相对于包含它的最深监控根目录的路径；
// 不在任何监控根目录下时返回清理后的 path
func (w *Watcher) relToRoot(path string) string {
	best := ""
	found := false
	for _, root := range w.cfg.WatchPaths {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if !found || len(rel) < len(best) {
			best, found = rel, true
		}
	}
	if !found {
		return filepath.Clean(path)
	}
	return best
}
