package pending

import (
	"os"
	"time"
)

// Change 表示一条待处理的文件系统变更
//
// Path：变更路径，同一队列内唯一
// Now：首次观察到变更的时间，合并时不会更新
// Flags：标志位集合
type Change struct {
	Path  string
	Now   time.Time
	Flags Flags
}

// handle 是条目在 arena 中的下标
type handle int32

const nilHandle handle = -1

// slot 是 arena 中的一个槽位，next 指向更早加入的条目，prev 指向更新的条目
type slot struct {
	Change
	next handle
	prev handle
}

// arena 以槽位表保存条目，释放的槽位通过 free 链复用
type arena struct {
	slots []slot
	free  []handle
}

func (a *arena) alloc(c Change) handle {
	s := slot{Change: c, next: nilHandle, prev: nilHandle}
	if n := len(a.free); n > 0 {
		h := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[h] = s
		return h
	}
	a.slots = append(a.slots, s)
	return handle(len(a.slots) - 1)
}

func (a *arena) get(h handle) *slot {
	return &a.slots[h]
}

func (a *arena) release(h handle) {
	a.slots[h] = slot{next: nilHandle, prev: nilHandle}
	a.free = append(a.free, h)
}

func (a *arena) reset() {
	a.slots = nil
	a.free = nil
}

// Dir 能够根据子项名称拼出完整路径的目录
type Dir interface {
	FullPathToChild(name string) string
}

// DirPath 是以普通路径字符串表示的目录
type DirPath string

// FullPathToChild 原样拼接 dir 与 name，不做路径清理，保证索引键与通知中的路径一致
func (d DirPath) FullPathToChild(name string) string {
	return string(d) + string(os.PathSeparator) + name
}
