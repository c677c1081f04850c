package pending

import "strings"

// Flags 是待处理条目的标志位集合
//
// 位的取值是稳定的，调用方可以依赖具体数值
type Flags uint32

const (
	// CrawlOnly 表示目录只需要做一次非递归的列举，并不代表已确认的递归扫描
	CrawlOnly Flags = 1 << iota
	// Recursive 表示该条目覆盖整个子树
	Recursive
	// ViaNotify 表示条目来自操作系统通知(仅作来源标记，合并时不会被带入)
	ViaNotify
	// IsDesynced 表示条目产生时监控处于失步状态
	IsDesynced
)

// consolidateMask 合并时允许升级的标志位
const consolidateMask = CrawlOnly | Recursive | IsDesynced

var flagNames = []struct {
	flag Flags
	name string
}{
	{CrawlOnly, "CRAWL_ONLY"},
	{Recursive, "RECURSIVE"},
	{ViaNotify, "VIA_NOTIFY"},
	{IsDesynced, "IS_DESYNCED"},
}

// Has 判断是否包含 f 中的全部标志位
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// String 以 "A|B" 的形式输出标志位，用于日志
func (fl Flags) String() string {
	if fl == 0 {
		return "0"
	}
	var names []string
	for _, fn := range flagNames {
		if fl&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}
