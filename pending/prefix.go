package pending

import (
	"os"

	"github.com/golang/glog"
)

// isPathPrefix 判断 path 在文件系统层级上是否是某个路径的前缀
//
// 调用方保证 path 与 other 的前 commonPrefix 个字节相同。
// 仅比较字符串前缀会把 /foo 当成 /foobar 的前缀，所以还要求
// 前缀之后紧跟路径分隔符(或者两者完全相等)。
func isPathPrefix(path, other string, commonPrefix int) bool {
	if commonPrefix > len(path) {
		return false
	}

	if commonPrefix > len(other) || path[:commonPrefix] != other[:commonPrefix] {
		glog.Fatalf("isPathPrefix: %q vs %q should have %d common prefix bytes",
			path, other, commonPrefix)
	}

	if commonPrefix == len(path) {
		return true
	}

	return os.IsPathSeparator(path[commonPrefix])
}
