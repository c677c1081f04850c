// Package cookie 识别同步标记(cookie)文件
//
// cookie 是写入被监控目录的哨兵文件：观察到它的通知，就说明在它之前
// 发生的文件系统操作都已经被观察到。待处理队列不会淘汰或剪除 cookie 路径。
package cookie

import (
	"path/filepath"
	"strings"
)

// Prefix 是 cookie 文件名的前缀
const Prefix = ".watcher-cookie-"

// IsPossiblyCookie 判断 path 的文件名是否带有 cookie 前缀
func IsPossiblyCookie(path string) bool {
	return strings.HasPrefix(filepath.Base(path), Prefix)
}
