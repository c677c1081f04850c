package watcher

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/shuakami/watcher/v2/pending"
)

// ExampleWatcher 展示最简使用场景
//
// 事件到达的时机与平台有关，所以本示例不校验输出
func ExampleWatcher() {
	// 假设在当前目录创建临时目录
	testDir := filepath.Join(".", "tmp-watcher-example")
	_ = os.MkdirAll(testDir, 0755)
	defer os.RemoveAll(testDir) // 演示结束后删除

	// 配置
	cfg := ConfigWatcher{
		WatchPaths:     []string{testDir},
		IgnorePatterns: []string{"*.tmp"},
		WorkerCount:    4,
	}

	// 创建 Watcher，Handler 在 worker 中并发执行
	w, err := NewWatcher(cfg, func(c pending.Change) {
		fmt.Printf("Change: %s %s\n", c.Flags, c.Path)
	})
	if err != nil {
		fmt.Println("Error creating watcher:", err)
		return
	}

	// 启动
	if err := w.Start(); err != nil {
		fmt.Println("Error starting watcher:", err)
		return
	}

	// 在 testDir 中创建一个文件
	_ = os.WriteFile(filepath.Join(testDir, "example.txt"), []byte("Hello watcher"), 0644)

	// 停止监控，剩余变更会在返回前处理完
	w.Stop()
}
