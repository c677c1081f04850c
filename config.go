package watcher

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigWatcher 用于配置 Watcher
//
// WatchPaths：需要监控的路径（可指定多个）
// IgnorePatterns：需要忽略的文件(或目录)通配符，如 "*.tmp" 或 ".git"
// Debounce：事件合并的时间间隔, 默认 10ms
// WorkerCount：并发处理变更的最大worker数量, 默认 32
// SettleTimeout：消费者等待新变更的最长时间, 默认 1s
type ConfigWatcher struct {
	WatchPaths     []string      `yaml:"watch_paths"`     // 要监控的路径
	IgnorePatterns []string      `yaml:"ignore_patterns"` // 要忽略的文件通配符
	Debounce       time.Duration `yaml:"debounce"`        // 事件合并的时间间隔, 默认 10ms
	WorkerCount    int           `yaml:"worker_count"`    // 并发处理 Worker 数, 默认 32
	SettleTimeout  time.Duration `yaml:"settle_timeout"`  // 消费者单次等待时长, 默认 1s
}

const (
	defaultDebounce      = 10 * time.Millisecond
	defaultWorkerCount   = 32
	defaultSettleTimeout = time.Second
)

// withDefaults 为未设置的字段填充默认值
func (cfg ConfigWatcher) withDefaults() ConfigWatcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = defaultWorkerCount
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = defaultSettleTimeout
	}
	return cfg
}

// LoadConfig 从 YAML 文件读取配置
//
// 时间字段使用 Go 的时长写法，如 "50ms"、"2s"
func LoadConfig(path string) (ConfigWatcher, error) {
	var cfg ConfigWatcher

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}
