// Package watcher 提供文件系统的变更监控，并把变更汇入去重合并的待处理队列。
//
// 核心特点：
//   - 递归监控指定路径，自动捕获文件/目录的增删改事件
//   - 通过Debounce（事件合并）减少过多的事件风暴
//   - 变更进入 pending.Collection：同一路径只保留一条，标志位合并；
//     递归条目会覆盖并剪除其下的后代条目(cookie 文件除外)
//   - 消费者在队列上等待，被唤醒后一次取走全部变更
//   - 采用worker池并发调用 Handler
//   - 可选的 Prometheus 指标(RegisterMetrics)
//   - 提供可定制的忽略规则（IgnorePatterns）
//
// 注意：
//   - Windows、Linux、macOS等不同平台对文件系统事件的支持存在差异
//   - fsnotify 报错(如内核队列溢出)时，所有监控根目录会以
//     Recursive|IsDesynced 重新进入队列
//   - Stop() 方法会关闭所有后台goroutine，在退出前flush一次事件，
//     并等待正在执行的 Handler 返回
//
// 推荐使用方式：
//  1. 配置ConfigWatcher(或通过 LoadConfig 从 YAML 读取)
//  2. 通过NewWatcher创建Watcher
//  3. 调用Start()开始监控
//  4. 在 Handler 中处理取出的 pending.Change
//  5. 调用Stop()结束监控
//
// 并发安全：
//   - 待处理队列由 pending.Collection 的互斥锁保护，Ping 可以不持锁调用
//   - 事件合并队列只在合并goroutine与最后一次flush中访问，由 aggMu 保护
//   - Handler 会被多个worker并发调用，需要自行保证并发安全
package watcher
