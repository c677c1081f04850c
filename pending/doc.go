// Package pending 实现文件监控的待处理变更队列。
//
// 队列按路径去重：同一路径的多次通知合并为一条(标志位取并集，时间保留首次)。
// 某目录以 Recursive 进入队列后，其下的后代条目会被剪除，之后到达的后代通知
// 直接丢弃；cookie 文件与 CrawlOnly 条目不受影响。
//
// Queue 本身不加锁；Collection 用互斥锁包装 Queue，并提供 Ping 与
// LockAndWait 供生产者唤醒消费者。
package pending
