package pending

import "github.com/armon/go-radix"

// prefixIndex 以路径为键的前缀索引，值是条目在 arena 中的句柄
//
// 底层基数树在遍历中途被修改时行为未定义，所以 iterPrefix 的回调
// 一旦修改了索引就必须返回 true，iterPrefix 随即停止并报告被中断，
// 由调用方重新扫描。
type prefixIndex struct {
	tree *radix.Tree
}

func newPrefixIndex() *prefixIndex {
	return &prefixIndex{tree: radix.New()}
}

func (ix *prefixIndex) search(path string) (handle, bool) {
	v, ok := ix.tree.Get(path)
	if !ok {
		return nilHandle, false
	}
	return v.(handle), true
}

// longestMatch 返回键为 path 最长(字节)前缀的条目，尚未做层级校验
func (ix *prefixIndex) longestMatch(path string) (string, handle, bool) {
	key, v, ok := ix.tree.LongestPrefix(path)
	if !ok {
		return "", nilHandle, false
	}
	return key, v.(handle), true
}

func (ix *prefixIndex) insert(path string, h handle) {
	ix.tree.Insert(path, h)
}

func (ix *prefixIndex) erase(path string) {
	ix.tree.Delete(path)
}

func (ix *prefixIndex) clear() {
	ix.tree = radix.New()
}

func (ix *prefixIndex) size() int {
	return ix.tree.Len()
}

// iterPrefix 对所有以 prefix 开头的键调用 fn
//
// fn 返回 true 表示它修改了索引；返回值表示遍历是否因此被中断。
func (ix *prefixIndex) iterPrefix(prefix string, fn func(key string, h handle) bool) bool {
	interrupted := false
	ix.tree.WalkPrefix(prefix, func(key string, v interface{}) bool {
		if fn(key, v.(handle)) {
			interrupted = true
		}
		return interrupted
	})
	return interrupted
}
