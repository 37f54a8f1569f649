package storage

import (
	"errors"
	"unicode/utf16"
)

// DefaultCapacity 默认容量上限 (5 MiB)，与浏览器 localStorage 常见上限一致
// DefaultCapacity is the default backing capacity (5 MiB).
const DefaultCapacity int64 = 5 * 1024 * 1024

var (
	// ErrQuotaExceeded 写入会超出容量上限 / write would exceed capacity
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrClosed 后端已关闭 / backing already closed
	ErrClosed = errors.New("storage closed")
)

// Entry 一条键值记录
// Entry is one key-value record. Disposable entries hold cache/temp/debug
// data that may be purged to recover space.
type Entry struct {
	Key        string
	Value      string
	Disposable bool
}

// Backing 持久化键值后端接口，支持多后端 (SQLite / Memory)
// Backing is a synchronous durable key-value store with a finite capacity.
// Every write is all-or-nothing: on failure the previous state is kept.
type Backing interface {
	// Get 返回值及是否存在 / Get returns the value and whether it exists
	Get(key string) (string, bool, error)
	// Set 写入普通条目 / Set writes a regular entry
	Set(key, value string) error
	// SetDisposable 写入可清理条目 / SetDisposable writes a purgeable entry
	SetDisposable(key, value string) error
	Remove(key string) error
	// Entries 返回全部条目 / Entries lists every entry
	Entries() ([]Entry, error)
	// Capacity 返回容量上限（字节）/ Capacity returns the byte limit
	Capacity() int64
	Close() error
}

// Cost 计算条目占用字节数：UTF-16 编码下 (key + value) * 2
// Cost returns the byte cost of an entry: UTF-16 code units of key+value, times two.
func Cost(key, value string) int64 {
	return int64(utf16Len(key)+utf16Len(value)) * 2
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// Used 汇总后端当前使用量 / Used sums the cost of every entry in b.
func Used(b Backing) (int64, error) {
	entries, err := b.Entries()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += Cost(e.Key, e.Value)
	}
	return total, nil
}

// PurgeDisposable 删除所有可清理条目，返回删除数量
// PurgeDisposable removes every disposable entry and returns how many were removed.
func PurgeDisposable(b Backing) (int, error) {
	entries, err := b.Entries()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if !e.Disposable {
			continue
		}
		if err := b.Remove(e.Key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
