package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// legacyDisposablePrefixes 浏览器版本通过 key 前缀标记临时数据
// legacyDisposablePrefixes are the key prefixes the browser build used for
// throwaway data; migration turns them into the explicit disposable tag.
var legacyDisposablePrefixes = []string{"debug_", "temp_", "cache_"}

// MigrateFromJSON 将浏览器 localStorage 导出的 JSON（key -> string）迁移到后端
// MigrateFromJSON copies a browser localStorage dump (a JSON object of
// string values) into dst. Keys already present in dst are left alone.
// It returns the number of entries written.
func MigrateFromJSON(path string, dst Backing) (int, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return 0, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read dump: %w", err)
	}

	var dump map[string]string
	if err := json.Unmarshal(data, &dump); err != nil {
		return 0, fmt.Errorf("parse dump %s: %w", path, err)
	}

	migrated := 0
	for key, value := range dump {
		// 检查是否已存在 / Check if already migrated
		if _, ok, getErr := dst.Get(key); getErr == nil && ok {
			continue
		}
		if isLegacyDisposable(key) {
			err = dst.SetDisposable(key, value)
		} else {
			err = dst.Set(key, value)
		}
		if err != nil {
			return migrated, fmt.Errorf("migrate %q: %w", key, err)
		}
		migrated++
	}
	return migrated, nil
}

func isLegacyDisposable(key string) bool {
	for _, prefix := range legacyDisposablePrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
