// Package utils 工具函数测试
package utils

import (
	"errors"
	"testing"
	"time"
)

func TestTruncateName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"短名不截断", "小明", 16, "小明"},
		{"长名截断加省略号", "一二三四五六", 4, "一二三四…"},
		{"刚好等于上限", "abcd", 4, "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateName(tt.input, tt.max); got != tt.expected {
				t.Errorf("TruncateName(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
			}
		})
	}
}

func TestFormatTimeCST(t *testing.T) {
	// UTC 0 点对应北京时间 8 点
	utc := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := FormatTimeCST(utc, "2006-01-02 15:04:05"); got != "2026-01-01 08:00:00" {
		t.Errorf("FormatTimeCST() = %s, want 2026-01-01 08:00:00", got)
	}
}

func TestCacheGetOrSet(t *testing.T) {
	defer CacheFlush()

	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return "值", nil
	}

	// 首次回源，第二次命中缓存
	for i := 0; i < 2; i++ {
		val, err := CacheGetOrSet("k1", time.Minute, fn)
		if err != nil {
			t.Fatalf("CacheGetOrSet 返回错误: %v", err)
		}
		if val.(string) != "值" {
			t.Errorf("缓存值 = %v, want 值", val)
		}
	}
	if calls != 1 {
		t.Errorf("回源次数 = %d, want 1", calls)
	}

	// 回源失败不写缓存
	wantErr := errors.New("回源失败")
	if _, err := CacheGetOrSet("k2", time.Minute, func() (interface{}, error) {
		return nil, wantErr
	}); err != wantErr {
		t.Errorf("错误 = %v, want %v", err, wantErr)
	}
	if _, found := CacheGet("k2"); found {
		t.Error("回源失败不应写入缓存")
	}

	// 清空后重新回源
	CacheSet("k3", 1, time.Minute)
	CacheFlush()
	if _, found := CacheGet("k3"); found {
		t.Error("CacheFlush 后不应命中")
	}
}
