// Package models 币种换算测试
package models

import (
	"testing"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		currency string
		expected int64
		wantErr  bool
	}{
		{"USDT 两位小数", "10.00", CurrencyUSDT, 1000, false},
		{"USDT 一位小数", "0.5", CurrencyUSDT, 50, false},
		{"USDT 整数", "3", CurrencyUSDT, 300, false},
		{"USDT 精度超限", "1.001", CurrencyUSDT, 0, true},
		{"Stars 整数", "50", CurrencyStars, 50, false},
		{"Stars 不允许小数", "1.5", CurrencyStars, 0, true},
		{"积分整数", "100", CurrencyPoints, 100, false},
		{"非法格式", "abc", CurrencyUSDT, 0, true},
		{"未知币种", "10", "doge", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input, tt.currency)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAmount(%q, %s) 应该返回错误", tt.input, tt.currency)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q, %s) 返回错误: %v", tt.input, tt.currency, err)
			}
			if got != tt.expected {
				t.Errorf("ParseAmount(%q, %s) = %d, want %d", tt.input, tt.currency, got, tt.expected)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   int64
		currency string
		expected string
	}{
		{"USDT 显示两位小数", 1000, CurrencyUSDT, "10.00"},
		{"USDT 末位非零", 1005, CurrencyUSDT, "10.05"},
		{"Stars 无小数", 50, CurrencyStars, "50"},
		{"积分无小数", 12345, CurrencyPoints, "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatAmount(tt.amount, tt.currency); got != tt.expected {
				t.Errorf("FormatAmount(%d, %s) = %s, want %s", tt.amount, tt.currency, got, tt.expected)
			}
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	// 显示金额解析后再格式化应保持一致
	amount, err := ParseAmount("8.88", CurrencyUSDT)
	if err != nil {
		t.Fatalf("ParseAmount 返回错误: %v", err)
	}
	if got := FormatAmount(amount, CurrencyUSDT); got != "8.88" {
		t.Errorf("往返转换结果 %s, want 8.88", got)
	}
}
