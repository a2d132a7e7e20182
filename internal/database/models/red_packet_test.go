// Package models 红包模型测试
package models

import (
	"testing"
	"time"
)

func TestRedPacket_IsDepleted(t *testing.T) {
	tests := []struct {
		name     string
		packet   *RedPacket
		expected bool
	}{
		{"未领完", &RedPacket{Quantity: 5, ClaimedCount: 3}, false},
		{"刚好领完", &RedPacket{Quantity: 5, ClaimedCount: 5}, true},
		{"一份未领", &RedPacket{Quantity: 1, ClaimedCount: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.packet.IsDepleted(); got != tt.expected {
				t.Errorf("IsDepleted() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRedPacket_IsExpired(t *testing.T) {
	future := &RedPacket{ExpiresAt: time.Now().Add(time.Hour)}
	if future.IsExpired() {
		t.Error("未到期红包不应判定为过期")
	}

	past := &RedPacket{ExpiresAt: time.Now().Add(-time.Hour)}
	if !past.IsExpired() {
		t.Error("超时红包应判定为过期")
	}
}

func TestRedPacket_IsBomb(t *testing.T) {
	five := 5
	tests := []struct {
		name     string
		packet   *RedPacket
		expected bool
	}{
		{"固定模式带炸弹数字", &RedPacket{Mode: ModeFixed, BombNumber: &five}, true},
		{"固定模式无炸弹数字", &RedPacket{Mode: ModeFixed}, false},
		{"拼手气模式", &RedPacket{Mode: ModeRandom, BombNumber: &five}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.packet.IsBomb(); got != tt.expected {
				t.Errorf("IsBomb() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRedPacket_Remaining(t *testing.T) {
	p := &RedPacket{TotalAmount: 1000, Quantity: 5, ClaimedCount: 2, ClaimedAmount: 380}

	if got := p.RemainingCount(); got != 3 {
		t.Errorf("RemainingCount() = %d, want 3", got)
	}
	if got := p.RemainingAmount(); got != 620 {
		t.Errorf("RemainingAmount() = %d, want 620", got)
	}
}

func TestShareList_Scan(t *testing.T) {
	var shares ShareList
	if err := shares.Scan([]byte(`[200,200,200,200,200]`)); err != nil {
		t.Fatalf("Scan 返回错误: %v", err)
	}

	if len(shares) != 5 {
		t.Fatalf("份额数量应该是 5，实际是 %d", len(shares))
	}
	if shares.Sum() != 1000 {
		t.Errorf("份额总和应该是 1000，实际是 %d", shares.Sum())
	}
}

func TestClaim_LastDigit(t *testing.T) {
	tests := []struct {
		amount   int64
		expected int
	}{
		{200, 0},  // 2.00 -> 末位 0
		{125, 5},  // 1.25 -> 末位 5
		{1999, 9}, // 19.99 -> 末位 9
		{50, 0},
	}

	for _, tt := range tests {
		c := &Claim{Amount: tt.amount}
		if got := c.LastDigit(); got != tt.expected {
			t.Errorf("LastDigit(%d) = %d, want %d", tt.amount, got, tt.expected)
		}
	}
}
