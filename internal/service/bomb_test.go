// Package service 炸弹判定测试
package service

import (
	"testing"

	"github.com/smysle/sakura-redpacket-go/internal/database/models"
)

func bombPacket(quantity int, bombNumber int) *models.RedPacket {
	return &models.RedPacket{
		Mode:       models.ModeFixed,
		Quantity:   quantity,
		BombNumber: &bombNumber,
	}
}

func TestResolveBomb(t *testing.T) {
	tests := []struct {
		name     string
		packet   *models.RedPacket
		amount   int64
		expected string
	}{
		{"末位命中炸弹数字", bombPacket(5, 5), 125, models.OutcomeBomb}, // 1.25 末位 5
		{"末位未命中", bombPacket(5, 5), 200, models.OutcomeSafe},     // 2.00 末位 0
		{"炸弹数字 0 命中", bombPacket(5, 0), 200, models.OutcomeBomb},
		{"炸弹数字 9 命中", bombPacket(10, 9), 1999, models.OutcomeBomb},
		{"拼手气红包不判定", &models.RedPacket{Mode: models.ModeRandom}, 125, models.OutcomeSafe},
		{"固定红包未设炸弹数字", &models.RedPacket{Mode: models.ModeFixed}, 125, models.OutcomeSafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claim := &models.Claim{Amount: tt.amount}
			if got := ResolveBomb(tt.packet, claim); got != tt.expected {
				t.Errorf("ResolveBomb() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestBombPenaltyMultiplier(t *testing.T) {
	if got := BombPenaltyMultiplier(5); got != 1 {
		t.Errorf("5 份单雷包倍数 = %d, want 1", got)
	}
	if got := BombPenaltyMultiplier(10); got != 2 {
		t.Errorf("10 份双雷包倍数 = %d, want 2", got)
	}
}

func TestBombPenalty(t *testing.T) {
	// 领取落库后的状态：5 份已领 2 份，剩余 600
	packet := bombPacket(5, 0)
	packet.TotalAmount = 1000
	packet.ClaimedCount = 2
	packet.ClaimedAmount = 400
	claim := &models.Claim{Amount: 200}

	// 基数 = 剩余 600 + 本份 200 = 800，单雷 1 倍
	if got := BombPenalty(packet, claim); got != 800 {
		t.Errorf("BombPenalty() = %d, want 800", got)
	}

	// 双雷包 2 倍
	double := bombPacket(10, 0)
	double.TotalAmount = 2000
	double.ClaimedCount = 10
	double.ClaimedAmount = 2000
	lastClaim := &models.Claim{Amount: 200}

	// 领完时基数 = 剩余 0 + 本份 200，双雷 2 倍
	if got := BombPenalty(double, lastClaim); got != 400 {
		t.Errorf("BombPenalty() = %d, want 400", got)
	}
}

func TestBombScenario_FixedAllSafe(t *testing.T) {
	// 10.00 USDT 分 5 份固定红包，每份 2.00，末位 0 != 炸弹数字 5，全员安全
	alloc := NewAllocator()
	shares, err := alloc.Allocate(1000, 5, models.ModeFixed)
	if err != nil {
		t.Fatalf("Allocate 返回错误: %v", err)
	}

	packet := bombPacket(5, 5)
	for _, share := range shares {
		claim := &models.Claim{Amount: share}
		if got := ResolveBomb(packet, claim); got != models.OutcomeSafe {
			t.Errorf("份额 %d 判定 = %s, want safe", share, got)
		}
	}
}

func TestBombScenario_DoubleBombPacket(t *testing.T) {
	// 20.00 USDT 分 10 份，每份 2.00 末位 0，判定逻辑与份数无关，
	// 但 10 份红包适用双倍赔付
	alloc := NewAllocator()
	shares, err := alloc.Allocate(2000, 10, models.ModeFixed)
	if err != nil {
		t.Fatalf("Allocate 返回错误: %v", err)
	}

	packet := bombPacket(10, 3)
	for _, share := range shares {
		if share != 200 {
			t.Fatalf("每份应为 200，实际 %d", share)
		}
		claim := &models.Claim{Amount: share}
		if got := ResolveBomb(packet, claim); got != models.OutcomeSafe {
			t.Errorf("份额 %d 判定 = %s, want safe", share, got)
		}
	}

	if BombPenaltyMultiplier(packet.Quantity) != 2 {
		t.Error("10 份红包应适用双倍赔付")
	}
	if BombPenaltyMultiplier(5) == BombPenaltyMultiplier(10) {
		t.Error("5 份与 10 份红包的赔付倍数应不同")
	}
}
