// Package service 炸弹红包判定
package service

import (
	"github.com/smysle/sakura-redpacket-go/internal/database/models"
)

// ResolveBomb 判定领取结果，纯函数不落库
//
// 仅 fixed 模式且设置了炸弹数字的红包参与判定；领取金额最小单位末位
// 等于炸弹数字即踩雷。在领取流水落库之后评估，结果可以单凭历史重放。
func ResolveBomb(packet *models.RedPacket, claim *models.Claim) string {
	if !packet.IsBomb() {
		return models.OutcomeSafe
	}
	if claim.LastDigit() == *packet.BombNumber {
		return models.OutcomeBomb
	}
	return models.OutcomeSafe
}

// BombPenaltyMultiplier 踩雷赔付倍数
// 5 份为单雷包赔 1 倍，10 份为双雷包赔 2 倍
func BombPenaltyMultiplier(quantity int) int64 {
	if quantity >= 10 {
		return 2
	}
	return 1
}

// BombPenalty 赔付金额（最小单位）
//
// 基数为领取时刻红包的剩余价值（packet 为领取落库后的状态，
// 领到的这份计回基数），乘以份数对应的赔付倍数。
func BombPenalty(packet *models.RedPacket, claim *models.Claim) int64 {
	base := packet.RemainingAmount() + claim.Amount
	return base * BombPenaltyMultiplier(packet.Quantity)
}
