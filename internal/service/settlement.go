// Package service 结算服务
package service

import (
	"errors"

	"github.com/smysle/sakura-redpacket-go/internal/database/repository"
	"github.com/smysle/sakura-redpacket-go/pkg/logger"
)

// Settlement 结算协作方：钱包出入账，核心引擎不直接改余额
type Settlement interface {
	FundPacket(creatorTG int64, currency string, amount int64) error
	RefundPacket(creatorTG int64, currency string, amount int64) error
	PayClaim(claimerTG int64, currency string, amount int64) error
	ApplyBombPenalty(claimerTG, creatorTG int64, currency string, forfeit, penalty int64) error
}

// SettlementService 基于钱包表的结算实现
type SettlementService struct {
	wallets *repository.WalletRepository
}

// NewSettlementService 创建结算服务
func NewSettlementService() *SettlementService {
	return &SettlementService{wallets: repository.NewWalletRepository()}
}

// FundPacket 创建红包时从发送者钱包扣款
func (s *SettlementService) FundPacket(creatorTG int64, currency string, amount int64) error {
	if err := s.wallets.Debit(creatorTG, currency, amount); err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return ErrInsufficientBalance
		}
		return err
	}
	return nil
}

// RefundPacket 过期或创建失败时退回发送者
func (s *SettlementService) RefundPacket(creatorTG int64, currency string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	return s.wallets.Credit(creatorTG, currency, amount)
}

// PayClaim 领取成功后给领取者入账
func (s *SettlementService) PayClaim(claimerTG int64, currency string, amount int64) error {
	return s.wallets.Credit(claimerTG, currency, amount)
}

// ApplyBombPenalty 踩雷结算
//
// 领取者没收这份金额（forfeit 归发包人），再按赔付金额扣款赔给发包人。
// 余额不足时扣到归零，差额记日志不追偿。
func (s *SettlementService) ApplyBombPenalty(claimerTG, creatorTG int64, currency string, forfeit, penalty int64) error {
	if forfeit > 0 {
		if err := s.wallets.Credit(creatorTG, currency, forfeit); err != nil {
			return err
		}
	}

	if penalty <= 0 {
		return nil
	}

	paid := penalty
	err := s.wallets.Debit(claimerTG, currency, penalty)
	if errors.Is(err, repository.ErrInsufficientFunds) {
		// 扣光现有余额
		balance, berr := s.wallets.GetBalance(claimerTG, currency)
		if berr != nil {
			return berr
		}
		paid = balance
		if paid > 0 {
			if err := s.wallets.Debit(claimerTG, currency, paid); err != nil {
				return err
			}
		}
		logger.Warn().
			Int64("claimer", claimerTG).
			Int64("penalty", penalty).
			Int64("paid", paid).
			Str("currency", currency).
			Msg("踩雷赔付余额不足，已扣至归零")
	} else if err != nil {
		return err
	}

	if paid > 0 {
		return s.wallets.Credit(creatorTG, currency, paid)
	}
	return nil
}
