// Package repository 钱包数据仓库
package repository

import (
	"errors"

	"github.com/smysle/sakura-redpacket-go/internal/database"
	"github.com/smysle/sakura-redpacket-go/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientFunds 余额不足
var ErrInsufficientFunds = errors.New("余额不足")

// WalletRepository 钱包仓库
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository 创建钱包仓库
func NewWalletRepository() *WalletRepository {
	return &WalletRepository{db: database.GetDB()}
}

// GetBalance 查询余额（最小单位），无记录视为 0
func (r *WalletRepository) GetBalance(tg int64, currency string) (int64, error) {
	var wallet models.Wallet
	err := r.db.Where("tg = ? AND currency = ?", tg, currency).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return wallet.Balance, nil
}

// Credit 入账（upsert，余额原子累加）
func (r *WalletRepository) Credit(tg int64, currency string, amount int64) error {
	wallet := models.Wallet{TG: tg, Currency: currency, Balance: amount}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tg"}, {Name: "currency"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance": gorm.Expr("balance + ?", amount),
		}),
	}).Create(&wallet).Error
}

// Debit 出账，余额充足时才扣减（条件更新，杜绝负余额）
func (r *WalletRepository) Debit(tg int64, currency string, amount int64) error {
	res := r.db.Model(&models.Wallet{}).
		Where("tg = ? AND currency = ? AND balance >= ?", tg, currency, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientFunds
	}
	return nil
}
