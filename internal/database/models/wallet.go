// Package models 钱包数据模型
package models

import (
	"time"
)

// Wallet 用户钱包表，每个 (用户, 币种) 一行，金额为最小单位
type Wallet struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TG        int64     `gorm:"column:tg;uniqueIndex:uk_tg_currency;index" json:"tg"`
	Currency  string    `gorm:"column:currency;size:10;uniqueIndex:uk_tg_currency" json:"currency"`
	Balance   int64     `gorm:"column:balance;default:0" json:"balance"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName 表名
func (Wallet) TableName() string {
	return "wallets"
}
