// Package models 币种定义与金额换算
package models

import (
	"errors"

	"github.com/shopspring/decimal"
)

// 支持的币种
const (
	CurrencyUSDT   = "usdt"
	CurrencyTON    = "ton"
	CurrencyStars  = "stars"
	CurrencyPoints = "points"
)

var (
	ErrUnknownCurrency  = errors.New("不支持的币种")
	ErrBadAmountFormat  = errors.New("金额格式错误")
	ErrPrecisionTooFine = errors.New("金额精度超出币种限制")
)

// currencyPrecision 各币种小数位数（Stars 和积分为整数币种）
var currencyPrecision = map[string]int32{
	CurrencyUSDT:   2,
	CurrencyTON:    2,
	CurrencyStars:  0,
	CurrencyPoints: 0,
}

// IsValidCurrency 判断币种是否受支持
func IsValidCurrency(currency string) bool {
	_, ok := currencyPrecision[currency]
	return ok
}

// CurrencyPrecision 获取币种小数位数
func CurrencyPrecision(currency string) (int32, error) {
	prec, ok := currencyPrecision[currency]
	if !ok {
		return 0, ErrUnknownCurrency
	}
	return prec, nil
}

// ParseAmount 解析显示金额字符串为最小单位整数
// 例如 usdt "10.00" -> 1000，stars "50" -> 50
func ParseAmount(s, currency string) (int64, error) {
	prec, err := CurrencyPrecision(currency)
	if err != nil {
		return 0, err
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrBadAmountFormat
	}

	shifted := d.Shift(prec)
	if !shifted.IsInteger() {
		return 0, ErrPrecisionTooFine
	}

	return shifted.IntPart(), nil
}

// FormatAmount 最小单位整数转显示金额字符串
// 例如 usdt 1000 -> "10.00"
func FormatAmount(amount int64, currency string) string {
	prec, err := CurrencyPrecision(currency)
	if err != nil {
		return decimal.NewFromInt(amount).String()
	}
	return decimal.New(amount, -prec).StringFixed(prec)
}
