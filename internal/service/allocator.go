// Package service 红包份额分配
package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/smysle/sakura-redpacket-go/internal/database/models"
)

// Allocator 红包份额分配器，随机源可注入以便测试复现
type Allocator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAllocator 创建份额分配器
func NewAllocator() *Allocator {
	return NewAllocatorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewAllocatorWithSource 使用指定随机源创建份额分配器
func NewAllocatorWithSource(src rand.Source) *Allocator {
	return &Allocator{rng: rand.New(src)}
}

// Allocate 计算份额序列（最小单位整数运算，无浮点误差）
//
// random 模式按二倍均值法逐份抽取，末份取剩余全部，总和恒等于 totalAmount；
// fixed 模式等分，除不尽在创建时即失败，因为炸弹判定依赖所有人金额固定且相同。
func (a *Allocator) Allocate(totalAmount int64, quantity int, mode string) (models.ShareList, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	if totalAmount <= 0 || totalAmount < int64(quantity) {
		// 每份至少 1 最小单位
		return nil, ErrInvalidAmount
	}

	switch mode {
	case models.ModeFixed:
		if totalAmount%int64(quantity) != 0 {
			return nil, ErrInvalidAmount
		}
		share := totalAmount / int64(quantity)
		shares := make(models.ShareList, quantity)
		for i := range shares {
			shares[i] = share
		}
		return shares, nil

	case models.ModeRandom:
		return a.allocateRandom(totalAmount, quantity), nil

	default:
		return nil, ErrInvalidMode
	}
}

// allocateRandom 二倍均值法
func (a *Allocator) allocateRandom(totalAmount int64, quantity int) models.ShareList {
	a.mu.Lock()
	defer a.mu.Unlock()

	shares := make(models.ShareList, quantity)
	remaining := totalAmount

	for i := 0; i < quantity-1; i++ {
		left := int64(quantity - i) // 含当前份

		// 上限为剩余均值的 2 倍，最小 1
		max := remaining / left * 2
		if max < 1 {
			max = 1
		}
		amount := a.rng.Int63n(max) + 1

		// 保证后面每份至少能分到 1 最小单位
		if remaining-amount < left-1 {
			amount = remaining - (left - 1)
		}

		shares[i] = amount
		remaining -= amount
	}

	// 末份取剩余全部，总和与 totalAmount 严格相等
	shares[quantity-1] = remaining
	return shares
}
