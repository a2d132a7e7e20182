// Package repository 领取流水仓库
package repository

import (
	"errors"

	"github.com/smysle/sakura-redpacket-go/internal/database"
	"github.com/smysle/sakura-redpacket-go/internal/database/models"
	"gorm.io/gorm"
)

// ClaimRepository 领取流水仓库，只增不改
type ClaimRepository struct {
	db *gorm.DB
}

// NewClaimRepository 创建领取流水仓库
func NewClaimRepository() *ClaimRepository {
	return &ClaimRepository{db: database.GetDB()}
}

// HasClaimed 检查用户是否已领取
func (r *ClaimRepository) HasClaimed(packetID string, claimerTG int64) bool {
	var count int64
	r.db.Model(&models.Claim{}).
		Where("packet_id = ? AND claimer_tg = ?", packetID, claimerTG).
		Count(&count)
	return count > 0
}

// GetByPacketAndClaimer 获取指定用户的领取记录
func (r *ClaimRepository) GetByPacketAndClaimer(packetID string, claimerTG int64) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.Where("packet_id = ? AND claimer_tg = ?", packetID, claimerTG).
		First(&claim).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &claim, nil
}

// ListByPacket 获取红包的所有领取记录，按领取时间升序
func (r *ClaimRepository) ListByPacket(packetID string) ([]models.Claim, error) {
	var claims []models.Claim
	err := r.db.Where("packet_id = ?", packetID).
		Order("share_index ASC").Find(&claims).Error
	return claims, err
}

// CountByPacket 统计红包领取份数
func (r *ClaimRepository) CountByPacket(packetID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Claim{}).
		Where("packet_id = ?", packetID).Count(&count).Error
	return count, err
}

// GetLuckyClaim 获取金额最大的领取记录（手气最佳）
func (r *ClaimRepository) GetLuckyClaim(packetID string) (*models.Claim, error) {
	var claim models.Claim
	err := r.db.Where("packet_id = ?", packetID).
		Order("amount DESC, share_index ASC").First(&claim).Error
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

// MarkLucky 标记手气最佳记录
func (r *ClaimRepository) MarkLucky(claimID uint) error {
	return r.db.Model(&models.Claim{}).
		Where("id = ?", claimID).
		Update("is_lucky", true).Error
}

// SetOutcome 补写炸弹判定结果（领取流水落库后评估，可从历史重放）
func (r *ClaimRepository) SetOutcome(claimID uint, outcome string) error {
	return r.db.Model(&models.Claim{}).
		Where("id = ?", claimID).
		Update("outcome", outcome).Error
}
