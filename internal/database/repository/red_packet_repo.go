// Package repository 红包数据仓库
package repository

import (
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/smysle/sakura-redpacket-go/internal/database"
	"github.com/smysle/sakura-redpacket-go/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 领取时仓库层的拒绝原因，由服务层映射为业务错误
var (
	ErrPacketMissing   = errors.New("红包记录不存在")
	ErrPacketExpired   = errors.New("红包已过期")
	ErrPacketDepleted  = errors.New("红包份额已抢完")
	ErrDuplicateClaim  = errors.New("重复领取")
	ErrReserveConflict = errors.New("份额占用冲突")
)

// mysqlDuplicateEntry MySQL 唯一索引冲突错误码
const mysqlDuplicateEntry = 1062

// RedPacketRepository 红包仓库，领取状态的唯一写入口
type RedPacketRepository struct {
	db *gorm.DB
}

// NewRedPacketRepository 创建红包仓库
func NewRedPacketRepository() *RedPacketRepository {
	return &RedPacketRepository{db: database.GetDB()}
}

// Create 创建红包
func (r *RedPacketRepository) Create(packet *models.RedPacket) error {
	return r.db.Create(packet).Error
}

// GetByPacketID 根据红包 ID 获取红包
func (r *RedPacketRepository) GetByPacketID(packetID string) (*models.RedPacket, error) {
	var packet models.RedPacket
	err := r.db.Where("packet_id = ?", packetID).First(&packet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPacketMissing
		}
		return nil, err
	}
	return &packet, nil
}

// ListByDestination 按投放目标获取红包，最新在前
func (r *RedPacketRepository) ListByDestination(destination string, limit int) ([]models.RedPacket, error) {
	var packets []models.RedPacket
	err := r.db.Where("destination = ?", destination).
		Order("created_at DESC").Limit(limit).Find(&packets).Error
	return packets, err
}

// ReserveAndRecord 原子占用一个份额并写入领取流水
//
// 行锁保证同一红包的领取串行化，条件更新保证 claimed_count 只在读取值
// 未变时前进一格，(packet_id, claimer_tg) 唯一索引兜底防止同一用户领取两次。
// 领完最后一份的那条 UPDATE 同时把状态置为 depleted，不存在"看似 active
// 却无份额"的窗口。任何拒绝都会整体回滚，不留下孤立的占用。
func (r *RedPacketRepository) ReserveAndRecord(packetID string, claimerTG int64, claimerName string) (*models.Claim, error) {
	var claim *models.Claim

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var packet models.RedPacket
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("packet_id = ?", packetID).First(&packet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPacketMissing
			}
			return err
		}

		if packet.Status == models.StatusExpired || packet.IsExpired() {
			return ErrPacketExpired
		}
		if packet.Status == models.StatusDepleted || packet.IsDepleted() {
			return ErrPacketDepleted
		}

		// 先查重，让重复领取不消耗份额
		var dup int64
		if err := tx.Model(&models.Claim{}).
			Where("packet_id = ? AND claimer_tg = ?", packetID, claimerTG).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return ErrDuplicateClaim
		}

		shareIndex := packet.ClaimedCount
		if shareIndex >= len(packet.Shares) {
			return ErrPacketDepleted
		}
		amount := packet.Shares[shareIndex]

		newStatus := models.StatusActive
		if shareIndex+1 == packet.Quantity {
			newStatus = models.StatusDepleted
		}

		res := tx.Model(&models.RedPacket{}).
			Where("packet_id = ? AND status = ? AND claimed_count = ?",
				packetID, models.StatusActive, shareIndex).
			Updates(map[string]interface{}{
				"claimed_count":  gorm.Expr("claimed_count + 1"),
				"claimed_amount": gorm.Expr("claimed_amount + ?", amount),
				"status":         newStatus,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrReserveConflict
		}

		c := &models.Claim{
			PacketID:    packetID,
			ClaimerTG:   claimerTG,
			ClaimerName: claimerName,
			ShareIndex:  shareIndex,
			Amount:      amount,
			ClaimedAt:   time.Now(),
		}
		if err := tx.Create(c).Error; err != nil {
			var mysqlErr *mysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
				return ErrDuplicateClaim
			}
			return err
		}

		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// SetExpired 设置红包为已过期（仅 active 状态可转移，不可逆）
// 返回值表示本次调用是否真正完成了状态转移
func (r *RedPacketRepository) SetExpired(packetID string) (bool, error) {
	res := r.db.Model(&models.RedPacket{}).
		Where("packet_id = ? AND status = ?", packetID, models.StatusActive).
		Update("status", models.StatusExpired)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GetExpiredPackets 获取超时未领完的红包
func (r *RedPacketRepository) GetExpiredPackets() ([]models.RedPacket, error) {
	var packets []models.RedPacket
	err := r.db.Where("status = ? AND expires_at < ?", models.StatusActive, time.Now()).
		Find(&packets).Error
	return packets, err
}
