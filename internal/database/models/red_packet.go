// Package models 红包数据模型
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// 红包模式
const (
	ModeRandom = "random" // 拼手气红包
	ModeFixed  = "fixed"  // 固定金额红包（炸弹玩法基于此模式）
)

// 红包状态
const (
	StatusActive   = "active"   // 待领取
	StatusDepleted = "depleted" // 已领完
	StatusExpired  = "expired"  // 已过期
)

// 炸弹判定结果
const (
	OutcomeSafe = "safe" // 安全
	OutcomeBomb = "bomb" // 踩雷
)

// 公开红包的 destination 取值
const DestinationPublic = "public"

// ShareList 份额序列（最小单位），按领取顺序存储
type ShareList []int64

// Value 实现 driver.Valuer，序列化为 JSON 存库
func (s ShareList) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (s *ShareList) Scan(value interface{}) error {
	if value == nil {
		*s = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("shares 字段类型不支持")
	}
}

// Sum 份额总和
func (s ShareList) Sum() int64 {
	var total int64
	for _, v := range s {
		total += v
	}
	return total
}

// RedPacket 红包表
type RedPacket struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PacketID      string    `gorm:"column:packet_id;size:36;uniqueIndex" json:"packet_id"` // 红包唯一标识
	CreatorTG     int64     `gorm:"column:creator_tg;index" json:"creator_tg"`             // 发送者 TG ID
	CreatorName   string    `gorm:"column:creator_name;size:255" json:"creator_name"`      // 发送者名称
	Currency      string    `gorm:"column:currency;size:10" json:"currency"`               // 币种
	TotalAmount   int64     `gorm:"column:total_amount" json:"total_amount"`               // 总金额（最小单位）
	Quantity      int       `gorm:"column:quantity" json:"quantity"`                       // 总份数
	Mode          string    `gorm:"column:mode;size:10;default:'random'" json:"mode"`      // 模式: random, fixed
	BombNumber    *int      `gorm:"column:bomb_number" json:"bomb_number,omitempty"`       // 炸弹数字 0-9，仅 fixed 模式
	Message       string    `gorm:"column:message;size:500" json:"message"`                // 祝福语
	Destination   string    `gorm:"column:destination;size:64;index" json:"destination"`   // 群组 ID / 用户 ID / public
	Shares        ShareList `gorm:"column:shares;type:text" json:"-"`                      // 预分配份额序列
	ClaimedCount  int       `gorm:"column:claimed_count" json:"claimed_count"`             // 已领取份数
	ClaimedAmount int64     `gorm:"column:claimed_amount" json:"claimed_amount"`           // 已领取金额
	Status        string    `gorm:"column:status;size:20;default:'active'" json:"status"`  // 状态: active, depleted, expired
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
	ExpiresAt     time.Time `gorm:"column:expires_at" json:"expires_at"`
}

// TableName 表名
func (RedPacket) TableName() string {
	return "red_packets"
}

// IsExpired 是否已过期
func (p *RedPacket) IsExpired() bool {
	return time.Now().After(p.ExpiresAt)
}

// IsDepleted 是否已领完
func (p *RedPacket) IsDepleted() bool {
	return p.ClaimedCount >= p.Quantity
}

// IsBomb 是否炸弹红包
func (p *RedPacket) IsBomb() bool {
	return p.Mode == ModeFixed && p.BombNumber != nil
}

// RemainingCount 剩余份数
func (p *RedPacket) RemainingCount() int {
	return p.Quantity - p.ClaimedCount
}

// RemainingAmount 剩余金额（最小单位）
func (p *RedPacket) RemainingAmount() int64 {
	return p.TotalAmount - p.ClaimedAmount
}

// Claim 红包领取记录表，只增不改（审计流水）
type Claim struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PacketID    string    `gorm:"column:packet_id;size:36;uniqueIndex:uk_packet_claimer;index" json:"packet_id"`
	ClaimerTG   int64     `gorm:"column:claimer_tg;uniqueIndex:uk_packet_claimer;index" json:"claimer_tg"` // 领取者 TG ID
	ClaimerName string    `gorm:"column:claimer_name;size:255" json:"claimer_name"`                        // 领取者名称
	ShareIndex  int       `gorm:"column:share_index" json:"share_index"`                                   // 份额序号，按到达顺序 0..quantity-1
	Amount      int64     `gorm:"column:amount" json:"amount"`                                             // 领取金额（最小单位）
	Outcome     string    `gorm:"column:outcome;size:10" json:"outcome,omitempty"`                         // safe / bomb，非炸弹红包为空
	IsLucky     bool      `gorm:"column:is_lucky;default:false" json:"is_lucky"`                           // 是否手气最佳
	ClaimedAt   time.Time `gorm:"column:claimed_at" json:"claimed_at"`
}

// TableName 表名
func (Claim) TableName() string {
	return "red_packet_claims"
}

// LastDigit 领取金额最小单位的末位数字（炸弹判定用）
func (c *Claim) LastDigit() int {
	return int(c.Amount % 10)
}
