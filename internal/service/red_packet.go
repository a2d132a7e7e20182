// Package service 红包引擎
package service

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smysle/sakura-redpacket-go/internal/config"
	"github.com/smysle/sakura-redpacket-go/internal/database/models"
	"github.com/smysle/sakura-redpacket-go/internal/database/repository"
	"github.com/smysle/sakura-redpacket-go/pkg/logger"
	"github.com/smysle/sakura-redpacket-go/pkg/utils"
)

var (
	ErrRedPacketDisabled   = errors.New("红包功能已关闭")
	ErrBombDisabled        = errors.New("炸弹红包功能已关闭")
	ErrInvalidAmount       = errors.New("无效的金额")
	ErrInvalidQuantity     = errors.New("无效的个数")
	ErrInvalidMode         = errors.New("无效的红包模式")
	ErrInvalidBombNumber   = errors.New("无效的炸弹数字")
	ErrCurrencyNotAllowed  = errors.New("该币种未开放发红包")
	ErrInsufficientBalance = errors.New("余额不足")
	ErrPacketNotFound      = errors.New("红包不存在")
	ErrPacketExpired       = errors.New("红包已过期")
	ErrPacketDepleted      = errors.New("红包已被抢完")
	ErrAlreadyClaimed      = errors.New("您已领取过此红包")
)

// PacketStore 红包存取入口，ReserveAndRecord 是领取状态的唯一变更点
type PacketStore interface {
	Create(packet *models.RedPacket) error
	GetByPacketID(packetID string) (*models.RedPacket, error)
	ListByDestination(destination string, limit int) ([]models.RedPacket, error)
	ReserveAndRecord(packetID string, claimerTG int64, claimerName string) (*models.Claim, error)
	SetExpired(packetID string) (bool, error)
	GetExpiredPackets() ([]models.RedPacket, error)
}

// ClaimLedger 领取流水，只增不改
type ClaimLedger interface {
	GetByPacketAndClaimer(packetID string, claimerTG int64) (*models.Claim, error)
	ListByPacket(packetID string) ([]models.Claim, error)
	GetLuckyClaim(packetID string) (*models.Claim, error)
	MarkLucky(claimID uint) error
	SetOutcome(claimID uint, outcome string) error
}

// Notifier 领取事件观察者，只观察不参与正确性
type Notifier interface {
	OnClaim(packet *models.RedPacket, claim *models.Claim, result *ClaimResult)
	OnDepleted(packet *models.RedPacket, claims []models.Claim)
}

// lockStripes 按红包 ID 分片的互斥锁数量
const lockStripes = 64

// RedPacketService 红包引擎
type RedPacketService struct {
	store     PacketStore
	ledger    ClaimLedger
	settle    Settlement
	cfg       *config.Config
	alloc     *Allocator
	notifiers []Notifier
	locks     [lockStripes]sync.Mutex
}

// NewRedPacketService 创建红包引擎
func NewRedPacketService() *RedPacketService {
	return &RedPacketService{
		store:  repository.NewRedPacketRepository(),
		ledger: repository.NewClaimRepository(),
		settle: NewSettlementService(),
		cfg:    config.Get(),
		alloc:  NewAllocator(),
	}
}

// AddNotifier 注册领取事件观察者
func (s *RedPacketService) AddNotifier(n Notifier) {
	s.notifiers = append(s.notifiers, n)
}

// lockFor 获取红包对应的分片锁；不同红包之间完全独立
func (s *RedPacketService) lockFor(packetID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(packetID))
	return &s.locks[h.Sum32()%lockStripes]
}

// CreatePacketRequest 创建红包请求
type CreatePacketRequest struct {
	CreatorTG   int64
	CreatorName string
	Currency    string
	TotalAmount int64 // 最小单位
	Quantity    int
	Mode        string // random, fixed
	BombNumber  *int   // 仅 fixed 模式
	Message     string
	Destination string // 群组 ID / 用户 ID / public
}

// CreatePacketResult 创建红包结果
type CreatePacketResult struct {
	PacketID    string    `json:"packet_id"`
	TotalAmount int64     `json:"total_amount"`
	AmountText  string    `json:"amount"`
	Currency    string    `json:"currency"`
	Quantity    int       `json:"quantity"`
	Mode        string    `json:"mode"`
	Message     string    `json:"message"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// CreatePacket 创建红包
//
// random 模式在创建时预分配全部份额；fixed 模式等分，炸弹玩法基于此。
// 创建成功前先从发送者钱包扣款，落库失败则退回。
func (s *RedPacketService) CreatePacket(req *CreatePacketRequest) (*CreatePacketResult, error) {
	if !s.cfg.RedPacket.Enabled {
		return nil, ErrRedPacketDisabled
	}

	// 验证参数
	if !models.IsValidCurrency(req.Currency) || !s.cfg.IsCurrencyAllowed(req.Currency) {
		return nil, ErrCurrencyNotAllowed
	}
	if req.Quantity < 1 || req.Quantity > s.cfg.RedPacket.MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	if req.TotalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	if req.Mode != models.ModeRandom && req.Mode != models.ModeFixed {
		return nil, ErrInvalidMode
	}

	// 炸弹红包限定 fixed 模式、数字 0-9、份数 5 或 10
	if req.BombNumber != nil {
		if !s.cfg.RedPacket.AllowBomb {
			return nil, ErrBombDisabled
		}
		if req.Mode != models.ModeFixed {
			return nil, ErrInvalidMode
		}
		if *req.BombNumber < 0 || *req.BombNumber > 9 {
			return nil, ErrInvalidBombNumber
		}
		if req.Quantity != 5 && req.Quantity != 10 {
			return nil, ErrInvalidQuantity
		}
	}

	// 预分配份额
	shares, err := s.alloc.Allocate(req.TotalAmount, req.Quantity, req.Mode)
	if err != nil {
		return nil, err
	}

	// 扣除发送者余额
	if err := s.settle.FundPacket(req.CreatorTG, req.Currency, req.TotalAmount); err != nil {
		return nil, err
	}

	message := req.Message
	if message == "" {
		message = "恭喜发财，大吉大利！"
	}
	destination := req.Destination
	if destination == "" {
		destination = models.DestinationPublic
	}

	packet := &models.RedPacket{
		PacketID:    uuid.New().String(),
		CreatorTG:   req.CreatorTG,
		CreatorName: req.CreatorName,
		Currency:    req.Currency,
		TotalAmount: req.TotalAmount,
		Quantity:    req.Quantity,
		Mode:        req.Mode,
		BombNumber:  req.BombNumber,
		Message:     message,
		Destination: destination,
		Shares:      shares,
		Status:      models.StatusActive,
		CreatedAt:   time.Now(),
		ExpiresAt:   utils.AddHours(time.Now(), s.cfg.RedPacket.ExpireHours),
	}

	if err := s.store.Create(packet); err != nil {
		// 回滚扣款
		if rerr := s.settle.RefundPacket(req.CreatorTG, req.Currency, req.TotalAmount); rerr != nil {
			logger.Error().Err(rerr).Int64("creator", req.CreatorTG).Msg("创建失败后退款失败")
		}
		return nil, fmt.Errorf("创建红包失败: %w", err)
	}

	utils.CacheDelete(utils.PacketListCacheKey(destination))

	logger.Info().
		Str("packet_id", packet.PacketID).
		Int64("creator", req.CreatorTG).
		Str("currency", req.Currency).
		Int64("amount", req.TotalAmount).
		Int("quantity", req.Quantity).
		Str("mode", req.Mode).
		Msg("红包创建成功")

	return &CreatePacketResult{
		PacketID:    packet.PacketID,
		TotalAmount: packet.TotalAmount,
		AmountText:  models.FormatAmount(packet.TotalAmount, packet.Currency),
		Currency:    packet.Currency,
		Quantity:    packet.Quantity,
		Mode:        packet.Mode,
		Message:     packet.Message,
		ExpiresAt:   packet.ExpiresAt,
	}, nil
}

// ClaimResult 领取红包结果
type ClaimResult struct {
	Success        bool   `json:"success"`
	Amount         int64  `json:"amount"`
	AmountText     string `json:"amount_text"`
	Currency       string `json:"currency"`
	ShareIndex     int    `json:"share_index"`
	Outcome        string `json:"outcome,omitempty"` // safe / bomb，非炸弹红包为空
	Penalty        int64  `json:"penalty,omitempty"` // 踩雷赔付金额
	Settled        bool   `json:"settled"`           // 钱包结算是否完成，false 时领取流水在、余额未动，需对账
	IsLucky        bool   `json:"is_lucky"`          // 是否手气最佳（领完时判定）
	IsFinished     bool   `json:"is_finished"`       // 红包是否已领完
	RemainingCount int    `json:"remaining_count"`
	CreatorName    string `json:"creator_name"`
	Message        string `json:"message"`
}

// ClaimPacket 领取红包
//
// 同一红包的领取经分片锁与存储层事务双重串行化，同一用户至多成功一次；
// 重复调用返回 ErrAlreadyClaimed，绝不产生第二条流水。写冲突在内部
// 有限次重试，不会作为业务错误暴露。
func (s *RedPacketService) ClaimPacket(packetID string, claimerTG int64, claimerName string) (*ClaimResult, error) {
	lock := s.lockFor(packetID)
	lock.Lock()
	defer lock.Unlock()

	var claim *models.Claim
	var err error

	retries := s.cfg.RedPacket.ClaimRetries
	for attempt := 0; attempt <= retries; attempt++ {
		claim, err = s.store.ReserveAndRecord(packetID, claimerTG, claimerName)
		if !errors.Is(err, repository.ErrReserveConflict) {
			break
		}
	}

	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPacketMissing):
			return nil, ErrPacketNotFound
		case errors.Is(err, repository.ErrPacketExpired):
			// 补写过期状态，状态转移不可逆；退款交给定时扫描
			if _, serr := s.store.SetExpired(packetID); serr != nil {
				logger.Warn().Err(serr).Str("packet_id", packetID).Msg("补写过期状态失败")
			}
			return nil, ErrPacketExpired
		case errors.Is(err, repository.ErrPacketDepleted):
			return nil, ErrPacketDepleted
		case errors.Is(err, repository.ErrDuplicateClaim):
			return nil, ErrAlreadyClaimed
		case errors.Is(err, repository.ErrReserveConflict):
			// 重试耗尽，按抢完处理
			return nil, ErrPacketDepleted
		default:
			return nil, fmt.Errorf("领取失败: %w", err)
		}
	}

	// 占用成功后读取最新状态（含本次领取与可能的 depleted 转移）
	packet, err := s.store.GetByPacketID(packetID)
	if err != nil {
		return nil, fmt.Errorf("读取红包失败: %w", err)
	}

	result := &ClaimResult{
		Success:        true,
		Settled:        true,
		Amount:         claim.Amount,
		AmountText:     models.FormatAmount(claim.Amount, packet.Currency),
		Currency:       packet.Currency,
		ShareIndex:     claim.ShareIndex,
		IsFinished:     packet.Status == models.StatusDepleted,
		RemainingCount: packet.RemainingCount(),
		CreatorName:    packet.CreatorName,
		Message:        packet.Message,
	}

	// 炸弹判定与结算
	if packet.IsBomb() {
		outcome := ResolveBomb(packet, claim)
		claim.Outcome = outcome
		result.Outcome = outcome
		if err := s.ledger.SetOutcome(claim.ID, outcome); err != nil {
			logger.Error().Err(err).Uint("claim_id", claim.ID).Msg("写入判定结果失败")
		}

		if outcome == models.OutcomeBomb {
			penalty := BombPenalty(packet, claim)
			result.Penalty = penalty
			// 踩雷没收这份金额并赔付
			if err := s.settle.ApplyBombPenalty(claimerTG, packet.CreatorTG, packet.Currency, claim.Amount, penalty); err != nil {
				result.Settled = false
				logger.Error().Err(err).Str("packet_id", packetID).Int64("claimer", claimerTG).Msg("踩雷结算失败，待对账")
			}
		} else {
			if err := s.settle.PayClaim(claimerTG, packet.Currency, claim.Amount); err != nil {
				result.Settled = false
				logger.Error().Err(err).Str("packet_id", packetID).Int64("claimer", claimerTG).Msg("领取入账失败，待对账")
			}
		}
	} else {
		if err := s.settle.PayClaim(claimerTG, packet.Currency, claim.Amount); err != nil {
			result.Settled = false
			logger.Error().Err(err).Str("packet_id", packetID).Int64("claimer", claimerTG).Msg("领取入账失败，待对账")
		}
	}

	// 领完时标记手气最佳（拼手气红包）
	if result.IsFinished && packet.Mode == models.ModeRandom {
		lucky, lerr := s.ledger.GetLuckyClaim(packetID)
		if lerr == nil && lucky != nil {
			if merr := s.ledger.MarkLucky(lucky.ID); merr != nil {
				logger.Warn().Err(merr).Str("packet_id", packetID).Msg("标记手气最佳失败")
			}
			result.IsLucky = lucky.ClaimerTG == claimerTG
		}
	}

	utils.CacheDelete(utils.PacketCacheKey(packetID))
	utils.CacheDelete(utils.PacketListCacheKey(packet.Destination))

	logger.Info().
		Str("packet_id", packetID).
		Int64("claimer", claimerTG).
		Int64("amount", claim.Amount).
		Int("share_index", claim.ShareIndex).
		Str("outcome", result.Outcome).
		Msg("红包领取成功")

	// 观察者的网络 I/O 走独立 goroutine，领取路径不等它
	go s.notifyClaim(packet, claim, result)

	return result, nil
}

// notifyClaim 异步推送领取事件，观察者失败或阻塞不影响主流程
func (s *RedPacketService) notifyClaim(packet *models.RedPacket, claim *models.Claim, result *ClaimResult) {
	if len(s.notifiers) == 0 {
		return
	}

	var claims []models.Claim
	if result.IsFinished {
		claims, _ = s.ledger.ListByPacket(packet.PacketID)
	}

	for _, n := range s.notifiers {
		n.OnClaim(packet, claim, result)
		if result.IsFinished {
			n.OnDepleted(packet, claims)
		}
	}
}

// GetOriginalClaim 获取用户已有的领取记录（重复领取时供上层回显原始金额）
func (s *RedPacketService) GetOriginalClaim(packetID string, claimerTG int64) (*models.Claim, error) {
	return s.ledger.GetByPacketAndClaimer(packetID, claimerTG)
}

// PacketDetail 红包详情
type PacketDetail struct {
	Packet *models.RedPacket `json:"packet"`
	Claims []models.Claim    `json:"claims"`
}

// GetPacket 获取红包详情（含领取记录，短缓存）
func (s *RedPacketService) GetPacket(packetID string) (*PacketDetail, error) {
	cached, err := utils.CacheGetOrSet(utils.PacketCacheKey(packetID), 30*time.Second, func() (interface{}, error) {
		packet, err := s.store.GetByPacketID(packetID)
		if err != nil {
			if errors.Is(err, repository.ErrPacketMissing) {
				return nil, ErrPacketNotFound
			}
			return nil, err
		}
		claims, err := s.ledger.ListByPacket(packetID)
		if err != nil {
			return nil, err
		}
		return &PacketDetail{Packet: packet, Claims: claims}, nil
	})
	if err != nil {
		return nil, err
	}
	return cached.(*PacketDetail), nil
}

// PacketSummary 红包列表条目
type PacketSummary struct {
	PacketID    string    `json:"id"`
	Currency    string    `json:"currency"`
	AmountText  string    `json:"amount"`
	Quantity    int       `json:"quantity"`
	Remaining   int       `json:"remaining"`
	Mode        string    `json:"mode"`
	IsBomb      bool      `json:"is_bomb"`
	Status      string    `json:"status"`
	CreatorName string    `json:"creator_name"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ListPackets 按投放目标列出红包（短缓存，领取时失效）
func (s *RedPacketService) ListPackets(destination string, limit int) ([]PacketSummary, error) {
	if destination == "" {
		destination = models.DestinationPublic
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cached, err := utils.CacheGetOrSet(utils.PacketListCacheKey(destination), 10*time.Second, func() (interface{}, error) {
		packets, err := s.store.ListByDestination(destination, limit)
		if err != nil {
			return nil, err
		}

		summaries := make([]PacketSummary, 0, len(packets))
		for i := range packets {
			p := &packets[i]
			summaries = append(summaries, PacketSummary{
				PacketID:    p.PacketID,
				Currency:    p.Currency,
				AmountText:  models.FormatAmount(p.TotalAmount, p.Currency),
				Quantity:    p.Quantity,
				Remaining:   p.RemainingCount(),
				Mode:        p.Mode,
				IsBomb:      p.IsBomb(),
				Status:      p.Status,
				CreatorName: p.CreatorName,
				Message:     p.Message,
				CreatedAt:   p.CreatedAt,
				ExpiresAt:   p.ExpiresAt,
			})
		}
		return summaries, nil
	})
	if err != nil {
		return nil, err
	}
	return cached.([]PacketSummary), nil
}

// SweepResult 过期扫描结果
type SweepResult struct {
	Checked  int
	Expired  int
	Refunded int
}

// ExpireSweep 过期扫描：标记超时红包并退回未领取余额
func (s *RedPacketService) ExpireSweep() (*SweepResult, error) {
	packets, err := s.store.GetExpiredPackets()
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Checked: len(packets)}
	for i := range packets {
		p := &packets[i]

		// 状态转移有 active 守卫，只有真正完成转移的这一次负责退款
		moved, err := s.store.SetExpired(p.PacketID)
		if err != nil {
			logger.Warn().Err(err).Str("packet_id", p.PacketID).Msg("标记过期失败")
			continue
		}
		if !moved {
			continue
		}
		result.Expired++

		// 转移之后不再有新领取，重新读取拿到最终已领金额
		final, err := s.store.GetByPacketID(p.PacketID)
		if err != nil {
			logger.Error().Err(err).Str("packet_id", p.PacketID).Msg("读取过期红包失败")
			continue
		}

		remaining := final.RemainingAmount()
		if remaining > 0 {
			if err := s.settle.RefundPacket(final.CreatorTG, final.Currency, remaining); err != nil {
				logger.Error().Err(err).Str("packet_id", final.PacketID).Msg("过期退款失败")
				continue
			}
			result.Refunded++
		}

		utils.CacheDelete(utils.PacketCacheKey(final.PacketID))
		utils.CacheDelete(utils.PacketListCacheKey(final.Destination))
	}

	return result, nil
}
