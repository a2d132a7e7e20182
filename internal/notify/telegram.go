// Package notify 领取事件通知
package notify

import (
	"bytes"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/smysle/sakura-redpacket-go/internal/config"
	"github.com/smysle/sakura-redpacket-go/internal/database/models"
	"github.com/smysle/sakura-redpacket-go/internal/service"
	"github.com/smysle/sakura-redpacket-go/pkg/imggen"
	"github.com/smysle/sakura-redpacket-go/pkg/logger"
	"github.com/smysle/sakura-redpacket-go/pkg/utils"
)

// TelegramNotifier 群组通知器，把领取事件播报到配置的群组
type TelegramNotifier struct {
	bot *tele.Bot
	cfg *config.BotConfig
}

// NewTelegramNotifier 创建群组通知器
func NewTelegramNotifier(cfg *config.BotConfig) (*TelegramNotifier, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error().Err(err).Msg("Bot 错误")
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return &TelegramNotifier{bot: b, cfg: cfg}, nil
}

// Bot 暴露底层 Bot 实例（调度器报告用）
func (n *TelegramNotifier) Bot() *tele.Bot {
	return n.bot
}

// Start 启动长轮询（阻塞）
func (n *TelegramNotifier) Start() {
	logger.Info().Str("bot", n.cfg.BotName).Msg("Bot 启动中...")
	n.bot.Start()
}

// Stop 停止 Bot
func (n *TelegramNotifier) Stop() {
	logger.Info().Msg("Bot 停止中...")
	n.bot.Stop()
}

// OnClaim 播报单次领取；通知失败只记日志
func (n *TelegramNotifier) OnClaim(packet *models.RedPacket, claim *models.Claim, result *service.ClaimResult) {
	if n.cfg.GroupID == 0 {
		return
	}

	var text string
	if result.Outcome == models.OutcomeBomb {
		text = fmt.Sprintf(
			"💥 [%s](tg://user?id=%d) 抢到 %s %s，踩中炸弹！\n"+
				"赔付 %s %s",
			claim.ClaimerName, claim.ClaimerTG,
			result.AmountText, currencyLabel(packet.Currency),
			models.FormatAmount(result.Penalty, packet.Currency), currencyLabel(packet.Currency),
		)
	} else {
		text = fmt.Sprintf(
			"🧧 [%s](tg://user?id=%d) 领取了 %s 的红包，获得 %s %s",
			claim.ClaimerName, claim.ClaimerTG,
			packet.CreatorName,
			result.AmountText, currencyLabel(packet.Currency),
		)
		if result.IsLucky {
			text += "\n👑 手气最佳！"
		}
	}

	chat := &tele.Chat{ID: n.cfg.GroupID}
	if _, err := n.bot.Send(chat, text, tele.ModeMarkdown); err != nil {
		logger.Warn().Err(err).Str("packet_id", packet.PacketID).Msg("播报领取消息失败")
	}
}

// OnDepleted 红包抢完后发送结算卡片
func (n *TelegramNotifier) OnDepleted(packet *models.RedPacket, claims []models.Claim) {
	if n.cfg.GroupID == 0 {
		return
	}

	entries := make([]imggen.ClaimEntry, 0, len(claims))
	for i, c := range claims {
		entries = append(entries, imggen.ClaimEntry{
			Rank:       i + 1,
			Name:       utils.TruncateName(c.ClaimerName, 16),
			AmountText: models.FormatAmount(c.Amount, packet.Currency),
			IsLucky:    c.IsLucky,
			IsBomb:     c.Outcome == models.OutcomeBomb,
		})
	}

	card := imggen.CardConfig{
		Title: fmt.Sprintf("%s 的红包已抢完", packet.CreatorName),
		Subtitle: fmt.Sprintf("%s %s · %d 份",
			models.FormatAmount(packet.TotalAmount, packet.Currency),
			currencyLabel(packet.Currency), packet.Quantity),
		Message:     packet.Message,
		IsBombGame:  packet.IsBomb(),
		Entries:     entries,
		GeneratedAt: utils.TimeNowCST(),
	}

	chat := &tele.Chat{ID: n.cfg.GroupID}

	data, err := imggen.GenerateClaimCard(card)
	if err != nil {
		logger.Warn().Err(err).Str("packet_id", packet.PacketID).Msg("生成结算卡片失败")
		// 卡片失败时退化为纯文本
		if _, serr := n.bot.Send(chat, card.Title); serr != nil {
			logger.Warn().Err(serr).Msg("发送结算消息失败")
		}
		return
	}

	photo := &tele.Photo{File: tele.FromReader(bytes.NewReader(data)), Caption: card.Title}
	if _, err := n.bot.Send(chat, photo); err != nil {
		logger.Warn().Err(err).Str("packet_id", packet.PacketID).Msg("发送结算卡片失败")
	}
}

// currencyLabel 币种展示名
func currencyLabel(currency string) string {
	switch currency {
	case models.CurrencyUSDT:
		return "USDT"
	case models.CurrencyTON:
		return "TON"
	case models.CurrencyStars:
		return "Stars"
	case models.CurrencyPoints:
		return "积分"
	default:
		return currency
	}
}
