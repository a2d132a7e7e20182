// Package notify 领取事件通知
package notify

import (
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/smysle/sakura-redpacket-go/internal/config"
	"github.com/smysle/sakura-redpacket-go/internal/database/models"
	"github.com/smysle/sakura-redpacket-go/internal/service"
	"github.com/smysle/sakura-redpacket-go/pkg/logger"
)

// WebhookNotifier 把领取事件以 JSON POST 推送到外部系统
type WebhookNotifier struct {
	client *resty.Client
	cfg    *config.WebhookConfig
}

// NewWebhookNotifier 创建 Webhook 通知器
func NewWebhookNotifier(cfg *config.WebhookConfig) *WebhookNotifier {
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetRetryCount(2)
	client.SetRetryWaitTime(3 * time.Second)

	return &WebhookNotifier{client: client, cfg: cfg}
}

// ClaimEvent 领取事件载荷
type ClaimEvent struct {
	Event       string `json:"event"` // claim / depleted
	PacketID    string `json:"packet_id"`
	CreatorTG   int64  `json:"creator_tg"`
	ClaimerTG   int64  `json:"claimer_tg,omitempty"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount,omitempty"`
	Outcome     string `json:"outcome,omitempty"`
	Penalty     int64  `json:"penalty,omitempty"`
	IsLucky     bool   `json:"is_lucky,omitempty"`
	ClaimedAll  bool   `json:"claimed_all"`
	OccurredAt  string `json:"occurred_at"`
}

// OnClaim 推送领取事件
func (n *WebhookNotifier) OnClaim(packet *models.RedPacket, claim *models.Claim, result *service.ClaimResult) {
	n.dispatch(&ClaimEvent{
		Event:      "claim",
		PacketID:   packet.PacketID,
		CreatorTG:  packet.CreatorTG,
		ClaimerTG:  claim.ClaimerTG,
		Currency:   packet.Currency,
		Amount:     claim.Amount,
		Outcome:    result.Outcome,
		Penalty:    result.Penalty,
		IsLucky:    result.IsLucky,
		ClaimedAll: result.IsFinished,
		OccurredAt: time.Now().Format(time.RFC3339),
	})
}

// OnDepleted 推送抢完事件
func (n *WebhookNotifier) OnDepleted(packet *models.RedPacket, claims []models.Claim) {
	n.dispatch(&ClaimEvent{
		Event:      "depleted",
		PacketID:   packet.PacketID,
		CreatorTG:  packet.CreatorTG,
		Currency:   packet.Currency,
		ClaimedAll: true,
		OccurredAt: time.Now().Format(time.RFC3339),
	})
}

// dispatch 逐个推送，失败只记日志不重抛
func (n *WebhookNotifier) dispatch(event *ClaimEvent) {
	for _, url := range n.cfg.URLs {
		req := n.client.R().
			SetHeader("Content-Type", "application/json").
			SetBody(event)
		if n.cfg.Secret != "" {
			req.SetHeader("X-Webhook-Secret", n.cfg.Secret)
		}

		resp, err := req.Post(url)
		if err != nil {
			logger.Warn().Err(err).Str("url", url).Str("event", event.Event).Msg("Webhook 推送失败")
			continue
		}
		if resp.StatusCode() >= 300 {
			logger.Warn().
				Int("status", resp.StatusCode()).
				Str("url", url).
				Str("event", event.Event).
				Msg("Webhook 返回异常状态码")
		}
	}
}
