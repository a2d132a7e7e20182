// Package scheduler 定时任务调度
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	tele "gopkg.in/telebot.v3"

	"github.com/smysle/sakura-redpacket-go/internal/config"
	"github.com/smysle/sakura-redpacket-go/internal/service"
	"github.com/smysle/sakura-redpacket-go/pkg/logger"
	"github.com/smysle/sakura-redpacket-go/pkg/utils"
)

// Scheduler 定时任务调度器
type Scheduler struct {
	cron *gocron.Scheduler
	cfg  *config.Config
	svc  *service.RedPacketService
	bot  *tele.Bot
}

var instance *Scheduler

// New 创建调度器
func New(cfg *config.Config, svc *service.RedPacketService) *Scheduler {
	loc, _ := time.LoadLocation("Asia/Shanghai")
	s := gocron.NewScheduler(loc)
	s.SetMaxConcurrentJobs(2, gocron.RescheduleMode)

	instance = &Scheduler{
		cron: s,
		cfg:  cfg,
		svc:  svc,
	}

	return instance
}

// Get 获取调度器实例
func Get() *Scheduler {
	return instance
}

// SetBot 设置 Bot 实例（用于发送报告）
func (s *Scheduler) SetBot(bot *tele.Bot) {
	s.bot = bot
}

// Start 启动调度器
func (s *Scheduler) Start() {
	logger.Info().Msg("启动定时任务调度器")

	s.registerJobs()
	s.cron.StartAsync()
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	logger.Info().Msg("停止定时任务调度器")
	s.cron.Stop()
}

// registerJobs 注册所有定时任务
func (s *Scheduler) registerJobs() {
	cfg := s.cfg.Scheduler

	if cfg.ExpireSweep {
		s.cron.Every(cfg.SweepInterval).Minutes().Do(s.sweepExpired)
		logger.Info().Int("interval_min", cfg.SweepInterval).Msg("已注册: 红包过期扫描任务")
	}
}

// sweepExpired 扫描过期红包并退款
func (s *Scheduler) sweepExpired() {
	logger.Info().Msg("执行定时任务: 红包过期扫描")

	result, err := s.svc.ExpireSweep()
	if err != nil {
		logger.Error().Err(err).Msg("红包过期扫描失败")
		return
	}

	logger.Info().
		Int("checked", result.Checked).
		Int("expired", result.Expired).
		Int("refunded", result.Refunded).
		Msg("红包过期扫描完成")

	// 向 Owner 发送报告
	if s.bot != nil && s.cfg.Owner != 0 && result.Expired > 0 {
		report := fmt.Sprintf(
			"🧧 **红包过期报告**\n\n"+
				"扫描红包: %d\n"+
				"标记过期: %d\n"+
				"完成退款: %d\n"+
				"时间: %s",
			result.Checked,
			result.Expired,
			result.Refunded,
			utils.FormatTimeCST(time.Now(), "2006-01-02 15:04:05"),
		)
		chat := &tele.Chat{ID: s.cfg.Owner}
		s.bot.Send(chat, report, tele.ModeMarkdown)
	}
}

// RunNow 立即执行指定任务（用于调试）
func (s *Scheduler) RunNow(taskName string) error {
	switch taskName {
	case "expire_sweep":
		s.sweepExpired()
	default:
		logger.Warn().Str("task", taskName).Msg("未知任务")
	}
	return nil
}
