// Sakura RedPacket - Telegram 红包引擎
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/smysle/sakura-redpacket-go/internal/config"
	"github.com/smysle/sakura-redpacket-go/internal/database"
	"github.com/smysle/sakura-redpacket-go/internal/notify"
	"github.com/smysle/sakura-redpacket-go/internal/scheduler"
	"github.com/smysle/sakura-redpacket-go/internal/service"
	"github.com/smysle/sakura-redpacket-go/internal/web"
	"github.com/smysle/sakura-redpacket-go/pkg/imggen"
	"github.com/smysle/sakura-redpacket-go/pkg/logger"
	"github.com/smysle/sakura-redpacket-go/pkg/utils"
)

var (
	configPath = flag.String("config", "config.json", "配置文件路径")
	debug      = flag.Bool("debug", false, "调试模式")
)

func main() {
	flag.Parse()

	// 初始化日志
	logger.Init(*debug)
	logger.Info().Msg("🧧 Sakura RedPacket 启动中...")

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	// 保存配置文件路径，用于热重载
	config.SetConfigPath(*configPath)
	logger.Info().Msg("✅ 配置加载完成")

	// SIGHUP 触发配置热重载
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			if _, err := config.Reload(); err != nil {
				logger.Error().Err(err).Msg("热重载配置失败")
				continue
			}
			utils.CacheFlush()
			logger.Info().Str("path", config.GetConfigPath()).Msg("收到 SIGHUP，配置已热重载")
		}
	}()

	// 初始化数据库
	if err := database.Init(&cfg.Database); err != nil {
		logger.Fatal().Err(err).Msg("初始化数据库失败")
	}
	defer database.Close()
	logger.Info().Msg("✅ 数据库连接成功")

	// 加载卡片字体（可选）
	if cfg.Imggen.FontPath != "" {
		if err := imggen.LoadFont(cfg.Imggen.FontPath); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Imggen.FontPath).Msg("加载字体失败，使用默认字体")
		}
	}

	// 红包引擎
	svc := service.NewRedPacketService()

	// 领取事件 Webhook 推送
	if cfg.Webhook.Enabled && len(cfg.Webhook.URLs) > 0 {
		svc.AddNotifier(notify.NewWebhookNotifier(&cfg.Webhook))
		logger.Info().Int("urls", len(cfg.Webhook.URLs)).Msg("✅ Webhook 通知已启用")
	}

	// 定时任务调度器
	sched := scheduler.New(cfg, svc)
	sched.Start()
	defer sched.Stop()
	logger.Info().Msg("✅ 定时任务调度器启动")

	// Web API 服务
	webServer := web.New(&cfg.API, svc)
	go func() {
		if err := webServer.Start(); err != nil {
			logger.Error().Err(err).Msg("Web API 服务启动失败")
		}
	}()
	defer webServer.Stop()

	// Telegram 群播报（可选）
	var tgNotifier *notify.TelegramNotifier
	if cfg.Bot.Enabled {
		tgNotifier, err = notify.NewTelegramNotifier(&cfg.Bot)
		if err != nil {
			logger.Fatal().Err(err).Msg("初始化 Telegram Bot 失败")
		}
		svc.AddNotifier(tgNotifier)
		sched.SetBot(tgNotifier.Bot())
		go tgNotifier.Start()
		logger.Info().Str("bot", cfg.Bot.BotName).Msg("✅ Telegram Bot 初始化完成")
	}

	// 监听系统信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	logger.Info().Msg("🚀 Sakura RedPacket 启动成功!")
	logger.Info().Msg("按 Ctrl+C 停止...")

	<-quit

	logger.Info().Msg("正在关闭服务...")
	if tgNotifier != nil {
		tgNotifier.Stop()
	}
	logger.Info().Msg("👋 再见!")
}
