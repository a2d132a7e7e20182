// Package web Web API 服务
package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/smysle/sakura-redpacket-go/internal/config"
	"github.com/smysle/sakura-redpacket-go/internal/scheduler"
	pkglogger "github.com/smysle/sakura-redpacket-go/pkg/logger"
	"github.com/smysle/sakura-redpacket-go/pkg/utils"
)

// requireAdmin 管理员（含 Owner）可访问
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)
	if !config.Get().IsAdmin(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "需要管理员权限",
		})
	}
	return c.Next()
}

// requireOwner 仅 Owner 可访问（配置变更）
func (s *Server) requireOwner(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(int64)
	if !config.Get().IsOwner(userID) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "需要 Owner 权限",
		})
	}
	return c.Next()
}

// reloadConfig 重新加载配置文件并清空缓存
func (s *Server) reloadConfig(c *fiber.Ctx) error {
	cfg, err := config.Reload()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "重新加载配置失败: " + err.Error(),
		})
	}
	if cfg == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "未设置配置文件路径",
		})
	}

	// 旧配置下缓存的详情/列表立即失效
	utils.CacheFlush()

	pkglogger.Info().Str("path", config.GetConfigPath()).Msg("配置已热重载")
	return c.JSON(fiber.Map{
		"reloaded": true,
		"path":     config.GetConfigPath(),
	})
}

// ToggleBody 红包功能开关请求体
type ToggleBody struct {
	Enabled   *bool `json:"enabled"`
	AllowBomb *bool `json:"allow_bomb"`
}

// toggleRedPacket 开关红包/炸弹功能并持久化到配置文件
func (s *Server) toggleRedPacket(c *fiber.Ctx) error {
	var body ToggleBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的请求体",
		})
	}
	if body.Enabled == nil && body.AllowBomb == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "没有要更新的开关",
		})
	}

	err := config.UpdateAndSave(func(cfg *config.Config) {
		if body.Enabled != nil {
			cfg.SetRedPacketStatus(*body.Enabled)
		}
		if body.AllowBomb != nil {
			cfg.SetBombStatus(*body.AllowBomb)
		}
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "保存配置失败: " + err.Error(),
		})
	}

	cur := config.Get()
	pkglogger.Info().
		Bool("enabled", cur.RedPacket.Enabled).
		Bool("allow_bomb", cur.RedPacket.AllowBomb).
		Msg("红包开关已更新")

	return c.JSON(fiber.Map{
		"enabled":    cur.RedPacket.Enabled,
		"allow_bomb": cur.RedPacket.AllowBomb,
	})
}

// runTask 立即执行指定定时任务
func (s *Server) runTask(c *fiber.Ctx) error {
	sched := scheduler.Get()
	if sched == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "调度器未启动",
		})
	}

	name := c.Params("name")
	if err := sched.RunNow(name); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"task":      name,
		"triggered": true,
	})
}
