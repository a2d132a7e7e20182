// Package web Web API 服务
package web

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/smysle/sakura-redpacket-go/internal/config"
	"github.com/smysle/sakura-redpacket-go/internal/database"
	"github.com/smysle/sakura-redpacket-go/internal/service"
	pkglogger "github.com/smysle/sakura-redpacket-go/pkg/logger"
)

// Server Web 服务器
type Server struct {
	app       *fiber.App
	cfg       *config.APIConfig
	svc       *service.RedPacketService
	startTime time.Time
}

// New 创建 Web 服务器
func New(cfg *config.APIConfig, svc *service.RedPacketService) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// 中间件
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.AllowOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + cfg.UserHeader,
	}))

	server := &Server{
		app:       app,
		cfg:       cfg,
		svc:       svc,
		startTime: time.Now(),
	}

	server.registerRoutes()

	return server
}

// registerRoutes 注册路由
func (s *Server) registerRoutes() {
	// 健康检查
	s.app.Get("/health", s.healthCheck)
	s.app.Get("/", s.healthCheck)

	// 详细状态
	s.app.Get("/status", s.detailedStatus)

	// API v1
	v1 := s.app.Group("/api/v1")

	// 红包列表与详情无需身份
	v1.Get("/redpacket", s.listPackets)
	v1.Get("/redpacket/:id", s.getPacket)

	// 写操作要求网关注入的用户身份
	authed := v1.Group("", s.requireUser)
	authed.Post("/redpacket", s.createPacket)
	authed.Post("/redpacket/:id/claim", s.claimPacket)

	// 管理接口：任务触发需管理员，配置变更仅 Owner
	admin := v1.Group("/admin", s.requireUser)
	admin.Post("/tasks/:name", s.requireAdmin, s.runTask)
	admin.Post("/config/reload", s.requireOwner, s.reloadConfig)
	admin.Post("/redpacket", s.requireOwner, s.toggleRedPacket)
}

// requireUser 从网关注入的请求头取出已验证用户 ID
func (s *Server) requireUser(c *fiber.Ctx) error {
	raw := c.Get(s.cfg.UserHeader)
	if raw == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "缺少用户身份",
		})
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "无效的用户身份",
		})
	}

	c.Locals("user_id", userID)
	c.Locals("user_name", c.Get("X-Telegram-User-Name"))
	return c.Next()
}

// Start 启动服务器
func (s *Server) Start() error {
	if !s.cfg.Enabled {
		pkglogger.Info().Msg("【API服务】未启用，跳过...")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	pkglogger.Info().Str("addr", addr).Msg("【API服务】启动中...")

	return s.app.Listen(addr)
}

// Stop 停止服务器
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// healthCheck 健康检查
func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
	})
}

// StatusResponse 详细状态响应
type StatusResponse struct {
	Status   string         `json:"status"`
	Version  string         `json:"version"`
	Uptime   string         `json:"uptime"`
	System   SystemInfo     `json:"system"`
	Database DatabaseStatus `json:"database"`
}

// SystemInfo 系统信息
type SystemInfo struct {
	GoVersion    string `json:"go_version"`
	NumCPU       int    `json:"num_cpu"`
	NumGoroutine int    `json:"num_goroutine"`
	MemAlloc     string `json:"mem_alloc"`
}

// DatabaseStatus 数据库状态
type DatabaseStatus struct {
	Connected bool `json:"connected"`
}

// detailedStatus 详细状态
func (s *Server) detailedStatus(c *fiber.Ctx) error {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbConnected := false
	if db := database.GetDB(); db != nil {
		sqlDB, err := db.DB()
		if err == nil && sqlDB.Ping() == nil {
			dbConnected = true
		}
	}

	return c.JSON(StatusResponse{
		Status:  "ok",
		Version: "1.0.0",
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
		System: SystemInfo{
			GoVersion:    runtime.Version(),
			NumCPU:       runtime.NumCPU(),
			NumGoroutine: runtime.NumGoroutine(),
			MemAlloc:     fmt.Sprintf("%.2f MB", float64(memStats.Alloc)/1024/1024),
		},
		Database: DatabaseStatus{
			Connected: dbConnected,
		},
	})
}
