// Package config 配置管理模块
package config

import (
	"encoding/json"
	"os"
	"sync"
)

// Config 全局配置结构
type Config struct {
	AppName string  `json:"app_name"`
	Owner   int64   `json:"owner"`
	Admins  []int64 `json:"admins"`

	Database  DatabaseConfig  `json:"database"`
	API       APIConfig       `json:"api"`
	Bot       BotConfig       `json:"bot"`
	RedPacket RedPacketConfig `json:"red_packet"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Webhook   WebhookConfig   `json:"webhook"`
	Imggen    ImggenConfig    `json:"imggen"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// APIConfig Web API 配置
type APIConfig struct {
	Enabled      bool     `json:"enabled"`
	Host         string   `json:"host"`
	Port         int      `json:"port"`
	AllowOrigins []string `json:"allow_origins"`
	// 网关注入已验证用户 ID 的请求头
	UserHeader string `json:"user_header"`
}

// BotConfig Telegram Bot 配置（群通知用）
type BotConfig struct {
	Enabled  bool   `json:"enabled"`
	Token    string `json:"token"`
	GroupID  int64  `json:"group_id"`
	BotName  string `json:"bot_name"`
}

// RedPacketConfig 红包配置
type RedPacketConfig struct {
	Enabled      bool     `json:"enabled"`
	AllowBomb    bool     `json:"allow_bomb"`
	MaxQuantity  int      `json:"max_quantity"`
	ExpireHours  int      `json:"expire_hours"`
	Currencies   []string `json:"currencies"`
	// 领取冲突时的内部重试次数
	ClaimRetries int `json:"claim_retries"`
}

// SchedulerConfig 定时任务配置
type SchedulerConfig struct {
	ExpireSweep bool `json:"expire_sweep"`
	// 过期扫描间隔（分钟）
	SweepInterval int `json:"sweep_interval"`
}

// WebhookConfig 领取事件 Webhook 配置
type WebhookConfig struct {
	Enabled bool     `json:"enabled"`
	URLs    []string `json:"urls"`
	Secret  string   `json:"secret"`
}

// ImggenConfig 图片生成配置
type ImggenConfig struct {
	FontPath string `json:"font_path"`
}

var (
	cfg     *Config
	cfgLock sync.RWMutex
)

// Load 加载配置文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	// 设置默认值
	config.setDefaults()

	cfgLock.Lock()
	if cfg == nil {
		cfg = &config
	} else {
		// 热重载复用原指针，配置持有者无需重新获取
		*cfg = config
	}
	loaded := cfg
	cfgLock.Unlock()

	return loaded, nil
}

// Get 获取全局配置（线程安全）
func Get() *Config {
	cfgLock.RLock()
	defer cfgLock.RUnlock()
	return cfg
}

// Save 保存配置到文件
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// setDefaults 设置默认值
func (c *Config) setDefaults() {
	if c.AppName == "" {
		c.AppName = "Sakura RedPacket"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.API.Port == 0 {
		c.API.Port = 8868
	}
	if len(c.API.AllowOrigins) == 0 {
		c.API.AllowOrigins = []string{"*"}
	}
	if c.API.UserHeader == "" {
		c.API.UserHeader = "X-Telegram-User-Id"
	}
	if c.RedPacket.MaxQuantity == 0 {
		c.RedPacket.MaxQuantity = 100
	}
	if c.RedPacket.ExpireHours == 0 {
		c.RedPacket.ExpireHours = 24
	}
	if c.RedPacket.ClaimRetries == 0 {
		c.RedPacket.ClaimRetries = 3
	}
	if len(c.RedPacket.Currencies) == 0 {
		c.RedPacket.Currencies = []string{"usdt", "ton", "stars", "points"}
	}
	if c.Scheduler.SweepInterval == 0 {
		c.Scheduler.SweepInterval = 10
	}
}

// IsAdmin 判断是否是管理员
func (c *Config) IsAdmin(userID int64) bool {
	if userID == c.Owner {
		return true
	}
	for _, admin := range c.Admins {
		if admin == userID {
			return true
		}
	}
	return false
}

// IsOwner 判断是否是 Owner
func (c *Config) IsOwner(userID int64) bool {
	return userID == c.Owner
}

// IsCurrencyAllowed 判断币种是否开放发红包
func (c *Config) IsCurrencyAllowed(currency string) bool {
	for _, cur := range c.RedPacket.Currencies {
		if cur == currency {
			return true
		}
	}
	return false
}

// configPath 存储配置文件路径
var configPath string

// GetConfigPath 获取配置文件路径
func GetConfigPath() string {
	return configPath
}

// SetConfigPath 设置配置文件路径
func SetConfigPath(path string) {
	configPath = path
}

// Reload 重新加载配置文件
func Reload() (*Config, error) {
	if configPath == "" {
		return nil, nil
	}
	return Load(configPath)
}

// UpdateAndSave 更新配置并保存
func UpdateAndSave(updateFn func(*Config)) error {
	cfgLock.Lock()
	defer cfgLock.Unlock()

	if cfg == nil {
		return nil
	}

	// 执行更新函数
	updateFn(cfg)

	// 保存到文件
	if configPath != "" {
		return cfg.Save(configPath)
	}

	return nil
}

// SetRedPacketStatus 设置红包功能状态
func (c *Config) SetRedPacketStatus(status bool) {
	c.RedPacket.Enabled = status
}

// SetBombStatus 设置炸弹红包功能状态
func (c *Config) SetBombStatus(status bool) {
	c.RedPacket.AllowBomb = status
}
