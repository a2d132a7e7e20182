// Package web 管理接口测试
package web

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smysle/sakura-redpacket-go/internal/config"
)

func setupTestConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{"owner":12345,"admins":[11111],"red_packet":{"enabled":true,"allow_bomb":true}}`
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	config.SetConfigPath(path)
	return cfg
}

func TestAdminRoutes_AuthGate(t *testing.T) {
	cfg := setupTestConfig(t)
	srv := New(&cfg.API, nil)

	// 无身份
	req := httptest.NewRequest("POST", "/api/v1/admin/config/reload", nil)
	resp, err := srv.app.Test(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if resp.StatusCode != 401 {
		t.Errorf("无身份状态码 = %d, want 401", resp.StatusCode)
	}

	// 非 Owner 不能改配置
	req = httptest.NewRequest("POST", "/api/v1/admin/config/reload", nil)
	req.Header.Set(cfg.API.UserHeader, "99999")
	resp, err = srv.app.Test(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Errorf("非 Owner 状态码 = %d, want 403", resp.StatusCode)
	}

	// 管理员也不能改配置（仅 Owner）
	req = httptest.NewRequest("POST", "/api/v1/admin/redpacket", strings.NewReader(`{"enabled":false}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(cfg.API.UserHeader, "11111")
	resp, err = srv.app.Test(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Errorf("管理员改配置状态码 = %d, want 403", resp.StatusCode)
	}

	// 普通用户不能触发任务
	req = httptest.NewRequest("POST", "/api/v1/admin/tasks/expire_sweep", nil)
	req.Header.Set(cfg.API.UserHeader, "99999")
	resp, err = srv.app.Test(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if resp.StatusCode != 403 {
		t.Errorf("普通用户触发任务状态码 = %d, want 403", resp.StatusCode)
	}

	// 管理员可触发任务，调度器未启动时返回 503
	req = httptest.NewRequest("POST", "/api/v1/admin/tasks/expire_sweep", nil)
	req.Header.Set(cfg.API.UserHeader, "11111")
	resp, err = srv.app.Test(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Errorf("调度器未启动状态码 = %d, want 503", resp.StatusCode)
	}
}

func TestAdminRoutes_ToggleAndReload(t *testing.T) {
	cfg := setupTestConfig(t)
	srv := New(&cfg.API, nil)

	// Owner 关闭红包功能
	req := httptest.NewRequest("POST", "/api/v1/admin/redpacket", strings.NewReader(`{"enabled":false}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(cfg.API.UserHeader, "12345")
	resp, err := srv.app.Test(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("开关状态码 = %d, want 200", resp.StatusCode)
	}
	if config.Get().RedPacket.Enabled {
		t.Error("红包开关应已关闭")
	}

	// 变更已持久化到配置文件
	data, err := os.ReadFile(config.GetConfigPath())
	if err != nil {
		t.Fatalf("读取配置文件失败: %v", err)
	}
	var saved config.Config
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("解析配置文件失败: %v", err)
	}
	if saved.RedPacket.Enabled {
		t.Error("文件中红包开关应已关闭")
	}

	// 手工改回文件后热重载生效
	saved.RedPacket.Enabled = true
	out, _ := json.Marshal(&saved)
	if err := os.WriteFile(config.GetConfigPath(), out, 0644); err != nil {
		t.Fatalf("改写配置文件失败: %v", err)
	}

	req = httptest.NewRequest("POST", "/api/v1/admin/config/reload", nil)
	req.Header.Set(cfg.API.UserHeader, "12345")
	resp, err = srv.app.Test(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("热重载状态码 = %d, want 200", resp.StatusCode)
	}
	if !config.Get().RedPacket.Enabled {
		t.Error("热重载后应读到新的开关值")
	}

	// 空请求体没有可更新的开关
	req = httptest.NewRequest("POST", "/api/v1/admin/redpacket", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(cfg.API.UserHeader, "12345")
	resp, err = srv.app.Test(req)
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Errorf("空开关请求状态码 = %d, want 400", resp.StatusCode)
	}
}
