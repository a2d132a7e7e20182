// Package utils 工具函数
package utils

import (
	"time"
)

// TimeNowCST 获取当前北京时间
func TimeNowCST() time.Time {
	loc, _ := time.LoadLocation("Asia/Shanghai")
	return time.Now().In(loc)
}

// FormatTimeCST 格式化时间为北京时间字符串
func FormatTimeCST(t time.Time, layout string) string {
	loc, _ := time.LoadLocation("Asia/Shanghai")
	return t.In(loc).Format(layout)
}

// AddHours 增加小时数
func AddHours(t time.Time, hours int) time.Time {
	return t.Add(time.Duration(hours) * time.Hour)
}

// TruncateName 截断过长的用户名（通知和排行榜展示用）
func TruncateName(name string, max int) string {
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max]) + "…"
}
