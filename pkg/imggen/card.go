// Package imggen 图片生成模块
package imggen

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
)

// ClaimEntry 领取卡片条目
type ClaimEntry struct {
	Rank       int
	Name       string
	AmountText string
	IsLucky    bool
	IsBomb     bool
}

// CardConfig 红包结算卡片配置
type CardConfig struct {
	Title       string // 例: "xxx 的红包已抢完"
	Subtitle    string // 例: "10.00 USDT · 5 份"
	Message     string // 祝福语
	IsBombGame  bool
	Entries     []ClaimEntry
	GeneratedAt time.Time
}

// 颜色定义
var (
	bgColor      = color.RGBA{25, 25, 35, 255}    // 深色背景
	cardColor    = color.RGBA{35, 35, 50, 255}    // 卡片背景
	goldColor    = color.RGBA{255, 215, 0, 255}   // 金色
	bombColor    = color.RGBA{220, 60, 60, 255}   // 踩雷红
	textColor    = color.RGBA{255, 255, 255, 255} // 白色文字
	subTextColor = color.RGBA{180, 180, 180, 255} // 灰色文字
	accentColor  = color.RGBA{226, 88, 88, 255}   // 红包主题色
	redBgColor   = color.RGBA{114, 30, 30, 255}   // 渐变起始
)

var (
	fontOnce   sync.Once
	loadedFont *truetype.Font
)

// LoadFont 加载中文字体文件，失败时回退到 gg 内置字体
func LoadFont(path string) error {
	var err error
	fontOnce.Do(func() {
		var data []byte
		data, err = os.ReadFile(path)
		if err != nil {
			return
		}
		loadedFont, err = truetype.Parse(data)
	})
	return err
}

// faceFor 按字号取字体 face，未加载字体时返回 nil
func faceFor(size float64) font.Face {
	if loadedFont == nil {
		return nil
	}
	return truetype.NewFace(loadedFont, &truetype.Options{
		Size:    size,
		Hinting: font.HintingFull,
	})
}

// setFont 设置画布字体，字体缺失时保持 gg 默认
func setFont(dc *gg.Context, size float64) {
	if face := faceFor(size); face != nil {
		dc.SetFontFace(face)
	}
}

// GenerateClaimCard 生成红包结算卡片图片
func GenerateClaimCard(cfg CardConfig) ([]byte, error) {
	width := 600
	headerHeight := 130
	itemHeight := 60
	footerHeight := 50
	padding := 20

	itemCount := len(cfg.Entries)
	if itemCount > 10 {
		itemCount = 10
	}

	height := headerHeight + itemCount*itemHeight + footerHeight + padding*2

	dc := gg.NewContext(width, height)
	drawBackground(dc, width, height)
	drawHeader(dc, width, cfg)

	startY := float64(headerHeight + padding)
	for i, entry := range cfg.Entries {
		if i >= 10 {
			break
		}
		drawClaimEntry(dc, width, startY+float64(i*itemHeight), entry)
	}

	drawFooter(dc, width, height, cfg.GeneratedAt)

	return exportPNG(dc)
}

// drawBackground 绘制渐变背景
func drawBackground(dc *gg.Context, width, height int) {
	for y := 0; y < height; y++ {
		t := float64(y) / float64(height)
		r := uint8(float64(redBgColor.R)*(1-t) + float64(bgColor.R)*t)
		g := uint8(float64(redBgColor.G)*(1-t) + float64(bgColor.G)*t)
		b := uint8(float64(redBgColor.B)*(1-t) + float64(bgColor.B)*t)
		dc.SetColor(color.RGBA{r, g, b, 255})
		dc.DrawRectangle(0, float64(y), float64(width), 1)
		dc.Fill()
	}
}

// drawHeader 绘制标题区域
func drawHeader(dc *gg.Context, width int, cfg CardConfig) {
	icon := "🧧"
	if cfg.IsBombGame {
		icon = "💣"
	}

	setFont(dc, 26)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(fmt.Sprintf("%s %s", icon, cfg.Title), float64(width)/2, 40, 0.5, 0.5)

	setFont(dc, 18)
	dc.SetColor(subTextColor)
	dc.DrawStringAnchored(cfg.Subtitle, float64(width)/2, 75, 0.5, 0.5)
	if cfg.Message != "" {
		dc.DrawStringAnchored(cfg.Message, float64(width)/2, 100, 0.5, 0.5)
	}

	dc.SetColor(accentColor)
	dc.SetLineWidth(2)
	dc.DrawLine(50, 120, float64(width-50), 120)
	dc.Stroke()
}

// drawClaimEntry 绘制领取条目
func drawClaimEntry(dc *gg.Context, width int, y float64, entry ClaimEntry) {
	cardX := 20.0
	cardW := float64(width - 40)
	cardH := 50.0

	dc.SetColor(color.RGBA{cardColor.R, cardColor.G, cardColor.B, 200})
	dc.DrawRoundedRectangle(cardX, y, cardW, cardH, 10)
	dc.Fill()

	midY := y + cardH/2

	// 排名
	setFont(dc, 18)
	dc.SetColor(subTextColor)
	dc.DrawStringAnchored(fmt.Sprintf("%d", entry.Rank), cardX+35, midY, 0.5, 0.5)

	// 领取者名称
	dc.SetColor(textColor)
	name := entry.Name
	if entry.IsLucky {
		name += " 👑"
	}
	dc.DrawStringAnchored(name, cardX+80, midY, 0, 0.5)

	// 金额，踩雷标红
	if entry.IsBomb {
		dc.SetColor(bombColor)
		dc.DrawStringAnchored(entry.AmountText+" 💥", cardX+cardW-30, midY, 1, 0.5)
	} else {
		dc.SetColor(goldColor)
		dc.DrawStringAnchored(entry.AmountText, cardX+cardW-30, midY, 1, 0.5)
	}
}

// drawFooter 绘制底部信息
func drawFooter(dc *gg.Context, width, height int, generatedAt time.Time) {
	setFont(dc, 14)
	dc.SetColor(subTextColor)
	footerText := fmt.Sprintf("生成于 %s | Sakura RedPacket", generatedAt.Format("2006-01-02 15:04"))
	dc.DrawStringAnchored(footerText, float64(width)/2, float64(height-25), 0.5, 0.5)
}

// exportPNG 导出为 PNG
func exportPNG(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	return buf.Bytes(), nil
}
