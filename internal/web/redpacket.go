// Package web Web API 服务
package web

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/smysle/sakura-redpacket-go/internal/database/models"
	"github.com/smysle/sakura-redpacket-go/internal/service"
)

var validate = validator.New()

// CreatePacketBody 创建红包请求体
type CreatePacketBody struct {
	Currency    string `json:"currency" validate:"required"`
	Amount      string `json:"amount" validate:"required"` // 显示金额，如 "10.00"
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	Mode        string `json:"mode" validate:"required,oneof=random fixed"`
	BombNumber  *int   `json:"bomb_number" validate:"omitempty,min=0,max=9"`
	Message     string `json:"message" validate:"max=500"`
	Destination string `json:"destination" validate:"max=64"`
	CreatorName string `json:"creator_name" validate:"max=255"`
}

// createPacket 创建红包
func (s *Server) createPacket(c *fiber.Ctx) error {
	var body CreatePacketBody
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "无效的请求体",
		})
	}
	if err := validate.Struct(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	amount, err := models.ParseAmount(body.Amount, body.Currency)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	creatorName := body.CreatorName
	if creatorName == "" {
		creatorName, _ = c.Locals("user_name").(string)
	}

	result, err := s.svc.CreatePacket(&service.CreatePacketRequest{
		CreatorTG:   c.Locals("user_id").(int64),
		CreatorName: creatorName,
		Currency:    body.Currency,
		TotalAmount: amount,
		Quantity:    body.Quantity,
		Mode:        body.Mode,
		BombNumber:  body.BombNumber,
		Message:     body.Message,
		Destination: body.Destination,
	})
	if err != nil {
		return writeServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

// ClaimResponse 领取响应
type ClaimResponse struct {
	Success bool                 `json:"success"`
	Result  *service.ClaimResult `json:"result,omitempty"`
	// 重复领取时回显第一次领取的金额
	OriginalAmount string `json:"original_amount,omitempty"`
	Error          string `json:"error,omitempty"`
}

// claimPacket 领取红包
func (s *Server) claimPacket(c *fiber.Ctx) error {
	packetID := c.Params("id")
	userID := c.Locals("user_id").(int64)
	userName, _ := c.Locals("user_name").(string)

	result, err := s.svc.ClaimPacket(packetID, userID, userName)
	if err != nil {
		// 重复领取回显原始领取金额
		if errors.Is(err, service.ErrAlreadyClaimed) {
			resp := ClaimResponse{Success: false, Error: err.Error()}
			if orig, oerr := s.svc.GetOriginalClaim(packetID, userID); oerr == nil && orig != nil {
				packet, perr := s.svc.GetPacket(packetID)
				if perr == nil {
					resp.OriginalAmount = models.FormatAmount(orig.Amount, packet.Packet.Currency)
				}
			}
			return c.Status(fiber.StatusConflict).JSON(resp)
		}
		return writeServiceError(c, err)
	}

	return c.JSON(ClaimResponse{Success: true, Result: result})
}

// getPacket 获取红包详情
func (s *Server) getPacket(c *fiber.Ctx) error {
	detail, err := s.svc.GetPacket(c.Params("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(detail)
}

// listPackets 按投放目标列出红包
func (s *Server) listPackets(c *fiber.Ctx) error {
	destination := c.Query("destination")
	limit := c.QueryInt("limit")

	summaries, err := s.svc.ListPackets(destination, limit)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"packets": summaries,
		"count":   len(summaries),
	})
}

// writeServiceError 把业务错误映射为 HTTP 状态码
func writeServiceError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrPacketNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, service.ErrPacketExpired),
		errors.Is(err, service.ErrPacketDepleted),
		errors.Is(err, service.ErrAlreadyClaimed):
		status = fiber.StatusConflict
	case errors.Is(err, service.ErrInsufficientBalance):
		status = fiber.StatusPaymentRequired
	case errors.Is(err, service.ErrRedPacketDisabled),
		errors.Is(err, service.ErrBombDisabled):
		status = fiber.StatusForbidden
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMode),
		errors.Is(err, service.ErrInvalidBombNumber),
		errors.Is(err, service.ErrCurrencyNotAllowed),
		errors.Is(err, models.ErrUnknownCurrency),
		errors.Is(err, models.ErrBadAmountFormat),
		errors.Is(err, models.ErrPrecisionTooFine):
		status = fiber.StatusBadRequest
	}

	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
