// handlers/wallet.go
package handlers

import (
	"tournament-wallet-service/middleware"
	"tournament-wallet-service/models"
	"tournament-wallet-service/services"

	"github.com/gofiber/fiber/v2"
)

type depositRequest struct {
	Amount int64  `json:"amount" validate:"required,gt=0"`
	Method string `json:"method" validate:"required"`
}

type WalletHandler struct {
	Wallet *services.WalletService
}

func SetupWalletRoutes(app *fiber.App, wallet *services.WalletService, requireUser fiber.Handler) {
	h := &WalletHandler{Wallet: wallet}

	// 🔐 User wallet
	secured := app.Group("/wallet", requireUser)
	secured.Get("/", h.Summary)
	secured.Get("/transactions", h.History)
	secured.Post("/deposit", h.Deposit)
	secured.Post("/withdraw", h.Withdraw)
}

func (h *WalletHandler) Summary(c *fiber.Ctx) error {
	var display models.Currency
	if raw := c.Query("display"); raw != "" {
		cur, err := services.ParseCurrency(raw)
		if err != nil {
			return respondError(c, err)
		}
		display = cur
	}
	summary, err := h.Wallet.Summary(c.UserContext(), middleware.UserID(c), display)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

func (h *WalletHandler) History(c *fiber.Ctx) error {
	history, err := h.Wallet.History(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"transactions": history})
}

func (h *WalletHandler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	tx, err := h.Wallet.Deposit(c.UserContext(), middleware.UserID(c), req.Amount, req.Method)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

func (h *WalletHandler) Withdraw(c *fiber.Ctx) error {
	var req models.WithdrawalRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	tx, err := h.Wallet.Withdraw(c.UserContext(), middleware.UserID(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(tx)
}
