// handlers/admin.go
package handlers

import (
	"tournament-wallet-service/middleware"
	"tournament-wallet-service/models"
	"tournament-wallet-service/services"

	"github.com/gofiber/fiber/v2"
)

type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=live completed cancelled"`
}

type reviewRequest struct {
	Decision models.ReviewDecision `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string                `json:"reason,omitempty"`
}

type settleRequest struct {
	Status models.TransactionStatus `json:"status" validate:"required,oneof=completed failed"`
}

type AdminHandler struct {
	Wallet      *services.WalletService
	Kyc         *services.KycService
	Tournaments *services.TournamentService
	Matches     *services.MatchService
	Users       *services.UserService
}

func SetupAdminRoutes(app *fiber.App, h *AdminHandler) {
	// 🔒 Admin-only routes
	admin := app.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))

	admin.Get("/users", h.SearchUsers)
	admin.Post("/tournaments", h.CreateTournament)
	admin.Patch("/tournaments/:id/status", h.UpdateTournamentStatus)
	admin.Post("/kyc/documents/:id/review", h.ReviewDocument)
	admin.Post("/matches/:id/approve", h.ApproveResult)
	admin.Post("/wallet/transactions/:id/settle", h.SettleWithdrawal)
}

func (h *AdminHandler) SearchUsers(c *fiber.Ctx) error {
	users, err := h.Users.Search(c.UserContext(), c.Query("q"), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}

func (h *AdminHandler) CreateTournament(c *fiber.Ctx) error {
	var req models.NewTournament
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	t, err := h.Tournaments.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(t)
}

func (h *AdminHandler) UpdateTournamentStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req statusRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	t, err := h.Tournaments.UpdateStatus(c.UserContext(), id, models.TournamentStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(t)
}

func (h *AdminHandler) ReviewDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req reviewRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	doc, err := h.Kyc.Review(c.UserContext(), id, req.Decision, req.Reason, middleware.Reviewer(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(doc)
}

func (h *AdminHandler) ApproveResult(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	m, err := h.Matches.ApproveResult(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

func (h *AdminHandler) SettleWithdrawal(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req settleRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	tx, err := h.Wallet.Settle(c.UserContext(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tx)
}
