package handlers

import (
	"tournament-wallet-service/middleware"
	"tournament-wallet-service/models"
	"tournament-wallet-service/services"

	"github.com/gofiber/fiber/v2"
)

type TournamentHandler struct {
	Tournaments *services.TournamentService
}

func SetupTournamentRoutes(app *fiber.App, tournaments *services.TournamentService, requireUser fiber.Handler) {
	h := &TournamentHandler{Tournaments: tournaments}

	// 🔓 Public listings
	app.Get("/tournaments", h.List)
	app.Get("/tournaments/:id", h.Get)

	// 🔐 Registration
	app.Post("/tournaments/:id/register", requireUser, h.Register)
}

// List defaults to upcoming tournaments.
func (h *TournamentHandler) List(c *fiber.Ctx) error {
	status, err := services.ParseTournamentStatus(c.Query("status", string(models.TournamentUpcoming)))
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.Tournaments.ListByStatus(c.UserContext(), status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tournaments": list})
}

func (h *TournamentHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	t, err := h.Tournaments.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tournament": t, "available_slots": t.AvailableSlots()})
}

func (h *TournamentHandler) Register(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	match, err := h.Tournaments.Register(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}
