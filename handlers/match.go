package handlers

import (
	"strconv"
	"strings"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/middleware"
	"tournament-wallet-service/models"
	"tournament-wallet-service/services"

	"github.com/gofiber/fiber/v2"
)

type MatchHandler struct {
	Matches *services.MatchService
}

func SetupMatchRoutes(app *fiber.App, matches *services.MatchService, requireUser fiber.Handler) {
	h := &MatchHandler{Matches: matches}

	secured := app.Group("/matches", requireUser)
	secured.Get("/upcoming", h.Upcoming)
	secured.Get("/completed", h.Completed)
	secured.Post("/:id/result", h.SubmitResult)
}

func (h *MatchHandler) Upcoming(c *fiber.Ctx) error {
	list, err := h.Matches.Upcoming(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"matches": list})
}

func (h *MatchHandler) Completed(c *fiber.Ctx) error {
	list, err := h.Matches.Completed(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"matches": list})
}

func (h *MatchHandler) SubmitResult(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var sub models.ResultSubmission
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if sub, err = resultForm(c); err != nil {
			return respondError(c, err)
		}
		if err := check(&sub); err != nil {
			return respondError(c, err)
		}
	} else if err := bind(c, &sub); err != nil {
		return respondError(c, err)
	}
	m, err := h.Matches.SubmitResult(c.UserContext(), id, middleware.UserID(c), sub)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

// resultForm reads a multipart submission; the screenshot may be a file or a URL field.
func resultForm(c *fiber.Ctx) (models.ResultSubmission, error) {
	sub := models.ResultSubmission{
		Result:     c.FormValue("result"),
		Screenshot: c.FormValue("screenshot"),
	}
	var err error
	if sub.Position, err = strconv.Atoi(c.FormValue("position")); err != nil {
		return sub, apperrors.Validation("position must be a number")
	}
	if kills := c.FormValue("kills"); kills != "" {
		if sub.Kills, err = strconv.Atoi(kills); err != nil {
			return sub, apperrors.Validation("kills must be a number")
		}
	}
	if sub.ScreenshotImage, err = formImage(c, "screenshot"); err != nil {
		return sub, err
	}
	return sub, nil
}
