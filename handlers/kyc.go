// handlers/kyc.go
package handlers

import (
	"strings"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/middleware"
	"tournament-wallet-service/models"
	"tournament-wallet-service/services"
	"tournament-wallet-service/utils"

	"github.com/gofiber/fiber/v2"
)

type KycHandler struct {
	Kyc *services.KycService
}

func SetupKycRoutes(app *fiber.App, kyc *services.KycService, requireUser fiber.Handler) {
	h := &KycHandler{Kyc: kyc}

	// 🔓 Public
	app.Get("/kyc/required-documents", h.RequiredDocuments)

	// 🔐 Secured
	app.Get("/kyc", requireUser, h.Status)
	app.Post("/kyc/documents", requireUser, h.Submit)
}

func (h *KycHandler) RequiredDocuments(c *fiber.Ctx) error {
	country := c.Query("country")
	return c.JSON(fiber.Map{
		"country":   country,
		"documents": services.RequiredDocuments(country),
	})
}

func (h *KycHandler) Status(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	status, err := h.Kyc.Status(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	docs, err := h.Kyc.Documents(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": status, "documents": docs})
}

// Submit accepts JSON or multipart/form-data with front_image / back_image files.
func (h *KycHandler) Submit(c *fiber.Ctx) error {
	var sub models.KycSubmission
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		sub.Type = models.DocumentType(c.FormValue("type"))
		sub.DocumentNumber = c.FormValue("document_number")
		sub.FrontImageURL = c.FormValue("front_image_url")
		sub.BackImageURL = c.FormValue("back_image_url")

		var err error
		if sub.FrontImage, err = formImage(c, "front_image"); err != nil {
			return respondError(c, err)
		}
		if sub.BackImage, err = formImage(c, "back_image"); err != nil {
			return respondError(c, err)
		}
		if err := check(&sub); err != nil {
			return respondError(c, err)
		}
	} else if err := bind(c, &sub); err != nil {
		return respondError(c, err)
	}

	doc, err := h.Kyc.Submit(c.UserContext(), middleware.UserID(c), sub)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func formImage(c *fiber.Ctx, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh.Size == 0 {
		return nil, nil
	}
	data, err := utils.ReadUpload(fh, utils.MaxUploadBytes)
	if err != nil {
		return nil, apperrors.Validation("%s: %v", field, err)
	}
	return data, nil
}
