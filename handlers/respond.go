// handlers/respond.go
package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"tournament-wallet-service/apperrors"
	"tournament-wallet-service/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// respondError maps a domain error onto its HTTP status with a {"error", "code"} body.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperrors.KindOf(err)
	status := apperrors.HTTPStatus(kind)
	msg := err.Error()
	if kind == apperrors.KindInternal {
		utils.Log.WithError(err).WithField("path", c.Path()).Error("❌ request failed")
		msg = "internal server error"
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"code":  kind,
	})
}

// bind parses the JSON body into dst and runs its validate tags.
func bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.Validation("invalid request body: %v", err)
	}
	return check(dst)
}

func check(dst interface{}) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.Validation("%v", err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return apperrors.Validation("%s", strings.Join(problems, "; "))
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid %s %q", name, c.Params(name))
	}
	return uint(id), nil
}
