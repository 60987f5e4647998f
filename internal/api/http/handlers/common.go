package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solve-chamados/internal/api/dto"
	"github.com/spec-kit/solve-chamados/internal/auth"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

// bind decodes the JSON body into out and runs struct validation.
func bind(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(out)
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(name+" must be a positive integer", map[string]any{"field": name})
	}
	return id, nil
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewSessionInvalid()
	}
	return principal, nil
}

func respond(c *fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"data": data})
}

func ok(c *fiber.Ctx, data any) error {
	return respond(c, fiber.StatusOK, data)
}

func created(c *fiber.Ctx, data any) error {
	return respond(c, fiber.StatusCreated, data)
}

func noContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
