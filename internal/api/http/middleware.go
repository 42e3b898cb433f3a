package http

import (
	"errors"
	stdhttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/observability"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// ErrorHandler renders every error as a stable JSON envelope:
// {"error":{"code","message","details"}}.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code := apperrors.CodeInternal
			switch fiberErr.Code {
			case stdhttp.StatusUnauthorized:
				code = apperrors.CodeUnauthorized
			case stdhttp.StatusForbidden:
				code = apperrors.CodeForbidden
			case stdhttp.StatusNotFound:
				code = apperrors.CodeNotFound
			case stdhttp.StatusBadRequest, stdhttp.StatusUnprocessableEntity:
				code = apperrors.CodeInvalidInput
			}
			metrics.RecordError(c.Path(), c.Method(), code)
			return writeError(c, fiberErr.Code, code, fiberErr.Message, nil)
		}

		domainErr := apperrors.ToDomainError(err)
		metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
		if domainErr.HTTPStatus >= stdhttp.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("path", c.Path()),
				zap.String("code", domainErr.Code),
				zap.Error(err),
			)
		}
		return writeError(c, domainErr.HTTPStatus, domainErr.Code, domainErr.Message, domainErr.Details)
	}
}

func writeError(c *fiber.Ctx, status int, code, message string, details map[string]any) error {
	body := fiber.Map{"code": code, "message": message}
	if len(details) > 0 {
		body["details"] = details
	}
	return c.Status(status).JSON(fiber.Map{"error": body})
}

// RegisterMiddlewares wires the global middleware chain.
func RegisterMiddlewares(app *fiber.App, cfg config.AppConfig, logger *zap.Logger, metrics *observability.Metrics) {
	app.Use(recover.New())
	app.Use(observability.RequestLogger(logger, metrics))
}
