package observability

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"
)

// RequestIDLocal is the fiber locals key holding the request id.
const RequestIDLocal = "requestid"

// RequestLogger logs one line per request and records request metrics.
// Register it outside the error handler so the final status is observed.
func RequestLogger(logger *zap.Logger, metrics *Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		elapsed := time.Since(start)

		// method and path alias fasthttp buffers that are reused by the next
		// request; metric labels and log fields must own their bytes.
		status := c.Response().StatusCode()
		route := utils.CopyString(c.Route().Path)
		method := utils.CopyString(c.Method())
		path := utils.CopyString(c.Path())

		metrics.RecordRequest(route, method, status, elapsed)

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("duration", elapsed),
		}
		if id, ok := c.Locals(RequestIDLocal).(string); ok && id != "" {
			fields = append(fields, zap.String("request_id", utils.CopyString(id)))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}
