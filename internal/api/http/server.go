package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewApp builds the fiber application with the service's base settings.
// Errors are rendered by the error middleware, never by fiber's default handler.
func NewApp(name string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          60 * time.Second,
		BodyLimit:             1 << 20,
	})
}
