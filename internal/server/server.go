package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"listinglab/internal/optimizer"
	"listinglab/pkg/config"
)

// New builds the fiber app with all routes and middleware attached.
func New(svc *optimizer.Service, cfg config.ServerConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "listinglab",
	})

	app.Use(requestid.New())
	app.Use(logger.New())
	if cfg.CORSOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigin,
			AllowCredentials: true,
		}))
	}

	h := &Handler{Service: svc}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Listing optimizer API running")
	})
	app.Get("/products", h.ListProducts)
	app.Post("/products/fetch", h.Fetch)
	app.Post("/products/optimize", h.Optimize)
	app.Get("/products/:asin/history", h.History)

	return app
}
