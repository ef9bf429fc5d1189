// Package main is the entry point for the application.
// It initializes the persistence store and the simulated payment gateway,
// configures the HTTP server, and starts the application.
package main

import (
	"log"
	"time"

	"tiffin/internal/config"
	"tiffin/internal/repositories"
	"tiffin/internal/routes"
	"tiffin/internal/services/catalog"
	"tiffin/internal/services/gateway"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadEnv()

	store, err := repositories.NewStore()
	if err != nil {
		log.Fatalf("failed to initialize store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("failed to close store: %v", err)
		}
	}()

	gw := gateway.NewSimulator(gateway.Config{
		SuccessRate: config.GetFloatEnv("GATEWAY_SUCCESS_RATE", gateway.DefaultSuccessRate),
		Latency:     config.GetDurationEnv("GATEWAY_LATENCY", 0),
	}, nil)

	provider := catalog.NewStaticProvider()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: true,
	}))

	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// One payment attempt at a time is the session's discipline; the rate
	// limit just keeps a misbehaving client from hammering the gateway.
	paymentLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(429).JSON(fiber.Map{
				"error": "Too many requests. Please try again later.",
			})
		},
	})
	app.Use("/api/checkout", paymentLimiter)
	app.Use("/api/wallet/topup", paymentLimiter)

	routes.SetupRoutes(app, store, gw, provider)

	log.Fatal(app.Listen(":" + config.GetEnv("PORT", "3000")))
}
