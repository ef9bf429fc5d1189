// Package routes defines the API routing configuration.
// It wires repositories, services and handlers in dependency order and
// groups routes behind the session middleware.
package routes

import (
	"tiffin/internal/config"
	"tiffin/internal/handlers"
	"tiffin/internal/middleware"
	"tiffin/internal/models"
	"tiffin/internal/repositories"
	"tiffin/internal/services/catalog"
	"tiffin/internal/services/checkout"
	"tiffin/internal/services/session"
	"tiffin/internal/services/wallet"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, store repositories.Store, gw checkout.PaymentGateway, provider catalog.Provider) {
	registry := session.NewRegistry(
		store,
		gw,
		config.GetEnv("SESSION_SECRET", "tiffin-dev-secret"),
		wallet.Config{
			HistoryLimit: config.GetIntEnv("WALLET_HISTORY_LIMIT", models.DefaultHistoryLimit),
		},
		checkout.Config{},
	)

	sessionHandler := handlers.NewSessionHandler(registry)
	catalogHandler := handlers.NewCatalogHandler(provider)
	cartHandler := handlers.NewCartHandler()
	walletHandler := handlers.NewWalletHandler()
	checkoutHandler := handlers.NewCheckoutHandler()

	api := app.Group("/api")

	// Public routes
	api.Post("/session", sessionHandler.Start)
	api.Get("/menu", catalogHandler.List)

	// Session-scoped routes
	authed := api.Group("", middleware.Session(registry))
	authed.Get("/cart", cartHandler.Get)
	authed.Post("/cart/items", cartHandler.Add)
	authed.Put("/cart/items/:itemID", cartHandler.SetQuantity)
	authed.Delete("/cart/items/:itemID", cartHandler.Remove)
	authed.Delete("/cart", cartHandler.Clear)

	authed.Get("/wallet", walletHandler.Get)
	authed.Post("/wallet/topup", checkoutHandler.TopUp)

	authed.Post("/checkout", checkoutHandler.Checkout)
	authed.Post("/checkout/recover", checkoutHandler.Recover)
	authed.Get("/orders/last", checkoutHandler.LastOrder)
}
