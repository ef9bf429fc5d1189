package handlers

import (
	"tiffin/internal/services/catalog"
	"tiffin/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	provider catalog.Provider
}

func NewCatalogHandler(provider catalog.Provider) *CatalogHandler {
	return &CatalogHandler{provider: provider}
}

func (h *CatalogHandler) List(c *fiber.Ctx) error {
	items, err := h.provider.ListPurchasableItems(c.Context(), c.Query("category"))
	if err != nil {
		return response.ServerError(c, "Failed to load menu")
	}

	return response.Success(c, "Menu", fiber.Map{
		"items": items,
	})
}
