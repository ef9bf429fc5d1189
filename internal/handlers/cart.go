package handlers

import (
	"errors"

	"tiffin/internal/models"
	"tiffin/internal/services/cart"
	"tiffin/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type CartHandler struct{}

func NewCartHandler() *CartHandler {
	return &CartHandler{}
}

func (h *CartHandler) Get(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	return response.Success(c, "Cart", fiber.Map{
		"items": sess.Cart.Items(),
		"total": sess.Cart.Total(),
	})
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		Item     models.PricedItem `json:"item"`
		Quantity int               `json:"quantity"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if input.Item.ID == "" {
		return response.BadRequest(c, "Item id is required")
	}

	if err := sess.Cart.Add(c.Context(), input.Item, input.Quantity); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			return response.BadRequest(c, err.Error())
		}
		return response.ServerError(c, "Failed to add item")
	}

	return response.Success(c, "Item added", fiber.Map{
		"items": sess.Cart.Items(),
		"total": sess.Cart.Total(),
	})
}

func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var input struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}

	if err := sess.Cart.SetQuantity(c.Context(), c.Params("itemID"), input.Quantity); err != nil {
		return response.ServerError(c, "Failed to update quantity")
	}

	return response.Success(c, "Quantity updated", fiber.Map{
		"items": sess.Cart.Items(),
		"total": sess.Cart.Total(),
	})
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	if err := sess.Cart.Remove(c.Context(), c.Params("itemID")); err != nil {
		return response.ServerError(c, "Failed to remove item")
	}

	return response.Success(c, "Item removed", fiber.Map{
		"items": sess.Cart.Items(),
		"total": sess.Cart.Total(),
	})
}

func (h *CartHandler) Clear(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	if err := sess.Cart.Clear(c.Context()); err != nil {
		return response.ServerError(c, "Failed to clear cart")
	}

	return response.Success(c, "Cart cleared", fiber.Map{
		"items": sess.Cart.Items(),
		"total": sess.Cart.Total(),
	})
}
