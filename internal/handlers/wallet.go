package handlers

import (
	"tiffin/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WalletHandler struct{}

func NewWalletHandler() *WalletHandler {
	return &WalletHandler{}
}

func (h *WalletHandler) Get(c *fiber.Ctx) error {
	sess, ok := currentSession(c)
	if !ok {
		return response.Unauthorized(c)
	}

	return response.Success(c, "Wallet", fiber.Map{
		"balance": sess.Wallet.Balance(),
		"history": sess.Wallet.History(),
	})
}
