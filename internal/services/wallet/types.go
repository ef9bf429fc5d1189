package wallet

import "tiffin/internal/models"

// DefaultBalance is the balance a wallet starts with when no state has ever
// been persisted for the session.
const DefaultBalance models.Money = 500

// Config holds configuration for wallet operations.
type Config struct {
	DefaultBalance models.Money
	HistoryLimit   int
}
