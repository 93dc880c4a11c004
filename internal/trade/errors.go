package trade

import (
	"strings"

	"github.com/updownhq/terminal/internal/domain"
)

// MapVenueError pattern-matches the venue's free-text rejection into the
// trade error taxonomy. The venue does not return stable machine codes for
// most rejections, so the raw string is the contract; unmatched text falls
// back to a generic submission failure.
func MapVenueError(raw, code string) *domain.TradeError {
	msg := strings.ToLower(raw)
	if code != "" {
		msg += " " + strings.ToLower(code)
	}

	switch {
	case contains(msg, "api key", "apikey", "api credentials", "credential", "does not match the wallet", "invalid signature owner"):
		return domain.NewTradeError(domain.TradeErrCredentialMismatch,
			"trading credentials do not match the connected wallet; please re-authenticate")

	case contains(msg, "not enough balance", "insufficient balance", "insufficient funds"):
		return domain.NewTradeError(domain.TradeErrInsufficientBalance,
			"insufficient balance to fund this order")

	case contains(msg, "allowance", "not approved", "approval required"):
		return domain.NewTradeError(domain.TradeErrInsufficientAllowance,
			"token spending approval is missing or insufficient")

	case contains(msg, "fok", "could not be fully filled", "couldn't be fully filled", "no liquidity", "not enough liquidity"):
		return domain.NewTradeError(domain.TradeErrLiquidity,
			"order could not fill at the current book; reduce size or switch to a limit order")

	case contains(msg, "tick size", "invalid price increment"):
		return domain.NewTradeError(domain.TradeErrVenueRejected,
			"price does not match the market's tick size")

	case contains(msg, "minimum size", "min size", "below the minimum", "order too small"):
		return domain.NewTradeError(domain.TradeErrVenueRejected,
			"order is below the venue's minimum size")

	case contains(msg, "duplicate", "duplicated order", "already placed"):
		return domain.NewTradeError(domain.TradeErrVenueRejected,
			"an identical order was already placed")

	default:
		m := "order submission failed"
		if raw != "" {
			m += ": " + raw
		}
		return domain.NewTradeError(domain.TradeErrVenueRejected, m)
	}
}

func contains(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
