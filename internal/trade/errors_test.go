package trade

import (
	"testing"

	"github.com/updownhq/terminal/internal/domain"
)

func TestMapVenueError(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		code string
		want domain.TradeErrorKind
	}{
		{
			name: "credential mismatch",
			raw:  "the api key does not match the wallet address",
			want: domain.TradeErrCredentialMismatch,
		},
		{
			name: "credential mismatch via code",
			raw:  "request rejected",
			code: "INVALID_API_CREDENTIALS",
			want: domain.TradeErrCredentialMismatch,
		},
		{
			name: "insufficient balance",
			raw:  "not enough balance / allowance",
			want: domain.TradeErrInsufficientBalance,
		},
		{
			name: "missing allowance",
			raw:  "spender not approved for collateral",
			want: domain.TradeErrInsufficientAllowance,
		},
		{
			name: "fok liquidity",
			raw:  "FOK order couldn't be fully filled",
			want: domain.TradeErrLiquidity,
		},
		{
			name: "no liquidity",
			raw:  "no liquidity at requested price",
			want: domain.TradeErrLiquidity,
		},
		{
			name: "tick size",
			raw:  "price breaks the market tick size",
			want: domain.TradeErrVenueRejected,
		},
		{
			name: "minimum size",
			raw:  "order size below the minimum",
			want: domain.TradeErrVenueRejected,
		},
		{
			name: "duplicate",
			raw:  "duplicated order detected",
			want: domain.TradeErrVenueRejected,
		},
		{
			name: "unmatched text",
			raw:  "mysterious backend failure",
			want: domain.TradeErrVenueRejected,
		},
		{
			name: "empty",
			raw:  "",
			want: domain.TradeErrVenueRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapVenueError(tt.raw, tt.code)
			if got.Kind != tt.want {
				t.Fatalf("MapVenueError(%q, %q).Kind = %q, want %q", tt.raw, tt.code, got.Kind, tt.want)
			}
			if got.Message == "" {
				t.Fatalf("mapped error should carry a user-facing message")
			}
		})
	}
}

func TestMapVenueErrorPreservesRawText(t *testing.T) {
	got := MapVenueError("mysterious backend failure", "")
	if want := "order submission failed: mysterious backend failure"; got.Message != want {
		t.Fatalf("Message = %q, want %q", got.Message, want)
	}
}
