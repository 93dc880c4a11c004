package polymarket

import (
	"time"

	"github.com/updownhq/terminal/internal/domain"
)

// APIMarket is the resolver's wire shape for an active market window.
type APIMarket struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Pair      string `json:"pair"`
	Timeframe string `json:"timeframe"`
	UpToken   string `json:"upTokenId"`
	DownToken string `json:"downTokenId"`
	StartTime int64  `json:"startTime"` // unix seconds
	EndTime   int64  `json:"endTime"`
	NegRisk   bool   `json:"negRisk"`
}

// ToDomainMarket converts the wire market into the domain value, deriving
// the window status from the clock.
func (m APIMarket) ToDomainMarket(now time.Time) domain.Market {
	out := domain.Market{
		ID:        m.ID,
		Slug:      m.Slug,
		Pair:      m.Pair,
		Timeframe: m.Timeframe,
		UpToken:   m.UpToken,
		DownToken: m.DownToken,
		StartTime: time.Unix(m.StartTime, 0).UTC(),
		EndTime:   time.Unix(m.EndTime, 0).UTC(),
		NegRisk:   m.NegRisk,
	}
	out.Status = out.StatusAt(now)
	return out
}

// apiHistoryResponse wraps the price-history payload.
type apiHistoryResponse struct {
	Data []apiHistoryPoint `json:"data"`
}

// apiHistoryPoint is one historical observation. Time arrives as unix
// seconds; prices in whatever scale the upstream uses (normalized by the
// synchronizer).
type apiHistoryPoint struct {
	Time      int64   `json:"time"`
	UpPrice   float64 `json:"upPrice"`
	DownPrice float64 `json:"downPrice"`
}

// apiAllowanceResponse is the user allowance endpoint payload.
type apiAllowanceResponse struct {
	Allowance struct {
		NeedsAnyApproval bool `json:"needsAnyApproval"`
		HasAnyBalance    bool `json:"hasAnyBalance"`
	} `json:"allowance"`
	ConditionalTokens struct {
		NeedsApproval bool `json:"needsApproval"`
	} `json:"conditionalTokens"`
}

func (a apiAllowanceResponse) ToDomain() domain.AllowanceStatus {
	return domain.AllowanceStatus{
		NeedsApproval:            a.Allowance.NeedsAnyApproval,
		HasBalance:               a.Allowance.HasAnyBalance,
		ConditionalNeedsApproval: a.ConditionalTokens.NeedsApproval,
	}
}

// apiApproveResponse is the shared shape of the approval endpoints.
type apiApproveResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// APIPosition is one entry of the user positions payload.
type APIPosition struct {
	Asset    string  `json:"asset"`
	Size     float64 `json:"size"`
	AvgPrice float64 `json:"avgPrice"`
}

func (p APIPosition) ToDomainPosition() domain.Position {
	return domain.Position{
		TokenID:       p.Asset,
		Shares:        p.Size,
		AvgPriceCents: domain.NormalizeCents(p.AvgPrice),
	}
}
