package domain

// Position is the user's holding in one outcome token. The chain owns the
// truth; this is a read-through value invalidated on market or wallet change
// and refetched after every fill.
type Position struct {
	TokenID       string  `json:"tokenId"`
	Shares        float64 `json:"shares"`
	AvgPriceCents float64 `json:"avgPrice"`
}

// AllowanceStatus is the derived on-chain spending permission state for the
// active wallet. Recomputed from chain state on demand, never cached across
// market or account changes.
type AllowanceStatus struct {
	NeedsApproval            bool // funding token allowance insufficient
	HasBalance               bool // wallet holds spendable funding balance
	ConditionalNeedsApproval bool // outcome-token transfer approval missing
}
