package book

import (
	"testing"
	"time"

	"github.com/updownhq/terminal/internal/domain"
)

func TestNormalizeShapes(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		payload string
		bids    int
		asks    int
	}{
		{
			name:    "bids and asks",
			payload: `{"bids":[{"price":48,"size":10}],"asks":[{"price":52,"size":5}]}`,
			bids:    1,
			asks:    1,
		},
		{
			name:    "legacy buy and sell orders",
			payload: `{"buyOrders":[{"price":48,"size":10}],"sellOrders":[{"price":52,"size":5}]}`,
			bids:    1,
			asks:    1,
		},
		{
			name:    "nested data envelope",
			payload: `{"data":{"bids":[{"price":48,"size":10}],"asks":[{"price":52,"size":5}]}}`,
			bids:    1,
			asks:    1,
		},
		{
			name:    "string numbers",
			payload: `{"bids":[{"price":"48.5","size":"10"}],"asks":[]}`,
			bids:    1,
			asks:    0,
		},
		{
			name:    "unparseable payload",
			payload: `not json`,
			bids:    0,
			asks:    0,
		},
		{
			name:    "empty object",
			payload: `{}`,
			bids:    0,
			asks:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize("tok", []byte(tt.payload), now)
			if got.TokenID != "tok" {
				t.Fatalf("TokenID = %q, want %q", got.TokenID, "tok")
			}
			if len(got.Bids) != tt.bids {
				t.Fatalf("len(Bids) = %d, want %d", len(got.Bids), tt.bids)
			}
			if len(got.Asks) != tt.asks {
				t.Fatalf("len(Asks) = %d, want %d", len(got.Asks), tt.asks)
			}
		})
	}
}

func TestNormalizeSortsAndAccumulates(t *testing.T) {
	payload := `{
		"bids":[{"price":40,"size":1},{"price":49,"size":2},{"price":45,"size":3}],
		"asks":[{"price":60,"size":1},{"price":51,"size":2},{"price":55,"size":3}]
	}`
	got := Normalize("tok", []byte(payload), time.Now())

	wantBids := []domain.BookLevel{
		{Price: 49, Size: 2, CumulativeSize: 2},
		{Price: 45, Size: 3, CumulativeSize: 5},
		{Price: 40, Size: 1, CumulativeSize: 6},
	}
	wantAsks := []domain.BookLevel{
		{Price: 51, Size: 2, CumulativeSize: 2},
		{Price: 55, Size: 3, CumulativeSize: 5},
		{Price: 60, Size: 1, CumulativeSize: 6},
	}

	if len(got.Bids) != len(wantBids) {
		t.Fatalf("len(Bids) = %d, want %d", len(got.Bids), len(wantBids))
	}
	for i, w := range wantBids {
		if got.Bids[i] != w {
			t.Fatalf("Bids[%d] = %+v, want %+v", i, got.Bids[i], w)
		}
	}
	if len(got.Asks) != len(wantAsks) {
		t.Fatalf("len(Asks) = %d, want %d", len(got.Asks), len(wantAsks))
	}
	for i, w := range wantAsks {
		if got.Asks[i] != w {
			t.Fatalf("Asks[%d] = %+v, want %+v", i, got.Asks[i], w)
		}
	}
}

func TestNormalizeDropsInvalidLevels(t *testing.T) {
	payload := `{
		"bids":[
			{"price":49,"size":2},
			{"price":"garbage","size":3},
			{"price":48,"size":0},
			{"price":-1,"size":5},
			{"price":47}
		],
		"asks":[]
	}`
	got := Normalize("tok", []byte(payload), time.Now())

	if len(got.Bids) != 1 {
		t.Fatalf("len(Bids) = %d, want 1", len(got.Bids))
	}
	if got.Bids[0].Price != 49 {
		t.Fatalf("Bids[0].Price = %v, want 49", got.Bids[0].Price)
	}
	if got.Bids[0].CumulativeSize != 2 {
		t.Fatalf("Bids[0].CumulativeSize = %v, want 2", got.Bids[0].CumulativeSize)
	}
}

func TestNormalizePrefersModernKeys(t *testing.T) {
	// When both key families are present, bids/asks wins.
	payload := `{
		"bids":[{"price":49,"size":1}],
		"asks":[{"price":51,"size":1}],
		"buyOrders":[{"price":10,"size":1}],
		"sellOrders":[{"price":90,"size":1}]
	}`
	got := Normalize("tok", []byte(payload), time.Now())

	if len(got.Bids) != 1 || got.Bids[0].Price != 49 {
		t.Fatalf("Bids = %+v, want the bids key to win", got.Bids)
	}
	if len(got.Asks) != 1 || got.Asks[0].Price != 51 {
		t.Fatalf("Asks = %+v, want the asks key to win", got.Asks)
	}
}
