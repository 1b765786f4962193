package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"tokenwatch/internal/domain"
)

func TestClient_TopVolumeTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token/top/volume" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("timeframe") != "24h" {
			t.Errorf("expected timeframe 24h, got %s", r.URL.Query().Get("timeframe"))
		}

		resp := []map[string]interface{}{
			{"unit": "policy1aaa", "ticker": "AAA", "name": "Token A", "price": 0.5, "volume": 120000.0},
			{"unit": "policy2bbb", "ticker": "BBB", "name": "Token B", "price": 0.1, "volume": 80000.0},
			{"ticker": "NOUNIT"}, // dropped: no unit
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New(server.URL)
	listings, err := client.TopVolumeTokens(context.Background(), "24h", 10)
	if err != nil {
		t.Fatalf("TopVolumeTokens: %v", err)
	}

	if len(listings) != 2 {
		t.Fatalf("expected 2 listings, got %d", len(listings))
	}
	if listings[0].Unit != "policy1aaa" || listings[0].Ticker != "AAA" {
		t.Errorf("unexpected first listing: %+v", listings[0])
	}
	if listings[0].Source != domain.SourceTopVolume {
		t.Errorf("expected TOP_VOLUME provenance, got %s", listings[0].Source)
	}
}

func TestClient_TopHolders_NormalizesFieldNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("unit") != "unitX" {
			t.Errorf("expected unit unitX, got %s", r.URL.Query().Get("unit"))
		}
		// Provider mixes amount/quantity and address/ownerAddress.
		resp := []map[string]interface{}{
			{"address": "stake1aaa", "amount": 600.0},
			{"ownerAddress": "stake1bbb", "quantity": 200.0},
			{"amount": 50.0}, // dropped: no identity
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New(server.URL)
	holders, err := client.TopHolders(context.Background(), "unitX", 100)
	if err != nil {
		t.Fatalf("TopHolders: %v", err)
	}

	if len(holders) != 2 {
		t.Fatalf("expected 2 holders, got %d", len(holders))
	}
	if holders[0].StakeAddress != "stake1aaa" || holders[0].Quantity != 600 {
		t.Errorf("unexpected first holder: %+v", holders[0])
	}
	if holders[1].StakeAddress != "stake1bbb" || holders[1].Quantity != 200 {
		t.Errorf("unexpected second holder: %+v", holders[1])
	}
}

func TestClient_MarketCapSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"price": 0.25, "mcap": 250000.0, "circSupply": 1000000.0, "totalSupply": 2000000.0,
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New(server.URL)
	summary, err := client.MarketCapSummary(context.Background(), "unitX")
	if err != nil {
		t.Fatalf("MarketCapSummary: %v", err)
	}
	if summary.CirculatingSupply != 1000000 {
		t.Errorf("expected circulating supply 1000000, got %f", summary.CirculatingSupply)
	}
	if summary.TotalSupply != 2000000 {
		t.Errorf("expected total supply 2000000, got %f", summary.TotalSupply)
	}
}

func TestClient_UpstreamErrorSurfacesAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.LiquidityPools(context.Background(), "unitX"); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestClient_MalformedPayloadSurfacesAsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"`))
	}))
	defer server.Close()

	client := New(server.URL)
	if _, err := client.Trades(context.Background(), "unitX", "24h", 10); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestClient_PortfolioPositions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"positions": []map[string]interface{}{
				{"unit": "u1"}, {"unit": "u2"}, {"unit": "u3"},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := New(server.URL)
	n, err := client.PortfolioPositions(context.Background(), "addr1xyz")
	if err != nil {
		t.Fatalf("PortfolioPositions: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 positions, got %d", n)
	}
}
