package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAssetType_Valid(t *testing.T) {
	tests := []struct {
		in   AssetType
		want bool
	}{
		{AssetEquity, true},
		{AssetIndex, true},
		{AssetCrypto, true},
		{AssetCommodity, true},
		{AssetETF, true},
		{"", false},
		{"bond", false},
		{"Equity", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := tt.in.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAssetType_Trackable(t *testing.T) {
	for _, typ := range []AssetType{AssetEquity, AssetIndex, AssetCommodity, AssetETF} {
		if !typ.Trackable() {
			t.Errorf("%s.Trackable() = false, want true", typ)
		}
	}
	for _, typ := range []AssetType{AssetCrypto, "", "bond"} {
		if typ.Trackable() {
			t.Errorf("%q.Trackable() = true, want false", typ)
		}
	}
}

func TestSeverity_Rank(t *testing.T) {
	if !(SeverityHigh.Rank() > SeverityMedium.Rank() && SeverityMedium.Rank() > SeverityLow.Rank()) {
		t.Errorf("ranks not ordered: high=%d medium=%d low=%d",
			SeverityHigh.Rank(), SeverityMedium.Rank(), SeverityLow.Rank())
	}
	if got := Severity("critical").Rank(); got != 0 {
		t.Errorf("unknown Rank() = %d, want 0", got)
	}
}

func TestNewsItem_HasTag(t *testing.T) {
	n := NewsItem{Tags: []string{"inflation", "rates"}}

	if !n.HasTag("rates") {
		t.Error("HasTag(rates) = false, want true")
	}
	if n.HasTag("crypto") {
		t.Error("HasTag(crypto) = true, want false")
	}
	if (NewsItem{}).HasTag("rates") {
		t.Error("HasTag on untagged item = true, want false")
	}
}

func TestAssetID(t *testing.T) {
	if got := AssetID(AssetIndex, "^GSPC"); got != "index:^GSPC" {
		t.Errorf("AssetID = %q, want %q", got, "index:^GSPC")
	}
}

func TestMarketAsset_JSONNullOptionals(t *testing.T) {
	a := MarketAsset{ID: "equity:AAPL", Type: AssetEquity, Symbol: "AAPL", Price: 180, High24h: Float(182)}

	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	s := string(b)

	if !strings.Contains(s, `"low24h":null`) {
		t.Errorf("expected low24h to be null, got %s", s)
	}
	if !strings.Contains(s, `"high24h":182`) {
		t.Errorf("expected high24h 182, got %s", s)
	}
	if strings.Contains(s, `"estimated"`) {
		t.Errorf("estimated should be omitted when false, got %s", s)
	}
}

func TestRawCrypto_DecodeCoinGecko(t *testing.T) {
	payload := `{"symbol":"btc","name":"Bitcoin","current_price":61000.5,"price_change_percentage_24h":null,"high_24h":62000,"market_cap":1200000000000}`

	var rc RawCrypto
	if err := json.Unmarshal([]byte(payload), &rc); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if rc.Symbol != "btc" {
		t.Errorf("Symbol = %q, want %q", rc.Symbol, "btc")
	}
	if rc.PriceChangePercentage24h != nil {
		t.Errorf("PriceChangePercentage24h = %v, want nil", *rc.PriceChangePercentage24h)
	}
	if rc.High24h == nil || *rc.High24h != 62000 {
		t.Errorf("High24h = %v, want 62000", rc.High24h)
	}
	if rc.Low24h != nil {
		t.Errorf("Low24h = %v, want nil", *rc.Low24h)
	}
}
