package rules

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rickgao/marketpulse/internal/model"
)

var now = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func newEngine(opts ...Option) *Engine {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return New(DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
}

func newsItem(id, title string, tags ...string) model.NewsItem {
	if tags == nil {
		tags = []string{}
	}
	return model.NewsItem{ID: id, Title: title, Source: "ANSA", PublishedAt: now, Tags: tags}
}

func asset(t model.AssetType, symbol string, change float64) model.MarketAsset {
	return model.MarketAsset{ID: model.AssetID(t, symbol), Type: t, Symbol: symbol, Name: symbol, Price: 100, Currency: "USD", Change24hPct: change, AsOf: now}
}

func byRule(alerts []model.AlertItem, id string) (model.AlertItem, bool) {
	for _, a := range alerts {
		if strings.HasPrefix(a.ID, "alert_"+id+"_") {
			return a, true
		}
	}
	return model.AlertItem{}, false
}

// Scenario A: two inflation headlines, three indices at -1.5%.
func TestGenerateAlerts_InflationRiskOff(t *testing.T) {
	news := []model.NewsItem{
		newsItem("n1", "Inflazione al 3%", "inflation"),
		newsItem("n2", "Prezzi in aumento", "inflation"),
	}
	assets := []model.MarketAsset{
		asset(model.AssetIndex, "^GSPC", -1.5),
		asset(model.AssetIndex, "^DJI", -1.5),
		asset(model.AssetIndex, "^IXIC", -1.5),
	}

	alerts := newEngine().GenerateAlerts(news, assets)

	a, ok := byRule(alerts, InflationRiskOff)
	if !ok {
		t.Fatalf("inflation_risk_off missing from %v", alerts)
	}
	if a.Severity != model.SeverityMedium {
		t.Errorf("Severity = %q, want medium", a.Severity)
	}
	if a.Confidence != 0.70 {
		t.Errorf("Confidence = %v, want 0.70", a.Confidence)
	}
	if a.Horizon != model.HorizonDays {
		t.Errorf("Horizon = %q, want days", a.Horizon)
	}
	if !slices.Equal(a.NewsRefs, []string{"n1", "n2"}) {
		t.Errorf("NewsRefs = %v, want [n1 n2]", a.NewsRefs)
	}
	if len(a.AssetRefs) != 3 {
		t.Errorf("AssetRefs = %v, want 3 indices", a.AssetRefs)
	}
	if !a.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", a.CreatedAt, now)
	}
}

// Scenario B: nothing in, nothing out.
func TestGenerateAlerts_Empty(t *testing.T) {
	alerts := newEngine().GenerateAlerts(nil, nil)
	if alerts == nil || len(alerts) != 0 {
		t.Errorf("alerts = %v, want empty list", alerts)
	}
}

// Scenario C: four pumping coins and one crypto headline.
func TestGenerateAlerts_CryptoRally(t *testing.T) {
	news := []model.NewsItem{newsItem("c1", "Bitcoin record", "crypto")}
	assets := []model.MarketAsset{
		asset(model.AssetCrypto, "BTC", 6),
		asset(model.AssetCrypto, "ETH", 7),
		asset(model.AssetCrypto, "SOL", 8),
		asset(model.AssetCrypto, "XRP", 9),
		asset(model.AssetCrypto, "DOGE", 1),
	}

	alerts := newEngine().GenerateAlerts(news, assets)

	a, ok := byRule(alerts, CryptoRally)
	if !ok {
		t.Fatalf("crypto_rally missing from %v", alerts)
	}
	want := []string{"crypto:XRP", "crypto:SOL", "crypto:ETH", "crypto:BTC"}
	if !slices.Equal(a.AssetRefs, want) {
		t.Errorf("AssetRefs = %v, want %v", a.AssetRefs, want)
	}
	if a.Severity != model.SeverityLow || a.Confidence != 0.60 {
		t.Errorf("severity/confidence = %s/%v, want low/0.60", a.Severity, a.Confidence)
	}
	if !slices.Equal(a.NewsRefs, []string{"c1"}) {
		t.Errorf("NewsRefs = %v, want [c1]", a.NewsRefs)
	}
}

func TestGenerateAlerts_CryptoRallyTopFive(t *testing.T) {
	news := []model.NewsItem{newsItem("c1", "Crypto", "crypto")}
	var assets []model.MarketAsset
	for i, sym := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		assets = append(assets, asset(model.AssetCrypto, sym, 6+float64(i)))
	}

	a, ok := byRule(newEngine().GenerateAlerts(news, assets), CryptoRally)
	if !ok {
		t.Fatal("crypto_rally missing")
	}
	want := []string{"crypto:G", "crypto:F", "crypto:E", "crypto:D", "crypto:C"}
	if !slices.Equal(a.AssetRefs, want) {
		t.Errorf("AssetRefs = %v, want %v", a.AssetRefs, want)
	}
}

func TestRules(t *testing.T) {
	tests := []struct {
		name     string
		rule     string
		news     []model.NewsItem
		assets   []model.MarketAsset
		want     bool
		severity model.Severity
	}{
		{
			name: "tech weakness fires on three names",
			rule: TechWeakness,
			assets: []model.MarketAsset{
				asset(model.AssetEquity, "AAPL", -2.5),
				asset(model.AssetEquity, "MSFT", -3),
				asset(model.AssetEquity, "NVDA", -4),
				asset(model.AssetEquity, "KO", -5),
			},
			want:     true,
			severity: model.SeverityMedium,
		},
		{
			name: "tech weakness needs below -2",
			rule: TechWeakness,
			assets: []model.MarketAsset{
				asset(model.AssetEquity, "AAPL", -2),
				asset(model.AssetEquity, "MSFT", -3),
				asset(model.AssetEquity, "NVDA", -4),
			},
			want: false,
		},
		{
			name: "rate decision via central bank tag",
			rule: RateDecision,
			news: []model.NewsItem{
				newsItem("r1", "Tassi fermi", "rates", "central_bank"),
				newsItem("r2", "Rates outlook", "rates", "central_bank"),
			},
			want:     true,
			severity: model.SeverityHigh,
		},
		{
			name: "rate decision via title",
			rule: RateDecision,
			news: []model.NewsItem{
				newsItem("r1", "La BCE alza i tassi", "rates"),
				newsItem("r2", "Fed minutes", "rates"),
			},
			want:     true,
			severity: model.SeverityHigh,
		},
		{
			name: "rate decision needs two",
			rule: RateDecision,
			news: []model.NewsItem{
				newsItem("r1", "La BCE alza i tassi", "rates"),
				newsItem("r2", "Mutui più cari", "rates"),
			},
			want: false,
		},
		{
			name: "gold safe haven",
			rule: GoldSafeHaven,
			news: []model.NewsItem{newsItem("g1", "Tensioni in Medio Oriente", "geopolitics")},
			assets: []model.MarketAsset{
				asset(model.AssetCommodity, "GC=F", 1.2),
				asset(model.AssetIndex, "^GSPC", -0.3),
				asset(model.AssetIndex, "^DJI", -0.1),
			},
			want:     true,
			severity: model.SeverityMedium,
		},
		{
			name: "gold safe haven needs gold above 0.5",
			rule: GoldSafeHaven,
			news: []model.NewsItem{newsItem("g1", "Tensioni", "geopolitics")},
			assets: []model.MarketAsset{
				asset(model.AssetCommodity, "GC=F", 0.5),
				asset(model.AssetIndex, "^GSPC", -0.3),
				asset(model.AssetIndex, "^DJI", -0.1),
			},
			want: false,
		},
		{
			name: "energy volatility on a drop",
			rule: EnergyVolatility,
			news: []model.NewsItem{
				newsItem("e1", "Petrolio in calo", "energy"),
				newsItem("e2", "OPEC taglia", "energy"),
			},
			assets:   []model.MarketAsset{asset(model.AssetCommodity, "CL=F", -3.1)},
			want:     true,
			severity: model.SeverityMedium,
		},
		{
			name: "energy volatility without oil asset",
			rule: EnergyVolatility,
			news: []model.NewsItem{
				newsItem("e1", "Petrolio in calo", "energy"),
				newsItem("e2", "OPEC taglia", "energy"),
			},
			want: false,
		},
		{
			name: "sentiment shift medium",
			rule: SentimentShift,
			assets: []model.MarketAsset{
				asset(model.AssetIndex, "^GSPC", 0.4),
				asset(model.AssetIndex, "^DJI", 0.9),
			},
			want:     true,
			severity: model.SeverityMedium,
		},
		{
			name: "sentiment shift high",
			rule: SentimentShift,
			assets: []model.MarketAsset{
				asset(model.AssetIndex, "^GSPC", -1.8),
				asset(model.AssetIndex, "^DJI", -2.0),
			},
			want:     true,
			severity: model.SeverityHigh,
		},
		{
			name: "sentiment shift mixed",
			rule: SentimentShift,
			assets: []model.MarketAsset{
				asset(model.AssetIndex, "^GSPC", 0.4),
				asset(model.AssetIndex, "^DJI", -0.9),
			},
			want: false,
		},
		{
			name: "sentiment shift zero breaks unanimity",
			rule: SentimentShift,
			assets: []model.MarketAsset{
				asset(model.AssetIndex, "^GSPC", 0),
				asset(model.AssetIndex, "^DJI", 0.9),
			},
			want: false,
		},
		{
			name: "sentiment shift needs two indices",
			rule: SentimentShift,
			assets: []model.MarketAsset{
				asset(model.AssetIndex, "^GSPC", 2),
			},
			want: false,
		},
		{
			name: "crypto decoupling",
			rule: CryptoDecoupling,
			assets: []model.MarketAsset{
				asset(model.AssetCrypto, "BTC", 3),
				asset(model.AssetIndex, "^GSPC", -1),
			},
			want:     true,
			severity: model.SeverityLow,
		},
		{
			name: "crypto decoupling gap too small",
			rule: CryptoDecoupling,
			assets: []model.MarketAsset{
				asset(model.AssetCrypto, "BTC", 2),
				asset(model.AssetIndex, "^GSPC", -1),
			},
			want: false,
		},
		{
			name: "crypto decoupling same sign",
			rule: CryptoDecoupling,
			assets: []model.MarketAsset{
				asset(model.AssetCrypto, "BTC", 8),
				asset(model.AssetIndex, "^GSPC", 1),
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := newEngine().GenerateAlerts(tt.news, tt.assets)
			a, ok := byRule(alerts, tt.rule)
			if ok != tt.want {
				t.Fatalf("%s fired = %v, want %v", tt.rule, ok, tt.want)
			}
			if ok && a.Severity != tt.severity {
				t.Errorf("Severity = %q, want %q", a.Severity, tt.severity)
			}
		})
	}
}

func TestRefsOnlySatisfyingItems(t *testing.T) {
	news := []model.NewsItem{
		newsItem("g1", "Guerra", "geopolitics"),
		newsItem("x1", "Other", "markets"),
	}
	assets := []model.MarketAsset{
		asset(model.AssetCommodity, "GC=F", 1.2),
		asset(model.AssetIndex, "^GSPC", -0.3),
		asset(model.AssetIndex, "^DJI", -0.1),
		asset(model.AssetIndex, "^N225", 0.4),
	}

	a, ok := byRule(newEngine().GenerateAlerts(news, assets), GoldSafeHaven)
	if !ok {
		t.Fatal("gold_safe_haven missing")
	}
	if want := []string{"commodity:GC=F", "index:^GSPC", "index:^DJI"}; !slices.Equal(a.AssetRefs, want) {
		t.Errorf("AssetRefs = %v, want %v", a.AssetRefs, want)
	}
	if !slices.Equal(a.NewsRefs, []string{"g1"}) {
		t.Errorf("NewsRefs = %v, want [g1]", a.NewsRefs)
	}
}

// everything triggers all eight rules at once.
func everything() ([]model.NewsItem, []model.MarketAsset) {
	news := []model.NewsItem{
		newsItem("n1", "Inflazione e tassi: la BCE decide", "inflation", "rates", "central_bank"),
		newsItem("n2", "Prezzi e Fed", "inflation", "rates", "central_bank"),
		newsItem("n3", "Bitcoin vola", "crypto"),
		newsItem("n4", "Guerra e petrolio", "geopolitics", "energy"),
		newsItem("n5", "Gas alle stelle", "energy"),
	}
	assets := []model.MarketAsset{
		asset(model.AssetIndex, "^GSPC", -2),
		asset(model.AssetIndex, "^DJI", -2),
		asset(model.AssetEquity, "AAPL", -3),
		asset(model.AssetEquity, "MSFT", -3),
		asset(model.AssetEquity, "NVDA", -3),
		asset(model.AssetCrypto, "BTC", 8),
		asset(model.AssetCrypto, "ETH", 9),
		asset(model.AssetCrypto, "SOL", 10),
		asset(model.AssetCommodity, "GC=F", 1),
		asset(model.AssetCommodity, "CL=F", 4),
	}
	return news, assets
}

func TestGenerateAlerts_AllRulesBoundsAndRanking(t *testing.T) {
	news, assets := everything()

	alerts := newEngine().GenerateAlerts(news, assets)
	if len(alerts) != 8 {
		t.Fatalf("len(alerts) = %d, want 8", len(alerts))
	}

	ids := make(map[string]bool)
	for i, a := range alerts {
		if n := utf8.RuneCountInString(a.Title); n == 0 || n > MaxTitleLen {
			t.Errorf("%s title length = %d", a.ID, n)
		}
		if n := utf8.RuneCountInString(a.Thesis); n < MinThesisLen || n > MaxThesisLen {
			t.Errorf("%s thesis length = %d, want %d-%d", a.ID, n, MinThesisLen, MaxThesisLen)
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Errorf("%s confidence = %v", a.ID, a.Confidence)
		}
		if len(a.NewsRefs) > 3 || len(a.AssetRefs) > 5 {
			t.Errorf("%s refs = %d news, %d assets", a.ID, len(a.NewsRefs), len(a.AssetRefs))
		}
		if a.NewsRefs == nil || a.AssetRefs == nil {
			t.Errorf("%s has nil refs", a.ID)
		}
		if ids[a.ID] {
			t.Errorf("duplicate alert id %s", a.ID)
		}
		ids[a.ID] = true

		if i > 0 {
			prev := alerts[i-1]
			if prev.Severity.Rank() < a.Severity.Rank() ||
				(prev.Severity == a.Severity && prev.Confidence < a.Confidence) {
				t.Errorf("alerts[%d] (%s %v) ranked above alerts[%d] (%s %v)", i-1, prev.Severity, prev.Confidence, i, a.Severity, a.Confidence)
			}
		}
	}

	// high: rate_decision 0.90, sentiment_shift 0.85 (mean |change| 2 > 1.5)
	if !strings.HasPrefix(alerts[0].ID, "alert_"+RateDecision+"_") {
		t.Errorf("alerts[0] = %s, want rate_decision", alerts[0].ID)
	}
	if !strings.HasPrefix(alerts[1].ID, "alert_"+SentimentShift+"_") {
		t.Errorf("alerts[1] = %s, want sentiment_shift", alerts[1].ID)
	}
}

func TestGenerateAlerts_Truncates(t *testing.T) {
	news, assets := everything()

	cfg := DefaultConfig()
	cfg.MaxAlerts = 3
	e := New(cfg, nil)

	alerts := e.GenerateAlerts(news, assets)
	if len(alerts) != 3 {
		t.Fatalf("len(alerts) = %d, want 3", len(alerts))
	}
	full := New(DefaultConfig(), nil).GenerateAlerts(news, assets)
	for i := range alerts {
		if alerts[i].Title != full[i].Title {
			t.Errorf("alerts[%d] = %q, want prefix of full ranking %q", i, alerts[i].Title, full[i].Title)
		}
	}
}

func TestGenerateAlerts_RuleIsolation(t *testing.T) {
	panicMatch := NewRule("boom_match", func(Snapshot) bool { panic("bad condition") }, nil)
	panicDescribe := NewRule("boom_describe",
		func(Snapshot) bool { return true },
		func(Snapshot) model.AlertItem {
			var m map[string]int
			m["x"] = 1
			return model.AlertItem{}
		},
	)
	ok := NewRule("steady",
		func(Snapshot) bool { return true },
		func(Snapshot) model.AlertItem {
			return model.AlertItem{Severity: model.SeverityLow, Title: "ok", Confidence: 0.5, Horizon: model.HorizonDays}
		},
	)

	e := newEngine(WithRules(panicMatch, ok, panicDescribe))

	for range 2 {
		alerts := e.GenerateAlerts(nil, nil)
		if len(alerts) != 1 {
			t.Fatalf("len(alerts) = %d, want 1", len(alerts))
		}
		if !strings.HasPrefix(alerts[0].ID, "alert_steady_") {
			t.Errorf("ID = %q, want alert_steady_ prefix", alerts[0].ID)
		}
	}
}

func TestRank_Stable(t *testing.T) {
	alerts := []model.AlertItem{
		{Title: "low", Severity: model.SeverityLow, Confidence: 0.9},
		{Title: "med-a", Severity: model.SeverityMedium, Confidence: 0.7},
		{Title: "high", Severity: model.SeverityHigh, Confidence: 0.1},
		{Title: "med-b", Severity: model.SeverityMedium, Confidence: 0.7},
		{Title: "med-c", Severity: model.SeverityMedium, Confidence: 0.8},
	}

	Rank(alerts)

	var got []string
	for _, a := range alerts {
		got = append(got, a.Title)
	}
	want := []string{"high", "med-c", "med-a", "med-b", "low"}
	if !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestFinalize_Clips(t *testing.T) {
	a := finalize("x", model.AlertItem{
		Title:  strings.Repeat("t", 120),
		Thesis: strings.Repeat("è", 700),
	}, now)

	if n := utf8.RuneCountInString(a.Title); n != MaxTitleLen {
		t.Errorf("title length = %d, want %d", n, MaxTitleLen)
	}
	if n := utf8.RuneCountInString(a.Thesis); n != MaxThesisLen {
		t.Errorf("thesis length = %d, want %d", n, MaxThesisLen)
	}
	if !strings.HasPrefix(a.ID, "alert_x_") || len(a.ID) != len("alert_x_")+36 {
		t.Errorf("ID = %q, want alert_x_<uuid>", a.ID)
	}
}

func TestFinalize_PadsShortThesis(t *testing.T) {
	for _, thesis := range []string{"", "Short thesis."} {
		a := finalize("x", model.AlertItem{Thesis: thesis}, now)

		if n := utf8.RuneCountInString(a.Thesis); n < MinThesisLen || n > MaxThesisLen {
			t.Errorf("thesis %q padded to %d runes, want %d-%d", thesis, n, MinThesisLen, MaxThesisLen)
		}
		if !strings.HasPrefix(a.Thesis, thesis) {
			t.Errorf("padded thesis %q lost original text %q", a.Thesis, thesis)
		}
	}
}

func TestMinConfidenceCarried(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 0.95
	e := New(cfg, nil)

	if e.MinConfidence() != 0.95 {
		t.Errorf("MinConfidence = %v, want 0.95", e.MinConfidence())
	}
	news, assets := everything()
	if got := len(e.GenerateAlerts(news, assets)); got != 8 {
		t.Errorf("len(alerts) = %d, want 8 (threshold not applied)", got)
	}
}
