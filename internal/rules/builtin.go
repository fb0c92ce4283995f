package rules

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/rickgao/marketpulse/internal/model"
)

// Built-in rule identifiers.
const (
	InflationRiskOff = "inflation_risk_off"
	CryptoRally      = "crypto_rally"
	TechWeakness     = "tech_weakness"
	RateDecision     = "rate_decision"
	GoldSafeHaven    = "gold_safe_haven"
	EnergyVolatility = "energy_volatility"
	SentimentShift   = "sentiment_shift"
	CryptoDecoupling = "crypto_decoupling"
)

// Tags the built-in rules look for.
const (
	tagInflation   = "inflation"
	tagCrypto      = "crypto"
	tagRates       = "rates"
	tagCentralBank = "central_bank"
	tagGeopolitics = "geopolitics"
	tagEnergy      = "energy"
)

const (
	maxNewsRefs  = 3
	maxAssetRefs = 5
)

// BigTech is the symbol set watched by tech_weakness.
var BigTech = []string{"AAPL", "MSFT", "GOOGL", "NVDA", "TSLA"}

var (
	goldSymbols = []string{"GC=F", "GOLD"}
	oilSymbols  = []string{"CL=F", "OIL"}
)

// ruleFunc adapts a pair of functions to Rule.
type ruleFunc struct {
	id       string
	match    func(Snapshot) bool
	describe func(Snapshot) model.AlertItem
}

func (r ruleFunc) ID() string                          { return r.id }
func (r ruleFunc) Matches(s Snapshot) bool             { return r.match(s) }
func (r ruleFunc) Describe(s Snapshot) model.AlertItem { return r.describe(s) }

// NewRule builds a Rule from a condition and a generator.
func NewRule(id string, match func(Snapshot) bool, describe func(Snapshot) model.AlertItem) Rule {
	return ruleFunc{id: id, match: match, describe: describe}
}

// DefaultRules returns the built-in rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		NewRule(InflationRiskOff, matchInflationRiskOff, describeInflationRiskOff),
		NewRule(CryptoRally, matchCryptoRally, describeCryptoRally),
		NewRule(TechWeakness, matchTechWeakness, describeTechWeakness),
		NewRule(RateDecision, matchRateDecision, describeRateDecision),
		NewRule(GoldSafeHaven, matchGoldSafeHaven, describeGoldSafeHaven),
		NewRule(EnergyVolatility, matchEnergyVolatility, describeEnergyVolatility),
		NewRule(SentimentShift, matchSentimentShift, describeSentimentShift),
		NewRule(CryptoDecoupling, matchCryptoDecoupling, describeCryptoDecoupling),
	}
}

// -----------------------------------------------------------------------------
// inflation_risk_off
// -----------------------------------------------------------------------------

func decliningEquities(assets []model.MarketAsset) []model.MarketAsset {
	return filterAssets(assets, func(a model.MarketAsset) bool {
		return (a.Type == model.AssetEquity || a.Type == model.AssetIndex) && a.Change24hPct < -1
	})
}

func matchInflationRiskOff(s Snapshot) bool {
	return len(tagged(s.News, tagInflation)) >= 2 && len(decliningEquities(s.Assets)) >= 3
}

func describeInflationRiskOff(s Snapshot) model.AlertItem {
	news := tagged(s.News, tagInflation)
	declining := decliningEquities(s.Assets)

	return model.AlertItem{
		Severity: model.SeverityMedium,
		Title:    "Inflation pressure with falling equity markets",
		Thesis: fmt.Sprintf("%d inflation headlines arrived while %d equity and index assets fell more than 1%% "+
			"over 24 hours (average %+.2f%%). Rising price pressure combined with broad equity weakness is a "+
			"classic risk-off setup: markets may be pricing tighter monetary policy, so defensive positioning "+
			"and lower equity exposure deserve a closer look.",
			len(news), len(declining), meanChange(declining)),
		Confidence: 0.70,
		Horizon:    model.HorizonDays,
		AssetRefs:  assetRefs(declining, maxAssetRefs),
		NewsRefs:   newsRefs(news, maxNewsRefs),
	}
}

// -----------------------------------------------------------------------------
// crypto_rally
// -----------------------------------------------------------------------------

func pumpingCrypto(assets []model.MarketAsset) []model.MarketAsset {
	return filterAssets(assets, func(a model.MarketAsset) bool {
		return a.Type == model.AssetCrypto && a.Change24hPct > 5
	})
}

func matchCryptoRally(s Snapshot) bool {
	return len(tagged(s.News, tagCrypto)) >= 1 && len(pumpingCrypto(s.Assets)) >= 3
}

func describeCryptoRally(s Snapshot) model.AlertItem {
	gainers := pumpingCrypto(s.Assets)
	slices.SortStableFunc(gainers, func(a, b model.MarketAsset) int {
		return cmp.Compare(b.Change24hPct, a.Change24hPct)
	})
	leader := gainers[0]

	return model.AlertItem{
		Severity: model.SeverityLow,
		Title:    "Crypto rally under way",
		Thesis: fmt.Sprintf("%d crypto assets gained more than 5%% in 24 hours, led by %s at %+.2f%%, while "+
			"crypto headlines are in the news flow. Gains spread across several coins point to a sector-wide "+
			"rally rather than a single-asset move; momentum can persist in the short term, but crypto rallies "+
			"tend to reverse quickly and sharply.",
			len(gainers), leader.Symbol, leader.Change24hPct),
		Confidence: 0.60,
		Horizon:    model.HorizonDays,
		AssetRefs:  assetRefs(gainers, maxAssetRefs),
		NewsRefs:   newsRefs(tagged(s.News, tagCrypto), maxNewsRefs),
	}
}

// -----------------------------------------------------------------------------
// tech_weakness
// -----------------------------------------------------------------------------

func weakTech(assets []model.MarketAsset) []model.MarketAsset {
	return filterAssets(assets, func(a model.MarketAsset) bool {
		return slices.Contains(BigTech, a.Symbol) && a.Change24hPct < -2
	})
}

func matchTechWeakness(s Snapshot) bool {
	return len(weakTech(s.Assets)) >= 3
}

func describeTechWeakness(s Snapshot) model.AlertItem {
	weak := weakTech(s.Assets)

	return model.AlertItem{
		Severity: model.SeverityMedium,
		Title:    "Big tech weakness",
		Thesis: fmt.Sprintf("%d of the five largest technology stocks (%s) are down more than 2%% over 24 hours. "+
			"Simultaneous weakness across the biggest tech names usually reflects sector rotation or profit "+
			"taking rather than company-specific news, and it tends to weigh on growth-heavy indices over the "+
			"following weeks.",
			len(weak), strings.Join(symbols(weak), ", ")),
		Confidence: 0.75,
		Horizon:    model.HorizonWeeks,
		AssetRefs:  assetRefs(weak, maxAssetRefs),
	}
}

// -----------------------------------------------------------------------------
// rate_decision
// -----------------------------------------------------------------------------

func centralBankRateNews(news []model.NewsItem) []model.NewsItem {
	return filterNews(news, func(n model.NewsItem) bool {
		if !n.HasTag(tagRates) {
			return false
		}
		title := strings.ToLower(n.Title)
		return n.HasTag(tagCentralBank) || strings.Contains(title, "bce") || strings.Contains(title, "fed")
	})
}

func matchRateDecision(s Snapshot) bool {
	return len(centralBankRateNews(s.News)) >= 2
}

func describeRateDecision(s Snapshot) model.AlertItem {
	news := centralBankRateNews(s.News)

	return model.AlertItem{
		Severity: model.SeverityHigh,
		Title:    "Central bank rate decision in focus",
		Thesis: fmt.Sprintf("%d headlines cover interest rates and central bank policy (ECB/Fed), for example: %q. "+
			"A rate decision or a change in official guidance moves bond yields, currencies and equity "+
			"valuations at the same time, so elevated volatility across all asset classes is likely in the "+
			"coming weeks.",
			len(news), clip(news[0].Title, MaxTitleLen)),
		Confidence: 0.90,
		Horizon:    model.HorizonWeeks,
		NewsRefs:   newsRefs(news, maxNewsRefs),
	}
}

// -----------------------------------------------------------------------------
// gold_safe_haven
// -----------------------------------------------------------------------------

func fallingIndices(assets []model.MarketAsset) []model.MarketAsset {
	return filterAssets(assets, func(a model.MarketAsset) bool {
		return a.Type == model.AssetIndex && a.Change24hPct < 0
	})
}

func matchGoldSafeHaven(s Snapshot) bool {
	gold, ok := findSymbol(s.Assets, goldSymbols)
	return len(tagged(s.News, tagGeopolitics)) >= 1 &&
		ok && gold.Change24hPct > 0.5 &&
		len(fallingIndices(s.Assets)) >= 2
}

func describeGoldSafeHaven(s Snapshot) model.AlertItem {
	gold, _ := findSymbol(s.Assets, goldSymbols)
	falling := fallingIndices(s.Assets)

	refs := append([]string{gold.ID}, assetRefs(falling, maxAssetRefs-1)...)

	return model.AlertItem{
		Severity: model.SeverityMedium,
		Title:    "Flight to safe havens (gold)",
		Thesis: fmt.Sprintf("Gold is up %+.2f%% while %d major indices are in the red and geopolitical tensions "+
			"dominate the headlines. Investors appear to be rotating from risk assets into traditional safe "+
			"havens; this flow usually lasts as long as the underlying tensions stay unresolved, so watch "+
			"for a reversal on any sign of de-escalation.",
			gold.Change24hPct, len(falling)),
		Confidence: 0.80,
		Horizon:    model.HorizonDays,
		AssetRefs:  refs,
		NewsRefs:   newsRefs(tagged(s.News, tagGeopolitics), maxNewsRefs),
	}
}

// -----------------------------------------------------------------------------
// energy_volatility
// -----------------------------------------------------------------------------

func matchEnergyVolatility(s Snapshot) bool {
	oil, ok := findSymbol(s.Assets, oilSymbols)
	return len(tagged(s.News, tagEnergy)) >= 2 && ok && math.Abs(oil.Change24hPct) > 2
}

func describeEnergyVolatility(s Snapshot) model.AlertItem {
	oil, _ := findSymbol(s.Assets, oilSymbols)
	news := tagged(s.News, tagEnergy)

	return model.AlertItem{
		Severity: model.SeverityMedium,
		Title:    "Energy sector volatility",
		Thesis: fmt.Sprintf("Crude oil moved %+.2f%% in 24 hours, backed by %d energy headlines on supply, "+
			"demand or geopolitics. Large oil swings feed into inflation expectations, transport and "+
			"industrial costs and energy sector earnings, so elevated volatility in energy-linked assets may "+
			"persist over the coming weeks.",
			oil.Change24hPct, len(news)),
		Confidence: 0.70,
		Horizon:    model.HorizonWeeks,
		AssetRefs:  []string{oil.ID},
		NewsRefs:   newsRefs(news, maxNewsRefs),
	}
}

// -----------------------------------------------------------------------------
// sentiment_shift
// -----------------------------------------------------------------------------

func indices(assets []model.MarketAsset) []model.MarketAsset {
	return filterAssets(assets, func(a model.MarketAsset) bool {
		return a.Type == model.AssetIndex
	})
}

func matchSentimentShift(s Snapshot) bool {
	idx := indices(s.Assets)
	if len(idx) < 2 {
		return false
	}
	allUp := !slices.ContainsFunc(idx, func(a model.MarketAsset) bool { return a.Change24hPct <= 0 })
	allDown := !slices.ContainsFunc(idx, func(a model.MarketAsset) bool { return a.Change24hPct >= 0 })
	return allUp || allDown
}

func describeSentimentShift(s Snapshot) model.AlertItem {
	idx := indices(s.Assets)
	up := idx[0].Change24hPct > 0

	var abs float64
	for _, a := range idx {
		abs += math.Abs(a.Change24hPct)
	}
	meanAbs := abs / float64(len(idx))

	severity := model.SeverityMedium
	if meanAbs > 1.5 {
		severity = model.SeverityHigh
	}

	title, direction := "Market sentiment: bearish", "lower"
	if up {
		title, direction = "Market sentiment: bullish", "higher"
	}

	return model.AlertItem{
		Severity: severity,
		Title:    title,
		Thesis: fmt.Sprintf("All %d tracked indices are moving %s, with an average absolute change of %.2f%% over "+
			"24 hours. A synchronized move across regions signals a shift in overall market sentiment rather "+
			"than local news; when breadth is this uniform, the move often carries into the next sessions "+
			"before fading.",
			len(idx), direction, meanAbs),
		Confidence: 0.85,
		Horizon:    model.HorizonDays,
		AssetRefs:  assetRefs(idx, maxAssetRefs),
	}
}

// -----------------------------------------------------------------------------
// crypto_decoupling
// -----------------------------------------------------------------------------

// decoupling returns BTC, the indices and their mean change when the rule's
// preconditions hold.
func decoupling(assets []model.MarketAsset) (btc model.MarketAsset, idx []model.MarketAsset, mean float64, ok bool) {
	btc, found := findSymbol(assets, []string{"BTC"})
	idx = indices(assets)
	if !found || len(idx) == 0 {
		return btc, idx, 0, false
	}
	return btc, idx, meanChange(idx), true
}

func matchCryptoDecoupling(s Snapshot) bool {
	btc, _, mean, ok := decoupling(s.Assets)
	if !ok {
		return false
	}
	opposite := (btc.Change24hPct > 0 && mean < 0) || (btc.Change24hPct < 0 && mean > 0)
	return opposite && math.Abs(btc.Change24hPct-mean) > 3
}

func describeCryptoDecoupling(s Snapshot) model.AlertItem {
	btc, idx, mean, _ := decoupling(s.Assets)

	refs := append([]string{btc.ID}, assetRefs(idx, maxAssetRefs-1)...)

	return model.AlertItem{
		Severity: model.SeverityLow,
		Title:    "Crypto decoupling from equities",
		Thesis: fmt.Sprintf("Bitcoin is %+.2f%% while the average index is %+.2f%%, a gap of %.2f points in the "+
			"opposite direction. Bitcoin decoupling from traditional equities suggests crypto-specific flows "+
			"are driving the price; the correlation that usually links risk assets has weakened, which raises "+
			"both diversification value and idiosyncratic risk.",
			btc.Change24hPct, mean, math.Abs(btc.Change24hPct-mean)),
		Confidence: 0.60,
		Horizon:    model.HorizonDays,
		AssetRefs:  refs,
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func tagged(news []model.NewsItem, tag string) []model.NewsItem {
	return filterNews(news, func(n model.NewsItem) bool { return n.HasTag(tag) })
}

func filterNews(news []model.NewsItem, keep func(model.NewsItem) bool) []model.NewsItem {
	var out []model.NewsItem
	for _, n := range news {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}

func filterAssets(assets []model.MarketAsset, keep func(model.MarketAsset) bool) []model.MarketAsset {
	var out []model.MarketAsset
	for _, a := range assets {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// findSymbol returns the first asset whose symbol is in syms.
func findSymbol(assets []model.MarketAsset, syms []string) (model.MarketAsset, bool) {
	i := slices.IndexFunc(assets, func(a model.MarketAsset) bool {
		return slices.Contains(syms, a.Symbol)
	})
	if i < 0 {
		return model.MarketAsset{}, false
	}
	return assets[i], true
}

func meanChange(assets []model.MarketAsset) float64 {
	if len(assets) == 0 {
		return 0
	}
	var sum float64
	for _, a := range assets {
		sum += a.Change24hPct
	}
	return sum / float64(len(assets))
}

func newsRefs(news []model.NewsItem, n int) []string {
	out := make([]string, 0, min(n, len(news)))
	for _, item := range news[:min(n, len(news))] {
		out = append(out, item.ID)
	}
	return out
}

func assetRefs(assets []model.MarketAsset, n int) []string {
	out := make([]string, 0, min(n, len(assets)))
	for _, a := range assets[:min(n, len(assets))] {
		out = append(out, a.ID)
	}
	return out
}

func symbols(assets []model.MarketAsset) []string {
	out := make([]string, len(assets))
	for i, a := range assets {
		out[i] = a.Symbol
	}
	return out
}
