package news

import (
	"strings"

	"golang.org/x/text/cases"
)

// Tags assigned by ExtractTags.
const (
	TagInflation   = "inflation"
	TagRates       = "rates"
	TagCentralBank = "central_bank"
	TagTech        = "tech"
	TagEnergy      = "energy"
	TagGeopolitics = "geopolitics"
	TagCrypto      = "crypto"
	TagBanks       = "banks"
	TagMarkets     = "markets"
	TagSpread      = "spread"
	TagGDP         = "gdp"
)

type tagRule struct {
	tag      string
	keywords []string
}

// tagTable maps each tag to its keywords (Italian and English). Keywords are
// matched as case-folded substrings, so short keywords match inside words.
var tagTable = []tagRule{
	{TagInflation, []string{"inflazione", "prezzi", "rincari", "costo vita", "inflation"}},
	{TagRates, []string{"tassi", "bce", "fed", "interessi", "rates", "central bank"}},
	{TagCentralBank, []string{"bce", "ecb", "fed", "federal reserve", "banca centrale", "central bank"}},
	{TagTech, []string{"tecnologia", "ai", "intelligenza artificiale", "digitale", "software", "tech"}},
	{TagEnergy, []string{"energia", "petrolio", "gas", "elettricità", "energy", "oil"}},
	{TagGeopolitics, []string{"guerra", "conflitto", "sanzioni", "tensioni", "war", "conflict"}},
	{TagCrypto, []string{"bitcoin", "crypto", "ethereum", "blockchain"}},
	{TagBanks, []string{"banche", "credito", "finanza", "mutui", "banks"}},
	{TagMarkets, []string{"borsa", "azioni", "indici", "ftse", "sp500", "stock market"}},
	{TagSpread, []string{"spread", "btp", "bund", "differenziale"}},
	{TagGDP, []string{"pil", "crescita", "recessione", "gdp"}},
}

// ExtractTags returns the tags whose keywords appear in text, in table order.
func ExtractTags(text string) []string {
	// A Caser is stateful; one per call keeps this safe for concurrent sources.
	folded := cases.Fold().String(text)

	tags := []string{}
	for _, rule := range tagTable {
		for _, kw := range rule.keywords {
			if strings.Contains(folded, kw) {
				tags = append(tags, rule.tag)
				break
			}
		}
	}
	return tags
}
