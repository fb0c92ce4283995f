// Package rules derives ranked advisory alerts from news and market data.
//
// The Engine evaluates a fixed, ordered set of independent rules against one
// (news, assets) snapshot and returns a ranked, bounded list of alerts:
//   - Each rule is evaluated in isolation; a panicking rule is logged,
//     counted and skipped for that cycle only
//   - Alerts are stable-sorted by severity (high > medium > low), then
//     confidence, and truncated to Config.MaxAlerts
//
// DefaultRules returns the eight built-in rules. Each alert references only
// the news and assets that satisfied its rule, bounded to a few items.
package rules
