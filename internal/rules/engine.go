package rules

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/rickgao/marketpulse/internal/metrics"
	"github.com/rickgao/marketpulse/internal/model"
)

// Alert text bounds, in characters.
const (
	MaxTitleLen  = 80
	MinThesisLen = 200
	MaxThesisLen = 500
)

// thesisNote pads theses shorter than MinThesisLen. It is itself at least
// MinThesisLen long.
const thesisNote = "This alert is advisory only and is derived from headline keywords and 24h price moves; it is not a recommendation to trade. Check the referenced news and quotes and your own risk limits before acting on it."

// Snapshot is the input of one evaluation.
type Snapshot struct {
	News   []model.NewsItem
	Assets []model.MarketAsset
	Now    time.Time
}

// Rule is one alert rule. Describe is only called after Matches returned true.
type Rule interface {
	ID() string
	Matches(s Snapshot) bool
	Describe(s Snapshot) model.AlertItem
}

// Config holds engine configuration.
type Config struct {
	MaxAlerts     int     // Maximum alerts per cycle (default: 10)
	MinConfidence float64 // Accepted and carried; not applied to the output
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxAlerts:     10,
		MinConfidence: 0.5,
	}
}

// Engine evaluates rules and ranks their alerts.
type Engine struct {
	cfg    Config
	rules  []Rule
	logger *slog.Logger
	now    func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the built-in rule set.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an Engine with DefaultRules.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		cfg:    cfg,
		rules:  DefaultRules(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MinConfidence returns the configured confidence threshold.
func (e *Engine) MinConfidence() float64 {
	return e.cfg.MinConfidence
}

// GenerateAlerts evaluates every rule and returns at most MaxAlerts alerts,
// highest severity and confidence first.
func (e *Engine) GenerateAlerts(news []model.NewsItem, assets []model.MarketAsset) []model.AlertItem {
	snap := Snapshot{News: news, Assets: assets, Now: e.now().UTC()}

	alerts := make([]model.AlertItem, 0, len(e.rules))
	for _, r := range e.rules {
		alert, ok, err := evaluate(r, snap)
		if err != nil {
			e.logger.Warn("rule evaluation failed", "rule", r.ID(), "err", err)
			metrics.RuleFailures.WithLabelValues(r.ID()).Inc()
			continue
		}
		if ok {
			alerts = append(alerts, finalize(r.ID(), alert, snap.Now))
		}
	}

	Rank(alerts)
	if e.cfg.MaxAlerts > 0 && len(alerts) > e.cfg.MaxAlerts {
		alerts = alerts[:e.cfg.MaxAlerts]
	}

	metrics.AlertsGenerated.Set(float64(len(alerts)))
	e.logger.Debug("alerts generated", "rules", len(e.rules), "alerts", len(alerts))
	return alerts
}

// Rank stable-sorts alerts by severity, then confidence, both descending.
func Rank(alerts []model.AlertItem) {
	slices.SortStableFunc(alerts, func(a, b model.AlertItem) int {
		if c := cmp.Compare(b.Severity.Rank(), a.Severity.Rank()); c != 0 {
			return c
		}
		return cmp.Compare(b.Confidence, a.Confidence)
	})
}

// evaluate runs one rule, converting a panic into an error.
func evaluate(r Rule, snap Snapshot) (alert model.AlertItem, ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("rule panicked: %v", p)
		}
	}()

	if !r.Matches(snap) {
		return model.AlertItem{}, false, nil
	}
	return r.Describe(snap), true, nil
}

// finalize assigns identity and timestamps and enforces text bounds.
func finalize(ruleID string, a model.AlertItem, now time.Time) model.AlertItem {
	a.ID = "alert_" + ruleID + "_" + uuid.NewString()
	a.CreatedAt = now
	a.Title = clip(a.Title, MaxTitleLen)
	if utf8.RuneCountInString(a.Thesis) < MinThesisLen {
		if a.Thesis == "" {
			a.Thesis = thesisNote
		} else {
			a.Thesis += " " + thesisNote
		}
	}
	a.Thesis = clip(a.Thesis, MaxThesisLen)
	if a.AssetRefs == nil {
		a.AssetRefs = []string{}
	}
	if a.NewsRefs == nil {
		a.NewsRefs = []string{}
	}
	return a
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
