// Package sentiment serves the read-only market sentiment catalog and the
// chart projections derived from a single record.
package sentiment

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Label is the three-way classification of a sentiment score.
type Label string

const (
	Bullish Label = "Bullish"
	Neutral Label = "Neutral"
	Bearish Label = "Bearish"
)

// Record is one tracked asset. Records are immutable once loaded.
type Record struct {
	Symbol         string          `yaml:"symbol" json:"symbol"`
	Name           string          `yaml:"name" json:"name"`
	Price          decimal.Decimal `yaml:"price" json:"price"`
	ChangePercent  decimal.Decimal `yaml:"change" json:"change"`
	SentimentScore decimal.Decimal `yaml:"sentiment" json:"sentiment"`
	Volume         string          `yaml:"volume" json:"volume"`
	NewsCount      int             `yaml:"news_count" json:"news_count"`
	SocialMentions int             `yaml:"social_mentions" json:"social_mentions"`
}

var (
	bullishFloor = decimal.RequireFromString("0.7")
	neutralFloor = decimal.RequireFromString("0.5")
)

// Classify maps a score to its label. Bounds are inclusive on the low side:
// 0.7 is Bullish and 0.5 is Neutral.
func Classify(score decimal.Decimal) Label {
	switch {
	case score.GreaterThanOrEqual(bullishFloor):
		return Bullish
	case score.GreaterThanOrEqual(neutralFloor):
		return Neutral
	default:
		return Bearish
	}
}

// Color is the display color class for a label.
func (l Label) Color() string {
	switch l {
	case Bullish:
		return "green"
	case Neutral:
		return "yellow"
	default:
		return "red"
	}
}

// Label classifies the record's score.
func (r Record) Label() Label { return Classify(r.SentimentScore) }

func (r Record) validate() error {
	if strings.TrimSpace(r.Symbol) == "" {
		return errors.New("empty symbol")
	}
	if r.SentimentScore.IsNegative() || r.SentimentScore.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s: sentiment score %s outside [0,1]", r.Symbol, r.SentimentScore)
	}
	if !r.Price.IsPositive() {
		return fmt.Errorf("%s: price must be positive", r.Symbol)
	}
	return nil
}

// Catalog is an ordered, immutable list of records.
type Catalog struct {
	records []Record
}

// NewCatalog validates records and rejects duplicate symbols, compared
// case-insensitively.
func NewCatalog(records []Record) (*Catalog, error) {
	seen := make(map[string]struct{}, len(records))
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if err := r.validate(); err != nil {
			return nil, err
		}
		key := strings.ToUpper(r.Symbol)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate symbol %q", r.Symbol)
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return &Catalog{records: out}, nil
}

// All returns the records in catalog order.
func (c *Catalog) All() []Record {
	return append([]Record(nil), c.records...)
}

// Find looks a symbol up by case-insensitive exact match. There is no partial
// matching: "AAP" does not find AAPL, and " AAPL" does not either; callers
// trim user input.
func (c *Catalog) Find(symbol string) (Record, bool) {
	for _, r := range c.records {
		if strings.EqualFold(r.Symbol, symbol) {
			return r, true
		}
	}
	return Record{}, false
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultRecords())
	if err != nil {
		panic(err)
	}
	return c
}

func defaultRecords() []Record {
	d := decimal.RequireFromString
	return []Record{
		{Symbol: "AAPL", Name: "Apple Inc.", Price: d("175.43"), ChangePercent: d("2.3"), SentimentScore: d("0.75"), Volume: "52.3M", NewsCount: 145, SocialMentions: 23400},
		{Symbol: "TSLA", Name: "Tesla Inc.", Price: d("248.50"), ChangePercent: d("-1.2"), SentimentScore: d("0.62"), Volume: "98.7M", NewsCount: 234, SocialMentions: 45600},
		{Symbol: "MSFT", Name: "Microsoft Corp.", Price: d("378.91"), ChangePercent: d("1.8"), SentimentScore: d("0.81"), Volume: "31.2M", NewsCount: 98, SocialMentions: 12300},
		{Symbol: "BTC", Name: "Bitcoin", Price: d("43250.00"), ChangePercent: d("3.5"), SentimentScore: d("0.68"), Volume: "24.5B", NewsCount: 567, SocialMentions: 89200},
		{Symbol: "ETH", Name: "Ethereum", Price: d("2280.00"), ChangePercent: d("2.1"), SentimentScore: d("0.72"), Volume: "12.3B", NewsCount: 345, SocialMentions: 54300},
	}
}

type catalogFile struct {
	Assets []Record `yaml:"assets"`
}

// LoadCatalog reads a YAML catalog of the form
//
//	assets:
//	  - symbol: AAPL
//	    name: Apple Inc.
//	    price: "175.43"
//	    ...
//
// An empty path returns DefaultCatalog().
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(b)
}

// ParseCatalog decodes YAML catalog bytes.
func ParseCatalog(b []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Assets) == 0 {
		return nil, errors.New("catalog has no assets")
	}
	return NewCatalog(f.Assets)
}
