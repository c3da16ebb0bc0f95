package sentiment

import "github.com/shopspring/decimal"

// Weekdays labels the five-point series.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

var (
	priceFactors    = []string{"0.97", "0.99", "0.98", "1.01", "1.00"}
	sentimentDeltas = []string{"-0.1", "-0.05", "0.02", "-0.03", "0"}
)

// Point is one labelled value of a series.
type Point struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// PriceSeries scales the record's price by fixed factors for Mon..Fri. Values
// are rounded to cents.
func PriceSeries(r Record) []Point {
	out := make([]Point, len(priceFactors))
	for i, f := range priceFactors {
		out[i] = Point{
			Label: Weekdays[i],
			Value: r.Price.Mul(decimal.RequireFromString(f)).Round(2),
		}
	}
	return out
}

// SentimentSeries offsets the record's score by fixed deltas for Mon..Fri.
// The last point always equals the current score.
func SentimentSeries(r Record) []Point {
	out := make([]Point, len(sentimentDeltas))
	for i, d := range sentimentDeltas {
		out[i] = Point{
			Label: Weekdays[i],
			Value: r.SentimentScore.Add(decimal.RequireFromString(d)),
		}
	}
	return out
}

// Detail is a record together with its derived label and chart series.
type Detail struct {
	Record    Record  `json:"record"`
	Label     Label   `json:"label"`
	Color     string  `json:"color"`
	Price     []Point `json:"price_series"`
	Sentiment []Point `json:"sentiment_series"`
}

// Describe builds the detail view for a record.
func Describe(r Record) Detail {
	l := r.Label()
	return Detail{
		Record:    r,
		Label:     l,
		Color:     l.Color(),
		Price:     PriceSeries(r),
		Sentiment: SentimentSeries(r),
	}
}
