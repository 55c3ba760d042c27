package report

import (
	"bybitnotifier/pkg/bybit"

	"github.com/shopspring/decimal"
)

// Sum is a best-effort total over one numeric field.
type Sum struct {
	Total   decimal.Decimal
	Counted int
	Skipped int
}

// SumField adds up field across items. Items where the field is absent or not
// a decimal number contribute nothing and are counted in Skipped.
func SumField(items []bybit.Item, field string) Sum {
	var s Sum
	for _, item := range items {
		raw, err := item.Field(field)
		if err != nil {
			s.Skipped++
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			s.Skipped++
			continue
		}
		s.Total = s.Total.Add(v)
		s.Counted++
	}
	return s
}

// Float returns the total as a float64.
func (s Sum) Float() float64 {
	f, _ := s.Total.Float64()
	return f
}
