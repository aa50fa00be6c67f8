package filter

import (
	"strings"
	"time"
)

// NewlyAddedWindow is how far back "newly added" reaches.
const NewlyAddedWindow = 7 * 24 * time.Hour

// BuildConditions translates req into a conjunction of predicates. Fields
// that are absent, empty or false contribute nothing.
func BuildConditions(req Request, now time.Time) []Predicate {
	var preds []Predicate

	if term := strings.TrimSpace(req.SearchQuery); term != "" {
		preds = append(preds, SubstringMatch{
			Columns: []string{ColumnName, ColumnDescription},
			Term:    term,
		})
	}

	if p := listPredicate(ColumnPriceTier, req.PriceTier, strings.ToLower); p != nil {
		preds = append(preds, p)
	}
	if p := listPredicate(ColumnCategory, req.BusinessCategory, nil); p != nil {
		preds = append(preds, p)
	}

	if req.NewlyAdded {
		preds = append(preds, Range{Column: ColumnCreatedAt, Min: now.Add(-NewlyAddedWindow)})
	}

	if req.Open247 {
		preds = append(preds, Equals{Column: ColumnOpen247, Value: true})
	}
	if req.OffersDelivery {
		preds = append(preds, Equals{Column: ColumnOffersDelivery, Value: true})
	}
	if req.OffersPickup {
		preds = append(preds, Equals{Column: ColumnOffersPickup, Value: true})
	}

	if options := distinctLower(req.PaymentOptions); len(options) > 0 {
		values := make([]interface{}, len(options))
		for i, o := range options {
			values[i] = o
		}
		preds = append(preds, AggregateHaving{
			Column:      ColumnUEN,
			Table:       TablePaymentOptions,
			GroupColumn: ColumnUEN,
			ValueColumn: ColumnPaymentOption,
			Values:      values,
			Count:       len(options),
		})
	}

	return preds
}

func listPredicate(column string, list StringList, normalize func(string) string) Predicate {
	if len(list.Values) == 0 {
		return nil
	}
	if normalize == nil {
		normalize = func(s string) string { return s }
	}
	if list.Scalar {
		return Equals{Column: column, Value: normalize(list.Values[0])}
	}
	values := make([]interface{}, len(list.Values))
	for i, v := range list.Values {
		values[i] = normalize(v)
	}
	return InSet{Column: column, Values: values}
}

func distinctLower(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	var out []string
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Sort is a single ORDER BY term.
type Sort struct {
	Column string
	Desc   bool
}

// DefaultSort is newest first.
var DefaultSort = Sort{Column: ColumnCreatedAt, Desc: true}

// BuildSort resolves sort_by and sort_order. An unrecognised sort_by falls
// back to DefaultSort; an unrecognised order on a known column sorts desc.
func BuildSort(sortBy, order string) Sort {
	var column string
	switch strings.ToLower(strings.TrimSpace(sortBy)) {
	case ColumnName:
		column = ColumnName
	case ColumnPriceTier:
		column = ColumnPriceTier
	case ColumnCreatedAt, "":
		column = ColumnCreatedAt
	default:
		return DefaultSort
	}
	return Sort{Column: column, Desc: strings.ToLower(strings.TrimSpace(order)) != "asc"}
}
