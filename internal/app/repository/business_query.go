package repository

import (
	"fmt"
	"strings"

	"github.com/ikkim/localbiz-backend/internal/app/filter"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var queryableColumns = map[string]struct{}{
	filter.ColumnUEN:            {},
	filter.ColumnName:           {},
	filter.ColumnDescription:    {},
	filter.ColumnCategory:       {},
	filter.ColumnPriceTier:      {},
	filter.ColumnCreatedAt:      {},
	filter.ColumnOpen247:        {},
	filter.ColumnOffersDelivery: {},
	filter.ColumnOffersPickup:   {},
	filter.ColumnPaymentOption:  {},
}

var queryableTables = map[string]struct{}{
	filter.TablePaymentOptions: {},
}

func quoteColumn(name string) (string, error) {
	if _, ok := queryableColumns[name]; !ok {
		return "", fmt.Errorf("column %q is not queryable", name)
	}
	return pq.QuoteIdentifier(name), nil
}

func quoteTable(name string) (string, error) {
	if _, ok := queryableTables[name]; !ok {
		return "", fmt.Errorf("table %q is not queryable", name)
	}
	return pq.QuoteIdentifier(name), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, with s's own
// wildcards escaped. Use with likeEscape.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

const likeEscape = ` ESCAPE '\'`

// applyPredicates ANDs every predicate onto q.
func applyPredicates(q *gorm.DB, preds []filter.Predicate) (*gorm.DB, error) {
	for _, p := range preds {
		var err error
		switch p := p.(type) {
		case filter.Equals:
			var col string
			if col, err = quoteColumn(p.Column); err == nil {
				q = q.Where(col+" = ?", p.Value)
			}
		case filter.InSet:
			var col string
			if col, err = quoteColumn(p.Column); err == nil {
				if len(p.Values) == 0 {
					continue
				}
				q = q.Where(col+" IN ?", p.Values)
			}
		case filter.Range:
			var col string
			if col, err = quoteColumn(p.Column); err == nil {
				if p.Min != nil {
					q = q.Where(col+" >= ?", p.Min)
				}
				if p.Max != nil {
					q = q.Where(col+" <= ?", p.Max)
				}
			}
		case filter.SubstringMatch:
			q, err = applySubstring(q, p)
		case filter.AggregateHaving:
			q, err = applyAggregateHaving(q, p)
		default:
			err = fmt.Errorf("unsupported predicate %T", p)
		}
		if err != nil {
			return nil, err
		}
	}
	return q, nil
}

func applySubstring(q *gorm.DB, p filter.SubstringMatch) (*gorm.DB, error) {
	if len(p.Columns) == 0 || p.Term == "" {
		return q, nil
	}
	pattern := containsPattern(p.Term)
	parts := make([]string, 0, len(p.Columns))
	args := make([]interface{}, 0, len(p.Columns))
	for _, c := range p.Columns {
		col, err := quoteColumn(c)
		if err != nil {
			return nil, err
		}
		parts = append(parts, "LOWER("+col+") LIKE ?"+likeEscape)
		args = append(args, pattern)
	}
	return q.Where("("+strings.Join(parts, " OR ")+")", args...), nil
}

func applyAggregateHaving(q *gorm.DB, p filter.AggregateHaving) (*gorm.DB, error) {
	if len(p.Values) == 0 {
		return q, nil
	}
	outer, err := quoteColumn(p.Column)
	if err != nil {
		return nil, err
	}
	table, err := quoteTable(p.Table)
	if err != nil {
		return nil, err
	}
	group, err := quoteColumn(p.GroupColumn)
	if err != nil {
		return nil, err
	}
	value, err := quoteColumn(p.ValueColumn)
	if err != nil {
		return nil, err
	}

	sub := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s IN ? GROUP BY %s HAVING COUNT(DISTINCT %s) = ?",
		group, table, value, group, value,
	)
	return q.Where(outer+" IN ("+sub+")", p.Values, p.Count), nil
}

// priceTierRank orders tiers low < medium < high instead of alphabetically.
const priceTierRank = `CASE "price_tier" WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 ELSE 4 END`

func applySort(q *gorm.DB, s filter.Sort) (*gorm.DB, error) {
	col, err := quoteColumn(s.Column)
	if err != nil {
		return nil, err
	}
	dir := " ASC"
	if s.Desc {
		dir = " DESC"
	}

	switch s.Column {
	case filter.ColumnPriceTier:
		q = q.Order(priceTierRank + dir)
	case filter.ColumnName:
		q = q.Order("LOWER(" + col + ")" + dir)
	default:
		q = q.Order(col + dir)
	}
	// stable order for equal keys
	return q.Order(pq.QuoteIdentifier(filter.ColumnUEN) + " ASC"), nil
}
