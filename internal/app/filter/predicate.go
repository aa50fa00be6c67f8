// Package filter turns a directory filter request into store-independent
// predicates. The repository layer interprets them against the database.
package filter

// Predicate is one conjunct of a business query. The set of kinds is closed:
// Equals, InSet, Range, SubstringMatch and AggregateHaving.
type Predicate interface {
	predicate()
}

// Equals matches rows whose Column equals Value.
type Equals struct {
	Column string
	Value  interface{}
}

// InSet matches rows whose Column is any of Values.
type InSet struct {
	Column string
	Values []interface{}
}

// Range matches Min <= Column <= Max. A nil bound is open.
type Range struct {
	Column string
	Min    interface{}
	Max    interface{}
}

// SubstringMatch matches rows where any of Columns contains Term, ignoring case.
type SubstringMatch struct {
	Columns []string
	Term    string
}

// AggregateHaving matches rows whose Column is in the set of GroupColumn
// values of Table that have exactly Count distinct ValueColumn entries
// among Values. With Count == len(Values) this is "has all of Values".
type AggregateHaving struct {
	Column      string
	Table       string
	GroupColumn string
	ValueColumn string
	Values      []interface{}
	Count       int
}

func (Equals) predicate()          {}
func (InSet) predicate()           {}
func (Range) predicate()           {}
func (SubstringMatch) predicate()  {}
func (AggregateHaving) predicate() {}

// Business columns addressable by predicates and sorts.
const (
	ColumnUEN            = "uen"
	ColumnName           = "business_name"
	ColumnDescription    = "description"
	ColumnCategory       = "business_category"
	ColumnPriceTier      = "price_tier"
	ColumnCreatedAt      = "date_of_creation"
	ColumnOpen247        = "open247"
	ColumnOffersDelivery = "offers_delivery"
	ColumnOffersPickup   = "offers_pickup"

	TablePaymentOptions = "business_payment_options"
	ColumnPaymentOption = "payment_option"
)
