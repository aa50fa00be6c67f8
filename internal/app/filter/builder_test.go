package filter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func decodeRequest(t *testing.T, body string) Request {
	t.Helper()
	var req Request
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return req
}

func TestBuildConditions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Predicate
	}{
		{
			name: "Empty request contributes nothing",
			body: `{}`,
			want: nil,
		},
		{
			name: "Search query matches name or description",
			body: `{"search_query":"  Kopi  "}`,
			want: []Predicate{SubstringMatch{Columns: []string{ColumnName, ColumnDescription}, Term: "Kopi"}},
		},
		{
			name: "Scalar price tier is equality",
			body: `{"price_tier":"Low"}`,
			want: []Predicate{Equals{Column: ColumnPriceTier, Value: "low"}},
		},
		{
			name: "Array category is set membership",
			body: `{"business_category":["cafe","bakery"]}`,
			want: []Predicate{InSet{Column: ColumnCategory, Values: []interface{}{"cafe", "bakery"}}},
		},
		{
			name: "Empty arrays are absence",
			body: `{"price_tier":[],"business_category":[],"payment_options":[]}`,
			want: nil,
		},
		{
			name: "False flags never exclude",
			body: `{"open247":false,"offers_delivery":false,"offers_pickup":false,"newly_added":false}`,
			want: nil,
		},
		{
			name: "True flags",
			body: `{"open247":true,"offers_delivery":true,"offers_pickup":true}`,
			want: []Predicate{
				Equals{Column: ColumnOpen247, Value: true},
				Equals{Column: ColumnOffersDelivery, Value: true},
				Equals{Column: ColumnOffersPickup, Value: true},
			},
		},
		{
			name: "Newly added is a seven day lower bound",
			body: `{"newly_added":true}`,
			want: []Predicate{Range{Column: ColumnCreatedAt, Min: fixedNow.Add(-7 * 24 * time.Hour)}},
		},
		{
			name: "Payment options require all, duplicates collapsed",
			body: `{"payment_options":["cash","CARD","cash"]}`,
			want: []Predicate{AggregateHaving{
				Column:      ColumnUEN,
				Table:       TablePaymentOptions,
				GroupColumn: ColumnUEN,
				ValueColumn: ColumnPaymentOption,
				Values:      []interface{}{"cash", "card"},
				Count:       2,
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildConditions(decodeRequest(t, tt.body), fixedNow)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildConditions_Conjunction(t *testing.T) {
	req := decodeRequest(t, `{
		"search_query": "noodle",
		"price_tier": ["low", "medium"],
		"business_category": "hawker",
		"newly_added": true,
		"offers_pickup": true,
		"payment_options": ["paynow"]
	}`)

	preds := BuildConditions(req, fixedNow)
	require.Len(t, preds, 6)
	assert.IsType(t, SubstringMatch{}, preds[0])
	assert.IsType(t, InSet{}, preds[1])
	assert.IsType(t, Equals{}, preds[2])
	assert.IsType(t, Range{}, preds[3])
	assert.IsType(t, Equals{}, preds[4])
	assert.IsType(t, AggregateHaving{}, preds[5])
}

func TestBuildSort(t *testing.T) {
	tests := []struct {
		sortBy string
		order  string
		want   Sort
	}{
		{"", "", Sort{Column: ColumnCreatedAt, Desc: true}},
		{"business_name", "asc", Sort{Column: ColumnName, Desc: false}},
		{"business_name", "DESC", Sort{Column: ColumnName, Desc: true}},
		{"price_tier", "asc", Sort{Column: ColumnPriceTier, Desc: false}},
		{"price_tier", "sideways", Sort{Column: ColumnPriceTier, Desc: true}},
		{"date_of_creation", "asc", Sort{Column: ColumnCreatedAt, Desc: false}},
		{"rating", "asc", Sort{Column: ColumnCreatedAt, Desc: true}},
		{"uen; DROP TABLE businesses", "asc", DefaultSort},
	}

	for _, tt := range tests {
		t.Run(tt.sortBy+"/"+tt.order, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildSort(tt.sortBy, tt.order))
		})
	}
}

func TestStringList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    StringList
		wantErr bool
	}{
		{"String", `"cafe"`, StringList{Values: []string{"cafe"}, Scalar: true}, false},
		{"Empty string", `""`, StringList{}, false},
		{"Array", `["a","b"]`, StringList{Values: []string{"a", "b"}}, false},
		{"Null", `null`, StringList{}, false},
		{"Number", `42`, StringList{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got StringList
			err := json.Unmarshal([]byte(tt.body), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequest_Validate(t *testing.T) {
	assert.NoError(t, decodeRequest(t, `{"price_tier":["LOW","high"],"payment_options":["digital_wallets"]}`).Validate())
	assert.ErrorIs(t, decodeRequest(t, `{"price_tier":"cheap"}`).Validate(), ErrInvalidPriceTier)
	assert.ErrorIs(t, decodeRequest(t, `{"payment_options":["crypto"]}`).Validate(), ErrInvalidPaymentOption)
}
