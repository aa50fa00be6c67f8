package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ikkim/localbiz-backend/internal/app/model"
	apperrors "github.com/ikkim/localbiz-backend/internal/errors"
)

// StringList accepts either a JSON string or a JSON array of strings and
// remembers which form was sent.
type StringList struct {
	Values []string
	Scalar bool
}

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = StringList{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*l = StringList{}
			return nil
		}
		*l = StringList{Values: []string{s}, Scalar: true}
		return nil
	}
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("expected string or array of strings: %w", err)
	}
	*l = StringList{Values: values}
	return nil
}

func (l StringList) MarshalJSON() ([]byte, error) {
	if l.Scalar && len(l.Values) == 1 {
		return json.Marshal(l.Values[0])
	}
	if l.Values == nil {
		return []byte("null"), nil
	}
	return json.Marshal(l.Values)
}

// Request is the body of a directory filter query.
type Request struct {
	SearchQuery      string     `json:"search_query"`
	PriceTier        StringList `json:"price_tier"`
	BusinessCategory StringList `json:"business_category"`
	NewlyAdded       bool       `json:"newly_added"`
	Open247          bool       `json:"open247"`
	OffersDelivery   bool       `json:"offers_delivery"`
	OffersPickup     bool       `json:"offers_pickup"`
	PaymentOptions   []string   `json:"payment_options"`
	SortBy           string     `json:"sort_by"`
	SortOrder        string     `json:"sort_order"`
}

var ErrInvalidPriceTier = apperrors.Validation(apperrors.ValidationInvalidInput, "price_tier must be one of low, medium, high")
var ErrInvalidPaymentOption = apperrors.Validation(apperrors.BusinessInvalidOption, "payment_options must be drawn from cash, card, paynow, digital_wallets")

// Validate checks enum-valued fields.
func (r Request) Validate() error {
	for _, tier := range r.PriceTier.Values {
		if !model.PriceTier(strings.ToLower(tier)).Valid() {
			return ErrInvalidPriceTier
		}
	}
	for _, opt := range r.PaymentOptions {
		if !model.PaymentOption(strings.ToLower(opt)).Valid() {
			return ErrInvalidPaymentOption
		}
	}
	return nil
}
