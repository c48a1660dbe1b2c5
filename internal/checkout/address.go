package checkout

import (
	"fmt"
	"strings"

	"github.com/printery/storefront/internal/fulfillment"
)

// Address is the transient checkout address; it is never persisted here.
type Address struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Line1             string `json:"line1"`
	Line2             string `json:"line2,omitempty"`
	City              string `json:"city"`
	State             string `json:"state"`
	CountryCode       string `json:"countryCode"`
	PostalCode        string `json:"postalCode"`
	Phone             string `json:"phone"`
	Email             string `json:"email"`
	IsBusinessAddress bool   `json:"isBusinessAddress,omitempty"`
}

var requiredAddressFields = []struct {
	name  string
	value func(Address) string
}{
	{"firstName", func(a Address) string { return a.FirstName }},
	{"lastName", func(a Address) string { return a.LastName }},
	{"line1", func(a Address) string { return a.Line1 }},
	{"city", func(a Address) string { return a.City }},
	{"state", func(a Address) string { return a.State }},
	{"postalCode", func(a Address) string { return a.PostalCode }},
	{"phone", func(a Address) string { return a.Phone }},
	{"email", func(a Address) string { return a.Email }},
}

// Validate checks the required fields, returning ErrValidation naming the
// first missing one.
func (a Address) Validate(label string) error {
	for _, f := range requiredAddressFields {
		if strings.TrimSpace(f.value(a)) == "" {
			return fmt.Errorf("%w: %s address: %s is required", ErrValidation, label, f.name)
		}
	}
	return nil
}

// ResolveBilling picks the billing address actually sent downstream. When
// useSame is set the billing address is a copy of shipping taken at
// submission time, not an alias kept in sync afterwards.
func ResolveBilling(shipping Address, billing *Address, useSame bool) Address {
	if useSame || billing == nil {
		return shipping
	}
	return *billing
}

func (a Address) toProvider() fulfillment.Address {
	return fulfillment.Address{
		FirstName:         a.FirstName,
		LastName:          a.LastName,
		Line1:             a.Line1,
		Line2:             a.Line2,
		City:              a.City,
		State:             a.State,
		CountryCode:       a.CountryCode,
		PostalCode:        a.PostalCode,
		Phone:             a.Phone,
		Email:             a.Email,
		IsBusinessAddress: a.IsBusinessAddress,
	}
}

// placeholderAddress backs the legacy single-email checkout entry. It exists
// for backward compatibility only; the address capture path never uses it.
func placeholderAddress(email string) Address {
	return Address{
		FirstName:   "Storefront",
		LastName:    "Customer",
		Line1:       "1 Placeholder Way",
		City:        "New York",
		State:       "NY",
		CountryCode: "US",
		PostalCode:  "10001",
		Phone:       "0000000000",
		Email:       email,
	}
}
