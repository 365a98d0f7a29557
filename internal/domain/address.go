package domain

import (
	"errors"
	"strings"
)

// Structured postal address, owned by the caller.
type Address struct {
	Street      string `json:"street"`
	HouseNumber string `json:"house_number"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
}

// Format renders the address as "Street 12, 1991 AB City", skipping empty parts.
func (a Address) Format() string {
	street := joinNonEmpty(" ", a.Street, a.HouseNumber)
	place := joinNonEmpty(" ", a.PostalCode, a.City)
	return joinNonEmpty(", ", street, place)
}

// Key is the normalized cache key of the address.
func (a Address) Key() string {
	return NormalizeKey(a.Format())
}

// Validate checks that the address carries enough to be geocoded or placed by postal code.
func (a Address) Validate() error {
	if strings.TrimSpace(a.PostalCode) == "" && strings.TrimSpace(a.Street) == "" {
		return errors.New("address: street or postal code is required")
	}
	return nil
}

// NormalizeKey collapses whitespace and lower-cases s for consistent cache keys.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
