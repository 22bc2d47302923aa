package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/epicerie/backend/internal/domain/shared"
)

// VATRate is a value object representing a VAT percentage as an exact
// decimal (e.g. 20, 5.5). Rates are compared by exact decimal value so
// that 20.0 and 20.00 group together.
type VATRate struct {
	value decimal.Decimal
}

// NewVATRate creates a VATRate, validating the [0, 100] range
func NewVATRate(value decimal.Decimal) (VATRate, error) {
	if value.IsNegative() || value.GreaterThan(decimal.NewFromInt(100)) {
		return VATRate{}, shared.NewDomainErrorf(shared.CodeInvalidLineItem,
			"VAT rate must be between 0 and 100, got %s", value.String())
	}
	return VATRate{value: value}, nil
}

// NewVATRateFromString creates a VATRate from its decimal string form
func NewVATRateFromString(s string) (VATRate, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return VATRate{}, shared.NewDomainErrorf(shared.CodeInvalidLineItem, "Invalid VAT rate: %s", s)
	}
	return NewVATRate(d)
}

// MustVATRate creates a VATRate from a string, panicking on bad input.
// Use only for static initialization where values are known to be valid.
func MustVATRate(s string) VATRate {
	r, err := NewVATRateFromString(s)
	if err != nil {
		panic(err)
	}
	return r
}

// ZeroVATRate returns the 0% rate
func ZeroVATRate() VATRate {
	return VATRate{value: decimal.Zero}
}

// Decimal returns the rate as an exact decimal percentage
func (r VATRate) Decimal() decimal.Decimal {
	return r.value
}

// IsZero returns true for the 0% rate
func (r VATRate) IsZero() bool {
	return r.value.IsZero()
}

// Equal returns true if both rates have the same exact decimal value
func (r VATRate) Equal(other VATRate) bool {
	return r.value.Equal(other.value)
}

// Key returns the canonical grouping key for the rate. decimal.String
// normalizes trailing zeros, so 20.0 and 20.00 share a key.
func (r VATRate) Key() string {
	return r.value.String()
}

// String returns the rate with at least one decimal place, e.g. "5.5", "20.0"
func (r VATRate) String() string {
	s := r.value.String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// MarshalJSON implements json.Marshaler, encoding the rate as a string
// so the wire format carries an exact decimal, not a binary float.
func (r VATRate) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON implements json.Unmarshaler
func (r *VATRate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	rate, err := NewVATRateFromString(s)
	if err != nil {
		return err
	}
	*r = rate
	return nil
}

// Value implements driver.Valuer for database storage
func (r VATRate) Value() (driver.Value, error) {
	return r.value.String(), nil
}

// Scan implements sql.Scanner for database retrieval
func (r *VATRate) Scan(value any) error {
	if value == nil {
		r.value = decimal.Zero
		return nil
	}

	var strVal string
	switch v := value.(type) {
	case string:
		strVal = v
	case []byte:
		strVal = string(v)
	default:
		return fmt.Errorf("cannot scan %T into VATRate", value)
	}

	d, err := decimal.NewFromString(strVal)
	if err != nil {
		return fmt.Errorf("invalid VAT rate value: %w", err)
	}
	r.value = d
	return nil
}
