package partner

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/epicerie/backend/internal/domain/shared"
)

// Standard commercial tier codes. The set is extensible: any code with a
// configured discount percentage is a valid tier.
const (
	TierCodeStandard = "standard"
	TierCodeGold     = "gold"
	TierCodePlatinum = "platinum"
)

// CustomerTier is a value object representing a customer's commercial
// tier and its default discount percentage (e.g. 10 for 10%).
// CustomerTier is immutable - all operations return new instances.
type CustomerTier struct {
	code            string
	discountPercent decimal.Decimal
}

// NewCustomerTier creates a CustomerTier with the given code and default
// discount percentage (0-100).
func NewCustomerTier(code string, discountPercent decimal.Decimal) (CustomerTier, error) {
	if code == "" {
		return CustomerTier{}, shared.NewDomainError(shared.CodeInvalidInput, "Tier code cannot be empty")
	}
	if discountPercent.IsNegative() {
		return CustomerTier{}, shared.NewDomainError(shared.CodeInvalidInput, "Tier discount cannot be negative")
	}
	if discountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return CustomerTier{}, shared.NewDomainError(shared.CodeInvalidInput, "Tier discount cannot exceed 100%")
	}
	return CustomerTier{code: code, discountPercent: discountPercent}, nil
}

// MustNewCustomerTier creates a CustomerTier, panicking if validation fails.
// Use only for static initialization where values are known to be valid.
func MustNewCustomerTier(code string, discountPercent decimal.Decimal) CustomerTier {
	tier, err := NewCustomerTier(code, discountPercent)
	if err != nil {
		panic(fmt.Sprintf("invalid customer tier: %v", err))
	}
	return tier
}

// StandardTier returns the implicit default tier (0% discount)
func StandardTier() CustomerTier {
	return CustomerTier{code: TierCodeStandard, discountPercent: decimal.Zero}
}

// GoldTier returns the gold tier with its default 10% discount
func GoldTier() CustomerTier {
	return CustomerTier{code: TierCodeGold, discountPercent: decimal.NewFromInt(10)}
}

// PlatinumTier returns the platinum tier with its default 15% discount
func PlatinumTier() CustomerTier {
	return CustomerTier{code: TierCodePlatinum, discountPercent: decimal.NewFromInt(15)}
}

// Code returns the tier code
func (t CustomerTier) Code() string {
	return t.code
}

// DiscountPercent returns the default discount percentage (e.g. 10 for 10%)
func (t CustomerTier) DiscountPercent() decimal.Decimal {
	return t.discountPercent
}

// HasDiscount returns true if the tier carries any default discount
func (t CustomerTier) HasDiscount() bool {
	return t.discountPercent.GreaterThan(decimal.Zero)
}

// Equals returns true if both tiers are equal
func (t CustomerTier) Equals(other CustomerTier) bool {
	return t.code == other.code && t.discountPercent.Equal(other.discountPercent)
}

// IsEmpty returns true for the zero CustomerTier
func (t CustomerTier) IsEmpty() bool {
	return t.code == ""
}

// String returns a string representation of the tier
func (t CustomerTier) String() string {
	return fmt.Sprintf("%s (%s%% discount)", t.code, t.discountPercent.String())
}

// customerTierJSON is the JSON representation of CustomerTier
type customerTierJSON struct {
	Code            string `json:"code"`
	DiscountPercent string `json:"discount_percent"`
}

// MarshalJSON implements json.Marshaler
func (t CustomerTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(customerTierJSON{
		Code:            t.code,
		DiscountPercent: t.discountPercent.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (t *CustomerTier) UnmarshalJSON(data []byte) error {
	var v customerTierJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	percent, err := decimal.NewFromString(v.DiscountPercent)
	if err != nil {
		return fmt.Errorf("invalid discount percent: %w", err)
	}
	t.code = v.Code
	t.discountPercent = percent
	return nil
}

// Value implements driver.Valuer for database storage.
// Stores only the code; discount details live in the tier configuration.
func (t CustomerTier) Value() (driver.Value, error) {
	if t.code == "" {
		return nil, nil
	}
	return t.code, nil
}

// Scan implements sql.Scanner for database retrieval.
// Only the code is stored; callers enrich the discount from configuration.
func (t *CustomerTier) Scan(value any) error {
	if value == nil {
		*t = CustomerTier{}
		return nil
	}

	var code string
	switch v := value.(type) {
	case string:
		code = v
	case []byte:
		code = string(v)
	default:
		return fmt.Errorf("cannot scan %T into CustomerTier", value)
	}

	t.code = code
	t.discountPercent = decimal.Zero
	return nil
}

// WithDiscount returns a new CustomerTier with the same code and an
// updated discount percentage, used to enrich a tier loaded from the
// code-only database column.
func (t CustomerTier) WithDiscount(discountPercent decimal.Decimal) CustomerTier {
	return CustomerTier{code: t.code, discountPercent: discountPercent}
}
