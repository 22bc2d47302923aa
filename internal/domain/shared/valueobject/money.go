package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/epicerie/backend/internal/domain/shared"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	EUR Currency = "EUR" // Euro (default)
	USD Currency = "USD" // US Dollar
	GBP Currency = "GBP" // British Pound
	CHF Currency = "CHF" // Swiss Franc
)

// DefaultCurrency is the default currency for the system.
// The storefront is single-currency; other codes exist only so that a
// mismatch is detected instead of silently mixed.
const DefaultCurrency = EUR

// Money is a value object representing a monetary amount as an integer
// count of minor units (cents). All arithmetic happens on minor units;
// a rate multiplication rounds half-up to the nearest minor unit exactly
// once, never on an intermediate float.
// Money is immutable - all operations return new Money instances.
type Money struct {
	amount   int64
	currency Currency
}

// NewMoney creates a new Money from an amount in minor units (cents)
func NewMoney(minorUnits int64, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, shared.NewDomainError(shared.CodeInvalidInput, "Currency cannot be empty")
	}
	return Money{amount: minorUnits, currency: currency}, nil
}

// MustNewMoney creates a new Money, panicking on an empty currency.
// Use only for static initialization where values are known to be valid.
func MustNewMoney(minorUnits int64, currency Currency) Money {
	m, err := NewMoney(minorUnits, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyEUR creates Money in EUR from minor units (cents)
func NewMoneyEUR(minorUnits int64) Money {
	return Money{amount: minorUnits, currency: EUR}
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: 0, currency: currency}
}

// ZeroEUR returns a zero-value Money in EUR
func ZeroEUR() Money {
	return Zero(EUR)
}

// Amount returns the amount in minor units (cents)
func (m Money) Amount() int64 {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount == 0
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount > 0
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount < 0
}

// Add returns a new Money with the sum of both amounts.
// Returns a CURRENCY_MISMATCH error if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
			"Cannot add money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// MustAdd adds two Money values, panics if currencies don't match
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Subtract returns a new Money with the difference.
// Returns a CURRENCY_MISMATCH error if the currencies differ.
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
			"Cannot subtract money with different currencies: %s and %s", m.currency, other.currency)
	}
	return Money{amount: m.amount - other.amount, currency: m.currency}, nil
}

// MultiplyQuantity returns a new Money multiplied by a non-negative
// integer quantity. The multiplication is exact, no rounding occurs;
// a product that does not fit in 64-bit minor units is rejected
// instead of wrapping silently.
func (m Money) MultiplyQuantity(quantity int64) (Money, error) {
	if quantity < 0 {
		return Money{}, shared.NewDomainError(shared.CodeInvalidInput, "Quantity cannot be negative")
	}
	if quantity > 0 && (m.amount > math.MaxInt64/quantity || m.amount < math.MinInt64/quantity) {
		return Money{}, shared.NewDomainErrorf(shared.CodeInvalidInput,
			"Amount %d times quantity %d overflows", m.amount, quantity)
	}
	return Money{amount: m.amount * quantity, currency: m.currency}, nil
}

// ApplyRate multiplies the amount by a percentage rate (e.g. 20 or 5.5)
// and rounds the result half-up to the nearest minor unit. Rounding is
// applied once, on the final product.
func (m Money) ApplyRate(ratePercent decimal.Decimal) Money {
	raw := decimal.NewFromInt(m.amount).Mul(ratePercent).Div(decimal.NewFromInt(100))
	return Money{amount: roundHalfUp(raw), currency: m.currency}
}

// ApplyDiscountPercent reduces the amount by a percentage discount,
// rounding half-up once on the discounted result.
func (m Money) ApplyDiscountPercent(discountPercent decimal.Decimal) Money {
	multiplier := decimal.NewFromInt(100).Sub(discountPercent)
	raw := decimal.NewFromInt(m.amount).Mul(multiplier).Div(decimal.NewFromInt(100))
	return Money{amount: roundHalfUp(raw), currency: m.currency}
}

// roundHalfUp rounds a decimal to the nearest integer, ties upward.
// floor(d + 0.5) is exact half-up for all signs.
func roundHalfUp(d decimal.Decimal) int64 {
	return d.Add(decimal.New(5, -1)).Floor().IntPart()
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{amount: -m.amount, currency: m.currency}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount == other.amount
}

// LessThan returns true if this Money is less than the other.
// Returns a CURRENCY_MISMATCH error if the currencies differ.
func (m Money) LessThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
			"Cannot compare money with different currencies: %s and %s", m.currency, other.currency)
	}
	return m.amount < other.amount, nil
}

// GreaterThan returns true if this Money is greater than the other.
// Returns a CURRENCY_MISMATCH error if the currencies differ.
func (m Money) GreaterThan(other Money) (bool, error) {
	if m.currency != other.currency {
		return false, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
			"Cannot compare money with different currencies: %s and %s", m.currency, other.currency)
	}
	return m.amount > other.amount, nil
}

// Decimal returns the amount in major units as an exact decimal (cents / 100)
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, -2)
}

// String returns a string representation of the Money, e.g. "45.00 EUR"
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Decimal().StringFixed(2), m.currency)
}

// moneyJSON is the wire shape: minor-unit integer plus explicit currency
type moneyJSON struct {
	Amount   int64    `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.currency})
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.amount = v.Amount
	m.currency = v.Currency
	return nil
}

// Value implements driver.Valuer for database storage.
// Stores the minor-unit amount only.
func (m Money) Value() (driver.Value, error) {
	return m.amount, nil
}

// Scan implements sql.Scanner for database retrieval.
// Scans only the amount; the currency defaults to DefaultCurrency if
// not already set, matching the single-currency persistence model.
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = 0
		m.currency = DefaultCurrency
		return nil
	}

	switch v := value.(type) {
	case int64:
		m.amount = v
	case []byte:
		amount, err := strconv.ParseInt(string(v), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid money value: %w", err)
		}
		m.amount = amount
	case string:
		amount, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid money value: %w", err)
		}
		m.amount = amount
	default:
		return fmt.Errorf("cannot scan %T into Money", value)
	}

	if m.currency == "" {
		m.currency = DefaultCurrency
	}
	return nil
}
