package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/epicerie/backend/internal/domain/shared"
)

// DocumentType identifies the kind of commercial document a number is
// allocated for; its value is the number's type prefix.
type DocumentType string

const (
	DocumentTypeQuote         DocumentType = "QUO"
	DocumentTypePurchaseOrder DocumentType = "POR"
	DocumentTypeOrder         DocumentType = "ORD"
	DocumentTypeInvoice       DocumentType = "INV"
)

// IsValid checks if the document type is valid
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeQuote, DocumentTypePurchaseOrder, DocumentTypeOrder, DocumentTypeInvoice:
		return true
	}
	return false
}

// SequenceScope identifies one monotonic counter: numbers are sequential
// within a (document type, customer token, day) triple.
type SequenceScope struct {
	DocumentType  DocumentType
	CustomerToken string
	DateKey       string // YYYYMMDD
}

// Key returns the canonical string form of the scope
func (s SequenceScope) Key() string {
	return fmt.Sprintf("%s:%s:%s", s.DocumentType, s.CustomerToken, s.DateKey)
}

// SequenceAllocator hands out the next value of a scoped counter. The
// increment-and-read must be a single atomic operation in the backing
// store; a read-max-add-one-write-back implementation is racy and must
// not be used.
type SequenceAllocator interface {
	Next(ctx context.Context, scope SequenceScope) (int64, error)
}

// DefaultCustomerTokenLength caps the customer fragment of a document number
const DefaultCustomerTokenLength = 8

// CustomerToken normalizes a customer identifier (company name or
// surname) into the token embedded in document numbers: ASCII
// alphanumerics only, uppercased, capped at maxLen. An identifier with
// no usable characters yields "NA" so the number format stays intact.
func CustomerToken(identifier string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultCustomerTokenLength
	}

	var b strings.Builder
	for _, r := range strings.ToUpper(identifier) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= maxLen {
				break
			}
		}
	}

	if b.Len() == 0 {
		return "NA"
	}
	return b.String()
}

// NumberGenerator produces unique, human-readable document numbers in
// the form {TYPE_PREFIX}-{CUSTOMER_TOKEN}-{YYYYMMDD}-{SEQUENCE}.
// Uniqueness rests entirely on the allocator's atomic counter: a failed
// allocation is a hard NUMBER_GENERATION error, never retried with a
// random fallback, since a random suffix reintroduces the collision risk
// this component exists to remove.
type NumberGenerator struct {
	allocator   SequenceAllocator
	tokenLength int
}

// NewNumberGenerator creates a NumberGenerator over the given allocator.
// A non-positive tokenLength falls back to DefaultCustomerTokenLength.
func NewNumberGenerator(allocator SequenceAllocator, tokenLength int) *NumberGenerator {
	if tokenLength <= 0 {
		tokenLength = DefaultCustomerTokenLength
	}
	return &NumberGenerator{allocator: allocator, tokenLength: tokenLength}
}

// Generate allocates the next document number for the scope derived from
// the document type, customer identifier and issue date.
func (g *NumberGenerator) Generate(ctx context.Context, docType DocumentType, customerIdentifier string, issueDate time.Time) (string, error) {
	if !docType.IsValid() {
		return "", shared.NewDomainErrorf(shared.CodeNumberGeneration, "Unknown document type %q", docType)
	}

	scope := SequenceScope{
		DocumentType:  docType,
		CustomerToken: CustomerToken(customerIdentifier, g.tokenLength),
		DateKey:       issueDate.Format("20060102"),
	}

	seq, err := g.allocator.Next(ctx, scope)
	if err != nil {
		return "", shared.NewDomainErrorf(shared.CodeNumberGeneration,
			"Could not allocate sequence for scope %s: %s", scope.Key(), err.Error())
	}

	return fmt.Sprintf("%s-%s-%s-%04d", scope.DocumentType, scope.CustomerToken, scope.DateKey, seq), nil
}
