package persistence

import (
	"context"
	"fmt"

	"github.com/epicerie/backend/internal/domain/billing"
)

// DocumentSequence is one scoped document number counter
type DocumentSequence struct {
	ScopeKey string `gorm:"primaryKey;size:64"`
	Value    int64  `gorm:"not null"`
}

// TableName returns the table name for document sequences
func (DocumentSequence) TableName() string {
	return "document_sequences"
}

// GormSequenceAllocator allocates document number sequences through a
// single atomic upsert. The increment-and-read happens in one statement
// so concurrent allocations for the same scope can never observe the
// same value; a read-then-write implementation would race.
type GormSequenceAllocator struct {
	db *Database
}

// NewGormSequenceAllocator creates a GormSequenceAllocator
func NewGormSequenceAllocator(db *Database) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

// Next returns the next value of the scoped counter, creating the
// counter at 1 on first use. The upsert syntax is shared by PostgreSQL
// and SQLite.
func (a *GormSequenceAllocator) Next(ctx context.Context, scope billing.SequenceScope) (int64, error) {
	var value int64
	err := dbFrom(ctx, a.db.DB).Raw(
		`INSERT INTO document_sequences (scope_key, value) VALUES (?, 1)
		 ON CONFLICT (scope_key) DO UPDATE SET value = document_sequences.value + 1
		 RETURNING value`,
		scope.Key(),
	).Scan(&value).Error
	if err != nil {
		return 0, fmt.Errorf("sequence allocation failed for %s: %w", scope.Key(), err)
	}
	return value, nil
}
