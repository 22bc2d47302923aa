package persistence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicerie/backend/internal/domain/billing"
)

func TestGormSequenceAllocator_Next(t *testing.T) {
	db := setupTestDB(t)
	allocator := NewGormSequenceAllocator(db)
	ctx := context.Background()

	scope := billing.SequenceScope{
		DocumentType:  billing.DocumentTypeQuote,
		CustomerToken: "FROMAGER",
		DateKey:       "20250315",
	}

	t.Run("counts from one within a scope", func(t *testing.T) {
		for want := int64(1); want <= 5; want++ {
			got, err := allocator.Next(ctx, scope)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
	})

	t.Run("scopes are independent", func(t *testing.T) {
		otherDay := scope
		otherDay.DateKey = "20250316"
		got, err := allocator.Next(ctx, otherDay)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)

		otherType := scope
		otherType.DocumentType = billing.DocumentTypeInvoice
		got, err = allocator.Next(ctx, otherType)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got)
	})
}

func TestGormSequenceAllocator_ConcurrentAllocationsAreDistinct(t *testing.T) {
	db := setupTestDB(t)
	allocator := NewGormSequenceAllocator(db)

	scope := billing.SequenceScope{
		DocumentType:  billing.DocumentTypeOrder,
		CustomerToken: "FROMAGER",
		DateKey:       "20250315",
	}

	const workers = 50
	values := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := allocator.Next(context.Background(), scope)
			assert.NoError(t, err)
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool, workers)
	for v := range values {
		assert.False(t, seen[v], "sequence value %d allocated twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, workers)
}
