package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epicerie/backend/internal/domain/shared"
)

// memoryAllocator is a mutex-protected in-memory sequence allocator
type memoryAllocator struct {
	mu       sync.Mutex
	counters map[string]int64
	failWith error
}

func newMemoryAllocator() *memoryAllocator {
	return &memoryAllocator{counters: make(map[string]int64)}
}

func (a *memoryAllocator) Next(_ context.Context, scope SequenceScope) (int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failWith != nil {
		return 0, a.failWith
	}
	a.counters[scope.Key()]++
	return a.counters[scope.Key()], nil
}

func TestCustomerToken(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		maxLen     int
		expected   string
	}{
		{
			name:       "plain company name",
			identifier: "Fromagerie Laurent",
			maxLen:     8,
			expected:   "FROMAGER",
		},
		{
			name:       "short surname",
			identifier: "Dupont",
			maxLen:     8,
			expected:   "DUPONT",
		},
		{
			name:       "punctuation stripped",
			identifier: "L'Épicerie & Co.",
			maxLen:     8,
			expected:   "LPICERIE",
		},
		{
			name:       "digits kept",
			identifier: "Cave 1924",
			maxLen:     8,
			expected:   "CAVE1924",
		},
		{
			name:       "no usable characters",
			identifier: "---",
			maxLen:     8,
			expected:   "NA",
		},
		{
			name:       "empty identifier",
			identifier: "",
			maxLen:     8,
			expected:   "NA",
		},
		{
			name:       "non-positive max falls back to default",
			identifier: "Fromagerie Laurent",
			maxLen:     0,
			expected:   "FROMAGER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CustomerToken(tt.identifier, tt.maxLen))
		})
	}
}

func TestNumberGenerator_Generate(t *testing.T) {
	gen := NewNumberGenerator(newMemoryAllocator(), DefaultCustomerTokenLength)
	issueDate := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	first, err := gen.Generate(context.Background(), DocumentTypeQuote, "Fromagerie Laurent", issueDate)
	require.NoError(t, err)
	assert.Equal(t, "QUO-FROMAGER-20250315-0001", first)

	second, err := gen.Generate(context.Background(), DocumentTypeQuote, "Fromagerie Laurent", issueDate)
	require.NoError(t, err)
	assert.Equal(t, "QUO-FROMAGER-20250315-0002", second)

	// Another document type starts its own counter
	invoice, err := gen.Generate(context.Background(), DocumentTypeInvoice, "Fromagerie Laurent", issueDate)
	require.NoError(t, err)
	assert.Equal(t, "INV-FROMAGER-20250315-0001", invoice)

	// Another day starts its own counter too
	nextDay, err := gen.Generate(context.Background(), DocumentTypeQuote, "Fromagerie Laurent", issueDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "QUO-FROMAGER-20250316-0001", nextDay)
}

func TestNumberGenerator_ConcurrentAllocationsAreDistinct(t *testing.T) {
	gen := NewNumberGenerator(newMemoryAllocator(), DefaultCustomerTokenLength)
	issueDate := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			number, err := gen.Generate(context.Background(), DocumentTypeOrder, "Fromagerie Laurent", issueDate)
			assert.NoError(t, err)
			results <- number
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool, n)
	for number := range results {
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
	assert.Len(t, seen, n)
}

func TestNumberGenerator_AllocatorFailureIsHard(t *testing.T) {
	alloc := newMemoryAllocator()
	alloc.failWith = fmt.Errorf("connection refused")
	gen := NewNumberGenerator(alloc, DefaultCustomerTokenLength)

	_, err := gen.Generate(context.Background(), DocumentTypeOrder, "Dupont", time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNumberGeneration))
}

func TestNumberGenerator_UnknownDocumentType(t *testing.T) {
	gen := NewNumberGenerator(newMemoryAllocator(), DefaultCustomerTokenLength)

	_, err := gen.Generate(context.Background(), DocumentType("XXX"), "Dupont", time.Now())
	require.Error(t, err)
	assert.True(t, shared.IsCode(err, shared.CodeNumberGeneration))
}
