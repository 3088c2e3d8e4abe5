package numbering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTarget struct {
	numbers map[Kind]map[int64]string
	calls   int
	err     error
}

func newMemTarget() *memTarget {
	return &memTarget{numbers: make(map[Kind]map[int64]string)}
}

func (m *memTarget) AssignNumber(ctx context.Context, kind Kind, id int64, number string) (bool, error) {
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	if m.numbers[kind] == nil {
		m.numbers[kind] = make(map[int64]string)
	}
	if _, ok := m.numbers[kind][id]; ok {
		return false, nil
	}
	m.numbers[kind][id] = number
	return true, nil
}

func TestFormat(t *testing.T) {
	at := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "Q-2025-42", Format(KindQuotation, at, 42))
	assert.Equal(t, "INV-2025-7", Format(KindInvoice, at, 7))
	assert.Equal(t, "DO-2025-1", Format(KindDeliveryOrder, at, 1))
}

func TestAssign_NewDocument(t *testing.T) {
	target := newMemTarget()
	at := time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)

	number, err := Assign(context.Background(), target, KindOrder, 15, at, "")
	require.NoError(t, err)
	assert.Equal(t, "ORD-2024-15", number)
	assert.Equal(t, "ORD-2024-15", target.numbers[KindOrder][15])
}

func TestAssign_ExistingNumberIsKept(t *testing.T) {
	target := newMemTarget()

	number, err := Assign(context.Background(), target, KindQuotation, 3, time.Now(), "Q-2020-3")
	require.NoError(t, err)
	assert.Equal(t, "Q-2020-3", number)
	assert.Zero(t, target.calls)
}

func TestAssign_UniquePerKindAndYear(t *testing.T) {
	target := newMemTarget()
	at := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seen := map[string]bool{}
	for id := int64(1); id <= 50; id++ {
		number, err := Assign(context.Background(), target, KindInvoice, id, at, "")
		require.NoError(t, err)
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
}

func TestAssign_Errors(t *testing.T) {
	_, err := Assign(context.Background(), newMemTarget(), KindCreditNote, 0, time.Now(), "")
	assert.ErrorIs(t, err, ErrInvalidID)

	target := newMemTarget()
	target.err = errors.New("boom")
	_, err = Assign(context.Background(), target, KindCreditNote, 9, time.Now(), "")
	assert.ErrorContains(t, err, "boom")
}
