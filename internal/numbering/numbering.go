// Package numbering assigns human readable document numbers.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind identifies a numbered document type.
type Kind string

const (
	KindQuotation     Kind = "Q"
	KindOrder         Kind = "ORD"
	KindInvoice       Kind = "INV"
	KindDeliveryOrder Kind = "DO"
	KindCreditNote    Kind = "CN"
)

// ErrInvalidID is returned when a document has not been persisted yet.
var ErrInvalidID = errors.New("numbering: document has no persistent id")

// Target writes a number onto a persisted document. Implementations must only
// write when no number is stored yet and report whether a row was changed.
type Target interface {
	AssignNumber(ctx context.Context, kind Kind, id int64, number string) (bool, error)
}

// Format builds "{PREFIX}-{year}-{id}".
func Format(kind Kind, createdAt time.Time, id int64) string {
	return fmt.Sprintf("%s-%d-%d", kind, createdAt.Year(), id)
}

// Assign numbers a freshly created document. It returns existing untouched when
// the document already carries a number.
func Assign(ctx context.Context, target Target, kind Kind, id int64, createdAt time.Time, existing string) (string, error) {
	if existing != "" {
		return existing, nil
	}
	if id <= 0 {
		return "", ErrInvalidID
	}
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	number := Format(kind, createdAt, id)
	if _, err := target.AssignNumber(ctx, kind, id, number); err != nil {
		return "", fmt.Errorf("numbering: assign %s: %w", kind, err)
	}
	return number, nil
}
