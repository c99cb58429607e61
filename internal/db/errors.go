package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for store operations. Check with errors.Is.
var (
	// ErrAlreadyExists: a record with the same id or unique key exists,
	// e.g. two processes seeding the same board seat.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrTransactionConflict: concurrent writes touched the same records.
	// Safe to retry.
	ErrTransactionConflict = errors.New("transaction conflict")

	// ErrNotFound: the record to update does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrUnknownMetric: CountAggregate was asked for an unsupported aggregate.
	ErrUnknownMetric = errors.New("unknown aggregate metric")
)

// queryErrorPatterns maps SurrealDB error text to sentinels, checked in order.
var queryErrorPatterns = []struct {
	fragment string
	sentinel error
}{
	{"already exists", ErrAlreadyExists},
	{"already contains", ErrAlreadyExists}, // unique index violation
	{"Transaction conflict", ErrTransactionConflict},
}

// wrapQueryError tags SurrealDB query errors with a sentinel when the message
// is recognized. Anything else is returned unchanged.
func wrapQueryError(err error) error {
	var queryErr *surrealdb.QueryError
	if !errors.As(err, &queryErr) {
		return err
	}
	for _, p := range queryErrorPatterns {
		if strings.Contains(queryErr.Message, p.fragment) {
			return fmt.Errorf("%w: %s", p.sentinel, queryErr.Message)
		}
	}
	return err
}
