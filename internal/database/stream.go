package database

import (
	"iter"

	"go-pos-billing/internal/apperr"

	"gorm.io/gorm"
)

// Stream runs q and yields one scanned row at a time, so readers never hold
// an unbounded result set. Iteration stops at the first error.
func Stream[T any](q *gorm.DB) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		rows, err := q.Rows()
		if err != nil {
			yield(zero, apperr.Wrap(apperr.KindStorage, "database.Stream", err))
			return
		}
		defer rows.Close()

		scanner := q.Session(&gorm.Session{NewDB: true})
		for rows.Next() {
			var row T
			if err := scanner.ScanRows(rows, &row); err != nil {
				yield(zero, apperr.Wrap(apperr.KindStorage, "database.Stream", err))
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(zero, apperr.Wrap(apperr.KindStorage, "database.Stream", err))
		}
	}
}

// Collect drains a stream into a slice; for bounded result sets and tests.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for row, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}
