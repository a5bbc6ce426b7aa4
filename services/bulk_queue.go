package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BulkQueue stages rows in memory and writes them in chunks so a single
// statement never grows past the batch size
type BulkQueue[T any] struct {
	db        *gorm.DB
	batchSize int
	items     []T
}

// NewBulkQueue creates a queue flushing batchSize rows per statement
func NewBulkQueue[T any](db *gorm.DB, batchSize int) *BulkQueue[T] {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &BulkQueue[T]{db: db, batchSize: batchSize}
}

// Add stages rows for the next flush
func (q *BulkQueue[T]) Add(items ...T) {
	q.items = append(q.items, items...)
}

// Len returns the number of staged rows
func (q *BulkQueue[T]) Len() int {
	return len(q.items)
}

// Flush inserts every staged row and returns them with their ids set
func (q *BulkQueue[T]) Flush(ctx context.Context) ([]T, error) {
	items := q.items
	q.items = nil
	if len(items) == 0 {
		return nil, nil
	}
	if err := q.db.WithContext(ctx).CreateInBatches(&items, q.batchSize).Error; err != nil {
		return nil, fmt.Errorf("failed to insert %d rows: %w", len(items), err)
	}
	return items, nil
}

// FlushUpdate writes the named columns of staged rows that already exist,
// matching on id
func (q *BulkQueue[T]) FlushUpdate(ctx context.Context, columns ...string) (int, error) {
	items := q.items
	q.items = nil
	if len(items) == 0 {
		return 0, nil
	}
	err := q.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).CreateInBatches(&items, q.batchSize).Error
	if err != nil {
		return 0, fmt.Errorf("failed to update %d rows: %w", len(items), err)
	}
	return len(items), nil
}
