package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mbsadvocates/site/internal/metrics"
	apperrors "github.com/mbsadvocates/site/pkg/errors"
)

// OrderBy is one ordering term of a select.
type OrderBy struct {
	Column string
	Desc   bool
}

// Query narrows a select. Filter keys are column names compared for
// equality; Order terms apply in sequence.
type Query struct {
	Filter map[string]any
	Order  []OrderBy
	Limit  int
}

// Gateway issues inserts and selects against the hosted datastore. A
// Gateway built from a nil *gorm.DB is unconfigured: every call fails with
// an UNAVAILABLE error instead of panicking.
type Gateway struct {
	db *gorm.DB
}

// NewGateway wraps db. db may be nil.
func NewGateway(db *gorm.DB) *Gateway {
	return &Gateway{db: db}
}

// Configured reports whether a datastore connection is present.
func (g *Gateway) Configured() bool {
	return g != nil && g.db != nil
}

// Insert writes record into table.
func (g *Gateway) Insert(ctx context.Context, table string, record any) error {
	if !g.Configured() {
		return apperrors.Unavailable("datastore")
	}
	start := time.Now()
	err := g.db.WithContext(ctx).Table(table).Create(record).Error
	metrics.RecordDBQuery("insert_"+table, time.Since(start), err)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUpstream, fmt.Sprintf("insert into %s failed", table), err)
	}
	return nil
}

// Select reads rows of table matching q into dest, which must be a pointer
// to a slice of the table's record type.
func (g *Gateway) Select(ctx context.Context, table string, dest any, q Query) error {
	if !g.Configured() {
		return apperrors.Unavailable("datastore")
	}
	tx := g.db.WithContext(ctx).Table(table)
	if len(q.Filter) > 0 {
		tx = tx.Where(q.Filter)
	}
	for _, o := range q.Order {
		tx = tx.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	start := time.Now()
	err := tx.Find(dest).Error
	metrics.RecordDBQuery("select_"+table, time.Since(start), err)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeUpstream, fmt.Sprintf("select from %s failed", table), err)
	}
	return nil
}

// Ping checks connectivity and refreshes the pool gauges.
func (g *Gateway) Ping(ctx context.Context) error {
	if !g.Configured() {
		return apperrors.Unavailable("datastore")
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	stats := sqlDB.Stats()
	metrics.UpdateDBConnections(stats.InUse, stats.Idle)
	return sqlDB.PingContext(ctx)
}

// SQLState returns the PostgreSQL error code carried by err, if any.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
