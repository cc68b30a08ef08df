// Package repository содержит реализацию хранилища истории загрузок в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/mmeshcher/foodwrapped-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresRepository предоставляет доступ к истории загрузок в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// SaveSummary сохраняет сводку одной загрузки и возвращает её идентификатор.
func (r *PostgresRepository) SaveSummary(ctx context.Context, s *model.Statistics) (int64, error) {
	summary, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("marshal summary: %w", err)
	}

	var id int64
	err = r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO upload_summaries
			     (recipient_name, total_items, unique_items, busiest_date, busiest_count, top_restaurant, summary)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			s.RecipientName, s.TotalItemsOrdered, s.TotalUniqueItems,
			s.BusiestDay.Date, s.BusiestDay.OrderCount, s.TopRestaurant.Name, summary,
		).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("save summary: %w", err)
	}

	return id, nil
}

// ListSummaries возвращает последние сохранённые сводки, новые первыми.
func (r *PostgresRepository) ListSummaries(ctx context.Context, limit int) ([]model.SummaryRecord, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, recipient_name, total_items, unique_items, busiest_date, busiest_count, top_restaurant, created_at
		 FROM upload_summaries
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var records []model.SummaryRecord
	for rows.Next() {
		var rec model.SummaryRecord
		if err := rows.Scan(
			&rec.ID, &rec.RecipientName, &rec.TotalItems, &rec.UniqueItems,
			&rec.BusiestDate, &rec.BusiestCount, &rec.TopRestaurant, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}

	return records, nil
}
