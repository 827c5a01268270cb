package persistence

import (
	"context"
	"database/sql"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/chatbot-service/internal/domain/usage"
	"github.com/khoahotran/chatbot-service/pkg/apperror"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

type postgresUsageRepo struct {
	db     *pgxpool.Pool
	logger logger.Logger
}

func NewPostgresUsageRepo(db *pgxpool.Pool, logger logger.Logger) usage.Repository {
	return &postgresUsageRepo{db: db, logger: logger}
}

var psqlUsage = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var usageColumns = []string{
	"id", "service_name", "model", "input_tokens", "output_tokens",
	"usage_quantity", "unit", "cost", "status", "error", "created_at",
}

func scanUsage(row pgx.Row) (*usage.Record, error) {
	r := &usage.Record{}
	var errText sql.NullString

	err := row.Scan(
		&r.ID, &r.Service, &r.Model, &r.InputTokens, &r.OutputTokens,
		&r.UsageQuantity, &r.Unit, &r.Cost, &r.Status, &errText, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("usage record", "")
		}
		return nil, apperror.NewInternal("failed to scan usage row", err)
	}
	if errText.Valid {
		r.Error = errText.String
	}
	return r, nil
}

func (r *postgresUsageRepo) Save(ctx context.Context, rec *usage.Record) error {
	var errText *string
	if rec.Error != "" {
		errText = &rec.Error
	}

	query, args, err := psqlUsage.Insert("usage_records").
		Columns(usageColumns...).
		Values(
			rec.ID, rec.Service, rec.Model, rec.InputTokens, rec.OutputTokens,
			rec.UsageQuantity, rec.Unit, rec.Cost, rec.Status, errText, rec.CreatedAt,
		).
		ToSql()
	if err != nil {
		return apperror.NewInternal("failed to build insert usage query", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewConflict("usage record", "id", rec.ID.String())
		}
		return apperror.NewInternal("failed to save usage record", err)
	}
	return nil
}

func (r *postgresUsageRepo) ListRecent(ctx context.Context, service string, limit int) ([]*usage.Record, error) {
	query, args, err := psqlUsage.Select(usageColumns...).
		From("usage_records").
		Where(sq.Eq{"service_name": service}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, apperror.NewInternal("failed to build list usage query", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperror.NewInternal("failed to query usage records", err)
	}
	defer rows.Close()

	records := make([]*usage.Record, 0)
	for rows.Next() {
		rec, err := scanUsage(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.NewInternal("error iterating usage rows", err)
	}
	return records, nil
}
