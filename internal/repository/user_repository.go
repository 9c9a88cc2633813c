package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"orbitdrive/internal/domain"
)

type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetOrCreate(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User

	err := r.db.GetContext(ctx, &user,
		`SELECT * FROM users WHERE id = $1`,
		userID)

	if err != nil {
		// Если записи нет, создаем новую с тарифом free
		if err == sql.ErrNoRows {
			limits := domain.PlanFree.Limits()
			_, err = r.db.ExecContext(ctx, `
                INSERT INTO users (id, plan, storage_limit)
                VALUES ($1, $2, $3)
                ON CONFLICT (id) DO NOTHING`,
				userID, domain.PlanFree, limits.StorageLimit)
			if err != nil {
				return nil, fmt.Errorf("failed to create user: %w", err)
			}

			err = r.db.GetContext(ctx, &user,
				`SELECT * FROM users WHERE id = $1`,
				userID)
			if err != nil {
				return nil, fmt.Errorf("failed to get created user: %w", err)
			}
			return &user, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *PostgresUserRepository) UpdatePlan(ctx context.Context, userID string, plan domain.Plan, newLimit int64, subscriptionStart, subscriptionEnd *time.Time) error {
	query := `
        UPDATE users
        SET plan = $1,
            storage_limit = $2,
            subscription_start = $3,
            subscription_end = $4,
            updated_at = CURRENT_TIMESTAMP
        WHERE id = $5`

	result, err := r.db.ExecContext(ctx, query, plan, newLimit, subscriptionStart, subscriptionEnd, userID)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}

	return nil
}

func (r *PostgresUserRepository) List(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	var users []domain.User
	query := `
        SELECT * FROM users
        ORDER BY created_at DESC
        LIMIT $1 OFFSET $2`

	if err := r.db.SelectContext(ctx, &users, query, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	return users, total, nil
}

func (r *PostgresUserRepository) GetAdminStats(ctx context.Context) (*domain.AdminStats, error) {
	stats := &domain.AdminStats{
		UsersByPlan: make(map[string]int64),
	}

	// Счетчики считаются агрегатными запросами, без выгрузки строк в память
	query := `
        SELECT
            (SELECT COUNT(*) FROM users) AS total_users,
            (SELECT COUNT(*) FROM files WHERE NOT is_deleted) AS total_files,
            (SELECT COUNT(*) FROM folders WHERE NOT is_deleted) AS total_folders,
            (SELECT COALESCE(SUM(storage_used), 0) FROM users) AS total_storage_used`

	row := r.db.QueryRowContext(ctx, query)
	if err := row.Scan(&stats.TotalUsers, &stats.TotalFiles, &stats.TotalFolders, &stats.TotalStorageUsed); err != nil {
		return nil, fmt.Errorf("failed to get admin stats: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT plan, COUNT(*) FROM users GROUP BY plan`)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan breakdown: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var plan string
		var count int64
		if err := rows.Scan(&plan, &count); err != nil {
			return nil, fmt.Errorf("failed to scan plan breakdown: %w", err)
		}
		stats.UsersByPlan[plan] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read plan breakdown: %w", err)
	}

	return stats, nil
}
