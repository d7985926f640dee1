package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/hyttebook/backend/internal/cabin/domain"
	"github.com/hyttebook/backend/internal/common/db"
)

type Repository interface {
	Create(ctx context.Context, cabin domain.Cabin) error
	FindBySlug(ctx context.Context, slug string) (domain.Cabin, error)
	FindByID(ctx context.Context, id int64) (domain.Cabin, error)
	// SlugExists probes for a slug collision. excludeID > 0 ignores the
	// record with that id, so a rename never collides with itself.
	SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error)
	List(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Cabin, error)
	Count(ctx context.Context, filter domain.ListFilter) (int64, error)
	UpdateByID(ctx context.Context, cabin domain.Cabin) error
	DeleteByID(ctx context.Context, id int64) error
}

var ErrCabinNotFound = pgx.ErrNoRows

var ErrSlugTaken = errors.New("slug already exists")

const cabinColumns = `id, owner, name, slug, address, postal_code, city, phone, email,
	 contact_person_name, contact_person_employer, is_member, created_at, updated_at`

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Create(ctx context.Context, cabin domain.Cabin) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO cabins (`+cabinColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		cabin.ID,
		string(cabin.Owner),
		cabin.Name,
		cabin.Slug,
		cabin.Address,
		cabin.PostalCode,
		cabin.City,
		cabin.Phone,
		cabin.Email,
		cabin.ContactPersonName,
		cabin.ContactPersonEmployer,
		cabin.IsMember,
		cabin.CreatedAt,
		cabin.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "cabins_slug_key" {
			db.MeasureQueryDuration("create cabin", start)
			return ErrSlugTaken
		}
		return db.HandleExecError(err, "create cabin", start)
	}
	return db.HandleExecError(nil, "create cabin", start)
}

func (r *PgRepository) FindBySlug(ctx context.Context, slug string) (domain.Cabin, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+cabinColumns+` FROM cabins WHERE slug = $1`,
		slug,
	)

	cabin, err := scanCabin(row)
	if err != nil {
		return domain.Cabin{}, db.HandleQueryError(err, ErrCabinNotFound, "find cabin by slug", start)
	}
	db.MeasureQueryDuration("find cabin by slug", start)
	return cabin, nil
}

func (r *PgRepository) FindByID(ctx context.Context, id int64) (domain.Cabin, error) {
	start := time.Now()
	row := r.pool.QueryRow(
		ctx,
		`SELECT `+cabinColumns+` FROM cabins WHERE id = $1`,
		id,
	)

	cabin, err := scanCabin(row)
	if err != nil {
		return domain.Cabin{}, db.HandleQueryError(err, ErrCabinNotFound, "find cabin by id", start)
	}
	db.MeasureQueryDuration("find cabin by id", start)
	return cabin, nil
}

func (r *PgRepository) SlugExists(ctx context.Context, slug string, excludeID int64) (bool, error) {
	start := time.Now()

	var exists bool
	var err error
	if excludeID > 0 {
		err = r.pool.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM cabins WHERE slug = $1 AND id <> $2)`,
			slug,
			excludeID,
		).Scan(&exists)
	} else {
		err = r.pool.QueryRow(
			ctx,
			`SELECT EXISTS (SELECT 1 FROM cabins WHERE slug = $1)`,
			slug,
		).Scan(&exists)
	}
	if err != nil {
		return false, db.HandleQueryError(err, err, "probe cabin slug", start)
	}
	db.MeasureQueryDuration("probe cabin slug", start)
	return exists, nil
}

func (r *PgRepository) List(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Cabin, error) {
	start := time.Now()

	where, args := buildFilter(filter)
	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(
		`SELECT `+cabinColumns+` FROM cabins %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where,
		len(args)-1,
		len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, db.HandleQueryError(err, err, "list cabins", start)
	}
	defer rows.Close()

	var cabins []domain.Cabin
	for rows.Next() {
		cabin, err := scanCabin(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cabin: %w", err)
		}
		cabins = append(cabins, cabin)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("rows iteration error: %w", rows.Err())
	}

	db.MeasureQueryDuration("list cabins", start)
	return cabins, nil
}

func (r *PgRepository) Count(ctx context.Context, filter domain.ListFilter) (int64, error) {
	start := time.Now()

	where, args := buildFilter(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM cabins %s`, where)

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, db.HandleQueryError(err, err, "count cabins", start)
	}
	db.MeasureQueryDuration("count cabins", start)
	return total, nil
}

func (r *PgRepository) UpdateByID(ctx context.Context, cabin domain.Cabin) error {
	start := time.Now()
	tag, err := r.pool.Exec(
		ctx,
		`UPDATE cabins SET
			name = $2, slug = $3, address = $4, postal_code = $5, city = $6,
			phone = $7, email = $8, contact_person_name = $9,
			contact_person_employer = $10, is_member = $11, updated_at = $12
		 WHERE id = $1`,
		cabin.ID,
		cabin.Name,
		cabin.Slug,
		cabin.Address,
		cabin.PostalCode,
		cabin.City,
		cabin.Phone,
		cabin.Email,
		cabin.ContactPersonName,
		cabin.ContactPersonEmployer,
		cabin.IsMember,
		cabin.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "cabins_slug_key" {
			db.MeasureQueryDuration("update cabin", start)
			return ErrSlugTaken
		}
		return db.HandleExecError(err, "update cabin", start)
	}
	if tag.RowsAffected() == 0 {
		db.MeasureQueryDuration("update cabin", start)
		return ErrCabinNotFound
	}
	return db.HandleExecError(nil, "update cabin", start)
}

func (r *PgRepository) DeleteByID(ctx context.Context, id int64) error {
	start := time.Now()
	tag, err := r.pool.Exec(ctx, `DELETE FROM cabins WHERE id = $1`, id)
	if err != nil {
		return db.HandleExecError(err, "delete cabin", start)
	}
	if tag.RowsAffected() == 0 {
		db.MeasureQueryDuration("delete cabin", start)
		return ErrCabinNotFound
	}
	return db.HandleExecError(nil, "delete cabin", start)
}

func buildFilter(filter domain.ListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.City != "" {
		args = append(args, filter.City)
		conditions = append(conditions, fmt.Sprintf("city = $%d", len(args)))
	}
	if filter.IsMember != nil {
		args = append(args, *filter.IsMember)
		conditions = append(conditions, fmt.Sprintf("is_member = $%d", len(args)))
	}
	if filter.OwnerID != "" {
		args = append(args, string(filter.OwnerID))
		conditions = append(conditions, fmt.Sprintf("owner = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCabin(row rowScanner) (domain.Cabin, error) {
	var cabin domain.Cabin
	var owner string
	err := row.Scan(
		&cabin.ID,
		&owner,
		&cabin.Name,
		&cabin.Slug,
		&cabin.Address,
		&cabin.PostalCode,
		&cabin.City,
		&cabin.Phone,
		&cabin.Email,
		&cabin.ContactPersonName,
		&cabin.ContactPersonEmployer,
		&cabin.IsMember,
		&cabin.CreatedAt,
		&cabin.UpdatedAt,
	)
	if err != nil {
		return domain.Cabin{}, err
	}
	cabin.Owner = domain.OwnerID(owner)
	return cabin, nil
}
