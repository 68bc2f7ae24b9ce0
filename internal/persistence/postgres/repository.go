// Package postgres provides pgx-backed persistence for activities and outbox
// events.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/gtm/internal/domain"
	"example.com/gtm/internal/observability"
	"example.com/gtm/internal/outbox"
)

const activityColumns = `id, hypothesis, audience, channels, description, list_size, meetings_booked, start_date, end_date, est_weekly_hrs, created_at, updated_at`

// Repository provides Postgres-backed persistence for activities. Every
// mutation commits in a single transaction together with its outbox event, so
// concurrent operations against the same id are linearized by the database.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns activities matching the filter, ordered by id ascending unless
// the filter asks for newest first.
func (r *Repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Activity, error) {
	var (
		clauses []string
		args    []any
	)
	addFilter := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, "%"+value+"%")
		clauses = append(clauses, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}
	addFilter("hypothesis", filter.Hypothesis)
	addFilter("audience", filter.Audience)
	addFilter("channels", filter.Channels)

	query := `SELECT ` + activityColumns + ` FROM gtm_activities`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	order := "id"
	if filter.NewestFirst {
		order = "id DESC"
	}
	args = append(args, filter.Limit)
	query += fmt.Sprintf(" ORDER BY %s LIMIT $%d", order, len(args))
	args = append(args, filter.Skip)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]domain.Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

// Get retrieves an activity by id, returning nil when absent.
func (r *Repository) Get(ctx context.Context, id int64) (*domain.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM gtm_activities WHERE id=$1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	activity, err := scanActivity(rows)
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// Create persists the activity and records an outbox event inside a single
// transaction. The database assigns the id.
func (r *Repository) Create(ctx context.Context, activity *domain.Activity) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const insert = `INSERT INTO gtm_activities (hypothesis, audience, channels, description, list_size, meetings_booked, start_date, end_date, est_weekly_hrs, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id`

	err = tx.QueryRow(ctx, insert,
		activity.Hypothesis,
		activity.Audience,
		activity.Channels,
		activity.Description,
		activity.ListSize,
		activity.MeetingsBooked,
		dateValue(activity.StartDate),
		dateValue(activity.EndDate),
		activity.EstWeeklyHrs,
		activity.CreatedAt,
		activity.UpdatedAt,
	).Scan(&activity.ID)
	if err != nil {
		return err
	}

	if err = insertOutbox(ctx, tx, outbox.EventActivityCreated, activity.ID, outbox.ActivityEvent{
		ActivityID: activity.ID,
		Hypothesis: activity.Hypothesis,
		Audience:   activity.Audience,
		Channels:   activity.Channels,
		OccurredAt: activity.CreatedAt,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordActivityPersisted(activity.UpdatedAt)
	return nil
}

// Update rewrites every column of the row. The caller decides partial versus
// full semantics before handing over the merged record.
func (r *Repository) Update(ctx context.Context, activity *domain.Activity) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const stmt = `UPDATE gtm_activities
        SET hypothesis=$2, audience=$3, channels=$4, description=$5, list_size=$6, meetings_booked=$7, start_date=$8, end_date=$9, est_weekly_hrs=$10, updated_at=$11
        WHERE id=$1`

	tag, err := tx.Exec(ctx, stmt,
		activity.ID,
		activity.Hypothesis,
		activity.Audience,
		activity.Channels,
		activity.Description,
		activity.ListSize,
		activity.MeetingsBooked,
		dateValue(activity.StartDate),
		dateValue(activity.EndDate),
		activity.EstWeeklyHrs,
		activity.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	if err = insertOutbox(ctx, tx, outbox.EventActivityUpdated, activity.ID, outbox.ActivityEvent{
		ActivityID: activity.ID,
		Hypothesis: activity.Hypothesis,
		Audience:   activity.Audience,
		Channels:   activity.Channels,
		OccurredAt: activity.UpdatedAt,
	}); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	observability.RecordActivityPersisted(activity.UpdatedAt)
	return true, nil
}

// Delete hard-deletes the row, reporting whether it existed.
func (r *Repository) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `DELETE FROM gtm_activities WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}

	if err = insertOutbox(ctx, tx, outbox.EventActivityDeleted, id, outbox.ActivityEvent{
		ActivityID: id,
		OccurredAt: time.Now().UTC(),
	}); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType string, activityID int64, payload outbox.ActivityEvent) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload)
        VALUES ($1,$2,$3,$4,$5,$6)`

	_, err = tx.Exec(ctx, stmt,
		"activity",
		activityID,
		eventType,
		outbox.ActivityEventsTopic,
		strconv.FormatInt(activityID, 10),
		body,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (domain.Activity, error) {
	var (
		activity  domain.Activity
		startDate *time.Time
		endDate   *time.Time
	)
	err := row.Scan(
		&activity.ID,
		&activity.Hypothesis,
		&activity.Audience,
		&activity.Channels,
		&activity.Description,
		&activity.ListSize,
		&activity.MeetingsBooked,
		&startDate,
		&endDate,
		&activity.EstWeeklyHrs,
		&activity.CreatedAt,
		&activity.UpdatedAt,
	)
	if err != nil {
		return domain.Activity{}, err
	}
	activity.StartDate = toDate(startDate)
	activity.EndDate = toDate(endDate)
	return activity, nil
}

func dateValue(d *domain.Date) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func toDate(t *time.Time) *domain.Date {
	if t == nil {
		return nil
	}
	d := domain.Date{Time: t.UTC()}
	return &d
}
