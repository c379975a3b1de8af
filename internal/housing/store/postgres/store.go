// Package postgres is the housing directory for self-hosted deployments
// where the portal owns the application records.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"resportal/pkg/requestcontext"
	"resportal/pkg/sentinel"

	"resportal/internal/housing/models"
)

// Store persists application records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the housing tables when they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS housing_applications (
	id              BIGSERIAL PRIMARY KEY,
	editor_username TEXT NOT NULL,
	editor_profile  JSONB NOT NULL,
	date_submitted  TIMESTAMPTZ,
	date_modified   TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS housing_applicants (
	application_id     BIGINT NOT NULL REFERENCES housing_applications(id) ON DELETE CASCADE,
	position           INT NOT NULL,
	username           TEXT NOT NULL,
	profile            JSONB NOT NULL,
	off_campus_program TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (application_id, username)
);
CREATE TABLE IF NOT EXISTS housing_hall_choices (
	application_id BIGINT NOT NULL REFERENCES housing_applications(id) ON DELETE CASCADE,
	hall_rank      INT NOT NULL,
	hall_name      TEXT NOT NULL,
	position       INT NOT NULL,
	PRIMARY KEY (application_id, position)
);
CREATE INDEX IF NOT EXISTS housing_applicants_username_idx
	ON housing_applicants (LOWER(username));
`)
	if err != nil {
		return fmt.Errorf("migrate housing schema: %w", err)
	}
	return nil
}

func (s *Store) CurrentApplicationID(ctx context.Context, username string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
SELECT a.id
FROM housing_applications a
WHERE LOWER(a.editor_username) = LOWER($1)
   OR EXISTS (
		SELECT 1 FROM housing_applicants ap
		WHERE ap.application_id = a.id AND LOWER(ap.username) = LOWER($1)
	)
LIMIT 1`, username).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, sentinel.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("current application id for %s: %w", username, err)
	}
	return id, nil
}

func (s *Store) Application(ctx context.Context, id int64) (models.ApplicationDetails, error) {
	var app models.ApplicationDetails
	err := s.pool.QueryRow(ctx, `
SELECT id, editor_profile, date_submitted, date_modified
FROM housing_applications WHERE id = $1`, id).
		Scan(&app.ID, &app.Editor, &app.DateSubmitted, &app.DateModified)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ApplicationDetails{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.ApplicationDetails{}, fmt.Errorf("load application %d: %w", id, err)
	}

	rows, err := s.pool.Query(ctx, `
SELECT profile, username, off_campus_program
FROM housing_applicants WHERE application_id = $1 ORDER BY position`, id)
	if err != nil {
		return models.ApplicationDetails{}, fmt.Errorf("load applicants for %d: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var ap models.Applicant
		if err := rows.Scan(&ap.Profile, &ap.Username, &ap.OffCampusProgram); err != nil {
			return models.ApplicationDetails{}, fmt.Errorf("scan applicant: %w", err)
		}
		app.Applicants = append(app.Applicants, ap)
	}
	if err := rows.Err(); err != nil {
		return models.ApplicationDetails{}, fmt.Errorf("iterate applicants: %w", err)
	}

	choiceRows, err := s.pool.Query(ctx, `
SELECT application_id, hall_rank, hall_name
FROM housing_hall_choices WHERE application_id = $1 ORDER BY hall_rank, hall_name`, id)
	if err != nil {
		return models.ApplicationDetails{}, fmt.Errorf("load hall choices for %d: %w", id, err)
	}
	defer choiceRows.Close()
	for choiceRows.Next() {
		var c models.HallChoice
		if err := choiceRows.Scan(&c.ApplicationID, &c.Rank, &c.Name); err != nil {
			return models.ApplicationDetails{}, fmt.Errorf("scan hall choice: %w", err)
		}
		app.Choices = append(app.Choices, c)
	}
	if err := choiceRows.Err(); err != nil {
		return models.ApplicationDetails{}, fmt.Errorf("iterate hall choices: %w", err)
	}
	return app, nil
}

// SaveApplication writes the whole aggregate in one transaction, replacing
// the child rows. The application row is locked for the duration so two
// concurrent saves cannot interleave their child writes.
func (s *Store) SaveApplication(ctx context.Context, details models.ApplicationDetails) (int64, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx)

	now := requestcontext.Now(ctx).UTC()
	id := details.ID
	if id == 0 {
		err = tx.QueryRow(ctx, `
INSERT INTO housing_applications (editor_username, editor_profile, date_modified)
VALUES ($1, $2, $3) RETURNING id`,
			details.Editor.Username, details.Editor, now).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert application: %w", err)
		}
	} else {
		var submitted *time.Time
		err = tx.QueryRow(ctx, `
SELECT date_submitted FROM housing_applications WHERE id = $1 FOR UPDATE`, id).
			Scan(&submitted)
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("lock application %d: %w", id, err)
		}
		if submitted != nil {
			return 0, sentinel.ErrInvalidState
		}
		_, err = tx.Exec(ctx, `
UPDATE housing_applications
SET editor_username = $2, editor_profile = $3, date_modified = $4
WHERE id = $1`, id, details.Editor.Username, details.Editor, now)
		if err != nil {
			return 0, fmt.Errorf("update application %d: %w", id, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM housing_applicants WHERE application_id = $1`, id); err != nil {
		return 0, fmt.Errorf("clear applicants: %w", err)
	}
	for i, ap := range details.Applicants {
		_, err := tx.Exec(ctx, `
INSERT INTO housing_applicants (application_id, position, username, profile, off_campus_program)
VALUES ($1, $2, $3, $4, $5)`, id, i, ap.Username, ap.Profile, ap.OffCampusProgram)
		if err != nil {
			return 0, fmt.Errorf("insert applicant %s: %w", ap.Username, err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM housing_hall_choices WHERE application_id = $1`, id); err != nil {
		return 0, fmt.Errorf("clear hall choices: %w", err)
	}
	for i, c := range details.Choices {
		_, err := tx.Exec(ctx, `
INSERT INTO housing_hall_choices (application_id, hall_rank, hall_name, position)
VALUES ($1, $2, $3, $4)`, id, c.Rank, c.Name, i)
		if err != nil {
			return 0, fmt.Errorf("insert hall choice %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit save: %w", err)
	}
	return id, nil
}

func (s *Store) SubmitApplication(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
UPDATE housing_applications SET date_submitted = $2
WHERE id = $1 AND date_submitted IS NULL`, id, requestcontext.Now(ctx).UTC())
	if err != nil {
		return false, fmt.Errorf("submit application %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Already submitted counts as success; missing does not.
		var exists bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM housing_applications WHERE id = $1)`, id).
			Scan(&exists); err != nil {
			return false, fmt.Errorf("check application %d: %w", id, err)
		}
		if !exists {
			return false, sentinel.ErrNotFound
		}
	}
	return true, nil
}

func (s *Store) DeleteApplication(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM housing_applications WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete application %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return false, sentinel.ErrNotFound
	}
	return true, nil
}

func (s *Store) ChangeEditor(ctx context.Context, id int64, username string) (bool, error) {
	var profile models.Profile
	err := s.pool.QueryRow(ctx, `
SELECT profile FROM housing_applicants
WHERE application_id = $1 AND LOWER(username) = LOWER($2)`, id, username).
		Scan(&profile)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, sentinel.ErrInvalidState
	}
	if err != nil {
		return false, fmt.Errorf("resolve new editor %s: %w", username, err)
	}
	tag, err := s.pool.Exec(ctx, `
UPDATE housing_applications SET editor_username = $2, editor_profile = $3
WHERE id = $1`, id, profile.Username, profile)
	if err != nil {
		return false, fmt.Errorf("change editor on %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// AvailableHalls lists hall names found in any application's choices; a
// deployment-specific halls table can replace this later. The editor
// argument is unused here but part of the directory contract.
func (s *Store) AvailableHalls(ctx context.Context, _ string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT hall_name FROM housing_hall_choices
WHERE hall_name <> '' ORDER BY hall_name`)
	if err != nil {
		return nil, fmt.Errorf("list halls: %w", err)
	}
	defer rows.Close()
	var halls []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan hall name: %w", err)
		}
		halls = append(halls, strings.TrimSpace(name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate halls: %w", err)
	}
	if len(halls) == 0 {
		return nil, sentinel.ErrUnavailable
	}
	return halls, nil
}
