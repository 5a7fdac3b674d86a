package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"calendar-service/internal/models"
	"calendar-service/pkg/response"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

// Migrate creates the schema when it does not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS calendars (
			calendar_id uuid PRIMARY KEY,
			user_id text NOT NULL,
			account_id text NOT NULL,
			week_start int NOT NULL DEFAULT 0,
			timezone text NOT NULL DEFAULT 'UTC'
		)`,
		`CREATE TABLE IF NOT EXISTS calendar_events (
			event_id uuid PRIMARY KEY,
			calendar_id uuid NOT NULL REFERENCES calendars(calendar_id) ON DELETE CASCADE,
			user_id text NOT NULL,
			account_id text NOT NULL,
			start_ts bigint NOT NULL,
			duration bigint NOT NULL,
			end_ts bigint NOT NULL,
			busy boolean NOT NULL DEFAULT false,
			created bigint NOT NULL,
			updated bigint NOT NULL,
			recurrence jsonb,
			exdates bigint[] NOT NULL DEFAULT '{}',
			reminder jsonb,
			service_id text NOT NULL DEFAULT '',
			metadata jsonb
		)`,
		`CREATE INDEX IF NOT EXISTS calendar_events_by_calendar ON calendar_events (calendar_id, start_ts, end_ts)`,
		`CREATE INDEX IF NOT EXISTS calendar_events_by_service ON calendar_events (service_id, start_ts) WHERE service_id <> ''`,
		`CREATE TABLE IF NOT EXISTS schedules (
			schedule_id uuid PRIMARY KEY,
			user_id text NOT NULL,
			account_id text NOT NULL,
			timezone text NOT NULL,
			rules jsonb NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS services (
			service_id uuid PRIMARY KEY,
			account_id text NOT NULL,
			multi_person jsonb NOT NULL,
			metadata jsonb
		)`,
		`CREATE TABLE IF NOT EXISTS service_users (
			service_id uuid NOT NULL REFERENCES services(service_id) ON DELETE CASCADE,
			user_id text NOT NULL,
			availability jsonb NOT NULL,
			busy jsonb NOT NULL DEFAULT '[]',
			buffer_before bigint NOT NULL DEFAULT 0,
			buffer_after bigint NOT NULL DEFAULT 0,
			closest_booking_time bigint NOT NULL DEFAULT 0,
			furthest_booking_time bigint,
			PRIMARY KEY (service_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS service_reservations (
			reservation_id uuid PRIMARY KEY,
			service_id uuid NOT NULL REFERENCES services(service_id) ON DELETE CASCADE,
			timestamp_ts bigint NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS service_reservations_by_slot ON service_reservations (service_id, timestamp_ts)`,
		`CREATE TABLE IF NOT EXISTS event_expansion_jobs (
			event_id uuid PRIMARY KEY,
			resume_after_ts bigint NOT NULL
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

// #### calendars ####

func (s *Storage) CreateCalendar(ctx context.Context, cal *models.Calendar) error {
	const op = "storage.postgres.CreateCalendar"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendars (calendar_id, user_id, account_id, week_start, timezone)
		VALUES ($1, $2, $3, $4, $5)`,
		cal.ID, cal.UserID, cal.AccountID, cal.Settings.WeekStart, cal.Settings.Timezone,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetCalendar(ctx context.Context, id, accountID string) (*models.Calendar, error) {
	const op = "storage.postgres.GetCalendar"

	var cal models.Calendar
	err := s.db.QueryRowContext(ctx, `
		SELECT calendar_id, user_id, account_id, week_start, timezone
		FROM calendars WHERE calendar_id=$1 AND account_id=$2`,
		id, accountID,
	).Scan(&cal.ID, &cal.UserID, &cal.AccountID, &cal.Settings.WeekStart, &cal.Settings.Timezone)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cal, nil
}

func (s *Storage) ListCalendars(ctx context.Context, userID, accountID string) ([]models.Calendar, error) {
	const op = "storage.postgres.ListCalendars"

	rows, err := s.db.QueryContext(ctx, `
		SELECT calendar_id, user_id, account_id, week_start, timezone
		FROM calendars WHERE user_id=$1 AND account_id=$2`,
		userID, accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var calendars []models.Calendar
	for rows.Next() {
		var cal models.Calendar
		if err := rows.Scan(&cal.ID, &cal.UserID, &cal.AccountID, &cal.Settings.WeekStart, &cal.Settings.Timezone); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		calendars = append(calendars, cal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return calendars, nil
}

func (s *Storage) DeleteCalendar(ctx context.Context, id, accountID string) error {
	const op = "storage.postgres.DeleteCalendar"

	// events go with the calendar via ON DELETE CASCADE
	res, err := s.db.ExecContext(ctx, `DELETE FROM calendars WHERE calendar_id=$1 AND account_id=$2`, id, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### events ####

func (s *Storage) CreateEvent(ctx context.Context, ev *models.CalendarEvent) error {
	const op = "storage.postgres.CreateEvent"

	recurrence, reminder, metadata, err := marshalEventColumns(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO calendar_events
			(event_id, calendar_id, user_id, account_id, start_ts, duration, end_ts, busy,
			 created, updated, recurrence, exdates, reminder, service_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		ev.ID, ev.CalendarID, ev.UserID, ev.AccountID, ev.StartTs, ev.Duration, ev.EndTs, ev.Busy,
		ev.Created, ev.Updated, recurrence, pq.Array(ev.Exdates), reminder, ev.ServiceID, metadata,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UpdateEvent(ctx context.Context, ev *models.CalendarEvent) error {
	const op = "storage.postgres.UpdateEvent"

	recurrence, reminder, metadata, err := marshalEventColumns(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE calendar_events
		SET start_ts=$1, duration=$2, end_ts=$3, busy=$4, updated=$5,
			recurrence=$6, exdates=$7, reminder=$8, metadata=$9
		WHERE event_id=$10 AND account_id=$11`,
		ev.StartTs, ev.Duration, ev.EndTs, ev.Busy, ev.Updated,
		recurrence, pq.Array(ev.Exdates), reminder, metadata,
		ev.ID, ev.AccountID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) GetEvent(ctx context.Context, id, accountID string) (*models.CalendarEvent, error) {
	const op = "storage.postgres.GetEvent"

	row := s.db.QueryRowContext(ctx, `
		SELECT event_id, calendar_id, user_id, account_id, start_ts, duration, end_ts, busy,
			   created, updated, recurrence, exdates, reminder, service_id, metadata
		FROM calendar_events WHERE event_id=$1 AND account_id=$2`,
		id, accountID,
	)

	ev, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ev, nil
}

func (s *Storage) DeleteEvent(ctx context.Context, id, accountID string) error {
	const op = "storage.postgres.DeleteEvent"

	res, err := s.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE event_id=$1 AND account_id=$2`, id, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) ListEventsByCalendar(ctx context.Context, calendarID string, span *models.TimeSpan) ([]models.CalendarEvent, error) {
	const op = "storage.postgres.ListEventsByCalendar"

	query := `
		SELECT event_id, calendar_id, user_id, account_id, start_ts, duration, end_ts, busy,
			   created, updated, recurrence, exdates, reminder, service_id, metadata
		FROM calendar_events WHERE calendar_id=$1`
	args := []any{calendarID}
	if span != nil {
		query += ` AND start_ts < $2 AND end_ts > $3`
		args = append(args, span.EndTs, span.StartTs)
	}
	query += ` ORDER BY start_ts`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (s *Storage) ListEventsByService(ctx context.Context, serviceID string, minTs, maxTs int64) ([]models.CalendarEvent, error) {
	const op = "storage.postgres.ListEventsByService"

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, calendar_id, user_id, account_id, start_ts, duration, end_ts, busy,
			   created, updated, recurrence, exdates, reminder, service_id, metadata
		FROM calendar_events
		WHERE service_id=$1 AND start_ts >= $2 AND start_ts <= $3
		ORDER BY start_ts`,
		serviceID, minTs, maxTs,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (s *Storage) FindMostRecentServiceEvent(ctx context.Context, serviceID, userID string) (*models.CalendarEvent, error) {
	const op = "storage.postgres.FindMostRecentServiceEvent"

	row := s.db.QueryRowContext(ctx, `
		SELECT event_id, calendar_id, user_id, account_id, start_ts, duration, end_ts, busy,
			   created, updated, recurrence, exdates, reminder, service_id, metadata
		FROM calendar_events
		WHERE service_id=$1 AND user_id=$2
		ORDER BY created DESC LIMIT 1`,
		serviceID, userID,
	)

	ev, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ev, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*models.CalendarEvent, error) {
	var ev models.CalendarEvent
	var recurrence, reminder, metadata []byte
	var exdates pq.Int64Array

	err := row.Scan(
		&ev.ID, &ev.CalendarID, &ev.UserID, &ev.AccountID, &ev.StartTs, &ev.Duration, &ev.EndTs, &ev.Busy,
		&ev.Created, &ev.Updated, &recurrence, &exdates, &reminder, &ev.ServiceID, &metadata,
	)
	if err != nil {
		return nil, err
	}

	ev.Exdates = exdates
	if len(recurrence) > 0 {
		ev.Recurrence = &models.RRuleOptions{}
		if err := json.Unmarshal(recurrence, ev.Recurrence); err != nil {
			return nil, err
		}
	}
	if len(reminder) > 0 {
		ev.Reminder = &models.CalendarEventReminder{}
		if err := json.Unmarshal(reminder, ev.Reminder); err != nil {
			return nil, err
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
			return nil, err
		}
	}

	return &ev, nil
}

func scanEvents(rows *sql.Rows) ([]models.CalendarEvent, error) {
	var events []models.CalendarEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func marshalEventColumns(ev *models.CalendarEvent) (recurrence, reminder, metadata []byte, err error) {
	if ev.Recurrence != nil {
		recurrence, err = json.Marshal(ev.Recurrence)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	if ev.Reminder != nil {
		reminder, err = json.Marshal(ev.Reminder)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	if len(ev.Metadata) > 0 {
		metadata, err = json.Marshal(ev.Metadata)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return recurrence, reminder, metadata, nil
}

// #### schedules ####

func (s *Storage) CreateSchedule(ctx context.Context, schedule *models.Schedule) error {
	const op = "storage.postgres.CreateSchedule"

	rules, err := json.Marshal(schedule.Rules)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schedules (schedule_id, user_id, account_id, timezone, rules)
		VALUES ($1, $2, $3, $4, $5)`,
		schedule.ID, schedule.UserID, schedule.AccountID, schedule.Timezone, rules,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetSchedule(ctx context.Context, id, accountID string) (*models.Schedule, error) {
	const op = "storage.postgres.GetSchedule"

	var schedule models.Schedule
	var rules []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT schedule_id, user_id, account_id, timezone, rules
		FROM schedules WHERE schedule_id=$1 AND account_id=$2`,
		id, accountID,
	).Scan(&schedule.ID, &schedule.UserID, &schedule.AccountID, &schedule.Timezone, &rules)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(rules, &schedule.Rules); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &schedule, nil
}

func (s *Storage) UpdateSchedule(ctx context.Context, schedule *models.Schedule) error {
	const op = "storage.postgres.UpdateSchedule"

	rules, err := json.Marshal(schedule.Rules)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE schedules SET timezone=$1, rules=$2
		WHERE schedule_id=$3 AND account_id=$4`,
		schedule.Timezone, rules, schedule.ID, schedule.AccountID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteSchedule(ctx context.Context, id, accountID string) error {
	const op = "storage.postgres.DeleteSchedule"

	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE schedule_id=$1 AND account_id=$2`, id, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### services ####

func (s *Storage) CreateService(ctx context.Context, service *models.Service) error {
	const op = "storage.postgres.CreateService"

	multiPerson, err := json.Marshal(service.MultiPerson)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var metadata []byte
	if len(service.Metadata) > 0 {
		metadata, err = json.Marshal(service.Metadata)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO services (service_id, account_id, multi_person, metadata)
		VALUES ($1, $2, $3, $4)`,
		service.ID, service.AccountID, multiPerson, metadata,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetService(ctx context.Context, id, accountID string) (*models.Service, error) {
	const op = "storage.postgres.GetService"

	var service models.Service
	var multiPerson, metadata []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT service_id, account_id, multi_person, metadata
		FROM services WHERE service_id=$1 AND account_id=$2`,
		id, accountID,
	).Scan(&service.ID, &service.AccountID, &multiPerson, &metadata)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(multiPerson, &service.MultiPerson); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &service.Metadata); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT service_id, user_id, availability, busy, buffer_before, buffer_after,
			   closest_booking_time, furthest_booking_time
		FROM service_users WHERE service_id=$1
		ORDER BY user_id`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var resource models.ServiceResource
		var availability, busy []byte
		var furthest sql.NullInt64
		err := rows.Scan(
			&resource.ServiceID, &resource.UserID, &availability, &busy,
			&resource.BufferBefore, &resource.BufferAfter,
			&resource.ClosestBookingTime, &furthest,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(availability, &resource.Availability); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(busy, &resource.Busy); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if furthest.Valid {
			v := furthest.Int64
			resource.FurthestBookingTime = &v
		}
		service.Users = append(service.Users, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &service, nil
}

func (s *Storage) DeleteService(ctx context.Context, id, accountID string) error {
	const op = "storage.postgres.DeleteService"

	res, err := s.db.ExecContext(ctx, `DELETE FROM services WHERE service_id=$1 AND account_id=$2`, id, accountID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) UpsertServiceResource(ctx context.Context, resource *models.ServiceResource) error {
	const op = "storage.postgres.UpsertServiceResource"

	availability, err := json.Marshal(resource.Availability)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	busy := resource.Busy
	if busy == nil {
		busy = []models.BusyCalendar{}
	}
	busyJSON, err := json.Marshal(busy)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	var furthest sql.NullInt64
	if resource.FurthestBookingTime != nil {
		furthest = sql.NullInt64{Int64: *resource.FurthestBookingTime, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO service_users
			(service_id, user_id, availability, busy, buffer_before, buffer_after,
			 closest_booking_time, furthest_booking_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (service_id, user_id)
		DO UPDATE
		SET availability = EXCLUDED.availability,
			busy = EXCLUDED.busy,
			buffer_before = EXCLUDED.buffer_before,
			buffer_after = EXCLUDED.buffer_after,
			closest_booking_time = EXCLUDED.closest_booking_time,
			furthest_booking_time = EXCLUDED.furthest_booking_time`,
		resource.ServiceID, resource.UserID, availability, busyJSON,
		resource.BufferBefore, resource.BufferAfter,
		resource.ClosestBookingTime, furthest,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) RemoveServiceResource(ctx context.Context, serviceID, userID string) error {
	const op = "storage.postgres.RemoveServiceResource"

	res, err := s.db.ExecContext(ctx, `DELETE FROM service_users WHERE service_id=$1 AND user_id=$2`, serviceID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### reservations ####

// CreateReservation inserts a capacity hold and recounts inside the same
// transaction. When the recount exceeds maxCount the insert is rolled back
// and response.ErrConflict returned: two racers may both see capacity
// before inserting, but only one survives the recheck.
func (s *Storage) CreateReservation(ctx context.Context, serviceID string, timestamp int64, maxCount int) (string, error) {
	const op = "storage.postgres.CreateReservation"

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return "", fmt.Errorf("%s: begin tx: %w", op, err)
	}

	reservationID := uuid.NewString()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO service_reservations (reservation_id, service_id, timestamp_ts)
		VALUES ($1, $2, $3)`,
		reservationID, serviceID, timestamp,
	)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var count int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM service_reservations WHERE service_id=$1 AND timestamp_ts=$2`,
		serviceID, timestamp,
	).Scan(&count)
	if err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if count > maxCount {
		_ = tx.Rollback()
		return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: commit: %w", op, err)
	}

	return reservationID, nil
}

func (s *Storage) CountReservations(ctx context.Context, serviceID string, timestamp int64) (int, error) {
	const op = "storage.postgres.CountReservations"

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM service_reservations WHERE service_id=$1 AND timestamp_ts=$2`,
		serviceID, timestamp,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (s *Storage) RemoveReservation(ctx context.Context, serviceID string, timestamp int64) error {
	const op = "storage.postgres.RemoveReservation"

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM service_reservations
		WHERE reservation_id IN (
			SELECT reservation_id FROM service_reservations
			WHERE service_id=$1 AND timestamp_ts=$2
			LIMIT 1
		)`,
		serviceID, timestamp,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### reminder expansion continuations ####

func (s *Storage) UpsertExpansionJob(ctx context.Context, eventID string, resumeAfterTs int64) error {
	const op = "storage.postgres.UpsertExpansionJob"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO event_expansion_jobs (event_id, resume_after_ts)
		VALUES ($1, $2)
		ON CONFLICT (event_id)
		DO UPDATE SET resume_after_ts = EXCLUDED.resume_after_ts`,
		eventID, resumeAfterTs,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) DeleteExpansionJobs(ctx context.Context, eventID string) error {
	const op = "storage.postgres.DeleteExpansionJobs"

	_, err := s.db.ExecContext(ctx, `DELETE FROM event_expansion_jobs WHERE event_id=$1`, eventID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
