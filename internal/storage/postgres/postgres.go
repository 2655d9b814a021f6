package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"slotbook/internal/models"
	"slotbook/internal/storage"
	"slotbook/pkg/response"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
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

func (s *Storage) BeginTx(ctx context.Context) (storage.Tx, error) {
	const op = "storage.postgres.BeginTx"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable(op, err)
	}

	return tx, nil
}

func sqlTx(op string, tx storage.Tx) (*sql.Tx, error) {
	t, ok := tx.(*sql.Tx)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected tx type %T", op, tx)
	}
	return t, nil
}

// unavailable tags datastore reachability/query failures so callers can
// retry; validation and not-found outcomes never go through here.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, response.ErrUnavailable, err)
}

// scanTimeOfDay converts a TIME column value ("09:00:00") to a TimeOfDay.
func scanTimeOfDay(op, s string) (models.TimeOfDay, error) {
	tod, err := models.ParseTimeOfDay(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return tod, nil
}

// #### working hours ####

func (s *Storage) GetWorkingHours(ctx context.Context, providerID string) ([]*models.WorkingHours, error) {
	const op = "storage.postgres.GetWorkingHours"

	rows, err := s.db.QueryContext(ctx,
		`SELECT day_of_week, start_time, end_time, is_working
		FROM working_hours
		WHERE provider_id=$1
		ORDER BY day_of_week`, providerID)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var result []*models.WorkingHours
	for rows.Next() {
		var wh models.WorkingHours
		var startStr, endStr string

		if err := rows.Scan(&wh.DayOfWeek, &startStr, &endStr, &wh.IsWorking); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if wh.StartTime, err = scanTimeOfDay(op, startStr); err != nil {
			return nil, err
		}
		if wh.EndTime, err = scanTimeOfDay(op, endStr); err != nil {
			return nil, err
		}

		wh.ProviderID = providerID
		result = append(result, &wh)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}

	return result, nil
}

func (s *Storage) GetWorkingHoursForDay(ctx context.Context, providerID string, dayOfWeek int) (*models.WorkingHours, error) {
	const op = "storage.postgres.GetWorkingHoursForDay"

	var wh models.WorkingHours
	var startStr, endStr string

	err := s.db.QueryRowContext(ctx,
		`SELECT start_time, end_time, is_working
		FROM working_hours
		WHERE provider_id=$1 AND day_of_week=$2`,
		providerID, dayOfWeek).
		Scan(&startStr, &endStr, &wh.IsWorking)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, unavailable(op, err)
	}

	if wh.StartTime, err = scanTimeOfDay(op, startStr); err != nil {
		return nil, err
	}
	if wh.EndTime, err = scanTimeOfDay(op, endStr); err != nil {
		return nil, err
	}

	wh.ProviderID = providerID
	wh.DayOfWeek = dayOfWeek

	return &wh, nil
}

func (s *Storage) UpsertWorkingHours(ctx context.Context, wh *models.WorkingHours) error {
	const op = "storage.postgres.UpsertWorkingHours"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO working_hours (provider_id, day_of_week, start_time, end_time, is_working)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_id, day_of_week)
		DO UPDATE
		SET start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			is_working = EXCLUDED.is_working`,
		wh.ProviderID, wh.DayOfWeek, wh.StartTime.String(), wh.EndTime.String(), wh.IsWorking)
	if err != nil {
		return unavailable(op, err)
	}

	return nil
}

// BootstrapWorkingHours inserts only the days the provider has no row for.
func (s *Storage) BootstrapWorkingHours(ctx context.Context, defaults []*models.WorkingHours) (int64, error) {
	const op = "storage.postgres.BootstrapWorkingHours"

	var inserted int64
	for _, wh := range defaults {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO working_hours (provider_id, day_of_week, start_time, end_time, is_working)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (provider_id, day_of_week) DO NOTHING`,
			wh.ProviderID, wh.DayOfWeek, wh.StartTime.String(), wh.EndTime.String(), wh.IsWorking)
		if err != nil {
			return inserted, unavailable(op, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("%s: %w", op, err)
		}
		inserted += n
	}

	return inserted, nil
}

// #### availability exceptions ####

func (s *Storage) GetExceptionForDate(ctx context.Context, providerID string, date time.Time) (*models.AvailabilityException, error) {
	const op = "storage.postgres.GetExceptionForDate"

	var e models.AvailabilityException

	err := s.db.QueryRowContext(ctx,
		`SELECT id, is_available, reason
		FROM availability_exceptions
		WHERE provider_id=$1 AND date=$2`,
		providerID, date).
		Scan(&e.ID, &e.IsAvailable, &e.Reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, unavailable(op, err)
	}

	e.ProviderID = providerID
	e.Date = date

	return &e, nil
}

func (s *Storage) ListExceptions(ctx context.Context, providerID string, from, to *time.Time) ([]*models.AvailabilityException, error) {
	const op = "storage.postgres.ListExceptions"

	query := `SELECT id, date, is_available, reason
		FROM availability_exceptions
		WHERE provider_id=$1`
	args := []any{providerID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var result []*models.AvailabilityException
	for rows.Next() {
		var e models.AvailabilityException
		if err := rows.Scan(&e.ID, &e.Date, &e.IsAvailable, &e.Reason); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		e.ProviderID = providerID
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}

	return result, nil
}

func (s *Storage) UpsertException(ctx context.Context, e *models.AvailabilityException) (string, error) {
	const op = "storage.postgres.UpsertException"

	var id string
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO availability_exceptions (id, provider_id, date, is_available, reason)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (provider_id, date)
		DO UPDATE
		SET is_available = EXCLUDED.is_available,
			reason = EXCLUDED.reason
		RETURNING id`,
		e.ID, e.ProviderID, e.Date, e.IsAvailable, e.Reason).
		Scan(&id)
	if err != nil {
		return "", unavailable(op, err)
	}

	return id, nil
}

func (s *Storage) DeleteException(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteException"

	res, err := s.db.ExecContext(ctx, `DELETE FROM availability_exceptions WHERE id=$1`, id)
	if err != nil {
		return unavailable(op, err)
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

// #### custom time slots ####

func scanCustomSlot(op string, rows interface{ Scan(...any) error }, providerID string) (*models.CustomTimeSlot, error) {
	var cs models.CustomTimeSlot
	var startStr, endStr string

	if err := rows.Scan(&cs.ID, &cs.Date, &startStr, &endStr, &cs.IsAvailable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, unavailable(op, err)
	}

	var err error
	if cs.StartTime, err = scanTimeOfDay(op, startStr); err != nil {
		return nil, err
	}
	if cs.EndTime, err = scanTimeOfDay(op, endStr); err != nil {
		return nil, err
	}

	cs.ProviderID = providerID
	return &cs, nil
}

func (s *Storage) ListCustomSlotsForDate(ctx context.Context, providerID string, date time.Time) ([]*models.CustomTimeSlot, error) {
	const op = "storage.postgres.ListCustomSlotsForDate"

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, start_time, end_time, is_available
		FROM time_slots
		WHERE provider_id=$1 AND date=$2
		ORDER BY start_time`, providerID, date)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var result []*models.CustomTimeSlot
	for rows.Next() {
		cs, err := scanCustomSlot(op, rows, providerID)
		if err != nil {
			return nil, err
		}
		result = append(result, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}

	return result, nil
}

func (s *Storage) GetCustomSlot(ctx context.Context, id string) (*models.CustomTimeSlot, error) {
	const op = "storage.postgres.GetCustomSlot"

	var providerID string
	err := s.db.QueryRowContext(ctx,
		`SELECT provider_id FROM time_slots WHERE id=$1`, id).Scan(&providerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, unavailable(op, err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, date, start_time, end_time, is_available
		FROM time_slots WHERE id=$1`, id)

	return scanCustomSlot(op, row, providerID)
}

func (s *Storage) CreateCustomSlot(ctx context.Context, cs *models.CustomTimeSlot) (string, error) {
	const op = "storage.postgres.CreateCustomSlot"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO time_slots (id, provider_id, date, start_time, end_time, is_available)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		cs.ID, cs.ProviderID, cs.Date, cs.StartTime.String(), cs.EndTime.String(), cs.IsAvailable)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return "", unavailable(op, err)
	}

	return cs.ID, nil
}

func (s *Storage) UpdateCustomSlotAvailability(ctx context.Context, id string, isAvailable bool) error {
	const op = "storage.postgres.UpdateCustomSlotAvailability"

	res, err := s.db.ExecContext(ctx,
		`UPDATE time_slots SET is_available=$1 WHERE id=$2`, isAvailable, id)
	if err != nil {
		return unavailable(op, err)
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

// SetCustomSlotAvailabilityTx flips the flag by natural key inside a booking
// transaction. Missing row is not an error: the date's basis may be generated.
func (s *Storage) SetCustomSlotAvailabilityTx(ctx context.Context, tx storage.Tx, providerID string, date time.Time, start, end models.TimeOfDay, isAvailable bool) error {
	const op = "storage.postgres.SetCustomSlotAvailabilityTx"

	t, err := sqlTx(op, tx)
	if err != nil {
		return err
	}

	_, err = t.ExecContext(ctx,
		`UPDATE time_slots SET is_available=$1
		WHERE provider_id=$2 AND date=$3 AND start_time=$4 AND end_time=$5`,
		isAvailable, providerID, date, start.String(), end.String())
	if err != nil {
		return unavailable(op, err)
	}

	return nil
}

func (s *Storage) DeleteCustomSlot(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteCustomSlot"

	res, err := s.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id=$1`, id)
	if err != nil {
		return unavailable(op, err)
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

// #### bookings ####

const bookingColumns = `id, provider_id, date, start_time, end_time,
	client_name, client_email, client_phone, notes, status, access_token,
	created_at, updated_at`

func scanBooking(op string, row interface{ Scan(...any) error }) (*models.Booking, error) {
	var b models.Booking
	var startStr, endStr string

	err := row.Scan(&b.ID, &b.ProviderID, &b.Date, &startStr, &endStr,
		&b.ClientName, &b.ClientEmail, &b.ClientPhone, &b.Notes, &b.Status,
		&b.AccessToken, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, unavailable(op, err)
	}

	if b.StartTime, err = scanTimeOfDay(op, startStr); err != nil {
		return nil, err
	}
	if b.EndTime, err = scanTimeOfDay(op, endStr); err != nil {
		return nil, err
	}

	return &b, nil
}

// CreateBookingTx inserts a booking. The partial unique index over
// non-terminal bookings is the authoritative slot-occupancy guard: a
// concurrent insert against the same slot surfaces here as a unique
// violation, mapped to ErrSlotTaken.
func (s *Storage) CreateBookingTx(ctx context.Context, tx storage.Tx, b *models.Booking) error {
	const op = "storage.postgres.CreateBookingTx"

	t, err := sqlTx(op, tx)
	if err != nil {
		return err
	}

	err = t.QueryRowContext(ctx,
		`INSERT INTO bookings
		(id, provider_id, date, start_time, end_time, client_name, client_email,
		 client_phone, notes, status, access_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		b.ID, b.ProviderID, b.Date, b.StartTime.String(), b.EndTime.String(),
		b.ClientName, b.ClientEmail, b.ClientPhone, b.Notes, string(b.Status), b.AccessToken).
		Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("%s: %w", op, response.ErrSlotTaken)
		}
		return unavailable(op, err)
	}

	return nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)

	return scanBooking(op, row)
}

// GetBookingByToken looks the capability token up by equality only.
func (s *Storage) GetBookingByToken(ctx context.Context, token string) (*models.Booking, error) {
	const op = "storage.postgres.GetBookingByToken"

	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE access_token=$1`, token)

	return scanBooking(op, row)
}

func (s *Storage) ListBookingsForDate(ctx context.Context, providerID string, date time.Time, statuses []models.BookingStatus) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookingsForDate"

	statusStrs := make([]string, len(statuses))
	for i, st := range statuses {
		statusStrs[i] = string(st)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookingColumns+`
		FROM bookings
		WHERE provider_id=$1 AND date=$2 AND status = ANY($3)
		ORDER BY start_time`,
		providerID, date, pq.Array(statusStrs))
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var result []*models.Booking
	for rows.Next() {
		b, err := scanBooking(op, rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}

	return result, nil
}

func (s *Storage) ListBookings(ctx context.Context, providerID string, from, to *time.Time, status *models.BookingStatus) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookings"

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE provider_id=$1`
	args := []any{providerID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY date, start_time"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable(op, err)
	}
	defer rows.Close()

	var result []*models.Booking
	for rows.Next() {
		b, err := scanBooking(op, rows)
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(op, err)
	}

	return result, nil
}

// UpdateBookingContact edits contact fields with a non-terminal status
// predicate, so a cancel committing after the caller's read loses cleanly
// instead of being overwritten.
func (s *Storage) UpdateBookingContact(ctx context.Context, id, name, email, phone, notes string) error {
	const op = "storage.postgres.UpdateBookingContact"

	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings
		SET client_name=$1, client_email=$2, client_phone=$3, notes=$4, updated_at=now()
		WHERE id=$5 AND status IN ('pending', 'confirmed')`,
		name, email, phone, notes, id)
	if err != nil {
		return unavailable(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	return nil
}

// UpdateBookingStatusTx moves a booking to a new status with an equality
// predicate on the current status, so a concurrent transition loses cleanly.
func (s *Storage) UpdateBookingStatusTx(ctx context.Context, tx storage.Tx, id string, from, to models.BookingStatus) error {
	const op = "storage.postgres.UpdateBookingStatusTx"

	t, err := sqlTx(op, tx)
	if err != nil {
		return err
	}

	res, err := t.ExecContext(ctx,
		`UPDATE bookings SET status=$1, updated_at=now() WHERE id=$2 AND status=$3`,
		string(to), id, string(from))
	if err != nil {
		return unavailable(op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrInvalidState)
	}

	return nil
}

// #### availability settings ####

func (s *Storage) GetSettings(ctx context.Context, providerID string) (*models.AvailabilitySettings, error) {
	const op = "storage.postgres.GetSettings"

	var st models.AvailabilitySettings

	err := s.db.QueryRowContext(ctx,
		`SELECT slot_duration_minutes, time_format_12h, timezone
		FROM availability_settings
		WHERE provider_id=$1`, providerID).
		Scan(&st.SlotDurationMinutes, &st.TimeFormat12h, &st.Timezone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, unavailable(op, err)
	}

	st.ProviderID = providerID

	return &st, nil
}

func (s *Storage) UpsertSettings(ctx context.Context, st *models.AvailabilitySettings) error {
	const op = "storage.postgres.UpsertSettings"

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO availability_settings (provider_id, slot_duration_minutes, time_format_12h, timezone)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider_id)
		DO UPDATE
		SET slot_duration_minutes = EXCLUDED.slot_duration_minutes,
			time_format_12h = EXCLUDED.time_format_12h,
			timezone = EXCLUDED.timezone`,
		st.ProviderID, st.SlotDurationMinutes, st.TimeFormat12h, st.Timezone)
	if err != nil {
		return unavailable(op, err)
	}

	return nil
}
