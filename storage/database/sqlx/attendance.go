package sqlxrepos

import (
	"database/sql"
	"time"

	"context"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/checkkid/checkkid/core/attendance"
)

// openRecordIdx is the partial unique index enforcing the one-open-record
// invariant server-side.
const openRecordIdx = "attendance_record_one_open_per_child"

type recordRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*recordRepository)(nil)

func NewRecordRepository(db *sqlx.DB) *recordRepository {
	return &recordRepository{db: db}
}

// recordRow mirrors the attendance_record table.
type recordRow struct {
	ID                   string         `db:"id"`
	ChildID              string         `db:"child_id"`
	Kind                 string         `db:"kind"`
	CheckInDate          time.Time      `db:"check_in_date"`
	DroppedOffBy         sql.NullString `db:"dropped_off_by"`
	DroppedOffPersonType sql.NullString `db:"dropped_off_person_type"`
	DroppedOffPersonName sql.NullString `db:"dropped_off_person_name"`
	DroppedOffConfirmed  sql.NullString `db:"dropped_off_confirmed_by"`
	CheckOutDate         pq.NullTime    `db:"check_out_date"`
	PickedUpBy           sql.NullString `db:"picked_up_by"`
	PickedUpPersonType   sql.NullString `db:"picked_up_person_type"`
	PickedUpPersonName   sql.NullString `db:"picked_up_person_name"`
	PickedUpConfirmedBy  sql.NullString `db:"picked_up_confirmed_by"`
	PickedUpConfirmed    bool           `db:"picked_up_confirmed"`
	Notes                sql.NullString `db:"notes"`
	CreatedAt            time.Time      `db:"created_at"`
}

func nullStr(s string) sql.NullString { return sql.NullString{String: s, Valid: s != ""} }

func (repo recordRepository) row(rec attendance.Record) recordRow {
	return recordRow{
		ID:                   rec.ID,
		ChildID:              rec.ChildID,
		Kind:                 string(rec.Kind),
		CheckInDate:          rec.CheckInAt.UTC(),
		DroppedOffBy:         nullStr(rec.DropOff.ID),
		DroppedOffPersonType: nullStr(string(rec.DropOff.Type)),
		DroppedOffPersonName: nullStr(rec.DropOff.Name),
		DroppedOffConfirmed:  nullStr(rec.ConfirmedBy),
		CheckOutDate:         pq.NullTime{Time: rec.CheckOutAt.UTC(), Valid: !rec.CheckOutAt.IsZero()},
		PickedUpBy:           nullStr(rec.PickUp.ID),
		PickedUpPersonType:   nullStr(string(rec.PickUp.Type)),
		PickedUpPersonName:   nullStr(rec.PickUp.Name),
		PickedUpConfirmedBy:  nullStr(rec.PickUpApprovedBy),
		PickedUpConfirmed:    rec.PickUpIDConfirmed,
		Notes:                nullStr(rec.Notes),
		CreatedAt:            rec.CreatedAt.UTC(),
	}
}

func (repo recordRepository) unrow(row recordRow) attendance.Record {
	rec := attendance.Record{
		ID:        row.ID,
		ChildID:   row.ChildID,
		Kind:      attendance.Kind(row.Kind),
		CheckInAt: row.CheckInDate,
		DropOff: attendance.Actor{
			ID:   row.DroppedOffBy.String,
			Type: attendance.PersonType(row.DroppedOffPersonType.String),
			Name: row.DroppedOffPersonName.String,
		},
		ConfirmedBy: row.DroppedOffConfirmed.String,
		PickUp: attendance.Actor{
			ID:   row.PickedUpBy.String,
			Type: attendance.PersonType(row.PickedUpPersonType.String),
			Name: row.PickedUpPersonName.String,
		},
		PickUpApprovedBy:  row.PickedUpConfirmedBy.String,
		PickUpIDConfirmed: row.PickedUpConfirmed,
		Notes:             row.Notes.String,
		CreatedAt:         row.CreatedAt,
	}
	if row.CheckOutDate.Valid {
		rec.CheckOutAt = row.CheckOutDate.Time
	}
	return rec
}

func (repo recordRepository) unrowSlice(rows []recordRow) []attendance.Record {
	recs := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.unrow(row))
	}
	return recs
}

// trapNoRowsErr maps psql "no rows" err to attendance.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return attendance.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo recordRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	const q = `
	INSERT INTO attendance_record (
		id, child_id, kind, check_in_date,
		dropped_off_by, dropped_off_person_type, dropped_off_person_name, dropped_off_confirmed_by,
		check_out_date, picked_up_by, picked_up_person_type, picked_up_person_name,
		picked_up_confirmed_by, picked_up_confirmed, notes, created_at
	) VALUES (
		:id, :child_id, :kind, :check_in_date,
		:dropped_off_by, :dropped_off_person_type, :dropped_off_person_name, :dropped_off_confirmed_by,
		:check_out_date, :picked_up_by, :picked_up_person_type, :picked_up_person_name,
		:picked_up_confirmed_by, :picked_up_confirmed, :notes, :created_at
	)`

	if _, err := repo.db.NamedExecContext(ctx, q, repo.row(rec)); err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == openRecordIdx {
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo recordRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	var row recordRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM attendance_record WHERE id = $1`, id); err != nil {
		return attendance.Record{}, trapNoRowsErr(err, "getting attendance record by id")
	}
	return repo.unrow(row), nil
}

func (repo recordRepository) GetOpenRecordByChild(ctx context.Context, childID string) (attendance.Record, error) {
	var row recordRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM attendance_record WHERE child_id = $1 AND check_out_date IS NULL`, childID)
	if err != nil {
		return attendance.Record{}, trapNoRowsErr(err, "getting open attendance record")
	}
	return repo.unrow(row), nil
}

func (repo recordRepository) ConfirmRecord(ctx context.Context, id, staffID string) (attendance.Record, error) {
	var row recordRow
	err := repo.db.GetContext(ctx, &row, `
	UPDATE attendance_record
	SET dropped_off_confirmed_by = $2
	WHERE id = $1 AND dropped_off_confirmed_by IS NULL AND check_out_date IS NULL
	RETURNING *`, id, staffID)
	if err != nil {
		return attendance.Record{}, trapNoRowsErr(err, "confirming attendance record")
	}
	return repo.unrow(row), nil
}

func (repo recordRepository) CloseRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	var row recordRow
	err := repo.db.GetContext(ctx, &row, `
	UPDATE attendance_record
	SET check_out_date = $2,
		picked_up_by = $3,
		picked_up_person_type = $4,
		picked_up_person_name = $5,
		picked_up_confirmed_by = $6,
		picked_up_confirmed = $7,
		notes = $8
	WHERE id = $1 AND check_out_date IS NULL
	RETURNING *`,
		rec.ID, rec.CheckOutAt.UTC(), nullStr(rec.PickUp.ID), nullStr(string(rec.PickUp.Type)),
		nullStr(rec.PickUp.Name), nullStr(rec.PickUpApprovedBy), rec.PickUpIDConfirmed, nullStr(rec.Notes))
	if err != nil {
		return attendance.Record{}, trapNoRowsErr(err, "closing attendance record")
	}
	return repo.unrow(row), nil
}

func (repo recordRepository) QueryOpenRecords(ctx context.Context) ([]attendance.Record, error) {
	var rows []recordRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM attendance_record WHERE check_out_date IS NULL ORDER BY check_in_date DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying open attendance records")
	}
	return repo.unrowSlice(rows), nil
}

func (repo recordRepository) QueryRecordsByChild(ctx context.Context, childID string) ([]attendance.Record, error) {
	var rows []recordRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM attendance_record WHERE child_id = $1 ORDER BY check_in_date DESC`, childID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records by child")
	}
	return repo.unrowSlice(rows), nil
}

func (repo recordRepository) QueryRecordsByPeriod(ctx context.Context, from, to time.Time) ([]attendance.Record, error) {
	var rows []recordRow
	err := repo.db.SelectContext(ctx, &rows, `
	SELECT * FROM attendance_record
	WHERE check_in_date BETWEEN $1 AND $2
	ORDER BY check_in_date DESC`, from.UTC(), to.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records by period")
	}
	return repo.unrowSlice(rows), nil
}

func (repo recordRepository) QueryRecordsByStaff(ctx context.Context, staffID string) ([]attendance.Record, error) {
	var rows []recordRow
	err := repo.db.SelectContext(ctx, &rows, `
	SELECT * FROM attendance_record
	WHERE dropped_off_confirmed_by = $1 OR picked_up_confirmed_by = $1
	ORDER BY check_in_date DESC`, staffID)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance records by staff")
	}
	return repo.unrowSlice(rows), nil
}
