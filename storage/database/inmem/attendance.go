package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/checkkid/checkkid/core/attendance"
)

type recordRepository struct {
	db *recordTable
}

var _ attendance.Repository = (*recordRepository)(nil)

func NewRecordRepository(db *DB) *recordRepository {
	return &recordRepository{db: db.record}
}

func (repo *recordRepository) query() []attendance.Record {
	recs := make([]attendance.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		recs = append(recs, *rec)
	}
	return recs
}

func (repo *recordRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// one open record per child
	for _, existing := range repo.db.table {
		if existing.ChildID == rec.ChildID && existing.IsOpen() {
			return attendance.Record{}, attendance.ErrAlreadyCheckedIn
		}
	}

	repo.db.table[rec.ID] = &rec
	return rec, nil
}

func (repo *recordRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *recordRepository) GetOpenRecordByChild(ctx context.Context, childID string) (attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, rec := range repo.db.table {
		if rec.ChildID == childID && rec.IsOpen() {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *recordRepository) ConfirmRecord(ctx context.Context, id, staffID string) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[id]
	if !ok || !rec.IsOpen() || rec.IsConfirmed() {
		return attendance.Record{}, attendance.ErrNotFound
	}
	rec.ConfirmedBy = staffID
	return *rec, nil
}

func (repo *recordRepository) CloseRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[rec.ID]
	if !ok || !orig.IsOpen() {
		return attendance.Record{}, attendance.ErrNotFound
	}
	orig.CheckOutAt = rec.CheckOutAt
	orig.PickUp = rec.PickUp
	orig.PickUpApprovedBy = rec.PickUpApprovedBy
	orig.PickUpIDConfirmed = rec.PickUpIDConfirmed
	orig.Notes = rec.Notes
	return *orig, nil
}

func (repo *recordRepository) QueryOpenRecords(ctx context.Context) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.query() {
		if rec.IsOpen() {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func (repo *recordRepository) QueryRecordsByChild(ctx context.Context, childID string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.query() {
		if rec.ChildID == childID {
			recs = append(recs, rec)
		}
	}
	sortNewestFirst(recs)
	return recs, nil
}

func (repo *recordRepository) QueryRecordsByPeriod(ctx context.Context, from, to time.Time) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.query() {
		if !rec.CheckInAt.Before(from) && !rec.CheckInAt.After(to) {
			recs = append(recs, rec)
		}
	}
	sortNewestFirst(recs)
	return recs, nil
}

func (repo *recordRepository) QueryRecordsByStaff(ctx context.Context, staffID string) ([]attendance.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]attendance.Record, 0)
	for _, rec := range repo.query() {
		if rec.ConfirmedBy == staffID || rec.PickUpApprovedBy == staffID {
			recs = append(recs, rec)
		}
	}
	sortNewestFirst(recs)
	return recs, nil
}

func sortNewestFirst(recs []attendance.Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].CheckInAt.After(recs[j].CheckInAt) })
}
