// Package local implements the attendance client against an embedded
// bbolt store, for offline and demo use. It intentionally diverges from
// the networked flow in one way: there is no second actor on a single
// device, so check-ins are confirmed immediately, Confirm is a no-op and
// the pending list is always empty.
package local

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/checkkid/checkkid/core/attendance"
)

var (
	recordsBucket = []byte("records") // record id -> record
	openBucket    = []byte("open")    // child id -> open record id
)

type Client struct {
	db *bolt.DB
}

func NewClient(path string) (*Client, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "opening local store")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(recordsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(openBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "initializing local store")
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error { return c.db.Close() }

func (c *Client) CheckIn(_ context.Context, nc attendance.NewCheckIn) (attendance.Record, error) {
	if err := nc.Validate(); err != nil {
		return attendance.Record{}, err
	}

	now := time.Now().UTC()
	rec := attendance.Record{
		ID:      uuid.New().String(),
		ChildID: nc.ChildID,
		Kind:    attendance.KindAttendance,

		CheckInAt: now,
		DropOff: attendance.Actor{
			ID:   nc.DroppedOffBy,
			Type: nc.DroppedOffPersonType,
			Name: nc.DroppedOffPersonName,
		},
		// single-device flow: the drop-off reporter confirms themselves
		ConfirmedBy: nc.DroppedOffBy,

		Notes:     nc.Notes,
		CreatedAt: now,
	}

	err := c.db.Update(func(tx *bolt.Tx) error {
		open := tx.Bucket(openBucket)
		if open.Get([]byte(rec.ChildID)) != nil {
			return attendance.ErrAlreadyCheckedIn
		}
		if err := putRecord(tx, rec); err != nil {
			return err
		}
		return open.Put([]byte(rec.ChildID), []byte(rec.ID))
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return rec, nil
}

// Confirm is a no-op: local check-ins are already confirmed. It still looks
// the record up so an unknown id fails the same way as the networked client.
func (c *Client) Confirm(_ context.Context, recordID string) (attendance.Record, error) {
	var rec attendance.Record
	err := c.db.View(func(tx *bolt.Tx) error {
		var err error
		rec, err = getRecord(tx, recordID)
		return err
	})
	return rec, err
}

func (c *Client) CheckOut(_ context.Context, nc attendance.NewCheckOut) (attendance.Record, error) {
	if err := nc.Validate(); err != nil {
		return attendance.Record{}, err
	}

	var rec attendance.Record
	err := c.db.Update(func(tx *bolt.Tx) error {
		open := tx.Bucket(openBucket)
		recID := open.Get([]byte(nc.ChildID))
		if recID == nil {
			return attendance.ErrNoOpenRecord
		}

		var err error
		if rec, err = getRecord(tx, string(recID)); err != nil {
			return err
		}

		rec.CheckOutAt = time.Now().UTC()
		rec.PickUp = attendance.Actor{
			ID:   nc.PickedUpBy,
			Type: nc.PickedUpPersonType,
			Name: nc.PickedUpPersonName,
		}
		rec.PickUpApprovedBy = nc.PickedUpBy
		rec.PickUpIDConfirmed = nc.PickedUpConfirmed
		if nc.Notes != "" {
			if rec.Notes != "" {
				rec.Notes += " | " + nc.Notes
			} else {
				rec.Notes = nc.Notes
			}
		}

		if err := putRecord(tx, rec); err != nil {
			return err
		}
		return open.Delete([]byte(nc.ChildID))
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return rec, nil
}

func (c *Client) ReportAbsence(_ context.Context, na attendance.NewAbsence) (attendance.Record, error) {
	if err := na.Validate(); err != nil {
		return attendance.Record{}, err
	}

	now := time.Now().UTC()
	rec := attendance.Record{
		ID:        uuid.New().String(),
		ChildID:   na.ChildID,
		Kind:      na.Kind,
		CheckInAt: now,
		Notes:     na.Notes,
		CreatedAt: now,
	}

	err := c.db.Update(func(tx *bolt.Tx) error {
		open := tx.Bucket(openBucket)
		if open.Get([]byte(rec.ChildID)) != nil {
			return attendance.ErrAlreadyCheckedIn
		}
		if err := putRecord(tx, rec); err != nil {
			return err
		}
		return open.Put([]byte(rec.ChildID), []byte(rec.ID))
	})
	if err != nil {
		return attendance.Record{}, err
	}
	return rec, nil
}

func (c *Client) ListActive(ctx context.Context) ([]attendance.Record, error) {
	recs, err := c.openRecords()
	if err != nil {
		return nil, err
	}
	active := recs[:0]
	for _, rec := range recs {
		if rec.Kind == attendance.KindAttendance {
			active = append(active, rec)
		}
	}
	return active, nil
}

// ListPending always returns an empty list: local check-ins are confirmed
// on creation.
func (c *Client) ListPending(context.Context) ([]attendance.Record, error) {
	return []attendance.Record{}, nil
}

func (c *Client) GetStatus(_ context.Context, childID string) (*attendance.Record, error) {
	var rec *attendance.Record
	err := c.db.View(func(tx *bolt.Tx) error {
		recID := tx.Bucket(openBucket).Get([]byte(childID))
		if recID == nil {
			return nil
		}
		r, err := getRecord(tx, string(recID))
		if err != nil {
			return err
		}
		rec = &r
		return nil
	})
	return rec, err
}

func (c *Client) GetHistory(_ context.Context, childID string) ([]attendance.Record, error) {
	recs := make([]attendance.Record, 0)
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(_, v []byte) error {
			var rec attendance.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.Wrap(err, "decoding record")
			}
			if rec.ChildID == childID {
				recs = append(recs, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(recs)
	return recs, nil
}

// Overview projects the open records only: the local store carries no
// roster, so children without an open record do not appear.
func (c *Client) Overview(context.Context) ([]attendance.ChildStatus, error) {
	recs, err := c.openRecords()
	if err != nil {
		return nil, err
	}

	statuses := make([]attendance.ChildStatus, len(recs))
	for i, rec := range recs {
		rec := rec
		statuses[i] = attendance.ChildStatus{
			ChildID: rec.ChildID,
			Status:  rec.Status(),
			Label:   attendance.StatusLabel(rec),
			Record:  &rec,
		}
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ChildID < statuses[j].ChildID })
	return statuses, nil
}

func (c *Client) openRecords() ([]attendance.Record, error) {
	recs := make([]attendance.Record, 0)
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(openBucket).ForEach(func(_, recID []byte) error {
			rec, err := getRecord(tx, string(recID))
			if err != nil {
				return err
			}
			recs = append(recs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(recs)
	return recs, nil
}

func putRecord(tx *bolt.Tx, rec attendance.Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encoding record")
	}
	return tx.Bucket(recordsBucket).Put([]byte(rec.ID), b)
}

func getRecord(tx *bolt.Tx, id string) (attendance.Record, error) {
	v := tx.Bucket(recordsBucket).Get([]byte(id))
	if v == nil {
		return attendance.Record{}, attendance.ErrNotFound
	}
	var rec attendance.Record
	if err := json.Unmarshal(v, &rec); err != nil {
		return attendance.Record{}, errors.Wrap(err, "decoding record")
	}
	return rec, nil
}

func sortNewestFirst(recs []attendance.Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].CheckInAt.After(recs[j].CheckInAt) })
}
