package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/checkkid/checkkid/core/attendance"
	"github.com/checkkid/checkkid/core/child"
)

func CreateChild(
	t *testing.T,
	repo child.Repository,
	name, kindergartenID, parentEmail string,
) child.Child {
	t.Helper()
	c, err := repo.CreateChild(context.Background(), child.Child{
		ID:             uuid.New().String(),
		Name:           name,
		KindergartenID: kindergartenID,
		ParentEmail:    parentEmail,
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateChild() failed: %v", err)
	}
	return c
}

// CheckInChild opens an attendance record directly in the store, bypassing
// the engine. confirmedBy may be empty to leave the record PENDING.
func CheckInChild(
	t *testing.T,
	repo attendance.Repository,
	childID, confirmedBy string,
	checkInAt ...time.Time,
) attendance.Record {
	t.Helper()
	at := time.Now().UTC()
	if len(checkInAt) > 0 {
		at = checkInAt[0].UTC()
	}
	rec, err := repo.CreateRecord(context.Background(), attendance.Record{
		ID:        uuid.New().String(),
		ChildID:   childID,
		Kind:      attendance.KindAttendance,
		CheckInAt: at,
		DropOff: attendance.Actor{
			ID:   "parent-" + childID,
			Type: attendance.PersonParent,
			Name: "Parent of " + childID,
		},
		ConfirmedBy: confirmedBy,
		CreatedAt:   at,
	})
	if err != nil {
		t.Fatalf("CheckInChild() failed: %v", err)
	}
	return rec
}
