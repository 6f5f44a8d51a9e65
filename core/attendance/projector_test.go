package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/checkkid/checkkid/core/attendance"
	testutil "github.com/checkkid/checkkid/tests"
)

func TestService_Overview(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	adam := testutil.CreateChild(t, env.childRepo, "Adam", "kg1", "")
	bella := testutil.CreateChild(t, env.childRepo, "Bella", "kg1", "")
	cleo := testutil.CreateChild(t, env.childRepo, "Cleo", "kg1", "")
	dina := testutil.CreateChild(t, env.childRepo, "Dina", "kg1", "")
	testutil.CreateChild(t, env.childRepo, "Otto", "kg2", "")

	testutil.CheckInChild(t, env.recordRepo, adam.ID, staff.ID) // ACTIVE
	testutil.CheckInChild(t, env.recordRepo, bella.ID, "")      // PENDING
	if _, err := env.svc.ReportAbsence(ctx, attendance.NewAbsence{ChildID: dina.ID, Kind: attendance.KindSickDay}, staff); err != nil {
		t.Fatalf("ReportAbsence() failed: %v", err)
	}

	statuses, err := env.svc.Overview(ctx, "kg1")
	if err != nil {
		t.Fatalf("Overview() failed: %v", err)
	}
	if len(statuses) != 4 {
		t.Fatalf("Overview() returned %d entries, want one per kg1 child (4)", len(statuses))
	}

	wants := []struct {
		childID string
		name    string
		status  attendance.Status
	}{
		{adam.ID, "Adam", attendance.StatusActive},
		{bella.ID, "Bella", attendance.StatusPending},
		{cleo.ID, "Cleo", attendance.StatusNone},
		{dina.ID, "Dina", attendance.StatusSick},
	}
	for i, w := range wants {
		got := statuses[i]
		if got.ChildID != w.childID || got.ChildName != w.name || got.Status != w.status {
			t.Errorf("Overview()[%d] = {%s %s %s}, want {%s %s %s}",
				i, got.ChildID, got.ChildName, got.Status, w.childID, w.name, w.status)
		}
	}

	// NONE entries carry no record or label
	if statuses[2].Record != nil || statuses[2].Label != "" {
		t.Errorf("Overview() NONE entry = %+v, want bare", statuses[2])
	}
	// open entries carry their record
	if statuses[0].Record == nil || statuses[0].Record.ChildID != adam.ID {
		t.Errorf("Overview() ACTIVE entry record = %+v", statuses[0].Record)
	}
}

func TestStatusLabel(t *testing.T) {
	in := time.Date(2021, 3, 1, 8, 12, 0, 0, time.Local)
	out := time.Date(2021, 3, 1, 15, 30, 0, 0, time.Local)

	open := attendance.Record{
		Kind:      attendance.KindAttendance,
		CheckInAt: in,
		DropOff:   attendance.Actor{ID: "p1", Type: attendance.PersonParent, Name: "Kari Nordmann"},
	}
	if got := attendance.StatusLabel(open); got != "Kari Nordmann · 08:12" {
		t.Errorf("StatusLabel(open) = %q", got)
	}

	closed := open
	closed.CheckOutAt = out
	closed.PickUp = attendance.Actor{ID: "p2", Type: attendance.PersonParent, Name: "Ola Nordmann"}
	if got := attendance.StatusLabel(closed); got != "Ola Nordmann · 15:30" {
		t.Errorf("StatusLabel(closed) = %q", got)
	}

	sick := attendance.Record{
		Kind:        attendance.KindSickDay,
		CheckInAt:   in,
		DropOff:     attendance.Actor{ID: "s1", Type: attendance.PersonStaff, Name: "Mx Hansen"},
		ConfirmedBy: "s1",
	}
	if got := attendance.StatusLabel(sick); got != "Mx Hansen · 01 Mar" {
		t.Errorf("StatusLabel(sick) = %q", got)
	}
}
