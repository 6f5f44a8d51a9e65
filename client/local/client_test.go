package local

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/checkkid/checkkid/core/attendance"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(filepath.Join(t.TempDir(), "checkkid.db"))
	if err != nil {
		t.Fatalf("NewClient() failed, %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func newCheckIn(childID string) attendance.NewCheckIn {
	return attendance.NewCheckIn{
		ChildID:              childID,
		DroppedOffBy:         "p1",
		DroppedOffPersonType: attendance.PersonParent,
		DroppedOffPersonName: "Far Nordmann",
	}
}

func newCheckOut(childID string) attendance.NewCheckOut {
	return attendance.NewCheckOut{
		ChildID:            childID,
		PickedUpBy:         "p2",
		PickedUpPersonType: attendance.PersonParent,
		PickedUpPersonName: "Mor Nordmann",
		PickedUpConfirmed:  true,
	}
}

func TestClient_CheckIn(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	rec, err := c.CheckIn(ctx, newCheckIn("c1"))
	if err != nil {
		t.Fatalf("CheckIn() failed, %v", err)
	}
	if rec.Status() != attendance.StatusActive {
		t.Errorf("local check-ins must be ACTIVE immediately, got %s", rec.Status())
	}
	if !rec.IsConfirmed() {
		t.Error("local check-ins must be confirmed on creation")
	}

	// one open record per child
	if _, err = c.CheckIn(ctx, newCheckIn("c1")); err != attendance.ErrAlreadyCheckedIn {
		t.Errorf("second CheckIn() error = %v, want ErrAlreadyCheckedIn", err)
	}

	// the pending list never has entries
	pending, err := c.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending() failed, %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("ListPending() returned %d records, want 0", len(pending))
	}

	active, err := c.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive() failed, %v", err)
	}
	if len(active) != 1 || active[0].ID != rec.ID {
		t.Errorf("ListActive() = %+v, want the open record", active)
	}
}

func TestClient_Confirm(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	rec, err := c.CheckIn(ctx, newCheckIn("c1"))
	if err != nil {
		t.Fatalf("CheckIn() failed, %v", err)
	}

	// no-op, but the record must still resolve
	got, err := c.Confirm(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Confirm() failed, %v", err)
	}
	if got.ID != rec.ID || got.ConfirmedBy != rec.ConfirmedBy {
		t.Errorf("Confirm() = %+v, want unchanged record", got)
	}

	if _, err = c.Confirm(ctx, "nope"); err != attendance.ErrNotFound {
		t.Errorf("Confirm(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestClient_CheckOut(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.CheckOut(ctx, newCheckOut("c1")); err != attendance.ErrNoOpenRecord {
		t.Errorf("CheckOut() without open record error = %v, want ErrNoOpenRecord", err)
	}

	nc := newCheckIn("c1")
	nc.Notes = "bring mittens"
	if _, err := c.CheckIn(ctx, nc); err != nil {
		t.Fatalf("CheckIn() failed, %v", err)
	}

	out := newCheckOut("c1")
	out.Notes = "picked up early"
	rec, err := c.CheckOut(ctx, out)
	if err != nil {
		t.Fatalf("CheckOut() failed, %v", err)
	}
	if rec.Status() != attendance.StatusClosed {
		t.Errorf("Status() = %s, want CLOSED", rec.Status())
	}
	if rec.Notes != "bring mittens | picked up early" {
		t.Errorf("Notes = %q, check-out notes must be appended", rec.Notes)
	}
	if !rec.PickUpIDConfirmed {
		t.Error("PickUpIDConfirmed not carried over")
	}

	// the child is free to check in again
	if _, err = c.CheckIn(ctx, newCheckIn("c1")); err != nil {
		t.Errorf("CheckIn() after check-out failed, %v", err)
	}
}

func TestClient_ReportAbsence(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	rec, err := c.ReportAbsence(ctx, attendance.NewAbsence{ChildID: "c1", Kind: attendance.KindSickDay})
	if err != nil {
		t.Fatalf("ReportAbsence() failed, %v", err)
	}
	if rec.Status() != attendance.StatusSick {
		t.Errorf("Status() = %s, want SICK", rec.Status())
	}

	// a sick child cannot also be checked in
	if _, err = c.CheckIn(ctx, newCheckIn("c1")); err != attendance.ErrAlreadyCheckedIn {
		t.Errorf("CheckIn() on sick child error = %v, want ErrAlreadyCheckedIn", err)
	}

	status, err := c.GetStatus(ctx, "c1")
	if err != nil {
		t.Fatalf("GetStatus() failed, %v", err)
	}
	if status == nil || status.Status() != attendance.StatusSick {
		t.Errorf("GetStatus() = %+v, want the open SICK record", status)
	}
}

func TestClient_GetStatusAndHistory(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	status, err := c.GetStatus(ctx, "c1")
	if err != nil {
		t.Fatalf("GetStatus() failed, %v", err)
	}
	if status != nil {
		t.Errorf("GetStatus() with no records = %+v, want nil", status)
	}

	if _, err = c.CheckIn(ctx, newCheckIn("c1")); err != nil {
		t.Fatalf("CheckIn() failed, %v", err)
	}
	if _, err = c.CheckOut(ctx, newCheckOut("c1")); err != nil {
		t.Fatalf("CheckOut() failed, %v", err)
	}
	second, err := c.CheckIn(ctx, newCheckIn("c1"))
	if err != nil {
		t.Fatalf("CheckIn() failed, %v", err)
	}

	history, err := c.GetHistory(ctx, "c1")
	if err != nil {
		t.Fatalf("GetHistory() failed, %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("GetHistory() returned %d records, want 2", len(history))
	}
	if history[0].ID != second.ID {
		t.Error("GetHistory() must return newest first")
	}
}

func TestClient_Overview(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	if _, err := c.CheckIn(ctx, newCheckIn("c2")); err != nil {
		t.Fatalf("CheckIn() failed, %v", err)
	}
	if _, err := c.ReportAbsence(ctx, attendance.NewAbsence{ChildID: "c1", Kind: attendance.KindLeave}); err != nil {
		t.Fatalf("ReportAbsence() failed, %v", err)
	}

	statuses, err := c.Overview(ctx)
	if err != nil {
		t.Fatalf("Overview() failed, %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("Overview() returned %d entries, want 2", len(statuses))
	}
	if statuses[0].ChildID != "c1" || statuses[0].Status != attendance.StatusOnLeave {
		t.Errorf("Overview()[0] = %+v, want c1 ON_LEAVE", statuses[0])
	}
	if statuses[1].ChildID != "c2" || statuses[1].Status != attendance.StatusActive {
		t.Errorf("Overview()[1] = %+v, want c2 ACTIVE", statuses[1])
	}
}
