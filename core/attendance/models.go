package attendance

import (
	"time"

	"github.com/checkkid/checkkid/core"
)

// Record kinds. Administrative absences share the record lifecycle so that
// status derivation and history have a single source of truth.
const (
	KindAttendance Kind = "Attendance"
	KindSickDay    Kind = "SickDay"
	KindLeave      Kind = "Leave"
)

// Person types attached to drop-off and pick-up events.
const (
	PersonParent PersonType = "Parent"
	PersonStaff  PersonType = "Staff"
	PersonOther  PersonType = "Other"
)

// Derived per-child statuses. NONE, PENDING, ACTIVE and CLOSED follow the
// attendance lifecycle; SICK and ON_LEAVE are derived from open absence
// records.
const (
	StatusNone    Status = "NONE"
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusClosed  Status = "CLOSED"
	StatusSick    Status = "SICK"
	StatusOnLeave Status = "ON_LEAVE"
)

type (
	Kind       string
	PersonType string
	Status     string

	// Actor is the identity attached to a drop-off or pick-up event:
	// who they are, what they are (Parent/Staff/Other) and the display
	// name shown on dashboards.
	Actor struct {
		ID   string     `json:"id"`
		Type PersonType `json:"type"`
		Name string     `json:"name"`
	}

	// Record is one attendance cycle for one child. A record with a zero
	// CheckOutAt is "open"; an open record is PENDING until a staff member
	// confirms the drop-off, ACTIVE after. A closed record is immutable.
	Record struct {
		ID      string `json:"id"`
		ChildID string `json:"child_id"`
		Kind    Kind   `json:"kind"`

		CheckInAt   time.Time `json:"check_in_at"` // UTC
		DropOff     Actor     `json:"drop_off"`
		ConfirmedBy string    `json:"confirmed_by"` // staff who validated the drop-off; "" = unconfirmed

		CheckOutAt        time.Time `json:"check_out_at"` // UTC; zero = still open
		PickUp            Actor     `json:"pick_up"`
		PickUpApprovedBy  string    `json:"pick_up_approved_by"` // staff who approved the check-out
		PickUpIDConfirmed bool      `json:"pick_up_id_confirmed"`

		Notes     string    `json:"notes"`
		CreatedAt time.Time `json:"created_at"` // UTC
	}
)

func (a Actor) IsStaff() bool { return a.Type == PersonStaff }

func (r Record) IsOpen() bool      { return r.CheckOutAt.IsZero() }
func (r Record) IsConfirmed() bool { return r.ConfirmedBy != "" }

// Status derives the record's lifecycle state.
func (r Record) Status() Status {
	if !r.IsOpen() {
		return StatusClosed
	}
	switch r.Kind {
	case KindSickDay:
		return StatusSick
	case KindLeave:
		return StatusOnLeave
	}
	if r.IsConfirmed() {
		return StatusActive
	}
	return StatusPending
}

// NewCheckIn contains information needed to open a new attendance record.
type NewCheckIn struct {
	ChildID              string     `json:"childId" validate:"required"`
	DroppedOffBy         string     `json:"droppedOffBy" validate:"required"`
	DroppedOffPersonType PersonType `json:"droppedOffPersonType" validate:"required,persontype"`
	DroppedOffPersonName string     `json:"droppedOffPersonName" validate:"required"`
	Notes                string     `json:"notes"`
}

func (nc *NewCheckIn) Validate() error {
	nc.ChildID = core.CleanString(nc.ChildID)
	nc.DroppedOffPersonName = core.CleanString(nc.DroppedOffPersonName)
	nc.Notes = core.CleanString(nc.Notes)
	return core.Validate.Struct(nc)
}

func (nc NewCheckIn) actor() Actor {
	return Actor{ID: nc.DroppedOffBy, Type: nc.DroppedOffPersonType, Name: nc.DroppedOffPersonName}
}

// NewCheckOut contains information needed to close a child's open record.
// Closing a still-pending record is valid and functions as a rejection of
// the drop-off.
type NewCheckOut struct {
	ChildID            string     `json:"childId" validate:"required"`
	PickedUpBy         string     `json:"pickedUpBy" validate:"required"`
	PickedUpPersonType PersonType `json:"pickedUpPersonType" validate:"required,persontype"`
	PickedUpPersonName string     `json:"pickedUpPersonName" validate:"required"`
	PickedUpConfirmed  bool       `json:"pickedUpConfirmed"`
	Notes              string     `json:"notes"`
}

func (nc *NewCheckOut) Validate() error {
	nc.ChildID = core.CleanString(nc.ChildID)
	nc.PickedUpPersonName = core.CleanString(nc.PickedUpPersonName)
	nc.Notes = core.CleanString(nc.Notes)
	return core.Validate.Struct(nc)
}

func (nc NewCheckOut) actor() Actor {
	return Actor{ID: nc.PickedUpBy, Type: nc.PickedUpPersonType, Name: nc.PickedUpPersonName}
}

// NewAbsence reports a sick day or a leave for a child. The reporting staff
// member counts as the confirming actor, so absence records are never
// PENDING.
type NewAbsence struct {
	ChildID string `json:"childId" validate:"required"`
	Kind    Kind   `json:"kind" validate:"required,absencekind"`
	Notes   string `json:"notes"`
}

func (na *NewAbsence) Validate() error {
	na.ChildID = core.CleanString(na.ChildID)
	na.Notes = core.CleanString(na.Notes)
	return core.Validate.Struct(na)
}
