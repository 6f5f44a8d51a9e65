package rest

import (
	"time"

	"github.com/checkkid/checkkid/core/attendance"
)

// Wire mirrors of the API's JSON shapes.

type (
	wireRecord struct {
		ID                    string                 `json:"id"`
		ChildID               string                 `json:"childId"`
		Kind                  attendance.Kind        `json:"kind"`
		CheckInDate           time.Time              `json:"checkInDate"`
		DroppedOffBy          string                 `json:"droppedOffBy"`
		DroppedOffPersonType  attendance.PersonType  `json:"droppedOffPersonType"`
		DroppedOffPersonName  string                 `json:"droppedOffPersonName"`
		DroppedOffConfirmedBy *string                `json:"droppedOffConfirmedBy"`
		CheckOutDate          *time.Time             `json:"checkOutDate"`
		PickedUpBy            *string                `json:"pickedUpBy"`
		PickedUpPersonType    *attendance.PersonType `json:"pickedUpPersonType"`
		PickedUpPersonName    *string                `json:"pickedUpPersonName"`
		PickedUpConfirmedBy   *string                `json:"pickedUpConfirmedBy"`
		PickedUpConfirmed     bool                   `json:"pickedUpConfirmed"`
		Notes                 string                 `json:"notes"`
		CreatedAt             time.Time              `json:"createdAt"`
	}

	wireStatus struct {
		ChildID string            `json:"childId"`
		Status  attendance.Status `json:"status"`
		Record  *wireRecord       `json:"record"`
	}

	wireChildStatus struct {
		ChildID   string            `json:"childId"`
		ChildName string            `json:"childName"`
		Status    attendance.Status `json:"status"`
		Label     string            `json:"label"`
		Record    *wireRecord       `json:"record"`
	}
)

func (w wireRecord) record() attendance.Record {
	rec := attendance.Record{
		ID:        w.ID,
		ChildID:   w.ChildID,
		Kind:      w.Kind,
		CheckInAt: w.CheckInDate,
		DropOff: attendance.Actor{
			ID:   w.DroppedOffBy,
			Type: w.DroppedOffPersonType,
			Name: w.DroppedOffPersonName,
		},
		PickUpIDConfirmed: w.PickedUpConfirmed,
		Notes:             w.Notes,
		CreatedAt:         w.CreatedAt,
	}
	if w.DroppedOffConfirmedBy != nil {
		rec.ConfirmedBy = *w.DroppedOffConfirmedBy
	}
	if w.CheckOutDate != nil {
		rec.CheckOutAt = *w.CheckOutDate
		rec.PickUp = attendance.Actor{
			ID:   deref(w.PickedUpBy),
			Name: deref(w.PickedUpPersonName),
		}
		if w.PickedUpPersonType != nil {
			rec.PickUp.Type = *w.PickedUpPersonType
		}
		rec.PickUpApprovedBy = deref(w.PickedUpConfirmedBy)
	}
	return rec
}

func (w wireChildStatus) childStatus() attendance.ChildStatus {
	cs := attendance.ChildStatus{
		ChildID:   w.ChildID,
		ChildName: w.ChildName,
		Status:    w.Status,
		Label:     w.Label,
	}
	if w.Record != nil {
		rec := w.Record.record()
		cs.Record = &rec
	}
	return cs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
