package attendance

import (
	"context"
	"sort"
)

// ChildStatus is the per-child display status served to dashboards. It is
// derived, never persisted.
type ChildStatus struct {
	ChildID   string  `json:"child_id"`
	ChildName string  `json:"child_name"`
	Status    Status  `json:"status"`
	Label     string  `json:"label,omitempty"`
	Record    *Record `json:"record,omitempty"`
}

// Overview projects the kindergarten's roster against its open records into
// one per-child status each: NONE by default, overlaid with the open
// record's derived status. ACTIVE wins over PENDING should a child somehow
// hold both, which the one-open-record invariant makes impossible.
func (svc *service) Overview(ctx context.Context, kindergartenID string) ([]ChildStatus, error) {
	children, err := svc.roster.QueryChildrenByKindergarten(ctx, kindergartenID)
	if err != nil {
		return nil, err
	}

	open, err := svc.repo.QueryOpenRecords(ctx)
	if err != nil {
		return nil, err
	}
	byChild := make(map[string]Record, len(open))
	for _, rec := range open {
		prev, ok := byChild[rec.ChildID]
		if ok && prev.Status() == StatusActive {
			continue
		}
		byChild[rec.ChildID] = rec
	}

	statuses := make([]ChildStatus, 0, len(children))
	for _, c := range children {
		cs := ChildStatus{ChildID: c.ID, ChildName: c.Name, Status: StatusNone}
		if rec, ok := byChild[c.ID]; ok {
			rec := rec
			cs.Status = rec.Status()
			cs.Label = StatusLabel(rec)
			cs.Record = &rec
		}
		statuses = append(statuses, cs)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ChildName < statuses[j].ChildName })
	return statuses, nil
}

// StatusLabel renders the human-readable one-liner shown next to a child's
// name: the relevant actor's display name and the local wall-clock time.
func StatusLabel(rec Record) string {
	switch rec.Status() {
	case StatusSick, StatusOnLeave:
		return rec.DropOff.Name + " · " + rec.CheckInAt.Local().Format("02 Jan")
	case StatusClosed:
		return rec.PickUp.Name + " · " + rec.CheckOutAt.Local().Format("15:04")
	default:
		return rec.DropOff.Name + " · " + rec.CheckInAt.Local().Format("15:04")
	}
}
