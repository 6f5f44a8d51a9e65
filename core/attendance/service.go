package attendance

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/checkkid/checkkid/core"
	"github.com/checkkid/checkkid/core/child"
)

var (
	// errors
	ErrNotFound         = errors.New("attendance record not found")
	ErrNoOpenRecord     = errors.New("child has no open attendance record")
	ErrAlreadyCheckedIn = errors.New("child already has an open attendance record")
	ErrAlreadyConfirmed = errors.New("attendance record is already confirmed")
	ErrRecordClosed     = errors.New("attendance record is already closed")
	ErrStaffOnly        = errors.New("only staff can perform this operation")
	ErrDuplicateCheckIn = errors.New("duplicate check-in submission")
)

type (
	Repository interface {
		// CreateRecord persists a new record. It fails with
		// ErrAlreadyCheckedIn when the child already has an open record;
		// the store enforces this with a uniqueness constraint so that
		// concurrent check-ins racing past the service pre-check still
		// linearize.
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		// GetOpenRecordByChild returns the child's single open record, or
		// ErrNotFound.
		GetOpenRecordByChild(ctx context.Context, childID string) (Record, error)
		// ConfirmRecord sets the confirming staff on an open, unconfirmed
		// record. ErrNotFound when no such record matches.
		ConfirmRecord(ctx context.Context, id, staffID string) (Record, error)
		// CloseRecord sets the check-out fields of `rec` on its open
		// record. ErrNotFound when the record is absent or already closed.
		CloseRecord(ctx context.Context, rec Record) (Record, error)
		QueryOpenRecords(ctx context.Context) ([]Record, error)
		// QueryRecordsByChild returns all of a child's records, newest first.
		QueryRecordsByChild(ctx context.Context, childID string) ([]Record, error)
		QueryRecordsByPeriod(ctx context.Context, from, to time.Time) ([]Record, error)
		// QueryRecordsByStaff returns records a staff member confirmed or
		// approved, for audit trails.
		QueryRecordsByStaff(ctx context.Context, staffID string) ([]Record, error)
	}

	// Guard deduplicates check-in submissions. Reserve returns false when
	// the key was already reserved within the dedup window.
	Guard interface {
		Reserve(ctx context.Context, key string) (bool, error)
	}

	Service interface {
		CheckIn(ctx context.Context, nc NewCheckIn) (Record, error)
		Confirm(ctx context.Context, recordID string, confirmedBy Actor) (Record, error)
		CheckOut(ctx context.Context, nc NewCheckOut, approvedBy Actor) (Record, error)
		ReportAbsence(ctx context.Context, na NewAbsence, reporter Actor) (Record, error)
		ListActive(ctx context.Context, kindergartenID string) ([]Record, error)
		ListPending(ctx context.Context, kindergartenID string) ([]Record, error)
		GetStatus(ctx context.Context, childID string) (*Record, error)
		GetHistory(ctx context.Context, childID string) ([]Record, error)
		Overview(ctx context.Context, kindergartenID string) ([]ChildStatus, error)
		QueryPeriod(ctx context.Context, from, to time.Time) ([]Record, error)
		QueryStaffActivity(ctx context.Context, staffID string) ([]Record, error)
	}

	service struct {
		repo    Repository
		roster  child.Repository
		guard   Guard
		mailSvc core.EmailService
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, roster child.Repository, guard Guard, mailSvc core.EmailService, logger core.Logger) Service {
	return &service{
		repo:    repo,
		roster:  roster,
		guard:   guard,
		mailSvc: mailSvc,
		logger:  logger,
	}
}

// dedupKey buckets a submission by child, actor and time window so that a
// re-submitted form cannot open a second PENDING record.
func dedupKey(childID, actorID string, at time.Time) string {
	bucket := at.UTC().Truncate(core.Conf.CheckInDedupWindow).Unix()
	return fmt.Sprintf("checkin:%s:%s:%d", childID, actorID, bucket)
}

func (svc *service) CheckIn(ctx context.Context, nc NewCheckIn) (Record, error) {
	if err := nc.Validate(); err != nil {
		return Record{}, err
	}

	now := time.Now().UTC()
	if svc.guard != nil {
		ok, err := svc.guard.Reserve(ctx, dedupKey(nc.ChildID, nc.DroppedOffBy, now))
		if err != nil {
			return Record{}, err
		}
		if !ok {
			return Record{}, ErrDuplicateCheckIn
		}
	}

	// pre-check; the store's uniqueness constraint settles races
	if _, err := svc.repo.GetOpenRecordByChild(ctx, nc.ChildID); err == nil {
		return Record{}, ErrAlreadyCheckedIn
	} else if err != ErrNotFound {
		return Record{}, err
	}

	rec := Record{
		ID:        uuid.New().String(),
		ChildID:   nc.ChildID,
		Kind:      KindAttendance,
		CheckInAt: now,
		DropOff:   nc.actor(),
		Notes:     nc.Notes,
		CreatedAt: now,
	}
	return svc.repo.CreateRecord(ctx, rec)
}

func (svc *service) Confirm(ctx context.Context, recordID string, confirmedBy Actor) (Record, error) {
	if !confirmedBy.IsStaff() {
		return Record{}, ErrStaffOnly
	}

	rec, err := svc.repo.GetRecordByID(ctx, recordID)
	if err != nil {
		return Record{}, err
	}
	if !rec.IsOpen() {
		return Record{}, ErrRecordClosed
	}
	if rec.IsConfirmed() {
		return Record{}, ErrAlreadyConfirmed
	}

	rec, err = svc.repo.ConfirmRecord(ctx, recordID, confirmedBy.ID)
	if err == ErrNotFound {
		// lost a race with another confirm or a check-out; reclassify
		return Record{}, svc.classifyConflict(ctx, recordID)
	}
	if err != nil {
		return Record{}, err
	}

	svc.notifyParent(ctx, rec, "Drop-off confirmed",
		"%s's drop-off was confirmed at %s.")
	return rec, nil
}

func (svc *service) CheckOut(ctx context.Context, nc NewCheckOut, approvedBy Actor) (Record, error) {
	if err := nc.Validate(); err != nil {
		return Record{}, err
	}
	if !approvedBy.IsStaff() {
		return Record{}, ErrStaffOnly
	}

	rec, err := svc.repo.GetOpenRecordByChild(ctx, nc.ChildID)
	if err == ErrNotFound {
		return Record{}, ErrNoOpenRecord
	}
	if err != nil {
		return Record{}, err
	}

	rec.CheckOutAt = time.Now().UTC()
	rec.PickUp = nc.actor()
	rec.PickUpApprovedBy = approvedBy.ID
	rec.PickUpIDConfirmed = nc.PickedUpConfirmed
	if nc.Notes != "" {
		if rec.Notes != "" {
			rec.Notes += " | " + nc.Notes
		} else {
			rec.Notes = nc.Notes
		}
	}

	rec, err = svc.repo.CloseRecord(ctx, rec)
	if err == ErrNotFound {
		return Record{}, ErrNoOpenRecord
	}
	if err != nil {
		return Record{}, err
	}

	svc.notifyParent(ctx, rec, "Checked out",
		"%s was picked up at %s.")
	return rec, nil
}

func (svc *service) ReportAbsence(ctx context.Context, na NewAbsence, reporter Actor) (Record, error) {
	if err := na.Validate(); err != nil {
		return Record{}, err
	}
	if !reporter.IsStaff() {
		return Record{}, ErrStaffOnly
	}

	if _, err := svc.repo.GetOpenRecordByChild(ctx, na.ChildID); err == nil {
		return Record{}, ErrAlreadyCheckedIn
	} else if err != ErrNotFound {
		return Record{}, err
	}

	now := time.Now().UTC()
	rec := Record{
		ID:          uuid.New().String(),
		ChildID:     na.ChildID,
		Kind:        na.Kind,
		CheckInAt:   now,
		DropOff:     reporter,
		ConfirmedBy: reporter.ID, // the reporting staff member validates the absence
		Notes:       na.Notes,
		CreatedAt:   now,
	}
	return svc.repo.CreateRecord(ctx, rec)
}

func (svc *service) ListActive(ctx context.Context, kindergartenID string) ([]Record, error) {
	return svc.listOpen(ctx, kindergartenID, true)
}

func (svc *service) ListPending(ctx context.Context, kindergartenID string) ([]Record, error) {
	return svc.listOpen(ctx, kindergartenID, false)
}

func (svc *service) listOpen(ctx context.Context, kindergartenID string, confirmed bool) ([]Record, error) {
	open, err := svc.repo.QueryOpenRecords(ctx)
	if err != nil {
		return nil, err
	}

	scope, err := svc.scopeSet(ctx, kindergartenID)
	if err != nil {
		return nil, err
	}

	recs := make([]Record, 0, len(open))
	for _, rec := range open {
		if rec.Kind != KindAttendance {
			continue
		}
		if rec.IsConfirmed() != confirmed {
			continue
		}
		if scope != nil && !scope[rec.ChildID] {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// scopeSet resolves a kindergarten to the set of its children's IDs.
// An empty kindergartenID means no scoping (nil set).
func (svc *service) scopeSet(ctx context.Context, kindergartenID string) (map[string]bool, error) {
	if kindergartenID == "" {
		return nil, nil
	}
	children, err := svc.roster.QueryChildrenByKindergarten(ctx, kindergartenID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(children))
	for _, c := range children {
		set[c.ID] = true
	}
	return set, nil
}

func (svc *service) GetStatus(ctx context.Context, childID string) (*Record, error) {
	rec, err := svc.repo.GetOpenRecordByChild(ctx, childID)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (svc *service) GetHistory(ctx context.Context, childID string) ([]Record, error) {
	return svc.repo.QueryRecordsByChild(ctx, childID)
}

func (svc *service) QueryPeriod(ctx context.Context, from, to time.Time) ([]Record, error) {
	return svc.repo.QueryRecordsByPeriod(ctx, from, to)
}

func (svc *service) QueryStaffActivity(ctx context.Context, staffID string) ([]Record, error) {
	return svc.repo.QueryRecordsByStaff(ctx, staffID)
}

// classifyConflict re-reads a record after a lost conditional update and
// maps its state to the matching error.
func (svc *service) classifyConflict(ctx context.Context, recordID string) error {
	rec, err := svc.repo.GetRecordByID(ctx, recordID)
	if err != nil {
		return err
	}
	if !rec.IsOpen() {
		return ErrRecordClosed
	}
	if rec.IsConfirmed() {
		return ErrAlreadyConfirmed
	}
	return ErrNotFound
}

// notifyParent sends a courtesy mail to the child's registered parent.
// This is secondary enrichment: a roster miss or missing address never
// fails the operation that triggered it.
func (svc *service) notifyParent(ctx context.Context, rec Record, subject, bodyFmt string) {
	if svc.mailSvc == nil {
		return
	}
	c, err := svc.roster.GetChildByID(ctx, rec.ChildID)
	if err != nil {
		if svc.logger != nil {
			svc.logger.Warn("notifyParent: roster lookup failed", err)
		}
		return
	}
	if c.ParentEmail == "" {
		return
	}

	at := rec.CheckInAt
	if !rec.CheckOutAt.IsZero() {
		at = rec.CheckOutAt
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: c.Name, Address: c.ParentEmail}},
		Subject: subject,
		BodyStr: fmt.Sprintf(bodyFmt, c.Name, at.Local().Format("15:04")),
	})
}
