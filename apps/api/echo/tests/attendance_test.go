package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/checkkid/checkkid/core/attendance"
	emailsvc "github.com/checkkid/checkkid/services/email"
	testutil "github.com/checkkid/checkkid/tests"
)

func checkInBody(t *testing.T, childID, by, name string) []byte {
	return marchallObj(t, attendance.NewCheckIn{
		ChildID:              childID,
		DroppedOffBy:         by,
		DroppedOffPersonType: attendance.PersonParent,
		DroppedOffPersonName: name,
	})
}

func checkOutBody(t *testing.T, childID, by, name, notes string) []byte {
	return marchallObj(t, attendance.NewCheckOut{
		ChildID:            childID,
		PickedUpBy:         by,
		PickedUpPersonType: attendance.PersonParent,
		PickedUpPersonName: name,
		PickedUpConfirmed:  true,
		Notes:              notes,
	})
}

func Test_attendanceApi_checkIn(t *testing.T) {
	app := setup(t)
	c := testutil.CreateChild(t, childRepo, "Ola Nordmann", "kg1", "")

	parentToken := getToken(t, parentActor("p1", "Far Nordmann"), "")

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/v1/attendance/check-in",
			body: checkInBody(t, c.ID, "p1", "Far Nordmann"), wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// a parent checks their child in
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/check-in", parentToken, checkInBody(t, c.ID, "p1", "Far Nordmann"))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("check-in code = %v, want 201 (body: %s)", rec.Code, rec.Body.String())
	}
	created := decodeRecord(t, rec)
	if created.ChildID != c.ID || created.Kind != attendance.KindAttendance {
		t.Errorf("unexpected record %+v", created)
	}
	if created.DroppedOffConfirmedBy != nil {
		t.Error("a fresh check-in must be unconfirmed")
	}
	if created.CheckOutDate != nil || created.PickedUpBy != nil {
		t.Error("a fresh check-in must have no check-out fields")
	}
	within(t, created.CheckInDate, time.Minute)

	// the same submission again is a duplicate
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/check-in", parentToken, checkInBody(t, c.ID, "p1", "Far Nordmann"))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: attendance.ErrDuplicateCheckIn.Error()}),
	}, rec)

	// a different actor hits the open-record conflict instead
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/check-in", parentToken, checkInBody(t, c.ID, "p2", "Mor Nordmann"))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: attendance.ErrAlreadyCheckedIn.Error()}),
	}, rec)

	// validation errors surface per field
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/check-in", parentToken, marchallObj(t, attendance.NewCheckIn{}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty check-in code = %v, want 400", rec.Code)
	}
	var fldErrs map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &fldErrs); err != nil {
		t.Fatalf("decoding field errors failed: %v", err)
	}
	for _, fld := range []string{"childId", "droppedOffBy", "droppedOffPersonType", "droppedOffPersonName"} {
		if _, ok := fldErrs[fld]; !ok {
			t.Errorf("missing field error for %q in %v", fld, fldErrs)
		}
	}
}

func Test_attendanceApi_confirm(t *testing.T) {
	app := setup(t)
	c := testutil.CreateChild(t, childRepo, "Ola Nordmann", "kg1", "mor@nordmann.no")
	pending := testutil.CheckInChild(t, recordRepo, c.ID, "")

	staffToken := getToken(t, staffActor("s1", "Mx Hansen"), "kg1")
	parentToken := getToken(t, parentActor("p1", "Far Nordmann"), "")

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: "/v1/attendance/" + pending.ID + "/confirm",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Staff required", method: http.MethodPost, path: "/v1/attendance/" + pending.ID + "/confirm",
			token: parentToken, wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Unknown record", method: http.MethodPost, path: "/v1/attendance/nope/confirm",
			token: staffToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// staff confirms the drop-off
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/"+pending.ID+"/confirm", staffToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm code = %v, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	confirmed := decodeRecord(t, rec)
	if confirmed.DroppedOffConfirmedBy == nil || *confirmed.DroppedOffConfirmedBy != "s1" {
		t.Errorf("DroppedOffConfirmedBy = %v, want s1", confirmed.DroppedOffConfirmedBy)
	}

	// the parent is notified
	if n := len(emailsvc.SentMessages); n != 1 {
		t.Fatalf("expected 1 notification mail, got %d", n)
	}
	if msg := emailsvc.SentMessages[0]; msg.Subject != "Drop-off confirmed" {
		t.Errorf("notification subject = %q", msg.Subject)
	}

	// confirming twice conflicts
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/"+pending.ID+"/confirm", staffToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: attendance.ErrAlreadyConfirmed.Error()}),
	}, rec)
}

func Test_attendanceApi_checkOut(t *testing.T) {
	app := setup(t)
	c := testutil.CreateChild(t, childRepo, "Ola Nordmann", "kg1", "mor@nordmann.no")

	staffToken := getToken(t, staffActor("s1", "Mx Hansen"), "kg1")
	parentToken := getToken(t, parentActor("p1", "Far Nordmann"), "")

	tests := []httpTest{
		{
			name: "Staff required", method: http.MethodPost, path: "/v1/attendance/check-out",
			body: checkOutBody(t, c.ID, "p2", "Mor Nordmann", ""), token: parentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "No open record", method: http.MethodPost, path: "/v1/attendance/check-out",
			body: checkOutBody(t, c.ID, "p2", "Mor Nordmann", ""), token: staffToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// closing a still-PENDING record is a valid rejection of the drop-off
	testutil.CheckInChild(t, recordRepo, c.ID, "")

	emailsvc.ClearSentMessages()
	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/check-out", staffToken, checkOutBody(t, c.ID, "p2", "Mor Nordmann", "picked up early"))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("check-out code = %v, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	closed := decodeRecord(t, rec)
	if closed.CheckOutDate == nil {
		t.Fatal("CheckOutDate not set")
	}
	within(t, *closed.CheckOutDate, time.Minute)
	if closed.PickedUpBy == nil || *closed.PickedUpBy != "p2" {
		t.Errorf("PickedUpBy = %v, want p2", closed.PickedUpBy)
	}
	if closed.PickedUpConfirmedBy == nil || *closed.PickedUpConfirmedBy != "s1" {
		t.Errorf("PickedUpConfirmedBy = %v, want s1", closed.PickedUpConfirmedBy)
	}
	if !closed.PickedUpConfirmed {
		t.Error("PickedUpConfirmed not carried over")
	}
	if !strings.Contains(closed.Notes, "picked up early") {
		t.Errorf("Notes = %q, want check-out notes included", closed.Notes)
	}

	if n := len(emailsvc.SentMessages); n != 1 {
		t.Fatalf("expected 1 notification mail, got %d", n)
	}
	if msg := emailsvc.SentMessages[0]; msg.Subject != "Checked out" {
		t.Errorf("notification subject = %q", msg.Subject)
	}

	// closed records are immutable: a second check-out finds nothing open
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/check-out", staffToken, checkOutBody(t, c.ID, "p2", "Mor Nordmann", ""))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: "not found"}),
	}, rec)
}

func Test_attendanceApi_reportAbsence(t *testing.T) {
	app := setup(t)
	c := testutil.CreateChild(t, childRepo, "Ola Nordmann", "kg1", "")

	staffToken := getToken(t, staffActor("s1", "Mx Hansen"), "kg1")
	parentToken := getToken(t, parentActor("p1", "Far Nordmann"), "")

	body := marchallObj(t, attendance.NewAbsence{ChildID: c.ID, Kind: attendance.KindSickDay, Notes: "fever"})

	req, rec := newAuthRequest(http.MethodPost, "/v1/attendance/absence", parentToken, body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/absence", staffToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("absence code = %v, want 201 (body: %s)", rec.Code, rec.Body.String())
	}
	sick := decodeRecord(t, rec)
	if sick.Kind != attendance.KindSickDay {
		t.Errorf("Kind = %s, want SickDay", sick.Kind)
	}
	if sick.DroppedOffConfirmedBy == nil || *sick.DroppedOffConfirmedBy != "s1" {
		t.Error("absence records must be confirmed by the reporting staff")
	}

	// a sick child cannot also be checked in
	req, rec = newAuthRequest(http.MethodPost, "/v1/attendance/check-in", parentToken, checkInBody(t, c.ID, "p1", "Far Nordmann"))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: attendance.ErrAlreadyCheckedIn.Error()}),
	}, rec)
}

func Test_attendanceApi_lists(t *testing.T) {
	app := setup(t)
	adam := testutil.CreateChild(t, childRepo, "Adam", "kg1", "")
	bella := testutil.CreateChild(t, childRepo, "Bella", "kg1", "")
	other := testutil.CreateChild(t, childRepo, "Otto", "kg2", "")

	active := testutil.CheckInChild(t, recordRepo, adam.ID, "s1")
	pending := testutil.CheckInChild(t, recordRepo, bella.ID, "")
	testutil.CheckInChild(t, recordRepo, other.ID, "s9")

	staffToken := getToken(t, staffActor("s1", "Mx Hansen"), "kg1")

	assertList := func(path string, wantIDs ...string) {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, staffToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s code = %v, want 200 (body: %s)", path, rec.Code, rec.Body.String())
		}
		var got []struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decoding %s failed: %v", path, err)
		}
		if len(got) != len(wantIDs) {
			t.Fatalf("%s returned %d records, want %d", path, len(got), len(wantIDs))
		}
		for i, w := range wantIDs {
			if got[i].ID != w {
				t.Errorf("%s[%d].id = %s, want %s", path, i, got[i].ID, w)
			}
		}
	}

	// records of other kindergartens are out of scope
	assertList("/v1/attendance/active", active.ID)
	assertList("/v1/attendance/pending", pending.ID)

	// auth table
	tests := []httpTest{
		{
			name: "active: auth required", method: http.MethodGet, path: "/v1/attendance/active",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "pending: staff required", method: http.MethodGet, path: "/v1/attendance/pending",
			token:    getToken(t, parentActor("p1", "Far Nordmann"), ""),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_overview(t *testing.T) {
	app := setup(t)
	adam := testutil.CreateChild(t, childRepo, "Adam", "kg1", "")
	bella := testutil.CreateChild(t, childRepo, "Bella", "kg1", "")
	cleo := testutil.CreateChild(t, childRepo, "Cleo", "kg1", "")
	testutil.CreateChild(t, childRepo, "Otto", "kg2", "")

	testutil.CheckInChild(t, recordRepo, adam.ID, "s1") // ACTIVE
	testutil.CheckInChild(t, recordRepo, bella.ID, "")  // PENDING

	staffToken := getToken(t, staffActor("s1", "Mx Hansen"), "kg1")

	req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/overview", staffToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("overview code = %v, want 200 (body: %s)", rec.Code, rec.Body.String())
	}

	var got []struct {
		ChildID   string            `json:"childId"`
		ChildName string            `json:"childName"`
		Status    attendance.Status `json:"status"`
		Label     string            `json:"label"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decoding overview failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("overview returned %d entries, want the kg1 roster (3)", len(got))
	}

	// one entry per child, sorted by name, NONE when nothing is open
	wants := []struct {
		id     string
		name   string
		status attendance.Status
	}{
		{adam.ID, "Adam", attendance.StatusActive},
		{bella.ID, "Bella", attendance.StatusPending},
		{cleo.ID, "Cleo", attendance.StatusNone},
	}
	for i, w := range wants {
		if got[i].ChildID != w.id || got[i].ChildName != w.name || got[i].Status != w.status {
			t.Errorf("overview[%d] = %+v, want %+v", i, got[i], w)
		}
	}
	if !strings.Contains(got[0].Label, "Parent of "+adam.ID) {
		t.Errorf("overview[0].label = %q, want the drop-off actor's name", got[0].Label)
	}
	if got[2].Label != "" {
		t.Errorf("overview[2].label = %q, want empty for NONE", got[2].Label)
	}
}

func Test_attendanceApi_statusAndHistory(t *testing.T) {
	app := setup(t)
	c := testutil.CreateChild(t, childRepo, "Ola Nordmann", "kg1", "")

	parentToken := getToken(t, parentActor("p1", "Far Nordmann"), "")

	// no records yet
	req, rec := newAuthRequest(http.MethodGet, "/v1/attendance/status/"+c.ID, parentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %v, want 200", rec.Code)
	}
	var status struct {
		ChildID string            `json:"childId"`
		Status  attendance.Status `json:"status"`
		Record  *json.RawMessage  `json:"record"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding status failed: %v", err)
	}
	if status.Status != attendance.StatusNone || status.Record != nil {
		t.Errorf("status = %+v, want NONE with no record", status)
	}

	// an older, closed cycle and a fresh open one
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	old := testutil.CheckInChild(t, recordRepo, c.ID, "s1", yesterday)
	old.CheckOutAt = yesterday.Add(8 * time.Hour)
	old.PickUp = attendance.Actor{ID: "p2", Type: attendance.PersonParent, Name: "Mor Nordmann"}
	old.PickUpApprovedBy = "s1"
	if _, err := recordRepo.CloseRecord(context.Background(), old); err != nil {
		t.Fatalf("CloseRecord() failed: %v", err)
	}
	open := testutil.CheckInChild(t, recordRepo, c.ID, "s1")

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/status/"+c.ID, parentToken)
	app.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decoding status failed: %v", err)
	}
	if status.Status != attendance.StatusActive || status.Record == nil {
		t.Errorf("status = %+v, want ACTIVE with record", status)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/attendance/history/"+c.ID, parentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("history code = %v, want 200", rec.Code)
	}
	var history []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decoding history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history returned %d records, want 2", len(history))
	}
	if history[0].ID != open.ID {
		t.Error("history must be newest first")
	}
}
