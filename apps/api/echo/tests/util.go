package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/checkkid/checkkid/apps/api/echo"
	"github.com/checkkid/checkkid/core"
	"github.com/checkkid/checkkid/core/attendance"
	"github.com/checkkid/checkkid/core/child"
	emailsvc "github.com/checkkid/checkkid/services/email"
	guardsvc "github.com/checkkid/checkkid/services/guard"
	inmemdb "github.com/checkkid/checkkid/storage/database/inmem"
)

var (
	recordRepo attendance.Repository
	childRepo  child.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func setup(t *testing.T) Server {
	t.Helper()

	// error bodies must render the non-debug way
	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up DB & repos
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed: %v", err)
	}
	recordRepo = inmemdb.NewRecordRepository(db)
	childRepo = inmemdb.NewChildRepository(db)

	// set up services
	emailsvc.ClearSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock()
	guard := guardsvc.NewMemoryGuard(core.Conf.CheckInDedupWindow)
	attSvc := attendance.NewService(recordRepo, childRepo, guard, mailSvc, nil)
	childSvc := child.NewService(childRepo)

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			AttendanceSvc:  attSvc,
			ChildSvc:       childSvc,
		},
	)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func staffActor(id, name string) attendance.Actor {
	return attendance.Actor{ID: id, Type: attendance.PersonStaff, Name: name}
}

func parentActor(id, name string) attendance.Actor {
	return attendance.Actor{ID: id, Type: attendance.PersonParent, Name: name}
}

func getToken(t *testing.T, actor attendance.Actor, kindergartenID string) string {
	t.Helper()
	token, err := GenerateToken(GetActorClaims(actor, kindergartenID))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

// nolint
func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func decodeRecord(t *testing.T, rec *httptest.ResponseRecorder) RecordResponse {
	t.Helper()
	var resp RecordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decodeRecord() failed: %v (body: %s)", err, rec.Body.String())
	}
	return resp
}

func within(t *testing.T, at time.Time, d time.Duration) {
	t.Helper()
	if diff := time.Since(at); diff < 0 || diff > d {
		t.Errorf("timestamp %v not within %v of now", at, d)
	}
}
