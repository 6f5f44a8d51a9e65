package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/checkkid/checkkid/core/attendance"
)

type attendanceApi struct {
	svc attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("/attendance", jwt)

	// any authenticated actor can drop a child off or look a child up
	ag.POST("/check-in", api.checkIn)
	ag.GET("/status/:childId", api.status)
	ag.GET("/history/:childId", api.history)

	// staff endpoints
	sg := ag.Group("", staffMiddleware())
	sg.POST("/:id/confirm", api.confirm)
	sg.POST("/check-out", api.checkOut)
	sg.POST("/absence", api.reportAbsence)
	sg.GET("/active", api.active)
	sg.GET("/pending", api.pending)
	sg.GET("/overview", api.overview)
}

// Handlers

func (api *attendanceApi) checkIn(ctx echo.Context) error {
	var data attendance.NewCheckIn
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCheckIn")
	}

	rec, err := api.svc.CheckIn(ctx.Request().Context(), data)
	if err != nil {
		return mapDomainError(errors.Wrap(err, "checking in"))
	}
	return ctx.JSON(http.StatusCreated, newRecordResponse(rec))
}

func (api *attendanceApi) confirm(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.Confirm(ctx.Request().Context(), ctx.Param("id"), claims.Actor())
	if err != nil {
		return mapDomainError(errors.Wrap(err, "confirming check-in"))
	}
	return ctx.JSON(http.StatusOK, newRecordResponse(rec))
}

func (api *attendanceApi) checkOut(ctx echo.Context) error {
	var data attendance.NewCheckOut
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCheckOut")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.CheckOut(ctx.Request().Context(), data, claims.Actor())
	if err != nil {
		return mapDomainError(errors.Wrap(err, "checking out"))
	}
	return ctx.JSON(http.StatusOK, newRecordResponse(rec))
}

func (api *attendanceApi) reportAbsence(ctx echo.Context) error {
	var data attendance.NewAbsence
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAbsence")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	rec, err := api.svc.ReportAbsence(ctx.Request().Context(), data, claims.Actor())
	if err != nil {
		return mapDomainError(errors.Wrap(err, "reporting absence"))
	}
	return ctx.JSON(http.StatusCreated, newRecordResponse(rec))
}

func (api *attendanceApi) active(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	recs, err := api.svc.ListActive(ctx.Request().Context(), claims.KindergartenID)
	if err != nil {
		return mapDomainError(errors.Wrap(err, "listing active records"))
	}
	return ctx.JSON(http.StatusOK, newRecordResponses(recs))
}

func (api *attendanceApi) pending(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	recs, err := api.svc.ListPending(ctx.Request().Context(), claims.KindergartenID)
	if err != nil {
		return mapDomainError(errors.Wrap(err, "listing pending records"))
	}
	return ctx.JSON(http.StatusOK, newRecordResponses(recs))
}

func (api *attendanceApi) overview(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	statuses, err := api.svc.Overview(ctx.Request().Context(), claims.KindergartenID)
	if err != nil {
		return mapDomainError(errors.Wrap(err, "projecting overview"))
	}

	resp := make([]ChildStatusResponse, len(statuses))
	for i, cs := range statuses {
		resp[i] = ChildStatusResponse{
			ChildID:   cs.ChildID,
			ChildName: cs.ChildName,
			Status:    cs.Status,
			Label:     cs.Label,
		}
		if cs.Record != nil {
			rr := newRecordResponse(*cs.Record)
			resp[i].Record = &rr
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *attendanceApi) status(ctx echo.Context) error {
	childID := ctx.Param("childId")
	rec, err := api.svc.GetStatus(ctx.Request().Context(), childID)
	if err != nil {
		return mapDomainError(errors.Wrap(err, "getting child status"))
	}

	resp := StatusResponse{ChildID: childID, Status: attendance.StatusNone}
	if rec != nil {
		rr := newRecordResponse(*rec)
		resp.Status = rec.Status()
		resp.Record = &rr
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *attendanceApi) history(ctx echo.Context) error {
	recs, err := api.svc.GetHistory(ctx.Request().Context(), ctx.Param("childId"))
	if err != nil {
		return mapDomainError(errors.Wrap(err, "getting child history"))
	}
	return ctx.JSON(http.StatusOK, newRecordResponses(recs))
}

// Wire shapes

type (
	// RecordResponse is the record as clients see it. Check-out fields are
	// pointers so an open record serializes them as null.
	RecordResponse struct {
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

	StatusResponse struct {
		ChildID string            `json:"childId"`
		Status  attendance.Status `json:"status"`
		Record  *RecordResponse   `json:"record,omitempty"`
	}

	ChildStatusResponse struct {
		ChildID   string            `json:"childId"`
		ChildName string            `json:"childName"`
		Status    attendance.Status `json:"status"`
		Label     string            `json:"label,omitempty"`
		Record    *RecordResponse   `json:"record,omitempty"`
	}
)

func newRecordResponse(rec attendance.Record) RecordResponse {
	resp := RecordResponse{
		ID:                   rec.ID,
		ChildID:              rec.ChildID,
		Kind:                 rec.Kind,
		CheckInDate:          rec.CheckInAt,
		DroppedOffBy:         rec.DropOff.ID,
		DroppedOffPersonType: rec.DropOff.Type,
		DroppedOffPersonName: rec.DropOff.Name,
		PickedUpConfirmed:    rec.PickUpIDConfirmed,
		Notes:                rec.Notes,
		CreatedAt:            rec.CreatedAt,
	}
	if rec.ConfirmedBy != "" {
		resp.DroppedOffConfirmedBy = strPtr(rec.ConfirmedBy)
	}
	if !rec.CheckOutAt.IsZero() {
		out := rec.CheckOutAt
		typ := rec.PickUp.Type
		resp.CheckOutDate = &out
		resp.PickedUpBy = strPtr(rec.PickUp.ID)
		resp.PickedUpPersonType = &typ
		resp.PickedUpPersonName = strPtr(rec.PickUp.Name)
		resp.PickedUpConfirmedBy = strPtr(rec.PickUpApprovedBy)
	}
	return resp
}

func newRecordResponses(recs []attendance.Record) []RecordResponse {
	resp := make([]RecordResponse, len(recs))
	for i, rec := range recs {
		resp[i] = newRecordResponse(rec)
	}
	return resp
}

func strPtr(s string) *string { return &s }
