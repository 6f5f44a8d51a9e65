// Package rest implements the attendance client over the HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/checkkid/checkkid/core/attendance"
)

var (
	// ErrTransient marks transport failures (timeouts, refused
	// connections) as opposed to domain errors returned by the API.
	ErrTransient = errors.New("transient network failure")

	ErrUnauthorized = errors.New("not authenticated")
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) CheckIn(ctx context.Context, nc attendance.NewCheckIn) (attendance.Record, error) {
	var w wireRecord
	if err := c.do(ctx, http.MethodPost, "/v1/attendance/check-in", nc, &w); err != nil {
		return attendance.Record{}, err
	}
	return w.record(), nil
}

func (c *Client) Confirm(ctx context.Context, recordID string) (attendance.Record, error) {
	var w wireRecord
	if err := c.do(ctx, http.MethodPost, "/v1/attendance/"+recordID+"/confirm", nil, &w); err != nil {
		return attendance.Record{}, err
	}
	return w.record(), nil
}

func (c *Client) CheckOut(ctx context.Context, nc attendance.NewCheckOut) (attendance.Record, error) {
	var w wireRecord
	if err := c.do(ctx, http.MethodPost, "/v1/attendance/check-out", nc, &w); err != nil {
		return attendance.Record{}, err
	}
	return w.record(), nil
}

func (c *Client) ReportAbsence(ctx context.Context, na attendance.NewAbsence) (attendance.Record, error) {
	var w wireRecord
	if err := c.do(ctx, http.MethodPost, "/v1/attendance/absence", na, &w); err != nil {
		return attendance.Record{}, err
	}
	return w.record(), nil
}

func (c *Client) ListActive(ctx context.Context) ([]attendance.Record, error) {
	return c.listRecords(ctx, "/v1/attendance/active")
}

func (c *Client) ListPending(ctx context.Context) ([]attendance.Record, error) {
	return c.listRecords(ctx, "/v1/attendance/pending")
}

func (c *Client) listRecords(ctx context.Context, path string) ([]attendance.Record, error) {
	var ws []wireRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &ws); err != nil {
		return nil, err
	}
	recs := make([]attendance.Record, len(ws))
	for i, w := range ws {
		recs[i] = w.record()
	}
	return recs, nil
}

func (c *Client) GetStatus(ctx context.Context, childID string) (*attendance.Record, error) {
	var w wireStatus
	if err := c.do(ctx, http.MethodGet, "/v1/attendance/status/"+childID, nil, &w); err != nil {
		return nil, err
	}
	if w.Record == nil {
		return nil, nil
	}
	rec := w.Record.record()
	return &rec, nil
}

func (c *Client) GetHistory(ctx context.Context, childID string) ([]attendance.Record, error) {
	return c.listRecords(ctx, "/v1/attendance/history/"+childID)
}

func (c *Client) Overview(ctx context.Context) ([]attendance.ChildStatus, error) {
	var ws []wireChildStatus
	if err := c.do(ctx, http.MethodGet, "/v1/attendance/overview", nil, &ws); err != nil {
		return nil, err
	}
	statuses := make([]attendance.ChildStatus, len(ws))
	for i, w := range ws {
		statuses[i] = w.childStatus()
	}
	return statuses, nil
}

func (c *Client) Close() error { return nil }

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body *bytes.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encoding request")
		}
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(ErrTransient, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return mapAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Wrap(err, "decoding response")
		}
	}
	return nil
}

// mapAPIError translates an error response back into the matching domain
// error so both client implementations fail the same way.
func mapAPIError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	msg := payload.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return attendance.ErrStaffOnly
	case http.StatusNotFound:
		return attendance.ErrNotFound
	case http.StatusConflict:
		for _, domainErr := range []error{
			attendance.ErrAlreadyCheckedIn,
			attendance.ErrDuplicateCheckIn,
			attendance.ErrAlreadyConfirmed,
			attendance.ErrRecordClosed,
		} {
			if msg == domainErr.Error() {
				return domainErr
			}
		}
		return errors.New(msg)
	}
	return fmt.Errorf("api error (%d): %s", resp.StatusCode, msg)
}
