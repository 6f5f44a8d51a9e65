// Package client exposes the attendance operations behind a single
// interface with two interchangeable implementations: a networked one
// talking to the API, and an offline local-only one. The implementation is
// selected once at startup from config, never per call.
package client

import (
	"context"

	"github.com/pkg/errors"

	"github.com/checkkid/checkkid/client/local"
	"github.com/checkkid/checkkid/client/rest"
	"github.com/checkkid/checkkid/core"
	"github.com/checkkid/checkkid/core/attendance"
)

// ErrTransient marks failures of the transport itself (timeouts, refused
// connections). Callers may retry; domain errors never carry it.
var ErrTransient = rest.ErrTransient

// Client is the attendance operation surface as app frontends consume it.
// The actor identity rides along with the client (the bearer token in rest
// mode, implicit in local mode), so operations only take domain inputs.
type Client interface {
	CheckIn(ctx context.Context, nc attendance.NewCheckIn) (attendance.Record, error)
	Confirm(ctx context.Context, recordID string) (attendance.Record, error)
	CheckOut(ctx context.Context, nc attendance.NewCheckOut) (attendance.Record, error)
	ReportAbsence(ctx context.Context, na attendance.NewAbsence) (attendance.Record, error)
	ListActive(ctx context.Context) ([]attendance.Record, error)
	ListPending(ctx context.Context) ([]attendance.Record, error)
	GetStatus(ctx context.Context, childID string) (*attendance.Record, error)
	GetHistory(ctx context.Context, childID string) ([]attendance.Record, error)
	Overview(ctx context.Context) ([]attendance.ChildStatus, error)
	Close() error
}

// New builds the client selected by config: "rest" (default) or "local".
func New() (Client, error) {
	switch mode := core.Conf.Client.Mode; mode {
	case "", "rest":
		return rest.NewClient(core.Conf.Client.BaseURL, core.Conf.Client.AuthToken), nil
	case "local":
		return local.NewClient(core.Conf.Client.LocalPath)
	default:
		return nil, errors.Errorf("unknown client mode %q", mode)
	}
}
