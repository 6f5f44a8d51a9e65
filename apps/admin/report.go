package main

import (
	"context"
	"fmt"
	"time"

	"github.com/checkkid/checkkid/core/attendance"
)

const reportDateLayout = "2006-01-02"

// report prints attendance records for a period, or a staff member's
// confirmation/approval audit trail.
func (cli *commandLine) report(from, to, staffID string) error {
	ctx := context.Background()

	var recs []attendance.Record
	var err error
	if staffID != "" {
		recs, err = cli.recordRepo.QueryRecordsByStaff(ctx, staffID)
	} else {
		var fromT, toT time.Time
		if fromT, err = time.Parse(reportDateLayout, from); err != nil {
			return fmt.Errorf("invalid -from date %q", from)
		}
		if toT, err = time.Parse(reportDateLayout, to); err != nil {
			return fmt.Errorf("invalid -to date %q", to)
		}
		recs, err = cli.recordRepo.QueryRecordsByPeriod(ctx, fromT, toT)
	}
	if err != nil {
		return err
	}

	for _, rec := range recs {
		out := "-"
		if !rec.CheckOutAt.IsZero() {
			out = rec.CheckOutAt.Local().Format("15:04")
		}
		fmt.Printf("%s  %-10s  %-8s  child=%s  in=%s  out=%s  by=%s\n",
			rec.CheckInAt.Local().Format(reportDateLayout), rec.Kind, rec.Status(),
			rec.ChildID, rec.CheckInAt.Local().Format("15:04"), out, rec.DropOff.Name)
	}
	fmt.Printf("%d record(s)\n", len(recs))
	return nil
}
