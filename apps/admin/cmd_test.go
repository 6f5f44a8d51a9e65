package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/checkkid/checkkid/core/attendance"
	inmemdb "github.com/checkkid/checkkid/storage/database/inmem"
)

func setup(t *testing.T) *commandLine {
	t.Helper()
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("inmemdb.Open() failed, %v", err)
	}
	return &commandLine{
		db:         &sqlx.DB{},
		childRepo:  inmemdb.NewChildRepository(db),
		recordRepo: inmemdb.NewRecordRepository(db),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCliTests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() expected an error, got nil")
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
	}
	runCliTests(t, cli, tests)
}

func Test_commandLine_addChild(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addchild"}, wantErr: errHelp},
		{name: "name but no kindergarten", args: []string{"addchild", "-name", "Ola"}, wantErr: errHelp},
		{name: "ok", args: []string{"addchild", "-name", "Ola Nordmann", "-kindergarten", "kg1"}},
		{name: "ok with email", args: []string{"addchild", "-name", "Kari Nordmann", "-kindergarten", "kg1", "-email", "mor@test.no"}},
	}
	runCliTests(t, cli, tests)

	children, err := cli.childRepo.QueryChildrenByKindergarten(context.Background(), "kg1")
	if err != nil {
		t.Fatalf("QueryChildrenByKindergarten() failed, %v", err)
	}
	if len(children) != 2 {
		t.Errorf("expected 2 children on roster, got %d", len(children))
	}
}

func Test_commandLine_mkToken(t *testing.T) {
	cli := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"mktoken"}, wantErr: errHelp},
		{name: "missing role", args: []string{"mktoken", "-id", "a1", "-name", "Mx Staff"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"mktoken", "-id", "a1", "-name", "Mx Staff", "-role", "Boss"}, wantErrStr: "unknown role \"Boss\""},
		{name: "staff token", args: []string{"mktoken", "-id", "a1", "-name", "Mx Staff", "-role", "Staff", "-kindergarten", "kg1"}},
		{name: "parent token", args: []string{"mktoken", "-id", "p1", "-name", "Far Nordmann", "-role", "Parent"}},
	}
	runCliTests(t, cli, tests)
}

func Test_commandLine_report(t *testing.T) {
	cli := setup(t)

	now := time.Now().UTC()
	rec := attendance.Record{
		ID:        "rec1",
		ChildID:   "c1",
		Kind:      attendance.KindAttendance,
		CheckInAt: now,
		DropOff:   attendance.Actor{ID: "p1", Type: attendance.PersonParent, Name: "Far Nordmann"},
		CreatedAt: now,
	}
	if _, err := cli.recordRepo.CreateRecord(context.Background(), rec); err != nil {
		t.Fatalf("CreateRecord() failed, %v", err)
	}

	from := now.Add(-24 * time.Hour).Format(reportDateLayout)
	to := now.Add(24 * time.Hour).Format(reportDateLayout)

	tests := []cliTest{
		{name: "no args", args: []string{"report"}, wantErr: errHelp},
		{name: "from but no to", args: []string{"report", "-from", from}, wantErr: errHelp},
		{name: "bad from date", args: []string{"report", "-from", "lol", "-to", to}, wantErrStr: "invalid -from date \"lol\""},
		{name: "bad to date", args: []string{"report", "-from", from, "-to", "lol"}, wantErrStr: "invalid -to date \"lol\""},
		{name: "period report", args: []string{"report", "-from", from, "-to", to}},
		{name: "staff activity", args: []string{"report", "-staff", "s1"}},
	}
	runCliTests(t, cli, tests)
}
