package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/checkkid/checkkid/core/attendance"
	"github.com/checkkid/checkkid/core/child"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         *sqlx.DB
	childRepo  child.Repository
	recordRepo attendance.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [args] - run DB migrations (up, down, status, ...)")
	fmt.Println("  addchild -name NAME -kindergarten ID [-group ID] [-email PARENT_EMAIL] - register a child on the roster")
	fmt.Println("  mktoken -id ACTOR_ID -name NAME -role Parent|Staff|Other [-kindergarten ID] - mint a dev API token")
	fmt.Println("  report -from DATE -to DATE | -staff STAFF_ID - print attendance records (dates as 2006-01-02)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addChildCmd := flag.NewFlagSet("addchild", flag.ExitOnError)
	addChildName := addChildCmd.String("name", "", "The child's display name.")
	addChildKg := addChildCmd.String("kindergarten", "", "The kindergarten the child attends.")
	addChildGroup := addChildCmd.String("group", "", "The child's group within the kindergarten.")
	addChildEmail := addChildCmd.String("email", "", "The parent's notification email address.")

	mkTokenCmd := flag.NewFlagSet("mktoken", flag.ExitOnError)
	mkTokenID := mkTokenCmd.String("id", "", "The actor's id (token subject).")
	mkTokenName := mkTokenCmd.String("name", "", "The actor's display name.")
	mkTokenRole := mkTokenCmd.String("role", "", "The actor's role: Parent, Staff or Other.")
	mkTokenKg := mkTokenCmd.String("kindergarten", "", "The kindergarten scope for staff tokens.")

	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	reportFrom := reportCmd.String("from", "", "Period start date (inclusive), 2006-01-02.")
	reportTo := reportCmd.String("to", "", "Period end date (exclusive), 2006-01-02.")
	reportStaff := reportCmd.String("staff", "", "Staff member id for an activity audit instead of a period report.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addchild":
		if err := addChildCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addChildName == "" || *addChildKg == "" {
			addChildCmd.Usage()
			return errHelp
		}
		return cli.addChild(*addChildName, *addChildKg, *addChildGroup, *addChildEmail)
	case "mktoken":
		if err := mkTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *mkTokenID == "" || *mkTokenName == "" || *mkTokenRole == "" {
			mkTokenCmd.Usage()
			return errHelp
		}
		return cli.mkToken(*mkTokenID, *mkTokenName, *mkTokenRole, *mkTokenKg)
	case "report":
		if err := reportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *reportStaff == "" && (*reportFrom == "" || *reportTo == "") {
			reportCmd.Usage()
			return errHelp
		}
		return cli.report(*reportFrom, *reportTo, *reportStaff)
	default:
		cli.printUsage()
		return errHelp
	}
}
