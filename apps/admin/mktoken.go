package main

import (
	"fmt"

	echoapi "github.com/checkkid/checkkid/apps/api/echo"
	"github.com/checkkid/checkkid/core/attendance"
)

// mkToken mints a signed API token for an actor. Identity issuance is
// normally the identity service's job; this exists for dev and support.
func (cli *commandLine) mkToken(id, name, role, kindergartenID string) error {
	switch attendance.PersonType(role) {
	case attendance.PersonParent, attendance.PersonStaff, attendance.PersonOther:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	actor := attendance.Actor{ID: id, Type: attendance.PersonType(role), Name: name}
	token, err := echoapi.GenerateToken(echoapi.GetActorClaims(actor, kindergartenID))
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
