package main

import (
	"context"
	"fmt"

	"github.com/checkkid/checkkid/core/child"
)

// addChild registers a child on the roster and prints the generated id.
func (cli *commandLine) addChild(name, kindergartenID, groupID, parentEmail string) error {
	svc := child.NewService(cli.childRepo)
	c, err := svc.Create(context.Background(), child.NewChild{
		Name:           name,
		KindergartenID: kindergartenID,
		GroupID:        groupID,
		ParentEmail:    parentEmail,
	})
	if err != nil {
		return err
	}
	fmt.Printf("child %q registered: %s\n", c.Name, c.ID)
	return nil
}
