package inmemdb

import (
	"sync"

	"github.com/checkkid/checkkid/core/attendance"
	"github.com/checkkid/checkkid/core/child"
)

type (
	DB struct {
		record *recordTable
		child  *childTable
	}

	recordTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}

	childTable struct {
		sync.RWMutex
		table map[string]*child.Child
	}
)

func Open() (*DB, error) {
	db := &DB{
		record: &recordTable{table: make(map[string]*attendance.Record)},
		child:  &childTable{table: make(map[string]*child.Child)},
	}
	return db, nil
}
