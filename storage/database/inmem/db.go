package inmemdb

import (
	"sync"

	"github.com/nexus-reussite/backend/core/conference"
	"github.com/nexus-reussite/backend/core/content"
	"github.com/nexus-reussite/backend/core/enrollment"
	"github.com/nexus-reussite/backend/core/user"
)

// DB is an in-memory database used by tests and local development. Each table
// carries its own lock; repositories serialize all mutations through it.
type (
	DB struct {
		user       *userTable
		brick      *brickTable
		formula    *formulaTable
		enrollment *enrollmentTable
		room       *roomTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	brickTable struct {
		sync.RWMutex
		table map[string]*content.Brick
	}

	formulaTable struct {
		sync.RWMutex
		table map[string]*enrollment.Formula
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enrollment.Enrollment
	}

	roomTable struct {
		sync.RWMutex
		table map[string]*conference.Room
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		brick:      &brickTable{table: make(map[string]*content.Brick)},
		formula:    &formulaTable{table: make(map[string]*enrollment.Formula)},
		enrollment: &enrollmentTable{table: make(map[string]*enrollment.Enrollment)},
		room:       &roomTable{table: make(map[string]*conference.Room)},
	}
	return db, nil
}

// Reset drops all rows; test isolation helper.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.brick.Lock()
	db.brick.table = make(map[string]*content.Brick)
	db.brick.Unlock()

	db.formula.Lock()
	db.formula.table = make(map[string]*enrollment.Formula)
	db.formula.Unlock()

	db.enrollment.Lock()
	db.enrollment.table = make(map[string]*enrollment.Enrollment)
	db.enrollment.Unlock()

	db.room.Lock()
	db.room.table = make(map[string]*conference.Room)
	db.room.Unlock()
}
