package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/composer"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/user"
)

type (
	DB struct {
		user     *userTable
		course   *courseTable
		category *categoryTable
		draft    *draftTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	categoryTable struct {
		sync.RWMutex
		table map[string]*course.Category
	}

	draftTable struct {
		sync.RWMutex
		table      map[string]*composer.Draft
		submitting map[string]bool
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:     &userTable{table: make(map[string]*user.User)},
		course:   &courseTable{table: make(map[string]*course.Course)},
		category: &categoryTable{table: make(map[string]*course.Category)},
		draft: &draftTable{
			table:      make(map[string]*composer.Draft),
			submitting: make(map[string]bool),
		},
	}
	return db, nil
}
