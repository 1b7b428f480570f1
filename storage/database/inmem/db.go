package inmemdb

import (
	"sync"

	"github.com/kayembe/elimu/core/banner"
	"github.com/kayembe/elimu/core/course"
	"github.com/kayembe/elimu/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		mutex sync.RWMutex
		table map[string]*course.Course
	}

	// enrollmentTable maps userID -> courseID -> enrollment.
	enrollmentTable struct {
		mutex sync.RWMutex
		table map[string]map[string]course.Enrollment
	}

	bannerTable struct {
		mutex sync.RWMutex
		table map[string]*banner.Banner
	}

	DB struct {
		user       *userTable
		course     *courseTable
		enrollment *enrollmentTable
		banner     *bannerTable
	}
)

func NewDB() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		course:     &courseTable{table: make(map[string]*course.Course)},
		enrollment: &enrollmentTable{table: make(map[string]map[string]course.Enrollment)},
		banner:     &bannerTable{table: make(map[string]*banner.Banner)},
	}
}
