package course_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kayembe/elimu/core/course"
	inmemdb "github.com/kayembe/elimu/storage/database/inmem"
)

func TestServiceCreateCopiesRequirements(t *testing.T) {
	db := inmemdb.NewDB()
	svc := course.NewService(inmemdb.NewCourseRepository(db), inmemdb.NewEnrollmentRepository(db))

	prereqs := make([]string, 1, 4) // spare capacity to surface aliasing
	prereqs[0] = "Basic Go"
	nc := course.NewCourse{
		Title:                "Go Fundamentals",
		Description:          "A gentle introduction to the Go programming language.",
		Level:                "Beginner",
		Category:             "Programming",
		WhatYoullLearn:       []string{"Write idiomatic Go"},
		Skills:               []string{"Go"},
		Prerequisites:        prereqs,
		SoftwareRequirements: []string{"Go 1.21"},
	}

	crs, err := svc.Create(context.Background(), "author1", course.Provider{Name: "anauthor"}, nc, false)
	assert.NoError(t, err)
	assert.Equal(t, []string{"Basic Go", "Go 1.21"}, crs.Requirements)

	// the course keeps its own copy of the payload slices
	crs.Requirements[0] = "changed"
	assert.Equal(t, "Basic Go", prereqs[0])
}
