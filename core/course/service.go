package course

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core"
)

var (
	// errors
	ErrNotFound = errors.New("course not found")
)

const (
	suggestLimit       = 5
	newlyLaunchedLimit = 6

	// static until goal tracking ships
	defaultGoalCount = 3
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryCoursesByAuthor(ctx context.Context, authorID string) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error
	}

	EnrollmentRepository interface {
		QueryUserEnrollments(ctx context.Context, userID string) ([]Enrollment, error)
		UpsertEnrollment(ctx context.Context, userID string, enr Enrollment) error
	}

	Service struct {
		repo    Repository
		enrRepo EnrollmentRepository
	}
)

func NewService(repo Repository, enrRepo EnrollmentRepository) *Service {
	return &Service{repo: repo, enrRepo: enrRepo}
}

// Catalog returns every published course.
func (svc *Service) Catalog(ctx context.Context) ([]Course, error) {
	all, err := svc.repo.QueryAllCourses(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	published := make([]Course, 0, len(all))
	for _, c := range all {
		if c.Status == StatusPublished {
			published = append(published, c)
		}
	}
	return published, nil
}

func (svc *Service) Search(ctx context.Context, query string, filters SearchFilters, sortBy string, page, pageSize int) (SearchResult, error) {
	catalog, err := svc.Catalog(ctx)
	if err != nil {
		return SearchResult{}, err
	}
	return Search(catalog, query, filters, sortBy, page, pageSize), nil
}

func (svc *Service) FilterCounts(ctx context.Context, query string) (FilterCounts, error) {
	catalog, err := svc.Catalog(ctx)
	if err != nil {
		return FilterCounts{}, err
	}
	return ComputeFilterCounts(catalog, query), nil
}

func (svc *Service) Suggest(ctx context.Context, query string) ([]Course, error) {
	catalog, err := svc.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return Suggest(catalog, query, suggestLimit), nil
}

// NewlyLaunched returns the latest published courses by publishedDate.
func (svc *Service) NewlyLaunched(ctx context.Context) ([]Course, error) {
	catalog, err := svc.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	applySort(catalog, SortLatest)
	if len(catalog) > newlyLaunchedLimit {
		catalog = catalog[:newlyLaunchedLimit]
	}
	return catalog, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

// Create builds a course from the wizard payload. publish controls whether the
// course goes live immediately or is saved as a draft.
func (svc *Service) Create(ctx context.Context, authorID string, provider Provider, nc NewCourse, publish bool) (Course, error) {
	now := time.Now().UTC()

	sections, totalLectures, totalMinutes := buildCurriculumSections(nc.Sections)
	durationText := formatDuration(totalMinutes)

	subtitle := core.Truncate(nc.Description, 100)

	// fresh slice; appending onto the payload's Prerequisites could write
	// into its backing array
	reqs := make([]string, 0, len(nc.Prerequisites)+len(nc.SoftwareRequirements))
	reqs = append(reqs, nc.Prerequisites...)
	reqs = append(reqs, nc.SoftwareRequirements...)

	crs := Course{
		ID:             uuid.NewString(),
		Title:          nc.Title,
		Subtitle:       subtitle,
		Description:    nc.Description,
		AuthorID:       authorID,
		Provider:       provider,
		ThumbnailURL:   nc.ThumbnailURL,
		Difficulty:     nc.Level,
		DurationText:   durationText,
		Category:       nc.Category,
		Price:          nc.Price,
		Skills:         nc.Skills,
		WhatYoullLearn: nc.WhatYoullLearn,
		Requirements:   reqs,
		Status:         StatusDraft,
		Curriculum: Curriculum{
			TotalSections: len(sections),
			TotalLectures: totalLectures,
			TotalDuration: durationText,
			Sections:      sections,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if publish {
		crs.Status = StatusPublished
		crs.PublishedDate = now
	}
	return svc.repo.CreateCourse(ctx, crs)
}

// QueryByAuthor lists an author's own courses for one status tab, narrowed by
// search and ordered by the same sort keys as the catalog.
func (svc *Service) QueryByAuthor(ctx context.Context, authorID string, q AuthorQuery) ([]Course, error) {
	courses, err := svc.repo.QueryCoursesByAuthor(ctx, authorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying author courses")
	}

	matched := make([]Course, 0, len(courses))
	search := strings.ToLower(q.Search)
	for _, c := range courses {
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if search != "" && !matchesQuery(c, search) {
			continue
		}
		matched = append(matched, c)
	}
	applySort(matched, q.SortBy)
	return matched, nil
}

// SetStatus moves a course between Draft, Published and Archived. Publishing
// for the first time stamps publishedDate.
func (svc *Service) SetStatus(ctx context.Context, id, status string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	crs.Status = status
	crs.UpdatedAt = time.Now().UTC()
	if status == StatusPublished && crs.PublishedDate.IsZero() {
		crs.PublishedDate = crs.UpdatedAt
	}
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

// Enroll registers userID on a course, starting at 0%.
func (svc *Service) Enroll(ctx context.Context, userID, courseID string) error {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}

	enrs, err := svc.enrRepo.QueryUserEnrollments(ctx, userID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	for _, enr := range enrs {
		if enr.CourseID == courseID {
			return nil // already enrolled
		}
	}

	if err = svc.enrRepo.UpsertEnrollment(ctx, userID, Enrollment{CourseID: courseID}); err != nil {
		return errors.Wrap(err, "creating enrollment")
	}

	crs.EnrollmentCount++
	crs.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateCourse(ctx, crs)
	return errors.Wrap(err, "updating enrollment count")
}

func (svc *Service) Enrollments(ctx context.Context, userID string) ([]Enrollment, error) {
	return svc.enrRepo.QueryUserEnrollments(ctx, userID)
}

// SetEnrollmentProgress mirrors the progress tracker's completion percent onto
// the user's enrollment so dashboard listings stay in sync.
func (svc *Service) SetEnrollmentProgress(ctx context.Context, userID, courseID string, percent int) error {
	return svc.enrRepo.UpsertEnrollment(ctx, userID, Enrollment{CourseID: courseID, ProgressPercent: percent})
}

func (svc *Service) Stats(ctx context.Context, userID string) (UserStats, error) {
	enrs, err := svc.enrRepo.QueryUserEnrollments(ctx, userID)
	if err != nil {
		return UserStats{}, errors.Wrap(err, "querying enrollments")
	}
	stats := UserStats{
		MyGoals:         defaultGoalCount,
		EnrolledCourses: len(enrs),
	}
	for _, enr := range enrs {
		if enr.ProgressPercent == 100 {
			stats.CertificatesEarned++
		}
	}
	return stats, nil
}

// LastViewed joins the user's enrollments with the catalog, most progressed
// first. Enrollments pointing at removed courses are skipped.
func (svc *Service) LastViewed(ctx context.Context, userID string) ([]CourseWithProgress, error) {
	enrs, err := svc.enrRepo.QueryUserEnrollments(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}

	viewed := make([]CourseWithProgress, 0, len(enrs))
	for _, enr := range enrs {
		crs, err := svc.repo.GetCourseByID(ctx, enr.CourseID)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				continue
			}
			return nil, errors.Wrap(err, "getting enrolled course")
		}
		viewed = append(viewed, CourseWithProgress{
			Course:          crs,
			ProgressPercent: enr.ProgressPercent,
			IsComplete:      enr.ProgressPercent == 100,
		})
	}
	sort.SliceStable(viewed, func(i, j int) bool { return viewed[i].ProgressPercent > viewed[j].ProgressPercent })
	return viewed, nil
}

// GetLecture finds one lecture inside a course's curriculum.
func (svc *Service) GetLecture(ctx context.Context, courseID, lectureID string) (Lecture, error) {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Lecture{}, err
	}
	for _, section := range crs.Curriculum.Sections {
		for _, lecture := range section.Lectures {
			if lecture.ID == lectureID {
				return lecture, nil
			}
		}
	}
	return Lecture{}, ErrNotFound
}

func buildCurriculumSections(newSections []NewSection) (sections []Section, totalLectures, totalMinutes int) {
	sections = make([]Section, 0, len(newSections))
	for i, ns := range newSections {
		section := Section{
			ID:       uuid.NewString(),
			Title:    ns.Title,
			Order:    i,
			Lectures: make([]Lecture, 0, len(ns.Lectures)),
		}
		for j, nl := range ns.Lectures {
			section.Lectures = append(section.Lectures, Lecture{
				ID:          uuid.NewString(),
				Title:       nl.Title,
				Description: nl.Description,
				Type:        nl.Type,
				Duration:    fmt.Sprintf("%d min", nl.DurationMins),
				VideoURL:    nl.VideoURL,
				TextContent: nl.TextContent,
				PDFURL:      nl.PDFURL,
				Order:       j,
			})
			totalMinutes += nl.DurationMins
			totalLectures++
		}
		sections = append(sections, section)
	}
	return sections, totalLectures, totalMinutes
}

func formatDuration(totalMinutes int) string {
	hours := totalMinutes / 60
	minutes := totalMinutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}
