package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core/course"
)

type courseRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Subtitle        string         `db:"subtitle"`
	Description     string         `db:"description"`
	AuthorID        string         `db:"author_id"`
	Provider        types.JSONText `db:"provider"`
	ThumbnailURL    string         `db:"thumbnail_url"`
	Rating          float64        `db:"rating"`
	ReviewCount     int            `db:"review_count"`
	EnrollmentCount int            `db:"enrollment_count"`
	Difficulty      string         `db:"difficulty"`
	DurationText    string         `db:"duration_text"`
	Category        string         `db:"category"`
	Price           float64        `db:"price"`
	Skills          types.JSONText `db:"skills"`
	WhatYoullLearn  types.JSONText `db:"what_youll_learn"`
	Requirements    types.JSONText `db:"requirements"`
	Status          string         `db:"status"`
	Curriculum      types.JSONText `db:"curriculum"`
	PublishedDate   time.Time      `db:"published_date"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func newCourseRow(crs course.Course) (courseRow, error) {
	row := courseRow{
		ID:              crs.ID,
		Title:           crs.Title,
		Subtitle:        crs.Subtitle,
		Description:     crs.Description,
		AuthorID:        crs.AuthorID,
		ThumbnailURL:    crs.ThumbnailURL,
		Rating:          crs.Rating,
		ReviewCount:     crs.ReviewCount,
		EnrollmentCount: crs.EnrollmentCount,
		Difficulty:      crs.Difficulty,
		DurationText:    crs.DurationText,
		Category:        crs.Category,
		Price:           crs.Price,
		Status:          crs.Status,
		PublishedDate:   crs.PublishedDate,
		CreatedAt:       crs.CreatedAt,
		UpdatedAt:       crs.UpdatedAt,
	}
	for _, enc := range []struct {
		dst *types.JSONText
		src interface{}
	}{
		{&row.Provider, crs.Provider},
		{&row.Skills, sliceOrEmpty(crs.Skills)},
		{&row.WhatYoullLearn, sliceOrEmpty(crs.WhatYoullLearn)},
		{&row.Requirements, sliceOrEmpty(crs.Requirements)},
		{&row.Curriculum, crs.Curriculum},
	} {
		raw, err := json.Marshal(enc.src)
		if err != nil {
			return courseRow{}, errors.Wrap(err, "encoding course")
		}
		*enc.dst = raw
	}
	return row, nil
}

func (row courseRow) toCourse() (course.Course, error) {
	crs := course.Course{
		ID:              row.ID,
		Title:           row.Title,
		Subtitle:        row.Subtitle,
		Description:     row.Description,
		AuthorID:        row.AuthorID,
		ThumbnailURL:    row.ThumbnailURL,
		Rating:          row.Rating,
		ReviewCount:     row.ReviewCount,
		EnrollmentCount: row.EnrollmentCount,
		Difficulty:      row.Difficulty,
		DurationText:    row.DurationText,
		Category:        row.Category,
		Price:           row.Price,
		Status:          row.Status,
		PublishedDate:   row.PublishedDate,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	for _, dec := range []struct {
		src types.JSONText
		dst interface{}
	}{
		{row.Provider, &crs.Provider},
		{row.Skills, &crs.Skills},
		{row.WhatYoullLearn, &crs.WhatYoullLearn},
		{row.Requirements, &crs.Requirements},
		{row.Curriculum, &crs.Curriculum},
	} {
		if len(dec.src) == 0 {
			continue
		}
		if err := json.Unmarshal(dec.src, dec.dst); err != nil {
			return course.Course{}, errors.Wrap(err, "decoding course")
		}
	}
	return crs, nil
}

func sliceOrEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

type courseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	row, err := newCourseRow(crs)
	if err != nil {
		return course.Course{}, err
	}

	q := `
	INSERT INTO course (id, title, subtitle, description, author_id, provider, thumbnail_url,
	                    rating, review_count, enrollment_count, difficulty, duration_text, category,
	                    price, skills, what_youll_learn, requirements, status, curriculum,
	                    published_date, created_at, updated_at)
	VALUES (:id, :title, :subtitle, :description, :author_id, :provider, :thumbnail_url,
	        :rating, :review_count, :enrollment_count, :difficulty, :duration_text, :category,
	        :price, :skills, :what_youll_learn, :requirements, :status, :curriculum,
	        :published_date, :created_at, :updated_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return course.Course{}, errors.Wrap(err, "creating course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	return repo.selectCourses(ctx, `SELECT * FROM course`)
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return row.toCourse()
}

func (repo *courseRepository) QueryCoursesByAuthor(ctx context.Context, authorID string) ([]course.Course, error) {
	return repo.selectCourses(ctx, `SELECT * FROM course WHERE author_id = $1`, authorID)
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	row, err := newCourseRow(crs)
	if err != nil {
		return course.Course{}, err
	}

	q := `
	UPDATE course
	SET title = :title, subtitle = :subtitle, description = :description, provider = :provider,
	    thumbnail_url = :thumbnail_url, rating = :rating, review_count = :review_count,
	    enrollment_count = :enrollment_count, difficulty = :difficulty, duration_text = :duration_text,
	    category = :category, price = :price, skills = :skills, what_youll_learn = :what_youll_learn,
	    requirements = :requirements, status = :status, curriculum = :curriculum,
	    published_date = :published_date, updated_at = :updated_at
	WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return crs, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM course WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	if _, err = repo.db.ExecContext(ctx, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

func (repo *courseRepository) selectCourses(ctx context.Context, q string, args ...interface{}) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		crs, err := row.toCourse()
		if err != nil {
			return nil, err
		}
		courses = append(courses, crs)
	}
	return courses, nil
}

type enrollmentRepository struct {
	db *sqlx.DB
}

func NewEnrollmentRepository(db *sqlx.DB) course.EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) QueryUserEnrollments(ctx context.Context, userID string) ([]course.Enrollment, error) {
	enrs := make([]course.Enrollment, 0)
	q := `SELECT course_id AS "course_id", progress_percent AS "progress_percent" FROM enrollment WHERE user_id = $1`
	rows, err := repo.db.QueryxContext(ctx, q, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var enr course.Enrollment
		var progress int
		if err = rows.Scan(&enr.CourseID, &progress); err != nil {
			return nil, errors.Wrap(err, "scanning enrollment")
		}
		enr.ProgressPercent = progress
		enrs = append(enrs, enr)
	}
	return enrs, errors.Wrap(rows.Err(), "querying enrollments")
}

func (repo *enrollmentRepository) UpsertEnrollment(ctx context.Context, userID string, enr course.Enrollment) error {
	q := `
	INSERT INTO enrollment (user_id, course_id, progress_percent)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, course_id) DO UPDATE SET progress_percent = EXCLUDED.progress_percent`
	_, err := repo.db.ExecContext(ctx, q, userID, enr.CourseID, enr.ProgressPercent)
	return errors.Wrap(err, "upserting enrollment")
}
