package course

import (
	"time"

	"github.com/kayembe/elimu/core"
)

// Statuses
const (
	StatusDraft     = "Draft"
	StatusPublished = "Published"
	StatusArchived  = "Archived"
)

// Difficulties
const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// Lecture types
const (
	LectureVideo        = "video"
	LectureTopicContent = "topic-content"
	LecturePDF          = "pdf"
)

type (
	Provider struct {
		Name    string `json:"name"`
		LogoURL string `json:"logo_url"`
	}

	Lecture struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description,omitempty"`
		Type        string `json:"type"`
		Duration    string `json:"duration"` // e.g. "12 min"
		VideoURL    string `json:"video_url,omitempty"`
		TextContent string `json:"text_content,omitempty"`
		PDFURL      string `json:"pdf_url,omitempty"`
		Order       int    `json:"order"`
	}

	Section struct {
		ID       string    `json:"id"`
		Title    string    `json:"title"`
		Lectures []Lecture `json:"lectures"`
		Order    int       `json:"order"`
	}

	Curriculum struct {
		TotalSections int       `json:"total_sections"`
		TotalLectures int       `json:"total_lectures"`
		TotalDuration string    `json:"total_duration"`
		Sections      []Section `json:"sections"`
	}

	Course struct {
		ID              string     `json:"id"`
		Title           string     `json:"title"`
		Subtitle        string     `json:"subtitle"`
		Description     string     `json:"description,omitempty"`
		AuthorID        string     `json:"author_id"`
		Provider        Provider   `json:"provider"`
		ThumbnailURL    string     `json:"thumbnail_url"`
		Rating          float64    `json:"rating"` // 0 - 5
		ReviewCount     int        `json:"review_count"`
		EnrollmentCount int        `json:"enrollment_count"`
		Difficulty      string     `json:"difficulty"`
		DurationText    string     `json:"duration_text"` // free-form, e.g. "18h 30m" or "3 months"
		Category        string     `json:"category,omitempty"`
		Price           float64    `json:"price"`
		Skills          []string   `json:"skills"`
		WhatYoullLearn  []string   `json:"what_youll_learn,omitempty"`
		Requirements    []string   `json:"requirements,omitempty"`
		Status          string     `json:"status"`
		Curriculum      Curriculum `json:"curriculum"`
		PublishedDate   time.Time  `json:"published_date"`
		CreatedAt       time.Time  `json:"created_at"` // UTC
		UpdatedAt       time.Time  `json:"updated_at"` // UTC
	}

	// SearchFilters narrows down a catalog search. All fields are independently
	// optional; an absent field (or empty set) imposes no constraint.
	SearchFilters struct {
		Duration      []string `json:"duration,omitempty" query:"duration"`
		Rating        float64  `json:"rating,omitempty" query:"rating"`
		PublishedDate string   `json:"published_date,omitempty" query:"published"`
		CourseLevel   []string `json:"course_level,omitempty" query:"level"`
		Author        []string `json:"author,omitempty" query:"author"`
		Topics        []string `json:"topics,omitempty" query:"topic"`
	}

	// SearchResult is one page of a filtered, sorted catalog search.
	SearchResult struct {
		Courses       []Course `json:"courses"`
		TotalCount    int      `json:"total_count"`
		FilteredCount int      `json:"filtered_count"`
	}

	// FilterOption is one selectable facet value with its course count.
	FilterOption struct {
		Label string `json:"label"`
		Value string `json:"value"`
		Count int    `json:"count"`
	}

	// FilterCounts holds per-facet option counts computed against the
	// query-filtered (not facet-filtered) course set.
	FilterCounts struct {
		Duration      []FilterOption `json:"duration"`
		Rating        []FilterOption `json:"rating"`
		PublishedDate []FilterOption `json:"published_date"`
		CourseLevel   []FilterOption `json:"course_level"`
		Author        []FilterOption `json:"author"`
		Topics        []FilterOption `json:"topics"`
	}

	// Enrollment records a user's membership in a course along with the
	// completion percent mirrored from the progress tracker.
	Enrollment struct {
		CourseID        string `json:"course_id"`
		ProgressPercent int    `json:"progress_percent"`
	}

	UserStats struct {
		MyGoals            int `json:"my_goals"`
		EnrolledCourses    int `json:"enrolled_courses"`
		CertificatesEarned int `json:"certificates_earned"`
	}

	CourseWithProgress struct {
		Course
		ProgressPercent int  `json:"progress_percent"`
		IsComplete      bool `json:"is_complete"`
	}
)

// NewLecture is one lecture entry of the course creation wizard.
type NewLecture struct {
	Title        string `json:"title" validate:"required,min=3"`
	Description  string `json:"description" validate:"required,min=10"`
	Type         string `json:"type" validate:"required,oneof=video topic-content pdf"`
	DurationMins int    `json:"duration_mins" validate:"required,min=1"`
	VideoURL     string `json:"video_url"`
	TextContent  string `json:"text_content"`
	PDFURL       string `json:"pdf_url"`
}

type NewSection struct {
	Title    string       `json:"title" validate:"required"`
	Lectures []NewLecture `json:"lectures" validate:"dive"`
}

// NewCourse is the full course creation wizard payload: basic details,
// content sections and the overview step.
type NewCourse struct {
	Title                string       `json:"title" validate:"required,min=5"`
	Description          string       `json:"description" validate:"required,min=20"`
	ThumbnailURL         string       `json:"thumbnail_url"`
	Sections             []NewSection `json:"sections" validate:"dive"`
	Level                string       `json:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	WhatYoullLearn       []string     `json:"what_youll_learn" validate:"required,min=1,dive,required"`
	Skills               []string     `json:"skills" validate:"required,min=1,dive,required"`
	Prerequisites        []string     `json:"prerequisites"`
	SoftwareRequirements []string     `json:"software_requirements"`
	Price                float64      `json:"price" validate:"min=0"`
	Category             string       `json:"category" validate:"required"`
}

// AuthorQuery narrows down an author's own course listing.
type AuthorQuery struct {
	Status string `query:"status"`
	Search string `query:"search"`
	SortBy string `query:"sort"`
}

func (q *AuthorQuery) Clean() {
	q.Status = core.CleanString(q.Status)
	q.Search = core.CleanString(q.Search)
}
