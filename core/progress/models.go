package progress

import "time"

type (
	// LectureProgress is one lecture's playback state inside a course.
	LectureProgress struct {
		LectureID      string    `json:"lecture_id"`
		Completed      bool      `json:"completed"`
		WatchedSeconds int       `json:"watched_seconds"`
		TotalDuration  int       `json:"total_duration"` // seconds, as reported by the player
		LastWatchedAt  time.Time `json:"last_watched_at"`
	}

	// UserCourseProgress is the full progress record of one user on one
	// course, keyed by lecture ID.
	UserCourseProgress struct {
		CourseID            string                     `json:"course_id"`
		UserID              string                     `json:"user_id"`
		Lectures            map[string]LectureProgress `json:"lectures"`
		LastAccessedLecture string                     `json:"last_accessed_lecture"`
		OverallProgress     int                        `json:"overall_progress"` // 0 - 100
		UpdatedAt           time.Time                  `json:"updated_at"`
	}

	// ProgressUpdate is a partial update for a single lecture; nil fields
	// leave the stored value untouched.
	ProgressUpdate struct {
		Completed      *bool `json:"completed"`
		WatchedSeconds *int  `json:"watched_seconds"`
		TotalDuration  *int  `json:"total_duration"`
	}
)

func newUserCourseProgress(courseID, userID string) UserCourseProgress {
	return UserCourseProgress{
		CourseID: courseID,
		UserID:   userID,
		Lectures: make(map[string]LectureProgress),
	}
}

func (ucp UserCourseProgress) completedCount() int {
	n := 0
	for _, lp := range ucp.Lectures {
		if lp.Completed {
			n++
		}
	}
	return n
}
