package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/kayembe/elimu/core"
)

var nowFunc = time.Now // mockable

type Service struct {
	store core.KeyValueStore
}

func NewService(store core.KeyValueStore) *Service {
	return &Service{store: store}
}

func storeKey(courseID, userID string) string {
	return fmt.Sprintf("course_progress_%s_%s", courseID, userID)
}

// Get loads the user's progress on a course. A missing or unreadable record
// degrades to a fresh one; Get never fails.
func (svc *Service) Get(ctx context.Context, courseID, userID string) UserCourseProgress {
	raw, err := svc.store.Get(ctx, storeKey(courseID, userID))
	if err != nil {
		return newUserCourseProgress(courseID, userID)
	}
	var ucp UserCourseProgress
	if err = json.Unmarshal(raw, &ucp); err != nil {
		return newUserCourseProgress(courseID, userID)
	}
	if ucp.Lectures == nil {
		ucp.Lectures = make(map[string]LectureProgress)
	}
	return ucp
}

// Update applies a partial update to one lecture and recomputes the overall
// percentage over the recorded lectures. Concurrent updates are
// last-write-wins.
func (svc *Service) Update(ctx context.Context, courseID, userID, lectureID string, upd ProgressUpdate) (UserCourseProgress, error) {
	ucp := svc.Get(ctx, courseID, userID)

	lp := ucp.Lectures[lectureID]
	lp.LectureID = lectureID
	if upd.Completed != nil {
		lp.Completed = *upd.Completed
	}
	if upd.WatchedSeconds != nil {
		lp.WatchedSeconds = *upd.WatchedSeconds
	}
	if upd.TotalDuration != nil {
		lp.TotalDuration = *upd.TotalDuration
	}
	lp.LastWatchedAt = nowFunc().UTC()
	ucp.Lectures[lectureID] = lp

	ucp.LastAccessedLecture = lectureID
	ucp.UpdatedAt = lp.LastWatchedAt
	ucp.OverallProgress = 0
	if recorded := len(ucp.Lectures); recorded > 0 {
		ucp.OverallProgress = int(math.Round(float64(ucp.completedCount()) / float64(recorded) * 100))
	}

	raw, err := json.Marshal(ucp)
	if err != nil {
		return UserCourseProgress{}, errors.Wrap(err, "encoding progress record")
	}
	if err = svc.store.Set(ctx, storeKey(courseID, userID), raw); err != nil {
		return UserCourseProgress{}, errors.Wrap(err, "persisting progress record")
	}
	return ucp, nil
}

// MarkComplete marks one lecture as completed; duration fields are untouched.
func (svc *Service) MarkComplete(ctx context.Context, courseID, userID, lectureID string) (UserCourseProgress, error) {
	completed := true
	return svc.Update(ctx, courseID, userID, lectureID, ProgressUpdate{Completed: &completed})
}
