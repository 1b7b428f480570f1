package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kayembe/elimu/core/course"
	"github.com/kayembe/elimu/core/progress"
	"github.com/kayembe/elimu/core/user"
)

func Test_progressApi(t *testing.T) {
	app := initApp()

	author := createUser(t, app.userRepo, "An Author", "anauthor", "author@test.cd", "LeSecret#1", []string{user.RoleAuthor}, true)
	learner := createUser(t, app.userRepo, "A Learner", "alearner", "learner@test.cd", "LeSecret#1", []string{user.RoleLearner}, true)
	learnerToken := getToken(t, learner)

	crs := createCourse(t, app.courseRepo, "Go Fundamentals", author.ID, course.StatusPublished, time.Now().UTC())

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/progress")
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("fresh record before any playback", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/progress", learnerToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var ucp progress.UserCourseProgress
		if err := json.Unmarshal(rec.Body.Bytes(), &ucp); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, crs.ID, ucp.CourseID)
		assert.Equal(t, learner.ID, ucp.UserID)
		assert.Empty(t, ucp.Lectures)
		assert.Equal(t, 0, ucp.OverallProgress)
	})

	t.Run("partial playback update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+crs.ID+"/lectures/lec1/progress", learnerToken,
			[]byte(`{"watched_seconds": 42, "total_duration": 300}`))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var ucp progress.UserCourseProgress
		if err := json.Unmarshal(rec.Body.Bytes(), &ucp); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, 42, ucp.Lectures["lec1"].WatchedSeconds)
		assert.Equal(t, 300, ucp.Lectures["lec1"].TotalDuration)
		assert.False(t, ucp.Lectures["lec1"].Completed)
		assert.Equal(t, "lec1", ucp.LastAccessedLecture)
		assert.Equal(t, 0, ucp.OverallProgress)
	})

	t.Run("completing the only recorded lecture", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/lectures/lec1/complete", learnerToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var ucp progress.UserCourseProgress
		if err := json.Unmarshal(rec.Body.Bytes(), &ucp); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.True(t, ucp.Lectures["lec1"].Completed)
		assert.Equal(t, 42, ucp.Lectures["lec1"].WatchedSeconds) // earlier playback survives
		// the percent runs over recorded lectures, and lec1 is the only record
		assert.Equal(t, 100, ucp.OverallProgress)

		// the enrollment mirror is kept in sync
		enrs, err := app.enrRepo.QueryUserEnrollments(context.Background(), learner.ID)
		if err != nil {
			t.Fatalf("QueryUserEnrollments() failed: %v", err)
		}
		if len(enrs) != 1 || enrs[0].ProgressPercent != 100 {
			t.Errorf("unexpected enrollments: %+v", enrs)
		}
	})

	t.Run("starting another lecture drops the percent", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+crs.ID+"/lectures/lec2/progress", learnerToken,
			[]byte(`{"watched_seconds": 5}`))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var ucp progress.UserCourseProgress
		if err := json.Unmarshal(rec.Body.Bytes(), &ucp); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.False(t, ucp.Lectures["lec2"].Completed)
		assert.Equal(t, 50, ucp.OverallProgress) // 1 completed of 2 records
	})

	t.Run("completing the whole course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/lectures/lec2/complete", learnerToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var ucp progress.UserCourseProgress
		if err := json.Unmarshal(rec.Body.Bytes(), &ucp); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, 100, ucp.OverallProgress)
	})

	t.Run("unknown course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/nope/lectures/lec1/progress", learnerToken, []byte(`{}`))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("unknown lecture", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/lectures/nope/complete", learnerToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("records are per user", func(t *testing.T) {
		otherToken := getToken(t, author)
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/progress", otherToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		var ucp progress.UserCourseProgress
		if err := json.Unmarshal(rec.Body.Bytes(), &ucp); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Empty(t, ucp.Lectures)
	})
}

func Test_dashboardApi(t *testing.T) {
	app := initApp()

	author := createUser(t, app.userRepo, "An Author", "anauthor", "author@test.cd", "LeSecret#1", []string{user.RoleAuthor}, true)
	learner := createUser(t, app.userRepo, "A Learner", "alearner", "learner@test.cd", "LeSecret#1", []string{user.RoleLearner}, true)
	learnerToken := getToken(t, learner)

	goCrs := createCourse(t, app.courseRepo, "Go Fundamentals", author.ID, course.StatusPublished, time.Now().UTC())
	pyCrs := createCourse(t, app.courseRepo, "Python Basics", author.ID, course.StatusPublished, time.Now().UTC())

	mustUpsert := func(enr course.Enrollment) {
		if err := app.enrRepo.UpsertEnrollment(context.Background(), learner.ID, enr); err != nil {
			t.Fatalf("UpsertEnrollment() failed: %v", err)
		}
	}
	mustUpsert(course.Enrollment{CourseID: goCrs.ID, ProgressPercent: 100})
	mustUpsert(course.Enrollment{CourseID: pyCrs.ID, ProgressPercent: 30})

	t.Run("stats", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/me/stats", learnerToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, course.UserStats{MyGoals: 3, EnrolledCourses: 2, CertificatesEarned: 1}),
		}, rec)
	})

	t.Run("enrollments", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/me/enrollments", learnerToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var enrs []course.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enrs); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.ElementsMatch(t, []course.Enrollment{
			{CourseID: goCrs.ID, ProgressPercent: 100},
			{CourseID: pyCrs.ID, ProgressPercent: 30},
		}, enrs)
	})

	t.Run("last viewed comes most progressed first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/me/last-viewed", learnerToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var viewed []course.CourseWithProgress
		if err := json.Unmarshal(rec.Body.Bytes(), &viewed); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		if len(viewed) != 2 {
			t.Fatalf("expected 2 courses; got %d", len(viewed))
		}
		assert.Equal(t, goCrs.ID, viewed[0].Course.ID)
		assert.True(t, viewed[0].IsComplete)
		assert.Equal(t, pyCrs.ID, viewed[1].Course.ID)
		assert.False(t, viewed[1].IsComplete)
	})

	t.Run("dashboard aggregate", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/me/dashboard", learnerToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var res DashboardResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, learner.ID, res.User.ID)
		assert.Equal(t, 2, res.Stats.EnrolledCourses)
		assert.Len(t, res.LastViewed, 2)
		assert.Len(t, res.NewlyLaunched, 2)
		assert.Empty(t, res.Banners)
	})

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/me/dashboard")
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})
}
