package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kayembe/elimu/core"
	"github.com/kayembe/elimu/core/banner"
	"github.com/kayembe/elimu/core/course"
	"github.com/kayembe/elimu/core/progress"
	"github.com/kayembe/elimu/core/user"
	emailsvc "github.com/kayembe/elimu/services/email"
	inmemdb "github.com/kayembe/elimu/storage/database/inmem"
	"github.com/kayembe/elimu/storage/kv"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

type testApp struct {
	server     Server
	conf       *core.Config
	userRepo   user.Repository
	courseRepo course.Repository
	enrRepo    course.EnrollmentRepository
	bannerRepo banner.Repository

	userSvc     *user.Service
	courseSvc   *course.Service
	progressSvc *progress.Service
	bannerSvc   *banner.Service
}

func newTestConfig() *core.Config {
	return &core.Config{
		AppName:                   "Elimu",
		Env:                       "TEST",
		Debug:                     false,
		TestMode:                  true,
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:4200",
		DefaultFromName:           "Elimu",
		DefaultFromAddr:           "noreply@localhost",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			Host:                       "localhost",
			JWTExpirationDelta:         10 * time.Minute,
			JWTRefreshExpirationDelta:  4 * time.Hour,
			JWTRememberExpirationDelta: 30 * 24 * time.Hour,
		},
	}
}

type testLogger struct {
	std *log.Logger
}

func newTestLogger() core.Logger {
	return &testLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}
}

func (l testLogger) Debug(msg string, args ...interface{}) { l.std.Println(msg, args) }
func (l testLogger) Info(msg string, args ...interface{})  { l.std.Println(msg, args) }
func (l testLogger) Warn(msg string, args ...interface{})  { l.std.Println(msg, args) }
func (l testLogger) Error(msg string, args ...interface{}) { l.std.Println(msg, args) }
func (l testLogger) Fatal(msg string, args ...interface{}) { l.std.Fatalln(msg, args) }

func initApp() *testApp {
	conf := newTestConfig()
	db := inmemdb.NewDB()

	userRepo := inmemdb.NewUserRepository(db)
	courseRepo := inmemdb.NewCourseRepository(db)
	enrRepo := inmemdb.NewEnrollmentRepository(db)
	bannerRepo := inmemdb.NewBannerRepository(db)

	userSvc := user.NewService(userRepo, emailsvc.NewConsoleServiceMock(conf), conf)
	courseSvc := course.NewService(courseRepo, enrRepo)
	progressSvc := progress.NewService(kv.NewInMemStore())
	bannerSvc := banner.NewService(bannerRepo)

	server := NewServer(ServerDeps{
		Conf:        conf,
		Logger:      newTestLogger(),
		UserSvc:     userSvc,
		CourseSvc:   courseSvc,
		ProgressSvc: progressSvc,
		BannerSvc:   bannerSvc,
	})

	return &testApp{
		server:      server,
		conf:        conf,
		userRepo:    userRepo,
		courseRepo:  courseRepo,
		enrRepo:     enrRepo,
		bannerRepo:  bannerRepo,
		userSvc:     userSvc,
		courseSvc:   courseSvc,
		progressSvc: progressSvc,
		bannerSvc:   bannerSvc,
	}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func createUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	joinDate ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(joinDate) > 0 {
		tstamp = joinDate[0].UTC()
	}
	usr := user.User{
		FullName:  name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		JoinDate:  tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createCourse(
	t *testing.T,
	repo course.Repository,
	title, authorID, status string,
	publishedDate time.Time,
	mutate ...func(*course.Course),
) course.Course {
	now := time.Now().UTC()
	crs := course.Course{
		Title:         title,
		Subtitle:      title + " subtitle",
		AuthorID:      authorID,
		Provider:      course.Provider{Name: "Test Academy"},
		Difficulty:    course.DifficultyBeginner,
		DurationText:  "2h 30m",
		Rating:        4.0,
		Status:        status,
		PublishedDate: publishedDate,
		Curriculum: course.Curriculum{
			TotalSections: 1,
			TotalLectures: 2,
			TotalDuration: "2h 30m",
			Sections: []course.Section{
				{
					ID:    "sec1",
					Title: "Getting Started",
					Lectures: []course.Lecture{
						{ID: "lec1", Title: "Intro", Type: course.LectureVideo, Duration: "75 min", VideoURL: "https://vid.test/1"},
						{ID: "lec2", Title: "Setup", Type: course.LectureVideo, Duration: "75 min", VideoURL: "https://vid.test/2", Order: 1},
					},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range mutate {
		m(&crs)
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
