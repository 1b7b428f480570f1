package echoapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kayembe/elimu/core/banner"
	"github.com/kayembe/elimu/core/user"
)

func Test_bannerApi_active(t *testing.T) {
	app := initApp()

	admin := createUser(t, app.userRepo, "The Admin", "theadmin", "admin@test.cd", "LeSecret#1", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	create := func(body []byte) banner.Banner {
		req, rec := newAuthRequest(http.MethodPost, "/v1/banners", adminToken, body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var bnr banner.Banner
		if err := json.Unmarshal(rec.Body.Bytes(), &bnr); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		return bnr
	}

	visible := create(marchallObj(t, banner.NewBanner{
		Title: "Black Friday", ImageURL: "https://img.test/bf.png", Visibility: banner.VisibilityNow,
	}))
	create(marchallObj(t, banner.NewBanner{
		Title: "Hidden Draft", ImageURL: "https://img.test/draft.png", Visibility: banner.VisibilityDraft,
	}))
	scheduled := create(marchallObj(t, banner.NewBanner{
		Title: "Back To School", ImageURL: "https://img.test/bts.png",
		Visibility: banner.VisibilityScheduled, ScheduleDate: &past,
	}))
	create(marchallObj(t, banner.NewBanner{
		Title: "Not Yet", ImageURL: "https://img.test/later.png",
		Visibility: banner.VisibilityScheduled, ScheduleDate: &future,
	}))
	create(marchallObj(t, banner.NewBanner{
		Title: "Long Gone", ImageURL: "https://img.test/gone.png",
		Visibility: banner.VisibilityNow, ExpiryDate: &past,
	}))

	req, rec := newRequest(http.MethodGet, "/v1/banners/active")
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	var banners []banner.Banner
	if err := json.Unmarshal(rec.Body.Bytes(), &banners); err != nil {
		t.Fatalf("unmarshalling response failed: %v", err)
	}
	ids := make([]string, 0, len(banners))
	for _, bnr := range banners {
		ids = append(ids, bnr.ID)
	}
	assert.Equal(t, []string{visible.ID, scheduled.ID}, ids) // carousel order
}

func Test_bannerApi_adminOnly(t *testing.T) {
	app := initApp()

	learner := createUser(t, app.userRepo, "A Learner", "alearner", "learner@test.cd", "LeSecret#1", []string{user.RoleLearner}, true)
	learnerToken := getToken(t, learner)

	tests := []httpTest{
		{name: "query", method: http.MethodGet, path: "/v1/banners"},
		{name: "create", method: http.MethodPost, path: "/v1/banners", body: []byte(`{}`)},
		{name: "reorder", method: http.MethodPost, path: "/v1/banners/reorder", body: []byte(`{}`)},
		{name: "upload", method: http.MethodPost, path: "/v1/banners/upload", body: []byte(`{}`)},
		{name: "update", method: http.MethodPut, path: "/v1/banners/some-id", body: []byte(`{}`)},
		{name: "destroy", method: http.MethodDelete, path: "/v1/banners/some-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name+" without token", func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
		})
		t.Run(tt.name+" as learner", func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, learnerToken, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
		})
	}
}

func Test_bannerApi_crud(t *testing.T) {
	app := initApp()

	admin := createUser(t, app.userRepo, "The Admin", "theadmin", "admin@test.cd", "LeSecret#1", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	t.Run("create validates payload", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/banners", adminToken,
			[]byte(`{"title": "No Image", "visibility": "now"}`))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("scheduled banners need a schedule date", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/banners", adminToken,
			[]byte(`{"title": "No Date", "image_url": "https://img.test/x.png", "visibility": "scheduled"}`))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"schedule_date": "A schedule date is required for scheduled banners"}),
		}, rec)
	})

	var bnr banner.Banner

	t.Run("create", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/banners", adminToken,
			[]byte(`{"title": "New Course Alert", "image_url": "https://img.test/alert.png", "target_url": "https://elimu.test/courses", "visibility": "now"}`))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &bnr); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.NotEmpty(t, bnr.ID)
		assert.Equal(t, 0, bnr.Order)
		assert.True(t, bnr.IsActive) // enabled by default
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/banners/"+bnr.ID, adminToken)
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, bnr)}, rec)
	})

	t.Run("partial update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/banners/"+bnr.ID, adminToken,
			[]byte(`{"title": "Old Course Alert"}`))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated banner.Banner
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, "Old Course Alert", updated.Title)
		assert.Equal(t, bnr.ImageURL, updated.ImageURL) // untouched
	})

	t.Run("disable pulls the banner off the carousel", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/banners/"+bnr.ID, adminToken, []byte(`{"is_active": false}`))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var updated banner.Banner
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.False(t, updated.IsActive)

		req, rec = newRequest(http.MethodGet, "/v1/banners/active")
		app.server.ServeHTTP(rec, req)
		var active []banner.Banner
		if err := json.Unmarshal(rec.Body.Bytes(), &active); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Empty(t, active)
	})

	t.Run("update unknown banner", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/banners/nope", adminToken, []byte(`{"title": "Ghost"}`))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("destroy", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/banners/"+bnr.ID, adminToken)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		req, rec = newAuthRequest(http.MethodGet, "/v1/banners/"+bnr.ID, adminToken)
		app.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_bannerApi_reorder(t *testing.T) {
	app := initApp()

	admin := createUser(t, app.userRepo, "The Admin", "theadmin", "admin@test.cd", "LeSecret#1", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	var ids []string
	for _, title := range []string{"First", "Second", "Third"} {
		req, rec := newAuthRequest(http.MethodPost, "/v1/banners", adminToken,
			[]byte(`{"title": "`+title+` Banner", "image_url": "https://img.test/b.png", "visibility": "now"}`))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var bnr banner.Banner
		if err := json.Unmarshal(rec.Body.Bytes(), &bnr); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		ids = append(ids, bnr.ID)
	}

	t.Run("empty id list rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/banners/reorder", adminToken, []byte(`{"ids": []}`))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"ids": "At least one banner id is required"}),
		}, rec)
	})

	t.Run("reorder moves the last banner first", func(t *testing.T) {
		body := marchallObj(t, ReorderRequest{IDs: []string{ids[2], ids[0], ids[1]}})
		req, rec := newAuthRequest(http.MethodPost, "/v1/banners/reorder", adminToken, body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, "/v1/banners", adminToken)
		app.server.ServeHTTP(rec, req)
		var banners []banner.Banner
		if err := json.Unmarshal(rec.Body.Bytes(), &banners); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		got := make([]string, 0, len(banners))
		for _, bnr := range banners {
			got = append(got, bnr.ID)
		}
		assert.Equal(t, []string{ids[2], ids[0], ids[1]}, got)
	})
}

func Test_bannerApi_upload(t *testing.T) {
	app := initApp()

	admin := createUser(t, app.userRepo, "The Admin", "theadmin", "admin@test.cd", "LeSecret#1", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	t.Run("filename required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/banners/upload", adminToken, []byte(`{}`))
		app.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"filename": "A file name is required"}),
		}, rec)
	})

	t.Run("same filename maps to the same image", func(t *testing.T) {
		var urls []string
		for i := 0; i < 2; i++ {
			req, rec := newAuthRequest(http.MethodPost, "/v1/banners/upload", adminToken, []byte(`{"filename": "promo.png"}`))
			app.server.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
			}
			var res UploadResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("unmarshalling response failed: %v", err)
			}
			urls = append(urls, res.ImageURL)
		}
		assert.Equal(t, urls[0], urls[1])
		assert.True(t, strings.HasPrefix(urls[0], "https://"))
	})
}
