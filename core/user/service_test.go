package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kayembe/elimu/core"
	"github.com/kayembe/elimu/core/user"
	emailsvc "github.com/kayembe/elimu/services/email"
	inmemdb "github.com/kayembe/elimu/storage/database/inmem"
)

func newTestService(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()
	conf := &core.Config{
		AppName:                   "Elimu",
		TestMode:                  true,
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:4200",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	return user.NewService(repo, emailsvc.NewConsoleServiceMock(conf), conf), repo
}

func seedUser(t *testing.T, repo user.Repository, name, uname string, roles []string, isActive bool, joined time.Time) user.User {
	t.Helper()
	usr, err := repo.CreateUser(context.Background(), user.User{
		FullName:  name,
		Username:  uname,
		Email:     uname + "@test.cd",
		Roles:     roles,
		IsActive:  isActive,
		JoinDate:  joined,
		UpdatedAt: joined,
	})
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func usernames(users []user.User) []string {
	unames := make([]string, 0, len(users))
	for _, usr := range users {
		unames = append(unames, usr.Username)
	}
	return unames
}

func TestServiceQuery(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	day := func(n int) time.Time { return time.Date(2021, 6, n, 0, 0, 0, 0, time.UTC) }
	inactive := false

	seedUser(t, repo, "Alice Kalenga", "alicek", []string{user.RoleAdmin}, true, day(1))
	seedUser(t, repo, "Bob Ilunga", "bobilunga", []string{user.RoleAuthor}, true, day(5))
	seedUser(t, repo, "Carol Mbuyi", "carolmb", []string{user.RoleLearner}, true, day(10))
	seedUser(t, repo, "Dan Tshibangu", "dantshi", []string{user.RoleLearner}, false, day(15))

	tests := []struct {
		name          string
		filter        user.QueryFilter
		sortBy        string
		page, size    int
		wantUnames    []string
		wantFiltered  int
		anyOrder      bool
	}{
		{
			name: "all sorted by join date", sortBy: user.SortOldest, page: 1, size: 20,
			wantUnames:   []string{"alicek", "bobilunga", "carolmb", "dantshi"},
			wantFiltered: 4,
		},
		{
			name: "latest first", sortBy: user.SortLatest, page: 1, size: 20,
			wantUnames:   []string{"dantshi", "carolmb", "bobilunga", "alicek"},
			wantFiltered: 4,
		},
		{
			name: "alphabetical", sortBy: user.SortAZ, page: 1, size: 20,
			wantUnames:   []string{"alicek", "bobilunga", "carolmb", "dantshi"},
			wantFiltered: 4,
		},
		{
			name: "reverse alphabetical", sortBy: user.SortZA, page: 1, size: 20,
			wantUnames:   []string{"dantshi", "carolmb", "bobilunga", "alicek"},
			wantFiltered: 4,
		},
		{
			name: "search by name", filter: user.QueryFilter{Search: "carol"}, page: 1, size: 20,
			wantUnames:   []string{"carolmb"},
			wantFiltered: 1,
		},
		{
			name: "filter by role", filter: user.QueryFilter{Roles: []string{user.RoleLearner}}, sortBy: user.SortOldest, page: 1, size: 20,
			wantUnames:   []string{"carolmb", "dantshi"},
			wantFiltered: 2,
		},
		{
			name: "inactive only", filter: user.QueryFilter{IsActive: &inactive}, page: 1, size: 20,
			wantUnames:   []string{"dantshi"},
			wantFiltered: 1,
		},
		{
			name: "joined window", filter: user.QueryFilter{CreatedFrom: day(4), CreatedTo: day(11)}, sortBy: user.SortOldest, page: 1, size: 20,
			wantUnames:   []string{"bobilunga", "carolmb"},
			wantFiltered: 2,
		},
		{
			name: "second page", sortBy: user.SortOldest, page: 2, size: 3,
			wantUnames:   []string{"dantshi"},
			wantFiltered: 4,
		},
		{
			name: "page past the end", sortBy: user.SortOldest, page: 9, size: 3,
			wantUnames:   []string{},
			wantFiltered: 4,
		},
		{
			name: "zero page clamps to first", sortBy: user.SortOldest, page: 0, size: 2,
			wantUnames:   []string{"alicek", "bobilunga"},
			wantFiltered: 4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Query(ctx, tt.filter, tt.sortBy, tt.page, tt.size)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if tt.anyOrder {
				assert.ElementsMatch(t, tt.wantUnames, usernames(res.Users))
			} else {
				assert.Equal(t, tt.wantUnames, usernames(res.Users))
			}
			assert.Equal(t, 4, res.TotalCount)
			assert.Equal(t, tt.wantFiltered, res.FilteredCount)
		})
	}
}

func TestServiceCreateDefaultsToLearner(t *testing.T) {
	svc, _ := newTestService(t)

	usr, err := svc.Create(context.Background(), user.NewUser{
		FullName: "New Person",
		Username: "newperson",
		Email:    "newperson@test.cd",
		Password: "LeSecret#1",
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	assert.Equal(t, []string{user.RoleLearner}, usr.Roles)
	assert.True(t, usr.IsActive)
	assert.NotEmpty(t, usr.AvatarURL)
	assert.NoError(t, usr.CheckPassword("LeSecret#1"))
}

func TestServiceUpdatePreservesServerFields(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	usr := seedUser(t, repo, "Alice Kalenga", "alicek", nil, true, time.Now().UTC())
	usr.AvatarURL = "https://i.pravatar.cc/150?u=alicek"
	lastLogin := time.Date(2021, 6, 1, 9, 0, 0, 0, time.UTC)
	usr.LastLogin = lastLogin
	if _, err := repo.UpdateUser(ctx, usr, nil); err != nil {
		t.Fatalf("UpdateUser() failed: %v", err)
	}

	updated, err := svc.Update(ctx, usr.ID, user.UpdateUser{
		FullName: "Alice K.",
		Username: usr.Username,
		Email:    usr.Email,
		Bio:      "Hello there",
	})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	assert.Equal(t, "Alice K.", updated.FullName)
	assert.Equal(t, "Hello there", updated.Bio)
	assert.Equal(t, usr.AvatarURL, updated.AvatarURL)
	assert.Equal(t, lastLogin, updated.LastLogin)
}

func TestServiceResetPasswordRoundTrip(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	usr := seedUser(t, repo, "Alice Kalenga", "alicek", nil, true, time.Now().UTC())

	token, err := user.MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	err = svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           token,
		Password:        "NewSecret#2",
		PasswordConfirm: "NewSecret#2",
	})
	if err != nil {
		t.Fatalf("ResetPassword() failed: %v", err)
	}

	refreshed, err := repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	assert.NoError(t, refreshed.CheckPassword("NewSecret#2"))

	// a used token no longer verifies (the hash is part of its signature)
	err = svc.ResetPassword(ctx, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           token,
		Password:        "Another#3x",
		PasswordConfirm: "Another#3x",
	})
	assert.Error(t, err)
}
