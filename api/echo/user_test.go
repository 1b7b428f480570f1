package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/kayembe/elimu/core/user"
)

func Test_userApi_login(t *testing.T) {
	app := initApp()

	createUser(t, app.userRepo, "Jane Doe", "janedoe", "janedoe@test.cd", "LeSecret#1", nil, true)
	createUser(t, app.userRepo, "Gone Guy", "goneguy", "goneguy@test.cd", "LeSecret#1", nil, false)

	tests := []httpTest{
		{
			name: "valid credentials", body: []byte(`{"username": "janedoe", "password": "LeSecret#1"}`),
			wantCode: http.StatusOK,
		},
		{
			name: "login by email", body: []byte(`{"username": "janedoe@test.cd", "password": "LeSecret#1"}`),
			wantCode: http.StatusOK,
		},
		{
			name: "remember me", body: []byte(`{"username": "janedoe", "password": "LeSecret#1", "remember_me": true}`),
			wantCode: http.StatusOK,
		},
		{
			name: "unknown user", body: []byte(`{"username": "nobody", "password": "LeSecret#1"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: []byte(`{"username": "janedoe", "password": "nope"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: []byte(`{"username": "goneguy", "password": "LeSecret#1"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "missing fields", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			} else if tt.wantCode == http.StatusOK {
				var res LoginResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.Token == "" {
					t.Errorf("expected a token; body %s", rec.Body.String())
				}
			}
		})
	}
}

func Test_userApi_login_rememberMe(t *testing.T) {
	app := initApp()

	createUser(t, app.userRepo, "Jane Doe", "janedoe", "janedoe@test.cd", "LeSecret#1", nil, true)

	expiry := func(body string) int64 {
		req, rec := newRequest(http.MethodPost, "/v1/users/login", []byte(body))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var res LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		claims := new(Claims)
		if _, err := jwt.ParseWithClaims(res.Token, claims, func(*jwt.Token) (interface{}, error) {
			return appJWTConfig.SigningKey, nil
		}); err != nil {
			t.Fatalf("parsing token failed: %v", err)
		}
		return claims.ExpiresAt
	}

	plain := expiry(`{"username": "janedoe", "password": "LeSecret#1"}`)
	remembered := expiry(`{"username": "janedoe", "password": "LeSecret#1", "remember_me": true}`)

	// a remembered session must outlive a regular one
	if remembered <= plain {
		t.Errorf("remembered expiry = %v; want after %v", remembered, plain)
	}
	wantMin := time.Now().Add(jwtRememberExpirationDelta - time.Minute).Unix()
	if remembered < wantMin {
		t.Errorf("remembered expiry = %v; want at least %v", remembered, wantMin)
	}
}

func Test_userApi_register(t *testing.T) {
	app := initApp()

	createUser(t, app.userRepo, "Jane Doe", "janedoe", "janedoe@test.cd", "LeSecret#1", nil, true)

	tests := []httpTest{
		{
			name:     "valid registration",
			body:     []byte(`{"username": "newbie1", "email": "newbie@test.cd", "password": "LeSecret#1", "password_confirm": "LeSecret#1", "agree_to_terms": true}`),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate username",
			body:     []byte(`{"username": "janedoe", "email": "other@test.cd", "password": "LeSecret#1", "password_confirm": "LeSecret#1", "agree_to_terms": true}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "password mismatch",
			body:     []byte(`{"username": "newbie2", "email": "newbie2@test.cd", "password": "LeSecret#1", "password_confirm": "Other#1aa", "agree_to_terms": true}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "terms not agreed",
			body:     []byte(`{"username": "newbie3", "email": "newbie3@test.cd", "password": "LeSecret#1", "password_confirm": "LeSecret#1"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "common password",
			body:     []byte(`{"username": "newbie4", "email": "newbie4@test.cd", "password": "P@ssw0rd", "password_confirm": "P@ssw0rd", "agree_to_terms": true}`),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/register", tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusCreated {
				var usr user.User
				if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
					t.Fatalf("unmarshalling response failed: %v", err)
				}
				if !usr.HasRole(user.RoleLearner) {
					t.Errorf("new registrations must be learners; roles %v", usr.Roles)
				}
				if !usr.IsActive {
					t.Error("new registrations must be active")
				}
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	app := initApp()

	admin := createUser(t, app.userRepo, "The Admin", "theadmin", "admin@test.cd", "LeSecret#1", []string{user.RoleAdmin}, true)
	learner := createUser(t, app.userRepo, "A Learner", "alearner", "learner@test.cd", "LeSecret#1", []string{user.RoleLearner}, true)
	adminToken := getToken(t, admin)
	learnerToken := getToken(t, learner)

	tests := []httpTest{
		{
			name: "auth required", path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "admin required", path: "/v1/users", token: learnerToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "all users", path: "/v1/users", token: adminToken,
			wantCode: http.StatusOK,
		},
		{
			name: "search filter", path: "/v1/users?search=alearner", token: adminToken,
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}

			var res user.QueryResult
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("unmarshalling response failed: %v", err)
			}
			switch tt.name {
			case "all users":
				if res.TotalCount != 2 || res.FilteredCount != 2 || len(res.Users) != 2 {
					t.Errorf("unexpected result: %+v", res)
				}
			case "search filter":
				if res.FilteredCount != 1 || len(res.Users) != 1 || res.Users[0].Username != "alearner" {
					t.Errorf("unexpected result: %+v", res)
				}
			}
		})
	}
}

func Test_userApi_create(t *testing.T) {
	app := initApp()

	admin := createUser(t, app.userRepo, "The Admin", "theadmin", "admin@test.cd", "LeSecret#1", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	tests := []httpTest{
		{
			name:     "admin creates author",
			body:     []byte(`{"full_name": "New Author", "username": "newauthor", "email": "author@test.cd", "password": "LeSecret#1", "password_confirm": "LeSecret#1", "roles": ["author"]}`),
			token:    adminToken,
			wantCode: http.StatusCreated,
		},
		{
			name:     "unknown role rejected",
			body:     []byte(`{"full_name": "Bad Role", "username": "badrole1", "email": "badrole@test.cd", "password": "LeSecret#1", "password_confirm": "LeSecret#1", "roles": ["superuser"]}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users", tt.token, tt.body)
			app.server.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
		})
	}
}

func Test_userApi_detail(t *testing.T) {
	app := initApp()

	admin := createUser(t, app.userRepo, "The Admin", "theadmin", "admin@test.cd", "LeSecret#1", []string{user.RoleAdmin}, true)
	learner := createUser(t, app.userRepo, "A Learner", "alearner", "learner@test.cd", "LeSecret#1", []string{user.RoleLearner}, true)
	other := createUser(t, app.userRepo, "An Other", "another1", "other@test.cd", "LeSecret#1", []string{user.RoleLearner}, true)
	adminToken := getToken(t, admin)
	learnerToken := getToken(t, learner)

	tests := []httpTest{
		{
			name: "own profile", method: http.MethodGet, path: "/v1/users/" + learner.ID, token: learnerToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, learner),
		},
		{
			name: "admin reads any profile", method: http.MethodGet, path: "/v1/users/" + learner.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, learner),
		},
		{
			name: "other profiles are hidden", method: http.MethodGet, path: "/v1/users/" + other.ID, token: learnerToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "self update bio", method: http.MethodPut, path: "/v1/users/" + learner.ID, token: learnerToken,
			body:     []byte(`{"bio": "Lifelong learner"}`),
			wantCode: http.StatusOK,
		},
		{
			name: "self role escalation forbidden", method: http.MethodPut, path: "/v1/users/" + learner.ID, token: learnerToken,
			body:     []byte(`{"roles": ["admin"]}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "self delete forbidden", method: http.MethodDelete, path: "/v1/users/" + admin.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admin deletes user", method: http.MethodDelete, path: "/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	app := initApp()

	usr := createUser(t, app.userRepo, "Jane Doe", "janedoe", "janedoe@test.cd", "LeSecret#1", nil, true)

	// the request endpoint never leaks whether the email exists
	for _, email := range []string{"janedoe@test.cd", "unknown@test.cd"} {
		req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", []byte(`{"email": "`+email+`"}`))
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	}

	// confirm with a real token
	token, err := user.MakeToken(usr)
	if err != nil {
		t.Fatalf("MakeToken() failed: %v", err)
	}
	body := marchallObj(t, user.ResetUserPassword{
		UID:             user.EncodeUID(usr),
		Token:           token,
		Password:        "NewSecret#2",
		PasswordConfirm: "NewSecret#2",
	})
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset-confirm", body)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}

	// old password no longer works, new one does
	req, rec = newRequest(http.MethodPost, "/v1/users/login", []byte(`{"username": "janedoe", "password": "LeSecret#1"}`))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("old password should fail; code = %v", rec.Code)
	}
	req, rec = newRequest(http.MethodPost, "/v1/users/login", []byte(`{"username": "janedoe", "password": "NewSecret#2"}`))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("new password should work; code = %v; body %s", rec.Code, rec.Body.String())
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	app := initApp()

	usr := createUser(t, app.userRepo, "Jane Doe", "janedoe", "janedoe@test.cd", "LeSecret#1", nil, true)
	token := getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var res LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || res.Token == "" {
		t.Errorf("expected a token; body %s", rec.Body.String())
	}
}
