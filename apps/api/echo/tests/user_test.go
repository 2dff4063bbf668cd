package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kelasi/backend/core/user"
	"github.com/kelasi/backend/tests"
)

func Test_userApi_login(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Login User", "loginusr", "loginusr@test.cd", "Str0ng.Pwd!", nil, true)
	inactive := testutil.CreateUser(t, usrRepo, "Gone User", "goneusr", "goneusr@test.cd", "Str0ng.Pwd!", nil, false)

	login := func(uname, pwd string) []byte {
		body, _ := json.Marshal(map[string]string{"username": uname, "password": pwd})
		return body
	}

	tests := []httpTest{
		{name: "empty payload", body: login("", ""), wantCode: http.StatusBadRequest},
		{
			name: "unknown user", body: login("nope", "lol"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "wrong password", body: login(usr.Username, "lol"), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "deactivated account", body: login(inactive.Username, "Str0ng.Pwd!"), wantCode: http.StatusForbidden,
			wantData: marshalObj(t, httpErr{Error: "account deactivated"}),
		},
		{name: "login with username", body: login(usr.Username, "Str0ng.Pwd!"), wantCode: http.StatusOK},
		{name: "login with email", body: login(usr.Email, "Str0ng.Pwd!"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)

			if rec.Code == http.StatusOK {
				var resp struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling login response: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a token")
				}
			}
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Fresh User", "freshusr", "freshusr@test.cd", "Str0ng.Pwd!", nil, true)

	req, rec := newRequest(http.MethodPost, "/v1/users/token-refresh")
	app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)}
	checkCodeAndData(t, tt, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling refresh response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
}

func Test_userApi_retrieve(t *testing.T) {
	usr := testutil.CreateUser(t, usrRepo, "Self User", "selfusr", "selfusr@test.cd", "Str0ng.Pwd!", nil, true)
	other := testutil.CreateUser(t, usrRepo, "Other User", "otherusr", "otherusr@test.cd", "Str0ng.Pwd!", nil, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin User", "adminusr", "adminusr@test.cd", "Str0ng.Pwd!", []string{user.RoleAdmin}, true)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/users/" + usr.ID, wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "own record", path: "/v1/users/" + usr.ID, token: getToken(t, usr), wantCode: http.StatusOK},
		// non-admins cannot even learn the record exists
		{
			name: "someone else's record", path: "/v1/users/" + other.ID, token: getToken(t, usr),
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "not found"}),
		},
		{name: "admin reads anyone", path: "/v1/users/" + usr.ID, token: getToken(t, admin), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
