package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/tests"
)

func Test_authApi_register(t *testing.T) {
	srv, app := setup(t)
	testutil.CreateUser(t, app.UsrRepo, "Taken", "taken@test.cd", strongPwd, user.RoleTeacher, user.StatusActive)

	body := func(name, email, pwd string, role user.Role) []byte {
		return marchallObj(t, user.NewUser{
			Name:            name,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Role:            role,
			Branch:          "cse",
			Year:            2,
		})
	}

	tests := []httpTest{
		{
			name: "admin role refused", method: http.MethodPost, path: "/api/auth/register",
			body:     body("Boss", "boss@test.cd", strongPwd, user.RoleAdmin),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "weak password", method: http.MethodPost, path: "/api/auth/register",
			body:     body("Weak", "weak@test.cd", "12345678", user.RoleStudent),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "email taken", method: http.MethodPost, path: "/api/auth/register",
			body:     body("Other", "TAKEN@test.cd", strongPwd, user.RoleStudent),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
		{
			name: "missing fields", method: http.MethodPost, path: "/api/auth/register",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
	}
	runHTTPTests(t, srv, tests)

	t.Run("student registers as pending", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/api/auth/register", "", body("Student One", "one@test.cd", strongPwd, user.RoleStudent))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var usr user.User
		unmarchall(t, rec, &usr)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, user.StatusPending, usr.Status)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.Equal(t, "cse", usr.Branch)
		assert.Equal(t, 2, usr.Year)
	})
}

func Test_authApi_login(t *testing.T) {
	srv, app := setup(t)
	pending := testutil.CreateUser(t, app.UsrRepo, "Pending", "pending@test.cd", strongPwd, user.RoleStudent, user.StatusPending)
	rejected := testutil.CreateUser(t, app.UsrRepo, "Rejected", "rejected@test.cd", strongPwd, user.RoleTeacher, user.StatusRejected)
	active := testutil.CreateUser(t, app.UsrRepo, "Active", "active@test.cd", strongPwd, user.RoleTeacher, user.StatusActive)

	login := func(email, pwd string) []byte {
		return marchallObj(t, LoginRequest{Email: email, Password: pwd})
	}

	tests := []httpTest{
		{
			name: "unknown email", method: http.MethodPost, path: "/api/auth/login", body: login("nobody@test.cd", strongPwd),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid email or password"}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/api/auth/login", body: login(active.Email, "wrong"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid email or password"}),
		},
		{
			name: "pending account", method: http.MethodPost, path: "/api/auth/login", body: login(pending.Email, strongPwd),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account pending approval"}),
		},
		{
			name: "rejected account", method: http.MethodPost, path: "/api/auth/login", body: login(rejected.Email, strongPwd),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account rejected"}),
		},
	}
	runHTTPTests(t, srv, tests)

	t.Run("active account", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/api/auth/login", "", login(" ACTIVE@test.cd ", strongPwd))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LoginResponse
		unmarchall(t, rec, &resp)
		require.NotNil(t, resp.User)
		assert.Equal(t, active.ID, resp.User.ID)
		assert.False(t, resp.User.LastLogin.IsZero())

		claims := new(Claims)
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(app.Conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, active.ID, claims.Subject)
		assert.Equal(t, user.RoleTeacher, claims.Role)
	})
}

func Test_authApi_refreshToken(t *testing.T) {
	srv, app := setup(t)
	active := testutil.CreateUser(t, app.UsrRepo, "Active", "active@test.cd", strongPwd, user.RoleStudent, user.StatusActive)
	pending := testutil.CreateUser(t, app.UsrRepo, "Pending", "pending@test.cd", strongPwd, user.RoleStudent, user.StatusPending)

	tests := []httpTest{
		{
			name: "auth required", method: http.MethodPost, path: "/api/auth/token-refresh",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "inactive account", method: http.MethodPost, path: "/api/auth/token-refresh", token: getToken(t, app, pending),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account pending approval"}),
		},
	}
	runHTTPTests(t, srv, tests)

	t.Run("refresh", func(t *testing.T) {
		rec := do(srv, http.MethodPost, "/api/auth/token-refresh", getToken(t, app, active))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp LoginResponse
		unmarchall(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
		assert.Nil(t, resp.User)
	})

	t.Run("refresh expired", func(t *testing.T) {
		claims := GetUserClaims(active, app.Conf, 1) // originally issued in 1970
		token, err := GenerateToken(claims, app.Conf)
		require.NoError(t, err)

		rec := do(srv, http.MethodPost, "/api/auth/token-refresh", token)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		}, rec)
	})
}

func Test_authApi_passwordReset(t *testing.T) {
	srv, app := setup(t)
	usr := testutil.CreateUser(t, app.UsrRepo, "Active", "active@test.cd", strongPwd, user.RoleTeacher, user.StatusActive)

	body := marchallObj(t, PasswordResetRequest{Email: usr.Email})
	rec := do(srv, http.MethodPost, "/api/auth/forgot-password", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	msgs := app.Outbox.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, usr.Email, msgs[0].To[0].Address)
	data, ok := msgs[0].TemplateData.(map[string]interface{})
	require.True(t, ok)

	t.Run("unknown email is not disclosed", func(t *testing.T) {
		body := marchallObj(t, PasswordResetRequest{Email: "nobody@test.cd"})
		rec := do(srv, http.MethodPost, "/api/auth/forgot-password", "", body)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, app.Outbox.Messages(), 1)
	})

	t.Run("invalid token", func(t *testing.T) {
		body := marchallObj(t, user.ResetUserPassword{
			UID: data["UID"].(string), Token: "bad-token", Password: "N3w-Passw0rd!", PasswordConfirm: "N3w-Passw0rd!",
		})
		rec := do(srv, http.MethodPost, "/api/auth/reset-password", "", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reset", func(t *testing.T) {
		body := marchallObj(t, user.ResetUserPassword{
			UID: data["UID"].(string), Token: data["Token"].(string), Password: "N3w-Passw0rd!", PasswordConfirm: "N3w-Passw0rd!",
		})
		rec := do(srv, http.MethodPost, "/api/auth/reset-password", "", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		updated, err := app.UsrRepo.GetUserByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.NoError(t, updated.CheckPassword("N3w-Passw0rd!"))
	})
}
