package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"rbacadmin/internal/models"
	"rbacadmin/internal/seed"
	"rbacadmin/internal/token"
)

type envelope struct {
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Role{}, &models.Permission{},
		&models.UserRole{}, &models.OperationLog{},
	))
	require.NoError(t, seed.Run(db, zap.NewNop()))

	codec := token.NewCodec("test-secret", time.Hour, 24*time.Hour)
	api, err := New(db, zap.NewNop(), codec)
	require.NoError(t, err)
	guard := NewGuard(db, codec, api.Resolver(), zap.NewNop())
	return NewRouter(api, guard, zap.NewNop(), false), db
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func login(t *testing.T, h http.Handler, username, pass string) (access, refresh string) {
	t.Helper()
	rec, env := doJSON(t, h, "POST", "/api/auth/login", "", map[string]string{
		"username": username, "password": pass,
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	var tokens struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		TokenType    string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	require.Equal(t, "bearer", tokens.TokenType)
	return tokens.AccessToken, tokens.RefreshToken
}

func TestLoginAndUserInfo(t *testing.T) {
	h, _ := newTestServer(t)
	access, _ := login(t, h, "admin", "admin123")

	rec, env := doJSON(t, h, "GET", "/api/user/info", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, "admin", user.Username)
	assert.True(t, user.IsSuperuser)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, _ := newTestServer(t)

	rec, env := doJSON(t, h, "POST", "/api/auth/login", "", map[string]string{
		"username": "admin", "password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "wrong password", env.Message)

	rec, env = doJSON(t, h, "POST", "/api/auth/login", "", map[string]string{
		"username": "ghost", "password": "whatever",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user not found", env.Message)
}

func TestGuardRejectsMissingAndBadTokens(t *testing.T) {
	h, _ := newTestServer(t)

	rec, env := doJSON(t, h, "GET", "/api/user/info", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing bearer token", env.Message)

	rec, env = doJSON(t, h, "GET", "/api/user/info", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid token", env.Message)
}

func TestGuardRejectsRefreshTokenAsAccess(t *testing.T) {
	h, _ := newTestServer(t)
	_, refresh := login(t, h, "admin", "admin123")

	rec, env := doJSON(t, h, "GET", "/api/user/info", refresh, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token type mismatch", env.Message)
}

func TestGuardRejectsStaleSession(t *testing.T) {
	h, db := newTestServer(t)
	access, _ := login(t, h, "admin", "admin123")

	// A newer login elsewhere bumps last_login and strands this token.
	later := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, db.Model(&models.User{}).
		Where("username = ?", "admin").
		Update("last_login", later).Error)

	rec, env := doJSON(t, h, "GET", "/api/user/info", access, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "session invalidated, please login again", env.Message)
}

func TestRefreshRotatesSession(t *testing.T) {
	h, db := newTestServer(t)
	_, refresh := login(t, h, "admin", "admin123")

	rec, env := doJSON(t, h, "POST", "/api/auth/refresh", "", map[string]string{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &tokens))
	assert.NotEmpty(t, tokens.AccessToken)

	// A refresh token minted before an invalidation is rejected.
	later := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, db.Model(&models.User{}).
		Where("username = ?", "admin").
		Update("last_login", later).Error)
	rec, env = doJSON(t, h, "POST", "/api/auth/refresh", "", map[string]string{
		"refresh_token": refresh,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "session invalidated, please login again", env.Message)
}

func TestPermissionEnforcement(t *testing.T) {
	h, _ := newTestServer(t)
	adminAccess, _ := login(t, h, "admin", "admin123")

	// Admin creates a staff account with no roles at all.
	rec, env := doJSON(t, h, "POST", "/api/user/create", adminAccess, map[string]any{
		"username": "viewer", "password": "secret1", "nickname": "Viewer", "is_staff": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var created models.User
	require.NoError(t, json.Unmarshal(env.Data, &created))

	viewerAccess, _ := login(t, h, "viewer", "secret1")
	rec, env = doJSON(t, h, "GET", "/api/user/list", viewerAccess, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient permission: requires user:read", env.Message)

	// Grant the read-only role and the listing opens up, but mutations
	// stay closed.
	var roleEnv envelope
	rec, roleEnv = doJSON(t, h, "GET", "/api/role?search=readonly_user", adminAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Items []models.Role `json:"items"`
	}
	require.NoError(t, json.Unmarshal(roleEnv.Data, &listed))
	require.Len(t, listed.Items, 1)

	rec, env = doJSON(t, h, "POST", fmt.Sprintf("/api/user_role/%d", created.ID), adminAccess, map[string]any{
		"role_ids": []int64{listed.Items[0].ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, _ = doJSON(t, h, "GET", "/api/user/list", viewerAccess, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env = doJSON(t, h, "POST", "/api/user/create", viewerAccess, map[string]any{
		"username": "nope", "password": "secret1",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "insufficient permission: requires user:create", env.Message)
}

func TestCreateUserWritesAuditEntries(t *testing.T) {
	h, db := newTestServer(t)
	adminAccess, _ := login(t, h, "admin", "admin123")

	rec, env := doJSON(t, h, "POST", "/api/user/create", adminAccess, map[string]any{
		"username": "alice", "password": "secret1", "is_staff": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	var entry models.OperationLog
	require.NoError(t, db.Where("module = ? AND action = ?", "user", "CREATE").
		Order("id DESC").First(&entry).Error)
	assert.Equal(t, "SUCCESS", entry.Status)
	assert.Equal(t, "admin", entry.UserName)
	assert.Nil(t, entry.OldData)
	var newData map[string]any
	require.NoError(t, json.Unmarshal(entry.NewData, &newData))
	assert.Equal(t, "alice", newData["username"])
	assert.NotContains(t, newData, "password")

	// A duplicate username fails the operation and records a FAILED entry
	// without masking the business error.
	rec, env = doJSON(t, h, "POST", "/api/user/create", adminAccess, map[string]any{
		"username": "alice", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username already exists", env.Message)

	require.NoError(t, db.Where("module = ? AND status = ?", "user", "FAILED").
		Order("id DESC").First(&entry).Error)
	assert.Equal(t, "username already exists", entry.ErrorMessage)
}

func TestRoleLifecycleOverHTTP(t *testing.T) {
	h, db := newTestServer(t)
	adminAccess, _ := login(t, h, "admin", "admin123")

	var perm models.Permission
	require.NoError(t, db.Where("code = ?", "user:read").First(&perm).Error)

	rec, env := doJSON(t, h, "POST", "/api/role", adminAccess, map[string]any{
		"name": "Support", "code": "support", "permission_ids": []int64{perm.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	var role models.Role
	require.NoError(t, json.Unmarshal(env.Data, &role))
	require.Len(t, role.Permissions, 1)

	// Update clears the permission set.
	rec, env = doJSON(t, h, "PUT", fmt.Sprintf("/api/role/%d", role.ID), adminAccess, map[string]any{
		"description": "support desk", "permission_ids": []int64{},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &role))
	assert.Equal(t, "support desk", role.Description)
	assert.Empty(t, role.Permissions)

	// Assigned roles cannot be deleted.
	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	rec, env = doJSON(t, h, "POST", fmt.Sprintf("/api/user_role/%d", admin.ID), adminAccess, map[string]any{
		"role_ids": []int64{role.ID},
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, env = doJSON(t, h, "DELETE", fmt.Sprintf("/api/role/%d", role.ID), adminAccess, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "role is assigned to active users", env.Message)

	rec, env = doJSON(t, h, "DELETE", fmt.Sprintf("/api/user_role/%d/%d", admin.ID, role.ID), adminAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, _ = doJSON(t, h, "DELETE", fmt.Sprintf("/api/role/%d", role.ID), adminAccess, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserRoleDetail(t *testing.T) {
	h, db := newTestServer(t)
	adminAccess, _ := login(t, h, "admin", "admin123")

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)

	rec, env := doJSON(t, h, "GET", fmt.Sprintf("/api/user_role/%d/detail", admin.ID), adminAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		User        models.User         `json:"user"`
		Roles       []models.Role       `json:"roles"`
		Permissions []models.Permission `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "admin", detail.User.Username)
	require.Len(t, detail.Roles, 1)
	assert.Equal(t, "system_admin", detail.Roles[0].Code)
	// Superusers see the whole catalogue.
	assert.Len(t, detail.Permissions, 16)
}

func TestOperationLogEndpoints(t *testing.T) {
	h, db := newTestServer(t)
	adminAccess, _ := login(t, h, "admin", "admin123")

	rec, env := doJSON(t, h, "POST", "/api/user/create", adminAccess, map[string]any{
		"username": "logged", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code, env.Message)

	rec, env = doJSON(t, h, "GET", "/api/operation_log/list?search=user", adminAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Items []models.OperationLog `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.NotEmpty(t, listed.Items)

	rec, env = doJSON(t, h, "GET", fmt.Sprintf("/api/operation_log/%d", listed.Items[0].ID), adminAccess, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	rec, env = doJSON(t, h, "GET", fmt.Sprintf("/api/operation_log/user/%d", admin.ID), adminAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	for _, item := range listed.Items {
		assert.Equal(t, admin.ID, item.UserID)
	}
}

func TestUserSearchProfileKeyExactMatch(t *testing.T) {
	h, db := newTestServer(t)
	adminAccess, _ := login(t, h, "admin", "admin123")

	users := []models.User{
		{Username: "u1", Nickname: "Someone", Password: "x", IsActive: true,
			Profile: []byte(`{"name": "alice"}`)},
		{Username: "u2", Nickname: "Other", Password: "x", IsActive: true,
			Profile: []byte(`{"name": "alice smith"}`)},
	}
	require.NoError(t, db.Create(&users).Error)

	rec, env := doJSON(t, h, "GET", "/api/user/list?search=alice", adminAccess, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Items []models.User `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &listed))
	require.Len(t, listed.Items, 1)
	assert.Equal(t, "u1", listed.Items[0].Username)
}
