package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rbacadmin/internal/token"
)

// tokenResponse is the issuance contract: both tokens plus the access
// token's expiry as epoch seconds.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Expire       int64  `json:"expire"`
	TokenType    string `json:"token_type"`
}

func (a *API) login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	user, err := a.accounts.Authenticate(ctx, in.Username, in.Password)
	if err != nil {
		a.failErr(c, err)
		return
	}

	// Bumping last_login here invalidates every token issued before this
	// login.
	if err := a.accounts.TouchLastLogin(ctx, user); err != nil {
		a.failErr(c, err)
		return
	}

	resp, err := a.issueTokens(user.ID, user.Username, user.IsSuperuser, user.LastLogin.Unix())
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, resp)
}

func (a *API) refresh(c *gin.Context) {
	var in struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	payload, err := a.codec.Verify(in.RefreshToken, token.KindRefresh)
	if err != nil {
		fail(c, http.StatusUnauthorized, tokenMessage(err))
		return
	}

	ctx := c.Request.Context()
	user, err := a.users.Get(ctx, payload.UserID)
	if err != nil {
		fail(c, http.StatusUnauthorized, "user not found")
		return
	}
	if user.LastLogin == nil || user.LastLogin.Unix() != payload.LoginTime {
		fail(c, http.StatusUnauthorized, "session invalidated, please login again")
		return
	}
	if !user.IsActive {
		fail(c, http.StatusForbidden, "account disabled")
		return
	}

	// A refresh rotates the whole session: the bump makes the presented
	// refresh token (and its access sibling) stale.
	if err := a.accounts.TouchLastLogin(ctx, user); err != nil {
		a.failErr(c, err)
		return
	}

	resp, err := a.issueTokens(user.ID, user.Username, user.IsSuperuser, user.LastLogin.Unix())
	if err != nil {
		a.failErr(c, err)
		return
	}
	ok(c, resp)
}

func (a *API) issueTokens(userID int64, username string, superuser bool, loginTime int64) (tokenResponse, error) {
	payload := token.Payload{
		UserID:      userID,
		Username:    username,
		IsSuperuser: superuser,
		LoginTime:   loginTime,
	}
	now := time.Now()
	access, expiry, err := a.codec.Issue(token.KindAccess, payload, now)
	if err != nil {
		return tokenResponse{}, err
	}
	refresh, _, err := a.codec.Issue(token.KindRefresh, payload, now)
	if err != nil {
		return tokenResponse{}, err
	}
	return tokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Expire:       expiry.Unix(),
		TokenType:    "bearer",
	}, nil
}
