package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	pkgauth "github.com/yigit/acadtrack/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWT(accessExp time.Duration) *pkgauth.JWTService {
	return pkgauth.NewJWTService(pkgauth.JWTConfig{
		SecretKey:       "middleware-secret",
		AccessTokenExp:  accessExp,
		RefreshTokenExp: time.Hour,
		TokenIssuer:     "acadtrack-test",
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func authRouter(jwt *pkgauth.JWTService) *gin.Engine {
	m := NewAuthMiddleware(jwt)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/me", m.JWTAuth(), func(c *gin.Context) {
		p, ok := CurrentPrincipal(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"accountId": p.AccountID, "role": p.Role})
	})
	r.GET("/prof", m.JWTAuth(), m.RoleRequired(models.RoleProfessor), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/ws", m.StreamAuth(), func(c *gin.Context) {
		p, _ := CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"accountId": p.AccountID})
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	jwt := newJWT(time.Hour)
	r := authRouter(jwt)
	pair, err := jwt.GenerateTokenPair(&models.Account{ID: 42, Email: "ana@school.edu", Role: models.RoleStudent})
	require.NoError(t, err)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeUnauthorized, decodeError(t, w).Error.Code)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"accountId":42,"role":"STUDENT"}`, w.Body.String())
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("query token rejected outside the stream", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me?token="+pair.AccessToken, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeUnauthorized, decodeError(t, w).Error.Code)
	})

	t.Run("query token on the stream", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?token="+pair.AccessToken, nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"accountId":42}`, w.Body.String())
	})

	t.Run("stream without token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, dto.ErrorCodeInvalidToken, decodeError(t, w).Error.Code)
	})

	t.Run("role guard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/prof", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestJWTAuthExpiredToken(t *testing.T) {
	jwt := newJWT(-time.Minute)
	pair, err := jwt.GenerateTokenPair(&models.Account{ID: 1, Email: "p@school.edu", Role: models.RoleProfessor})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	w := httptest.NewRecorder()
	authRouter(jwt).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrorCodeExpiredToken, decodeError(t, w).Error.Code)
}

func TestHandleAPIError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   dto.ErrorCode
	}{
		{apperrors.ErrProfileNotFound, http.StatusNotFound, dto.ErrorCodeProfileNotFound},
		{fmt.Errorf("load: %w", apperrors.ErrCourseNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrNotificationNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{apperrors.ErrAttendanceExists, http.StatusConflict, dto.ErrorCodeAttendanceRecorded},
		{apperrors.ErrAlreadyEnrolled, http.StatusConflict, dto.ErrorCodeAlreadyEnrolled},
		{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
		{apperrors.NewForbiddenError("you do not teach this course"), http.StatusForbidden, dto.ErrorCodeForbidden},
		{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled},
		{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
		{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},
		{apperrors.NewValidationError("date must be formatted as YYYY-MM-DD"), http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{apperrors.NewCustomError(apperrors.ErrNotEnrolled, "student 3 is not enrolled in course 4"), http.StatusBadRequest, dto.ErrorCodeNotEnrolled},
		{errors.New("connection refused"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			HandleAPIError(c, tc.err)

			assert.Equal(t, tc.status, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tc.code, resp.Error.Code)
		})
	}
}

func TestHandleAPIErrorCarriesCustomMessage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	HandleAPIError(c, apperrors.NewForbiddenError("you do not teach this course"))

	resp := decodeError(t, w)
	assert.Equal(t, "you do not teach this course", resp.Error.Details)
}

func TestBindJSONUsesDomainTags(t *testing.T) {
	require.NoError(t, RegisterValidators())

	r := gin.New()
	r.POST("/register", func(c *gin.Context) {
		var req dto.RegisterRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusCreated)
	})
	r.POST("/attendance", func(c *gin.Context) {
		var req dto.RecordAttendanceRequest
		if !BindJSON(c, &req) {
			return
		}
		c.Status(http.StatusCreated)
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := post("/register", `{"email":"a@school.edu","password":"secret123","role":"ADMIN"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
	assert.Contains(t, fmt.Sprint(resp.Error.Details), "role must be STUDENT or PROFESSOR")
	fields, ok := resp.Error.Details.([]interface{})
	require.True(t, ok)
	require.Len(t, fields, 1)
	assert.Equal(t, "role", fields[0].(map[string]interface{})["field"])

	w = post("/register", `{"email":"a@school.edu","password":"secret123","role":"PROFESSOR"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = post("/attendance", `{"studentId":1,"date":"2026-10-01","status":"asleep"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post("/attendance", `{"studentId":1,"date":"2026-10-01","status":"late"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = post("/attendance", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrorCodeBadRequest, decodeError(t, w).Error.Code)
}
