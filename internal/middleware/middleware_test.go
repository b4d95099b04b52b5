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

	"github.com/yigit/schoolbook/internal/app/models/dto"
	"github.com/yigit/schoolbook/internal/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Success bool            `json:"success"`
	Error   dto.ErrorDetail `json:"error"`
}

func handle(t *testing.T, err error) (int, errorBody) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	HandleAPIError(c, err)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHandleAPIError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    dto.ErrorCode
		message string
	}{
		{"student not found", fmt.Errorf("load: %w", apperrors.ErrStudentNotFound), http.StatusNotFound, dto.ErrorCodeResourceNotFound, "student not found"},
		{"no grades", apperrors.ErrNoGradesForTerm, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "no grades recorded for this term"},
		{"custom not found", apperrors.NewResourceNotFoundError("student 4 is not on the Form 1 roster"), http.StatusNotFound, dto.ErrorCodeResourceNotFound, "student 4 is not on the Form 1 roster"},
		{"invalid link code", apperrors.ErrInvalidLinkCode, http.StatusBadRequest, dto.ErrorCodeInvalidLinkCode, "invalid or expired code"},
		{"forbidden", apperrors.NewForbiddenError("only school admins may do this"), http.StatusForbidden, dto.ErrorCodeForbidden, "only school admins may do this"},
		{"credentials", apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
		{"expired", apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
		{"invalid token", apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
		{"rate limited", apperrors.ErrTooManyRequests, http.StatusTooManyRequests, dto.ErrorCodeTooManyRequests, "Too many requests, try again later"},
		{"validation", apperrors.NewValidationError("marks must be between 0 and 100"), http.StatusBadRequest, dto.ErrorCodeValidationFailed, "marks must be between 0 and 100"},
		{"bad request", apperrors.NewBadRequestError("Could not read Excel file. Error: zip: not a valid zip file"), http.StatusBadRequest, dto.ErrorCodeBadRequest, "Could not read Excel file. Error: zip: not a valid zip file"},
		{"username taken", fmt.Errorf("user creation error: %w", apperrors.ErrUsernameTaken), http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "username already taken"},
		{"shared code base", apperrors.ErrSchoolCodeBaseTaken, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "school code prefix already used by another school"},
		{"custom conflict", apperrors.NewConflictError("Database error. This may be due to duplicate data."), http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Database error. This may be due to duplicate data."},
		{"timeout", apperrors.NewTimeoutError("Import did not finish in time. Nothing was saved."), http.StatusServiceUnavailable, dto.ErrorCodeTimeout, "Import did not finish in time. Nothing was saved."},
		{"unknown", errors.New("connection reset by peer"), http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := handle(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.False(t, body.Success)
			assert.Equal(t, tt.code, body.Error.Code)
			assert.Equal(t, tt.message, body.Error.Message)
		})
	}
}

func TestLoginRateLimiterAllow(t *testing.T) {
	l := NewLoginRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("1.2.3.4|ann1"), "attempt %d", i+1)
	}
	assert.False(t, l.Allow("1.2.3.4|ann1"))
	assert.True(t, l.Allow("1.2.3.4|ben1"), "keys are independent")

	l.Reset("1.2.3.4|ann1")
	assert.True(t, l.Allow("1.2.3.4|ann1"))
}

func TestLoginRateLimiterMiddleware(t *testing.T) {
	l := NewLoginRateLimiter(2, time.Minute)
	router := gin.New()
	router.POST("/login", l.Middleware(), func(c *gin.Context) {
		var req dto.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		if req.Password != "secret1" {
			HandleAPIError(c, apperrors.ErrInvalidCredentials)
			return
		}
		c.Status(http.StatusOK)
	})

	login := func(username, password string) int {
		body := fmt.Sprintf(`{"username":%q,"password":%q}`, username, password)
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, login("ann1", "nope"))
	assert.Equal(t, http.StatusOK, login("ANN1", "secret1"), "the handler still sees the body")
	assert.Equal(t, http.StatusUnauthorized, login("ann1", "nope"), "success cleared the counter")
	assert.Equal(t, http.StatusUnauthorized, login("ann1", "nope"))
	assert.Equal(t, http.StatusTooManyRequests, login("ann1", "secret1"))
	assert.Equal(t, http.StatusUnauthorized, login("ben1", "nope"))
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.example.com"}))
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
