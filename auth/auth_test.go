package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminToken(t *testing.T) {
	m := NewTokenManager("secret", "tax-advisor", time.Hour)

	token, expiresAt, err := m.NewAdminToken("ops")
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	claims, err := m.ParseAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestParseAdminTokenRejects(t *testing.T) {
	m := NewTokenManager("secret", "tax-advisor", time.Hour)

	wrongSecret, _, err := NewTokenManager("other", "tax-advisor", time.Hour).NewAdminToken("ops")
	require.NoError(t, err)

	wrongIssuer, _, err := NewTokenManager("secret", "someone-else", time.Hour).NewAdminToken("ops")
	require.NoError(t, err)

	expired, _, err := NewTokenManager("secret", "tax-advisor", -time.Minute).NewAdminToken("ops")
	require.NoError(t, err)

	for _, token := range []string{wrongSecret, wrongIssuer, expired, "garbage"} {
		_, err := m.ParseAdminToken(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	}

	userToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "user",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "tax-advisor", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.ParseAdminToken(userToken)
	assert.True(t, errors.Is(err, ErrForbidden))
}

func TestAdminMiddleware(t *testing.T) {
	m := NewTokenManager("secret", "tax-advisor", time.Hour)

	token, _, err := m.NewAdminToken("ops")
	require.NoError(t, err)

	type TC struct {
		header string
		status int
	}

	tcs := []TC{
		{header: "", status: http.StatusUnauthorized},
		{header: "Token " + token, status: http.StatusUnauthorized},
		{header: "Bearer ", status: http.StatusUnauthorized},
		{header: "Bearer nope", status: http.StatusUnauthorized},
		{header: "Bearer " + token, status: http.StatusOK},
		{header: "bearer " + token, status: http.StatusOK},
	}

	for i, tc := range tcs {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := AdminMiddleware(m)(func(c echo.Context) error {
				subject, ok := SubjectFromContext(c)
				assert.True(t, ok)
				assert.Equal(t, "ops", subject)
				return c.NoContent(http.StatusOK)
			})

			err := handler(c)

			if tc.status == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
				return
			}

			var httpErr *echo.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, tc.status, httpErr.Code)
		})
	}
}
