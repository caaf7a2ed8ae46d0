package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crono/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	r := gin.New()
	g := r.Group("", Middleware(testSecret, "crono_session"))
	g.GET("/whoami", func(c *gin.Context) {
		a, _ := FromContext(c)
		c.JSON(http.StatusOK, gin.H{"type": a.Type, "student_id": a.StudentID})
	})
	g.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	g.GET("/student", RequireStudent(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, path string, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken(testSecret, Actor{Type: UserTypeStudent, StudentID: 42}, time.Hour)
	require.NoError(t, err)

	a, err := ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, Actor{Type: UserTypeStudent, StudentID: 42}, a)

	_, err = ParseToken([]byte("other"), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	token, err := NewToken(testSecret, Actor{Type: UserTypeAdmin, AdminID: 1}, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken(testSecret, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenRejectsIncompleteActor(t *testing.T) {
	_, err := NewToken(testSecret, Actor{Type: UserTypeStudent}, time.Hour)
	assert.Error(t, err)
	_, err = NewToken(testSecret, Actor{Type: "guest", StudentID: 1}, time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	r := newTestRouter()
	student, err := NewToken(testSecret, Actor{Type: UserTypeStudent, StudentID: 7}, time.Hour)
	require.NoError(t, err)
	admin, err := NewToken(testSecret, Actor{Type: UserTypeAdmin, AdminID: 1}, time.Hour)
	require.NoError(t, err)

	w := do(r, "/whoami", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/whoami", func(req *http.Request) { req.Header.Set("Authorization", "Bearer garbage") })
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, "/whoami", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+student) })
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"type":"student","student_id":7}`, w.Body.String())

	w = do(r, "/whoami", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "crono_session", Value: student})
	})
	assert.Equal(t, http.StatusOK, w.Code, "cookie session must be accepted")

	w = do(r, "/admin", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+student) })
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(r, "/admin", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+admin) })
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(r, "/student", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+admin) })
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPolicies(t *testing.T) {
	own := &models.Turn{StudentID: 7}
	other := &models.Turn{StudentID: 8}

	student := Actor{Type: UserTypeStudent, StudentID: 7}
	admin := Actor{Type: UserTypeAdmin, AdminID: 1}

	assert.True(t, student.CancelPolicy().CanRemove(own))
	assert.False(t, student.CancelPolicy().CanRemove(other))
	assert.True(t, admin.CancelPolicy().CanRemove(other))

	assert.False(t, student.ProcessPolicy().CanRemove(own))
	assert.True(t, admin.ProcessPolicy().CanRemove(own))
}
