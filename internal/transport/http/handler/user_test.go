package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-service/internal/app"
	"user-service/internal/model"
	"user-service/internal/repository/memory"
	"user-service/internal/transport/http/handler"
)

type userJSON struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestRouter(t *testing.T) (*gin.Engine, *memory.UserRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := memory.NewUserRepository()
	svc := app.NewUserService(repo, app.WithLogger(quietLogger()))
	router := gin.New()
	handler.NewUserHandler(svc, quietLogger()).RegisterRoutes(router)
	return router, repo
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateThenGetByUsername(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doRequest(router, http.MethodPost, "/users", `{"username":"gahyun","email":"gahyun@example.com"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var created userJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "gahyun", created.Username)
	assert.Equal(t, "gahyun@example.com", created.Email)
	assert.JSONEq(t, `{"id":1,"username":"gahyun","email":"gahyun@example.com"}`, rr.Body.String())

	rr = doRequest(router, http.MethodGet, "/users/gahyun", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var found userJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &found))
	assert.Equal(t, created, found)
}

func TestCreate_MalformedBody(t *testing.T) {
	router, repo := newTestRouter(t)

	rr := doRequest(router, http.MethodPost, "/users", `{"username":`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_EmptyFieldsAccepted(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doRequest(router, http.MethodPost, "/users", `{}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":1,"username":"","email":""}`, rr.Body.String())
}

func TestList(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doRequest(router, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	doRequest(router, http.MethodPost, "/users", `{"username":"john","email":"john@example.com"}`)
	doRequest(router, http.MethodPost, "/users", `{"username":"jane","email":"jane@example.com"}`)

	rr = doRequest(router, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var users []userJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &users))
	require.Len(t, users, 2)
	assert.Equal(t, "john", users[0].Username)
	assert.Equal(t, "jane", users[1].Username)
}

func TestGetByUsername_NoMatchIsNull(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doRequest(router, http.MethodGet, "/users/nobody", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "null", rr.Body.String())
}

func TestDelete_NotFound(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := doRequest(router, http.MethodDelete, "/users/1", "")

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "User not found with id: 1", rr.Body.String())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")
}

func TestDelete_Success(t *testing.T) {
	router, repo := newTestRouter(t)
	doRequest(router, http.MethodPost, "/users", `{"username":"john","email":"john@example.com"}`)

	rr := doRequest(router, http.MethodDelete, "/users/1", "")

	assert.Equal(t, http.StatusNoContent, rr.Code)
	exists, err := repo.ExistsByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, exists)

	rr = doRequest(router, http.MethodDelete, "/users/1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDelete_InvalidID(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, id := range []string{"abc", "-1", "1.5"} {
		rr := doRequest(router, http.MethodDelete, "/users/"+id, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, "id %q", id)
	}
}

func TestUpdate(t *testing.T) {
	router, _ := newTestRouter(t)
	doRequest(router, http.MethodPost, "/users", `{"username":"john","email":"john@example.com"}`)

	rr := doRequest(router, http.MethodPut, "/users/1", `{"username":"johnny","email":"johnny@example.com"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"id":1,"username":"johnny","email":"johnny@example.com"}`, rr.Body.String())

	rr = doRequest(router, http.MethodGet, "/users/johnny", "")
	assert.JSONEq(t, `{"id":1,"username":"johnny","email":"johnny@example.com"}`, rr.Body.String())

	rr = doRequest(router, http.MethodGet, "/users/john", "")
	assert.Equal(t, "null", rr.Body.String())
}

func TestUpdate_NotFound(t *testing.T) {
	router, repo := newTestRouter(t)

	rr := doRequest(router, http.MethodPut, "/users/7", `{"username":"x","email":"x@example.com"}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "User not found with id: 7", rr.Body.String())
	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

type failingRepo struct {
	memory.UserRepository
}

func (*failingRepo) FindAll(context.Context) ([]model.User, error) {
	return nil, errors.New("list users failed: connection refused")
}

func TestList_StorageFailureIs500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := app.NewUserService(&failingRepo{}, app.WithLogger(quietLogger()))
	router := gin.New()
	handler.NewUserHandler(svc, quietLogger()).RegisterRoutes(router)

	rr := doRequest(router, http.MethodGet, "/users", "")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "connection refused")
}
