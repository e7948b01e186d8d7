package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reservo/internal/resources/service"
	"reservo/internal/resources/validator"
	"reservo/internal/store/memstore"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	httputil "reservo/pkg/http"
	"reservo/pkg/lock"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	s := memstore.New()
	cfg := config.Defaults(logger.Discard())
	svc := service.NewResourceService(s.Resources(), s.Issues(), s.Timetable(), lock.NewLocalLocker(lock.DefaultOptions()),
		validator.NewResourceValidator(cfg.Log), clock.NewFake(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)), cfg)
	router := httprouter.New()
	NewResourceHandler(svc, cfg.Log).RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, path, body, user, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(httputil.HeaderUserID, user)
	}
	if role != "" {
		req.Header.Set(httputil.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

const labJSON = `{"id":"lab-1","name":"Lab One","category":"lab","capacity":2,"status":"available","key_id":"k1"}`

func TestResourceRoutes(t *testing.T) {
	router := newRouter(t)

	rec := do(router, http.MethodPost, "/api/v1/resources", labJSON, "bob", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(router, http.MethodPost, "/api/v1/resources", labJSON, "root", httputil.RoleAdmin)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/v1/resources?category=lab", "", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data       []model.Resource `json:"data"`
		TotalCount int64            `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "k1", page.Data[0].KeyID)

	rec = do(router, http.MethodPost, "/api/v1/resources/id/lab-1/status", `{"status":"unavailable"}`, "root", httputil.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"unavailable"`)

	rec = do(router, http.MethodGet, "/api/v1/resources/id/missing", "", "bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIssueRoutes(t *testing.T) {
	router := newRouter(t)
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/api/v1/resources", labJSON, "root", httputil.RoleAdmin).Code)

	rec := do(router, http.MethodPost, "/api/v1/resources/id/lab-1/issues", `{"classification":"out_of_order"}`, "bob", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Data model.ResourceIssue `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(router, http.MethodPost, "/api/v1/issues/id/"+created.Data.ID+"/status", `{"status":"wont_fix"}`, "root", httputil.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/v1/resources/id/lab-1/issues?open=true", "", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":[]}`, rec.Body.String())

	rec = do(router, http.MethodGet, "/api/v1/resources/id/lab-1/issues?open=maybe", "", "bob", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTimetableRoutes(t *testing.T) {
	router := newRouter(t)
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/api/v1/resources", labJSON, "root", httputil.RoleAdmin).Code)

	entry := `{"resource_id":"lab-1","weekday":"tuesday","start_of_day":"08:00","end_of_day":"09:30","time_zone":"UTC"}`
	rec := do(router, http.MethodPut, "/api/v1/timetable", entry, "root", httputil.RoleAdmin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var saved struct {
		Data model.TimetableEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	require.NotEmpty(t, saved.Data.ID)

	rec = do(router, http.MethodGet, "/api/v1/resources/id/lab-1/timetable", "", "bob", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"weekday":"tuesday"`)

	rec = do(router, http.MethodDelete, "/api/v1/timetable/id/"+saved.Data.ID, "", "root", httputil.RoleAdmin)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
