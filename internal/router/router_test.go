package router

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftyclassroom/classroom-api/internal/policy"
	"github.com/craftyclassroom/classroom-api/internal/repository"
	"github.com/craftyclassroom/classroom-api/internal/service"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T, profile string, entries ...string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	p, err := policy.New(profile, entries)
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	metrics := service.NewMetricsService()
	engine, err := New(Deps{
		Policy:      p,
		Store:       store,
		Tokens:      service.NewTokenService(nil, nil, service.TokenConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "crafty-classroom"}),
		Users:       service.NewUserService(store.Users, nil, nil, nil),
		Classes:     service.NewClassService(store.Classes, nil, nil, nil),
		Enrollments: service.NewEnrollmentService(store.Enrollments, metrics, nil, nil),
		Metrics:     metrics,
	})
	require.NoError(t, err)
	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(method, path string, body interface{}, header ...string) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if len(header) == 1 {
		req.Header.Set("Authorization", header[0])
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) token(email string) string {
	s.t.Helper()
	w := s.do(http.MethodPost, "/jwt", map[string]string{"email": email, "name": "Admin"})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(s.t, body.Token)
	return body.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decode[map[string]map[string]interface{}](t, w)
	code, _ := body["error"]["code"].(string)
	return code
}

func TestRootBanner(t *testing.T) {
	s := newTestServer(t, "default")
	w := s.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "server is running...", w.Body.String())
}

func TestClassApprovalScenario(t *testing.T) {
	s := newTestServer(t, "default")

	w := s.do(http.MethodPost, "/newClass", map[string]interface{}{
		"className":             "Pottery",
		"status":                "pending",
		"totalEnrolledStudents": 0,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	ack := decode[map[string]interface{}](t, w)
	assert.Equal(t, true, ack["acknowledged"])
	id, _ := ack["insertedId"].(string)
	require.Len(t, id, 24)

	w = s.do(http.MethodGet, "/approvedClasses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]map[string]interface{}](t, w))

	w = s.do(http.MethodPatch, "/updateClassStatus/"+id, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	upd := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 1, upd["matchedCount"])
	assert.EqualValues(t, 1, upd["modifiedCount"])

	w = s.do(http.MethodGet, "/approvedClasses", nil)
	approved := decode[[]map[string]interface{}](t, w)
	require.Len(t, approved, 1)
	assert.Equal(t, id, approved[0]["_id"])
	assert.Equal(t, "Pottery", approved[0]["className"])

	for i := 0; i < 7; i++ {
		w = s.do(http.MethodPost, "/newClass", map[string]interface{}{
			"className":             "Filler",
			"status":                "approved",
			"totalEnrolledStudents": 0,
			"instructorEmail":       "bo@example.com",
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w = s.do(http.MethodGet, "/popularClasses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	popular := decode[[]map[string]interface{}](t, w)
	require.Len(t, popular, 6)
	assert.Equal(t, id, popular[0]["_id"])
	for _, card := range popular {
		for key := range card {
			assert.Contains(t, []string{"_id", "className", "classImage", "totalEnrolledStudents"}, key)
		}
		assert.EqualValues(t, 0, card["totalEnrolledStudents"])
	}

	w = s.do(http.MethodPatch, "/updateClassStatus/"+id, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentSelectionScenario(t *testing.T) {
	s := newTestServer(t, "default")

	w := s.do(http.MethodPost, "/studentsData", map[string]string{"className": "Pottery", "paymentStatus": "pending"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[map[string]interface{}](t, w)["insertedId"].(string)

	w = s.do(http.MethodGet, "/selectedClasses", nil)
	selected := decode[[]map[string]interface{}](t, w)
	require.Len(t, selected, 1)
	assert.Equal(t, id, selected[0]["_id"])

	w = s.do(http.MethodGet, "/payment/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Pottery", decode[map[string]interface{}](t, w)["className"])

	w = s.do(http.MethodDelete, "/selectedClasses/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":1}`, w.Body.String())

	w = s.do(http.MethodGet, "/selectedClasses", nil)
	assert.Empty(t, decode[[]map[string]interface{}](t, w))

	w = s.do(http.MethodGet, "/selectedClasses/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))

	w = s.do(http.MethodGet, "/enrolledClasses", nil)
	assert.Equal(t, "[]", w.Body.String())
}

func TestCreateKeepsUnnamedMembers(t *testing.T) {
	s := newTestServer(t, "default")

	w := s.do(http.MethodPost, "/studentsData", map[string]interface{}{
		"email":         "s@x.io",
		"classId":       "c1",
		"paymentStatus": "pending",
		"instructor":    "Ann",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[map[string]interface{}](t, w)["insertedId"].(string)

	w = s.do(http.MethodGet, "/selectedClasses/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	enrollment := decode[map[string]interface{}](t, w)
	assert.Equal(t, "s@x.io", enrollment["email"])
	assert.Equal(t, "Ann", enrollment["instructor"])
	assert.Equal(t, "c1", enrollment["classId"])

	w = s.do(http.MethodPost, "/users", map[string]interface{}{"name": "Bo", "email": "bo@example.com", "provider": "google"})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodGet, "/users", nil)
	users := decode[[]map[string]interface{}](t, w)
	require.Len(t, users, 1)
	assert.Equal(t, "google", users[0]["provider"])
}

func TestCreateClassCoercesNumericStrings(t *testing.T) {
	s := newTestServer(t, "default")

	w := s.do(http.MethodPost, "/newClass", map[string]interface{}{"className": "Weaving", "price": "50", "availableSeats": "8"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[map[string]interface{}](t, w)["insertedId"].(string)

	w = s.do(http.MethodGet, "/allclasses/"+id, nil)
	class := decode[map[string]interface{}](t, w)
	assert.EqualValues(t, 50, class["price"])
	assert.EqualValues(t, 8, class["availableSeats"])

	w = s.do(http.MethodPost, "/newClass", map[string]interface{}{"className": "Weaving", "price": "free"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/allclasses", nil)
	assert.Len(t, decode[[]map[string]interface{}](t, w), 1)
}

func TestTokenCarriesExtraClaims(t *testing.T) {
	s := newTestServer(t, "default")

	w := s.do(http.MethodPost, "/jwt", map[string]interface{}{"email": "ada@example.com", "uid": "firebase-123", "iss": "forged"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode[map[string]string](t, w)["token"]

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &claims))
	assert.Equal(t, "firebase-123", claims["uid"])
	assert.Equal(t, "ada@example.com", claims["email"])
	assert.Equal(t, "crafty-classroom", claims["iss"])

	w = s.do(http.MethodGet, "/manageUsers", nil, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserRoutes(t *testing.T) {
	s := newTestServer(t, "default")

	w := s.do(http.MethodPost, "/users", map[string]string{"name": "Bo", "email": "bo@example.com", "photoURL": "bo.png"})
	require.Equal(t, http.StatusOK, w.Code)
	id := decode[map[string]interface{}](t, w)["insertedId"].(string)

	w = s.do(http.MethodGet, "/allinstructors", nil)
	assert.Empty(t, decode[[]map[string]interface{}](t, w))

	w = s.do(http.MethodPatch, "/updateRole/"+id, map[string]string{"role": "instructor"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/sixInstructors", nil)
	instructors := decode[[]map[string]interface{}](t, w)
	require.Len(t, instructors, 1)
	assert.Equal(t, map[string]interface{}{"_id": id, "name": "Bo", "email": "bo@example.com", "photoURL": "bo.png"}, instructors[0])

	w = s.do(http.MethodGet, "/threeStudents", nil)
	assert.Empty(t, decode[[]map[string]interface{}](t, w))

	w = s.do(http.MethodPatch, "/updateRole/not-hex", map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))

	w = s.do(http.MethodPatch, "/updateRole/"+id, map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClassUpdateUpserts(t *testing.T) {
	s := newTestServer(t, "default")
	id := "65a1f0c2b7e4d3a1c2b3d4e5"

	w := s.do(http.MethodGet, "/allclasses/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPut, "/allclasses/"+id, map[string]interface{}{"className": "Weaving", "price": 30, "availableSeats": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"acknowledged":true,"matchedCount":0,"modifiedCount":0,"upsertedCount":1,"upsertedId":"`+id+`"}`, w.Body.String())

	w = s.do(http.MethodPatch, "/updateFeedback/"+id, map[string]string{"feedback": "Lovely"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/allclasses/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	class := decode[map[string]interface{}](t, w)
	assert.Equal(t, "Weaving", class["className"])
	assert.EqualValues(t, 30, class["price"])
	assert.EqualValues(t, 4, class["availableSeats"])
	assert.Equal(t, "Lovely", class["feedback"])
}

func TestGateOnDefaultPolicy(t *testing.T) {
	s := newTestServer(t, "default")

	w := s.do(http.MethodGet, "/manageUsers", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))

	w = s.do(http.MethodGet, "/manageUsers", nil, "Bearer nonsense")
	assert.Equal(t, http.StatusForbidden, w.Code)

	token := s.token("admin@example.com")
	w = s.do(http.MethodGet, "/manageUsers", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodGet, "/manageUsers", nil, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = s.do(http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateOnStrictPolicy(t *testing.T) {
	s := newTestServer(t, "strict", "DELETE /selectedClasses/:id")

	for _, path := range []string{"/manageUsers", "/users", "/allclasses", "/selectedClasses", "/enrolledClasses"} {
		w := s.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
	w := s.do(http.MethodDelete, "/selectedClasses/65a1f0c2b7e4d3a1c2b3d4e5", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/allclasses/65a1f0c2b7e4d3a1c2b3d4e5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	token := s.token("admin@example.com")
	w = s.do(http.MethodGet, "/allclasses", nil, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOpenPolicyKeepsAdminViewProtected(t *testing.T) {
	s := newTestServer(t, "open")

	for _, path := range []string{"/users", "/allclasses", "/selectedClasses", "/enrolledClasses"} {
		w := s.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	w := s.do(http.MethodGet, "/manageUsers", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewRejectsUnregisteredProtectedRoute(t *testing.T) {
	p, err := policy.New("default", []string{"GET /allclass"})
	require.NoError(t, err)

	store := repository.NewMemoryStore()
	_, err = New(Deps{
		Policy:      p,
		Store:       store,
		Tokens:      service.NewTokenService(nil, nil, service.TokenConfig{Secret: "s"}),
		Users:       service.NewUserService(store.Users, nil, nil, nil),
		Classes:     service.NewClassService(store.Classes, nil, nil, nil),
		Enrollments: service.NewEnrollmentService(store.Enrollments, nil, nil, nil),
	})
	assert.ErrorContains(t, err, "GET /allclass")
}

func TestPaymentIntentStub(t *testing.T) {
	s := newTestServer(t, "default")
	w := s.do(http.MethodPost, "/create-payment-intent", map[string]interface{}{"items": []string{"pottery"}})
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, "default")

	w := s.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	s.do(http.MethodGet, "/allclasses", nil)
	w = s.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]interface{}](t, w)
	assert.Equal(t, "ok", health["status"])

	w = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `classroom_http_requests_total{method="GET",path="/allclasses",status="200"} 1`)
}

func TestRosterExport(t *testing.T) {
	s := newTestServer(t, "default")
	s.do(http.MethodPost, "/studentsData", map[string]interface{}{"className": "Pottery", "studentName": "Ada", "price": 12.5})

	w := s.do(http.MethodGet, "/studentsData/export?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".csv")
	assert.Equal(t, "Student,Student Email,Class,Instructor,Price,Payment Status\nAda,,Pottery,,12.50,pending\n", w.Body.String())

	w = s.do(http.MethodGet, "/studentsData/export?format=docx", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
