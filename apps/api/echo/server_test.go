package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/assignment"
	"github.com/trezcool/darasa/core/conversation"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/policy"
	"github.com/trezcool/darasa/core/principal"
	"github.com/trezcool/darasa/core/profile"
	"github.com/trezcool/darasa/core/questionnaire"
	"github.com/trezcool/darasa/core/wallet"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdoc "github.com/trezcool/darasa/storage/document/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func setupServer(t *testing.T) echoapi.Server {
	db, err := inmemdoc.Open()
	require.NoError(t, err)

	logger := nopLogger{}
	evaluator := policy.NewEvaluator(policy.NewStoreDirectory(db))
	ledger := wallet.NewEngine(db, logger)

	return echoapi.NewServer(&echoapi.Options{
		DisableReqLogs:   true,
		Logger:           logger,
		Resolver:         principal.NewResolver(),
		ProfileSvc:       profile.NewService(db, evaluator),
		CourseSvc:        course.NewService(db, evaluator, emailsvc.NewConsoleServiceMock(), logger),
		AssignmentSvc:    assignment.NewService(db, evaluator),
		ConversationSvc:  conversation.NewService(db, evaluator),
		QuestionnaireSvc: questionnaire.NewService(db, evaluator),
		WalletSvc:        wallet.NewService(ledger, db, evaluator),
	})
}

func getToken(t *testing.T, uid string) string {
	token, err := principal.GenerateToken(principal.NewClaims(uid, uid, uid+"@darasa.io"))
	require.NoError(t, err)
	return token
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	return data
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func TestServer_Home(t *testing.T) {
	app := setupServer(t)
	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Darasa API!", rec.Body.String())
}

func TestServer_Auth(t *testing.T) {
	app := setupServer(t)

	t.Run("mint token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/token",
			marshallObj(t, echo.Map{"uid": "stud", "displayName": "Stud"}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]string
		decodeBody(t, rec, &body)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("mint token without uid", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/auth/token", marshallObj(t, echo.Map{}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("garbage token is a hard 401", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/wallets/me", "not-a-jwt")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token resolves to anonymous", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/wallets/me")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestServer_ProfileFlow(t *testing.T) {
	app := setupServer(t)
	token := getToken(t, "stud")

	req, rec := newAuthRequest(http.MethodPost, "/v1/profiles", token,
		marshallObj(t, profile.NewProfile{DisplayName: "Stud", Email: "stud@darasa.io"}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var prf profile.UserProfile
	decodeBody(t, rec, &prf)
	assert.Equal(t, "stud", prf.UID)

	t.Run("re-registering", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/profiles", token,
			marshallObj(t, profile.NewProfile{DisplayName: "Stud", Email: "stud@darasa.io"}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("another user cannot update it", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/profiles/stud", getToken(t, "eve"),
			marshallObj(t, profile.UpdateProfile{DisplayName: "Hacked"}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestServer_CourseVisibility(t *testing.T) {
	app := setupServer(t)
	token := getToken(t, "owner")

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses", token,
		marshallObj(t, course.NewCourse{Title: "Algebra I"}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var crs course.Course
	decodeBody(t, rec, &crs)

	t.Run("owner reads it", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID, token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	// private course reads render as 404 for outsiders, never 403
	t.Run("outsider gets a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID, getToken(t, "stranger"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("anonymous gets a 404", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/courses/"+crs.ID)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("anonymous create is a 401", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/courses",
			marshallObj(t, course.NewCourse{Title: "Nope"}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestServer_InternalRoutes(t *testing.T) {
	app := setupServer(t)

	entryBody := marshallObj(t, wallet.NewEntry{Type: wallet.EntryGrant, AmountCredits: 10})

	t.Run("disabled when no key is configured", func(t *testing.T) {
		prevKey := core.Conf.Server.InternalAPIKey
		core.Conf.Server.InternalAPIKey = ""
		defer func() { core.Conf.Server.InternalAPIKey = prevKey }()

		req, rec := newRequest(http.MethodPost, "/internal/wallets", marshallObj(t, echo.Map{}))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	prevKey := core.Conf.Server.InternalAPIKey
	core.Conf.Server.InternalAPIKey = "internal-test-key"
	defer func() { core.Conf.Server.InternalAPIKey = prevKey }()

	t.Run("wrong key", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/internal/wallets", marshallObj(t, echo.Map{}))
		req.Header.Set("X-Internal-Key", "wrong")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	// provision a wallet, grant credits, then read it back through the
	// client surface as its owner
	req, rec := newRequest(http.MethodPost, "/internal/wallets",
		marshallObj(t, echo.Map{"ownerType": wallet.OwnerUser, "ownerId": "stud"}))
	req.Header.Set("X-Internal-Key", "internal-test-key")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var wlt wallet.Wallet
	decodeBody(t, rec, &wlt)

	req, rec = newRequest(http.MethodPost, "/internal/wallets/"+wlt.ID+"/entries", entryBody)
	req.Header.Set("X-Internal-Key", "internal-test-key")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("overdraft maps to 402", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/internal/wallets/"+wlt.ID+"/entries",
			marshallObj(t, wallet.NewEntry{Type: wallet.EntryCharge, AmountCredits: -999}))
		req.Header.Set("X-Internal-Key", "internal-test-key")
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("owner reads the balance", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/wallets/me", getToken(t, "stud"))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var mine wallet.Wallet
		decodeBody(t, rec, &mine)
		assert.Equal(t, wlt.ID, mine.ID)
		assert.Equal(t, int64(10), mine.BalanceCredits)
	})

	t.Run("stranger reads a 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/wallets/"+wlt.ID, getToken(t, "eve"))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
