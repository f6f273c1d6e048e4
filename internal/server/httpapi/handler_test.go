package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/clientintake/internal/common"
	"github.com/dmitrijs2005/clientintake/internal/logging"
	"github.com/dmitrijs2005/clientintake/internal/server/auth"
	"github.com/dmitrijs2005/clientintake/internal/server/models"
	"github.com/dmitrijs2005/clientintake/internal/server/onboarding"
	"github.com/dmitrijs2005/clientintake/internal/steps"
)

const secretKey = "test-secret"

// --- fakes ---

type fakeOnboarding struct {
	session     *onboarding.Session
	initErr     error
	gotUserID   string
	gotStepID   steps.ID
	gotPayload  []byte
	next        int
	completeErr error
	submission  *models.Submission
	submitErr   error
	list        []*models.Submission
	latestErr   error
}

func (f *fakeOnboarding) Initialize(ctx context.Context, userID string) (*onboarding.Session, error) {
	f.gotUserID = userID
	return f.session, f.initErr
}

func (f *fakeOnboarding) CompleteStep(ctx context.Context, userID string, stepID steps.ID, payload json.RawMessage) (int, error) {
	f.gotUserID = userID
	f.gotStepID = stepID
	f.gotPayload = payload
	return f.next, f.completeErr
}

func (f *fakeOnboarding) Submit(ctx context.Context, userID string) (*models.Submission, error) {
	f.gotUserID = userID
	return f.submission, f.submitErr
}

func (f *fakeOnboarding) ListSubmissions(ctx context.Context, userID string) ([]*models.Submission, error) {
	return f.list, nil
}

func (f *fakeOnboarding) LatestSubmission(ctx context.Context, userID string) (*models.Submission, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	return f.submission, nil
}

type fakeIdentity struct {
	user     *models.User
	token    string
	regErr   error
	loginErr error
}

func (f *fakeIdentity) Register(ctx context.Context, email, password, firstName, lastName string) (*models.User, string, error) {
	return f.user, f.token, f.regErr
}

func (f *fakeIdentity) Login(ctx context.Context, email, password string) (string, error) {
	return f.token, f.loginErr
}

// --- helpers ---

func newServer(ob *fakeOnboarding, id *fakeIdentity) *HTTPServer {
	l := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewHTTPServer(":0", l, ob, id, secretKey)
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, []byte(secretKey), time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, h http.Handler, method, path, authHeader string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- tests ---

func TestHealth(t *testing.T) {
	srv := newServer(&fakeOnboarding{}, &fakeIdentity{})
	rec := doRequest(t, srv.Router(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegister(t *testing.T) {
	id := &fakeIdentity{user: &models.User{ID: "u-1"}, token: "tok"}
	srv := newServer(&fakeOnboarding{}, id)

	rec := doRequest(t, srv.Router(), http.MethodPost, "/auth/register", "",
		[]byte(`{"email":"anna@example.com","password":"pw","firstName":"Anna"}`))

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u-1", resp["userId"])
	assert.Equal(t, "tok", resp["accessToken"])
}

func TestRegister_MissingFields(t *testing.T) {
	srv := newServer(&fakeOnboarding{}, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPost, "/auth/register", "", []byte(`{"email":"a@b.c"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv := newServer(&fakeOnboarding{}, &fakeIdentity{loginErr: common.ErrorUnauthorized})

	rec := doRequest(t, srv.Router(), http.MethodPost, "/auth/login", "",
		[]byte(`{"email":"anna@example.com","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInitialize_AnonymousStartsAtZero(t *testing.T) {
	ob := &fakeOnboarding{session: &onboarding.Session{StartIndex: 0, Data: steps.Record{}}}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodGet, "/onboarding", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ob.gotUserID)
}

func TestInitialize_AuthenticatedPassesUserID(t *testing.T) {
	ob := &fakeOnboarding{session: &onboarding.Session{StartIndex: 4, Data: steps.Record{}}}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodGet, "/onboarding", bearerFor(t, "u-1"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-1", ob.gotUserID)

	var sess onboarding.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, 4, sess.StartIndex)
}

func TestCompleteStep_RequiresAuth(t *testing.T) {
	srv := newServer(&fakeOnboarding{}, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPut, "/onboarding/steps/goals", "", []byte(`{}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCompleteStep_Success(t *testing.T) {
	ob := &fakeOnboarding{next: 4}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPut, "/onboarding/steps/goals",
		bearerFor(t, "u-1"), []byte(`{"primaryGoal":"strength"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, steps.Goals, ob.gotStepID)
	assert.Equal(t, "u-1", ob.gotUserID)
	assert.JSONEq(t, `{"primaryGoal":"strength"}`, string(ob.gotPayload))

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp["nextIndex"])
}

func TestCompleteStep_UnknownStep(t *testing.T) {
	srv := newServer(&fakeOnboarding{}, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPut, "/onboarding/steps/warmup",
		bearerFor(t, "u-1"), []byte(`{}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompleteStep_ValidationFailure(t *testing.T) {
	ob := &fakeOnboarding{completeErr: &steps.ValidationError{
		StepID: steps.Identity,
		Fields: map[string]string{"email": "must be a valid email address"},
	}}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPut, "/onboarding/steps/identity",
		bearerFor(t, "u-1"), []byte(`{"email":"nope"}`))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "VALIDATION_FAILED", body.Code)
	assert.Contains(t, body.Fields, "email")
}

func TestCompleteStep_OutOfSequence(t *testing.T) {
	ob := &fakeOnboarding{completeErr: common.ErrorOutOfSequence}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPut, "/onboarding/steps/review",
		bearerFor(t, "u-1"), []byte(`{"consentAcknowledged":true}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmit_Success(t *testing.T) {
	ob := &fakeOnboarding{submission: &models.Submission{
		ID:          "s-1",
		UserID:      "u-1",
		SubmittedAt: time.Now().UTC(),
		Status:      models.SubmissionStatusSubmitted,
		Version:     1,
	}}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPost, "/onboarding/submit", bearerFor(t, "u-1"), nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var dto submissionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "s-1", dto.ID)
	assert.Equal(t, "submitted", dto.Status)
}

func TestSubmit_ReviewNotReached(t *testing.T) {
	ob := &fakeOnboarding{submitErr: common.ErrorReviewNotReached}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPost, "/onboarding/submit", bearerFor(t, "u-1"), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSubmit_NoDraft(t *testing.T) {
	ob := &fakeOnboarding{submitErr: common.ErrorNotFound}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPost, "/onboarding/submit", bearerFor(t, "u-1"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSubmissions(t *testing.T) {
	ob := &fakeOnboarding{list: []*models.Submission{
		{ID: "s-1", Status: models.SubmissionStatusSubmitted},
		{ID: "s-2", Status: models.SubmissionStatusSubmitted},
	}}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodGet, "/submissions", bearerFor(t, "u-1"), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var dtos []submissionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dtos))
	require.Len(t, dtos, 2)
	assert.Equal(t, "s-1", dtos[0].ID)
	assert.Equal(t, "s-2", dtos[1].ID)
}

func TestLatestSubmission_Empty(t *testing.T) {
	ob := &fakeOnboarding{latestErr: common.ErrorNotFound}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodGet, "/submissions/latest", bearerFor(t, "u-1"), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	srv := newServer(&fakeOnboarding{}, &fakeIdentity{})

	token, err := auth.GenerateToken("u-1", []byte(secretKey), -time.Minute)
	require.NoError(t, err)

	rec := doRequest(t, srv.Router(), http.MethodGet, "/submissions", "Bearer "+token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInternalErrorsAreOpaque(t *testing.T) {
	ob := &fakeOnboarding{submitErr: errors.New("pq: connection reset")}
	srv := newServer(ob, &fakeIdentity{})

	rec := doRequest(t, srv.Router(), http.MethodPost, "/onboarding/submit", bearerFor(t, "u-1"), nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}
