package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhenders/fieldflow/internal/application/port"
	"github.com/mhenders/fieldflow/internal/application/service"
	"github.com/mhenders/fieldflow/internal/domain/entity"
)

type mockWorkflowService struct {
	submitFunc  func(ctx context.Context, formID string) (*entity.FormSubmission, error)
	rejectFunc  func(ctx context.Context, formID, note, actorEmail string) error
	forwardFunc func(ctx context.Context, formID, toEmail, actorEmail string) error
	approveFunc func(ctx context.Context, formID, actorEmail string) error
	logFunc     func(ctx context.Context, formID, action, actorEmail string) error
	historyFunc func(ctx context.Context, formID string) ([]*entity.WorkflowHistoryEntry, error)
}

func (m *mockWorkflowService) Submit(ctx context.Context, formID string) (*entity.FormSubmission, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, formID)
	}
	return &entity.FormSubmission{ID: formID}, nil
}

func (m *mockWorkflowService) Reject(ctx context.Context, formID, note, actorEmail string) error {
	if m.rejectFunc != nil {
		return m.rejectFunc(ctx, formID, note, actorEmail)
	}
	return nil
}

func (m *mockWorkflowService) Forward(ctx context.Context, formID, toEmail, actorEmail string) error {
	if m.forwardFunc != nil {
		return m.forwardFunc(ctx, formID, toEmail, actorEmail)
	}
	return nil
}

func (m *mockWorkflowService) Approve(ctx context.Context, formID, actorEmail string) error {
	if m.approveFunc != nil {
		return m.approveFunc(ctx, formID, actorEmail)
	}
	return nil
}

func (m *mockWorkflowService) Log(ctx context.Context, formID, action, actorEmail string) error {
	if m.logFunc != nil {
		return m.logFunc(ctx, formID, action, actorEmail)
	}
	return nil
}

func (m *mockWorkflowService) History(ctx context.Context, formID string) ([]*entity.WorkflowHistoryEntry, error) {
	if m.historyFunc != nil {
		return m.historyFunc(ctx, formID)
	}
	return nil, nil
}

type mockFormService struct {
	createFunc    func(ctx context.Context, jobPONumber, submittedByEmail string, data entity.FormData) (*entity.FormSubmission, string, error)
	getFunc       func(ctx context.Context, id string) (*entity.FormSubmission, error)
	listFunc      func(ctx context.Context, limit, offset int) ([]*entity.FormSubmission, error)
	saveDraftFunc func(ctx context.Context, id string, data entity.FormData, actorEmail string) (*entity.FormSubmission, error)
	deleteFunc    func(ctx context.Context, id string) error
}

func (m *mockFormService) Create(ctx context.Context, jobPONumber, submittedByEmail string, data entity.FormData) (*entity.FormSubmission, string, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, jobPONumber, submittedByEmail, data)
	}
	return &entity.FormSubmission{ID: "new", JobPONumber: jobPONumber}, "", nil
}

func (m *mockFormService) Get(ctx context.Context, id string) (*entity.FormSubmission, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &entity.FormSubmission{ID: id}, nil
}

func (m *mockFormService) List(ctx context.Context, limit, offset int) ([]*entity.FormSubmission, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockFormService) SaveDraft(ctx context.Context, id string, data entity.FormData, actorEmail string) (*entity.FormSubmission, error) {
	if m.saveDraftFunc != nil {
		return m.saveDraftFunc(ctx, id, data, actorEmail)
	}
	return &entity.FormSubmission{ID: id, Data: data}, nil
}

func (m *mockFormService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockUserService struct {
	createFunc       func(ctx context.Context, email, password, role string) (*entity.User, error)
	authenticateFunc func(ctx context.Context, email, password string) (*entity.User, error)
	getFunc          func(ctx context.Context, id int64) (*entity.User, error)
	listFunc         func(ctx context.Context) ([]*entity.User, error)
	deleteFunc       func(ctx context.Context, id int64) error
}

func (m *mockUserService) Create(ctx context.Context, email, password, role string) (*entity.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, email, password, role)
	}
	return &entity.User{ID: 1, Email: email, Role: role}, nil
}

func (m *mockUserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	if m.authenticateFunc != nil {
		return m.authenticateFunc(ctx, email, password)
	}
	return nil, service.ErrInvalidCredentials
}

func (m *mockUserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return nil, service.ErrNotFound
}

func (m *mockUserService) List(ctx context.Context) ([]*entity.User, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserService) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type testLogger struct{}

func (testLogger) Info(msg string, keysAndValues ...interface{})  {}
func (testLogger) Error(msg string, keysAndValues ...interface{}) {}

type serverMocks struct {
	workflow *mockWorkflowService
	forms    *mockFormService
	users    *mockUserService
}

func newTestServer(t *testing.T) (*Server, *serverMocks, *TokenIssuer) {
	t.Helper()

	mocks := &serverMocks{
		workflow: &mockWorkflowService{},
		forms:    &mockFormService{},
		users:    &mockUserService{},
	}
	tokens := NewTokenIssuer("test-secret", time.Hour, "fieldflow-test")
	handlers := NewHandlers(mocks.workflow, mocks.forms, mocks.users, nil, tokens, testLogger{})
	server := NewServer(DefaultServerConfig(), handlers, tokens, testLogger{})
	return server, mocks, tokens
}

func bearerFor(t *testing.T, tokens *TokenIssuer, role string) string {
	t.Helper()
	token, err := tokens.Generate(&entity.User{ID: 1, Email: role + "@example.com", Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func doJSON(server *Server, method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := doJSON(server, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestAuthRequired(t *testing.T) {
	server, _, _ := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/workflow/submit"},
		{http.MethodGet, "/api/forms"},
		{http.MethodGet, "/api/users"},
	}

	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			w := doJSON(server, p.method, p.path, "", nil)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	server, _, _ := newTestServer(t)

	w := doJSON(server, http.MethodGet, "/api/forms", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(server, http.MethodGet, "/api/forms", "Basic dXNlcjpwYXNz", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin(t *testing.T) {
	server, mocks, _ := newTestServer(t)
	mocks.users.authenticateFunc = func(ctx context.Context, email, password string) (*entity.User, error) {
		if email == "pm@example.com" && password == "correct-horse" {
			return &entity.User{ID: 3, Email: email, Role: entity.RolePM}, nil
		}
		return nil, service.ErrInvalidCredentials
	}

	w := doJSON(server, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "pm@example.com",
		Password: "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool          `json:"success"`
		Data    LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.NotEmpty(t, resp.Data.Token)
	assert.Equal(t, entity.RolePM, resp.Data.Role)

	w = doJSON(server, http.MethodPost, "/api/auth/login", "", LoginRequest{
		Email:    "pm@example.com",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmit(t *testing.T) {
	server, mocks, tokens := newTestServer(t)

	var gotID string
	mocks.workflow.submitFunc = func(ctx context.Context, formID string) (*entity.FormSubmission, error) {
		gotID = formID
		return &entity.FormSubmission{ID: formID, Status: entity.StatusSubmitted}, nil
	}

	auth := bearerFor(t, tokens, entity.RoleTechnician)
	w := doJSON(server, http.MethodPost, "/api/workflow/submit", auth, SubmitRequest{ID: "f1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "f1", gotID)
}

func TestReviewActionsRequirePMRole(t *testing.T) {
	server, _, tokens := newTestServer(t)

	techAuth := bearerFor(t, tokens, entity.RoleTechnician)
	pmAuth := bearerFor(t, tokens, entity.RolePM)

	tests := []struct {
		path string
		body interface{}
	}{
		{path: "/api/workflow/reject", body: RejectRequest{ID: "f1", Note: "n"}},
		{path: "/api/workflow/forward", body: ForwardRequest{ID: "f1", To: "x@example.com"}},
		{path: "/api/workflow/approve", body: ApproveRequest{ID: "f1"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doJSON(server, http.MethodPost, tt.path, techAuth, tt.body)
			assert.Equal(t, http.StatusForbidden, w.Code)

			w = doJSON(server, http.MethodPost, tt.path, pmAuth, tt.body)
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRejectPassesActorFromToken(t *testing.T) {
	server, mocks, tokens := newTestServer(t)

	var gotActor string
	mocks.workflow.rejectFunc = func(ctx context.Context, formID, note, actorEmail string) error {
		gotActor = actorEmail
		return nil
	}

	auth := bearerFor(t, tokens, entity.RolePM)
	w := doJSON(server, http.MethodPost, "/api/workflow/reject", auth, RejectRequest{ID: "f1", Note: "redo"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pm@example.com", gotActor)
}

func TestErrorStatusMapping(t *testing.T) {
	server, mocks, tokens := newTestServer(t)
	auth := bearerFor(t, tokens, entity.RolePM)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: fmt.Errorf("%w: bad input", service.ErrValidation), wantStatus: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("%w: form f1", service.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "version conflict", err: fmt.Errorf("save: %w", port.ErrVersionConflict), wantStatus: http.StatusConflict},
		{name: "internal", err: fmt.Errorf("disk full"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mocks.workflow.approveFunc = func(ctx context.Context, formID, actorEmail string) error {
				return tt.err
			}

			w := doJSON(server, http.MethodPost, "/api/workflow/approve", auth, ApproveRequest{ID: "f1"})
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCreateForm(t *testing.T) {
	server, mocks, tokens := newTestServer(t)

	var gotEmail string
	mocks.forms.createFunc = func(ctx context.Context, jobPO, email string, data entity.FormData) (*entity.FormSubmission, string, error) {
		gotEmail = email
		return &entity.FormSubmission{ID: "new", JobPONumber: jobPO}, "unrecognized division prefix", nil
	}

	auth := bearerFor(t, tokens, entity.RoleTechnician)
	w := doJSON(server, http.MethodPost, "/api/forms", auth, CreateFormRequest{JobPONumber: "24-99-0001"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "technician@example.com", gotEmail)

	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "unrecognized division prefix", resp.Warning)
}

func TestDeleteFormRequiresAdmin(t *testing.T) {
	server, _, tokens := newTestServer(t)

	w := doJSON(server, http.MethodDelete, "/api/forms/f1", bearerFor(t, tokens, entity.RolePM), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(server, http.MethodDelete, "/api/forms/f1", bearerFor(t, tokens, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserRoutesRequireSuperadmin(t *testing.T) {
	server, _, tokens := newTestServer(t)

	w := doJSON(server, http.MethodGet, "/api/users", bearerFor(t, tokens, entity.RoleAdmin), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(server, http.MethodGet, "/api/users", bearerFor(t, tokens, entity.RoleSuperadmin), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHistory(t *testing.T) {
	server, mocks, tokens := newTestServer(t)

	mocks.workflow.historyFunc = func(ctx context.Context, formID string) ([]*entity.WorkflowHistoryEntry, error) {
		return []*entity.WorkflowHistoryEntry{
			{ID: 1, FormID: formID, Action: entity.ActionSubmitted, ActorEmail: "tech@example.com"},
			{ID: 2, FormID: formID, Action: entity.ActionRejected, ActorEmail: "pm@example.com", Note: "redo"},
		}, nil
	}

	auth := bearerFor(t, tokens, entity.RoleTechnician)
	w := doJSON(server, http.MethodGet, "/api/workflow/history/f1", auth, nil)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                           `json:"success"`
		Data    []*entity.WorkflowHistoryEntry `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, entity.ActionSubmitted, resp.Data[0].Action)
	assert.Equal(t, entity.ActionRejected, resp.Data[1].Action)
}
