package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userhub-backend/api/middleware"
	"userhub-backend/internal/accounts"
	"userhub-backend/internal/users"
	"userhub-backend/pkg/enums"
	pkgerrors "userhub-backend/pkg/errors"
	"userhub-backend/pkg/logger"
	"userhub-backend/pkg/pagination"
	"userhub-backend/pkg/types"
)

type stubAccountService struct {
	registerErr error
	registered  *users.UserDTO

	loginResp *accounts.LoginResponse
	loginErr  error

	updateResp *users.UserDTO
	updateErr  error

	changeErr error
	deleteErr error

	lastRegister *accounts.RegisterRequest
	lastUpdate   *accounts.UpdateAccountRequest
}

func (s *stubAccountService) Register(ctx context.Context, req accounts.RegisterRequest) (*users.UserDTO, error) {
	s.lastRegister = &req
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return s.registered, nil
}

func (s *stubAccountService) Login(ctx context.Context, req accounts.LoginRequest) (*accounts.LoginResponse, error) {
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.loginResp, nil
}

func (s *stubAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	return nil, users.ErrNotFound
}

func (s *stubAccountService) UpdateAccount(ctx context.Context, id uuid.UUID, req accounts.UpdateAccountRequest) (*users.UserDTO, error) {
	s.lastUpdate = &req
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return s.updateResp, nil
}

func (s *stubAccountService) ChangePassword(ctx context.Context, id uuid.UUID, req accounts.ChangePasswordRequest) error {
	return s.changeErr
}

func (s *stubAccountService) DeleteAccount(ctx context.Context, id uuid.UUID, req accounts.DeleteAccountRequest) error {
	return s.deleteErr
}

// recordingStore tracks saves and deletes for upload-cleanup assertions.
type recordingStore struct {
	mu      sync.Mutex
	saves   int
	deleted []string
}

func (s *recordingStore) Save(ctx context.Context, filename string, contents io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return fmt.Sprintf("stored-%d.png", s.saves), nil
}

func (s *recordingStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func sampleUser() *users.UserDTO {
	email := "alice@example.com"
	return &users.UserDTO{
		ID:    uuid.New(),
		Name:  "alice",
		Email: &email,
		Role:  enums.UserRoleUser,
	}
}

func multipartBody(t *testing.T, fields map[string]string, withAvatar bool) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if withAvatar {
		fw, err := mw.CreateFormFile("avatar", "me.png")
		require.NoError(t, err)
		_, err = fw.Write([]byte("png-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeSuccess(t *testing.T, rr *httptest.ResponseRecorder) types.SuccessEnvelope {
	t.Helper()
	var payload types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	return payload
}

func decodeFailure(t *testing.T, rr *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var payload types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &payload))
	return payload
}

func TestRegisterJSONBodyReturnsCreated(t *testing.T) {
	svc := &stubAccountService{registered: sampleUser()}
	handler := Register(svc, &recordingStore{}, testLogger())

	body := strings.NewReader(`{"name":"alice","password":"secret","email":"alice@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/users/register", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	payload := decodeSuccess(t, rr)
	assert.True(t, payload.Success)
	assert.Equal(t, http.StatusCreated, payload.StatusCode)
	require.NotNil(t, payload.Data)
}

func TestRegisterMultipartStoresAvatar(t *testing.T) {
	svc := &stubAccountService{registered: sampleUser()}
	store := &recordingStore{}
	handler := Register(svc, store, testLogger())

	buf, contentType := multipartBody(t, map[string]string{
		"name":     "alice",
		"password": "secret",
		"email":    "alice@example.com",
	}, true)
	req := httptest.NewRequest(http.MethodPost, "/users/register", buf)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, svc.lastRegister)
	require.NotNil(t, svc.lastRegister.AvatarPath)
	assert.Equal(t, "stored-1.png", *svc.lastRegister.AvatarPath)
	assert.Empty(t, store.deleted)
}

func TestRegisterFailureDeletesUploadedAvatar(t *testing.T) {
	svc := &stubAccountService{registerErr: pkgerrors.New(pkgerrors.CodeConflict, "duplicate")}
	store := &recordingStore{}
	handler := Register(svc, store, testLogger())

	buf, contentType := multipartBody(t, map[string]string{
		"name":     "alice",
		"password": "secret",
		"email":    "alice@example.com",
	}, true)
	req := httptest.NewRequest(http.MethodPost, "/users/register", buf)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, []string{"stored-1.png"}, store.deleted)
	payload := decodeFailure(t, rr)
	assert.False(t, payload.Success)
	assert.Equal(t, "CONFLICT", payload.Code)
}

func TestRegisterIgnoresUnrecognizedJSONKeys(t *testing.T) {
	svc := &stubAccountService{registered: sampleUser()}
	handler := Register(svc, &recordingStore{}, testLogger())

	body := strings.NewReader(`{"name":"alice","password":"secret","email":"a@b.co","role":"admin","extra":1}`)
	req := httptest.NewRequest(http.MethodPost, "/users/register", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, svc.lastRegister)
	assert.Equal(t, "alice", svc.lastRegister.Name)
}

func TestUpdateAccountIgnoresAvatarJSONKey(t *testing.T) {
	svc := &stubAccountService{updateResp: sampleUser()}
	handler := UpdateAccount(svc, &recordingStore{}, testLogger())

	body := strings.NewReader(`{"name":"alice","avatar":"sneaky.png"}`)
	req := httptest.NewRequest(http.MethodPut, "/users/account", body)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithIdentity(req.Context(), sampleUser()))
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, svc.lastUpdate)
	// The stored path is controller-assigned from a real upload only.
	assert.Nil(t, svc.lastUpdate.AvatarPath)
}

func TestLoginPropagatesServiceError(t *testing.T) {
	svc := &stubAccountService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}
	handler := Login(svc, testLogger())

	body := strings.NewReader(`{"email":"alice@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/users/login", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	payload := decodeFailure(t, rr)
	assert.Equal(t, "UNAUTHORIZED", payload.Code)
	assert.Equal(t, "invalid credentials", payload.Message)
}

func TestLoginReturnsUserAndToken(t *testing.T) {
	user := sampleUser()
	svc := &stubAccountService{loginResp: &accounts.LoginResponse{User: user, Token: "signed-token"}}
	handler := Login(svc, testLogger())

	body := strings.NewReader(`{"email":"alice@example.com","password":"secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/users/login", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	payload := decodeSuccess(t, rr)
	data, ok := payload.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "signed-token", data["token"])
}

func TestGetAccountEchoesIdentity(t *testing.T) {
	handler := GetAccount(testLogger())
	user := sampleUser()

	req := httptest.NewRequest(http.MethodGet, "/users/account", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), user))
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	payload := decodeSuccess(t, rr)
	data, ok := payload.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, user.ID.String(), data["id"])
}

func TestUpdateAccountFailureDeletesUploadedAvatar(t *testing.T) {
	svc := &stubAccountService{updateErr: pkgerrors.New(pkgerrors.CodeBadRequest, "email cannot be changed once set")}
	store := &recordingStore{}
	handler := UpdateAccount(svc, store, testLogger())

	buf, contentType := multipartBody(t, map[string]string{"email": "new@example.com"}, true)
	req := httptest.NewRequest(http.MethodPut, "/users/account", buf)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(middleware.WithIdentity(req.Context(), sampleUser()))
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, []string{"stored-1.png"}, store.deleted)
}

func TestChangePasswordSuccessEnvelope(t *testing.T) {
	handler := ChangePassword(&stubAccountService{}, testLogger())

	body := strings.NewReader(`{"oldPassword":"secret","newPassword":"next"}`)
	req := httptest.NewRequest(http.MethodPost, "/users/account/change-password", body)
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(middleware.WithIdentity(req.Context(), sampleUser()))
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	payload := decodeSuccess(t, rr)
	assert.True(t, payload.Success)
	assert.Equal(t, "password updated", payload.Message)
}

func TestDeleteAccountWithoutIdentityIsUnauthorized(t *testing.T) {
	handler := DeleteAccount(&stubAccountService{}, testLogger())

	body := strings.NewReader(`{"password":"secret"}`)
	req := httptest.NewRequest(http.MethodDelete, "/users/account", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

type stubAdminService struct {
	listResp  *accounts.UserListResponse
	getResp   *users.UserDTO
	getErr    error
	modifyErr error
	deleteErr error

	createErr  error
	createResp *users.UserDTO

	lastModifyInput map[string]any
}

func (s *stubAdminService) ListUsers(ctx context.Context, params pagination.Params) (*accounts.UserListResponse, error) {
	return s.listResp, nil
}

func (s *stubAdminService) GetUser(ctx context.Context, id uuid.UUID) (*users.UserDTO, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.getResp, nil
}

func (s *stubAdminService) ModifyUser(ctx context.Context, id uuid.UUID, input map[string]any) (*users.UserDTO, error) {
	s.lastModifyInput = input
	if s.modifyErr != nil {
		return nil, s.modifyErr
	}
	return s.getResp, nil
}

func (s *stubAdminService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.deleteErr
}

func (s *stubAdminService) CreateAdmin(ctx context.Context, req accounts.RegisterRequest) (*users.UserDTO, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createResp, nil
}

func TestAdminListUsersParsesPagination(t *testing.T) {
	svc := &stubAdminService{listResp: &accounts.UserListResponse{Total: 0, Page: 2, Limit: 5}}
	handler := AdminListUsers(svc, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/users?page=2&limit=5", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAdminListUsersRejectsBadPage(t *testing.T) {
	handler := AdminListUsers(&stubAdminService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/users?page=abc", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminGetUserRequiresUserID(t *testing.T) {
	handler := AdminGetUser(&stubAdminService{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/user", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAdminModifyUserPassesRawPayload(t *testing.T) {
	svc := &stubAdminService{getResp: sampleUser()}
	handler := AdminModifyUser(svc, testLogger())

	body := strings.NewReader(`{"email":"a@example.com","foo":"dropped"}`)
	req := httptest.NewRequest(http.MethodPut, "/admin/user?userId="+uuid.NewString(), body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "a@example.com", svc.lastModifyInput["email"])
	assert.Contains(t, svc.lastModifyInput, "foo")
}

func TestAdminDeleteUserBlockedForAdminTarget(t *testing.T) {
	svc := &stubAdminService{deleteErr: pkgerrors.New(pkgerrors.CodeBadRequest, "admin accounts cannot be deleted")}
	handler := AdminDeleteUser(svc, testLogger())

	req := httptest.NewRequest(http.MethodDelete, "/admin/user?userId="+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	payload := decodeFailure(t, rr)
	assert.Equal(t, "BAD_REQUEST", payload.Code)
}

func TestAdminCreateAdminCleansUpUploadOnFailure(t *testing.T) {
	svc := &stubAdminService{createErr: pkgerrors.New(pkgerrors.CodeBadRequest, "at least one of email or phone is required")}
	store := &recordingStore{}
	handler := AdminCreateAdmin(svc, store, testLogger())

	buf, contentType := multipartBody(t, map[string]string{
		"name":     "root",
		"password": "secret",
	}, true)
	req := httptest.NewRequest(http.MethodPost, "/admin/createAdmin", buf)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	handler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, []string{"stored-1.png"}, store.deleted)
}
