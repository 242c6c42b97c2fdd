package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"rental_system/internal/agreement"
	"rental_system/internal/db"
	"rental_system/internal/domain"
	"rental_system/internal/service"
	"rental_system/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "api-secret"

type server struct {
	db     *gorm.DB
	svc    *service.Service
	router *gin.Engine
	dir    string
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.OpenDialector(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	dir := t.TempDir()
	images, err := storage.NewLocal(filepath.Join(dir, "images"), "/uploads/images")
	require.NoError(t, err)
	avatars, err := storage.NewLocal(filepath.Join(dir, "avatars"), "/uploads/avatars")
	require.NoError(t, err)
	renderer, err := agreement.NewRenderer(filepath.Join(dir, "agreements"))
	require.NoError(t, err)

	svc := service.New(gdb, service.Deps{
		Redis:       rdb,
		Images:      images,
		Avatars:     avatars,
		Agreements:  renderer,
		JWTSecret:   testSecret,
		FrontendURL: "http://app.test",
	})
	t.Cleanup(svc.Wait)

	r, err := NewRouter(svc, gdb, rdb, RouterConfig{JWTSecret: testSecret, UploadDir: dir})
	require.NoError(t, err)
	return &server{db: gdb, svc: svc, router: r, dir: dir}
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) multipart(t *testing.T, method, path, token string, fields map[string]string, fileField string, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, data := range files {
		fw, err := mw.CreateFormFile(fileField, name)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register signs up through the API and returns the token and user id
func (s *server) register(t *testing.T, email, role string) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "User " + email, "email": email, "password": "password123", "role": role,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	decode(t, w, &resp)
	return resp.Token, resp.User.ID
}

func (s *server) createProperty(t *testing.T, token string) string {
	t.Helper()
	w := s.multipart(t, http.MethodPost, "/api/properties", token, map[string]string{
		"title": "Garden flat", "address": "2 Mill Lane", "price": "1200.00", "description": "Bright",
	}, "images", map[string][]byte{"front.jpg": []byte("jpeg")})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p struct {
		ID string `json:"id"`
	}
	decode(t, w, &p)
	return p.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := newServer(t)
	_, id := s.register(t, "ana@example.com", "owner")

	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ana@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login AuthResponse
	decode(t, w, &login)
	require.NotEmpty(t, login.Token)

	w = s.do(t, http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me domain.User
	decode(t, w, &me)
	assert.Equal(t, id, me.ID.String())
	assert.Equal(t, domain.RoleOwner, me.Role)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ana@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	s := newServer(t)
	s.register(t, "ana@example.com", "tenant")

	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Ana", "email": "ANA@example.com", "password": "password123"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Bo", "email": "bo@example.com", "password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Eve", "email": "eve@example.com", "password": "password123", "role": "admin"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutesRequireToken(t *testing.T) {
	s := newServer(t)
	w := s.do(t, http.MethodGet, "/api/properties", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPropertyLifecycle(t *testing.T) {
	s := newServer(t)
	ownerTok, _ := s.register(t, "owner@example.com", "owner")
	tenantTok, tenantID := s.register(t, "tenant@example.com", "tenant")

	// Tenants cannot list properties for rent
	w := s.multipart(t, http.MethodPost, "/api/properties", tenantTok, map[string]string{"title": "x", "address": "y", "price": "1"}, "images", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	id := s.createProperty(t, ownerTok)

	w = s.do(t, http.MethodGet, "/api/properties/"+id, tenantTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p domain.Property
	decode(t, w, &p)
	require.Len(t, p.Images, 1)
	assert.FileExists(t, filepath.Join(s.dir, "images", filepath.Base(p.Images[0])))
	assert.True(t, p.Available)

	w = s.do(t, http.MethodGet, "/api/properties", tenantTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []domain.Property
	decode(t, w, &listed)
	assert.Len(t, listed, 1)

	w = s.do(t, http.MethodPost, "/api/properties/"+id+"/rent", tenantTok, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var lease domain.Lease
	decode(t, w, &lease)
	assert.Equal(t, domain.LeaseActive, lease.Status)
	assert.Equal(t, tenantID, lease.TenantID.String())

	// Rented properties leave the public listing
	w = s.do(t, http.MethodGet, "/api/properties", tenantTok, nil)
	decode(t, w, &listed)
	assert.Empty(t, listed)

	// A second tenant cannot be bound while the lease is active
	w = s.do(t, http.MethodPost, "/api/properties/"+id+"/tenant", ownerTok, gin.H{"email": "other@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodDelete, "/api/properties/"+id, ownerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NoFileExists(t, filepath.Join(s.dir, "images", filepath.Base(p.Images[0])))

	w = s.do(t, http.MethodGet, "/api/properties/"+id, tenantTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var stored domain.Lease
	require.NoError(t, s.db.First(&stored, "id = ?", lease.ID).Error)
	assert.Equal(t, domain.LeaseTerminated, stored.Status)
	assert.Equal(t, service.DeletionReason, stored.TerminationReason)
}

func TestPropertyValidationAndOwnership(t *testing.T) {
	s := newServer(t)
	ownerTok, _ := s.register(t, "owner@example.com", "owner")
	otherTok, _ := s.register(t, "other@example.com", "owner")
	id := s.createProperty(t, ownerTok)

	w := s.multipart(t, http.MethodPost, "/api/properties", ownerTok, map[string]string{"title": "x", "address": "y", "price": "free"}, "images", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.multipart(t, http.MethodPut, "/api/properties/"+id, otherTok, map[string]string{"title": "Mine", "address": "y", "price": "10"}, "images", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.multipart(t, http.MethodPut, "/api/properties/"+id, ownerTok, map[string]string{"title": "Renamed", "address": "2 Mill Lane", "price": "1300"}, "images", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p domain.Property
	decode(t, w, &p)
	assert.Equal(t, "Renamed", p.Title)

	w = s.do(t, http.MethodGet, "/api/properties/not-a-uuid", ownerTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/owner/properties", ownerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var own []domain.Property
	decode(t, w, &own)
	assert.Len(t, own, 1)
}

func TestAssignTenantAndStatusUpdates(t *testing.T) {
	s := newServer(t)
	ownerTok, _ := s.register(t, "owner@example.com", "owner")
	id := s.createProperty(t, ownerTok)

	w := s.do(t, http.MethodPost, "/api/properties/"+id+"/tenant", ownerTok, gin.H{"email": "New.Tenant@Example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var assigned struct {
		Tenant domain.User  `json:"tenant"`
		Lease  domain.Lease `json:"lease"`
	}
	decode(t, w, &assigned)
	assert.Equal(t, "new.tenant@example.com", assigned.Tenant.Email)
	assert.Equal(t, domain.RoleTenant, assigned.Tenant.Role)

	w = s.do(t, http.MethodGet, "/api/owner/leases", ownerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var leases []domain.Lease
	decode(t, w, &leases)
	require.Len(t, leases, 1)

	statusPath := fmt.Sprintf("/api/leases/%s/status", assigned.Lease.ID)
	w = s.do(t, http.MethodPut, statusPath, ownerTok, gin.H{"status": "terminated", "reason": "moved out"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var lease domain.Lease
	decode(t, w, &lease)
	assert.Equal(t, domain.LeaseTerminated, lease.Status)
	assert.Equal(t, "moved out", lease.TerminationReason)

	w = s.do(t, http.MethodPut, statusPath, ownerTok, gin.H{"status": "active"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodGet, "/api/properties/"+id, ownerTok, nil)
	var p domain.Property
	decode(t, w, &p)
	assert.True(t, p.Available)
}

func TestPaymentsFlow(t *testing.T) {
	s := newServer(t)
	ownerTok, _ := s.register(t, "owner@example.com", "owner")
	tenantTok, _ := s.register(t, "tenant@example.com", "tenant")
	id := s.createProperty(t, ownerTok)

	w := s.do(t, http.MethodGet, "/api/payments/balance", tenantTok, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodPost, "/api/properties/"+id+"/rent", tenantTok, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var lease domain.Lease
	decode(t, w, &lease)

	w = s.do(t, http.MethodGet, "/api/leases/current", tenantTok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/payments", tenantTok, gin.H{"lease_id": lease.ID, "amount": "500", "payment_method": "card"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/payments", tenantTok, gin.H{"lease_id": uuid.New(), "amount": "500", "payment_method": "card"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(t, http.MethodGet, "/api/payments/balance", tenantTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"balance":"500.00"}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/leases/"+lease.ID.String()+"/payments", tenantTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []domain.Payment
	decode(t, w, &history)
	assert.Len(t, history, 1)

	w = s.do(t, http.MethodGet, "/api/leases/not-a-uuid/payments", tenantTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/owner/payments", ownerTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &history)
	assert.Len(t, history, 1)

	// No gateway key configured
	w = s.do(t, http.MethodPost, "/api/payments/charges", tenantTok, gin.H{"amount": "100"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAgreementGenerateAndDownload(t *testing.T) {
	s := newServer(t)
	ownerTok, _ := s.register(t, "owner@example.com", "owner")
	tenantTok, _ := s.register(t, "tenant@example.com", "tenant")
	strangerTok, _ := s.register(t, "stranger@example.com", "tenant")
	id := s.createProperty(t, ownerTok)

	w := s.do(t, http.MethodPost, "/api/properties/"+id+"/rent", tenantTok, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var lease domain.Lease
	decode(t, w, &lease)
	path := "/api/leases/" + lease.ID.String() + "/agreement"

	w = s.do(t, http.MethodGet, path, tenantTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, path, strangerTok, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, path, ownerTok, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, path, tenantTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), agreement.FileName(lease.ID))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
}

func TestAvatarUpload(t *testing.T) {
	s := newServer(t)
	ownerTok, _ := s.register(t, "owner@example.com", "owner")
	tenantTok, _ := s.register(t, "tenant@example.com", "tenant")

	w := s.multipart(t, http.MethodPost, "/api/auth/avatar", tenantTok, nil, "avatar", map[string][]byte{"me.png": []byte("png")})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.multipart(t, http.MethodPost, "/api/auth/avatar", ownerTok, nil, "avatar", map[string][]byte{"me.png": []byte("png")})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var u domain.User
	decode(t, w, &u)
	data, err := os.ReadFile(filepath.Join(s.dir, "avatars", filepath.Base(u.Avatar)))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))

	w = s.multipart(t, http.MethodPost, "/api/auth/avatar", ownerTok, nil, "other", map[string][]byte{"me.png": []byte("png")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminListingsAreCached(t *testing.T) {
	s := newServer(t)
	ownerTok, _ := s.register(t, "owner@example.com", "owner")
	_, err := s.svc.CreateAdmin(t.Context(), "Root", "root@example.com", "password123")
	require.NoError(t, err)
	w := s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "root@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code)
	var login AuthResponse
	decode(t, w, &login)

	w = s.do(t, http.MethodGet, "/api/admin/users", ownerTok, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/users?page=1&page_size=10", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page UserPage
	decode(t, w, &page)
	assert.False(t, page.Cached)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 1, page.TotalPages)

	w = s.do(t, http.MethodGet, "/api/admin/users?page=1&page_size=10", login.Token, nil)
	decode(t, w, &page)
	assert.True(t, page.Cached)

	// New accounts invalidate the listing
	s.register(t, "late@example.com", "tenant")
	w = s.do(t, http.MethodGet, "/api/admin/users?page=1&page_size=10", login.Token, nil)
	decode(t, w, &page)
	assert.False(t, page.Cached)
	assert.EqualValues(t, 3, page.Total)

	w = s.do(t, http.MethodGet, "/api/admin/payments?tenant_id=nope", login.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/admin/payments?status=completed", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var payments PaymentPage
	decode(t, w, &payments)
	assert.Empty(t, payments.Payments)
}

func TestRespondErrorStatuses(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err    error
		status int
	}{
		{domain.ErrValidation, http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrNotFoundOrForbidden, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrInvalidLease, http.StatusUnprocessableEntity},
		{domain.ErrNoActiveLease, http.StatusUnprocessableEntity},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: card declined", domain.ErrGateway), http.StatusBadGateway},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			respondError(c, tc.err)
			assert.Equal(t, tc.status, w.Code)
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(c, errors.New("dial tcp 10.0.0.1:3306"))
	assert.NotContains(t, w.Body.String(), "10.0.0.1")
}
