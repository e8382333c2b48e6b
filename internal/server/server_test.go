package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/salonsuite/salon-core/internal/config"
	"github.com/salonsuite/salon-core/internal/domain"
	"github.com/salonsuite/salon-core/internal/handler"
	"github.com/salonsuite/salon-core/internal/middleware"
	"github.com/salonsuite/salon-core/internal/repository"
	"github.com/salonsuite/salon-core/internal/service"
)

const testSecret = "server-test-secret"

// ---------------------------------------------------------------------------
// fakes

type fakeStaffRepo struct {
	staff map[string]*domain.Staff
}

func (r *fakeStaffRepo) GetByID(_ context.Context, id string) (*domain.Staff, error) {
	if s, ok := r.staff[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeStaffRepo) GetByEmail(_ context.Context, salonID, email string) (*domain.Staff, error) {
	for _, s := range r.staff {
		if s.SalonID == salonID && s.Email == email {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeStaffRepo) Create(_ context.Context, s *domain.Staff) error {
	r.staff[s.ID] = s
	return nil
}

type fakeSalonRepo struct {
	salons  map[string]*domain.Salon
	fetches int
}

func (r *fakeSalonRepo) GetByID(_ context.Context, id string) (*domain.Salon, error) {
	r.fetches++
	if s, ok := r.salons[id]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeSalonRepo) GetByOwnerUID(_ context.Context, ownerUID string) (*domain.Salon, error) {
	for _, s := range r.salons {
		if s.OwnerUID == ownerUID {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeSalonRepo) Create(_ context.Context, s *domain.Salon) error {
	r.salons[s.ID] = s
	return nil
}

type fakeCustomerRepo struct {
	customers map[string]*domain.Customer
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	if c, ok := r.customers[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCustomerRepo) GetByLineUserID(_ context.Context, salonID, lineUserID string) (*domain.Customer, error) {
	for _, c := range r.customers {
		if c.SalonID == salonID && c.LineUserID == lineUserID {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCustomerRepo) Upsert(_ context.Context, c *domain.Customer) error {
	r.customers[c.ID] = c
	return nil
}

type fakeOwnerAuth struct {
	uids map[string]string // token -> uid
}

func (f *fakeOwnerAuth) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if uid, ok := f.uids[idToken]; ok {
		return &auth.Token{UID: uid}, nil
	}
	return nil, errors.New("invalid id token")
}

type fakeLineAuth struct {
	profiles map[string]*domain.LineProfile // code -> profile
}

func (f *fakeLineAuth) ExchangeProfile(_ context.Context, code string) (*domain.LineProfile, error) {
	if p, ok := f.profiles[code]; ok {
		return p, nil
	}
	return nil, errors.New("code exchange rejected")
}

// ---------------------------------------------------------------------------
// fixture

type fixture struct {
	app       *fiber.App
	staff     *fakeStaffRepo
	salons    *fakeSalonRepo
	customers *fakeCustomerRepo
}

func newTestApp(t *testing.T) *fixture {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2!"), bcrypt.MinCost)
	require.NoError(t, err)

	staffRepo := &fakeStaffRepo{staff: map[string]*domain.Staff{
		"stf_manager": {
			ID: "stf_manager", SalonID: "salon-42",
			Email: "manager@example.com", Name: "Aya Tanaka",
			Role: domain.RoleManager, PasswordHash: string(hash),
		},
		"stf_junior": {
			ID: "stf_junior", SalonID: "salon-42",
			Email: "junior@example.com", Name: "Ken Mori",
			Role: domain.RoleStaff, PasswordHash: string(hash),
		},
	}}
	salonRepo := &fakeSalonRepo{salons: map[string]*domain.Salon{
		"salon-42": {
			ID: "salon-42", Name: "Luna Hair", Address: "Shibuya",
			OwnerUID: "owner-uid-1",
		},
	}}
	customerRepo := &fakeCustomerRepo{customers: map[string]*domain.Customer{}}

	cfg := &config.Config{}
	cfg.Session.Secret = testSecret
	cfg.Line.ChannelID = "1234567890"
	cfg.Line.RedirectURL = "https://example.com/v1/line/callback"
	cfg.Line.AuthorizeURL = "https://access.line.me/oauth2/v2.1/authorize"

	app, err := NewApp(AppDependencies{
		Config:       cfg,
		Logger:       zap.NewNop(),
		StaffRepo:    staffRepo,
		SalonRepo:    salonRepo,
		CustomerRepo: customerRepo,
		CacheStore:   repository.NewRedisCacheStore(redisClient),
		OwnerAuth:    &fakeOwnerAuth{uids: map[string]string{"owner-token": "owner-uid-1"}},
		LineAuth: &fakeLineAuth{profiles: map[string]*domain.LineProfile{
			"code-complete": {
				UserID: "U_line_1", DisplayName: "Yuki Sato",
				Email: "yuki@example.com", Phone: "+81-90-1234-5678",
			},
			"code-bare": {
				UserID: "U_line_2", DisplayName: "Hana",
			},
		}},
	})
	require.NoError(t, err)

	return &fixture{app: app, staff: staffRepo, salons: salonRepo, customers: customerRepo}
}

func (f *fixture) do(t *testing.T, method, target string, body []byte, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, target, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func jsonBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (f *fixture) login(t *testing.T, email string) *http.Cookie {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{
		"salon_id": "salon-42",
		"email":    email,
		"password": "hunter2!",
	})
	resp := f.do(t, http.MethodPost, "/v1/staff/login", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cookie := responseCookie(resp, middleware.StaffTokenCookie)
	require.NotNil(t, cookie, "login must set the staff session cookie")
	resp.Body.Close()
	return cookie
}

// ---------------------------------------------------------------------------
// staff session lifecycle

func TestStaffLoginAndRepeatedVerify(t *testing.T) {
	f := newTestApp(t)

	cookie := f.login(t, "manager@example.com")

	// A token verifies any number of times within its lifetime.
	for i := 0; i < 3; i++ {
		resp := f.do(t, http.MethodGet, "/v1/staff/verify", nil, cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := jsonBody(t, resp)
		assert.Equal(t, true, body["authenticated"])

		staff := body["staff"].(map[string]any)
		assert.Equal(t, "stf_manager", staff["staff_id"])
		assert.Equal(t, "salon-42", staff["salon_id"])
		assert.Equal(t, domain.RoleManager, staff["role"])
	}
}

func TestStaffLoginRejectsBadCredentials(t *testing.T) {
	f := newTestApp(t)

	for name, payload := range map[string]map[string]string{
		"wrong password":  {"salon_id": "salon-42", "email": "manager@example.com", "password": "nope"},
		"unknown account": {"salon_id": "salon-42", "email": "ghost@example.com", "password": "hunter2!"},
		"wrong tenant":    {"salon_id": "salon-99", "email": "manager@example.com", "password": "hunter2!"},
	} {
		body, _ := json.Marshal(payload)
		resp := f.do(t, http.MethodPost, "/v1/staff/login", body)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)
		assert.Equal(t, map[string]any{"authenticated": false}, jsonBody(t, resp), name)
	}
}

func TestVerifyFailuresAreUniform(t *testing.T) {
	f := newTestApp(t)

	// Expired token signed with the real secret.
	now := time.Now()
	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &domain.StaffClaims{
		StaffID: "stf_manager",
		SalonID: "salon-42",
		Role:    domain.RoleManager,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-service.StaffTokenTTL - time.Second)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-time.Second)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	// Tampered token: flip the signature of a real one.
	valid := f.login(t, "manager@example.com").Value
	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	cases := map[string]*http.Cookie{
		"missing cookie":  nil,
		"garbage token":   {Name: middleware.StaffTokenCookie, Value: "garbage"},
		"expired token":   {Name: middleware.StaffTokenCookie, Value: expiredToken},
		"tampered token":  {Name: middleware.StaffTokenCookie, Value: tampered},
	}
	for name, cookie := range cases {
		var resp *http.Response
		if cookie == nil {
			resp = f.do(t, http.MethodGet, "/v1/staff/verify", nil)
		} else {
			resp = f.do(t, http.MethodGet, "/v1/staff/verify", nil, cookie)
		}
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)

		// The body must be byte-for-byte indistinguishable across causes.
		assert.Equal(t, map[string]any{"authenticated": false}, jsonBody(t, resp), name)
	}
}

func TestRoleHierarchyOnStaffSalon(t *testing.T) {
	f := newTestApp(t)

	junior := f.login(t, "junior@example.com")
	resp := f.do(t, http.MethodGet, "/v1/staff/salon", nil, junior)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	manager := f.login(t, "manager@example.com")
	resp = f.do(t, http.MethodGet, "/v1/staff/salon", nil, manager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := jsonBody(t, resp)
	assert.Equal(t, "Luna Hair", body["name"])
}

func TestSalonProfileServedFromCacheUntilLogout(t *testing.T) {
	f := newTestApp(t)
	manager := f.login(t, "manager@example.com")

	resp := f.do(t, http.MethodGet, "/v1/staff/salon", nil, manager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 1, f.salons.fetches)

	// Second read is a cache hit.
	resp = f.do(t, http.MethodGet, "/v1/staff/salon", nil, manager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 1, f.salons.fetches)

	// Logout evicts the namespace before responding.
	resp = f.do(t, http.MethodPost, "/v1/staff/logout", nil, manager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	expired := responseCookie(resp, middleware.StaffTokenCookie)
	require.NotNil(t, expired)
	assert.True(t, expired.Expires.Before(time.Now()))

	resp = f.do(t, http.MethodGet, "/v1/staff/salon", nil, manager)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 2, f.salons.fetches, "cold cache after logout refetches")
}

// ---------------------------------------------------------------------------
// customer LINE handoff

func TestLineHandoffCompleteProfile(t *testing.T) {
	f := newTestApp(t)
	codec := service.NewSessionCodec(zap.NewNop())

	// Begin: intent cookie plus redirect to the provider.
	resp := f.do(t, http.MethodGet, "/v1/line/login?store_id=salon-42", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp.Body.Close()

	location := resp.Header.Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://access.line.me/oauth2/v2.1/authorize?"))
	assert.Contains(t, location, "client_id=1234567890")
	assert.Contains(t, location, "state=salon-42")

	intentCookie := responseCookie(resp, handler.LineSessionCookie)
	require.NotNil(t, intentCookie)

	var intent domain.PreLoginIntent
	require.NoError(t, codec.Decode(intentCookie.Value, &intent))
	assert.Equal(t, "salon-42", intent.StoreID)

	// Callback: the intent becomes a tenant context and a session is issued.
	resp = f.do(t, http.MethodGet, "/v1/line/callback?code=code-complete", nil, intentCookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, "/", resp.Header.Get("Location"))

	tenantCookie := responseCookie(resp, handler.LineSessionCookie)
	require.NotNil(t, tenantCookie)
	var tenant domain.TenantContext
	require.NoError(t, codec.Decode(tenantCookie.Value, &tenant))
	assert.Equal(t, "salon-42", tenant.SalonID)

	sessionCookie := responseCookie(resp, handler.CustomerSessionCookie)
	require.NotNil(t, sessionCookie)
	var session domain.CustomerSession
	require.NoError(t, codec.Decode(sessionCookie.Value, &session))
	assert.Equal(t, "Yuki", session.FirstName)
	assert.Equal(t, "Sato", session.LastName)
	assert.Equal(t, "yuki@example.com", session.Email)

	// The customer record was created under the tenant.
	stored, err := f.customers.GetByLineUserID(context.Background(), "salon-42", "U_line_1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, stored.ID)

	// Bootstrap resolves tenant and customer through the cache.
	resp = f.do(t, http.MethodGet, "/v1/bootstrap", nil, tenantCookie, sessionCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := jsonBody(t, resp)

	salon := body["salon"].(map[string]any)
	assert.Equal(t, "Luna Hair", salon["name"])
	customer := body["customer"].(map[string]any)
	assert.Equal(t, "Yuki", customer["first_name"])
}

func TestLineCallbackIncompleteProfileGoesToRegistration(t *testing.T) {
	f := newTestApp(t)

	resp := f.do(t, http.MethodGet, "/v1/line/login?store_id=salon-42", nil)
	intentCookie := responseCookie(resp, handler.LineSessionCookie)
	require.NotNil(t, intentCookie)
	resp.Body.Close()

	// The bare profile has no phone or email: no session cookie yet.
	resp = f.do(t, http.MethodGet, "/v1/line/callback?code=code-bare", nil, intentCookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, "/register", resp.Header.Get("Location"))
	assert.Nil(t, responseCookie(resp, handler.CustomerSessionCookie))
}

func TestLineCallbackWithoutIntent(t *testing.T) {
	f := newTestApp(t)

	resp := f.do(t, http.MethodGet, "/v1/line/callback?code=code-complete", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, "/", resp.Header.Get("Location"))
}

func TestLineLoginRequiresStoreID(t *testing.T) {
	f := newTestApp(t)

	resp := f.do(t, http.MethodGet, "/v1/line/login", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestBootstrapAnonymous(t *testing.T) {
	f := newTestApp(t)

	// No cookies and an unusable cookie both yield the anonymous payload.
	resp := f.do(t, http.MethodGet, "/v1/bootstrap", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := jsonBody(t, resp)
	assert.Nil(t, body["salon"])
	assert.Nil(t, body["customer"])

	bad := &http.Cookie{Name: handler.LineSessionCookie, Value: "not-a-session"}
	resp = f.do(t, http.MethodGet, "/v1/bootstrap", nil, bad)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = jsonBody(t, resp)
	assert.Nil(t, body["salon"])
	assert.Nil(t, body["customer"])
}

func TestCustomerLogoutDropsCookiesAndCache(t *testing.T) {
	f := newTestApp(t)
	codec := service.NewSessionCodec(zap.NewNop())

	tenantValue, err := codec.Encode(&domain.TenantContext{SalonID: "salon-42"})
	require.NoError(t, err)
	tenantCookie := &http.Cookie{Name: handler.LineSessionCookie, Value: tenantValue}

	resp := f.do(t, http.MethodGet, "/v1/bootstrap", nil, tenantCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	resp = f.do(t, http.MethodGet, "/v1/bootstrap", nil, tenantCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 1, f.salons.fetches)

	resp = f.do(t, http.MethodPost, "/v1/customer/logout", nil, tenantCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	for _, name := range []string{handler.LineSessionCookie, handler.CustomerSessionCookie} {
		dropped := responseCookie(resp, name)
		require.NotNil(t, dropped, name)
		assert.True(t, dropped.Expires.Before(time.Now()), name)
	}

	resp = f.do(t, http.MethodGet, "/v1/bootstrap", nil, tenantCookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, 2, f.salons.fetches, "cleared cache refetches the profile")
}

// ---------------------------------------------------------------------------
// owner surface and browse guard

func TestBrowseGuard(t *testing.T) {
	f := newTestApp(t)

	// Public paths always proceed.
	resp := f.do(t, http.MethodGet, "/signin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Anonymous browsing is redirected, not rejected.
	resp = f.do(t, http.MethodGet, "/dashboard/", nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, middleware.SignInPath, resp.Header.Get("Location"))

	// A bad identity token behaves like no identity.
	req, err := http.NewRequest(http.MethodGet, "/dashboard/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer wrong-token")
	resp, err = f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	resp.Body.Close()

	// A verified identity proceeds.
	req, err = http.NewRequest(http.MethodGet, "/dashboard/", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer owner-token")
	resp, err = f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := jsonBody(t, resp)
	assert.Equal(t, "owner-uid-1", body["owner"])
}

func TestOwnerSalonEndpoint(t *testing.T) {
	f := newTestApp(t)

	resp := f.do(t, http.MethodGet, "/v1/owner/salon", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, map[string]any{"authenticated": false}, jsonBody(t, resp))

	req, err := http.NewRequest(http.MethodGet, "/v1/owner/salon", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer owner-token")
	resp, err = f.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := jsonBody(t, resp)
	assert.Equal(t, "salon-42", body["id"])
}

func TestHealthEndpoint(t *testing.T) {
	f := newTestApp(t)

	resp := f.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := jsonBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
}
