package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"rental_system/internal/db"
	"rental_system/internal/domain"
	"rental_system/internal/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var errInjected = errors.New("injected failure")

// testClock is a settable time source
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type sentMail struct {
	To, Subject, Body string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	fail bool
}

func (n *fakeNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errInjected
	}
	n.sent = append(n.sent, sentMail{to, subject, body})
	return nil
}

func (n *fakeNotifier) Sent() []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMail(nil), n.sent...)
}

type fakeGateway struct {
	mu        sync.Mutex
	charges   map[string]gateway.Charge
	created   []map[string]string
	retrieved int
	err       error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{charges: map[string]gateway.Charge{}}
}

func (g *fakeGateway) CreateChargeIntent(_ context.Context, amountMinor int64, metadata map[string]string) (gateway.ChargeIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return gateway.ChargeIntent{}, g.err
	}
	ref := fmt.Sprintf("pi_%d", len(g.created)+1)
	g.created = append(g.created, metadata)
	g.charges[ref] = gateway.Charge{Reference: ref, Status: "requires_payment_method", AmountMinor: amountMinor, Metadata: metadata}
	return gateway.ChargeIntent{Reference: ref, ClientHandle: ref + "_secret"}, nil
}

func (g *fakeGateway) RetrieveCharge(_ context.Context, reference string) (gateway.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieved++
	if g.err != nil {
		return gateway.Charge{}, g.err
	}
	c, ok := g.charges[reference]
	if !ok {
		return gateway.Charge{}, errors.New("no such payment intent")
	}
	return c, nil
}

func (g *fakeGateway) settle(ref, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c := g.charges[ref]
	c.Status = status
	g.charges[ref] = c
}

type memStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
	failDel bool
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (m *memStore) Store(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := "/uploads/" + uuid.NewString() + "-" + name
	m.files[p] = data
	return p, nil
}

func (m *memStore) Delete(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDel {
		return errInjected
	}
	delete(m.files, p)
	m.deleted = append(m.deleted, p)
	return nil
}

func (m *memStore) has(p string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[p]
	return ok
}

type fakeRenderer struct {
	rendered map[uuid.UUID]string
}

func (r *fakeRenderer) Render(_ context.Context, lease *domain.Lease) (string, error) {
	p := "/leases/" + lease.ID.String() + ".pdf"
	r.rendered[lease.ID] = p
	return p, nil
}

func (r *fakeRenderer) Locate(id uuid.UUID) (string, bool) {
	p, ok := r.rendered[id]
	return p, ok
}

// env is a Service over a private in-memory database
type env struct {
	db       *gorm.DB
	svc      *Service
	clock    *testClock
	mail     *fakeNotifier
	gw       *fakeGateway
	images   *memStore
	avatars  *memStore
	renderer *fakeRenderer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	// Shared cache keeps one database across pooled connections; one connection serialises transactions
	gdb, err := db.OpenDialector(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))

	e := &env{
		db:       gdb,
		clock:    &testClock{now: time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)},
		mail:     &fakeNotifier{},
		gw:       newFakeGateway(),
		images:   newMemStore(),
		avatars:  newMemStore(),
		renderer: &fakeRenderer{rendered: map[uuid.UUID]string{}},
	}
	e.svc = New(gdb, Deps{
		Notifier:    e.mail,
		Gateway:     e.gw,
		Images:      e.images,
		Avatars:     e.avatars,
		Agreements:  e.renderer,
		JWTSecret:   "test-secret",
		FrontendURL: "http://app.test",
		Clock:       e.clock.Now,
	})
	return e
}

func (e *env) user(t *testing.T, role domain.Role, email string) Actor {
	t.Helper()
	u := domain.User{Name: email, Email: email, Password: "x", Role: role}
	require.NoError(t, e.db.Create(&u).Error)
	return Actor{ID: u.ID, Role: role}
}

func (e *env) property(t *testing.T, owner Actor, price string) *domain.Property {
	t.Helper()
	p := domain.Property{
		OwnerID:   owner.ID,
		Title:     "Flat",
		Address:   "1 High St",
		Price:     decimal.RequireFromString(price),
		Available: true,
	}
	require.NoError(t, e.db.Create(&p).Error)
	return &p
}

func (e *env) reloadProperty(t *testing.T, id uuid.UUID) domain.Property {
	t.Helper()
	var p domain.Property
	require.NoError(t, e.db.First(&p, "id = ?", id).Error)
	return p
}

func (e *env) reloadLease(t *testing.T, id uuid.UUID) domain.Lease {
	t.Helper()
	var l domain.Lease
	require.NoError(t, e.db.First(&l, "id = ?", id).Error)
	return l
}

func (e *env) reloadUser(t *testing.T, id uuid.UUID) domain.User {
	t.Helper()
	var u domain.User
	require.NoError(t, e.db.First(&u, "id = ?", id).Error)
	return u
}

// requireConsistent checks availability mirrors active leases and no tenant holds two open leases
func (e *env) requireConsistent(t *testing.T) {
	t.Helper()
	var properties []domain.Property
	require.NoError(t, e.db.Find(&properties).Error)
	for _, p := range properties {
		var active int64
		require.NoError(t, e.db.Model(&domain.Lease{}).Where("property_id = ? AND status = ?", p.ID, domain.LeaseActive).Count(&active).Error)
		require.LessOrEqual(t, active, int64(1), "property %s", p.ID)
		require.Equal(t, active == 0, p.Available, "availability of %s", p.ID)
	}

	type row struct {
		TenantID uuid.UUID
		N        int64
	}
	var rows []row
	require.NoError(t, e.db.Model(&domain.Lease{}).
		Select("tenant_id, count(*) as n").
		Where("status IN ?", []domain.LeaseStatus{domain.LeasePending, domain.LeaseActive}).
		Group("tenant_id").Scan(&rows).Error)
	for _, r := range rows {
		require.Equal(t, int64(1), r.N, "open leases of tenant %s", r.TenantID)
	}
}
