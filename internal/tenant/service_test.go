package tenant_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rental-backend/internal/apperr"
	"rental-backend/internal/audit"
	"rental-backend/internal/logger"
	"rental-backend/internal/models"
	"rental-backend/internal/payment"
	"rental-backend/internal/store"
	"rental-backend/internal/tenant"
	"rental-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type env struct {
	store  *store.Store
	engine *payment.Engine
	svc    *tenant.Service
	actor  audit.Actor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := testutil.NewStore(t)
	u := testutil.SeedUser(t, st, "owner@example.com")
	log := logger.Discard()
	w := audit.NewWriter(st, log)
	eng := payment.NewEngine(st, log, time.UTC).WithClock(testutil.FixedClock(2024, 1, 10)).WithAudit(w)
	return &env{
		store:  st,
		engine: eng,
		svc:    tenant.NewService(st, eng, w, log),
		actor:  audit.Actor{ID: u.ID, Name: u.Email, Role: u.Role},
	}
}

func (e *env) input(propertyID uuid.UUID) tenant.Input {
	return tenant.Input{
		Name:       "Ana Souza",
		Email:      "Ana@Example.com",
		Phone:      "+55 41 98888-7777",
		NationalID: "987.654.321-00",
		StartDate:  testutil.Date(2024, 1, 1),
		EndDate:    testutil.Date(2024, 12, 31),
		PropertyID: propertyID,
	}
}

// assertOccupancy checks that a property is occupied exactly when one
// tenant references it, and that its back reference names that tenant.
func assertOccupancy(t *testing.T, st *store.Store, owner uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	properties, err := st.ListProperties(ctx, owner)
	require.NoError(t, err)
	tenants, err := st.ListTenants(ctx, owner)
	require.NoError(t, err)

	refs := map[uuid.UUID][]uuid.UUID{}
	for _, tn := range tenants {
		refs[tn.PropertyID] = append(refs[tn.PropertyID], tn.ID)
	}
	for _, p := range properties {
		occupants := refs[p.ID]
		if p.Status == models.PropertyOccupied {
			require.Len(t, occupants, 1, "property %s", p.Name)
			require.NotNil(t, p.TenantID)
			assert.Equal(t, occupants[0], *p.TenantID)
		} else {
			assert.Empty(t, occupants, "property %s", p.Name)
			assert.Nil(t, p.TenantID)
		}
	}
}

// assertPaymentsFollowTenant checks that every open payment due today or
// later belongs to the property its tenant currently rents.
func assertPaymentsFollowTenant(t *testing.T, e *env) {
	t.Helper()
	ctx := context.Background()
	tenants, err := e.store.ListTenants(ctx, e.actor.ID)
	require.NoError(t, err)
	current := map[uuid.UUID]uuid.UUID{}
	for _, tn := range tenants {
		current[tn.ID] = tn.PropertyID
	}
	payments, err := e.store.ListPayments(ctx, e.actor.ID, nil)
	require.NoError(t, err)
	today := e.engine.Today()
	for _, p := range payments {
		if p.Status == models.PaymentPaid || p.DueDate.Before(today) {
			continue
		}
		assert.Equal(t, current[p.TenantID], p.PropertyID, "payment %s due %s", p.ID, p.DueDate.Format(time.DateOnly))
	}
}

func TestCreate(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)

	res, err := e.svc.Create(ctx, e.actor, e.input(p.ID))
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "ana@example.com", res.Tenant.Email)

	require.NotNil(t, res.InitialPayment)
	assert.Equal(t, "2024-02-05", res.InitialPayment.DueDate.Format(time.DateOnly))
	assert.Equal(t, 1500.0, res.InitialPayment.Amount)

	got, err := e.store.GetProperty(ctx, e.actor.ID, p.ID)
	require.NoError(t, err)
	assert.True(t, got.OccupiedBy(res.Tenant.ID))
	assertOccupancy(t, e.store, e.actor.ID)

	logs, err := e.store.ListAuditLogs(ctx, e.actor.ID, store.AuditFilter{EntityType: audit.EntityTenant})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, res.Tenant.ID, logs[0].EntityID)
}

func TestCreate_PropertyOccupied(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)
	_, err := e.svc.Create(ctx, e.actor, e.input(p.ID))
	require.NoError(t, err)

	_, err = e.svc.Create(ctx, e.actor, e.input(p.ID))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	tenants, err := e.store.ListTenants(ctx, e.actor.ID)
	require.NoError(t, err)
	assert.Len(t, tenants, 1)
	assertOccupancy(t, e.store, e.actor.ID)
}

func TestCreate_Validation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)

	in := e.input(p.ID)
	in.EndDate = testutil.Date(2023, 12, 31)
	_, err := e.svc.Create(ctx, e.actor, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = e.svc.Create(ctx, e.actor, e.input(uuid.New()))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	tenants, err := e.store.ListTenants(ctx, e.actor.ID)
	require.NoError(t, err)
	assert.Empty(t, tenants)
}

func TestCreate_BlankContactFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)

	tests := []struct {
		name  string
		blank func(*tenant.Input)
	}{
		{"name", func(in *tenant.Input) { in.Name = "   " }},
		{"email", func(in *tenant.Input) { in.Email = " " }},
		{"phone", func(in *tenant.Input) { in.Phone = "\t" }},
		{"national id", func(in *tenant.Input) { in.NationalID = "  " }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := e.input(p.ID)
			tt.blank(&in)
			_, err := e.svc.Create(ctx, e.actor, in)
			require.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Contains(t, apperr.Message(err), tt.name)
		})
	}

	tenants, err := e.store.ListTenants(ctx, e.actor.ID)
	require.NoError(t, err)
	assert.Empty(t, tenants)
	got, err := e.store.GetProperty(ctx, e.actor.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyAvailable, got.Status)
}

type brokenPayments struct{ tenant.Payments }

func (brokenPayments) GenerateInitialPayment(context.Context, *models.Tenant, *models.Property) (*models.Payment, bool, error) {
	return nil, false, apperr.Transient(errors.New("connection refused"), "could not access payments")
}

func TestCreate_InitialPaymentFailureIsAWarning(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)
	log := logger.Discard()
	svc := tenant.NewService(e.store, brokenPayments{e.engine}, nil, log)

	res, err := svc.Create(ctx, e.actor, e.input(p.ID))
	require.NoError(t, err)
	assert.Nil(t, res.InitialPayment)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "could not access payments")
	assertOccupancy(t, e.store, e.actor.ID)
}

type occupyFails struct {
	*store.Store
}

func (occupyFails) OccupyProperty(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) error {
	return apperr.Transient(errors.New("deadlock"), "could not access property")
}

func TestCreate_OccupyFailureRemovesTenant(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)
	svc := tenant.NewService(occupyFails{e.store}, e.engine, nil, logger.Discard())

	_, err := svc.Create(ctx, e.actor, e.input(p.ID))
	assert.True(t, apperr.Is(err, apperr.KindTransientIO))

	tenants, err := e.store.ListTenants(ctx, e.actor.ID)
	require.NoError(t, err)
	assert.Empty(t, tenants)
	assertOccupancy(t, e.store, e.actor.ID)
}

func TestUpdate_ContactFields(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)
	res, err := e.svc.Create(ctx, e.actor, e.input(p.ID))
	require.NoError(t, err)

	phone := "+55 11 90000-0000"
	end := testutil.Date(2025, 6, 30)
	upd, err := e.svc.Update(ctx, e.actor, res.Tenant.ID, tenant.Patch{Phone: &phone, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, phone, upd.Tenant.Phone)
	assert.Equal(t, "2025-06-30", upd.Tenant.EndDate.Format(time.DateOnly))
	assert.Nil(t, upd.InitialPayment)

	early := testutil.Date(2023, 1, 1)
	_, err = e.svc.Update(ctx, e.actor, res.Tenant.ID, tenant.Patch{EndDate: &early})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	blank := "  "
	_, err = e.svc.Update(ctx, e.actor, res.Tenant.ID, tenant.Patch{NationalID: &blank})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	got, err := e.store.GetTenant(ctx, e.actor.ID, res.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "987.654.321-00", got.NationalID)
}

func TestUpdate_Reassign(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	oldProp := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)
	newProp := testutil.SeedProperty(t, e.store, e.actor.ID, "House", 2800, 20)
	res, err := e.svc.Create(ctx, e.actor, e.input(oldProp.ID))
	require.NoError(t, err)
	first := res.InitialPayment

	moved, err := e.svc.Update(ctx, e.actor, res.Tenant.ID, tenant.Patch{PropertyID: &newProp.ID})
	require.NoError(t, err)
	assert.Equal(t, newProp.ID, moved.Tenant.PropertyID)
	assert.Empty(t, moved.Warnings)

	// January 20 is still ahead of the 10th
	require.NotNil(t, moved.InitialPayment)
	assert.Equal(t, newProp.ID, moved.InitialPayment.PropertyID)
	assert.Equal(t, "2024-01-20", moved.InitialPayment.DueDate.Format(time.DateOnly))
	assert.Equal(t, 2800.0, moved.InitialPayment.Amount)

	// the February cycle was owed on the property the tenant left
	_, err = e.store.GetPayment(ctx, e.actor.ID, first.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	old, err := e.store.GetProperty(ctx, e.actor.ID, oldProp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyAvailable, old.Status)
	assertOccupancy(t, e.store, e.actor.ID)
	assertPaymentsFollowTenant(t, e)
}

func TestUpdate_ReassignWithinDueMonth(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)
	b := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 202", 2500, 5)
	res, err := e.svc.Create(ctx, e.actor, e.input(a.ID))
	require.NoError(t, err)
	require.NotNil(t, res.InitialPayment)
	onA := res.InitialPayment

	moved, err := e.svc.Update(ctx, e.actor, res.Tenant.ID, tenant.Patch{PropertyID: &b.ID})
	require.NoError(t, err)
	assert.Empty(t, moved.Warnings)

	require.NotNil(t, moved.InitialPayment)
	assert.NotEqual(t, onA.ID, moved.InitialPayment.ID)
	assert.Equal(t, b.ID, moved.InitialPayment.PropertyID)
	assert.Equal(t, "2024-02-05", moved.InitialPayment.DueDate.Format(time.DateOnly))
	assert.Equal(t, 2500.0, moved.InitialPayment.Amount)

	payments, err := e.store.ListPayments(ctx, e.actor.ID, &res.Tenant.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, moved.InitialPayment.ID, payments[0].ID)

	n, err := e.engine.GenerateMonthlyPayments(ctx, e.actor.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	history, err := e.store.ListAuditLogs(ctx, e.actor.ID, store.AuditFilter{EntityID: &onA.ID})
	require.NoError(t, err)
	actions := make([]models.AuditAction, 0, len(history))
	for _, l := range history {
		actions = append(actions, l.Action)
	}
	assert.ElementsMatch(t, []models.AuditAction{models.AuditActionCreate, models.AuditActionDelete}, actions)

	assertOccupancy(t, e.store, e.actor.ID)
	assertPaymentsFollowTenant(t, e)
}

type dropFails struct{ tenant.Payments }

func (dropFails) DropUpcomingPayments(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (int, error) {
	return 0, apperr.Transient(errors.New("connection reset"), "could not access payments")
}

func TestUpdate_ReassignDropFailureIsAWarning(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)
	b := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 202", 2500, 5)
	svc := tenant.NewService(e.store, dropFails{e.engine}, nil, logger.Discard())
	res, err := svc.Create(ctx, e.actor, e.input(a.ID))
	require.NoError(t, err)

	moved, err := svc.Update(ctx, e.actor, res.Tenant.ID, tenant.Patch{PropertyID: &b.ID})
	require.NoError(t, err)
	require.Len(t, moved.Warnings, 1)
	assert.Contains(t, moved.Warnings[0], "previous property")
	require.NotNil(t, moved.InitialPayment)
	assert.Equal(t, b.ID, moved.InitialPayment.PropertyID)
	assertOccupancy(t, e.store, e.actor.ID)
}

func TestUpdate_ReassignToOccupied(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p1 := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)
	p2 := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 102", 1500, 5)
	a, err := e.svc.Create(ctx, e.actor, e.input(p1.ID))
	require.NoError(t, err)
	_, err = e.svc.Create(ctx, e.actor, e.input(p2.ID))
	require.NoError(t, err)

	_, err = e.svc.Update(ctx, e.actor, a.Tenant.ID, tenant.Patch{PropertyID: &p2.ID})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assertOccupancy(t, e.store, e.actor.ID)
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := testutil.SeedProperty(t, e.store, e.actor.ID, "Apt 101", 1500, 5)
	res, err := e.svc.Create(ctx, e.actor, e.input(p.ID))
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(ctx, e.actor, res.Tenant.ID))

	payments, err := e.store.ListPayments(ctx, e.actor.ID, &res.Tenant.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)
	got, err := e.store.GetProperty(ctx, e.actor.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyAvailable, got.Status)
	assertOccupancy(t, e.store, e.actor.ID)

	logs, err := e.store.ListAuditLogs(ctx, e.actor.ID, store.AuditFilter{EntityType: audit.EntityTenant, EntityID: &res.Tenant.ID})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.AuditActionDelete, logs[0].Action)

	cascade, err := e.store.ListAuditLogs(ctx, e.actor.ID, store.AuditFilter{EntityType: audit.EntityPayment, EntityID: &res.Tenant.ID})
	require.NoError(t, err)
	require.Len(t, cascade, 1)
	assert.Equal(t, models.AuditActionDelete, cascade[0].Action)
	assert.Contains(t, cascade[0].BeforeData, res.InitialPayment.ID.String())

	err = e.svc.Delete(ctx, e.actor, res.Tenant.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestListAndGet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := testutil.SeedProperty(t, e.store, e.actor.ID, "Casa Azul", 1500, 5)
	res, err := e.svc.Create(ctx, e.actor, e.input(p.ID))
	require.NoError(t, err)

	views, err := e.svc.List(ctx, e.actor.ID, "azul")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Casa Azul", views[0].PropertyName)

	views, err = e.svc.List(ctx, e.actor.ID, "nobody")
	require.NoError(t, err)
	assert.Empty(t, views)

	d, err := e.svc.Get(ctx, e.actor.ID, res.Tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, "Casa Azul", d.PropertyName)
	assert.Len(t, d.Payments, 1)

	_, err = e.svc.Get(ctx, uuid.New(), res.Tenant.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
