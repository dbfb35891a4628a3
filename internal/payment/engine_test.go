package payment_test

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
	"rental-backend/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *store.Store
	engine   *payment.Engine
	owner    uuid.UUID
	property *models.Property
	tenant   *models.Tenant
}

// newFixture seeds one landlord with a property due on dueDay and a tenant
// leasing it for all of 2024. No payment exists yet.
func newFixture(t *testing.T, today time.Time, dueDay int) *fixture {
	t.Helper()
	st := testutil.NewStore(t)
	u := testutil.SeedUser(t, st, "owner@example.com")
	p := testutil.SeedProperty(t, st, u.ID, "Apt 101", 1500, dueDay)
	tn := testutil.SeedTenant(t, st, p, "ana", testutil.Date(2024, 1, 1), testutil.Date(2024, 12, 31))

	eng := payment.NewEngine(st, logger.Discard(), time.UTC).
		WithClock(testutil.FixedClock(today.Year(), today.Month(), today.Day()))
	return &fixture{store: st, engine: eng, owner: u.ID, property: p, tenant: tn}
}

func (f *fixture) at(today time.Time) {
	f.engine.WithClock(testutil.FixedClock(today.Year(), today.Month(), today.Day()))
}

func (f *fixture) payments(t *testing.T) []models.Payment {
	t.Helper()
	ps, err := f.store.ListPayments(context.Background(), f.owner, &f.tenant.ID)
	require.NoError(t, err)
	return ps
}

func (f *fixture) insertPayment(t *testing.T, due time.Time, status models.PaymentStatus) *models.Payment {
	t.Helper()
	p := &models.Payment{
		OwnerID:     f.owner,
		TenantID:    f.tenant.ID,
		PropertyID:  f.property.ID,
		Amount:      f.property.RentAmount,
		DueDate:     due,
		Status:      status,
		Description: payment.Description(f.property.Name, due),
	}
	if status == models.PaymentPaid {
		paid := due
		p.PaidDate = &paid
	}
	require.NoError(t, f.store.CreatePayment(context.Background(), p))
	return p
}

func TestGenerateInitialPayment_DueDayPassed(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 1, 10), 5)

	p, created, err := f.engine.GenerateInitialPayment(context.Background(), f.tenant, f.property)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "2024-02-05", p.DueDate.Format(time.DateOnly))
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Equal(t, 1500.0, p.Amount)
	assert.Equal(t, "Rent Apt 101 - 02/2024", p.Description)
	assert.Nil(t, p.PaidDate)

	stored := f.payments(t)
	require.Len(t, stored, 1)
	assert.Equal(t, p.ID, stored[0].ID)
	assert.Equal(t, f.property.ID, stored[0].PropertyID)
}

func TestGenerateInitialPayment_DueDayAhead(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 2, 1), 5)

	p, _, err := f.engine.GenerateInitialPayment(context.Background(), f.tenant, f.property)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-05", p.DueDate.Format(time.DateOnly))
}

func TestGenerateInitialPayment_Idempotent(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 1, 10), 5)
	ctx := context.Background()

	first, created, err := f.engine.GenerateInitialPayment(ctx, f.tenant, f.property)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := f.engine.GenerateInitialPayment(ctx, f.tenant, f.property)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.payments(t), 1)
}

func TestGenerateInitialPayment_OtherPropertyInSameMonth(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 1, 10), 5)
	ctx := context.Background()
	elsewhere := f.insertPayment(t, testutil.Date(2024, 2, 5), models.PaymentPending)
	require.NoError(t, f.store.DB().Model(elsewhere).Update("property_id", uuid.New()).Error)

	p, created, err := f.engine.GenerateInitialPayment(ctx, f.tenant, f.property)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, elsewhere.ID, p.ID)
	assert.Equal(t, f.property.ID, p.PropertyID)
	assert.Len(t, f.payments(t), 2)
}

func TestGenerateInitialPayment_InvalidDueDay(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 1, 10), 5)
	f.property.DueDay = 32

	_, _, err := f.engine.GenerateInitialPayment(context.Background(), f.tenant, f.property)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Empty(t, f.payments(t))
}

func TestGenerateInitialPayment_NotLinked(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 1, 10), 5)
	other := testutil.SeedProperty(t, f.store, f.owner, "Apt 202", 900, 10)

	_, _, err := f.engine.GenerateInitialPayment(context.Background(), f.tenant, other)
	assert.True(t, apperr.Is(err, apperr.KindInconsistentState))
	assert.Empty(t, f.payments(t))
}

func TestGenerateMonthlyPayments_Idempotent(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 10), 5)
	ctx := context.Background()

	p2 := testutil.SeedProperty(t, f.store, f.owner, "House", 3000, 20)
	testutil.SeedTenant(t, f.store, p2, "bruno", testutil.Date(2024, 1, 1), testutil.Date(2025, 6, 30))

	n, err := f.engine.GenerateMonthlyPayments(ctx, f.owner)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = f.engine.GenerateMonthlyPayments(ctx, f.owner)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := f.store.ListPayments(ctx, f.owner, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	// newest due date first
	assert.Equal(t, "2024-04-05", all[0].DueDate.Format(time.DateOnly))
	assert.Equal(t, "2024-03-20", all[1].DueDate.Format(time.DateOnly))
}

func TestGenerateMonthlyPayments_ExistingPaymentInMonth(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 10), 5)
	// already settled for April
	f.insertPayment(t, testutil.Date(2024, 4, 5), models.PaymentPaid)

	n, err := f.engine.GenerateMonthlyPayments(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.payments(t), 1)
}

func TestGenerateMonthlyPayments_NoBackfill(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 1, 10), 5)
	f.insertPayment(t, testutil.Date(2024, 2, 5), models.PaymentPending)

	// three cycles go by without a sync
	f.at(testutil.Date(2024, 5, 10))
	n, err := f.engine.GenerateMonthlyPayments(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ps := f.payments(t)
	require.Len(t, ps, 2)
	assert.Equal(t, "2024-06-05", ps[0].DueDate.Format(time.DateOnly))
}

func TestGenerateMonthlyPayments_SkipsInactiveLeases(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 12, 10), 5)
	ctx := context.Background()

	future := testutil.SeedProperty(t, f.store, f.owner, "Future", 800, 5)
	testutil.SeedTenant(t, f.store, future, "carla", testutil.Date(2025, 1, 1), testutil.Date(2025, 12, 31))
	ended := testutil.SeedProperty(t, f.store, f.owner, "Ended", 800, 5)
	testutil.SeedTenant(t, f.store, ended, "davi", testutil.Date(2023, 1, 1), testutil.Date(2023, 12, 31))

	// ana's lease ends 2024-12-31, before the next due date 2025-01-05
	n, err := f.engine.GenerateMonthlyPayments(ctx, f.owner)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := f.store.ListPayments(ctx, f.owner, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

type failingCreateRepo struct {
	*store.Store
	failFor uuid.UUID
}

func (r *failingCreateRepo) CreatePayment(ctx context.Context, p *models.Payment) error {
	if p.TenantID == r.failFor {
		return apperr.Transient(errors.New("connection reset"), "could not access payment")
	}
	return r.Store.CreatePayment(ctx, p)
}

func TestGenerateMonthlyPayments_ContinuesAfterFailure(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 10), 5)
	p2 := testutil.SeedProperty(t, f.store, f.owner, "House", 3000, 20)
	bruno := testutil.SeedTenant(t, f.store, p2, "bruno", testutil.Date(2024, 1, 1), testutil.Date(2024, 12, 31))

	repo := &failingCreateRepo{Store: f.store, failFor: f.tenant.ID}
	eng := payment.NewEngine(repo, logger.Discard(), time.UTC).WithClock(testutil.FixedClock(2024, 3, 10))

	n, err := eng.GenerateMonthlyPayments(context.Background(), f.owner)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTransientIO))
	assert.Equal(t, 1, n)

	brunos, err := f.store.ListPayments(context.Background(), f.owner, &bruno.ID)
	require.NoError(t, err)
	assert.Len(t, brunos, 1)
	assert.Empty(t, f.payments(t))
}

func TestReconcileOverduePayments(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 1, 6), 5)
	ctx := context.Background()

	stale := f.insertPayment(t, testutil.Date(2024, 1, 5), models.PaymentPending)
	paid := f.insertPayment(t, testutil.Date(2023, 12, 5), models.PaymentPaid)
	dueToday := f.insertPayment(t, testutil.Date(2024, 1, 6), models.PaymentPending)

	n, err := f.engine.ReconcileOverduePayments(ctx, f.owner)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := f.store.GetPayment(ctx, f.owner, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentOverdue, got.Status)
	assert.Equal(t, stale.Amount, got.Amount)
	assert.Equal(t, "2024-01-05", got.DueDate.Format(time.DateOnly))

	got, err = f.store.GetPayment(ctx, f.owner, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.Status)
	assert.Equal(t, paid.Version, got.Version)

	got, err = f.store.GetPayment(ctx, f.owner, dueToday.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, got.Status)

	n, err = f.engine.ReconcileOverduePayments(ctx, f.owner)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReconcileOverduePayments_OwnerScoped(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 1, 6), 5)
	f.insertPayment(t, testutil.Date(2024, 1, 5), models.PaymentPending)

	n, err := f.engine.ReconcileOverduePayments(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, models.PaymentPending, f.payments(t)[0].Status)
}

func TestSetPaymentStatus_PaidDefaultsToToday(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 1), 5)
	p := f.insertPayment(t, testutil.Date(2024, 2, 5), models.PaymentOverdue)

	got, err := f.engine.SetPaymentStatus(context.Background(), f.owner, p.ID, payment.StatusChange{Status: models.PaymentPaid})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.Status)
	require.NotNil(t, got.PaidDate)
	assert.Equal(t, "2024-03-01", got.PaidDate.Format(time.DateOnly))
	assert.Equal(t, p.Version+1, got.Version)
}

func TestSetPaymentStatus_ExplicitPaidDate(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 1), 5)
	p := f.insertPayment(t, testutil.Date(2024, 3, 5), models.PaymentPending)
	paidOn := testutil.Date(2024, 2, 28)

	got, err := f.engine.SetPaymentStatus(context.Background(), f.owner, p.ID,
		payment.StatusChange{Status: models.PaymentPaid, PaidDate: &paidOn})
	require.NoError(t, err)
	require.NotNil(t, got.PaidDate)
	assert.Equal(t, "2024-02-28", got.PaidDate.Format(time.DateOnly))
}

func TestSetPaymentStatus_ReopenRequiresOverride(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 1), 5)
	ctx := context.Background()
	p := f.insertPayment(t, testutil.Date(2024, 2, 5), models.PaymentPaid)

	_, err := f.engine.SetPaymentStatus(ctx, f.owner, p.ID, payment.StatusChange{Status: models.PaymentPending})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	got, err := f.engine.SetPaymentStatus(ctx, f.owner, p.ID, payment.StatusChange{Status: models.PaymentOverdue, Override: true})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentOverdue, got.Status)
	assert.Nil(t, got.PaidDate)
}

func TestSetPaymentStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to models.PaymentStatus
		override bool
	}{
		{models.PaymentPending, models.PaymentPaid, false},
		{models.PaymentOverdue, models.PaymentPaid, false},
		{models.PaymentPending, models.PaymentOverdue, false},
		{models.PaymentOverdue, models.PaymentPending, false},
		{models.PaymentPaid, models.PaymentPending, true},
		{models.PaymentPaid, models.PaymentOverdue, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			f := newFixture(t, testutil.Date(2024, 3, 1), 5)
			p := f.insertPayment(t, testutil.Date(2024, 2, 5), tt.from)

			got, err := f.engine.SetPaymentStatus(context.Background(), f.owner, p.ID,
				payment.StatusChange{Status: tt.to, Override: tt.override})
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
			// paid has a paid date, nothing else does
			assert.Equal(t, tt.to == models.PaymentPaid, got.PaidDate != nil)
		})
	}
}

func TestSetPaymentStatus_StaleVersion(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 1), 5)
	ctx := context.Background()
	p := f.insertPayment(t, testutil.Date(2024, 2, 5), models.PaymentPending)

	// reconciliation bumps the version behind the reader's back
	_, err := f.engine.ReconcileOverduePayments(ctx, f.owner)
	require.NoError(t, err)

	_, err = f.engine.SetPaymentStatus(ctx, f.owner, p.ID, payment.StatusChange{Status: models.PaymentPaid, Version: p.Version})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	got, err := f.store.GetPayment(ctx, f.owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentOverdue, got.Status)
}

func TestSetPaymentStatus_Errors(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 1), 5)
	ctx := context.Background()

	_, err := f.engine.SetPaymentStatus(ctx, f.owner, uuid.New(), payment.StatusChange{Status: models.PaymentPaid})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	p := f.insertPayment(t, testutil.Date(2024, 2, 5), models.PaymentPending)
	_, err = f.engine.SetPaymentStatus(ctx, f.owner, p.ID, payment.StatusChange{Status: "cancelled"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.engine.SetPaymentStatus(ctx, uuid.New(), p.ID, payment.StatusChange{Status: models.PaymentPaid})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCorrectPayment(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 10), 5)
	ctx := context.Background()
	p := f.insertPayment(t, testutil.Date(2024, 4, 5), models.PaymentPending)

	amount := 1650.0
	past := testutil.Date(2024, 3, 1)
	got, err := f.engine.CorrectPayment(ctx, f.owner, p.ID, payment.Correction{Amount: &amount, DueDate: &past})
	require.NoError(t, err)
	assert.Equal(t, 1650.0, got.Amount)
	assert.Equal(t, "2024-03-01", got.DueDate.Format(time.DateOnly))
	assert.Equal(t, models.PaymentOverdue, got.Status)

	paid := f.insertPayment(t, testutil.Date(2024, 2, 5), models.PaymentPaid)
	_, err = f.engine.CorrectPayment(ctx, f.owner, paid.ID, payment.Correction{Amount: &amount})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.engine.CorrectPayment(ctx, f.owner, p.ID, payment.Correction{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCascadeDeleteTenant(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 4, 10), 5)
	ctx := context.Background()
	f.insertPayment(t, testutil.Date(2024, 2, 5), models.PaymentPaid)
	f.insertPayment(t, testutil.Date(2024, 3, 5), models.PaymentOverdue)
	f.insertPayment(t, testutil.Date(2024, 5, 5), models.PaymentPending)
	require.Len(t, f.payments(t), 3)

	require.NoError(t, f.engine.CascadeDeleteTenant(ctx, f.owner, f.tenant.ID))

	assert.Empty(t, f.payments(t))
	_, err := f.store.GetTenant(ctx, f.owner, f.tenant.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	prop, err := f.store.GetProperty(ctx, f.owner, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyAvailable, prop.Status)
	assert.Nil(t, prop.TenantID)
}

func TestCascadeDeleteTenant_PropertyGone(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 4, 10), 5)
	ctx := context.Background()
	f.insertPayment(t, testutil.Date(2024, 5, 5), models.PaymentPending)

	require.NoError(t, f.store.DB().Delete(&models.Property{}, "id = ?", f.property.ID).Error)

	err := f.engine.CascadeDeleteTenant(ctx, f.owner, f.tenant.ID)
	assert.True(t, apperr.Is(err, apperr.KindInconsistentState))

	// earlier steps stay done
	assert.Empty(t, f.payments(t))
	_, err = f.store.GetTenant(ctx, f.owner, f.tenant.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

type failingDeleteRepo struct {
	*store.Store
	deleteTenantCalled bool
}

func (r *failingDeleteRepo) DeletePaymentsByTenant(context.Context, uuid.UUID, uuid.UUID) (int64, error) {
	return 0, apperr.Transient(errors.New("timeout"), "could not access payments")
}

func (r *failingDeleteRepo) DeleteTenant(ctx context.Context, owner, id uuid.UUID) error {
	r.deleteTenantCalled = true
	return r.Store.DeleteTenant(ctx, owner, id)
}

func TestCascadeDeleteTenant_StopsAtFirstFailure(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 4, 10), 5)
	ctx := context.Background()
	f.insertPayment(t, testutil.Date(2024, 5, 5), models.PaymentPending)

	repo := &failingDeleteRepo{Store: f.store}
	eng := payment.NewEngine(repo, logger.Discard(), time.UTC)

	err := eng.CascadeDeleteTenant(ctx, f.owner, f.tenant.ID)
	assert.True(t, apperr.Is(err, apperr.KindTransientIO))
	assert.False(t, repo.deleteTenantCalled)

	_, err = f.store.GetTenant(ctx, f.owner, f.tenant.ID)
	require.NoError(t, err)
	prop, err := f.store.GetProperty(ctx, f.owner, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PropertyOccupied, prop.Status)
}

func TestSync(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 10), 5)
	f.insertPayment(t, testutil.Date(2024, 3, 5), models.PaymentPending)

	res, err := f.engine.Sync(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, payment.SyncResult{Generated: 1, Overdue: 1}, res)

	res, err = f.engine.Sync(context.Background(), f.owner)
	require.NoError(t, err)
	assert.Equal(t, payment.SyncResult{}, res)
}

func TestDropUpcomingPayments(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 3, 10), 10)
	ctx := context.Background()
	owed := f.insertPayment(t, testutil.Date(2024, 2, 10), models.PaymentOverdue)
	paid := f.insertPayment(t, testutil.Date(2024, 3, 10), models.PaymentPaid)
	f.insertPayment(t, testutil.Date(2024, 3, 10), models.PaymentPending)
	f.insertPayment(t, testutil.Date(2024, 4, 10), models.PaymentPending)

	n, err := f.engine.DropUpcomingPayments(ctx, f.owner, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left := f.payments(t)
	require.Len(t, left, 2)
	assert.ElementsMatch(t, []uuid.UUID{owed.ID, paid.ID}, []uuid.UUID{left[0].ID, left[1].ID})

	n, err = f.engine.DropUpcomingPayments(ctx, f.owner, f.tenant.ID, f.property.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEngineWritesAuditEntries(t *testing.T) {
	f := newFixture(t, testutil.Date(2024, 1, 10), 5)
	ctx := context.Background()
	f.engine.WithAudit(audit.NewWriter(f.store, logger.Discard()))
	byType := store.AuditFilter{EntityType: audit.EntityPayment}

	p, created, err := f.engine.GenerateInitialPayment(ctx, f.tenant, f.property)
	require.NoError(t, err)
	require.True(t, created)
	_, created, err = f.engine.GenerateInitialPayment(ctx, f.tenant, f.property)
	require.NoError(t, err)
	require.False(t, created)

	logs, err := f.store.ListAuditLogs(ctx, f.owner, byType)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionCreate, logs[0].Action)
	assert.Equal(t, p.ID, logs[0].EntityID)
	assert.Equal(t, "system", logs[0].UserName)
	assert.Contains(t, logs[0].AfterData, p.ID.String())

	f.at(testutil.Date(2024, 2, 6))
	n, err := f.engine.ReconcileOverduePayments(ctx, f.owner)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	_, err = f.engine.ReconcileOverduePayments(ctx, f.owner)
	require.NoError(t, err)

	logs, err = f.store.ListAuditLogs(ctx, f.owner, store.AuditFilter{EntityType: audit.EntityPayment, EntityID: &uuid.Nil})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionUpdate, logs[0].Action)
	assert.Contains(t, logs[0].Description, "1 pending payments")

	require.NoError(t, f.engine.CascadeDeleteTenant(ctx, f.owner, f.tenant.ID))
	logs, err = f.store.ListAuditLogs(ctx, f.owner, store.AuditFilter{EntityType: audit.EntityPayment, EntityID: &f.tenant.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditActionDelete, logs[0].Action)
	assert.Contains(t, logs[0].BeforeData, p.ID.String())

	logs, err = f.store.ListAuditLogs(ctx, f.owner, byType)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}
