package service

import (
	"context"
	"sync"
	"testing"

	models "marketplace/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.Register(ctx, "s3", "secret", 3))
	s := f.seller(t, "s3")
	assert.Equal(t, 0, s.SessionCount)
	assert.Equal(t, 3, s.PlanID)

	err := f.svc.Register(ctx, "s3", "other", 1)
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
	assert.Equal(t, "secret", f.seller(t, "s3").Secret)

	err = f.svc.Register(ctx, "s4", "secret", 99)
	assert.ErrorIs(t, err, ErrOperationFailed)
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignIn(ctx, "s1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.SignIn(ctx, "nobody", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 0, f.seller(t, "s1").SessionCount)
}

func TestSignIn_SessionLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.SignIn(ctx, "s1", "pw1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.SessionCount)
	second, err := f.svc.SignIn(ctx, "s1", "pw1")
	require.NoError(t, err)
	assert.Equal(t, 2, second.SessionCount)

	_, err = f.svc.SignIn(ctx, "s1", "pw1")
	assert.ErrorIs(t, err, ErrSessionLimitReached)
	assert.Equal(t, 2, f.seller(t, "s1").SessionCount)
}

func TestSignIn_ConcurrentAdmissionNeverExceedsPlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const callers = 25

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
		refused  int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.SignIn(ctx, "s1", "pw1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case assert.ErrorIs(t, err, ErrSessionLimitReached):
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, admitted)
	assert.Equal(t, callers-2, refused)
	assert.Equal(t, 2, f.seller(t, "s1").SessionCount)
}

func TestSignOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.SignIn(ctx, "s1", "pw1")
	require.NoError(t, err)
	require.NoError(t, f.svc.SignOut(ctx, sess))
	assert.Equal(t, 0, f.seller(t, "s1").SessionCount)

	// already at zero
	require.NoError(t, f.svc.SignOut(ctx, sess))
	assert.Equal(t, 0, f.seller(t, "s1").SessionCount)

	assert.ErrorIs(t, f.svc.SignOut(ctx, models.Session{SellerID: "ghost"}), ErrNotFound)
}

func TestEndSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.EndSession(ctx, nil))

	sess, err := f.svc.SignIn(ctx, "s2", "pw2")
	require.NoError(t, err)
	require.NoError(t, f.svc.EndSession(ctx, &sess))
	assert.Equal(t, 0, f.seller(t, "s2").SessionCount)
}

func TestListPlans(t *testing.T) {
	f := newFixture(t)
	plans, err := f.svc.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "Basic", plans[0].Name)
	assert.Equal(t, 6, plans[2].MaxParallelSessions)
}

func TestChangePlan(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess, err := f.svc.SignIn(ctx, "s2", "pw2")
	require.NoError(t, err)

	_, err = f.svc.ChangePlan(ctx, sess, 1)
	assert.ErrorIs(t, err, ErrDowngradeUnavailable)
	assert.Equal(t, 2, f.seller(t, "s2").PlanID)

	_, err = f.svc.ChangePlan(ctx, sess, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := f.svc.ChangePlan(ctx, sess, 3)
	require.NoError(t, err)
	assert.Equal(t, models.Session{SellerID: "s2", SessionCount: 1, PlanID: 3}, updated)

	plan, err := f.svc.CurrentSubscription(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "Premium", plan.Name)

	// same ceiling is not a downgrade
	_, err = f.svc.ChangePlan(ctx, updated, 3)
	assert.NoError(t, err)
}

func TestAdjustStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := models.Session{SellerID: "s1", PlanID: 1}

	st, err := f.svc.AdjustStock(ctx, sess, "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 8, st.Count)

	_, err = f.svc.AdjustStock(ctx, sess, "p1", -9)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Equal(t, 8, f.stock(t, "p1", "s1"))

	st, err = f.svc.AdjustStock(ctx, sess, "p1", -8)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count)

	_, err = f.svc.AdjustStock(ctx, models.Session{SellerID: "s2"}, "p1", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
