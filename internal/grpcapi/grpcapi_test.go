package grpcapi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"health-reminder-api/internal/auth"
	"health-reminder-api/internal/model"
	"health-reminder-api/internal/reminder"
	"health-reminder-api/internal/store"
)

const (
	secret = "grpc-test-secret"
	opsKey = "ops-secret"
	job    = "daily-reminders"
)

var ist = time.FixedZone("IST", 5*3600+1800)

type fixture struct {
	conn   *grpc.ClientConn
	server *grpc.Server
	store  *store.Memory
	sched  *reminder.Scheduler
}

func newFixture(t *testing.T, fn reminder.Job) *fixture {
	t.Helper()
	st := store.NewMemory()
	sched := reminder.NewScheduler(ist, zerolog.Nop())
	require.NoError(t, sched.Register(job, "0 8 * * *", fn))
	t.Cleanup(func() { _ = sched.Stop(context.Background()) })

	dash := reminder.NewDashboardService(st, reminder.NewEvaluator(st, ist))
	gs, _ := NewGRPCServer(NewServer(sched, job, dash, zerolog.Nop()), Options{Secret: secret, OpsKey: opsKey})

	lis := bufconn.Listen(1 << 20)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &fixture{conn: conn, server: gs, store: st, sched: sched}
}

func TestRunReminders(t *testing.T) {
	ran := make(chan struct{}, 1)
	f := newFixture(t, func(context.Context) { ran <- struct{}{} })

	err := NewClient(f.conn).RunReminders(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "no ops key")

	err = NewClient(f.conn, WithOpsKey("wrong")).RunReminders(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	require.NoError(t, NewClient(f.conn, WithOpsKey(opsKey)).RunReminders(context.Background()))
	select {
	case <-ran:
	default:
		t.Fatal("job did not run")
	}
}

func TestRunRemindersAlreadyRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, func(context.Context) {
		close(started)
		<-release
	})

	go func() { _ = f.sched.RunNow(context.Background(), job) }()
	<-started
	defer close(release)

	err := NewClient(f.conn, WithOpsKey(opsKey)).RunReminders(context.Background())
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestShutdownForcesStopAfterDeadline(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	f := newFixture(t, func(context.Context) {
		close(started)
		<-release
	})
	defer close(release)

	errc := make(chan error, 1)
	go func() { errc <- NewClient(f.conn, WithOpsKey(opsKey)).RunReminders(context.Background()) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	begin := time.Now()
	assert.ErrorIs(t, Shutdown(ctx, f.server), context.DeadlineExceeded)
	assert.Less(t, time.Since(begin), time.Second)

	select {
	case err := <-errc:
		assert.Equal(t, codes.Unavailable, status.Code(err))
	case <-time.After(time.Second):
		t.Fatal("client call still open after shutdown")
	}
}

func TestShutdownStopsRunWithScheduler(t *testing.T) {
	started := make(chan struct{})
	f := newFixture(t, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})

	errc := make(chan error, 1)
	go func() { errc <- NewClient(f.conn, WithOpsKey(opsKey)).RunReminders(context.Background()) }()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, f.sched.Stop(ctx), context.DeadlineExceeded)

	// the cancelled run lets the call finish, so draining is clean
	require.NoError(t, Shutdown(context.Background(), f.server))
	require.NoError(t, <-errc)
}

func TestGetDashboard(t *testing.T) {
	f := newFixture(t, func(context.Context) {})
	ctx := context.Background()

	name := "Asha"
	u := &model.User{Email: "asha@example.com", FullName: &name, HashedPassword: "x", IsActive: true}
	require.NoError(t, f.store.CreateUser(ctx, u))
	meal := "After Lunch"
	require.NoError(t, f.store.CreateMedication(ctx, &model.Medication{
		OwnerID: u.ID, Name: "Aspirin", Dosage: "75mg", TimingType: model.TimingMeal, MealTiming: &meal, Frequency: model.FrequencyDaily,
	}))

	_, err := NewClient(f.conn).GetDashboard(ctx, time.Time{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	tok, err := auth.MakeToken(u.ID, secret, time.Minute)
	require.NoError(t, err)
	out, err := NewClient(f.conn, WithToken(tok)).GetDashboard(ctx, time.Date(2024, 1, 15, 9, 0, 0, 0, ist))
	require.NoError(t, err)

	m := out.AsMap()
	assert.Equal(t, "Asha", m["user_full_name"])
	meds, ok := m["medications_today"].([]any)
	require.True(t, ok)
	require.Len(t, meds, 1)
	assert.Equal(t, "After Lunch", meds[0].(map[string]any)["timing"])
	assert.Nil(t, m["next_appointment"])
	assert.Equal(t, reminder.NoAppointmentPlaceholder, m["placeholders"].(map[string]any)["appointment"])

	ghost, err := auth.MakeToken("no-such-user", secret, time.Minute)
	require.NoError(t, err)
	_, err = NewClient(f.conn, WithToken(ghost)).GetDashboard(ctx, time.Time{})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestHealthIsOpen(t *testing.T) {
	f := newFixture(t, func(context.Context) {})
	resp, err := healthpb.NewHealthClient(f.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
