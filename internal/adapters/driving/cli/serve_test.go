package cli

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

// mockScheduler implements driving.Scheduler for testing.
// Start blocks until ctx is cancelled, like the real scheduler.
type mockScheduler struct {
	mu      sync.Mutex
	started int
}

func (m *mockScheduler) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started++
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockScheduler) Stop() error { return nil }

func (m *mockScheduler) startCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

func setupServeTest(t *testing.T) *mockScheduler {
	t.Helper()
	setupCouponsTest(t)
	setupIssueTest(t)
	_, cleanupSettings := setupSettingsTest()

	oldScheduler := scheduler
	mock := &mockScheduler{}
	scheduler = mock
	t.Cleanup(func() {
		cleanupSettings()
		scheduler = oldScheduler
		serveAddr = ""
		serveWithConsumer = false
	})
	return mock
}

// executeWithCancelledContext runs the root command with a context that is
// already cancelled, so long-running commands start and shut down at once.
func executeWithCancelledContext(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rootCmd.SetContext(ctx)
	defer rootCmd.SetContext(context.Background())
	return executeCommand(t, "", args...)
}

func TestServeCmd_Use(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	assert.NotNil(t, serveCmd.Flags().Lookup("with-consumer"))
}

func TestServeCmd_StartsAndStops(t *testing.T) {
	mock := setupServeTest(t)

	_, err := executeWithCancelledContext(t, "serve", "--addr", "127.0.0.1:0")

	require.NoError(t, err)
	assert.Equal(t, 0, mock.startCount())
}

func TestServeCmd_WithConsumer(t *testing.T) {
	mock := setupServeTest(t)

	_, err := executeWithCancelledContext(t, "serve", "--addr", "127.0.0.1:0", "--with-consumer")

	require.NoError(t, err)
	assert.Equal(t, 1, mock.startCount())
}

func TestServeCmd_BadAddress(t *testing.T) {
	setupServeTest(t)

	_, err := executeWithCancelledContext(t, "serve", "--addr", "256.0.0.1:99999")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}

func TestServeCmd_NotConfigured(t *testing.T) {
	setupServeTest(t)
	couponIssuer = nil

	_, err := executeWithCancelledContext(t, "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "coupon services not configured")
}

func TestServeCmd_WithConsumerNeedsScheduler(t *testing.T) {
	setupServeTest(t)
	scheduler = nil

	_, err := executeWithCancelledContext(t, "serve", "--with-consumer")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler not configured")
}

// mockListener implements driving.IssueListener for testing.
type mockListener struct {
	processed int
	err       error
}

func (m *mockListener) Consume(context.Context) (int, error) {
	return m.processed, m.err
}

func setupConsumeTest(t *testing.T) (*mockListener, *mockScheduler) {
	t.Helper()
	oldListener, oldScheduler, oldConfig := issueListener, scheduler, schedulerConfig
	listener, sched := &mockListener{}, &mockScheduler{}
	issueListener, scheduler, schedulerConfig = listener, sched, domain.DefaultSchedulerConfig()
	t.Cleanup(func() {
		issueListener, scheduler, schedulerConfig = oldListener, oldScheduler, oldConfig
		consumeOnce = false
	})
	return listener, sched
}

func TestConsumeCmd_Once(t *testing.T) {
	listener, sched := setupConsumeTest(t)
	listener.processed = 3

	out, err := executeCommand(t, "", "consume", "--once")

	require.NoError(t, err)
	assert.Contains(t, out, "Processed 3 issue requests.")
	assert.Equal(t, 0, sched.startCount())
}

func TestConsumeCmd_OnceFailure(t *testing.T) {
	listener, _ := setupConsumeTest(t)
	listener.processed = 1
	listener.err = assert.AnError

	out, err := executeCommand(t, "", "consume", "--once")

	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, out, "Processed 1 issue requests.")
}

func TestConsumeCmd_RunsScheduler(t *testing.T) {
	_, sched := setupConsumeTest(t)

	out, err := executeWithCancelledContext(t, "consume")

	require.NoError(t, err)
	assert.Contains(t, out, "Consuming issue requests every 1s.")
	assert.Equal(t, 1, sched.startCount())
}

func TestConsumeCmd_SchedulerDisabled(t *testing.T) {
	setupConsumeTest(t)
	schedulerConfig.Enabled = false

	_, err := executeCommand(t, "", "consume")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler is disabled")
}

func TestConsumeCmd_NotConfigured(t *testing.T) {
	setupConsumeTest(t)
	issueListener = nil
	scheduler = nil

	_, err := executeCommand(t, "", "consume", "--once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "issue listener not configured")

	consumeOnce = false
	_, err = executeCommand(t, "", "consume")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler not configured")
}

// withLocalQueue marks the configured queue as process-local for one test.
func withLocalQueue(t *testing.T) {
	t.Helper()
	old := localQueue
	localQueue = true
	t.Cleanup(func() { localQueue = old })
}

func TestServeCmd_LocalQueueRunsConsumer(t *testing.T) {
	mock := setupServeTest(t)
	withLocalQueue(t)

	_, err := executeWithCancelledContext(t, "serve", "--addr", "127.0.0.1:0")

	require.NoError(t, err)
	assert.Equal(t, 1, mock.startCount())
}

func TestServeCmd_LocalQueueNeedsScheduler(t *testing.T) {
	setupServeTest(t)
	withLocalQueue(t)
	scheduler = nil

	_, err := executeWithCancelledContext(t, "serve", "--addr", "127.0.0.1:0")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler not configured")
}

func TestConsumeCmd_LocalQueueRefused(t *testing.T) {
	listener, sched := setupConsumeTest(t)
	withLocalQueue(t)
	listener.processed = 3

	_, err := executeCommand(t, "", "consume", "--once")
	assert.ErrorIs(t, err, errLocalQueue)

	consumeOnce = false
	_, err = executeWithCancelledContext(t, "consume")
	assert.ErrorIs(t, err, errLocalQueue)
	assert.Equal(t, 0, sched.startCount())
}
