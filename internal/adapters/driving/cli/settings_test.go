package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Short secret",
			input:    "abc123",
			expected: "****",
		},
		{
			name:     "Exactly 8 chars",
			input:    "12345678",
			expected: "****",
		},
		{
			name:     "Long secret",
			input:    "redis-1234567890abcdef",
			expected: "redi...cdef",
		},
		{
			name:     "Very long secret",
			input:    "p@ssw0rd-for-the-shared-cluster",
			expected: "p@ss...ster",
		},
		{
			name:     "Empty secret",
			input:    "",
			expected: "****",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := maskSecret(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		maxVal     int
		defaultVal int
		expected   int
	}{
		{
			name:       "Empty input returns default",
			input:      "",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Valid choice within range",
			input:      "3",
			maxVal:     5,
			defaultVal: 1,
			expected:   3,
		},
		{
			name:       "Choice below minimum returns default",
			input:      "0",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Choice above maximum returns default",
			input:      "6",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Invalid input returns default",
			input:      "abc",
			maxVal:     5,
			defaultVal: 2,
			expected:   2,
		},
		{
			name:       "Negative number returns default",
			input:      "-1",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Whitespace returns default",
			input:      "   ",
			maxVal:     5,
			defaultVal: 1,
			expected:   1,
		},
		{
			name:       "Maximum value is valid",
			input:      "5",
			maxVal:     5,
			defaultVal: 1,
			expected:   5,
		},
		{
			name:       "Minimum value is valid",
			input:      "1",
			maxVal:     5,
			defaultVal: 3,
			expected:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseChoice(tt.input, tt.maxVal, tt.defaultVal)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	saveErr     error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings()}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) SetQueueBackend(backend domain.QueueBackend) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.settings.Queue.Backend = backend
	return nil
}

func (m *mockSettingsService) Validate() error { return m.validateErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func setupSettingsTest() (*mockSettingsService, func()) {
	old := settingsService
	mock := newMockSettingsService()
	settingsService = mock
	return mock, func() { settingsService = old }
}

func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestSettingsShowCmd(t *testing.T) {
	_, cleanup := setupSettingsTest()
	defer cleanup()

	out, err := executeCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Address: :8080")
	assert.Contains(t, out, "Backend: Memory (single process)")
	assert.Contains(t, out, "Lock wait: 3s")
	assert.Contains(t, out, "Disabled")
	assert.Contains(t, out, "Configuration is valid.")
}

func TestSettingsShowCmd_RedisMasksPassword(t *testing.T) {
	mock, cleanup := setupSettingsTest()
	defer cleanup()
	mock.settings.Queue.Backend = domain.QueueBackendRedis
	mock.settings.Redis.Password = "super-secret-password"
	mock.settings.RateLimit.RequestsPerSecond = 50

	out, err := executeCommand(t, "", "settings")

	require.NoError(t, err)
	assert.Contains(t, out, "Redis: 127.0.0.1:6379 db 0")
	assert.Contains(t, out, "Password: supe...word")
	assert.NotContains(t, out, "super-secret-password")
	assert.Contains(t, out, "50 requests/s per client, burst 100")
}

func TestSettingsShowCmd_ValidationWarning(t *testing.T) {
	mock, cleanup := setupSettingsTest()
	defer cleanup()
	mock.validateErr = errors.New("lock wait and lease must be positive")

	out, err := executeCommand(t, "", "settings", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "Warning: lock wait and lease must be positive")
}

func TestSettingsShowCmd_ServiceNotConfigured(t *testing.T) {
	old := settingsService
	settingsService = nil
	defer func() { settingsService = old }()

	_, err := executeCommand(t, "", "settings", "show")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings service not configured")
}

func TestSettingsQueueCmd_WithArgument(t *testing.T) {
	mock, cleanup := setupSettingsTest()
	defer cleanup()

	out, err := executeCommand(t, "", "settings", "queue", "Redis")

	require.NoError(t, err)
	assert.Equal(t, domain.QueueBackendRedis, mock.settings.Queue.Backend)
	assert.Contains(t, out, "Queue backend set to: Redis (shared)")
}

func TestSettingsQueueCmd_Interactive(t *testing.T) {
	mock, cleanup := setupSettingsTest()
	defer cleanup()

	out, err := executeCommand(t, "2\n", "settings", "queue")

	require.NoError(t, err)
	assert.Contains(t, out, "1. Memory (single process)")
	assert.Equal(t, domain.QueueBackendRedis, mock.settings.Queue.Backend)
}

func TestSettingsQueueCmd_Unknown(t *testing.T) {
	_, cleanup := setupSettingsTest()
	defer cleanup()

	_, err := executeCommand(t, "", "settings", "queue", "kafka")

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestSettingsQueueCmd_SaveFails(t *testing.T) {
	mock, cleanup := setupSettingsTest()
	defer cleanup()
	mock.saveErr = errors.New("read-only file system")

	_, err := executeCommand(t, "", "settings", "queue", "memory")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read-only file system")
}
