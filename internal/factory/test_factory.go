package factory

import (
	"time"

	"github.com/mcoot/guildtracker/internal/dependencies/mocks"
	"github.com/mcoot/guildtracker/internal/gameclient"
	"github.com/mcoot/guildtracker/internal/services/auth"
	"github.com/mcoot/guildtracker/internal/services/world"
	"github.com/mcoot/guildtracker/internal/storage/memory"
	"github.com/mcoot/guildtracker/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App with in-memory storage and a mocked clock,
// talking to the game service at baseURL with effectively unpaced requests
func NewTestApp(baseURL string) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	cfg := gameclient.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.RequestsPerSecond = 1000

	logger := testutil.NopLogger()
	app := newWithDependencies(store, mockClock, gameclient.New(cfg, logger), logger)

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}

// TestStub extends StubApp with test-specific helpers
type TestStub struct {
	*StubApp

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestStub creates an emulator over w with a mocked clock
func NewTestStub(w *world.World) *TestStub {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	return &TestStub{
		StubApp:   newStubWithDependencies(w, mockClock, auth.DefaultConfig(), testutil.NopLogger()),
		MockClock: mockClock,
	}
}
