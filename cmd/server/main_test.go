package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"syscall"
	"testing"
	"time"

	"gorm.io/gorm"

	"nutriplan/internal/config"
	"nutriplan/internal/db/mock"
	"nutriplan/internal/server"
)

type stubServer struct {
	startErr       error
	stopErr        error
	blockUntilStop bool

	startCalled bool
	stopCalled  bool
	cfg         server.Config

	startGate   chan struct{}
	startNotify chan struct{}
}

func newStubServer(startErr, stopErr error, block bool) *stubServer {
	s := &stubServer{
		startErr:       startErr,
		stopErr:        stopErr,
		blockUntilStop: block,
		startNotify:    make(chan struct{}),
	}
	if block {
		s.startGate = make(chan struct{})
	}
	return s
}

func (s *stubServer) Start() error {
	s.startCalled = true
	close(s.startNotify)
	if s.blockUntilStop {
		<-s.startGate
	}
	return s.startErr
}

func (s *stubServer) Stop() error {
	s.stopCalled = true
	if s.blockUntilStop {
		close(s.startGate)
	}
	return s.stopErr
}

func restoreGlobals(t *testing.T) {
	t.Helper()
	originalLoadConfig := loadConfigFunc
	originalSetLogLevel := setLogLevelFunc
	originalSetLogFormat := setLogFormatFunc
	originalMock := newMockDatabaseFunc
	originalConfigure := configureDatabase
	originalNewServer := newServerFunc
	originalSubscribe := subscribeShutdownSig

	t.Cleanup(func() {
		loadConfigFunc = originalLoadConfig
		setLogLevelFunc = originalSetLogLevel
		setLogFormatFunc = originalSetLogFormat
		newMockDatabaseFunc = originalMock
		configureDatabase = originalConfigure
		newServerFunc = originalNewServer
		subscribeShutdownSig = originalSubscribe
	})
	setLogLevelFunc = func(string) error { return nil }
	setLogFormatFunc = func(string) error { return nil }
}

func testConfig(t *testing.T, mode string) config.Config {
	t.Helper()
	return config.Config{
		Server:   config.ServerConfig{Addr: ":8080", RateLimitPerMinute: 60},
		Database: config.DatabaseConfig{UseMock: true},
		Logging:  config.LoggingConfig{Level: "debug", Format: "text"},
		Models: config.ModelConfig{
			Dir:             t.TempDir(),
			SnapshotBackend: config.SnapshotFile,
			RetrainMode:     mode,
			RetrainDebounce: 10 * time.Millisecond,
		},
		Recommend: config.RecommendConfig{CacheTTL: time.Minute, PlannerSeed: 7},
	}
}

func TestRunUsesMockDatabaseWhenConfigured(t *testing.T) {
	restoreGlobals(t)

	cfg := testConfig(t, config.RetrainAsync)
	var mockCalled bool
	loadConfigFunc = func() (config.Config, error) { return cfg, nil }
	newMockDatabaseFunc = func(ctx context.Context) (*gorm.DB, error) {
		mockCalled = true
		return mock.New(ctx)
	}
	configureDatabase = func(config.DatabaseConfig) (*gorm.DB, error) {
		t.Fatal("configureDatabase should not be called when mock is enabled")
		return nil, nil
	}

	serverStub := newStubServer(http.ErrServerClosed, nil, true)
	newServerFunc = func(c server.Config) (serverLifecycle, error) {
		serverStub.cfg = c
		return serverStub, nil
	}

	shutdownCh := make(chan os.Signal, 1)
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		return shutdownCh, func() {}
	}

	go func() {
		<-serverStub.startNotify
		shutdownCh <- syscall.SIGTERM
	}()

	code := run(context.Background())
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !mockCalled {
		t.Fatal("expected mock database to be used")
	}
	if !serverStub.startCalled || !serverStub.stopCalled {
		t.Fatal("expected server start and stop to be invoked")
	}
	if serverStub.cfg.API == nil {
		t.Fatal("expected API handlers to be wired into the server config")
	}
	if serverStub.cfg.RateLimitPerMinute != 60 {
		t.Fatalf("expected rate limit 60, got %d", serverStub.cfg.RateLimitPerMinute)
	}
}

func TestRunReturnsErrorWhenServerStartFails(t *testing.T) {
	restoreGlobals(t)

	cfg := testConfig(t, config.RetrainSync)
	loadConfigFunc = func() (config.Config, error) { return cfg, nil }
	newMockDatabaseFunc = mock.New

	serverStub := newStubServer(errors.New("listener failure"), nil, false)
	newServerFunc = func(server.Config) (serverLifecycle, error) {
		return serverStub, nil
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		return make(chan os.Signal), func() {}
	}

	code := run(context.Background())
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if serverStub.stopCalled {
		t.Fatal("server stop should not be called on start error")
	}
}

func TestRunHandlesDatabaseConfigurationError(t *testing.T) {
	restoreGlobals(t)

	cfg := testConfig(t, config.RetrainSync)
	cfg.Database = config.DatabaseConfig{URL: "postgres://example", UseMock: false}
	loadConfigFunc = func() (config.Config, error) { return cfg, nil }
	newMockDatabaseFunc = func(context.Context) (*gorm.DB, error) {
		t.Fatal("mock database should not be used when URL is configured")
		return nil, nil
	}
	configureDatabase = func(config.DatabaseConfig) (*gorm.DB, error) {
		return nil, errors.New("db connection refused")
	}

	code := run(context.Background())
	if code != 1 {
		t.Fatalf("expected exit code 1 on database configuration failure, got %d", code)
	}
}

func TestRunReturnsErrorWhenLogLevelInvalid(t *testing.T) {
	restoreGlobals(t)

	cfg := config.Config{Logging: config.LoggingConfig{Level: "invalid"}}
	loadConfigFunc = func() (config.Config, error) { return cfg, nil }
	setLogLevelFunc = func(string) error { return errors.New("invalid level") }

	code := run(context.Background())
	if code != 1 {
		t.Fatalf("expected exit code 1 for invalid log level, got %d", code)
	}
}

func TestRunReturnsErrorWhenConfigFails(t *testing.T) {
	restoreGlobals(t)

	loadConfigFunc = func() (config.Config, error) { return config.Config{}, errors.New("bad env") }

	if code := run(context.Background()); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestBootstrapTrainsMissingModels(t *testing.T) {
	ctx := context.Background()
	database, err := mock.New(ctx)
	if err != nil {
		t.Fatalf("mock.New: %v", err)
	}

	a, err := buildApp(ctx, testConfig(t, config.RetrainSync), database)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })

	a.bootstrapModels(ctx)

	if st := a.Collab.Status(ctx); !st.Available {
		t.Fatalf("expected collaborative model to be trained, got %+v", st)
	}
	if st := a.Index.Status(ctx); !st.Trained || st.RecipesCount == 0 {
		t.Fatalf("expected ingredient matcher to be trained, got %+v", st)
	}
}

func TestAsyncNotifierRetrainsInBackground(t *testing.T) {
	ctx := context.Background()
	database, err := mock.New(ctx)
	if err != nil {
		t.Fatalf("mock.New: %v", err)
	}

	a, err := buildApp(ctx, testConfig(t, config.RetrainAsync), database)
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	a.bootstrapModels(ctx)
	before := a.Collab.Status(ctx).Version

	if err := a.Notifier.RatingsChanged(ctx, 1); err != nil {
		t.Fatalf("RatingsChanged: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for a.Collab.Status(ctx).Version <= before {
		if time.Now().After(deadline) {
			t.Fatalf("collaborative model was not retrained after a rating change")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
