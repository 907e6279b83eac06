package server

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/throttle"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.DatabaseURI = "sqlite::memory:"
	c.TokenSecret = "test-secret"
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.GinMode = "test"
	return c
}

func TestNewApp_SQLite(t *testing.T) {
	app, err := newApp(context.Background(), testConfig(), logging.Nop{}, dbx.DefaultOpenOptions)
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.userService)
	assert.IsType(t, &throttle.MemoryLimiter{}, app.limiter)

	u, err := app.userService.Register(context.Background(), "alice", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
}

func TestNewApp_ThrottleDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.LoginMaxAttempts = 0

	app, err := newApp(context.Background(), cfg, logging.Nop{}, dbx.DefaultOpenOptions)
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, throttle.Nop{}, app.limiter)
}

func TestNewApp_RedisLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.RedisURL = "redis://127.0.0.1:6379/0"

	app, err := newApp(context.Background(), cfg, logging.Nop{}, dbx.DefaultOpenOptions)
	require.NoError(t, err)
	defer app.Close()

	assert.IsType(t, &throttle.RedisLimiter{}, app.limiter)
}

func TestNewApp_Errors(t *testing.T) {
	opts := dbx.OpenOptions{PingAttempts: 0, PingBackoff: time.Millisecond}

	cfg := testConfig()
	cfg.DatabaseURI = "mysql://nope"
	_, err := newApp(context.Background(), cfg, logging.Nop{}, opts)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.PasswordHasher = "md5"
	_, err = newApp(context.Background(), cfg, logging.Nop{}, opts)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.RedisURL = "http://not-redis"
	_, err = newApp(context.Background(), cfg, logging.Nop{}, opts)
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewJSONLogger(&buf, slog.LevelInfo)

	app, err := newApp(context.Background(), testConfig(), logger, dbx.DefaultOpenOptions)
	require.NoError(t, err)
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Contains(t, buf.String(), "App stopped")
}

func TestApp_RunLeavesNoGoroutines(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	app, err := newApp(context.Background(), testConfig(), logging.Nop{}, dbx.DefaultOpenOptions)
	require.NoError(t, err)

	for range 3 {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			app.Run(ctx)
			close(done)
		}()

		time.Sleep(50 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("app did not stop")
		}
	}

	app.Close()
}
