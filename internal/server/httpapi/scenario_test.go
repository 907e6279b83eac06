package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrijs2005/gophauth/internal/server/throttle"
)

// newSQLiteStack wires the real service on an in-memory database.
func newSQLiteStack(t *testing.T, ttl time.Duration) (*Server, *auth.TokenIssuer) {
	t.Helper()
	ctx := context.Background()

	db, target, err := dbx.Open(ctx, "sqlite::memory:", dbx.DefaultOpenOptions)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.New(target.Dialect)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	hasher, err := auth.NewPasswordHasher(auth.AlgorithmArgon2id,
		auth.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}, bcrypt.MinCost)
	require.NoError(t, err)

	issuer := auth.NewTokenIssuer([]byte("scenario-secret"), ttl)
	us, err := services.NewUserService(rm.Users(db), hasher, issuer, logging.Nop{})
	require.NoError(t, err)

	s := NewHTTPServer(Options{
		Address: "127.0.0.1:0",
		Users:   us,
		Limiter: throttle.NewMemoryLimiter(throttle.Policy{MaxAttempts: 5, Window: time.Minute, LockFor: time.Minute}),
		Metrics: metrics.New(),
		Health:  db,
		Logger:  logging.Nop{},
	})
	return s, issuer
}

func TestScenario_RegisterLoginProfile(t *testing.T) {
	s, _ := newSQLiteStack(t, time.Hour)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/register", `{"username":"alice","password":"pw123"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reg registerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))
	assert.Equal(t, "alice", reg.Username)
	assert.NotEmpty(t, reg.ID)

	rec = do(t, h, http.MethodPost, "/api/login", `{"username":"alice","password":"pw123"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.Equal(t, reg.ID, login.ID)
	require.NotEmpty(t, login.Token)

	rec = do(t, h, http.MethodGet, "/api/profile", "", map[string]string{"Authorization": "Bearer " + login.Token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"username":"alice"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/login", `{"username":"alice","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, KindAuthentication, decodeError(t, rec).Kind)
}

func TestScenario_DuplicateRegistration(t *testing.T) {
	s, _ := newSQLiteStack(t, time.Hour)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/register", `{"username":"bob","password":"one"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/register", `{"username":"bob","password":"two"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, KindConflict, decodeError(t, rec).Kind)
}

func TestScenario_UnknownUserAndWrongPasswordMatch(t *testing.T) {
	s, _ := newSQLiteStack(t, time.Hour)
	h := s.Handler()

	do(t, h, http.MethodPost, "/api/register", `{"username":"carol","password":"pw"}`, nil)

	wrong := do(t, h, http.MethodPost, "/api/login", `{"username":"carol","password":"nope"}`, nil)
	unknown := do(t, h, http.MethodPost, "/api/login", `{"username":"dave","password":"pw"}`, nil)

	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}

func TestScenario_TokenProblems(t *testing.T) {
	s, issuer := newSQLiteStack(t, time.Hour)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/register", `{"username":"erin","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var reg registerResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reg))

	expired, err := issuer.IssueWithTTL(reg.ID, -time.Second)
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/api/profile", "", map[string]string{"Authorization": "Bearer " + expired})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, KindExpiredToken, decodeError(t, rec).Kind)

	valid, err := issuer.Issue(reg.ID)
	require.NoError(t, err)
	tampered := []byte(valid)
	dot := strings.Index(valid, ".")
	tampered[dot+1] ^= 0x01
	rec = do(t, h, http.MethodGet, "/api/profile", "", map[string]string{"Authorization": "Bearer " + string(tampered)})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, KindInvalidToken, decodeError(t, rec).Kind)

	ghost, err := issuer.Issue("00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/api/profile", "", map[string]string{"Authorization": "Bearer " + ghost})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	notUUID, err := issuer.Issue("ghost")
	require.NoError(t, err)
	rec = do(t, h, http.MethodGet, "/api/profile", "", map[string]string{"Authorization": "Bearer " + notUUID})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, KindInvalidToken, decodeError(t, rec).Kind)
}

func TestScenario_Health(t *testing.T) {
	s, _ := newSQLiteStack(t, time.Hour)
	rec := do(t, s.Handler(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
