package http_test

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	apihttp "github.com/fastplanner/planner/internal/api/http"
	"github.com/fastplanner/planner/internal/api/service"
	"github.com/fastplanner/planner/internal/api/store/drivers/sqlite"
	"github.com/fastplanner/planner/pkg/cryptox"
	"github.com/fastplanner/planner/pkg/httpx"
	"github.com/fastplanner/planner/pkg/notify"
	"github.com/fastplanner/planner/pkg/plannersdk"
	"github.com/fastplanner/planner/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "http-pepper")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

var relaxed = httpx.RateLimitConfig{RequestsPerWindow: 10000, Window: time.Minute, Burst: 10000}

type testServer struct {
	*httptest.Server
	client   *plannersdk.SDKClient
	store    *sqlite.Store
	mail     *notify.Log
	sessions *service.SessionService
	authz    *service.AuthzService
}

// newServer runs the full router over a fresh database.
func newServer(t *testing.T, configure ...func(*apihttp.Router)) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.DSN(filepath.Join(t.TempDir(), "planner.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	tokens, err := service.NewTokenService([]byte("http-test-secret-0123456789"), "planner-test")
	require.NoError(t, err)

	mail := notify.NewLog()
	sessions := &service.SessionService{
		Store:    st,
		Tokens:   tokens,
		Notifier: mail,
		ResetURL: "https://planner.test/reset",
	}
	authz := &service.AuthzService{Store: st}

	r := apihttp.NewRouter("test", st, slogx.Discard())
	r.AuthLimit = relaxed
	r.APILimit = relaxed
	r.TokenService = tokens
	r.SessionService = sessions
	r.AuthzService = authz
	r.InvitationService = &service.InvitationService{Store: st}
	r.ProjectService = &service.ProjectService{Store: st}
	r.MemberService = &service.MemberService{Store: st}
	r.HistoryService = &service.HistoryService{Store: st}
	r.NotificationService = &service.NotificationService{Store: st}
	for _, fn := range configure {
		fn(r)
	}
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	t.Cleanup(sessions.Wait)

	return &testServer{
		Server:   srv,
		client:   plannersdk.NewSDKClient(srv.URL),
		store:    st,
		mail:     mail,
		sessions: sessions,
		authz:    authz,
	}
}

func (s *testServer) register(t *testing.T, name, email string) *plannersdk.Session {
	t.Helper()
	sess, err := s.client.Register(t.Context(), plannersdk.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: "correct horse",
	})
	require.NoError(t, err)
	return sess
}

func requireCode(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *plannersdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, apiErr.Error())
	require.Equal(t, code, apiErr.Code)
}
