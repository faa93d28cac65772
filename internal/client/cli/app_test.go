package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/policyportal/internal/client/apiclient"
	"github.com/dmitrijs2005/policyportal/internal/client/config"
)

func init() {
	color.NoColor = true
}

type fakeAPI struct {
	calls []string

	session  *apiclient.Session
	user     *apiclient.User
	err      error
	logout   error
	health   error
	lastReg  apiclient.RegisterRequest
	lastPass [2]string
	lastProf apiclient.ProfileRequest
	token    string
}

func (f *fakeAPI) record(name, token string) {
	f.calls = append(f.calls, name)
	f.token = token
}

func (f *fakeAPI) Health(context.Context) error { return f.health }

func (f *fakeAPI) Register(_ context.Context, in apiclient.RegisterRequest) (*apiclient.Session, error) {
	f.record("register", "")
	f.lastReg = in
	return f.session, f.err
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*apiclient.Session, error) {
	f.record("login", "")
	f.lastPass = [2]string{email, password}
	return f.session, f.err
}

func (f *fakeAPI) Me(_ context.Context, token string) (*apiclient.User, error) {
	f.record("me", token)
	return f.user, f.err
}

func (f *fakeAPI) Logout(_ context.Context, token string) error {
	f.record("logout", token)
	return f.logout
}

func (f *fakeAPI) UpdatePassword(_ context.Context, token, current, next string) error {
	f.record("password", token)
	f.lastPass = [2]string{current, next}
	return f.err
}

func (f *fakeAPI) UpdateEmail(_ context.Context, token, email string) (string, error) {
	f.record("email", token)
	return email, f.err
}

func (f *fakeAPI) UpdateProfile(_ context.Context, token string, in apiclient.ProfileRequest) (*apiclient.User, error) {
	f.record("profile", token)
	f.lastProf = in
	return f.user, f.err
}

type memStore struct {
	token   string
	saveErr error
}

func (m *memStore) Load() (string, error) { return m.token, nil }

func (m *memStore) Save(token string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.token = token
	return nil
}

func (m *memStore) Clear() error {
	m.token = ""
	return nil
}

var testUser = apiclient.User{
	ID: "u1", Email: "a@x.com", FullName: "A A", DateOfBirth: "1990-01-01",
	PolicyNumber: "POL-0123456789", PolicyStatus: "Active",
}

func newTestApp(api *fakeAPI, store *memStore, input string) (*App, *bytes.Buffer) {
	var out bytes.Buffer
	cfg := &config.Config{ServerURL: "http://portal.test"}
	return newApp(cfg, api, store, strings.NewReader(input), &out), &out
}

func TestRun_SingleCommandUsesSavedToken(t *testing.T) {
	u := testUser
	api := &fakeAPI{user: &u}
	app, out := newTestApp(api, &memStore{token: "saved"}, "")

	require.NoError(t, app.Run(context.Background(), []string{"me"}))

	assert.Equal(t, []string{"me"}, api.calls)
	assert.Equal(t, "saved", api.token)
	assert.Contains(t, out.String(), "POL-0123456789")
	assert.Contains(t, out.String(), "Policy status: Active")
}

func TestRun_UnknownCommand(t *testing.T) {
	app, _ := newTestApp(&fakeAPI{}, &memStore{}, "")
	require.ErrorContains(t, app.Run(context.Background(), []string{"claims"}), "unknown command")
}

func TestRun_REPLWarnsWhenServerDown(t *testing.T) {
	capturePrintln(t)
	api := &fakeAPI{health: apiclient.ErrUnavailable}
	app, out := newTestApp(api, &memStore{}, "exit\n")

	require.NoError(t, app.Run(context.Background(), nil))
	assert.Contains(t, out.String(), "is not reachable")
}

func TestRegister_SavesSession(t *testing.T) {
	stubPasswords(t, "secret1")
	u := testUser
	api := &fakeAPI{session: &apiclient.Session{User: u, Token: "tok"}}
	store := &memStore{}
	app, out := newTestApp(api, store, "a@x.com\nA A\n1990-01-01\n")

	require.NoError(t, app.Exec(context.Background(), "register"))

	assert.Equal(t, apiclient.RegisterRequest{Email: "a@x.com", Password: "secret1", FullName: "A A", DateOfBirth: "1990-01-01"}, api.lastReg)
	assert.Equal(t, "tok", store.token)
	assert.Equal(t, "a@x.com", app.status())
	assert.Contains(t, out.String(), "Registered a@x.com, policy POL-0123456789")
}

func TestRegister_ValidationErrorsPrinted(t *testing.T) {
	stubPasswords(t, "1")
	api := &fakeAPI{err: &apiclient.APIError{
		Status:  http.StatusBadRequest,
		Message: "Validation failed",
		Fields:  []apiclient.FieldError{{Field: "password", Message: "Password must be at least 6 characters"}},
	}}
	store := &memStore{}
	app, out := newTestApp(api, store, "a@x.com\nA A\n1990-01-01\n")

	require.Error(t, app.Exec(context.Background(), "register"))
	assert.Empty(t, store.token)
	assert.Contains(t, out.String(), "Error: Validation failed")
	assert.Contains(t, out.String(), "password: Password must be at least 6 characters")
}

func TestLogin(t *testing.T) {
	stubPasswords(t, "secret1")
	api := &fakeAPI{session: &apiclient.Session{User: testUser, Token: "tok"}}
	store := &memStore{}
	app, out := newTestApp(api, store, "a@x.com\n")

	require.NoError(t, app.Exec(context.Background(), "login"))
	assert.Equal(t, [2]string{"a@x.com", "secret1"}, api.lastPass)
	assert.Equal(t, "tok", store.token)
	assert.True(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Logged in as a@x.com")
}

func TestLogin_SaveFailureNotLoggedIn(t *testing.T) {
	stubPasswords(t, "secret1")
	api := &fakeAPI{session: &apiclient.Session{User: testUser, Token: "tok"}}
	app, _ := newTestApp(api, &memStore{saveErr: errors.New("disk full")}, "a@x.com\n")

	require.Error(t, app.Exec(context.Background(), "login"))
	assert.False(t, app.isLoggedIn())
}

func TestLogin_Unavailable(t *testing.T) {
	stubPasswords(t, "secret1")
	api := &fakeAPI{err: fmt.Errorf("%w: dial tcp", apiclient.ErrUnavailable)}
	app, out := newTestApp(api, &memStore{}, "a@x.com\n")

	require.ErrorIs(t, app.Exec(context.Background(), "login"), apiclient.ErrUnavailable)
	assert.Contains(t, out.String(), "server is not reachable")
}

func TestCommandsRequireSession(t *testing.T) {
	for _, cmd := range []string{"me", "password", "email", "profile", "logout"} {
		t.Run(cmd, func(t *testing.T) {
			api := &fakeAPI{}
			app, out := newTestApp(api, &memStore{}, "")

			require.ErrorIs(t, app.Exec(context.Background(), cmd), ErrNotLoggedIn)
			assert.Empty(t, api.calls)
			assert.Contains(t, out.String(), "not logged in")
		})
	}
}

func TestMe_RejectedTokenEndsSession(t *testing.T) {
	api := &fakeAPI{err: &apiclient.APIError{Status: http.StatusUnauthorized, Message: "Invalid or expired token"}}
	store := &memStore{token: "old"}
	app, out := newTestApp(api, store, "")

	require.Error(t, app.Run(context.Background(), []string{"me"}))
	assert.Empty(t, store.token)
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, out.String(), "Invalid or expired token")
}

func TestPassword(t *testing.T) {
	stubPasswords(t, "secret1", "secret2")
	api := &fakeAPI{}
	app, out := newTestApp(api, &memStore{token: "tok"}, "")

	require.NoError(t, app.Run(context.Background(), []string{"password"}))
	assert.Equal(t, [2]string{"secret1", "secret2"}, api.lastPass)
	assert.Contains(t, out.String(), "Password updated successfully")
}

func TestEmail(t *testing.T) {
	api := &fakeAPI{}
	app, out := newTestApp(api, &memStore{token: "tok"}, "b@x.com\n")

	require.NoError(t, app.Run(context.Background(), []string{"email"}))
	assert.Equal(t, "b@x.com", app.status())
	assert.Contains(t, out.String(), "Email updated to b@x.com")
}

func TestProfile(t *testing.T) {
	u := testUser
	u.FullName = "B B"
	api := &fakeAPI{user: &u}
	app, out := newTestApp(api, &memStore{token: "tok"}, "B B\n\n")

	require.NoError(t, app.Run(context.Background(), []string{"profile"}))
	require.NotNil(t, api.lastProf.FullName)
	assert.Equal(t, "B B", *api.lastProf.FullName)
	assert.Nil(t, api.lastProf.DateOfBirth)
	assert.Contains(t, out.String(), "Profile updated successfully")
}

func TestProfile_NothingToUpdate(t *testing.T) {
	api := &fakeAPI{}
	app, out := newTestApp(api, &memStore{token: "tok"}, "\n\n")

	require.NoError(t, app.Run(context.Background(), []string{"profile"}))
	assert.Empty(t, api.calls)
	assert.Contains(t, out.String(), "Nothing to update")
}

func TestLogout(t *testing.T) {
	tests := []struct {
		name    string
		logout  error
		wantErr bool
	}{
		{name: "ok"},
		{name: "token already invalid", logout: &apiclient.APIError{Status: http.StatusUnauthorized}},
		{name: "server down", logout: apiclient.ErrUnavailable, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{logout: tt.logout}
			store := &memStore{token: "tok"}
			app, _ := newTestApp(api, store, "")

			err := app.Run(context.Background(), []string{"logout"})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, "tok", api.token)
			assert.Empty(t, store.token, "local token is always cleared")
		})
	}
}
