package client

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baasbox-client/internal/model"
)

func quietLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: baseURL, AppCode: "app", Logger: quietLogger()})
	require.NoError(t, err)
	return c
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(Options{Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultAppCode, c.AppCode())
	assert.Equal(t, DefaultTimeout, c.http.Timeout)

	c, err = New(Options{BaseURL: "http://host:9000/", Logger: quietLogger()})
	require.NoError(t, err)
	assert.Equal(t, "http://host:9000", c.BaseURL())
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"ftp://host", "not a url", "http://"} {
		_, err := New(Options{BaseURL: raw})
		assert.Errorf(t, err, "expected error for %q", raw)
	}
}

func TestSignUp_EmptyUsernameMakesNoRequest(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	prev := model.Session{Token: "old"}
	next, ok := c.SignUp(context.Background(), prev, "", "secret")
	assert.False(t, ok)
	assert.Zero(t, atomic.LoadInt32(&hits))
	require.NotNil(t, next.LastError)
	assert.Equal(t, "Empty Username", next.LastError.Result)
	assert.Equal(t, model.KindValidation, next.LastError.Kind)
	assert.Equal(t, "", next.Token)
	assert.Nil(t, next.LoggedOnUser)
}

func TestSignUp_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/user", r.URL.Path)
		assert.Equal(t, "app", r.Header.Get(HeaderAppCode))
		assert.Empty(t, r.Header.Values(HeaderSession))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"username": "alice", "password": "secret"}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"ok","data":{"X-BB-SESSION":"tok123","user":{"name":"alice","status":"active","roles":[]}}, "httpCode":201}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	prev := model.Session{LastError: &model.ErrorResult{Message: "stale"}}
	next, ok := c.SignUp(context.Background(), prev, "alice", "secret")
	require.True(t, ok)
	assert.Equal(t, "tok123", next.Token)
	assert.Nil(t, next.LastError)
	require.NotNil(t, next.LoggedOnUser)
	assert.Equal(t, "alice", next.Username())
	assert.Equal(t, 201, next.LoggedOnUser.HTTPCode)
}

func TestLogin_FormEncodedWithAppCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get(HeaderAppCode))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "alice", r.PostForm.Get("username"))
		assert.Equal(t, "p&ss=word", r.PostForm.Get("password"))
		assert.Equal(t, "app", r.PostForm.Get("appcode"))

		_, _ = io.WriteString(w, `{"result":"ok","data":{"X-BB-SESSION":"tok","user":{"name":"alice","status":"ACTIVE","roles":[{"name":"registered"}]},"signUpDate":"2014-05-01"},"http_code":200}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	next, ok := c.Login(context.Background(), model.Session{}, "alice", "p&ss=word")
	require.True(t, ok)
	assert.Equal(t, "tok", next.Token)
	assert.Equal(t, []string{"registered"}, next.LoggedOnUser.RoleNames())
	assert.Equal(t, "2014-05-01", next.LoggedOnUser.Data.SignUpDate)
}

func TestLogin_RemoteError(t *testing.T) {
	errBody := `{"result":"error","message":"Invalid credentials","method":"Login","http_code":401}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, errBody)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	prev := model.Session{Token: "old", LoggedOnUser: &model.LoginResult{}}
	next, ok := c.Login(context.Background(), prev, "alice", "wrong")
	assert.False(t, ok)
	assert.Equal(t, "", next.Token)
	assert.Nil(t, next.LoggedOnUser)
	require.NotNil(t, next.LastError)

	var want model.ErrorResult
	require.NoError(t, json.Unmarshal([]byte(errBody), &want))
	want.Kind = model.KindRemote
	assert.Equal(t, &want, next.LastError)
	assert.Equal(t, "Invalid credentials", next.LastError.Message)
}

func TestLogin_MalformedSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>not json</html>`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	next, ok := c.Login(context.Background(), model.Session{}, "alice", "secret")
	assert.False(t, ok)
	require.NotNil(t, next.LastError)
	assert.Equal(t, model.ResultException, next.LastError.Result)
	assert.Equal(t, model.ResultException, next.LastError.Method)
	assert.Equal(t, model.KindTransport, next.LastError.Kind)
	assert.Contains(t, next.LastError.Message, "decode login result")
	assert.Contains(t, next.LastError.Resource, "/login")
}

func TestLogin_SuccessWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result":"ok","data":{"user":{"name":"alice"}}}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	next, ok := c.Login(context.Background(), model.Session{}, "alice", "secret")
	assert.False(t, ok)
	assert.False(t, next.Authenticated())
	require.NotNil(t, next.LastError)
	assert.Equal(t, model.KindTransport, next.LastError.Kind)
}

func TestRemoteError_NonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	next, ok := c.Logout(context.Background(), model.Session{Token: "tok"})
	assert.False(t, ok)
	require.NotNil(t, next.LastError)
	assert.Equal(t, model.ResultException, next.LastError.Result)
	assert.Contains(t, next.LastError.Message, "unexpected status 502")
	assert.Contains(t, next.LastError.Message, "bad gateway")
	assert.Equal(t, "", next.Token)
}

func TestRemoteError_FillsMissingHTTPCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"result":"error","message":"not an administrator"}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	next, ok := c.SuspendUser(context.Background(), model.Session{Token: "tok"}, "bob")
	assert.False(t, ok)
	require.NotNil(t, next.LastError)
	assert.Equal(t, http.StatusForbidden, next.LastError.HTTPCode)
	assert.Equal(t, model.KindRemote, next.LastError.Kind)
}

func TestLogout_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	c := newTestClient(t, url)

	prev := model.Session{Token: "tok", LoggedOnUser: &model.LoginResult{}}
	next, ok := c.Logout(context.Background(), prev)
	assert.False(t, ok)
	require.NotNil(t, next.LastError)
	assert.Equal(t, "Exception", next.LastError.Result)
	assert.Equal(t, model.KindTransport, next.LastError.Kind)
	assert.Equal(t, "", next.Token)
	assert.Nil(t, next.LoggedOnUser)
	assert.Contains(t, next.LastError.Resource, "Logout POST "+url+"/logout")
}

func TestLogout_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	next, ok := c.Logout(ctx, model.Session{Token: "tok"})
	assert.False(t, ok)
	require.NotNil(t, next.LastError)
	assert.Equal(t, model.KindTransport, next.LastError.Kind)
}

func authenticatedServer(t *testing.T, method, path string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, method, r.Method)
		assert.Equal(t, path, r.URL.EscapedPath())
		assert.Equal(t, "tok", r.Header.Get(HeaderSession))
		assert.Equal(t, "app", r.Header.Get(HeaderAppCode))
		_, _ = io.WriteString(w, `{"result":"ok","data":"","http_code":200}`)
	}))
}

func loggedOn(name string) model.Session {
	return model.LoggedOn(&model.LoginResult{
		Result: "ok",
		Data: model.LoginData{
			Session: "tok",
			User:    model.User{Name: name, Status: model.UserStatusActive},
		},
	})
}

func TestLogout_SuccessClearsSession(t *testing.T) {
	srv := authenticatedServer(t, http.MethodPost, "/logout")
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	prev := loggedOn("alice")
	prev.LastError = &model.ErrorResult{Message: "stale"}
	next, ok := c.Logout(context.Background(), prev)
	require.True(t, ok)
	assert.Equal(t, "", next.Token)
	assert.Nil(t, next.LoggedOnUser)
	assert.Nil(t, next.LastError)
}

func TestSuspendMe_SuccessClearsSession(t *testing.T) {
	srv := authenticatedServer(t, http.MethodPut, "/me/suspend")
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	next, ok := c.SuspendMe(context.Background(), loggedOn("alice"))
	require.True(t, ok)
	assert.False(t, next.Authenticated())
	assert.Nil(t, next.LoggedOnUser)
	assert.Nil(t, next.LastError)
}

func TestAdminOps_LeaveCallerSessionAlone(t *testing.T) {
	ctx := context.Background()

	srv := authenticatedServer(t, http.MethodPut, "/admin/user/activate/bob%20smith")
	c := newTestClient(t, srv.URL)
	prev := loggedOn("admin")
	next, ok := c.ActivateUser(ctx, prev, "bob smith")
	srv.Close()
	require.True(t, ok)
	assert.Equal(t, prev.Token, next.Token)
	assert.Equal(t, "admin", next.Username())
	assert.Nil(t, next.LastError)

	srv = authenticatedServer(t, http.MethodPut, "/admin/user/suspend/bob")
	c = newTestClient(t, srv.URL)
	next, ok = c.SuspendUser(ctx, prev, "bob")
	srv.Close()
	require.True(t, ok)
	assert.Equal(t, "tok", next.Token)
	assert.Equal(t, "admin", next.Username())
}

func TestAdminOps_TargetingSelf(t *testing.T) {
	ctx := context.Background()

	srv := authenticatedServer(t, http.MethodPut, "/admin/user/suspend/admin")
	c := newTestClient(t, srv.URL)
	next, ok := c.SuspendUser(ctx, loggedOn("admin"), "admin")
	srv.Close()
	require.True(t, ok)
	assert.False(t, next.Authenticated())
	assert.Nil(t, next.LoggedOnUser)

	srv = authenticatedServer(t, http.MethodPut, "/admin/user/activate/admin")
	c = newTestClient(t, srv.URL)
	prev := loggedOn("admin").WithUserStatus(model.UserStatusSuspended)
	next, ok = c.ActivateUser(ctx, prev, "admin")
	srv.Close()
	require.True(t, ok)
	assert.Equal(t, model.UserStatusActive, next.LoggedOnUser.Data.User.Status)
	assert.Equal(t, "tok", next.Token)
}

func TestAdminOps_FailureEndsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"error","message":"User ghost does not exist","http_code":404}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	next, ok := c.ActivateUser(context.Background(), loggedOn("admin"), "ghost")
	assert.False(t, ok)
	assert.False(t, next.Authenticated())
	assert.Nil(t, next.LoggedOnUser)
	require.NotNil(t, next.LastError)
	assert.Equal(t, "User ghost does not exist", next.LastError.Message)
}

func TestUnauthenticatedCallStillSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vals, present := r.Header[http.CanonicalHeaderKey(HeaderSession)]
		assert.True(t, present)
		assert.Equal(t, []string{""}, vals)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"result":"error","message":"Authentication info not valid or not provided","http_code":401,"bb_code":"40101"}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	next, ok := c.SuspendMe(context.Background(), model.Session{})
	assert.False(t, ok)
	require.NotNil(t, next.LastError)
	assert.Equal(t, "40101", next.LastError.BBCode)
}

func TestRemoteError_NumericBBCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"result":"error","message":"Authentication info not valid or not provided","http_code":401,"bb_code":40101}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	next, ok := c.Logout(context.Background(), loggedOn("alice"))
	assert.False(t, ok)
	require.NotNil(t, next.LastError)
	assert.Equal(t, model.KindRemote, next.LastError.Kind)
	assert.Equal(t, "error", next.LastError.Result)
	assert.Equal(t, "40101", next.LastError.BBCode)
}

func TestLogin_ReplacesPriorSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(HeaderSession))
		_, _ = io.WriteString(w, `{"result":"ok","data":{"X-BB-SESSION":"fresh","user":{"name":"bob","status":"ACTIVE"}},"http_code":200}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	prior := loggedOn("alice")
	prior.LastError = &model.ErrorResult{Result: "error", Message: "old"}

	next, ok := c.Login(context.Background(), prior, "bob", "pw")
	require.True(t, ok)
	assert.Equal(t, "fresh", next.Token)
	assert.Equal(t, "bob", next.Username())
	assert.Nil(t, next.LastError)
	assert.Equal(t, "tok", prior.Token)
}
