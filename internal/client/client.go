// Package client talks to the BaasBox user API. Every operation takes the
// caller's current model.Session and returns the next one together with a
// success flag; on failure the returned session carries LastError.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"baasbox-client/internal/model"
)

const (
	HeaderSession = "X-BB-SESSION"
	HeaderAppCode = "X-BAASBOX-APPCODE"

	DefaultBaseURL = "http://localhost:9000"
	DefaultAppCode = "1234567890"
	DefaultTimeout = 30 * time.Second

	userAgent = "baasbox-client-go"
)

type Options struct {
	BaseURL string
	AppCode string

	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
	Timeout    time.Duration

	Logger         *log.Logger
	TracerProvider trace.TracerProvider
}

type Client struct {
	baseURL string
	appCode string
	http    *http.Client
	logger  *log.Logger
	tracer  trace.Tracer
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", base, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: want http(s)://host[:port]", base)
	}

	appCode := opts.AppCode
	if appCode == "" {
		appCode = DefaultAppCode
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Client{
		baseURL: base,
		appCode: appCode,
		http:    hc,
		logger:  logger,
		tracer:  tp.Tracer(instrumentationName),
	}, nil
}

func (c *Client) BaseURL() string { return c.baseURL }
func (c *Client) AppCode() string { return c.appCode }

type signUpBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SignUp creates a user and logs it in. An empty username is rejected
// locally without contacting the server. The incoming session is not
// consulted; the result replaces it either way.
func (c *Client) SignUp(ctx context.Context, _ model.Session, username, password string) (model.Session, bool) {
	if username == "" {
		c.logger.Printf("baasbox: op=SignUp rejected: empty username")
		return model.Failed(model.EmptyUsername()), false
	}
	body, err := json.Marshal(signUpBody{Username: username, Password: password})
	if err != nil {
		return model.Failed(model.FromError(err, "SignUp encode body")), false
	}
	return c.loginCall(ctx, call{
		op:          "SignUp",
		method:      http.MethodPost,
		path:        "/user",
		body:        body,
		contentType: "application/json",
		appCode:     true,
	})
}

// Login authenticates with a form-encoded body; the app code travels in the
// body rather than as a header. Like SignUp it ignores the incoming session.
func (c *Client) Login(ctx context.Context, _ model.Session, username, password string) (model.Session, bool) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("appcode", c.appCode)
	return c.loginCall(ctx, call{
		op:          "Login",
		method:      http.MethodPost,
		path:        "/login",
		body:        []byte(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
}

func (c *Client) Logout(ctx context.Context, s model.Session) (model.Session, bool) {
	return c.sessionCall(ctx, s, call{
		op:     "Logout",
		method: http.MethodPost,
		path:   "/logout",
	}, func(model.Session) model.Session {
		return model.Anonymous()
	})
}

// SuspendMe suspends the logged on user. The server invalidates the session
// with it, so the returned session is anonymous.
func (c *Client) SuspendMe(ctx context.Context, s model.Session) (model.Session, bool) {
	return c.sessionCall(ctx, s, call{
		op:     "SuspendMe",
		method: http.MethodPut,
		path:   "/me/suspend",
	}, func(model.Session) model.Session {
		return model.Anonymous()
	})
}

// ActivateUser is an administrator operation. The caller's session is left
// as is unless it targets the caller's own account.
func (c *Client) ActivateUser(ctx context.Context, s model.Session, username string) (model.Session, bool) {
	return c.sessionCall(ctx, s, call{
		op:     "ActivateUser",
		method: http.MethodPut,
		path:   "/admin/user/activate/" + url.PathEscape(username),
	}, func(cur model.Session) model.Session {
		if username != "" && username == cur.Username() {
			return cur.WithUserStatus(model.UserStatusActive)
		}
		return cur
	})
}

// SuspendUser is an administrator operation. Suspending oneself ends the
// caller's session; any other target leaves it untouched.
func (c *Client) SuspendUser(ctx context.Context, s model.Session, username string) (model.Session, bool) {
	return c.sessionCall(ctx, s, call{
		op:     "SuspendUser",
		method: http.MethodPut,
		path:   "/admin/user/suspend/" + url.PathEscape(username),
	}, func(cur model.Session) model.Session {
		if username != "" && username == cur.Username() {
			return model.Anonymous()
		}
		return cur
	})
}

var errNoToken = errors.New("login response carries no session token")

func (c *Client) loginCall(ctx context.Context, cl call) (model.Session, bool) {
	ctx, span := c.startSpan(ctx, cl)
	defer span.End()

	rep, err := c.do(ctx, cl)
	if err != nil {
		return c.fail(span, cl, 0, model.FromError(err, c.diagnostic(cl))), false
	}
	if !rep.ok() {
		return c.fail(span, cl, rep.status, c.remoteError(cl, rep)), false
	}

	var res model.LoginResult
	if err := json.Unmarshal(rep.body, &res); err != nil {
		err = fmt.Errorf("decode login result: %w", err)
		return c.fail(span, cl, rep.status, model.FromError(err, c.diagnostic(cl))), false
	}
	if res.Token() == "" {
		return c.fail(span, cl, rep.status, model.FromError(errNoToken, c.diagnostic(cl))), false
	}

	c.succeed(span, cl, rep.status)
	return model.LoggedOn(&res), true
}

// sessionCall runs an authenticated request whose success body is ignored.
// next derives the session that follows a success.
func (c *Client) sessionCall(ctx context.Context, s model.Session, cl call, next func(model.Session) model.Session) (model.Session, bool) {
	cl.session = true
	cl.token = s.Token
	cl.appCode = true

	ctx, span := c.startSpan(ctx, cl)
	defer span.End()

	rep, err := c.do(ctx, cl)
	if err != nil {
		return c.fail(span, cl, 0, model.FromError(err, c.diagnostic(cl))), false
	}
	if !rep.ok() {
		return c.fail(span, cl, rep.status, c.remoteError(cl, rep)), false
	}

	c.succeed(span, cl, rep.status)
	return next(s).Succeeded(), true
}

func (c *Client) fail(span trace.Span, cl call, status int, e *model.ErrorResult) model.Session {
	c.logger.Printf("baasbox: op=%s status=%d ok=false kind=%s message=%q", cl.op, status, e.Kind, e.Message)
	endSpan(span, status, e)
	return model.Failed(e)
}

func (c *Client) succeed(span trace.Span, cl call, status int) {
	c.logger.Printf("baasbox: op=%s status=%d ok=true", cl.op, status)
	endSpan(span, status, nil)
}
