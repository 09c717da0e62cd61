package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"baasbox-client/internal/model"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 1 << 20

type call struct {
	op          string
	method      string
	path        string
	body        []byte
	contentType string

	// appCode adds the app code header; session adds the session header
	// carrying token, even when token is empty.
	appCode bool
	session bool
	token   string
}

type reply struct {
	status int
	body   []byte
}

func (r reply) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (c *Client) url(cl call) string {
	return c.baseURL + cl.path
}

func (c *Client) diagnostic(cl call) string {
	return fmt.Sprintf("%s %s %s", cl.op, cl.method, c.url(cl))
}

func (c *Client) do(ctx context.Context, cl call) (reply, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.url(cl), body)
	if err != nil {
		return reply{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	if cl.session {
		req.Header.Set(HeaderSession, cl.token)
	}
	if cl.appCode {
		req.Header.Set(HeaderAppCode, c.appCode)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return reply{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return reply{}, fmt.Errorf("read response: %w", err)
	}
	return reply{status: resp.StatusCode, body: data}, nil
}

// remoteError decodes a non-2xx body. A body that is not a BaasBox error
// (a proxy page, an empty reply) is reported as a transport failure.
func (c *Client) remoteError(cl call, rep reply) *model.ErrorResult {
	var e model.ErrorResult
	if err := json.Unmarshal(rep.body, &e); err != nil || (e.Result == "" && e.Message == "") {
		err = fmt.Errorf("unexpected status %d: %s", rep.status, snippet(rep.body))
		return model.FromError(err, c.diagnostic(cl))
	}
	if e.HTTPCode == 0 {
		e.HTTPCode = rep.status
	}
	e.Kind = model.KindRemote
	return &e
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "empty body"
	}
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
