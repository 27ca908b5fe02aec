// Package supabase is a thin client for the two project surfaces the app
// uses: GoTrue password auth and PostgREST reads. Every request carries the
// apikey header plus a bearer token (the anon key until a user signs in).
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type Config struct {
	ProjectURL string
	AnonKey    string
	// Optional; defaults to http.DefaultClient so no extra timeout is imposed.
	HTTPClient *http.Client
}

type Client struct {
	base    string
	anonKey string
	http    *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if cfg.AnonKey == "" {
		return nil, fmt.Errorf("anon key is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{
		base:    strings.TrimRight(cfg.ProjectURL, "/"),
		anonKey: cfg.AnonKey,
		http:    hc,
	}, nil
}

// User is the subset of the GoTrue user record the screens use.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is issued by sign-in/sign-up and drives authenticated reads.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

// AuthError carries the GoTrue message verbatim; callers decide how to show it.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// SignUp registers a new account. A duplicate email yields an AuthError with
// the literal message "User already registered".
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.authRequest(ctx, c.base+"/auth/v1/signup", email, password)
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.authRequest(ctx, c.base+"/auth/v1/token?grant_type=password", email, password)
}

func (c *Client) authRequest(ctx context.Context, endpoint, email, password string) (*Session, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, "")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, &AuthError{Status: resp.StatusCode, Message: authMessage(raw)}
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Select performs a PostgREST GET on a table. The query must already be
// encoded; bearer defaults to the anon key when empty.
func (c *Client) Select(ctx context.Context, table, query, bearer string) ([]byte, error) {
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}
	endpoint := c.base + "/rest/v1/" + url.PathEscape(table)
	if query != "" {
		endpoint += "?" + query
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, bearer)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("postgrest %s: status %d", table, resp.StatusCode)
	}
	return raw, nil
}

func (c *Client) setHeaders(req *http.Request, bearer string) {
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// authMessage digs the human-readable message out of the loosely-shaped GoTrue
// error payload ("msg", "message", "error_description", then "error").
func authMessage(raw []byte) string {
	var body struct {
		Msg         string `json:"msg"`
		Message     string `json:"message"`
		Description string `json:"error_description"`
		Err         string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "unexpected error"
	}
	for _, m := range []string{body.Msg, body.Message, body.Description, body.Err} {
		if m != "" {
			return m
		}
	}
	return "unexpected error"
}
