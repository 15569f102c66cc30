// Package auth obtains and holds the Google access token. Tokens live in
// process memory only.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"github.com/ramanasai/brain/internal/apperr"
)

// ScopeSheets grants read/write access to the user's spreadsheets.
const ScopeSheets = "https://www.googleapis.com/auth/spreadsheets"

const (
	googleAuthURL   = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL  = "https://oauth2.googleapis.com/token"
	googleRevokeURL = "https://oauth2.googleapis.com/revoke"

	// expirySkew is subtracted from the server expiry.
	expirySkew = 60 * time.Second
)

// Token is a bearer token and the time it stops being usable.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether t can still be used at now.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// Config configures a Provider.
type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	AuthURL      string
	TokenURL     string
	RevokeURL    string
	// ListenAddr is the loopback address of the redirect listener.
	ListenAddr string
	// OpenBrowser shows the consent page; defaults to the system browser.
	OpenBrowser func(url string) error
	HTTPClient  *http.Client
	Now         func() time.Time
	Logger      *slog.Logger
}

// Provider runs the consent flow and hands out the current token.
type Provider struct {
	cfg   Config
	oauth oauth2.Config

	mu  sync.Mutex
	tok Token
}

// New builds a Provider. A missing client id is a configuration error; the
// caller is expected to fall back to demo mode.
func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.ClientID) == "" {
		return nil, apperr.Configf("google.client_id is not set")
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{ScopeSheets}
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = googleAuthURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = googleTokenURL
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = googleRevokeURL
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = "127.0.0.1:0"
	}
	if cfg.OpenBrowser == nil {
		cfg.OpenBrowser = browser.OpenURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Provider{
		cfg: cfg,
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}, nil
}

type callback struct {
	code string
	err  error
}

// RequestToken runs the interactive consent flow: it opens the consent page,
// waits for the loopback redirect and exchanges the code (PKCE). Call it only
// in response to an explicit user action.
func (p *Provider) RequestToken(ctx context.Context) (Token, error) {
	ln, err := net.Listen("tcp", p.cfg.ListenAddr)
	if err != nil {
		return Token{}, fmt.Errorf("auth: listen: %w", err)
	}
	conf := p.oauth
	conf.RedirectURL = "http://" + ln.Addr().String() + "/callback"

	state := uuid.NewString()
	verifier := oauth2.GenerateVerifier()
	results := make(chan callback, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callback
		switch {
		case q.Get("state") != state:
			res.err = fmt.Errorf("%w: state mismatch", apperr.ErrAuth)
		case q.Get("error") != "":
			res.err = fmt.Errorf("%w: consent %s", apperr.ErrAuth, q.Get("error"))
		case q.Get("code") == "":
			res.err = fmt.Errorf("%w: no authorization code", apperr.ErrAuth)
		default:
			res.code = q.Get("code")
		}
		if res.err != nil {
			http.Error(w, "Sign-in failed. You can close this tab.", http.StatusBadRequest)
		} else {
			fmt.Fprintln(w, "Signed in to brain. You can close this tab.")
		}
		select {
		case results <- res:
		default:
		}
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	p.cfg.Logger.Debug("auth: opening consent page", "redirect", conf.RedirectURL)
	if err := p.cfg.OpenBrowser(authURL); err != nil {
		return Token{}, fmt.Errorf("auth: open browser (visit %s): %w", authURL, err)
	}

	var res callback
	select {
	case <-ctx.Done():
		return Token{}, ctx.Err()
	case res = <-results:
	}
	if res.err != nil {
		return Token{}, res.err
	}

	xctx := context.WithValue(ctx, oauth2.HTTPClient, p.cfg.HTTPClient)
	ot, err := conf.Exchange(xctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			return Token{}, fmt.Errorf("%w: token exchange: %s", apperr.ErrAuth, re.ErrorCode)
		}
		return Token{}, fmt.Errorf("auth: token exchange: %w", err)
	}

	expiry := ot.Expiry
	if expiry.IsZero() {
		expiry = p.cfg.Now().Add(time.Hour)
	}
	tok := Token{Value: ot.AccessToken, ExpiresAt: expiry.Add(-expirySkew)}
	p.mu.Lock()
	p.tok = tok
	p.mu.Unlock()
	p.cfg.Logger.Info("auth: signed in", "expires_at", tok.ExpiresAt)
	return tok, nil
}

// Current returns the token when it is still valid.
func (p *Provider) Current() (Token, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.tok.Valid(p.cfg.Now()) {
		return Token{}, false
	}
	return p.tok, true
}

// Valid reports whether a usable token is held.
func (p *Provider) Valid() bool {
	_, ok := p.Current()
	return ok
}

// SetToken installs a token obtained elsewhere, e.g. from the environment.
func (p *Provider) SetToken(value string, expiresAt time.Time) {
	p.mu.Lock()
	p.tok = Token{Value: value, ExpiresAt: expiresAt}
	p.mu.Unlock()
}

// Clear forgets the token.
func (p *Provider) Clear() {
	p.mu.Lock()
	p.tok = Token{}
	p.mu.Unlock()
}

// TokenSource adapts the provider for authenticated HTTP clients. It never
// starts the consent flow; an absent or expired token yields ErrAuth.
func (p *Provider) TokenSource() oauth2.TokenSource { return tokenSource{p} }

type tokenSource struct{ p *Provider }

func (s tokenSource) Token() (*oauth2.Token, error) {
	t, ok := s.p.Current()
	if !ok {
		return nil, fmt.Errorf("%w: no valid access token", apperr.ErrAuth)
	}
	return &oauth2.Token{AccessToken: t.Value, TokenType: "Bearer", Expiry: t.ExpiresAt}, nil
}

// Revoke clears the token from memory, then asks the server to revoke it.
// The remote call is best effort.
func (p *Provider) Revoke(ctx context.Context) error {
	p.mu.Lock()
	tok := p.tok
	p.tok = Token{}
	p.mu.Unlock()
	if tok.Value == "" {
		return nil
	}

	form := url.Values{"token": {tok.Value}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		p.cfg.Logger.Warn("auth: revoke failed", "err", err)
		return fmt.Errorf("auth: revoke: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		p.cfg.Logger.Warn("auth: revoke rejected", "status", resp.StatusCode)
		return &apperr.RemoteError{Service: "oauth", Status: resp.StatusCode}
	}
	return nil
}
