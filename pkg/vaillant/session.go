package vaillant

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// Session holds the OAuth token for one account. Every outbound call goes
// through EnsureFresh first, so a request is never issued with less than
// TOKEN_REFRESH_MARGIN of token lifetime left.
//
// The session has no timers of its own: refreshes are lazy and run on the
// caller's goroutine.
type Session struct {
	oc    oauth2.Config
	token *oauth2.Token
	now   func() time.Time
}

func oauth2ConfigForRealm(brand, country string) (oauth2.Config, error) {
	countries, ok := Brands[brand]
	if !ok {
		return oauth2.Config{}, fmt.Errorf("%w: unknown brand %q", ErrRealmInvalid, brand)
	}
	if country != "" {
		found := false
		for _, c := range countries {
			if c == country {
				found = true
				break
			}
		}
		if !found {
			return oauth2.Config{}, fmt.Errorf("%w: brand %q is not available in %q", ErrLoginEndpointInvalid, brand, country)
		}
	}
	realm := fmt.Sprintf("%s-%s-b2c", brand, country)
	if country == "" {
		realm = fmt.Sprintf("%s-b2c", brand)
	}
	return oauth2.Config{
		ClientID: CLIENT_ID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  fmt.Sprintf(AUTH_URL, realm),
			TokenURL: fmt.Sprintf(TOKEN_URL, realm),
		},
	}, nil
}

// NewSession logs in with the given credentials and returns a live session.
func NewSession(ctx context.Context, creds Credentials) (*Session, error) {
	oc, err := oauth2ConfigForRealm(creds.Brand, creds.Country)
	if err != nil {
		return nil, err
	}
	token, err := oc.PasswordCredentialsToken(ctx, creds.Username, creds.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAuthenticationFailed, err)
	}
	return &Session{oc: oc, token: token, now: time.Now}, nil
}

// ResumeSession builds a session from a previously persisted token.
func ResumeSession(creds Credentials, token *oauth2.Token) (*Session, error) {
	oc, err := oauth2ConfigForRealm(creds.Brand, creds.Country)
	if err != nil {
		return nil, err
	}
	return &Session{oc: oc, token: token, now: time.Now}, nil
}

// EnsureFresh refreshes the token if its remaining lifetime is below the
// safety margin. A refresh failure surfaces as ErrAuthenticationFailed.
func (s *Session) EnsureFresh(ctx context.Context) error {
	if s.token.Expiry.IsZero() || s.token.Expiry.After(s.now().Add(TOKEN_REFRESH_MARGIN)) {
		return nil
	}
	refreshed, err := s.oc.TokenSource(ctx, s.token).Token()
	if err != nil {
		return fmt.Errorf("%w: token refresh rejected: %s", ErrAuthenticationFailed, err)
	}
	s.token = refreshed
	return nil
}

// Token returns the current token, for persistence across restarts.
func (s *Session) Token() *oauth2.Token {
	return s.token
}

func (s *Session) authorization() string {
	return "Bearer " + s.token.AccessToken
}
