// Package auth implements passwordless magic-link login for the two
// principal types and the longer-lived sessions minted on successful
// verification.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/lamacoid/Vurmz.com-sub003/internal/mailer"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
	"github.com/lamacoid/Vurmz.com-sub003/internal/store"
)

const (
	TokenTTL           = 15 * time.Minute
	AdminSessionTTL    = 24 * time.Hour
	CustomerSessionTTL = 30 * 24 * time.Hour
)

type Service struct {
	Store   *store.Store
	Mailer  mailer.Sender
	BaseURL string
	From    string
	Now     func() time.Time
}

func NewService(st *store.Store, m mailer.Sender, baseURL, from string) *Service {
	return &Service{Store: st, Mailer: m, BaseURL: baseURL, From: from, Now: time.Now}
}

// NewToken returns 32 bytes from the CSPRNG, base64url-encoded.
// UUIDs are deliberately not used as security tokens here.
func NewToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("auth: crypto/rand unavailable: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// RequestLink issues a magic link for the email if a matching
// principal exists. An unknown email returns nil so the response is
// indistinguishable from success; the miss is logged internally.
// A send failure IS returned: with no email delivered the user has no
// login path, so issuance must not be reported successful.
func (s *Service) RequestLink(ctx context.Context, email string, pt models.PrincipalType) error {
	principalID, name, err := s.resolvePrincipal(ctx, email, pt)
	if err != nil {
		return fmt.Errorf("look up principal: %w", err)
	}
	if principalID == 0 {
		slog.Info("Magic link requested for unknown email", "principal_type", pt)
		return nil
	}

	token := NewToken()
	now := s.Now()
	// Overwrites any prior unexpired token; only the newest link works.
	if err := s.Store.UpsertMagicToken(ctx, &models.MagicToken{
		PrincipalType: pt,
		PrincipalID:   principalID,
		Token:         token,
		ExpiresAt:     now.Add(TokenTTL),
	}); err != nil {
		return fmt.Errorf("store magic token: %w", err)
	}

	link := s.verifyURL(email, token, pt)
	msg := mailer.Message{
		From:    s.From,
		To:      email,
		Subject: "Your Vurmz login link",
		Text: "Hi " + name + ",\n\n" +
			"Click the link below to sign in. It works once and expires in 15 minutes.\n\n" +
			link + "\n\n" +
			"If you didn't request this, you can ignore this email.\n",
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send login email: %w", err)
	}
	return nil
}

func (s *Service) verifyURL(email, token string, pt models.PrincipalType) string {
	path := "/portal/verify"
	if pt == models.PrincipalAdmin {
		path = "/admin/verify"
	}
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return s.BaseURL + path + "?" + q.Encode()
}

// Verify checks (token, email) and on success exchanges the single-use
// token for a session. The stored token is cleared before the session
// is minted, so a second verification with the same token fails even
// inside the expiry window.
func (s *Service) Verify(ctx context.Context, email, token string, pt models.PrincipalType) (*models.Session, string, error) {
	principalID, _, err := s.resolvePrincipal(ctx, email, pt)
	if err != nil {
		return nil, "", fmt.Errorf("look up principal: %w", err)
	}
	if principalID == 0 {
		return nil, "", ErrInvalidToken
	}

	stored, err := s.Store.GetMagicToken(ctx, pt, principalID)
	if err != nil {
		return nil, "", fmt.Errorf("load magic token: %w", err)
	}
	if stored == nil {
		return nil, "", ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(stored.Token), []byte(token)) != 1 {
		return nil, "", ErrInvalidToken
	}
	// Expiry is checked independently of the match; an expired but
	// matching token is still rejected.
	if s.Now().After(stored.ExpiresAt) {
		return nil, "", ErrTokenExpired
	}

	if err := s.Store.DeleteMagicToken(ctx, pt, principalID); err != nil {
		return nil, "", fmt.Errorf("clear magic token: %w", err)
	}

	ttl := CustomerSessionTTL
	if pt == models.PrincipalAdmin {
		ttl = AdminSessionTTL
	}
	sess := &models.Session{
		ID:            uuid.New().String(),
		PrincipalType: pt,
		PrincipalID:   principalID,
		ExpiresAt:     s.Now().Add(ttl),
	}
	if err := s.Store.CreateSession(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}

	cookie := EncodeCredential(Credential{PrincipalID: principalID, PrincipalType: pt, SessionID: sess.ID})
	return sess, cookie, nil
}

// MintSession issues a session directly, bypassing the magic-link
// exchange. Used by the bootstrap password login.
func (s *Service) MintSession(ctx context.Context, pt models.PrincipalType, principalID int) (*models.Session, string, error) {
	ttl := CustomerSessionTTL
	if pt == models.PrincipalAdmin {
		ttl = AdminSessionTTL
	}
	sess := &models.Session{
		ID:            uuid.New().String(),
		PrincipalType: pt,
		PrincipalID:   principalID,
		ExpiresAt:     s.Now().Add(ttl),
	}
	if err := s.Store.CreateSession(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("create session: %w", err)
	}
	cookie := EncodeCredential(Credential{PrincipalID: principalID, PrincipalType: pt, SessionID: sess.ID})
	return sess, cookie, nil
}

// ValidateSession resolves a cookie value to a live session. The
// stored session must exist, belong to the credential's principal and
// be unexpired.
func (s *Service) ValidateSession(ctx context.Context, cookieValue string) (*models.Session, error) {
	cred, err := DecodeCredential(cookieValue)
	if err != nil {
		return nil, ErrInvalidSession
	}

	sess, err := s.Store.GetSession(ctx, cred.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil || sess.PrincipalID != cred.PrincipalID || sess.PrincipalType != cred.PrincipalType {
		return nil, ErrInvalidSession
	}
	if s.Now().After(sess.ExpiresAt) {
		return nil, ErrSessionExpired
	}
	return sess, nil
}

// Logout clears the stored session state. A malformed cookie is not an
// error; there is nothing server-side to clear.
func (s *Service) Logout(ctx context.Context, cookieValue string) error {
	cred, err := DecodeCredential(cookieValue)
	if err != nil {
		return nil
	}
	return s.Store.DeleteSession(ctx, cred.SessionID)
}

// resolvePrincipal maps an email to (id, display name) within one
// principal scope; (0, "") means not found.
func (s *Service) resolvePrincipal(ctx context.Context, email string, pt models.PrincipalType) (int, string, error) {
	switch pt {
	case models.PrincipalAdmin:
		a, err := s.Store.GetAdminByEmail(ctx, email)
		if err != nil {
			return 0, "", err
		}
		if a == nil {
			return 0, "", nil
		}
		return a.ID, a.Name, nil
	case models.PrincipalCustomer:
		c, err := s.Store.GetCustomerByEmail(ctx, email)
		if err != nil {
			return 0, "", err
		}
		if c == nil {
			return 0, "", nil
		}
		return c.ID, c.Name, nil
	default:
		return 0, "", ErrBadCredential
	}
}
