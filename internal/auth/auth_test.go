package auth

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lamacoid/Vurmz.com-sub003/internal/mailer"
	"github.com/lamacoid/Vurmz.com-sub003/internal/models"
	"github.com/lamacoid/Vurmz.com-sub003/internal/store"
)

var testTime = time.Date(2026, time.February, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store, *mailer.Recorder) {
	t.Helper()

	st, err := store.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate("../../migrations"))

	rec := &mailer.Recorder{}
	svc := NewService(st, rec, "http://localhost:8585", "Vurmz <orders@vurmz.com>")
	svc.Now = func() time.Time { return testTime }
	return svc, st, rec
}

func seedAdmin(t *testing.T, st *store.Store) {
	t.Helper()
	require.NoError(t, st.CreateAdmin(context.Background(), "Jo Vurmz", "jo@vurmz.com", ""))
}

func seedCustomer(t *testing.T, st *store.Store) int {
	t.Helper()
	c := models.Customer{Name: "Sam Bell", Email: "sam@example.com"}
	require.NoError(t, st.CreateCustomer(context.Background(), &c))
	return c.ID
}

var tokenRe = regexp.MustCompile(`token=([A-Za-z0-9_-]+)`)

func sentToken(t *testing.T, rec *mailer.Recorder) string {
	t.Helper()
	msgs := rec.Messages()
	require.NotEmpty(t, msgs)
	m := tokenRe.FindStringSubmatch(msgs[len(msgs)-1].Text)
	require.Len(t, m, 2)
	return m[1]
}

func TestRequestLinkUnknownEmailIsSilent(t *testing.T) {
	svc, _, rec := newTestService(t)

	err := svc.RequestLink(context.Background(), "nobody@example.com", models.PrincipalAdmin)
	require.NoError(t, err)
	assert.Empty(t, rec.Messages())
}

func TestRequestLinkSendsEmail(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)

	err := svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin)
	require.NoError(t, err)

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "jo@vurmz.com", msgs[0].To)
	assert.Contains(t, msgs[0].Text, "/admin/verify?")
	assert.Contains(t, msgs[0].Text, "expires in 15 minutes")
}

func TestRequestLinkSendFailureIsAnError(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	rec.Err = errors.New("smtp down")

	err := svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin)
	assert.Error(t, err)
}

func TestRequestLinkCustomerUsesPortalPath(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedCustomer(t, st)

	err := svc.RequestLink(context.Background(), "sam@example.com", models.PrincipalCustomer)
	require.NoError(t, err)
	assert.Contains(t, rec.Messages()[0].Text, "/portal/verify?")
}

func TestVerifyMintsSession(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	token := sentToken(t, rec)

	sess, cookie, err := svc.Verify(context.Background(), "jo@vurmz.com", token, models.PrincipalAdmin)
	require.NoError(t, err)

	assert.Equal(t, models.PrincipalAdmin, sess.PrincipalType)
	assert.True(t, sess.ExpiresAt.Equal(testTime.Add(AdminSessionTTL)))

	cred, err := DecodeCredential(cookie)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, cred.SessionID)
	assert.Equal(t, sess.PrincipalID, cred.PrincipalID)
}

func TestVerifyTokenIsSingleUse(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	token := sentToken(t, rec)

	_, _, err := svc.Verify(context.Background(), "jo@vurmz.com", token, models.PrincipalAdmin)
	require.NoError(t, err)

	_, _, err = svc.Verify(context.Background(), "jo@vurmz.com", token, models.PrincipalAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyWrongToken(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	_ = sentToken(t, rec)

	_, _, err := svc.Verify(context.Background(), "jo@vurmz.com", "not-the-token", models.PrincipalAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyExpiredToken(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	token := sentToken(t, rec)

	svc.Now = func() time.Time { return testTime.Add(TokenTTL + time.Second) }
	_, _, err := svc.Verify(context.Background(), "jo@vurmz.com", token, models.PrincipalAdmin)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyReissueInvalidatesOlderLink(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	first := sentToken(t, rec)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	second := sentToken(t, rec)
	require.NotEqual(t, first, second)

	_, _, err := svc.Verify(context.Background(), "jo@vurmz.com", first, models.PrincipalAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, _, err = svc.Verify(context.Background(), "jo@vurmz.com", second, models.PrincipalAdmin)
	assert.NoError(t, err)
}

func TestVerifyWrongPrincipalScope(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedCustomer(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "sam@example.com", models.PrincipalCustomer))
	token := sentToken(t, rec)

	// A customer token presented on the admin surface fails; the email
	// doesn't resolve to an admin.
	_, _, err := svc.Verify(context.Background(), "sam@example.com", token, models.PrincipalAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCustomerSessionTTL(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedCustomer(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "sam@example.com", models.PrincipalCustomer))
	token := sentToken(t, rec)

	sess, _, err := svc.Verify(context.Background(), "sam@example.com", token, models.PrincipalCustomer)
	require.NoError(t, err)
	assert.True(t, sess.ExpiresAt.Equal(testTime.Add(CustomerSessionTTL)))
}

func TestValidateSession(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	token := sentToken(t, rec)
	sess, cookie, err := svc.Verify(context.Background(), "jo@vurmz.com", token, models.PrincipalAdmin)
	require.NoError(t, err)

	got, err := svc.ValidateSession(context.Background(), cookie)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestValidateSessionExpired(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	token := sentToken(t, rec)
	_, cookie, err := svc.Verify(context.Background(), "jo@vurmz.com", token, models.PrincipalAdmin)
	require.NoError(t, err)

	svc.Now = func() time.Time { return testTime.Add(AdminSessionTTL + time.Second) }
	_, err = svc.ValidateSession(context.Background(), cookie)
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestValidateSessionRejectsTamperedCredential(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	token := sentToken(t, rec)
	_, cookie, err := svc.Verify(context.Background(), "jo@vurmz.com", token, models.PrincipalAdmin)
	require.NoError(t, err)

	cred, err := DecodeCredential(cookie)
	require.NoError(t, err)

	// Same session id claimed for a different principal.
	forged := EncodeCredential(Credential{PrincipalID: cred.PrincipalID + 1, PrincipalType: cred.PrincipalType, SessionID: cred.SessionID})
	_, err = svc.ValidateSession(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Principal type swapped.
	forged = EncodeCredential(Credential{PrincipalID: cred.PrincipalID, PrincipalType: models.PrincipalCustomer, SessionID: cred.SessionID})
	_, err = svc.ValidateSession(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = svc.ValidateSession(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestMintSession(t *testing.T) {
	svc, st, _ := newTestService(t)
	seedAdmin(t, st)

	sess, cookie, err := svc.MintSession(context.Background(), models.PrincipalAdmin, 1)
	require.NoError(t, err)
	assert.True(t, sess.ExpiresAt.Equal(testTime.Add(AdminSessionTTL)))

	got, err := svc.ValidateSession(context.Background(), cookie)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
}

func TestLogout(t *testing.T) {
	svc, st, rec := newTestService(t)
	seedAdmin(t, st)
	require.NoError(t, svc.RequestLink(context.Background(), "jo@vurmz.com", models.PrincipalAdmin))
	token := sentToken(t, rec)
	_, cookie, err := svc.Verify(context.Background(), "jo@vurmz.com", token, models.PrincipalAdmin)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), cookie))

	_, err = svc.ValidateSession(context.Background(), cookie)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// A malformed cookie on logout is a no-op, not an error.
	assert.NoError(t, svc.Logout(context.Background(), "not-a-credential"))
}
