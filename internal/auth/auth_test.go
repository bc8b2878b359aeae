package auth

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigner_IssueParse(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	tok, err := s.Issue(7, "alice", true)
	require.NoError(t, err)

	c, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, int32(7), c.UserID)
	assert.Equal(t, "alice", c.Username)
	assert.True(t, c.Admin)
}

func TestSigner_RejectsForeignAndExpired(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	tok, err := s.Issue(1, "bob", false)
	require.NoError(t, err)

	_, err = NewSigner("other", time.Hour).Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	later := NewSigner("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Parse("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSigner_RejectsOtherAlgorithm(t *testing.T) {
	s := NewSigner("secret", time.Hour)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{UserID: 1}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenFile_SaveLoadClear(t *testing.T) {
	f := TokenFile{Path: filepath.Join(t.TempDir(), "nested", "session")}

	_, err := f.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, f.Save("tok-123\n"))
	st, err := os.Stat(f.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	tok, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok)

	require.NoError(t, f.Clear())
	require.NoError(t, f.Clear())
	_, err = f.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}
