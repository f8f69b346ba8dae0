package blobseal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXChaCha_RoundTrip(t *testing.T) {
	sealer, err := NewXChaCha(make([]byte, 32))
	require.NoError(t, err)

	plain := []byte(`{"amount":10.5,"category":"food"}`)
	sealed, err := sealer.Seal(plain)
	require.NoError(t, err)
	assert.NotEqual(t, plain, sealed)

	opened, err := sealer.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, plain, opened)
}

func TestXChaCha_SealsAreNonDeterministic(t *testing.T) {
	sealer, err := NewXChaCha(make([]byte, 32))
	require.NoError(t, err)

	plain := []byte("same payload")
	a, err := sealer.Seal(plain)
	require.NoError(t, err)
	b, err := sealer.Seal(plain)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "fresh nonce per seal")
}

func TestXChaCha_TamperedCiphertextFails(t *testing.T) {
	sealer, err := NewXChaCha(make([]byte, 32))
	require.NoError(t, err)

	sealed, err := sealer.Seal([]byte("payload"))
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = sealer.Open(sealed)
	assert.Error(t, err)
}

func TestXChaCha_WrongKeyFails(t *testing.T) {
	a, err := NewXChaCha(make([]byte, 32))
	require.NoError(t, err)

	otherKey := make([]byte, 32)
	otherKey[0] = 1
	b, err := NewXChaCha(otherKey)
	require.NoError(t, err)

	sealed, err := a.Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = b.Open(sealed)
	assert.Error(t, err)
}

func TestNewXChaCha_RejectsBadKeySize(t *testing.T) {
	_, err := NewXChaCha(make([]byte, 16))
	assert.Error(t, err)
}

func TestXChaCha_OpenRejectsShortInput(t *testing.T) {
	sealer, err := NewXChaCha(make([]byte, 32))
	require.NoError(t, err)

	_, err = sealer.Open([]byte("too short"))
	assert.Error(t, err)
}

func TestPassthrough(t *testing.T) {
	var p Passthrough

	sealed, err := p.Seal([]byte("плейн"))
	require.NoError(t, err)
	opened, err := p.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, []byte("плейн"), opened)
}
