package seal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	s := New("salt")
	plain := []byte(`{"success":true,"roomId":"r1"}`)

	env, err := s.Seal("token-A", plain)
	require.NoError(t, err)
	assert.True(t, env.Encrypted)
	assert.Equal(t, Algorithm, env.Alg)
	assert.NotContains(t, env.Data, "roomId")

	got, err := s.Open("token-A", env)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestOpen_WrongCredential(t *testing.T) {
	s := New("salt")
	env, err := s.Seal("token-A", []byte("secret"))
	require.NoError(t, err)

	_, err = s.Open("token-B", env)
	assert.ErrorIs(t, err, ErrOpen)

	_, err = New("other-salt").Open("token-A", env)
	assert.ErrorIs(t, err, ErrOpen)
}

func TestSeal_FreshNonce(t *testing.T) {
	s := New("salt")
	a, _ := s.Seal("t", []byte("same"))
	b, _ := s.Seal("t", []byte("same"))
	assert.NotEqual(t, a.Nonce, b.Nonce)
	assert.NotEqual(t, a.Data, b.Data)
}

func TestOpen_Tampered(t *testing.T) {
	s := New("salt")
	env, _ := s.Seal("t", []byte("hello"))

	raw, _ := json.Marshal(env)
	var copyEnv Envelope
	require.NoError(t, json.Unmarshal(raw, &copyEnv))
	copyEnv.Data = "AAAA" + copyEnv.Data[4:]
	_, err := s.Open("t", &copyEnv)
	assert.Error(t, err)

	_, err = s.Open("t", &Envelope{Encrypted: true, Alg: "aes"})
	assert.Error(t, err)

	_, err = s.Seal("", []byte("x"))
	assert.Error(t, err)
}
