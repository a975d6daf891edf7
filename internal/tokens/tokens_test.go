package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	codec := &Codec{Secret: []byte("test_secret")}

	tok, err := codec.Encode("alice", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	claims, err := codec.Decode(tok)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestEncodeIsUniquePerCall(t *testing.T) {
	codec := &Codec{Secret: []byte("test_secret")}

	first, err := codec.Encode("alice", time.Hour)
	require.NoError(t, err)
	second, err := codec.Encode("alice", time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestDecodeExpired(t *testing.T) {
	codec := &Codec{Secret: []byte("test_secret")}

	tok, err := codec.Encode("alice", -time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(tok)
	require.ErrorIs(t, err, ErrExpired)
}

func TestDecodeWrongSecret(t *testing.T) {
	codec := &Codec{Secret: []byte("test_secret")}
	other := &Codec{Secret: []byte("other_secret")}

	tok, err := codec.Encode("alice", time.Hour)
	require.NoError(t, err)

	_, err = other.Decode(tok)
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestDecodeMalformed(t *testing.T) {
	codec := &Codec{Secret: []byte("test_secret")}

	_, err := codec.Decode("not.a.jwt")
	require.ErrorIs(t, err, ErrMalformed)

	_, err = codec.Decode("")
	require.ErrorIs(t, err, ErrMalformed)
}
