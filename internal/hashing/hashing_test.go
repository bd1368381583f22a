package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytes(t *testing.T) {
	h := Bytes([]byte("hello"))
	assert.Len(t, h, HexLen)
	assert.Equal(t, h, Bytes([]byte("hello")), "hashing is deterministic")
	assert.NotEqual(t, h, Bytes([]byte("hello!")))
}

func TestString_MatchesBytes(t *testing.T) {
	assert.Equal(t, Bytes([]byte("vmess://abc")), String("vmess://abc"))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(Bytes([]byte("x"))))
	assert.False(t, Valid(""))
	assert.False(t, Valid("abc"))
	assert.False(t, Valid("zz"+Bytes([]byte("x"))[2:HexLen-2]+"zz"), "non-hex characters rejected")
}
