package token_test

import (
	"math"
	"testing"

	"github.com/pg-sharding/widecol/pkg/models/token"
	"github.com/stretchr/testify/assert"
)

func TestTokenCompare(t *testing.T) {
	assert := assert.New(t)

	tests := []struct {
		name     string
		a, b     token.Token
		expected int
	}{
		{"min before key", token.MinimumToken(), token.KeyToken(math.MinInt64), -1},
		{"max after key", token.MaximumToken(), token.KeyToken(math.MaxInt64), 1},
		{"keys by value", token.KeyToken(-3), token.KeyToken(2), -1},
		{"equal keys", token.KeyToken(7), token.KeyToken(7), 0},
		{"min equals min", token.MinimumToken(), token.MinimumToken(), 0},
	}

	for _, tt := range tests {
		assert.Equal(tt.expected, tt.a.Compare(tt.b), tt.name)
		assert.Equal(-tt.expected, tt.b.Compare(tt.a), tt.name)
	}
}

func TestPartitionerByName(t *testing.T) {
	assert := assert.New(t)

	p, err := token.PartitionerByName("")
	assert.NoError(err)
	assert.Equal("murmur3", p.Name())

	p, err = token.PartitionerByName("city")
	assert.NoError(err)
	assert.Equal("city", p.Name())

	_, err = token.PartitionerByName("random")
	assert.Error(err)
}

func TestGetTokenIsStable(t *testing.T) {
	assert := assert.New(t)

	for _, p := range []token.Partitioner{token.Murmur3Partitioner{}, token.CityPartitioner{}} {
		a := p.GetToken([]byte{0, 0, 0, 1})
		b := p.GetToken([]byte{0, 0, 0, 1})
		c := p.GetToken([]byte{0, 0, 0, 2})

		assert.Equal(token.KindKey, a.Kind, p.Name())
		assert.Equal(a, b, p.Name())
		assert.NotEqual(a, c, p.Name())
	}
}

func TestTokenBytes(t *testing.T) {
	assert := assert.New(t)

	p := token.Murmur3Partitioner{}

	tok, err := p.TokenFromBytes(p.TokenToBytes(token.KeyToken(-42)))
	assert.NoError(err)
	assert.Equal(token.KeyToken(-42), tok)

	_, err = p.TokenFromBytes([]byte{1, 2, 3})
	assert.Error(err)

	assert.Equal([]byte{0x80, 0, 0, 0, 0, 0, 0, 0}, p.TokenToBytes(token.MinimumToken()))
}
