package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"restaurant-service/internal/apperr"
)

func TestNormalizeHexString(t *testing.T) {
	id := primitive.NewObjectID()

	got, err := Normalize(id.Hex())
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	id := primitive.NewObjectID()

	once, err := Normalize(id.Hex())
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)

	again, err := Normalize(twice.Hex())
	require.NoError(t, err)
	assert.Equal(t, once, again)
}

func TestNormalizeObjectID(t *testing.T) {
	id := primitive.NewObjectID()

	got, err := Normalize(id)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestNormalizeDocument(t *testing.T) {
	id := primitive.NewObjectID()

	got, err := Normalize(map[string]interface{}{"_id": id.Hex(), "name": "T1"})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = Normalize(map[string]interface{}{"id": id.Hex()})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	// Nested documents resolve through their own id field.
	got, err = Normalize(map[string]interface{}{
		"_id": map[string]interface{}{"_id": id},
	})
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestNormalizeRejectsMalformedValues(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
	}{
		{"nil", nil},
		{"short string", "abc"},
		{"non-hex string", "zzzzzzzzzzzzzzzzzzzzzzzz"},
		{"wrong length", "0123456789abcdef"},
		{"number", 42},
		{"document without id", map[string]interface{}{"name": "T1"}},
		{"empty string", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.in)
			require.Error(t, err)
			assert.Equal(t, apperr.CodeInvalidIdentifier, apperr.CodeOf(err))
		})
	}
}

func TestNormalizeAcceptsUppercaseHex(t *testing.T) {
	got, err := Normalize("507F1F77BCF86CD799439011")
	require.NoError(t, err)
	assert.Equal(t, "507f1f77bcf86cd799439011", got.Hex())
}

func TestNormalizeOptional(t *testing.T) {
	id, err := NormalizeOptional(nil)
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = NormalizeOptional("")
	require.NoError(t, err)
	assert.Nil(t, id)

	want := primitive.NewObjectID()
	id, err = NormalizeOptional(want.Hex())
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, want, *id)

	_, err = NormalizeOptional("garbage")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInvalidIdentifier, apperr.CodeOf(err))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(primitive.NewObjectID().Hex()))
	assert.True(t, IsValid("507f1f77bcf86cd799439011"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("507f1f77bcf86cd79943901"))
	assert.False(t, IsValid("507f1f77bcf86cd7994390111"))
	assert.False(t, IsValid("507f1f77bcf86cd79943901g"))
}
