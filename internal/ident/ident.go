// Package ident validates and canonicalizes entity identifiers arriving
// from the client layer before any store operation runs.
package ident

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"restaurant-service/internal/apperr"
)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsValid reports whether s is a canonical 24-character hex identifier.
func IsValid(s string) bool {
	return hexPattern.MatchString(s)
}

// Normalize resolves an arbitrary client-supplied value into an
// ObjectID. Accepted shapes, in order: a 24-hex string, an ObjectID, a
// document carrying an "_id" or "id" field, or a value whose string
// form matches the hex pattern. Anything else fails with
// INVALID_IDENTIFIER and never reaches the store.
func Normalize(v interface{}) (primitive.ObjectID, error) {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t, nil
	case string:
		if IsValid(t) {
			return primitive.ObjectIDFromHex(t)
		}
	case map[string]interface{}:
		if inner, ok := t["_id"]; ok {
			return Normalize(inner)
		}
		if inner, ok := t["id"]; ok {
			return Normalize(inner)
		}
	case fmt.Stringer:
		if s := t.String(); IsValid(s) {
			return primitive.ObjectIDFromHex(s)
		}
	}
	return primitive.NilObjectID, apperr.InvalidIdentifier(v)
}

// NormalizeOptional resolves v like Normalize but treats nil and the
// empty string as absent rather than invalid.
func NormalizeOptional(v interface{}) (*primitive.ObjectID, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok && s == "" {
		return nil, nil
	}
	id, err := Normalize(v)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
