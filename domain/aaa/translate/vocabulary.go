// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package translate

import (
	"strings"

	"github.com/juju/errors"

	"github.com/canonical/aaacfg/core/aaa"
	aaaerrors "github.com/canonical/aaacfg/domain/aaa/errors"
)

// VocabularyEntry pairs a schema method identifier with its store
// token. The set of entries is closed and versioned with the schema:
// adding a method requires adding an entry here and nowhere else.
type VocabularyEntry struct {
	Identifier aaa.Method
	Token      string
}

// Vocabulary is an immutable bijection between schema method
// identifiers and store tokens. Once built it is never mutated, so
// concurrent use needs no locking.
type Vocabulary struct {
	tokens      map[aaa.Method]string
	identifiers map[string]aaa.Method
}

// NewVocabulary builds a Vocabulary from entries, rejecting duplicate
// identifiers and duplicate tokens. The bijection is asserted here, at
// construction, not per call.
func NewVocabulary(entries []VocabularyEntry) (*Vocabulary, error) {
	v := &Vocabulary{
		tokens:      make(map[aaa.Method]string, len(entries)),
		identifiers: make(map[string]aaa.Method, len(entries)),
	}
	for _, e := range entries {
		if _, ok := v.tokens[e.Identifier]; ok {
			return nil, errors.NotValidf("duplicate identifier %q", e.Identifier)
		}
		if _, ok := v.identifiers[e.Token]; ok {
			return nil, errors.NotValidf("duplicate token %q", e.Token)
		}
		v.tokens[e.Identifier] = e.Token
		v.identifiers[e.Token] = e.Identifier
	}
	return v, nil
}

var defaultEntries = []VocabularyEntry{
	{aaa.MethodTACACSAll, "tacacs+"},
	{aaa.MethodLocal, "local"},
	{aaa.MethodRADIUSAll, "radius"},
}

var defaultVocabulary = func() *Vocabulary {
	v, err := NewVocabulary(defaultEntries)
	if err != nil {
		panic(err)
	}
	for _, m := range aaa.Methods() {
		if _, err := v.StoreToken(m); err != nil {
			panic(errors.Errorf("method %q has no vocabulary entry", m))
		}
	}
	return v
}()

// DefaultVocabulary returns the built in method vocabulary.
func DefaultVocabulary() *Vocabulary {
	return defaultVocabulary
}

// StoreToken maps a schema identifier to its store token.
func (v *Vocabulary) StoreToken(m aaa.Method) (string, error) {
	token, ok := v.tokens[m]
	if !ok {
		return "", errors.Annotatef(aaaerrors.UnknownIdentifier, "%q", m)
	}
	return token, nil
}

// SchemaIdentifier maps a store token back to its schema identifier.
func (v *Vocabulary) SchemaIdentifier(token string) (aaa.Method, error) {
	m, ok := v.identifiers[token]
	if !ok {
		return "", errors.Annotatef(aaaerrors.UnknownToken, "%q", token)
	}
	return m, nil
}

// EncodeMethods joins an ordered method list into the store's comma
// separated token string, preserving order: the list is a priority
// ordered chain. The empty list has no string form; the transformer
// stages a field delete for it instead.
func (v *Vocabulary) EncodeMethods(methods []aaa.Method) (string, error) {
	tokens := make([]string, len(methods))
	for i, m := range methods {
		token, err := v.StoreToken(m)
		if err != nil {
			return "", errors.Trace(err)
		}
		tokens[i] = token
	}
	return strings.Join(tokens, ","), nil
}

// DecodeMethods splits a stored token string back into an ordered
// method list. The empty string decodes to zero methods. One unknown
// token fails the whole decode; elements are never silently dropped.
func (v *Vocabulary) DecodeMethods(s string) ([]aaa.Method, error) {
	if s == "" {
		return []aaa.Method{}, nil
	}
	tokens := strings.Split(s, ",")
	methods := make([]aaa.Method, len(tokens))
	for i, token := range tokens {
		m, err := v.SchemaIdentifier(token)
		if err != nil {
			return nil, errors.Trace(err)
		}
		methods[i] = m
	}
	return methods, nil
}
