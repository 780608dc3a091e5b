// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package translate

import (
	"github.com/juju/errors"

	"github.com/canonical/aaacfg/core/aaa"
)

// FieldWrite sets one field of one row to an encoded value.
type FieldWrite struct {
	Table string
	Row   string
	Field string
	Value string
}

// FieldRef identifies one field of one row, for deletion.
type FieldRef struct {
	Table string
	Row   string
	Field string
}

// Batch is the complete set of store mutations produced for one write
// request. The transformer never retries or partially applies: the
// batch is all-or-nothing intent, and atomic application is the
// store's contract.
type Batch struct {
	Writes  []FieldWrite
	Deletes []FieldRef
}

// IsEmpty reports whether the batch stages no mutations.
func (b Batch) IsEmpty() bool {
	return len(b.Writes) == 0 && len(b.Deletes) == 0
}

// Fields returns the names of the fields the batch touches, writes
// first, in staging order.
func (b Batch) Fields() []string {
	fields := make([]string, 0, len(b.Writes)+len(b.Deletes))
	for _, w := range b.Writes {
		fields = append(fields, w.Field)
	}
	for _, d := range b.Deletes {
		fields = append(fields, d.Field)
	}
	return fields
}

// Transformer converts between sparse typed updates and store
// mutation batches, and between store rows and fully defaulted typed
// sections. It is stateless apart from the immutable vocabulary.
type Transformer struct {
	vocab   *Vocabulary
	resolve RowResolver
}

// NewTransformer returns a Transformer over the given vocabulary and
// row resolver.
func NewTransformer(vocab *Vocabulary, resolve RowResolver) *Transformer {
	return &Transformer{vocab: vocab, resolve: resolve}
}

// DefaultTransformer returns a Transformer over the built in
// vocabulary and the static AAA row mapping.
func DefaultTransformer() *Transformer {
	return NewTransformer(DefaultVocabulary(), DefaultResolver)
}

// EncodeUpdate turns a sparse section update into one mutation batch.
// Populated leaves become field writes; leaves marked reset become
// field deletes, so that defaulting happens at read time rather than
// by writing literal default values. An explicit write of a default
// value is still a write: no-op elision is not this layer's business.
// An empty method list is equivalent to a reset of the login field.
func (t *Transformer) EncodeUpdate(u aaa.SectionUpdate) (Batch, error) {
	if err := u.Validate(); err != nil {
		return Batch{}, errors.Trace(err)
	}
	table, row := t.resolve(u.Section)

	var batch Batch
	if u.Methods != nil {
		if len(*u.Methods) == 0 {
			batch.Deletes = append(batch.Deletes, FieldRef{
				Table: table, Row: row, Field: aaa.FieldLogin,
			})
		} else {
			encoded, err := t.vocab.EncodeMethods(*u.Methods)
			if err != nil {
				return Batch{}, errors.Annotatef(err, "field %q", aaa.FieldLogin)
			}
			batch.Writes = append(batch.Writes, FieldWrite{
				Table: table, Row: row, Field: aaa.FieldLogin, Value: encoded,
			})
		}
	}

	for _, flag := range []struct {
		field  string
		update aaa.FlagUpdate
	}{
		{aaa.FieldFailthrough, u.Failthrough},
		{aaa.FieldFallback, u.Fallback},
		{aaa.FieldDebug, u.Debug},
		{aaa.FieldTrace, u.Trace},
	} {
		switch flag.update.Op {
		case aaa.FlagLeave:
		case aaa.FlagSet:
			batch.Writes = append(batch.Writes, FieldWrite{
				Table: table, Row: row, Field: flag.field,
				Value: EncodeBool(flag.update.Value),
			})
		case aaa.FlagReset:
			batch.Deletes = append(batch.Deletes, FieldRef{
				Table: table, Row: row, Field: flag.field,
			})
		}
	}
	return batch, nil
}

// RowKey returns the flat table coordinates for a section.
func (t *Transformer) RowKey(section aaa.Section) (table, rowKey string) {
	return t.resolve(section)
}

// DecodeAuthentication assembles the authentication section from a
// row's fields. Absent fields resolve to schema defaults, so the
// result is always fully populated. Any malformed or unrecognized
// value fails the whole decode, identifying the offending field.
func (t *Transformer) DecodeAuthentication(fields map[string]string) (aaa.AuthenticationConfig, error) {
	methods, err := t.decodeLogin(fields)
	if err != nil {
		return aaa.AuthenticationConfig{}, errors.Trace(err)
	}
	cfg := aaa.AuthenticationConfig{Methods: methods}
	for _, flag := range []struct {
		field  string
		target *bool
	}{
		{aaa.FieldFailthrough, &cfg.Failthrough},
		{aaa.FieldFallback, &cfg.Fallback},
		{aaa.FieldDebug, &cfg.Debug},
		{aaa.FieldTrace, &cfg.Trace},
	} {
		raw, ok := fields[flag.field]
		if !ok {
			continue
		}
		v, err := DecodeBool(raw)
		if err != nil {
			return aaa.AuthenticationConfig{}, errors.Annotatef(err, "field %q", flag.field)
		}
		*flag.target = v
	}
	return cfg, nil
}

// DecodeMethodList assembles an authorization or accounting section
// from a row's fields, defaulting an absent login field to the empty
// list.
func (t *Transformer) DecodeMethodList(fields map[string]string) (aaa.MethodListConfig, error) {
	methods, err := t.decodeLogin(fields)
	if err != nil {
		return aaa.MethodListConfig{}, errors.Trace(err)
	}
	return aaa.MethodListConfig{Methods: methods}, nil
}

// DecodeConfig assembles the full tree from all rows, keyed by row
// key. Missing rows decode as all-defaults sections.
func (t *Transformer) DecodeConfig(rows map[string]map[string]string) (aaa.Config, error) {
	var cfg aaa.Config
	var err error

	_, authRow := t.resolve(aaa.SectionAuthentication)
	if cfg.Authentication, err = t.DecodeAuthentication(rows[authRow]); err != nil {
		return aaa.Config{}, errors.Annotatef(err, "section %q", aaa.SectionAuthentication)
	}
	_, authzRow := t.resolve(aaa.SectionAuthorization)
	if cfg.Authorization, err = t.DecodeMethodList(rows[authzRow]); err != nil {
		return aaa.Config{}, errors.Annotatef(err, "section %q", aaa.SectionAuthorization)
	}
	_, acctRow := t.resolve(aaa.SectionAccounting)
	if cfg.Accounting, err = t.DecodeMethodList(rows[acctRow]); err != nil {
		return aaa.Config{}, errors.Annotatef(err, "section %q", aaa.SectionAccounting)
	}
	return cfg, nil
}

func (t *Transformer) decodeLogin(fields map[string]string) ([]aaa.Method, error) {
	raw, ok := fields[aaa.FieldLogin]
	if !ok {
		return []aaa.Method{}, nil
	}
	methods, err := t.vocab.DecodeMethods(raw)
	if err != nil {
		return nil, errors.Annotatef(err, "field %q", aaa.FieldLogin)
	}
	return methods, nil
}
