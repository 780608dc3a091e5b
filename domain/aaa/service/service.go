// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package service

import (
	"context"

	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/pubsub/v2"

	"github.com/canonical/aaacfg/core/aaa"
	aaaerrors "github.com/canonical/aaacfg/domain/aaa/errors"
	"github.com/canonical/aaacfg/domain/aaa/translate"
)

var logger = loggo.GetLogger("aaacfg.service")

// ChangeTopic is the hub topic on which configuration change events
// are published.
const ChangeTopic = "aaa.config.changed"

// ChangeEvent describes one applied mutation: the section touched and
// the schema field names it changed. Events are advisory; consumers
// that need the new values read them back through the service.
type ChangeEvent struct {
	Section aaa.Section
	Fields  []string
}

// State describes the flat AAA row store the service drives.
type State interface {
	// GetRow returns the stored fields of one row, empty when the row
	// has never been written.
	GetRow(ctx context.Context, rowKey string) (map[string]string, error)

	// AllRows returns every stored row keyed by row key.
	AllRows(ctx context.Context) (map[string]map[string]string, error)

	// ApplyBatch applies a staged batch of field writes and deletes in
	// a single transaction.
	ApplyBatch(ctx context.Context, batch translate.Batch) error

	// ResetRow removes every field of one row, reporting how many
	// fields were removed.
	ResetRow(ctx context.Context, rowKey string) (int, error)
}

// MetricsRecorder receives store mutation counts as they are applied.
type MetricsRecorder interface {
	MutationsApplied(writes, deletes int)
}

// Service exposes the typed AAA configuration over the flat row
// store, translating on every boundary crossing and broadcasting
// change events for watchers.
type Service struct {
	st          State
	transformer *translate.Transformer
	hub         *pubsub.SimpleHub
	metrics     MetricsRecorder
}

// NewService returns a service over the given row store. A nil hub
// disables change events and a nil recorder disables mutation counts;
// everything else behaves identically.
func NewService(st State, hub *pubsub.SimpleHub, metrics MetricsRecorder) *Service {
	return &Service{
		st:          st,
		transformer: translate.DefaultTransformer(),
		hub:         hub,
		metrics:     metrics,
	}
}

// ParseSection maps a section name arriving from an outer surface
// onto its typed form.
func ParseSection(name string) (aaa.Section, error) {
	section, err := aaa.ParseSection(name)
	if err != nil {
		return "", errors.Annotatef(aaaerrors.InvalidSection, "%q", name)
	}
	return section, nil
}

// Config returns the full typed configuration tree. Sections with no
// stored fields decode to their defaults, so the result is always
// fully populated.
func (s *Service) Config(ctx context.Context) (aaa.Config, error) {
	rows, err := s.st.AllRows(ctx)
	if err != nil {
		return aaa.Config{}, errors.Annotate(err, "reading AAA configuration")
	}
	cfg, err := s.transformer.DecodeConfig(rows)
	if err != nil {
		return aaa.Config{}, errors.Trace(err)
	}
	return cfg, nil
}

// ConfigView returns every section in canonical order, each fully
// resolved and annotated with the names of its explicitly stored
// fields.
func (s *Service) ConfigView(ctx context.Context) ([]SectionView, error) {
	rows, err := s.st.AllRows(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "reading AAA configuration")
	}
	views := make([]SectionView, 0, len(aaa.Sections()))
	for _, section := range aaa.Sections() {
		_, rowKey := s.transformer.RowKey(section)
		view, err := s.sectionView(section, rows[rowKey])
		if err != nil {
			return nil, errors.Annotatef(err, "section %q", section)
		}
		views = append(views, view)
	}
	return views, nil
}

// SectionConfig returns one section, fully resolved and annotated
// with the names of its explicitly stored fields.
func (s *Service) SectionConfig(ctx context.Context, section aaa.Section) (SectionView, error) {
	if err := validSection(section); err != nil {
		return SectionView{}, errors.Trace(err)
	}
	_, rowKey := s.transformer.RowKey(section)
	row, err := s.st.GetRow(ctx, rowKey)
	if err != nil {
		return SectionView{}, errors.Annotatef(err, "reading AAA section %q", section)
	}
	view, err := s.sectionView(section, row)
	if err != nil {
		return SectionView{}, errors.Annotatef(err, "section %q", section)
	}
	return view, nil
}

// UpdateSection validates a sparse update, stages it as a flat batch
// and applies it in one transaction. Untouched leaves are left alone.
// Nothing is applied if any part of the update fails validation.
func (s *Service) UpdateSection(ctx context.Context, update aaa.SectionUpdate) error {
	if err := validSection(update.Section); err != nil {
		return errors.Trace(err)
	}
	batch, err := s.transformer.EncodeUpdate(update)
	if err != nil {
		return errors.Trace(err)
	}
	if err := s.st.ApplyBatch(ctx, batch); err != nil {
		return errors.Annotatef(err, "updating AAA section %q", update.Section)
	}
	if s.metrics != nil {
		s.metrics.MutationsApplied(len(batch.Writes), len(batch.Deletes))
	}
	fields := batch.Fields()
	logger.Debugf("updated section %q, fields %v", update.Section, fields)
	s.publish(update.Section, fields)
	return nil
}

// ResetSection removes every stored field of a section, returning it
// to defaults. Resetting an already default section succeeds without
// an event.
func (s *Service) ResetSection(ctx context.Context, section aaa.Section) error {
	if err := validSection(section); err != nil {
		return errors.Trace(err)
	}
	_, rowKey := s.transformer.RowKey(section)
	removed, err := s.st.ResetRow(ctx, rowKey)
	if err != nil {
		return errors.Annotatef(err, "resetting AAA section %q", section)
	}
	if removed == 0 {
		return nil
	}
	if s.metrics != nil {
		s.metrics.MutationsApplied(0, removed)
	}
	logger.Debugf("reset section %q, %d fields removed", section, removed)
	s.publish(section, aaa.FieldsFor(section))
	return nil
}

// WatchChanges registers a callback for configuration change events
// and returns its unsubscribe func. Callbacks run on the hub's
// goroutines and must not block.
func (s *Service) WatchChanges(fn func(ChangeEvent)) func() {
	if s.hub == nil {
		return func() {}
	}
	return s.hub.Subscribe(ChangeTopic, func(topic string, data interface{}) {
		event, ok := data.(ChangeEvent)
		if !ok {
			logger.Criticalf("programming error: topic data expected ChangeEvent, got %T", data)
			return
		}
		fn(event)
	})
}

func (s *Service) sectionView(section aaa.Section, row map[string]string) (SectionView, error) {
	view := SectionView{
		Section:  section,
		Explicit: explicitFields(section, row),
	}
	if section == aaa.SectionAuthentication {
		cfg, err := s.transformer.DecodeAuthentication(row)
		if err != nil {
			return SectionView{}, errors.Trace(err)
		}
		view.Methods = cfg.Methods
		view.Failthrough = cfg.Failthrough
		view.Fallback = cfg.Fallback
		view.Debug = cfg.Debug
		view.Trace = cfg.Trace
		return view, nil
	}
	cfg, err := s.transformer.DecodeMethodList(row)
	if err != nil {
		return SectionView{}, errors.Trace(err)
	}
	view.Methods = cfg.Methods
	return view, nil
}

func (s *Service) publish(section aaa.Section, fields []string) {
	if s.hub == nil {
		return
	}
	_ = s.hub.Publish(ChangeTopic, ChangeEvent{Section: section, Fields: fields})
}

func validSection(section aaa.Section) error {
	if _, err := aaa.ParseSection(string(section)); err != nil {
		return errors.Annotatef(aaaerrors.InvalidSection, "%q", section)
	}
	return nil
}

// explicitFields reports which schema fields of a section are
// explicitly stored, in schema order.
func explicitFields(section aaa.Section, row map[string]string) []string {
	var fields []string
	for _, field := range aaa.FieldsFor(section) {
		if _, ok := row[field]; ok {
			fields = append(fields, field)
		}
	}
	return fields
}
