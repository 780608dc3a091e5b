// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package apiserver

import (
	"encoding/json"
	"net/http"

	"github.com/juju/errors"

	"github.com/canonical/aaacfg/apiserver/params"
	"github.com/canonical/aaacfg/core/aaa"
	"github.com/canonical/aaacfg/domain/aaa/service"
)

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) error {
	views, err := s.service.ConfigView(r.Context())
	if err != nil {
		return errors.Trace(err)
	}
	result := params.AAAConfigResult{
		Sections: make([]params.SectionConfig, len(views)),
	}
	for i, view := range views {
		result.Sections[i] = sectionConfig(view)
	}
	return errors.Trace(sendStatusAndJSON(w, http.StatusOK, result))
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) error {
	section, err := service.ParseSection(r.URL.Query().Get(":section"))
	if err != nil {
		return errors.Trace(err)
	}
	view, err := s.service.SectionConfig(r.Context(), section)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(sendStatusAndJSON(w, http.StatusOK, params.SectionConfigResult{
		Config: sectionConfig(view),
	}))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) error {
	section, err := service.ParseSection(r.URL.Query().Get(":section"))
	if err != nil {
		return errors.Trace(err)
	}
	var args params.SectionUpdateArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		return errors.BadRequestf("cannot decode update request: %v", err)
	}
	update, err := sectionUpdate(section, args)
	if err != nil {
		return errors.Trace(err)
	}
	if err := s.service.UpdateSection(r.Context(), update); err != nil {
		return errors.Trace(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) error {
	section, err := service.ParseSection(r.URL.Query().Get(":section"))
	if err != nil {
		return errors.Trace(err)
	}
	if err := s.service.ResetSection(r.Context(), section); err != nil {
		return errors.Trace(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// sectionConfig flattens a resolved section view into its wire form.
// Flag fields only travel for the authentication section.
func sectionConfig(view service.SectionView) params.SectionConfig {
	cfg := params.SectionConfig{
		Section:  string(view.Section),
		Methods:  identifiers(view.Methods),
		Explicit: view.Explicit,
	}
	if view.Section == aaa.SectionAuthentication {
		failthrough, fallback := view.Failthrough, view.Fallback
		debug, trace := view.Debug, view.Trace
		cfg.Failthrough = &failthrough
		cfg.Fallback = &fallback
		cfg.Debug = &debug
		cfg.Trace = &trace
	}
	return cfg
}

func identifiers(methods []aaa.Method) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}

// sectionUpdate lifts sparse wire args into a typed update. Method
// membership is deliberately left to the translation vocabulary so
// unknown identifiers fail with their own taxonomy error.
func sectionUpdate(section aaa.Section, args params.SectionUpdateArgs) (aaa.SectionUpdate, error) {
	update := aaa.SectionUpdate{Section: section}
	if args.Methods != nil {
		methods := make([]aaa.Method, len(*args.Methods))
		for i, m := range *args.Methods {
			methods[i] = aaa.Method(m)
		}
		update.Methods = &methods
	}
	for _, flag := range []struct {
		field  string
		arg    *bool
		target *aaa.FlagUpdate
	}{
		{aaa.FieldFailthrough, args.Failthrough, &update.Failthrough},
		{aaa.FieldFallback, args.Fallback, &update.Fallback},
		{aaa.FieldDebug, args.Debug, &update.Debug},
		{aaa.FieldTrace, args.Trace, &update.Trace},
	} {
		if flag.arg != nil {
			*flag.target = aaa.SetFlag(*flag.arg)
		}
	}
	for _, field := range args.Reset {
		switch field {
		case aaa.FieldLogin:
			if update.Methods != nil {
				return aaa.SectionUpdate{}, errors.BadRequestf("field %q both set and reset", field)
			}
			update.Methods = &[]aaa.Method{}
		case aaa.FieldFailthrough, aaa.FieldFallback, aaa.FieldDebug, aaa.FieldTrace:
			target := flagTarget(&update, field)
			if target.Op != aaa.FlagLeave {
				return aaa.SectionUpdate{}, errors.BadRequestf("field %q both set and reset", field)
			}
			*target = aaa.ResetFlag()
		default:
			return aaa.SectionUpdate{}, errors.NotValidf("reset of field %q", field)
		}
	}
	return update, nil
}

func flagTarget(update *aaa.SectionUpdate, field string) *aaa.FlagUpdate {
	switch field {
	case aaa.FieldFailthrough:
		return &update.Failthrough
	case aaa.FieldFallback:
		return &update.Fallback
	case aaa.FieldDebug:
		return &update.Debug
	case aaa.FieldTrace:
		return &update.Trace
	}
	panic("unknown flag field " + field)
}
