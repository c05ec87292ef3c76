// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "slices"

// Clone returns a deep copy of cfg. Slices never alias the receiver.
func (cfg AppConfig) Clone() AppConfig {
	out := cfg
	out.AllowedHosts = slices.Clone(cfg.AllowedHosts)
	out.InstalledComponents = slices.Clone(cfg.InstalledComponents)
	out.Middleware = slices.Clone(cfg.Middleware)
	out.Templates = cfg.Templates.Clone()
	out.Static = cfg.Static.Clone()
	out.InternalIPs = slices.Clone(cfg.InternalIPs)
	out.CSRFTrustedOrigins = slices.Clone(cfg.CSRFTrustedOrigins)
	return out
}

// Clone returns a deep copy of t.
func (t TemplateConfig) Clone() TemplateConfig {
	out := t
	out.Dirs = slices.Clone(t.Dirs)
	out.ContextProcessors = slices.Clone(t.ContextProcessors)
	return out
}

// Clone returns a deep copy of s.
func (s StaticConfig) Clone() StaticConfig {
	out := s
	out.Dirs = slices.Clone(s.Dirs)
	return out
}
