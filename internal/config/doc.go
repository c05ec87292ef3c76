// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads, validates and freezes the application settings.
//
// Precedence is ENV > YAML file > registry defaults. Every filesystem path is
// anchored at a single BaseDir and made absolute during loading. The result
// is wrapped in a Snapshot, which is read-only; a reload produces a new
// Snapshot and swaps it into the Holder atomically.
package config
