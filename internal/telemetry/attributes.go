// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans across the server.
const (
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"
	HTTPRequestIDKey  = "http.request_id"

	ConfigChangedKey = "config.changed_fields"
	ConfigRestartKey = "config.restart_required"

	StaticCopiedKey     = "static.copied"
	StaticUnmodifiedKey = "static.unmodified"
	StaticSkippedKey    = "static.skipped"
	StaticDryRunKey     = "static.dry_run"
)

// HTTPAttributes creates common HTTP span attributes. url must already be
// stripped of query values.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// ReloadAttributes describes a configuration reload.
func ReloadAttributes(changed []string, restart bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.StringSlice(ConfigChangedKey, changed),
		attribute.Bool(ConfigRestartKey, restart),
	}
}

// CollectAttributes describes a collectstatic run.
func CollectAttributes(copied, unmodified, skipped int, dryRun bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(StaticCopiedKey, copied),
		attribute.Int(StaticUnmodifiedKey, unmodified),
		attribute.Int(StaticSkippedKey, skipped),
		attribute.Bool(StaticDryRunKey, dryRun),
	}
}
