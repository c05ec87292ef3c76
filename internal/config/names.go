// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// Names that settings may refer to. The packages that implement them
// register under these same constants.
const (
	MiddlewareSecurity     = "security"
	MiddlewareCommon       = "common"
	MiddlewareCSRF         = "csrf"
	MiddlewareClickjacking = "clickjacking"

	ComponentStaticFiles   = "staticfiles"
	ComponentVisualization = "visualization"

	ContextProcessorDebug   = "debug"
	ContextProcessorRequest = "request"
	ContextProcessorStatic  = "static"

	TemplateBackendGoHTML = "gohtml"

	RouteTablePointcloud = "pointcloud.urls"
	EntryPointPointcloud = "pointcloud.application"
)

// Primary key strategies accepted by DefaultPrimaryKey.
const (
	PrimaryKeyAuto      = "AutoField"
	PrimaryKeyBigAuto   = "BigAutoField"
	PrimaryKeySmallAuto = "SmallAutoField"
	PrimaryKeyUUID      = "UUIDField"
)

// Catalog lists every name the validator accepts.
type Catalog struct {
	Middleware        []string
	Components        []string
	ContextProcessors []string
	TemplateBackends  []string
	RouteTables       []string
	EntryPoints       []string
	PrimaryKeys       []string
}

// DefaultCatalog returns the names built into this binary.
func DefaultCatalog() Catalog {
	return Catalog{
		Middleware:        []string{MiddlewareSecurity, MiddlewareCommon, MiddlewareCSRF, MiddlewareClickjacking},
		Components:        []string{ComponentStaticFiles, ComponentVisualization},
		ContextProcessors: []string{ContextProcessorDebug, ContextProcessorRequest, ContextProcessorStatic},
		TemplateBackends:  []string{TemplateBackendGoHTML},
		RouteTables:       []string{RouteTablePointcloud},
		EntryPoints:       []string{EntryPointPointcloud},
		PrimaryKeys:       []string{PrimaryKeyAuto, PrimaryKeyBigAuto, PrimaryKeySmallAuto, PrimaryKeyUUID},
	}
}
