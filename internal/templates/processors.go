// SPDX-License-Identifier: MIT

package templates

import (
	"net"
	"net/http"
	"slices"

	"github.com/ManuGH/pointcloud/internal/config"
)

// Processor contributes values to every render context.
type Processor func(r *http.Request, s *config.Snapshot) map[string]any

var processors = map[string]Processor{
	config.ContextProcessorDebug:   debugProcessor,
	config.ContextProcessorRequest: requestProcessor,
	config.ContextProcessorStatic:  staticProcessor,
}

// ProcessorNames lists the built-in context processors.
func ProcessorNames() []string {
	names := make([]string, 0, len(processors))
	for n := range processors {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// debugProcessor exposes Debug only to clients listed in internalIPs.
func debugProcessor(r *http.Request, s *config.Snapshot) map[string]any {
	if !s.Debug() {
		return nil
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if !slices.Contains(s.InternalIPs(), host) {
		return nil
	}
	return map[string]any{"Debug": true}
}

func requestProcessor(r *http.Request, _ *config.Snapshot) map[string]any {
	return map[string]any{"Request": r}
}

func staticProcessor(_ *http.Request, s *config.Snapshot) map[string]any {
	return map[string]any{"StaticURL": s.Static().URL}
}
