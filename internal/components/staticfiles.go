// SPDX-License-Identifier: MIT

package components

import "github.com/ManuGH/pointcloud/internal/config"

// StaticFiles marks static asset handling as installed. Its serving route
// is mounted by the route table under static.url and its publishing step
// is the collectstatic command.
func StaticFiles() Component {
	return Component{Name: config.ComponentStaticFiles}
}
