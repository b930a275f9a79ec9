/*-------------------------------------------------------------------------
 *
 * Kiosk Assistant - Routing
 *
 * Portions copyright (c) 2025, pgEdge, Inc.
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package routing

import "kiosk-assistant/internal/filewatch"

// Watch reloads the tables from path whenever the file changes. The caller
// must Stop the returned watcher.
func (r *Router) Watch(path string) (*filewatch.Watcher, error) {
	w, err := filewatch.New(path, func() error {
		return r.ReloadFile(path)
	})
	if err != nil {
		return nil, err
	}
	w.Start()
	return w, nil
}
