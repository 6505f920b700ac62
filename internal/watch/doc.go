// SPDX-License-Identifier: MPL-2.0

// Package watch reruns a callback when workspace inputs change.
//
// The watcher monitors settings files, catalog files and convention scripts
// under a root directory and invokes its callback after a debounce period.
// Events within the debounce window are coalesced so the callback fires
// once with the full set of changed paths. Generated output directories are
// ignored so a run never triggers itself.
package watch
