// Package host loads plugins into the shell and drives their lifecycle.
//
// Sources are loaded in the order they were added. Each plugin's init and
// start are awaited before the next source is touched; a plugin that fails
// is logged and skipped, while one that hangs holds up the rest until the
// caller's context gives out.
//
// Hot reload follows an explicit protocol:
//
//  1. Snapshot the plugin's ids and every other plugin's ids
//  2. Dispose the instance, sweeping its contributions
//  3. Load the source again and run init then start
//  4. Diff the before and after ids into a ReloadReport
//
// Any id owned by another plugin that went missing is reported as a
// *CollateralRemovalError.
package host
