// Package manifest loads declarative plugins from YAML, TOML or JSON files.
//
// A manifest names the plugin and lists the layouts, static services and
// components it contributes when started. Menu, button and left menu
// entries can declare an event that is emitted on the bus when clicked.
// Display text is stripped of markup before registration.
//
// Components:
//   - Manifest: Decoded document with Validate and Definition
//   - FileSource: Host source that re-reads the file on every load
//   - Discover: Walks a plugin directory and matches glob patterns
//
// Example Usage:
//
//	paths, _ := manifest.Discover(ctx, "./plugins", []string{"**/*.plugin.yaml"})
//	for _, p := range paths {
//	    src, _ := manifest.NewFileSource(p)
//	    loader.Add(src)
//	}
package manifest
