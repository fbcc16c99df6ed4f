// Package core is the built-in plugin every shell loads first.
//
// It contributes the "classic" layout (sidebar, main and bottom slots) and
// the "focus" layout (main only), a settings menu with layout and session
// entries, a toolbar toggle between the two layouts, a welcome viewport
// reachable from the left menu and a status footer rendered host-side.
package core
