// Package layout manages named layout definitions and the active layout.
//
// A layout is an arrangement of slots, each declaring the capability tags it
// hosts. Switching layouts is a pure state change: subscribers are told the
// new definition and re-resolve their slots against it.
//
// Switching to an unknown layout is logged and ignored so a plugin that
// names a layout before it is registered never blanks the shell.
package layout
