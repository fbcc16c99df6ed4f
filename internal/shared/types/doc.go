// Package types provides shared data structures for the Widget Arcade shell host.
//
// This package defines the contracts exchanged between the registry, the
// plugin runtime, the layout system and the frontend API.
//
// Core Types:
//   - Registration: A component contributed by a plugin
//   - ComponentKind: Tagged-union discriminator for registrations
//   - Payload: Kind-specific typed data (ViewportSpec, ButtonSpec, ...)
//   - RenderHandle: Opaque reference to a component's render entry point
//   - PluginDescriptor, PluginStatus: Plugin identity and introspection
//
// Identity:
//   - Component ids are "<pluginID>:<localID>" (see FullID, SplitFullID)
//   - Every registration satisfies the capability tags returned by
//     Registration.Capabilities
//
// Example Usage:
//
//	reg := types.Registration{
//	    FullID: types.FullID("weather", "widget"),
//	    Kind:   types.KindFooterItem,
//	    Render: types.NewRenderHandle("WeatherWidget"),
//	    Order:  10,
//	}
package types
