// Package component implements the contract-indexed component registry.
//
// Plugins contribute registrations keyed by "<pluginID>:<localID>". Each
// registration satisfies a set of capability tags (its kind, any explicit
// tags and its own full id) which the ContractIndex maps back to ids so
// slots can resolve components by role.
//
// Features:
//   - Unique full ids, overwrite only on request and never across kinds
//   - Idempotent unregister and per-plugin bulk sweep
//   - Index updates in the same critical section as the registry write
//   - Synchronous change notification after each mutation
//
// Example Usage:
//
//	reg := component.NewRegistry(logger)
//	err := reg.Register(types.Registration{
//	    FullID: types.FullID("weather", "panel"),
//	    Kind:   types.KindPanel,
//	    Render: types.NewRenderHandle("WeatherPanel"),
//	})
//	ids := reg.ByCapability("panel")
package component
