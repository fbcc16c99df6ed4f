// Package script runs JavaScript plugins in a sandboxed goja runtime.
//
// A script calls createPlugin exactly once with its descriptor and
// lifecycle functions. onStart and onStop receive an api object whose
// methods mirror the Go plugin API: viewport, panel, bottomTab, menu,
// button, footer, leftMenu, register, layout, setLayout, open, emit, on,
// provide, call and onUpdate.
//
// Components:
//   - Runtime: goja VM with require/process removed, captured console
//     output and a per-call deadline enforced by Interrupt
//   - Define: Evaluates a script into a plugin definition
//   - FileSource: Host source that re-evaluates the file on every load
//
// Click handlers, bus listeners, services and render functions registered
// by the script call back into its runtime. Host calls made from the script
// release the runtime while they run, so a callback triggered by the
// script's own emit is delivered instead of deadlocking.
//
// Example Usage:
//
//	createPlugin({
//	  id: "clock", name: "Clock", version: "1.0.0",
//	  onStart(api) {
//	    api.footer("time", { component: "Clock", align: "right" });
//	  },
//	});
package script
