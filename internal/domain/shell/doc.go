// Package shell wires the registry, bus and layout manager into the single
// service object the host and every plugin share.
//
// Components:
//   - Shell: owns the shared services and mounts the active layout's slots
//   - Collections: ordered reactive views of the registry, one per kind
//   - Workspace: viewports opened as tabs in the main area
//
// Every change is also published on the bus under the shell:* events so
// the API layer can push it to the frontend.
package shell
