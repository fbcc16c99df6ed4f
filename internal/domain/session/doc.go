// Package session persists the shell's arrangement between runs.
//
// A saved state records the active layout, the selected tab of every
// mounted slot and the open workspace tabs with the focused one. Restoring
// is best effort: anything that is no longer registered is skipped and
// reported.
//
// Example Usage:
//
//	store := session.NewStore(sh, cfg.Shell.StatePath, logger)
//	_, err := store.Save(ctx)
//	report, err := store.Restore(ctx)
package session
