// Package slot implements the tabbed regions a layout is composed of.
//
// A slot hosts a list of capability tags. Its resolved list is the
// concatenation of the registry's ids for each tag, deduplicated, in the
// declared tag order. The slot is empty, single or multi depending on how
// many components resolve, and its tab bar follows the always/never/auto
// policy (auto shows tabs only with more than one component).
//
// When the active tab stops resolving, for instance during a plugin hot
// reload, the slot silently falls back to the first resolved component.
package slot
