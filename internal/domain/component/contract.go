package component

import (
	"fmt"
	"sort"
)

// ContractIndex maps capability tags to the ids that satisfy them. It is not
// safe for concurrent use on its own; the Registry guards it with its lock so
// index updates land in the same critical section as the map write.
type ContractIndex struct {
	tags map[string]map[string]uint64 // tag -> id -> registration seq
	byID map[string][]string          // id -> tags it was indexed under
}

// NewContractIndex creates an empty index
func NewContractIndex() *ContractIndex {
	return &ContractIndex{
		tags: make(map[string]map[string]uint64),
		byID: make(map[string][]string),
	}
}

// Add indexes id under every tag. Any previous tags for id are dropped first.
func (ci *ContractIndex) Add(id string, seq uint64, tags []string) {
	ci.Remove(id)

	for _, tag := range tags {
		set, ok := ci.tags[tag]
		if !ok {
			set = make(map[string]uint64)
			ci.tags[tag] = set
		}
		set[id] = seq
	}
	ci.byID[id] = append([]string(nil), tags...)
}

// Remove drops id from every tag set it belongs to
func (ci *ContractIndex) Remove(id string) {
	tags, ok := ci.byID[id]
	if !ok {
		return
	}
	for _, tag := range tags {
		set := ci.tags[tag]
		delete(set, id)
		if len(set) == 0 {
			delete(ci.tags, tag)
		}
	}
	delete(ci.byID, id)
}

// Lookup returns the ids carrying tag in registration order
func (ci *ContractIndex) Lookup(tag string) []string {
	set := ci.tags[tag]
	if len(set) == 0 {
		return nil
	}

	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		si, sj := set[ids[i]], set[ids[j]]
		if si != sj {
			return si < sj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Tags returns every tag with at least one member, sorted
func (ci *ContractIndex) Tags() []string {
	tags := make([]string, 0, len(ci.tags))
	for tag := range ci.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Len returns the number of indexed ids
func (ci *ContractIndex) Len() int {
	return len(ci.byID)
}

// Verify checks the index against the live registrations. lookup returns the
// capability tags of a registered id. ids lists every registered id.
func (ci *ContractIndex) Verify(ids []string, lookup func(id string) ([]string, bool)) error {
	for tag, set := range ci.tags {
		for id := range set {
			if _, ok := lookup(id); !ok {
				return fmt.Errorf("orphaned id %q under tag %q", id, tag)
			}
		}
	}

	for _, id := range ids {
		caps, ok := lookup(id)
		if !ok {
			return fmt.Errorf("id %q listed but not registered", id)
		}
		for _, tag := range caps {
			if _, ok := ci.tags[tag][id]; !ok {
				return fmt.Errorf("id %q missing from tag %q", id, tag)
			}
		}
		if len(ci.byID[id]) != len(caps) {
			return fmt.Errorf("id %q indexed under %d tags, expected %d", id, len(ci.byID[id]), len(caps))
		}
	}

	if len(ci.byID) != len(ids) {
		return fmt.Errorf("index holds %d ids, registry holds %d", len(ci.byID), len(ids))
	}
	return nil
}
