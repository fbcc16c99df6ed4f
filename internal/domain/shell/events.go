package shell

// Bus events published by the shell. Payloads are the types named in the
// comments; the WebSocket hub forwards them to the frontend.
const (
	EventComponentChanged = "shell:component" // component.Change
	EventLayoutChanged    = "shell:layout"    // LayoutEvent
	EventSlotChanged      = "shell:slot"      // slot.Snapshot
	EventWorkspaceChanged = "shell:workspace" // WorkspaceState
	EventTriggered        = "shell:triggered" // TriggerEvent
)

// LayoutEvent is published when the active layout changes
type LayoutEvent struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// TriggerEvent is published after a component action ran
type TriggerEvent struct {
	ID    string `json:"id"`
	Entry string `json:"entry,omitempty"`
}
