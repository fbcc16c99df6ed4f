package shell

import (
	"context"
	"testing"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/component"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/layout"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/plugin"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/slot"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startPlugin(t *testing.T, s *Shell, cfg plugin.Config) *plugin.Instance {
	t.Helper()
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}
	if cfg.Version == "" {
		cfg.Version = "1.0.0"
	}
	inst := plugin.MustDefine(cfg).Instantiate(s.Deps("test"))
	ctx := context.Background()
	require.NoError(t, inst.Init(ctx))
	require.NoError(t, inst.Start(ctx))
	return inst
}

func keys(regs []types.Registration) []string {
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.FullID
	}
	return out
}

func TestCollectionsFollowRegistry(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	a := startPlugin(t, s, plugin.Config{
		ID: "a",
		OnStart: func(ctx context.Context, api *plugin.API) error {
			_ = api.Button("save", plugin.ButtonOptions{Order: 2})
			_ = api.Button("open", plugin.ButtonOptions{Order: 1, Align: types.AlignRight})
			_ = api.Menu("file", plugin.MenuOptions{Order: 1, Group: "main"})
			return api.Footer("clock", plugin.FooterOptions{Order: 5})
		},
	})
	startPlugin(t, s, plugin.Config{
		ID: "b",
		OnStart: func(ctx context.Context, api *plugin.API) error {
			_ = api.Button("run", plugin.ButtonOptions{Order: 2})
			_ = api.Menu("help", plugin.MenuOptions{Order: 9, Group: "extra"})
			_ = api.Menu("edit", plugin.MenuOptions{Order: 2, Group: "main"})
			return api.Footer("cpu", plugin.FooterOptions{Order: 5})
		},
	})

	assert.Equal(t, []string{"a:open", "a:save", "b:run"}, keys(s.Collections.Toolbar().Sorted()))
	assert.Equal(t, []string{"a:clock", "b:cpu"}, keys(s.Collections.Footer().Sorted()))

	groups := s.Collections.MenuGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, "main", groups[0].Key)
	assert.Equal(t, []string{"a:file", "b:edit"}, keys(groups[0].Items))

	toolbar := s.Collections.ToolbarGroups()
	require.Len(t, toolbar, 2)
	assert.Equal(t, "right", toolbar[0].Key)

	require.NoError(t, a.Dispose(context.Background()))
	assert.Equal(t, []string{"b:run"}, keys(s.Collections.Toolbar().Sorted()))
	assert.Equal(t, []string{"b:cpu"}, keys(s.Collections.Footer().Sorted()))
}

func TestWorkspaceOpenCloseAndFallback(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	var activations []string
	viewer := startPlugin(t, s, plugin.Config{
		ID: "viewer",
		OnStart: func(ctx context.Context, api *plugin.API) error {
			for _, id := range []string{"one", "two", "three"} {
				id := id
				if err := api.Viewport(id, plugin.ViewportOptions{
					Label:        id,
					OnActivate:   func() { activations = append(activations, "+"+id) },
					OnDeactivate: func() { activations = append(activations, "-"+id) },
				}); err != nil {
					return err
				}
			}
			return nil
		},
	})
	api := viewer.API()

	require.NoError(t, api.Open("one", plugin.OpenOptions{}))
	require.NoError(t, api.Open("two", plugin.OpenOptions{Title: "Second"}))
	require.NoError(t, api.Open("three", plugin.OpenOptions{Background: true}))
	assert.ErrorIs(t, api.Open("missing", plugin.OpenOptions{}), ErrNotViewport)

	state := s.Workspace.State()
	require.Len(t, state.Tabs, 3)
	assert.Equal(t, "Second", state.Tabs[1].Title)
	assert.Equal(t, "viewer:two", state.Active)
	assert.Equal(t, []string{"+one", "-one", "+two"}, activations)

	assert.True(t, s.Workspace.Close("viewer:two"))
	assert.Equal(t, "viewer:one", s.Workspace.State().Active, "focus falls back to the first open tab")

	// Removing the viewport from the registry closes its tab
	require.True(t, api.Unregister("one"))
	state = s.Workspace.State()
	assert.Equal(t, "viewer:three", state.Active)
	require.Len(t, state.Tabs, 1)

	assert.False(t, s.Workspace.Activate("viewer:one"))
}

func TestLayoutSwitchRemountsSlots(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	var slotEvents []slot.Snapshot
	s.Bus.On(EventSlotChanged, func(p interface{}) { slotEvents = append(slotEvents, p.(slot.Snapshot)) })

	require.NoError(t, s.Layouts.Register(layout.Definition{
		Name: "classic",
		Slots: []types.SlotSpec{
			{Name: "main", Capabilities: []string{"viewport"}},
			{Name: "side", Capabilities: []string{"panel"}, ShowTabs: types.TabsAlways},
		},
	}))
	require.NoError(t, s.Layouts.Register(layout.Definition{
		Name: "focus",
		Slots: []types.SlotSpec{
			{Name: "main", Capabilities: []string{"panel", "viewport"}},
		},
	}))

	startPlugin(t, s, plugin.Config{
		ID: "w",
		OnStart: func(ctx context.Context, api *plugin.API) error {
			_ = api.Viewport("editor", plugin.ViewportOptions{})
			return api.Panel("stats", plugin.PanelOptions{})
		},
	})

	require.True(t, s.Layouts.SetActive("classic"))
	snaps := s.Slots()
	require.Len(t, snaps, 2)
	assert.Equal(t, []string{"w:editor"}, snaps[0].Resolved)
	assert.Equal(t, []string{"w:stats"}, snaps[1].Resolved)
	assert.True(t, snaps[1].TabsVisible)

	main, ok := s.Slot("main")
	require.True(t, ok)

	require.True(t, s.Layouts.SetActive("focus"))
	snaps = s.Slots()
	require.Len(t, snaps, 1)
	assert.Equal(t, []string{"w:stats", "w:editor"}, snaps[0].Resolved)
	assert.Equal(t, "w:editor", snaps[0].ActiveTabID, "the reused slot keeps its active tab")

	reused, _ := s.Slot("main")
	assert.Same(t, main, reused)
	_, ok = s.Slot("side")
	assert.False(t, ok)
	assert.NotEmpty(t, slotEvents)
}

func TestTrigger(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	var clicks []string
	startPlugin(t, s, plugin.Config{
		ID: "p",
		OnStart: func(ctx context.Context, api *plugin.API) error {
			_ = api.Viewport("home", plugin.ViewportOptions{})
			_ = api.Footer("status", plugin.FooterOptions{})
			_ = api.Button("boom", plugin.ButtonOptions{OnClick: func() { panic("oops") }})
			_ = api.LeftMenu("nav", plugin.LeftMenuOptions{Viewport: "home"})
			return api.Menu("file", plugin.MenuOptions{
				OnClick: func() { clicks = append(clicks, "file") },
				Submenu: []types.MenuEntry{
					{ID: "recent", Submenu: []types.MenuEntry{
						{ID: "last", OnClick: func() { clicks = append(clicks, "last") }},
					}},
				},
			})
		},
	})

	var triggered []TriggerEvent
	s.Bus.On(EventTriggered, func(p interface{}) { triggered = append(triggered, p.(TriggerEvent)) })

	require.NoError(t, s.Trigger("p:file", ""))
	require.NoError(t, s.Trigger("p:file", "last"))
	assert.Equal(t, []string{"file", "last"}, clicks)

	assert.ErrorIs(t, s.Trigger("p:file", "nope"), ErrComponentNotFound)
	assert.ErrorIs(t, s.Trigger("p:missing", ""), ErrComponentNotFound)
	assert.ErrorIs(t, s.Trigger("p:status", ""), ErrNoAction)
	assert.ErrorContains(t, s.Trigger("p:boom", ""), "panicked")

	require.NoError(t, s.Trigger("p:nav", ""))
	assert.Equal(t, "p:home", s.Workspace.State().Active)

	assert.Len(t, triggered, 3)
}

func TestComponentChangesArePublished(t *testing.T) {
	s := New(Options{})
	defer s.Close()

	var changes []component.Change
	s.Bus.On(EventComponentChanged, func(p interface{}) { changes = append(changes, p.(component.Change)) })

	inst := startPlugin(t, s, plugin.Config{
		ID: "p",
		OnStart: func(ctx context.Context, api *plugin.API) error {
			return api.Panel("x", plugin.PanelOptions{})
		},
	})
	require.NoError(t, inst.Stop(context.Background()))

	require.Len(t, changes, 2)
	assert.Equal(t, component.ChangeAdded, changes[0].Type)
	assert.Equal(t, component.ChangeRemoved, changes[1].Type)
}
