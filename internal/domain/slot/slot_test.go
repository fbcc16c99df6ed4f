package slot

import (
	"context"
	"errors"
	"testing"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/component"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveCapabilities(tags []string) []string {
	args := m.Called(tags)
	return args.Get(0).([]string)
}

func (m *mockResolver) GetMany(ids []string) []types.Registration {
	args := m.Called(ids)
	return args.Get(0).([]types.Registration)
}

func register(t *testing.T, r *component.Registry, fullID string) {
	t.Helper()
	require.NoError(t, r.Register(types.Registration{
		FullID: fullID,
		Kind:   types.KindPanel,
		Render: types.NewRenderHandle(fullID),
	}))
}

func TestSlotFallback(t *testing.T) {
	reg := component.NewRegistry(nil)
	s := New(Config{Name: "side", Capabilities: []string{"x:a", "x:b"}, ShowTabs: types.TabsAuto}, reg, nil)
	defer s.Watch(reg)()

	assert.Equal(t, StateEmpty, s.State())
	assert.Empty(t, s.ActiveTab())

	register(t, reg, "x:a")
	assert.Equal(t, []string{"x:a"}, s.Resolved())
	assert.Equal(t, "x:a", s.ActiveTab())
	assert.Equal(t, StateSingle, s.State())
	assert.False(t, s.TabsVisible())

	register(t, reg, "x:b")
	assert.Equal(t, []string{"x:a", "x:b"}, s.Resolved())
	assert.Equal(t, StateMulti, s.State())
	assert.True(t, s.TabsVisible())
	assert.Equal(t, "x:a", s.ActiveTab(), "adding a component must not switch tabs")

	reg.Unregister("x:a")
	assert.Equal(t, []string{"x:b"}, s.Resolved())
	assert.Equal(t, "x:b", s.ActiveTab())

	reg.Unregister("x:b")
	assert.Equal(t, StateEmpty, s.State())
	assert.Empty(t, s.ActiveTab())
}

func TestSlotKeepsChosenTab(t *testing.T) {
	reg := component.NewRegistry(nil)
	register(t, reg, "p:one")
	register(t, reg, "p:two")
	register(t, reg, "p:three")

	s := New(Config{Name: "main", Capabilities: []string{"panel"}}, reg, nil)
	defer s.Watch(reg)()

	assert.False(t, s.SetActiveTab("p:missing"))
	require.True(t, s.SetActiveTab("p:two"))

	reg.Unregister("p:one")
	assert.Equal(t, "p:two", s.ActiveTab())

	reg.Unregister("p:two")
	assert.Equal(t, "p:three", s.ActiveTab())
}

func TestSlotTabPolicies(t *testing.T) {
	tests := []struct {
		name    string
		policy  types.TabPolicy
		ids     []string
		visible bool
	}{
		{name: "always empty", policy: types.TabsAlways, visible: true},
		{name: "always single", policy: types.TabsAlways, ids: []string{"a:1"}, visible: true},
		{name: "never multi", policy: types.TabsNever, ids: []string{"a:1", "a:2"}, visible: false},
		{name: "auto single", policy: types.TabsAuto, ids: []string{"a:1"}, visible: false},
		{name: "auto multi", policy: types.TabsAuto, ids: []string{"a:1", "a:2"}, visible: true},
		{name: "default is auto", ids: []string{"a:1", "a:2"}, visible: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(mockResolver)
			resolver.On("ResolveCapabilities", []string{"cap"}).Return(tt.ids)

			s := New(Config{Name: "s", Capabilities: []string{"cap"}, ShowTabs: tt.policy}, resolver, nil)
			assert.Equal(t, tt.visible, s.TabsVisible())
			assert.Equal(t, tt.visible, s.Snapshot().TabsVisible)
			resolver.AssertExpectations(t)
		})
	}
}

func TestSlotReconfigure(t *testing.T) {
	reg := component.NewRegistry(nil)
	register(t, reg, "a:panel")
	require.NoError(t, reg.Register(types.Registration{FullID: "a:view", Kind: types.KindViewport}))

	s := New(Config{Name: "main", Capabilities: []string{"panel"}}, reg, nil)
	var snaps []Snapshot
	s.Subscribe(func(snap Snapshot) { snaps = append(snaps, snap) })

	snap := s.Reconfigure([]string{"viewport", "panel"}, types.TabsNever)
	assert.Equal(t, []string{"a:view", "a:panel"}, snap.Resolved)
	assert.Equal(t, "a:panel", snap.ActiveTabID, "active tab survives when it still resolves")
	assert.False(t, snap.TabsVisible)
	require.Len(t, snaps, 1)
	assert.Equal(t, types.TabsNever, snaps[0].Policy)
}

func TestSlotRefreshNotifiesOnlyOnChange(t *testing.T) {
	reg := component.NewRegistry(nil)
	s := New(Config{Name: "main", Capabilities: []string{"panel"}}, reg, nil)
	defer s.Watch(reg)()

	count := 0
	s.Subscribe(func(Snapshot) { count++ })

	register(t, reg, "a:one")
	require.NoError(t, reg.Register(types.Registration{FullID: "a:btn", Kind: types.KindToolbarButton}))
	s.Refresh()

	assert.Equal(t, 1, count)
}

func TestSlotRenderIsolatesFailures(t *testing.T) {
	ok := types.NewRenderFunc("Clock", func(ctx context.Context, props map[string]interface{}) (interface{}, error) {
		return "12:00", nil
	})
	failing := types.NewRenderFunc("Weather", func(ctx context.Context, props map[string]interface{}) (interface{}, error) {
		return nil, errors.New("no network")
	})
	panicking := types.NewRenderFunc("Crypto", func(ctx context.Context, props map[string]interface{}) (interface{}, error) {
		panic("nil ticker")
	})

	ids := []string{"w:crypto", "w:weather", "w:clock"}
	resolver := new(mockResolver)
	resolver.On("ResolveCapabilities", []string{"footer-item"}).Return(ids)
	resolver.On("GetMany", ids).Return([]types.Registration{
		{FullID: "w:crypto", Kind: types.KindFooterItem, Render: panicking},
		{FullID: "w:weather", Kind: types.KindFooterItem, Render: failing},
		{FullID: "w:clock", Kind: types.KindFooterItem, Render: ok},
	})

	s := New(Config{Name: "footer", Capabilities: []string{"footer-item"}}, resolver, nil)
	out := s.Render(context.Background(), nil)

	require.Len(t, out, 3)
	assert.ErrorContains(t, out[0].Err, "panicked")
	assert.EqualError(t, out[1].Err, "no network")
	assert.NoError(t, out[2].Err)
	assert.Equal(t, "12:00", out[2].Output)
	resolver.AssertExpectations(t)
}

func TestFromSpec(t *testing.T) {
	cfg := FromSpec(types.SlotSpec{Name: "bottom", Capabilities: []string{"bottom-panel-tab"}, ShowTabs: types.TabsAlways})
	assert.Equal(t, "bottom", cfg.Name)
	assert.Equal(t, []string{"bottom-panel-tab"}, cfg.Capabilities)
	assert.Equal(t, types.TabsAlways, cfg.ShowTabs)
}
