package component

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func panel(pluginID, localID string, order int, tags ...string) types.Registration {
	return types.Registration{
		FullID: types.FullID(pluginID, localID),
		Kind:   types.KindPanel,
		Render: types.NewRenderHandle(localID),
		Label:  localID,
		Order:  order,
		Tags:   tags,
	}
}

func fullIDs(regs []types.Registration) []string {
	out := make([]string, len(regs))
	for i, r := range regs {
		out[i] = r.FullID
	}
	return out
}

func TestRegisterFillsOwnership(t *testing.T) {
	r := NewRegistry(nil)

	require.NoError(t, r.Register(panel("weather", "forecast", 0)))

	got, ok := r.Get("weather:forecast")
	require.True(t, ok)
	assert.Equal(t, "weather", got.PluginID)
	assert.Equal(t, "forecast", got.LocalID)
}

func TestRegisterDuplicateLeavesOriginal(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(panel("a", "w", 1)))

	replacement := panel("a", "w", 9)
	replacement.Label = "other"
	err := r.Register(replacement)

	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "a:w", dup.ID)
	assert.True(t, errors.Is(err, ErrDuplicateID))

	got, _ := r.Get("a:w")
	assert.Equal(t, 1, got.Order)
	assert.Equal(t, "w", got.Label)
}

func TestRegisterOverwrite(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(panel("a", "w", 1, "stats")))
	require.NoError(t, r.Register(panel("a", "x", 1, "stats")))

	require.NoError(t, r.Register(panel("a", "w", 2, "charts"), WithOverwrite()))

	got, _ := r.Get("a:w")
	assert.Equal(t, 2, got.Order)
	assert.Equal(t, []string{"a:x"}, r.ByCapability("stats"))
	assert.Equal(t, []string{"a:w"}, r.ByCapability("charts"))
	// Overwrite keeps the original registration slot
	assert.Equal(t, []string{"a:w", "a:x"}, r.ByCapability("panel"))
	require.NoError(t, r.Verify())
}

func TestRegisterKindIsImmutable(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(panel("a", "w", 1)))

	viewport := panel("a", "w", 1)
	viewport.Kind = types.KindViewport
	err := r.Register(viewport, WithOverwrite())

	var kc *KindChangeError
	require.ErrorAs(t, err, &kc)
	assert.Equal(t, types.KindPanel, kc.From)
	assert.Equal(t, types.KindViewport, kc.To)

	got, _ := r.Get("a:w")
	assert.Equal(t, types.KindPanel, got.Kind)
}

func TestRegisterRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		reg  types.Registration
	}{
		{name: "missing id", reg: types.Registration{Kind: types.KindPanel}},
		{name: "no separator", reg: types.Registration{FullID: "panel", Kind: types.KindPanel}},
		{name: "unknown kind", reg: types.Registration{FullID: "a:b", Kind: "widget"}},
		{
			name: "payload mismatch",
			reg:  types.Registration{FullID: "a:b", Kind: types.KindPanel, Payload: types.ButtonSpec{}},
		},
		{name: "foreign plugin", reg: types.Registration{FullID: "a:b", PluginID: "c", Kind: types.KindPanel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(nil)
			assert.Error(t, r.Register(tt.reg))
			assert.Equal(t, 0, r.Stats().Total)
		})
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(panel("a", "w", 1)))

	assert.True(t, r.Unregister("a:w"))
	assert.False(t, r.Unregister("a:w"))
	assert.False(t, r.Unregister("never:registered"))
	assert.Empty(t, r.ByCapability("panel"))
	require.NoError(t, r.Verify())
}

func TestGetManyPreservesInputOrder(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(panel("a", "one", 0)))
	require.NoError(t, r.Register(panel("a", "two", 0)))

	got := r.GetMany([]string{"a:two", "missing:x", "a:one"})
	assert.Equal(t, []string{"a:two", "a:one"}, fullIDs(got))
	assert.Empty(t, r.GetMany(nil))
}

func TestListSortsByOrderThenInsertion(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(panel("p", "c", 5)))
	require.NoError(t, r.Register(panel("p", "a", 1)))
	require.NoError(t, r.Register(panel("p", "b", 5)))
	require.NoError(t, r.Register(types.Registration{
		FullID: "p:btn",
		Kind:   types.KindToolbarButton,
		Order:  0,
	}))

	assert.Equal(t, []string{"p:a", "p:c", "p:b"}, fullIDs(r.List(types.KindPanel)))
	assert.Equal(t, []string{"p:btn", "p:a", "p:c", "p:b"}, fullIDs(r.List("")))
}

func TestPluginIsolationOnSweep(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(panel("A", "widget1", 5)))
	require.NoError(t, r.Register(panel("B", "widget1", 1)))
	require.NoError(t, r.Register(panel("A", "widget2", 3, "shared")))
	require.NoError(t, r.Register(panel("B", "widget2", 3, "shared")))
	// A plugin whose id is a prefix of another must not be swept with it
	require.NoError(t, r.Register(panel("AB", "widget1", 0)))

	removed := r.UnregisterPlugin("A")
	assert.Equal(t, []string{"A:widget1", "A:widget2"}, removed)

	got := r.GetMany([]string{"A:widget1", "B:widget1"})
	require.Len(t, got, 1)
	assert.Equal(t, "B:widget1", got[0].FullID)
	assert.Equal(t, 1, got[0].Order)

	assert.Equal(t, []string{"B:widget2"}, r.ByCapability("shared"))
	assert.Equal(t, []string{"B:widget1", "B:widget2"}, r.OwnedBy("B"))
	assert.Equal(t, []string{"AB:widget1"}, r.OwnedBy("AB"))
	assert.Empty(t, r.UnregisterPlugin("A"))
	require.NoError(t, r.Verify())
}

func TestCapabilitiesIncludeKindTagsAndSelf(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(panel("x", "a", 0, "dashboard", "stats")))
	require.NoError(t, r.Register(panel("x", "b", 0, "dashboard")))

	assert.Equal(t, []string{"x:a", "x:b"}, r.ByCapability("panel"))
	assert.Equal(t, []string{"x:a", "x:b"}, r.ByCapability("dashboard"))
	assert.Equal(t, []string{"x:a"}, r.ByCapability("stats"))
	assert.Equal(t, []string{"x:b"}, r.ByCapability("x:b"))
	assert.Empty(t, r.ByCapability("unknown"))

	assert.Equal(t, []string{"x:b", "x:a"}, r.ResolveCapabilities([]string{"x:b", "dashboard"}))
}

func TestIndexConsistencyAfterInterleavedMutations(t *testing.T) {
	r := NewRegistry(nil)
	rng := rand.New(rand.NewSource(42))
	tagPool := []string{"stats", "media", "chat", "tools"}

	for i := 0; i < 500; i++ {
		plugin := fmt.Sprintf("p%d", rng.Intn(4))
		local := fmt.Sprintf("c%d", rng.Intn(12))
		id := types.FullID(plugin, local)

		switch rng.Intn(4) {
		case 0, 1:
			tags := []string{tagPool[rng.Intn(len(tagPool))], tagPool[rng.Intn(len(tagPool))]}
			_ = r.Register(panel(plugin, local, rng.Intn(5), tags...), WithOverwrite())
		case 2:
			r.Unregister(id)
		case 3:
			if rng.Intn(10) == 0 {
				r.UnregisterPlugin(plugin)
			}
		}

		require.NoError(t, r.Verify(), "step %d", i)
	}

	for _, tag := range r.Tags() {
		for _, id := range r.ByCapability(tag) {
			_, ok := r.Get(id)
			assert.True(t, ok, "tag %q references %q", tag, id)
		}
	}
}

func TestSubscribeSeesCompletedWrites(t *testing.T) {
	r := NewRegistry(nil)

	var changes []Change
	var visible []bool
	unsubscribe := r.Subscribe(func(c Change) {
		changes = append(changes, c)
		_, ok := r.Get(c.Registration.FullID)
		visible = append(visible, ok)
	})

	require.NoError(t, r.Register(panel("a", "w", 0)))
	require.NoError(t, r.Register(panel("a", "w", 1), WithOverwrite()))
	r.Unregister("a:w")
	unsubscribe()
	require.NoError(t, r.Register(panel("a", "z", 0)))

	require.Len(t, changes, 3)
	assert.Equal(t, ChangeAdded, changes[0].Type)
	assert.Equal(t, ChangeReplaced, changes[1].Type)
	assert.Equal(t, ChangeRemoved, changes[2].Type)
	assert.Equal(t, []bool{true, true, false}, visible)
}

func TestReturnedRegistrationsAreCopies(t *testing.T) {
	r := NewRegistry(nil)
	reg := panel("a", "w", 0, "one")
	require.NoError(t, r.Register(reg))
	reg.Tags[0] = "mutated"

	got, _ := r.Get("a:w")
	got.Tags[0] = "also-mutated"

	assert.Equal(t, []string{"a:w"}, r.ByCapability("one"))
	again, _ := r.Get("a:w")
	assert.Equal(t, []string{"one"}, again.Tags)
}

func TestStatsAndMetrics(t *testing.T) {
	metrics := monitoring.NewMetricsWith(prometheus.NewRegistry())
	r := NewRegistry(nil).WithMetrics(metrics)

	require.NoError(t, r.Register(panel("a", "w", 0)))
	require.NoError(t, r.Register(types.Registration{FullID: "a:m", Kind: types.KindMenuItem}))
	_ = r.Register(panel("a", "w", 0))

	stats := r.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByKind[types.KindPanel])
	assert.Equal(t, 1, stats.ByKind[types.KindMenuItem])
}
