package layout

import (
	"fmt"
	"sync"
	"testing"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func classic() Definition {
	return Definition{
		Name:        "classic",
		DisplayName: "Classic",
		Order:       0,
		Slots: []types.SlotSpec{
			{Name: "main", Capabilities: []string{"viewport"}, ShowTabs: types.TabsAlways},
			{Name: "bottom", Capabilities: []string{"bottom-panel-tab"}, ShowTabs: types.TabsAuto},
		},
	}
}

func TestRegisterDuplicate(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Register(classic()))

	err := m.Register(classic())
	var dup *DuplicateLayoutError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "classic", dup.Name)
	assert.ErrorIs(t, err, ErrDuplicateLayout)
}

func TestRegisterValidates(t *testing.T) {
	m := NewManager(nil)
	assert.Error(t, m.Register(Definition{}))
	assert.Error(t, m.Register(Definition{Name: "x", Slots: []types.SlotSpec{{}}}))
	assert.Error(t, m.Register(Definition{Name: "x", Slots: []types.SlotSpec{{Name: "s", ShowTabs: "sometimes"}}}))

	require.NoError(t, m.Register(Definition{Name: "bare"}))
	def, ok := m.Get("bare")
	require.True(t, ok)
	assert.Equal(t, "bare", def.DisplayName)
}

func TestSetActiveUnknownKeepsPrevious(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := NewManager(zap.New(core))

	_, ok := m.Active()
	assert.False(t, ok)

	require.NoError(t, m.Register(classic()))
	require.True(t, m.SetActive("classic"))

	assert.False(t, m.SetActive("not-yet-registered"))
	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, "classic", active.Name)
	assert.Equal(t, 1, logs.FilterMessage("unknown layout, keeping current").Len())
}

func TestSubscribeFiresOnSwitch(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Register(classic()))
	require.NoError(t, m.Register(Definition{Name: "focus", Order: 1}))

	var seen []string
	m.Subscribe(func(d Definition) {
		// The new layout is already visible to readers
		active, _ := m.Active()
		assert.Equal(t, d.Name, active.Name)
		seen = append(seen, d.Name)
	})

	m.SetActive("classic")
	m.SetActive("classic")
	m.SetActive("focus")
	m.SetActive("missing")

	assert.Equal(t, []string{"classic", "focus"}, seen)
}

func TestUnregisterActiveFallsBack(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Register(Definition{Name: "zen", Order: 5}))
	require.NoError(t, m.Register(Definition{Name: "focus", Order: 1, Owner: "p"}))
	require.NoError(t, m.Register(classic()))
	require.True(t, m.SetActive("focus"))

	assert.Equal(t, []string{"focus"}, m.UnregisterOwner("p"))

	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, "classic", active.Name)

	assert.False(t, m.Unregister("focus"))
	assert.True(t, m.Unregister("zen"))
	active, _ = m.Active()
	assert.Equal(t, "classic", active.Name)

	assert.True(t, m.Unregister("classic"))
	_, ok = m.Active()
	assert.False(t, ok)
}

func TestSetActiveNeverLeavesUnregisteredLayoutActive(t *testing.T) {
	for round := 0; round < 50; round++ {
		m := NewManager(nil)
		require.NoError(t, m.Register(classic()))
		require.True(t, m.SetActive("classic"))
		for i := 0; i < 8; i++ {
			require.NoError(t, m.Register(Definition{Name: fmt.Sprintf("game-%d", i), Order: i + 1}))
		}

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			name := fmt.Sprintf("game-%d", i)
			wg.Add(2)
			go func() {
				defer wg.Done()
				m.SetActive(name)
			}()
			go func() {
				defer wg.Done()
				m.Unregister(name)
			}()
		}
		wg.Wait()

		active, ok := m.Active()
		require.True(t, ok)
		_, registered := m.Get(active.Name)
		assert.True(t, registered, "round %d left %q active after it was removed", round, active.Name)
		assert.Equal(t, "classic", active.Name)
	}
}

func TestListSortedByOrderThenName(t *testing.T) {
	m := NewManager(nil)
	require.NoError(t, m.Register(Definition{Name: "b", Order: 1}))
	require.NoError(t, m.Register(Definition{Name: "a", Order: 1}))
	require.NoError(t, m.Register(Definition{Name: "z", Order: 0}))

	var names []string
	for _, d := range m.List() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"z", "a", "b"}, names)
}

func TestDefinitionSlot(t *testing.T) {
	def := classic()
	s, ok := def.Slot("bottom")
	require.True(t, ok)
	assert.Equal(t, types.TabsAuto, s.ShowTabs)

	_, ok = def.Slot("sidebar")
	assert.False(t, ok)
}
