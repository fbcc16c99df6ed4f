package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GriffinCanCode/WidgetArcade/backend/internal/domain/shell"
	"github.com/GriffinCanCode/WidgetArcade/backend/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arcadeYAML = `
id: arcade
name: "<b>Arcade</b>"
version: "1.2.0"
description: Retro games
activate_layout: arcade
layouts:
  - name: arcade
    display_name: Arcade Hall
    slots:
      - name: main
        capabilities: [viewport]
        show_tabs: always
      - name: side
        capabilities: [game-list]
services:
  - name: arcade.version
    response: "1.2.0"
components:
  - id: snake
    kind: viewport
    label: Snake
    component: SnakeGame
    tags: [game]
  - id: scores
    kind: panel
    label: High Scores
    tags: [game-list]
  - id: settings
    kind: menu-item
    label: Settings
    emit: arcade.settings
    submenu:
      - id: sound
        label: Sound
        emit: arcade.sound
  - id: games
    kind: left-panel-menu
    label: Games
    viewport: snake
`

const arcadeTOML = `
id = "arcade"
name = "Arcade"
version = "1.2.0"

[[layouts]]
name = "arcade"

[[layouts.slots]]
name = "main"
capabilities = ["viewport"]

[[components]]
id = "snake"
kind = "viewport"
label = "Snake"

[[components]]
id = "clock"
kind = "footer-item"
align = "right"
`

const arcadeJSON = `{
  "id": "arcade",
  "name": "Arcade",
  "version": "1.2.0",
  "layouts": [{"name": "arcade", "slots": [{"name": "main", "capabilities": ["viewport"]}]}],
  "components": [
    {"id": "snake", "kind": "viewport", "label": "Snake"},
    {"id": "clock", "kind": "footer-item", "align": "right"}
  ]
}`

func TestParseFormats(t *testing.T) {
	for _, tc := range []struct {
		name   string
		data   string
		format Format
	}{
		{"toml", arcadeTOML, FormatTOML},
		{"json", arcadeJSON, FormatJSON},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Parse([]byte(tc.data), tc.format)
			require.NoError(t, err)

			assert.Equal(t, "arcade", m.ID)
			assert.Equal(t, "1.2.0", m.Version)
			require.Len(t, m.Components, 2)
			assert.Equal(t, types.KindViewport, m.Components[0].Kind)
			assert.Equal(t, types.AlignRight, m.Components[1].Align)
			require.Len(t, m.Layouts, 1)
			assert.Equal(t, []string{"viewport"}, m.Layouts[0].Slots[0].Capabilities)
		})
	}
}

func TestParseYAMLSanitizesText(t *testing.T) {
	m, err := Parse([]byte(arcadeYAML), FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, "Arcade", m.Name)
	assert.Equal(t, types.TabsAlways, m.Layouts[0].Slots[0].ShowTabs)
	require.Len(t, m.Components[2].Submenu, 1)
	assert.Equal(t, "arcade.sound", m.Components[2].Submenu[0].Emit)
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown kind":  `{"id":"a","name":"A","version":"1.0.0","components":[{"id":"x","kind":"widget"}]}`,
		"duplicate id":  `{"id":"a","name":"A","version":"1.0.0","components":[{"id":"x","kind":"panel"},{"id":"x","kind":"panel"}]}`,
		"bad local id":  `{"id":"a","name":"A","version":"1.0.0","components":[{"id":"x y","kind":"panel"}]}`,
		"unnamed slot":  `{"id":"a","name":"A","version":"1.0.0","layouts":[{"name":"l","slots":[{"capabilities":["panel"]}]}]}`,
		"bad tab mode":  `{"id":"a","name":"A","version":"1.0.0","layouts":[{"name":"l","slots":[{"name":"s","show_tabs":"sometimes"}]}]}`,
		"bad event":     `{"id":"a","name":"A","version":"1.0.0","components":[{"id":"x","kind":"menu-item","emit":"a b"}]}`,
		"bad component": `{"id":"a","name":"A","version":"1.0.0","components":[{"id":"x","kind":"panel","component":"ctl\u0001"}]}`,
		"malformed doc": `{"id":`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data), FormatJSON)
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte(arcadeJSON), Format("ini"))
	assert.Error(t, err)
}

func TestDefinitionRequiresDescriptor(t *testing.T) {
	m, err := Parse([]byte(`{"id":"a","name":"A","version":"latest"}`), FormatJSON)
	require.NoError(t, err)

	_, err = m.Definition()
	assert.Error(t, err)
}

func TestDefinitionContributes(t *testing.T) {
	sh := shell.New(shell.Options{})
	defer sh.Close()

	m, err := Parse([]byte(arcadeYAML), FormatYAML)
	require.NoError(t, err)
	def, err := m.Definition()
	require.NoError(t, err)

	ctx := context.Background()
	inst := def.Instantiate(sh.Deps("arcade.plugin.yaml"))
	require.NoError(t, inst.Init(ctx))
	require.NoError(t, inst.Start(ctx))

	assert.Equal(t, []string{"arcade:snake", "arcade:scores", "arcade:settings", "arcade:games"},
		sh.Registry.OwnedBy("arcade"))

	snake, ok := sh.Registry.Get("arcade:snake")
	require.True(t, ok)
	assert.Equal(t, "SnakeGame", snake.Render.Name())

	active, ok := sh.Layouts.Active()
	require.True(t, ok)
	assert.Equal(t, "arcade", active.Name)
	assert.Equal(t, "arcade", active.Owner)

	side, ok := sh.Slot("side")
	require.True(t, ok)
	assert.Equal(t, []string{"arcade:scores"}, side.Resolved())

	out, err := sh.Bus.Call(ctx, "arcade.version", nil)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", out)

	var clicks []ClickEvent
	sh.Bus.On("arcade.settings", func(p interface{}) { clicks = append(clicks, p.(ClickEvent)) })
	sh.Bus.On("arcade.sound", func(p interface{}) { clicks = append(clicks, p.(ClickEvent)) })

	require.NoError(t, sh.Trigger("arcade:settings", ""))
	require.NoError(t, sh.Trigger("arcade:settings", "sound"))
	assert.Equal(t, []ClickEvent{
		{PluginID: "arcade", ID: "settings"},
		{PluginID: "arcade", ID: "sound"},
	}, clicks)

	require.NoError(t, sh.Trigger("arcade:games", ""))
	assert.Equal(t, "arcade:snake", sh.Workspace.State().Active)

	require.NoError(t, inst.Stop(ctx))
	assert.Empty(t, sh.Registry.OwnedBy("arcade"))
	assert.False(t, sh.Bus.HasService("arcade.version"))
}

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "arcade.plugin.yaml"), arcadeYAML)
	writeFile(t, filepath.Join(root, "games", "clock.plugin.toml"), arcadeTOML)
	writeFile(t, filepath.Join(root, "games", "deep", "x.plugin.js"), "createPlugin({})")
	writeFile(t, filepath.Join(root, "games", "readme.md"), "# games")

	found, err := Discover(context.Background(), root, []string{"**/*.plugin.yaml", "**/*.plugin.toml"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "arcade.plugin.yaml"),
		filepath.Join(root, "games", "clock.plugin.toml"),
	}, found)

	found, err = Discover(context.Background(), filepath.Join(root, "missing"), []string{"**/*"})
	require.NoError(t, err)
	assert.Empty(t, found)

	_, err = Discover(context.Background(), root, []string{"[unclosed"})
	assert.Error(t, err)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arcade.plugin.json")
	writeFile(t, path, arcadeJSON)

	src, err := NewFileSource(path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Name())

	def, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "arcade", def.ID())

	before, err := src.Fingerprint()
	require.NoError(t, err)
	writeFile(t, path, arcadeJSON+"\n")
	after, err := src.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "notes.txt"))
	assert.Error(t, err)
}
