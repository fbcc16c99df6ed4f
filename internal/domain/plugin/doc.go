// Package plugin implements plugin definition, the instance lifecycle and
// the per-instance API handed to plugin code.
//
// Lifecycle:
//
//	uninitialized --Init--> initialized --Start--> started --Stop--> stopped
//	                                                  ^                  |
//	                                                  +------Start-------+
//	any state --Dispose--> disposed
//
// Illegal calls return *LifecycleError, are logged, and change nothing.
// Init, Stop and Dispose are idempotent. Stop and Dispose sweep everything
// the plugin contributed: components, layouts, bus listeners and services.
//
// Example Usage:
//
//	def, err := plugin.Define(plugin.Config{
//	    ID:      "pomodoro",
//	    Name:    "Pomodoro Timer",
//	    Version: "1.0.0",
//	    OnStart: func(ctx context.Context, api *plugin.API) error {
//	        return api.Footer("timer", plugin.FooterOptions{
//	            Component: types.NewRenderHandle("PomodoroFooter"),
//	            Order:     10,
//	        })
//	    },
//	})
//	inst := def.Instantiate(plugin.Deps{Registry: reg, Bus: b, Layouts: layouts})
//	_ = inst.Init(ctx)
//	_ = inst.Start(ctx)
package plugin
