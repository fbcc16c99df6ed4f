package script

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

const maxConsoleEntries = 100

// LogEntry is one console call made by a script
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Config controls a script runtime
type Config struct {
	Timeout time.Duration // Deadline for one call into the VM, zero disables
	Logger  *zap.Logger
}

// Runtime wraps a goja VM. Only the holder of the token may touch the VM.
// Host functions that can call back into the script release the token while
// they run, so re-entrant callbacks from the same or another goroutine take
// turns instead of deadlocking.
type Runtime struct {
	vm     *goja.Runtime
	config Config
	logger *zap.Logger

	token chan struct{}
	depth int // Protected by token

	console   []LogEntry
	consoleMu sync.Mutex
}

// New creates a runtime with the sandboxed globals installed
func New(config Config) *Runtime {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	vm := goja.New()
	vm.SetMaxCallStackSize(1024)
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	r := &Runtime{
		vm:     vm,
		config: config,
		logger: config.Logger,
		token:  make(chan struct{}, 1),
	}
	r.setupGlobals()
	return r
}

// Run evaluates source under name
func (r *Runtime) Run(ctx context.Context, name, source string) (interface{}, error) {
	var out interface{}
	err := r.enter(ctx, func() error {
		val, err := r.vm.RunScript(name, source)
		if err != nil {
			return err
		}
		out = exportValue(val)
		return nil
	})
	return out, err
}

// Call invokes fn with Go arguments converted to script values and returns
// the exported result.
func (r *Runtime) Call(ctx context.Context, fn goja.Callable, args ...interface{}) (interface{}, error) {
	return r.invoke(ctx, fn, func() []goja.Value {
		vals := make([]goja.Value, len(args))
		for i, a := range args {
			vals[i] = r.vm.ToValue(a)
		}
		return vals
	})
}

// invoke calls fn with arguments built while holding the token
func (r *Runtime) invoke(ctx context.Context, fn goja.Callable, args func() []goja.Value) (interface{}, error) {
	var out interface{}
	err := r.enter(ctx, func() error {
		val, err := fn(goja.Undefined(), args()...)
		if err != nil {
			return err
		}
		out = exportValue(val)
		return nil
	})
	return out, err
}

// Console returns the captured console output
func (r *Runtime) Console() []LogEntry {
	r.consoleMu.Lock()
	defer r.consoleMu.Unlock()
	return append([]LogEntry(nil), r.console...)
}

// enter takes the token, arms the deadline on the outermost call and runs fn
func (r *Runtime) enter(ctx context.Context, fn func() error) (err error) {
	select {
	case r.token <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-r.token }()

	r.depth++
	defer func() { r.depth-- }()

	if r.depth == 1 {
		stop := r.watch(ctx)
		defer stop()
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("script panic: %v", rec)
		}
	}()

	if err := fn(); err != nil {
		if ie, ok := err.(*goja.InterruptedError); ok {
			return fmt.Errorf("script interrupted: %v: %w", ie.Value(), ie)
		}
		return err
	}
	return nil
}

// watch interrupts the VM when ctx ends or the timeout elapses. The returned
// function waits for the watcher to exit and clears any pending interrupt.
func (r *Runtime) watch(ctx context.Context) func() {
	var timeout <-chan time.Time
	var timer *time.Timer
	if r.config.Timeout > 0 {
		timer = time.NewTimer(r.config.Timeout)
		timeout = timer.C
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case <-timeout:
			r.vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			r.vm.Interrupt("context cancelled")
		case <-stop:
		}
	}()

	return func() {
		if timer != nil {
			timer.Stop()
		}
		close(stop)
		<-done
		r.vm.ClearInterrupt()
	}
}

// yield releases the token while fn runs on the host side
func (r *Runtime) yield(fn func() error) error {
	<-r.token
	defer func() { r.token <- struct{}{} }()
	return fn()
}

// throw raises err as a script exception. Only valid inside a host function.
func (r *Runtime) throw(err error) {
	panic(r.vm.NewGoError(err))
}

func (r *Runtime) setupGlobals() {
	r.vm.Set("require", goja.Undefined())
	r.vm.Set("process", goja.Undefined())
	r.vm.Set("module", goja.Undefined())
	r.vm.Set("exports", goja.Undefined())

	console := r.vm.NewObject()
	console.Set("log", r.makeConsoleFunc("log"))
	console.Set("warn", r.makeConsoleFunc("warn"))
	console.Set("error", r.makeConsoleFunc("error"))
	console.Set("info", r.makeConsoleFunc("info"))
	r.vm.Set("console", console)

	// Timers need an event loop the host does not run
	r.vm.Set("setTimeout", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
	r.vm.Set("setInterval", func(goja.FunctionCall) goja.Value { return goja.Undefined() })
}

func (r *Runtime) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		var msg string
		for i, arg := range call.Arguments {
			if i > 0 {
				msg += " "
			}
			msg += arg.String()
		}
		r.record(level, msg)
		return goja.Undefined()
	}
}

func (r *Runtime) record(level, msg string) {
	r.consoleMu.Lock()
	r.console = append(r.console, LogEntry{Level: level, Message: msg, Time: time.Now()})
	if len(r.console) > maxConsoleEntries {
		r.console = r.console[len(r.console)-maxConsoleEntries:]
	}
	r.consoleMu.Unlock()

	switch level {
	case "error":
		r.logger.Error(msg)
	case "warn":
		r.logger.Warn(msg)
	default:
		r.logger.Info(msg)
	}
}

func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}
