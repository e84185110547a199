package mount

import (
	"log/slog"
	"sync"

	"github.com/idursun/threadview/internal/events"
	"github.com/idursun/threadview/internal/logger"
	"github.com/idursun/threadview/internal/schedule"
	"github.com/idursun/threadview/internal/vtree"
)

// TreeFactory builds the render tree of a mount for one pass.
type TreeFactory func(p *Pass) (*vtree.Node, error)

// WidgetFactory creates a custom node instance. args is the WidgetArgs of the
// node it is created for.
type WidgetFactory func(ctx *WidgetContext, args any) (Widget, error)

// App is the application context shared by all mounts: the factory
// registries, the event bus and the scheduler.
type App struct {
	Bus       *events.Bus
	Scheduler schedule.Scheduler

	mu      sync.RWMutex
	trees   map[string]TreeFactory
	widgets map[string]WidgetFactory
	log     *slog.Logger
}

func NewApp(s schedule.Scheduler, bus *events.Bus) *App {
	if bus == nil {
		bus = events.NewBus()
	}
	return &App{
		Bus:       bus,
		Scheduler: s,
		trees:     make(map[string]TreeFactory),
		widgets:   make(map[string]WidgetFactory),
		log:       logger.ComponentLogger("mount"),
	}
}

// RegisterTree registers the render-tree factory mounts named name use.
func (a *App) RegisterTree(name string, f TreeFactory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.trees[name] = f
}

// RegisterWidget registers the factory for custom nodes of type name.
func (a *App) RegisterWidget(name string, f WidgetFactory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.widgets[name] = f
}

// ResetForTesting drops every registration.
func (a *App) ResetForTesting() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.trees)
	clear(a.widgets)
}

func (a *App) tree(name string) (TreeFactory, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	f, ok := a.trees[name]
	return f, ok
}

func (a *App) widget(name string) (WidgetFactory, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	f, ok := a.widgets[name]
	return f, ok
}
