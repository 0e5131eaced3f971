package bot

import (
	"testing"
)

// stubModule is a test double for Module
type stubModule struct {
	name          string
	commands      []TextCommand
	eventHandlers []EventHandler
	initErr       error
	shutErr       error
	initCalled    bool
}

func (m *stubModule) Name() string                  { return m.name }
func (m *stubModule) TextCommands() []TextCommand   { return m.commands }
func (m *stubModule) EventHandlers() []EventHandler { return m.eventHandlers }
func (m *stubModule) Init(deps ModuleDependencies) error {
	m.initCalled = true
	return m.initErr
}
func (m *stubModule) Shutdown() error { return m.shutErr }

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	mod := &stubModule{name: "test-module"}
	reg.Register(mod)

	modules := reg.Modules()
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}

	if modules[0].Name() != "test-module" {
		t.Errorf("expected module name %q, got %q", "test-module", modules[0].Name())
	}
}

func TestRegistry_RegisterMultiple(t *testing.T) {
	reg := NewRegistry()

	reg.Register(&stubModule{name: "module-1"})
	reg.Register(&stubModule{name: "module-2"})

	modules := reg.Modules()
	if len(modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(modules))
	}
}

func TestRegistry_DuplicateNameIgnored(t *testing.T) {
	reg := NewRegistry()

	first := &stubModule{name: "dup"}
	second := &stubModule{name: "dup"}
	reg.Register(first)
	reg.Register(second)

	modules := reg.Modules()
	if len(modules) != 1 {
		t.Fatalf("expected duplicate to be dropped, got %d modules", len(modules))
	}
	if modules[0] != Module(first) {
		t.Error("expected the first registration to win")
	}
}

func TestRegistry_ModulesReturnsSnapshot(t *testing.T) {
	reg := NewRegistry()

	reg.Register(&stubModule{name: "module-1"})
	modules := reg.Modules()

	// Register another module after getting snapshot
	reg.Register(&stubModule{name: "module-2"})

	// Original snapshot should not be affected
	if len(modules) != 1 {
		t.Errorf("expected snapshot to have 1 module, got %d", len(modules))
	}
}

func TestGlobalRegistry(t *testing.T) {
	ResetGlobalRegistry()

	Register(&stubModule{name: "global-test"})

	modules := Modules()
	if len(modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(modules))
	}

	if modules[0].Name() != "global-test" {
		t.Errorf("expected module name %q, got %q", "global-test", modules[0].Name())
	}

	ResetGlobalRegistry()
}
