package plugin

import (
	"context"
	"fmt"

	"github.com/ayusman/kinectkeys/internal/input"
)

// Injector forwards key transitions to a plugin, one process per transition.
type Injector struct {
	executor *Executor
	plugin   *Plugin
}

// NewInjector creates an Injector for plugin. The plugin must support ActionKey.
func NewInjector(executor *Executor, plugin *Plugin) (*Injector, error) {
	if !plugin.Manifest.Supports(ActionKey) {
		return nil, fmt.Errorf("plugin %s does not support action %q", plugin.Manifest.Name, ActionKey)
	}
	return &Injector{executor: executor, plugin: plugin}, nil
}

// Inject implements input.Injector.
func (i *Injector) Inject(key input.KeyCode, t input.Transition) error {
	req := &Request{
		Action:     ActionKey,
		Key:        key.String(),
		Code:       uint16(key),
		Transition: t.String(),
	}

	resp, err := i.executor.Execute(context.Background(), i.plugin, req)
	if err != nil {
		return fmt.Errorf("plugin %s: %w", i.plugin.Manifest.Name, err)
	}
	if !resp.Success {
		return fmt.Errorf("plugin %s: %s %s: %s", i.plugin.Manifest.Name, req.Key, req.Transition, resp.Error)
	}
	return nil
}
