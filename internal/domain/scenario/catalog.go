package scenario

import (
	"fmt"

	"github.com/ganot/agentic-te/internal/domain/activity"
	"github.com/ganot/agentic-te/internal/policy"
)

// Script is a named, timer-sequenced story of agent steps.
type Script struct {
	Name        string               `json:"name"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Agents      []activity.AgentType `json:"agents"`
	Defaults    Params               `json:"defaults"`
	Static      bool                 `json:"static"`

	build func(p Params, rules policy.Rules, plan *Plan)
}

// Catalog holds the registered scripts.
type Catalog struct {
	rules   policy.Rules
	scripts map[string]Script
	order   []string
}

// NewCatalog creates a catalog with every built-in script.
func NewCatalog(rules policy.Rules) *Catalog {
	c := &Catalog{rules: rules, scripts: make(map[string]Script)}
	for _, s := range builtinScripts() {
		c.Register(s)
	}
	return c
}

// Register adds or replaces a script.
func (c *Catalog) Register(s Script) {
	if _, exists := c.scripts[s.Name]; !exists {
		c.order = append(c.order, s.Name)
	}
	c.scripts[s.Name] = s
}

// Get returns a script by name.
func (c *Catalog) Get(name string) (Script, error) {
	s, ok := c.scripts[name]
	if !ok {
		return Script{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return s, nil
}

// List returns every script in registration order.
func (c *Catalog) List() []Script {
	out := make([]Script, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.scripts[name])
	}
	return out
}

// Rules returns the policy the scripts are built against.
func (c *Catalog) Rules() policy.Rules {
	return c.rules
}

// Plan builds the named script's plan from normalized params.
func (c *Catalog) Plan(name string, p Params) (*Plan, error) {
	s, err := c.Get(name)
	if err != nil {
		return nil, err
	}
	p = p.Normalize().withDefaults(s.Defaults)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	plan := &Plan{}
	s.build(p, c.rules, plan)
	return plan, nil
}
