package core

import (
	"maps"
	"slices"

	"github.com/google/uuid"
)

// ContextMap is a persistent, layered mapping visible to descendants. Each
// contributing instance pushes one layer; siblings never see each other's
// layers. A nil *ContextMap is empty.
type ContextMap struct {
	parent  *ContextMap
	entries map[any]any
}

// Get returns the nearest value stored under key.
func (m *ContextMap) Get(key any) (any, bool) {
	for layer := m; layer != nil; layer = layer.parent {
		if v, ok := layer.entries[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// With returns a new layer on top of m. The entries are copied.
func (m *ContextMap) With(entries map[any]any) *ContextMap {
	if len(entries) == 0 {
		return m
	}
	return &ContextMap{parent: m, entries: maps.Clone(entries)}
}

// Depth returns the number of layers.
func (m *ContextMap) Depth() int {
	n := 0
	for layer := m; layer != nil; layer = layer.parent {
		n++
	}
	return n
}

func (m *ContextMap) provider(id ChannelID) *Instance {
	v, ok := m.Get(id)
	if !ok {
		return nil
	}
	inst, _ := v.(*Instance)
	return inst
}

// ChannelID uniquely identifies a Channel.
type ChannelID string

// Channel is a named propagation path from a Provider instance to
// descendant consumers, bypassing intermediate descriptors.
type Channel struct {
	ID           ChannelID
	DefaultValue any
	// Provider makes its "value" prop visible to descendants.
	Provider *ComponentType
	// Consumer calls its single child function with the nearest value.
	Consumer *ComponentType
}

// CreateChannel creates a channel whose consumers see defaultValue when no
// provider encloses them.
func CreateChannel(defaultValue any) *Channel {
	ch := &Channel{
		ID:           ChannelID("ctx-" + uuid.NewString()),
		DefaultValue: defaultValue,
	}
	ch.Consumer = &ComponentType{
		Name:        "Consumer",
		ContextType: ch,
		Func: func(props Props, value any) any {
			switch fn := props[ChildrenProp].(type) {
			case func(any) any:
				return fn(value)
			case func(any) *Descriptor:
				return fn(value)
			}
			return nil
		},
	}
	ch.Provider = &ComponentType{
		Name:    "Provider",
		channel: ch,
		New: func() Component {
			return &provider{channel: ch}
		},
	}
	return ch
}

// Channel returns the channel a Provider type belongs to, or nil.
func (t *ComponentType) Channel() *Channel {
	return t.channel
}

// provider is the component behind Channel.Provider.
type provider struct {
	Base
	channel     *Channel
	subscribers []*Instance
}

func (p *provider) Render(props Props, _ State, _ any) any {
	return props[ChildrenProp]
}

// ChildContext stores the provider instance under the channel id.
func (p *provider) ChildContext() map[any]any {
	return map[any]any{p.channel.ID: p.inst}
}

// ShouldUpdate pushes a changed value to every subscriber and schedules
// each for re-render. The provider itself always renders.
func (p *provider) ShouldUpdate(next Props, _ State, _ any) bool {
	value := next["value"]
	if !sameValue(p.Props()["value"], value) {
		for _, sub := range p.subscribers {
			sub.context = value
			sub.enqueueRender()
		}
	}
	return true
}

// Subscribe registers inst for value pushes until it unmounts.
func (p *provider) Subscribe(inst *Instance) {
	p.subscribers = append(p.subscribers, inst)
	inst.onTeardown(func() {
		p.subscribers = slices.DeleteFunc(p.subscribers, func(s *Instance) bool {
			return s == inst
		})
	})
}

// Subscribers returns the number of registered subscribers.
func (p *provider) Subscribers() int {
	return len(p.subscribers)
}

type subscriber interface {
	Subscribe(inst *Instance)
}

// resolveContext returns the value the instance of t sees at a position
// whose context map is ctx, plus the providing instance if any.
func resolveContext(t *ComponentType, ctx *ContextMap) (any, *Instance) {
	if t.ContextType == nil {
		return ctx, nil
	}
	if p := ctx.provider(t.ContextType.ID); p != nil {
		return p.props["value"], p
	}
	return t.ContextType.DefaultValue, nil
}
