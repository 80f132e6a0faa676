package registry

import (
	"strconv"

	"escrowchain/core/types"
)

const (
	EventTypeMinted      = "registry.minted"
	EventTypeBurned      = "registry.burned"
	EventTypeTransferred = "registry.transferred"
)

type registryEvent struct {
	evt *types.Event
}

func (r registryEvent) EventType() string { return r.evt.Type }

func (r registryEvent) Event() *types.Event { return r.evt }

func newRegistryEvent(eventType string, e *Engine, tokenID uint64, extra map[string]string) registryEvent {
	attrs := map[string]string{
		"registry": e.id,
		"kind":     e.kind.String(),
		"tokenId":  strconv.FormatUint(tokenID, 10),
	}
	for k, v := range extra {
		attrs[k] = v
	}
	return registryEvent{evt: &types.Event{Type: eventType, Attributes: attrs}}
}
