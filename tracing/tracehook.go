// Package tracing provides hooks that observe the events dispatched by an
// engine.
package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/eventsim/hooking"
)

// CollectTrace attaches tracer to domain. Attaching the same tracer twice
// panics.
func CollectTrace(domain hooking.Hookable, tracer hooking.Hook) {
	for _, hook := range domain.Hooks() {
		if hook == tracer {
			panic(fmt.Sprintf("domain already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	domain.AcceptHook(tracer)
}

func payloadKind(payload any) string {
	if payload == nil {
		return "<nil>"
	}

	return reflect.TypeOf(payload).String()
}
