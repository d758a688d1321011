package pinmux

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/pinmux/logging"
	"go.viam.com/pinmux/utils"
)

type (
	// A Constructor acquires the pin-configuration subsystem of a device.
	Constructor func(ctx context.Context, conf DeviceConfig, logger logging.Logger) (Subsystem, error)

	// An AttributeMapConverter converts raw attributes into a model's native config.
	AttributeMapConverter func(attributes utils.AttributeMap) (interface{}, error)
)

// A Registration stores how to build the subsystem of a model. A constructor is mandatory.
type Registration struct {
	Constructor Constructor

	// AttributeMapConverter is used to convert raw attributes to the model's native config.
	AttributeMapConverter AttributeMapConverter
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Registration{}
)

// RegisterModel registers a subsystem model. It panics on a duplicate model or missing
// constructor; registration happens from init functions.
func RegisterModel(model string, reg Registration) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, old := registry[model]; old {
		panic(errors.Errorf("trying to register two pinmux models with same name %q", model))
	}
	if reg.Constructor == nil {
		panic(errors.Errorf("cannot register a nil constructor for pinmux model %q", model))
	}
	registry[model] = reg
}

// LookupModel returns the registration of a model.
func LookupModel(model string) (Registration, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	reg, ok := registry[model]
	return reg, ok
}

// RegisteredModels returns the names of every registered model, sorted.
func RegisteredModels() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	models := make([]string, 0, len(registry))
	for model := range registry {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// TransformAttributes returns a converter decoding attributes into a fresh T.
func TransformAttributes[T any]() AttributeMapConverter {
	return func(attributes utils.AttributeMap) (interface{}, error) {
		return utils.TransformAttributeMapToStruct(new(T), attributes)
	}
}
