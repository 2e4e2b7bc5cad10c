package modules

import (
	"github.com/loophq/loop360/modules/directory"
	"github.com/loophq/loop360/modules/feedback"
	"github.com/loophq/loop360/pkg/application"
)

var BuiltInModules = []application.Module{
	directory.NewModule(),
	feedback.NewModule(nil),
}

// Load registers the given modules, or the built-in set when none are
// passed.
func Load(app application.Application, externalModules ...application.Module) error {
	modules := BuiltInModules
	if len(externalModules) > 0 {
		modules = externalModules
	}
	for _, module := range modules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
