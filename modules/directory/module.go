package directory

import (
	"embed"

	"github.com/loophq/loop360/modules/directory/infrastructure/persistence"
	"github.com/loophq/loop360/modules/directory/services"
	"github.com/loophq/loop360/pkg/application"
)

//go:embed infrastructure/persistence/schema/directory-schema.sql
var migrationFiles embed.FS

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	app.RegisterServices(
		services.NewEmployeeService(persistence.NewEmployeeRepository(), app.EventPublisher()),
	)

	return nil
}

func (m *Module) Name() string {
	return "directory"
}
