package feedback

import (
	"embed"

	directorypersistence "github.com/loophq/loop360/modules/directory/infrastructure/persistence"
	"github.com/loophq/loop360/modules/feedback/infrastructure/persistence"
	"github.com/loophq/loop360/modules/feedback/services"
	"github.com/loophq/loop360/pkg/application"
	"github.com/loophq/loop360/pkg/configuration"
)

//go:embed infrastructure/persistence/schema/feedback-schema.sql
var migrationFiles embed.FS

// ModuleOptions lets the host swap the identity boundary. Zero values wire
// the logging provisioner and the deterministic password generator, which
// is what local development and tests want.
type ModuleOptions struct {
	Provisioner services.AccountProvisioner
	Passwords   services.PasswordGenerator
}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	if opts.Provisioner == nil {
		opts.Provisioner = &services.LoggingAccountProvisioner{}
	}
	if opts.Passwords == nil {
		opts.Passwords = services.NewPasswordGenerator(configuration.Use().PasswordSalt)
	}
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	app.Migrations().RegisterSchema(&migrationFiles)

	employeeRepo := directorypersistence.NewEmployeeRepository()
	subjectRepo := persistence.NewSubjectRepository()
	evaluatorRepo := persistence.NewEvaluatorRepository()
	edgeRepo := persistence.NewRelationshipRepository()
	assignmentRepo := persistence.NewAssignmentRepository()

	relationshipService := services.NewRelationshipService(
		employeeRepo,
		subjectRepo,
		evaluatorRepo,
		edgeRepo,
		m.options.Provisioner,
		m.options.Passwords,
		app.EventPublisher(),
	)

	app.RegisterServices(
		relationshipService,
		services.NewBulkMergeService(
			employeeRepo,
			subjectRepo,
			evaluatorRepo,
			relationshipService,
			m.options.Provisioner,
			m.options.Passwords,
			app.EventPublisher(),
		),
		services.NewAssignmentService(edgeRepo, assignmentRepo),
	)

	return nil
}

func (m *Module) Name() string {
	return "feedback"
}
