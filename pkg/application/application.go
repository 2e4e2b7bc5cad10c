package application

import (
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loophq/loop360/pkg/eventbus"
)

// Module is a self-contained feature package that registers its services
// and schema with the application.
type Module interface {
	Name() string
	Register(app Application) error
}

// Application is the composition root shared by all modules.
type Application interface {
	DB() *pgxpool.Pool
	EventPublisher() eventbus.EventBus
	Migrations() *MigrationRegistry

	// RegisterServices registers services in the application by their type.
	RegisterServices(services ...interface{})
	// Service retrieves a service by the type of the given zero value.
	Service(service interface{}) interface{}
	Services() map[reflect.Type]interface{}
}

type ApplicationOptions struct {
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
}

func New(opts *ApplicationOptions) Application {
	return &application{
		pool:       opts.Pool,
		bus:        opts.EventBus,
		migrations: NewMigrationRegistry(),
		services:   make(map[reflect.Type]interface{}),
	}
}

type application struct {
	pool       *pgxpool.Pool
	bus        eventbus.EventBus
	migrations *MigrationRegistry
	services   map[reflect.Type]interface{}
}

func (app *application) DB() *pgxpool.Pool {
	return app.pool
}

func (app *application) EventPublisher() eventbus.EventBus {
	return app.bus
}

func (app *application) Migrations() *MigrationRegistry {
	return app.migrations
}

func (app *application) RegisterServices(services ...interface{}) {
	for _, service := range services {
		serviceType := reflect.TypeOf(service).Elem()
		app.services[serviceType] = service
	}
}

func (app *application) Service(service interface{}) interface{} {
	serviceType := reflect.TypeOf(service)
	svc, exists := app.services[serviceType]
	if !exists {
		panic(fmt.Sprintf("service %s not found", serviceType.Name()))
	}
	return svc
}

func (app *application) Services() map[reflect.Type]interface{} {
	return app.services
}
