package mysql

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides a shared *Connection to an FX application and binds its
// lifecycle to the application's. Stores pick the connection up through
// their own constructors:
//
//	fx.Provide(func(conn *mysql.Connection) *DummyStore {
//		return NewDummyStore().WithConnection(conn)
//	})
var FXModule = fx.Module("mysql",
	fx.Provide(NewConnectionWithDI),
	fx.Invoke(RegisterConnectionLifecycle),
)

// Params contains the dependencies needed to create a Connection. Logger,
// Discovery and CredentialStore are optional; the connection runs without
// them.
type Params struct {
	fx.In

	Config      Config
	Logger      Logger          `optional:"true"`
	Discovery   Discovery       `optional:"true"`
	Credentials CredentialStore `optional:"true"`
}

// NewConnectionWithDI creates a Connection from injected dependencies.
func NewConnectionWithDI(params Params) *Connection {
	conn := NewConnection(params.Config)
	if params.Logger != nil {
		conn.WithLogger(params.Logger)
	}
	if params.Discovery != nil {
		conn.WithDiscovery(params.Discovery)
	}
	if params.Credentials != nil {
		conn.WithCredentialStore(params.Credentials)
	}
	return conn
}

// LifecycleParams contains the dependencies needed to register the
// connection lifecycle hooks.
type LifecycleParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Connection *Connection
}

// RegisterConnectionLifecycle opens the connection on application start and
// closes it on application stop.
func RegisterConnectionLifecycle(params LifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return params.Connection.Open(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return params.Connection.Close(ctx)
		},
	})
}
