package sparksee

import (
	"context"

	"google.golang.org/grpc"

	"github.com/ArystanIgen/master-thesis-files/internal/graphdb"
)

// ServerOptions returns the server options a gRPC server needs to speak the
// engine wire format.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{grpc.ForceServerCodec(Codec{})}
}

// RegisterEngine serves engine as the SparkseeGRPCServer service on s. It lets
// an in-process graphdb.Engine stand in for a real engine, which is how the
// transport is exercised end to end without one. The server must be created
// with ServerOptions.
func RegisterEngine(s grpc.ServiceRegistrar, engine graphdb.Engine) {
	s.RegisterService(&serviceDesc, engine)
}

type unaryHandler func(ctx context.Context, engine graphdb.Engine, dec func(any) error) (any, error)

func method(name string, h unaryHandler) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			engine := srv.(graphdb.Engine)
			if interceptor == nil {
				return h(ctx, engine, dec)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, nil, info, func(ctx context.Context, _ any) (any, error) {
				return h(ctx, engine, dec)
			})
		},
	}
}

func sessionCall(call func(graphdb.Engine, context.Context, graphdb.SessionHandle) error) unaryHandler {
	return func(ctx context.Context, engine graphdb.Engine, dec func(any) error) (any, error) {
		var req sessionMsg
		if err := dec(&req); err != nil {
			return nil, err
		}
		if err := call(engine, ctx, graphdb.SessionHandle{ID: req.ID}); err != nil {
			return nil, err
		}
		return &emptyMsg{}, nil
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*graphdb.Engine)(nil),
	Methods: []grpc.MethodDesc{
		method("NewSession", func(ctx context.Context, engine graphdb.Engine, dec func(any) error) (any, error) {
			var req emptyMsg
			if err := dec(&req); err != nil {
				return nil, err
			}
			s, err := engine.OpenSession(ctx)
			if err != nil {
				return nil, err
			}
			return &sessionMsg{ID: s.ID}, nil
		}),
		method("BeginTx", sessionCall(graphdb.Engine.BeginTx)),
		method("RunQuery", func(ctx context.Context, engine graphdb.Engine, dec func(any) error) (any, error) {
			var req queryMsg
			if err := dec(&req); err != nil {
				return nil, err
			}
			stmt := graphdb.Statement{Text: req.Text, Dialect: req.Dialect}
			q, err := engine.RunQuery(ctx, graphdb.SessionHandle{ID: req.Session.ID}, stmt)
			if err != nil {
				return nil, err
			}
			return &queryIDMsg{QueryID: int64(q)}, nil
		}),
		method("GetResultRows", func(ctx context.Context, engine graphdb.Engine, dec func(any) error) (any, error) {
			var req resultRowsArgsMsg
			if err := dec(&req); err != nil {
				return nil, err
			}
			rows, err := engine.FetchRows(ctx,
				graphdb.SessionHandle{ID: req.ID.Session.ID},
				graphdb.QueryID(req.ID.QueryID),
				int(req.MaxRows))
			if err != nil {
				return nil, err
			}
			return &resultRowsMsg{Rows: rows}, nil
		}),
		method("CloseQuery", func(ctx context.Context, engine graphdb.Engine, dec func(any) error) (any, error) {
			var req resultSetIDMsg
			if err := dec(&req); err != nil {
				return nil, err
			}
			err := engine.CloseQuery(ctx, graphdb.SessionHandle{ID: req.Session.ID}, graphdb.QueryID(req.QueryID))
			if err != nil {
				return nil, err
			}
			return &emptyMsg{}, nil
		}),
		method("CommitTx", sessionCall(graphdb.Engine.CommitTx)),
		method("RollbackTx", sessionCall(graphdb.Engine.RollbackTx)),
		method("EndSession", sessionCall(graphdb.Engine.EndSession)),
	},
	Metadata: "api/sparksee_server.proto",
}
