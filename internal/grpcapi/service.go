// Package grpcapi exposes the layer store as the gRPC service sidx.Index.
// Messages are the JSON types of package api carried by a JSON codec, so
// the service is registered by hand instead of from generated code.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"

	"github.com/go-sod/sidx/internal/api"
)

const ServiceName = "sidx.Index"

// IndexServer is the server API for the sidx.Index service.
type IndexServer interface {
	Insert(context.Context, *api.PointsRequest) (*api.StatusResponse, error)
	Delete(context.Context, *api.PointsRequest) (*api.DeleteResponse, error)
	Search(context.Context, *api.SearchRequest) (*api.PointsResponse, error)
	Nearest(context.Context, *api.NearestRequest) (*api.NearestResponse, error)
	Within(context.Context, *api.WithinRequest) (*api.PointsResponse, error)
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// unary adapts one typed method to the generic handler signature grpc
// dispatches to.
func unary(
	name string,
	newReq func() interface{},
	call func(srv IndexServer, ctx context.Context, req interface{}) (interface{}, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(IndexServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(IndexServer), ctx, req)
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IndexServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Insert",
			func() interface{} { return new(api.PointsRequest) },
			func(srv IndexServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.Insert(ctx, req.(*api.PointsRequest))
			}),
		unary("Delete",
			func() interface{} { return new(api.PointsRequest) },
			func(srv IndexServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.Delete(ctx, req.(*api.PointsRequest))
			}),
		unary("Search",
			func() interface{} { return new(api.SearchRequest) },
			func(srv IndexServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.Search(ctx, req.(*api.SearchRequest))
			}),
		unary("Nearest",
			func() interface{} { return new(api.NearestRequest) },
			func(srv IndexServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.Nearest(ctx, req.(*api.NearestRequest))
			}),
		unary("Within",
			func() interface{} { return new(api.WithinRequest) },
			func(srv IndexServer, ctx context.Context, req interface{}) (interface{}, error) {
				return srv.Within(ctx, req.(*api.WithinRequest))
			}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sidx/index",
}

// RegisterIndexServer registers srv on s.
func RegisterIndexServer(s *grpc.Server, srv IndexServer) {
	s.RegisterService(&serviceDesc, srv)
}
