package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "planner.v1.PlannerService"

// PlannerServiceServer is the server API for the planner service.
// Requests and responses are google.protobuf.Struct documents.
type PlannerServiceServer interface {
	PreviewProjection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProjection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProjection(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecalculateMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveForecastData(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GenerateForecast(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(PlannerServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// PlannerServiceDesc describes the planner service for grpc.Server registration
var PlannerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlannerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PreviewProjection", Handler: unaryHandler("PreviewProjection", PlannerServiceServer.PreviewProjection)},
		{MethodName: "CreateProjection", Handler: unaryHandler("CreateProjection", PlannerServiceServer.CreateProjection)},
		{MethodName: "GetProjection", Handler: unaryHandler("GetProjection", PlannerServiceServer.GetProjection)},
		{MethodName: "RecalculateMetrics", Handler: unaryHandler("RecalculateMetrics", PlannerServiceServer.RecalculateMetrics)},
		{MethodName: "SaveForecastData", Handler: unaryHandler("SaveForecastData", PlannerServiceServer.SaveForecastData)},
		{MethodName: "GenerateForecast", Handler: unaryHandler("GenerateForecast", PlannerServiceServer.GenerateForecast)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "planner/v1/planner.proto",
}

// RegisterPlannerServiceServer registers srv on a gRPC server
func RegisterPlannerServiceServer(s grpc.ServiceRegistrar, srv PlannerServiceServer) {
	s.RegisterService(&PlannerServiceDesc, srv)
}

// FullMethod returns the invocation path of a planner RPC
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler(method string, call unaryMethod) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(PlannerServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PlannerServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
