package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name clients dial methods under, e.g. /portfolio.v1.PortfolioService/GetSnapshot
const ServiceName = "portfolio.v1.PortfolioService"

// PortfolioServiceServer is the server API of the portfolio service.
// Every method takes and returns a google.protobuf.Struct.
type PortfolioServiceServer interface {
	CreateGroup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListGroups(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ArchiveAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UnarchiveAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAssets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAsset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	AddTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	EditTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateBasket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateBasket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteBasket(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListBaskets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetSnapshot(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(srv PortfolioServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PortfolioServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PortfolioServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the portfolio service for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortfolioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateGroup", PortfolioServiceServer.CreateGroup),
		unaryMethod("ListGroups", PortfolioServiceServer.ListGroups),
		unaryMethod("CreateAsset", PortfolioServiceServer.CreateAsset),
		unaryMethod("UpdateAsset", PortfolioServiceServer.UpdateAsset),
		unaryMethod("ArchiveAsset", PortfolioServiceServer.ArchiveAsset),
		unaryMethod("UnarchiveAsset", PortfolioServiceServer.UnarchiveAsset),
		unaryMethod("DeleteAsset", PortfolioServiceServer.DeleteAsset),
		unaryMethod("ListAssets", PortfolioServiceServer.ListAssets),
		unaryMethod("GetAsset", PortfolioServiceServer.GetAsset),
		unaryMethod("AddTransaction", PortfolioServiceServer.AddTransaction),
		unaryMethod("EditTransaction", PortfolioServiceServer.EditTransaction),
		unaryMethod("DeleteTransaction", PortfolioServiceServer.DeleteTransaction),
		unaryMethod("CreateBasket", PortfolioServiceServer.CreateBasket),
		unaryMethod("UpdateBasket", PortfolioServiceServer.UpdateBasket),
		unaryMethod("DeleteBasket", PortfolioServiceServer.DeleteBasket),
		unaryMethod("ListBaskets", PortfolioServiceServer.ListBaskets),
		unaryMethod("GetSnapshot", PortfolioServiceServer.GetSnapshot),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "portfolio/v1/portfolio.proto",
}

// RegisterPortfolioServiceServer registers srv on s
func RegisterPortfolioServiceServer(s grpc.ServiceRegistrar, srv PortfolioServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
