// Package rpc exposes catalogue and order lookups over gRPC as
// storefront.v1.Storefront. Messages are google.protobuf.Struct values so
// no generated code is needed:
//
//	GetProduct     {id}             -> product fields
//	GetOrderStatus {invoice_number} -> {status, payment_status, total_amount}
package rpc

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const (
	ServiceName = "storefront.v1.Storefront"

	MethodGetProduct     = "/" + ServiceName + "/GetProduct"
	MethodGetOrderStatus = "/" + ServiceName + "/GetOrderStatus"
)

// StorefrontServer is the server side of storefront.v1.Storefront.
type StorefrontServer interface {
	GetProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrderStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// Service answers lookups from the catalogue and order services.
type Service struct {
	catalog *services.CatalogService
	orders  *services.OrderService
}

func NewService(catalog *services.CatalogService, orders *services.OrderService) *Service {
	return &Service{catalog: catalog, orders: orders}
}

// Register attaches s to srv.
func Register(srv *grpc.Server, s StorefrontServer) {
	srv.RegisterService(&serviceDesc, s)
}

func (s *Service) GetProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id := in.GetFields()["id"].GetNumberValue()
	if id < 1 {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	p, err := s.catalog.Product(ctx, uint(id))
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	fields := map[string]interface{}{
		"id":             float64(p.ID),
		"name":           p.Name,
		"slug":           p.Slug,
		"description":    p.Description,
		"price":          p.Price,
		"current_price":  p.CurrentPrice(),
		"category_id":    float64(p.CategoryID),
		"stock_quantity": float64(p.StockQuantity),
		"in_stock":       p.StockQuantity > 0,
		"image_url":      p.ImageURL,
		"is_featured":    p.IsFeatured,
	}
	if p.Category != nil {
		fields["category"] = p.Category.Name
	}
	return structpb.NewStruct(fields)
}

func (s *Service) GetOrderStatus(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	number := in.GetFields()["invoice_number"].GetStringValue()
	if number == "" {
		return nil, status.Error(codes.InvalidArgument, "invoice_number is required")
	}
	o, err := s.orders.ByInvoice(ctx, number)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"invoice_number": o.Invoice(),
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"total_amount":   o.TotalAmount,
	})
}

func toStatus(ctx context.Context, err error) error {
	if e, ok := services.AsError(err); ok {
		switch e.Status {
		case http.StatusNotFound:
			return status.Error(codes.NotFound, e.Message)
		case http.StatusBadRequest:
			return status.Error(codes.InvalidArgument, e.Message)
		}
		return status.Error(codes.FailedPrecondition, e.Message)
	}
	logger.WithCtx(ctx).Error("rpc: lookup failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}

func unary(method string, call func(StorefrontServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(StorefrontServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(StorefrontServer), ctx, req.(*structpb.Struct))
		})
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*StorefrontServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: unary(MethodGetProduct, StorefrontServer.GetProduct)},
		{MethodName: "GetOrderStatus", Handler: unary(MethodGetOrderStatus, StorefrontServer.GetOrderStatus)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/v1/storefront.proto",
}
