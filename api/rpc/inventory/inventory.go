// Package inventoryrpc is the gRPC contract of the inventory service. Messages
// are plain Go structs carried by a JSON codec registered under CodecName.
package inventoryrpc

import (
	"context"
	"encoding/json"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
)

const (
	CodecName   = "json"
	ServiceName = "inventory.v1.InventoryService"

	ListBatchesMethod = "/" + ServiceName + "/ListBatches"
	DepleteMethod     = "/" + ServiceName + "/Deplete"
	RestockMethod     = "/" + ServiceName + "/Restock"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

type Batch struct {
	ID         uint      `json:"id"`
	BatchCode  string    `json:"batch_code"`
	Quantity   int       `json:"quantity"`
	ExpiryDate time.Time `json:"expiry_date"`
	ProductID  uint      `json:"product_id"`
}

type Allocation struct {
	BatchID  uint `json:"batch_id"`
	Quantity int  `json:"quantity"`
}

type ListBatchesRequest struct {
	ProductID uint `json:"product_id"`
}

type ListBatchesResponse struct {
	ProductFound bool    `json:"product_found"`
	Batches      []Batch `json:"batches"`
}

type DepleteRequest struct {
	ProductID   uint   `json:"product_id"`
	Quantity    int    `json:"quantity"`
	StrategyKey string `json:"strategy_key,omitempty"`
}

type DepleteResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Strategy    string       `json:"strategy"`
	Allocations []Allocation `json:"allocations"`
}

type RestockRequest struct {
	ProductID   uint         `json:"product_id"`
	Allocations []Allocation `json:"allocations"`
}

type RestockResponse struct {
	Restocked int `json:"restocked"`
}

// InventoryServiceServer is implemented by the inventory service
type InventoryServiceServer interface {
	ListBatches(context.Context, *ListBatchesRequest) (*ListBatchesResponse, error)
	Deplete(context.Context, *DepleteRequest) (*DepleteResponse, error)
	Restock(context.Context, *RestockRequest) (*RestockResponse, error)
}

// UnimplementedInventoryServiceServer can be embedded to satisfy the interface
type UnimplementedInventoryServiceServer struct{}

func (UnimplementedInventoryServiceServer) ListBatches(context.Context, *ListBatchesRequest) (*ListBatchesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListBatches not implemented")
}

func (UnimplementedInventoryServiceServer) Deplete(context.Context, *DepleteRequest) (*DepleteResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Deplete not implemented")
}

func (UnimplementedInventoryServiceServer) Restock(context.Context, *RestockRequest) (*RestockResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Restock not implemented")
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListBatches", Handler: listBatchesHandler},
		{MethodName: "Deplete", Handler: depleteHandler},
		{MethodName: "Restock", Handler: restockHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "inventory/v1/inventory.json",
}

func listBatchesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListBatchesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).ListBatches(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListBatchesMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InventoryServiceServer).ListBatches(ctx, req.(*ListBatchesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func depleteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(DepleteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).Deplete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: DepleteMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InventoryServiceServer).Deplete(ctx, req.(*DepleteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func restockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(RestockRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(InventoryServiceServer).Restock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RestockMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(InventoryServiceServer).Restock(ctx, req.(*RestockRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// InventoryServiceClient calls the inventory service
type InventoryServiceClient interface {
	ListBatches(ctx context.Context, in *ListBatchesRequest, opts ...grpc.CallOption) (*ListBatchesResponse, error)
	Deplete(ctx context.Context, in *DepleteRequest, opts ...grpc.CallOption) (*DepleteResponse, error)
	Restock(ctx context.Context, in *RestockRequest, opts ...grpc.CallOption) (*RestockResponse, error)
}

type inventoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewInventoryServiceClient(cc grpc.ClientConnInterface) InventoryServiceClient {
	return &inventoryServiceClient{cc: cc}
}

func (c *inventoryServiceClient) ListBatches(ctx context.Context, in *ListBatchesRequest, opts ...grpc.CallOption) (*ListBatchesResponse, error) {
	out := new(ListBatchesResponse)
	if err := c.cc.Invoke(ctx, ListBatchesMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryServiceClient) Deplete(ctx context.Context, in *DepleteRequest, opts ...grpc.CallOption) (*DepleteResponse, error) {
	out := new(DepleteResponse)
	if err := c.cc.Invoke(ctx, DepleteMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *inventoryServiceClient) Restock(ctx context.Context, in *RestockRequest, opts ...grpc.CallOption) (*RestockResponse, error) {
	out := new(RestockResponse)
	if err := c.cc.Invoke(ctx, RestockMethod, in, out, withCodec(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func withCodec(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
}
