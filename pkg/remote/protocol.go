// Package remote exposes a local Source over gRPC and consumes a served
// source as a Source again on the client side. The wire protocol is
// page-based: the client pulls cursor+limit pages lazily, buffering at most
// one page, and propagates ordering requests as part of each page request so
// the server orders before paging.
//
// Messages travel as structpb values, so the protocol needs no generated
// code; the service is registered through a hand-written descriptor.
package remote

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName = "seqmux.Source"

	methodCount = "/seqmux.Source/Count"
	methodPage  = "/seqmux.Source/Page"
)

// Request/response field names shared by client and server.
const (
	fieldCursor  = "cursor"
	fieldLimit   = "limit"
	fieldOrder   = "order"
	fieldRecords = "records"
	fieldNext    = "next"
	fieldMore    = "more"
	fieldCount   = "count"
)

// backend is the server-side contract behind the service descriptor.
type backend interface {
	Count(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Page(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*backend)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Count", Handler: countHandler},
		{MethodName: "Page", Handler: pageHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "seqmux/source.proto",
}

func countHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(backend).Count(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodCount}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(backend).Count(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func pageHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(backend).Page(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodPage}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(backend).Page(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func stringList(tokens []string) *structpb.Value {
	vals := make([]*structpb.Value, len(tokens))
	for i, t := range tokens {
		vals[i] = structpb.NewStringValue(t)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

func stringsFromList(v *structpb.Value) []string {
	lv := v.GetListValue()
	if lv == nil {
		return nil
	}
	out := make([]string, 0, len(lv.GetValues()))
	for _, e := range lv.GetValues() {
		if s := e.GetStringValue(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
