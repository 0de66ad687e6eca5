package remote

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/seqmux/seqmux/pkg/common/log"
	"github.com/seqmux/seqmux/pkg/order"
	"github.com/seqmux/seqmux/pkg/recordset"
	"github.com/seqmux/seqmux/pkg/sequence"
)

// DefaultPageSize is used when a page request carries no limit.
const DefaultPageSize = 128

// Server serves one local Source over gRPC. Page requests are stateless:
// each one re-iterates the (optionally reordered) source and skips to the
// cursor, so the server holds no per-client state between calls.
type Server struct {
	src        sequence.Source[recordset.Record]
	logger     log.Logger
	grpcServer *grpc.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server's logger.
func WithLogger(logger log.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a server over src.
func NewServer(src sequence.Source[recordset.Record], opts ...ServerOption) *Server {
	s := &Server{src: src, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches the source service to an existing gRPC server.
func (s *Server) Register(g *grpc.Server) {
	g.RegisterService(&serviceDesc, s)
}

// Serve creates a gRPC server on lis and blocks until Stop or failure.
func (s *Server) Serve(lis net.Listener) error {
	s.grpcServer = grpc.NewServer()
	s.Register(s.grpcServer)
	s.logger.Info("serving source on %s", lis.Addr())
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops a server started with Serve.
func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

// Count handles the Count RPC.
func (s *Server) Count(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	n, err := s.src.Count()
	if err != nil {
		s.logger.Error("count failed: %v", err)
		return nil, err
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldCount: structpb.NewNumberValue(float64(n)),
	}}, nil
}

// Page handles the Page RPC: order the source as requested, skip to the
// cursor, return up to limit records and whether more remain.
func (s *Server) Page(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	cursor := int(fields[fieldCursor].GetNumberValue())
	limit := int(fields[fieldLimit].GetNumberValue())
	if limit <= 0 {
		limit = DefaultPageSize
	}
	tokens := stringsFromList(fields[fieldOrder])

	src := s.src
	if len(tokens) > 0 {
		spec, err := order.Parse(tokens...)
		if err != nil {
			return nil, err
		}
		src, err = s.src.OrderBy(spec)
		if err != nil {
			s.logger.Error("order_by failed: %v", err)
			return nil, err
		}
	}

	it, err := src.Iterate()
	if err != nil {
		s.logger.Error("iterate failed: %v", err)
		return nil, err
	}
	for skipped := 0; skipped < cursor; skipped++ {
		if !it.Next() {
			if err := it.Err(); err != nil {
				return nil, err
			}
			return pageResponse(nil, cursor, false)
		}
	}

	vals := make([]*structpb.Value, 0, limit)
	for len(vals) < limit && it.Next() {
		rec, err := structpb.NewStruct(it.Value())
		if err != nil {
			return nil, fmt.Errorf("encode record: %w", err)
		}
		vals = append(vals, structpb.NewStructValue(rec))
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	// Peek one element past the page to report whether more remain.
	more := it.Next()
	if err := it.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("page served cursor=%d size=%d more=%v", cursor, len(vals), more)
	return pageValues(vals, cursor+len(vals), more)
}

func pageResponse(records []recordset.Record, next int, more bool) (*structpb.Struct, error) {
	vals := make([]*structpb.Value, 0, len(records))
	for _, r := range records {
		rec, err := structpb.NewStruct(r)
		if err != nil {
			return nil, fmt.Errorf("encode record: %w", err)
		}
		vals = append(vals, structpb.NewStructValue(rec))
	}
	return pageValues(vals, next, more)
}

func pageValues(vals []*structpb.Value, next int, more bool) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldRecords: structpb.NewListValue(&structpb.ListValue{Values: vals}),
		fieldNext:    structpb.NewNumberValue(float64(next)),
		fieldMore:    structpb.NewBoolValue(more),
	}}, nil
}
