package remote

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/seqmux/seqmux/pkg/order"
	"github.com/seqmux/seqmux/pkg/recordset"
	"github.com/seqmux/seqmux/pkg/sequence"
)

// Client consumes a served source as a local Source. Iteration pulls pages
// lazily, buffering one page at a time; Count and IsEmpty cost one RPC each.
//
// OrderBy does not move data: the ordering tokens ride along on every page
// request and the server orders before paging. FilterOrExclude has no wire
// equivalent (predicates are Go functions), so it materializes the remote
// records into an in-memory source first.
type Client struct {
	conn     *grpc.ClientConn
	ownsConn bool
	ctx      context.Context
	pageSize int
	tokens   []string // ordering tokens sent with each page request
}

var _ sequence.Source[recordset.Record] = (*Client)(nil)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPageSize sets how many records each page request asks for.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithContext sets the context used for all RPCs issued by the client.
func WithContext(ctx context.Context) ClientOption {
	return func(c *Client) { c.ctx = ctx }
}

// Dial connects to a served source. The connection is plaintext; wrap your
// own *grpc.ClientConn with NewClientFromConn for anything else.
func Dial(target string, opts ...ClientOption) (*Client, error) {
	dialCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(dialCtx, target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", target, err)
	}

	c := newClient(conn, opts...)
	c.ownsConn = true
	return c, nil
}

// NewClientFromConn wraps an existing connection. The caller keeps
// ownership of the connection's lifecycle.
func NewClientFromConn(conn *grpc.ClientConn, opts ...ClientOption) *Client {
	return newClient(conn, opts...)
}

func newClient(conn *grpc.ClientConn, opts ...ClientOption) *Client {
	c := &Client{
		conn:     conn,
		ctx:      context.Background(),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close closes the underlying connection if this client opened it.
func (c *Client) Close() error {
	if c.ownsConn && c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Count asks the server for its total record count.
func (c *Client) Count() (int, error) {
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(c.ctx, methodCount, new(structpb.Struct), resp); err != nil {
		return 0, fmt.Errorf("remote count: %w", err)
	}
	return int(resp.GetFields()[fieldCount].GetNumberValue()), nil
}

// IsEmpty reports whether the served source has no records. Remote
// emptiness costs one Count RPC.
func (c *Client) IsEmpty() (bool, error) {
	n, err := c.Count()
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// Clone returns an independent client over the same connection. Iteration
// state lives in iterators, so the copies never interfere.
func (c *Client) Clone() (sequence.Source[recordset.Record], error) {
	tokens := make([]string, len(c.tokens))
	copy(tokens, c.tokens)
	return &Client{conn: c.conn, ctx: c.ctx, pageSize: c.pageSize, tokens: tokens}, nil
}

// OrderBy returns a client whose page requests carry the given ordering.
func (c *Client) OrderBy(spec order.Spec) (sequence.Source[recordset.Record], error) {
	nc := &Client{conn: c.conn, ctx: c.ctx, pageSize: c.pageSize, tokens: spec.Tokens()}
	return nc, nil
}

// FilterOrExclude pulls the remote records local and filters them there.
func (c *Client) FilterOrExclude(negate bool, pred func(recordset.Record) bool) (sequence.Source[recordset.Record], error) {
	it, err := c.Iterate()
	if err != nil {
		return nil, err
	}
	records, err := sequence.Collect(it)
	if err != nil {
		return nil, err
	}
	return recordset.NewRecords(records...).FilterOrExclude(negate, pred)
}

// Iterate starts a fresh paged pass over the served source.
func (c *Client) Iterate() (sequence.Iterator[recordset.Record], error) {
	return &pageIterator{client: c, more: true}, nil
}

func (c *Client) fetchPage(cursor int) ([]recordset.Record, int, bool, error) {
	fields := map[string]*structpb.Value{
		fieldCursor: structpb.NewNumberValue(float64(cursor)),
		fieldLimit:  structpb.NewNumberValue(float64(c.pageSize)),
	}
	if len(c.tokens) > 0 {
		fields[fieldOrder] = stringList(c.tokens)
	}

	resp := new(structpb.Struct)
	if err := c.conn.Invoke(c.ctx, methodPage, &structpb.Struct{Fields: fields}, resp); err != nil {
		return nil, 0, false, fmt.Errorf("remote page: %w", err)
	}

	rf := resp.GetFields()
	var records []recordset.Record
	if lv := rf[fieldRecords].GetListValue(); lv != nil {
		records = make([]recordset.Record, 0, len(lv.GetValues()))
		for _, v := range lv.GetValues() {
			if sv := v.GetStructValue(); sv != nil {
				records = append(records, sv.AsMap())
			}
		}
	}
	next := int(rf[fieldNext].GetNumberValue())
	more := rf[fieldMore].GetBoolValue()
	return records, next, more, nil
}

// pageIterator walks pages one at a time. At most one page is buffered; the
// next page is only requested once the buffered one is fully consumed.
type pageIterator struct {
	client *Client
	page   []recordset.Record
	pos    int
	cursor int
	more   bool
	err    error
}

func (it *pageIterator) Next() bool {
	if it.err != nil {
		return false
	}
	for it.pos >= len(it.page) {
		if !it.more {
			return false
		}
		page, next, more, err := it.client.fetchPage(it.cursor)
		if err != nil {
			it.err = err
			return false
		}
		it.page = page
		it.pos = 0
		it.cursor = next
		it.more = more
		if len(page) == 0 && !more {
			return false
		}
	}
	it.pos++
	return true
}

func (it *pageIterator) Value() recordset.Record {
	if it.pos == 0 || it.pos > len(it.page) {
		return nil
	}
	return it.page[it.pos-1]
}

func (it *pageIterator) Err() error { return it.err }
