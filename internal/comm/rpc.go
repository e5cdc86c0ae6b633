package comm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"epi-ca/internal/epidemic"
)

// JoinArgs identifies a worker asking for a rank.
type JoinArgs struct {
	Name string
}

// JoinReply assigns the worker its rank and hands over the run manifest.
type JoinReply struct {
	Rank     int
	Size     int
	Manifest []byte
}

// RankArgs names the caller of a blocking receive.
type RankArgs struct {
	Rank int
}

// Block carries one rank's cells in either direction.
type Block struct {
	Rank  int
	Cells []epidemic.Cell
}

// AbortArgs propagates a worker failure to the hub.
type AbortArgs struct {
	Rank   int
	Reason string
}

// Ack is the empty reply. gob refuses structs without exported fields.
type Ack struct {
	OK bool
}

// Hub hosts a group over TCP. It runs inside the root process: the root rank
// uses Comm directly while workers reach the same mailboxes through net/rpc.
type Hub struct {
	x        *exchange
	manifest []byte
	log      logrus.FieldLogger

	ln net.Listener

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	joined int
	left   int
	full   chan struct{}
	gone   chan struct{}
}

// Listen starts a hub for a group of size ranks on addr. Workers receive
// manifest when they join.
func Listen(addr string, size int, manifest []byte, log logrus.FieldLogger) (*Hub, error) {
	if size < 1 {
		return nil, fmt.Errorf("listen: %w", ErrGroupSize)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	h := &Hub{
		x:        newExchange(size),
		manifest: manifest,
		log:      log.WithField("component", "hub"),
		ln:       ln,
		conns:    make(map[net.Conn]struct{}),
		full:     make(chan struct{}),
		gone:     make(chan struct{}),
	}
	if size == 1 {
		close(h.full)
		close(h.gone)
	}
	go h.accept()
	h.log.WithFields(logrus.Fields{"addr": ln.Addr().String(), "size": size}).Info("hub listening")
	return h, nil
}

func (h *Hub) accept() {
	for {
		conn, err := h.ln.Accept()
		if err != nil {
			return
		}
		s := h.newSession()
		server := rpc.NewServer()
		if err := server.RegisterName("Hub", s); err != nil {
			h.log.WithError(err).Error("register session")
			conn.Close()
			continue
		}
		h.mu.Lock()
		h.conns[conn] = struct{}{}
		h.mu.Unlock()
		go func() {
			server.ServeConn(&watchedConn{Conn: conn, lost: s.disconnect})
			s.disconnect()
			h.mu.Lock()
			delete(h.conns, conn)
			h.mu.Unlock()
		}()
	}
}

// watchedConn reports the first read failure. net/rpc keeps serving
// outstanding calls after the peer is gone, so the hub has to hear about it
// before ServeConn returns.
type watchedConn struct {
	net.Conn
	once sync.Once
	lost func()
}

func (c *watchedConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if err != nil {
		c.once.Do(c.lost)
	}
	return n, err
}

// Addr is the address workers should dial.
func (h *Hub) Addr() string { return h.ln.Addr().String() }

// WaitJoined blocks until every worker rank has joined.
func (h *Hub) WaitJoined(ctx context.Context) error {
	select {
	case <-h.full:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.x.done:
		return h.x.aborted()
	}
}

// Comm returns the root rank's communicator.
func (h *Hub) Comm() Communicator { return &Local{x: h.x, rank: Root} }

// Shutdown waits for every joined worker to leave, then closes the hub.
// It stops waiting when ctx ends or the group has aborted.
func (h *Hub) Shutdown(ctx context.Context) error {
	var err error
	select {
	case <-h.gone:
	case <-h.x.done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	return errors.Join(err, h.Close())
}

// Close aborts the group with ErrClosed and drops every connection.
func (h *Hub) Close() error {
	h.x.abort(ErrClosed)
	err := h.ln.Close()
	h.mu.Lock()
	for conn := range h.conns {
		conn.Close()
	}
	h.mu.Unlock()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// session serves one worker connection. Its methods are the ones exposed
// over net/rpc; rank and left are guarded by the hub's mutex.
type session struct {
	h      *Hub
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once

	rank int
	left bool
}

func (h *Hub) newSession() *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{h: h, ctx: ctx, cancel: cancel}
}

// disconnect ends the session's pending calls. A worker that joined and
// never left takes the whole group down with it.
func (s *session) disconnect() {
	s.once.Do(func() {
		s.cancel()
		h := s.h
		h.mu.Lock()
		rank, left := s.rank, s.left
		h.mu.Unlock()
		if rank == Root || left {
			return
		}
		if h.x.aborted() == nil {
			h.log.WithField("rank", rank).Warn("worker connection lost")
		}
		h.x.abort(fmt.Errorf("rank %d: %w", rank, ErrConnLost))
	})
}

func (s *session) Join(args JoinArgs, reply *JoinReply) error {
	h := s.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.x.aborted(); err != nil {
		return err
	}
	if s.rank != Root {
		return fmt.Errorf("connection already joined as rank %d", s.rank)
	}
	if h.joined == h.x.size-1 {
		return fmt.Errorf("group of %d is full", h.x.size)
	}
	h.joined++
	s.rank = h.joined
	*reply = JoinReply{Rank: h.joined, Size: h.x.size, Manifest: h.manifest}
	h.log.WithFields(logrus.Fields{"rank": reply.Rank, "name": args.Name}).Info("worker joined")
	if h.joined == h.x.size-1 {
		close(h.full)
	}
	return nil
}

func (s *session) Leave(args RankArgs, reply *Ack) error {
	if err := s.checkRank(args.Rank); err != nil {
		return err
	}
	h := s.h
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.left {
		reply.OK = true
		return nil
	}
	s.left = true
	h.left++
	h.log.WithField("rank", args.Rank).Debug("worker left")
	if h.left == h.x.size-1 {
		close(h.gone)
	}
	reply.OK = true
	return nil
}

// Scatter and Gather wait for as long as the connection lives. A worker
// that gives up on a call early aborts the group, which releases the wait.
func (s *session) Scatter(args RankArgs, reply *Block) error {
	if err := s.checkRank(args.Rank); err != nil {
		return err
	}
	seg, err := s.h.x.receive(s.ctx, args.Rank)
	if err != nil {
		return err
	}
	*reply = Block{Rank: args.Rank, Cells: seg}
	return nil
}

func (s *session) Gather(args Block, reply *Ack) error {
	if err := s.checkRank(args.Rank); err != nil {
		return err
	}
	if err := s.h.x.submit(s.ctx, args.Rank, args.Cells); err != nil {
		return err
	}
	reply.OK = true
	return nil
}

func (s *session) Abort(args AbortArgs, reply *Ack) error {
	s.h.log.WithFields(logrus.Fields{"rank": args.Rank, "reason": args.Reason}).Warn("worker aborted the group")
	s.h.x.abort(fmt.Errorf("rank %d: %s", args.Rank, args.Reason))
	reply.OK = true
	return nil
}

func (s *session) checkRank(rank int) error {
	s.h.mu.Lock()
	joined := s.rank
	s.h.mu.Unlock()
	if joined == Root {
		return errors.New("connection has not joined")
	}
	if rank != joined {
		return fmt.Errorf("connection joined as rank %d, called as rank %d", joined, rank)
	}
	return nil
}

// Remote is a worker rank connected to a hub.
type Remote struct {
	client   *rpc.Client
	rank     int
	size     int
	manifest []byte

	once  sync.Once
	cause error
	done  chan struct{}
}

// Dial connects to the hub at addr and joins the group under name.
func Dial(ctx context.Context, addr, name string) (*Remote, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial hub %s: %w", addr, err)
	}
	r := &Remote{client: rpc.NewClient(conn), done: make(chan struct{})}
	var reply JoinReply
	if err := r.call(ctx, "Hub.Join", JoinArgs{Name: name}, &reply); err != nil {
		r.client.Close()
		return nil, fmt.Errorf("join hub %s: %w", addr, err)
	}
	r.rank, r.size, r.manifest = reply.Rank, reply.Size, reply.Manifest
	return r, nil
}

func (r *Remote) Rank() int { return r.rank }
func (r *Remote) Size() int { return r.size }

// Manifest returns the bytes the hub handed out on join.
func (r *Remote) Manifest() []byte { return r.manifest }

func (r *Remote) Scatter(ctx context.Context, _ []epidemic.Cell, _, _ []int, recv []epidemic.Cell) error {
	var block Block
	if err := r.call(ctx, "Hub.Scatter", RankArgs{Rank: r.rank}, &block); err != nil {
		return fmt.Errorf("scatter: %w", err)
	}
	if err := expectLen("scatter", r.rank, len(block.Cells), len(recv)); err != nil {
		return err
	}
	copy(recv, block.Cells)
	return nil
}

func (r *Remote) Gather(ctx context.Context, send []epidemic.Cell, _ []epidemic.Cell, _, _ []int) error {
	var ack Ack
	if err := r.call(ctx, "Hub.Gather", Block{Rank: r.rank, Cells: send}, &ack); err != nil {
		return fmt.Errorf("gather: %w", err)
	}
	return nil
}

// Abort reports err to the hub, which fails every rank.
func (r *Remote) Abort(err error) {
	if err == nil {
		err = errors.New("no reason given")
	}
	first := false
	r.once.Do(func() {
		r.cause = err
		close(r.done)
		first = true
	})
	if !first {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var ack Ack
	call := r.client.Go("Hub.Abort", AbortArgs{Rank: r.rank, Reason: err.Error()}, &ack, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
	case <-ctx.Done():
	}
}

// Close leaves the group and drops the connection.
func (r *Remote) Close() error {
	select {
	case <-r.done:
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		var ack Ack
		_ = r.call(ctx, "Hub.Leave", RankArgs{Rank: r.rank}, &ack)
		cancel()
	}
	return r.client.Close()
}

func (r *Remote) call(ctx context.Context, method string, args, reply any) error {
	select {
	case <-r.done:
		return fmt.Errorf("%w: %w", ErrAborted, r.cause)
	default:
	}
	call := r.client.Go(method, args, reply, make(chan *rpc.Call, 1))
	select {
	case <-call.Done:
		return remoteError(call.Error)
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return fmt.Errorf("%w: %w", ErrAborted, r.cause)
	}
}

// remoteError restores sentinel identity lost in transit; net/rpc flattens
// server errors to strings.
func remoteError(err error) error {
	var se rpc.ServerError
	if !errors.As(err, &se) {
		return err
	}
	msg := string(se)
	for _, sentinel := range []error{ErrAborted, ErrCountMismatch} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()); ok {
			return fmt.Errorf("%w%s", sentinel, rest)
		}
	}
	return err
}
