// Package arithrpc exposes an arith.Calculator over net/rpc and provides a
// client that satisfies arith.Calculator remotely.
package arithrpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"strings"
	"time"

	"go.uber.org/zap"

	"calculator-service/internal/arith"
)

// ServiceName is the name the calculator is registered under.
const ServiceName = "Calculator"

type OperandsRequest struct {
	X, Y float64
}

type ResultResponse struct {
	Result float64
}

type ModulusResponse struct {
	Result int
}

// Service adapts an arith.Calculator to net/rpc method signatures.
type Service struct {
	impl   arith.Calculator
	logger *zap.Logger
}

func NewService(impl arith.Calculator, logger *zap.Logger) *Service {
	return &Service{impl: impl, logger: logger}
}

func (s *Service) Add(request *OperandsRequest, response *ResultResponse) (err error) {
	response.Result, err = s.impl.Add(request.X, request.Y)
	return s.observe(arith.OpAdd, request, err)
}

func (s *Service) Subtract(request *OperandsRequest, response *ResultResponse) (err error) {
	response.Result, err = s.impl.Subtract(request.X, request.Y)
	return s.observe(arith.OpSubtract, request, err)
}

func (s *Service) Multiply(request *OperandsRequest, response *ResultResponse) (err error) {
	response.Result, err = s.impl.Multiply(request.X, request.Y)
	return s.observe(arith.OpMultiply, request, err)
}

func (s *Service) Divide(request *OperandsRequest, response *ResultResponse) (err error) {
	response.Result, err = s.impl.Divide(request.X, request.Y)
	return s.observe(arith.OpDivide, request, err)
}

func (s *Service) Modulus(request *OperandsRequest, response *ModulusResponse) (err error) {
	response.Result, err = s.impl.Modulus(request.X, request.Y)
	return s.observe(arith.OpModulus, request, err)
}

func (s *Service) observe(op arith.Operation, request *OperandsRequest, err error) error {
	if err != nil {
		s.logger.Warn("rpc operation rejected",
			zap.String("operation", op.String()),
			zap.Float64("x", request.X),
			zap.Float64("y", request.Y),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("rpc operation completed",
		zap.String("operation", op.String()),
		zap.Float64("x", request.X),
		zap.Float64("y", request.Y),
	)
	return nil
}

// NewServer returns an rpc.Server with impl registered as ServiceName.
func NewServer(impl arith.Calculator, logger *zap.Logger) (*rpc.Server, error) {
	srv := rpc.NewServer()
	if err := srv.RegisterName(ServiceName, NewService(impl, logger)); err != nil {
		return nil, fmt.Errorf("register %s: %w", ServiceName, err)
	}
	return srv, nil
}

// Serve accepts connections on lis until ctx is cancelled, serving each on
// its own goroutine. It closes lis and returns nil once ctx is done.
// Accept errors other than a closed listener are retried with backoff
// (5ms doubling to 1s), as net/http.Server does.
func Serve(ctx context.Context, lis net.Listener, srv *rpc.Server) error {
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			lis.Close()
		case <-done:
		}
	}()

	var tempDelay time.Duration
	for {
		conn, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}

			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > maxAcceptDelay {
				tempDelay = maxAcceptDelay
			}

			timer := time.NewTimer(tempDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			continue
		}
		tempDelay = 0
		go srv.ServeConn(conn)
	}
}

const maxAcceptDelay = time.Second

// DefaultTimeout bounds dialing and each call when no timeout is given.
const DefaultTimeout = 5 * time.Second

// ErrTimeout is returned when a call gets no reply within the client timeout.
var ErrTimeout = errors.New("rpc call timed out")

// Client calls a remote calculator. It implements arith.Calculator.
type Client struct {
	client  *rpc.Client
	service string
	timeout time.Duration
}

var _ arith.Calculator = (*Client)(nil)

// NewClient wraps client. A non-positive timeout means DefaultTimeout.
func NewClient(client *rpc.Client, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{client: client, service: ServiceName, timeout: timeout}
}

// Dial connects to a calculator RPC server over TCP. timeout bounds both the
// connection attempt and every subsequent call.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return NewClient(rpc.NewClient(conn), timeout), nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Add(x, y float64) (float64, error) {
	return c.call("Add", x, y)
}

func (c *Client) Subtract(x, y float64) (float64, error) {
	return c.call("Subtract", x, y)
}

func (c *Client) Multiply(x, y float64) (float64, error) {
	return c.call("Multiply", x, y)
}

func (c *Client) Divide(x, y float64) (float64, error) {
	return c.call("Divide", x, y)
}

func (c *Client) Modulus(x, y float64) (int, error) {
	response := &ModulusResponse{}
	if err := c.invoke("Modulus", &OperandsRequest{X: x, Y: y}, response); err != nil {
		return 0, err
	}
	return response.Result, nil
}

func (c *Client) call(method string, x, y float64) (float64, error) {
	response := &ResultResponse{}
	if err := c.invoke(method, &OperandsRequest{X: x, Y: y}, response); err != nil {
		return 0, err
	}
	return response.Result, nil
}

// invoke issues one call and waits at most c.timeout for its reply.
func (c *Client) invoke(method string, request, response any) error {
	call := c.client.Go(c.service+"."+method, request, response, make(chan *rpc.Call, 1))

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case <-call.Done:
		if call.Error != nil {
			return remoteError(call.Error)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%s.%s after %s: %w", c.service, method, c.timeout, ErrTimeout)
	}
}

// remoteError restores arith sentinels lost when net/rpc flattens errors to strings.
func remoteError(err error) error {
	var se rpc.ServerError
	if !errors.As(err, &se) {
		return err
	}

	msg := string(se)
	for _, sentinel := range []error{arith.ErrOutOfRange, arith.ErrUnknownOperation} {
		if rest, ok := strings.CutPrefix(msg, sentinel.Error()); ok {
			return fmt.Errorf("%w%s", sentinel, rest)
		}
	}
	return err
}
