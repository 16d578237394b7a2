package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"calculator-service/internal/arith"
	"calculator-service/internal/arithrpc"
	"calculator-service/internal/config"
	"calculator-service/internal/observability"
)

// ---------------------------------------------------------------------------
// runEval tests
// ---------------------------------------------------------------------------

func TestRunEval_Local(t *testing.T) {
	tests := []struct {
		op, x, y string
		want     string
	}{
		{"add", "1", "1000", "1001"},
		{"subtract", "10", "25", "-15"},
		{"multiply", "2.5", "4", "10"},
		{"divide", "1", "8", "0.125"},
		{"modulus", "7", "2", "1"},
		{"modulus", "1000", "999", "1"},
	}

	for _, tc := range tests {
		t.Run(tc.op+" "+tc.x+" "+tc.y, func(t *testing.T) {
			var stdout bytes.Buffer
			err := runEval(evalParams{op: tc.op, x: tc.x, y: tc.y, stdout: &stdout})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := strings.TrimSpace(stdout.String()); got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestRunEval_OutOfRange(t *testing.T) {
	var stdout bytes.Buffer
	err := runEval(evalParams{op: "add", x: "0", y: "1000", stdout: &stdout})
	if !errors.Is(err, arith.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no output, got %q", stdout.String())
	}
}

func TestRunEval_BadArguments(t *testing.T) {
	tests := []struct {
		name string
		p    evalParams
		msg  string
	}{
		{"unknown op", evalParams{op: "pow", x: "2", y: "3"}, "unknown operation"},
		{"bad x", evalParams{op: "add", x: "two", y: "3"}, `invalid operand x "two"`},
		{"bad y", evalParams{op: "add", x: "2", y: ""}, `invalid operand y ""`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.p.stdout = &bytes.Buffer{}
			err := runEval(tc.p)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Errorf("unexpected error message: %s", err)
			}
		})
	}
}

func TestRunEval_Remote(t *testing.T) {
	srv, err := arithrpc.NewServer(arith.New(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go arithrpc.Serve(ctx, lis, srv)

	var stdout bytes.Buffer
	err = runEval(evalParams{op: "modulus", x: "1000", y: "999", remote: lis.Addr().String(), stdout: &stdout})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "1" {
		t.Errorf("expected %q, got %q", "1", got)
	}

	err = runEval(evalParams{op: "add", x: "1001", y: "1", remote: lis.Addr().String(), stdout: &stdout})
	if !errors.Is(err, arith.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange over RPC, got %v", err)
	}
}

func TestRunEval_RemoteUnreachable(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().String()
	lis.Close()

	err = runEval(evalParams{op: "add", x: "1", y: "2", remote: addr, stdout: &bytes.Buffer{}})
	if err == nil || !strings.Contains(err.Error(), "dial") {
		t.Fatalf("expected dial error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// runServe tests
// ---------------------------------------------------------------------------

func testConfig() config.Config {
	return config.Config{
		HTTPAddr:        "127.0.0.1:0",
		RPCAddr:         "127.0.0.1:0",
		ShutdownTimeout: 2 * time.Second,
		ServiceName:     "calculator-test",
		LogLevel:        "error",
	}
}

func restoreLogger(t *testing.T) {
	old := observability.Logger
	t.Cleanup(func() { observability.Logger = old })
}

func TestRunServe_StopsOnCancel(t *testing.T) {
	restoreLogger(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, testConfig()) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("runServe did not return after cancel")
	}
}

func TestRunServe_RPCListenFailure(t *testing.T) {
	restoreLogger(t)

	cfg := testConfig()
	cfg.RPCAddr = "127.0.0.1:-1"

	err := runServe(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "rpc listen") {
		t.Fatalf("expected rpc listen error, got %v", err)
	}
}

func TestRunServe_BadLogLevel(t *testing.T) {
	restoreLogger(t)

	cfg := testConfig()
	cfg.LogLevel = "shout"

	if err := runServe(context.Background(), cfg); err == nil {
		t.Fatal("expected error for bad log level")
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	for _, name := range []string{"serve", "eval"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected %q subcommand, got %v (%v)", name, cmd, err)
		}
	}

	serve, _, _ := root.Find([]string{"serve"})
	for _, flag := range []string{"config", "http-addr", "rpc-addr", "shutdown-timeout", "log-level"} {
		if serve.Flags().Lookup(flag) == nil {
			t.Errorf("expected serve to have --%s", flag)
		}
	}

	eval, _, _ := root.Find([]string{"eval"})
	timeout := eval.Flags().Lookup("timeout")
	if timeout == nil {
		t.Fatal("expected eval to have --timeout")
	}
	if timeout.DefValue != arithrpc.DefaultTimeout.String() {
		t.Errorf("expected --timeout default %s, got %s", arithrpc.DefaultTimeout, timeout.DefValue)
	}
}

func TestEvalCommandExecutes(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"eval", "add", "2", "3"})
	root.SetOut(&bytes.Buffer{})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	root = newRootCmd()
	root.SetArgs([]string{"eval", "add", "2"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected argument count error")
	}
}
