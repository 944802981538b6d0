package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kapu/interview-teleprompter-go/internal/adapter"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/ipc"
)

// teleprompter-ctl sends one control command to a running teleprompter, or
// reads commands line by line from stdin when none is given.
//
//	teleprompter-ctl start
//	teleprompter-ctl ask "Why this company?"
//	echo status | teleprompter-ctl
func main() {
	socket := flag.StringP("socket", "s", envOr("CONTROL_SOCKET", "/tmp/teleprompter.sock"), "control socket path")
	timeout := flag.Duration("timeout", 5*time.Second, "per-command timeout")
	flag.Parse()

	parser := adapter.NewMessageAdapter("/")
	formatter := adapter.NewResponseFormatter()

	if flag.NArg() > 0 {
		if !run(*socket, *timeout, parser, formatter, strings.Join(flag.Args(), " ")) {
			os.Exit(1)
		}
		return
	}

	failed := false
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !run(*socket, *timeout, parser, formatter, line) {
			failed = true
		}
	}
	if failed {
		os.Exit(1)
	}
}

func run(socket string, timeout time.Duration, parser *adapter.MessageAdapter, formatter *adapter.ResponseFormatter, line string) bool {
	parsed := parser.ParseLine(line)
	if parsed.Type == domain.CommandUnknown && parsed.Key == "" {
		fmt.Fprintln(os.Stderr, formatter.FormatError(fmt.Sprintf("unknown command %q (try help)", parsed.RawMessage)))
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	res, err := ipc.Send(ctx, socket, ipc.ControlMessage{Cmd: parsed.Key, Params: parsed.Params})
	if err != nil {
		fmt.Fprintln(os.Stderr, formatter.FormatError(fmt.Sprintf("teleprompter not reachable: %v", err)))
		return false
	}

	fmt.Println(formatter.FormatCommandResult(res))
	return res.OK
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
