package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/portless-rs/portless/cmd"
	"github.com/portless-rs/portless/pkg/config"
)

const usage = `portless - replace port numbers with stable .localhost URLs

Usage:
  portless <name> <command...>        Run command behind http://<name>.localhost
  portless list                       List active routes
  portless batch [<file>]             Run every service in a portless.yaml file
  portless proxy start [--foreground] Start the proxy server
  portless proxy stop                 Stop the proxy server
  portless proxy status               Show proxy status

Flags:
  -p, --port <n>    Pin to an exact backend port (run) or proxy port (proxy)`

func main() {
	args := os.Args[1:]

	if len(args) == 0 {
		fmt.Println(usage)
		os.Exit(0)
	}

	var err error
	code := 0

	switch args[0] {
	case "list":
		err = cmd.List()

	case "batch":
		err = batchCommand(args[1:])

	case "proxy":
		err = proxyCommand(args[1:])

	case "help", "--help", "-h":
		fmt.Println(usage)
		os.Exit(0)

	default:
		code, err = runCommand(args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// runCommand implements `portless <name> <command...>`.
func runCommand(args []string) (int, error) {
	name := args[0]
	rest := args[1:]

	opts := cmd.RunOptions{Name: name}

	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "-p", "--port":
			if i+1 >= len(rest) {
				return 1, fmt.Errorf("--port requires a value")
			}
			i++
			port, err := strconv.Atoi(rest[i])
			if err != nil {
				return 1, fmt.Errorf("invalid port: %s", rest[i])
			}
			opts.Port = port
		default:
			if opts.Command == "" {
				opts.Command = rest[i]
			} else {
				opts.Command += " " + rest[i]
			}
		}
	}

	if opts.Command == "" {
		return 1, fmt.Errorf("missing command\n\n%s", usage)
	}

	return cmd.Run(opts)
}

func batchCommand(args []string) error {
	path := "portless.yaml"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		path = args[0]
	}

	cfg, err := config.LoadBatch(path)
	if err != nil {
		return err
	}

	return cmd.Batch(cfg)
}

func proxyCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: portless proxy <start|stop|status>")
	}

	opts := cmd.ProxyOptions{Detach: true}
	for _, a := range args[1:] {
		switch a {
		case "--foreground", "--no-detach":
			opts.Detach = false
		}
	}
	for i := 1; i < len(args); i++ {
		if args[i] == "-p" || args[i] == "--port" {
			if i+1 >= len(args) {
				return fmt.Errorf("--port requires a value")
			}
			port, err := strconv.Atoi(args[i+1])
			if err != nil {
				return fmt.Errorf("invalid port: %s", args[i+1])
			}
			opts.Port = port
		}
	}

	switch args[0] {
	case "start":
		return cmd.ProxyStart(opts)
	case "stop":
		return cmd.ProxyStop(opts.Port)
	case "status":
		return cmd.ProxyStatus(opts.Port)
	default:
		return fmt.Errorf("unknown proxy command: %s", args[0])
	}
}
