// Command eva-mcp runs the Model Context Protocol server over standard
// input and output. It takes no flags and no subcommands: its only
// external interface is the byte-stream pair and the EVA_MCP_* environment
// variables documented alongside the packages under internal/.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/MarcoPolo483/eva-mcp/internal/builtin"
	"github.com/MarcoPolo483/eva-mcp/internal/config"
	"github.com/MarcoPolo483/eva-mcp/internal/diagnostic"
	"github.com/MarcoPolo483/eva-mcp/internal/dispatch"
	"github.com/MarcoPolo483/eva-mcp/internal/mcpserver"
	"github.com/MarcoPolo483/eva-mcp/internal/registry"
	"github.com/MarcoPolo483/eva-mcp/internal/sandbox"
)

const (
	serverName    = "eva-mcp"
	serverVersion = "0.1.0"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	logger := diagnostic.New(os.Stderr, cfg.LogLevel)

	sb, err := sandbox.New(cfg.Workspace)
	if err != nil {
		return fmt.Errorf("failed to initialize sandbox: %w", err)
	}
	logger.Info().Str("root", sb.Root()).Msg("sandbox ready")

	tools := registry.NewTools()
	resources := registry.NewResources()
	prompts := registry.NewPrompts()

	builtin.RegisterTools(tools, sb, cfg.MaxList)
	builtin.RegisterPrompts(prompts)
	builtin.RegisterResources(resources, sb, cfg.MaxList)

	hc := registry.HandlerContext{Now: time.Now}
	info := dispatch.ServerInfo{Name: serverName, Version: serverVersion}
	d := dispatch.New(info, tools, resources, prompts, hc, logger)

	return mcpserver.RunStreams(context.Background(), os.Stdin, os.Stdout, d, logger)
}
