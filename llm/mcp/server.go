/**
 * Copyright 2025 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package mcp exposes personas, styles and project generation as MCP tools
// over stdio.
package mcp

import (
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/log"
)

type ServerOptions struct {
	ServerName    string
	ServerVersion string
	Verbose       bool

	// Generator backs generate_project; nil disables the tool.
	Generator llm.Generator
	// Interval is the progress tick of generation runs.
	Interval time.Duration
	// OutputDir, when set, receives an export of every generated project.
	OutputDir string
}

type Server struct {
	Server *server.MCPServer
	opts   ServerOptions
}

func NewServer(opts ServerOptions) *Server {
	if opts.Verbose {
		log.SetLogLevel(log.DebugLevel)
	}
	svr := server.NewMCPServer(opts.ServerName, opts.ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s := &Server{Server: svr, opts: opts}
	for _, t := range s.tools() {
		svr.AddTool(t.Tool, t.Handler)
	}
	return s
}

func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.Server)
}
