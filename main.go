// Copyright 2025 ByteDance Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/cloudwego/nexusgen/internal/config"
	"github.com/cloudwego/nexusgen/internal/export"
	"github.com/cloudwego/nexusgen/internal/pipeline/steps"
	"github.com/cloudwego/nexusgen/internal/profile"
	"github.com/cloudwego/nexusgen/internal/studio"
	"github.com/cloudwego/nexusgen/internal/style"
	"github.com/cloudwego/nexusgen/internal/workflow"
	"github.com/cloudwego/nexusgen/llm"
	"github.com/cloudwego/nexusgen/llm/log"
	"github.com/cloudwego/nexusgen/llm/mcp"
	"github.com/cloudwego/nexusgen/llm/persona"
	"github.com/cloudwego/nexusgen/version"
)

const Usage = `nexusgen <Action> [Args] [Flags]
Action:
   generate     generate a project from -name and -desc with the selected profile
   refine       refine one file of an exported run: refine <export.json> -file <name|id> -feedback <text>
   personas     list the personas of a profile
   select       print the persona a profile would assign to a file: select <path>
   styles       list the Style DNA presets
   mcp          run as a MCP server over stdio
   version      print the version of nexusgen
Profiles:
   nexus        fixed seven-file fullstack plan
   saturn       architect-planned file list
   studio       UI component variants
`

func main() {
	flags := flag.NewFlagSet("nexusgen", flag.ExitOnError)

	flagHelp := flags.Bool("h", false, "Show help message.")
	flagVerbose := flags.Bool("verbose", false, "Verbose mode.")
	flagConfig := flags.String("config", "", "config file (yaml, json or toml).")
	flagProfile := flags.String("profile", "", "profile: nexus, saturn or studio.")
	flagStyle := flags.String("style", "", "Style DNA preset id.")
	flagOutput := flags.String("o", "", "write generated files under this directory.")
	flagExport := flags.String("export", "", "write the run as <project>-<profile>-ecosystem.json under this directory.")
	flagFile := flags.String("file", "", "file name or id to refine.")
	flagFeedback := flags.String("feedback", "", "refinement feedback.")

	var project workflow.ProjectConfig
	flags.StringVar(&project.Name, "name", "", "project name.")
	flags.StringVar(&project.Description, "desc", "", "project description.")
	flags.StringVar(&project.Type, "type", "fullstack", "project type: fullstack, frontend or api.")
	flags.StringVar(&project.Framework, "framework", "react", "frontend framework.")
	flags.StringVar(&project.Database, "database", "postgresql", "database.")
	flags.StringVar(&project.Deployment, "deployment", "docker", "deployment target.")

	flags.Usage = func() {
		fmt.Fprint(os.Stderr, Usage)
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flags.PrintDefaults()
	}

	if len(os.Args) < 2 {
		flags.Usage()
		os.Exit(1)
	}
	action := strings.ToLower(os.Args[1])
	args := parseArgsAndFlags(flags, flagHelp, flagVerbose)

	switch action {
	case "version":
		fmt.Fprintf(os.Stdout, "%s\n", version.Version)

	case "styles":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tKEYWORDS")
		for _, p := range style.Catalog() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, strings.Join(p.Keywords, ", "))
		}
		w.Flush()

	case "personas":
		name := *flagProfile
		if name == "" && len(args) > 0 {
			name = args[0]
		}
		p := mustProfile(name)
		fmt.Fprintf(os.Stdout, "%s\n", p.Title)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tROLE\tSPECIALTIES")
		for _, x := range p.Roster.Personas {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", x.ID, x.Name, x.Role, strings.Join(x.Specialties, ", "))
		}
		w.Flush()

	case "select":
		if len(args) == 0 {
			log.Error("Argument Path is required\n")
			os.Exit(1)
		}
		p := mustProfile(*flagProfile)
		sel := p.Selector
		if sel == nil {
			sel = persona.DefaultSelector()
		}
		for _, target := range args {
			role, rule, err := sel.Select(target)
			if err != nil {
				log.Error("Failed to select persona for %s: %v\n", target, err)
				os.Exit(1)
			}
			x, err := sel.Assign(p.Roster, target)
			if err != nil {
				log.Error("Failed to assign %s: %v\n", target, err)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stdout, "%s\t%s (%s, rule %s)\n", target, x.ID, role, rule)
		}

	case "generate":
		cfg := mustConfig(*flagConfig, *flagProfile, *flagStyle)
		if *flagExport == "" {
			*flagExport = cfg.OutputDir
		}
		s := newStudio(cfg, *flagOutput)
		s.SetProject(project)
		if cfg.Style != "" {
			if _, err := s.SelectStyle(cfg.Style); err != nil {
				log.Error("%v\n", err)
				os.Exit(1)
			}
		}
		err := runWithSignals(s, s.Generate)
		finish(s, err, *flagExport)

	case "refine":
		if len(args) == 0 {
			log.Error("Argument export file is required\n")
			os.Exit(1)
		}
		doc, err := export.Read(args[0])
		if err != nil {
			log.Error("Failed to read export: %v\n", err)
			os.Exit(1)
		}
		if *flagProfile == "" {
			*flagProfile = doc.Metadata.Profile
		}
		cfg := mustConfig(*flagConfig, *flagProfile, "")
		if *flagExport == "" {
			*flagExport = cfg.OutputDir
		}
		s := newStudio(cfg, *flagOutput)
		if err := s.Restore(doc); err != nil {
			log.Error("%v\n", err)
			os.Exit(1)
		}
		id := findArtifact(s.State(), *flagFile)
		if id == "" {
			log.Error("No file %q in %s\n", *flagFile, args[0])
			os.Exit(1)
		}
		err = runWithSignals(s, func(ctx context.Context) error {
			return s.Refine(ctx, id, *flagFeedback)
		})
		finish(s, err, *flagExport)

	case "mcp":
		opts := mcp.ServerOptions{
			ServerName:    "nexusgen",
			ServerVersion: version.Version,
			Verbose:       *flagVerbose,
			OutputDir:     *flagExport,
		}
		// stdout belongs to the protocol
		log.SetOutput(os.Stderr)
		if cfg, err := config.Load(*flagConfig); err == nil && cfg.Validate() == nil {
			opts.Generator = mustGateway(cfg)
			opts.Interval = cfg.Interval
		} else {
			log.Warn("no usable model config, generate_project is disabled\n")
		}
		svr := mcp.NewServer(opts)
		if err := svr.ServeStdio(); err != nil {
			log.Error("Failed to run MCP server: %v\n", err)
			os.Exit(1)
		}

	default:
		log.Error("Unknown action %q\n", action)
		flags.Usage()
		os.Exit(1)
	}
}

func parseArgsAndFlags(flags *flag.FlagSet, flagHelp *bool, flagVerbose *bool) []string {
	if err := flags.Parse(os.Args[2:]); err != nil {
		os.Exit(1)
	}
	// allow flags after positional args
	var args []string
	for flags.NArg() > 0 {
		args = append(args, flags.Arg(0))
		if err := flags.Parse(flags.Args()[1:]); err != nil {
			os.Exit(1)
		}
	}
	if *flagHelp {
		flags.Usage()
		os.Exit(0)
	}
	if *flagVerbose {
		log.SetLogLevel(log.DebugLevel)
	}
	return args
}

func mustProfile(name string) *profile.Profile {
	if name == "" {
		name = "nexus"
	}
	p, err := profile.Lookup(name)
	if err != nil {
		log.Error("%v\n", err)
		os.Exit(1)
	}
	return p
}

func mustConfig(path, profileName, styleID string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		log.Error("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if profileName != "" {
		cfg.Profile = profileName
	}
	if styleID != "" {
		cfg.Style = styleID
	}
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func mustGateway(cfg *config.Config) llm.Generator {
	cm, err := llm.NewChatModel(context.Background(), cfg.Model)
	if err != nil {
		log.Error("Failed to create chat model: %v\n", err)
		os.Exit(1)
	}
	var opts []llm.GatewayOption
	if cfg.Model.Temperature != nil && cfg.Model.TopP != nil {
		opts = append(opts, llm.WithSampling(*cfg.Model.Temperature, *cfg.Model.TopP))
	}
	return llm.NewGateway(cm, opts...)
}

func newStudio(cfg *config.Config, outDir string) *studio.Studio {
	p := mustProfile(cfg.Profile)
	opts := []studio.Option{studio.WithInterval(cfg.Interval)}
	if outDir != "" {
		opts = append(opts, studio.WithExtraSteps(&steps.WriteStep{Dir: outDir}))
	}
	s := studio.New(p, mustGateway(cfg), opts...)
	s.Store().Subscribe(printLog)
	return s
}

// printLog mirrors the run's chat log to stderr.
func printLog(a workflow.Action, s workflow.State) {
	al, ok := a.(workflow.AppendLog)
	if !ok || len(s.Logs) == 0 || s.Logs[len(s.Logs)-1].Message != al.Entry.Message {
		return
	}
	e := s.Logs[len(s.Logs)-1]
	log.Info("[%s] %s\n", e.AgentName, e.Message)
}

// runWithSignals cancels the run on the first SIGINT/SIGTERM.
func runWithSignals(s *studio.Studio, run func(ctx context.Context) error) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-sig:
			s.Cancel()
		case <-done:
		}
	}()
	return run(context.Background())
}

func finish(s *studio.Studio, runErr error, exportDir string) {
	st := s.State()
	if exportDir != "" && len(st.Artifacts) > 0 {
		path, err := s.Export(exportDir)
		if err != nil {
			log.Error("Failed to export: %v\n", err)
		} else {
			log.Info("Exported run to %s\n", path)
		}
	}
	if runErr != nil {
		log.Error("Run ended in %s: %v\n", st.Phase, runErr)
		os.Exit(1)
	}
	for _, a := range st.Artifacts {
		fmt.Fprintf(os.Stdout, "%s\t%d bytes\t%s\n", a.Name, a.Size, a.AgentName)
	}
}

func findArtifact(s workflow.State, key string) string {
	for _, a := range s.Artifacts {
		if a.ID == key || a.Name == key {
			return a.ID
		}
	}
	if key == "" && len(s.Artifacts) == 1 {
		return s.Artifacts[0].ID
	}
	return ""
}
