package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	autoresearch "github.com/autoresearch/autoresearch"
	"github.com/autoresearch/autoresearch/internal/output"
	"github.com/autoresearch/autoresearch/internal/storage"
)

var (
	configPath   string
	cfg          *storage.Config
	outputFormat string
	verbose      bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "research",
		Short: "Automated research assistant - gather sources, crawl them, and generate LLM reports",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "human", "output format: json, text, human")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(sourceCmd())
	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(ieeeCmd())
	rootCmd.AddCommand(sectionsCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(initConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() error {
	if configPath == "" {
		configPath = "./config/config.yaml"
	}

	cfg = storage.DefaultConfig()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()
}

func openEngine() (*autoresearch.Engine, error) {
	return autoresearch.NewEngineFromConfig(cfg, newLogger())
}

func newFormatter() (*output.Formatter, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format), nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid project id %q", arg)
	}
	return id, nil
}

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage research projects",
	}

	var description string
	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a research project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			project, err := engine.CreateProject(args[0], description)
			if err != nil {
				return err
			}
			formatter, err := newFormatter()
			if err != nil {
				return err
			}
			return formatter.OutputProjectList([]storage.Project{{
				ID:          project.ID,
				Title:       project.Title,
				Description: project.Description,
				CreatedAt:   project.CreatedAt,
			}})
		},
	}
	create.Flags().StringVarP(&description, "description", "d", "", "project description")

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			projects, err := engine.ListProjects()
			if err != nil {
				return err
			}
			internal := make([]storage.Project, 0, len(projects))
			for _, p := range projects {
				internal = append(internal, storage.Project{
					ID: p.ID, Title: p.Title, Description: p.Description, CreatedAt: p.CreatedAt,
				})
			}
			formatter, err := newFormatter()
			if err != nil {
				return err
			}
			return formatter.OutputProjectList(internal)
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project and everything derived from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()
			return engine.DeleteProject(id)
		},
	}

	cmd.AddCommand(create, list, del)
	return cmd
}

func sourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage a project's sources",
	}

	add := &cobra.Command{
		Use:   "add <project-id> <url>",
		Short: "Attach a URL to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if _, err := engine.AddSource(id, args[1], ""); err != nil {
				if errors.Is(err, autoresearch.ErrConflict) {
					return fmt.Errorf("source already exists: %s", args[1])
				}
				return err
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			sources, err := engine.ListSources(id)
			if err != nil {
				return err
			}
			internal := make([]storage.Source, 0, len(sources))
			for _, s := range sources {
				internal = append(internal, storage.Source{
					ID: s.ID, ProjectID: s.ProjectID, URL: s.URL, Title: s.Title, CreatedAt: s.CreatedAt,
				})
			}
			formatter, err := newFormatter()
			if err != nil {
				return err
			}
			return formatter.OutputSourceList(internal)
		},
	}

	var maxItems int
	feed := &cobra.Command{
		Use:   "feed <project-id> <feed-url>",
		Short: "Seed sources from an RSS/Atom feed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			added, err := engine.AddFeedSources(cmd.Context(), id, args[1], maxItems)
			if err != nil {
				return err
			}
			fmt.Printf("Added %d sources from feed\n", len(added))
			return nil
		},
	}
	feed.Flags().IntVarP(&maxItems, "max", "m", 10, "maximum feed items to add")

	cmd.AddCommand(add, list, feed)
	return cmd
}

func crawlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <project-id>",
		Short: "Crawl all of a project's sources breadth-first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			job, pages, crawlErr := engine.StartCrawl(cmd.Context(), id)
			if job == nil {
				return crawlErr
			}
			result := &output.CrawlResult{
				JobID:      job.ID,
				Status:     job.Status,
				PagesAdded: pages,
			}
			if crawlErr != nil {
				result.Error = crawlErr.Error()
			}
			formatter, err := newFormatter()
			if err != nil {
				return err
			}
			return formatter.OutputCrawlResult(result)
		},
	}
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and inspect research reports",
	}

	generate := &cobra.Command{
		Use:   "generate <project-id>",
		Short: "Generate the project's report section by section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			report, err := engine.GenerateSimpleReport(cmd.Context(), id)
			if err != nil {
				return err
			}
			return outputReport(report)
		},
	}

	show := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show the project's latest report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			report, err := engine.GetReport(id)
			if err != nil {
				return err
			}
			return outputReport(report)
		},
	}

	split := &cobra.Command{
		Use:   "split <project-id>",
		Short: "Split the latest report into stored sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			sections, err := engine.SplitReport(id)
			if err != nil {
				return err
			}
			return outputSections(sections)
		},
	}

	cmd.AddCommand(generate, show, split)
	return cmd
}

func ieeeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ieee",
		Short: "IEEE-format expansion of the latest report",
	}

	expand := &cobra.Command{
		Use:   "expand <project-id>",
		Short: "Expand the latest report into IEEE paper format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ieee, err := engine.ExpandToIEEE(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(ieee.FullContent)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show the latest IEEE report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ieee, err := engine.GetIEEE(id)
			if err != nil {
				return err
			}
			fmt.Println(ieee.FullContent)
			return nil
		},
	}

	cmd.AddCommand(expand, show)
	return cmd
}

func sectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections <project-id>",
		Short: "List the sections of the latest report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			sections, err := engine.GetSections(id)
			if err != nil {
				return err
			}
			return outputSections(sections)
		},
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <project-id> <question>",
		Short: "Answer a question from the project's report",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			answer, err := engine.AskFromReport(cmd.Context(), id, args[1])
			if err != nil {
				return err
			}
			formatter, err := newFormatter()
			if err != nil {
				return err
			}
			return formatter.OutputAnswer(args[1], answer)
		},
	}
}

func exportCmd() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export <project-id> <word|pdf>",
		Short: "Export the latest report as a document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			var doc *autoresearch.Export
			switch args[1] {
			case "word":
				doc, err = engine.ExportWord(id)
			case "pdf":
				doc, err = engine.ExportPDF(id)
			default:
				return fmt.Errorf("format must be word or pdf, got %q", args[1])
			}
			if err != nil {
				return err
			}

			path := outPath
			if path == "" {
				path = doc.Filename
			}
			if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Printf("Wrote %s (%d bytes)\n", filepath.Clean(path), len(doc.Data))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file path (default: generated name)")
	return cmd
}

func initConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("config already exists at %s", configPath)
			}
			if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
				return fmt.Errorf("create config dir: %w", err)
			}
			data, err := yaml.Marshal(storage.DefaultConfig())
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			if err := os.WriteFile(configPath, data, 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("Wrote default config to %s\n", configPath)
			return nil
		},
	}
}

func outputReport(report *autoresearch.Report) error {
	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	return formatter.OutputReport(&storage.Report{
		ID:          report.ID,
		ProjectID:   report.ProjectID,
		Title:       report.Title,
		Status:      storage.ReportStatus(report.Status),
		Progress:    report.Progress,
		CurrentStep: report.CurrentStep,
		FullContent: report.FullContent,
		CreatedAt:   report.CreatedAt,
		UpdatedAt:   report.UpdatedAt,
	})
}

func outputSections(sections []autoresearch.ReportSection) error {
	internal := make([]storage.ReportSection, 0, len(sections))
	for _, s := range sections {
		internal = append(internal, storage.ReportSection{
			ID: s.ID, ReportID: s.ReportID, Title: s.Title, OrderIndex: s.OrderIndex, Content: s.Content,
		})
	}
	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	return formatter.OutputSectionList(internal)
}
