// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/reason-search/internal/research"
	"github.com/pdiddy/reason-search/internal/stream"
	"github.com/pdiddy/reason-search/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Run a reasoned research on a topic",
	Long: `Research plans 4-12 searches and 2-8 analyses for the topic, runs them in
order, and identifies gaps. With --depth advanced it also searches the
gaps and synthesizes key findings.

Output formats:
  jsonl  one progress event per line, then the result (default)
  yaml   progress lines on stderr, the result as YAML on stdout
  board  a live step board on stderr, the result as YAML on stdout`,
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().String("topic", "", "research topic (or pass it as arguments)")
	researchCmd.Flags().String("depth", "basic", "research depth: basic or advanced")
	researchCmd.Flags().String("format", "jsonl", "output format: jsonl, yaml, or board")

	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" {
		topic = strings.Join(args, " ")
	}
	if strings.TrimSpace(topic) == "" {
		return fmt.Errorf("provide a topic with --topic or as arguments")
	}
	depthFlag, _ := cmd.Flags().GetString("depth")
	depth, err := types.ParseDepth(depthFlag)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")

	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	p, err := buildProviders(cfg, true)
	if err != nil {
		return err
	}
	defer p.Close()

	redisSink, closeRedis, err := newRedisSink(cfg.Stream)
	if err != nil {
		return err
	}
	defer closeRedis()

	sink, finish, err := progressSink(format, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}
	sinks := research.MultiSink{sink}
	if redisSink != nil {
		sinks = append(sinks, redisSink)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := newEngine(cfg, p).Run(ctx, topic, depth, sinks)
	if err != nil {
		return err
	}
	return finish(result)
}

// progressSink returns the sink for format and a function that writes the
// final result.
func progressSink(format string, stdout, stderr io.Writer) (research.Sink, func(*types.ResearchResult) error, error) {
	switch format {
	case "jsonl":
		j := stream.NewJSONL(stdout)
		return j, func(r *types.ResearchResult) error {
			if err := j.Err(); err != nil {
				return err
			}
			return json.NewEncoder(stdout).Encode(r)
		}, nil
	case "yaml":
		sink := research.SinkFunc(func(evt types.ProgressEvent) {
			fmt.Fprintln(stderr, eventLine(evt))
		})
		return sink, func(r *types.ResearchResult) error { return writeYAML(stdout, r) }, nil
	case "board":
		b := &boardPrinter{w: stderr}
		return b, func(r *types.ResearchResult) error { return writeYAML(stdout, r) }, nil
	}
	return nil, nil, fmt.Errorf("unknown format %q: want jsonl, yaml, or board", format)
}

func eventLine(evt types.ProgressEvent) string {
	line := fmt.Sprintf("[%d/%d] %-9s %s", evt.CompletedSteps, evt.TotalSteps, evt.Status, evt.Title)
	if evt.Message != "" {
		line += ": " + evt.Message
	}
	if evt.Error != "" {
		line += " (" + evt.Error + ")"
	}
	return line
}

// boardPrinter redraws the step board after every event. Overwriting events
// update their card in place.
type boardPrinter struct {
	w     io.Writer
	board research.Board
}

func (b *boardPrinter) Emit(evt types.ProgressEvent) {
	b.board.Emit(evt)
	cards := b.board.Cards()
	fmt.Fprintf(b.w, "\n== %d/%d steps ==\n", evt.CompletedSteps, evt.TotalSteps)
	for _, c := range cards {
		fmt.Fprintf(b.w, "  %-9s %-22s %s\n", c.Status, c.ID, c.Title)
	}
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding YAML: %w", err)
	}
	return enc.Close()
}
