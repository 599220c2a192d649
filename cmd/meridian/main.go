// meridian sends one prompt through the generation engine and prints the
// streamed events, running any tool calls the model makes along the way.
//
// Usage:
//
//	meridian --provider lorem --model lorem-fast --prompt "Hello"
//	meridian --provider anthropic --model claude-haiku-4-5 --tools --max-steps 4 --prompt "What time is it in Tokyo?"
//
// API keys are read from ANTHROPIC_API_KEY, OPENROUTER_API_KEY and
// GEMINI_API_KEY, or from a .env file in the working directory or a parent.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	llmprovider "github.com/haowjy/meridian-llm-go"
	"github.com/haowjy/meridian-llm-go/chunk"
	"github.com/haowjy/meridian-llm-go/engine"
	"github.com/haowjy/meridian-llm-go/providers/anthropic"
	"github.com/haowjy/meridian-llm-go/providers/gemini"
	"github.com/haowjy/meridian-llm-go/providers/lorem"
	"github.com/haowjy/meridian-llm-go/providers/openrouter"
)

type options struct {
	provider  string
	model     string
	prompt    string
	system    string
	maxSteps  int
	maxTokens int
	thinking  string
	tools     bool
	stream    bool
	profiles  string
	verbose   bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var opts options

	flagSet := pflag.NewFlagSet("meridian", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVarP(&opts.provider, "provider", "p", "lorem", "vendor: anthropic, openrouter, gemini or lorem")
	flagSet.StringVarP(&opts.model, "model", "m", "", "model name (default depends on the provider)")
	flagSet.StringVar(&opts.prompt, "prompt", "", "user prompt (required)")
	flagSet.StringVar(&opts.system, "system", "", "system prompt")
	flagSet.IntVar(&opts.maxSteps, "max-steps", 1, "maximum model turns, including tool round trips")
	flagSet.IntVar(&opts.maxTokens, "max-tokens", 1024, "maximum output tokens per turn")
	flagSet.StringVar(&opts.thinking, "thinking", "", "enable thinking at level low, medium or high")
	flagSet.BoolVar(&opts.tools, "tools", false, "offer the demo tools (get_time, add)")
	flagSet.BoolVar(&opts.stream, "stream", true, "stream events as they arrive; false waits for the full response")
	flagSet.StringVar(&opts.profiles, "profiles", "", "YAML file overriding the embedded vendor profiles")
	flagSet.BoolVarP(&opts.verbose, "verbose", "v", false, "log engine steps to stderr")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if opts.prompt == "" {
		return errors.New("--prompt is required")
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if path, err := loadEnv(); err != nil {
		logger.Warn("failed to load .env", "path", path, "error", err)
	} else if path != "" {
		logger.Debug("loaded .env", "path", path)
	}

	if opts.profiles != "" {
		if err := llmprovider.LoadProfilesFromFile(opts.profiles); err != nil {
			return err
		}
	}

	eng, model, err := newEngine(opts, logger)
	if err != nil {
		return err
	}

	req, err := buildRequest(opts, model)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if !opts.stream {
		resp, err := eng.Generate(ctx, req)
		if err != nil {
			return err
		}
		printResponse(stdout, resp)
		return nil
	}

	stream, err := eng.Stream(ctx, req)
	if err != nil {
		return err
	}
	defer stream.Close()

	for event, err := range stream.All() {
		if err != nil {
			return err
		}
		printEvent(stdout, event)
	}

	resp, err := stream.Response()
	if err != nil {
		return err
	}
	printSummary(stdout, resp)
	return nil
}

func newEngine(opts options, logger *slog.Logger) (*engine.Engine, string, error) {
	var (
		transport  llmprovider.Transport
		normalizer chunk.Normalizer
		model      = opts.model
		err        error
	)

	provider, err := llmprovider.ParseProviderID(opts.provider)
	if err != nil {
		return nil, "", err
	}
	apiKey := os.Getenv(apiKeyEnv[provider])

	switch provider {
	case llmprovider.ProviderAnthropic:
		if model == "" {
			model = "claude-haiku-4-5"
		}
		if transport, err = anthropic.NewTransport(apiKey, anthropic.TransportOptions{}); err == nil {
			normalizer, err = anthropic.NewNormalizer()
		}
	case llmprovider.ProviderOpenRouter:
		if model == "" {
			model = "openai/gpt-4o-mini"
		}
		if transport, err = openrouter.NewTransport(apiKey, openrouter.TransportOptions{Title: "meridian"}); err == nil {
			normalizer, err = openrouter.NewNormalizer()
		}
	case llmprovider.ProviderGoogle:
		if model == "" {
			model = "gemini-2.5-flash"
		}
		if transport, err = gemini.NewTransport(apiKey, gemini.TransportOptions{}); err == nil {
			normalizer, err = gemini.NewNormalizer()
		}
	case llmprovider.ProviderLorem:
		if model == "" {
			model = "lorem-fast"
		}
		transport = lorem.NewTransport(lorem.Options{ToolTurns: 1, Logger: logger})
		normalizer, err = lorem.NewNormalizer()
	}
	if errors.Is(err, llmprovider.ErrInvalidAPIKey) {
		return nil, "", fmt.Errorf("%s is not set: %w", apiKeyEnv[provider], err)
	}
	if err != nil {
		return nil, "", err
	}

	return engine.New(transport, normalizer, engine.Options{
		MaxSteps:            opts.maxSteps,
		ToolErrorsAsResults: true,
		Logger:              logger,
	}), model, nil
}

func buildRequest(opts options, model string) (*llmprovider.GenerateRequest, error) {
	params := &llmprovider.RequestParams{MaxTokens: &opts.maxTokens}
	if opts.system != "" {
		params.System = &opts.system
	}
	if opts.thinking != "" {
		enabled := true
		params.ThinkingEnabled = &enabled
		params.ThinkingLevel = &opts.thinking
	}

	req := &llmprovider.GenerateRequest{
		Model:    model,
		Messages: []llmprovider.Message{llmprovider.UserMessage(opts.prompt)},
		Params:   params,
		MaxSteps: opts.maxSteps,
	}

	if opts.tools {
		tools, err := demoTools(time.Now)
		if err != nil {
			return nil, err
		}
		req.Tools = tools
	}
	return req, nil
}

func printEvent(w io.Writer, event llmprovider.StreamEvent) {
	switch event.Type {
	case llmprovider.EventStreamStart:
		fmt.Fprintf(w, "--- step %d (%s) ---\n", event.Step+1, event.Model)
	case llmprovider.EventThinkingStart:
		fmt.Fprint(w, "[thinking] ")
	case llmprovider.EventThinkingComplete, llmprovider.EventTextComplete:
		fmt.Fprintln(w)
	case llmprovider.EventTextDelta, llmprovider.EventThinkingDelta:
		fmt.Fprint(w, event.Delta)
	case llmprovider.EventToolCall:
		fmt.Fprintf(w, "[tool call] %s %s\n", event.ToolCall.Name, event.ToolCall.RawArguments())
	case llmprovider.EventToolResult:
		status := "ok"
		if event.ToolResult.IsError {
			status = "error"
		}
		fmt.Fprintf(w, "[tool result] %s (%s): %s\n", event.ToolResult.ToolName, status, llmprovider.FormatToolResult(event.ToolResult.Result))
	case llmprovider.EventError:
		fmt.Fprintf(w, "[error] %s\n", event.Message)
	case llmprovider.EventStreamEnd:
		fmt.Fprintf(w, "[end] %s\n", event.FinishReason)
	}
}

func printResponse(w io.Writer, resp *llmprovider.Response) {
	for i, step := range resp.Steps {
		fmt.Fprintf(w, "--- step %d (%s) ---\n", i+1, step.Meta.Model)
		if step.Thinking != "" {
			fmt.Fprintf(w, "[thinking] %s\n", step.Thinking)
		}
		if step.Text != "" {
			fmt.Fprintln(w, step.Text)
		}
		for _, call := range step.ToolCalls {
			fmt.Fprintf(w, "[tool call] %s %s\n", call.Name, call.RawArguments())
		}
		for _, result := range step.ToolResults {
			fmt.Fprintf(w, "[tool result] %s: %s\n", result.ToolName, llmprovider.FormatToolResult(result.Result))
		}
	}
	printSummary(w, resp)
}

func printSummary(w io.Writer, resp *llmprovider.Response) {
	fmt.Fprintf(w, "finish: %s, steps: %d", resp.FinishReason, len(resp.Steps))
	if resp.BudgetExhausted {
		fmt.Fprint(w, " (step budget exhausted)")
	}
	if tokens := resp.Usage.Fields(); len(tokens) > 0 {
		fmt.Fprintf(w, ", usage: %v", tokens)
	}
	fmt.Fprintln(w)
}
