// Command genchat is a terminal front end for conversational model backends.
//
// Each input line is sent as a fresh single-turn request and the reply is
// streamed to stdout. Empty lines re-prompt; call failures are printed and
// the loop continues; EOF or interrupt exits cleanly.
//
// Usage:
//
//	GEMINI_API_KEY=gk-... genchat [flags]
//
// Flags:
//
//	-provider string  Backend: gemini, ollama (default gemini)
//	-model string     Model ID (default: provider default)
//	-api-key string   API key (overrides GEMINI_API_KEY)
//	-render           Buffer each reply and render it as markdown
//	-tools            Offer the builtin file tools to the model
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"

	"github.com/fwojciec/genchat"
	"github.com/fwojciec/genchat/builtin"
	"github.com/fwojciec/genchat/gemini"
	"github.com/fwojciec/genchat/markdown"
	"github.com/fwojciec/genchat/ollama"
)

const renderWidth = 80

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "genchat: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		providerFlag = flag.String("provider", "gemini", "Backend: gemini, ollama")
		model        = flag.String("model", "", "Model ID (provider-specific)")
		apiKey       = flag.String("api-key", "", "API key (overrides GEMINI_API_KEY)")
		render       = flag.Bool("render", false, "Buffer each reply and render it as markdown")
		withTools    = flag.Bool("tools", false, "Offer the builtin file tools to the model")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	provider, err := resolveProvider(ctx, *providerFlag, *model, *apiKey, os.Getenv("GEMINI_API_KEY"))
	if err != nil {
		return err
	}

	var executor genchat.ToolExecutor
	var tools []genchat.Tool
	if *withTools {
		if *providerFlag == "ollama" {
			return errors.New("the ollama backend does not support tools")
		}
		e := builtin.NewExecutor()
		executor = e
		tools = e.Tools()
	}

	loop := genchat.NewLoop(provider, executor)
	theme := genchat.DefaultTheme()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if err := turn(ctx, loop, tools, input, *render, theme); err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	return nil
}

// turn sends one input line as a standalone conversation. No state carries
// over to the next line.
func turn(ctx context.Context, loop *genchat.Loop, tools []genchat.Tool, input string, render bool, theme genchat.Theme) error {
	session := genchat.NewSession(uuid.NewString(), "")
	session.Messages = []genchat.Message{genchat.NewUserMessage(input)}

	var reply strings.Builder
	onEvent := func(evt genchat.Event) {
		switch e := evt.(type) {
		case genchat.EventTextDelta:
			if render {
				reply.WriteString(e.Delta)
				return
			}
			fmt.Print(e.Delta)
		case genchat.EventToolCallBegin:
			fmt.Printf("\n[%s]\n", e.Name)
		}
	}

	err := loop.Run(ctx, &session, tools, genchat.WithEventHandler(onEvent))
	if err != nil {
		if !render {
			fmt.Println()
		}
		return err
	}

	if render {
		fmt.Println(markdown.Render(reply.String(), renderWidth, theme))
		return nil
	}
	fmt.Println()
	return nil
}

func resolveProvider(ctx context.Context, name, model, apiKey, envKey string) (genchat.Provider, error) {
	switch name {
	case "gemini":
		key := apiKey
		if key == "" {
			key = envKey
		}
		var opts []gemini.Option
		if model != "" {
			opts = append(opts, gemini.WithModel(model))
		}
		return gemini.New(ctx, key, opts...)
	case "ollama":
		var opts []ollama.Option
		if model != "" {
			opts = append(opts, ollama.WithModel(model))
		}
		return ollama.New(opts...), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want gemini or ollama)", name)
	}
}
