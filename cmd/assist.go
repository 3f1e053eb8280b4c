package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/realfolio/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type assistCmd struct{}

func (*assistCmd) Name() string     { return "assist" }
func (*assistCmd) Synopsis() string { return "start an interactive session with the AI assistant" }
func (*assistCmd) Usage() string {
	return `rf assist [<question>]

  Starts an interactive session with the AI assistant. It needs GEMINI_API_KEY.
`
}

func (*assistCmd) SetFlags(*flag.FlagSet) {}

func (*assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, func(a *app) error {
		if a.cfg.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is not set")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: a.cfg.GeminiAPIKey, Backend: genai.BackendGeminiAPI})
		if err != nil {
			return fmt.Errorf("initializing Gemini's client: %w", err)
		}

		a.forecast(ctx)
		assistant := agent.New(os.Stdout, os.Stdin, agent.NewTrader(), agent.NewAccountant(a.svc, a.portfolio))
		assistant.Print = func(_ io.Writer, answer string) { printMarkdown(answer) }
		if err := assistant.Run(ctx, client, strings.Join(f.Args(), " ")); err != nil {
			return fmt.Errorf("agent failed: %w", err)
		}
		return nil
	})
}
