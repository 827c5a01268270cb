package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khoahotran/chatbot-service/adapters/llm"
	chatUC "github.com/khoahotran/chatbot-service/internal/application/usecase/chat"
	"github.com/khoahotran/chatbot-service/internal/config"
	"github.com/khoahotran/chatbot-service/pkg/logger"
)

var (
	modelFlag     string
	configDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with the configured Gemini model",
	Long: `Open one chat session and send every input line to it.

The session keeps the conversation history for the lifetime of the process.
Type "exit" or send EOF (Ctrl-D) to quit.

Examples:
  GEMINI_API_KEY=... chat
  chat --model gemini-1.5-flash`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.Flags().StringVar(&modelFlag, "model", "", "Model name (default: GEMINI_MODEL or gemini-pro)")
	rootCmd.Flags().StringVar(&configDirFlag, "config-dir", ".", "Directory holding .env and config.yaml")
}

func Execute() error {
	return rootCmd.Execute()
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(configDirFlag)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if modelFlag != "" {
		cfg.Gemini.Model = modelFlag
	}

	appLogger := logger.NewZapLogger(cfg.App.Env, "chatbot-cli")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := llm.NewGeminiChatProvider(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to init provider: %w", err)
	}
	chatbot, err := chatUC.NewChatbotService(ctx, cfg.Gemini.APIKey, provider, appLogger)
	if err != nil {
		return err
	}

	return runREPL(ctx, chatbot, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runREPL sends each non-blank line to bot and prints the reply. Failed turns
// are reported on errOut and the loop continues.
func runREPL(ctx context.Context, bot chatUC.Responder, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}

		reply, err := bot.GenerateResponse(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "model> %s\n", reply)
	}
}
