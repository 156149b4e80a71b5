package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/Rorical/comgen/internal/app"
	"github.com/Rorical/comgen/internal/config"
	"github.com/Rorical/comgen/internal/executor"
	"github.com/Rorical/comgen/internal/generator"
)

var (
	modelFlag      string
	workingDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "comgen",
	Short: "Generate shell commands from natural language",
	Long:  `comgen turns natural language requests into shell commands, lets you review or edit them, and executes them with the outcome feeding back into the conversation.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}

		cfg.SetModel(modelFlag)
		if workingDirFlag != "" {
			cfg.SetWorkingDir(workingDirFlag)
		}

		runInteractive(cfg)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&modelFlag, "model", "m", "", "model to use for this session")
	rootCmd.Flags().StringVarP(&workingDirFlag, "working-dir", "w", "", "working directory for command execution")
	rootCmd.AddCommand(profileCmd)
}

// runInteractive validates the configuration, wires the components together
// and runs the interaction loop. Exits non-zero only when startup validation
// fails; a finished loop always exits zero.
func runInteractive(cfg *config.Config) {
	renderer := app.NewRenderer(os.Stdout)
	renderer.Banner()

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, msg := range errs {
			renderer.Error(msg)
		}
		os.Exit(1)
	}

	clientConfig := openai.DefaultConfig(cfg.GetAPIKey())
	if cfg.GetBaseURL() != "" {
		clientConfig.BaseURL = cfg.GetBaseURL()
	}
	client := openai.NewClientWithConfig(clientConfig)

	exec := executor.New(cfg.Shell, cfg.WorkingDir)
	gen := generator.New(client, cfg.GetModel(), cfg.Shell, exec.WorkingDir)

	prompter, err := app.NewTerminalPrompter(cfg.HistoryFile, cfg.MaxHistory, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start prompt session: %v\n", err)
		os.Exit(1)
	}
	defer prompter.Close()

	loop := app.NewLoop(gen, exec, prompter, renderer)
	if err := loop.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Loop error: %v\n", err)
	}
}
