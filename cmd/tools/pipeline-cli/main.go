// cmd/tools/pipeline-cli/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"room-redesign-workers/internal/common/analytics"
	"room-redesign-workers/internal/common/config"
	"room-redesign-workers/internal/common/logger"
	"room-redesign-workers/internal/models"
	enhanceprompt "room-redesign-workers/internal/workers/generation/enhance-prompt"
	generatedesign "room-redesign-workers/internal/workers/generation/generate-design"
	generateroomdesign "room-redesign-workers/internal/workers/generation/generate-room-design"
	refinedesign "room-redesign-workers/internal/workers/generation/refine-design"
	validategenerationrequest "room-redesign-workers/internal/workers/generation/validate-generation-request"

	"github.com/spf13/cobra"
)

var (
	requestFile string
	configFile  string
	baseURL     string
	apiKey      string
	logLevel    string
	quiet       bool
	showEvents  bool

	refineImage       string
	refineInstruction string
	refineSession     string
	refineUser        string
)

var rootCmd = &cobra.Command{
	Use:   "pipeline-cli",
	Short: "Run the room redesign pipeline stages from the command line",
	Long: `pipeline-cli runs the request validator, the fallback prompt synthesizer, the
two-stage generation pipeline and the refinement stage in-process. Requests are
GenerationRequest JSON documents; use "-" to read from stdin. Analytics events
are written to the log instead of the configured sinks, or printed after the
result with --events.

Examples:
  pipeline-cli validate -r request.json
  pipeline-cli fallback -r request.json
  pipeline-cli generate -r request.json --base-url http://localhost:3000/api
  pipeline-cli generate -r request.json --quiet --events
  pipeline-cli refine --image https://cdn/design.png --instruction "make the sofa blue" --session s1 --user u1`,
	SilenceUsage: true,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "List every problem with a generation request",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readRequest(requestFile)
		if err != nil {
			return err
		}
		result := validategenerationrequest.Validate(req)
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if !result.Valid {
			return fmt.Errorf("request has %d validation errors", len(result.Errors))
		}
		return nil
	},
}

var fallbackCmd = &cobra.Command{
	Use:   "fallback",
	Short: "Print the locally synthesized prompt for a request",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readRequest(requestFile)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), enhanceprompt.SynthesizeFallbackPrompt(req))
		return err
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Validate a request and run enhancement then synthesis",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readRequest(requestFile)
		if err != nil {
			return err
		}
		if check := validategenerationrequest.Validate(req); !check.Valid {
			_ = printJSON(cmd.OutOrStdout(), check)
			return fmt.Errorf("request has %d validation errors", len(check.Errors))
		}

		gen, err := generationSettings()
		if err != nil {
			return err
		}

		log := newLogger()
		collector, closeEvents := newCollector(log)

		enhancement := enhanceprompt.LoadConfig()
		enhancement.BaseURL, enhancement.APIKey = gen.BaseURL, gen.APIKey
		enhancement.Timeout = config.GetDuration(gen.EnhancementTimeout)

		synthesis := generatedesign.LoadConfig()
		synthesis.BaseURL, synthesis.APIKey = gen.BaseURL, gen.APIKey
		synthesis.Timeout = config.GetDuration(gen.SynthesisTimeout)

		orchestrator := generateroomdesign.NewOrchestrator(
			enhanceprompt.NewHandler(enhancement, log),
			generatedesign.NewHandler(synthesis, log),
			collector, nil, log,
		)

		result := orchestrator.Run(cmd.Context(), req)
		closeEvents()
		if err := printJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		if err := writeEvents(cmd.OutOrStdout(), collector); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("generation failed: %s", result.ErrorMessage)
		}
		return nil
	},
}

var refineCmd = &cobra.Command{
	Use:   "refine",
	Short: "Apply a refinement instruction to a generated image",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := generationSettings()
		if err != nil {
			return err
		}

		log := newLogger()
		collector, closeEvents := newCollector(log)

		refinement := refinedesign.LoadConfig()
		refinement.BaseURL, refinement.APIKey = gen.BaseURL, gen.APIKey
		refinement.Timeout = config.GetDuration(gen.RefinementTimeout)

		design, err := refinedesign.NewHandler(refinement, collector, log).Execute(cmd.Context(), &refinedesign.Input{
			GeneratedImage:        refineImage,
			RefinementInstruction: refineInstruction,
			SessionID:             refineSession,
			UserID:                refineUser,
		})
		closeEvents()
		if err == nil {
			err = printJSON(cmd.OutOrStdout(), design)
		}
		if eventsErr := writeEvents(cmd.OutOrStdout(), collector); err == nil {
			err = eventsErr
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file; generation settings are read from it when set")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", os.Getenv("GENERATION_BASE_URL"), "Generation backend base URL")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("GENERATION_API_KEY"), "Generation backend API key")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Discard log output")

	for _, c := range []*cobra.Command{generateCmd, refineCmd} {
		c.Flags().BoolVar(&showEvents, "events", false, "Print the analytics events emitted by the run")
	}

	for _, c := range []*cobra.Command{validateCmd, fallbackCmd, generateCmd} {
		c.Flags().StringVarP(&requestFile, "request", "r", "-", "GenerationRequest JSON file, or - for stdin")
	}

	refineCmd.Flags().StringVar(&refineImage, "image", "", "Generated image URL or reference")
	refineCmd.Flags().StringVar(&refineInstruction, "instruction", "", "Refinement instruction")
	refineCmd.Flags().StringVar(&refineSession, "session", "", "Session ID")
	refineCmd.Flags().StringVar(&refineUser, "user", "", "User ID")
	for _, name := range []string{"image", "instruction"} {
		_ = refineCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(validateCmd, fallbackCmd, generateCmd, refineCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// generationSettings takes the backend settings from --config when given,
// with --base-url and --api-key overriding.
func generationSettings() (config.GenerationConfig, error) {
	gen := config.GenerationConfig{
		EnhancementTimeout: 20000,
		SynthesisTimeout:   90000,
		RefinementTimeout:  90000,
	}
	if configFile != "" {
		cfg, err := config.LoadFromFile(configFile)
		if err != nil {
			return gen, err
		}
		gen = cfg.Generation
	}
	if baseURL != "" {
		gen.BaseURL = baseURL
	}
	if apiKey != "" {
		gen.APIKey = apiKey
	}
	if err := gen.Validate(); err != nil {
		return gen, fmt.Errorf("generation settings: %w", err)
	}
	return gen, nil
}

func readRequest(path string) (*models.GenerationRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	var req models.GenerationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("parse request: %w", err)
	}
	return &req, nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger() logger.Logger {
	if quiet {
		return logger.NewNoOpLogger()
	}
	return logger.NewStructured(logLevel, "console")
}

// newCollector records events in memory for --events, otherwise it logs them
// through a dispatcher. The returned func flushes pending events.
func newCollector(log logger.Logger) (analytics.Collector, func()) {
	if showEvents {
		return analytics.NewRecorder(), func() {}
	}

	d := analytics.NewDispatcher(analytics.DispatcherConfig{}, log, analytics.NewLogSink(log))
	return d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.Close(ctx); err != nil {
			log.Warn("analytics events not flushed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func writeEvents(w io.Writer, c analytics.Collector) error {
	rec, ok := c.(*analytics.Recorder)
	if !ok {
		return nil
	}
	return printJSON(w, rec.Events())
}
