package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"polyglot/internal/app"
	"polyglot/internal/config"
	"polyglot/internal/domain"
	"polyglot/internal/domain/models"
	"polyglot/internal/formats"
	"polyglot/internal/httputil"
	"polyglot/internal/service/llm/providers/openaicompat"
)

// setup loads config from the environment and applies global flags
func setup(c *cli.Context) (*app.App, func(), error) {
	cfg := config.Load()
	if path := c.String("settings"); path != "" {
		cfg.SettingsPath = path
	}

	var out io.Writer = io.Discard
	cfg.Debug = c.Bool("verbose")
	if cfg.Debug {
		out = os.Stderr
	}

	logger, closeLog, err := config.NewLogger(cfg, out)
	if err != nil {
		return nil, nil, err
	}

	a, err := app.New(c.Context, cfg, logger)
	if err != nil {
		_ = closeLog()
		return nil, nil, err
	}

	return a, func() {
		_ = a.Close()
		_ = closeLog()
	}, nil
}

func serveAction(c *cli.Context) error {
	a, cleanup, err := setup(c)
	if err != nil {
		return err
	}
	defer cleanup()

	ln, err := net.Listen("tcp", c.String("addr"))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	server := &http.Server{
		Handler:      a.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: a.Config.HTTPTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	blue := color.New(color.FgBlue).SprintFunc()
	fmt.Fprintf(c.App.Writer, "%s %s\n", green("polyglot"), app.Version)
	fmt.Fprintf(c.App.Writer, "Listening on %s\n", blue("http://"+ln.Addr().String()))
	fmt.Fprintln(c.App.Writer, "Press Ctrl+C to stop")

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-c.Context.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func convertAction(c *cli.Context) error {
	a, cleanup, err := setup(c)
	if err != nil {
		return err
	}
	defer cleanup()

	input := c.String("in")
	content, err := readInput(input, c.App.Reader)
	if err != nil {
		return err
	}
	if !utf8.ValidString(content) {
		return errors.New("input is not valid UTF-8 text")
	}

	fromArg := c.String("from")
	if fromArg == "" {
		if input == "-" {
			return errors.New("--from is required when reading stdin")
		}
		fromArg = filepath.Ext(input)
	}
	from, err := resolveFormat(a.Formats, fromArg)
	if err != nil {
		return err
	}
	to, err := resolveFormat(a.Formats, c.String("to"))
	if err != nil {
		return err
	}

	stored, err := a.Settings.ResolveConfig(c.Context, httputil.LocalOwnerID, nil)
	if err != nil {
		return err
	}
	cfg := applyOverrides(stored, providerFlags{
		Provider: c.String("provider"),
		APIKey:   c.String("api-key"),
		BaseURL:  c.String("base-url"),
		Model:    c.String("model"),
	})

	result, err := a.Conversion.Convert(c.Context, &models.ConversionRequest{
		Content:    content,
		FromFormat: from.Value,
		ToFormat:   to.Value,
		Config:     cfg,
	})
	if err != nil {
		return errors.New(failureReason(err))
	}

	return writeOutput(c.String("out"), c.App.Writer, result.Content)
}

func formatsAction(c *cli.Context) error {
	registry, err := formats.NewRegistry()
	if err != nil {
		return err
	}
	printFormats(c.App.Writer, registry.Grouped())
	return nil
}

// providerFlags are the per-invocation overrides of the stored settings
type providerFlags struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// applyOverrides layers non-empty flags over stored. Switching provider drops
// the stored key and base URL, and pointing an OpenAI-compatible config at a
// different endpoint drops the stored key.
func applyOverrides(stored models.ProviderConfig, f providerFlags) models.ProviderConfig {
	cfg := stored
	if p := models.ProviderKind(strings.TrimSpace(f.Provider)); p != "" && p != stored.Provider {
		cfg = models.ProviderConfig{Provider: p}
	}
	if v := strings.TrimSpace(f.BaseURL); v != "" {
		// The stored key belongs to the stored endpoint
		if cfg.Provider == models.ProviderOpenAICompatible &&
			openaicompat.NormalizeBaseURL(v) != openaicompat.NormalizeBaseURL(cfg.BaseURL) {
			cfg.APIKey = ""
		}
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(f.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(f.Model); v != "" {
		cfg.Model = v
	}
	return cfg
}

func resolveFormat(registry *formats.Registry, s string) (models.FormatDescriptor, error) {
	if strings.TrimSpace(s) == "" {
		return models.FormatDescriptor{}, fmt.Errorf("format is required")
	}
	desc, ok := registry.Resolve(s)
	if !ok {
		return models.FormatDescriptor{}, fmt.Errorf("unknown format %q (run `polyglot formats`)", s)
	}
	return desc, nil
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

func writeOutput(path string, stdout io.Writer, content string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, content)
		if err == nil && !strings.HasSuffix(content, "\n") {
			_, err = io.WriteString(stdout, "\n")
		}
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// failureReason is the message shown for a failed conversion
func failureReason(err error) string {
	var perr *domain.ProviderError
	if errors.As(err, &perr) {
		return perr.Message
	}
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	return domain.MsgConversionFailed
}

func printFormats(w io.Writer, groups []models.FormatGroup) {
	heading := color.New(color.FgYellow, color.Bold).SprintFunc()
	id := color.New(color.FgCyan).SprintFunc()

	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, heading(string(g.Category)))
		for _, f := range g.Formats {
			fmt.Fprintf(w, "  %s %-18s .%-6s %s\n",
				id(fmt.Sprintf("%-12s", f.Value)), f.Label, f.FileExtension, f.MimeType)
		}
	}
}
