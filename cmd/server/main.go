package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/cxuy/cxkit/internal/app"
	"github.com/cxuy/cxkit/internal/httpclient"
	"github.com/cxuy/cxkit/internal/protocol"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("Command failed.", "reason", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	serve := func(cmd *cobra.Command, _ []string) error {
		slog.Info("Starting server...")
		if err := app.Run(cmd.Context(), opts); err != nil {
			return err
		}
		slog.Info("Server shutdown gracefully.")
		return nil
	}

	root := &cobra.Command{
		Use:           "cxkit",
		Short:         "JSON endpoint server and client",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}
	root.PersistentFlags().StringVar(&opts.ConfigFile, "config", "config.json", "path to the JSON config file")
	root.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "path to the env file loaded outside production")
	root.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable debug logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the server (default)",
		RunE:  serve,
	}
	serveCmd.Flags().IntVar(&opts.Port, "port", 0, "first port to try, overriding the config")
	root.Flags().AddFlagSet(serveCmd.Flags())

	root.AddCommand(serveCmd, newCallCmd(&opts))
	return root
}

type callFlags struct {
	baseURL string
	headers []string
	params  []string
	data    string
	token   string
}

func newCallCmd(opts *app.Options) *cobra.Command {
	var f callFlags

	cmd := &cobra.Command{
		Use:     "call METHOD PATH",
		Short:   "Send a request to a running server and print the reply",
		Example: `  cxkit call GET /hello -p name=ann
  cxkit call POST /helloworld -p name=ann -H Content-Type=application/json -d '{"name":"ann","id":1}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(cmd, *opts, f, args[0], args[1])
		},
	}
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "server base url, overriding the config")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "request header as key=value")
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "request parameter as key=value")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "raw request body")
	cmd.Flags().StringVar(&f.token, "token", "", "bearer token")
	return cmd
}

func runCall(cmd *cobra.Command, opts app.Options, f callFlags, method, path string) error {
	cfg, err := app.LoadConfig(opts)
	if err != nil {
		return err
	}
	cfg.Log.ToFile = false
	if _, err := app.SetupLogging(cfg, os.Stderr); err != nil {
		return err
	}

	m, err := httpclient.ParseMethod(method)
	if err != nil {
		return err
	}

	baseURL := f.baseURL
	if baseURL == "" {
		baseURL = cfg.Client.BaseURL
	}

	p := protocol.New(strings.TrimRight(baseURL, "/"))
	req, err := p.Build(protocol.Endpoint{Method: m, Path: path, Headers: f.headers}, nil)
	if err != nil {
		return err
	}
	for _, kv := range f.params {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("malformed param %q: want key=value", kv)
		}
		req.Params[k] = v
	}
	if f.data != "" {
		req.Body = []byte(f.data)
	}

	client := httpclient.New(httpclient.WithTimeouts(cfg.Client.ConnectTimeout.Duration, cfg.Client.ResponseTimeout.Duration))
	if f.token != "" {
		client.AddInterceptor(httpclient.BearerToken(func() (string, error) { return f.token, nil }))
	}

	resp, err := client.Do(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n%s\n", resp.StatusCode, resp.Status, resp.String())
	return nil
}
