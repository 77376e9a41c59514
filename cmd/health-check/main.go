// Package main provides a standalone health probe for container health checks
// and monitoring scripts.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gourmetguru/api/internal/infrastructure/config"
	"github.com/gourmetguru/api/pkg/healthcheck"
	"github.com/gourmetguru/api/pkg/logger"
	"go.uber.org/zap"
)

const (
	exitCodeSuccess = 0
	exitCodeFailure = 1
	exitCodeError   = 2
)

// Options holds command-line configuration
type Options struct {
	URL        string
	ConfigPath string
	Timeout    time.Duration
	Expect     string
	Retry      int
	RetryDelay time.Duration
	Format     string
}

func main() {
	opts := parseFlags()

	log, _, err := logger.New(logger.Config{Level: "warn", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(exitCodeError)
	}
	defer func() { _ = log.Sync() }()

	if opts.URL == "" {
		url, err := urlFromConfig(opts.ConfigPath)
		if err != nil {
			log.Error("Failed to load configuration", zap.Error(err))
			os.Exit(exitCodeError)
		}
		opts.URL = url
	}

	os.Exit(run(opts, &http.Client{Timeout: opts.Timeout}, log))
}

func parseFlags() Options {
	opts := Options{}

	flag.StringVar(&opts.URL, "url", os.Getenv("HEALTH_CHECK_URL"), "Health endpoint URL (defaults to the configured server address)")
	flag.StringVar(&opts.ConfigPath, "config", os.Getenv("GOURMET_CONFIG"), "Configuration file path")
	flag.DurationVar(&opts.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.StringVar(&opts.Expect, "expect", string(healthcheck.StatusHealthy), "Lowest acceptable status: healthy or degraded")
	flag.IntVar(&opts.Retry, "retry", 0, "Number of retries on failure")
	flag.DurationVar(&opts.RetryDelay, "retry-delay", time.Second, "Delay between retries")
	flag.StringVar(&opts.Format, "format", "text", "Output format: text or json")

	flag.Parse()
	return opts
}

// urlFromConfig builds the health URL from the server section of the config
func urlFromConfig(path string) (string, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return "", err
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Server.Port)) + "/health", nil
}

func run(opts Options, client *http.Client, log *zap.Logger) int {
	var (
		body map[string]interface{}
		err  error
	)
	for attempt := 0; attempt <= opts.Retry; attempt++ {
		if attempt > 0 {
			time.Sleep(opts.RetryDelay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		body, err = probe(ctx, client, opts.URL)
		cancel()
		if err == nil {
			break
		}
		log.Warn("Health probe failed", zap.String("url", opts.URL), zap.Int("attempt", attempt+1), zap.Error(err))
	}
	if err != nil {
		return exitCodeError
	}

	status := statusOf(body)
	switch opts.Format {
	case "json":
		data, _ := json.MarshalIndent(body, "", "  ")
		fmt.Println(string(data))
	default:
		fmt.Printf("Status: %s\n", status)
		if checks, ok := body["checks"].([]interface{}); ok {
			for _, c := range checks {
				if check, ok := c.(map[string]interface{}); ok {
					fmt.Printf("  %v: %v %v\n", check["name"], check["status"], check["message"])
				}
			}
		}
	}

	return exitCode(status, healthcheck.Status(opts.Expect))
}

// probe fetches the health document. Non-2xx responses still carry a body
// describing the failing checks, so only transport and decode errors fail.
func probe(ctx context.Context, client *http.Client, url string) (map[string]interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode health response (HTTP %d): %w", resp.StatusCode, err)
	}
	return body, nil
}

func statusOf(body map[string]interface{}) healthcheck.Status {
	if s, ok := body["status"].(string); ok {
		return healthcheck.Status(s)
	}
	return healthcheck.StatusUnhealthy
}

func exitCode(status, expect healthcheck.Status) int {
	switch status {
	case healthcheck.StatusHealthy:
		return exitCodeSuccess
	case healthcheck.StatusDegraded:
		if expect == healthcheck.StatusDegraded {
			return exitCodeSuccess
		}
	}
	return exitCodeFailure
}
