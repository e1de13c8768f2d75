package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rickgao/venue-matcher/internal/stream"
)

type scanOptions struct {
	baseURL   string
	limit     int
	pmLimit   int
	mode      string
	keywords  string
	prefixes  string
	mveFilter string
	ws        bool
	verbose   bool
}

func scanCmd() *cobra.Command {
	var opts scanOptions

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one scan and print its events",
		Long: `Run one scan against --url and print each streamed event.

Interrupting the command closes the stream, which the server records as a
client abort.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runScan(ctx, opts, newRenderer(cmd.OutOrStdout(), opts.verbose))
		},
	}

	cmd.Flags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "matcher base URL")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "candidate limit (server default when 0)")
	cmd.Flags().IntVar(&opts.pmLimit, "pm-limit", 0, "polymarket sample size (server default when 0)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "auto, public_all, topic_aligned or search_keywords")
	cmd.Flags().StringVar(&opts.keywords, "keywords", "", "comma-separated keyword override")
	cmd.Flags().StringVar(&opts.prefixes, "prefixes", "", "comma-separated ticker prefix override")
	cmd.Flags().StringVar(&opts.mveFilter, "mve-filter", "", "exclude or only")
	cmd.Flags().BoolVar(&opts.ws, "ws", false, "use the WebSocket endpoint")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print debug_log events")

	return cmd
}

// scanURL builds the endpoint URL for opts.
func scanURL(opts scanOptions) (string, error) {
	u, err := url.Parse(strings.TrimRight(opts.baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}

	u.Path += "/api/scan"
	if opts.ws {
		u.Path = strings.TrimSuffix(u.Path, "/api/scan") + "/ws/scan"
		switch u.Scheme {
		case "https":
			u.Scheme = "wss"
		default:
			u.Scheme = "ws"
		}
	}

	q := url.Values{}
	if opts.limit > 0 {
		q.Set("limit", strconv.Itoa(opts.limit))
	}
	if opts.pmLimit > 0 {
		q.Set("pm_limit", strconv.Itoa(opts.pmLimit))
	}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("kh_mode", opts.mode)
	set("keywords", opts.keywords)
	set("prefixes", opts.prefixes)
	set("mve_filter", opts.mveFilter)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func runScan(ctx context.Context, opts scanOptions, r *renderer) error {
	target, err := scanURL(opts)
	if err != nil {
		return err
	}
	r.header(target)

	if opts.ws {
		return readWS(ctx, target, r)
	}
	return readSSE(ctx, target, r)
}

func readSSE(ctx context.Context, target string, r *renderer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return r.rejected(resp.StatusCode, body)
	}

	err = stream.ReadSSE(resp.Body, r.event)
	if ctx.Err() != nil {
		r.interrupted()
		return nil
	}
	return err
}

func readWS(ctx context.Context, target string, r *renderer) error {
	client, err := stream.DialWS(ctx, target)
	if err != nil {
		return err
	}
	defer client.Close()

	go func() {
		<-ctx.Done()
		client.Close()
	}()

	for {
		ev, err := client.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				r.interrupted()
				return nil
			}
			return err
		}
		if err := r.event(ev); err != nil {
			return err
		}
	}
}
