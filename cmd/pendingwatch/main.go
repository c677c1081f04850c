// pendingwatch 监控目录并打印从待处理队列中取出的变更
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/shuakami/watcher/v2"
	"github.com/shuakami/watcher/v2/pending"
)

type options struct {
	configPath  string
	paths       []string
	ignore      []string
	debounce    time.Duration
	workers     int
	metricsAddr string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "pendingwatch [flags] [path...]",
		Short: "Watch directories and print consolidated pending changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, opts.metricsAddr)
		},
	}

	// glog 的 -v、-logtostderr 等参数
	_ = flag.Set("logtostderr", "true")
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringSliceVar(&opts.paths, "path", nil, "directory to watch (repeatable)")
	f.StringSliceVar(&opts.ignore, "ignore", nil, "glob pattern to ignore (repeatable)")
	f.DurationVar(&opts.debounce, "debounce", 0, "notification merge interval")
	f.IntVar(&opts.workers, "workers", 0, "number of concurrent change handlers")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

// config 合并配置文件与命令行参数，命令行优先
func (o *options) config(args []string) (watcher.ConfigWatcher, error) {
	var cfg watcher.ConfigWatcher
	if o.configPath != "" {
		loaded, err := watcher.LoadConfig(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	cfg.WatchPaths = append(cfg.WatchPaths, o.paths...)
	cfg.WatchPaths = append(cfg.WatchPaths, args...)
	cfg.IgnorePatterns = append(cfg.IgnorePatterns, o.ignore...)
	if o.debounce > 0 {
		cfg.Debounce = o.debounce
	}
	if o.workers > 0 {
		cfg.WorkerCount = o.workers
	}

	if len(cfg.WatchPaths) == 0 {
		return cfg, errors.New("no paths to watch")
	}
	return cfg, nil
}

func run(ctx context.Context, cfg watcher.ConfigWatcher, metricsAddr string) error {
	var out sync.Mutex
	w, err := watcher.NewWatcher(cfg, func(c pending.Change) {
		out.Lock()
		defer out.Unlock()
		fmt.Printf("%s %s %s\n", c.Now.Format(time.RFC3339Nano), c.Flags, c.Path)
	})
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if metricsAddr != "" {
		reg = prometheus.NewRegistry()
		if err := w.RegisterMetrics(reg); err != nil {
			return err
		}
	}

	if err := w.Start(); err != nil {
		w.Stop()
		return err
	}
	glog.Infof("watching %v", cfg.WatchPaths)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		w.Stop()
		return nil
	})

	if reg != nil {
		srv := &http.Server{
			Addr:              metricsAddr,
			Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown(context.Background())
		})
	}

	return g.Wait()
}
