/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/flowforge/netflow-collector/internal/config"
	"github.com/flowforge/netflow-collector/internal/ingest"
	"github.com/flowforge/netflow-collector/internal/logging"
	"github.com/flowforge/netflow-collector/internal/reconcile"
	"github.com/flowforge/netflow-collector/internal/sink"
	"github.com/flowforge/netflow-collector/internal/wire"
)

func newServeCmd(configPath *string) *cobra.Command {
	var (
		host              string
		port              int
		outputFile        string
		packetTimeout     time.Duration
		maxPendingPackets int
		shards            int
		metricsAddr       string
		healthAddr        string
		debug             bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the collector's UDP listener and reconciliation pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(*configPath)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("file") {
				cfg.OutputFile = outputFile
			}
			if cmd.Flags().Changed("packet-timeout") {
				cfg.PacketTimeout = packetTimeout
			}
			if cmd.Flags().Changed("max-pending") {
				cfg.MaxPendingPackets = maxPendingPackets
			}
			if cmd.Flags().Changed("shards") {
				cfg.Shards = shards
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.MetricsAddr = metricsAddr
			}
			if cmd.Flags().Changed("health-addr") {
				cfg.HealthAddr = healthAddr
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}
			if cfg.OutputFile == "" {
				cfg.OutputFile = sink.DefaultOutputFile(time.Now())
			}

			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&host, "host", "0.0.0.0", "collector listening address")
	flags.IntVarP(&port, "port", "p", 2055, "collector listening port")
	flags.StringVarP(&outputFile, "file", "o", "", "gzip NDJSON output file (default: <unix-timestamp>.gz)")
	flags.DurationVar(&packetTimeout, "packet-timeout", time.Hour, "age after which an undecodable packet is dropped instead of deferred")
	flags.IntVar(&maxPendingPackets, "max-pending", 10000, "maximum packets deferred per shard awaiting a template")
	flags.IntVar(&shards, "shards", 4, "number of reconciliation engine shards, keyed by hash(exporter) % shards")
	flags.StringVar(&metricsAddr, "metrics-addr", ":9090", "address to serve /metrics on")
	flags.StringVar(&healthAddr, "health-addr", ":8080", "address to serve /healthz on")
	flags.BoolVarP(&debug, "debug", "D", false, "enable debug logging")

	return cmd
}

// shard bundles one reconciliation Engine with the channel packets keyed
// onto it arrive on.
type shard struct {
	engine *reconcile.Engine
	ch     chan reconcile.RawPacket
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.New(cfg.Debug)
	ctx = logging.Install(ctx, logger)
	registerMetrics()

	logger.Info("starting collector", "listenAddr", cfg.ListenAddr(), "outputFile", cfg.OutputFile, "shards", cfg.Shards)

	s := sink.NewGzipNDJSONFileSink(cfg.OutputFile)

	shards := make([]*shard, cfg.Shards)
	for i := range shards {
		shards[i] = &shard{
			engine: reconcile.NewEngine(
				wire.NewDefaultEphemeralCache(),
				wire.NewDefaultEphemeralCache(),
				s,
				cfg.PacketTimeout,
				cfg.MaxPendingPackets,
			),
			ch: make(chan reconcile.RawPacket, 256),
		}
	}
	for _, sh := range shards {
		go runShard(ctx, sh)
	}

	listener := ingest.NewListener(cfg.ListenAddr())

	go serveMetrics(ctx, logger, cfg.MetricsAddr)
	go serveHealth(ctx, logger, cfg.HealthAddr)

	go dispatchLoop(ctx, listener, shards)

	return listener.Listen(ctx)
}

// runShard drains one shard's channel, handing each packet to its Engine.
// Every shard owns its Engine exclusively, so packets for the same
// exporter key are always processed in arrival order and never touched by
// more than one goroutine, matching spec.md §5's per-shard ownership
// model.
func runShard(ctx context.Context, sh *shard) {
	for {
		select {
		case p, ok := <-sh.ch:
			if !ok {
				return
			}
			sh.engine.Ingest(ctx, p)
		case <-ctx.Done():
			return
		}
	}
}

// dispatchLoop reads RawPackets off the UDP listener, derives each
// packet's exporter key from its sender address, and hands it to the
// shard hash(exporterKey) % len(shards) owns.
func dispatchLoop(ctx context.Context, listener *ingest.Listener, shards []*shard) {
	for {
		select {
		case p, ok := <-listener.Packets():
			if !ok {
				return
			}
			exporterKey := p.Client.String()
			sh := shards[shardIndex(exporterKey, len(shards))]
			select {
			case sh.ch <- reconcile.RawPacket{
				ReceiveTimestamp: p.ReceivedAt,
				ExporterKey:      exporterKey,
				Data:             p.Data,
			}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func shardIndex(exporterKey string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(exporterKey))
	return int(h.Sum32()) % n
}

func serveMetrics(ctx context.Context, logger logr.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error(err, "metrics server failed")
	}
}

func serveHealth(ctx context.Context, logger logr.Logger, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	logger.Info("serving health checks", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error(err, "health server failed")
	}
}
