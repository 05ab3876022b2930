package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tokenring/internal/config"
	"tokenring/internal/console"
	"tokenring/internal/control"
	"tokenring/internal/node"
)

func main() {
	var (
		configFile     = flag.String("config", "", "four-line node file (next hop, identity, token time, generator)")
		nodeID         = flag.String("node-id", "", "ring identity of this node")
		listen         = flag.String("listen", "", "UDP address for ring traffic (default: own entry in --peers)")
		peers          = flag.String("peers", "", "whole ring in order: id1=addr1,id2=addr2,...")
		next           = flag.String("next", "", "UDP address of the next hop, overrides --peers")
		controlAddr    = flag.String("control", "", "gRPC control address (empty disables)")
		hold           = flag.Duration("hold", time.Second, "idle token hold time")
		generator      = flag.Bool("generator", false, "create and supervise the token")
		watchdogMult   = flag.Int("watchdog-multiplier", 0, "token loss bound in hold times (default: ring size)")
		ackTimeout     = flag.Duration("ack-timeout", 0, "wait for own echo (0: watchdog bound, <0: never)")
		queueCap       = flag.Int("queue-capacity", 0, "outbound queue capacity (default 10)")
		overflow       = flag.String("overflow", "reject-new", "full queue policy: reject-new or evict-oldest")
		corruptionRate = flag.Float64("corruption-rate", 0, "probability of corrupting an outbound payload")
		tokenDropRate  = flag.Float64("token-drop-rate", 0, "probability of dropping an inbound token")
		seed           = flag.Int64("seed", 0, "fault injection seed (0: time based)")
		interactive    = flag.Bool("console", true, "read dest:message lines from stdin")
		attach         = flag.String("attach", "", "run the console against a remote control address instead of a node")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *attach != "" {
		if err := runAttached(ctx, *attach); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	cfg := &config.Config{}
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		peerList, err := config.ParsePeers(*peers)
		if err != nil {
			log.Fatalf("Failed to parse peers: %v", err)
		}
		cfg.NodeID = *nodeID
		cfg.ListenAddr = *listen
		cfg.Peers = peerList
		cfg.NextAddr = *next
		cfg.HoldTime = *hold
		cfg.Generator = *generator
		if cfg.ListenAddr == "" {
			for _, p := range peerList {
				if p.ID == cfg.NodeID {
					cfg.ListenAddr = p.Addr
				}
			}
		}
	}
	cfg.ControlAddr = *controlAddr
	cfg.WatchdogMultiplier = *watchdogMult
	cfg.AckTimeout = *ackTimeout
	cfg.QueueCapacity = *queueCap
	cfg.Overflow = *overflow
	cfg.CorruptionRate = *corruptionRate
	cfg.TokenDropRate = *tokenDropRate
	cfg.Seed = *seed
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := run(ctx, cfg, *interactive); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, interactive bool) error {
	nextHop, err := cfg.NextHop()
	if err != nil {
		return err
	}

	n, err := node.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}
	defer n.Stop()

	if err := n.Connect(nextHop); err != nil {
		return err
	}
	if err := n.Start(); err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if interactive {
		// EOF or "exit" on stdin shuts the node down.
		go func() {
			defer cancel()
			if err := console.New(n.Ring(), os.Stdin, os.Stdout, cancel).Run(ctx); err != nil {
				log.Printf("[%s] Console: %v", cfg.NodeID, err)
			}
		}()
	}

	<-ctx.Done()
	return nil
}

func runAttached(ctx context.Context, addr string) error {
	client, err := control.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	readyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitReady(readyCtx); err != nil {
		return err
	}
	return console.New(client, os.Stdin, os.Stdout, nil).Run(ctx)
}
