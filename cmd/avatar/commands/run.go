package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/seven0070/yumiai/anim"
	"github.com/seven0070/yumiai/bridge"
	"github.com/seven0070/yumiai/client"
	"github.com/seven0070/yumiai/config"
	"github.com/seven0070/yumiai/scene"
	"github.com/seven0070/yumiai/transcript"
)

func newRunCmd() *cobra.Command {
	var scenePath string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the agent and run the animation frame loop",
		Long: `Loads the scene, classifies its meshes, connects to the remote agent
and advances the avatar once per frame. Lines read from stdin are sent
to the agent as user messages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if scenePath != "" {
				cfg.ScenePath = scenePath
			}
			return runAvatar(cfg)
		},
	}

	cmd.Flags().StringVar(&scenePath, "scene", "", "YAML scene description (default: built-in head)")

	return cmd
}

func runAvatar(cfg *config.Config) error {
	graph := scene.Default()
	if cfg.ScenePath != "" {
		g, err := scene.Load(cfg.ScenePath)
		if err != nil {
			return err
		}
		graph = g
	}

	rig := anim.NewRig(graph, cfg.Tuning)
	defer rig.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cli := client.New(cfg.AgentURL, cfg.FallbackURL)
	statusSub := cli.Subscribe(client.EventConnected, func(client.Event) {
		log.Printf("run: agent connected")
	})
	defer cli.Unsubscribe(statusSub)
	cli.Start(ctx)
	defer cli.Close()

	var opts []bridge.Option
	if cfg.Tuning.SpeakDefaultMs > 0 {
		opts = append(opts, bridge.WithSpeakDuration(cfg.Tuning.SpeakDefault()))
	}
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("invalid AVATAR_REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(redisOpts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("run: redis unreachable, transcript disabled: %v", err)
		} else {
			opts = append(opts, bridge.WithTranscript(transcript.New(rdb, cfg.SessionID)))
			log.Printf("run: recording transcript for session %s", cfg.SessionID)
		}
	}

	br := bridge.New(cli, rig, opts...)
	defer br.Close()

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	// Frame loop: animation always advances, regardless of pending
	// network operations.
	frame := time.Second / time.Duration(cfg.FrameRate)
	go func() {
		ticker := time.NewTicker(frame)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				rig.Advance(now)
			}
		}
	}()

	// Periodic status line.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st := cli.Status()
				log.Printf("run: connection=%s attempt=%d latency=%s mouth=%.2f",
					st.State, st.ReconnectAttempt, st.LastLatency, rig.Intensity())
			}
		}
	}()

	log.Printf("run: avatar up, agent=%s (type a message and press enter)", cfg.AgentURL)

	lines := readLines(ctx, os.Stdin)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				<-ctx.Done()
				return nil
			}
			if line == "" {
				continue
			}
			reply := br.Send(ctx, line)
			if reply == nil {
				fmt.Println("(no response)")
				continue
			}
			fmt.Println(reply.Text)
		}
	}
}

// readLines pumps lines from r into the returned channel. The pump
// goroutine exits (and closes the channel) when ctx is cancelled, even
// while blocked handing off a line.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
