package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/kapu/interview-teleprompter-go/internal/adapter"
	"github.com/kapu/interview-teleprompter-go/internal/constants"
	"github.com/kapu/interview-teleprompter-go/internal/domain"
	"github.com/kapu/interview-teleprompter-go/internal/feed"
	"github.com/kapu/interview-teleprompter-go/internal/service/cache"
	"github.com/kapu/interview-teleprompter-go/internal/service/conversation"
	"github.com/kapu/interview-teleprompter-go/internal/util"
)

// follow prints a live conversation in the terminal, either from a
// teleprompter's WebSocket feed (--url) or from the Redis mirror (--redis).
func main() {
	baseURL := flag.StringP("url", "u", "http://localhost:8000", "teleprompter base URL")
	useRedis := flag.Bool("redis", false, "follow the Redis events channel instead of the WebSocket feed")
	redisHost := flag.String("redis-host", "localhost", "Redis host")
	redisPort := flag.Int("redis-port", 6379, "Redis port")
	redisPassword := flag.String("redis-password", os.Getenv("REDIS_PASSWORD"), "Redis password")
	redisDB := flag.Int("redis-db", 0, "Redis database")
	replay := flag.String("replay", "", "with --redis, print the mirrored log of this session first")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger, err := util.NewLogger(*logLevel, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printer := &eventPrinter{formatter: adapter.NewResponseFormatter()}

	if *useRedis {
		err = followRedis(ctx, cache.CacheConfig{
			Host:     *redisHost,
			Port:     *redisPort,
			Password: *redisPassword,
			DB:       *redisDB,
		}, *replay, printer, logger)
	} else {
		err = followFeed(ctx, *baseURL, printer, logger)
	}
	if err != nil {
		logger.Error("Follow failed", zap.Error(err))
		os.Exit(1)
	}
}

func followFeed(ctx context.Context, base string, printer *eventPrinter, logger *zap.Logger) error {
	feedURL, err := feed.URLFromBase(base)
	if err != nil {
		return err
	}

	client := feed.NewClient(feedURL,
		constants.WebSocketConfig.MaxReconnectAttempts,
		constants.WebSocketConfig.ReconnectDelay,
		logger,
	)
	client.OnEvent(printer.Print)

	failed := make(chan struct{})
	var failOnce sync.Once
	client.OnStateChange(func(s feed.State) {
		fmt.Fprintf(os.Stderr, "[feed %s]\n", s)
		if s == feed.StateFailed {
			failOnce.Do(func() { close(failed) })
		}
	})

	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect %s: %w", feedURL, err)
	}
	defer client.Disconnect()

	select {
	case <-ctx.Done():
		return nil
	case <-failed:
		return fmt.Errorf("feed %s lost after %d reconnect attempts", feedURL, constants.WebSocketConfig.MaxReconnectAttempts)
	}
}

func followRedis(ctx context.Context, cfg cache.CacheConfig, sessionID string, printer *eventPrinter, logger *zap.Logger) error {
	svc, err := cache.NewCacheService(cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	if sessionID != "" {
		raw, err := svc.LRange(ctx, conversation.LogKey(sessionID), 0, -1)
		if err != nil {
			return fmt.Errorf("replay %s: %w", sessionID, err)
		}
		for _, item := range raw {
			var entry domain.ConversationEntry
			if err := json.Unmarshal([]byte(item), &entry); err != nil {
				logger.Warn("Skipping malformed log entry", zap.Error(err))
				continue
			}
			printer.PrintEntry(entry)
		}
	}

	messages, err := svc.Subscribe(ctx, constants.RedisConfig.EventsChannel)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var ev conversation.Event
			if err := json.Unmarshal([]byte(msg), &ev); err != nil {
				logger.Warn("Skipping malformed event", zap.Error(err))
				continue
			}
			printer.Print(ev)
		}
	}
}

type eventPrinter struct {
	formatter *adapter.ResponseFormatter
}

func (p *eventPrinter) Print(ev conversation.Event) {
	switch {
	case ev.Entry != nil:
		p.PrintEntry(*ev.Entry)
	case ev.Status != nil:
		fmt.Println(p.formatter.FormatStatus(*ev.Status))
		fmt.Println()
	}
}

func (p *eventPrinter) PrintEntry(entry domain.ConversationEntry) {
	fmt.Println(p.formatter.FormatEntry(entry))
	fmt.Println()
}
