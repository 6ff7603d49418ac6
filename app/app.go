package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Astemirdum/fabtrack/config"
	"github.com/Astemirdum/fabtrack/internal/events"
	"github.com/Astemirdum/fabtrack/internal/handler"
	"github.com/Astemirdum/fabtrack/internal/server"
	"github.com/Astemirdum/fabtrack/internal/service/api"
	"github.com/Astemirdum/fabtrack/internal/service/auth"
	"github.com/Astemirdum/fabtrack/internal/service/borrow"
	"github.com/Astemirdum/fabtrack/internal/service/equipment"
	"github.com/Astemirdum/fabtrack/internal/session"
	"github.com/Astemirdum/fabtrack/pkg/kafka"
	"github.com/Astemirdum/fabtrack/pkg/logger"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const sweepInterval = time.Minute

func Run(cfg config.Config) {
	log := logger.NewLogger(cfg.Log, "fabtrack")
	defer log.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := newStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("session store", zap.Error(err))
	}
	defer closeStore()

	pub, closePub, err := newPublisher(cfg.Kafka, log)
	if err != nil {
		log.Fatal("kafka", zap.Error(err))
	}
	defer closePub()

	client := api.NewClient(log, cfg.Backend)
	authSvc := auth.NewService(log, client)
	sessions := session.NewManager(log, authSvc, store)

	h := handler.New(log, cfg, handler.Deps{
		Sessions:  sessions,
		Auth:      authSvc,
		Equipment: equipment.NewService(log, client),
		Borrow:    borrow.NewService(log, client),
		Events:    pub,
	})
	sessions.OnClear(h.DropViews)
	go h.RunSweeper(ctx, sweepInterval)

	router, err := h.NewRouter()
	if err != nil {
		log.Fatal("router", zap.Error(err))
	}
	srv := server.NewServer(cfg.Server, router)
	log.Info("http server start ON: ", zap.String("addr", srv.Addr()), zap.String("backend", cfg.Backend.BaseURL))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer closeCancel()

	if err := srv.Stop(closeCtx); err != nil {
		log.DPanic("srv.Stop", zap.Error(err))
	}
	log.Info("Graceful shutdown finished")
}

// newStore picks the session backend. The memory store is swept in the
// background; redis expires keys itself.
func newStore(ctx context.Context, cfg config.Config, log *zap.Logger) (session.Store, func(), error) {
	if cfg.Session.Store != config.StoreRedis {
		st := session.NewMemoryStore(cfg.Session.TTL)
		go func() {
			t := time.NewTicker(sweepInterval)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					if n := st.Sweep(); n > 0 {
						log.Debug("expired sessions removed", zap.Int("count", n))
					}
				}
			}
		}()
		return st, func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, errors.Wrapf(err, "ping redis %s", cfg.Redis.Addr)
	}
	log.Info("sessions in redis", zap.String("addr", cfg.Redis.Addr))
	return session.NewRedisStore(rdb, cfg.Session.TTL), func() {
		if err := rdb.Close(); err != nil {
			log.Warn("redis close", zap.Error(err))
		}
	}, nil
}

func newPublisher(cfg kafka.Config, log *zap.Logger) (events.Publisher, func(), error) {
	if !cfg.Enable {
		return events.Noop{}, func() {}, nil
	}
	producer, err := kafka.NewAsyncProducer(cfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "new producer")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = kafka.PortalEventsTopic
	}
	pub := events.NewKafkaPublisher(log, producer, topic)
	go pub.Run()
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn("producer close", zap.Error(err))
		}
	}, nil
}
