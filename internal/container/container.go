package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/joke-bot-go/internal/analytics"
	analyticsstore "github.com/serroba/joke-bot-go/internal/analytics/store"
	"github.com/serroba/joke-bot-go/internal/bot"
	"github.com/serroba/joke-bot-go/internal/handlers"
	"github.com/serroba/joke-bot-go/internal/health"
	"github.com/serroba/joke-bot-go/internal/jokes"
	"github.com/serroba/joke-bot-go/internal/messaging"
	"github.com/serroba/joke-bot-go/internal/middleware"
	"github.com/serroba/joke-bot-go/internal/quota"
	"github.com/serroba/joke-bot-go/internal/ratelimit"
	"github.com/serroba/joke-bot-go/internal/ratings"
	"github.com/serroba/joke-bot-go/internal/store"
	"github.com/serroba/joke-bot-go/internal/telegram"
	"github.com/serroba/joke-bot-go/internal/translate"
	"go.uber.org/zap"
)

// Options holds the service configuration, parsed by humacli for the server
// and filled from the environment for the consumer.
type Options struct {
	Port           int    `default:"8888"                                 help:"Port to listen on"                                   short:"p"`
	BotToken       string `help:"Telegram bot API token"                  name:"bot-token"`
	TelegramAPIURL string `default:"https://api.telegram.org"             help:"Telegram Bot API base URL"`
	JokeAPIURL     string `default:"https://official-joke-api.appspot.com" help:"Joke provider base URL"`
	TranslateURL   string `help:"LibreTranslate-compatible endpoint; empty disables translation"`
	StoreBackend   string `default:"file"                                 help:"Durable store backend: file, memory, redis, postgres"`
	DataDir        string `default:"./data"                               help:"Data directory for the file store"`
	RedisAddr      string `default:"localhost:6379"                       help:"Redis server address"                                short:"r"`
	PostgresDSN    string `help:"PostgreSQL connection string (postgres backend only)"`
	DailyLimit     int    `default:"20"                                   help:"Per-user daily joke limit"`
	FloodStore     string `default:"memory"                               help:"Webhook flood limiter store: memory or redis"`
	AnalyticsStore string `default:"noop"                                 help:"Analytics store: noop or redis"`
	LogFormat      string `default:"console"                              help:"Log output format: console or json"`
}

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options := do.MustInvoke[*Options](i)

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options := do.MustInvoke[*Options](i)

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx pool, dialed lazily so deployments on
// other store backends never touch Postgres.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options := do.MustInvoke[*Options](i)

		if options.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres backend selected but no DSN configured")
		}

		return pgxpool.New(context.Background(), options.PostgresDSN)
	})
}

// StorePackage provides the durable store and the two typed collections.
func StorePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (store.Store, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		switch options.StoreBackend {
		case "memory":
			return store.NewMemoryStore(), nil
		case "redis":
			return store.NewRedisStore(do.MustInvoke[*redis.Client](i), logger), nil
		case "postgres":
			pool, err := do.Invoke[*pgxpool.Pool](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pool, logger), nil
		default:
			return store.NewFileStore(options.DataDir, logger)
		}
	})

	do.Provide(injector, func(i *do.Injector) (*store.Collection[quota.UserRecord], error) {
		s := do.MustInvoke[store.Store](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return store.NewCollection[quota.UserRecord](s, store.SetUsers, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (*store.Collection[ratings.JokeRecord], error) {
		s := do.MustInvoke[store.Store](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return store.NewCollection[ratings.JokeRecord](s, store.SetJokes, logger), nil
	})
}

// QuotaPackage provides the daily quota tracker.
func QuotaPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*quota.Tracker, error) {
		options := do.MustInvoke[*Options](i)
		users := do.MustInvoke[*store.Collection[quota.UserRecord]](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return quota.NewTracker(users, logger, quota.WithDailyLimit(options.DailyLimit)), nil
	})
}

// LedgerPackage provides the rating ledger with numeric id generation.
func LedgerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*ratings.Ledger, error) {
		jokesCol := do.MustInvoke[*store.Collection[ratings.JokeRecord]](i)
		logger := do.MustInvoke[*zap.Logger](i)

		generate, err := nanoid.CustomASCII("0123456789", 6)
		if err != nil {
			return nil, fmt.Errorf("create id generator: %w", err)
		}

		fallback, err := nanoid.CustomASCII("0123456789", 9)
		if err != nil {
			return nil, fmt.Errorf("create fallback id generator: %w", err)
		}

		return ratings.NewLedger(jokesCol, generate, fallback, logger), nil
	})
}

// ProvidersPackage provides the joke and translation collaborators.
func ProvidersPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (jokes.Provider, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return jokes.NewClient(options.JokeAPIURL, nil, logger), nil
	})

	do.Provide(injector, func(i *do.Injector) (translate.Translator, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if options.TranslateURL == "" {
			return translate.NewNoop(), nil
		}

		return translate.NewHTTPTranslator(options.TranslateURL, nil, logger), nil
	})
}

// TelegramPackage provides the outbound Bot API client.
func TelegramPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (bot.Messenger, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		return telegram.NewClient(options.TelegramAPIURL, options.BotToken, nil, logger), nil
	})
}

// PublisherGroupPackage provides the watermill publisher and typed publish
// functions for the analytics events.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		client := do.MustInvoke[*redis.Client](i)

		publisher, err := redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: client,
		}, watermill.NopLogger{})
		if err != nil {
			return nil, fmt.Errorf("create publisher: %w", err)
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.JokeDeliveredEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.JokeDeliveredEvent](group.Publisher(), analytics.TopicJokeDelivered), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.VoteCastEvent], error) {
		group := do.MustInvoke[*messaging.PublisherGroup](i)

		return messaging.NewPublishFunc[analytics.VoteCastEvent](group.Publisher(), analytics.TopicVoteCast), nil
	})
}

// BotPackage provides the request dispatcher.
func BotPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*bot.Dispatcher, error) {
		return bot.NewDispatcher(
			do.MustInvoke[*quota.Tracker](i),
			do.MustInvoke[*ratings.Ledger](i),
			do.MustInvoke[jokes.Provider](i),
			do.MustInvoke[translate.Translator](i),
			do.MustInvoke[bot.Messenger](i),
			do.MustInvoke[messaging.Publish[analytics.JokeDeliveredEvent]](i),
			do.MustInvoke[messaging.Publish[analytics.VoteCastEvent]](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
}

// HTTPPackage provides the router and the huma API with all routes and
// middleware registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		router := do.MustInvoke[*chi.Mux](i)

		api := humachi.New(router, huma.DefaultConfig("Joke Bot", "1.0.0"))

		var limitStore ratelimit.Store
		if options.FloodStore == "redis" {
			limitStore = store.NewRateLimitRedisStore(do.MustInvoke[*redis.Client](i))
		} else {
			limitStore = store.NewRateLimitMemoryStore()
		}

		limiter := ratelimit.NewSlidingWindowLimiter(limitStore, 120, time.Minute)

		api.UseMiddleware(
			middleware.RequestMeta(api),
			middleware.RateLimiter(api, limiter, logger),
		)

		webhook := handlers.NewWebhookHandler(
			options.BotToken,
			do.MustInvoke[*bot.Dispatcher](i),
			logger,
		)
		top := handlers.NewTopJokesHandler(do.MustInvoke[*ratings.Ledger](i))
		handlers.RegisterRoutes(api, webhook, top)

		healthHandler := health.NewHandler(
			health.NewRedisChecker(do.MustInvoke[*redis.Client](i)),
			health.NewStoreChecker(do.MustInvoke[store.Store](i)),
		)
		health.RegisterRoutes(api, healthHandler)

		return api, nil
	})
}

// ConsumerGroupPackage provides the analytics consumer group.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		options := do.MustInvoke[*Options](i)
		client := do.MustInvoke[*redis.Client](i)
		logger := do.MustInvoke[*zap.Logger](i)

		subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        client,
			ConsumerGroup: "analytics",
		}, watermill.NopLogger{})
		if err != nil {
			return nil, fmt.Errorf("create subscriber: %w", err)
		}

		var eventStore analytics.Store
		if options.AnalyticsStore == "redis" {
			eventStore = analyticsstore.NewRedisCounters(client)
		} else {
			eventStore = analyticsstore.NewNoop(logger)
		}

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewConsumer(subscriber, eventStore, logger))

		return group, nil
	})
}
