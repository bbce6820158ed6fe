package main

import (
	"log"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"

	"github.com/openclerk/directory/modules/directory/infrastructure/persistence"
	"github.com/openclerk/directory/modules/directory/infrastructure/upstream"
	"github.com/openclerk/directory/modules/directory/presentation/controllers"
	"github.com/openclerk/directory/modules/directory/services"
	"github.com/openclerk/directory/pkg/configuration"
	"github.com/openclerk/directory/pkg/httpapi"
	"github.com/openclerk/directory/pkg/kvstore"
	"github.com/openclerk/directory/pkg/middleware"
	"github.com/openclerk/directory/pkg/server"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	var store kvstore.Store
	switch conf.Cache.Backend {
	case "redis":
		store = kvstore.NewRedisStore(redis.NewClient(&redis.Options{Addr: conf.Cache.RedisURL}))
	default:
		store = kvstore.NewMemoryStore()
	}

	client := upstream.NewClient(upstream.Config{
		BaseURL: conf.Upstream.BaseURL,
		BaseID:  conf.Upstream.BaseID,
		APIKey:  conf.Upstream.APIKey,
		Timeout: conf.Upstream.Timeout,
	})
	records := persistence.NewRecordStore(persistence.RecordStoreConfig{
		Fetcher:   client,
		Cache:     store,
		TTL:       conf.Cache.TTL,
		PageDelay: conf.PageDelay,
		Logger:    logger,
	})

	directory := services.NewDirectoryService(services.DirectoryServiceConfig{
		Source: records,
		Tables: conf.Tables,
	})
	staff := services.NewStaffService(services.StaffServiceConfig{
		Directory: directory,
		Logger:    logger,
	})
	slugs := services.NewSlugService(services.SlugServiceConfig{
		Directory:     directory,
		Staff:         staff,
		Cache:         store,
		TTL:           conf.Cache.TTL,
		CategoryRoots: conf.CategoryRoots(),
		Logger:        logger,
	})
	contact := services.NewContactService(services.ContactServiceConfig{
		Directory:  directory,
		Staff:      staff,
		Counters:   store,
		RateMax:    conf.Contact.RateMax,
		RateWindow: conf.Contact.RateWindow,
		Logger:     logger,
	})

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(logger, middleware.DefaultLoggerOptions()),
	}
	if conf.RateLimit.Enabled {
		var limiterStore limiter.Store
		switch conf.RateLimit.Storage {
		case "redis":
			var err error
			limiterStore, err = middleware.NewRedisStore(conf.RateLimit.RedisURL)
			if err != nil {
				logger.WithError(err).Warn("Failed to create Redis store for rate limiting, falling back to memory")
				limiterStore = middleware.NewMemoryStore()
			}
		default:
			limiterStore = middleware.NewMemoryStore()
		}
		middlewares = append(middlewares, middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: conf.RateLimit.GlobalRPS,
			Store:             limiterStore,
			KeyFunc: func(r *http.Request) string {
				return middleware.RealIP(r, conf.RealIPHeader)
			},
		}))
	}

	serverInstance := server.NewHTTPServer(
		[]server.Controller{
			controllers.NewDirectoryAPIController(directory, staff, slugs),
			controllers.NewContactAPIController(contact, conf.RealIPHeader, logger),
		},
		middlewares,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = httpapi.UnknownRoute().Write(w)
		}),
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = httpapi.MethodNotAllowed().Write(w)
		}),
	)

	log.Printf("Listening on: %s\n", conf.SocketAddress)
	if err := serverInstance.Start(conf.SocketAddress); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
