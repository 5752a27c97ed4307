package server

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/schoolfinder/schoolfinder/handlers"
	admissionrepo "github.com/schoolfinder/schoolfinder/internal/admission/repository"
	admissionsvc "github.com/schoolfinder/schoolfinder/internal/admission/service"
	catalogrepo "github.com/schoolfinder/schoolfinder/internal/catalog/repository"
	"github.com/schoolfinder/schoolfinder/internal/config"
	"github.com/schoolfinder/schoolfinder/internal/database"
	"github.com/schoolfinder/schoolfinder/internal/oidc"
	"github.com/schoolfinder/schoolfinder/internal/search"
	"github.com/schoolfinder/schoolfinder/internal/sessions"
	"github.com/schoolfinder/schoolfinder/internal/storage"
	"github.com/schoolfinder/schoolfinder/internal/tokens"
	"github.com/schoolfinder/schoolfinder/internal/users"
	"github.com/schoolfinder/schoolfinder/pkg/logger"
	"github.com/schoolfinder/schoolfinder/pkg/middleware"
)

// Collection names.
const (
	SchoolsCollection      = "schools"
	ApplicationsCollection = "applications"
	UsersCollection        = "users"
	SessionsCollection     = "sessions"
)

const (
	mongoAttempts = 5
	mongoBackoff  = time.Second
)

// Build connects the configured backends and wires the services. Backends
// that are not configured, or cannot be reached, fall back to in-memory
// implementations. The returned func releases connections.
func Build(ctx context.Context, cfg *config.Config) (*Deps, func(), error) {
	d := &Deps{Config: cfg, Checks: map[string]Check{}}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	rdb, err := database.ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warnf("redis unavailable, continuing without it: %v", err)
	}
	if rdb != nil {
		d.Redis = rdb
		sessions.SetBlacklistClient(rdb)
		closers = append(closers, func() { _ = rdb.Close() })
		d.Checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
	}

	var db *mongo.Database
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoAttempts, mongoBackoff)
		if err != nil {
			logger.Warnf("falling back to in-memory stores: %v", err)
		} else {
			db = client.Database(cfg.MongoDB.Database)
			closers = append(closers, func() { _ = client.Disconnect(context.Background()) })
			d.Checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
		}
	}

	schools, err := buildCatalog(ctx, db)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	d.Checks["catalog"] = func(ctx context.Context) error {
		_, err := schools.List(ctx)
		return err
	}

	var cache search.Cache
	if rdb != nil {
		cache = search.NewRedisCache(rdb)
	}
	d.Search = search.NewService(schools, cache, cfg.Cache.SearchTTL)

	var appRepo admissionrepo.Repository = admissionrepo.NewMemoryRepo()
	var userRepo users.UserRepository = users.NewMemoryUserRepository()
	var sessRepo sessions.Repository = sessions.NewMemoryRepository()
	if db != nil {
		if r, err := admissionrepo.NewMongoRepo(ctx, db.Collection(ApplicationsCollection)); err != nil {
			logger.Warnf("applications collection: %v", err)
		} else {
			appRepo = r
		}
		if r, err := users.NewMongoUserRepository(ctx, db.Collection(UsersCollection)); err != nil {
			logger.Warnf("users collection: %v", err)
		} else {
			userRepo = r
		}
	}
	switch {
	case rdb != nil:
		sessRepo = sessions.NewRedisRepository(rdb, "session:")
		logger.Infof("using Redis for session storage")
	case db != nil:
		if r, err := sessions.NewMongoRepository(ctx, db.Collection(SessionsCollection)); err != nil {
			logger.Warnf("sessions collection: %v", err)
		} else {
			sessRepo = r
		}
	}

	tm, err := tokens.NewManager(cfg.JWT)
	if errors.Is(err, tokens.ErrNoSecret) {
		logger.Warnf("JWT_SECRET not set; auth and application routes are disabled")
		return d, cleanup, nil
	}
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	d.Tokens = tm

	store := buildStore(ctx, cfg.MinIO, tm.DeriveKey("files"))
	if ms, ok := store.(*storage.MemoryStorage); ok {
		d.Files = ms
	}
	d.Admission = admissionsvc.New(admissionsvc.Options{
		Repo:      appRepo,
		Store:     store,
		Schools:   schools,
		URLExpiry: cfg.MinIO.URLExpiry,
	})
	d.Auth = handlers.NewAuthHandler(cfg.Keycloak, identityVerifier(ctx, cfg.Keycloak),
		users.NewService(userRepo), sessions.NewService(sessRepo, cfg.JWT.RefreshTokenTTL), tm)
	return d, cleanup, nil
}

func buildCatalog(ctx context.Context, db *mongo.Database) (catalogrepo.Repository, error) {
	if db != nil {
		repo, err := catalogrepo.NewMongoRepo(ctx, db.Collection(SchoolsCollection))
		if err == nil {
			if list, err := repo.List(ctx); err == nil && len(list) == 0 {
				logger.Warnf("schools collection is empty; run `schoolfinder seed`")
			}
			return repo, nil
		}
		logger.Warnf("schools collection: %v; serving the embedded catalog", err)
	}
	return catalogrepo.NewSeedRepo()
}

func buildStore(ctx context.Context, cfg config.MinIOConfig, signingKey []byte) storage.ObjectStore {
	if cfg.Endpoint != "" {
		s, err := storage.NewMinIOStorage(ctx, cfg)
		if err == nil {
			logger.Infof("storing documents in MinIO bucket %s", cfg.Bucket)
			return s
		}
		logger.Warnf("minio unavailable, keeping documents in memory: %v", err)
	}
	return storage.NewMemoryStorage("/files", signingKey)
}

// identityVerifier picks the id_token verifier for /auth/login, or nil when
// no identity provider is configured.
func identityVerifier(ctx context.Context, kc config.KeycloakConfig) middleware.Verifier {
	if kc.AllowInsecureToken {
		logger.Warnf("enabling insecure OIDC verifier (integration mode)")
		return oidc.NewInsecureVerifier()
	}
	if kc.URL == "" || kc.ClientID == "" {
		return nil
	}
	v, err := oidc.NewVerifier(ctx, kc.Issuer(), kc.ClientID)
	if err != nil {
		logger.Warnf("failed to initialize OIDC verifier: %v", err)
		return nil
	}
	return v
}
