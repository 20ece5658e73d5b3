package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"ecom_back_end/internal/config"
	"ecom_back_end/internal/repository"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// Connections regroupe les clients partagés par tout le serveur.
// Scylla, Elastic et MinIO sont nil quand ils ne sont pas configurés.
type Connections struct {
	Scylla  *gocql.Session
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client
	Bucket  string
}

// --- Initialisation ---
func Connect(ctx context.Context, cfg *config.Config) (*Connections, error) {
	conns := &Connections{Bucket: cfg.MinIOBucket}

	// 1. ScyllaDB
	if len(cfg.ScyllaHosts) > 0 {
		session, err := connectScylla(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("échec initialisation ScyllaDB: %w", err)
		}
		conns.Scylla = session
	} else {
		log.Println("⚠️ SCYLLA_HOSTS vide, stockage en mémoire (développement uniquement)")
	}

	// 2. Redis
	rdb, err := connectRedis(ctx, cfg)
	if err != nil {
		conns.Close()
		return nil, err
	}
	conns.Redis = rdb

	// 3. Elasticsearch
	if cfg.ElasticURL != "" {
		conns.Elastic = connectElastic(cfg)
	} else {
		log.Println("⚠️ ELASTIC_URL vide, recherche en mémoire")
	}

	// 4. MinIO
	if cfg.MinIOEndpoint != "" {
		conns.MinIO = connectMinIO(ctx, cfg)
	} else {
		log.Println("⚠️ MINIO_ENDPOINT vide, les images sont servies telles quelles")
	}

	log.Println("✅ Connexions initialisées")
	return conns, nil
}

// Store retourne le Store Scylla, ou un Store en mémoire sans cluster.
func (c *Connections) Store() repository.Store {
	if c.Scylla != nil {
		return repository.NewScylla(c.Scylla)
	}
	return repository.NewMemory()
}

func (c *Connections) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
		log.Println("🔌 Session ScyllaDB fermée")
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️ Erreur fermeture Redis: %v", err)
		}
	}
}

// =============================================
// SCYLLA DB
// =============================================

// createScyllaCluster crée la configuration de cluster pour un keyspace (vide = aucun).
func createScyllaCluster(cfg *config.Config, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.ScyllaHosts...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 20

	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second
	if cfg.ScyllaUsername != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.ScyllaUsername,
			Password: cfg.ScyllaPassword,
		}
	}

	if cfg.ScyllaSSLEnabled {
		cluster.SslOpts = &gocql.SslOptions{
			CaPath:                 cfg.ScyllaCACertPath,
			EnableHostVerification: cfg.ScyllaCACertPath != "",
		}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster
}

func connectScylla(ctx context.Context, cfg *config.Config) (*gocql.Session, error) {
	if cfg.ScyllaAutoMigrate {
		if err := ensureKeyspace(ctx, cfg); err != nil {
			return nil, err
		}
	}

	session, err := createScyllaCluster(cfg, cfg.ScyllaKeyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", cfg.ScyllaKeyspace, err)
	}
	log.Printf("✅ Session ScyllaDB pour keyspace '%s'", cfg.ScyllaKeyspace)

	if cfg.ScyllaAutoMigrate {
		if err := repository.EnsureSchema(ctx, session); err != nil {
			session.Close()
			return nil, err
		}
	}
	return session, nil
}

func ensureKeyspace(ctx context.Context, cfg *config.Config) error {
	session, err := createScyllaCluster(cfg, "").CreateSession()
	if err != nil {
		return fmt.Errorf("erreur création session système: %w", err)
	}
	defer session.Close()

	stmt := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`,
		cfg.ScyllaKeyspace)
	return session.Query(stmt).WithContext(ctx).Exec()
}

// =============================================
// REDIS
// =============================================
func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisHost,
		Password:     cfg.RedisPassword,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("impossible de se connecter à Redis: %w", err)
	}
	log.Println("✅ Connecté à Redis")
	return rdb, nil
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic(cfg *config.Config) *elasticsearch.Client {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.ElasticURL},
		Username:  cfg.ElasticUser,
		Password:  cfg.ElasticPassword,
	})
	if err != nil {
		log.Printf("⚠️ Erreur création client Elasticsearch: %v", err)
		return nil
	}

	res, err := client.Info()
	if err != nil {
		log.Printf("⚠️ Erreur connexion Elasticsearch: %v, recherche en mémoire", err)
		return nil
	}
	defer res.Body.Close()

	log.Println("✅ Connecté à Elasticsearch")
	return client
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context, cfg *config.Config) *minio.Client {
	client, err := minio.New(cfg.MinIOEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIOAccessKey, cfg.MinIOSecretKey, ""),
		Secure: cfg.MinIOUseSSL,
	})
	if err != nil {
		log.Printf("⚠️ Erreur connexion MinIO: %v", err)
		return nil
	}

	exists, err := client.BucketExists(ctx, cfg.MinIOBucket)
	if err != nil {
		log.Printf("⚠️ Erreur vérification bucket MinIO: %v", err)
		return nil
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinIOBucket, minio.MakeBucketOptions{}); err != nil {
			log.Printf("⚠️ Erreur création bucket MinIO: %v", err)
			return nil
		}
		log.Println("🪣 Bucket créé :", cfg.MinIOBucket)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", cfg.MinIOBucket)
	}

	log.Println("✅ Connecté à MinIO :", cfg.MinIOEndpoint)
	return client
}
