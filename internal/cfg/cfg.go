package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-enricher/pkg/e"
	"github.com/DRSN-tech/catalog-enricher/pkg/logger"
	"github.com/jimlawless/whereami"
)

type Config struct {
	Minio     *MinIOCfg
	Http      *HTTPConfig
	Db        *PGDBCfg
	Qdrant    *QdrantCfg
	Redis     *RedisCfg
	Kafka     *KafkaCfg
	Embedding *EmbeddingCfg
	ImageGen  *ImageGenCfg
	Pipeline  *PipelineCfg
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Название бакета с изображениями товаров
	MinioRootUser     string
	MinioRootPassword string
	MinioUseSSL       bool
	PublicBaseURL     string // Базовый URL, по которому бакет доступен извне
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PGDBCfg struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type QdrantCfg struct {
	Port                 int
	Host                 string
	ApiKey               string
	QdrantCollectionName string // имя коллекции в Qdrant
	UseTLS               bool
	VectorSize           uint64
}

type RedisCfg struct {
	Addr        string
	Password    string
	User        string
	DB          int
	MaxRetries  int
	DialTimeout time.Duration
	Timeout     time.Duration
	ProductTTL  time.Duration
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// EmbeddingCfg описывает доступ к сервису текстовых эмбеддингов.
type EmbeddingCfg struct {
	ApiKey string
	Model  string
}

// ImageGenCfg описывает доступ к сервису генерации изображений и его
// нефункциональные параметры генерации.
type ImageGenCfg struct {
	ApiKey         string
	Model          string
	BaseURL        string
	NegativePrompt string
	InferenceSteps int
	GuidanceScale  float64
}

// PipelineCfg задаёт границы батча, пейсинг и таймауты внешних вызовов.
type PipelineCfg struct {
	DataFile      string        // путь к входному JSON-документу
	ItemsField    string        // имя поля с массивом товаров
	BatchLimit    int           // максимальное число товаров за прогон
	ItemDelay     time.Duration // пауза между товарами (rate limit внешних сервисов)
	EmbedTimeout  time.Duration
	ImageTimeout  time.Duration
	UploadTimeout time.Duration
	UpsertTimeout time.Duration
	ReportPath    string // путь для JSON-отчёта о прогоне, пустая строка — не писать
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	qdrant, err := loadQdrantCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	pipeline, err := loadPipelineCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	embedding, err := loadEmbeddingCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	imageGen, err := loadImageGenCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:     minio,
		Http:      http,
		Db:        db,
		Qdrant:    qdrant,
		Redis:     redis,
		Kafka:     kafka,
		Embedding: embedding,
		ImageGen:  imageGen,
		Pipeline:  pipeline,
	}, nil
}

func loadPipelineCfg(log logger.Logger) (*PipelineCfg, error) {
	const (
		defaultDataFile      = "fashion_data.json"
		defaultItemsField    = "products"
		defaultBatchLimit    = 25
		defaultItemDelay     = 2 * time.Second
		defaultEmbedTimeout  = 30 * time.Second
		defaultImageTimeout  = 2 * time.Minute
		defaultUploadTimeout = 30 * time.Second
		defaultUpsertTimeout = 10 * time.Second
	)

	batchLimit, err := parseIntEnv("BATCH_LIMIT", defaultBatchLimit)
	if err != nil {
		return nil, e.Wrap("BATCH_LIMIT", err)
	}
	if batchLimit <= 0 {
		return nil, fmt.Errorf("BATCH_LIMIT must be positive, got %d", batchLimit)
	}

	itemDelay, err := parseDurationEnv("ITEM_DELAY", defaultItemDelay)
	if err != nil {
		log.Errorf(err, "invalid ITEM_DELAY")
		return nil, err
	}

	embedTimeout, err := parseDurationEnv("EMBED_TIMEOUT", defaultEmbedTimeout)
	if err != nil {
		log.Errorf(err, "invalid EMBED_TIMEOUT")
		return nil, err
	}

	imageTimeout, err := parseDurationEnv("IMAGE_TIMEOUT", defaultImageTimeout)
	if err != nil {
		log.Errorf(err, "invalid IMAGE_TIMEOUT")
		return nil, err
	}

	uploadTimeout, err := parseDurationEnv("UPLOAD_TIMEOUT", defaultUploadTimeout)
	if err != nil {
		log.Errorf(err, "invalid UPLOAD_TIMEOUT")
		return nil, err
	}

	upsertTimeout, err := parseDurationEnv("UPSERT_TIMEOUT", defaultUpsertTimeout)
	if err != nil {
		log.Errorf(err, "invalid UPSERT_TIMEOUT")
		return nil, err
	}

	return &PipelineCfg{
		DataFile:      getEnvOrDefault("DATA_FILE", defaultDataFile),
		ItemsField:    getEnvOrDefault("ITEMS_FIELD", defaultItemsField),
		BatchLimit:    batchLimit,
		ItemDelay:     itemDelay,
		EmbedTimeout:  embedTimeout,
		ImageTimeout:  imageTimeout,
		UploadTimeout: uploadTimeout,
		UpsertTimeout: upsertTimeout,
		ReportPath:    getEnv("REPORT_PATH"),
	}, nil
}

func loadEmbeddingCfg() (*EmbeddingCfg, error) {
	const defaultModel = "text-embedding-004"

	apiKey := getEnv("GOOGLE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required")
	}

	return &EmbeddingCfg{
		ApiKey: apiKey,
		Model:  getEnvOrDefault("EMBEDDING_MODEL", defaultModel),
	}, nil
}

func loadImageGenCfg(log logger.Logger) (*ImageGenCfg, error) {
	const (
		defaultModel          = "stabilityai/stable-diffusion-3-medium-diffusers"
		defaultBaseURL        = "https://api-inference.huggingface.co/models/"
		defaultNegativePrompt = "blurry, bad"
		defaultSteps          = 28
		defaultGuidance       = "7.0"
	)

	steps, err := parseIntEnv("IMAGE_INFERENCE_STEPS", defaultSteps)
	if err != nil {
		return nil, e.Wrap("IMAGE_INFERENCE_STEPS", err)
	}

	guidanceStr := getEnvOrDefault("IMAGE_GUIDANCE_SCALE", defaultGuidance)
	guidance, err := strconv.ParseFloat(guidanceStr, 64)
	if err != nil {
		log.Errorf(err, "invalid IMAGE_GUIDANCE_SCALE")
		return nil, err
	}

	return &ImageGenCfg{
		ApiKey:         getEnv("HF_API_KEY"),
		Model:          getEnvOrDefault("IMAGE_MODEL", defaultModel),
		BaseURL:        getEnvOrDefault("HF_BASE_URL", defaultBaseURL),
		NegativePrompt: getEnvOrDefault("IMAGE_NEGATIVE_PROMPT", defaultNegativePrompt),
		InferenceSteps: steps,
		GuidanceScale:  guidance,
	}, nil
}

func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "catalog.enriched"
	)

	brokerStr := os.Getenv("KAFKA_BROKERS")
	if brokerStr == "" {
		return nil, fmt.Errorf("KAFKA_BROKERS environment variable is required")
	}
	brokers := splitAndTrim(brokerStr)

	topic := getEnvOrDefault("KAFKA_TOPIC", defaultTopic)

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             topic,
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL   = false
		defaultEndpoint = "minio:9000"
		defaultBucket   = "product-images"
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	endpoint := getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint)
	bucket := getEnvOrDefault("BUCKET_NAME", defaultBucket)

	// Если внешний URL не задан, собираем его из endpoint и схемы
	publicBase := getEnv("MINIO_PUBLIC_URL")
	if publicBase == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s", scheme, endpoint)
	}

	return &MinIOCfg{
		MinioEndpoint:     endpoint,
		BucketName:        bucket,
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		PublicBaseURL:     publicBase,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost    = "localhost"
		defaultPort    = "5432"
		defaultSSLMode = "disable"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	return &PGDBCfg{
		Host:     getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:     getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:     user,
		Password: password,
		DBName:   dbName,
		SSLMode:  getEnvOrDefault("SSL_MODE", defaultSSLMode),
	}, nil
}

func loadQdrantCfg(logger logger.Logger) (*QdrantCfg, error) {
	const (
		defaultQdrantGRPCPort = "6334"
		defaultUseTLS         = false
		defaultVectorSize     = "768"
		defaultCollection     = "product-embeddings"
	)

	strPort := getEnvOrDefault("QDRANT_GRPC_PORT", defaultQdrantGRPCPort)
	port, err := strconv.Atoi(strPort)
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_PORT")
		return nil, err
	}

	useTLS, err := strconv.ParseBool(getEnvOrDefault("QDRANT_USE_TLS", strconv.FormatBool(defaultUseTLS)))
	if err != nil {
		logger.Errorf(err, "invalid QDRANT_USE_TLS")
		return nil, err
	}

	strVectorSize := getEnvOrDefault("VECTOR_SIZE", defaultVectorSize)
	vectorSize, err := strconv.ParseUint(strVectorSize, 10, 64)
	if err != nil {
		logger.Errorf(err, "invalid VECTOR_SIZE")
		return nil, err
	}

	return &QdrantCfg{
		Host:                 getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:                 port,
		ApiKey:               getEnv("QDRANT__SERVICE__API_KEY"),
		QdrantCollectionName: getEnvOrDefault("COLLECTION_NAME", defaultCollection),
		UseTLS:               useTLS,
		VectorSize:           vectorSize,
	}, nil
}

func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr         = "localhost:6379"
		defaultDB           = 0
		defaultMaxRetries   = 3
		defaultDialTimeout  = 5 * time.Second
		defaultReadTimeout  = 3 * time.Second
		defaultWriteTimeout = 3 * time.Second
		defaultProductTTL   = 3 * time.Minute
	)

	addr := getEnvOrDefault("REDIS_ADDR", defaultAddr)
	password := getEnv("REDIS_PASSWORD")
	user := getEnv("REDIS_USER")

	dbStr := getEnvOrDefault("REDIS_DB_ID", strconv.Itoa(defaultDB))
	db, err := strconv.Atoi(dbStr)
	if err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}

	maxRetriesStr := getEnvOrDefault("MAX_RETRIES", strconv.Itoa(defaultMaxRetries))
	maxRetries, err := strconv.Atoi(maxRetriesStr)
	if err != nil {
		log.Errorf(err, "invalid MAX_RETRIES")
		return nil, err
	}

	dialTimeout, err := parseDurationEnv("DIAL_TIMEOUT", defaultDialTimeout)
	if err != nil {
		log.Errorf(err, "invalid DIAL_TIMEOUT")
		return nil, err
	}

	readTimeout, err := parseDurationEnv("READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid WRITE_TIMEOUT")
		return nil, err
	}

	productTTL, err := parseDurationEnv("PRODUCT_TTL", defaultProductTTL)
	if err != nil {
		log.Errorf(err, "invalid PRODUCT_TTL")
		return nil, err
	}

	timeout := readTimeout
	if writeTimeout > timeout {
		timeout = writeTimeout
	}

	return &RedisCfg{
		Addr:        addr,
		Password:    password,
		User:        user,
		DB:          db,
		MaxRetries:  maxRetries,
		DialTimeout: dialTimeout,
		Timeout:     timeout,
		ProductTTL:  productTTL,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

// splitAndTrim разбивает список по запятым, отбрасывая пустые элементы.
func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
