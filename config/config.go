// Package config loads the service configuration from config.yml and the
// environment.
//
// Every key has a default, so the service starts without a config file.
// Environment variables override the file: the key "server.addr" is read
// from HARDHAT_SERVER_ADDR.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/nvr-ai/hardhat/images"
	"github.com/nvr-ai/hardhat/inference"
	"github.com/nvr-ai/hardhat/logger"
	"github.com/nvr-ai/hardhat/profiler"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HARDHAT"

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Log       logger.Config    `mapstructure:"log"`
	Inference inference.Config `mapstructure:"inference"`
	Profiler  profiler.Options `mapstructure:"profiler"`
	Redis     RedisConfig      `mapstructure:"redis"`
	MQTT      MQTTConfig       `mapstructure:"mqtt"`
	Dataset   DatasetConfig    `mapstructure:"dataset"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode        string   `mapstructure:"mode"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	// MaxUploadMB bounds the multipart body of /predict.
	MaxUploadMB int `mapstructure:"max_upload_mb"`
	// MaxImagePixels bounds the declared width*height of an upload.
	MaxImagePixels int `mapstructure:"max_image_pixels"`
	// JPEGQuality is used when re-encoding the annotated image.
	JPEGQuality     int           `mapstructure:"jpeg_quality"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig configures the optional prediction cache.
type RedisConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// MQTTConfig configures the optional compliance alert publisher.
type MQTTConfig struct {
	Enabled              bool          `mapstructure:"enabled"`
	Brokers              []string      `mapstructure:"brokers"`
	ClientID             string        `mapstructure:"client_id"`
	Username             string        `mapstructure:"username"`
	Password             string        `mapstructure:"password"`
	Topic                string        `mapstructure:"topic"`
	QoS                  byte          `mapstructure:"qos"`
	KeepAlive            time.Duration `mapstructure:"keep_alive"`
	ConnectTimeout       time.Duration `mapstructure:"connect_timeout"`
	ConnectRetryInterval time.Duration `mapstructure:"connect_retry_interval"`
}

// DatasetConfig holds the default paths used by the dataset CLI.
type DatasetConfig struct {
	Root           string `mapstructure:"root"`
	ImagesDir      string `mapstructure:"images_dir"`
	AnnotationsDir string `mapstructure:"annotations_dir"`
	LabelsDir      string `mapstructure:"labels_dir"`
	ProcessedDir   string `mapstructure:"processed_dir"`
	ParamsFile     string `mapstructure:"params_file"`
	Seed           uint64 `mapstructure:"seed"`
}

// Default returns the configuration used when no file or env override is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: "0.0.0.0:8000",
			Mode: "release",
			CORSOrigins: []string{
				"http://localhost",
				"http://localhost:3000",
				"http://localhost:5173",
			},
			MaxUploadMB:     20,
			MaxImagePixels:  images.DefaultMaxPixels,
			JPEGQuality:     90,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:       logger.DefaultConfig(),
		Inference: inference.DefaultConfig(),
		Profiler:  profiler.Options{ReportInterval: time.Minute, MaxSamples: 600},
		Redis: RedisConfig{
			Addr:      "127.0.0.1:6379",
			TTL:       time.Hour,
			KeyPrefix: "hardhat:predict:",
		},
		MQTT: MQTTConfig{
			Brokers:              []string{"tcp://127.0.0.1:1883"},
			ClientID:             "hardhat-api",
			Topic:                "hardhat/alerts",
			QoS:                  1,
			KeepAlive:            30 * time.Second,
			ConnectTimeout:       5 * time.Second,
			ConnectRetryInterval: 10 * time.Second,
		},
		Dataset: DatasetConfig{
			Root:           ".",
			ImagesDir:      "data/raw/images",
			AnnotationsDir: "data/raw/annotations",
			LabelsDir:      "data/raw/labels",
			ProcessedDir:   "data/processed",
			ParamsFile:     "params.yaml",
			Seed:           42,
		},
	}
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	defaults := map[string]any{
		"server.addr":             d.Server.Addr,
		"server.mode":             d.Server.Mode,
		"server.cors_origins":     d.Server.CORSOrigins,
		"server.max_upload_mb":    d.Server.MaxUploadMB,
		"server.max_image_pixels": d.Server.MaxImagePixels,
		"server.jpeg_quality":     d.Server.JPEGQuality,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,

		"log.level":        d.Log.Level,
		"log.dir":          d.Log.Dir,
		"log.name":         d.Log.Name,
		"log.max_size_mb":  d.Log.MaxSizeMB,
		"log.max_backups":  d.Log.MaxBackups,
		"log.max_age_days": d.Log.MaxAgeDays,
		"log.console":      d.Log.Console,

		"inference.engine":                                  d.Inference.Engine,
		"inference.model_path":                              d.Inference.ModelPath,
		"inference.family":                                  d.Inference.Family,
		"inference.library_path":                            d.Inference.LibraryPath,
		"inference.input_size":                              d.Inference.InputSize,
		"inference.anchors":                                 d.Inference.Anchors,
		"inference.confidence_threshold":                    d.Inference.ConfidenceThreshold,
		"inference.nms_threshold":                           d.Inference.NMSThreshold,
		"inference.provider.backend":                        d.Inference.Provider.Backend,
		"inference.provider.intra_op_threads":               d.Inference.Provider.IntraOpThreads,
		"inference.provider.inter_op_threads":               d.Inference.Provider.InterOpThreads,
		"inference.provider.graph_optimization":             d.Inference.Provider.GraphOptimization,
		"inference.provider.cuda.device_id":                 d.Inference.Provider.CUDA.DeviceID,
		"inference.provider.cuda.gpu_mem_limit":             d.Inference.Provider.CUDA.GPUMemLimit,
		"inference.provider.cuda.arena_extend_strategy":     d.Inference.Provider.CUDA.ArenaExtendStrategy,
		"inference.provider.cuda.cudnn_conv_algo_search":    d.Inference.Provider.CUDA.CudnnConvAlgoSearch,
		"inference.provider.cuda.do_copy_in_default_stream": d.Inference.Provider.CUDA.DoCopyInDefaultStream,
		"inference.provider.coreml.flags":                   d.Inference.Provider.CoreML.Flags,
		"inference.provider.openvino.device_type":           d.Inference.Provider.OpenVINO.DeviceType,
		"inference.provider.openvino.precision":             d.Inference.Provider.OpenVINO.Precision,
		"inference.provider.openvino.num_of_threads":        d.Inference.Provider.OpenVINO.NumOfThreads,

		"profiler.report_interval": d.Profiler.ReportInterval,
		"profiler.max_samples":     d.Profiler.MaxSamples,

		"redis.enabled":    d.Redis.Enabled,
		"redis.addr":       d.Redis.Addr,
		"redis.password":   d.Redis.Password,
		"redis.db":         d.Redis.DB,
		"redis.ttl":        d.Redis.TTL,
		"redis.key_prefix": d.Redis.KeyPrefix,

		"mqtt.enabled":                d.MQTT.Enabled,
		"mqtt.brokers":                d.MQTT.Brokers,
		"mqtt.client_id":              d.MQTT.ClientID,
		"mqtt.username":               d.MQTT.Username,
		"mqtt.password":               d.MQTT.Password,
		"mqtt.topic":                  d.MQTT.Topic,
		"mqtt.qos":                    d.MQTT.QoS,
		"mqtt.keep_alive":             d.MQTT.KeepAlive,
		"mqtt.connect_timeout":        d.MQTT.ConnectTimeout,
		"mqtt.connect_retry_interval": d.MQTT.ConnectRetryInterval,

		"dataset.root":            d.Dataset.Root,
		"dataset.images_dir":      d.Dataset.ImagesDir,
		"dataset.annotations_dir": d.Dataset.AnnotationsDir,
		"dataset.labels_dir":      d.Dataset.LabelsDir,
		"dataset.processed_dir":   d.Dataset.ProcessedDir,
		"dataset.params_file":     d.Dataset.ParamsFile,
		"dataset.seed":            d.Dataset.Seed,
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
}

// Load reads the configuration.
//
// Arguments:
//   - path: An explicit config file. When empty, config.yml is looked up in the
//     working directory and a missing file is not an error.
//
// Returns:
//   - *Config: The merged configuration.
//   - error: An error if the file cannot be read or a value cannot be decoded.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Inference.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid inference config")
	}
	return cfg, nil
}
