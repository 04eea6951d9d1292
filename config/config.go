package config

import (
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/viper"

	"speech-grader/constant"
)

type Config struct {
	App         App           `yaml:"app"`
	Server      Server        `yaml:"server"`
	Database    Database      `yaml:"database"`
	Storage     Storage       `yaml:"storage"`
	Speech      Speech        `yaml:"speech"`
	Grading     Grading       `yaml:"grading"`
	Auth        Auth          `yaml:"auth"`
	ObjectStore *minio.Client `yaml:"-"`
}

type App struct {
	Environment string `yaml:"environment"`
}

type Server struct {
	HttpPort       string   `yaml:"http_port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Storage struct {
	Backend string `yaml:"backend"`
	Root    string `yaml:"root"`
	Bucket  string `yaml:"bucket"`
}

type Speech struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
	LanguageCode    string `yaml:"language_code"`
	SampleRateHertz int32  `yaml:"sample_rate_hertz"`
}

type Grading struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	Prompt         string `yaml:"prompt"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type Auth struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

func Load(path string) (*Config, error) {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.SetDefault("app.environment", constant.EnvironmentDevelop.String())
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	viper.SetDefault("database.path", "data/recordings.db")
	viper.SetDefault("storage.backend", constant.StorageBackendLocal.String())
	viper.SetDefault("storage.root", "data/recordings")
	viper.SetDefault("speech.language_code", "en-US")
	viper.SetDefault("speech.sample_rate_hertz", 48000)
	viper.SetDefault("grading.timeout_seconds", 60)
	viper.SetDefault("auth.token_ttl_hours", 24)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{
		App: App{
			Environment: viper.GetString("app.environment"),
		},
		Server: Server{
			HttpPort:       viper.GetString("server.port"),
			AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
		},
		Database: Database{
			Path: viper.GetString("database.path"),
		},
		Storage: Storage{
			Backend: viper.GetString("storage.backend"),
			Root:    viper.GetString("storage.root"),
			Bucket:  viper.GetString("minio.bucket"),
		},
		Speech: Speech{
			ProjectID:       viper.GetString("speech.project_id"),
			CredentialsFile: viper.GetString("speech.credentials_file"),
			LanguageCode:    viper.GetString("speech.language_code"),
			SampleRateHertz: viper.GetInt32("speech.sample_rate_hertz"),
		},
		Grading: Grading{
			APIKey:         viper.GetString("grading.api_key"),
			Model:          viper.GetString("grading.model"),
			Prompt:         viper.GetString("grading.prompt"),
			TimeoutSeconds: viper.GetInt("grading.timeout_seconds"),
		},
		Auth: Auth{
			JWTSecret:     viper.GetString("auth.jwt_secret"),
			TokenTTLHours: viper.GetInt("auth.token_ttl_hours"),
		},
	}

	if cfg.Speech.ProjectID == "" {
		cfg.Speech.ProjectID = os.Getenv("GOOGLE_CLOUD_PROJECT_ID")
	}
	if cfg.Speech.CredentialsFile == "" {
		cfg.Speech.CredentialsFile = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if cfg.Grading.APIKey == "" {
		cfg.Grading.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}

	if cfg.Storage.Backend == constant.StorageBackendMinIO.String() {
		minioClient, err := minio.New(viper.GetString("minio.url"), &minio.Options{
			Creds:  credentials.NewStaticV4(viper.GetString("minio.access_id"), viper.GetString("minio.secret_access_key"), ""),
			Secure: viper.GetBool("minio.secure"),
		})
		if err != nil {
			return nil, err
		}
		cfg.ObjectStore = minioClient
	}

	return cfg, nil
}
