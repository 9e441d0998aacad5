package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	StorageDriver string // "postgres" hoặc "memory"
	DBHost        string
	DBPort        int
	DBUser        string
	DBPassword    string
	DBName        string
	DBSslMode     string

	AWSRegion       string
	SQSLaneQueueURL string
	IoTMQTTEndpoint string

	JWTSecret          string
	JWTExpirationHours time.Duration

	UploadFolder   string
	MaxUploadBytes int64

	OCREngine    string   // "rekognition", "tesseract" hoặc "none"
	OCRLanguages []string // chỉ dùng cho tesseract

	DefaultTollAmount   float64
	LowBalanceThreshold float64
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	maxUploadMB, _ := strconv.Atoi(getEnv("MAX_UPLOAD_MB", "16"))
	tollAmount, _ := strconv.ParseFloat(getEnv("DEFAULT_TOLL_AMOUNT", "35000"), 64)
	lowBalance, _ := strconv.ParseFloat(getEnv("LOW_BALANCE_THRESHOLD", "50000"), 64)

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "postgres")),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        dbPort,
		DBUser:        getEnv("DB_USER", "etc"),
		DBPassword:    getEnv("DB_PASSWORD", "etc"),
		DBName:        getEnv("DB_NAME", "etc_backend"),
		DBSslMode:     getEnv("DB_SSLMODE", "disable"),

		AWSRegion:       getEnv("AWS_REGION", "ap-southeast-1"),
		SQSLaneQueueURL: getEnv("SQS_LANE_QUEUE_URL", ""),
		IoTMQTTEndpoint: getEnv("IOT_MQTT_ENDPOINT", ""),

		JWTSecret:          getEnv("JWT_SECRET", "change-this-in-production"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		UploadFolder:   getEnv("UPLOAD_FOLDER", "uploads"),
		MaxUploadBytes: int64(maxUploadMB) << 20,

		OCREngine:    strings.ToLower(getEnv("OCR_ENGINE", "rekognition")),
		OCRLanguages: splitList(getEnv("OCR_LANGUAGES", "eng,vie")),

		DefaultTollAmount:   tollAmount,
		LowBalanceThreshold: lowBalance,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Biến môi trường '%s' không được đặt, sử dụng giá trị mặc định: '%s'", key, fallback)
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
