// Copyright Contributors to the Open Cluster Management project

package config

import (
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"

	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"
)

const COMPONENT_VERSION = "0.4.0"

var DEVELOPMENT_MODE = false // Do not change this. See config_development.go to enable.
var Cfg = new()

// Struct to hold our configuration
type Config struct {
	BPOTenantID         string
	BPOToken            string
	BPOURL              string // Orchestration platform base url, e.g. https://bpo.example.com/bpocore/market/api/v1
	DBHost              string
	DBMinConns          int32 // Overrides pgxpool.Config{ MinConns } Default: 2
	DBMaxConns          int32 // Overrides pgxpool.Config{ MaxConns } Default: 10
	DBMaxConnIdleTime   int   // Overrides pgxpool.Config{ MaxConnIdleTime } Default: 1 min
	DBMaxConnLifeTime   int   // Overrides pgxpool.Config{ MaxConnLifetime } Default: 1 min
	DBMaxConnLifeJitter int   // Overrides pgxpool.Config{ MaxConnLifetimeJitter } Default: 10 sec
	DBName              string
	DBPass              string
	DBPort              int
	DBUser              string
	DevelopmentMode     bool
	FortiGatePort       int
	FortiGateTimeoutMS  int
	FortiGateToken      string
	HTTPTimeout         int // Timeout for http server connections. Default: 5 min
	KafkaBrokers        []string
	KafkaGroupID        string
	KafkaPlanTopic      string
	KafkaReportTopic    string
	KubeClient          *kubernetes.Clientset `json:"-"`
	KubeConfigPath      string
	LeaseName           string
	NumberOfRetries     int // Retries for idempotent reads against BPO and the RA. Default: 1
	PlanLimit           int // Max number of plans run at once through the API. Default: 5
	PodName             string
	PodNamespace        string
	ReconcileSlowLog    int // Log reconciliations slower than the specified time in ms. Default: 30 sec
	RADeviceURL         string
	RASessionURL        string
	RedisAddress        string // When empty the RA url cache lives in memory.
	RedisPassword       string
	RequestLimit        int    // Max number of concurrent requests.
	ServerAddress       string // Web server address
	SlowLog             int    // Log operations slower than the specified time in ms. Default: 1 sec
	URLCacheTTLMS       int
	Version             string
	WaitSeconds         int // Delay between retries. Default: 5
}

// Reads config from environment.
func new() *Config {
	conf := &Config{
		BPOTenantID:         getEnv("BPO_TENANT_ID", ""),
		BPOToken:            getEnv("BPO_TOKEN", ""),
		BPOURL:              getEnv("BPO_URL", ""),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBMaxConns:          getEnvAsInt32("DB_MAX_CONNS", int32(10)),        // Overrides pgxpool default (4)
		DBMaxConnIdleTime:   getEnvAsInt("DB_MAX_CONN_IDLE_TIME", 60*1000),   // 1 min - Overrides pgxpool default (30)
		DBMaxConnLifeJitter: getEnvAsInt("DB_MAX_CONN_LIFE_JITTER", 10*1000), // 10 sec - Overrides pgxpool default
		DBMaxConnLifeTime:   getEnvAsInt("DB_MAX_CONN_LIFE_TIME", 60*1000),   // 1 min - Overrides pgxpool default (60)
		DBMinConns:          getEnvAsInt32("DB_MIN_CONNS", int32(2)),         // Overrides pgxpool default (0)
		DBName:              getEnv("DB_NAME", ""),
		DBPass:              getEnv("DB_PASS", ""),
		DBPort:              getEnvAsInt("DB_PORT", 5432),
		DBUser:              getEnv("DB_USER", ""),
		DevelopmentMode:     DEVELOPMENT_MODE, // Don't read ENV. See config_development.go to enable.
		FortiGatePort:       getEnvAsInt("FORTIGATE_PORT", 443),
		FortiGateTimeoutMS:  getEnvAsInt("FORTIGATE_TIMEOUT_MS", 30*1000),
		FortiGateToken:      getEnv("FORTIGATE_TOKEN", ""),
		HTTPTimeout:         getEnvAsInt("HTTP_TIMEOUT", 5*60*1000), // 5 min
		KafkaBrokers:        getEnvAsList("KAFKA_BROKERS", []string{}),
		KafkaGroupID:        getEnv("KAFKA_GROUP_ID", "circuit-reconciler"),
		KafkaPlanTopic:      getEnv("KAFKA_PLAN_TOPIC", "plan-requests"),
		KafkaReportTopic:    getEnv("KAFKA_REPORT_TOPIC", "reconcile-reports"),
		KubeConfigPath:      getKubeConfigPath(),
		LeaseName:           getEnv("LEASE_NAME", "circuit-reconciler-lock"),
		NumberOfRetries:     getEnvAsInt("NUMBER_OF_RETRIES", 1),
		PlanLimit:           getEnvAsInt("PLAN_LIMIT", 5),
		PodName:             getEnv("POD_NAME", "local-dev"),
		PodNamespace:        getEnv("POD_NAMESPACE", "circuit-reconciler"),
		ReconcileSlowLog:    getEnvAsInt("RECONCILE_SLOW_LOG", 30*1000), // 30 seconds
		RADeviceURL:         getEnv("RA_DEVICE_URL", "http://blueplanet:80/ractrl/api/v1/devices/"),
		RASessionURL:        getEnv("RA_SESSION_URL", "http://blueplanet:80/ractrl/api/v1/sessions/"),
		RedisAddress:        getEnv("REDIS_ADDRESS", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		RequestLimit:        getEnvAsInt("REQUEST_LIMIT", 25),
		ServerAddress:       getEnv("SERVER_ADDRESS", ":3010"),
		SlowLog:             getEnvAsInt("SLOW_LOG", 1000), // 1 second
		URLCacheTTLMS:       getEnvAsInt("URL_CACHE_TTL_MS", 10*60*1000), // 10 min
		Version:             COMPONENT_VERSION,
		WaitSeconds:         getEnvAsInt("WAIT_SECONDS", 5),
	}

	// URLEncode the db password.
	conf.DBPass = url.QueryEscape(conf.DBPass)

	// Initialize Kube Client
	conf.KubeClient = getKubeClient()

	return conf
}

// Format and print environment to logger.
func (cfg *Config) PrintConfig() {
	// Make a copy to redact secrets and sensitive information.
	tmp := *cfg
	tmp.DBPass = "[REDACTED]"
	tmp.BPOToken = "[REDACTED]"
	tmp.FortiGateToken = "[REDACTED]"
	tmp.RedisPassword = "[REDACTED]"

	// Convert to JSON for nicer formatting.
	cfgJSON, err := json.MarshalIndent(tmp, "", "\t")
	if err != nil {
		klog.Warning("Encountered a problem formatting configuration. ", err)
		klog.Infof("Configuration %#v\n", tmp)
	}
	klog.Infof("Using configuration:\n%s\n", string(cfgJSON))
}

// Simple helper function to read an environment or return a default value
func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

// Simple helper function to read an environment variable into integer or return a default value
func getEnvAsInt(name string, defaultVal int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

// Helper function to read an environment variable into integer32 or return a default value
func getEnvAsInt32(name string, defaultVal int32) int32 {
	valueStr := getEnv(name, "")
	if value, err := strconv.ParseInt(valueStr, 10, 32); err == nil {
		return int32(value)
	}
	return defaultVal
}

// Helper function to read a comma separated environment variable into a list.
func getEnvAsList(name string, defaultVal []string) []string {
	valueStr := getEnv(name, "")
	if valueStr == "" {
		return defaultVal
	}
	values := []string{}
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// Validate required configuration.
func (cfg *Config) Validate() error {
	if cfg.DBName == "" {
		return errors.New("Required environment DB_NAME is not set.")
	}
	if cfg.DBUser == "" {
		return errors.New("Required environment DB_USER is not set.")
	}
	if cfg.DBPass == "" {
		return errors.New("Required environment DB_PASS is not set.")
	}
	if cfg.BPOURL == "" {
		return errors.New("Required environment BPO_URL is not set.")
	}
	if cfg.NumberOfRetries < 0 {
		return errors.New("NUMBER_OF_RETRIES must not be negative.")
	}
	return nil
}
