package config

import (
	"os"
	"strconv"

	"github.com/juho05/log"
)

var values = make(map[string]any)

func Port() (port int) {
	if p, ok := values["PORT"]; ok {
		return p.(int)
	}
	defer func() {
		values["PORT"] = port
	}()
	def := 8080
	portStr := os.Getenv("PORT")
	if portStr == "" {
		return def
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Errorf("Invalid port '%s': not a number. Using default: %d", portStr, def)
		return def
	}
	return port
}

func LogLevel() (sev log.Severity) {
	if l, ok := values["LOG_LEVEL"]; ok {
		return l.(log.Severity)
	}
	defer func() {
		values["LOG_LEVEL"] = sev
	}()
	def := log.INFO
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		return def
	}
	level, err := strconv.Atoi(logLevelStr)
	if err != nil {
		log.Errorf("Invalid log level '%s': not a number. Using default: %d", logLevelStr, def)
		return def
	}
	if level < int(log.NONE) || level > int(log.TRACE) {
		log.Errorf("Invalid log level. Valid values: 0 (none), 1 (fatal), 2 (error), 3 (warning), 4 (info), 5 (trace). Using default: %d", def)
		return def
	}
	return log.Severity(level)
}

func LogFile() (file *os.File) {
	if f, ok := values["LOG_FILE"]; ok {
		return f.(*os.File)
	}
	defer func() {
		values["LOG_FILE"] = file
	}()
	def := os.Stderr
	if os.Getenv("LOG_FILE") == "" {
		return def
	}
	appnd, _ := strconv.ParseBool(os.Getenv("LOG_APPEND"))
	if appnd {
		file, err := os.OpenFile(os.Getenv("LOG_FILE"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.Errorf("Failed to open log file: %s. Using default: STDERR", err)
			return def
		}
		return file
	}
	file, err := os.Create(os.Getenv("LOG_FILE"))
	if err != nil {
		log.Errorf("Failed to create log file: %s. Using default: STDERR", err)
		return def
	}
	return file
}

// DBProvider is either 'sqlite' or 'postgres'.
func DBProvider() (provider string) {
	if p, ok := values["DB_PROVIDER"]; ok {
		return p.(string)
	}
	defer func() {
		values["DB_PROVIDER"] = provider
	}()
	provider = os.Getenv("DB_PROVIDER")
	if provider == "" {
		provider = "sqlite"
	}
	if provider != "sqlite" && provider != "postgres" {
		log.Fatalf("Invalid DB provider '%s'. Valid values: sqlite, postgres", provider)
	}
	return provider
}

func DBConnection() (connection string) {
	if c, ok := values["DB_CONNECTION"]; ok {
		return c.(string)
	}
	defer func() {
		values["DB_CONNECTION"] = connection
	}()
	connection = os.Getenv("DB_CONNECTION")
	if connection == "" {
		if DBProvider() == "sqlite" {
			return "database.sqlite"
		}
		log.Fatal("DB_CONNECTION is required for the postgres provider")
	}
	return connection
}

func AutoMigrate() (migrate bool) {
	if m, ok := values["AUTO_MIGRATE"]; ok {
		return m.(bool)
	}
	defer func() {
		values["AUTO_MIGRATE"] = migrate
	}()
	migrate, _ = strconv.ParseBool(os.Getenv("AUTO_MIGRATE"))
	return migrate
}

func BaseURL() (baseURL string) {
	if b, ok := values["BASE_URL"]; ok {
		return b.(string)
	}
	defer func() {
		values["BASE_URL"] = baseURL
	}()
	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		log.Fatal("BASE_URL is required, e.g. https://paw-id.example.com")
	}
	return baseURL
}

func EmailHost() (host string) {
	if h, ok := values["EMAIL_HOST"]; ok {
		return h.(string)
	}
	defer func() {
		values["EMAIL_HOST"] = host
	}()
	host = os.Getenv("EMAIL_HOST")
	if host == "" {
		log.Fatal("EMAIL_HOST is required, e.g. smtp.example.com:587")
	}
	return host
}

func EmailUsername() (username string) {
	if u, ok := values["EMAIL_USERNAME"]; ok {
		return u.(string)
	}
	defer func() {
		values["EMAIL_USERNAME"] = username
	}()
	username = os.Getenv("EMAIL_USERNAME")
	if username == "" {
		log.Fatal("EMAIL_USERNAME is required")
	}
	return username
}

func EmailPassword() (password string) {
	if p, ok := values["EMAIL_PASSWORD"]; ok {
		return p.(string)
	}
	defer func() {
		values["EMAIL_PASSWORD"] = password
	}()
	password = os.Getenv("EMAIL_PASSWORD")
	if password == "" {
		log.Fatal("EMAIL_PASSWORD is required")
	}
	return password
}

func BcryptCost() (cost int) {
	if c, ok := values["BCRYPT_COST"]; ok {
		return c.(int)
	}
	defer func() {
		values["BCRYPT_COST"] = cost
	}()
	def := 12
	costStr := os.Getenv("BCRYPT_COST")
	if costStr == "" {
		return def
	}
	cost, err := strconv.Atoi(costStr)
	if err != nil {
		log.Errorf("Invalid bcrypt cost '%s': not a number. Using default: %d", costStr, def)
		return def
	}
	if cost < 10 || cost > 31 {
		log.Errorf("Invalid bcrypt cost %d. Valid values: 10-31. Using default: %d", cost, def)
		return def
	}
	return cost
}

func BehindProxy() (behindProxy bool) {
	if b, ok := values["BEHIND_PROXY"]; ok {
		return b.(bool)
	}
	defer func() {
		values["BEHIND_PROXY"] = behindProxy
	}()
	behindProxy, _ = strconv.ParseBool(os.Getenv("BEHIND_PROXY"))
	return behindProxy
}

func TLSCert() (cert string) {
	if c, ok := values["TLS_CERT"]; ok {
		return c.(string)
	}
	defer func() {
		values["TLS_CERT"] = cert
	}()
	return os.Getenv("TLS_CERT")
}

func TLSKey() (key string) {
	if k, ok := values["TLS_KEY"]; ok {
		return k.(string)
	}
	defer func() {
		values["TLS_KEY"] = key
	}()
	return os.Getenv("TLS_KEY")
}
