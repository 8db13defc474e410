package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"
)

// Server/Init log prefixes
const (
	LogServer = Green + "[Server]" + Reset
	LogConfig = Cyan + "[Config]" + Reset
	LogStats  = Blue + "[Stats]" + Reset
)

// Request handling prefixes
const (
	LogRequest   = Purple + "[Request]" + Reset
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
)

// Lyrics lookup prefixes
const (
	LogSearch   = Blue + "[Search]" + Reset
	LogHTTP     = Cyan + "[HTTP]" + Reset
	LogMatch    = Green + "[Match]" + Reset
	LogLyrics   = Blue + "[Lyrics]" + Reset
	LogNoMatch  = Cyan + "[NoMatch]" + Reset
	LogFallback = Cyan + "[Fallback]" + Reset
	LogWarning  = Red + "[Warning]" + Reset
)

// Song pipeline prefixes
const (
	LogProcess    = Green + "[Process]" + Reset
	LogKeywords   = Cyan + "[Keywords]" + Reset
	LogStory      = Purple + "[Story]" + Reset
	LogStore      = Blue + "[Store]" + Reset
	LogStoreInit  = Blue + "[Store:Init]" + Reset
	LogBackup     = Blue + "[Store:Backup]" + Reset
	LogColorMatch = Yellow + "[ColorMatch]" + Reset
	LogNotifier   = Cyan + "[Notifier]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// Provider returns a colored provider tag, one fixed color per provider
func Provider(name string) string {
	color := Cyan
	switch name {
	case "netease":
		color = Red
	case "qqmusic":
		color = Green
	case "kugou":
		color = Blue
	case "migu":
		color = Purple
	}
	return color + "[" + name + "]" + Reset
}
