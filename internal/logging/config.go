package logging

// Supported formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Supported levels.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Supported outputs.
const (
	OutputStderr = "stderr"
	OutputFile   = "file"
)

const (
	DefaultLevel      = LevelWarn
	DefaultFormat     = FormatText
	DefaultOutput     = OutputStderr
	DefaultMaxSize    = 10 // MB
	DefaultMaxBackups = 3
	DefaultMaxAge     = 7 // days
)

// Config holds the logging settings. The tags let cleanenv fill it from a
// YAML file and ZFILE_LOG_* variables.
type Config struct {
	Level  string `yaml:"level" env:"ZFILE_LOG_LEVEL" env-default:"warn"`
	Format string `yaml:"format" env:"ZFILE_LOG_FORMAT" env-default:"text"`
	Output string `yaml:"output" env:"ZFILE_LOG_OUTPUT" env-default:"stderr"`

	// FilePath is used when Output is "file".
	FilePath   string `yaml:"filePath" env:"ZFILE_LOG_FILE"`
	MaxSize    int    `yaml:"maxSize" env:"ZFILE_LOG_MAX_SIZE" env-default:"10"`
	MaxBackups int    `yaml:"maxBackups" env:"ZFILE_LOG_MAX_BACKUPS" env-default:"3"`
	MaxAge     int    `yaml:"maxAge" env:"ZFILE_LOG_MAX_AGE" env-default:"7"`
}

// DefaultConfig returns a Config with the default values.
func DefaultConfig() Config {
	return Config{
		Level:      DefaultLevel,
		Format:     DefaultFormat,
		Output:     DefaultOutput,
		MaxSize:    DefaultMaxSize,
		MaxBackups: DefaultMaxBackups,
		MaxAge:     DefaultMaxAge,
	}
}
