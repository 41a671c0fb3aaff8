package config

const (
	defaultSourceDir       = "~/takeout"
	defaultDestDir         = "~/photos"
	defaultLogDir          = "~/.local/share/takeout/logs"
	defaultDBPath          = "~/.local/share/takeout/takeout.db"
	defaultWorkers         = 4
	defaultPageSize        = 100
	defaultExiftoolBinary  = "exiftool"
	defaultExiftoolTimeout = 300
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir: defaultSourceDir,
			DestDir:   defaultDestDir,
			LogDir:    defaultLogDir,
			DBPath:    defaultDBPath,
		},
		Pipeline: Pipeline{
			Workers:  defaultWorkers,
			PageSize: defaultPageSize,
		},
		Exiftool: Exiftool{
			Binary:         defaultExiftoolBinary,
			TimeoutSeconds: defaultExiftoolTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
