package config

const (
	defaultConfigPath       = "~/.config/copyartifacts/config.toml"
	projectConfigName       = "copyartifacts.toml"
	defaultLibraryDir       = "~/Music"
	defaultLogDir           = "~/.local/share/copyartifacts/logs"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultRootPolicy       = RootPolicyNone
	defaultWorkers          = 4
	libraryDirEnv           = "COPYARTIFACTS_LIBRARY_DIR"
	defaultDeleteOnMove     = true
	defaultPrintIgnored     = false
	extensionWildcard       = ".*"
	defaultLockFileBasename = "copyartifacts.lock"
)

// Root policies decide what happens to artifacts that sit where several
// records could claim them.
const (
	RootPolicyNone = "none"
	RootPolicyAll  = "all"
)

// Media files the host imports itself. A directory holding one of these that
// no record consumed belongs to some other import.
var defaultMediaExtensions = []string{
	".aac", ".aif", ".aiff", ".alac", ".ape", ".dsf", ".flac", ".m4a",
	".mka", ".mp2", ".mp3", ".mpc", ".ogg", ".opus", ".wav", ".wma", ".wv",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Artifacts: Artifacts{
			Extensions:            []string{extensionWildcard},
			MediaExtensions:       append([]string(nil), defaultMediaExtensions...),
			DeleteOriginalsOnMove: defaultDeleteOnMove,
			RootPolicy:            defaultRootPolicy,
			PrintIgnored:          defaultPrintIgnored,
			Workers:               defaultWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
