package cli

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
}

// ApplicationCommonConfiguration stores logging and execution defaults shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel       string `mapstructure:"log_level"`
	LogFormat      string `mapstructure:"log_format"`
	Manifest       string `mapstructure:"manifest"`
	Shell          string `mapstructure:"shell"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Parallel       bool   `mapstructure:"parallel"`
	Jobs           int    `mapstructure:"jobs"`
}

func defaultApplicationConfiguration() ApplicationConfiguration {
	return ApplicationConfiguration{
		Common: ApplicationCommonConfiguration{
			LogLevel:  defaultLogLevelConstant,
			LogFormat: defaultLogFormatConstant,
			Manifest:  defaultManifestPathConstant,
			Shell:     defaultShellPathConstant,
		},
	}
}
