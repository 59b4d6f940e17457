// Package cli wires the taskmill command-line application together.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tyemirov/taskmill/internal/engine"
	"github.com/tyemirov/taskmill/internal/utils"
	"github.com/tyemirov/taskmill/internal/version"
)

const (
	applicationNameConstant             = "taskmill"
	applicationShortDescriptionConstant = "Dependency-ordered task executor"
	applicationLongDescriptionConstant  = "taskmill resolves a named target's dependency graph into a linear plan, binds parameter overrides into each command, and executes the plan fail-fast as external processes."
	applicationUsageTemplateConstant    = applicationNameConstant + " [target] [name=value ...]"

	configFileFlagNameConstant  = "config"
	configFileFlagUsageConstant = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant    = "log-level"
	logLevelFlagUsageConstant   = "Override the configured log level."
	logFormatFlagNameConstant   = "log-format"
	logFormatFlagUsageConstant  = "Override the configured log format (structured or console)."
	manifestFlagNameConstant    = "manifest"
	manifestFlagUsageConstant   = "Path to the target manifest file."
	timeoutFlagNameConstant     = "timeout"
	timeoutFlagUsageConstant    = "Optional wall-clock budget for the whole run (0 disables it)."
	parallelFlagNameConstant    = "parallel"
	parallelFlagUsageConstant   = "Execute independent graph branches concurrently."
	jobsFlagNameConstant        = "jobs"
	jobsFlagUsageConstant       = "Upper bound on concurrently running targets in parallel mode."

	commonLogLevelConfigKeyConstant       = "common.log_level"
	commonLogFormatConfigKeyConstant      = "common.log_format"
	commonManifestConfigKeyConstant       = "common.manifest"
	commonShellConfigKeyConstant          = "common.shell"
	commonTimeoutSecondsConfigKeyConstant = "common.timeout_seconds"
	commonParallelConfigKeyConstant       = "common.parallel"
	commonJobsConfigKeyConstant           = "common.jobs"

	environmentPrefixConstant                = "TASKMILL"
	configurationNameConstant                = "config"
	configurationTypeConstant                = "yaml"
	defaultConfigurationSearchPathConstant   = "."
	environmentKeyReplacerSourceConstant     = "."
	environmentKeyReplacerTargetConstant     = "_"
	configurationLoadErrorTemplateConstant   = "unable to load configuration: %w"
	configurationDecodeErrorTemplateConstant = "unable to decode configuration: %w"
	loggerCreationErrorTemplateConstant      = "unable to create logger: %w"

	defaultLogLevelConstant     = string(utils.LogLevelInfo)
	defaultLogFormatConstant    = string(utils.LogFormatConsole)
	defaultManifestPathConstant = "taskmill.yaml"
	defaultShellPathConstant    = "/bin/sh"
)

// Application aggregates the root command with its configuration and collaborators.
type Application struct {
	rootCommand   *cobra.Command
	loggerFactory utils.LoggerFactory
	configuration ApplicationConfiguration
	logger        *zap.Logger
	consoleLogger *zap.Logger
	processRunner engine.ProcessRunner

	configFileFlagValue string
	logLevelFlagValue   string
	logFormatFlagValue  string
	manifestFlagValue   string
	timeoutFlagValue    time.Duration
	parallelFlagValue   bool
	jobsFlagValue       int
	resolvedTimeout     time.Duration
}

// NewApplication constructs the CLI application with its command tree.
func NewApplication() *Application {
	application := &Application{
		loggerFactory: utils.NewLoggerFactory(),
		configuration: defaultApplicationConfiguration(),
		logger:        zap.NewNop(),
		consoleLogger: zap.NewNop(),
	}
	application.rootCommand = application.buildRootCommand()
	return application
}

// Execute builds a fresh application and runs it.
func Execute() error {
	return NewApplication().Execute()
}

// Execute runs the application command tree. An interrupt or termination
// signal cancels the execution context, which aborts the currently running
// process and lets fail-fast skip logic cover the remainder of the plan.
func (application *Application) Execute() error {
	executionContext, stopSignalNotifications := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignalNotifications()
	return application.rootCommand.ExecuteContext(executionContext)
}

// RootCommand exposes the assembled root command.
func (application *Application) RootCommand() *cobra.Command {
	return application.rootCommand
}

// SetProcessRunner overrides the process launch capability, primarily for tests.
func (application *Application) SetProcessRunner(processRunner engine.ProcessRunner) {
	application.processRunner = processRunner
}

func (application *Application) buildRootCommand() *cobra.Command {
	rootCommand := &cobra.Command{
		Use:               applicationUsageTemplateConstant,
		Short:             applicationShortDescriptionConstant,
		Long:              applicationLongDescriptionConstant,
		Args:              cobra.ArbitraryArgs,
		PersistentPreRunE: application.initializeConfiguration,
		RunE:              application.runTargets,
		Version:           version.NewDetector(nil).Detect(),
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	application.registerPersistentFlags(rootCommand.PersistentFlags())

	rootCommand.AddCommand(application.buildRunCommand())
	rootCommand.AddCommand(application.buildPlanCommand())
	rootCommand.AddCommand(application.buildTargetsCommand())

	return rootCommand
}

func (application *Application) registerPersistentFlags(persistentFlags *pflag.FlagSet) {
	persistentFlags.StringVar(&application.configFileFlagValue, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	persistentFlags.StringVar(&application.manifestFlagValue, manifestFlagNameConstant, "", manifestFlagUsageConstant)
	persistentFlags.DurationVar(&application.timeoutFlagValue, timeoutFlagNameConstant, 0, timeoutFlagUsageConstant)
	persistentFlags.BoolVar(&application.parallelFlagValue, parallelFlagNameConstant, false, parallelFlagUsageConstant)
	persistentFlags.IntVar(&application.jobsFlagValue, jobsFlagNameConstant, 0, jobsFlagUsageConstant)
}

func (application *Application) initializeConfiguration(command *cobra.Command, arguments []string) error {
	configurationReader := viper.New()
	configurationReader.SetConfigName(configurationNameConstant)
	configurationReader.SetConfigType(configurationTypeConstant)
	configurationReader.AddConfigPath(defaultConfigurationSearchPathConstant)
	configurationReader.SetEnvPrefix(environmentPrefixConstant)
	configurationReader.SetEnvKeyReplacer(strings.NewReplacer(environmentKeyReplacerSourceConstant, environmentKeyReplacerTargetConstant))
	configurationReader.AutomaticEnv()

	configurationReader.SetDefault(commonLogLevelConfigKeyConstant, defaultLogLevelConstant)
	configurationReader.SetDefault(commonLogFormatConfigKeyConstant, defaultLogFormatConstant)
	configurationReader.SetDefault(commonManifestConfigKeyConstant, defaultManifestPathConstant)
	configurationReader.SetDefault(commonShellConfigKeyConstant, defaultShellPathConstant)
	configurationReader.SetDefault(commonTimeoutSecondsConfigKeyConstant, 0)
	configurationReader.SetDefault(commonParallelConfigKeyConstant, false)
	configurationReader.SetDefault(commonJobsConfigKeyConstant, 0)

	if len(strings.TrimSpace(application.configFileFlagValue)) > 0 {
		configurationReader.SetConfigFile(application.configFileFlagValue)
		if readError := configurationReader.ReadInConfig(); readError != nil {
			return fmt.Errorf(configurationLoadErrorTemplateConstant, readError)
		}
	} else if readError := configurationReader.ReadInConfig(); readError != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(readError, &configFileNotFound) {
			return fmt.Errorf(configurationLoadErrorTemplateConstant, readError)
		}
	}

	application.configuration = defaultApplicationConfiguration()
	if decodeError := configurationReader.Unmarshal(&application.configuration, func(decoderConfiguration *mapstructure.DecoderConfig) {
		decoderConfiguration.ErrorUnused = false
	}); decodeError != nil {
		return fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}

	application.applyFlagOverrides(command)

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger
	return nil
}

func (application *Application) applyFlagOverrides(command *cobra.Command) {
	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}
	if application.persistentFlagChanged(command, manifestFlagNameConstant) {
		application.configuration.Common.Manifest = application.manifestFlagValue
	}
	application.resolvedTimeout = time.Duration(application.configuration.Common.TimeoutSeconds) * time.Second
	if application.persistentFlagChanged(command, timeoutFlagNameConstant) {
		application.resolvedTimeout = application.timeoutFlagValue
	}
	if application.persistentFlagChanged(command, parallelFlagNameConstant) {
		application.configuration.Common.Parallel = application.parallelFlagValue
	}
	if application.persistentFlagChanged(command, jobsFlagNameConstant) {
		application.configuration.Common.Jobs = application.jobsFlagValue
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	flagInstance := command.Flags().Lookup(flagName)
	if flagInstance == nil {
		flagInstance = application.rootCommand.PersistentFlags().Lookup(flagName)
	}
	return flagInstance != nil && flagInstance.Changed
}

func (application *Application) resolveProcessRunner() engine.ProcessRunner {
	if application.processRunner != nil {
		return application.processRunner
	}
	return engine.NewShellProcessRunner(application.configuration.Common.Shell)
}

func (application *Application) runTimeout() time.Duration {
	if application.resolvedTimeout <= 0 {
		return 0
	}
	return application.resolvedTimeout
}
