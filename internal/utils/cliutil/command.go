package cliutil

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CommandConfig describes a leaf command of the CLI.
type CommandConfig struct {
	Use     string
	Short   string
	Long    string
	Example string
	Args    cobra.PositionalArgs

	RunFunc func(cmd *cobra.Command, args []string) error

	Flags map[string]Flag
}

// Flag represents a command line flag
type Flag struct {
	Type        FlagType
	Shorthand   string
	Description string
	Required    bool

	DefaultString   string
	DefaultInt      int
	DefaultBool     bool
	DefaultDuration time.Duration
}

type FlagType int

const (
	FlagTypeString FlagType = iota
	FlagTypeInt
	FlagTypeBool
	FlagTypeDuration
)

// CreateCommand creates a new cobra command with the given configuration
func CreateCommand(config CommandConfig, log zerolog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:          config.Use,
		Short:        config.Short,
		Long:         config.Long,
		Example:      config.Example,
		Args:         config.Args,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.RunFunc != nil {
				return config.RunFunc(cmd, args)
			}
			return cmd.Help()
		},
	}

	for name, flag := range config.Flags {
		switch flag.Type {
		case FlagTypeString:
			cmd.Flags().StringP(name, flag.Shorthand, flag.DefaultString, flag.Description)
		case FlagTypeInt:
			cmd.Flags().IntP(name, flag.Shorthand, flag.DefaultInt, flag.Description)
		case FlagTypeBool:
			cmd.Flags().BoolP(name, flag.Shorthand, flag.DefaultBool, flag.Description)
		case FlagTypeDuration:
			cmd.Flags().DurationP(name, flag.Shorthand, flag.DefaultDuration, flag.Description)
		}

		if flag.Required {
			if err := cmd.MarkFlagRequired(name); err != nil {
				log.Error().Err(err).Str("flag", name).Msg("Failed to mark flag as required")
			}
		}
	}

	return cmd
}

// CreateGroup creates a parent command holding subcommands.
func CreateGroup(use, short string, children ...*cobra.Command) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
	}
	cmd.AddCommand(children...)
	return cmd
}
