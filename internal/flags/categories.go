package flags

import "github.com/urfave/cli/v2"

const (
	ChainCategory   = "CHAIN"
	DevCategory     = "DEVELOPER CHAIN"
	PerfCategory    = "PERFORMANCE TUNING"
	APICategory     = "API AND CONSOLE"
	IndexCategory   = "EVENT INDEX"
	LoggingCategory = "LOGGING AND DEBUGGING"
	MiscCategory    = "MISC"
)

func init() {
	cli.HelpFlag.(*cli.BoolFlag).Category = MiscCategory
	cli.VersionFlag.(*cli.BoolFlag).Category = MiscCategory
}
