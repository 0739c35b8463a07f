package main

import (
	"flag"
	"fmt"
	"os"
)

type AppFlags struct {
	SeedTargetsFile  string
	GlobalConfigFile string
	Mode             string
}

func ParseFlags() AppFlags {
	seedTargetsFile := flag.String("targets", "", "Path to a text file containing specification URLs to register, one per line.")
	seedTargetsFileAlias := flag.String("t", "", "Alias for -targets")

	globalConfigFile := flag.String("config", "", "Path to the global YAML/JSON configuration file. If not set, built-in defaults are used.")
	globalConfigFileAlias := flag.String("c", "", "Alias for -config")

	modeFlag := flag.String("mode", "", "Mode to run the tool: once or automated (overrides config file if set)")
	modeFlagAlias := flag.String("m", "", "Alias for -mode")

	flag.Parse()

	flags := AppFlags{}

	if *seedTargetsFile != "" {
		flags.SeedTargetsFile = *seedTargetsFile
	} else if *seedTargetsFileAlias != "" {
		flags.SeedTargetsFile = *seedTargetsFileAlias
	}

	if *globalConfigFile != "" {
		flags.GlobalConfigFile = *globalConfigFile
	} else if *globalConfigFileAlias != "" {
		flags.GlobalConfigFile = *globalConfigFileAlias
	}

	if *modeFlag != "" {
		flags.Mode = *modeFlag
	} else if *modeFlagAlias != "" {
		flags.Mode = *modeFlagAlias
	}

	if flags.Mode != "" && flags.Mode != "once" && flags.Mode != "automated" {
		fmt.Fprintf(os.Stderr, "[FATAL] invalid -mode %q (expected once or automated)\n", flags.Mode)
		os.Exit(1)
	}

	return flags
}
