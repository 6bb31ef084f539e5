package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/netbios-go/nbtresolve/internal/app"
	"github.com/netbios-go/nbtresolve/internal/config"
	"github.com/netbios-go/nbtresolve/internal/nberrors"
	"github.com/netbios-go/nbtresolve/internal/netbios"
	"github.com/netbios-go/nbtresolve/internal/obs"
)

// newApp loads configuration, installs the global logger, and wires a
// resolver.Resolver from the result, the way every subcommand's RunE
// starts.
func newApp() (*app.App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if _, err := obs.InitLogger(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("wiring resolver: %w", err)
	}
	return a, nil
}

// parseName splits a "LABEL" or "LABEL#xx" CLI argument into a
// netbios.Name, defaulting to the workstation suffix (0x00) when no
// #suffix is given.
func parseName(raw string) (netbios.Name, error) {
	label, suffixStr, hasSuffix := strings.Cut(raw, "#")
	if !hasSuffix {
		return netbios.Name{Label: label, Suffix: netbios.SuffixWorkstation}, nil
	}

	suffix, err := strconv.ParseUint(suffixStr, 16, 8)
	if err != nil {
		return netbios.Name{}, nberrors.Wrap(nberrors.InvalidParameter, "parseName", err)
	}
	return netbios.Name{Label: label, Suffix: byte(suffix)}, nil
}
