package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const defaultConfigName = "framescan.toml"

// scanConfig holds file-supplied defaults for the scan flags. Flags given
// explicitly on the command line win over the file.
type scanConfig struct {
	Out    string `toml:"out"`
	Diag   string `toml:"diag"`
	Edges  string `toml:"edges"`
	Pretty bool   `toml:"pretty"`
	Limit  int    `toml:"limit"`
}

// loadScanConfig reads a TOML config file. A missing file at the default
// path is not an error; a missing file named explicitly is.
func loadScanConfig(path string, explicit bool) (scanConfig, error) {
	var cfg scanConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return scanConfig{}, nil
		}
		return scanConfig{}, fmt.Errorf("config %s: %w", path, err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return scanConfig{}, fmt.Errorf("config %s: unknown key %s", path, keys[0])
	}
	return cfg, nil
}

// setFlags returns the names of flags the user passed explicitly.
func setFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
