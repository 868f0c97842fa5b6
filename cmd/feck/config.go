package main

import (
	"encoding/json"
	"os"
)

// Config is populated from CLI flags, then optionally overridden in place
// by a JSON file via parseJSONConfig: "-c config.json" overrides whatever
// was set on the command line.
type Config struct {
	K         int    `json:"k"`
	M         int    `json:"m"`
	SeedKey   string `json:"seed_key"`
	Verbosity int    `json:"verbosity"`
}

func parseJSONConfig(config *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(config)
}
