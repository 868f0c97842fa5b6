// Command feck is a CLI wrapper around the feck erasure-coded redundancy
// codec: it digests, prepares, and repairs byte buffers against the
// "FECK" bundle format.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"feck"
)

// VERSION is populated via build flags when packaging official binaries.
var VERSION = "SELFBUILD"

func main() {
	if VERSION == "SELFBUILD" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	app := cli.NewApp()
	app.Name = "feck"
	app.Usage = "erasure-coded redundancy codec for byte buffers"
	app.Version = VERSION
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "seed-key",
			Value: "",
			Usage: "derive a private digest seed family from this passphrase instead of the default well-known seed",
		},
		cli.IntFlag{
			Name:  "v",
			Value: 0,
			Usage: "verbosity level: 0 silent, >0 diagnostic dump to stderr",
		},
		cli.StringFlag{
			Name:  "c",
			Value: "",
			Usage: "config from json file, which will override the command from shell",
		},
	}
	app.Commands = []cli.Command{
		digestCommand,
		prepareCommand,
		repairCommand,
	}
	app.Action = func(c *cli.Context) error {
		cli.ShowAppHelp(c)
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		checkError(err)
	}
}

// baseConfig builds a Config from the global ambient flags (seed key,
// verbosity); command-specific flags like k/m are layered on by the
// caller before the config file override is applied.
func baseConfig(c *cli.Context) Config {
	return Config{
		SeedKey:   c.GlobalString("seed-key"),
		Verbosity: c.GlobalInt("v"),
	}
}

// applyConfigFile overrides cfg in place from the --c config file, if one
// was given: flags set the defaults, and the config file overrides them.
func applyConfigFile(c *cli.Context, cfg *Config) error {
	path := c.GlobalString("c")
	if path == "" {
		return nil
	}
	if err := parseJSONConfig(cfg, path); err != nil {
		return errors.Wrap(err, "loading config file")
	}
	return nil
}

func (cfg Config) options() feck.Options {
	return feck.Options{
		Verbosity:   cfg.Verbosity,
		SeedKey:     cfg.SeedKey,
		Diagnostics: os.Stderr,
	}
}

var digestCommand = cli.Command{
	Name:      "digest",
	Usage:     "print the hex digest of a byte range of a file",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		cli.IntFlag{Name: "skip", Value: 0, Usage: "offset into the file to start hashing"},
		cli.IntFlag{Name: "len", Value: -1, Usage: "number of bytes to hash (default: to end of file)"},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.NewExitError("digest requires a file argument", 1)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}

		skip := c.Int("skip")
		length := c.Int("len")
		if length < 0 {
			length = len(data) - skip
		}

		cfg := baseConfig(c)
		if err := applyConfigFile(c, &cfg); err != nil {
			return err
		}
		fmt.Println(feck.DigestHexWithOptions(data, skip, length, cfg.options()))
		return nil
	},
}

var prepareCommand = cli.Command{
	Name:      "prepare",
	Usage:     "prepare a recovery bundle for a file",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		cli.IntFlag{Name: "k", Usage: "number of primary chunks (2 <= k < m)"},
		cli.IntFlag{Name: "m", Usage: "total chunk count (k < m <= 255)"},
		cli.StringFlag{Name: "out", Value: "", Usage: "output bundle path (default: <file>.feck)"},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.NewExitError("prepare requires a file argument", 1)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}

		cfg := baseConfig(c)
		cfg.K = c.Int("k")
		cfg.M = c.Int("m")
		if err := applyConfigFile(c, &cfg); err != nil {
			return err
		}

		b, err := feck.Prepare(data, cfg.K, cfg.M, cfg.options())
		if err != nil {
			return reportError(err)
		}

		out := c.String("out")
		if out == "" {
			out = path + ".feck"
		}
		if err := os.WriteFile(out, b.Bytes(), 0o644); err != nil {
			return errors.Wrapf(err, "writing bundle to %s", out)
		}
		log.Println("k:", b.K(), "m:", b.M(), "chunksize:", b.ChunkSize(), "bundle:", out)
		return nil
	},
}

var repairCommand = cli.Command{
	Name:      "repair",
	Usage:     "repair a file using a recovery bundle",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		cli.StringFlag{Name: "bundle", Usage: "path to the recovery bundle"},
		cli.StringFlag{Name: "out", Value: "", Usage: "output path (default: <file>.repaired)"},
	},
	Action: func(c *cli.Context) error {
		path := c.Args().First()
		if path == "" {
			return cli.NewExitError("repair requires a file argument", 1)
		}
		bundlePath := c.String("bundle")
		if bundlePath == "" {
			return cli.NewExitError("repair requires --bundle", 1)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", path)
		}
		bundleBytes, err := os.ReadFile(bundlePath)
		if err != nil {
			return errors.Wrapf(err, "reading %s", bundlePath)
		}
		b, err := feck.ParseBundle(bundleBytes)
		if err != nil {
			return reportError(err)
		}

		cfg := baseConfig(c)
		if err := applyConfigFile(c, &cfg); err != nil {
			return err
		}

		recovered, err := feck.Repair(data, b, cfg.options())
		if err != nil {
			return reportError(err)
		}

		out := c.String("out")
		if out == "" {
			out = path + ".repaired"
		}
		if err := os.WriteFile(out, recovered, 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", out)
		}
		log.Println("repaired:", out)
		return nil
	},
}

// reportError renders feck's Kind-tagged errors with a colored label.
func reportError(err error) error {
	if kind, ok := feck.ErrorKind(err); ok {
		color.Red("%s: %v", kind, err)
		return cli.NewExitError("", 1)
	}
	return err
}

func checkError(err error) {
	if err != nil {
		log.Printf("%+v\n", err)
		os.Exit(1)
	}
}
