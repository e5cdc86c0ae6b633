package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"epi-ca/internal/core"
	"epi-ca/internal/engine"
	"epi-ca/internal/epidemic"
	"epi-ca/internal/logging"
)

// cli carries the state shared by every command.
type cli struct {
	v   *viper.Viper
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}
	root := &cobra.Command{
		Use:           "epi",
		Short:         "Distributed epidemic cellular automaton on a toroidal grid",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
	}

	defaults := epidemic.DefaultConfig()
	pf := root.PersistentFlags()
	pf.String("config", "", "YAML file with simulation settings")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text or json)")
	pf.Int("threads", 1, "kernel threads per rank")
	pf.Int("rows", defaults.Rows, "grid rows")
	pf.Int("cols", defaults.Cols, "grid columns")
	pf.Int("steps", defaults.Steps, "steps to simulate")
	pf.Int64("seed", defaults.Seed, "random seed")
	pf.String("seed-mode", string(defaults.SeedMode), "random streams: cell (independent of worker count) or rank")
	for key, flag := range map[string]string{
		"config":     "config",
		"log-level":  "log-level",
		"log-format": "log-format",
		"threads":    "threads",
		"rows":       "rows",
		"cols":       "cols",
		"steps":      "steps",
		"seed":       "seed",
		"seed_mode":  "seed-mode",
	} {
		if err := c.v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	root.AddCommand(c.runCmd(), c.serveCmd(), c.workCmd(), c.sweepCmd(), c.configCmd())
	return root
}

// setup loads the config file and environment, then builds the logger.
func (c *cli) setup() error {
	setDefaults(c.v)
	c.v.SetEnvPrefix("EPI")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()
	if path := c.v.GetString("config"); path != "" {
		c.v.SetConfigFile(path)
		c.v.SetConfigType("yaml")
		if err := c.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}
	log, err := logging.New(os.Stderr, c.v.GetString("log-level"), c.v.GetString("log-format"))
	if err != nil {
		return err
	}
	c.log = log
	return nil
}

// bindLocal exposes a command's own flags through viper under their names,
// so EPI_* variables and the config file can set them too. Binding happens
// when the command runs because several commands share flag names.
func (c *cli) bindLocal(cmd *cobra.Command, _ []string) error {
	return c.v.BindPFlags(cmd.LocalNonPersistentFlags())
}

// simulation reads the effective configuration.
func (c *cli) simulation() epidemic.Config {
	return loadConfig(c.v)
}

func (c *cli) options() engine.Options {
	return engine.Options{Threads: c.v.GetInt("threads"), Log: c.log}
}

// viperKey maps a parameter key to its place in the YAML layout of
// epidemic.Config: world settings at the top, rule constants under params.
func viperKey(p core.Parameter, world bool) string {
	if world {
		return p.Key
	}
	return "params." + p.Key
}

func eachParameter(fn func(p core.Parameter, key string)) {
	for _, g := range epidemic.DefaultConfig().Parameters().Groups {
		for _, p := range g.Params {
			fn(p, viperKey(p, g.Name == "World"))
		}
	}
}

func setDefaults(v *viper.Viper) {
	eachParameter(func(p core.Parameter, key string) {
		v.SetDefault(key, p.Value)
	})
}

// loadConfig resolves every setting through viper (flag, env, file, default)
// and hands the result to epidemic.FromMap.
func loadConfig(v *viper.Viper) epidemic.Config {
	m := map[string]string{}
	eachParameter(func(p core.Parameter, key string) {
		m[p.Key] = v.GetString(key)
	})
	return epidemic.FromMap(m)
}
