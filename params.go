package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

type commandParams struct {
	configFile      string
	region          string
	eventFile       string
	detailType      string
	waitTimeSeconds int
	attempts        int
	ruleTimeout     time.Duration
	debug           bool
}

func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	fs.StringVar(&c.configFile, "config", "", "session configuration file (JSON or YAML)")
	fs.StringVar(&c.region, "region", "", "override the region from the configuration file")
	fs.StringVar(&c.eventFile, "event", "", "JSON file with an event payload to fire through the architecture")
	fs.StringVar(&c.detailType, "detail-type", "Smoke Test", "detail type for the fired event")
	fs.IntVar(&c.waitTimeSeconds, "wait", 0, "seconds to long-poll per receive attempt (0 = default)")
	fs.IntVar(&c.attempts, "attempts", 0, "number of receive attempts (0 = default)")
	fs.DurationVar(&c.ruleTimeout, "rule-timeout", 0, "how long to wait for the rule to become live (0 = default)")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if c.configFile == "" {
		fmt.Fprintln(os.Stderr, "-config is required")
		fs.Usage()
		return false
	}
	return true
}
