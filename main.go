// Command session-harness provisions an ephemeral integration-test architecture (SQS
// inbox, EventBridge rule, queue target) from a session configuration file, optionally
// fires an event through it and prints what arrived, and tears everything down again.
// It exists to smoke-test a configuration and an AWS credential setup before wiring the
// harness into a test suite.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"github.com/eventbridge-contrib/session-harness/awsbackend"
	"github.com/eventbridge-contrib/session-harness/framework"
	"github.com/eventbridge-contrib/session-harness/framework/helpers"
	"github.com/eventbridge-contrib/session-harness/harness"
)

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	if err := run(params); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

func run(params commandParams) error {
	config, err := harness.LoadSessionConfigFile(params.configFile)
	if err != nil {
		return err
	}
	if params.region != "" {
		config.Region = params.region
	}

	debugLogger := framework.NullLogger()
	if params.debug {
		debugLogger = framework.WriterLogger(os.Stdout)
	}

	// Interrupting mid-run cancels in-flight AWS calls; teardown below runs on a fresh
	// context so a Ctrl-C does not leak the architecture.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	backends, err := awsbackend.LoadDefaultBackends(ctx, config.Region)
	if err != nil {
		return err
	}

	options := []harness.ClientOption{harness.WithLogger(debugLogger)}
	if params.ruleTimeout > 0 {
		options = append(options, harness.WithRuleReadyTimeout(params.ruleTimeout))
	}
	client, err := harness.NewClient(config,
		backends.Messaging, backends.Routing, backends.Identity, options...)
	if err != nil {
		return err
	}

	identity := client.Identity()
	fmt.Printf("Provisioning test architecture for service %q (session %s)\n",
		config.ServiceName, identity.Token)
	if err := client.CreateTestArchitecture(ctx); err != nil {
		return err
	}
	color.Green("Architecture is live: queue %q, rule %q on bus %q",
		identity.QueueName, identity.RuleName, config.BusName)

	runErr := fireAndCollect(ctx, client, params)

	fmt.Println("Destroying test architecture")
	if err := client.DestroyTestArchitecture(context.Background()); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			fmt.Fprintln(os.Stderr, color.RedString("Teardown failed: %v", err))
		}
	} else {
		color.Green("Architecture destroyed")
	}
	return runErr
}

func fireAndCollect(ctx context.Context, client *harness.Client, params commandParams) error {
	if params.eventFile == "" {
		return nil
	}

	payload, err := os.ReadFile(params.eventFile)
	if err != nil {
		return fmt.Errorf("failed to read event file: %w", err)
	}
	if !json.Valid(payload) {
		return fmt.Errorf("event file %q does not contain valid JSON", params.eventFile)
	}

	fmt.Printf("Firing event with detail type %q\n", params.detailType)
	if err := client.FireEvent(ctx, json.RawMessage(payload), params.detailType); err != nil {
		return err
	}

	messages, err := client.GetMessagesFromSQS(ctx, params.waitTimeSeconds, params.attempts)
	if err != nil {
		return err
	}
	color.Green("Received %d message(s)", len(messages))
	for _, message := range messages {
		fmt.Println(helpers.CanonicalizedJSONString(message))
	}
	return nil
}
