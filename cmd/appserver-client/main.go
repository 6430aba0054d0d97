// appserver-client is a minimal test client for the app-server: it spawns
// the server binary, performs the initialize handshake, and drives one of a
// few canned flows, logging the traffic as it goes.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yukaa358-a11y/codex/internal/appserver"
)

var serverBin string

var rootCmd = &cobra.Command{
	Use:           "appserver-client",
	Short:         "Bootstrap the app-server and exercise its JSON-RPC surface",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var sendMessageCmd = &cobra.Command{
	Use:   "send-message MESSAGE",
	Short: "Send a user message and stream the agent's reply",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendMessage(args[0])
	},
}

var testLoginCmd = &cobra.Command{
	Use:   "test-login",
	Short: "Trigger the ChatGPT login flow and wait for completion",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return testLogin()
	},
}

var rateLimitsCmd = &cobra.Command{
	Use:   "get-account-rate-limits",
	Short: "Fetch the current account rate limits",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return getAccountRateLimits()
	},
}

func init() {
	defaultBin := os.Getenv("APP_SERVER_BIN")
	if defaultBin == "" {
		defaultBin = "codex"
	}
	rootCmd.PersistentFlags().StringVar(&serverBin, "server-bin", defaultBin, "Path to the app-server binary (env: APP_SERVER_BIN)")
	rootCmd.AddCommand(sendMessageCmd)
	rootCmd.AddCommand(testLoginCmd)
	rootCmd.AddCommand(rateLimitsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func connect() (*appserver.Client, error) {
	client, err := appserver.Spawn(serverBin, "app-server")
	if err != nil {
		return nil, err
	}
	client.Trace = os.Stdout

	initialize, err := client.Initialize()
	if err != nil {
		client.Close()
		return nil, err
	}
	fmt.Printf("< initialize response: %+v\n", *initialize)
	return client, nil
}

func sendMessage(message string) error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	conversation, err := client.NewConversation()
	if err != nil {
		return err
	}
	fmt.Printf("< newConversation response: %+v\n", *conversation)

	subscription, err := client.AddConversationListener(conversation.ConversationID)
	if err != nil {
		return err
	}
	fmt.Printf("< addConversationListener response: %+v\n", *subscription)

	if err := client.SendUserMessage(conversation.ConversationID, message); err != nil {
		return err
	}

	if err := client.StreamConversation(conversation.ConversationID, os.Stdout); err != nil {
		return err
	}

	return client.RemoveConversationListener(subscription.SubscriptionID)
}

func testLogin() error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	login, err := client.LoginChatGpt()
	if err != nil {
		return err
	}
	fmt.Printf("Open the following URL in your browser to continue:\n%s\n", login.AuthURL)

	completion, err := client.WaitForLoginCompletion(login.LoginID)
	if err != nil {
		return err
	}
	if !completion.Success {
		reason := completion.Error
		if reason == "" {
			reason = "unknown error from loginChatGptComplete"
		}
		return errors.New("login failed: " + reason)
	}
	fmt.Println("Login succeeded.")
	return nil
}

func getAccountRateLimits() error {
	client, err := connect()
	if err != nil {
		return err
	}
	defer client.Close()

	limits, err := client.GetAccountRateLimits()
	if err != nil {
		return err
	}
	fmt.Printf("< account/rateLimits/read response: %s\n", limits.RateLimits)
	return nil
}
