package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"finmind/internal/assistant"
)

func newAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [question]",
		Short: "Chat with the finance assistant",
		Long: "With a question, prints the assistant's reply. Without one, starts " +
			"an interactive session that ends on EOF, \"exit\" or \"quit\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			conv := assistant.NewConversation(assistant.NewResponder(nil))
			if len(args) > 0 {
				reply, err := conv.Send(strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), reply.Content)
				return nil
			}
			return chatLoop(cmd.InOrStdin(), cmd.OutOrStdout(), conv)
		},
	}
}

func chatLoop(in io.Reader, out io.Writer, conv *assistant.Conversation) error {
	fmt.Fprintf(out, "FinMind: %s\n", conv.Messages()[0].Content)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := scanner.Text()
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "exit", "quit":
			return nil
		}
		reply, err := conv.Send(line)
		if errors.Is(err, assistant.ErrEmptyMessage) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "FinMind: %s\n", reply.Content)
	}
}
