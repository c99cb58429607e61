package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/raphaelgruber/boardroom/internal/api"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	startType      string
	startLocalized string
	startFlags     []string

	sendTo    []string
	sendMode  string
	sendFlags []string
	sendPlain bool

	showMessages bool
)

var startCmd = &cobra.Command{
	Use:   "start <topic>",
	Short: "Open a board conversation",
	Long: `Open a board conversation on a topic and print its id.

Flags stay on for every later turn: devils-advocate, board-challenges-founder,
pre-mortem.

Examples:
  boardroom start "Expanding shipping to Jeddah"
  boardroom start "Q3 pricing" --type meeting --flag pre-mortem
  boardroom start "Pricing" --localized "التسعير"`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

var sendCmd = &cobra.Command{
	Use:   "send <conversation-id> <message>",
	Short: "Put a message in front of the board",
	Long: `Send a founder message and wait for the board's replies.

Without --to the message is routed by topic; broad phrasing ("meeting",
"everyone", "اجتماع المجلس") reaches every active seat. In a terminal the
replies are shown as they land.

Examples:
  boardroom send c1 "ما هي تكلفة الشحن المتوقعة؟"
  boardroom send c1 "Can we afford two more engineers?" --to cfo,cto
  boardroom send c1 "Where should we be in five years?" --mode visionary
  boardroom send c1 "Poke holes in this plan" --flag devils-advocate`,
	Args: cobra.ExactArgs(2),
	RunE: runSend,
}

var endCmd = &cobra.Command{
	Use:   "end <conversation-id>",
	Short: "Summarize and close a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnd,
}

var showCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Show a conversation and its transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your conversations, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	startCmd.Flags().StringVarP(&startType, "type", "t", "question", "meeting, question, task_discussion, brainstorm or review")
	startCmd.Flags().StringVar(&startLocalized, "localized", "", "topic in your language")
	startCmd.Flags().StringSliceVarP(&startFlags, "flag", "f", nil, "conversation flags")

	sendCmd.Flags().StringSliceVar(&sendTo, "to", nil, "address seats by id or role (e.g. cfo,cto)")
	sendCmd.Flags().StringVarP(&sendMode, "mode", "m", "", "CEO mode: leader, strategist or visionary")
	sendCmd.Flags().StringSliceVarP(&sendFlags, "flag", "f", nil, "flags to add for the rest of the conversation")
	sendCmd.Flags().BoolVar(&sendPlain, "plain", false, "wait for the whole turn instead of streaming")

	showCmd.Flags().BoolVar(&showMessages, "messages", true, "include the transcript")
}

func runStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	req := api.StartRequest{
		InitiatorID: userID,
		Topic:       args[0],
		Type:        startType,
		Flags:       startFlags,
	}
	if startLocalized != "" {
		req.TopicLocalized = &startLocalized
	}

	conv, err := apiClient.StartConversation(ctx, req)
	if err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}

	fmt.Printf("Started conversation %s\n", conv.ID)
	fmt.Printf("  Topic: %s\n", conv.Topic)
	fmt.Printf("  Type:  %s\n", conv.Type)
	if len(conv.ActiveFlags) > 0 {
		fmt.Printf("  Flags: %v\n", conv.ActiveFlags)
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	req := api.SendRequest{
		AuthorID:         userID,
		Content:          args[1],
		TargetPersonaIDs: sendTo,
		CEOMode:          sendMode,
		NewFlags:         sendFlags,
	}

	if !sendPlain && term.IsTerminal(int(os.Stdout.Fd())) {
		return runLiveTurn(ctx, apiClient, args[0], req)
	}

	result, err := apiClient.SendMessage(ctx, args[0], req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	printTurn(os.Stdout, defaultTheme, result)
	return nil
}

func runEnd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	conv, err := apiClient.EndConversation(ctx, args[0])
	if err != nil {
		return fmt.Errorf("end conversation: %w", err)
	}

	fmt.Println(defaultTheme.completedStyle().Render("✓ Conversation " + conv.ID + " completed"))
	if conv.Summary != nil {
		fmt.Printf("\nSummary:\n%s\n", *conv.Summary)
	}
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	conv, err := apiClient.GetConversation(ctx, args[0], showMessages)
	if err != nil {
		return fmt.Errorf("get conversation: %w", err)
	}

	fmt.Printf("Conversation: %s\n", conv.ID)
	fmt.Printf("  Topic: %s\n", conv.Topic)
	if conv.TopicLocalized != nil {
		fmt.Printf("  Topic (localized): %s\n", *conv.TopicLocalized)
	}
	fmt.Printf("  Type: %s\n", conv.Type)
	fmt.Printf("  Status: %s\n", conv.Status)
	if conv.Initiator != nil && conv.Initiator.Name != "" {
		fmt.Printf("  Initiator: %s (%s)\n", conv.Initiator.Name, conv.InitiatorID)
	} else {
		fmt.Printf("  Initiator: %s\n", conv.InitiatorID)
	}
	if len(conv.ActiveFlags) > 0 {
		fmt.Printf("  Flags: %v\n", conv.ActiveFlags)
	}
	fmt.Printf("  Created: %s\n", conv.CreatedAt.Format("2006-01-02 15:04"))
	if conv.EndedAt != nil {
		fmt.Printf("  Ended: %s\n", conv.EndedAt.Format("2006-01-02 15:04"))
	}
	if conv.Summary != nil {
		fmt.Printf("\nSummary:\n%s\n", *conv.Summary)
	}

	if len(conv.Messages) > 0 {
		fmt.Println()
		for _, m := range conv.Messages {
			fmt.Println(defaultTheme.renderMessage(m))
		}
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	convs, err := apiClient.ListConversations(ctx, userID)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	if len(convs) == 0 {
		fmt.Println("No conversations found")
		return nil
	}

	fmt.Printf("%-38s %-16s %-10s %-17s %s\n", "ID", "TYPE", "STATUS", "CREATED", "TOPIC")
	fmt.Println("--------------------------------------------------------------------------------------------------")
	for _, c := range convs {
		fmt.Printf("%-38s %-16s %-10s %-17s %s\n",
			c.ID, c.Type, c.Status, c.CreatedAt.Format("2006-01-02 15:04"), c.Topic)
	}
	return nil
}
