package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petal-labs/wit/core"
	"github.com/petal-labs/wit/session"
)

// audioTypes maps file extensions to the content types /speech accepts.
var audioTypes = map[string]string{
	".wav":  "audio/wav",
	".mp3":  "audio/mpeg3",
	".ogg":  "audio/ogg",
	".ulaw": "audio/ulaw",
	".raw":  "audio/raw",
}

func (a *App) newMessageCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Understand text and speech",
	}
	cmd.AddCommand(a.newMessageSendCommand())
	cmd.AddCommand(a.newMessageSpeechCommand())
	cmd.AddCommand(a.newMessageGetCommand())
	return cmd
}

func (a *App) newMessageSendCommand() *cobra.Command {
	var (
		msgID    string
		threadID string
		msgCtx   string
		outcomes int
	)

	cmd := &cobra.Command{
		Use:   "send <text>...",
		Short: "Send a text message to be understood",
		Long: `Send a text message to be understood.

Example:
  wit message send "turn the lights red"
  wit message send --context '{"timezone":"Europe/Paris"}' set an alarm for 7am`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")

			var opts []session.MessageOption
			if msgID != "" {
				opts = append(opts, session.WithMsgID(msgID))
			}
			if threadID != "" {
				opts = append(opts, session.WithThreadID(threadID))
			}
			if msgCtx != "" {
				if !json.Valid([]byte(msgCtx)) {
					return a.handleError(fmt.Errorf("%w: --context must be a JSON object", core.ErrConfig))
				}
				opts = append(opts, session.WithMessageContext(json.RawMessage(msgCtx)))
			}
			if outcomes > 0 {
				opts = append(opts, session.WithMaxOutcomes(outcomes))
			}

			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.SendMessage(cmd.Context(), text, opts...)
			})
		},
	}

	cmd.Flags().StringVar(&msgID, "msg-id", "", "id to store the message under")
	cmd.Flags().StringVar(&threadID, "thread-id", "", "conversation thread id")
	cmd.Flags().StringVar(&msgCtx, "context", "", "context object as JSON")
	cmd.Flags().IntVarP(&outcomes, "outcomes", "n", 0, "maximum number of outcomes")
	return cmd
}

func (a *App) newMessageSpeechCommand() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "speech <file>",
		Short: "Send recorded speech to be understood",
		Long: `Send recorded speech to be understood. Use - to read from stdin.

The content type is guessed from the file extension (.wav, .mp3, .ogg,
.ulaw, .raw) unless --content-type is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var r io.Reader
			if path == "-" {
				r = a.stdin
			} else {
				f, err := os.Open(path)
				if err != nil {
					return a.handleError(fmt.Errorf("%w: %v", core.ErrConfig, err))
				}
				defer f.Close()
				r = f
			}

			ct := contentType
			if ct == "" {
				ct = audioTypes[strings.ToLower(filepath.Ext(path))]
			}

			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.SendSoundMessage(cmd.Context(), r, ct)
			})
		},
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "audio MIME type (default: from extension, else audio/wav)")
	return cmd
}

func (a *App) newMessageGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a stored message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(func(s *session.Session) (*core.Result, error) {
				return s.GetMessage(cmd.Context(), args[0])
			})
		},
	}
}
