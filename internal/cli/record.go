package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/recvault/recvault/internal/session"
	"github.com/recvault/recvault/pkg/model"
	"github.com/recvault/recvault/pkg/recvault"
)

var (
	recordSessionID string
	recordCohortID  string
	recordWeek      int
	recordDay       int
	recordNum       int
	recordRetention int
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an interactive session",
	Long: `Record an interactive session.

Starts a recording and reads line-oriented commands from standard input
until "stop", EOF, or an interrupt. On completion the folder is sealed
with an integrity manifest.

Commands:
  chunk <data>                        append media bytes
  pause                               pause the recording
  resume                              resume a paused recording
  status                              print recorder state as JSON
  marker <label>                      stamp a marker at the current offset
  chat <sender> <message>             log a chat message
  consent <participant-id> ack|decline [name]
                                      record a consent response
  attendance start|end [<json>]       write an attendance snapshot
  stop                                finalize and seal the recording

Example:
  recvault record --session s42 --week 3 --num 7 < commands.txt`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		opts := session.StartOptions{
			SessionID:     recordSessionID,
			CohortID:      recordCohortID,
			WeekNumber:    recordWeek,
			DayNumber:     recordDay,
			SessionNumber: recordNum,
			RetentionDays: recordRetention,
		}

		meta, err := c.StartRecording(opts)
		if err != nil {
			fmtErr("start: %v", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "recording %s\n", meta.SessionID)

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

		done := make(chan error, 1)
		go func() {
			done <- runRecordLoop(c, os.Stdin, os.Stdout)
		}()

		select {
		case s := <-sig:
			fmt.Fprintf(os.Stderr, "received %s, finalizing\n", s)
		case err := <-done:
			if err != nil {
				fmtErr("record: %v", err)
			}
		}

		path, err := c.StopRecording()
		if err != nil {
			fmtErr("stop: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			det, derr := c.RecordingDetails(filepath.Base(path))
			if derr == nil {
				outputJSON(det)
				return
			}
		}
		fmt.Printf("sealed %s\n", path)
	},
}

// runRecordLoop drives the active session with line-oriented commands read
// from in. Recoverable errors (state violations, bad arguments) are reported
// to out and the loop continues; it returns on "stop" or EOF. Stopping the
// session is left to the caller.
func runRecordLoop(c *recvault.Client, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		verb, rest := splitVerb(line)
		if verb == "stop" {
			return nil
		}
		if err := dispatchRecordCommand(c, verb, rest, out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func dispatchRecordCommand(c *recvault.Client, verb, rest string, out io.Writer) error {
	switch verb {
	case "chunk":
		return c.SaveChunk([]byte(rest))

	case "pause":
		return c.PauseRecording()

	case "resume":
		return c.ResumeRecording()

	case "status":
		data, err := json.Marshal(c.Status())
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil

	case "marker":
		if rest == "" {
			return fmt.Errorf("marker: label required")
		}
		mk, err := c.AddMarker(rest, "cli")
		if err != nil {
			return err
		}
		if mk != nil {
			fmt.Fprintf(out, "marker %s at %.1fs\n", mk.ID, mk.Offset)
		}
		return nil

	case "chat":
		sender, msg := splitVerb(rest)
		if sender == "" || msg == "" {
			return fmt.Errorf("chat: usage: chat <sender> <message>")
		}
		return c.AddChatMessage(model.ChatMessage{Sender: sender, Message: msg})

	case "consent":
		participant, tail := splitVerb(rest)
		answer, name := splitVerb(tail)
		if participant == "" || (answer != "ack" && answer != "decline") {
			return fmt.Errorf("consent: usage: consent <participant-id> ack|decline [name]")
		}
		return c.RecordConsent(model.ConsentRecord{
			ParticipantID:   participant,
			ParticipantName: name,
			Acknowledged:    answer == "ack",
		})

	case "attendance":
		kind, payload := splitVerb(rest)
		if kind != string(model.AttendanceStart) && kind != string(model.AttendanceEnd) {
			return fmt.Errorf("attendance: usage: attendance start|end [<json>]")
		}
		var data any = struct{}{}
		if payload != "" {
			if !json.Valid([]byte(payload)) {
				return fmt.Errorf("attendance: payload must be valid JSON")
			}
			data = json.RawMessage(payload)
		}
		return c.RecordAttendanceSnapshot(model.AttendanceKind(kind), data)

	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}

// splitVerb splits a command line into its first word and the remainder.
func splitVerb(line string) (string, string) {
	line = strings.TrimSpace(line)
	if i := strings.IndexByte(line, ' '); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}

func init() {
	recordCmd.Flags().StringVar(&recordSessionID, "session", "", "session identifier")
	recordCmd.Flags().StringVar(&recordCohortID, "cohort", "", "cohort identifier")
	recordCmd.Flags().IntVar(&recordWeek, "week", 0, "week number")
	recordCmd.Flags().IntVar(&recordDay, "day", 0, "day number")
	recordCmd.Flags().IntVar(&recordNum, "num", 0, "session number")
	recordCmd.Flags().IntVar(&recordRetention, "retention-days", 0, "retention override in days")
	rootCmd.AddCommand(recordCmd)
}
