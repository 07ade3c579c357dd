package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/casmproj/internal/dirs"
	"github.com/papapumpkin/casmproj/internal/telemetry"
)

var telemetryCmd = &cobra.Command{
	Use:   "telemetry",
	Short: "View the enumeration run log",
	Long: `Reads and formats the JSONL run log written by enumeration and basis set
commands when telemetry is enabled.

With --enum or --session, only matching events are shown. A session
prefix is enough.
With --follow (-f), watches the file for new events (like tail -f).`,
	Args: cobra.NoArgs,
	RunE: runTelemetry,
}

func init() {
	telemetryCmd.Flags().String("enum", "", "only show events for this enumeration")
	telemetryCmd.Flags().String("session", "", "only show events from this session (prefix)")
	telemetryCmd.Flags().BoolP("follow", "f", false, "follow the file for new events")
	rootCmd.AddCommand(telemetryCmd)
}

func runTelemetry(cmd *cobra.Command, _ []string) error {
	var filter eventFilter
	filter.enumID, _ = cmd.Flags().GetString("enum")
	filter.session, _ = cmd.Flags().GetString("session")
	follow, _ := cmd.Flags().GetBool("follow")

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	root, err := projectRoot(cfg)
	if err != nil {
		return err
	}
	path := dirs.New(root).EnumRunLog()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	if err := drainEvents(cmd.OutOrStdout(), reader, filter); err != nil {
		return fmt.Errorf("telemetry: read %s: %w", path, err)
	}
	if !follow {
		return nil
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	return tailFollow(ctx, cmd.OutOrStdout(), reader, path, filter)
}

// eventFilter selects events by enumeration and session. Empty fields match
// everything.
type eventFilter struct {
	enumID  string
	session string
}

func (f eventFilter) match(evt telemetry.Event) bool {
	if f.enumID != "" && evt.EnumID != f.enumID {
		return false
	}
	return strings.HasPrefix(evt.Session, f.session)
}

// drainEvents prints every complete line currently available from r.
func drainEvents(w io.Writer, r *bufio.Reader, filter eventFilter) error {
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			printEvent(w, line, filter)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// tailFollow watches the file for new data using fsnotify and prints new
// events until ctx is done.
func tailFollow(ctx context.Context, w io.Writer, r *bufio.Reader, path string, filter eventFilter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("telemetry: create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("telemetry: watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("telemetry: watch %s: %w", path, err)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == 0 {
				continue
			}
			if err := drainEvents(w, r, filter); err != nil {
				return fmt.Errorf("telemetry: read %s: %w", path, err)
			}
		}
	}
}

// printEvent decodes a JSONL line and prints a human-readable representation.
// Events the filter rejects are skipped.
func printEvent(w io.Writer, line string, filter eventFilter) {
	var evt telemetry.Event
	if err := json.Unmarshal([]byte(line), &evt); err != nil {
		fmt.Fprintf(w, "??? %s\n", line)
		return
	}
	if !filter.match(evt) {
		return
	}

	ts := evt.Timestamp.Format(time.TimeOnly)
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", ts))
	if evt.Session != "" {
		parts = append(parts, shortSession(evt.Session))
	}
	parts = append(parts, evt.Kind)

	if evt.EnumID != "" {
		parts = append(parts, fmt.Sprintf("enum=%s", evt.EnumID))
	}
	if evt.Step != nil {
		parts = append(parts, fmt.Sprintf("step=%d", *evt.Step))
	}
	if evt.DryRun {
		parts = append(parts, "dry_run")
	}
	if evt.Data != nil {
		if m, ok := evt.Data.(map[string]any); ok {
			parts = append(parts, formatDataMap(m))
		} else {
			data, _ := json.Marshal(evt.Data)
			parts = append(parts, string(data))
		}
	}

	fmt.Fprintln(w, strings.Join(parts, " "))
}

// shortSession returns the first block of a session id.
func shortSession(s string) string {
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

// formatDataMap formats a data map as key=value pairs sorted by key.
func formatDataMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", k, m[k])
	}
	return b.String()
}
