package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
	"github.com/spf13/cobra"
	"github.com/skeinhq/skein/internal/backend"
	"github.com/skeinhq/skein/internal/storage"
)

var listWorktree string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored session records",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored sessions",
	Long: `Lists every session in the record store, one row per session, without
loading transcripts. Use --worktree to limit the listing to one worktree.`,
	RunE: runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show SESSION_ID",
	Short: "Show one session's record and transcript",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func init() {
	sessionsListCmd.Flags().StringVar(&listWorktree, "worktree", "", "Only list sessions of this worktree")
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	records, err := openRecords()
	if err != nil {
		return err
	}

	metas, err := loadAllMetadata(records)
	if err != nil {
		return err
	}
	if listWorktree != "" {
		kept := metas[:0]
		for _, m := range metas {
			if m.WorktreeID == listWorktree {
				kept = append(kept, m)
			}
		}
		metas = kept
	}

	if len(metas) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}
	fmt.Print(renderSessionTable(metas))
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	records, err := openRecords()
	if err != nil {
		return err
	}

	meta, err := records.LoadSessionMetadata(args[0])
	if err != nil {
		return fmt.Errorf("error loading session: %w", err)
	}
	if meta == nil {
		return fmt.Errorf("session %s not found", args[0])
	}
	fmt.Print(renderSessionDetail(meta))
	return nil
}

// loadAllMetadata scans the data directory and loads each session's record.
// Unreadable records are skipped with a warning rather than failing the
// whole listing.
func loadAllMetadata(records *storage.Store) ([]*storage.SessionMetadata, error) {
	ids, err := records.ListSessionIDs()
	if err != nil {
		return nil, fmt.Errorf("error scanning session data: %w", err)
	}

	metas := make([]*storage.SessionMetadata, 0, len(ids))
	for _, id := range ids {
		meta, err := records.LoadSessionMetadata(id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: skipping unreadable session %s: %v\n", id, err)
			continue
		}
		if meta != nil {
			metas = append(metas, meta)
		}
	}
	sortMetadata(metas)
	return metas, nil
}

// sortMetadata orders rows by worktree, then session order, then name.
func sortMetadata(metas []*storage.SessionMetadata) {
	sort.Slice(metas, func(i, j int) bool {
		if metas[i].WorktreeID != metas[j].WorktreeID {
			return metas[i].WorktreeID < metas[j].WorktreeID
		}
		if metas[i].Order != metas[j].Order {
			return metas[i].Order < metas[j].Order
		}
		return metas[i].Name < metas[j].Name
	})
}

const (
	colName     = 28
	colWorktree = 20
	colMsgs     = 5
	colStatus   = 9
)

func renderSessionTable(metas []*storage.SessionMetadata) string {
	var b strings.Builder
	b.WriteString(padCell("NAME", colName))
	b.WriteString(padCell("WORKTREE", colWorktree))
	b.WriteString(padCell("MSGS", colMsgs))
	b.WriteString(padCell("STATUS", colStatus))
	b.WriteString("ID\n")

	for _, meta := range metas {
		status := ""
		if meta.Archived() {
			status = "archived"
		}
		b.WriteString(padCell(truncateCell(meta.Name, colName-2), colName))
		b.WriteString(padCell(truncateCell(meta.WorktreeID, colWorktree-2), colWorktree))
		b.WriteString(padCell(fmt.Sprintf("%d", messageCount(meta)), colMsgs))
		b.WriteString(padCell(status, colStatus))
		b.WriteString(meta.ID)
		b.WriteString("\n")
	}
	b.WriteString(fmt.Sprintf("\n%d session(s)\n", len(metas)))
	return b.String()
}

func renderSessionDetail(meta *storage.SessionMetadata) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:     %s\n", meta.Name)
	fmt.Fprintf(&b, "ID:       %s\n", meta.ID)
	fmt.Fprintf(&b, "Worktree: %s\n", meta.WorktreeID)
	fmt.Fprintf(&b, "Created:  %s\n", time.Unix(meta.CreatedAt, 0).Format("2006-01-02 15:04"))
	if meta.Archived() {
		fmt.Fprintf(&b, "Archived: %s\n", time.Unix(*meta.ArchivedAt, 0).Format("2006-01-02 15:04"))
	}
	if meta.SelectedModel != "" {
		fmt.Fprintf(&b, "Model:    %s\n", meta.SelectedModel)
	}
	if meta.SelectedThinkingLevel != "" {
		fmt.Fprintf(&b, "Thinking: %s\n", meta.SelectedThinkingLevel)
	}
	fmt.Fprintf(&b, "Messages: %d\n", messageCount(meta))

	if len(meta.Messages) > 0 {
		b.WriteString("\n")
	}
	indent := strings.Repeat(" ", 11+colStatus)
	for _, msg := range meta.Messages {
		line := firstLine(msg.Content)
		stamp := time.UnixMilli(msg.Timestamp).Format("15:04:05")
		fmt.Fprintf(&b, "[%s] %s %s\n", stamp, padCell(string(msg.Role), colStatus), truncateCell(line, 72))
		for _, tc := range msg.ToolCalls {
			if desc := backend.DescribeToolInput(tc.Name, tc.Input); desc != "" {
				fmt.Fprintf(&b, "%s%s(%s)\n", indent, tc.Name, desc)
			} else {
				fmt.Fprintf(&b, "%s%s\n", indent, tc.Name)
			}
		}
	}
	return b.String()
}

func messageCount(meta *storage.SessionMetadata) int {
	if n := len(meta.Messages); n > 0 {
		return n
	}
	return meta.MessageCount
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// truncateCell cuts a string to a display-cell budget without splitting
// grapheme clusters, appending "..." when anything was dropped.
func truncateCell(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	budget := width - 3
	if budget < 1 {
		budget = 1
	}
	var b strings.Builder
	used := 0
	gr := uniseg.NewGraphemes(s)
	for gr.Next() {
		cluster := gr.Str()
		w := runewidth.StringWidth(cluster)
		if used+w > budget {
			break
		}
		b.WriteString(cluster)
		used += w
	}
	return b.String() + "..."
}

// padCell pads a string with spaces to a display-cell width.
func padCell(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
