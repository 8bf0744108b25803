package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/telekom/graphctl/pkg/graphctl/auth"
	"github.com/telekom/graphctl/pkg/graphctl/graph"
)

func newTabWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
}

func WriteUserTable(w io.Writer, user graph.User) {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "DISPLAY_NAME\tEMAIL\tUPN")
	_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", orDash(user.DisplayName), orDash(user.PreferredAddress()), orDash(user.UserPrincipalName))
	_ = tw.Flush()
}

func WriteInboxTable(w io.Writer, inbox *graph.MessageCollection) {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "RECEIVED\tFROM\tSTATUS\tSUBJECT")
	if inbox != nil {
		for _, m := range inbox.Value {
			status := "Unread"
			if m.IsRead {
				status = "Read"
			}
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", formatTime(m.ReceivedDateTime.Local()), m.Sender(), status, orDash(m.Subject))
		}
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "\nMore messages available? %t\n", inbox.MoreAvailable())
}

func WriteReceipt(w io.Writer, receipt *graph.SendReceipt) {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "STATUS\tREQUEST_ID")
	_, _ = fmt.Fprintf(tw, "%d\t%s\n", receipt.StatusCode, orDash(receipt.RequestID))
	_ = tw.Flush()
}

type photoRow struct {
	direction string
	artifact  *graph.PhotoArtifact
}

func WritePhotoTable(w io.Writer, direction string, artifact *graph.PhotoArtifact) {
	writePhotoRows(w, []photoRow{{direction, artifact}})
}

func WriteSyncTable(w io.Writer, result *graph.SyncResult) {
	writePhotoRows(w, []photoRow{{"download", result.Downloaded}, {"upload", result.Uploaded}})
}

func writePhotoRows(w io.Writer, rows []photoRow) {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "DIRECTION\tPATH\tBYTES\tCONTENT_TYPE")
	for _, row := range rows {
		if row.artifact == nil {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", row.direction, row.artifact.Path, row.artifact.Bytes, orDash(row.artifact.ContentType))
	}
	_ = tw.Flush()
}

// WriteIdentityTable prints who signed in and until when the token is valid.
func WriteIdentityTable(w io.Writer, identity auth.Identity, expiry time.Time) {
	tw := newTabWriter(w)
	_, _ = fmt.Fprintln(tw, "USER\tNAME\tTENANT\tEXPIRES")
	_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", orDash(identity.Username), orDash(identity.Name), orDash(identity.TenantID), formatTime(expiry))
	_ = tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
