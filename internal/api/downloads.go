package api

import (
	"context"
	"fmt"
	"io"
)

// Report kinds the backend can export.
const (
	ReportBooks        = "books"
	ReportUsers        = "users"
	ReportReservations = "reservations"
)

func validReport(kind string) bool {
	switch kind {
	case ReportBooks, ReportUsers, ReportReservations:
		return true
	}
	return false
}

// DownloadReport streams a CSV report into w.
func (c *Client) DownloadReport(ctx context.Context, kind string, w io.Writer) error {
	if !validReport(kind) {
		return fmt.Errorf("unknown report kind %q", kind)
	}
	return c.download(ctx, "/download/"+kind, w)
}
