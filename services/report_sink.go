package services

import (
	"context"
	"fmt"
	"log"

	"fitnessfight-engine/utils"
)

// ReportSink receives the JSON report of a detector run. Nil disables writing.
type ReportSink interface {
	Put(ctx context.Context, report *DetectionReport) error
}

// R2ReportSink writes run reports to R2 object storage so the admin panel can
// render detection history without querying this service.
type R2ReportSink struct{}

func (R2ReportSink) Put(ctx context.Context, report *DetectionReport) error {
	key := fmt.Sprintf("group-reports/%s.json", report.RanAt.Format("2006-01-02T15-04-05Z"))
	url, err := utils.UploadJSON(ctx, key, report)
	if err != nil {
		return err
	}
	log.Printf("[GroupDetect] report uploaded: %s", url)
	return nil
}
