package coverage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	snapshotLoggerMissingMessageConstant = "coverage snapshot logger not configured"
	snapshotURLMissingMessageConstant    = "coverage snapshot report URL not provided"
	snapshotOutputMissingMessageConst    = "coverage snapshot output path not provided"
	snapshotFailedTemplateConstant       = "unable to capture coverage snapshot: %w"
	snapshotWriteFailedTemplateConstant  = "unable to write coverage snapshot %s: %w"
	snapshotCapturedMessageConstant      = "coverage snapshot captured"
	snapshotURLFieldConstant             = "url"
	snapshotOutputFieldConstant          = "output"
	snapshotQualityConstant              = 90
	snapshotTimeoutConstant              = 30 * time.Second
	snapshotFilePermissionsConstant      = 0o644

	// DefaultSnapshotPath is where the captured report image lands.
	DefaultSnapshotPath = "coverage.png"
)

// SnapshotOptions configure a coverage report screenshot.
type SnapshotOptions struct {
	ReportURL  string
	OutputPath string
	Timeout    time.Duration
}

// CaptureSnapshot renders the coverage report in a headless browser and writes
// a full-page screenshot to the output path.
func CaptureSnapshot(executionContext context.Context, options SnapshotOptions, logger *zap.Logger) error {
	if logger == nil {
		return errors.New(snapshotLoggerMissingMessageConstant)
	}
	if len(options.ReportURL) == 0 {
		return errors.New(snapshotURLMissingMessageConstant)
	}
	outputPath := options.OutputPath
	if len(outputPath) == 0 {
		outputPath = DefaultSnapshotPath
	}
	snapshotTimeout := options.Timeout
	if snapshotTimeout <= 0 {
		snapshotTimeout = snapshotTimeoutConstant
	}

	timeoutContext, cancelTimeout := context.WithTimeout(executionContext, snapshotTimeout)
	defer cancelTimeout()

	allocatorContext, cancelAllocator := chromedp.NewExecAllocator(timeoutContext, chromedp.DefaultExecAllocatorOptions[:]...)
	defer cancelAllocator()

	browserContext, cancelBrowser := chromedp.NewContext(allocatorContext)
	defer cancelBrowser()

	var screenshotBytes []byte
	captureError := chromedp.Run(browserContext,
		chromedp.Navigate(options.ReportURL),
		chromedp.FullScreenshot(&screenshotBytes, snapshotQualityConstant),
	)
	if captureError != nil {
		return fmt.Errorf(snapshotFailedTemplateConstant, captureError)
	}

	if writeError := os.WriteFile(outputPath, screenshotBytes, snapshotFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(snapshotWriteFailedTemplateConstant, outputPath, writeError)
	}

	logger.Info(snapshotCapturedMessageConstant,
		zap.String(snapshotURLFieldConstant, options.ReportURL),
		zap.String(snapshotOutputFieldConstant, outputPath),
	)
	return nil
}
