package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/the-local-guys/testtag-api/internal/models"
	"github.com/the-local-guys/testtag-api/pkg/export"
	"github.com/the-local-guys/testtag-api/pkg/storage"
)

type sessionDataProvider interface {
	GetFullSessionData(ctx context.Context, sessionID string) (*models.FullSessionData, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders session compliance reports and persists the files.
type ExportService struct {
	sessions sessionDataProvider
	storage  fileStorage
	csv      csvRenderer
	pdf      pdfRenderer
	signer   *storage.SignedURLSigner
	logger   *zap.Logger
	cfg      ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(report export.Report) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(sessions sessionDataProvider, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		sessions: sessions,
		storage:  storage,
		csv:      csv,
		pdf:      pdf,
		signer:   signer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Generate renders the session report according to the job definition and
// stores the output file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	data, err := s.sessions.GetFullSessionData(ctx, job.Params.SessionID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(buildSessionDataset(data))
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(buildSessionReport(data))
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job, data)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob, data *models.FullSessionData) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	clientPart := sanitizeFilename(data.Session.ClientName)
	return fmt.Sprintf("report_%s_%s.%s", clientPart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := strings.ToLower(replacer.Replace(raw))
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func sessionTableHeaders(serviceType models.ServiceType) []string {
	headers := []string{"Asset #", "Item", "Location", "Classification", "Frequency", "Result", "Next Due"}
	if serviceType == models.ServiceEmergencyExitLight {
		headers = append(headers, "Discharge Test", "Switching Test")
	}
	return headers
}

func sessionTableRow(session models.TestSession, r models.TestResult) map[string]string {
	row := map[string]string{
		"Asset #":        r.AssetNumber,
		"Item":           r.ItemName,
		"Location":       r.Location,
		"Classification": r.Classification,
		"Frequency":      string(r.Frequency),
		"Result":         strings.ToUpper(string(r.Result)),
		"Next Due":       models.NextDueDate(session.TestDate, r.Frequency, r.Result).Format("2006-01-02"),
	}
	if session.ServiceType == models.ServiceEmergencyExitLight {
		row["Discharge Test"] = derefString(r.DischargeTest)
		row["Switching Test"] = derefString(r.SwitchingTest)
	}
	return row
}

// buildSessionDataset flattens full session data to the tabular form used
// by the CSV exporter. Results arrive already ordered by asset number.
func buildSessionDataset(data *models.FullSessionData) export.Dataset {
	rows := make([]map[string]string, 0, len(data.Results))
	for _, r := range data.Results {
		rows = append(rows, sessionTableRow(data.Session, r))
	}
	return export.Dataset{Headers: sessionTableHeaders(data.Session.ServiceType), Rows: rows}
}

// buildSessionReport assembles the full PDF layout: job details, summary,
// the results table and a detail section for every failed item.
func buildSessionReport(data *models.FullSessionData) export.Report {
	session := data.Session

	report := export.Report{
		Title: fmt.Sprintf("%s Compliance Report", serviceTypeLabel(session.ServiceType)),
		Header: []export.Field{
			{Label: "Client", Value: session.ClientName},
			{Label: "Site Contact", Value: session.SiteContact},
			{Label: "Address", Value: session.Address},
			{Label: "Technician", Value: session.TechnicianName},
			{Label: "Test Date", Value: session.TestDate.Format("2006-01-02")},
			{Label: "Country", Value: session.Country},
		},
		Summary: []export.Field{
			{Label: "Items Tested", Value: fmt.Sprintf("%d", data.Summary.TotalItems)},
			{Label: "Passed", Value: fmt.Sprintf("%d", data.Summary.PassedItems)},
			{Label: "Failed", Value: fmt.Sprintf("%d", data.Summary.FailedItems)},
			{Label: "Pass Rate", Value: fmt.Sprintf("%d%%", data.Summary.PassRate)},
		},
		Table: buildSessionDataset(data),
	}

	for _, r := range data.Results {
		if r.Result != models.OutcomeFail {
			continue
		}
		section := export.Section{
			Title: fmt.Sprintf("Failed Item %s - %s", r.AssetNumber, r.ItemName),
			Fields: []export.Field{
				{Label: "Location", Value: r.Location},
				{Label: "Failure Reason", Value: derefString(r.FailureReason)},
				{Label: "Action Taken", Value: derefString(r.ActionTaken)},
				{Label: "Notes", Value: derefString(r.Notes)},
			},
		}
		report.Sections = append(report.Sections, section)
	}

	return report
}

func serviceTypeLabel(serviceType models.ServiceType) string {
	switch serviceType {
	case models.ServiceElectrical:
		return "Test & Tag"
	case models.ServiceEmergencyExitLight:
		return "Emergency & Exit Light"
	case models.ServiceFireTesting:
		return "Fire Equipment"
	default:
		return "Compliance"
	}
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}
