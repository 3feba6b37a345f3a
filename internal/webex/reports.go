package webex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// cdrTemplateTitle is the title of the report template that produces the
// detailed call history (CDR) report.
const cdrTemplateTitle = "Calling Detailed Call History"

const dateFormat = "2006-01-02"

// Report describes a stored, generated report as returned by the reports
// listing. The capitalized Id key is how the API actually spells it.
type Report struct {
	ID          string `json:"Id"`
	Title       string `json:"title"`
	Service     string `json:"service"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Status      string `json:"status"`
	Created     string `json:"created"`
	DownloadURL string `json:"downloadURL"`
}

// CreatedAt parses the report creation date. Listing entries without a
// parseable date report the zero time.
func (r Report) CreatedAt() time.Time {
	for _, v := range []string{r.Created, r.StartDate} {
		if t, err := time.Parse(dateFormat, v); err == nil {
			return t
		}
	}

	return time.Time{}
}

// Template describes a report template.
type Template struct {
	ID      int    `json:"Id"`
	Title   string `json:"title"`
	Service string `json:"service"`
}

// The reports and templates APIs do not use the usual "items" envelope
// consistently, so both known keys are accepted.
type reportList struct {
	Items      []Report `json:"items"`
	Attributes []Report `json:"Report Attributes"`
}

func (l reportList) all() []Report {
	if len(l.Items) > 0 {
		return l.Items
	}

	return l.Attributes
}

type templateList struct {
	Items      []Template `json:"items"`
	Attributes []Template `json:"Template Attributes"`
}

func (l templateList) all() []Template {
	if len(l.Items) > 0 {
		return l.Items
	}

	return l.Attributes
}

// ListTemplates returns all report templates available to the org.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var list templateList
	if err := c.do(ctx, http.MethodGet, "report/templates", nil, &list); err != nil {
		return nil, err
	}

	return list.all(), nil
}

// CreateCDRReport requests a new detailed call history report covering the
// given start/end dates and returns the assigned report id.
func (c *Client) CreateCDRReport(ctx context.Context, start, end time.Time) (string, error) {
	templates, err := c.ListTemplates(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list report templates: %w", err)
	}

	templateID := -1
	for _, t := range templates {
		if strings.EqualFold(t.Title, cdrTemplateTitle) {
			templateID = t.ID
			break
		}
	}

	if templateID < 0 {
		return "", fmt.Errorf("no report template with title %q", cdrTemplateTitle)
	}

	payload := struct {
		TemplateID int    `json:"templateId"`
		StartDate  string `json:"startDate"`
		EndDate    string `json:"endDate"`
	}{
		TemplateID: templateID,
		StartDate:  start.Format(dateFormat),
		EndDate:    end.Format(dateFormat),
	}

	var created struct {
		ID string `json:"Id"`
	}
	if err := c.do(ctx, http.MethodPost, "reports", payload, &created); err != nil {
		return "", err
	}

	c.log.Infof("created CDR report with id %q for %s..%s", created.ID, payload.StartDate, payload.EndDate)

	return created.ID, nil
}

// GetReport fetches the details of a single stored report.
func (c *Client) GetReport(ctx context.Context, id string) (Report, error) {
	var list reportList
	if err := c.do(ctx, http.MethodGet, "reports/"+id, nil, &list); err != nil {
		return Report{}, err
	}

	all := list.all()
	if len(all) == 0 {
		return Report{}, fmt.Errorf("report %q not found", id)
	}

	return all[0], nil
}

// ReportStatus returns the generation status of a stored report, lowercased.
func (c *Client) ReportStatus(ctx context.Context, id string) (string, error) {
	report, err := c.GetReport(ctx, id)
	if err != nil {
		return "", err
	}

	return strings.ToLower(report.Status), nil
}

// GetReportLines downloads the generated report and returns its text lines,
// header row first. Empty trailing lines and the NUL padding found in some
// report downloads are stripped.
func (c *Client) GetReportLines(ctx context.Context, id string) ([]string, error) {
	report, err := c.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}

	if report.DownloadURL == "" {
		return nil, fmt.Errorf("report %q has no download URL", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, report.DownloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	bearer, err := c.tokens.BearerToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bearer credential: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("report download failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: res.StatusCode, Message: readErrorMessage(res.Body)}
	}

	blob, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report download: %w", err)
	}

	body := strings.ReplaceAll(string(blob), "\x00", "")
	body = strings.ReplaceAll(body, "\r\n", "\n")

	var lines []string
	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// ListReports returns all currently stored reports.
func (c *Client) ListReports(ctx context.Context) ([]Report, error) {
	var list reportList
	if err := c.do(ctx, http.MethodGet, "reports", nil, &list); err != nil {
		return nil, err
	}

	return list.all(), nil
}

// DeleteReport removes a stored report.
func (c *Client) DeleteReport(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "reports/"+id, nil, nil); err != nil {
		return err
	}

	c.log.Infof("deleted report with id %q", id)

	return nil
}
