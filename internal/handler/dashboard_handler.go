package handler

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/ad-tracker/trendmeter/internal/models"
	"github.com/ad-tracker/trendmeter/internal/parser"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

const dashboardTemplate = "dashboard.html"

// Templates parses the embedded dashboard templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// formView holds the form fields as text so rejected input is echoed back
// unchanged.
type formView struct {
	Keywords            string
	Days                string
	MaxResults          string
	CountryCode         string
	MinViews            string
	MinSubs             string
	MaxSubs             string
	MinChannelAgeMonths string
	OnlyShorts          bool
}

type sampleView struct {
	Title     string
	URL       string
	Views     string
	Duration  string
	Published string
}

type cardView struct {
	ChannelID   string
	ChannelURL  string
	Subscribers string
	AvgDuration string
	SampleCount int
	Samples     []sampleView
}

type dashboardView struct {
	Form      formView
	Error     string
	Run       *models.RunResult
	Cards     []cardView
	ExportURL string
}

// DashboardHandler serves the HTML dashboard.
type DashboardHandler struct {
	runs           RunExecutor
	defaults       models.RunRequest
	exportFilename string
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(runs RunExecutor, defaults models.RunRequest, exportFilename string) *DashboardHandler {
	return &DashboardHandler{
		runs:           runs,
		defaults:       defaults,
		exportFilename: exportFilename,
	}
}

// Index renders the form prefilled with the configured defaults.
func (h *DashboardHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, dashboardTemplate, dashboardView{Form: formFromRequest(h.defaults)})
}

// Submit runs the submitted form and redirects to the stored result.
func (h *DashboardHandler) Submit(c *gin.Context) {
	var dto models.RunFormDTO
	if err := c.ShouldBind(&dto); err != nil {
		h.renderError(c, http.StatusBadRequest, "Invalid form input: "+err.Error(), formFromPost(c))
		return
	}

	req := models.RunRequest{
		Keywords:    parser.ParseKeywords(dto.Keywords),
		Days:        dto.Days,
		MaxResults:  dto.MaxResults,
		Criteria:    dto.FilterCriteria,
		CountryCode: strings.ToUpper(dto.CountryCode),
	}

	result, err := h.runs.Execute(c.Request.Context(), req)
	if err != nil {
		status, _, msg := classify(err)
		logError(c, status, err)
		h.renderError(c, status, msg, formFromPost(c))
		return
	}

	c.Redirect(http.StatusSeeOther, "/runs/"+result.ID.String())
}

// Show renders a stored run below a form prefilled with its request.
func (h *DashboardHandler) Show(c *gin.Context) {
	run, err := h.lookup(c)
	if err != nil {
		status, _, msg := classify(err)
		logError(c, status, err)
		h.renderError(c, status, msg, formFromRequest(h.defaults))
		return
	}

	c.HTML(http.StatusOK, dashboardTemplate, dashboardView{
		Form:      formFromRequest(run.Request),
		Run:       run,
		Cards:     buildCards(run.Channels),
		ExportURL: "/runs/" + run.ID.String() + "/export.csv",
	})
}

// Export downloads a stored run as CSV.
func (h *DashboardHandler) Export(c *gin.Context) {
	run, err := h.lookup(c)
	if err != nil {
		status, _, msg := classify(err)
		logError(c, status, err)
		c.String(status, msg)
		return
	}

	writeCSV(c, h.exportFilename, run)
}

func (h *DashboardHandler) lookup(c *gin.Context) (*models.RunResult, error) {
	id, err := parseRunID(c)
	if err != nil {
		return nil, err
	}
	return h.runs.Get(c.Request.Context(), id)
}

func (h *DashboardHandler) renderError(c *gin.Context, status int, msg string, form formView) {
	c.HTML(status, dashboardTemplate, dashboardView{Form: form, Error: msg})
}

func formFromRequest(req models.RunRequest) formView {
	return formView{
		Keywords:            strings.Join(req.Keywords, "\n"),
		Days:                strconv.Itoa(req.Days),
		MaxResults:          strconv.Itoa(req.MaxResults),
		CountryCode:         req.CountryCode,
		MinViews:            strconv.FormatInt(req.Criteria.MinViews, 10),
		MinSubs:             strconv.FormatInt(req.Criteria.MinSubs, 10),
		MaxSubs:             strconv.FormatInt(req.Criteria.MaxSubs, 10),
		MinChannelAgeMonths: strconv.Itoa(req.Criteria.MinChannelAgeMonths),
		OnlyShorts:          req.Criteria.OnlyShorts,
	}
}

func formFromPost(c *gin.Context) formView {
	return formView{
		Keywords:            c.PostForm("keywords"),
		Days:                c.PostForm("days"),
		MaxResults:          c.PostForm("max_results"),
		CountryCode:         c.PostForm("country_code"),
		MinViews:            c.PostForm("min_views"),
		MinSubs:             c.PostForm("min_subs"),
		MaxSubs:             c.PostForm("max_subs"),
		MinChannelAgeMonths: c.PostForm("min_channel_age_months"),
		OnlyShorts:          c.PostForm("only_shorts") == "true",
	}
}

func buildCards(channels []models.FilteredChannelResult) []cardView {
	cards := make([]cardView, 0, len(channels))
	for i := range channels {
		ch := &channels[i]

		samples := ch.DisplaySamples()
		views := make([]sampleView, 0, len(samples))
		for _, s := range samples {
			published := "N/A"
			if s.PublishedAt != nil {
				published = s.PublishedAt.Format("2006-01-02")
			}
			views = append(views, sampleView{
				Title:     s.Title,
				URL:       s.URL,
				Views:     formatCount(s.Views),
				Duration:  s.Duration,
				Published: published,
			})
		}

		cards = append(cards, cardView{
			ChannelID:   ch.ChannelID,
			ChannelURL:  "https://www.youtube.com/channel/" + ch.ChannelID,
			Subscribers: formatCount(ch.Subscribers),
			AvgDuration: ch.AvgDurationReadable,
			SampleCount: ch.SampleVideoCount,
			Samples:     views,
		})
	}
	return cards
}

// formatCount groups digits by thousands: 1234567 -> "1,234,567".
func formatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 && !(neg && b.Len() == 1) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
