package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/spacesedan/reviewflow/internal/models"
)

const (
	RECLAME_AQUI_LIST_PATH  = "/lista-reclamacoes/"
	RECLAME_AQUI_PAGE_PARAM = "pagina"
	complaintSeparator      = " - "
)

// ReclameAquiSelectors locate complaints in a listing page. They track the
// site's current markup and are expected to change.
type ReclameAquiSelectors struct {
	Complaint   string
	Title       string
	Description string
}

func DefaultReclameAquiSelectors() ReclameAquiSelectors {
	return ReclameAquiSelectors{
		Complaint:   "div.sc-1a6092-1",
		Title:       `h4[data-testid="complaint-title"]`,
		Description: `p[data-testid="complaint-description"]`,
	}
}

type ReclameAquiClient struct {
	Client    *http.Client
	Selectors ReclameAquiSelectors
	PageDelay time.Duration
}

func NewReclameAquiClient(session *http.Client, pageDelay time.Duration) *ReclameAquiClient {
	return &ReclameAquiClient{
		Client:    session,
		Selectors: DefaultReclameAquiSelectors(),
		PageDelay: pageDelay,
	}
}

// complaint is a block extracted from a listing page before the drop policy
// is applied.
type complaint struct {
	Title          string
	Description    string
	HasTitle       bool
	HasDescription bool
}

// CollectComplaints walks listing pages 1..maxPages of a company and returns
// one record per complaint. It stops early on an empty page. A failed
// request also stops collection; the records gathered so far are returned
// along with an error wrapping ErrUnreachable.
func (rc *ReclameAquiClient) CollectComplaints(ctx context.Context, baseURL string, maxPages int) ([]models.RawRecord, error) {
	var records []models.RawRecord

	for page := 1; page <= maxPages; page++ {
		if page > 1 && !sleepCtx(ctx, rc.PageDelay) {
			return records, ctx.Err()
		}

		pageURL := PageURL(baseURL, page)
		blocks, err := rc.fetchPage(ctx, pageURL)
		if err != nil {
			slog.Error("[ReclameAquiClient] Failed to fetch page",
				slog.Int("page", page),
				slog.String("error", err.Error()))
			return records, fmt.Errorf("reclame aqui page %d: %w", page, err)
		}

		if len(blocks) == 0 {
			slog.Info("[ReclameAquiClient] No complaints on page, stopping",
				slog.Int("page", page))
			break
		}

		kept := keepComplete(blocks)
		for _, c := range kept {
			records = append(records, models.RawRecord{
				Text: c.Title + complaintSeparator + c.Description,
			})
		}

		slog.Info("[ReclameAquiClient] Collected page",
			slog.Int("page", page),
			slog.Int("blocks", len(blocks)),
			slog.Int("kept", len(kept)),
			slog.Int("total", len(records)))
	}

	return records, nil
}

// PageURL builds the listing URL for one page of a company profile.
func PageURL(baseURL string, page int) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/") +
		RECLAME_AQUI_LIST_PATH + "?" + RECLAME_AQUI_PAGE_PARAM + "=" + strconv.Itoa(page)
}

func (rc *ReclameAquiClient) fetchPage(ctx context.Context, pageURL string) ([]complaint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", BROWSER_USER_AGENT)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")

	resp, err := rc.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status code %d", ErrUnreachable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %s", ErrUnreachable, err.Error())
	}

	return rc.extractComplaints(doc), nil
}

// extractComplaints returns every complaint block on the page, including the
// ones missing a title or description.
func (rc *ReclameAquiClient) extractComplaints(doc *goquery.Document) []complaint {
	var blocks []complaint
	doc.Find(rc.Selectors.Complaint).Each(func(_ int, s *goquery.Selection) {
		title := s.Find(rc.Selectors.Title).First()
		description := s.Find(rc.Selectors.Description).First()
		blocks = append(blocks, complaint{
			Title:          strings.TrimSpace(title.Text()),
			Description:    strings.TrimSpace(description.Text()),
			HasTitle:       title.Length() > 0,
			HasDescription: description.Length() > 0,
		})
	})
	return blocks
}

// keepComplete drops blocks lacking either a title or a description.
func keepComplete(blocks []complaint) []complaint {
	kept := make([]complaint, 0, len(blocks))
	for _, b := range blocks {
		if !b.HasTitle || !b.HasDescription {
			slog.Debug("[ReclameAquiClient] Dropping incomplete complaint block",
				slog.Bool("has_title", b.HasTitle),
				slog.Bool("has_description", b.HasDescription))
			continue
		}
		kept = append(kept, b)
	}
	return kept
}
