package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the public arXiv export host.
const DefaultBaseURL = "http://export.arxiv.org"

// Client queries the arXiv Atom API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	library    *Library
}

// NewClient creates a client for the API at baseURL that stores downloads
// in library.
func NewClient(baseURL string, timeout time.Duration, library *Library) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		library:    library,
	}
}

// SearchPapers runs q ordered by relevance.
func (c *Client) SearchPapers(ctx context.Context, q SearchQuery) ([]Paper, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if len(q.Categories) > 0 {
		cats := make([]string, len(q.Categories))
		for i, cat := range q.Categories {
			cats[i] = "cat:" + cat
		}
		query = fmt.Sprintf("(%s) AND (%s)", query, strings.Join(cats, " OR "))
	}

	return c.query(ctx, url.Values{
		"search_query": {query},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(maxResults(q.MaxResults))},
		"sortBy":       {"relevance"},
	})
}

// GetPaper fetches one entry by id.
func (c *Client) GetPaper(ctx context.Context, id string) (*Paper, error) {
	if !ValidID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	papers, err := c.query(ctx, url.Values{"id_list": {id}})
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPaperNotFound, id)
	}
	return &papers[0], nil
}

// DownloadPaper fetches the PDF of id unless the library already has it.
func (c *Client) DownloadPaper(ctx context.Context, id string) (*Download, error) {
	if !c.library.Enabled() {
		return nil, ErrDownloadsDisabled
	}
	if path, ok := c.library.Lookup(id); ok {
		return &Download{PaperID: id, Filename: fileName(id), Path: path}, nil
	}
	paper, err := c.GetPaper(ctx, id)
	if err != nil {
		return nil, err
	}
	if paper.PDFURL == "" {
		return nil, fmt.Errorf("paper %s has no pdf link", id)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, paper.PDFURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download pdf: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download pdf: status %d", resp.StatusCode)
	}
	return c.library.Save(id, resp.Body)
}

// ReadPaper returns the metadata of id and the local PDF path if stored.
func (c *Client) ReadPaper(ctx context.Context, id string) (*PaperContent, error) {
	return readPaper(ctx, c, c.library, id)
}

// ListDownloads lists the library.
func (c *Client) ListDownloads() ([]Download, error) {
	return c.library.List()
}

func (c *Client) query(ctx context.Context, params url.Values) ([]Paper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/query?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API error [%d]: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return parseFeed(body)
}

type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Title string `xml:"title,attr"`
	} `xml:"link"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"category"`
}

// The API reports bad queries as a feed with a single entry under /api/errors.
const errorEntryMarker = "/api/errors"

func parseFeed(body []byte) ([]Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to decode feed: %w", err)
	}

	papers := make([]Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		if strings.Contains(e.ID, errorEntryMarker) {
			return nil, fmt.Errorf("arXiv API error: %s", collapse(e.Summary))
		}
		p := Paper{
			ID:       entryID(e.ID),
			Title:    collapse(e.Title),
			Abstract: collapse(e.Summary),
			EntryURL: strings.TrimSpace(e.ID),
		}
		for _, a := range e.Authors {
			p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
		}
		for _, cat := range e.Categories {
			p.Categories = append(p.Categories, cat.Term)
		}
		for _, l := range e.Links {
			if l.Title == "pdf" {
				p.PDFURL = l.Href
			}
		}
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err == nil {
			p.Published = t
		}
		papers = append(papers, p)
	}
	return papers, nil
}

// entryID takes the identifier from an abstract URL such as
// http://arxiv.org/abs/2301.01234v1.
func entryID(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "/abs/"); i >= 0 {
		return raw[i+len("/abs/"):]
	}
	return raw
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
