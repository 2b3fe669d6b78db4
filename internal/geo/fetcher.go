// Package geo resolves GEO series numbers (GSE) into SRA run accessions
// using NCBI's eutils endpoints: esearch finds the series in the gds
// database, elink maps it to SRA entries, and esummary yields the run
// accessions.
package geo

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"

	"github.com/gardiner-lab/seq-downloader/internal/accession"
)

const (
	defaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

	// NCBI asks for no more than 3 requests per second without an API key.
	requestDelay = 340 * time.Millisecond

	userAgent = "seq-downloader/2.0 (github.com/gardiner-lab/seq-downloader)"
)

var runRe = regexp.MustCompile(`SRR\d+`)

// retryLogger adapts zerolog to the retryablehttp.LeveledLogger interface.
// Only warnings and errors are forwarded; retryablehttp's info/debug chatter
// drowns the console otherwise.
type retryLogger struct {
	log zerolog.Logger
}

func (l *retryLogger) Error(msg string, kv ...interface{}) { l.log.Error().Msgf("%s %v", msg, kv) }
func (l *retryLogger) Warn(msg string, kv ...interface{})  { l.log.Warn().Msgf("%s %v", msg, kv) }
func (l *retryLogger) Info(string, ...interface{})         {}
func (l *retryLogger) Debug(string, ...interface{})        {}

// Fetcher queries NCBI eutils with retry and request pacing.
type Fetcher struct {
	client  *retryablehttp.Client
	baseURL string
	delay   time.Duration
	log     zerolog.Logger
}

// NewFetcher builds a fetcher with the production endpoint and pacing.
func NewFetcher(log zerolog.Logger) *Fetcher {
	transport := &http.Transport{}
	_ = http2.ConfigureTransport(transport)

	client := retryablehttp.NewClient()
	client.HTTPClient = &http.Client{Transport: transport, Timeout: 30 * time.Second}
	client.RetryMax = 3
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 15 * time.Second
	client.Logger = &retryLogger{log: log}

	return &Fetcher{
		client:  client,
		baseURL: defaultBaseURL,
		delay:   requestDelay,
		log:     log,
	}
}

// FetchRunAccessions resolves a GSE number into its SRA run accessions,
// deduplicated in first-seen order. The GSE format is validated before any
// network call.
func (f *Fetcher) FetchRunAccessions(ctx context.Context, gse string) ([]string, error) {
	if err := accession.ValidateGSE(gse); err != nil {
		return nil, err
	}

	geoIDs, err := f.searchSeries(ctx, gse)
	if err != nil {
		return nil, fmt.Errorf("GEO search for %s failed: %w", gse, err)
	}
	if len(geoIDs) == 0 {
		return nil, fmt.Errorf("no GEO records found for %s", gse)
	}

	sraIDs, err := f.linkToSRA(ctx, geoIDs)
	if err != nil {
		return nil, fmt.Errorf("GEO-to-SRA link for %s failed: %w", gse, err)
	}
	if len(sraIDs) == 0 {
		return nil, fmt.Errorf("no SRA entries linked to %s", gse)
	}

	runs, err := f.runAccessions(ctx, sraIDs)
	if err != nil {
		return nil, fmt.Errorf("SRA summary for %s failed: %w", gse, err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no run accessions found for %s", gse)
	}

	f.log.Info().Str("gse", gse).Int("runs", len(runs)).Msg("resolved GEO series")
	return runs, nil
}

type esearchResult struct {
	IDs []string `xml:"IdList>Id"`
}

func (f *Fetcher) searchSeries(ctx context.Context, gse string) ([]string, error) {
	params := url.Values{
		"db":      {"gds"},
		"term":    {gse + "[Accession]"},
		"retmode": {"xml"},
		"retmax":  {"1000"},
	}
	body, err := f.get(ctx, "esearch.fcgi", params)
	if err != nil {
		return nil, err
	}
	var result esearchResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("bad esearch response: %w", err)
	}
	return result.IDs, nil
}

type elinkResult struct {
	LinkSets []struct {
		LinkSetDBs []struct {
			DBTo string   `xml:"DbTo"`
			IDs  []string `xml:"Link>Id"`
		} `xml:"LinkSetDb"`
	} `xml:"LinkSet"`
}

func (f *Fetcher) linkToSRA(ctx context.Context, geoIDs []string) ([]string, error) {
	params := url.Values{
		"dbfrom":  {"gds"},
		"db":      {"sra"},
		"id":      {strings.Join(geoIDs, ",")},
		"retmode": {"xml"},
	}
	body, err := f.get(ctx, "elink.fcgi", params)
	if err != nil {
		return nil, err
	}
	var result elinkResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("bad elink response: %w", err)
	}

	var ids []string
	for _, ls := range result.LinkSets {
		for _, db := range ls.LinkSetDBs {
			if db.DBTo == "sra" {
				ids = append(ids, db.IDs...)
			}
		}
	}
	return accession.Dedupe(ids), nil
}

type esummaryResult struct {
	DocSums []struct {
		Items []struct {
			Name  string `xml:"Name,attr"`
			Value string `xml:",chardata"`
		} `xml:"Item"`
	} `xml:"DocSum"`
}

func (f *Fetcher) runAccessions(ctx context.Context, sraIDs []string) ([]string, error) {
	params := url.Values{
		"db":      {"sra"},
		"id":      {strings.Join(sraIDs, ",")},
		"retmode": {"xml"},
	}
	body, err := f.get(ctx, "esummary.fcgi", params)
	if err != nil {
		return nil, err
	}
	var result esummaryResult
	if err := xml.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("bad esummary response: %w", err)
	}

	// The Runs item embeds pseudo-XML listing each run; pull the accessions
	// straight out with a pattern match rather than parsing that fragment.
	var runs []string
	for _, doc := range result.DocSums {
		for _, item := range doc.Items {
			if item.Name == "Runs" || item.Name == "Run" {
				runs = append(runs, runRe.FindAllString(item.Value, -1)...)
			}
		}
	}
	return accession.Dedupe(runs), nil
}

// get performs one paced eutils request.
func (f *Fetcher) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(f.delay):
	}

	reqURL := fmt.Sprintf("%s/%s?%s", f.baseURL, endpoint, params.Encode())
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	f.log.Debug().Str("url", reqURL).Msg("eutils request")
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eutils returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
