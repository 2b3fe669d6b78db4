package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const esearchXML = `<?xml version="1.0"?>
<eSearchResult>
  <Count>2</Count>
  <IdList>
    <Id>200098765</Id>
    <Id>200098766</Id>
  </IdList>
</eSearchResult>`

const elinkXML = `<?xml version="1.0"?>
<eLinkResult>
  <LinkSet>
    <LinkSetDb>
      <DbTo>sra</DbTo>
      <Link><Id>11111</Id></Link>
      <Link><Id>22222</Id></Link>
    </LinkSetDb>
    <LinkSetDb>
      <DbTo>pubmed</DbTo>
      <Link><Id>99999</Id></Link>
    </LinkSetDb>
  </LinkSet>
</eLinkResult>`

const esummaryXML = `<?xml version="1.0"?>
<eSummaryResult>
  <DocSum>
    <Item Name="Runs" Type="String">&lt;Run acc="SRR1000001" total_spots="100"/&gt;&lt;Run acc="SRR1000002" total_spots="200"/&gt;</Item>
  </DocSum>
  <DocSum>
    <Item Name="Runs" Type="String">&lt;Run acc="SRR1000002" total_spots="200"/&gt;</Item>
  </DocSum>
</eSummaryResult>`

func testFetcher(t *testing.T, handler http.Handler) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := retryablehttp.NewClient()
	client.RetryMax = 1
	client.Logger = nil

	return &Fetcher{
		client:  client,
		baseURL: srv.URL,
		delay:   0,
		log:     zerolog.Nop(),
	}, srv
}

func TestFetchRunAccessions(t *testing.T) {
	var paths []string
	f, _ := testFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/esearch.fcgi":
			if got := r.URL.Query().Get("db"); got != "gds" {
				t.Errorf("esearch db = %s, want gds", got)
			}
			fmt.Fprint(w, esearchXML)
		case "/elink.fcgi":
			fmt.Fprint(w, elinkXML)
		case "/esummary.fcgi":
			if got := r.URL.Query().Get("db"); got != "sra" {
				t.Errorf("esummary db = %s, want sra", got)
			}
			fmt.Fprint(w, esummaryXML)
		default:
			http.NotFound(w, r)
		}
	}))

	runs, err := f.FetchRunAccessions(context.Background(), "GSE98765")
	if err != nil {
		t.Fatalf("FetchRunAccessions failed: %v", err)
	}
	want := []string{"SRR1000001", "SRR1000002"}
	if !reflect.DeepEqual(runs, want) {
		t.Errorf("runs = %v, want %v (deduplicated, first-seen order)", runs, want)
	}
	if len(paths) != 3 {
		t.Errorf("expected 3 eutils calls, got %v", paths)
	}
}

func TestFetchRunAccessionsBadGSE(t *testing.T) {
	f, _ := testFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no network call should happen for a malformed GSE")
	}))
	if _, err := f.FetchRunAccessions(context.Background(), "SRR123"); err == nil {
		t.Error("malformed GSE should fail validation")
	}
}

func TestFetchRunAccessionsNoRecords(t *testing.T) {
	f, _ := testFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><eSearchResult><IdList></IdList></eSearchResult>`)
	}))
	if _, err := f.FetchRunAccessions(context.Background(), "GSE1"); err == nil {
		t.Error("empty search result should fail")
	}
}

func TestFetchRunAccessionsServerError(t *testing.T) {
	f, _ := testFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	if _, err := f.FetchRunAccessions(context.Background(), "GSE1"); err == nil {
		t.Error("non-200 response should fail")
	}
}

func TestGetCancellation(t *testing.T) {
	f, _ := testFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	f.delay = requestDelay

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.get(ctx, "esearch.fcgi", nil); err == nil {
		t.Error("cancelled context should abort before the request")
	}
}
