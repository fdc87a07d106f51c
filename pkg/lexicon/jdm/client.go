// Package jdm fetches and parses the JeuxDeMots lexical network exports: the
// multi-word expression list, the refinement (sense) table and per-word
// rezo-dump pages.
package jdm

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/OFFIS-RIT/lexgraph/pkg/lexicon"
	"github.com/OFFIS-RIT/lexgraph/pkg/logger"

	"golang.org/x/text/encoding/charmap"
)

const (
	DefaultCompoundWordsURL  = "https://www.jeuxdemots.org/JDM-LEXICALNET-FR/20240924-LEXICALNET-JEUXDEMOTS-ENTRIES-MWE.txt"
	DefaultDisambiguationURL = "https://www.jeuxdemots.org/JDM-LEXICALNET-FR/20241010-LEXICALNET-JEUXDEMOTS-R1.txt.zip"
	DefaultRelationDumpURL   = "https://www.jeuxdemots.org/rezo-dump.php"
)

var (
	ErrStatus       = errors.New("jdm: unexpected response status")
	ErrEmptyArchive = errors.New("jdm: archive has no entries")
)

// Client talks to the JeuxDeMots HTTP exports. It implements
// lexicon.Source.
type Client struct {
	http              *http.Client
	compoundWordsURL  string
	disambiguationURL string
	relationDumpURL   string
	userAgent         string
}

// NewClientParams configures a Client. Empty URLs fall back to the public
// JeuxDeMots endpoints; a nil HTTPClient uses a client with Timeout.
type NewClientParams struct {
	HTTPClient        *http.Client
	Timeout           time.Duration
	CompoundWordsURL  string
	DisambiguationURL string
	RelationDumpURL   string
	UserAgent         string
}

func NewClient(params NewClientParams) *Client {
	hc := params.HTTPClient
	if hc == nil {
		timeout := params.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Minute
		}
		hc = &http.Client{Timeout: timeout}
	}
	c := &Client{
		http:              hc,
		compoundWordsURL:  params.CompoundWordsURL,
		disambiguationURL: params.DisambiguationURL,
		relationDumpURL:   params.RelationDumpURL,
		userAgent:         params.UserAgent,
	}
	if c.compoundWordsURL == "" {
		c.compoundWordsURL = DefaultCompoundWordsURL
	}
	if c.disambiguationURL == "" {
		c.disambiguationURL = DefaultDisambiguationURL
	}
	if c.relationDumpURL == "" {
		c.relationDumpURL = DefaultRelationDumpURL
	}
	return c
}

func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrStatus, target, resp.StatusCode)
	}
	return resp, nil
}

// textBody decodes a text response. Bodies declared as UTF-8 pass through;
// everything else is read as Latin-1.
func textBody(resp *http.Response) io.Reader {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err == nil && strings.EqualFold(params["charset"], "utf-8") {
		return resp.Body
	}
	return charmap.ISO8859_1.NewDecoder().Reader(resp.Body)
}

// CompoundWords downloads and parses the multi-word expression list.
func (c *Client) CompoundWords(ctx context.Context) ([]string, error) {
	logger.Info("[JDM] Fetching compound words", "url", c.compoundWordsURL)
	resp, err := c.get(ctx, c.compoundWordsURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	words, err := ParseCompoundWords(textBody(resp))
	if err != nil {
		return nil, fmt.Errorf("failed to read compound words: %w", err)
	}
	logger.Info("[JDM] Compound words fetched", "count", len(words))
	return words, nil
}

// DisambiguationTable downloads the zipped refinement export and parses its
// first entry as Latin-1 text.
func (c *Client) DisambiguationTable(ctx context.Context) (map[string][]lexicon.Candidate, error) {
	logger.Info("[JDM] Fetching disambiguation terms", "url", c.disambiguationURL)
	resp, err := c.get(ctx, c.disambiguationURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if len(zr.File) == 0 {
		return nil, ErrEmptyArchive
	}
	f, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", zr.File[0].Name, err)
	}
	defer f.Close()

	table, err := ParseDisambiguation(charmap.ISO8859_1.NewDecoder().Reader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read disambiguation terms: %w", err)
	}
	logger.Info("[JDM] Disambiguation terms fetched", "terms", len(table))
	return table, nil
}

// RelationDumpURL returns the rezo-dump page address for word.
func (c *Client) RelationDumpURL(word string) string {
	q := url.Values{}
	q.Set("gotermsubmit", "Chercher")
	q.Set("gotermrel", word)
	q.Set("rel", "")
	return c.relationDumpURL + "?" + q.Encode()
}

// RelationDump downloads and parses the rezo-dump page of word.
func (c *Client) RelationDump(ctx context.Context, word string) (lexicon.RelationDump, error) {
	logger.Debug("[JDM] Fetching relation dump", "word", word)
	resp, err := c.get(ctx, c.RelationDumpURL(word))
	if err != nil {
		return lexicon.RelationDump{}, err
	}
	defer resp.Body.Close()

	dump, err := ParseRelationDump(textBody(resp))
	if err != nil {
		return lexicon.RelationDump{}, fmt.Errorf("failed to read relation dump for %q: %w", word, err)
	}
	logger.Debug("[JDM] Relation dump fetched", "word", word, "eid", dump.EntityID, "entities", len(dump.Entities), "relations", len(dump.Relations))
	return dump, nil
}
