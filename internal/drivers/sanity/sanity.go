// Package sanity drives the Sanity.io hosted document store over its HTTP
// API. Reads build a GROQ query against the query endpoint; writes post a
// mutation document to the mutate endpoint. One blocking round trip per
// operation, no retries, no state beyond the configuration set at init.
package sanity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/kvbench/sanitybench/internal/common"
	"github.com/kvbench/sanitybench/internal/properties"
	"github.com/kvbench/sanitybench/internal/store"
)

// Property keys understood by this driver.
const (
	PropProject            = "sanity.project"
	PropDataset            = "sanity.dataset"
	PropAPIProtocol        = "sanity.api.protocol"
	PropAPIHost            = "sanity.api.host"
	PropAPIVersion         = "sanity.api.version"
	PropAPIAuthToken       = "sanity.api.auth_token"
	PropReadType           = "sanity.query.read"
	PropMutationVisibility = "sanity.mutation.visibility"
)

const (
	defaultAPIProtocol        = "https://"
	defaultAPIHost            = "api.sanity.io"
	defaultAPIVersion         = "vX"
	defaultReadType           = "guery"
	defaultMutationVisibility = "sync"
)

// Config is immutable after New: one instance per driver, set once, read on
// every request.
type Config struct {
	Project            string
	Dataset            string
	APIProtocol        string
	APIHost            string
	APIVersion         string
	APIAuthToken       string
	ReadType           string // accepted but not consulted by request construction
	MutationVisibility string
}

// ConfigFromProperties fills a Config from the harness property mechanism,
// applying the documented defaults for unset keys.
func ConfigFromProperties(props properties.Properties) Config {
	return Config{
		Project:            props.Get(PropProject, ""),
		Dataset:            props.Get(PropDataset, ""),
		APIProtocol:        props.Get(PropAPIProtocol, defaultAPIProtocol),
		APIHost:            props.Get(PropAPIHost, defaultAPIHost),
		APIVersion:         props.Get(PropAPIVersion, defaultAPIVersion),
		APIAuthToken:       props.Get(PropAPIAuthToken, ""),
		ReadType:           props.Get(PropReadType, defaultReadType),
		MutationVisibility: props.Get(PropMutationVisibility, defaultMutationVisibility),
	}
}

type Driver struct {
	cfg     Config
	baseURL string
	client  *http.Client
}

func New(props properties.Properties) (*Driver, error) {
	return NewWithConfig(ConfigFromProperties(props))
}

func NewWithConfig(cfg Config) (*Driver, error) {
	baseURL := cfg.APIProtocol
	if cfg.Project != "" {
		baseURL += cfg.Project + "."
	}
	baseURL += cfg.APIHost

	return &Driver{
		cfg:     cfg,
		baseURL: baseURL,
		client:  &http.Client{},
	}, nil
}

func (d *Driver) queryURL(query string) string {
	return d.baseURL + "/" + d.cfg.APIVersion + "/query/" + d.cfg.Dataset +
		"?query=" + url.QueryEscape(query)
}

func (d *Driver) mutateURL(visibility string) string {
	u := d.baseURL + "/" + d.cfg.APIVersion + "/mutate/" + d.cfg.Dataset
	if visibility != "" {
		u += "?visibility=" + visibility
	}

	return u
}

// projection renders the GROQ field projection clause. The trailing comma
// matches the wire format of the original binding; the API accepts it.
func projection(fields []string) string {
	if len(fields) == 0 {
		return ""
	}

	clause := "{"
	for _, field := range fields {
		clause += field + ","
	}

	return clause + "}"
}

func (d *Driver) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.APIAuthToken)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("sanity request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read sanity response: %w", err)
	}

	return body, resp.StatusCode, nil
}

func (d *Driver) query(query string) ([]byte, int, error) {
	req, err := http.NewRequest(http.MethodGet, d.queryURL(query), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build query request: %w", err)
	}

	return d.do(req)
}

func (d *Driver) mutate(kind MutationKind, table, key string, values common.Record, visibility string) (store.Status, error) {
	body, err := mutationBody(kind, table, key, values)
	if err != nil {
		return store.StatusError, fmt.Errorf("encode mutation: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, d.mutateURL(visibility), bytes.NewReader(body))
	if err != nil {
		return store.StatusError, fmt.Errorf("build mutate request: %w", err)
	}

	_, code, err := d.do(req)
	if err != nil {
		return store.StatusError, err
	}

	return store.FromHTTP(code), nil
}

// parseRows decodes the response envelope around read/scan results. A body
// that is not a JSON object (or is null) yields UNEXPECTED_STATE; an envelope
// without a "result" key yields NOT_FOUND.
func parseRows(body []byte) ([]map[string]json.RawMessage, store.Status) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil || root == nil {
		return nil, store.StatusUnexpectedState
	}

	result, ok := root["result"]
	if !ok {
		return nil, store.StatusNotFound
	}

	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(result, &rows); err != nil {
		return nil, store.StatusUnexpectedState
	}

	return rows, store.StatusOK
}

// fieldText extracts a field value as text, the way the harness stores it.
// String nodes are unquoted; any other node keeps its raw rendering.
func fieldText(raw json.RawMessage) []byte {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []byte(s)
	}

	return append([]byte(nil), raw...)
}

// Read selects the document of type table with id key. With a nil field list
// the rows are not parsed at all and no record is returned. Otherwise every
// row writes its requested fields into the one output record, so when the
// query matches several documents, later rows overwrite same-named fields
// from earlier ones.
func (d *Driver) Read(table, key string, fields []string) (common.Record, store.Status, error) {
	query := fmt.Sprintf("*[_type == '%s' && _id == '%s']", table, key)
	query += projection(fields)

	body, code, err := d.query(query)
	if err != nil {
		return nil, store.StatusError, err
	}

	if code >= 300 {
		return nil, store.FromHTTP(code), nil
	}

	rows, status := parseRows(body)
	if status != store.StatusOK {
		return nil, status, nil
	}

	if fields == nil {
		return nil, store.FromHTTP(code), nil
	}

	record := make(common.Record)
	for _, row := range rows {
		for _, field := range fields {
			raw, ok := row[field]
			if !ok {
				continue
			}

			record[field] = fieldText(raw)
		}
	}

	return record, store.StatusOK, nil
}

// Scan selects up to count documents of type table with id >= startKey,
// ordered by id. Each row becomes one record, in query result order.
func (d *Driver) Scan(table, startKey string, count int, fields []string) ([]common.Record, store.Status, error) {
	if count <= 0 {
		return nil, store.StatusOK, nil
	}

	// GROQ slices are inclusive on both ends.
	query := fmt.Sprintf("*[_type == '%s' && _id >= '%s'] | order(_id ) [0..%d]",
		table, startKey, count-1)
	query += projection(fields)

	body, code, err := d.query(query)
	if err != nil {
		return nil, store.StatusError, err
	}

	if code >= 300 {
		return nil, store.FromHTTP(code), nil
	}

	rows, status := parseRows(body)
	if status != store.StatusOK {
		return nil, status, nil
	}

	if fields == nil {
		return nil, store.FromHTTP(code), nil
	}

	records := make([]common.Record, 0, len(rows))

	for _, row := range rows {
		record := make(common.Record, len(fields))

		for _, field := range fields {
			raw, ok := row[field]
			if !ok {
				continue
			}

			record[field] = fieldText(raw)
		}

		records = append(records, record)
	}

	return records, store.StatusOK, nil
}

// Insert creates the document {_id: key, _type: table, ...values}. The
// visibility mode makes the call wait until the mutation is queryable before
// the API responds (default "sync").
func (d *Driver) Insert(table, key string, values common.Record) (store.Status, error) {
	return d.mutate(MutationCreate, table, key, values, d.cfg.MutationVisibility)
}

// Update patches the document: {id: key, set: {...values}}.
func (d *Driver) Update(table, key string, values common.Record) (store.Status, error) {
	return d.mutate(MutationPatch, table, key, values, "")
}

// Delete removes the document with _id key.
func (d *Driver) Delete(table, key string) (store.Status, error) {
	return d.mutate(MutationDelete, table, key, nil, "")
}

func (d *Driver) Close() error {
	d.client.CloseIdleConnections()

	return nil
}
