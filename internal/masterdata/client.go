// internal/masterdata/client.go
//
// Thin client for the generic document-creation endpoint.
//
// Context
//   The storefront keeps newsletter sign-ups in an entity of its document
//   store.  CreateDocument serializes a payload as JSON and issues exactly one
//   POST to <base>/dataentities/<entity>/documents.  There is no retry, no
//   client-side timeout, and no idempotency key; cancellation is whatever the
//   caller's context carries.
//
// Workflow
//   •  Validate entity and payload.  Failures return *InvalidArgumentError
//      before any network activity.
//   •  POST with JSON Accept and Content-Type headers, plus the store's app
//      key and token when configured.
//   •  2xx decodes into DocumentRef.  Anything else maps onto the error
//      taxonomy in errors.go.
//
// Style
//   Two-space sentence spacing, Oxford comma, concise inline notes.
//
//------------------------------------------------------------------------------

package masterdata

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
	"go.uber.org/zap"
)

const (
	jsonMIME = "application/json; charset=utf-8"

	headerAppKey   = "X-VTEX-API-AppKey"
	headerAppToken = "X-VTEX-API-AppToken"
)

// DocumentRef identifies a freshly created document.  Field names match the
// store's JSON response verbatim.
type DocumentRef struct {
	DocumentId string `json:"DocumentId"`
	Href       string `json:"Href"`
	Id         string `json:"Id"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL  string
	http     *http.Client
	appKey   string
	appToken string
	log      *zap.SugaredLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default transport.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithCredentials sets the app key and token sent on every request.  Empty
// values disable the headers.
func WithCredentials(key, token string) Option {
	return func(c *Client) {
		c.appKey = key
		c.appToken = token
	}
}

// WithLogger attaches a logger; the default discards.
func WithLogger(l *zap.SugaredLogger) Option { return func(c *Client) { c.log = l } }

// New returns a Client rooted at baseURL, e.g. "https://shop.example.com/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    cleanhttp.DefaultPooledClient(),
		log:     zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Endpoint returns the documents URL for entity.
func (c *Client) Endpoint(entity string) string {
	return c.baseURL + "/dataentities/" + url.PathEscape(entity) + "/documents"
}

// CreateDocument POSTs payload as a new document of entity and returns the
// store's reference to it.
func (c *Client) CreateDocument(ctx context.Context, entity string, payload any) (DocumentRef, error) {
	if entity == "" {
		return DocumentRef{}, &InvalidArgumentError{Param: "entity"}
	}
	if isNil(payload) {
		return DocumentRef{}, &InvalidArgumentError{Param: "payload"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return DocumentRef{}, &InvalidArgumentError{Param: "payload"}
	}

	endpoint := c.Endpoint(entity)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return DocumentRef{}, &TransportError{Err: err}
	}
	req.Header.Set("Accept", jsonMIME)
	req.Header.Set("Content-Type", jsonMIME)
	if c.appKey != "" && c.appToken != "" {
		req.Header.Set(headerAppKey, c.appKey)
		req.Header.Set(headerAppToken, c.appToken)
	}

	c.log.Debugw("masterdata request", "endpoint", endpoint, "bytes", len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warnw("masterdata transport failure", "endpoint", endpoint, "err", err)
		return DocumentRef{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		rej := &RemoteRejectedError{StatusCode: resp.StatusCode, StatusText: statusText(resp)}
		c.log.Warnw("masterdata rejected document", "endpoint", endpoint, "status", resp.StatusCode)
		return DocumentRef{}, rej
	}

	var ref DocumentRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return DocumentRef{}, &DecodeError{Err: err}
	}
	c.log.Debugw("masterdata document created", "entity", entity, "id", ref.DocumentId)
	return ref, nil
}

// statusText strips the numeric prefix from resp.Status ("500 Internal
// Server Error" → "Internal Server Error").
func statusText(resp *http.Response) string {
	txt := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if txt == "" {
		txt = http.StatusText(resp.StatusCode)
	}
	return txt
}

// isNil catches untyped nil as well as nil maps, pointers, and slices.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
