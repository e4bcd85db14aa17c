// internal/masterdata/client_test.go
//
// Unit-tests for CreateDocument against an httptest server.
//
// Run: go test ./internal/masterdata -v

package masterdata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCreateDocument_Success(t *testing.T) {
	var gotPath, gotAccept, gotType, gotKey, gotToken string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotType = r.Header.Get("Content-Type")
		gotKey = r.Header.Get("X-VTEX-API-AppKey")
		gotToken = r.Header.Get("X-VTEX-API-AppToken")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"DocumentId":"doc-1","Href":"https://store/api/dataentities/NW/documents/doc-1","Id":"NW-doc-1"}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", WithHTTPClient(srv.Client()), WithCredentials("key", "secret"))
	ref, err := c.CreateDocument(context.Background(), "NW", map[string]any{"email": "x@y.com", "name": nil})
	if err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}

	want := DocumentRef{
		DocumentId: "doc-1",
		Href:       "https://store/api/dataentities/NW/documents/doc-1",
		Id:         "NW-doc-1",
	}
	if diff := cmp.Diff(want, ref); diff != "" {
		t.Fatalf("ref mismatch (-want +got):\n%s", diff)
	}
	if gotPath != "/api/dataentities/NW/documents" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAccept != "application/json; charset=utf-8" || gotType != "application/json; charset=utf-8" {
		t.Errorf("headers: accept=%q content-type=%q", gotAccept, gotType)
	}
	if gotKey != "key" || gotToken != "secret" {
		t.Errorf("credentials not forwarded: %q %q", gotKey, gotToken)
	}
	if diff := cmp.Diff(map[string]any{"email": "x@y.com", "name": nil}, gotBody); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDocument_NoCredentialsByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-VTEX-API-AppKey") != "" {
			t.Errorf("unexpected app key header")
		}
		_, _ = w.Write([]byte(`{"DocumentId":"d","Href":"h","Id":"i"}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL).CreateDocument(context.Background(), "NW", map[string]string{}); err != nil {
		t.Fatalf("CreateDocument: %v", err)
	}
}

func TestCreateDocument_InvalidArgument(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()
	c := New(srv.URL)

	var nilMap map[string]string
	cases := []struct {
		name    string
		entity  string
		payload any
		param   string
	}{
		{"empty entity", "", map[string]string{"email": "a@b.co"}, "entity"},
		{"nil payload", "NW", nil, "payload"},
		{"nil map payload", "NW", nilMap, "payload"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.CreateDocument(context.Background(), tc.entity, tc.payload)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("err = %v, want ErrInvalidArgument", err)
			}
			var ia *InvalidArgumentError
			if !errors.As(err, &ia) || ia.Param != tc.param {
				t.Fatalf("param = %+v, want %q", ia, tc.param)
			}
		})
	}
	if n := hits.Load(); n != 0 {
		t.Fatalf("server hit %d times, want 0", n)
	}
}

func TestCreateDocument_RemoteRejected(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateDocument(context.Background(), "NW", map[string]string{"email": "a@b.co"})
	if !errors.Is(err, ErrRemoteRejected) {
		t.Fatalf("err = %v, want ErrRemoteRejected", err)
	}
	var rr *RemoteRejectedError
	if !errors.As(err, &rr) {
		t.Fatalf("err %T is not *RemoteRejectedError", err)
	}
	if rr.StatusCode != 500 || rr.StatusText != "Internal Server Error" {
		t.Fatalf("got %d %q", rr.StatusCode, rr.StatusText)
	}
	if code, ok := StatusCode(err); !ok || code != 500 {
		t.Fatalf("StatusCode = %d, %v", code, ok)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("attempts = %d, want exactly 1", n)
	}
}

func TestCreateDocument_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close() // nothing listens any more

	_, err := New(url).CreateDocument(context.Background(), "NW", map[string]string{"email": "a@b.co"})
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.Err == nil {
		t.Fatalf("transport error lacks cause: %v", err)
	}
}

func TestCreateDocument_BadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateDocument(context.Background(), "NW", map[string]string{"email": "a@b.co"})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("err = %v, want *DecodeError", err)
	}
}

func TestEndpointEscapesEntity(t *testing.T) {
	c := New("https://shop.example.com/api/")
	if got := c.Endpoint("NW"); got != "https://shop.example.com/api/dataentities/NW/documents" {
		t.Fatalf("Endpoint = %q", got)
	}
	if got := c.Endpoint("a/b"); got != "https://shop.example.com/api/dataentities/a%2Fb/documents" {
		t.Fatalf("Endpoint = %q", got)
	}
}
