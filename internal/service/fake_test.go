package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"

	"gitlab.com/yelinaung/finadm/internal/apiclient"
	"gitlab.com/yelinaung/finadm/internal/apierr"
	"gitlab.com/yelinaung/finadm/internal/session"
)

type recordedCall struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
}

type reply struct {
	body string
	err  error
}

// fakeAPI answers "METHOD /path" with canned bodies and records every call.
type fakeAPI struct {
	mu      sync.Mutex
	replies map[string]reply
	calls   []recordedCall
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{replies: make(map[string]reply)}
}

func (f *fakeAPI) on(method, path, body string) *fakeAPI {
	f.replies[method+" "+path] = reply{body: body}
	return f
}

func (f *fakeAPI) fail(method, path string, err error) *fakeAPI {
	f.replies[method+" "+path] = reply{err: err}
	return f
}

func (f *fakeAPI) last() recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return recordedCall{}
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeAPI) Do(_ context.Context, req apiclient.Request) (*apiclient.Response, error) {
	call := recordedCall{Method: req.Method, Path: req.Path, Query: req.Query, ContentType: req.ContentType}
	switch b := req.Body.(type) {
	case nil:
	case []byte:
		call.Body = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		call.Body = data
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	r, ok := f.replies[req.Method+" "+req.Path]
	f.mu.Unlock()

	if !ok {
		return nil, apierr.New(http.StatusNotFound, apierr.CodeNotFound, "no route "+req.Method+" "+req.Path)
	}
	if r.err != nil {
		return nil, r.err
	}
	return &apiclient.Response{Status: http.StatusOK, Header: http.Header{}, Body: []byte(r.body)}, nil
}

func (f *fakeAPI) Get(ctx context.Context, path string, query url.Values) (*apiclient.Response, error) {
	return f.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: path, Query: query})
}

func (f *fakeAPI) Post(ctx context.Context, path string, body any) (*apiclient.Response, error) {
	return f.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: path, Body: body})
}

func (f *fakeAPI) Put(ctx context.Context, path string, body any) (*apiclient.Response, error) {
	return f.Do(ctx, apiclient.Request{Method: http.MethodPut, Path: path, Body: body})
}

func (f *fakeAPI) Delete(ctx context.Context, path string) (*apiclient.Response, error) {
	return f.Do(ctx, apiclient.Request{Method: http.MethodDelete, Path: path})
}

func (f *fakeAPI) GetBlob(ctx context.Context, path string, query url.Values) (*apiclient.Blob, error) {
	resp, err := f.Get(ctx, path, query)
	if err != nil {
		return nil, err
	}
	return &apiclient.Blob{Data: resp.Body, ContentType: "application/octet-stream"}, nil
}

func newTestServices(api API) (*Services, *session.Manager) {
	sess := session.NewManager(session.NewMemoryStore())
	return New(api, sess), sess
}
