package llm

import (
	"context"
	"sync"
)

// FakeClient is a scripted Client for tests in other packages.
type FakeClient struct {
	mu       sync.Mutex
	Reply    string
	Err      error
	Requests []Request
}

func (f *FakeClient) Chat(_ context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return nil, f.Err
	}
	return &Response{Content: f.Reply}, nil
}

func (f *FakeClient) Model() string {
	return "fake"
}

// LastRequest returns the most recent request, or the zero value.
func (f *FakeClient) LastRequest() Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Requests) == 0 {
		return Request{}
	}
	return f.Requests[len(f.Requests)-1]
}
