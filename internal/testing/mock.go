package testing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tarantool/go-iproto"
	"github.com/tarantool/go-tarantool/v2"
	"github.com/vmihailenco/msgpack/v5"
)

var errNoResponses = errors.New("no responses left")

// MockRequest is an empty request whose responses decode the raw body.
type MockRequest struct{}

var _ tarantool.Request = &MockRequest{}

// NewMockRequest creates a new mock request.
func NewMockRequest() *MockRequest {
	return &MockRequest{}
}

// Type returns the request type.
func (r *MockRequest) Type() iproto.Type {
	return iproto.IPROTO_CALL
}

// Async reports whether the request expects a response.
func (r *MockRequest) Async() bool {
	return false
}

// Body writes nothing.
func (r *MockRequest) Body(_ tarantool.SchemaResolver, _ *msgpack.Encoder) error {
	return nil
}

// Ctx returns a background context.
func (r *MockRequest) Ctx() context.Context {
	return context.Background()
}

// Response creates a MockResponse from the body.
func (r *MockRequest) Response(header tarantool.Header, body io.Reader) (tarantool.Response, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &MockResponse{header: header, data: data}, nil
}

// MockResponse is a response holding a msgpack encoded body.
type MockResponse struct {
	header tarantool.Header
	data   []byte
}

var _ tarantool.Response = &MockResponse{} //nolint:exhaustruct

// NewMockResponse encodes body with msgpack into a new response.
func NewMockResponse(t T, body any) *MockResponse {
	t.Helper()

	buf := bytes.NewBuffer(nil)

	enc := msgpack.NewEncoder(buf)
	if err := enc.Encode(body); err != nil {
		t.Fatalf("failed to encode response body: %s", err)
	}

	return &MockResponse{
		header: tarantool.Header{}, //nolint:exhaustruct
		data:   buf.Bytes(),
	}
}

// Header returns the response header.
func (r *MockResponse) Header() tarantool.Header {
	return r.header
}

// Decode decodes the body into a slice.
func (r *MockResponse) Decode() ([]any, error) {
	if r.data == nil {
		return nil, nil
	}

	out, err := msgpack.NewDecoder(bytes.NewReader(r.data)).DecodeSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return out, nil
}

// DecodeTyped decodes the body into res.
func (r *MockResponse) DecodeTyped(res any) error {
	if r.data == nil {
		return nil
	}

	if err := msgpack.NewDecoder(bytes.NewReader(r.data)).Decode(res); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
