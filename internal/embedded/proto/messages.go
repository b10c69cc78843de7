// Package proto defines the embedded-protocol wire messages by hand,
// field by field, against google.golang.org/protobuf/encoding/protowire
// directly rather than through protoc-generated types -- this
// environment has no protoc available to regenerate .pb.go sources
// from a .proto schema, so the messages are written the way the
// teacher's own cmd/esbuild/stdio_protocol.go hand-writes its
// length-prefixed request/response framing: by encoding and decoding
// fields explicitly instead of relying on a generated marshaler.
package proto

import "github.com/sassgo/sassgo/internal/embedded/protowire"

// ErrorKind is spec section 4.7's PARSE/PARAMS/INTERNAL taxonomy for a
// failed embedded-protocol request.
type ErrorKind int32

const (
	ErrorParse ErrorKind = iota
	ErrorParams
	ErrorInternal
)

// CanonicalizeRequest asks the host to canonicalize url, the remote
// counterpart of internal/importer.Importer.Canonicalize; FromImport
// reports whether the URL comes from an @import.
type CanonicalizeRequest struct {
	ImporterID uint32
	URL        string
	FromImport bool
}

func (m *CanonicalizeRequest) Marshal() []byte {
	var b []byte
	b = protowire.AppendVarintField(b, 1, uint64(m.ImporterID))
	b = protowire.AppendStringField(b, 2, m.URL)
	b = protowire.AppendBoolField(b, 3, m.FromImport)
	return b
}

func UnmarshalCanonicalizeRequest(b []byte) (*CanonicalizeRequest, error) {
	m := &CanonicalizeRequest{}
	return m, protowire.Walk(b, func(num int32, typ protowire.Type, v protowire.Value) error {
		switch num {
		case 1:
			m.ImporterID = uint32(v.Varint)
		case 2:
			m.URL = v.String
		case 3:
			m.FromImport = v.Varint != 0
		}
		return nil
	})
}

// CanonicalizeResponse carries either a canonical URL or an error.
type CanonicalizeResponse struct {
	URL   string
	Error *ErrorResponse
}

func (m *CanonicalizeResponse) Marshal() []byte {
	var b []byte
	if m.Error != nil {
		b = protowire.AppendBytesField(b, 2, m.Error.Marshal())
		return b
	}
	b = protowire.AppendStringField(b, 1, m.URL)
	return b
}

func UnmarshalCanonicalizeResponse(b []byte) (*CanonicalizeResponse, error) {
	m := &CanonicalizeResponse{}
	err := protowire.Walk(b, func(num int32, typ protowire.Type, v protowire.Value) error {
		switch num {
		case 1:
			m.URL = v.String
		case 2:
			errMsg, err := UnmarshalErrorResponse(v.Bytes)
			if err != nil {
				return err
			}
			m.Error = errMsg
		}
		return nil
	})
	return m, err
}

// LoadRequest asks the host to load the contents behind a canonical
// URL already resolved by a prior Canonicalize round trip.
type LoadRequest struct {
	ImporterID uint32
	URL        string
}

func (m *LoadRequest) Marshal() []byte {
	var b []byte
	b = protowire.AppendVarintField(b, 1, uint64(m.ImporterID))
	b = protowire.AppendStringField(b, 2, m.URL)
	return b
}

func UnmarshalLoadRequest(b []byte) (*LoadRequest, error) {
	m := &LoadRequest{}
	return m, protowire.Walk(b, func(num int32, typ protowire.Type, v protowire.Value) error {
		switch num {
		case 1:
			m.ImporterID = uint32(v.Varint)
		case 2:
			m.URL = v.String
		}
		return nil
	})
}

type LoadResponse struct {
	Contents string
	Syntax   int32
	Error    *ErrorResponse
}

func (m *LoadResponse) Marshal() []byte {
	var b []byte
	if m.Error != nil {
		b = protowire.AppendBytesField(b, 3, m.Error.Marshal())
		return b
	}
	b = protowire.AppendStringField(b, 1, m.Contents)
	b = protowire.AppendVarintField(b, 2, uint64(m.Syntax))
	return b
}

func UnmarshalLoadResponse(b []byte) (*LoadResponse, error) {
	m := &LoadResponse{}
	err := protowire.Walk(b, func(num int32, typ protowire.Type, v protowire.Value) error {
		switch num {
		case 1:
			m.Contents = v.String
		case 2:
			m.Syntax = int32(v.Varint)
		case 3:
			errMsg, err := UnmarshalErrorResponse(v.Bytes)
			if err != nil {
				return err
			}
			m.Error = errMsg
		}
		return nil
	})
	return m, err
}

// FunctionCallRequest invokes a host-defined Sass function registered
// for this compilation (spec section 4.3 step 3's host callables).
type FunctionCallRequest struct {
	FunctionID uint32
	Name       string
	Arguments  []string // each argument pre-serialized to its CSS/Sass textual form
}

func (m *FunctionCallRequest) Marshal() []byte {
	var b []byte
	b = protowire.AppendVarintField(b, 1, uint64(m.FunctionID))
	b = protowire.AppendStringField(b, 2, m.Name)
	for _, arg := range m.Arguments {
		b = protowire.AppendStringField(b, 3, arg)
	}
	return b
}

func UnmarshalFunctionCallRequest(b []byte) (*FunctionCallRequest, error) {
	m := &FunctionCallRequest{}
	err := protowire.Walk(b, func(num int32, typ protowire.Type, v protowire.Value) error {
		switch num {
		case 1:
			m.FunctionID = uint32(v.Varint)
		case 2:
			m.Name = v.String
		case 3:
			m.Arguments = append(m.Arguments, v.String)
		}
		return nil
	})
	return m, err
}

type FunctionCallResponse struct {
	Result string
	Error  *ErrorResponse
}

func (m *FunctionCallResponse) Marshal() []byte {
	var b []byte
	if m.Error != nil {
		b = protowire.AppendBytesField(b, 2, m.Error.Marshal())
		return b
	}
	b = protowire.AppendStringField(b, 1, m.Result)
	return b
}

func UnmarshalFunctionCallResponse(b []byte) (*FunctionCallResponse, error) {
	m := &FunctionCallResponse{}
	err := protowire.Walk(b, func(num int32, typ protowire.Type, v protowire.Value) error {
		switch num {
		case 1:
			m.Result = v.String
		case 2:
			errMsg, err := UnmarshalErrorResponse(v.Bytes)
			if err != nil {
				return err
			}
			m.Error = errMsg
		}
		return nil
	})
	return m, err
}

// CompileRequest is the top-level RPC a host issues to compile one
// file or string (spec section 6's compile/compileString, carried over
// the wire instead of called as a Go function).
type CompileRequest struct {
	CompilationID uint32
	Path          string // set when IsString is false
	Source        string // set when IsString is true
	IsString      bool
	Compressed    bool
	SourceMap     bool
	Charset       bool
}

func (m *CompileRequest) Marshal() []byte {
	var b []byte
	b = protowire.AppendVarintField(b, 1, uint64(m.CompilationID))
	b = protowire.AppendStringField(b, 2, m.Path)
	b = protowire.AppendStringField(b, 3, m.Source)
	b = protowire.AppendBoolField(b, 4, m.IsString)
	b = protowire.AppendBoolField(b, 5, m.Compressed)
	b = protowire.AppendBoolField(b, 6, m.SourceMap)
	b = protowire.AppendBoolField(b, 7, m.Charset)
	return b
}

func UnmarshalCompileRequest(b []byte) (*CompileRequest, error) {
	m := &CompileRequest{}
	err := protowire.Walk(b, func(num int32, typ protowire.Type, v protowire.Value) error {
		switch num {
		case 1:
			m.CompilationID = uint32(v.Varint)
		case 2:
			m.Path = v.String
		case 3:
			m.Source = v.String
		case 4:
			m.IsString = v.Varint != 0
		case 5:
			m.Compressed = v.Varint != 0
		case 6:
			m.SourceMap = v.Varint != 0
		case 7:
			m.Charset = v.Varint != 0
		}
		return nil
	})
	return m, err
}

// CompileResponse carries CompileRequest's result: the rendered CSS,
// an optional source map, and whichever diagnostics the compile raised
// (warnings alongside a successful compile, or exactly the failure
// reason when Error is set).
type CompileResponse struct {
	CSS       string
	SourceMap string
	Warnings  []string
	Error     *ErrorResponse
}

func (m *CompileResponse) Marshal() []byte {
	var b []byte
	b = protowire.AppendStringField(b, 1, m.CSS)
	b = protowire.AppendStringField(b, 2, m.SourceMap)
	for _, w := range m.Warnings {
		b = protowire.AppendStringField(b, 3, w)
	}
	if m.Error != nil {
		b = protowire.AppendBytesField(b, 4, m.Error.Marshal())
	}
	return b
}

func UnmarshalCompileResponse(b []byte) (*CompileResponse, error) {
	m := &CompileResponse{}
	err := protowire.Walk(b, func(num int32, typ protowire.Type, v protowire.Value) error {
		switch num {
		case 1:
			m.CSS = v.String
		case 2:
			m.SourceMap = v.String
		case 3:
			m.Warnings = append(m.Warnings, v.String)
		case 4:
			errMsg, err := UnmarshalErrorResponse(v.Bytes)
			if err != nil {
				return err
			}
			m.Error = errMsg
		}
		return nil
	})
	return m, err
}

// ErrorResponse is attached to a response (field 2, 3 or 4, depending on
// the message) in place of a successful payload when the request fails.
type ErrorResponse struct {
	Kind    ErrorKind
	Message string
}

func (m *ErrorResponse) Marshal() []byte {
	var b []byte
	b = protowire.AppendVarintField(b, 1, uint64(m.Kind))
	b = protowire.AppendStringField(b, 2, m.Message)
	return b
}

func UnmarshalErrorResponse(b []byte) (*ErrorResponse, error) {
	m := &ErrorResponse{}
	err := protowire.Walk(b, func(num int32, typ protowire.Type, v protowire.Value) error {
		switch num {
		case 1:
			m.Kind = ErrorKind(v.Varint)
		case 2:
			m.Message = v.String
		}
		return nil
	})
	return m, err
}
