package embedded

import (
	"testing"

	"github.com/sassgo/sassgo/internal/embedded/proto"
)

func TestCompileHandlerSuccess(t *testing.T) {
	req := &proto.CompileRequest{IsString: true, Source: `.a { color: red; }`}
	respPayload, err := CompileHandler(req.Marshal())
	if err != nil {
		t.Fatalf("handler returned an error: %v", err)
	}
	resp, err := proto.UnmarshalCompileResponse(respPayload)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected compile error: %s", resp.Error.Message)
	}
	want := ".a {\n  color: red;\n}\n"
	if resp.CSS != want {
		t.Errorf("got %q, want %q", resp.CSS, want)
	}
}

func TestCompileHandlerReportsFailure(t *testing.T) {
	req := &proto.CompileRequest{IsString: true, Source: `.a { color: $missing; }`}
	respPayload, err := CompileHandler(req.Marshal())
	if err != nil {
		t.Fatalf("handler returned an error: %v", err)
	}
	resp, err := proto.UnmarshalCompileResponse(respPayload)
	if err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if resp.Error == nil {
		t.Fatalf("expected a compile error for an undefined variable")
	}
}
