package embedded

import (
	"github.com/sassgo/sassgo/internal/compiler"
	"github.com/sassgo/sassgo/internal/embedded/proto"
	"github.com/sassgo/sassgo/internal/logger"
	"github.com/sassgo/sassgo/internal/sasserr"
)

// CompileHandler turns an incoming CompileRequest frame into a
// CompileResponse frame, the Handler a service hands to NewDispatcher
// to answer a host's compile/compileString RPC (spec section 4.7).
func CompileHandler(payload []byte) ([]byte, error) {
	req, err := proto.UnmarshalCompileRequest(payload)
	if err != nil {
		return nil, sasserr.Usage("malformed compile request: %s", err.Error())
	}

	log := logger.NewDeferLog()
	opts := compiler.Options{SourceMap: req.SourceMap, Charset: req.Charset, Log: log}
	opts.Style.Compressed = req.Compressed

	var result compiler.CompileResult
	if req.IsString {
		result, err = compiler.CompileString(req.Source, opts)
	} else {
		result, err = compiler.Compile(req.Path, opts)
	}
	if err != nil {
		kind := proto.ErrorInternal
		if se, ok := err.(*sasserr.Error); ok {
			switch se.Kind {
			case sasserr.KindParse:
				kind = proto.ErrorParse
			case sasserr.KindUsage, sasserr.KindFilesystem, sasserr.KindRuntime:
				kind = proto.ErrorParams
			}
		}
		resp := &proto.CompileResponse{Error: &proto.ErrorResponse{Kind: kind, Message: err.Error()}}
		return resp.Marshal(), nil
	}

	resp := &proto.CompileResponse{CSS: result.CSS, SourceMap: result.SourceMap}
	for _, msg := range log.Done() {
		if msg.Kind == logger.Warning {
			resp.Warnings = append(resp.Warnings, msg.Data.Text)
		}
	}
	return resp.Marshal(), nil
}
