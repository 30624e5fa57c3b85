// Package rpc exposes the doc-comment toolchain over JSON-RPC 2.0 on
// stdin/stdout, so editors and build tooling can query tags, parse type
// expressions and fetch project diagnostics without shelling out per
// request.
package rpc

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/phpdc/phpdc/internal/check"
	"github.com/phpdc/phpdc/internal/diag"
	"github.com/phpdc/phpdc/internal/php"
	"github.com/phpdc/phpdc/internal/phpdoc"
)

// Server answers doc-comment queries against an indexed project.
type Server struct {
	classes *php.ClassTable
	checker *check.Checker
	conn    *jsonrpc2.Conn
}

func NewServer(classes *php.ClassTable, checker *check.Checker) *Server {
	return &Server{classes: classes, checker: checker}
}

// TagsParams asks for the tags of one doc-comment body (delimiters
// already stripped).
type TagsParams struct {
	Doc      string `json:"doc"`
	DeclLine int    `json:"declLine,omitempty"`
}

// TagResult is one extracted tag.
type TagResult struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Line    int    `json:"line"`
	VarName string `json:"varName,omitempty"`
	Type    string `json:"type,omitempty"`
}

// ParseTypeParams asks for a type expression to be parsed in the given
// import context.
type ParseTypeParams struct {
	Type      string            `json:"type"`
	Namespace string            `json:"namespace,omitempty"`
	Uses      map[string]string `json:"uses,omitempty"`
	Aliases   map[string]string `json:"aliases,omitempty"`
	Class     string            `json:"class,omitempty"`
}

// ParseTypeResult carries the normalized form of a parsed type.
type ParseTypeResult struct {
	Type       string            `json:"type"`
	Unresolved []string          `json:"unresolved,omitempty"`
	Lints      []diag.Diagnostic `json:"lints,omitempty"`
}

// CheckResult carries the project diagnostics.
type CheckResult struct {
	Diagnostics []diag.Diagnostic `json:"diagnostics"`
}

// RunServer serves JSON-RPC requests until the peer disconnects.
func (s *Server) RunServer(in io.Reader, out io.Writer) error {
	stream := jsonrpc2.NewBufferedStream(rwc{in, out}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(context.Background(), stream, jsonrpc2.HandlerWithError(s.handle))
	s.conn = conn

	<-conn.DisconnectNotify()
	return nil
}

// rwc combines a reader and writer into a single ReadWriteCloser
type rwc struct {
	io.Reader
	io.Writer
}

func (rwc) Close() error {
	return nil
}

func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "phpdoc/tags":
		if req.Params == nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
		}
		var params TagsParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeParseError, Message: err.Error()}
		}
		return s.tags(&params)

	case "phpdoc/parseType":
		if req.Params == nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: "missing params"}
		}
		var params ParseTypeParams
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeParseError, Message: err.Error()}
		}
		return s.parseType(&params)

	case "phpdoc/check":
		return s.check(), nil

	case "shutdown":
		return nil, nil

	case "exit":
		log.Println("Received exit notification, exiting")
		conn.Close()
		return nil, nil

	default:
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not supported: " + req.Method}
	}
}

func (s *Server) tags(params *TagsParams) (interface{}, error) {
	tags, err := phpdoc.Parse(params.Doc, params.DeclLine)
	if err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}

	results := make([]TagResult, 0, len(tags))
	for i := range tags {
		tag := &tags[i]
		// The extractor's first element is a pseudo-tag collecting free
		// text before the first real tag.
		if tag.Name == "" {
			continue
		}
		v := tag.Split()
		results = append(results, TagResult{
			Name:    tag.Name,
			Value:   tag.Value,
			Line:    tag.Line,
			VarName: v.VarName,
			Type:    v.Type,
		})
	}
	return results, nil
}

func (s *Server) parseType(params *ParseTypeParams) (interface{}, error) {
	aliases := php.NewAliasResolver(params.Namespace, params.Uses, params.Aliases)
	resolver := php.NewDocResolver(aliases, s.classes)
	if params.Class != "" {
		resolver = resolver.ForClass(params.Class)
	}

	parser := phpdoc.NewTypeParser(resolver)
	expr, err := parser.ParseTypeString(params.Type)
	if err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}

	return ParseTypeResult{
		Type:       expr.String(),
		Unresolved: parser.Unresolved(),
		Lints:      parser.Lints(),
	}, nil
}

func (s *Server) check() CheckResult {
	return CheckResult{Diagnostics: s.checker.Diagnostics().Items()}
}
