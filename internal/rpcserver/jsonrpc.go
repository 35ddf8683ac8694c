package rpcserver

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

const jsonrpcVersion = "2.0"

const (
	SendTransactionPreflightFailureErrCode = -32002
	ParseErrCode                           = -32700
	InvalidRequestErrCode                  = -32600
	MethodNotFoundErrCode                  = -32601
	InvalidParamsErrCode                   = -32602
	InternalErrorErrCode                   = -32603
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string            `json:"jsonrpc"`
	ID      interface{}       `json:"id"`
	Result  interface{}       `json:"result,omitempty"`
	Error   *jsonrpc.RPCError `json:"error,omitempty"`
}

// rpcContext is the slot envelope most account-scoped results carry.
type rpcContext struct {
	Slot       uint64 `json:"slot"`
	APIVersion string `json:"apiVersion"`
}

type contextualResult struct {
	Context rpcContext  `json:"context"`
	Value   interface{} `json:"value"`
}

func rpcError(code int, message string) *jsonrpc.RPCError {
	return &jsonrpc.RPCError{Code: code, Message: message}
}

func rpcErrorWithData(code int, message string, data map[string]interface{}) *jsonrpc.RPCError {
	return &jsonrpc.RPCError{Code: code, Message: message, Data: data}
}

func errorResponse(id interface{}, rpcErr *jsonrpc.RPCError) rpcResponse {
	return rpcResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Error:   rpcErr,
	}
}

func resultResponse(id interface{}, result interface{}) rpcResponse {
	return rpcResponse{
		JSONRPC: jsonrpcVersion,
		ID:      id,
		Result:  result,
	}
}

func checkJsonRpcBody(req rpcRequest) *jsonrpc.RPCError {
	if req.JSONRPC != jsonrpcVersion {
		return rpcError(InvalidRequestErrCode, "invalid jsonrpc version")
	}
	if req.Method == "" {
		return rpcError(InvalidRequestErrCode, "empty method")
	}

	return nil
}
