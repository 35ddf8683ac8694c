package rpcserver

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"anchorsvm/internal/pkg/metrics"
	"anchorsvm/svm"
)

const apiVersion = "1.16.0"

type signatureStatus struct {
	Slot uint64
	Err  error
}

func (s *Server) handleRequest(req rpcRequest) rpcResponse {
	if rpcErr := checkJsonRpcBody(req); rpcErr != nil {
		metrics.IncRpcErrorsCnt(req.Method)
		return errorResponse(req.ID, rpcErr)
	}

	start := time.Now()
	result, rpcErr := s.dispatch(req)
	metrics.ObserveProcessingTime(req.Method, time.Since(start))

	if rpcErr != nil {
		metrics.IncRpcErrorsCnt(req.Method)
		return errorResponse(req.ID, rpcErr)
	}

	return resultResponse(req.ID, result)
}

func (s *Server) dispatch(req rpcRequest) (interface{}, *jsonrpc.RPCError) {
	switch req.Method {
	case "getHealth":
		return "ok", nil
	case "getVersion":
		return map[string]interface{}{"solana-core": apiVersion, "feature-set": 0}, nil
	case "getSlot":
		return s.vm.Slot(), nil
	case "getTransactionCount":
		return s.vm.TransactionCount(), nil
	case "getLatestBlockhash":
		return s.getLatestBlockhash(), nil
	case "getBalance":
		return s.getBalance(req.Params)
	case "getAccountInfo":
		return s.getAccountInfo(req.Params)
	case "getMinimumBalanceForRentExemption":
		return s.getMinimumBalanceForRentExemption(req.Params)
	case "requestAirdrop":
		return s.requestAirdrop(req.Params)
	case "sendTransaction":
		return s.sendTransaction(req.Params)
	case "getSignatureStatuses":
		return s.getSignatureStatuses(req.Params)
	default:
		return nil, rpcError(MethodNotFoundErrCode, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func (s *Server) contextFor(value interface{}) contextualResult {
	return contextualResult{
		Context: rpcContext{Slot: s.vm.Slot(), APIVersion: apiVersion},
		Value:   value,
	}
}

func (s *Server) getLatestBlockhash() interface{} {
	return s.contextFor(map[string]interface{}{
		"blockhash":            s.vm.LatestBlockhash().String(),
		"lastValidBlockHeight": s.vm.Slot() + 150,
	})
}

func (s *Server) getBalance(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
	pubkey, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	return s.contextFor(s.vm.GetBalance(pubkey)), nil
}

func (s *Server) getAccountInfo(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil || len(raw) == 0 {
		return nil, rpcError(InvalidParamsErrCode, "expected [pubkey, config?]")
	}

	var pubkeyStr string
	if err := json.Unmarshal(raw[0], &pubkeyStr); err != nil {
		return nil, rpcError(InvalidParamsErrCode, "pubkey must be a string")
	}
	pubkey, err := solana.PublicKeyFromBase58(pubkeyStr)
	if err != nil {
		return nil, rpcError(InvalidParamsErrCode, fmt.Sprintf("invalid pubkey: %s", err))
	}

	encoding := "base64"
	if len(raw) > 1 {
		var cfg struct {
			Encoding string `json:"encoding"`
		}
		if err = json.Unmarshal(raw[1], &cfg); err == nil && cfg.Encoding != "" {
			encoding = cfg.Encoding
		}
	}

	acc, err := s.vm.GetAccount(pubkey)
	if err != nil {
		if errors.Is(err, svm.ErrAccountNotFound) {
			return s.contextFor(nil), nil
		}
		return nil, rpcError(InternalErrorErrCode, err.Error())
	}

	var data []string
	switch encoding {
	case "base58":
		data = []string{base58.Encode(acc.Data), "base58"}
	case "base64":
		data = []string{base64.StdEncoding.EncodeToString(acc.Data), "base64"}
	default:
		return nil, rpcError(InvalidParamsErrCode, fmt.Sprintf("unsupported encoding: %s", encoding))
	}

	return s.contextFor(map[string]interface{}{
		"lamports":   acc.Lamports,
		"owner":      acc.Owner.String(),
		"data":       data,
		"executable": acc.Executable,
		"rentEpoch":  acc.RentEpoch,
		"space":      len(acc.Data),
	}), nil
}

func (s *Server) getMinimumBalanceForRentExemption(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil || len(raw) == 0 {
		return nil, rpcError(InvalidParamsErrCode, "expected [dataLen]")
	}
	var dataLen uint64
	if err := json.Unmarshal(raw[0], &dataLen); err != nil {
		return nil, rpcError(InvalidParamsErrCode, "dataLen must be a number")
	}

	return s.vm.MinimumBalanceForRentExemption(dataLen), nil
}

func (s *Server) requestAirdrop(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil || len(raw) < 2 {
		return nil, rpcError(InvalidParamsErrCode, "expected [pubkey, lamports]")
	}

	var pubkeyStr string
	if err := json.Unmarshal(raw[0], &pubkeyStr); err != nil {
		return nil, rpcError(InvalidParamsErrCode, "pubkey must be a string")
	}
	pubkey, err := solana.PublicKeyFromBase58(pubkeyStr)
	if err != nil {
		return nil, rpcError(InvalidParamsErrCode, fmt.Sprintf("invalid pubkey: %s", err))
	}

	var lamports uint64
	if err = json.Unmarshal(raw[1], &lamports); err != nil {
		return nil, rpcError(InvalidParamsErrCode, "lamports must be a number")
	}

	if limit := s.cfg.Genesis.AirdropCap; limit != 0 && lamports > limit {
		metrics.IncAirdropsCnt(metrics.StatusFailed)
		return nil, rpcError(InvalidParamsErrCode, fmt.Sprintf("airdrop above cap of %d lamports", limit))
	}

	s.vm.Airdrop(pubkey, lamports)
	metrics.IncAirdropsCnt(metrics.StatusSuccess)

	sig, err := randomSignature()
	if err != nil {
		return nil, rpcError(InternalErrorErrCode, err.Error())
	}
	s.statusCache.SetDefault(sig.String(), signatureStatus{Slot: s.vm.Slot()})

	return sig.String(), nil
}

func (s *Server) sendTransaction(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil || len(raw) == 0 {
		return nil, rpcError(InvalidParamsErrCode, "expected [transaction, config?]")
	}

	var encoded string
	if err := json.Unmarshal(raw[0], &encoded); err != nil {
		return nil, rpcError(InvalidParamsErrCode, "transaction must be a string")
	}

	encoding := "base58"
	if len(raw) > 1 {
		var cfg struct {
			Encoding string `json:"encoding"`
		}
		if err := json.Unmarshal(raw[1], &cfg); err == nil && cfg.Encoding != "" {
			encoding = cfg.Encoding
		}
	}

	var txBytes []byte
	var err error
	switch encoding {
	case "base58":
		txBytes, err = base58.Decode(encoded)
	case "base64":
		txBytes, err = base64.StdEncoding.DecodeString(encoded)
	default:
		return nil, rpcError(InvalidParamsErrCode, fmt.Sprintf("unsupported encoding: %s", encoding))
	}
	if err != nil {
		return nil, rpcError(InvalidParamsErrCode, fmt.Sprintf("decode transaction: %s", err))
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(txBytes))
	if err != nil {
		return nil, rpcError(InvalidParamsErrCode, fmt.Sprintf("deserialize transaction: %s", err))
	}

	meta, err := s.vm.SendTransaction(tx)
	if err != nil {
		metrics.IncTransactionsCnt(metrics.StatusFailed)

		var txErr *svm.TransactionError
		if errors.As(err, &txErr) {
			metrics.ObserveComputeUnitsPerTx(metrics.StatusFailed, txErr.Meta.ComputeUnitsConsumed)
			return nil, rpcErrorWithData(SendTransactionPreflightFailureErrCode, err.Error(), map[string]interface{}{
				"logs": txErr.Meta.Logs,
			})
		}
		return nil, rpcError(SendTransactionPreflightFailureErrCode, err.Error())
	}

	metrics.IncTransactionsCnt(metrics.StatusSuccess)
	metrics.ObserveComputeUnitsPerTx(metrics.StatusSuccess, meta.ComputeUnitsConsumed)
	s.statusCache.SetDefault(meta.Signature.String(), signatureStatus{Slot: meta.Slot})

	return meta.Signature.String(), nil
}

func (s *Server) getSignatureStatuses(params json.RawMessage) (interface{}, *jsonrpc.RPCError) {
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil || len(raw) == 0 {
		return nil, rpcError(InvalidParamsErrCode, "expected [[signature, ...]]")
	}

	var sigs []string
	if err := json.Unmarshal(raw[0], &sigs); err != nil {
		return nil, rpcError(InvalidParamsErrCode, "signatures must be an array of strings")
	}

	statuses := make([]interface{}, 0, len(sigs))
	for _, sigStr := range sigs {
		status, ok := s.lookupStatus(sigStr)
		if !ok {
			statuses = append(statuses, nil)
			continue
		}

		entry := map[string]interface{}{
			"slot":               status.Slot,
			"confirmations":      nil,
			"err":                nil,
			"confirmationStatus": "finalized",
		}
		if status.Err != nil {
			entry["err"] = status.Err.Error()
		}
		statuses = append(statuses, entry)
	}

	return s.contextFor(statuses), nil
}

func (s *Server) lookupStatus(sigStr string) (signatureStatus, bool) {
	if cached, ok := s.statusCache.Get(sigStr); ok {
		return cached.(signatureStatus), true
	}

	sig, err := solana.SignatureFromBase58(sigStr)
	if err != nil {
		return signatureStatus{}, false
	}
	meta, err := s.vm.GetTransaction(sig)
	if err != nil {
		return signatureStatus{}, false
	}

	return signatureStatus{Slot: meta.Slot}, true
}

func parsePubkeyParam(params json.RawMessage) (solana.PublicKey, *jsonrpc.RPCError) {
	var raw []json.RawMessage
	if err := json.Unmarshal(params, &raw); err != nil || len(raw) == 0 {
		return solana.PublicKey{}, rpcError(InvalidParamsErrCode, "expected [pubkey]")
	}

	var pubkeyStr string
	if err := json.Unmarshal(raw[0], &pubkeyStr); err != nil {
		return solana.PublicKey{}, rpcError(InvalidParamsErrCode, "pubkey must be a string")
	}

	pubkey, err := solana.PublicKeyFromBase58(pubkeyStr)
	if err != nil {
		return solana.PublicKey{}, rpcError(InvalidParamsErrCode, fmt.Sprintf("invalid pubkey: %s", err))
	}

	return pubkey, nil
}

func randomSignature() (sig solana.Signature, err error) {
	if _, err = rand.Read(sig[:]); err != nil {
		return sig, fmt.Errorf("rand.Read: %s", err)
	}

	return sig, nil
}
