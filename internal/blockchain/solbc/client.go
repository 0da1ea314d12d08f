// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"go.uber.org/zap"
)

// RPC is the subset of the Solana JSON-RPC API the gateway needs.
type RPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Client is a thin solana-go rpc adapter that logs failed calls.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

// NewClient connects to rpcURL.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("solbc-client"),
	}
}

func (c *Client) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, commitment)
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

func (c *Client) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, opts)
	if err != nil {
		c.logger.Error("SendTransactionWithOpts error", rpcErrorFields(err)...)
		return solana.Signature{}, err
	}
	return sig, nil
}

func (c *Client) GetSignatureStatuses(ctx context.Context, searchHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, searchHistory, sigs...)
	if err != nil {
		c.logger.Warn("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// rpcErrorFields extracts code, message and simulation logs from a
// JSON-RPC error.
func rpcErrorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}

	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return fields
	}
	fields = append(fields,
		zap.Int("rpc_code", rpcErr.Code),
		zap.String("rpc_message", rpcErr.Message))

	if data, ok := rpcErr.Data.(map[string]interface{}); ok {
		if logs, ok := data["logs"].([]interface{}); ok {
			fields = append(fields, zap.Any("simulation_logs", logs))
		}
	}
	return fields
}

// isBlockhashNotFound reports a rejected transaction whose blockhash the
// node does not know. The transaction was not processed.
func isBlockhashNotFound(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "BlockhashNotFound") ||
		strings.Contains(msg, "Blockhash not found")
}

// isAlreadyProcessed reports a resend of a transaction that already landed.
func isAlreadyProcessed(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already been processed") ||
		strings.Contains(msg, "alreadyprocessed")
}

// isTransientSendError reports errors after which the same signed
// transaction may be resent.
func isTransientSendError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") ||
		strings.Contains(strings.ToLower(msg), "timeout")
}

var _ RPC = (*Client)(nil)
