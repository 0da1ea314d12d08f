// internal/blockchain/solbc/gateway.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/token-sniper/internal/trade"
	"github.com/rovshanmuradov/token-sniper/internal/wallet"
)

const (
	DefaultConfirmTimeout = 60 * time.Second
	DefaultSendTimeout    = 30 * time.Second
)

var (
	ErrTransactionFailed = errors.New("transaction failed on chain")
	errNotConfirmed      = errors.New("transaction not yet confirmed")
)

// GatewayConfig configures the live execution gateway.
type GatewayConfig struct {
	RecipientAddress string
	// TransferAmount is the SOL amount moved on every trade.
	TransferAmount float64
	ConfirmTimeout time.Duration
	SendTimeout    time.Duration
	// PriorityFee is the compute-unit price in micro-lamports. Zero adds no
	// compute budget instruction.
	PriorityFee uint64
}

// Gateway executes trades as a signed system-program SOL transfer from the
// wallet to a fixed recipient.
type Gateway struct {
	client    RPC
	wallet    *wallet.Wallet
	recipient solana.PublicKey
	lamports  uint64
	cfg       GatewayConfig
	logger    *zap.Logger

	newBackOff func() backoff.BackOff
}

// NewGateway validates the recipient and converts the transfer to lamports.
func NewGateway(client RPC, w *wallet.Wallet, cfg GatewayConfig, logger *zap.Logger) (*Gateway, error) {
	if w == nil {
		return nil, fmt.Errorf("gateway requires a wallet")
	}
	recipient, err := solana.PublicKeyFromBase58(cfg.RecipientAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	lamports, err := SOLToLamports(cfg.TransferAmount)
	if err != nil {
		return nil, err
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = DefaultConfirmTimeout
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}

	return &Gateway{
		client:    client,
		wallet:    w,
		recipient: recipient,
		lamports:  lamports,
		cfg:       cfg,
		logger:    logger.Named("gateway"),
		newBackOff: func() backoff.BackOff {
			return backoff.NewExponentialBackOff()
		},
	}, nil
}

// SOLToLamports converts a positive SOL amount, truncating sub-lamport dust.
func SOLToLamports(sol float64) (uint64, error) {
	lamports := decimal.NewFromFloat(sol).
		Mul(decimal.NewFromInt(int64(solana.LAMPORTS_PER_SOL))).
		Floor()
	if !lamports.IsPositive() {
		return 0, fmt.Errorf("transfer amount %v SOL is below one lamport", sol)
	}
	return uint64(lamports.IntPart()), nil
}

// Execute sends the transfer and waits for confirmation. The returned
// receipt is the transaction signature. A non-empty receipt returned with an
// error means the transfer may still land.
func (g *Gateway) Execute(ctx context.Context, action trade.Action, tokenAddress string, amount float64) (string, error) {
	logger := g.logger.With(
		zap.String("action", string(action)),
		zap.String("token", tokenAddress),
		zap.Uint64("lamports", g.lamports))

	sig, err := g.send(ctx, logger)
	if err != nil {
		if sig != (solana.Signature{}) {
			return sig.String(), fmt.Errorf("send %s: %w", sig, err)
		}
		return "", err
	}
	logger.Info("Transaction sent", zap.String("signature", sig.String()))

	if err := g.waitConfirmed(ctx, sig); err != nil {
		return sig.String(), fmt.Errorf("confirm %s: %w", sig, err)
	}
	logger.Info("Transaction confirmed", zap.String("signature", sig.String()))
	return sig.String(), nil
}

// send signs the transfer once and resends that same transaction on
// transient errors, so a send that times out after the leader accepted it
// cannot land a second transfer. A new blockhash is used only after the
// node reports the current one unknown and the previous signature is not on
// chain.
func (g *Gateway) send(ctx context.Context, logger *zap.Logger) (solana.Signature, error) {
	var (
		tx       *solana.Transaction
		unsure   bool
		attempts int
	)

	op := func() (solana.Signature, error) {
		if tx == nil {
			built, err := g.buildTransaction(ctx)
			if err != nil {
				return solana.Signature{}, err
			}
			tx, unsure = built, false
		}
		sig := tx.Signatures[0]
		attempts++

		_, err := g.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
			PreflightCommitment: rpc.CommitmentConfirmed,
		})
		switch {
		case err == nil:
			return sig, nil
		case isAlreadyProcessed(err):
			logger.Info("Transaction already processed", zap.String("signature", sig.String()))
			return sig, nil
		case isBlockhashNotFound(err):
			if unsure {
				known, serr := g.signatureKnown(ctx, sig)
				if serr != nil {
					return solana.Signature{}, serr
				}
				if known {
					return sig, nil
				}
			}
			logger.Warn("Blockhash not found, rebuilding transaction", zap.Int("attempt", attempts))
			tx = nil
			return solana.Signature{}, err
		case isTransientSendError(err):
			// The leader may already have it; resend the same signature.
			unsure = true
			logger.Warn("Transient send error, resending", zap.Int("attempt", attempts), zap.Error(err))
			return solana.Signature{}, err
		}
		return solana.Signature{}, backoff.Permanent(fmt.Errorf("send transaction: %w", err))
	}

	sig, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(g.newBackOff()),
		backoff.WithMaxElapsedTime(g.cfg.SendTimeout))
	if err != nil && unsure && tx != nil {
		// Outcome unknown: hand back the signature that may still land.
		return tx.Signatures[0], err
	}
	return sig, err
}

// signatureKnown reports whether the cluster has seen sig.
func (g *Gateway) signatureKnown(ctx context.Context, sig solana.Signature) (bool, error) {
	res, err := g.client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return false, err
	}
	return res != nil && len(res.Value) > 0 && res.Value[0] != nil, nil
}

func (g *Gateway) buildTransaction(ctx context.Context) (*solana.Transaction, error) {
	recent, err := g.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	instructions := make([]solana.Instruction, 0, 2)
	if g.cfg.PriorityFee > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitPriceInstruction(g.cfg.PriorityFee).Build())
	}
	instructions = append(instructions,
		system.NewTransferInstruction(g.lamports, g.wallet.PublicKey, g.recipient).Build())

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(g.wallet.PublicKey),
	)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create transaction: %w", err))
	}

	if err := g.wallet.SignTransaction(tx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to sign transaction: %w", err))
	}
	return tx, nil
}

// waitConfirmed polls the signature status until confirmed or finalized.
func (g *Gateway) waitConfirmed(ctx context.Context, sig solana.Signature) error {
	op := func() (struct{}, error) {
		res, err := g.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return struct{}{}, err
		}
		if res == nil || len(res.Value) == 0 || res.Value[0] == nil {
			return struct{}{}, errNotConfirmed
		}

		status := res.Value[0]
		if status.Err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err))
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return struct{}{}, nil
		}
		return struct{}{}, errNotConfirmed
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(g.newBackOff()),
		backoff.WithMaxElapsedTime(g.cfg.ConfirmTimeout))
	return err
}

var _ trade.Gateway = (*Gateway)(nil)
