package rpc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// TxResult is the outcome of one submission. Failures are reported here,
// not as errors, so callers can record them.
type TxResult struct {
	Signature string `json:"signature" msgpack:"signature"`
	Success   bool   `json:"success" msgpack:"success"`
	Error     string `json:"error,omitempty" msgpack:"error,omitempty"`
}

func failed(err error) TxResult {
	return TxResult{Success: false, Error: err.Error()}
}

// Submitter signs, sends and confirms instructions.
type Submitter interface {
	Submit(ctx context.Context, signer solana.PrivateKey, instructions ...solana.Instruction) TxResult
}

// Submit sends the instructions in one transaction paid by signer and waits
// until the signature reaches confirmed or finalized.
func (c *Client) Submit(ctx context.Context, signer solana.PrivateKey, instructions ...solana.Instruction) TxResult {
	sig, err := c.send(ctx, signer, instructions)
	if err != nil {
		c.log.Warn("transaction send failed", zap.Error(err))
		return failed(err)
	}
	res := TxResult{Signature: sig.String()}
	if err := c.waitForConfirmation(ctx, sig); err != nil {
		c.log.Warn("transaction not confirmed", zap.String("signature", res.Signature), zap.Error(err))
		res.Error = err.Error()
		return res
	}
	res.Success = true
	c.log.Info("transaction confirmed", zap.String("signature", res.Signature))
	return res
}

func (c *Client) send(ctx context.Context, signer solana.PrivateKey, instructions []solana.Instruction) (solana.Signature, error) {
	if len(signer) == 0 {
		return solana.Signature{}, errors.New("signer is required")
	}
	payer := signer.PublicKey()

	rctx, cancel := c.withTimeout(ctx)
	recent, err := c.rpc.GetLatestBlockhash(rctx, c.commitment)
	cancel()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("build transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if payer.Equals(key) {
			return &signer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("sign transaction: %w", err)
	}

	sctx, cancel := c.withTimeout(ctx)
	defer cancel()
	sig, err := c.rpc.SendTransactionWithOpts(sctx, tx, solrpc.TransactionOpts{
		PreflightCommitment: c.commitment,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}

func (c *Client) waitForConfirmation(ctx context.Context, sig solana.Signature) error {
	ctx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("confirm %s: %w", sig, ctx.Err())
		case <-ticker.C:
			result, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				c.log.Debug("signature status poll failed", zap.Error(err))
				continue
			}
			if result == nil || len(result.Value) == 0 || result.Value[0] == nil {
				continue
			}
			status := result.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction failed: %v", status.Err)
			}
			if status.ConfirmationStatus == solrpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == solrpc.ConfirmationStatusFinalized {
				return nil
			}
		}
	}
}
