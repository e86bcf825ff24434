package sovereign

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"nexus-defi/internal/pda"
	"nexus-defi/internal/sol/rpc"
)

var DefaultProgramID = solana.MustPublicKeyFromBase58("2UAZc1jj4QTSkgrC8U9d4a7EM9AQunxMvW5g7rX7Af9T")

func DeriveIdentity(programID, wallet solana.PublicKey) (pda.Address, error) {
	return pda.Find(programID, pda.SeedString("identity"), pda.SeedKey(wallet))
}

type Client struct {
	programID solana.PublicKey
	reader    rpc.AccountReader
	log       *zap.Logger
}

func NewClient(programID solana.PublicKey, reader rpc.AccountReader, log *zap.Logger) *Client {
	if programID.IsZero() {
		programID = DefaultProgramID
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{programID: programID, reader: reader, log: log}
}

func (c *Client) GetIdentity(ctx context.Context, wallet solana.PublicKey) (Identity, error) {
	addr, err := DeriveIdentity(c.programID, wallet)
	if err != nil {
		return Identity{}, err
	}
	data, err := c.reader.AccountData(ctx, addr.Key)
	if err != nil {
		return Identity{}, fmt.Errorf("no identity for wallet %s (pda %s): %w", wallet, addr.Key, err)
	}
	return ParseIdentity(data)
}
