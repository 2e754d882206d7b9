package auction

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// Routers sign the "<transferId>:<round>" message with their EOA key using
// the standard personal-message prefix.
func bidDigest(transferID string, round uint64) common.Hash {
	msg := fmt.Sprintf("%s:%d", transferID, round)
	prefixed := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return crypto.Keccak256Hash([]byte(prefixed))
}

func recoverBidSigner(transferID string, round uint64, sig string) (*common.Address, error) {
	sigBytes, err := hexutil.Decode(sig)
	if err != nil {
		return nil, fmt.Errorf("invalid signature hex")
	}
	if len(sigBytes) != 65 {
		return nil, fmt.Errorf("signature must be 65 bytes")
	}

	if sigBytes[64] != 27 && sigBytes[64] != 28 && sigBytes[64] != 0 && sigBytes[64] != 1 {
		return nil, fmt.Errorf("wrong signature recovery id")
	}
	if sigBytes[64] == 27 || sigBytes[64] == 28 {
		sigBytes[64] -= 27
	}

	digest := bidDigest(transferID, round)
	pubKey, err := crypto.Ecrecover(digest.Bytes(), sigBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot recover public key")
	}

	return publicKeyBytesToAddress(pubKey), nil
}

func publicKeyBytesToAddress(publicKey []byte) *common.Address {
	if len(publicKey) < 1 {
		return nil
	}

	hash := crypto.Keccak256Hash(publicKey[1:]).Bytes()
	addr := common.BytesToAddress(hash[12:])
	return &addr
}
