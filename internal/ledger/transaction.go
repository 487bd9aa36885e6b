package ledger

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/google/uuid"
)

var (
	ErrBadSignature   = errors.New("transaction signature verification failed")
	ErrMissingSigner  = errors.New("transaction has no signer")
	ErrUnknownProgram = errors.New("unknown program")
)

// Transaction is one signed instruction against a single account. The entire
// envelope is covered by the signature, so a tampered instruction fails
// verification before any program logic runs.
type Transaction struct {
	ID        uuid.UUID
	Program   ProgramID
	Account   Address
	Op        int64
	Params    []byte // instruction-specific payload, JSON-encoded
	Signer    []byte // compressed secp256k1 public key
	Signature []byte // DER-encoded ECDSA signature over Digest
}

// Digest is the canonical signing hash of the transaction envelope.
func (tx *Transaction) Digest() [32]byte {
	h := sha256.New()
	h.Write(tx.ID[:])
	h.Write([]byte(tx.Program))
	h.Write(tx.Account[:])
	var op [8]byte
	binary.LittleEndian.PutUint64(op[:], uint64(tx.Op))
	h.Write(op[:])
	h.Write(tx.Params)
	h.Write(tx.Signer)
	var d [32]byte
	copy(d[:], h.Sum(nil))
	return d
}

// Sign fills Signer and Signature from the given private key.
func (tx *Transaction) Sign(priv *secp256k1.PrivateKey) {
	tx.Signer = priv.PubKey().SerializeCompressed()
	digest := tx.Digest()
	tx.Signature = ecdsa.Sign(priv, digest[:]).Serialize()
}

// VerifySignature checks the envelope signature against the signer key.
func (tx *Transaction) VerifySignature() error {
	if len(tx.Signer) == 0 {
		return ErrMissingSigner
	}
	pub, err := secp256k1.ParsePubKey(tx.Signer)
	if err != nil {
		return ErrBadSignature
	}
	sig, err := ecdsa.ParseDERSignature(tx.Signature)
	if err != nil {
		return ErrBadSignature
	}
	digest := tx.Digest()
	if !sig.Verify(digest[:], pub) {
		return ErrBadSignature
	}
	return nil
}
