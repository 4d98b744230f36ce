package vrf

import (
	"crypto/cipher"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/pairing/bn256"
	"go.dedis.ch/kyber/v3/sign/bls"
	"go.dedis.ch/kyber/v3/util/random"
)

var suite = bn256.NewSuite()

// Proof answers one randomness request: a BLS signature over the request
// seed by the key registered under the request's key hash.
type Proof struct {
	RequestID uint64
	PublicKey []byte
	Signature []byte
}

// Oracle holds a BLS key pair on bn256 and signs request seeds with it.
type Oracle struct {
	secret kyber.Scalar
	public kyber.Point
	pubBuf []byte
}

// NewOracle generates a fresh key pair. A non-empty seed makes the key
// deterministic so a restarted node keeps its key hash.
func NewOracle(seed []byte) (*Oracle, error) {
	var stream cipher.Stream = random.New()
	if len(seed) > 0 {
		// key generation rejection-samples the scalar, so the seeded
		// stream must never run dry
		stream = suite.XOF(crypto.Keccak256(seed))
	}
	secret, public := bls.NewKeyPair(suite, stream)
	buf, err := public.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("couldn't marshal public key: %v", err)
	}
	return &Oracle{secret: secret, public: public, pubBuf: buf}, nil
}

// PublicKey is the marshalled proving key.
func (o *Oracle) PublicKey() []byte {
	return append([]byte(nil), o.pubBuf...)
}

// KeyHash identifies the proving key in randomness requests.
func (o *Oracle) KeyHash() common.Hash {
	return KeyHash(o.pubBuf)
}

// Prove signs the seed of req.
func (o *Oracle) Prove(req Request) (Proof, error) {
	if req.KeyHash != o.KeyHash() {
		return Proof{}, errors.New("request is for another proving key")
	}
	sig, err := bls.Sign(suite, o.secret, req.Seed.Bytes())
	if err != nil {
		return Proof{}, fmt.Errorf("couldn't sign seed: %v", err)
	}
	return Proof{RequestID: req.ID, PublicKey: o.PublicKey(), Signature: sig}, nil
}

func KeyHash(publicKey []byte) common.Hash {
	return crypto.Keccak256Hash(publicKey)
}

func unmarshalKey(buf []byte) (kyber.Point, error) {
	p := suite.G2().Point()
	if err := p.UnmarshalBinary(buf); err != nil {
		return nil, err
	}
	return p, nil
}
