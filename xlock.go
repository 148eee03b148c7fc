// Copyright (c) 2025-2026 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package xlock implements X-Lock, an XOR-based fuzzy extractor that
// derives a stable cryptographic key from a noisy high-entropy source such
// as an SRAM PUF.
//
// Enroll locks a random pool into the vault under a source index seed. Gen
// then produces a key together with the rest of the public helper data (a
// nonce, a robustness token, and the key index seed) from a reading of the
// source and the vault. Rep reproduces the same key from any sufficiently close
// later reading using only the helper data, and detects failed
// reproduction via the robustness token.
//
// The core is single-threaded and non-suspending: every primitive is a
// pure function over its arguments plus, optionally, the caller's seed
// slots. All buffers are caller-owned and sized exactly by the
// configuration.
package xlock

import (
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"io"
	"time"

	prng "github.com/sixafter/prng-chacha"
)

var (
	// ErrNilOutput is returned when an index output slice is nil.
	ErrNilOutput = errors.New("nil output slice")

	// ErrInvalidSize is returned when an index output slice is empty.
	ErrInvalidSize = errors.New("index count must be at least 1")

	// ErrInvalidRange is returned when an index range has high <= low.
	ErrInvalidRange = errors.New("invalid index range")

	// ErrRangeTooSmall is returned when sampling without replacement from
	// a range smaller than the requested index count.
	ErrRangeTooSmall = errors.New("range too small for sampling without replacement")

	// ErrNilRandReader is returned when the random reader is nil.
	ErrNilRandReader = errors.New("nil random reader")

	// ErrNilPRF is returned when the PRF is nil.
	ErrNilPRF = errors.New("nil PRF")

	// ErrNilHelper is returned when a nil Helper is passed to Enroll, Gen
	// or Rep.
	ErrNilHelper = errors.New("nil helper data")

	// ErrInvalidSourceBits is returned when the source length is not a
	// positive number of bits.
	ErrInvalidSourceBits = errors.New("source bits must be at least 1")

	// ErrInvalidPoolBits is returned when the pool length is not a
	// positive number of bits.
	ErrInvalidPoolBits = errors.New("pool bits must be at least 1")

	// ErrInvalidKeyPreBits is returned when the pre-key length is not a
	// positive number of bits.
	ErrInvalidKeyPreBits = errors.New("pre-key bits must be at least 1")

	// ErrInvalidKeyBits is returned when the key length is not a positive
	// multiple of 8 bits.
	ErrInvalidKeyBits = errors.New("key bits must be a positive multiple of 8")

	// ErrInvalidTokenBytes is returned when the token length is not
	// positive.
	ErrInvalidTokenBytes = errors.New("token bytes must be at least 1")

	// ErrInvalidLocks is returned when the lock count is not positive.
	ErrInvalidLocks = errors.New("lock count must be at least 1")

	// ErrInvalidXoration is returned when the XOR arity is not positive.
	ErrInvalidXoration = errors.New("xoration count must be at least 1")

	// ErrSourceTooSmall is returned when the source cannot fit the index
	// set drawn without replacement: source_bits < pool_bits*locks*xoration.
	ErrSourceTooSmall = errors.New("source too small for index set without replacement")

	// ErrPoolTooSmall is returned when the pool cannot fit the key index
	// set drawn without replacement: pool_bits < key_pre_bits.
	ErrPoolTooSmall = errors.New("pool too small for key indices without replacement")

	// ErrBufferSize is returned when a caller-owned buffer does not match
	// the length the configuration requires.
	ErrBufferSize = errors.New("buffer length does not match configuration")

	// ErrInvalidSeed is returned by Rep when a required seed is the zero
	// sentinel; reproduction needs the exact seeds Gen published.
	ErrInvalidSeed = errors.New("seed must be the non-zero value published by Gen")

	// ErrReproductionFailed is returned by Rep when the robustness token
	// does not verify; the caller's key buffer is zeroed first.
	ErrReproductionFailed = errors.New("reproduction failed: robustness token mismatch")
)

// Reference parameter set. These defaults reproduce the construction's
// benchmark configuration: a 64032-bit source, 256-bit pool, 80-bit
// pre-key, 64 locks per pool bit and 2 source bits per XOR-ation, with a
// 256-bit key and a 256-bit robustness token.
const (
	// DefaultSourceBytes is the default source length in bytes.
	DefaultSourceBytes = 8004

	// DefaultSourceBits is the default source length in bits.
	DefaultSourceBits = DefaultSourceBytes * 8

	// DefaultPoolBytes is the default pool length in bytes.
	DefaultPoolBytes = 32

	// DefaultPoolBits is the default pool length in bits.
	DefaultPoolBits = DefaultPoolBytes * 8

	// DefaultKeyPreBits is the default pre-key length in bits.
	DefaultKeyPreBits = 80

	// DefaultKeyBits is the default derived key length in bits.
	DefaultKeyBits = 256

	// DefaultTokenBytes is the default robustness token length in bytes.
	DefaultTokenBytes = 32

	// DefaultLocks is the default number of lock cells per pool bit.
	DefaultLocks = 64

	// DefaultXoration is the default number of source bits XOR-ed into
	// each lock cell.
	DefaultXoration = 2
)

// Option defines a function type for configuring the Extractor.
type Option func(*ConfigOptions)

// WithSourceBits sets the source length in bits.
func WithSourceBits(bits int) Option {
	return func(c *ConfigOptions) {
		c.SourceBits = bits
	}
}

// WithPoolBits sets the pool length in bits.
func WithPoolBits(bits int) Option {
	return func(c *ConfigOptions) {
		c.PoolBits = bits
	}
}

// WithKeyPreBits sets the pre-key length in bits.
func WithKeyPreBits(bits int) Option {
	return func(c *ConfigOptions) {
		c.KeyPreBits = bits
	}
}

// WithKeyBits sets the derived key length in bits; must be a multiple of 8.
func WithKeyBits(bits int) Option {
	return func(c *ConfigOptions) {
		c.KeyBits = bits
	}
}

// WithTokenBytes sets the robustness token length in bytes.
func WithTokenBytes(n int) Option {
	return func(c *ConfigOptions) {
		c.TokenBytes = n
	}
}

// WithLocks sets the number of lock cells per pool bit. With an even lock
// count a majority tie decodes to 0; see Unlock.
func WithLocks(n int) Option {
	return func(c *ConfigOptions) {
		c.Locks = n
	}
}

// WithXoration sets the number of source bits XOR-ed into each lock cell.
func WithXoration(n int) Option {
	return func(c *ConfigOptions) {
		c.Xoration = n
	}
}

// WithRandReader sets a custom random reader for enrollment fills, seed
// minting and nonce minting.
func WithRandReader(reader io.Reader) Option {
	return func(c *ConfigOptions) {
		c.RandReader = reader
	}
}

// WithPRF sets the keyed pseudorandom function used for key and token
// derivation. Gen and Rep must use the same variant.
func WithPRF(prf PRF) Option {
	return func(c *ConfigOptions) {
		c.PRF = prf
	}
}

// ConfigOptions holds the configurable options for the Extractor.
// It is used with the Function Options pattern.
type ConfigOptions struct {
	// RandReader is the source of randomness for enrollment fills and for
	// minting seeds and nonces. By default it is prng.Reader, a
	// ChaCha20-based cryptographically secure PRNG. Index generation
	// itself is always deterministic in the seeds and never touches it.
	RandReader io.Reader

	// PRF is the keyed pseudorandom function for key and token
	// derivation. Defaults to HMAC-SHA256.
	PRF PRF

	// SourceBits is the source length in bits. Must satisfy
	// SourceBits >= PoolBits*Locks*Xoration so the source index set fits
	// without replacement.
	SourceBits int

	// PoolBits is the pool length in bits. Must satisfy
	// PoolBits >= KeyPreBits so the key index set fits without
	// replacement.
	PoolBits int

	// KeyPreBits is the pre-key length in bits.
	KeyPreBits int

	// KeyBits is the derived key length in bits; a multiple of 8.
	KeyBits int

	// TokenBytes is the robustness token length in bytes.
	TokenBytes int

	// Locks is the number of lock cells per pool bit.
	Locks int

	// Xoration is the number of source bits XOR-ed into each lock cell.
	Xoration int
}

// Config holds the runtime configuration for the Extractor.
// It is immutable after initialization.
type Config interface {
	// RandReader returns the source of randomness used for enrollment
	// fills and seed minting.
	RandReader() io.Reader

	// PRF returns the keyed pseudorandom function in use.
	PRF() PRF

	// SourceBits returns the source length in bits.
	SourceBits() int

	// SourceBytes returns the source buffer length in bytes.
	SourceBytes() int

	// PoolBits returns the pool length in bits.
	PoolBits() int

	// PoolBytes returns the pool buffer length in bytes.
	PoolBytes() int

	// KeyPreBits returns the pre-key length in bits.
	KeyPreBits() int

	// KeyBits returns the derived key length in bits.
	KeyBits() int

	// KeyBytes returns the derived key length in bytes.
	KeyBytes() int

	// TokenBytes returns the robustness token length in bytes.
	TokenBytes() int

	// Locks returns the number of lock cells per pool bit.
	Locks() int

	// Xoration returns the number of source bits XOR-ed into each lock
	// cell.
	Xoration() int

	// VaultBits returns the vault length in bits: PoolBits*Locks.
	VaultBits() int

	// VaultBytes returns the vault buffer length in bytes.
	VaultBytes() int

	// SourceIndexCount returns the length of the source index set:
	// PoolBits*Locks*Xoration.
	SourceIndexCount() int
}

// Configuration defines the interface for retrieving extractor
// configuration.
type Configuration interface {
	// Config returns the runtime configuration of the extractor.
	Config() Config
}

// runtimeConfig holds the runtime configuration for the Extractor.
// It is immutable after initialization.
type runtimeConfig struct {
	randReader io.Reader
	prf        PRF

	sourceBits int
	poolBits   int
	keyPreBits int
	keyBits    int
	tokenBytes int
	locks      int
	xoration   int

	sourceIndexCount int
	vaultBits        int
}

// Helper is the public helper data of one vault: everything Gen publishes
// and Rep consumes. None of it is secret; possession of the helper data
// alone does not reveal the key.
//
// The zero value of each seed is the "please generate" sentinel: Enroll
// mints SourceSeed when it is zero, Gen mints KeySeed and Nonce when they
// are zero, and all minted values are written back so the caller can
// persist them. Rep requires the exact post-Gen values.
type Helper struct {
	// Vault is the bit grid binding the pool to the source, stored
	// row-major (pool bit major, lock minor), PoolBits*Locks bits.
	Vault []byte

	// Token is the robustness token: PRF(key_seed, key).
	Token []byte

	// SourceSeed deterministically derives the source index set.
	SourceSeed uint64

	// KeySeed deterministically derives the key index set.
	KeySeed uint64

	// Nonce keys the final key derivation: key = PRF(nonce, pre-key).
	Nonce uint64
}

// Extractor defines the interface for the X-Lock fuzzy extractor.
type Extractor interface {
	// Enroll randomly fills source and pool, materializes the source
	// index set from h.SourceSeed (minting it when zero) and locks the
	// pool into h.Vault. The pool is not retained by the construction;
	// only the vault is publishable.
	Enroll(source, pool []byte, h *Helper) error

	// Gen derives the key from a (possibly noisy) source reading and the
	// vault, writes it into key, and completes h with the nonce, token
	// and any minted seeds. The elapsed duration is diagnostic only.
	Gen(read []byte, h *Helper, key Key) (time.Duration, error)

	// Rep reproduces the key from a later reading using the published
	// helper data. On token mismatch the key buffer is zeroed and
	// ErrReproductionFailed returned. The elapsed duration is diagnostic
	// only.
	Rep(read []byte, h *Helper, key Key) (time.Duration, error)
}

// extractor implements the Extractor interface.
type extractor struct {
	config *runtimeConfig
}

// NewExtractor creates a new Extractor. It accepts variadic Option
// parameters to override the reference parameter set. It returns an error
// when the parameters violate the construction's invariants.
func NewExtractor(options ...Option) (Extractor, error) {
	configOpts := &ConfigOptions{
		RandReader: prng.Reader,
		PRF:        HMACSHA256(),
		SourceBits: DefaultSourceBits,
		PoolBits:   DefaultPoolBits,
		KeyPreBits: DefaultKeyPreBits,
		KeyBits:    DefaultKeyBits,
		TokenBytes: DefaultTokenBytes,
		Locks:      DefaultLocks,
		Xoration:   DefaultXoration,
	}

	for _, opt := range options {
		opt(configOpts)
	}

	config, err := buildRuntimeConfig(configOpts)
	if err != nil {
		return nil, err
	}

	return &extractor{config: config}, nil
}

// buildRuntimeConfig validates ConfigOptions and constructs the immutable
// runtime configuration.
func buildRuntimeConfig(opts *ConfigOptions) (*runtimeConfig, error) {
	switch {
	case opts.RandReader == nil:
		return nil, ErrNilRandReader
	case opts.PRF == nil:
		return nil, ErrNilPRF
	case opts.SourceBits < 1:
		return nil, ErrInvalidSourceBits
	case opts.PoolBits < 1:
		return nil, ErrInvalidPoolBits
	case opts.KeyPreBits < 1:
		return nil, ErrInvalidKeyPreBits
	case opts.KeyBits < 8 || opts.KeyBits%8 != 0:
		return nil, ErrInvalidKeyBits
	case opts.TokenBytes < 1:
		return nil, ErrInvalidTokenBytes
	case opts.Locks < 1:
		return nil, ErrInvalidLocks
	case opts.Xoration < 1:
		return nil, ErrInvalidXoration
	}

	// Catastrophic invariants: index sets drawn without replacement must
	// fit their ranges. Checked here so Gen and Rep never have to.
	if opts.SourceBits < opts.PoolBits*opts.Locks*opts.Xoration {
		return nil, ErrSourceTooSmall
	}
	if opts.PoolBits < opts.KeyPreBits {
		return nil, ErrPoolTooSmall
	}

	return &runtimeConfig{
		randReader:       opts.RandReader,
		prf:              opts.PRF,
		sourceBits:       opts.SourceBits,
		poolBits:         opts.PoolBits,
		keyPreBits:       opts.KeyPreBits,
		keyBits:          opts.KeyBits,
		tokenBytes:       opts.TokenBytes,
		locks:            opts.Locks,
		xoration:         opts.Xoration,
		sourceIndexCount: opts.PoolBits * opts.Locks * opts.Xoration,
		vaultBits:        opts.PoolBits * opts.Locks,
	}, nil
}

// Enroll implements Extractor.
func (e *extractor) Enroll(source, pool []byte, h *Helper) error {
	cfg := e.config
	if h == nil {
		return ErrNilHelper
	}
	if len(source) != cfg.SourceBytes() || len(pool) != cfg.PoolBytes() {
		return ErrBufferSize
	}
	if h.Vault == nil {
		h.Vault = make([]byte, cfg.VaultBytes())
	} else if len(h.Vault) != cfg.VaultBytes() {
		return ErrBufferSize
	}

	if err := RandomFill(cfg.randReader, source); err != nil {
		return err
	}
	if err := RandomFill(cfg.randReader, pool); err != nil {
		return err
	}

	srcIdx := make([]uint32, cfg.sourceIndexCount)
	if _, err := GenerateWithReader(cfg.randReader, &h.SourceSeed, srcIdx, 0, uint32(cfg.sourceBits), false); err != nil {
		return err
	}

	Lock(source, srcIdx, pool, cfg.poolBits, cfg.locks, cfg.xoration, h.Vault)

	return nil
}

// Gen implements Extractor.
func (e *extractor) Gen(read []byte, h *Helper, key Key) (time.Duration, error) {
	cfg := e.config
	if h == nil {
		return 0, ErrNilHelper
	}
	if len(read) != cfg.SourceBytes() || len(key) != cfg.KeyBytes() || len(h.Vault) != cfg.VaultBytes() {
		return 0, ErrBufferSize
	}
	if h.Token == nil {
		h.Token = make([]byte, cfg.tokenBytes)
	} else if len(h.Token) != cfg.tokenBytes {
		return 0, ErrBufferSize
	}

	start := time.Now()

	keyPre, err := e.unlockPreKey(read, h)
	if err != nil {
		return 0, err
	}

	// Fresh nonce for the final key; the zero value means mint, any other
	// value is reused so a Gen transcript can be replayed exactly.
	if h.Nonce == 0 {
		n, err := mintSeed(cfg.randReader)
		if err != nil {
			return 0, err
		}
		h.Nonce = n
	}

	copy(key, cfg.prf.MAC(seedBytes(h.Nonce), keyPre, cfg.KeyBytes()))
	copy(h.Token, cfg.prf.MAC(seedBytes(h.KeySeed), key, cfg.tokenBytes))

	return time.Since(start), nil
}

// Rep implements Extractor.
func (e *extractor) Rep(read []byte, h *Helper, key Key) (time.Duration, error) {
	cfg := e.config
	if h == nil {
		return 0, ErrNilHelper
	}
	if len(read) != cfg.SourceBytes() || len(key) != cfg.KeyBytes() ||
		len(h.Vault) != cfg.VaultBytes() || len(h.Token) != cfg.tokenBytes {
		return 0, ErrBufferSize
	}
	if h.SourceSeed == 0 || h.KeySeed == 0 || h.Nonce == 0 {
		return 0, ErrInvalidSeed
	}

	start := time.Now()

	keyPre, err := e.unlockPreKey(read, h)
	if err != nil {
		return 0, err
	}

	copy(key, cfg.prf.MAC(seedBytes(h.Nonce), keyPre, cfg.KeyBytes()))
	token := cfg.prf.MAC(seedBytes(h.KeySeed), key, cfg.tokenBytes)

	if subtle.ConstantTimeCompare(token, h.Token) != 1 {
		for i := range key {
			key[i] = 0
		}
		return time.Since(start), ErrReproductionFailed
	}

	return time.Since(start), nil
}

// unlockPreKey rematerializes both index sets from the helper's seeds,
// minting and writing back any zero seed, and majority-vote decodes the
// pre-key from the reading and the vault. The returned buffer is
// function-local scratch owned by the caller.
func (e *extractor) unlockPreKey(read []byte, h *Helper) (BitBuffer, error) {
	cfg := e.config

	srcIdx := make([]uint32, cfg.sourceIndexCount)
	if _, err := GenerateWithReader(cfg.randReader, &h.SourceSeed, srcIdx, 0, uint32(cfg.sourceBits), false); err != nil {
		return nil, err
	}
	keyIdx := make([]uint32, cfg.keyPreBits)
	if _, err := GenerateWithReader(cfg.randReader, &h.KeySeed, keyIdx, 0, uint32(cfg.poolBits), false); err != nil {
		return nil, err
	}

	keyPre := make(BitBuffer, BytesForBits(cfg.keyPreBits))
	Unlock(read, srcIdx, h.Vault, keyPre, keyIdx, cfg.locks, cfg.xoration)

	return keyPre, nil
}

// seedBytes returns the little-endian byte encoding of a seed or nonce,
// the form in which seeds enter the PRF.
func seedBytes(s uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], s)
	return b[:]
}

// Config returns the runtime configuration for the extractor.
// It implements the Configuration interface.
func (e *extractor) Config() Config {
	return e.config
}

// RandReader is the source of randomness used for enrollment fills and
// seed minting.
func (r runtimeConfig) RandReader() io.Reader {
	return r.randReader
}

// PRF is the keyed pseudorandom function in use.
func (r runtimeConfig) PRF() PRF {
	return r.prf
}

// SourceBits is the source length in bits.
func (r runtimeConfig) SourceBits() int {
	return r.sourceBits
}

// SourceBytes is the source buffer length in bytes.
func (r runtimeConfig) SourceBytes() int {
	return BytesForBits(r.sourceBits)
}

// PoolBits is the pool length in bits.
func (r runtimeConfig) PoolBits() int {
	return r.poolBits
}

// PoolBytes is the pool buffer length in bytes.
func (r runtimeConfig) PoolBytes() int {
	return BytesForBits(r.poolBits)
}

// KeyPreBits is the pre-key length in bits.
func (r runtimeConfig) KeyPreBits() int {
	return r.keyPreBits
}

// KeyBits is the derived key length in bits.
func (r runtimeConfig) KeyBits() int {
	return r.keyBits
}

// KeyBytes is the derived key length in bytes.
func (r runtimeConfig) KeyBytes() int {
	return r.keyBits / 8
}

// TokenBytes is the robustness token length in bytes.
func (r runtimeConfig) TokenBytes() int {
	return r.tokenBytes
}

// Locks is the number of lock cells per pool bit.
func (r runtimeConfig) Locks() int {
	return r.locks
}

// Xoration is the number of source bits XOR-ed into each lock cell.
func (r runtimeConfig) Xoration() int {
	return r.xoration
}

// VaultBits is the vault length in bits.
func (r runtimeConfig) VaultBits() int {
	return r.vaultBits
}

// VaultBytes is the vault buffer length in bytes.
func (r runtimeConfig) VaultBytes() int {
	return BytesForBits(r.vaultBits)
}

// SourceIndexCount is the length of the source index set.
func (r runtimeConfig) SourceIndexCount() int {
	return r.sourceIndexCount
}
