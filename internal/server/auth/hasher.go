package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Algorithm names accepted by NewPasswordHasher.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// PasswordHasher hashes passwords into self-describing strings and verifies
// candidates against them.
type PasswordHasher interface {
	// Hash produces a salted hash embedding algorithm and cost parameters.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and an
	// error wrapping common.ErrorInternal when the hash cannot be parsed.
	Verify(password, hash string) (bool, error)

	// NeedsUpgrade reports whether hash was made with other parameters than
	// the ones this hasher would use today.
	NeedsUpgrade(hash string) bool
}

func invalidHash(format string, args ...any) error {
	return oops.In("hasher").Code("AUTH_INVALID_HASH").Wrapf(common.ErrorInternal, format, args...)
}

// Argon2Params are the argon2id cost parameters.
type Argon2Params struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

// DefaultArgon2Params are the OWASP-recommended argon2id parameters.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	SaltLen: 16,
	KeyLen:  32,
}

// Argon2idHasher implements PasswordHasher using argon2id and the PHC string
// format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>.
type Argon2idHasher struct {
	params Argon2Params
}

func NewArgon2idHasher(p Argon2Params) *Argon2idHasher {
	return &Argon2idHasher{params: p}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", common.Required("password")
	}

	salt := make([]byte, h.params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.In("hasher").Code("AUTH_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, h.params.KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

type argon2Hash struct {
	params Argon2Params
	salt   []byte
	key    []byte
}

func parseArgon2Hash(encoded string) (*argon2Hash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, invalidHash("invalid argon2id hash format")
	}
	if parts[1] != "argon2id" {
		return nil, invalidHash("unsupported hash algorithm %q", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, invalidHash("unsupported argon2 version %q", parts[2])
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, invalidHash("invalid argon2id parameters %q", parts[3])
	}
	if threads == 0 || threads > 255 || time == 0 {
		return nil, invalidHash("argon2id parameters out of range %q", parts[3])
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, invalidHash("invalid argon2id salt")
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, invalidHash("invalid argon2id key")
	}
	if len(key) == 0 || len(key) > 1024 {
		return nil, invalidHash("invalid argon2id key length %d", len(key))
	}

	return &argon2Hash{
		params: Argon2Params{
			Time:    time,
			Memory:  memory,
			Threads: uint8(threads),
			SaltLen: uint32(len(salt)),
			KeyLen:  uint32(len(key)),
		},
		salt: salt,
		key:  key,
	}, nil
}

func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	parsed, err := parseArgon2Hash(encodedHash)
	if err != nil {
		return false, err
	}

	p := parsed.params
	computed := argon2.IDKey([]byte(password), parsed.salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return subtle.ConstantTimeCompare(computed, parsed.key) == 1, nil
}

func (h *Argon2idHasher) NeedsUpgrade(encodedHash string) bool {
	parsed, err := parseArgon2Hash(encodedHash)
	if err != nil {
		return true
	}
	return parsed.params != h.params
}

// BcryptHasher implements PasswordHasher using bcrypt ($2a$<cost>$...).
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) *BcryptHasher {
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", common.Required("password")
	}

	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", &common.FieldError{Field: "password", Reason: "is too long"}
		}
		return "", oops.In("hasher").Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(b), nil
}

// Verify relies on bcrypt.CompareHashAndPassword, which compares in constant
// time.
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, invalidHash("invalid bcrypt hash: %v", err)
	}
}

func (h *BcryptHasher) NeedsUpgrade(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	return err != nil || cost != h.cost
}

// MultiHasher hashes with its primary algorithm and verifies any hash whose
// prefix names a known algorithm, so switching algorithms keeps old hashes
// usable.
type MultiHasher struct {
	primary  PasswordHasher
	argon2id *Argon2idHasher
	bcrypt   *BcryptHasher
}

// NewPasswordHasher returns a MultiHasher whose primary algorithm is
// algorithm ("argon2id" or "bcrypt").
func NewPasswordHasher(algorithm string, argon2Params Argon2Params, bcryptCost int) (*MultiHasher, error) {
	m := &MultiHasher{
		argon2id: NewArgon2idHasher(argon2Params),
		bcrypt:   NewBcryptHasher(bcryptCost),
	}
	switch algorithm {
	case AlgorithmArgon2id:
		m.primary = m.argon2id
	case AlgorithmBcrypt:
		if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", bcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
		}
		m.primary = m.bcrypt
	default:
		return nil, fmt.Errorf("unknown password hasher %q", algorithm)
	}
	return m, nil
}

func (m *MultiHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *MultiHasher) Verify(password, hash string) (bool, error) {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return m.argon2id.Verify(password, hash)
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return m.bcrypt.Verify(password, hash)
	default:
		return false, invalidHash("unrecognised hash prefix")
	}
}

func (m *MultiHasher) NeedsUpgrade(hash string) bool {
	return m.primary.NeedsUpgrade(hash)
}
