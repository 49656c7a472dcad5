package backup

import (
	"errors"
	"fmt"
)

// Structural failure sentinels. Any of these aborts the whole export or
// import; per-row problems are reported through RestoreReport instead.
var (
	ErrEncodingFailed      = errors.New("backup: failed to encode container")
	ErrDecodingFailed      = errors.New("backup: failed to decode container")
	ErrInvalidData         = errors.New("backup: invalid container data")
	ErrCorruptedBackup     = errors.New("backup: corrupted backup data")
	ErrIncompatibleVersion = errors.New("backup: backup version is newer than this app supports")
	ErrEncryptionFailed    = errors.New("backup: encryption failed")
	ErrDecryptionFailed    = errors.New("backup: decryption failed, wrong password or corrupted data")
	ErrKeyDerivationFailed = errors.New("backup: key derivation failed")
)

// MissingFieldError marks a record that lacks one of its required fields.
// Rows failing with it are skipped, not fatal.
type MissingFieldError struct {
	Family string
	Field  string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("backup: %s record missing required field %q", e.Family, e.Field)
}
