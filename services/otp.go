// services/otp.go
package services

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const (
	OTPTTL         = 5 * time.Minute
	OTPMaxAttempts = 5
)

var (
	ErrOTPNotFound        = errors.New("otp not requested or already consumed")
	ErrOTPExpired         = errors.New("otp has expired")
	ErrOTPTooManyAttempts = errors.New("too many otp attempts")
	ErrOTPInvalidCode     = errors.New("invalid otp")
)

type otpRecord struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// OTPStore is an in-memory registry of pending one-time codes keyed by
// normalized phone number. Expired records are purged lazily on the next
// verification attempt against that key; there is no background eviction.
type OTPStore struct {
	mu      sync.Mutex
	records map[string]otpRecord
	now     func() time.Time
}

func NewOTPStore() *OTPStore {
	return &OTPStore{
		records: make(map[string]otpRecord),
		now:     time.Now,
	}
}

// OTP is the process-wide store consumed by the auth handlers.
var OTP = NewOTPStore()

// Request generates a 6-digit code for the phone and stores it with a fresh
// TTL, unconditionally overwriting any prior pending code.
func (s *OTPStore) Request(phone string) string {
	code := fmt.Sprintf("%06d", 100000+rand.Intn(900000))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[phone] = otpRecord{
		code:      code,
		expiresAt: s.now().Add(OTPTTL),
		attempts:  0,
	}
	return code
}

// Verify checks the code for the phone. The record is consumed on success,
// and deleted on expiry or when the attempt limit is reached. A plain
// mismatch increments the attempt counter and keeps the record.
func (s *OTPStore) Verify(phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[phone]
	if !ok {
		return ErrOTPNotFound
	}

	if s.now().After(rec.expiresAt) {
		delete(s.records, phone)
		return ErrOTPExpired
	}

	if rec.attempts >= OTPMaxAttempts {
		delete(s.records, phone)
		return ErrOTPTooManyAttempts
	}

	if rec.code != code {
		rec.attempts++
		s.records[phone] = rec
		return ErrOTPInvalidCode
	}

	delete(s.records, phone)
	return nil
}
