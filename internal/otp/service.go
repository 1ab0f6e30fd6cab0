package otp

import (
	"context"
	"log"
	"time"
)

// Service chains a durable ledger with the static file fallback. Either
// store may be nil. Fallback is explicit: the file store is consulted when
// the durable store has no match or is unreachable, never on its own error.
type Service struct {
	durable  Store
	fallback Store
	timeout  time.Duration
}

func NewService(durable, fallback Store, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{durable: durable, fallback: fallback, timeout: timeout}
}

// Redeem resolves a code per the documented order: durable strict record,
// durable map, then file fallback. A durable-store error is logged and
// degrades to the fallback; it surfaces to the caller only when no fallback
// can answer.
func (s *Service) Redeem(ctx context.Context, testIDHint, code string) (Result, error) {
	var durableErr error

	if s.durable != nil {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		res, err := s.durable.Redeem(rctx, testIDHint, code)
		cancel()
		if err == nil && res.OK {
			return res, nil
		}
		if err != nil {
			log.Printf("otp: durable redeem failed, trying fallback: %v", err)
			durableErr = err
		}
	}

	if s.fallback != nil {
		rctx, cancel := context.WithTimeout(ctx, s.timeout)
		res, err := s.fallback.Redeem(rctx, testIDHint, code)
		cancel()
		if err != nil {
			log.Printf("otp: file fallback redeem failed: %v", err)
			return Result{}, err
		}
		return res, nil
	}

	if durableErr != nil {
		return Result{}, durableErr
	}
	return Result{OK: false}, nil
}
