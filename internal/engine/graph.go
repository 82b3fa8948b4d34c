package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"fortuna/internal/store"
)

// GenerateReferralCode draws prefixed codes until one is collision-free.
// The retry ceiling turns a pathologically full code space into a loud
// failure instead of an endless loop.
func (e *Engine) GenerateReferralCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code := fmt.Sprintf("%s%06d", CodePrefix, rand.Intn(1000000))
		if code == RootCode {
			continue
		}
		_, err := e.St.UserByCode(ctx, code)
		if errors.Is(err, store.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free referral code after %d attempts", codeAttempts)
}
