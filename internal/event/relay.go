package event

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// OtpRelay is the lightweight pub/sub exchange between the OTP issuer and the
// external notifier. The notifier subscribes to the otp.generated channel and
// handles rendering and delivery.
type OtpRelay struct {
	rdb *redis.Client
}

func NewOtpRelay(rdb *redis.Client) *OtpRelay {
	return &OtpRelay{rdb: rdb}
}

func (r *OtpRelay) PublishOtpGenerated(ctx context.Context, msg *OtpGeneratedMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := r.rdb.Publish(ctx, ChannelOtpGenerated, payload).Err(); err != nil {
		log.Printf("[WARN] failed to publish otp.generated for user %s: %v", msg.UserID, err)
		return err
	}

	return nil
}
