package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	config "github.com/dmutua254/home_services/configs"
	"github.com/go-redis/redis/v8"
)

var Client *redis.Client

// Verification block markers live as long as an access token can, so a page
// reload or a fresh tab within the same session cannot bypass a block.
const verifyBlockTTL = 72 * time.Hour

func InitCache() {
	Client = redis.NewClient(&redis.Options{
		Addr:     config.Config("REDIS_ADDR"),
		Password: config.Config("REDIS_PASSWORD"),
		DB:       0,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := Client.Ping(ctx).Result(); err != nil {
		log.Fatalf("🔥 Failed to connect to Redis: %v", err)
	}
	fmt.Println("✅ Redis connected successfully")
}

func GetClient() *redis.Client {
	if Client == nil {
		InitCache()
	}
	return Client
}

func verifyBlockKey(bookingID, orderID string) string {
	return fmt.Sprintf("verifyblock:%s:%s", bookingID, orderID)
}

// BlockVerification permanently marks a (booking, order) pair as
// not-retryable for the session window. Write once, never cleared.
func BlockVerification(ctx context.Context, bookingID, orderID string) error {
	return GetClient().SetNX(ctx, verifyBlockKey(bookingID, orderID), "blocked", verifyBlockTTL).Err()
}

func IsVerificationBlocked(ctx context.Context, bookingID, orderID string) (bool, error) {
	n, err := GetClient().Exists(ctx, verifyBlockKey(bookingID, orderID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkWebhookProcessed returns false when the webhook event was already seen.
func MarkWebhookProcessed(ctx context.Context, eventID string) (bool, error) {
	return GetClient().SetNX(ctx, "webhook:"+eventID, "1", 24*time.Hour).Result()
}
