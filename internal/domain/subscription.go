package domain

type Subscription string

const (
	SubscriptionStarter  Subscription = "starter"
	SubscriptionPro      Subscription = "pro"
	SubscriptionBusiness Subscription = "business"
)

// DefaultSubscription is assigned to every newly registered account.
const DefaultSubscription = SubscriptionStarter

func IsValidSubscription(s string) bool {
	switch Subscription(s) {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	default:
		return false
	}
}
