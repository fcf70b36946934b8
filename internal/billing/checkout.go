package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"

	"github.com/bryceheller922-ship-it/Archaleon/internal/models"
)

// ErrNotConfigured means no hosted payment link exists for the plan and
// interval. Callers may treat this as demo mode and apply the upgrade
// locally.
var ErrNotConfigured = errors.New("no payment link configured for plan")

// Checkout builds redirect URLs to the hosted payment pages.
type Checkout struct {
	links map[string]string // "<planID>_<interval>" -> payment link
}

// NewCheckout creates a Checkout over the configured payment links.
func NewCheckout(links map[string]string) *Checkout {
	return &Checkout{links: links}
}

// Configured reports whether any payment link is set at all.
func (c *Checkout) Configured() bool {
	return len(c.links) > 0
}

// URL builds the hosted checkout URL for a plan, prefilled with the buyer's
// email and carrying their user id as the checkout reference so the webhook
// can attribute the payment.
func (c *Checkout) URL(plan Plan, interval Interval, email, userID string) (string, error) {
	link := c.links[plan.ID+"_"+string(interval)]
	if link == "" {
		return "", fmt.Errorf("%w %s (%s)", ErrNotConfigured, plan.ID, interval)
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid payment link for plan %s: %w", plan.ID, err)
	}
	q := u.Query()
	q.Set("prefilled_email", email)
	q.Set("client_reference_id", userID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ReturnResult is what the hosted checkout encoded in the return URL.
type ReturnResult struct {
	Success bool
	PlanID  string
	Tier    models.SubscriptionTier
}

// ParseReturn reads the checkout outcome from the return URL query. The
// parameters are taken at face value; anyone who knows the URL shape can
// forge a success. The signed webhook is the verified path.
func ParseReturn(query url.Values) (ReturnResult, error) {
	var result ReturnResult
	switch query.Get("payment") {
	case "success":
		result.Success = true
	case "cancelled":
		return result, nil
	default:
		return result, fmt.Errorf("unrecognized payment outcome %q", query.Get("payment"))
	}

	result.PlanID = query.Get("plan")
	plan, ok := PlanByID(result.PlanID)
	if !ok {
		return ReturnResult{}, fmt.Errorf("unknown plan %q in return URL", result.PlanID)
	}

	result.Tier = models.SubscriptionTier(query.Get("tier"))
	switch result.Tier {
	case models.TierFree, models.TierPro, models.TierEnterprise:
	case "":
		result.Tier = plan.Tier
	default:
		return ReturnResult{}, fmt.Errorf("unknown tier %q in return URL", result.Tier)
	}
	return result, nil
}

// WebhookEvent is the server-to-server subscription notification payload.
type WebhookEvent struct {
	Type        string `json:"type"`
	UserID      string `json:"clientReferenceId"`
	PlanID      string `json:"planId"`
	Tier        string `json:"tier"`
	OccurredAt  string `json:"occurredAt,omitempty"`
	EventID     string `json:"eventId,omitempty"`
	Environment string `json:"environment,omitempty"`
}

// VerifyHMAC validates a webhook signature: a hex HMAC-SHA256 digest over
// the raw request body.
func VerifyHMAC(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := mac.Sum(nil)

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, sigBytes)
}

// Sign produces the hex signature for a payload. Used by tests and by
// operators replaying events.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
